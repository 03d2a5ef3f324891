package order

// Helper methods for OrderStatus
func (os OrderStatus) String() string {
	return string(os)
}

func (os OrderStatus) IsValid() bool {
	switch os {
	case StatusPending, StatusWaitingConfirmation, StatusPaid, StatusCancelled, StatusRejected, StatusExpired:
		return true
	default:
		return false
	}
}

// IsTerminal returns true if no further transition is allowed from this status
func (os OrderStatus) IsTerminal() bool {
	switch os {
	case StatusPaid, StatusCancelled, StatusRejected, StatusExpired:
		return true
	default:
		return false
	}
}

// CanUploadProof returns true if a payment proof may still be submitted
func (os OrderStatus) CanUploadProof() bool {
	return os == StatusPending || os == StatusWaitingConfirmation
}

// CanBeCancelled returns true if the customer may still cancel the order
func (os OrderStatus) CanBeCancelled() bool {
	return os == StatusPending || os == StatusWaitingConfirmation
}

// Label returns the customer-facing status label
func (os OrderStatus) Label() string {
	switch os {
	case StatusPending:
		return "Awaiting payment"
	case StatusWaitingConfirmation:
		return "Awaiting confirmation"
	case StatusPaid:
		return "Paid"
	case StatusCancelled:
		return "Cancelled"
	case StatusRejected:
		return "Rejected"
	case StatusExpired:
		return "Expired"
	default:
		return string(os)
	}
}

// GetAllOrderStatuses returns all valid order statuses
func GetAllOrderStatuses() []OrderStatus {
	return []OrderStatus{
		StatusPending,
		StatusWaitingConfirmation,
		StatusPaid,
		StatusCancelled,
		StatusRejected,
		StatusExpired,
	}
}
