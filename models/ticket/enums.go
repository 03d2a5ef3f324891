package ticket

// Helper methods for TicketStatus
func (ts TicketStatus) String() string {
	return string(ts)
}

func (ts TicketStatus) IsValid() bool {
	switch ts {
	case StatusActive, StatusCheckedIn, StatusCheckedOut, StatusCompleted, StatusExpired, StatusCancelled:
		return true
	default:
		return false
	}
}

// CanCheckIn returns true if the ticket may start a visit
func (ts TicketStatus) CanCheckIn() bool {
	return ts == StatusActive
}

// IsTerminal returns true if the ticket has finished its lifecycle
func (ts TicketStatus) IsTerminal() bool {
	switch ts {
	case StatusCompleted, StatusExpired, StatusCancelled:
		return true
	default:
		return false
	}
}

// Label returns the customer-facing status label
func (ts TicketStatus) Label() string {
	switch ts {
	case StatusActive:
		return "Active"
	case StatusCheckedIn:
		return "Checked in"
	case StatusCheckedOut:
		return "Checked out"
	case StatusCompleted:
		return "Completed"
	case StatusExpired:
		return "Expired"
	case StatusCancelled:
		return "Cancelled"
	default:
		return string(ts)
	}
}
