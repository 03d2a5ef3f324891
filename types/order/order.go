package order

import (
	"museum-ticketing/errs"
)

// OrderCreateRequest represents the request payload for creating an order
type OrderCreateRequest struct {
	TicketTypeID uint   `json:"ticket_type_id" validate:"required"`
	Quantity     int    `json:"quantity" validate:"required,min=1,max=99"`
	CustomerNote string `json:"customer_note" validate:"omitempty,max=1000"`
}

func (r OrderCreateRequest) Validate() error {
	if r.TicketTypeID == 0 {
		return errs.Validation("ticket_type_id", "is required")
	}
	if r.Quantity < 1 {
		return errs.Validation("quantity", "must be at least 1")
	}
	// Ticket codes carry a two-digit sequence per order.
	if r.Quantity > 99 {
		return errs.Validation("quantity", "must not exceed 99")
	}
	return nil
}

// ApproveRequest represents the staff payload for approving an order
type ApproveRequest struct {
	AdminNote string `json:"admin_note" validate:"omitempty,max=1000"`
}

// RejectRequest represents the staff payload for rejecting an order
type RejectRequest struct {
	Reason string `json:"rejection_reason" validate:"required,min=1,max=1000"`
}

func (r RejectRequest) Validate() error {
	if r.Reason == "" {
		return errs.Validation("rejection_reason", "is required")
	}
	return nil
}

// BankInfo is the transfer destination shown to the customer together
// with their payment reference.
type BankInfo struct {
	BankName      string `json:"bank_name"`
	AccountNumber string `json:"account_number"`
	AccountName   string `json:"account_name"`
	Content       string `json:"content"`
}
