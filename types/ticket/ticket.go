package ticket

import (
	"museum-ticketing/errs"
)

// SellDirectRequest represents the counter-sale payload
type SellDirectRequest struct {
	CustomerID    uint   `json:"customer_id" validate:"required"`
	TicketTypeID  uint   `json:"ticket_type_id" validate:"required"`
	Quantity      int    `json:"quantity" validate:"required,min=1,max=99"`
	PaymentMethod string `json:"payment_method" validate:"required,oneof=cash card"`
}

func (r SellDirectRequest) Validate() error {
	if r.CustomerID == 0 {
		return errs.Validation("customer_id", "is required")
	}
	if r.TicketTypeID == 0 {
		return errs.Validation("ticket_type_id", "is required")
	}
	if r.Quantity < 1 {
		return errs.Validation("quantity", "must be at least 1")
	}
	if r.Quantity > 99 {
		return errs.Validation("quantity", "must not exceed 99")
	}
	if r.PaymentMethod == "" {
		return errs.Validation("payment_method", "is required")
	}
	return nil
}

// RateRequest represents the rating payload for a completed visit
type RateRequest struct {
	Rating   int    `json:"rating" validate:"required,min=1,max=5"`
	Feedback string `json:"feedback" validate:"omitempty,max=2000"`
}

func (r RateRequest) Validate() error {
	if r.Rating < 1 || r.Rating > 5 {
		return errs.Validation("rating", "must be between 1 and 5")
	}
	return nil
}
