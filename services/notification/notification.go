// Package notification delivers order lifecycle events to the outside
// world (customer and admin email dispatchers consume them). Delivery is
// best-effort: publish errors are logged and never affect the business
// transition that produced the event.
package notification

import (
	"time"
)

type EventType string

const (
	EventOrderCreated  EventType = "order_created"
	EventProofUploaded EventType = "proof_uploaded"
	EventOrderApproved EventType = "order_approved"
	EventOrderRejected EventType = "order_rejected"
)

// Event is one order lifecycle notification, keyed by order code.
type Event struct {
	Type        EventType `json:"type"`
	OrderCode   string    `json:"order_code"`
	TicketCodes []string  `json:"ticket_codes,omitempty"`
	Reason      string    `json:"reason,omitempty"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// Sink consumes lifecycle events. Implementations must be safe to call
// after the ledger transaction has committed and must never panic.
type Sink interface {
	Publish(event Event) error
}
