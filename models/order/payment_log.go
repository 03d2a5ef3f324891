package order

import (
	"time"
)

// Actions recorded in the payment log.
const (
	ActionCreated       = "created"
	ActionProofUploaded = "proof_uploaded"
	ActionApproved      = "approved"
	ActionRejected      = "rejected"
	ActionCancelled     = "cancelled"
	ActionExpired       = "expired"
)

// PaymentLog is an append-only record of one order status transition.
// Rows are written inside the same transaction as the transition itself
// and are never updated or deleted.
type PaymentLog struct {
	ID uint `gorm:"primaryKey;autoIncrement" json:"id"`

	// Foreign key for order relationship
	OrderID uint  `gorm:"not null;index" json:"order_id"`
	Order   Order `gorm:"foreignKey:OrderID" json:"order"`

	Action    string      `gorm:"type:varchar(50);not null" json:"action"`
	OldStatus OrderStatus `gorm:"type:varchar(30);not null" json:"old_status"`
	NewStatus OrderStatus `gorm:"type:varchar(30);not null" json:"new_status"`

	PerformedBy string    `gorm:"type:varchar(255);not null" json:"performed_by"`
	PerformedAt time.Time `gorm:"autoCreateTime" json:"performed_at"`
	Notes       string    `gorm:"type:text" json:"notes"`
}

// TableName sets the table name for the PaymentLog model
func (PaymentLog) TableName() string {
	return "payment_logs"
}
