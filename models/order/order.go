package order

import (
	"museum-ticketing/models/customer"
	"museum-ticketing/models/tickettype"
	"time"
)

// OrderStatus is the lifecycle status of an order.
type OrderStatus string

const (
	StatusPending             OrderStatus = "pending"
	StatusWaitingConfirmation OrderStatus = "waiting_confirmation"
	StatusPaid                OrderStatus = "paid"
	StatusCancelled           OrderStatus = "cancelled"
	StatusRejected            OrderStatus = "rejected"
	StatusExpired             OrderStatus = "expired"
)

// Order represents one purchase intent: N tickets of one type, paid by
// manual bank transfer and confirmed by staff.
type Order struct {
	ID uint `gorm:"primaryKey;autoIncrement" json:"id"`

	// Human-readable code, minted once at creation, immutable.
	OrderCode string `gorm:"type:varchar(32);not null;unique" json:"order_code"`

	// Foreign key for customer relationship
	CustomerID uint              `gorm:"not null;index" json:"customer_id"`
	Customer   customer.Customer `gorm:"foreignKey:CustomerID" json:"customer"`

	// Foreign key for ticket type relationship
	TicketTypeID uint                  `gorm:"not null" json:"ticket_type_id"`
	TicketType   tickettype.TicketType `gorm:"foreignKey:TicketTypeID" json:"ticket_type"`

	Quantity int `gorm:"not null" json:"quantity"`

	// Price snapshot taken at creation; catalog changes never touch it.
	UnitPrice  int64 `gorm:"not null" json:"unit_price"`
	TotalPrice int64 `gorm:"not null" json:"total_price"`

	Status OrderStatus `gorm:"type:varchar(30);not null;default:pending" json:"status"`

	// Bank-transfer memo the customer must include; the sole out-of-band
	// signal staff use to match a deposit to an order.
	PaymentReference string `gorm:"type:varchar(32);not null;unique" json:"payment_reference"`

	// Opaque reference into the proof file store.
	PaymentProofRef *string `gorm:"type:varchar(255)" json:"payment_proof_ref,omitempty"`
	TransactionRef  *string `gorm:"type:varchar(255)" json:"transaction_ref,omitempty"`

	CustomerNote    *string `gorm:"type:text" json:"customer_note,omitempty"`
	AdminNote       *string `gorm:"type:text" json:"admin_note,omitempty"`
	RejectionReason *string `gorm:"type:text" json:"rejection_reason,omitempty"`

	ExpiresAt   time.Time  `gorm:"not null;index" json:"expires_at"`
	PaidAt      *time.Time `gorm:"" json:"paid_at,omitempty"`
	ConfirmedBy *uint      `gorm:"" json:"confirmed_by,omitempty"`
	ConfirmedAt *time.Time `gorm:"" json:"confirmed_at,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName sets the table name for the Order model
func (Order) TableName() string {
	return "orders"
}
