package ticket

import (
	"museum-ticketing/models/customer"
	"museum-ticketing/models/tickettype"
	"time"
)

// TicketStatus is the lifecycle status of a ticket.
type TicketStatus string

const (
	StatusActive     TicketStatus = "active"
	StatusCheckedIn  TicketStatus = "checked_in"
	StatusCheckedOut TicketStatus = "checked_out"
	StatusCompleted  TicketStatus = "completed"
	StatusExpired    TicketStatus = "expired"
	StatusCancelled  TicketStatus = "cancelled"
)

// Ticket is one admission credential, issued from an approved order or
// sold directly at the counter (OrderID is NULL for counter sales).
type Ticket struct {
	ID uint `gorm:"primaryKey;autoIncrement" json:"id"`

	// Globally unique, immutable once assigned.
	TicketCode string `gorm:"type:varchar(32);not null;unique" json:"ticket_code"`

	// Foreign key for customer relationship
	CustomerID uint              `gorm:"not null;index" json:"customer_id"`
	Customer   customer.Customer `gorm:"foreignKey:CustomerID" json:"customer"`

	// Foreign key for ticket type relationship
	TicketTypeID uint                  `gorm:"not null" json:"ticket_type_id"`
	TicketType   tickettype.TicketType `gorm:"foreignKey:TicketTypeID" json:"ticket_type"`

	Status TicketStatus `gorm:"type:varchar(30);not null;default:active" json:"status"`

	PurchaseDate time.Time `gorm:"not null" json:"purchase_date"`
	ValidDate    time.Time `gorm:"not null" json:"valid_date"`

	// Originating order; NULL for direct counter sales.
	OrderID *uint `gorm:"index" json:"order_id,omitempty"`

	// Set for counter sales only (cash, card); order payments are always
	// bank transfers tracked on the order itself.
	PaymentMethod *string `gorm:"type:varchar(50)" json:"payment_method,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName sets the table name for the Ticket model
func (Ticket) TableName() string {
	return "tickets"
}
