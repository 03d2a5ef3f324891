package visit

import (
	"museum-ticketing/models/customer"
	"museum-ticketing/models/ticket"
	"time"
)

// VisitHistory records one physical visit attempt for a ticket. At most
// one row per ticket may have a NULL CheckOutTime at any time (the "open"
// visit); DurationMinutes is written exactly once, at check-out.
type VisitHistory struct {
	ID uint `gorm:"primaryKey;autoIncrement" json:"id"`

	// Foreign key for ticket relationship
	TicketID uint          `gorm:"not null;index" json:"ticket_id"`
	Ticket   ticket.Ticket `gorm:"foreignKey:TicketID" json:"ticket"`

	CustomerID uint              `gorm:"not null" json:"customer_id"`
	Customer   customer.Customer `gorm:"foreignKey:CustomerID" json:"customer"`

	CheckInTime     time.Time  `gorm:"not null" json:"check_in_time"`
	CheckOutTime    *time.Time `gorm:"" json:"check_out_time,omitempty"`
	DurationMinutes *int       `gorm:"" json:"duration_minutes,omitempty"`

	Rating   *int    `gorm:"" json:"rating,omitempty"`
	Feedback *string `gorm:"type:text" json:"feedback,omitempty"`

	// Staff member who performed the check-in.
	GuideID uint `gorm:"not null" json:"guide_id"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName sets the table name for the VisitHistory model
func (VisitHistory) TableName() string {
	return "visit_histories"
}
