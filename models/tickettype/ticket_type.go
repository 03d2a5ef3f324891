package tickettype

import (
	"time"
)

// TicketType is a catalog row: one admission category with its current
// price. Orders snapshot the price at creation time; later changes here
// never touch existing orders.
type TicketType struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	TypeName    string    `gorm:"type:varchar(100);not null;unique" json:"type_name"`
	Price       int64     `gorm:"not null" json:"price"`
	Description string    `gorm:"type:text" json:"description"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName sets the table name for the TicketType model
func (TicketType) TableName() string {
	return "ticket_types"
}
