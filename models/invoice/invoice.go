package invoice

import (
	"museum-ticketing/models/customer"
	"time"
)

// Invoice records the bookkeeping side of a direct counter sale. Online
// orders never produce invoices; their money trail lives in payment_logs.
type Invoice struct {
	ID uint `gorm:"primaryKey;autoIncrement" json:"id"`

	InvoiceCode string `gorm:"type:varchar(32);not null;unique" json:"invoice_code"`

	// Staff member who rang up the sale.
	UserID uint `gorm:"not null" json:"user_id"`

	CustomerID uint              `gorm:"not null;index" json:"customer_id"`
	Customer   customer.Customer `gorm:"foreignKey:CustomerID" json:"customer"`

	TotalAmount int64 `gorm:"not null" json:"total_amount"`
	Discount    int64 `gorm:"not null;default:0" json:"discount"`
	Tax         int64 `gorm:"not null;default:0" json:"tax"`
	FinalAmount int64 `gorm:"not null" json:"final_amount"`

	PaymentMethod string    `gorm:"type:varchar(50);not null" json:"payment_method"`
	PaymentStatus string    `gorm:"type:varchar(20);not null;default:paid" json:"payment_status"`
	InvoiceDate   time.Time `gorm:"not null" json:"invoice_date"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName sets the table name for the Invoice model
func (Invoice) TableName() string {
	return "invoices"
}

// InvoiceDetail is one line on an invoice, tied to an issued ticket.
type InvoiceDetail struct {
	ID uint `gorm:"primaryKey;autoIncrement" json:"id"`

	// Foreign key for invoice relationship
	InvoiceID uint    `gorm:"not null;index" json:"invoice_id"`
	Invoice   Invoice `gorm:"foreignKey:InvoiceID" json:"invoice"`

	TicketID uint `gorm:"not null" json:"ticket_id"`

	Quantity  int   `gorm:"not null" json:"quantity"`
	UnitPrice int64 `gorm:"not null" json:"unit_price"`
	Subtotal  int64 `gorm:"not null" json:"subtotal"`
}

// TableName sets the table name for the InvoiceDetail model
func (InvoiceDetail) TableName() string {
	return "invoice_details"
}
