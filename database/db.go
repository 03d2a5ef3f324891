package database

import (
	"fmt"
	"os"

	"museum-ticketing/logger"
	"museum-ticketing/models/customer"
	"museum-ticketing/models/invoice"
	"museum-ticketing/models/log"
	"museum-ticketing/models/order"
	"museum-ticketing/models/ticket"
	"museum-ticketing/models/tickettype"
	"museum-ticketing/models/visit"

	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

// InitDB initializes the database connection with auto migration and indexing
func InitDB() (*gorm.DB, error) {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		logger.Error("Error loading .env file", err)
	}

	host := os.Getenv("DB_HOST")
	port := os.Getenv("DB_PORT")
	database := os.Getenv("DB_DATABASE")
	user := os.Getenv("DB_USERNAME")
	password := os.Getenv("DB_PASSWORD")
	sslmode := os.Getenv("DB_SSLMODE") // Optional: "disable", "require", etc.

	if sslmode == "" {
		sslmode = "disable"
	}

	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		host, port, user, password, database, sslmode)

	var err error
	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		logger.Error("Failed to connect to the database", err)
		return nil, err
	}
	logger.Success("Successfully connected to the database")

	if err := AutoMigrate(DB); err != nil {
		logger.Error("Failed to run migrations", err)
		return nil, err
	}
	logger.Success("All migrations completed successfully")

	if err := createForeignKeyConstraints(); err != nil {
		logger.Error("Failed to create foreign key constraints", err)
		return nil, err
	}
	logger.Success("All foreign key constraints created successfully")

	if err := createIndexes(); err != nil {
		logger.Error("Failed to create indexes", err)
		return nil, err
	}
	logger.Success("All indexes created successfully")

	return DB, nil
}

// AutoMigrate runs auto migration for all models in dependency order.
func AutoMigrate(db *gorm.DB) error {
	// Stage 1: Core foundation models
	stage1Models := []interface{}{
		&customer.Customer{},
		&tickettype.TicketType{},
	}

	for _, model := range stage1Models {
		if err := db.AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate %T: %w", model, err)
		}
	}

	// Stage 2: Money-bearing models depending on Stage 1
	stage2Models := []interface{}{
		&order.Order{},
		&ticket.Ticket{},
	}

	for _, model := range stage2Models {
		if err := db.AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate %T: %w", model, err)
		}
	}

	// Stage 3: Dependent ledgers and histories
	stage3Models := []interface{}{
		&order.PaymentLog{},
		&visit.VisitHistory{},
		&invoice.Invoice{},
		&invoice.InvoiceDetail{},
		// Logging
		&log.Log{},
	}

	for _, model := range stage3Models {
		if err := db.AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate %T: %w", model, err)
		}
	}

	return nil
}

// createIndexes creates additional indexes for better performance
func createIndexes() error {
	indexes := []struct {
		name string
		sql  string
	}{
		{"idx_orders_status", "CREATE INDEX IF NOT EXISTS idx_orders_status ON orders(status)"},
		{"idx_orders_status_expires_at", "CREATE INDEX IF NOT EXISTS idx_orders_status_expires_at ON orders(status, expires_at)"},
		{"idx_orders_created_at", "CREATE INDEX IF NOT EXISTS idx_orders_created_at ON orders(created_at)"},
		{"idx_tickets_status", "CREATE INDEX IF NOT EXISTS idx_tickets_status ON tickets(status)"},
		{"idx_tickets_purchase_date", "CREATE INDEX IF NOT EXISTS idx_tickets_purchase_date ON tickets(purchase_date)"},
		// The open-visit lookup filters on ticket_id + NULL check_out_time.
		{"idx_visits_ticket_open", "CREATE INDEX IF NOT EXISTS idx_visits_ticket_open ON visit_histories(ticket_id) WHERE check_out_time IS NULL"},
		{"idx_payment_logs_performed_at", "CREATE INDEX IF NOT EXISTS idx_payment_logs_performed_at ON payment_logs(performed_at)"},
		{"idx_logs_status_code", "CREATE INDEX IF NOT EXISTS idx_logs_status_code ON logs(status_code)"},
		{"idx_logs_created_at", "CREATE INDEX IF NOT EXISTS idx_logs_created_at ON logs(created_at)"},
	}

	for _, idx := range indexes {
		if err := DB.Exec(idx.sql).Error; err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}
	}

	return nil
}

// createForeignKeyConstraints creates foreign key constraints after auto migration
func createForeignKeyConstraints() error {
	constraints := []struct {
		name string
		sql  string
	}{
		{
			name: "fk_orders_ticket_type",
			sql: `ALTER TABLE orders ADD CONSTRAINT fk_orders_ticket_type
				  FOREIGN KEY (ticket_type_id) REFERENCES ticket_types(id)
				  ON UPDATE CASCADE ON DELETE RESTRICT`,
		},
		{
			name: "fk_tickets_order",
			sql: `ALTER TABLE tickets ADD CONSTRAINT fk_tickets_order
				  FOREIGN KEY (order_id) REFERENCES orders(id)
				  ON UPDATE CASCADE ON DELETE RESTRICT`,
		},
		{
			name: "fk_payment_logs_order",
			sql: `ALTER TABLE payment_logs ADD CONSTRAINT fk_payment_logs_order
				  FOREIGN KEY (order_id) REFERENCES orders(id)
				  ON UPDATE CASCADE ON DELETE RESTRICT`,
		},
		{
			name: "fk_visit_histories_ticket",
			sql: `ALTER TABLE visit_histories ADD CONSTRAINT fk_visit_histories_ticket
				  FOREIGN KEY (ticket_id) REFERENCES tickets(id)
				  ON UPDATE CASCADE ON DELETE RESTRICT`,
		},
		{
			name: "fk_invoice_details_invoice",
			sql: `ALTER TABLE invoice_details ADD CONSTRAINT fk_invoice_details_invoice
				  FOREIGN KEY (invoice_id) REFERENCES invoices(id)
				  ON UPDATE CASCADE ON DELETE RESTRICT`,
		},
	}

	for _, constraint := range constraints {
		// Check if constraint already exists
		var exists bool
		checkSQL := `
			SELECT EXISTS (
				SELECT 1 FROM information_schema.table_constraints
				WHERE constraint_name = $1
			)
		`

		err := DB.Raw(checkSQL, constraint.name).Scan(&exists).Error
		if err != nil {
			logger.Warning(fmt.Sprintf("Failed to check constraint existence: %s - Error: %v", constraint.name, err))
			continue
		}

		if !exists {
			if err := DB.Exec(constraint.sql).Error; err != nil {
				logger.Warning(fmt.Sprintf("Failed to create constraint: %s - Error: %v", constraint.name, err))
			} else {
				logger.Success(fmt.Sprintf("Successfully created constraint: %s", constraint.name))
			}
		}
	}

	return nil
}

// GetDB returns the database instance
func GetDB() *gorm.DB {
	return DB
}
