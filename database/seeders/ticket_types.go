package seeders

import (
	"fmt"

	"museum-ticketing/logger"
	"museum-ticketing/models/tickettype"

	"gorm.io/gorm"
)

// SeedTicketTypes inserts the admission catalog if it is empty. Prices
// are in VND.
func SeedTicketTypes(db *gorm.DB) error {
	var count int64
	if err := db.Model(&tickettype.TicketType{}).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to count ticket types: %w", err)
	}
	if count > 0 {
		logger.Debug("Ticket types already seeded, skipping")
		return nil
	}

	ticketTypes := []tickettype.TicketType{
		{TypeName: "Adult", Price: 40000, Description: "Standard admission for visitors aged 18 and over"},
		{TypeName: "Student", Price: 20000, Description: "Discounted admission with a valid student card"},
		{TypeName: "Child", Price: 10000, Description: "Visitors aged 6-17; under 6 enter free"},
		{TypeName: "Group", Price: 30000, Description: "Per-person rate for groups of 10 or more"},
	}

	if err := db.Create(&ticketTypes).Error; err != nil {
		return fmt.Errorf("failed to seed ticket types: %w", err)
	}

	logger.Success(fmt.Sprintf("Seeded %d ticket types", len(ticketTypes)))
	return nil
}
