package customers

import (
	"errors"

	"museum-ticketing/errs"
	customerModel "museum-ticketing/models/customer"

	"gorm.io/gorm"
)

// Resolve maps the authenticated user onto their customer profile. The
// auth collaborator owns user accounts; staff accounts have no customer
// row and resolve to NotFoundError.
func Resolve(db *gorm.DB, userID uint) (*customerModel.Customer, error) {
	var c customerModel.Customer
	if err := db.Where("user_id = ?", userID).First(&c).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NotFound("customer")
		}
		return nil, errs.Storage("resolve customer", err)
	}
	return &c, nil
}

// Search finds customers by name or phone fragment for the counter-sale
// screen.
func Search(db *gorm.DB, query string, limit int) ([]customerModel.Customer, error) {
	if limit <= 0 || limit > 50 {
		limit = 10
	}

	var results []customerModel.Customer
	pattern := "%" + query + "%"
	err := db.Where("full_name LIKE ? OR phone LIKE ?", pattern, pattern).
		Order("full_name ASC").
		Limit(limit).
		Find(&results).Error
	if err != nil {
		return nil, errs.Storage("search customers", err)
	}
	return results, nil
}
