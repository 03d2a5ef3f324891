package paymentlog

import (
	orderModel "museum-ticketing/models/order"

	"gorm.io/gorm"
)

// Append writes one transition row into the payment log inside the
// caller's transaction, so a rolled-back transition leaves no trace.
func Append(tx *gorm.DB, orderID uint, action string, oldStatus, newStatus orderModel.OrderStatus, performedBy string, notes string) error {
	entry := orderModel.PaymentLog{
		OrderID:     orderID,
		Action:      action,
		OldStatus:   oldStatus,
		NewStatus:   newStatus,
		PerformedBy: performedBy,
		Notes:       notes,
	}

	return tx.Create(&entry).Error
}

// ForOrder returns the full transition history of an order, newest first.
func ForOrder(db *gorm.DB, orderID uint) ([]orderModel.PaymentLog, error) {
	var logs []orderModel.PaymentLog
	err := db.Where("order_id = ?", orderID).
		Order("performed_at DESC, id DESC").
		Find(&logs).Error
	return logs, err
}
