package order

import (
	"errors"
	"fmt"
	"time"

	"museum-ticketing/errs"
	"museum-ticketing/logger"
	orderModel "museum-ticketing/models/order"
	ticketModel "museum-ticketing/models/ticket"
	"museum-ticketing/services/notification"
	"museum-ticketing/services/paymentlog"
	ticketService "museum-ticketing/services/ticket"
	"museum-ticketing/types"

	"gorm.io/gorm"
)

// ApprovalWorkflow is the staff side of the order lifecycle. Approval
// flips the order to paid and issues its tickets in one transaction; the
// compare-and-swap on status guarantees at most one approval ever wins,
// so ticket issuance happens exactly once per order.
type ApprovalWorkflow struct {
	DB       *gorm.DB
	Issuer   *ticketService.Issuer
	Notifier notification.Sink

	Now func() time.Time
}

func NewApprovalWorkflow(db *gorm.DB, issuer *ticketService.Issuer, notifier notification.Sink) *ApprovalWorkflow {
	return &ApprovalWorkflow{
		DB:       db,
		Issuer:   issuer,
		Notifier: notifier,
		Now:      time.Now,
	}
}

func (w *ApprovalWorkflow) notify(event notification.Event) {
	if w.Notifier == nil {
		return
	}
	if err := w.Notifier.Publish(event); err != nil {
		logger.Error("Failed to publish "+string(event.Type)+" notification", err)
	}
}

// Approve confirms a payment and issues exactly Quantity tickets. The
// order must be waiting_confirmation; a second approval, or an approval
// racing a rejection, loses the guarded update and gets a
// StateConflictError with no tickets created.
func (w *ApprovalWorkflow) Approve(actor types.Actor, orderID uint, adminNote string) (*orderModel.Order, []ticketModel.Ticket, error) {
	ord, err := w.loadOrder(orderID)
	if err != nil {
		return nil, nil, err
	}

	confirmedAt := w.Now()
	var tickets []ticketModel.Ticket

	err = w.DB.Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{
			"status":       orderModel.StatusPaid,
			"paid_at":      confirmedAt,
			"confirmed_by": actor.UserID,
			"confirmed_at": confirmedAt,
		}
		if adminNote != "" {
			updates["admin_note"] = adminNote
		}

		res := tx.Model(&orderModel.Order{}).
			Where("id = ? AND status = ?", ord.ID, orderModel.StatusWaitingConfirmation).
			Updates(updates)
		if res.Error != nil {
			return errs.Storage("approve order", res.Error)
		}
		if res.RowsAffected == 0 {
			return errs.StateConflict("order", ord.Status.String(), orderModel.StatusWaitingConfirmation.String())
		}

		// Same transaction as the status flip: a paid order with fewer
		// than Quantity tickets must be impossible.
		tickets, err = w.Issuer.IssueForOrder(tx, ord)
		if err != nil {
			return err
		}

		return paymentlog.Append(tx, ord.ID, orderModel.ActionApproved,
			orderModel.StatusWaitingConfirmation, orderModel.StatusPaid, actorRef(actor), adminNote)
	})
	if err != nil {
		return nil, nil, err
	}

	logger.Success(fmt.Sprintf("Order %s approved by staff %d, issued %d tickets",
		ord.OrderCode, actor.UserID, len(tickets)))

	ticketCodes := make([]string, len(tickets))
	for i, t := range tickets {
		ticketCodes[i] = t.TicketCode
	}
	w.notify(notification.Event{
		Type:        notification.EventOrderApproved,
		OrderCode:   ord.OrderCode,
		TicketCodes: ticketCodes,
		OccurredAt:  w.Now(),
	})

	approved, err := w.loadOrder(ord.ID)
	if err != nil {
		return nil, nil, err
	}
	return approved, tickets, nil
}

// Reject declines a payment with a mandatory reason. Same guarded
// transition as Approve, so approve/reject races resolve to exactly one
// winner.
func (w *ApprovalWorkflow) Reject(actor types.Actor, orderID uint, reason string) (*orderModel.Order, error) {
	if reason == "" {
		return nil, errs.Validation("rejection_reason", "is required")
	}

	ord, err := w.loadOrder(orderID)
	if err != nil {
		return nil, err
	}

	confirmedAt := w.Now()

	err = w.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&orderModel.Order{}).
			Where("id = ? AND status = ?", ord.ID, orderModel.StatusWaitingConfirmation).
			Updates(map[string]interface{}{
				"status":           orderModel.StatusRejected,
				"rejection_reason": reason,
				"confirmed_by":     actor.UserID,
				"confirmed_at":     confirmedAt,
			})
		if res.Error != nil {
			return errs.Storage("reject order", res.Error)
		}
		if res.RowsAffected == 0 {
			return errs.StateConflict("order", ord.Status.String(), orderModel.StatusWaitingConfirmation.String())
		}

		return paymentlog.Append(tx, ord.ID, orderModel.ActionRejected,
			orderModel.StatusWaitingConfirmation, orderModel.StatusRejected, actorRef(actor), reason)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(fmt.Sprintf("Order %s rejected by staff %d: %s", ord.OrderCode, actor.UserID, reason))

	w.notify(notification.Event{
		Type:       notification.EventOrderRejected,
		OrderCode:  ord.OrderCode,
		Reason:     reason,
		OccurredAt: w.Now(),
	})

	return w.loadOrder(ord.ID)
}

func (w *ApprovalWorkflow) loadOrder(orderID uint) (*orderModel.Order, error) {
	var ord orderModel.Order
	if err := w.DB.Preload("TicketType").Preload("Customer").First(&ord, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NotFound("order")
		}
		return nil, errs.Storage("load order", err)
	}
	return &ord, nil
}
