package order

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"museum-ticketing/errs"
	"museum-ticketing/filestore"
	"museum-ticketing/logger"
	orderModel "museum-ticketing/models/order"
	tickettypeModel "museum-ticketing/models/tickettype"
	"museum-ticketing/services/customers"
	"museum-ticketing/services/notification"
	"museum-ticketing/services/paymentlog"
	"museum-ticketing/types"
	orderTypes "museum-ticketing/types/order"

	jnow "github.com/jinzhu/now"
	"gorm.io/gorm"
)

// DefaultExpiry is how long a pending order waits for payment before the
// sweep expires it.
const DefaultExpiry = 24 * time.Hour

// Service owns the customer side of the order lifecycle: creation, proof
// submission, cancellation and expiry. Every status transition is a
// guarded conditional update checked by affected-row count.
type Service struct {
	DB       *gorm.DB
	Files    filestore.Store
	Notifier notification.Sink

	Expiry time.Duration
	Now    func() time.Time
}

func NewService(db *gorm.DB, files filestore.Store, notifier notification.Sink) *Service {
	return &Service{
		DB:       db,
		Files:    files,
		Notifier: notifier,
		Expiry:   DefaultExpiry,
		Now:      time.Now,
	}
}

// actorRef renders the acting user for payment-log rows.
func actorRef(actor types.Actor) string {
	return strconv.FormatUint(uint64(actor.UserID), 10)
}

// notify publishes a lifecycle event after commit. Failures are logged
// and swallowed; they never affect the transition that produced them.
func (s *Service) notify(event notification.Event) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.Publish(event); err != nil {
		logger.Error("Failed to publish "+string(event.Type)+" notification", err)
	}
}

// CreateOrder creates a pending order for the actor's customer profile,
// snapshotting the catalog price and minting a unique order code and
// payment reference. Code collisions are retried internally.
func (s *Service) CreateOrder(actor types.Actor, req orderTypes.OrderCreateRequest) (*orderModel.Order, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	cust, err := customers.Resolve(s.DB, actor.UserID)
	if err != nil {
		return nil, err
	}

	var ticketType tickettypeModel.TicketType
	if err := s.DB.First(&ticketType, req.TicketTypeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NotFound("ticket type")
		}
		return nil, errs.Storage("load ticket type", err)
	}

	createdAt := s.Now()

	ord := orderModel.Order{
		CustomerID:   cust.ID,
		TicketTypeID: ticketType.ID,
		Quantity:     req.Quantity,
		UnitPrice:    ticketType.Price,
		TotalPrice:   ticketType.Price * int64(req.Quantity),
		Status:       orderModel.StatusPending,
		ExpiresAt:    createdAt.Add(s.Expiry),
	}
	if req.CustomerNote != "" {
		note := req.CustomerNote
		ord.CustomerNote = &note
	}

	var lastErr error
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		if ord.OrderCode, err = newOrderCode(createdAt); err != nil {
			return nil, errs.Storage("mint order code", err)
		}
		if ord.PaymentReference, err = newPaymentReference(createdAt); err != nil {
			return nil, errs.Storage("mint payment reference", err)
		}

		ord.ID = 0
		err = s.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(&ord).Error; err != nil {
				return err
			}
			return paymentlog.Append(tx, ord.ID, orderModel.ActionCreated,
				orderModel.StatusPending, orderModel.StatusPending, actorRef(actor), "order created")
		})
		if err == nil {
			lastErr = nil
			break
		}
		if errs.IsUniqueViolation(err) {
			lastErr = errs.Duplicate("order code", ord.OrderCode)
			continue
		}
		return nil, errs.Storage("create order", err)
	}
	if lastErr != nil {
		return nil, lastErr
	}

	logger.Success(fmt.Sprintf("Order %s created by customer %d (qty %d, total %d)",
		ord.OrderCode, cust.ID, ord.Quantity, ord.TotalPrice))

	s.notify(notification.Event{
		Type:       notification.EventOrderCreated,
		OrderCode:  ord.OrderCode,
		OccurredAt: s.Now(),
	})

	return &ord, nil
}

// UploadProof stores the payment-proof image and moves the order to
// waiting_confirmation. Allowed only on the actor's own order while it
// is still pending or already waiting.
func (s *Service) UploadProof(actor types.Actor, orderID uint, filename string, data []byte, transactionRef string) (*orderModel.Order, error) {
	cust, err := customers.Resolve(s.DB, actor.UserID)
	if err != nil {
		return nil, err
	}

	ord, err := s.ownedOrder(orderID, cust.ID)
	if err != nil {
		return nil, err
	}
	if !ord.Status.CanUploadProof() {
		return nil, errs.StateConflict("order", ord.Status.String(), "pending or waiting_confirmation")
	}

	// Stored before the transition; an orphan file from a lost race is
	// harmless, a committed transition without its proof is not.
	proofRef, err := s.Files.Save(filename, data)
	if err != nil {
		return nil, err
	}

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{
			"status":            orderModel.StatusWaitingConfirmation,
			"payment_proof_ref": proofRef,
			"transaction_ref":   transactionRef,
		}

		// One guarded update per source status; whichever wins pins the
		// exact old status for the log, even when another transition
		// landed between the ownership load and this transaction.
		oldStatus := orderModel.StatusPending
		res := tx.Model(&orderModel.Order{}).
			Where("id = ? AND customer_id = ? AND status = ?", ord.ID, cust.ID, orderModel.StatusPending).
			Updates(updates)
		if res.Error != nil {
			return errs.Storage("upload proof", res.Error)
		}
		if res.RowsAffected == 0 {
			oldStatus = orderModel.StatusWaitingConfirmation
			res = tx.Model(&orderModel.Order{}).
				Where("id = ? AND customer_id = ? AND status = ?", ord.ID, cust.ID, orderModel.StatusWaitingConfirmation).
				Updates(updates)
			if res.Error != nil {
				return errs.Storage("upload proof", res.Error)
			}
			if res.RowsAffected == 0 {
				return errs.StateConflict("order", "", "pending or waiting_confirmation")
			}
		}
		return paymentlog.Append(tx, ord.ID, orderModel.ActionProofUploaded,
			oldStatus, orderModel.StatusWaitingConfirmation, actorRef(actor), "payment proof uploaded")
	})
	if err != nil {
		return nil, err
	}

	logger.Success(fmt.Sprintf("Payment proof uploaded for order %s", ord.OrderCode))

	s.notify(notification.Event{
		Type:       notification.EventProofUploaded,
		OrderCode:  ord.OrderCode,
		OccurredAt: s.Now(),
	})

	return s.reload(ord.ID)
}

// CancelOrder is the customer-initiated cancellation; only pending and
// waiting_confirmation orders can be cancelled.
func (s *Service) CancelOrder(actor types.Actor, orderID uint) (*orderModel.Order, error) {
	cust, err := customers.Resolve(s.DB, actor.UserID)
	if err != nil {
		return nil, err
	}

	ord, err := s.ownedOrder(orderID, cust.ID)
	if err != nil {
		return nil, err
	}
	if !ord.Status.CanBeCancelled() {
		return nil, errs.StateConflict("order", ord.Status.String(), "pending or waiting_confirmation")
	}

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		// Same per-source-status guard as UploadProof, so the logged old
		// status is the one the cancellation actually left.
		oldStatus := orderModel.StatusPending
		res := tx.Model(&orderModel.Order{}).
			Where("id = ? AND customer_id = ? AND status = ?", ord.ID, cust.ID, orderModel.StatusPending).
			Update("status", orderModel.StatusCancelled)
		if res.Error != nil {
			return errs.Storage("cancel order", res.Error)
		}
		if res.RowsAffected == 0 {
			oldStatus = orderModel.StatusWaitingConfirmation
			res = tx.Model(&orderModel.Order{}).
				Where("id = ? AND customer_id = ? AND status = ?", ord.ID, cust.ID, orderModel.StatusWaitingConfirmation).
				Update("status", orderModel.StatusCancelled)
			if res.Error != nil {
				return errs.Storage("cancel order", res.Error)
			}
			if res.RowsAffected == 0 {
				return errs.StateConflict("order", "", "pending or waiting_confirmation")
			}
		}
		return paymentlog.Append(tx, ord.ID, orderModel.ActionCancelled,
			oldStatus, orderModel.StatusCancelled, actorRef(actor), "cancelled by customer")
	})
	if err != nil {
		return nil, err
	}

	logger.Info(fmt.Sprintf("Order %s cancelled by customer %d", ord.OrderCode, cust.ID))

	return s.reload(ord.ID)
}

// ExpireSweep transitions every pending order whose deadline has passed
// to expired. Each row is flipped with its own guarded update, so a
// concurrently approved order is never overwritten and running two
// sweeps at once is a harmless no-op. Returns the number of orders
// actually expired.
func (s *Service) ExpireSweep(ctx context.Context) (int, error) {
	cutoff := s.Now()

	var candidates []orderModel.Order
	err := s.DB.Select("id", "order_code").
		Where("status = ? AND expires_at < ?", orderModel.StatusPending, cutoff).
		Find(&candidates).Error
	if err != nil {
		return 0, errs.Storage("list expired orders", err)
	}

	swept := 0
	for _, candidate := range candidates {
		select {
		case <-ctx.Done():
			return swept, ctx.Err()
		default:
		}

		err := s.DB.Transaction(func(tx *gorm.DB) error {
			res := tx.Model(&orderModel.Order{}).
				Where("id = ? AND status = ? AND expires_at < ?", candidate.ID, orderModel.StatusPending, cutoff).
				Update("status", orderModel.StatusExpired)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				// Lost the race to an approval or cancellation; nothing to do.
				return nil
			}
			swept++
			return paymentlog.Append(tx, candidate.ID, orderModel.ActionExpired,
				orderModel.StatusPending, orderModel.StatusExpired, "system", "payment deadline passed")
		})
		if err != nil {
			logger.Error(fmt.Sprintf("Failed to expire order %s", candidate.OrderCode), err)
		}
	}

	return swept, nil
}

// MyOrders lists the actor's own orders, newest first.
func (s *Service) MyOrders(actor types.Actor, statusFilter string) ([]orderModel.Order, error) {
	cust, err := customers.Resolve(s.DB, actor.UserID)
	if err != nil {
		return nil, err
	}

	query := s.DB.Preload("TicketType").Where("customer_id = ?", cust.ID)
	if statusFilter != "" {
		query = query.Where("status = ?", statusFilter)
	}

	var orders []orderModel.Order
	if err := query.Order("created_at DESC").Find(&orders).Error; err != nil {
		return nil, errs.Storage("list orders", err)
	}
	return orders, nil
}

// OrderDetail returns one of the actor's own orders with its ticket type
// and customer profile loaded.
func (s *Service) OrderDetail(actor types.Actor, orderID uint) (*orderModel.Order, error) {
	cust, err := customers.Resolve(s.DB, actor.UserID)
	if err != nil {
		return nil, err
	}

	var ord orderModel.Order
	err = s.DB.Preload("TicketType").Preload("Customer").
		Where("id = ? AND customer_id = ?", orderID, cust.ID).
		First(&ord).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NotFound("order")
		}
		return nil, errs.Storage("load order", err)
	}
	return &ord, nil
}

// AdminListOrders lists all orders with optional status filter and
// free-text search over order code and customer name/phone/email.
func (s *Service) AdminListOrders(statusFilter, search string, page, perPage int) ([]orderModel.Order, types.Pagination, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	query := s.DB.Model(&orderModel.Order{}).
		Joins("JOIN customers ON customers.id = orders.customer_id")

	if statusFilter != "" {
		query = query.Where("orders.status = ?", statusFilter)
	}
	if search != "" {
		pattern := "%" + search + "%"
		query = query.Where(
			"orders.order_code LIKE ? OR customers.full_name LIKE ? OR customers.phone LIKE ? OR customers.email LIKE ?",
			pattern, pattern, pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, types.Pagination{}, errs.Storage("count orders", err)
	}

	var orders []orderModel.Order
	err := query.Preload("Customer").Preload("TicketType").
		Order("orders.created_at DESC").
		Limit(perPage).Offset((page - 1) * perPage).
		Find(&orders).Error
	if err != nil {
		return nil, types.Pagination{}, errs.Storage("list orders", err)
	}

	pagination := types.Pagination{
		Page:    page,
		PerPage: perPage,
		Total:   total,
		Pages:   (total + int64(perPage) - 1) / int64(perPage),
	}
	return orders, pagination, nil
}

// AdminOrderDetail returns any order together with its full transition
// history from the payment log.
func (s *Service) AdminOrderDetail(orderID uint) (*orderModel.Order, []orderModel.PaymentLog, error) {
	var ord orderModel.Order
	err := s.DB.Preload("TicketType").Preload("Customer").First(&ord, orderID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, errs.NotFound("order")
		}
		return nil, nil, errs.Storage("load order", err)
	}

	logs, err := paymentlog.ForOrder(s.DB, ord.ID)
	if err != nil {
		return nil, nil, errs.Storage("load payment logs", err)
	}

	return &ord, logs, nil
}

// StatusStats aggregates order counts and revenue per status.
type StatusStats struct {
	Count   int64 `json:"count"`
	Revenue int64 `json:"revenue"`
}

// Stats is the admin dashboard summary.
type Stats struct {
	ByStatus        map[string]StatusStats `json:"by_status"`
	Today           StatusStats            `json:"today"`
	PendingApproval int64                  `json:"pending_approval"`
}

// OrderStats aggregates counts and revenue by status, today's volume,
// and the approval backlog.
func (s *Service) OrderStats() (*Stats, error) {
	type row struct {
		Status  string
		Count   int64
		Revenue int64
	}

	var rows []row
	err := s.DB.Model(&orderModel.Order{}).
		Select("status, COUNT(*) as count, COALESCE(SUM(total_price), 0) as revenue").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, errs.Storage("aggregate order stats", err)
	}

	stats := &Stats{ByStatus: make(map[string]StatusStats, len(rows))}
	for _, r := range rows {
		stats.ByStatus[r.Status] = StatusStats{Count: r.Count, Revenue: r.Revenue}
	}

	startOfDay := jnow.With(s.Now()).BeginningOfDay()
	var today row
	err = s.DB.Model(&orderModel.Order{}).
		Select("COUNT(*) as count, COALESCE(SUM(total_price), 0) as revenue").
		Where("created_at >= ?", startOfDay).
		Scan(&today).Error
	if err != nil {
		return nil, errs.Storage("aggregate today stats", err)
	}
	stats.Today = StatusStats{Count: today.Count, Revenue: today.Revenue}

	err = s.DB.Model(&orderModel.Order{}).
		Where("status = ?", orderModel.StatusWaitingConfirmation).
		Count(&stats.PendingApproval).Error
	if err != nil {
		return nil, errs.Storage("count pending approvals", err)
	}

	return stats, nil
}

// ownedOrder loads an order and enforces ownership; a foreign order is
// indistinguishable from a missing one.
func (s *Service) ownedOrder(orderID, customerID uint) (*orderModel.Order, error) {
	var ord orderModel.Order
	err := s.DB.Where("id = ? AND customer_id = ?", orderID, customerID).First(&ord).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NotFound("order")
		}
		return nil, errs.Storage("load order", err)
	}
	return &ord, nil
}

func (s *Service) reload(orderID uint) (*orderModel.Order, error) {
	var ord orderModel.Order
	if err := s.DB.Preload("TicketType").First(&ord, orderID).Error; err != nil {
		return nil, errs.Storage("reload order", err)
	}
	return &ord, nil
}
