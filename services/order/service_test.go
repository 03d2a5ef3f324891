package order

import (
	"context"
	"strings"
	"testing"
	"time"

	"museum-ticketing/database"
	"museum-ticketing/errs"
	customerModel "museum-ticketing/models/customer"
	orderModel "museum-ticketing/models/order"
	tickettypeModel "museum-ticketing/models/tickettype"
	"museum-ticketing/services/notification"
	ticketService "museum-ticketing/services/ticket"
	"museum-ticketing/types"
	orderTypes "museum-ticketing/types/order"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// memStore keeps saved proofs in memory for tests.
type memStore struct {
	saved []string
}

func (m *memStore) Save(filename string, data []byte) (string, error) {
	ref := "proof_test_" + filename
	m.saved = append(m.saved, ref)
	return ref, nil
}

// captureSink records published events instead of delivering them.
type captureSink struct {
	events []notification.Event
}

func (c *captureSink) Publish(event notification.Event) error {
	c.events = append(c.events, event)
	return nil
}

func (c *captureSink) ofType(t notification.EventType) []notification.Event {
	var out []notification.Event
	for _, e := range c.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	// A single connection keeps every session on the same in-memory database.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.AutoMigrate(db))
	return db
}

func seedCustomer(t *testing.T, db *gorm.DB, userID uint) customerModel.Customer {
	t.Helper()
	cust := customerModel.Customer{
		UserID:   userID,
		FullName: "Nguyen Van A",
		Phone:    "0900000001",
		Email:    "a@example.com",
	}
	require.NoError(t, db.Create(&cust).Error)
	return cust
}

func seedTicketType(t *testing.T, db *gorm.DB, name string, price int64) tickettypeModel.TicketType {
	t.Helper()
	tt := tickettypeModel.TicketType{TypeName: name, Price: price}
	require.NoError(t, db.Create(&tt).Error)
	return tt
}

func newTestService(t *testing.T, db *gorm.DB) (*Service, *captureSink) {
	t.Helper()
	sink := &captureSink{}
	svc := NewService(db, &memStore{}, sink)
	return svc, sink
}

func TestCreateOrderSnapshotsCatalogPrice(t *testing.T) {
	db := setupTestDB(t)
	seedCustomer(t, db, 101)
	tt := seedTicketType(t, db, "Adult", 40000)
	svc, sink := newTestService(t, db)
	actor := types.Actor{UserID: 101}

	ord, err := svc.CreateOrder(actor, orderTypes.OrderCreateRequest{
		TicketTypeID: tt.ID,
		Quantity:     3,
	})
	require.NoError(t, err)

	assert.Equal(t, orderModel.StatusPending, ord.Status)
	assert.Equal(t, int64(40000), ord.UnitPrice)
	assert.Equal(t, int64(120000), ord.TotalPrice)
	assert.True(t, strings.HasPrefix(ord.OrderCode, "ORD"))
	assert.True(t, strings.HasPrefix(ord.PaymentReference, "PAY"))

	// Raising the catalog price later must not touch the stored order.
	require.NoError(t, db.Model(&tt).Update("price", 99999).Error)
	reloaded, err := svc.reload(ord.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(120000), reloaded.TotalPrice)

	var logs []orderModel.PaymentLog
	require.NoError(t, db.Where("order_id = ?", ord.ID).Find(&logs).Error)
	require.Len(t, logs, 1)
	assert.Equal(t, orderModel.ActionCreated, logs[0].Action)

	assert.Len(t, sink.ofType(notification.EventOrderCreated), 1)
}

func TestCreateOrderRejectsInvalidQuantity(t *testing.T) {
	db := setupTestDB(t)
	seedCustomer(t, db, 101)
	tt := seedTicketType(t, db, "Adult", 40000)
	svc, _ := newTestService(t, db)

	var ve *errs.ValidationError

	_, err := svc.CreateOrder(types.Actor{UserID: 101}, orderTypes.OrderCreateRequest{
		TicketTypeID: tt.ID,
		Quantity:     0,
	})
	require.ErrorAs(t, err, &ve)

	_, err = svc.CreateOrder(types.Actor{UserID: 101}, orderTypes.OrderCreateRequest{
		TicketTypeID: tt.ID,
		Quantity:     100,
	})
	require.ErrorAs(t, err, &ve)
}

func TestCreateOrderUnknownTicketType(t *testing.T) {
	db := setupTestDB(t)
	seedCustomer(t, db, 101)
	svc, _ := newTestService(t, db)

	_, err := svc.CreateOrder(types.Actor{UserID: 101}, orderTypes.OrderCreateRequest{
		TicketTypeID: 9999,
		Quantity:     1,
	})
	var nf *errs.NotFoundError
	require.ErrorAs(t, err, &nf)
}

func TestUploadProofMovesOrderToWaitingConfirmation(t *testing.T) {
	db := setupTestDB(t)
	seedCustomer(t, db, 101)
	tt := seedTicketType(t, db, "Adult", 40000)
	svc, sink := newTestService(t, db)
	actor := types.Actor{UserID: 101}

	ord, err := svc.CreateOrder(actor, orderTypes.OrderCreateRequest{TicketTypeID: tt.ID, Quantity: 1})
	require.NoError(t, err)

	updated, err := svc.UploadProof(actor, ord.ID, "receipt.png", []byte("img"), "TXN123")
	require.NoError(t, err)
	assert.Equal(t, orderModel.StatusWaitingConfirmation, updated.Status)
	require.NotNil(t, updated.PaymentProofRef)
	require.NotNil(t, updated.TransactionRef)
	assert.Equal(t, "TXN123", *updated.TransactionRef)

	// Re-uploading while still waiting replaces the proof.
	again, err := svc.UploadProof(actor, ord.ID, "receipt2.png", []byte("img"), "TXN124")
	require.NoError(t, err)
	assert.Equal(t, orderModel.StatusWaitingConfirmation, again.Status)

	assert.Len(t, sink.ofType(notification.EventProofUploaded), 2)

	// Each log row records the status the order actually held.
	var logs []orderModel.PaymentLog
	require.NoError(t, db.Where("order_id = ? AND action = ?", ord.ID, orderModel.ActionProofUploaded).
		Order("id ASC").Find(&logs).Error)
	require.Len(t, logs, 2)
	assert.Equal(t, orderModel.StatusPending, logs[0].OldStatus)
	assert.Equal(t, orderModel.StatusWaitingConfirmation, logs[1].OldStatus)
}

// raceStore flips the order to waiting_confirmation while the proof is
// being stored, standing in for a concurrent upload committing between
// the ownership load and the status transition.
type raceStore struct {
	db      *gorm.DB
	orderID uint
}

func (r *raceStore) Save(filename string, data []byte) (string, error) {
	err := r.db.Model(&orderModel.Order{}).
		Where("id = ?", r.orderID).
		Update("status", orderModel.StatusWaitingConfirmation).Error
	if err != nil {
		return "", err
	}
	return "proof_race_" + filename, nil
}

func TestUploadProofLogsActualOldStatusUnderRace(t *testing.T) {
	db := setupTestDB(t)
	seedCustomer(t, db, 101)
	tt := seedTicketType(t, db, "Adult", 40000)
	svc, _ := newTestService(t, db)
	actor := types.Actor{UserID: 101}

	ord, err := svc.CreateOrder(actor, orderTypes.OrderCreateRequest{TicketTypeID: tt.ID, Quantity: 1})
	require.NoError(t, err)

	svc.Files = &raceStore{db: db, orderID: ord.ID}

	updated, err := svc.UploadProof(actor, ord.ID, "receipt.png", []byte("img"), "")
	require.NoError(t, err)
	assert.Equal(t, orderModel.StatusWaitingConfirmation, updated.Status)

	var pl orderModel.PaymentLog
	require.NoError(t, db.Where("order_id = ? AND action = ?", ord.ID, orderModel.ActionProofUploaded).
		First(&pl).Error)
	// The order was already waiting_confirmation by the time the guarded
	// update ran, and the log must say so, not echo the stale load.
	assert.Equal(t, orderModel.StatusWaitingConfirmation, pl.OldStatus)
}

func TestUploadProofRejectedOnTerminalOrder(t *testing.T) {
	db := setupTestDB(t)
	seedCustomer(t, db, 101)
	tt := seedTicketType(t, db, "Adult", 40000)
	svc, _ := newTestService(t, db)
	actor := types.Actor{UserID: 101}

	ord, err := svc.CreateOrder(actor, orderTypes.OrderCreateRequest{TicketTypeID: tt.ID, Quantity: 1})
	require.NoError(t, err)
	require.NoError(t, db.Model(&orderModel.Order{}).Where("id = ?", ord.ID).
		Update("status", orderModel.StatusCancelled).Error)

	_, err = svc.UploadProof(actor, ord.ID, "receipt.png", []byte("img"), "")
	var sc *errs.StateConflictError
	require.ErrorAs(t, err, &sc)
}

func TestCancelOrder(t *testing.T) {
	db := setupTestDB(t)
	seedCustomer(t, db, 101)
	tt := seedTicketType(t, db, "Adult", 40000)
	svc, _ := newTestService(t, db)
	actor := types.Actor{UserID: 101}

	ord, err := svc.CreateOrder(actor, orderTypes.OrderCreateRequest{TicketTypeID: tt.ID, Quantity: 1})
	require.NoError(t, err)

	cancelled, err := svc.CancelOrder(actor, ord.ID)
	require.NoError(t, err)
	assert.Equal(t, orderModel.StatusCancelled, cancelled.Status)

	var pl orderModel.PaymentLog
	require.NoError(t, db.Where("order_id = ? AND action = ?", ord.ID, orderModel.ActionCancelled).
		First(&pl).Error)
	assert.Equal(t, orderModel.StatusPending, pl.OldStatus)

	// Terminal; a second cancellation is a conflict.
	_, err = svc.CancelOrder(actor, ord.ID)
	var sc *errs.StateConflictError
	require.ErrorAs(t, err, &sc)
}

func TestCancelWaitingOrderLogsWaitingAsOldStatus(t *testing.T) {
	db := setupTestDB(t)
	seedCustomer(t, db, 101)
	tt := seedTicketType(t, db, "Adult", 40000)
	svc, _ := newTestService(t, db)
	actor := types.Actor{UserID: 101}

	ord, err := svc.CreateOrder(actor, orderTypes.OrderCreateRequest{TicketTypeID: tt.ID, Quantity: 1})
	require.NoError(t, err)
	_, err = svc.UploadProof(actor, ord.ID, "receipt.png", []byte("img"), "")
	require.NoError(t, err)

	cancelled, err := svc.CancelOrder(actor, ord.ID)
	require.NoError(t, err)
	assert.Equal(t, orderModel.StatusCancelled, cancelled.Status)

	var pl orderModel.PaymentLog
	require.NoError(t, db.Where("order_id = ? AND action = ?", ord.ID, orderModel.ActionCancelled).
		First(&pl).Error)
	assert.Equal(t, orderModel.StatusWaitingConfirmation, pl.OldStatus)
}

func TestCancelPaidOrderConflicts(t *testing.T) {
	db := setupTestDB(t)
	seedCustomer(t, db, 101)
	tt := seedTicketType(t, db, "Adult", 40000)
	svc, _ := newTestService(t, db)
	workflow := NewApprovalWorkflow(db, ticketService.NewIssuer(db), nil)
	actor := types.Actor{UserID: 101}
	staff := types.Actor{UserID: 7}

	ord, err := svc.CreateOrder(actor, orderTypes.OrderCreateRequest{TicketTypeID: tt.ID, Quantity: 1})
	require.NoError(t, err)
	_, err = svc.UploadProof(actor, ord.ID, "receipt.png", []byte("img"), "")
	require.NoError(t, err)
	_, _, err = workflow.Approve(staff, ord.ID, "")
	require.NoError(t, err)

	_, err = svc.CancelOrder(actor, ord.ID)
	var sc *errs.StateConflictError
	require.ErrorAs(t, err, &sc)

	reloaded, err := svc.reload(ord.ID)
	require.NoError(t, err)
	assert.Equal(t, orderModel.StatusPaid, reloaded.Status)
}

func TestOrdersAreInvisibleToOtherCustomers(t *testing.T) {
	db := setupTestDB(t)
	seedCustomer(t, db, 101)
	other := customerModel.Customer{UserID: 202, FullName: "Tran Thi B", Phone: "0900000002", Email: "b@example.com"}
	require.NoError(t, db.Create(&other).Error)
	tt := seedTicketType(t, db, "Adult", 40000)
	svc, _ := newTestService(t, db)

	ord, err := svc.CreateOrder(types.Actor{UserID: 101}, orderTypes.OrderCreateRequest{TicketTypeID: tt.ID, Quantity: 1})
	require.NoError(t, err)

	_, err = svc.OrderDetail(types.Actor{UserID: 202}, ord.ID)
	var nf *errs.NotFoundError
	require.ErrorAs(t, err, &nf)

	_, err = svc.CancelOrder(types.Actor{UserID: 202}, ord.ID)
	require.ErrorAs(t, err, &nf)
}

func TestExpireSweep(t *testing.T) {
	db := setupTestDB(t)
	seedCustomer(t, db, 101)
	tt := seedTicketType(t, db, "Adult", 40000)
	svc, _ := newTestService(t, db)
	actor := types.Actor{UserID: 101}

	now := time.Now()

	// Stale order, created past its payment window.
	svc.Now = func() time.Time { return now.Add(-25 * time.Hour) }
	stale, err := svc.CreateOrder(actor, orderTypes.OrderCreateRequest{TicketTypeID: tt.ID, Quantity: 1})
	require.NoError(t, err)

	// Fresh order, still within its window.
	svc.Now = func() time.Time { return now }
	fresh, err := svc.CreateOrder(actor, orderTypes.OrderCreateRequest{TicketTypeID: tt.ID, Quantity: 1})
	require.NoError(t, err)

	swept, err := svc.ExpireSweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, swept)

	reloadedStale, err := svc.reload(stale.ID)
	require.NoError(t, err)
	assert.Equal(t, orderModel.StatusExpired, reloadedStale.Status)

	reloadedFresh, err := svc.reload(fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, orderModel.StatusPending, reloadedFresh.Status)

	// Idempotent: a second sweep finds nothing.
	swept, err = svc.ExpireSweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, swept)

	var logs []orderModel.PaymentLog
	require.NoError(t, db.Where("order_id = ? AND action = ?", stale.ID, orderModel.ActionExpired).Find(&logs).Error)
	require.Len(t, logs, 1)
	assert.Equal(t, "system", logs[0].PerformedBy)
}

func TestExpireSweepSkipsNonPendingOrders(t *testing.T) {
	db := setupTestDB(t)
	seedCustomer(t, db, 101)
	tt := seedTicketType(t, db, "Adult", 40000)
	svc, _ := newTestService(t, db)
	actor := types.Actor{UserID: 101}

	now := time.Now()
	svc.Now = func() time.Time { return now.Add(-25 * time.Hour) }
	ord, err := svc.CreateOrder(actor, orderTypes.OrderCreateRequest{TicketTypeID: tt.ID, Quantity: 1})
	require.NoError(t, err)

	// Proof arrived before the sweep ran; the order left pending.
	svc.Now = func() time.Time { return now }
	_, err = svc.UploadProof(actor, ord.ID, "receipt.png", []byte("img"), "")
	require.NoError(t, err)

	swept, err := svc.ExpireSweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, swept)

	reloaded, err := svc.reload(ord.ID)
	require.NoError(t, err)
	assert.Equal(t, orderModel.StatusWaitingConfirmation, reloaded.Status)
}

func TestAdminListOrdersSearchAndPagination(t *testing.T) {
	db := setupTestDB(t)
	seedCustomer(t, db, 101)
	tt := seedTicketType(t, db, "Adult", 40000)
	svc, _ := newTestService(t, db)
	actor := types.Actor{UserID: 101}

	for i := 0; i < 3; i++ {
		_, err := svc.CreateOrder(actor, orderTypes.OrderCreateRequest{TicketTypeID: tt.ID, Quantity: 1})
		require.NoError(t, err)
	}

	orders, pagination, err := svc.AdminListOrders("", "", 1, 2)
	require.NoError(t, err)
	assert.Len(t, orders, 2)
	assert.Equal(t, int64(3), pagination.Total)
	assert.Equal(t, int64(2), pagination.Pages)

	orders, _, err = svc.AdminListOrders("", "Nguyen", 1, 20)
	require.NoError(t, err)
	assert.Len(t, orders, 3)

	orders, _, err = svc.AdminListOrders("", "no-such-person", 1, 20)
	require.NoError(t, err)
	assert.Empty(t, orders)

	orders, _, err = svc.AdminListOrders(orderModel.StatusPaid.String(), "", 1, 20)
	require.NoError(t, err)
	assert.Empty(t, orders)
}
