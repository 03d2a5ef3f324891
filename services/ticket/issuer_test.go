package ticket

import (
	"strings"
	"testing"
	"time"

	"museum-ticketing/database"
	"museum-ticketing/errs"
	customerModel "museum-ticketing/models/customer"
	invoiceModel "museum-ticketing/models/invoice"
	ticketModel "museum-ticketing/models/ticket"
	tickettypeModel "museum-ticketing/models/tickettype"
	"museum-ticketing/types"
	ticketTypes "museum-ticketing/types/ticket"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

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

func TestSellDirectIssuesTicketsAndInvoice(t *testing.T) {
	db := setupTestDB(t)
	cust := seedCustomer(t, db, 101)
	tt := seedTicketType(t, db, "Adult", 40000)

	issuer := NewIssuer(db)
	soldAt := time.Date(2026, 8, 30, 14, 35, 22, 0, time.Local)
	issuer.Now = func() time.Time { return soldAt }

	result, err := issuer.SellDirect(types.Actor{UserID: 7}, ticketTypes.SellDirectRequest{
		CustomerID:    cust.ID,
		TicketTypeID:  tt.ID,
		Quantity:      3,
		PaymentMethod: "cash",
	})
	require.NoError(t, err)

	require.Len(t, result.Tickets, 3)
	for i, tk := range result.Tickets {
		assert.True(t, strings.HasPrefix(tk.TicketCode, "MT260830"))
		assert.Equal(t, ticketModel.StatusActive, tk.Status)
		assert.Nil(t, tk.OrderID)
		require.NotNil(t, tk.PaymentMethod)
		assert.Equal(t, "cash", *tk.PaymentMethod)
		if i > 0 {
			assert.NotEqual(t, result.Tickets[i-1].TicketCode, tk.TicketCode)
		}
	}

	assert.True(t, strings.HasPrefix(result.Invoice.InvoiceCode, "INV260830"))
	assert.Equal(t, int64(120000), result.Invoice.TotalAmount)
	assert.Equal(t, int64(120000), result.Invoice.FinalAmount)
	assert.Equal(t, "paid", result.Invoice.PaymentStatus)
	assert.Equal(t, uint(7), result.Invoice.UserID)

	var details []invoiceModel.InvoiceDetail
	require.NoError(t, db.Where("invoice_id = ?", result.Invoice.ID).Find(&details).Error)
	require.Len(t, details, 3)
	for _, d := range details {
		assert.Equal(t, int64(40000), d.UnitPrice)
		assert.Equal(t, int64(40000), d.Subtotal)
	}
}

func TestSellDirectRetriesOnCodeCollision(t *testing.T) {
	db := setupTestDB(t)
	cust := seedCustomer(t, db, 101)
	tt := seedTicketType(t, db, "Adult", 40000)

	issuer := NewIssuer(db)
	soldAt := time.Date(2026, 8, 30, 14, 35, 22, 0, time.Local)
	issuer.Now = func() time.Time { return soldAt }

	first, err := issuer.SellDirect(types.Actor{UserID: 7}, ticketTypes.SellDirectRequest{
		CustomerID: cust.ID, TicketTypeID: tt.ID, Quantity: 1, PaymentMethod: "cash",
	})
	require.NoError(t, err)

	// Same frozen clock would mint the same code; the retry skews it.
	second, err := issuer.SellDirect(types.Actor{UserID: 7}, ticketTypes.SellDirectRequest{
		CustomerID: cust.ID, TicketTypeID: tt.ID, Quantity: 1, PaymentMethod: "card",
	})
	require.NoError(t, err)

	assert.NotEqual(t, first.Tickets[0].TicketCode, second.Tickets[0].TicketCode)
}

func TestSellDirectUnknownCustomer(t *testing.T) {
	db := setupTestDB(t)
	tt := seedTicketType(t, db, "Adult", 40000)

	issuer := NewIssuer(db)
	_, err := issuer.SellDirect(types.Actor{UserID: 7}, ticketTypes.SellDirectRequest{
		CustomerID: 9999, TicketTypeID: tt.ID, Quantity: 1, PaymentMethod: "cash",
	})
	var nf *errs.NotFoundError
	require.ErrorAs(t, err, &nf)
}

func TestSellDirectValidation(t *testing.T) {
	db := setupTestDB(t)
	issuer := NewIssuer(db)

	_, err := issuer.SellDirect(types.Actor{UserID: 7}, ticketTypes.SellDirectRequest{})
	var ve *errs.ValidationError
	require.ErrorAs(t, err, &ve)
}

func TestCustomerTicketsFilterAndOwnership(t *testing.T) {
	db := setupTestDB(t)
	cust := seedCustomer(t, db, 101)
	other := customerModel.Customer{UserID: 202, FullName: "Tran Thi B", Phone: "0900000002", Email: "b@example.com"}
	require.NoError(t, db.Create(&other).Error)
	tt := seedTicketType(t, db, "Adult", 40000)

	issuer := NewIssuer(db)
	_, err := issuer.SellDirect(types.Actor{UserID: 7}, ticketTypes.SellDirectRequest{
		CustomerID: cust.ID, TicketTypeID: tt.ID, Quantity: 2, PaymentMethod: "cash",
	})
	require.NoError(t, err)

	tickets, pagination, err := issuer.CustomerTickets(types.Actor{UserID: 101}, "", 1, 20)
	require.NoError(t, err)
	assert.Len(t, tickets, 2)
	assert.Equal(t, int64(2), pagination.Total)

	tickets, _, err = issuer.CustomerTickets(types.Actor{UserID: 101}, "completed", 1, 20)
	require.NoError(t, err)
	assert.Empty(t, tickets)

	_, _, err = issuer.CustomerTickets(types.Actor{UserID: 101}, "bogus", 1, 20)
	var ve *errs.ValidationError
	require.ErrorAs(t, err, &ve)

	tickets, _, err = issuer.CustomerTickets(types.Actor{UserID: 202}, "", 1, 20)
	require.NoError(t, err)
	assert.Empty(t, tickets)
}

func TestMyTicketDetailHidesForeignTickets(t *testing.T) {
	db := setupTestDB(t)
	cust := seedCustomer(t, db, 101)
	other := customerModel.Customer{UserID: 202, FullName: "Tran Thi B", Phone: "0900000002", Email: "b@example.com"}
	require.NoError(t, db.Create(&other).Error)
	tt := seedTicketType(t, db, "Adult", 40000)

	issuer := NewIssuer(db)
	result, err := issuer.SellDirect(types.Actor{UserID: 7}, ticketTypes.SellDirectRequest{
		CustomerID: cust.ID, TicketTypeID: tt.ID, Quantity: 1, PaymentMethod: "cash",
	})
	require.NoError(t, err)
	ticketID := result.Tickets[0].ID

	detail, err := issuer.MyTicketDetail(types.Actor{UserID: 101}, ticketID)
	require.NoError(t, err)
	assert.Equal(t, "TICKET-"+result.Tickets[0].TicketCode, detail.QRData)

	_, err = issuer.MyTicketDetail(types.Actor{UserID: 202}, ticketID)
	var nf *errs.NotFoundError
	require.ErrorAs(t, err, &nf)
}

func TestSearchForCheckInOnlyGateEligible(t *testing.T) {
	db := setupTestDB(t)
	cust := seedCustomer(t, db, 101)
	tt := seedTicketType(t, db, "Adult", 40000)

	issuer := NewIssuer(db)
	result, err := issuer.SellDirect(types.Actor{UserID: 7}, ticketTypes.SellDirectRequest{
		CustomerID: cust.ID, TicketTypeID: tt.ID, Quantity: 2, PaymentMethod: "cash",
	})
	require.NoError(t, err)

	// One ticket already finished its visit.
	require.NoError(t, db.Model(&ticketModel.Ticket{}).
		Where("id = ?", result.Tickets[0].ID).
		Update("status", ticketModel.StatusCompleted).Error)

	found, err := issuer.SearchForCheckIn("Nguyen", 20)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, result.Tickets[1].TicketCode, found[0].TicketCode)

	found, err = issuer.SearchForCheckIn(result.Tickets[1].TicketCode, 20)
	require.NoError(t, err)
	assert.Len(t, found, 1)

	_, err = issuer.SearchForCheckIn("", 20)
	var ve *errs.ValidationError
	require.ErrorAs(t, err, &ve)
}

func TestCustomerTicketStats(t *testing.T) {
	db := setupTestDB(t)
	cust := seedCustomer(t, db, 101)
	tt := seedTicketType(t, db, "Adult", 40000)

	issuer := NewIssuer(db)
	result, err := issuer.SellDirect(types.Actor{UserID: 7}, ticketTypes.SellDirectRequest{
		CustomerID: cust.ID, TicketTypeID: tt.ID, Quantity: 2, PaymentMethod: "cash",
	})
	require.NoError(t, err)

	require.NoError(t, db.Model(&ticketModel.Ticket{}).
		Where("id = ?", result.Tickets[0].ID).
		Update("status", ticketModel.StatusCompleted).Error)

	stats, err := issuer.CustomerTicketStats(types.Actor{UserID: 101})
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.Total)
	assert.Equal(t, int64(1), stats.Active)
	assert.Equal(t, int64(1), stats.Completed)
	assert.Equal(t, int64(80000), stats.TotalSpent)
}
