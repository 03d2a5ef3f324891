package ticket

import (
	"errors"
	"fmt"
	"time"

	"museum-ticketing/errs"
	"museum-ticketing/logger"
	customerModel "museum-ticketing/models/customer"
	invoiceModel "museum-ticketing/models/invoice"
	orderModel "museum-ticketing/models/order"
	ticketModel "museum-ticketing/models/ticket"
	tickettypeModel "museum-ticketing/models/tickettype"
	"museum-ticketing/types"
	ticketTypes "museum-ticketing/types/ticket"

	jnow "github.com/jinzhu/now"
	"gorm.io/gorm"
)

// Issuer creates tickets, either for an approved order or as a direct
// counter sale. It never transitions tickets; that is the visit
// lifecycle's job.
type Issuer struct {
	DB *gorm.DB

	Now func() time.Time
}

func NewIssuer(db *gorm.DB) *Issuer {
	return &Issuer{
		DB:  db,
		Now: time.Now,
	}
}

// IssueForOrder creates exactly order.Quantity active tickets inside the
// caller's transaction. Codes are T<order_code><NN> with a two-digit
// sequence; the approval workflow's guarded status update ensures this
// runs at most once per order, so the codes cannot collide with a
// previous issuance of the same order.
func (i *Issuer) IssueForOrder(tx *gorm.DB, ord *orderModel.Order) ([]ticketModel.Ticket, error) {
	issuedAt := i.Now()
	day := jnow.With(issuedAt).BeginningOfDay()

	tickets := make([]ticketModel.Ticket, 0, ord.Quantity)
	for seq := 1; seq <= ord.Quantity; seq++ {
		orderID := ord.ID
		t := ticketModel.Ticket{
			TicketCode:   fmt.Sprintf("T%s%02d", ord.OrderCode, seq),
			CustomerID:   ord.CustomerID,
			TicketTypeID: ord.TicketTypeID,
			Status:       ticketModel.StatusActive,
			PurchaseDate: day,
			ValidDate:    day,
			OrderID:      &orderID,
		}
		if err := tx.Create(&t).Error; err != nil {
			if errs.IsUniqueViolation(err) {
				return nil, errs.Duplicate("ticket code", t.TicketCode)
			}
			return nil, errs.Storage("issue ticket", err)
		}
		tickets = append(tickets, t)
	}

	return tickets, nil
}

// SellDirectResult is the outcome of one counter sale.
type SellDirectResult struct {
	Tickets []ticketModel.Ticket `json:"tickets"`
	Invoice invoiceModel.Invoice `json:"invoice"`
}

// SellDirect issues tickets at the counter, bypassing the order workflow
// entirely. Codes derive from the sale timestamp (MT<yymmdd><hhmm-tail>)
// plus a per-ticket sequence; a same-second collision with an earlier
// sale retries with the next timestamp reading. The invoice and its
// lines are written in the same transaction.
func (i *Issuer) SellDirect(actor types.Actor, req ticketTypes.SellDirectRequest) (*SellDirectResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var cust customerModel.Customer
	if err := i.DB.First(&cust, req.CustomerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NotFound("customer")
		}
		return nil, errs.Storage("load customer", err)
	}

	var ticketType tickettypeModel.TicketType
	if err := i.DB.First(&ticketType, req.TicketTypeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NotFound("ticket type")
		}
		return nil, errs.Storage("load ticket type", err)
	}

	totalPrice := ticketType.Price * int64(req.Quantity)

	var result *SellDirectResult
	var lastErr error

	for attempt := 0; attempt < 5; attempt++ {
		soldAt := i.Now()
		day := jnow.With(soldAt).BeginningOfDay()

		// MT + yymmdd + last four digits of hhmmss, per the counter's
		// legacy code scheme; the sequence keeps multi-ticket sales unique.
		// Retries after a same-second collision skew the clock forward.
		clock := soldAt.Add(time.Duration(attempt) * time.Second).Format("150405")
		base := fmt.Sprintf("MT%s%s", soldAt.Format("060102"), clock[len(clock)-4:])

		err := i.DB.Transaction(func(tx *gorm.DB) error {
			tickets := make([]ticketModel.Ticket, 0, req.Quantity)
			for seq := 1; seq <= req.Quantity; seq++ {
				method := req.PaymentMethod
				t := ticketModel.Ticket{
					TicketCode:    fmt.Sprintf("%s%02d", base, seq),
					CustomerID:    cust.ID,
					TicketTypeID:  ticketType.ID,
					Status:        ticketModel.StatusActive,
					PurchaseDate:  day,
					ValidDate:     day,
					PaymentMethod: &method,
				}
				if err := tx.Create(&t).Error; err != nil {
					return err
				}
				tickets = append(tickets, t)
			}

			inv := invoiceModel.Invoice{
				InvoiceCode:   fmt.Sprintf("INV%s%04d", soldAt.Format("060102"), tickets[0].ID),
				UserID:        actor.UserID,
				CustomerID:    cust.ID,
				TotalAmount:   totalPrice,
				FinalAmount:   totalPrice,
				PaymentMethod: req.PaymentMethod,
				PaymentStatus: "paid",
				InvoiceDate:   soldAt,
			}
			if err := tx.Create(&inv).Error; err != nil {
				return err
			}

			for _, t := range tickets {
				detail := invoiceModel.InvoiceDetail{
					InvoiceID: inv.ID,
					TicketID:  t.ID,
					Quantity:  1,
					UnitPrice: ticketType.Price,
					Subtotal:  ticketType.Price,
				}
				if err := tx.Create(&detail).Error; err != nil {
					return err
				}
			}

			result = &SellDirectResult{Tickets: tickets, Invoice: inv}
			return nil
		})
		if err == nil {
			lastErr = nil
			break
		}
		if errs.IsUniqueViolation(err) {
			lastErr = errs.Duplicate("ticket code", base)
			continue
		}
		return nil, errs.Storage("sell ticket", err)
	}
	if lastErr != nil {
		return nil, lastErr
	}

	logger.Success(fmt.Sprintf("Counter sale: %d x %s to customer %d, invoice %s",
		req.Quantity, ticketType.TypeName, cust.ID, result.Invoice.InvoiceCode))

	return result, nil
}
