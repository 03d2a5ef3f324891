package ticket

import (
	"errors"

	"museum-ticketing/errs"
	invoiceModel "museum-ticketing/models/invoice"
	orderModel "museum-ticketing/models/order"
	ticketModel "museum-ticketing/models/ticket"
	visitModel "museum-ticketing/models/visit"
	"museum-ticketing/services/customers"
	"museum-ticketing/types"

	"gorm.io/gorm"
)

// Detail bundles a ticket with its visit history and the payload the
// mobile app renders as a QR code at the gate.
type Detail struct {
	Ticket ticketModel.Ticket         `json:"ticket"`
	Visits []visitModel.VisitHistory  `json:"visits"`
	QRData string                     `json:"qr_data"`
}

// Stats summarises a customer's tickets for the profile screen.
type Stats struct {
	Total      int64 `json:"total"`
	Active     int64 `json:"active"`
	Completed  int64 `json:"completed"`
	TotalSpent int64 `json:"total_spent"`
}

// CustomerTickets lists the calling customer's own tickets, newest
// first, optionally filtered by status.
func (i *Issuer) CustomerTickets(actor types.Actor, status string, page, perPage int) ([]ticketModel.Ticket, types.Pagination, error) {
	var pagination types.Pagination

	cust, err := customers.Resolve(i.DB, actor.UserID)
	if err != nil {
		return nil, pagination, err
	}

	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	query := i.DB.Model(&ticketModel.Ticket{}).Where("customer_id = ?", cust.ID)
	if status != "" {
		if !ticketModel.TicketStatus(status).IsValid() {
			return nil, pagination, errs.Validation("status", "is not a valid ticket status")
		}
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, pagination, errs.Storage("count tickets", err)
	}

	var tickets []ticketModel.Ticket
	err = query.
		Preload("TicketType").
		Order("id DESC").
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&tickets).Error
	if err != nil {
		return nil, pagination, errs.Storage("list tickets", err)
	}

	pagination = types.Pagination{
		Page:    page,
		PerPage: perPage,
		Total:   total,
		Pages:   (total + int64(perPage) - 1) / int64(perPage),
	}
	return tickets, pagination, nil
}

// MyTicketDetail returns one of the calling customer's tickets with its
// visit history and QR payload. Other customers' tickets come back as
// not found, never as a permission hint.
func (i *Issuer) MyTicketDetail(actor types.Actor, ticketID uint) (*Detail, error) {
	cust, err := customers.Resolve(i.DB, actor.UserID)
	if err != nil {
		return nil, err
	}

	var t ticketModel.Ticket
	err = i.DB.Preload("TicketType").Preload("Customer").
		Where("id = ? AND customer_id = ?", ticketID, cust.ID).
		First(&t).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NotFound("ticket")
		}
		return nil, errs.Storage("load ticket", err)
	}

	return i.buildDetail(&t)
}

// TicketDetail is the staff view of a ticket, without an ownership
// restriction.
func (i *Issuer) TicketDetail(ticketID uint) (*Detail, error) {
	var t ticketModel.Ticket
	err := i.DB.Preload("TicketType").Preload("Customer").
		First(&t, ticketID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NotFound("ticket")
		}
		return nil, errs.Storage("load ticket", err)
	}

	return i.buildDetail(&t)
}

func (i *Issuer) buildDetail(t *ticketModel.Ticket) (*Detail, error) {
	var visits []visitModel.VisitHistory
	err := i.DB.Where("ticket_id = ?", t.ID).
		Order("id DESC").
		Find(&visits).Error
	if err != nil {
		return nil, errs.Storage("load visit history", err)
	}

	return &Detail{
		Ticket: *t,
		Visits: visits,
		QRData: "TICKET-" + t.TicketCode,
	}, nil
}

// CustomerTicketStats aggregates the calling customer's ticket counts
// and spend. Spend sums paid orders plus counter-sale invoices, both of
// which carry prices snapshotted at purchase time.
func (i *Issuer) CustomerTicketStats(actor types.Actor) (*Stats, error) {
	cust, err := customers.Resolve(i.DB, actor.UserID)
	if err != nil {
		return nil, err
	}

	var stats Stats
	base := i.DB.Model(&ticketModel.Ticket{}).Where("customer_id = ?", cust.ID)

	if err := base.Session(&gorm.Session{}).Count(&stats.Total).Error; err != nil {
		return nil, errs.Storage("count tickets", err)
	}
	if err := base.Session(&gorm.Session{}).
		Where("status IN ?", []ticketModel.TicketStatus{ticketModel.StatusActive, ticketModel.StatusCheckedIn, ticketModel.StatusCheckedOut}).
		Count(&stats.Active).Error; err != nil {
		return nil, errs.Storage("count active tickets", err)
	}
	if err := base.Session(&gorm.Session{}).
		Where("status = ?", ticketModel.StatusCompleted).
		Count(&stats.Completed).Error; err != nil {
		return nil, errs.Storage("count completed tickets", err)
	}

	var orderSpend int64
	err = i.DB.Model(&orderModel.Order{}).
		Where("customer_id = ? AND status = ?", cust.ID, orderModel.StatusPaid).
		Select("COALESCE(SUM(total_price), 0)").
		Scan(&orderSpend).Error
	if err != nil {
		return nil, errs.Storage("sum order spend", err)
	}

	var counterSpend int64
	err = i.DB.Model(&invoiceModel.Invoice{}).
		Where("customer_id = ?", cust.ID).
		Select("COALESCE(SUM(final_amount), 0)").
		Scan(&counterSpend).Error
	if err != nil {
		return nil, errs.Storage("sum invoice spend", err)
	}

	stats.TotalSpent = orderSpend + counterSpend
	return &stats, nil
}

// SearchForCheckIn finds gate-eligible tickets by code or holder name.
// Only active and checked_in tickets show up; everything else is noise
// at the gate.
func (i *Issuer) SearchForCheckIn(search string, limit int) ([]ticketModel.Ticket, error) {
	if search == "" {
		return nil, errs.Validation("search", "is required")
	}
	if limit < 1 || limit > 50 {
		limit = 20
	}

	pattern := "%" + search + "%"
	var tickets []ticketModel.Ticket
	err := i.DB.
		Joins("JOIN customers ON customers.id = tickets.customer_id").
		Where("tickets.status IN ?", []ticketModel.TicketStatus{ticketModel.StatusActive, ticketModel.StatusCheckedIn}).
		Where("tickets.ticket_code LIKE ? OR customers.full_name LIKE ?", pattern, pattern).
		Preload("TicketType").
		Preload("Customer").
		Order("tickets.id DESC").
		Limit(limit).
		Find(&tickets).Error
	if err != nil {
		return nil, errs.Storage("search tickets", err)
	}
	return tickets, nil
}
