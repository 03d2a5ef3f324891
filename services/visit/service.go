package visit

import (
	"errors"
	"fmt"
	"time"

	"museum-ticketing/errs"
	"museum-ticketing/logger"
	ticketModel "museum-ticketing/models/ticket"
	visitModel "museum-ticketing/models/visit"
	"museum-ticketing/types"
	ticketTypes "museum-ticketing/types/ticket"

	"gorm.io/gorm"
)

// Service drives the per-ticket visit lifecycle: check-in, check-out and
// rating. Tickets are single-visit by policy: check-in requires status
// active, and nothing ever returns a ticket to active, so a second visit
// on the same ticket is structurally impossible.
type Service struct {
	DB *gorm.DB

	Now func() time.Time
}

func NewService(db *gorm.DB) *Service {
	return &Service{
		DB:  db,
		Now: time.Now,
	}
}

// CheckIn starts a visit: opens a VisitHistory row and flips the ticket
// to checked_in. The guarded status update makes two gates scanning the
// same ticket resolve to one winner.
func (s *Service) CheckIn(actor types.Actor, ticketID uint) (*visitModel.VisitHistory, error) {
	t, err := s.loadTicket(ticketID)
	if err != nil {
		return nil, err
	}
	if !t.Status.CanCheckIn() {
		return nil, errs.StateConflict("ticket", t.Status.String(), ticketModel.StatusActive.String())
	}

	checkInTime := s.Now()
	var history visitModel.VisitHistory

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&ticketModel.Ticket{}).
			Where("id = ? AND status = ?", t.ID, ticketModel.StatusActive).
			Update("status", ticketModel.StatusCheckedIn)
		if res.Error != nil {
			return errs.Storage("check in ticket", res.Error)
		}
		if res.RowsAffected == 0 {
			return errs.StateConflict("ticket", "", ticketModel.StatusActive.String())
		}

		history = visitModel.VisitHistory{
			TicketID:    t.ID,
			CustomerID:  t.CustomerID,
			CheckInTime: checkInTime,
			GuideID:     actor.UserID,
		}
		if err := tx.Create(&history).Error; err != nil {
			return errs.Storage("create visit history", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Success(fmt.Sprintf("Ticket %s checked in by staff %d", t.TicketCode, actor.UserID))

	return &history, nil
}

// CheckOut closes the ticket's open visit, computing the stay duration in
// whole minutes, and flips the ticket to checked_out. A ticket without an
// open visit is not checked in.
func (s *Service) CheckOut(ticketID uint) (*visitModel.VisitHistory, error) {
	t, err := s.loadTicket(ticketID)
	if err != nil {
		return nil, err
	}

	checkOutTime := s.Now()
	var history visitModel.VisitHistory

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		// At most one open visit may exist per ticket; more than one is
		// corrupted data and must surface, not be papered over.
		var open int64
		if err := tx.Model(&visitModel.VisitHistory{}).
			Where("ticket_id = ? AND check_out_time IS NULL", t.ID).
			Count(&open).Error; err != nil {
			return errs.Storage("count open visits", err)
		}
		if open > 1 {
			return errs.Storage("open visit invariant",
				fmt.Errorf("ticket %d has %d open visits", t.ID, open))
		}

		err := tx.Where("ticket_id = ? AND check_out_time IS NULL", t.ID).
			Order("id DESC").
			First(&history).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errs.StateConflict("ticket", t.Status.String(), ticketModel.StatusCheckedIn.String())
			}
			return errs.Storage("load open visit", err)
		}

		duration := int(checkOutTime.Sub(history.CheckInTime).Minutes())
		if duration < 0 {
			duration = 0
		}

		res := tx.Model(&visitModel.VisitHistory{}).
			Where("id = ? AND check_out_time IS NULL", history.ID).
			Updates(map[string]interface{}{
				"check_out_time":   checkOutTime,
				"duration_minutes": duration,
			})
		if res.Error != nil {
			return errs.Storage("close visit", res.Error)
		}
		if res.RowsAffected == 0 {
			return errs.StateConflict("visit", "", "open")
		}

		res = tx.Model(&ticketModel.Ticket{}).
			Where("id = ? AND status = ?", t.ID, ticketModel.StatusCheckedIn).
			Update("status", ticketModel.StatusCheckedOut)
		if res.Error != nil {
			return errs.Storage("check out ticket", res.Error)
		}
		if res.RowsAffected == 0 {
			return errs.StateConflict("ticket", "", ticketModel.StatusCheckedIn.String())
		}

		history.CheckOutTime = &checkOutTime
		history.DurationMinutes = &duration
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Success(fmt.Sprintf("Ticket %s checked out after %d minutes",
		t.TicketCode, *history.DurationMinutes))

	return &history, nil
}

// Rate records the visitor's rating and feedback on the latest visit and
// completes the ticket. Only a checked-out ticket can be rated, and the
// rating must be 1..5.
func (s *Service) Rate(ticketID uint, req ticketTypes.RateRequest) (*visitModel.VisitHistory, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	t, err := s.loadTicket(ticketID)
	if err != nil {
		return nil, err
	}

	var history visitModel.VisitHistory

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		err := tx.Where("ticket_id = ?", t.ID).
			Order("id DESC").
			First(&history).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errs.StateConflict("ticket", t.Status.String(), ticketModel.StatusCheckedOut.String())
			}
			return errs.Storage("load latest visit", err)
		}
		if history.CheckOutTime == nil {
			return errs.StateConflict("ticket", t.Status.String(), ticketModel.StatusCheckedOut.String())
		}

		updates := map[string]interface{}{"rating": req.Rating}
		if req.Feedback != "" {
			updates["feedback"] = req.Feedback
		}
		if err := tx.Model(&visitModel.VisitHistory{}).
			Where("id = ?", history.ID).
			Updates(updates).Error; err != nil {
			return errs.Storage("save rating", err)
		}

		res := tx.Model(&ticketModel.Ticket{}).
			Where("id = ? AND status = ?", t.ID, ticketModel.StatusCheckedOut).
			Update("status", ticketModel.StatusCompleted)
		if res.Error != nil {
			return errs.Storage("complete ticket", res.Error)
		}
		if res.RowsAffected == 0 {
			return errs.StateConflict("ticket", t.Status.String(), ticketModel.StatusCheckedOut.String())
		}

		history.Rating = &req.Rating
		if req.Feedback != "" {
			feedback := req.Feedback
			history.Feedback = &feedback
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(fmt.Sprintf("Ticket %s rated %d/5", t.TicketCode, req.Rating))

	return &history, nil
}

func (s *Service) loadTicket(ticketID uint) (*ticketModel.Ticket, error) {
	var t ticketModel.Ticket
	if err := s.DB.First(&t, ticketID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NotFound("ticket")
		}
		return nil, errs.Storage("load ticket", err)
	}
	return &t, nil
}
