package checkin

import (
	"fmt"
	"strconv"

	"museum-ticketing/errs"
	"museum-ticketing/logger"
	"museum-ticketing/middleware"
	ticketService "museum-ticketing/services/ticket"
	visitService "museum-ticketing/services/visit"
	"museum-ticketing/types"
	ticketTypes "museum-ticketing/types/ticket"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// CheckinController handles the gate: ticket search, check-in,
// check-out and the post-visit rating.
type CheckinController struct {
	DB     *gorm.DB
	Issuer *ticketService.Issuer
	Visits *visitService.Service
}

// NewCheckinController creates a new check-in controller
func NewCheckinController(db *gorm.DB, issuer *ticketService.Issuer, visits *visitService.Service) *CheckinController {
	return &CheckinController{
		DB:     db,
		Issuer: issuer,
		Visits: visits,
	}
}

func fail(c *fiber.Ctx, err error) error {
	status := errs.HTTPStatus(err)
	if status == fiber.StatusInternalServerError {
		logger.Error("Request failed", err)
		return c.Status(status).JSON(types.ApiResponse{
			Status:  status,
			Message: "Internal server error",
		})
	}
	return c.Status(status).JSON(types.ApiResponse{
		Status:  status,
		Message: err.Error(),
	})
}

func ticketIDParam(c *fiber.Ctx) (uint, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil || id == 0 {
		return 0, errs.Validation("id", "must be a positive integer")
	}
	return uint(id), nil
}

// Search finds gate-eligible tickets by code or holder name.
func (cc *CheckinController) Search(c *fiber.Ctx) error {
	tickets, err := cc.Issuer.SearchForCheckIn(c.Query("q"), c.QueryInt("limit", 20))
	if err != nil {
		return fail(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Tickets retrieved successfully",
		Data:    tickets,
	})
}

// Show is the staff view of one ticket with its visit history.
func (cc *CheckinController) Show(c *fiber.Ctx) error {
	ticketID, err := ticketIDParam(c)
	if err != nil {
		return fail(c, err)
	}

	detail, err := cc.Issuer.TicketDetail(ticketID)
	if err != nil {
		return fail(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Ticket retrieved successfully",
		Data:    detail,
	})
}

// CheckIn starts a visit on an active ticket.
func (cc *CheckinController) CheckIn(c *fiber.Ctx) error {
	ticketID, err := ticketIDParam(c)
	if err != nil {
		return fail(c, err)
	}

	actor := middleware.ActorFromCtx(c)

	visit, err := cc.Visits.CheckIn(actor, ticketID)
	if err != nil {
		return fail(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Checked in successfully",
		Data:    visit,
	})
}

// CheckOut ends the visit on a checked-in ticket.
func (cc *CheckinController) CheckOut(c *fiber.Ctx) error {
	ticketID, err := ticketIDParam(c)
	if err != nil {
		return fail(c, err)
	}

	visit, err := cc.Visits.CheckOut(ticketID)
	if err != nil {
		return fail(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: fmt.Sprintf("Checked out successfully after %d minutes", *visit.DurationMinutes),
		Data:    visit,
	})
}

// Rate records the visitor's rating on a checked-out ticket and
// completes it.
func (cc *CheckinController) Rate(c *fiber.Ctx) error {
	ticketID, err := ticketIDParam(c)
	if err != nil {
		return fail(c, err)
	}

	var req ticketTypes.RateRequest
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", err)
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Invalid request body",
		})
	}

	visit, err := cc.Visits.Rate(ticketID, req)
	if err != nil {
		return fail(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Thank you for your feedback",
		Data:    visit,
	})
}
