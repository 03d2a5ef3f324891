package tickets

import (
	"fmt"
	"strconv"

	"museum-ticketing/errs"
	"museum-ticketing/logger"
	"museum-ticketing/middleware"
	"museum-ticketing/services/customers"
	ticketService "museum-ticketing/services/ticket"
	"museum-ticketing/types"
	ticketTypes "museum-ticketing/types/ticket"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// TicketController handles counter sales and the customer's own ticket
// views.
type TicketController struct {
	DB     *gorm.DB
	Issuer *ticketService.Issuer
}

// NewTicketController creates a new ticket controller
func NewTicketController(db *gorm.DB, issuer *ticketService.Issuer) *TicketController {
	return &TicketController{
		DB:     db,
		Issuer: issuer,
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

// SearchCustomers looks up customers by name or phone for the counter
// sale form.
func (tc *TicketController) SearchCustomers(c *fiber.Ctx) error {
	query := c.Query("q")
	if query == "" {
		return fail(c, errs.Validation("q", "is required"))
	}

	found, err := customers.Search(tc.DB, query, c.QueryInt("limit", 10))
	if err != nil {
		return fail(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Customers retrieved successfully",
		Data:    found,
	})
}

// SellDirect issues tickets at the counter, paid on the spot.
func (tc *TicketController) SellDirect(c *fiber.Ctx) error {
	var req ticketTypes.SellDirectRequest
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", err)
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Invalid request body",
		})
	}

	actor := middleware.ActorFromCtx(c)

	result, err := tc.Issuer.SellDirect(actor, req)
	if err != nil {
		return fail(c, err)
	}

	logger.Success(fmt.Sprintf("Counter sale completed, invoice %s", result.Invoice.InvoiceCode))

	return c.Status(fiber.StatusCreated).JSON(types.ApiResponse{
		Status:  fiber.StatusCreated,
		Message: "Tickets sold successfully",
		Data:    result,
	})
}

// Index lists the calling customer's own tickets.
func (tc *TicketController) Index(c *fiber.Ctx) error {
	actor := middleware.ActorFromCtx(c)

	tickets, pagination, err := tc.Issuer.CustomerTickets(actor, c.Query("status"), c.QueryInt("page", 1), c.QueryInt("per_page", 20))
	if err != nil {
		return fail(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(types.PagedResponse{
		Status:     fiber.StatusOK,
		Message:    "Tickets retrieved successfully",
		Data:       tickets,
		Pagination: pagination,
	})
}

// Show returns one of the calling customer's tickets with its visit
// history and QR payload.
func (tc *TicketController) Show(c *fiber.Ctx) error {
	ticketID, err := ticketIDParam(c)
	if err != nil {
		return fail(c, err)
	}

	actor := middleware.ActorFromCtx(c)

	detail, err := tc.Issuer.MyTicketDetail(actor, ticketID)
	if err != nil {
		return fail(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Ticket retrieved successfully",
		Data:    detail,
	})
}

// Stats returns the calling customer's ticket counts and total spend.
func (tc *TicketController) Stats(c *fiber.Ctx) error {
	actor := middleware.ActorFromCtx(c)

	stats, err := tc.Issuer.CustomerTicketStats(actor)
	if err != nil {
		return fail(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Statistics retrieved successfully",
		Data:    stats,
	})
}
