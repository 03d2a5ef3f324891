package admin

import (
	"fmt"
	"strconv"

	"museum-ticketing/errs"
	"museum-ticketing/logger"
	"museum-ticketing/middleware"
	orderService "museum-ticketing/services/order"
	"museum-ticketing/types"
	orderTypes "museum-ticketing/types/order"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// AdminController handles the staff side of the order workflow:
// reviewing payment proofs, approving, rejecting and dashboards.
type AdminController struct {
	DB       *gorm.DB
	Orders   *orderService.Service
	Workflow *orderService.ApprovalWorkflow
}

// NewAdminController creates a new admin controller
func NewAdminController(db *gorm.DB, orders *orderService.Service, workflow *orderService.ApprovalWorkflow) *AdminController {
	return &AdminController{
		DB:       db,
		Orders:   orders,
		Workflow: workflow,
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

func orderIDParam(c *fiber.Ctx) (uint, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil || id == 0 {
		return 0, errs.Validation("id", "must be a positive integer")
	}
	return uint(id), nil
}

// Index lists orders for the review queue, filtered by status and
// searched by order code or customer name, phone or email.
func (ac *AdminController) Index(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	perPage := c.QueryInt("per_page", 20)

	orders, pagination, err := ac.Orders.AdminListOrders(c.Query("status"), c.Query("search"), page, perPage)
	if err != nil {
		return fail(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(types.PagedResponse{
		Status:     fiber.StatusOK,
		Message:    "Orders retrieved successfully",
		Data:       orders,
		Pagination: pagination,
	})
}

// Show returns one order together with its full payment transition log.
func (ac *AdminController) Show(c *fiber.Ctx) error {
	orderID, err := orderIDParam(c)
	if err != nil {
		return fail(c, err)
	}

	ord, logs, err := ac.Orders.AdminOrderDetail(orderID)
	if err != nil {
		return fail(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Order retrieved successfully",
		Data: fiber.Map{
			"order":        ord,
			"payment_logs": logs,
		},
	})
}

// Approve confirms an order's payment and issues its tickets.
func (ac *AdminController) Approve(c *fiber.Ctx) error {
	orderID, err := orderIDParam(c)
	if err != nil {
		return fail(c, err)
	}

	var req orderTypes.ApproveRequest
	if err := c.BodyParser(&req); err != nil && len(c.Body()) > 0 {
		logger.Error("Failed to parse request body", err)
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Invalid request body",
		})
	}

	actor := middleware.ActorFromCtx(c)

	ord, tickets, err := ac.Workflow.Approve(actor, orderID, req.AdminNote)
	if err != nil {
		return fail(c, err)
	}

	logger.Success(fmt.Sprintf("Order %s approved, %d tickets issued", ord.OrderCode, len(tickets)))

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Order approved and tickets issued",
		Data: fiber.Map{
			"order":   ord,
			"tickets": tickets,
		},
	})
}

// Reject declines an order's payment with a mandatory reason.
func (ac *AdminController) Reject(c *fiber.Ctx) error {
	orderID, err := orderIDParam(c)
	if err != nil {
		return fail(c, err)
	}

	var req orderTypes.RejectRequest
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", err)
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Invalid request body",
		})
	}
	if err := req.Validate(); err != nil {
		return fail(c, err)
	}

	actor := middleware.ActorFromCtx(c)

	ord, err := ac.Workflow.Reject(actor, orderID, req.Reason)
	if err != nil {
		return fail(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Order rejected",
		Data:    ord,
	})
}

// Stats returns the order dashboard numbers.
func (ac *AdminController) Stats(c *fiber.Ctx) error {
	stats, err := ac.Orders.OrderStats()
	if err != nil {
		return fail(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Statistics retrieved successfully",
		Data:    stats,
	})
}
