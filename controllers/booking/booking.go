package booking

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"museum-ticketing/errs"
	"museum-ticketing/logger"
	"museum-ticketing/middleware"
	tickettypeModel "museum-ticketing/models/tickettype"
	orderService "museum-ticketing/services/order"
	"museum-ticketing/types"
	orderTypes "museum-ticketing/types/order"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// BookingController handles the customer side of the order workflow.
type BookingController struct {
	DB     *gorm.DB
	Orders *orderService.Service
}

// NewBookingController creates a new booking controller
func NewBookingController(db *gorm.DB, orders *orderService.Service) *BookingController {
	return &BookingController{
		DB:     db,
		Orders: orders,
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

func bankInfoFromEnv() orderTypes.BankInfo {
	return orderTypes.BankInfo{
		BankName:      os.Getenv("BANK_NAME"),
		AccountNumber: os.Getenv("BANK_ACCOUNT_NUMBER"),
		AccountName:   os.Getenv("BANK_ACCOUNT_NAME"),
	}
}

// GetTicketTypes lists the ticket catalogue. Public, no authentication.
func (bc *BookingController) GetTicketTypes(c *fiber.Ctx) error {
	var ticketTypes []tickettypeModel.TicketType
	if err := bc.DB.Order("price ASC").Find(&ticketTypes).Error; err != nil {
		return fail(c, errs.Storage("list ticket types", err))
	}
	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Ticket types retrieved successfully",
		Data:    ticketTypes,
	})
}

// Store creates a new order and returns it together with the bank
// transfer instructions the customer must follow.
func (bc *BookingController) Store(c *fiber.Ctx) error {
	var req orderTypes.OrderCreateRequest
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", err)
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Invalid request body",
		})
	}

	actor := middleware.ActorFromCtx(c)

	ord, err := bc.Orders.CreateOrder(actor, req)
	if err != nil {
		return fail(c, err)
	}

	bank := bankInfoFromEnv()
	bank.Content = ord.PaymentReference

	return c.Status(fiber.StatusCreated).JSON(types.ApiResponse{
		Status:  fiber.StatusCreated,
		Message: "Order created successfully",
		Data: fiber.Map{
			"order":     ord,
			"bank_info": bank,
		},
	})
}

// UploadProof attaches a payment proof image to an order. Multipart
// form: "proof" is the image, "transaction_ref" the optional bank
// transaction id.
func (bc *BookingController) UploadProof(c *fiber.Ctx) error {
	orderID, err := orderIDParam(c)
	if err != nil {
		return fail(c, err)
	}

	fileHeader, err := c.FormFile("proof")
	if err != nil {
		return fail(c, errs.Validation("proof", "file is required"))
	}

	file, err := fileHeader.Open()
	if err != nil {
		return fail(c, errs.Storage("open uploaded file", err))
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return fail(c, errs.Storage("read uploaded file", err))
	}

	actor := middleware.ActorFromCtx(c)
	transactionRef := c.FormValue("transaction_ref")

	ord, err := bc.Orders.UploadProof(actor, orderID, fileHeader.Filename, data, transactionRef)
	if err != nil {
		return fail(c, err)
	}

	logger.Info(fmt.Sprintf("Payment proof uploaded for order %s", ord.OrderCode))

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Payment proof uploaded, awaiting confirmation",
		Data:    ord,
	})
}

// Index lists the calling customer's own orders, optionally filtered by
// status.
func (bc *BookingController) Index(c *fiber.Ctx) error {
	actor := middleware.ActorFromCtx(c)

	orders, err := bc.Orders.MyOrders(actor, c.Query("status"))
	if err != nil {
		return fail(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Orders retrieved successfully",
		Data:    orders,
	})
}

// Show returns one of the calling customer's orders.
func (bc *BookingController) Show(c *fiber.Ctx) error {
	orderID, err := orderIDParam(c)
	if err != nil {
		return fail(c, err)
	}

	actor := middleware.ActorFromCtx(c)

	ord, err := bc.Orders.OrderDetail(actor, orderID)
	if err != nil {
		return fail(c, err)
	}

	resp := fiber.Map{"order": ord}
	if ord.Status.CanUploadProof() {
		bank := bankInfoFromEnv()
		bank.Content = ord.PaymentReference
		resp["bank_info"] = bank
	}

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Order retrieved successfully",
		Data:    resp,
	})
}

// Cancel cancels one of the calling customer's unpaid orders.
func (bc *BookingController) Cancel(c *fiber.Ctx) error {
	orderID, err := orderIDParam(c)
	if err != nil {
		return fail(c, err)
	}

	actor := middleware.ActorFromCtx(c)

	ord, err := bc.Orders.CancelOrder(actor, orderID)
	if err != nil {
		return fail(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Order cancelled successfully",
		Data:    ord,
	})
}
