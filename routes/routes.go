package routes

import (
	"museum-ticketing/constants"
	adminController "museum-ticketing/controllers/admin"
	bookingController "museum-ticketing/controllers/booking"
	checkinController "museum-ticketing/controllers/checkin"
	ticketController "museum-ticketing/controllers/tickets"
	"museum-ticketing/filestore"
	"museum-ticketing/logger"
	"museum-ticketing/middleware"
	"museum-ticketing/services/notification"
	orderService "museum-ticketing/services/order"
	ticketService "museum-ticketing/services/ticket"
	visitService "museum-ticketing/services/visit"
	"museum-ticketing/types"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// Services groups everything SetupRoutes wires into controllers. The
// caller builds it once so main and the background workers share the
// same service instances.
type Services struct {
	Orders   *orderService.Service
	Workflow *orderService.ApprovalWorkflow
	Issuer   *ticketService.Issuer
	Visits   *visitService.Service
}

// NewServices constructs the service graph on top of one DB handle.
func NewServices(db *gorm.DB, files filestore.Store, notifier notification.Sink) *Services {
	issuer := ticketService.NewIssuer(db)
	return &Services{
		Orders:   orderService.NewService(db, files, notifier),
		Workflow: orderService.NewApprovalWorkflow(db, issuer, notifier),
		Issuer:   issuer,
		Visits:   visitService.NewService(db),
	}
}

func SetupRoutes(app *fiber.App, db *gorm.DB, svc *Services) {
	asyncLogger := logger.NewAsyncLogger(db)
	booking := bookingController.NewBookingController(db, svc.Orders)
	admin := adminController.NewAdminController(db, svc.Orders, svc.Workflow)
	tickets := ticketController.NewTicketController(db, svc.Issuer)
	checkin := checkinController.NewCheckinController(db, svc.Issuer, svc.Visits)

	// Start the async logger processing goroutine
	go asyncLogger.ProcessLog()

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(types.ApiResponse{Status: fiber.StatusOK, Message: "ok"})
	})

	/*=============================================================================
	| Public Routes
	===============================================================================*/
	api := app.Group("/api", middleware.RequestLogger(asyncLogger))
	api.Get("/ticket-types", booking.GetTicketTypes)

	/*=============================================================================
	| Order Routes (customer)
	===============================================================================*/
	orders := api.Group("/orders")

	orders.Post("/", middleware.RequirePermissions(
		constants.PermPurchase,
	), booking.Store)

	orders.Get("/", middleware.RequirePermissions(
		constants.PermPurchase,
	), booking.Index)

	orders.Get("/:id", middleware.RequirePermissions(
		constants.PermPurchase,
	), booking.Show)

	orders.Post("/:id/proof", middleware.RequirePermissions(
		constants.PermPurchase,
	), booking.UploadProof)

	orders.Post("/:id/cancel", middleware.RequirePermissions(
		constants.PermPurchase,
	), booking.Cancel)

	/*=============================================================================
	| Admin Routes (payment review)
	===============================================================================*/
	adminGroup := api.Group("/admin/orders")

	adminGroup.Get("/", middleware.RequirePermissions(
		constants.PermTickets,
	), admin.Index)

	adminGroup.Get("/stats", middleware.RequirePermissions(
		constants.PermTickets,
	), admin.Stats)

	adminGroup.Get("/:id", middleware.RequirePermissions(
		constants.PermTickets,
	), admin.Show)

	adminGroup.Post("/:id/approve", middleware.RequirePermissions(
		constants.PermTickets,
	), admin.Approve)

	adminGroup.Post("/:id/reject", middleware.RequirePermissions(
		constants.PermTickets,
	), admin.Reject)

	/*=============================================================================
	| Ticket Routes (counter sales and customer views)
	===============================================================================*/
	ticketGroup := api.Group("/tickets")

	ticketGroup.Get("/customers", middleware.RequirePermissions(
		constants.PermCustomers,
	), tickets.SearchCustomers)

	ticketGroup.Post("/sell", middleware.RequirePermissions(
		constants.PermTickets,
	), tickets.SellDirect)

	ticketGroup.Get("/my", middleware.RequirePermissions(
		constants.PermMyTickets,
	), tickets.Index)

	ticketGroup.Get("/my/stats", middleware.RequirePermissions(
		constants.PermMyTickets,
	), tickets.Stats)

	ticketGroup.Get("/my/:id", middleware.RequirePermissions(
		constants.PermMyTickets,
	), tickets.Show)

	/*=============================================================================
	| Gate Routes (check-in, check-out, rating)
	===============================================================================*/
	gate := api.Group("/checkin")

	gate.Get("/search", middleware.RequirePermissions(
		constants.PermCheckin,
	), checkin.Search)

	gate.Get("/tickets/:id", middleware.RequirePermissions(
		constants.PermCheckin, constants.PermCheckout,
	), checkin.Show)

	gate.Post("/tickets/:id/check-in", middleware.RequirePermissions(
		constants.PermCheckin,
	), checkin.CheckIn)

	gate.Post("/tickets/:id/check-out", middleware.RequirePermissions(
		constants.PermCheckout,
	), checkin.CheckOut)

	gate.Post("/tickets/:id/rate", middleware.RequirePermissions(
		constants.PermRating, constants.PermMyTickets,
	), checkin.Rate)
}
