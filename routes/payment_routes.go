package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/njeri2090/studio_booking/handlers"
	"github.com/njeri2090/studio_booking/middleware"
)

func PaymentRoutes(app *fiber.App, jwtSecret string, payment *handlers.PaymentHandler) {
	api := app.Group("/api/v1")

	// The webhook endpoint authenticates with the processor signature, not a
	// user token.
	api.Post("/payments/webhook", payment.HandleWebhook)

	group := api.Group("/bookings", middleware.Protected(jwtSecret))
	group.Post("/:bookingId/payments/deposit", payment.CreateDepositIntent)
	group.Post("/:bookingId/payments/remaining", payment.CreateRemainingIntent)
	group.Get("/:bookingId/payments", payment.GetBookingPayments)
}
