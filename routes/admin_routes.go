package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/njeri2090/studio_booking/handlers"
	"github.com/njeri2090/studio_booking/middleware"
)

func AdminRoutes(app *fiber.App, jwtSecret string,
	pkg *handlers.PackageHandler,
	booking *handlers.BookingHandler,
	payment *handlers.PaymentHandler,
	delivery *handlers.DeliveryHandler,
	admin *handlers.AdminHandler,
) {
	group := app.Group("/api/v1/admin", middleware.Protected(jwtSecret), middleware.AdminRequired())

	group.Post("/packages", pkg.CreatePackage)
	group.Put("/packages/:packageId", pkg.UpdatePackage)
	group.Delete("/packages/:packageId", pkg.DeactivatePackage)

	group.Get("/bookings", booking.GetAllBookings)
	group.Patch("/bookings/:bookingId/status", booking.UpdateBookingStatus)

	group.Get("/payments", admin.GetAllPayments)
	group.Post("/payments/:paymentId/refund", payment.RefundPayment)

	group.Post("/bookings/:bookingId/delivery", delivery.CreateDelivery)
	group.Post("/deliveries/:deliveryId/photos", delivery.AddPhotos)

	group.Get("/stats", admin.GetDashboardStats)
}
