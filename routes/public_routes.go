package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/njeri2090/studio_booking/handlers"
)

// PublicRoutes registers everything reachable without a token. It must be
// registered before the protected booking routes so the static
// /bookings/availability path wins over /bookings/:bookingId.
func PublicRoutes(app *fiber.App, auth *handlers.AuthHandler, pkg *handlers.PackageHandler, booking *handlers.BookingHandler, delivery *handlers.DeliveryHandler) {
	api := app.Group("/api/v1")

	api.Post("/auth/register", auth.Register)
	api.Post("/auth/login", auth.Login)

	api.Get("/packages", pkg.ListPackages)
	api.Get("/packages/:packageId", pkg.GetPackage)

	api.Get("/bookings/availability", booking.CheckAvailability)

	api.Get("/deliveries/:deliveryId", delivery.GetDelivery)
	api.Get("/deliveries/:deliveryId/download", delivery.DownloadDelivery)
}
