package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/njeri2090/studio_booking/handlers"
	"github.com/njeri2090/studio_booking/middleware"
)

func BookingRoutes(app *fiber.App, jwtSecret string, booking *handlers.BookingHandler) {
	api := app.Group("/api/v1")

	group := api.Group("/bookings", middleware.Protected(jwtSecret))
	group.Post("", booking.CreateBooking)
	group.Get("/me", booking.GetMyBookings)
	group.Get("/:bookingId", booking.GetBooking)
	group.Post("/:bookingId/cancel", booking.CancelBooking)
}
