package handlers

import (
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/njeri2090/studio_booking/database"
	"github.com/njeri2090/studio_booking/middleware"
	"github.com/njeri2090/studio_booking/models"
	"github.com/njeri2090/studio_booking/notifications"
	"github.com/njeri2090/studio_booking/services"
	"github.com/njeri2090/studio_booking/websocket"
)

const bookingDateLayout = "2006-01-02"

type BookingHandler struct {
	DB  *gorm.DB
	Hub *websocket.Hub
}

func NewBookingHandler(db *gorm.DB, hub *websocket.Hub) *BookingHandler {
	return &BookingHandler{DB: db, Hub: hub}
}

type CreateBookingRequest struct {
	PackageID    string `json:"package_id" validate:"required,uuid"`
	BookingDate  string `json:"booking_date" validate:"required,datetime=2006-01-02"`
	BookingTime  string `json:"booking_time" validate:"required"`
	ContactName  string `json:"contact_name" validate:"required"`
	ContactEmail string `json:"contact_email" validate:"required,email"`
	ContactPhone string `json:"contact_phone,omitempty"`
	Notes        string `json:"notes,omitempty"`
}

// countActiveBookings counts non-cancelled bookings for a package on a date.
// Callers that go on to insert must run it inside the same transaction as the
// insert, with the package row locked, or two concurrent requests can both
// pass the check.
func countActiveBookings(tx *gorm.DB, packageID uuid.UUID, date time.Time) (int64, error) {
	var count int64
	err := tx.Model(&models.Booking{}).
		Where("package_id = ? AND booking_date = ? AND status <> ?", packageID, date, models.BookingCancelled).
		Count(&count).Error
	return count, err
}

func (h *BookingHandler) CreateBooking(c *fiber.Ctx) error {
	userID := middleware.UserID(c)

	var req CreateBookingRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	packageID, _ := uuid.Parse(req.PackageID)
	bookingDate, err := time.Parse(bookingDateLayout, req.BookingDate)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid booking date"})
	}

	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if bookingDate.Before(today) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Booking date cannot be in the past"})
	}

	var booking models.Booking
	err = h.DB.Transaction(func(tx *gorm.DB) error {
		// The package row is the serialization point for its daily capacity:
		// the lock holds off concurrent creations for the same package while
		// we count and insert.
		var pkg models.Package
		if err := database.WithRowLock(tx).First(&pkg, "id = ?", packageID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return services.ErrPackageNotFound
			}
			return err
		}
		if !pkg.IsActive {
			return services.ErrPackageUnavailable
		}

		count, err := countActiveBookings(tx, pkg.ID, bookingDate)
		if err != nil {
			return err
		}
		if count >= int64(pkg.MaxBookingsPerDay) {
			return services.ErrCapacityExceeded
		}

		pricing := services.ComputePricing(pkg)
		booking = models.Booking{
			UserID:               userID,
			PackageID:            pkg.ID,
			BookingDate:          bookingDate,
			BookingTime:          req.BookingTime,
			ContactName:          req.ContactName,
			ContactEmail:         req.ContactEmail,
			ContactPhone:         req.ContactPhone,
			Notes:                req.Notes,
			PackagePriceCents:    pricing.PackagePriceCents,
			DepositAmountCents:   pricing.DepositAmountCents,
			RemainingAmountCents: pricing.RemainingAmountCents,
			PaymentStatus:        models.BookingPaymentPending,
			Status:               models.BookingPending,
		}
		return tx.Create(&booking).Error
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrPackageNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
		case errors.Is(err, services.ErrPackageUnavailable), errors.Is(err, services.ErrCapacityExceeded):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create booking"})
	}

	h.Hub.Broadcast(websocket.EventBookingCreated, booking)
	go notifications.SendEmail(booking.ContactName, booking.ContactEmail,
		"We Received Your Booking",
		fmt.Sprintf("<h1>Booking Received</h1><p>Your session on %s at %s is reserved. Pay the deposit to confirm it.</p>",
			booking.BookingDate.Format("January 2, 2006"), booking.BookingTime))

	return c.Status(fiber.StatusCreated).JSON(booking)
}

// CheckAvailability is the read-only availability probe clients call while
// picking a date. The authoritative check runs again inside the creation
// transaction.
func (h *BookingHandler) CheckAvailability(c *fiber.Ctx) error {
	packageID, err := uuid.Parse(c.Query("package_id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid package ID"})
	}
	date, err := time.Parse(bookingDateLayout, c.Query("date"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid date, expected YYYY-MM-DD"})
	}

	var pkg models.Package
	if err := h.DB.First(&pkg, "id = ?", packageID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": services.ErrPackageNotFound.Error()})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error"})
	}
	if !pkg.IsActive {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": services.ErrPackageUnavailable.Error()})
	}

	count, err := countActiveBookings(h.DB, pkg.ID, date)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error"})
	}

	remaining := int64(pkg.MaxBookingsPerDay) - count
	if remaining < 0 {
		remaining = 0
	}
	return c.JSON(fiber.Map{
		"available": remaining > 0,
		"remaining": remaining,
	})
}

func (h *BookingHandler) GetMyBookings(c *fiber.Ctx) error {
	userID := middleware.UserID(c)

	var bookings []models.Booking
	if err := h.DB.
		Preload("Package").
		Where("user_id = ?", userID).
		Order("booking_date desc").
		Find(&bookings).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to list bookings"})
	}
	return c.JSON(bookings)
}

func (h *BookingHandler) GetBooking(c *fiber.Ctx) error {
	bookingID, err := uuid.Parse(c.Params("bookingId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid booking ID"})
	}

	var booking models.Booking
	if err := h.DB.Preload("Package").First(&booking, "id = ?", bookingID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Booking not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error"})
	}

	if booking.UserID != middleware.UserID(c) && middleware.Role(c) != "admin" {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "This is not your booking"})
	}
	return c.JSON(booking)
}

type CancelBookingRequest struct {
	Reason string `json:"reason,omitempty"`
}

func (h *BookingHandler) CancelBooking(c *fiber.Ctx) error {
	bookingID, err := uuid.Parse(c.Params("bookingId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid booking ID"})
	}

	var req CancelBookingRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
		}
	}

	userID := middleware.UserID(c)
	isAdmin := middleware.Role(c) == "admin"

	var booking models.Booking
	err = h.DB.Transaction(func(tx *gorm.DB) error {
		if err := database.WithRowLock(tx).First(&booking, "id = ?", bookingID).Error; err != nil {
			return err
		}
		if booking.UserID != userID && !isAdmin {
			return errForbidden
		}
		if !services.CanBeCancelled(booking, time.Now()) {
			return services.ErrBookingNotCancellable
		}

		now := time.Now()
		booking.Status = models.BookingCancelled
		booking.CancelledAt = &now
		if req.Reason != "" {
			booking.CancellationReason = &req.Reason
		}
		return tx.Save(&booking).Error
	})
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Booking not found"})
		case errors.Is(err, errForbidden):
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "This is not your booking"})
		case errors.Is(err, services.ErrBookingNotCancellable):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to cancel booking"})
	}

	h.Hub.Broadcast(websocket.EventBookingStatus, booking)
	go notifications.SendEmail(booking.ContactName, booking.ContactEmail,
		"Your Booking Has Been Cancelled",
		fmt.Sprintf("<h1>Booking Cancelled</h1><p>Your session on %s has been cancelled.</p>",
			booking.BookingDate.Format("January 2, 2006")))

	return c.JSON(booking)
}

var errForbidden = errors.New("forbidden")

func (h *BookingHandler) GetAllBookings(c *fiber.Ctx) error {
	query := h.DB.Preload("Package").Order("booking_date desc")
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if date := c.Query("date"); date != "" {
		parsed, err := time.Parse(bookingDateLayout, date)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid date, expected YYYY-MM-DD"})
		}
		query = query.Where("booking_date = ?", parsed)
	}

	var bookings []models.Booking
	if err := query.Find(&bookings).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to list bookings"})
	}
	return c.JSON(bookings)
}

type UpdateBookingStatusRequest struct {
	Status             string `json:"status" validate:"required"`
	CancellationReason string `json:"cancellation_reason,omitempty"`
}

// UpdateBookingStatus is the admin path through the state machine. A move to
// cancelled requires a reason; every move is checked against the transition
// table.
func (h *BookingHandler) UpdateBookingStatus(c *fiber.Ctx) error {
	bookingID, err := uuid.Parse(c.Params("bookingId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid booking ID"})
	}

	var req UpdateBookingStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	target := models.BookingStatus(req.Status)
	switch target {
	case models.BookingConfirmed, models.BookingInProgress, models.BookingCompleted, models.BookingCancelled:
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Unknown booking status"})
	}
	if target == models.BookingCancelled && req.CancellationReason == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "A cancellation reason is required"})
	}

	var booking models.Booking
	err = h.DB.Transaction(func(tx *gorm.DB) error {
		if err := database.WithRowLock(tx).First(&booking, "id = ?", bookingID).Error; err != nil {
			return err
		}
		if !services.CanTransition(booking.Status, target) {
			return services.ErrInvalidTransition
		}

		now := time.Now()
		booking.Status = target
		switch target {
		case models.BookingConfirmed:
			booking.ConfirmedAt = &now
		case models.BookingCompleted:
			booking.CompletedAt = &now
		case models.BookingCancelled:
			booking.CancelledAt = &now
			booking.CancellationReason = &req.CancellationReason
		}
		return tx.Save(&booking).Error
	})
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Booking not found"})
		case errors.Is(err, services.ErrInvalidTransition):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update booking"})
	}

	h.Hub.Broadcast(websocket.EventBookingStatus, booking)
	if target == models.BookingCancelled {
		go notifications.SendEmail(booking.ContactName, booking.ContactEmail,
			"Your Booking Has Been Cancelled",
			fmt.Sprintf("<h1>Booking Cancelled</h1><p>Your session on %s was cancelled: %s</p>",
				booking.BookingDate.Format("January 2, 2006"), req.CancellationReason))
	}

	return c.JSON(booking)
}
