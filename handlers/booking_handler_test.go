package handlers

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/njeri2090/studio_booking/middleware"
	"github.com/njeri2090/studio_booking/models"
)

func newBookingTestApp(db *gorm.DB) *fiber.App {
	app := fiber.New()
	h := NewBookingHandler(db, nil)

	app.Get("/bookings/availability", h.CheckAvailability)

	protected := app.Group("/bookings", middleware.Protected(testJWTSecret))
	protected.Post("", h.CreateBooking)
	protected.Get("/me", h.GetMyBookings)
	protected.Get("/:bookingId", h.GetBooking)
	protected.Post("/:bookingId/cancel", h.CancelBooking)

	admin := app.Group("/admin", middleware.Protected(testJWTSecret), middleware.AdminRequired())
	admin.Get("/bookings", h.GetAllBookings)
	admin.Patch("/bookings/:bookingId/status", h.UpdateBookingStatus)

	return app
}

func createBookingRequest(pkg models.Package, date string) CreateBookingRequest {
	return CreateBookingRequest{
		PackageID:    pkg.ID.String(),
		BookingDate:  date,
		BookingTime:  "10:00",
		ContactName:  "Jane Client",
		ContactEmail: "jane@example.com",
		ContactPhone: "+15550100",
	}
}

func TestCreateBookingFreezesPricingSnapshot(t *testing.T) {
	db := setupTestDB(t)
	app := newBookingTestApp(db)

	user := createTestUser(t, db, "jane@example.com", "client")
	pkg := createTestPackage(t, db, 100000, 30, 2)
	token := authToken(t, user.ID, "client")

	resp := doJSON(t, app, "POST", "/bookings", token, createBookingRequest(pkg, futureDate(14)))
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var booking models.Booking
	decodeJSON(t, resp, &booking)
	assert.Equal(t, int64(100000), booking.PackagePriceCents)
	assert.Equal(t, int64(30000), booking.DepositAmountCents)
	assert.Equal(t, int64(70000), booking.RemainingAmountCents)
	assert.Equal(t, models.BookingPending, booking.Status)
	assert.Equal(t, models.BookingPaymentPending, booking.PaymentStatus)

	// Editing the package afterwards must not touch the frozen snapshot.
	require.NoError(t, db.Model(&models.Package{}).Where("id = ?", pkg.ID).
		Update("price_cents", 999999).Error)

	var stored models.Booking
	require.NoError(t, db.First(&stored, "id = ?", booking.ID).Error)
	assert.Equal(t, int64(100000), stored.PackagePriceCents)
	assert.Equal(t, int64(30000), stored.DepositAmountCents)
}

func TestCreateBookingCapacity(t *testing.T) {
	db := setupTestDB(t)
	app := newBookingTestApp(db)

	alice := createTestUser(t, db, "alice@example.com", "client")
	bob := createTestUser(t, db, "bob@example.com", "client")
	pkg := createTestPackage(t, db, 50000, 50, 1)
	date := futureDate(10)

	resp := doJSON(t, app, "POST", "/bookings", authToken(t, alice.ID, "client"), createBookingRequest(pkg, date))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var first models.Booking
	decodeJSON(t, resp, &first)

	// The day is full, so the second booking is rejected.
	resp = doJSON(t, app, "POST", "/bookings", authToken(t, bob.ID, "client"), createBookingRequest(pkg, date))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	availabilityPath := fmt.Sprintf("/bookings/availability?package_id=%s&date=%s", pkg.ID, date)
	resp = doJSON(t, app, "GET", availabilityPath, "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var availability struct {
		Available bool  `json:"available"`
		Remaining int64 `json:"remaining"`
	}
	decodeJSON(t, resp, &availability)
	assert.False(t, availability.Available)
	assert.Equal(t, int64(0), availability.Remaining)

	// Cancelling frees the slot again.
	resp = doJSON(t, app, "POST", "/bookings/"+first.ID.String()+"/cancel", authToken(t, alice.ID, "client"), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, app, "POST", "/bookings", authToken(t, bob.ID, "client"), createBookingRequest(pkg, date))
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()
}

func TestCreateBookingRejectsPastDate(t *testing.T) {
	db := setupTestDB(t)
	app := newBookingTestApp(db)

	user := createTestUser(t, db, "jane@example.com", "client")
	pkg := createTestPackage(t, db, 50000, 50, 2)

	past := time.Now().AddDate(0, 0, -3).Format(bookingDateLayout)
	resp := doJSON(t, app, "POST", "/bookings", authToken(t, user.ID, "client"), createBookingRequest(pkg, past))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestCreateBookingRejectsInactivePackage(t *testing.T) {
	db := setupTestDB(t)
	app := newBookingTestApp(db)

	user := createTestUser(t, db, "jane@example.com", "client")
	pkg := createTestPackage(t, db, 50000, 50, 2)
	require.NoError(t, db.Model(&models.Package{}).Where("id = ?", pkg.ID).
		Update("is_active", false).Error)

	resp := doJSON(t, app, "POST", "/bookings", authToken(t, user.ID, "client"), createBookingRequest(pkg, futureDate(7)))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestCreateBookingUnknownPackage(t *testing.T) {
	db := setupTestDB(t)
	app := newBookingTestApp(db)

	user := createTestUser(t, db, "jane@example.com", "client")
	req := CreateBookingRequest{
		PackageID:    "3f2b8d44-9a0a-47a2-b6c6-0a30ad3f7b1f",
		BookingDate:  futureDate(7),
		BookingTime:  "10:00",
		ContactName:  "Jane Client",
		ContactEmail: "jane@example.com",
	}
	resp := doJSON(t, app, "POST", "/bookings", authToken(t, user.ID, "client"), req)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestCreateBookingRequiresAuth(t *testing.T) {
	db := setupTestDB(t)
	app := newBookingTestApp(db)
	pkg := createTestPackage(t, db, 50000, 50, 2)

	resp := doJSON(t, app, "POST", "/bookings", "", createBookingRequest(pkg, futureDate(7)))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestGetBookingOwnership(t *testing.T) {
	db := setupTestDB(t)
	app := newBookingTestApp(db)

	owner := createTestUser(t, db, "owner@example.com", "client")
	other := createTestUser(t, db, "other@example.com", "client")
	adminUser := createTestUser(t, db, "admin@example.com", "admin")
	pkg := createTestPackage(t, db, 50000, 50, 2)

	resp := doJSON(t, app, "POST", "/bookings", authToken(t, owner.ID, "client"), createBookingRequest(pkg, futureDate(7)))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var booking models.Booking
	decodeJSON(t, resp, &booking)
	path := "/bookings/" + booking.ID.String()

	resp = doJSON(t, app, "GET", path, authToken(t, owner.ID, "client"), nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, app, "GET", path, authToken(t, other.ID, "client"), nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, app, "GET", path, authToken(t, adminUser.ID, "admin"), nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
}

func TestCancelBookingRules(t *testing.T) {
	db := setupTestDB(t)
	app := newBookingTestApp(db)

	owner := createTestUser(t, db, "owner@example.com", "client")
	other := createTestUser(t, db, "other@example.com", "client")
	pkg := createTestPackage(t, db, 50000, 50, 3)

	resp := doJSON(t, app, "POST", "/bookings", authToken(t, owner.ID, "client"), createBookingRequest(pkg, futureDate(7)))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var booking models.Booking
	decodeJSON(t, resp, &booking)
	path := "/bookings/" + booking.ID.String() + "/cancel"

	resp = doJSON(t, app, "POST", path, authToken(t, other.ID, "client"), nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, app, "POST", path, authToken(t, owner.ID, "client"), CancelBookingRequest{Reason: "schedule conflict"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var cancelled models.Booking
	decodeJSON(t, resp, &cancelled)
	assert.Equal(t, models.BookingCancelled, cancelled.Status)
	require.NotNil(t, cancelled.CancellationReason)
	assert.Equal(t, "schedule conflict", *cancelled.CancellationReason)
	assert.NotNil(t, cancelled.CancelledAt)

	// A cancelled booking is terminal.
	resp = doJSON(t, app, "POST", path, authToken(t, owner.ID, "client"), nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestCancelBookingRejectsPastSession(t *testing.T) {
	db := setupTestDB(t)
	app := newBookingTestApp(db)

	owner := createTestUser(t, db, "owner@example.com", "client")
	pkg := createTestPackage(t, db, 50000, 50, 2)

	booking := models.Booking{
		UserID:               owner.ID,
		PackageID:            pkg.ID,
		BookingDate:          time.Now().AddDate(0, 0, -2),
		BookingTime:          "10:00",
		ContactName:          "Jane Client",
		ContactEmail:         "jane@example.com",
		PackagePriceCents:    50000,
		DepositAmountCents:   25000,
		RemainingAmountCents: 25000,
		Status:               models.BookingConfirmed,
		PaymentStatus:        models.BookingPaymentDepositPaid,
	}
	require.NoError(t, db.Create(&booking).Error)

	resp := doJSON(t, app, "POST", "/bookings/"+booking.ID.String()+"/cancel", authToken(t, owner.ID, "client"), nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestUpdateBookingStatus(t *testing.T) {
	db := setupTestDB(t)
	app := newBookingTestApp(db)

	owner := createTestUser(t, db, "owner@example.com", "client")
	adminUser := createTestUser(t, db, "admin@example.com", "admin")
	pkg := createTestPackage(t, db, 50000, 50, 2)
	adminTok := authToken(t, adminUser.ID, "admin")

	resp := doJSON(t, app, "POST", "/bookings", authToken(t, owner.ID, "client"), createBookingRequest(pkg, futureDate(7)))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var booking models.Booking
	decodeJSON(t, resp, &booking)
	path := "/admin/bookings/" + booking.ID.String() + "/status"

	// Clients cannot drive the admin state machine.
	resp = doJSON(t, app, "PATCH", path, authToken(t, owner.ID, "client"), UpdateBookingStatusRequest{Status: "confirmed"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, app, "PATCH", path, adminTok, UpdateBookingStatusRequest{Status: "confirmed"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var updated models.Booking
	decodeJSON(t, resp, &updated)
	assert.Equal(t, models.BookingConfirmed, updated.Status)
	assert.NotNil(t, updated.ConfirmedAt)

	resp = doJSON(t, app, "PATCH", path, adminTok, UpdateBookingStatusRequest{Status: "in_progress"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, app, "PATCH", path, adminTok, UpdateBookingStatusRequest{Status: "completed"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeJSON(t, resp, &updated)
	assert.Equal(t, models.BookingCompleted, updated.Status)
	assert.NotNil(t, updated.CompletedAt)

	// Completed is terminal; further moves conflict.
	resp = doJSON(t, app, "PATCH", path, adminTok, UpdateBookingStatusRequest{Status: "cancelled", CancellationReason: "no-show"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()
}

func TestUpdateBookingStatusCancellationRequiresReason(t *testing.T) {
	db := setupTestDB(t)
	app := newBookingTestApp(db)

	owner := createTestUser(t, db, "owner@example.com", "client")
	adminUser := createTestUser(t, db, "admin@example.com", "admin")
	pkg := createTestPackage(t, db, 50000, 50, 2)

	resp := doJSON(t, app, "POST", "/bookings", authToken(t, owner.ID, "client"), createBookingRequest(pkg, futureDate(7)))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var booking models.Booking
	decodeJSON(t, resp, &booking)
	path := "/admin/bookings/" + booking.ID.String() + "/status"

	resp = doJSON(t, app, "PATCH", path, authToken(t, adminUser.ID, "admin"), UpdateBookingStatusRequest{Status: "cancelled"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, app, "PATCH", path, authToken(t, adminUser.ID, "admin"),
		UpdateBookingStatusRequest{Status: "cancelled", CancellationReason: "client request"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var cancelled models.Booking
	decodeJSON(t, resp, &cancelled)
	assert.Equal(t, models.BookingCancelled, cancelled.Status)
}

func TestGetAllBookingsFilters(t *testing.T) {
	db := setupTestDB(t)
	app := newBookingTestApp(db)

	owner := createTestUser(t, db, "owner@example.com", "client")
	adminUser := createTestUser(t, db, "admin@example.com", "admin")
	pkg := createTestPackage(t, db, 50000, 50, 5)
	clientTok := authToken(t, owner.ID, "client")

	dateA := futureDate(5)
	dateB := futureDate(6)
	for _, date := range []string{dateA, dateA, dateB} {
		resp := doJSON(t, app, "POST", "/bookings", clientTok, createBookingRequest(pkg, date))
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		resp.Body.Close()
	}

	resp := doJSON(t, app, "GET", "/admin/bookings?date="+dateA, authToken(t, adminUser.ID, "admin"), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var bookings []models.Booking
	decodeJSON(t, resp, &bookings)
	assert.Len(t, bookings, 2)

	resp = doJSON(t, app, "GET", "/admin/bookings?status=cancelled", authToken(t, adminUser.ID, "admin"), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeJSON(t, resp, &bookings)
	assert.Empty(t, bookings)
}
