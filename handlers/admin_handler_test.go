package handlers

import (
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

func newAdminTestApp(db *gorm.DB) *fiber.App {
	app := fiber.New()
	h := NewAdminHandler(db)

	admin := app.Group("/admin", middleware.Protected(testJWTSecret), middleware.AdminRequired())
	admin.Get("/stats", h.GetDashboardStats)
	admin.Get("/payments", h.GetAllPayments)

	return app
}

func TestGetDashboardStats(t *testing.T) {
	db := setupTestDB(t)
	app := newAdminTestApp(db)

	user := createTestUser(t, db, "jane@example.com", "client")
	adminUser := createTestUser(t, db, "admin@example.com", "admin")
	pkg := createTestPackage(t, db, 100000, 30, 5)

	seed := func(status models.BookingStatus, daysAhead int, paid int64) models.Booking {
		booking := models.Booking{
			UserID:               user.ID,
			PackageID:            pkg.ID,
			BookingDate:          time.Now().AddDate(0, 0, daysAhead),
			BookingTime:          "10:00",
			ContactName:          user.FullName,
			ContactEmail:         user.Email,
			PackagePriceCents:    100000,
			DepositAmountCents:   30000,
			RemainingAmountCents: 70000,
			TotalPaidCents:       paid,
			Status:               status,
			PaymentStatus:        models.BookingPaymentPending,
		}
		require.NoError(t, db.Create(&booking).Error)
		return booking
	}

	seed(models.BookingConfirmed, 3, 30000)
	seed(models.BookingConfirmed, 5, 100000)
	seed(models.BookingCancelled, 4, 0)
	completed := seed(models.BookingCompleted, -10, 100000)

	require.NoError(t, db.Create(&models.Delivery{
		BookingID: completed.ID,
		AlbumName: "Old Album",
		IsPublic:  true,
	}).Error)

	resp := doJSON(t, app, "GET", "/admin/stats", authToken(t, adminUser.ID, "admin"), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var stats struct {
		TotalRevenueCents int64 `json:"total_revenue_cents"`
		BookingsByStatus  []struct {
			Status string `json:"status"`
			Count  int64  `json:"count"`
		} `json:"bookings_by_status"`
		UpcomingBookings int64 `json:"upcoming_bookings"`
		Deliveries       int64 `json:"deliveries"`
	}
	decodeJSON(t, resp, &stats)

	assert.Equal(t, int64(230000), stats.TotalRevenueCents)
	assert.Equal(t, int64(2), stats.UpcomingBookings)
	assert.Equal(t, int64(1), stats.Deliveries)

	counts := make(map[string]int64)
	for _, row := range stats.BookingsByStatus {
		counts[row.Status] = row.Count
	}
	assert.Equal(t, int64(2), counts["confirmed"])
	assert.Equal(t, int64(1), counts["cancelled"])
	assert.Equal(t, int64(1), counts["completed"])
}

func TestGetAllPaymentsStatusFilter(t *testing.T) {
	db := setupTestDB(t)
	app := newAdminTestApp(db)

	user := createTestUser(t, db, "jane@example.com", "client")
	adminUser := createTestUser(t, db, "admin@example.com", "admin")
	pkg := createTestPackage(t, db, 100000, 30, 5)

	booking := models.Booking{
		UserID:               user.ID,
		PackageID:            pkg.ID,
		BookingDate:          time.Now().AddDate(0, 0, 3),
		BookingTime:          "10:00",
		ContactName:          user.FullName,
		ContactEmail:         user.Email,
		PackagePriceCents:    100000,
		DepositAmountCents:   30000,
		RemainingAmountCents: 70000,
		Status:               models.BookingConfirmed,
		PaymentStatus:        models.BookingPaymentDepositPaid,
	}
	require.NoError(t, db.Create(&booking).Error)

	succeededIntent := "pi_ok"
	failedIntent := "pi_bad"
	require.NoError(t, db.Create(&models.Payment{
		BookingID: booking.ID, UserID: user.ID, AmountCents: 30000, Currency: "usd",
		PaymentType: models.PaymentTypeDeposit, Status: models.PaymentSucceeded, IntentID: &succeededIntent,
	}).Error)
	require.NoError(t, db.Create(&models.Payment{
		BookingID: booking.ID, UserID: user.ID, AmountCents: 70000, Currency: "usd",
		PaymentType: models.PaymentTypeRemaining, Status: models.PaymentFailed, IntentID: &failedIntent,
	}).Error)

	resp := doJSON(t, app, "GET", "/admin/payments", authToken(t, adminUser.ID, "admin"), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var all []models.Payment
	decodeJSON(t, resp, &all)
	assert.Len(t, all, 2)

	resp = doJSON(t, app, "GET", "/admin/payments?status=succeeded", authToken(t, adminUser.ID, "admin"), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeJSON(t, resp, &all)
	require.Len(t, all, 1)
	assert.Equal(t, models.PaymentSucceeded, all[0].Status)
}
