package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/njeri2090/studio_booking/models"
)

type AdminHandler struct {
	DB *gorm.DB
}

func NewAdminHandler(db *gorm.DB) *AdminHandler {
	return &AdminHandler{DB: db}
}

// GetDashboardStats is a read-only projection over bookings and payments for
// the admin dashboard.
func (h *AdminHandler) GetDashboardStats(c *fiber.Ctx) error {
	var totalRevenueCents int64
	h.DB.Model(&models.Booking{}).
		Select("coalesce(sum(total_paid_cents), 0)").
		Scan(&totalRevenueCents)

	type statusCount struct {
		Status string `json:"status"`
		Count  int64  `json:"count"`
	}
	var byStatus []statusCount
	h.DB.Model(&models.Booking{}).
		Select("status, count(*) as count").
		Group("status").
		Scan(&byStatus)

	var upcoming int64
	today := time.Now().Format("2006-01-02")
	h.DB.Model(&models.Booking{}).
		Where("booking_date >= ? AND status IN ?", today,
			[]models.BookingStatus{models.BookingConfirmed, models.BookingInProgress}).
		Count(&upcoming)

	var deliveries int64
	h.DB.Model(&models.Delivery{}).Count(&deliveries)

	return c.JSON(fiber.Map{
		"total_revenue_cents": totalRevenueCents,
		"bookings_by_status":  byStatus,
		"upcoming_bookings":   upcoming,
		"deliveries":          deliveries,
	})
}

func (h *AdminHandler) GetAllPayments(c *fiber.Ctx) error {
	query := h.DB.Order("created_at desc")
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var allPayments []models.Payment
	if err := query.Find(&allPayments).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to list payments"})
	}
	return c.JSON(allPayments)
}
