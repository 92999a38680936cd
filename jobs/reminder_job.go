package jobs

import (
	"fmt"
	"time"

	"github.com/njeri2090/studio_booking/models"
	"github.com/njeri2090/studio_booking/notifications"
	"github.com/njeri2090/studio_booking/utils"
)

// SendSessionReminders emails clients whose confirmed session is tomorrow.
func (j *Jobs) SendSessionReminders() {
	now := time.Now()
	tomorrow := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)

	var upcoming []models.Booking
	if err := j.DB.
		Where("booking_date = ? AND status = ?", tomorrow, models.BookingConfirmed).
		Find(&upcoming).Error; err != nil {
		utils.ErrorLogger.Errorf("reminder query failed: %v", err)
		return
	}
	if len(upcoming) == 0 {
		return
	}

	for _, booking := range upcoming {
		utils.InfoLogger.Infof("sending session reminder for booking %s", booking.ID)

		body := fmt.Sprintf(
			"<h1>Session Reminder</h1><p>Hi %s,</p><p>This is a friendly reminder that your photography session is tomorrow, %s at %s.</p>",
			booking.ContactName,
			booking.BookingDate.Format("January 2, 2006"),
			booking.BookingTime,
		)
		go notifications.SendEmail(booking.ContactName, booking.ContactEmail,
			"Reminder: Your Session Is Tomorrow!", body)
	}
}
