package services

import (
	"time"

	"github.com/njeri2090/studio_booking/models"
)

// bookingTransitions lists the legal moves of the booking lifecycle:
// pending -> confirmed -> in_progress -> completed, with cancellation allowed
// from any non-terminal state and completion allowed early by admin action.
var bookingTransitions = map[models.BookingStatus][]models.BookingStatus{
	models.BookingPending:    {models.BookingConfirmed, models.BookingCompleted, models.BookingCancelled},
	models.BookingConfirmed:  {models.BookingInProgress, models.BookingCompleted, models.BookingCancelled},
	models.BookingInProgress: {models.BookingCompleted, models.BookingCancelled},
}

func CanTransition(from, to models.BookingStatus) bool {
	for _, next := range bookingTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func IsTerminalBookingStatus(s models.BookingStatus) bool {
	return s == models.BookingCompleted || s == models.BookingCancelled
}

// CanBeCancelled reports whether the booking may still be cancelled: it must
// not be in a terminal state and its date must not be in the past. Dates are
// compared at day granularity since booking dates are time-zone-naive.
func CanBeCancelled(b models.Booking, now time.Time) bool {
	if IsTerminalBookingStatus(b.Status) {
		return false
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	day := time.Date(b.BookingDate.Year(), b.BookingDate.Month(), b.BookingDate.Day(), 0, 0, 0, 0, time.UTC)
	return !day.Before(today)
}
