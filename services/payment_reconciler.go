package services

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/njeri2090/studio_booking/database"
	"github.com/njeri2090/studio_booking/models"
	"github.com/njeri2090/studio_booking/notifications"
	"github.com/njeri2090/studio_booking/utils"
	"github.com/njeri2090/studio_booking/websocket"
)

// PaymentReconciler applies processor outcomes to local Payment/Booking state.
// Both the webhook endpoint and the pending-intent sweep funnel through it, so
// every money mutation happens here, inside one transaction per event, under
// row locks on the Payment and then the Booking.
//
// Events are at-least-once: every transition is guarded on the payment's
// current status, which makes redelivery a no-op.
type PaymentReconciler struct {
	DB       *gorm.DB
	Hub      *websocket.Hub
	Receipts *ReceiptService
}

func NewPaymentReconciler(db *gorm.DB, hub *websocket.Hub, receipts *ReceiptService) *PaymentReconciler {
	return &PaymentReconciler{DB: db, Hub: hub, Receipts: receipts}
}

// ApplyIntentSucceeded settles a successful charge. Unknown intent ids and
// already-settled payments are logged and skipped, never treated as fatal.
func (r *PaymentReconciler) ApplyIntentSucceeded(intentID, chargeID string) error {
	var booking models.Booking
	var payment models.Payment
	applied := false
	confirmed := false

	err := r.DB.Transaction(func(tx *gorm.DB) error {
		if err := database.WithRowLock(tx).Where("intent_id = ?", intentID).First(&payment).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				utils.InfoLogger.Infof("ignoring success event for unknown intent %s", intentID)
				return nil
			}
			return err
		}

		if payment.Status != models.PaymentPending && payment.Status != models.PaymentProcessing {
			utils.InfoLogger.Infof("skipping success event for intent %s already in status %s", intentID, payment.Status)
			return nil
		}

		payment.Status = models.PaymentSucceeded
		if chargeID != "" {
			payment.ChargeID = &chargeID
		}
		if err := tx.Save(&payment).Error; err != nil {
			return err
		}

		if err := database.WithRowLock(tx).Preload("Package").First(&booking, "id = ?", payment.BookingID).Error; err != nil {
			return err
		}

		switch payment.PaymentType {
		case models.PaymentTypeDeposit:
			if booking.PaymentStatus != models.BookingPaymentPending {
				utils.ErrorLogger.Errorf("deposit intent %s succeeded but booking %s is already %s, not applying",
					intentID, booking.ID, booking.PaymentStatus)
				return nil
			}
			booking.TotalPaidCents += payment.AmountCents
			booking.PaymentStatus = models.BookingPaymentDepositPaid
			if booking.Status == models.BookingPending && CanTransition(booking.Status, models.BookingConfirmed) {
				now := time.Now()
				booking.Status = models.BookingConfirmed
				booking.ConfirmedAt = &now
				confirmed = true
			}
		case models.PaymentTypeRemaining:
			if booking.PaymentStatus != models.BookingPaymentDepositPaid {
				utils.ErrorLogger.Errorf("remaining intent %s succeeded but booking %s is %s, not applying",
					intentID, booking.ID, booking.PaymentStatus)
				return nil
			}
			booking.TotalPaidCents += payment.AmountCents
			booking.PaymentStatus = models.BookingPaymentFullyPaid
		case models.PaymentTypeFull:
			if booking.PaymentStatus != models.BookingPaymentPending {
				utils.ErrorLogger.Errorf("full intent %s succeeded but booking %s is %s, not applying",
					intentID, booking.ID, booking.PaymentStatus)
				return nil
			}
			booking.TotalPaidCents += payment.AmountCents
			booking.PaymentStatus = models.BookingPaymentFullyPaid
			if booking.Status == models.BookingPending && CanTransition(booking.Status, models.BookingConfirmed) {
				now := time.Now()
				booking.Status = models.BookingConfirmed
				booking.ConfirmedAt = &now
				confirmed = true
			}
		default:
			return fmt.Errorf("unexpected payment type %s for intent %s", payment.PaymentType, intentID)
		}

		if err := tx.Save(&booking).Error; err != nil {
			return err
		}
		applied = true
		return nil
	})
	if err != nil {
		return err
	}
	if !applied {
		return nil
	}

	utils.InfoLogger.Infof("payment %s (%s) settled for booking %s, total paid now %d",
		payment.ID, payment.PaymentType, booking.ID, booking.TotalPaidCents)

	r.Hub.Broadcast(websocket.EventPaymentSucceeded, payment)
	if confirmed {
		r.Hub.Broadcast(websocket.EventBookingStatus, booking)
		go notifications.SendEmail(booking.ContactName, booking.ContactEmail,
			"Your Booking is Confirmed!",
			fmt.Sprintf("<h1>Booking Confirmed</h1><p>Your deposit was received and your session on %s at %s is confirmed.</p>",
				booking.BookingDate.Format("January 2, 2006"), booking.BookingTime))
	}
	if booking.PaymentStatus == models.BookingPaymentFullyPaid {
		go notifications.SendEmail(booking.ContactName, booking.ContactEmail,
			"Payment Complete",
			fmt.Sprintf("<h1>All Paid!</h1><p>Your session on %s is now fully paid. We look forward to seeing you.</p>",
				booking.BookingDate.Format("January 2, 2006")))
		if r.Receipts != nil {
			go r.Receipts.GenerateAndSend(booking)
		}
	}
	return nil
}

// ApplyIntentFailed records a failed charge attempt. The booking itself is
// untouched so the client can retry with a fresh intent.
func (r *PaymentReconciler) ApplyIntentFailed(intentID, reason string) error {
	var payment models.Payment
	applied := false

	err := r.DB.Transaction(func(tx *gorm.DB) error {
		if err := database.WithRowLock(tx).Where("intent_id = ?", intentID).First(&payment).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				utils.InfoLogger.Infof("ignoring failure event for unknown intent %s", intentID)
				return nil
			}
			return err
		}

		if payment.Status != models.PaymentPending && payment.Status != models.PaymentProcessing {
			return nil
		}

		payment.Status = models.PaymentFailed
		if reason != "" {
			payment.FailureReason = &reason
		}
		if err := tx.Save(&payment).Error; err != nil {
			return err
		}
		applied = true
		return nil
	})
	if err != nil || !applied {
		return err
	}

	utils.InfoLogger.Infof("payment %s failed: %s", payment.ID, reason)
	r.Hub.Broadcast(websocket.EventPaymentFailed, payment)
	return nil
}

// ApplyChargeRefunded backs refunded money out of the booking totals. The
// payment row is looked up by charge id first, falling back to the intent id
// the charge belongs to.
func (r *PaymentReconciler) ApplyChargeRefunded(chargeID, intentID string, amountRefundedCents int64) error {
	var booking models.Booking
	var payment models.Payment
	applied := false

	err := r.DB.Transaction(func(tx *gorm.DB) error {
		err := database.WithRowLock(tx).Where("charge_id = ?", chargeID).First(&payment).Error
		if errors.Is(err, gorm.ErrRecordNotFound) && intentID != "" {
			err = database.WithRowLock(tx).Where("intent_id = ?", intentID).First(&payment).Error
		}
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				utils.InfoLogger.Infof("ignoring refund event for unknown charge %s", chargeID)
				return nil
			}
			return err
		}

		if payment.Status != models.PaymentSucceeded {
			utils.InfoLogger.Infof("skipping refund event for payment %s in status %s", payment.ID, payment.Status)
			return nil
		}

		if amountRefundedCents <= 0 || amountRefundedCents > payment.AmountCents {
			amountRefundedCents = payment.AmountCents
		}

		now := time.Now()
		payment.Status = models.PaymentRefunded
		payment.RefundedAmountCents = amountRefundedCents
		payment.RefundedAt = &now
		if err := tx.Save(&payment).Error; err != nil {
			return err
		}

		if err := database.WithRowLock(tx).First(&booking, "id = ?", payment.BookingID).Error; err != nil {
			return err
		}
		booking.TotalPaidCents -= amountRefundedCents
		if booking.TotalPaidCents < 0 {
			booking.TotalPaidCents = 0
		}
		booking.PaymentStatus = models.BookingPaymentRefunded
		if err := tx.Save(&booking).Error; err != nil {
			return err
		}
		applied = true
		return nil
	})
	if err != nil || !applied {
		return err
	}

	utils.InfoLogger.Infof("payment %s refunded %d for booking %s", payment.ID, amountRefundedCents, booking.ID)
	go notifications.SendEmail(booking.ContactName, booking.ContactEmail,
		"Your Refund Has Been Processed",
		fmt.Sprintf("<h1>Refund Processed</h1><p>A refund of %s has been issued for your booking.</p>",
			utils.FormatCents(amountRefundedCents)))
	return nil
}
