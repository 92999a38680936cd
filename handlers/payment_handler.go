package handlers

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/njeri2090/studio_booking/middleware"
	"github.com/njeri2090/studio_booking/models"
	"github.com/njeri2090/studio_booking/payments"
	"github.com/njeri2090/studio_booking/services"
	"github.com/njeri2090/studio_booking/utils"
)

type PaymentHandler struct {
	DB         *gorm.DB
	Processor  *payments.Client
	Reconciler *services.PaymentReconciler
	Currency   string
}

func NewPaymentHandler(db *gorm.DB, processor *payments.Client, reconciler *services.PaymentReconciler, currency string) *PaymentHandler {
	return &PaymentHandler{DB: db, Processor: processor, Reconciler: reconciler, Currency: currency}
}

type IntentResponse struct {
	ClientSecret    string `json:"client_secret"`
	PaymentIntentID string `json:"payment_intent_id"`
	AmountCents     int64  `json:"amount_cents"`
}

func (h *PaymentHandler) CreateDepositIntent(c *fiber.Ctx) error {
	return h.createIntent(c, models.PaymentTypeDeposit)
}

func (h *PaymentHandler) CreateRemainingIntent(c *fiber.Ctx) error {
	return h.createIntent(c, models.PaymentTypeRemaining)
}

// createIntent asks the processor for a fresh payment intent and records it
// locally before the client secret goes out, so a webhook can never arrive
// for an intent this system does not know. A still-pending earlier intent of
// the same type is cancelled and replaced rather than accumulated.
func (h *PaymentHandler) createIntent(c *fiber.Ctx, paymentType models.PaymentType) error {
	bookingID, err := uuid.Parse(c.Params("bookingId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid booking ID"})
	}

	var booking models.Booking
	if err := h.DB.First(&booking, "id = ?", bookingID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Booking not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error"})
	}
	if booking.UserID != middleware.UserID(c) && middleware.Role(c) != "admin" {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "This is not your booking"})
	}

	var amount int64
	switch paymentType {
	case models.PaymentTypeDeposit:
		if booking.PaymentStatus != models.BookingPaymentPending || booking.Status == models.BookingCancelled {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": services.ErrInvalidPaymentState.Error()})
		}
		amount = booking.DepositAmountCents
	case models.PaymentTypeRemaining:
		if booking.PaymentStatus != models.BookingPaymentDepositPaid || booking.Status == models.BookingCancelled {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": services.ErrInvalidPaymentState.Error()})
		}
		amount = booking.RemainingAmountCents
	}

	// Supersede a still-pending intent of the same type instead of piling up
	// duplicate payment rows.
	var stale []models.Payment
	if err := h.DB.Where("booking_id = ? AND payment_type = ? AND status = ?",
		booking.ID, paymentType, models.PaymentPending).Find(&stale).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error"})
	}
	for _, old := range stale {
		if old.IntentID != nil {
			if _, err := h.Processor.CancelIntent(*old.IntentID); err != nil {
				utils.ErrorLogger.Errorf("failed to cancel superseded intent %s: %v", *old.IntentID, err)
			}
		}
		if err := h.DB.Model(&models.Payment{}).
			Where("id = ? AND status = ?", old.ID, models.PaymentPending).
			Update("status", models.PaymentCancelled).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error"})
		}
	}

	intent, err := h.Processor.CreateIntent(amount, h.Currency,
		fmt.Sprintf("%s payment for booking %s", paymentType, booking.ID),
		map[string]string{
			"booking_id":   booking.ID.String(),
			"payment_type": string(paymentType),
		})
	if err != nil {
		utils.ErrorLogger.Errorf("processor intent creation failed for booking %s: %v", booking.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Payment could not be initiated, please try again."})
	}

	err = h.DB.Transaction(func(tx *gorm.DB) error {
		payment := models.Payment{
			BookingID:   booking.ID,
			UserID:      booking.UserID,
			AmountCents: amount,
			Currency:    h.Currency,
			PaymentType: paymentType,
			Status:      models.PaymentPending,
			IntentID:    &intent.ID,
		}
		if err := tx.Create(&payment).Error; err != nil {
			return err
		}

		switch paymentType {
		case models.PaymentTypeDeposit:
			booking.DepositIntentID = &intent.ID
		case models.PaymentTypeRemaining:
			booking.RemainingIntentID = &intent.ID
		}
		return tx.Save(&booking).Error
	})
	if err != nil {
		utils.ErrorLogger.Errorf("failed to persist payment record for intent %s: %v", intent.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to record payment"})
	}

	return c.Status(fiber.StatusCreated).JSON(IntentResponse{
		ClientSecret:    intent.ClientSecret,
		PaymentIntentID: intent.ID,
		AmountCents:     amount,
	})
}

// HandleWebhook is the processor's entry point. The raw body is verified
// against the signature header before anything is parsed; after that, every
// recognized event settles through the reconciler and the endpoint always
// acknowledges so the processor stops retrying events we ignore on purpose.
func (h *PaymentHandler) HandleWebhook(c *fiber.Ctx) error {
	body := c.Body()

	if err := payments.VerifySignature(body, c.Get("Stripe-Signature"), h.Processor.WebhookSecret()); err != nil {
		utils.ErrorLogger.Errorf("webhook signature verification failed: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid webhook signature"})
	}

	var event payments.Event
	if err := json.Unmarshal(body, &event); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse webhook payload"})
	}

	switch event.Type {
	case payments.EventPaymentIntentSucceeded:
		var obj payments.IntentEventObject
		if err := json.Unmarshal(event.Data.Object, &obj); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse event object"})
		}
		if err := h.Reconciler.ApplyIntentSucceeded(obj.ID, obj.LatestCharge); err != nil {
			utils.ErrorLogger.Errorf("failed to apply success event %s: %v", event.ID, err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process webhook"})
		}
	case payments.EventPaymentIntentFailed:
		var obj payments.IntentEventObject
		if err := json.Unmarshal(event.Data.Object, &obj); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse event object"})
		}
		reason := "payment failed"
		if obj.LastPaymentError != nil && obj.LastPaymentError.Message != "" {
			reason = obj.LastPaymentError.Message
		}
		if err := h.Reconciler.ApplyIntentFailed(obj.ID, reason); err != nil {
			utils.ErrorLogger.Errorf("failed to apply failure event %s: %v", event.ID, err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process webhook"})
		}
	case payments.EventChargeRefunded:
		var obj payments.ChargeEventObject
		if err := json.Unmarshal(event.Data.Object, &obj); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse event object"})
		}
		if err := h.Reconciler.ApplyChargeRefunded(obj.ID, obj.PaymentIntent, obj.AmountRefunded); err != nil {
			utils.ErrorLogger.Errorf("failed to apply refund event %s: %v", event.ID, err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process webhook"})
		}
	default:
		utils.InfoLogger.Infof("ignoring webhook event %s of type %s", event.ID, event.Type)
	}

	return c.JSON(fiber.Map{"received": true})
}

// RefundPayment lets an admin initiate a refund at the processor. The local
// state change lands when the charge.refunded webhook comes back, keeping the
// reconciler the single writer of terminal payment state.
func (h *PaymentHandler) RefundPayment(c *fiber.Ctx) error {
	paymentID, err := uuid.Parse(c.Params("paymentId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid payment ID"})
	}

	var payment models.Payment
	if err := h.DB.First(&payment, "id = ?", paymentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Payment not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error"})
	}

	if payment.Status != models.PaymentSucceeded || payment.ChargeID == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Only a succeeded payment can be refunded"})
	}

	refund, err := h.Processor.CreateRefund(*payment.ChargeID, payment.AmountCents)
	if err != nil {
		utils.ErrorLogger.Errorf("refund creation failed for payment %s: %v", payment.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Refund could not be initiated"})
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"message":   "Refund initiated, state will settle when the processor confirms",
		"refund_id": refund.ID,
	})
}

func (h *PaymentHandler) GetBookingPayments(c *fiber.Ctx) error {
	bookingID, err := uuid.Parse(c.Params("bookingId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid booking ID"})
	}

	var booking models.Booking
	if err := h.DB.First(&booking, "id = ?", bookingID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Booking not found"})
	}
	if booking.UserID != middleware.UserID(c) && middleware.Role(c) != "admin" {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "This is not your booking"})
	}

	var bookingPayments []models.Payment
	if err := h.DB.Where("booking_id = ?", bookingID).Order("created_at asc").Find(&bookingPayments).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to list payments"})
	}
	return c.JSON(bookingPayments)
}
