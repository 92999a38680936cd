package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PaymentType string

const (
	PaymentTypeDeposit   PaymentType = "deposit"
	PaymentTypeRemaining PaymentType = "remaining"
	PaymentTypeFull      PaymentType = "full"
	PaymentTypeRefund    PaymentType = "refund"
)

type PaymentStatus string

const (
	PaymentPending    PaymentStatus = "pending"
	PaymentProcessing PaymentStatus = "processing"
	PaymentSucceeded  PaymentStatus = "succeeded"
	PaymentFailed     PaymentStatus = "failed"
	PaymentCancelled  PaymentStatus = "cancelled"
	PaymentRefunded   PaymentStatus = "refunded"
)

// Payment is one attempted charge against a booking. Rows only move forward:
// a succeeded, failed, cancelled or refunded row is never re-opened.
type Payment struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	BookingID uuid.UUID `gorm:"type:uuid;not null;index" json:"booking_id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null" json:"user_id"`

	AmountCents int64         `gorm:"not null" json:"amount_cents"`
	Currency    string        `gorm:"size:3;not null" json:"currency"`
	PaymentType PaymentType   `gorm:"size:20;not null" json:"payment_type"`
	Status      PaymentStatus `gorm:"size:20;not null;default:'pending'" json:"status"`

	IntentID *string `gorm:"size:255;unique" json:"intent_id,omitempty"`
	ChargeID *string `gorm:"size:255" json:"charge_id,omitempty"`

	RefundedAmountCents int64      `gorm:"not null;default:0" json:"refunded_amount_cents"`
	RefundedAt          *time.Time `json:"refunded_at,omitempty"`
	FailureReason       *string    `gorm:"type:text" json:"failure_reason,omitempty"`

	Booking Booking `gorm:"foreignkey:BookingID;constraint:OnDelete:CASCADE" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (p *Payment) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// IsTerminal reports whether the payment can no longer change state through
// the reconciler.
func (p Payment) IsTerminal() bool {
	switch p.Status {
	case PaymentSucceeded, PaymentFailed, PaymentCancelled, PaymentRefunded:
		return true
	}
	return false
}
