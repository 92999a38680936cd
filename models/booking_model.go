package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BookingStatus string

const (
	BookingPending    BookingStatus = "pending"
	BookingConfirmed  BookingStatus = "confirmed"
	BookingInProgress BookingStatus = "in_progress"
	BookingCompleted  BookingStatus = "completed"
	BookingCancelled  BookingStatus = "cancelled"
)

type BookingPaymentStatus string

const (
	BookingPaymentPending     BookingPaymentStatus = "pending"
	BookingPaymentDepositPaid BookingPaymentStatus = "deposit_paid"
	BookingPaymentFullyPaid   BookingPaymentStatus = "fully_paid"
	BookingPaymentRefunded    BookingPaymentStatus = "refunded"
)

// Booking carries a frozen pricing snapshot taken from the package at creation
// time. The booking row is the serialization point for all money mutation:
// TotalPaidCents only changes under a row lock held by the webhook reconciler
// or an admin refund.
type Booking struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	PackageID uuid.UUID `gorm:"type:uuid;not null;index:idx_bookings_package_date" json:"package_id"`

	BookingDate time.Time `gorm:"type:date;not null;index:idx_bookings_package_date" json:"booking_date"`
	BookingTime string    `gorm:"size:20;not null" json:"booking_time"`

	ContactName  string `gorm:"size:255;not null" json:"contact_name"`
	ContactEmail string `gorm:"size:255;not null" json:"contact_email"`
	ContactPhone string `gorm:"size:30" json:"contact_phone"`
	Notes        string `gorm:"type:text" json:"notes,omitempty"`

	PackagePriceCents    int64 `gorm:"not null" json:"package_price_cents"`
	DepositAmountCents   int64 `gorm:"not null" json:"deposit_amount_cents"`
	RemainingAmountCents int64 `gorm:"not null" json:"remaining_amount_cents"`
	TotalPaidCents       int64 `gorm:"not null;default:0" json:"total_paid_cents"`

	PaymentStatus BookingPaymentStatus `gorm:"size:20;not null;default:'pending'" json:"payment_status"`
	Status        BookingStatus        `gorm:"size:20;not null;default:'pending'" json:"status"`

	DepositIntentID   *string `gorm:"size:255" json:"deposit_intent_id,omitempty"`
	RemainingIntentID *string `gorm:"size:255" json:"remaining_intent_id,omitempty"`

	CancellationReason *string    `gorm:"type:text" json:"cancellation_reason,omitempty"`
	CancelledAt        *time.Time `json:"cancelled_at,omitempty"`
	ConfirmedAt        *time.Time `json:"confirmed_at,omitempty"`
	CompletedAt        *time.Time `json:"completed_at,omitempty"`

	PhotosDelivered bool `gorm:"not null;default:false" json:"photos_delivered"`

	User    User    `gorm:"foreignkey:UserID" json:"-"`
	Package Package `gorm:"foreignkey:PackageID" json:"package,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (b *Booking) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}
