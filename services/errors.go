package services

import "errors"

// Business-rule errors surfaced verbatim to the caller. Handlers map them to
// HTTP status codes; anything else is treated as an internal failure.
var (
	ErrPackageNotFound       = errors.New("package not found")
	ErrPackageUnavailable    = errors.New("package is not available for booking")
	ErrCapacityExceeded      = errors.New("package capacity exceeded for this date")
	ErrBookingNotCancellable = errors.New("booking can no longer be cancelled")
	ErrInvalidPaymentState   = errors.New("booking is not in a valid state for this payment")
	ErrInvalidTransition     = errors.New("invalid booking status transition")
	ErrDeliveryAlreadyExists = errors.New("a delivery already exists for this booking")
	ErrEmptyDelivery         = errors.New("a delivery requires at least one photo")
	ErrDeliveryExpired       = errors.New("this delivery has expired")
	ErrDownloadsDisabled     = errors.New("downloads are disabled for this delivery")
)
