package service

import "errors"

var (
	// ErrInvalidRequest is returned when request data is invalid or incomplete
	ErrInvalidRequest = errors.New("invalid request")

	// ErrPromoCodeExists is returned when creating a code that already exists (case-insensitive)
	ErrPromoCodeExists = errors.New("promo code already exists")

	// ErrPromoCodeNotFound is returned when a promo code id does not exist
	ErrPromoCodeNotFound = errors.New("promo code not found")

	// ErrAnalyticsNotFound is returned when an analytics record cannot be found
	ErrAnalyticsNotFound = errors.New("promo analytics record not found")

	// ErrAnalyticsNotPending is returned when a record has already reached a terminal status
	ErrAnalyticsNotPending = errors.New("promo analytics record is not pending")

	// ErrPaymentAlreadyReconciled is returned when a payment's usage has already been counted
	ErrPaymentAlreadyReconciled = errors.New("payment already reconciled")

	// ErrInvalidStatus is returned for conversion status updates other than completed/abandoned
	ErrInvalidStatus = errors.New("invalid conversion status")

	// ErrUpdateFailed is returned when the usage count could not be incremented
	ErrUpdateFailed = errors.New("failed to update promo code usage")

	// ErrExternalService is returned when a vendor, payment or email API call fails
	ErrExternalService = errors.New("external service error")

	// ErrRateLimited is returned when a caller exceeded its request budget
	ErrRateLimited = errors.New("too many requests")
)

// Promo validation failure kinds. They are wrapped by *PromoError.
var (
	ErrInvalidCode   = errors.New("invalid promo code")
	ErrInactive      = errors.New("promo code is inactive")
	ErrExpired       = errors.New("promo code has expired")
	ErrLimitReached  = errors.New("promo code usage limit reached")
	ErrMinimumNotMet = errors.New("minimum purchase not met")
	ErrNotEligible   = errors.New("promo code not eligible")
)

// PromoError is a user-facing promo validation failure.
// errors.Is matches it against its Kind.
type PromoError struct {
	Kind    error
	Message string
}

func (e *PromoError) Error() string { return e.Message }

func (e *PromoError) Unwrap() error { return e.Kind }

func promoError(kind error, msg string) *PromoError {
	return &PromoError{Kind: kind, Message: msg}
}
