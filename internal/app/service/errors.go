package service

import (
	"errors"
	"strings"
)

var (
	ErrOrderNotFound     = errors.New("order not found")
	ErrTemplateNotFound  = errors.New("measurement template not found")
	ErrAccountExists     = errors.New("an account with this email already exists")
	ErrPriceLocked       = errors.New("price is final once paid")
	ErrOrderReplaced     = errors.New("order has been replaced")
	ErrOrderUnpriced     = errors.New("order has no price yet")
	ErrInvalidStatus     = errors.New("invalid order status")
	ErrInvalidTransition = errors.New("order status can only move forward")

	ErrUserNotFound            = errors.New("user not found")
	ErrInvalidCredentials      = errors.New("invalid email or password")
	ErrInvalidWebhookSignature = errors.New("webhook signature verification failed")
)

// ValidationError carries every intake violation found, not just the first,
// so the storefront can surface all of them in one round trip.
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Violations, "; ")
}

// AsValidationError unwraps err into a *ValidationError if it is one.
func AsValidationError(err error) (*ValidationError, bool) {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr, true
	}
	return nil, false
}

// IncompleteProfileError is returned on the account intake path when the
// stored profile is missing fields required for a measurement order.
type IncompleteProfileError struct {
	Missing []string
}

func (e *IncompleteProfileError) Error() string {
	return "profile is incomplete: " + strings.Join(e.Missing, ", ")
}
