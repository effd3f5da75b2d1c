package models

import "errors"

// Store error taxonomy. All of these are recoverable at the call boundary
// and map to 4xx responses in the API layer.
var (
	ErrNotFound          = errors.New("referenced row not found")
	ErrDuplicateEmail    = errors.New("email already registered")
	ErrInvalidTransition = errors.New("illegal status transition")
	ErrRetryExhausted    = errors.New("task retry attempts exhausted")
	ErrInsufficientQuota = errors.New("monthly usage limit reached")
	ErrValidation        = errors.New("validation failed")
)

// ErrorCode returns a stable machine-readable code for a store error.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return "NOT_FOUND"
	case errors.Is(err, ErrDuplicateEmail):
		return "DUPLICATE_EMAIL"
	case errors.Is(err, ErrInvalidTransition):
		return "INVALID_TRANSITION"
	case errors.Is(err, ErrRetryExhausted):
		return "RETRY_EXHAUSTED"
	case errors.Is(err, ErrInsufficientQuota):
		return "INSUFFICIENT_CREDITS"
	case errors.Is(err, ErrValidation):
		return "VALIDATION_ERROR"
	default:
		return "INTERNAL_ERROR"
	}
}
