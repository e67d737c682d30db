package errs

import "errors"

// Domain-specific sentinel errors shared across usecase layers
var (
	// Resource errors
	ErrResourceNotFound = errors.New("resource not found")

	// Booking errors
	ErrBookingNotFound = errors.New("booking not found")
	ErrBookingConflict = errors.New("booking conflict")
	ErrForbidden       = errors.New("forbidden")
	ErrInvalidWindow   = errors.New("invalid time window")

	// Lifecycle errors
	ErrStaleState        = errors.New("stale booking state")
	ErrInvalidTransition = errors.New("invalid lifecycle transition")

	// Payment errors
	ErrGateway             = errors.New("payment gateway failure")
	ErrUnknownCorrelation  = errors.New("unknown payment correlation key")
	ErrMalformedEvent      = errors.New("malformed payment event")
	ErrRefundExceedsCharge = errors.New("refund exceeds charged amount")
	ErrCorrelationKeyInUse = errors.New("correlation key already bound")
	ErrCancellationReason  = errors.New("cancellation reason required")

	// Idempotency errors
	ErrIdempotencyKeyRequired = errors.New("idempotency key required")
	ErrIdempotencyInProgress  = errors.New("idempotency in progress")
	ErrDuplicateBookingIntent = errors.New("duplicate booking request")

	// Validation errors
	ErrDomainValidation = errors.New("domain validation error")

	// Operation errors
	ErrDatabaseOperationFailed = errors.New("database operation failed")
)
