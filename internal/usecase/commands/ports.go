package commands

import (
	"context"
	"fmt"
	"time"

	"booking-core/internal/domain/booking"
	"booking-core/internal/domain/payment"
	"booking-core/internal/domain/resource"
	"booking-core/internal/pkg/errs"

	"github.com/google/uuid"
)

// Write-side snapshots prevent dependency on Read-side query types (CQRS separation)
type ResourceSnapshot struct {
	ID          uuid.UUID
	Kind        resource.Kind
	Name        string
	ProviderID  uuid.UUID
	HourlyCents int64
	Currency    string
}

// TransitionFields carries the side-effect columns written atomically
// with a status change. Nil fields are left untouched.
type TransitionFields struct {
	PaymentStatus      *booking.PaymentStatus
	CapturedCents      *int64
	ExternalPaymentID  *string
	ExternalSessionID  *string
	RefundCents        *int64
	RefundProcessedAt  *time.Time
	CancellationReason *string
	CancelledAt        *time.Time
	CancelledBy        *uuid.UUID
}

// ConflictError reports the competing booking so the caller can pick
// another window.
type ConflictError struct {
	ExistingBookingID uuid.UUID
	ExistingStart     time.Time
	ExistingEnd       time.Time
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("booking conflict with %s [%s, %s)",
		e.ExistingBookingID,
		e.ExistingStart.Format(time.RFC3339),
		e.ExistingEnd.Format(time.RFC3339))
}

func (e *ConflictError) Is(target error) bool {
	return target == errs.ErrBookingConflict
}

// BookingLedger is the authoritative store of bookings. Create is
// atomic with the overlap check; ApplyTransition is the single
// mutation primitive and fails with errs.ErrStaleState when the
// current status no longer matches expectedStatus.
type BookingLedger interface {
	Create(ctx context.Context, b *booking.Booking) error
	FindByID(ctx context.Context, id uuid.UUID) (*booking.Booking, error)
	FindByCorrelation(ctx context.Context, corr payment.Correlation) (*booking.Booking, error)
	ApplyTransition(ctx context.Context, id uuid.UUID, expected, next booking.Status, fields TransitionFields) error
	ListAwaitingPaymentBefore(ctx context.Context, cutoff time.Time, limit int32) ([]*booking.Booking, error)
}

type ResourceCatalog interface {
	FindByID(ctx context.Context, id uuid.UUID) (*ResourceSnapshot, error)
}

type AuthorizeRequest struct {
	BookingID   uuid.UUID
	AmountCents int64
	Currency    string
}

type AuthorizeAck struct {
	ExternalSessionID string
}

// PaymentGateway acknowledges requests; ground truth arrives through
// the inbound event feed. Retries on gateway failures belong to the
// adapter, not the orchestrator.
type PaymentGateway interface {
	Authorize(ctx context.Context, req AuthorizeRequest) (*AuthorizeAck, error)
	Capture(ctx context.Context, externalPaymentID string, amountCents *int64) error
	Refund(ctx context.Context, externalPaymentID string, amountCents int64, reason string) error
}

// EventDeduper remembers processed external event ids for the webhook
// retry window.
type EventDeduper interface {
	// MarkProcessed records the event id and reports false when it was
	// already recorded.
	MarkProcessed(ctx context.Context, externalEventID string) (bool, error)
	// Forget releases the id so a redelivery can be processed after a
	// transient failure.
	Forget(ctx context.Context, externalEventID string) error
}

type IdempotencyClaim struct {
	Acquired    bool
	RequestHash string
	BookingID   *uuid.UUID
}

// IdempotencyStore backs the Idempotency-Key creation contract.
type IdempotencyStore interface {
	Claim(ctx context.Context, key, requesterID uuid.UUID, requestHash string) (*IdempotencyClaim, error)
	Complete(ctx context.Context, key, requesterID, bookingID uuid.UUID) error
	Release(ctx context.Context, key, requesterID uuid.UUID) error
}

// DomainEventPublisher emits domain events after the ledger mutation
// commits, never before.
type DomainEventPublisher interface {
	PublishBooked(ctx context.Context, ev booking.BookedEvent) error
	PublishCancelled(ctx context.Context, ev booking.CancelledEvent) error
}
