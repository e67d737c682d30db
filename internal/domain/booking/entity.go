package booking

import (
	"errors"
	"strings"
	"time"

	"booking-core/internal/domain/resource"

	"github.com/google/uuid"
)

var (
	ErrRefundExceedsAmount = errors.New("refund cannot exceed charged amount")
	ErrEmptyReason         = errors.New("cancellation reason cannot be empty")
	ErrReasonTooLong       = errors.New("cancellation reason is too long (max 500 characters)")
)

const MaxReasonLength = 500

// Booking is the authoritative ledger entry for one reservation of a
// resource window tied to an external payment. It is never deleted;
// cancellation is a state, not a removal.
type Booking struct {
	id            uuid.UUID
	kind          resource.Kind
	resourceID    uuid.UUID
	providerID    uuid.UUID
	requesterID   uuid.UUID
	window        TimeWindow
	status        Status
	payment       PaymentStatus
	amount        Money
	capturedCents *int64

	externalPaymentID *string
	externalSessionID *string

	refundCents       *int64
	refundProcessedAt *time.Time

	cancellationReason *string
	cancelledAt        *time.Time
	cancelledBy        *uuid.UUID

	createdAt time.Time
	updatedAt time.Time
}

// NewBooking creates a ledger entry in PENDING. The conflict check
// against other holders of the window happens at the ledger boundary,
// atomically with insertion.
func NewBooking(
	res *resource.Resource,
	requesterID uuid.UUID,
	window TimeWindow,
	amount Money,
	now time.Time,
) (*Booking, error) {
	if err := window.ValidateNotInPast(now); err != nil {
		return nil, err
	}

	return &Booking{
		id:          uuid.New(),
		kind:        res.Kind(),
		resourceID:  res.ID(),
		providerID:  res.ProviderID(),
		requesterID: requesterID,
		window:      window,
		status:      StatusPending,
		payment:     PaymentStatusUnpaid,
		amount:      amount,
		createdAt:   now,
		updatedAt:   now,
	}, nil
}

func ReconstructBooking(
	id uuid.UUID,
	kind resource.Kind,
	resourceID, providerID, requesterID uuid.UUID,
	window TimeWindow,
	status Status,
	payment PaymentStatus,
	amount Money,
	capturedCents *int64,
	externalPaymentID, externalSessionID *string,
	refundCents *int64,
	refundProcessedAt *time.Time,
	cancellationReason *string,
	cancelledAt *time.Time,
	cancelledBy *uuid.UUID,
	createdAt, updatedAt time.Time,
) *Booking {
	return &Booking{
		id:                 id,
		kind:               kind,
		resourceID:         resourceID,
		providerID:         providerID,
		requesterID:        requesterID,
		window:             window,
		status:             status,
		payment:            payment,
		amount:             amount,
		capturedCents:      capturedCents,
		externalPaymentID:  externalPaymentID,
		externalSessionID:  externalSessionID,
		refundCents:        refundCents,
		refundProcessedAt:  refundProcessedAt,
		cancellationReason: cancellationReason,
		cancelledAt:        cancelledAt,
		cancelledBy:        cancelledBy,
		createdAt:          createdAt,
		updatedAt:          updatedAt,
	}
}

// Blocking reports whether this booking holds its window against
// conflicting bookings.
func (b *Booking) Blocking() bool {
	return b.status.Blocking()
}

// OwnedBy reports whether the requester created this booking.
func (b *Booking) OwnedBy(requesterID uuid.UUID) bool {
	return b.requesterID == requesterID
}

// ChargedCents is the amount actually taken from the payer: the
// captured amount once a capture has happened, the booked amount
// before. Refunds are bounded by it, never by the original amount.
func (b *Booking) ChargedCents() int64 {
	if b.capturedCents != nil {
		return *b.capturedCents
	}
	return b.amount.Cents()
}

// ValidateRefund enforces refund ≤ charged.
func (b *Booking) ValidateRefund(refundCents int64) error {
	if refundCents < 0 || refundCents > b.ChargedCents() {
		return ErrRefundExceedsAmount
	}
	return nil
}

func ValidateCancellationReason(reason string) error {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return ErrEmptyReason
	}
	if len(reason) > MaxReasonLength {
		return ErrReasonTooLong
	}
	return nil
}

func (b *Booking) ID() uuid.UUID                 { return b.id }
func (b *Booking) Kind() resource.Kind           { return b.kind }
func (b *Booking) ResourceID() uuid.UUID         { return b.resourceID }
func (b *Booking) ProviderID() uuid.UUID         { return b.providerID }
func (b *Booking) RequesterID() uuid.UUID        { return b.requesterID }
func (b *Booking) Window() TimeWindow            { return b.window }
func (b *Booking) Status() Status                { return b.status }
func (b *Booking) PaymentStatus() PaymentStatus  { return b.payment }
func (b *Booking) Amount() Money                 { return b.amount }
func (b *Booking) CapturedCents() *int64         { return b.capturedCents }
func (b *Booking) ExternalPaymentID() *string    { return b.externalPaymentID }
func (b *Booking) ExternalSessionID() *string    { return b.externalSessionID }
func (b *Booking) RefundCents() *int64           { return b.refundCents }
func (b *Booking) RefundProcessedAt() *time.Time { return b.refundProcessedAt }
func (b *Booking) CancellationReason() *string   { return b.cancellationReason }
func (b *Booking) CancelledAt() *time.Time       { return b.cancelledAt }
func (b *Booking) CancelledBy() *uuid.UUID       { return b.cancelledBy }
func (b *Booking) CreatedAt() time.Time          { return b.createdAt }
func (b *Booking) UpdatedAt() time.Time          { return b.updatedAt }
