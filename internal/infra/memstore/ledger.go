package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"booking-core/internal/domain/booking"
	"booking-core/internal/domain/payment"
	"booking-core/internal/domain/resource"
	"booking-core/internal/pkg/errs"
	"booking-core/internal/usecase/commands"

	"github.com/google/uuid"
)

// BookingLedger is an in-memory, mutex-serialized ledger with the same
// contract as the Postgres one: conflict-checked insertion and
// compare-and-swap transitions. It backs unit and scenario tests.
type BookingLedger struct {
	mu       sync.Mutex
	bookings map[uuid.UUID]*booking.Booking
}

func NewBookingLedger() *BookingLedger {
	return &BookingLedger{bookings: make(map[uuid.UUID]*booking.Booking)}
}

func (l *BookingLedger) Create(_ context.Context, b *booking.Booking) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, existing := range l.bookings {
		if !existing.Blocking() {
			continue
		}
		sameResource := existing.ResourceID() == b.ResourceID()
		sameProvider := b.Kind() == resource.KindService &&
			existing.Kind() == resource.KindService &&
			existing.ProviderID() == b.ProviderID()
		if !sameResource && !sameProvider {
			continue
		}
		if existing.Window().Overlaps(b.Window()) {
			return &commands.ConflictError{
				ExistingBookingID: existing.ID(),
				ExistingStart:     existing.Window().Start(),
				ExistingEnd:       existing.Window().End(),
			}
		}
	}

	l.bookings[b.ID()] = cloneBooking(b, b.Status(), commands.TransitionFields{}, b.UpdatedAt())
	return nil
}

func (l *BookingLedger) FindByID(_ context.Context, id uuid.UUID) (*booking.Booking, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.bookings[id]
	if !ok {
		return nil, errs.Mark(errs.New("booking not found"), errs.ErrBookingNotFound)
	}
	return b, nil
}

func (l *BookingLedger) FindByCorrelation(_ context.Context, corr payment.Correlation) (*booking.Booking, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, b := range l.bookings {
		if corr.PaymentID != "" && b.ExternalPaymentID() != nil && *b.ExternalPaymentID() == corr.PaymentID {
			return b, nil
		}
		if corr.SessionID != "" && b.ExternalSessionID() != nil && *b.ExternalSessionID() == corr.SessionID {
			return b, nil
		}
	}
	return nil, errs.Mark(errs.New("no booking for correlation key"), errs.ErrBookingNotFound)
}

func (l *BookingLedger) ApplyTransition(
	_ context.Context,
	id uuid.UUID,
	expected, next booking.Status,
	fields commands.TransitionFields,
) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	current, ok := l.bookings[id]
	if !ok {
		return errs.Mark(errs.New("booking not found"), errs.ErrBookingNotFound)
	}
	if current.Status() != expected {
		return errs.Mark(errs.New("booking status changed concurrently"), errs.ErrStaleState)
	}

	l.bookings[id] = cloneBooking(current, next, fields, time.Now())
	return nil
}

func (l *BookingLedger) ListAwaitingPaymentBefore(_ context.Context, cutoff time.Time, limit int32) ([]*booking.Booking, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var result []*booking.Booking
	for _, b := range l.bookings {
		if b.Status() == booking.StatusAwaitingPayment && b.CreatedAt().Before(cutoff) {
			result = append(result, b)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt().Before(result[j].CreatedAt())
	})
	if int32(len(result)) > limit {
		result = result[:limit]
	}
	return result, nil
}

func cloneBooking(b *booking.Booking, next booking.Status, fields commands.TransitionFields, updatedAt time.Time) *booking.Booking {
	paymentStatus := b.PaymentStatus()
	if fields.PaymentStatus != nil {
		paymentStatus = *fields.PaymentStatus
	}

	capturedCents := b.CapturedCents()
	if fields.CapturedCents != nil {
		capturedCents = fields.CapturedCents
	}

	externalPaymentID := b.ExternalPaymentID()
	if fields.ExternalPaymentID != nil {
		externalPaymentID = fields.ExternalPaymentID
	}
	externalSessionID := b.ExternalSessionID()
	if fields.ExternalSessionID != nil {
		externalSessionID = fields.ExternalSessionID
	}
	refundCents := b.RefundCents()
	if fields.RefundCents != nil {
		refundCents = fields.RefundCents
	}
	refundProcessedAt := b.RefundProcessedAt()
	if fields.RefundProcessedAt != nil {
		refundProcessedAt = fields.RefundProcessedAt
	}
	cancellationReason := b.CancellationReason()
	if fields.CancellationReason != nil {
		cancellationReason = fields.CancellationReason
	}
	cancelledAt := b.CancelledAt()
	if fields.CancelledAt != nil {
		cancelledAt = fields.CancelledAt
	}
	cancelledBy := b.CancelledBy()
	if fields.CancelledBy != nil {
		cancelledBy = fields.CancelledBy
	}

	return booking.ReconstructBooking(
		b.ID(), b.Kind(), b.ResourceID(), b.ProviderID(), b.RequesterID(),
		b.Window(), next, paymentStatus, b.Amount(),
		capturedCents,
		externalPaymentID, externalSessionID,
		refundCents, refundProcessedAt,
		cancellationReason, cancelledAt, cancelledBy,
		b.CreatedAt(), updatedAt,
	)
}
