package commands

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"booking-core/internal/domain/booking"
	"booking-core/internal/pkg/clock"
	"booking-core/internal/pkg/errs"
)

const sweepBatchSize = 100

type SweepCommands interface {
	// ExpireStaleBookings fails AWAITING_PAYMENT bookings whose
	// authorization never arrived. Every expiry goes through
	// ApplyTransition, so a late authorization that commits first
	// simply wins; the sweep's attempt is discarded.
	ExpireStaleBookings(ctx context.Context) (int, error)
}

type sweepCommandsImpl struct {
	ledger  BookingLedger
	clock   clock.Clock
	timeout time.Duration
}

func NewSweepCommands(ledger BookingLedger, clock clock.Clock, timeout time.Duration) SweepCommands {
	return &sweepCommandsImpl{
		ledger:  ledger,
		clock:   clock,
		timeout: timeout,
	}
}

func (s *sweepCommandsImpl) ExpireStaleBookings(ctx context.Context) (int, error) {
	cutoff := s.clock.Now().Add(-s.timeout)

	stale, err := s.ledger.ListAwaitingPaymentBefore(ctx, cutoff, sweepBatchSize)
	if err != nil {
		return 0, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}

	expired := 0
	for _, entity := range stale {
		status := booking.PaymentStatusFailed
		fields := TransitionFields{PaymentStatus: &status}
		err := s.ledger.ApplyTransition(ctx, entity.ID(), booking.StatusAwaitingPayment, booking.StatusFailed, fields)
		if err != nil {
			if errors.Is(err, errs.ErrStaleState) {
				// An authorization landed between listing and expiry.
				continue
			}
			return expired, err
		}
		expired++
		slog.Info("expired stale booking", "booking_id", entity.ID())
	}

	return expired, nil
}
