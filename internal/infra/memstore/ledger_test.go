//go:build unit

package memstore_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"booking-core/internal/domain/booking"
	"booking-core/internal/domain/payment"
	"booking-core/internal/infra/memstore"
	"booking-core/internal/pkg/errs"
	"booking-core/internal/usecase/commands"
	"booking-core/tests/common/builder"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBookingLedger_ConcurrentCreate(t *testing.T) {
	ctx := context.Background()
	ledger := memstore.NewBookingLedger()

	base := builder.NewBookingBuilder()

	const attempts = 16
	var wg sync.WaitGroup
	results := make([]error, attempts)

	// All goroutines race for the same resource and window; exactly
	// one may win.
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			contender := builder.NewBookingBuilder().
				WithResourceID(base.ResourceID).
				WithWindow(base.StartTime, base.EndTime)
			results[i] = ledger.Create(ctx, contender.BuildDomain())
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range results {
		if err == nil {
			winners++
			continue
		}
		var conflict *commands.ConflictError
		assert.ErrorAs(t, err, &conflict)
	}
	assert.Equal(t, 1, winners)
}

func TestBookingLedger_ApplyTransition(t *testing.T) {
	ctx := context.Background()
	ledger := memstore.NewBookingLedger()

	b := builder.NewBookingBuilder()
	require.NoError(t, ledger.Create(ctx, b.BuildDomain()))

	t.Run("matching expected status succeeds", func(t *testing.T) {
		err := ledger.ApplyTransition(ctx, b.ID,
			booking.StatusPending, booking.StatusAwaitingPayment, commands.TransitionFields{})
		require.NoError(t, err)

		stored, err := ledger.FindByID(ctx, b.ID)
		require.NoError(t, err)
		assert.Equal(t, booking.StatusAwaitingPayment, stored.Status())
	})

	t.Run("stale expected status fails", func(t *testing.T) {
		err := ledger.ApplyTransition(ctx, b.ID,
			booking.StatusPending, booking.StatusAwaitingPayment, commands.TransitionFields{})
		assert.ErrorIs(t, err, errs.ErrStaleState)
	})

	t.Run("only one of two concurrent transitions wins", func(t *testing.T) {
		var wg sync.WaitGroup
		results := make([]error, 2)
		targets := []booking.Status{booking.StatusAuthorized, booking.StatusFailed}

		for i := range targets {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				results[i] = ledger.ApplyTransition(ctx, b.ID,
					booking.StatusAwaitingPayment, targets[i], commands.TransitionFields{})
			}(i)
		}
		wg.Wait()

		winners := 0
		for _, err := range results {
			if err == nil {
				winners++
			} else {
				assert.ErrorIs(t, err, errs.ErrStaleState)
			}
		}
		assert.Equal(t, 1, winners)
	})

	t.Run("unknown booking", func(t *testing.T) {
		other := builder.NewBookingBuilder()
		err := ledger.ApplyTransition(ctx, other.ID,
			booking.StatusPending, booking.StatusAwaitingPayment, commands.TransitionFields{})
		assert.ErrorIs(t, err, errs.ErrBookingNotFound)
	})
}

func TestBookingLedger_ReleasedWindowsDoNotBlock(t *testing.T) {
	ctx := context.Background()

	for _, status := range []booking.Status{
		booking.StatusCancelled, booking.StatusFailed, booking.StatusRefunded,
	} {
		t.Run(string(status), func(t *testing.T) {
			ledger := memstore.NewBookingLedger()

			released := builder.NewBookingBuilder().WithStatus(status)
			require.NoError(t, ledger.Create(ctx, released.BuildDomain()))

			rebooked := builder.NewBookingBuilder().
				WithResourceID(released.ResourceID).
				WithWindow(released.StartTime, released.EndTime)
			assert.NoError(t, ledger.Create(ctx, rebooked.BuildDomain()))
		})
	}
}

func TestBookingLedger_FindByCorrelation(t *testing.T) {
	ctx := context.Background()
	ledger := memstore.NewBookingLedger()

	b := builder.NewBookingBuilder().
		WithExternalPaymentID("pay_77").
		WithExternalSessionID("sess_77")
	require.NoError(t, ledger.Create(ctx, b.BuildDomain()))

	found, err := ledger.FindByCorrelation(ctx, payment.Correlation{PaymentID: "pay_77"})
	require.NoError(t, err)
	assert.Equal(t, b.ID, found.ID())

	found, err = ledger.FindByCorrelation(ctx, payment.Correlation{SessionID: "sess_77"})
	require.NoError(t, err)
	assert.Equal(t, b.ID, found.ID())

	_, err = ledger.FindByCorrelation(ctx, payment.Correlation{PaymentID: "pay_nope"})
	assert.ErrorIs(t, err, errs.ErrBookingNotFound)
}

func TestBookingLedger_ListAwaitingPaymentBefore(t *testing.T) {
	ctx := context.Background()
	ledger := memstore.NewBookingLedger()
	now := time.Now()

	old := builder.NewBookingBuilder().AsAwaitingPayment()
	old.CreatedAt = now.Add(-2 * time.Hour)
	require.NoError(t, ledger.Create(ctx, old.BuildDomain()))

	recent := builder.NewBookingBuilder().AsAwaitingPayment()
	recent.CreatedAt = now.Add(-time.Minute)
	require.NoError(t, ledger.Create(ctx, recent.BuildDomain()))

	listed, err := ledger.ListAwaitingPaymentBefore(ctx, now.Add(-30*time.Minute), 100)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, old.ID, listed[0].ID())
}

func TestBookingLedger_WindowOverlap(t *testing.T) {
	// Two distinct windows on one resource coexist.
	ctx := context.Background()
	ledger := memstore.NewBookingLedger()

	first := builder.NewBookingBuilder()
	require.NoError(t, ledger.Create(ctx, first.BuildDomain()))

	second := builder.NewBookingBuilder().
		WithResourceID(first.ResourceID).
		WithWindow(first.EndTime, first.EndTime.Add(time.Hour))
	err := ledger.Create(ctx, second.BuildDomain())
	require.NoError(t, err)

	overlapping := builder.NewBookingBuilder().
		WithResourceID(first.ResourceID).
		WithWindow(first.StartTime.Add(30*time.Minute), first.EndTime.Add(30*time.Minute))
	err = ledger.Create(ctx, overlapping.BuildDomain())
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ErrBookingConflict))
}
