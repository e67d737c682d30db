//go:build unit

package booking_test

import (
	"testing"

	"booking-core/internal/domain/booking"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// allowed is the complete set of legal (status, trigger) pairs. Every
// pair outside this table must be rejected.
var allowed = map[booking.Status]map[booking.Trigger]booking.Status{
	booking.StatusPending: {
		booking.TriggerAuthorizationRequested: booking.StatusAwaitingPayment,
	},
	booking.StatusAwaitingPayment: {
		booking.TriggerPaymentAuthorized: booking.StatusAuthorized,
		booking.TriggerPaymentFailed:     booking.StatusFailed,
	},
	booking.StatusAuthorized: {
		booking.TriggerCaptured:      booking.StatusConfirmed,
		booking.TriggerPaymentFailed: booking.StatusFailed,
		booking.TriggerCancel:        booking.StatusCancelled,
	},
	booking.StatusConfirmed: {
		booking.TriggerCancel: booking.StatusCancelled,
	},
	booking.StatusCancelled: {
		booking.TriggerRefundProcessed: booking.StatusRefunded,
	},
}

func TestNextStatus_ExhaustiveTable(t *testing.T) {
	for _, from := range booking.AllStatuses() {
		for _, trg := range booking.AllTriggers() {
			expected, ok := allowed[from][trg]

			next, err := booking.NextStatus(from, trg)
			if ok {
				require.NoError(t, err, "expected %s --%s--> %s", from, trg, expected)
				assert.Equal(t, expected, next)
				assert.True(t, booking.CanApply(from, trg))
			} else {
				require.Error(t, err, "expected %s --%s--> rejection", from, trg)
				assert.ErrorIs(t, err, booking.ErrInvalidTransition)
				assert.False(t, booking.CanApply(from, trg))
			}
		}
	}
}

func TestStatus_Terminal(t *testing.T) {
	assert.True(t, booking.StatusFailed.IsTerminal())
	assert.True(t, booking.StatusRefunded.IsTerminal())

	// CANCELLED still accepts the refund event, so it is not terminal.
	assert.False(t, booking.StatusCancelled.IsTerminal())

	for _, s := range []booking.Status{
		booking.StatusPending, booking.StatusAwaitingPayment,
		booking.StatusAuthorized, booking.StatusConfirmed,
	} {
		assert.False(t, s.IsTerminal(), "status %s", s)
	}
}

func TestStatus_TerminalStatesAcceptNothing(t *testing.T) {
	for _, from := range []booking.Status{booking.StatusFailed, booking.StatusRefunded} {
		for _, trg := range booking.AllTriggers() {
			assert.False(t, booking.CanApply(from, trg), "%s must reject %s", from, trg)
		}
	}
}

func TestStatus_Blocking(t *testing.T) {
	blocking := []booking.Status{
		booking.StatusPending, booking.StatusAwaitingPayment,
		booking.StatusAuthorized, booking.StatusConfirmed,
	}
	for _, s := range blocking {
		assert.True(t, s.Blocking(), "status %s should hold its window", s)
	}

	released := []booking.Status{
		booking.StatusCancelled, booking.StatusFailed, booking.StatusRefunded,
	}
	for _, s := range released {
		assert.False(t, s.Blocking(), "status %s should release its window", s)
	}
}

func TestStatus_IsValid(t *testing.T) {
	for _, s := range booking.AllStatuses() {
		assert.True(t, s.IsValid())
	}
	assert.False(t, booking.Status("WAITING").IsValid())
	assert.False(t, booking.Status("").IsValid())
}
