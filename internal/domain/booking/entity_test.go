//go:build unit

package booking_test

import (
	"strings"
	"testing"
	"time"

	"booking-core/internal/domain/booking"
	"booking-core/internal/domain/resource"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testResource(t *testing.T) *resource.Resource {
	t.Helper()
	res, err := resource.NewResource(uuid.New(), resource.KindVenue, "Conference Room A", uuid.New(), 10000, "JPY")
	require.NoError(t, err)
	return res
}

func TestNewBooking(t *testing.T) {
	res := testResource(t)
	now := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)
	window := mustWindow(t, now.Add(24*time.Hour), now.Add(26*time.Hour))
	amount, err := booking.NewMoney(20000, "JPY")
	require.NoError(t, err)

	t.Run("starts in PENDING with unpaid payment", func(t *testing.T) {
		b, err := booking.NewBooking(res, uuid.New(), window, amount, now)
		require.NoError(t, err)

		assert.NotEqual(t, uuid.Nil, b.ID())
		assert.Equal(t, booking.StatusPending, b.Status())
		assert.Equal(t, booking.PaymentStatusUnpaid, b.PaymentStatus())
		assert.Equal(t, res.ID(), b.ResourceID())
		assert.Equal(t, res.ProviderID(), b.ProviderID())
		assert.Equal(t, resource.KindVenue, b.Kind())
		assert.Nil(t, b.ExternalPaymentID())
		assert.Nil(t, b.RefundCents())
		// Timestamps come from the caller's clock, not the zero value,
		// so in-memory ledgers age bookings the same way the DB does.
		assert.Equal(t, now, b.CreatedAt())
		assert.Equal(t, now, b.UpdatedAt())
	})

	t.Run("window in the past rejected", func(t *testing.T) {
		past := mustWindow(t, now.Add(-2*time.Hour), now.Add(-time.Hour))
		_, err := booking.NewBooking(res, uuid.New(), past, amount, now)
		assert.ErrorIs(t, err, booking.ErrWindowInPast)
	})
}

func TestBooking_OwnedBy(t *testing.T) {
	res := testResource(t)
	now := time.Now()
	window := mustWindow(t, now.Add(time.Hour), now.Add(2*time.Hour))
	amount, _ := booking.NewMoney(100, "JPY")

	requester := uuid.New()
	b, err := booking.NewBooking(res, requester, window, amount, now)
	require.NoError(t, err)

	assert.True(t, b.OwnedBy(requester))
	assert.False(t, b.OwnedBy(uuid.New()))
}

func TestBooking_ValidateRefund(t *testing.T) {
	res := testResource(t)
	now := time.Now()
	window := mustWindow(t, now.Add(time.Hour), now.Add(2*time.Hour))
	amount, _ := booking.NewMoney(5000, "JPY")

	b, err := booking.NewBooking(res, uuid.New(), window, amount, now)
	require.NoError(t, err)

	assert.NoError(t, b.ValidateRefund(0))
	assert.NoError(t, b.ValidateRefund(2500))
	assert.NoError(t, b.ValidateRefund(5000))
	assert.ErrorIs(t, b.ValidateRefund(5001), booking.ErrRefundExceedsAmount)
	assert.ErrorIs(t, b.ValidateRefund(-1), booking.ErrRefundExceedsAmount)
	assert.Equal(t, int64(5000), b.ChargedCents())
}

func TestBooking_ChargedCents(t *testing.T) {
	captured := int64(3000)
	b := booking.ReconstructBooking(
		uuid.New(), resource.KindVenue, uuid.New(), uuid.New(), uuid.New(),
		mustWindow(t, time.Now().Add(time.Hour), time.Now().Add(2*time.Hour)),
		booking.StatusConfirmed, booking.PaymentStatusCaptured,
		mustMoney(t, 5000, "JPY"),
		&captured,
		nil, nil,
		nil, nil,
		nil, nil, nil,
		time.Now(), time.Now(),
	)

	// A partial capture shrinks the refundable base.
	assert.Equal(t, captured, b.ChargedCents())
	assert.NoError(t, b.ValidateRefund(3000))
	assert.ErrorIs(t, b.ValidateRefund(3001), booking.ErrRefundExceedsAmount)
}

func TestValidateCancellationReason(t *testing.T) {
	assert.NoError(t, booking.ValidateCancellationReason("plans changed"))
	assert.ErrorIs(t, booking.ValidateCancellationReason(""), booking.ErrEmptyReason)
	assert.ErrorIs(t, booking.ValidateCancellationReason("   "), booking.ErrEmptyReason)

	long := strings.Repeat("x", booking.MaxReasonLength+1)
	assert.ErrorIs(t, booking.ValidateCancellationReason(long), booking.ErrReasonTooLong)

	exact := strings.Repeat("x", booking.MaxReasonLength)
	assert.NoError(t, booking.ValidateCancellationReason(exact))
}
