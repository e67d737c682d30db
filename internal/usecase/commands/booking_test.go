//go:build unit

package commands_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"booking-core/internal/domain/booking"
	"booking-core/internal/domain/identity"
	"booking-core/internal/domain/resource"
	"booking-core/internal/infra/memstore"
	"booking-core/internal/pkg/clock"
	"booking-core/internal/pkg/errs"
	"booking-core/internal/usecase/commands"
	"booking-core/tests/common/builder"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type bookingFixture struct {
	ledger      *memstore.BookingLedger
	catalog     *memstore.ResourceCatalog
	gateway     *fakeGateway
	idempotency *memstore.IdempotencyStore
	publisher   *recordingPublisher
	clock       *clock.MockClock
	commands    commands.BookingCommands
}

func newBookingFixture(t *testing.T) *bookingFixture {
	t.Helper()
	f := &bookingFixture{
		ledger:      memstore.NewBookingLedger(),
		catalog:     memstore.NewResourceCatalog(),
		gateway:     newFakeGateway(),
		idempotency: memstore.NewIdempotencyStore(),
		publisher:   &recordingPublisher{},
		clock:       clock.NewMockClock(time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)),
	}
	f.commands = commands.NewBookingCommands(
		f.ledger,
		f.catalog,
		f.gateway,
		f.idempotency,
		f.publisher,
		booking.NewCutoffRefundPolicy(24*time.Hour, 50),
		f.clock,
	)
	return f
}

func (f *bookingFixture) seed(b *builder.BookingBuilder) {
	f.catalog.Put(b.BuildSnapshot())
}

func (f *bookingFixture) futureBuilder() *builder.BookingBuilder {
	start := f.clock.Now().Add(72 * time.Hour)
	return builder.NewBookingBuilder().WithWindow(start, start.Add(2*time.Hour))
}

func TestCreateBooking(t *testing.T) {
	ctx := context.Background()

	t.Run("creates and moves to AWAITING_PAYMENT", func(t *testing.T) {
		f := newBookingFixture(t)
		b := f.futureBuilder()
		f.seed(b)

		result, err := f.commands.CreateBooking(ctx, b.BuildCreateParams(), uuid.New())
		require.NoError(t, err)
		assert.Equal(t, booking.StatusAwaitingPayment, result.Status)
		assert.False(t, result.IsReplayed)

		stored, err := f.ledger.FindByID(ctx, result.BookingID)
		require.NoError(t, err)
		assert.Equal(t, booking.StatusAwaitingPayment, stored.Status())
		require.NotNil(t, stored.ExternalSessionID())
		assert.Equal(t, f.gateway.sessionID, *stored.ExternalSessionID())
	})

	t.Run("gateway ack failure still parks the booking for the sweep", func(t *testing.T) {
		f := newBookingFixture(t)
		f.gateway.authorizeErr = errors.New("gateway unreachable")
		b := f.futureBuilder()
		f.seed(b)

		result, err := f.commands.CreateBooking(ctx, b.BuildCreateParams(), uuid.New())
		require.NoError(t, err)
		assert.Equal(t, booking.StatusAwaitingPayment, result.Status)

		stored, err := f.ledger.FindByID(ctx, result.BookingID)
		require.NoError(t, err)
		assert.Nil(t, stored.ExternalSessionID())
	})

	t.Run("overlapping window reports the competing booking", func(t *testing.T) {
		f := newBookingFixture(t)
		b := f.futureBuilder()
		f.seed(b)

		first, err := f.commands.CreateBooking(ctx, b.BuildCreateParams(), uuid.New())
		require.NoError(t, err)

		overlapping := b.BuildCreateParams()
		overlapping.RequesterID = uuid.New()
		overlapping.StartTime = overlapping.StartTime.Add(time.Hour)
		overlapping.EndTime = overlapping.EndTime.Add(time.Hour)

		_, err = f.commands.CreateBooking(ctx, overlapping, uuid.New())
		require.Error(t, err)
		assert.ErrorIs(t, err, errs.ErrBookingConflict)

		var conflict *commands.ConflictError
		require.ErrorAs(t, err, &conflict)
		assert.Equal(t, first.BookingID, conflict.ExistingBookingID)
	})

	t.Run("back-to-back windows do not conflict", func(t *testing.T) {
		f := newBookingFixture(t)
		b := f.futureBuilder()
		f.seed(b)

		_, err := f.commands.CreateBooking(ctx, b.BuildCreateParams(), uuid.New())
		require.NoError(t, err)

		adjacent := b.BuildCreateParams()
		adjacent.StartTime = b.EndTime
		adjacent.EndTime = b.EndTime.Add(2 * time.Hour)

		_, err = f.commands.CreateBooking(ctx, adjacent, uuid.New())
		assert.NoError(t, err)
	})

	t.Run("service bookings conflict across the provider's resources", func(t *testing.T) {
		f := newBookingFixture(t)
		providerID := uuid.New()

		b1 := f.futureBuilder().WithKind(resource.KindService).WithProviderID(providerID)
		b2 := f.futureBuilder().WithKind(resource.KindService).WithProviderID(providerID)
		f.seed(b1)
		f.seed(b2)

		_, err := f.commands.CreateBooking(ctx, b1.BuildCreateParams(), uuid.New())
		require.NoError(t, err)

		_, err = f.commands.CreateBooking(ctx, b2.BuildCreateParams(), uuid.New())
		assert.ErrorIs(t, err, errs.ErrBookingConflict)
	})

	t.Run("replay with the same key returns the original booking", func(t *testing.T) {
		f := newBookingFixture(t)
		b := f.futureBuilder()
		f.seed(b)
		key := uuid.New()

		first, err := f.commands.CreateBooking(ctx, b.BuildCreateParams(), key)
		require.NoError(t, err)

		second, err := f.commands.CreateBooking(ctx, b.BuildCreateParams(), key)
		require.NoError(t, err)
		assert.True(t, second.IsReplayed)
		assert.Equal(t, first.BookingID, second.BookingID)
		// The gateway saw exactly one authorization request.
		assert.Equal(t, 1, f.gateway.authorizeCalls)
	})

	t.Run("same key with different parameters is rejected", func(t *testing.T) {
		f := newBookingFixture(t)
		b := f.futureBuilder()
		f.seed(b)
		key := uuid.New()

		_, err := f.commands.CreateBooking(ctx, b.BuildCreateParams(), key)
		require.NoError(t, err)

		different := b.BuildCreateParams()
		different.AmountCents += 100

		_, err = f.commands.CreateBooking(ctx, different, key)
		assert.ErrorIs(t, err, errs.ErrDuplicateBookingIntent)
	})

	t.Run("failed creation releases the idempotency key", func(t *testing.T) {
		f := newBookingFixture(t)
		b := f.futureBuilder()
		f.seed(b)
		key := uuid.New()

		broken := b.BuildCreateParams()
		broken.EndTime = broken.StartTime

		_, err := f.commands.CreateBooking(ctx, broken, key)
		require.ErrorIs(t, err, errs.ErrInvalidWindow)

		// The same key is usable again once the request is fixed.
		_, err = f.commands.CreateBooking(ctx, b.BuildCreateParams(), key)
		assert.NoError(t, err)
	})

	t.Run("unknown resource", func(t *testing.T) {
		f := newBookingFixture(t)
		b := f.futureBuilder()

		_, err := f.commands.CreateBooking(ctx, b.BuildCreateParams(), uuid.New())
		assert.ErrorIs(t, err, errs.ErrResourceNotFound)
	})
}

func TestCancelBooking(t *testing.T) {
	ctx := context.Background()

	seedAuthorized := func(t *testing.T, f *bookingFixture) (*builder.BookingBuilder, uuid.UUID) {
		t.Helper()
		b := f.futureBuilder().AsAuthorized()
		entity := b.BuildDomain()
		require.NoError(t, f.ledger.Create(ctx, entity))
		return b, entity.ID()
	}

	t.Run("owner cancels before cutoff with full refund", func(t *testing.T) {
		f := newBookingFixture(t)
		b, id := seedAuthorized(t, f)

		result, err := f.commands.CancelBooking(ctx, id, b.RequesterID, identity.RoleCustomer, "plans changed")
		require.NoError(t, err)
		assert.Equal(t, booking.StatusCancelled, result.Status)
		assert.Equal(t, b.AmountCents, result.RefundCents)

		require.Len(t, f.gateway.refundCalls, 1)
		assert.Equal(t, *b.ExternalPaymentID, f.gateway.refundCalls[0].externalPaymentID)
		assert.Equal(t, 1, f.publisher.cancelledCount())

		stored, err := f.ledger.FindByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, booking.StatusCancelled, stored.Status())
		require.NotNil(t, stored.RefundCents())
		assert.Equal(t, b.AmountCents, *stored.RefundCents())
	})

	t.Run("inside the cutoff only the late percentage is refunded", func(t *testing.T) {
		f := newBookingFixture(t)
		b, id := seedAuthorized(t, f)

		f.clock.Set(b.StartTime.Add(-2 * time.Hour))

		result, err := f.commands.CancelBooking(ctx, id, b.RequesterID, identity.RoleCustomer, "too late")
		require.NoError(t, err)
		assert.Equal(t, b.AmountCents/2, result.RefundCents)
	})

	t.Run("after the window starts nothing is refunded and no gateway call is made", func(t *testing.T) {
		f := newBookingFixture(t)
		b, id := seedAuthorized(t, f)

		f.clock.Set(b.StartTime.Add(time.Minute))

		result, err := f.commands.CancelBooking(ctx, id, b.RequesterID, identity.RoleCustomer, "no-show")
		require.NoError(t, err)
		assert.Equal(t, int64(0), result.RefundCents)
		assert.Empty(t, f.gateway.refundCalls)
		// The cancellation event still fires.
		assert.Equal(t, 1, f.publisher.cancelledCount())
	})

	t.Run("refund after a partial capture is bounded by the captured amount", func(t *testing.T) {
		f := newBookingFixture(t)
		b, id := seedAuthorized(t, f)

		partial := b.AmountCents / 2
		_, err := f.commands.CaptureBooking(ctx, id, identity.RoleOperator, &partial)
		require.NoError(t, err)

		result, err := f.commands.CancelBooking(ctx, id, b.RequesterID, identity.RoleCustomer, "plans changed")
		require.NoError(t, err)
		// Full-refund band, but only what was actually charged comes back.
		assert.Equal(t, partial, result.RefundCents)

		require.Len(t, f.gateway.refundCalls, 1)
		assert.Equal(t, partial, f.gateway.refundCalls[0].amountCents)

		stored, err := f.ledger.FindByID(ctx, id)
		require.NoError(t, err)
		require.NotNil(t, stored.RefundCents())
		assert.Equal(t, partial, *stored.RefundCents())
	})

	t.Run("stranger cannot cancel, operator can", func(t *testing.T) {
		f := newBookingFixture(t)
		_, id := seedAuthorized(t, f)

		_, err := f.commands.CancelBooking(ctx, id, uuid.New(), identity.RoleCustomer, "not mine")
		assert.ErrorIs(t, err, errs.ErrForbidden)

		_, err = f.commands.CancelBooking(ctx, id, uuid.New(), identity.RoleOperator, "operator action")
		assert.NoError(t, err)
	})

	t.Run("cancel from AWAITING_PAYMENT is rejected", func(t *testing.T) {
		f := newBookingFixture(t)
		b := f.futureBuilder().AsAwaitingPayment()
		entity := b.BuildDomain()
		require.NoError(t, f.ledger.Create(ctx, entity))

		_, err := f.commands.CancelBooking(ctx, entity.ID(), b.RequesterID, identity.RoleCustomer, "changed my mind")
		assert.ErrorIs(t, err, errs.ErrInvalidTransition)
	})

	t.Run("empty reason is rejected", func(t *testing.T) {
		f := newBookingFixture(t)
		b, id := seedAuthorized(t, f)

		_, err := f.commands.CancelBooking(ctx, id, b.RequesterID, identity.RoleCustomer, "   ")
		assert.ErrorIs(t, err, errs.ErrCancellationReason)
	})
}

func TestCaptureBooking(t *testing.T) {
	ctx := context.Background()

	seedAuthorized := func(t *testing.T, f *bookingFixture) (*builder.BookingBuilder, uuid.UUID) {
		t.Helper()
		b := f.futureBuilder().AsAuthorized()
		entity := b.BuildDomain()
		require.NoError(t, f.ledger.Create(ctx, entity))
		return b, entity.ID()
	}

	t.Run("operator captures the full amount", func(t *testing.T) {
		f := newBookingFixture(t)
		b, id := seedAuthorized(t, f)

		result, err := f.commands.CaptureBooking(ctx, id, identity.RoleOperator, nil)
		require.NoError(t, err)
		assert.Equal(t, booking.StatusConfirmed, result.Status)
		assert.Equal(t, b.AmountCents, result.CapturedCents)
		assert.Equal(t, 1, f.publisher.bookedCount())

		stored, err := f.ledger.FindByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, booking.PaymentStatusCaptured, stored.PaymentStatus())
	})

	t.Run("partial capture is persisted on the booking", func(t *testing.T) {
		f := newBookingFixture(t)
		b, id := seedAuthorized(t, f)

		partial := b.AmountCents / 4
		result, err := f.commands.CaptureBooking(ctx, id, identity.RoleOperator, &partial)
		require.NoError(t, err)
		assert.Equal(t, partial, result.CapturedCents)

		stored, err := f.ledger.FindByID(ctx, id)
		require.NoError(t, err)
		require.NotNil(t, stored.CapturedCents())
		assert.Equal(t, partial, *stored.CapturedCents())
		assert.Equal(t, partial, stored.ChargedCents())
		// The original booking amount is untouched.
		assert.Equal(t, b.AmountCents, stored.Amount().Cents())
	})

	t.Run("customer role is rejected", func(t *testing.T) {
		f := newBookingFixture(t)
		_, id := seedAuthorized(t, f)

		_, err := f.commands.CaptureBooking(ctx, id, identity.RoleCustomer, nil)
		assert.ErrorIs(t, err, errs.ErrForbidden)
	})

	t.Run("capture amount above the authorization is rejected", func(t *testing.T) {
		f := newBookingFixture(t)
		b, id := seedAuthorized(t, f)

		over := b.AmountCents + 1
		_, err := f.commands.CaptureBooking(ctx, id, identity.RoleAdmin, &over)
		assert.ErrorIs(t, err, errs.ErrDomainValidation)
	})

	t.Run("gateway rejection surfaces and leaves the booking AUTHORIZED", func(t *testing.T) {
		f := newBookingFixture(t)
		f.gateway.captureErr = errors.New("declined")
		_, id := seedAuthorized(t, f)

		_, err := f.commands.CaptureBooking(ctx, id, identity.RoleOperator, nil)
		assert.ErrorIs(t, err, errs.ErrGateway)

		stored, findErr := f.ledger.FindByID(ctx, id)
		require.NoError(t, findErr)
		assert.Equal(t, booking.StatusAuthorized, stored.Status())
	})

	t.Run("capture before authorization is rejected", func(t *testing.T) {
		f := newBookingFixture(t)
		b := f.futureBuilder()
		entity := b.BuildDomain()
		require.NoError(t, f.ledger.Create(ctx, entity))

		_, err := f.commands.CaptureBooking(ctx, entity.ID(), identity.RoleOperator, nil)
		assert.ErrorIs(t, err, errs.ErrInvalidTransition)
	})
}
