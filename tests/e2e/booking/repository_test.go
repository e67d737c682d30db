//go:build e2e

package booking_test

import (
	"context"
	"testing"
	"time"

	dombooking "booking-core/internal/domain/booking"
	"booking-core/internal/domain/payment"
	"booking-core/internal/domain/resource"
	"booking-core/internal/infra/readstore"
	"booking-core/internal/infra/repository"
	"booking-core/internal/pkg/errs"
	"booking-core/internal/usecase/commands"
	"booking-core/tests/common/builder"
	"booking-core/tests/common/dbtest"
	"booking-core/tests/e2e"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
)

type BookingRepositorySuite struct {
	e2e.SharedSuite
	repo *repository.BookingRepository
}

func (s *BookingRepositorySuite) SetupSuite() {
	s.SharedSuite.SetupSuite()
	s.repo = repository.NewBookingRepository(s.DB)
}

func TestBookingRepositorySuite(t *testing.T) {
	t.Parallel()
	suite.Run(t, new(BookingRepositorySuite))
}

// seeds the resource row the booking references, then inserts it
func (s *BookingRepositorySuite) mustCreate(b *builder.BookingBuilder) *dombooking.Booking {
	dbtest.CreateTestResource(s.T(), s.DB, b.ResourceID, b.Kind.String(), b.ProviderID)
	entity := b.BuildDomain()
	s.Require().NoError(s.repo.Create(context.Background(), entity))
	return entity
}

// =============================================================================
// TestCreate - conflict detection through the exclusion constraint
// =============================================================================

func (s *BookingRepositorySuite) TestCreate() {
	ctx := context.Background()

	s.Run("overlapping window on the same resource is rejected", func() {
		first := builder.NewBookingBuilder()
		s.mustCreate(first)

		second := builder.NewBookingBuilder().
			WithResourceID(first.ResourceID).
			WithWindow(first.StartTime.Add(time.Hour), first.EndTime.Add(time.Hour))
		dbtest.CreateTestResource(s.T(), s.DB, second.ResourceID, second.Kind.String(), second.ProviderID)

		err := s.repo.Create(ctx, second.BuildDomain())
		s.Require().Error(err)

		var conflict *commands.ConflictError
		s.Require().ErrorAs(err, &conflict)
		s.Equal(first.ID, conflict.ExistingBookingID)
		s.WithinDuration(first.StartTime, conflict.ExistingStart, time.Second)
	})

	s.Run("back-to-back windows coexist", func() {
		first := builder.NewBookingBuilder()
		s.mustCreate(first)

		second := builder.NewBookingBuilder().
			WithResourceID(first.ResourceID).
			WithWindow(first.EndTime, first.EndTime.Add(2*time.Hour))

		s.NoError(s.repo.Create(ctx, second.BuildDomain()))
	})

	s.Run("released windows do not block a new booking", func() {
		cancelled := builder.NewBookingBuilder().WithStatus(dombooking.StatusCancelled)
		s.mustCreate(cancelled)

		rebooked := builder.NewBookingBuilder().
			WithResourceID(cancelled.ResourceID).
			WithWindow(cancelled.StartTime, cancelled.EndTime)

		s.NoError(s.repo.Create(ctx, rebooked.BuildDomain()))
	})

	s.Run("service bookings conflict across one provider's resources", func() {
		providerID := uuid.New()
		first := builder.NewBookingBuilder().
			WithKind(resource.KindService).
			WithProviderID(providerID)
		s.mustCreate(first)

		// Different resource, same provider, overlapping window.
		second := builder.NewBookingBuilder().
			WithKind(resource.KindService).
			WithProviderID(providerID).
			WithWindow(first.StartTime, first.EndTime)
		dbtest.CreateTestResource(s.T(), s.DB, second.ResourceID, second.Kind.String(), providerID)

		err := s.repo.Create(ctx, second.BuildDomain())

		var conflict *commands.ConflictError
		s.Require().ErrorAs(err, &conflict)
		s.Equal(first.ID, conflict.ExistingBookingID)
	})

	s.Run("venue bookings on different resources coexist", func() {
		providerID := uuid.New()
		first := builder.NewBookingBuilder().WithProviderID(providerID)
		s.mustCreate(first)

		second := builder.NewBookingBuilder().
			WithProviderID(providerID).
			WithWindow(first.StartTime, first.EndTime)
		dbtest.CreateTestResource(s.T(), s.DB, second.ResourceID, second.Kind.String(), providerID)

		s.NoError(s.repo.Create(ctx, second.BuildDomain()))
	})
}

// =============================================================================
// TestApplyTransition - optimistic concurrency against the live table
// =============================================================================

func (s *BookingRepositorySuite) TestApplyTransition() {
	ctx := context.Background()

	s.Run("matching expected status commits status and side-effect columns", func() {
		b := builder.NewBookingBuilder()
		s.mustCreate(b)

		sessionID := "sess_e2e_1"
		err := s.repo.ApplyTransition(ctx, b.ID,
			dombooking.StatusPending, dombooking.StatusAwaitingPayment,
			commands.TransitionFields{ExternalSessionID: &sessionID})
		s.Require().NoError(err)

		stored, err := s.repo.FindByID(ctx, b.ID)
		s.Require().NoError(err)
		s.Equal(dombooking.StatusAwaitingPayment, stored.Status())
		s.Require().NotNil(stored.ExternalSessionID())
		s.Equal(sessionID, *stored.ExternalSessionID())
	})

	s.Run("captured amount is persisted and survives a round trip", func() {
		b := builder.NewBookingBuilder().AsAuthorized()
		s.mustCreate(b)

		captured := b.AmountCents / 2
		paymentStatus := dombooking.PaymentStatusCaptured
		err := s.repo.ApplyTransition(ctx, b.ID,
			dombooking.StatusAuthorized, dombooking.StatusConfirmed,
			commands.TransitionFields{PaymentStatus: &paymentStatus, CapturedCents: &captured})
		s.Require().NoError(err)

		stored, err := s.repo.FindByID(ctx, b.ID)
		s.Require().NoError(err)
		s.Require().NotNil(stored.CapturedCents())
		s.Equal(captured, *stored.CapturedCents())
		s.Equal(captured, stored.ChargedCents())
	})

	s.Run("stale expected status is rejected and leaves the row unchanged", func() {
		b := builder.NewBookingBuilder()
		before := s.mustCreate(b)

		err := s.repo.ApplyTransition(ctx, b.ID,
			dombooking.StatusAwaitingPayment, dombooking.StatusAuthorized,
			commands.TransitionFields{})
		s.Require().ErrorIs(err, errs.ErrStaleState)

		after, err := s.repo.FindByID(ctx, b.ID)
		s.Require().NoError(err)

		diff := cmp.Diff(before.Status(), after.Status())
		s.Empty(diff)
	})

	s.Run("binding an already-used payment id is rejected", func() {
		paymentID := "pay_e2e_dup"
		paymentStatus := dombooking.PaymentStatusAuthorized

		first := builder.NewBookingBuilder()
		s.mustCreate(first)
		s.Require().NoError(s.repo.ApplyTransition(ctx, first.ID,
			dombooking.StatusPending, dombooking.StatusAuthorized,
			commands.TransitionFields{ExternalPaymentID: &paymentID, PaymentStatus: &paymentStatus}))

		second := builder.NewBookingBuilder()
		s.mustCreate(second)
		err := s.repo.ApplyTransition(ctx, second.ID,
			dombooking.StatusPending, dombooking.StatusAuthorized,
			commands.TransitionFields{ExternalPaymentID: &paymentID, PaymentStatus: &paymentStatus})

		s.ErrorIs(err, errs.ErrCorrelationKeyInUse)
	})

	s.Run("unknown booking id", func() {
		err := s.repo.ApplyTransition(ctx, uuid.New(),
			dombooking.StatusPending, dombooking.StatusAwaitingPayment,
			commands.TransitionFields{})
		s.ErrorIs(err, errs.ErrBookingNotFound)
	})
}

// =============================================================================
// TestFindByCorrelation
// =============================================================================

func (s *BookingRepositorySuite) TestFindByCorrelation() {
	ctx := context.Background()

	s.Run("resolves by payment id and by session id", func() {
		b := builder.NewBookingBuilder()
		s.mustCreate(b)

		sessionID := "sess_corr_1"
		s.Require().NoError(s.repo.ApplyTransition(ctx, b.ID,
			dombooking.StatusPending, dombooking.StatusAwaitingPayment,
			commands.TransitionFields{ExternalSessionID: &sessionID}))

		paymentID := "pay_corr_1"
		paymentStatus := dombooking.PaymentStatusAuthorized
		s.Require().NoError(s.repo.ApplyTransition(ctx, b.ID,
			dombooking.StatusAwaitingPayment, dombooking.StatusAuthorized,
			commands.TransitionFields{ExternalPaymentID: &paymentID, PaymentStatus: &paymentStatus}))

		bySession, err := s.repo.FindByCorrelation(ctx, payment.Correlation{SessionID: sessionID})
		s.Require().NoError(err)
		s.Equal(b.ID, bySession.ID())

		byPayment, err := s.repo.FindByCorrelation(ctx, payment.Correlation{PaymentID: paymentID})
		s.Require().NoError(err)
		s.Equal(b.ID, byPayment.ID())
	})

	s.Run("unknown correlation key", func() {
		_, err := s.repo.FindByCorrelation(ctx, payment.Correlation{PaymentID: "pay_ghost"})
		s.ErrorIs(err, errs.ErrBookingNotFound)
	})
}

// =============================================================================
// TestListAwaitingPaymentBefore - sweep candidates
// =============================================================================

func (s *BookingRepositorySuite) TestListAwaitingPaymentBefore() {
	ctx := context.Background()

	s.Run("returns only stale awaiting-payment rows", func() {
		stale := builder.NewBookingBuilder().WithStatus(dombooking.StatusAwaitingPayment)
		s.mustCreate(stale)
		// Backdate past the authorization timeout.
		_, err := s.DB.Exec(ctx,
			`UPDATE bookings SET created_at = now() - interval '2 hours' WHERE id = $1`, stale.ID)
		s.Require().NoError(err)

		fresh := builder.NewBookingBuilder().WithStatus(dombooking.StatusAwaitingPayment)
		s.mustCreate(fresh)

		confirmedOld := builder.NewBookingBuilder().WithStatus(dombooking.StatusConfirmed)
		s.mustCreate(confirmedOld)
		_, err = s.DB.Exec(ctx,
			`UPDATE bookings SET created_at = now() - interval '2 hours' WHERE id = $1`, confirmedOld.ID)
		s.Require().NoError(err)

		listed, err := s.repo.ListAwaitingPaymentBefore(ctx, time.Now().Add(-30*time.Minute), 100)
		s.Require().NoError(err)
		s.Require().Len(listed, 1)
		s.Equal(stale.ID, listed[0].ID())
	})
}

// =============================================================================
// TestReadStore - read side joined against the resource catalog
// =============================================================================

func (s *BookingRepositorySuite) TestReadStore() {
	ctx := context.Background()
	store := readstore.NewBookingReadStore(s.DB)

	s.Run("FindByID joins the resource name", func() {
		b := builder.NewBookingBuilder()
		s.mustCreate(b)

		view, err := store.FindByID(ctx, b.ID)
		s.Require().NoError(err)

		s.Equal(b.ID, view.ID)
		s.Equal("Test Resource "+b.ResourceID.String()[:8], view.ResourceName)
		s.Equal(b.AmountCents, view.AmountCents)
		s.Empty(cmp.Diff(b.StartTime, view.StartTime, cmpopts.EquateApproxTime(time.Second)))
	})

	s.Run("FindByRequesterID orders newest first and respects the limit", func() {
		requesterID := uuid.New()

		older := builder.NewBookingBuilder().WithRequesterID(requesterID)
		s.mustCreate(older)
		_, err := s.DB.Exec(ctx,
			`UPDATE bookings SET created_at = now() - interval '1 hour' WHERE id = $1`, older.ID)
		s.Require().NoError(err)

		newerStart := older.EndTime.Add(24 * time.Hour)
		newer := builder.NewBookingBuilder().
			WithRequesterID(requesterID).
			WithWindow(newerStart, newerStart.Add(2*time.Hour))
		s.mustCreate(newer)

		items, err := store.FindByRequesterID(ctx, requesterID, 50, 0)
		s.Require().NoError(err)
		s.Require().Len(items, 2)
		s.Equal(newer.ID, items[0].ID)
		s.Equal(older.ID, items[1].ID)

		limited, err := store.FindByRequesterID(ctx, requesterID, 1, 0)
		s.Require().NoError(err)
		s.Require().Len(limited, 1)
		s.Equal(newer.ID, limited[0].ID)
	})
}
