package commands

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"booking-core/internal/domain/booking"
	"booking-core/internal/domain/identity"
	"booking-core/internal/domain/resource"
	"booking-core/internal/pkg/clock"
	"booking-core/internal/pkg/errs"

	"github.com/google/uuid"
)

// Bounded transparent retry when a concurrent mutation wins the race.
const maxStaleRetries = 3

type CreateBookingParams struct {
	ResourceID  uuid.UUID
	RequesterID uuid.UUID
	StartTime   time.Time
	EndTime     time.Time
	AmountCents int64
	Currency    string
}

type CreateBookingResult struct {
	BookingID  uuid.UUID
	Status     booking.Status
	IsReplayed bool
}

type CancelBookingResult struct {
	BookingID   uuid.UUID
	Status      booking.Status
	RefundCents int64
}

type CaptureBookingResult struct {
	BookingID     uuid.UUID
	Status        booking.Status
	CapturedCents int64
}

type BookingCommands interface {
	CreateBooking(ctx context.Context, params CreateBookingParams, idempotencyKey uuid.UUID) (*CreateBookingResult, error)
	CancelBooking(ctx context.Context, bookingID, requesterID uuid.UUID, role identity.Role, reason string) (*CancelBookingResult, error)
	CaptureBooking(ctx context.Context, bookingID uuid.UUID, role identity.Role, amountCents *int64) (*CaptureBookingResult, error)
}

type bookingCommandsImpl struct {
	ledger       BookingLedger
	catalog      ResourceCatalog
	gateway      PaymentGateway
	idempotency  IdempotencyStore
	publisher    DomainEventPublisher
	refundPolicy booking.RefundPolicy
	clock        clock.Clock
}

func NewBookingCommands(
	ledger BookingLedger,
	catalog ResourceCatalog,
	gateway PaymentGateway,
	idempotency IdempotencyStore,
	publisher DomainEventPublisher,
	refundPolicy booking.RefundPolicy,
	clock clock.Clock,
) BookingCommands {
	return &bookingCommandsImpl{
		ledger:       ledger,
		catalog:      catalog,
		gateway:      gateway,
		idempotency:  idempotency,
		publisher:    publisher,
		refundPolicy: refundPolicy,
		clock:        clock,
	}
}

func (c *bookingCommandsImpl) CreateBooking(
	ctx context.Context,
	params CreateBookingParams,
	idempotencyKey uuid.UUID,
) (*CreateBookingResult, error) {
	requestHash := calculateRequestHash(params)

	claim, err := c.idempotency.Claim(ctx, idempotencyKey, params.RequesterID, requestHash)
	if err != nil {
		return nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}
	if !claim.Acquired {
		if claim.RequestHash != requestHash {
			return nil, errs.ErrDuplicateBookingIntent
		}
		if claim.BookingID == nil {
			return nil, errs.ErrIdempotencyInProgress
		}
		existing, err := c.ledger.FindByID(ctx, *claim.BookingID)
		if err != nil {
			return nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
		}
		return &CreateBookingResult{
			BookingID:  existing.ID(),
			Status:     existing.Status(),
			IsReplayed: true,
		}, nil
	}

	result, err := c.createNewBooking(ctx, params)
	if err != nil {
		// Free the key so the caller can retry after fixing the request.
		if releaseErr := c.idempotency.Release(ctx, idempotencyKey, params.RequesterID); releaseErr != nil {
			slog.Warn("failed to release idempotency claim", "error", releaseErr.Error())
		}
		return nil, err
	}

	if err := c.idempotency.Complete(ctx, idempotencyKey, params.RequesterID, result.BookingID); err != nil {
		slog.Warn("failed to complete idempotency claim", "booking_id", result.BookingID, "error", err.Error())
	}

	return result, nil
}

func (c *bookingCommandsImpl) createNewBooking(
	ctx context.Context,
	params CreateBookingParams,
) (*CreateBookingResult, error) {
	snap, err := c.catalog.FindByID(ctx, params.ResourceID)
	if err != nil {
		return nil, errs.Mark(err, errs.ErrResourceNotFound)
	}

	entity, err := c.buildBooking(params, snap)
	if err != nil {
		return nil, err
	}

	// Atomic with the overlap check at the ledger boundary; two
	// concurrent requests for the same window are linearized there.
	if err := c.ledger.Create(ctx, entity); err != nil {
		var conflict *ConflictError
		if errors.As(err, &conflict) {
			return nil, conflict
		}
		return nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}

	return &CreateBookingResult{
		BookingID: entity.ID(),
		Status:    c.requestAuthorization(ctx, entity),
	}, nil
}

func (c *bookingCommandsImpl) buildBooking(params CreateBookingParams, snap *ResourceSnapshot) (*booking.Booking, error) {
	window, err := booking.NewTimeWindow(params.StartTime, params.EndTime)
	if err != nil {
		return nil, errs.Mark(err, errs.ErrInvalidWindow)
	}

	currency := params.Currency
	if currency == "" {
		currency = snap.Currency
	}
	amountCents := params.AmountCents
	if amountCents == 0 {
		amountCents = snap.HourlyCents * int64(window.Duration().Hours())
	}
	amount, err := booking.NewMoney(amountCents, currency)
	if err != nil {
		return nil, errs.Mark(err, errs.ErrDomainValidation)
	}

	res, err := resource.NewResource(snap.ID, snap.Kind, snap.Name, snap.ProviderID, snap.HourlyCents, snap.Currency)
	if err != nil {
		return nil, errs.Mark(err, errs.ErrDomainValidation)
	}

	entity, err := booking.NewBooking(res, params.RequesterID, window, amount, c.clock.Now())
	if err != nil {
		return nil, errs.Mark(err, errs.ErrDomainValidation)
	}
	return entity, nil
}

// requestAuthorization moves the fresh booking to AWAITING_PAYMENT.
// The gateway return value is only an acknowledgment; a failed ack
// leaves the booking waiting for either a payment event or the sweep.
func (c *bookingCommandsImpl) requestAuthorization(ctx context.Context, entity *booking.Booking) booking.Status {
	fields := TransitionFields{}

	ack, err := c.gateway.Authorize(ctx, AuthorizeRequest{
		BookingID:   entity.ID(),
		AmountCents: entity.Amount().Cents(),
		Currency:    entity.Amount().Currency(),
	})
	if err != nil {
		slog.Warn("payment authorization request not acknowledged",
			"booking_id", entity.ID(), "error", err.Error())
	} else if ack != nil && ack.ExternalSessionID != "" {
		fields.ExternalSessionID = &ack.ExternalSessionID
	}

	next := booking.StatusAwaitingPayment
	if err := c.ledger.ApplyTransition(ctx, entity.ID(), booking.StatusPending, next, fields); err != nil {
		slog.Error("failed to record authorization request",
			"booking_id", entity.ID(), "error", err.Error())
		return booking.StatusPending
	}
	return next
}

func (c *bookingCommandsImpl) CancelBooking(
	ctx context.Context,
	bookingID, requesterID uuid.UUID,
	role identity.Role,
	reason string,
) (*CancelBookingResult, error) {
	if err := booking.ValidateCancellationReason(reason); err != nil {
		return nil, errs.Mark(err, errs.ErrCancellationReason)
	}

	entity, err := c.ledger.FindByID(ctx, bookingID)
	if err != nil {
		return nil, errs.Mark(err, errs.ErrBookingNotFound)
	}

	// Only the original requester or a manager may cancel.
	if !entity.OwnedBy(requesterID) && !role.CanManageBookings() {
		return nil, errs.ErrForbidden
	}

	for attempt := 0; ; attempt++ {
		current := entity.Status()
		if _, err := booking.NextStatus(current, booking.TriggerCancel); err != nil {
			return nil, errs.Mark(err, errs.ErrInvalidTransition)
		}

		now := c.clock.Now()
		// A partial capture shrinks the refundable base below the
		// original booking amount.
		refund := c.refundPolicy.RefundCents(entity.ChargedCents(), entity.Window().Start(), now)
		if err := entity.ValidateRefund(refund); err != nil {
			return nil, errs.Mark(err, errs.ErrRefundExceedsCharge)
		}

		fields := TransitionFields{
			RefundCents:        &refund,
			CancellationReason: &reason,
			CancelledAt:        &now,
			CancelledBy:        &requesterID,
		}

		err = c.ledger.ApplyTransition(ctx, bookingID, current, booking.StatusCancelled, fields)
		if err == nil {
			c.afterCancelCommit(ctx, entity, reason, refund, now)
			return &CancelBookingResult{
				BookingID:   bookingID,
				Status:      booking.StatusCancelled,
				RefundCents: refund,
			}, nil
		}
		if !errors.Is(err, errs.ErrStaleState) || attempt >= maxStaleRetries {
			return nil, err
		}

		// Lost the race; reconcile against the committed state.
		entity, err = c.ledger.FindByID(ctx, bookingID)
		if err != nil {
			return nil, errs.Mark(err, errs.ErrBookingNotFound)
		}
	}
}

// afterCancelCommit runs the post-commit effects: refund issuance via
// the gateway and the Cancelled domain event. Neither may precede the
// ledger mutation.
func (c *bookingCommandsImpl) afterCancelCommit(ctx context.Context, entity *booking.Booking, reason string, refund int64, now time.Time) {
	if refund > 0 && entity.ExternalPaymentID() != nil {
		if err := c.gateway.Refund(ctx, *entity.ExternalPaymentID(), refund, reason); err != nil {
			// The adapter retries per its own policy; the refunded
			// event will move the booking to REFUNDED when it lands.
			slog.Warn("refund request not acknowledged",
				"booking_id", entity.ID(), "error", err.Error())
		}
	}

	ev := booking.CancelledEvent{
		BookingID:   entity.ID(),
		ResourceID:  entity.ResourceID(),
		RequesterID: entity.RequesterID(),
		Reason:      reason,
		RefundCents: refund,
		OccurredAt:  now,
	}
	if err := c.publisher.PublishCancelled(ctx, ev); err != nil {
		slog.Error("failed to publish cancelled event", "booking_id", entity.ID(), "error", err.Error())
	}
}

func (c *bookingCommandsImpl) CaptureBooking(
	ctx context.Context,
	bookingID uuid.UUID,
	role identity.Role,
	amountCents *int64,
) (*CaptureBookingResult, error) {
	if !role.CanManageBookings() {
		return nil, errs.ErrForbidden
	}

	entity, err := c.ledger.FindByID(ctx, bookingID)
	if err != nil {
		return nil, errs.Mark(err, errs.ErrBookingNotFound)
	}

	if _, err := booking.NextStatus(entity.Status(), booking.TriggerCaptured); err != nil {
		return nil, errs.Mark(err, errs.ErrInvalidTransition)
	}
	if entity.ExternalPaymentID() == nil {
		return nil, errs.Mark(errs.New("no external payment to capture"), errs.ErrInvalidTransition)
	}

	// Full capture when no amount is given.
	captured := entity.Amount().Cents()
	if amountCents != nil {
		if *amountCents <= 0 || *amountCents > entity.Amount().Cents() {
			return nil, errs.Mark(errs.New("capture amount out of range"), errs.ErrDomainValidation)
		}
		captured = *amountCents
	}

	if err := c.gateway.Capture(ctx, *entity.ExternalPaymentID(), amountCents); err != nil {
		return nil, errs.Mark(err, errs.ErrGateway)
	}

	payment := booking.PaymentStatusCaptured
	fields := TransitionFields{PaymentStatus: &payment, CapturedCents: &captured}
	err = c.ledger.ApplyTransition(ctx, bookingID, booking.StatusAuthorized, booking.StatusConfirmed, fields)
	if err != nil {
		if errors.Is(err, errs.ErrStaleState) {
			// A concurrent captured event may have confirmed it already.
			committed, findErr := c.ledger.FindByID(ctx, bookingID)
			if findErr == nil && committed.Status() == booking.StatusConfirmed {
				return &CaptureBookingResult{
					BookingID:     bookingID,
					Status:        booking.StatusConfirmed,
					CapturedCents: captured,
				}, nil
			}
		}
		return nil, err
	}

	ev := booking.BookedEvent{
		BookingID:   entity.ID(),
		ResourceID:  entity.ResourceID(),
		RequesterID: entity.RequesterID(),
		AmountCents: captured,
		Currency:    entity.Amount().Currency(),
		OccurredAt:  c.clock.Now(),
	}
	if err := c.publisher.PublishBooked(ctx, ev); err != nil {
		slog.Error("failed to publish booked event", "booking_id", entity.ID(), "error", err.Error())
	}

	return &CaptureBookingResult{
		BookingID:     bookingID,
		Status:        booking.StatusConfirmed,
		CapturedCents: captured,
	}, nil
}

func calculateRequestHash(params CreateBookingParams) string {
	data, _ := json.Marshal(params)
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}
