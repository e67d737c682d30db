package commands

import (
	"context"
	"errors"
	"log/slog"

	"booking-core/internal/domain/booking"
	"booking-core/internal/domain/payment"
	"booking-core/internal/pkg/clock"
	"booking-core/internal/pkg/errs"
)

type IngestOutcome string

const (
	// OutcomeApplied: the event drove exactly one ledger transition.
	OutcomeApplied IngestOutcome = "applied"
	// OutcomeDuplicate: same external event id seen before; dropped.
	OutcomeDuplicate IngestOutcome = "duplicate"
	// OutcomeAlreadySatisfied: re-delivered meaning, new id; no-op.
	OutcomeAlreadySatisfied IngestOutcome = "already_satisfied"
)

type IngestResult struct {
	Outcome IngestOutcome
	Status  booking.Status
}

type PaymentEventCommands interface {
	IngestPaymentEvent(ctx context.Context, ev payment.Event) (*IngestResult, error)
}

type paymentEventCommandsImpl struct {
	ledger    BookingLedger
	deduper   EventDeduper
	publisher DomainEventPublisher
	clock     clock.Clock
}

func NewPaymentEventCommands(
	ledger BookingLedger,
	deduper EventDeduper,
	publisher DomainEventPublisher,
	clock clock.Clock,
) PaymentEventCommands {
	return &paymentEventCommandsImpl{
		ledger:    ledger,
		deduper:   deduper,
		publisher: publisher,
		clock:     clock,
	}
}

// eventTrigger maps normalized event kinds onto lifecycle triggers.
// A gateway-side "cancelled" voids the authorization, so it lands as
// a payment failure, not a user cancellation.
func eventTrigger(kind payment.EventKind) (booking.Trigger, bool) {
	switch kind {
	case payment.KindAuthorized:
		return booking.TriggerPaymentAuthorized, true
	case payment.KindCaptured:
		return booking.TriggerCaptured, true
	case payment.KindFailed, payment.KindCancelled:
		return booking.TriggerPaymentFailed, true
	case payment.KindRefunded:
		return booking.TriggerRefundProcessed, true
	default:
		return "", false
	}
}

// satisfiedStatus is the state a booking ends up in once the event's
// meaning has been applied; re-delivery with a fresh event id against
// that state is a no-op, not a contradiction.
func satisfiedStatus(trg booking.Trigger) booking.Status {
	switch trg {
	case booking.TriggerPaymentAuthorized:
		return booking.StatusAuthorized
	case booking.TriggerCaptured:
		return booking.StatusConfirmed
	case booking.TriggerPaymentFailed:
		return booking.StatusFailed
	case booking.TriggerRefundProcessed:
		return booking.StatusRefunded
	default:
		return ""
	}
}

func (c *paymentEventCommandsImpl) IngestPaymentEvent(ctx context.Context, ev payment.Event) (*IngestResult, error) {
	trigger, ok := eventTrigger(ev.Kind)
	if !ok {
		return nil, errs.ErrMalformedEvent
	}

	fresh, err := c.deduper.MarkProcessed(ctx, ev.ExternalEventID)
	if err != nil {
		return nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}
	if !fresh {
		return &IngestResult{Outcome: OutcomeDuplicate}, nil
	}

	result, err := c.applyEvent(ctx, ev, trigger)
	if err != nil {
		// Contradictory events stay marked: redelivering them must not
		// re-run the rejection path. Transient failures are forgotten
		// so the provider's retry can land.
		if !errors.Is(err, errs.ErrInvalidTransition) {
			if forgetErr := c.deduper.Forget(ctx, ev.ExternalEventID); forgetErr != nil {
				slog.Warn("failed to release dedupe mark",
					"external_event_id", ev.ExternalEventID, "error", forgetErr.Error())
			}
		}
		return nil, err
	}
	return result, nil
}

func (c *paymentEventCommandsImpl) applyEvent(ctx context.Context, ev payment.Event, trigger booking.Trigger) (*IngestResult, error) {
	entity, err := c.ledger.FindByCorrelation(ctx, ev.Correlation)
	if err != nil {
		if errors.Is(err, errs.ErrBookingNotFound) {
			return nil, errs.Mark(err, errs.ErrUnknownCorrelation)
		}
		return nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}

	for attempt := 0; ; attempt++ {
		current := entity.Status()

		next, transitionErr := booking.NextStatus(current, trigger)
		if transitionErr != nil {
			if current == satisfiedStatus(trigger) {
				return &IngestResult{Outcome: OutcomeAlreadySatisfied, Status: current}, nil
			}
			return nil, errs.Mark(transitionErr, errs.ErrInvalidTransition)
		}

		fields, fieldsErr := c.transitionFields(entity, ev, trigger)
		if fieldsErr != nil {
			return nil, fieldsErr
		}

		err = c.ledger.ApplyTransition(ctx, entity.ID(), current, next, fields)
		if err == nil {
			c.afterEventCommit(ctx, entity, ev, next)
			return &IngestResult{Outcome: OutcomeApplied, Status: next}, nil
		}
		if !errors.Is(err, errs.ErrStaleState) || attempt >= maxStaleRetries {
			return nil, err
		}

		entity, err = c.ledger.FindByID(ctx, entity.ID())
		if err != nil {
			return nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
		}
	}
}

func (c *paymentEventCommandsImpl) transitionFields(entity *booking.Booking, ev payment.Event, trigger booking.Trigger) (TransitionFields, error) {
	var fields TransitionFields

	switch trigger {
	case booking.TriggerPaymentAuthorized:
		status := booking.PaymentStatusAuthorized
		fields.PaymentStatus = &status
		if ev.Correlation.PaymentID != "" {
			fields.ExternalPaymentID = &ev.Correlation.PaymentID
		}

	case booking.TriggerCaptured:
		status := booking.PaymentStatusCaptured
		captured := ev.AmountCents
		if captured <= 0 || captured > entity.Amount().Cents() {
			// Events without a usable amount mean a full capture.
			captured = entity.Amount().Cents()
		}
		fields.PaymentStatus = &status
		fields.CapturedCents = &captured

	case booking.TriggerPaymentFailed:
		status := booking.PaymentStatusFailed
		fields.PaymentStatus = &status

	case booking.TriggerRefundProcessed:
		refund := ev.AmountCents
		if refund == 0 && entity.RefundCents() != nil {
			refund = *entity.RefundCents()
		}
		if err := entity.ValidateRefund(refund); err != nil {
			return fields, errs.Mark(err, errs.ErrRefundExceedsCharge)
		}
		status := booking.PaymentStatusRefunded
		processedAt := ev.OccurredAt
		fields.PaymentStatus = &status
		fields.RefundCents = &refund
		fields.RefundProcessedAt = &processedAt
	}

	return fields, nil
}

// afterEventCommit emits the Booked event for the capture path; the
// cancellation event belongs to the cancel command, and failures stay
// silent towards requesters.
func (c *paymentEventCommandsImpl) afterEventCommit(ctx context.Context, entity *booking.Booking, ev payment.Event, next booking.Status) {
	if next != booking.StatusConfirmed {
		return
	}

	amount := ev.AmountCents
	if amount == 0 {
		amount = entity.Amount().Cents()
	}
	domainEv := booking.BookedEvent{
		BookingID:   entity.ID(),
		ResourceID:  entity.ResourceID(),
		RequesterID: entity.RequesterID(),
		AmountCents: amount,
		Currency:    entity.Amount().Currency(),
		OccurredAt:  c.clock.Now(),
	}
	if err := c.publisher.PublishBooked(ctx, domainEv); err != nil {
		slog.Error("failed to publish booked event", "booking_id", entity.ID(), "error", err.Error())
	}
}
