package notification

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"booking-core/internal/domain/booking"
	"booking-core/internal/pkg/errs"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
)

// Dispatcher consumes booking domain events and fans out notifications.
// Delivery from the broker is at-least-once, so handling is keyed on
// the message uuid to stay idempotent across redeliveries.
type Dispatcher struct {
	logger *slog.Logger

	mu      sync.Mutex
	handled map[string]struct{}
}

func NewDispatcher(logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		logger:  logger,
		handled: make(map[string]struct{}),
	}
}

// NewRouter wires the dispatcher onto the broker.
func NewRouter(
	logger *slog.Logger,
	subscriber message.Subscriber,
	dispatcher *Dispatcher,
) (*message.Router, error) {
	watermillLogger := watermill.NewSlogLogger(logger)

	router, err := message.NewRouter(message.RouterConfig{}, watermillLogger)
	if err != nil {
		return nil, errs.Wrap(err, "failed to build notification router")
	}

	router.AddMiddleware(middleware.Recoverer)
	router.AddMiddleware(middleware.Retry{
		MaxRetries:      5,
		InitialInterval: 100 * time.Millisecond,
		MaxInterval:     time.Second,
		Multiplier:      2,
		Logger:          watermillLogger,
	}.Middleware)

	router.AddNoPublisherHandler(
		"notification.booking_confirmed",
		booking.TopicBooked,
		subscriber,
		dispatcher.HandleBooked,
	)
	router.AddNoPublisherHandler(
		"notification.booking_cancelled",
		booking.TopicCancelled,
		subscriber,
		dispatcher.HandleCancelled,
	)

	return router, nil
}

func (d *Dispatcher) HandleBooked(msg *message.Message) error {
	if !d.markHandled(msg.UUID) {
		return nil
	}

	var ev booking.BookedEvent
	if err := json.Unmarshal(msg.Payload, &ev); err != nil {
		// A payload we cannot parse will never parse; drop it.
		d.logger.Error("malformed booked event", "message_uuid", msg.UUID, "error", err)
		return nil
	}

	// Notification transport (mail, push) plugs in here; the core only
	// guarantees the event reaches this point exactly once per message.
	d.logger.Info("booking confirmed notification",
		"booking_id", ev.BookingID,
		"requester_id", ev.RequesterID,
		"amount_cents", ev.AmountCents,
		"currency", ev.Currency,
	)
	return nil
}

func (d *Dispatcher) HandleCancelled(msg *message.Message) error {
	if !d.markHandled(msg.UUID) {
		return nil
	}

	var ev booking.CancelledEvent
	if err := json.Unmarshal(msg.Payload, &ev); err != nil {
		d.logger.Error("malformed cancelled event", "message_uuid", msg.UUID, "error", err)
		return nil
	}

	d.logger.Info("booking cancelled notification",
		"booking_id", ev.BookingID,
		"requester_id", ev.RequesterID,
		"reason", ev.Reason,
		"refund_cents", ev.RefundCents,
	)
	return nil
}

func (d *Dispatcher) markHandled(messageUUID string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.handled[messageUUID]; ok {
		return false
	}
	d.handled[messageUUID] = struct{}{}
	return true
}
