package pubsub

import (
	"context"
	"encoding/json"
	"log/slog"

	"booking-core/internal/domain/booking"
	"booking-core/internal/pkg/errs"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// NewGoChannelPubSub builds the in-process broker. Both the publisher
// and the subscriber side of the notification router share it.
func NewGoChannelPubSub(logger *slog.Logger) *gochannel.GoChannel {
	return gochannel.NewGoChannel(
		gochannel.Config{OutputChannelBuffer: 64},
		watermill.NewSlogLogger(logger),
	)
}

type domainEvent interface {
	Topic() string
}

// EventPublisher emits booking domain events onto the broker. Callers
// publish only after the ledger transition has committed.
type EventPublisher struct {
	publisher message.Publisher
}

func NewEventPublisher(publisher message.Publisher) *EventPublisher {
	return &EventPublisher{publisher: publisher}
}

func (p *EventPublisher) PublishBooked(ctx context.Context, ev booking.BookedEvent) error {
	return p.publish(ctx, ev)
}

func (p *EventPublisher) PublishCancelled(ctx context.Context, ev booking.CancelledEvent) error {
	return p.publish(ctx, ev)
}

func (p *EventPublisher) publish(ctx context.Context, ev domainEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return errs.Wrap(err, "failed to marshal domain event")
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.SetContext(ctx)

	if err := p.publisher.Publish(ev.Topic(), msg); err != nil {
		return errs.Wrap(err, "failed to publish domain event")
	}
	return nil
}
