package bootstrap

import (
	"context"
	"log/slog"

	"booking-core/internal/infra/pubsub"
	"booking-core/internal/notification"
	"booking-core/internal/usecase/commands"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"go.uber.org/fx"
)

// EventsModule wires the in-process broker, the domain event publisher
// and the notification router. The router runs for the lifetime of the
// app and drains before shutdown completes.
var EventsModule = fx.Module("events",
	fx.Provide(
		NewPubSub,
		fx.Annotate(
			func(ps *gochannel.GoChannel) *pubsub.EventPublisher {
				return pubsub.NewEventPublisher(ps)
			},
			fx.As(new(commands.DomainEventPublisher)),
		),
		notification.NewDispatcher,
		NewNotificationRouter,
	),
	fx.Invoke(RunNotificationRouter),
)

func NewPubSub(lc fx.Lifecycle, logger *slog.Logger) *gochannel.GoChannel {
	ps := pubsub.NewGoChannelPubSub(logger)

	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			return ps.Close()
		},
	})

	return ps
}

func NewNotificationRouter(
	logger *slog.Logger,
	ps *gochannel.GoChannel,
	dispatcher *notification.Dispatcher,
) (*message.Router, error) {
	return notification.NewRouter(logger, ps, dispatcher)
}

func RunNotificationRouter(lc fx.Lifecycle, logger *slog.Logger, router *message.Router) {
	ctx, cancel := context.WithCancel(context.Background())

	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			go func() {
				if err := router.Run(ctx); err != nil {
					logger.Error("通知ルーターの実行に失敗しました", "error", err)
				}
			}()
			<-router.Running()
			return nil
		},
		OnStop: func(_ context.Context) error {
			cancel()
			return router.Close()
		},
	})
}
