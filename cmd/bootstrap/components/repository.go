package components

import (
	"booking-core/internal/infra/readstore"
	"booking-core/internal/infra/redisstore"
	repo_impl "booking-core/internal/infra/repository"
	"booking-core/internal/pkg/config"
	"booking-core/internal/usecase/commands"
	"booking-core/internal/usecase/queries"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
)

var RepositoryModule = fx.Module("repository",
	fx.Provide(
		fx.Annotate(
			repo_impl.NewBookingRepository,
			fx.As(new(commands.BookingLedger)),
		),
		fx.Annotate(
			repo_impl.NewResourceRepository,
			fx.As(new(commands.ResourceCatalog)),
		),
		fx.Annotate(
			NewEventDeduper,
			fx.As(new(commands.EventDeduper)),
		),
		fx.Annotate(
			NewIdempotencyStore,
			fx.As(new(commands.IdempotencyStore)),
		),
		// Read-side repository for queries
		fx.Annotate(
			readstore.NewBookingReadStore,
			fx.As(new(queries.BookingReadStore)),
		),
	),
)

func NewEventDeduper(client *redis.Client, cfg config.Config) *redisstore.EventDeduper {
	return redisstore.NewEventDeduper(client, cfg.Payment.EventDedupeTTL)
}

func NewIdempotencyStore(client *redis.Client, cfg config.Config) *redisstore.IdempotencyStore {
	return redisstore.NewIdempotencyStore(client, cfg.Booking.IdempotencyTTL)
}
