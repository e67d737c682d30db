package redisstore

import (
	"context"
	"time"

	"booking-core/internal/infra"

	"github.com/redis/go-redis/v9"
)

const dedupeKeyPrefix = "payment:event:"

// EventDeduper remembers processed webhook event ids with a TTL that
// outlives the provider's retry window. SETNX gives us atomic
// first-writer-wins across app instances.
type EventDeduper struct {
	client *redis.Client
	ttl    time.Duration
}

func NewEventDeduper(client *redis.Client, ttl time.Duration) *EventDeduper {
	return &EventDeduper{client: client, ttl: ttl}
}

func (d *EventDeduper) MarkProcessed(ctx context.Context, externalEventID string) (bool, error) {
	acquired, err := d.client.SetNX(ctx, dedupeKeyPrefix+externalEventID, "1", d.ttl).Result()
	if err != nil {
		return false, infra.WrapRepoErr("failed to mark event processed", err)
	}
	return acquired, nil
}

func (d *EventDeduper) Forget(ctx context.Context, externalEventID string) error {
	if err := d.client.Del(ctx, dedupeKeyPrefix+externalEventID).Err(); err != nil {
		return infra.WrapRepoErr("failed to forget event", err)
	}
	return nil
}
