package redisstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"booking-core/internal/infra"
	"booking-core/internal/usecase/commands"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// IdempotencyStore backs the Idempotency-Key creation contract. A
// claim record holds the request hash immediately and the booking id
// once creation commits, so replays can tell "same request, here is
// your booking" from "same key, different request".
type IdempotencyStore struct {
	client *redis.Client
	ttl    time.Duration
}

type claimRecord struct {
	RequestHash string     `json:"request_hash"`
	BookingID   *uuid.UUID `json:"booking_id,omitempty"`
}

func NewIdempotencyStore(client *redis.Client, ttl time.Duration) *IdempotencyStore {
	return &IdempotencyStore{client: client, ttl: ttl}
}

func claimKey(key, requesterID uuid.UUID) string {
	// Scoped per requester so one client cannot replay another's key.
	return fmt.Sprintf("booking:idempotency:%s:%s", requesterID, key)
}

func (s *IdempotencyStore) Claim(ctx context.Context, key, requesterID uuid.UUID, requestHash string) (*commands.IdempotencyClaim, error) {
	payload, err := json.Marshal(claimRecord{RequestHash: requestHash})
	if err != nil {
		return nil, infra.WrapRepoErr("failed to marshal idempotency claim", err)
	}

	redisKey := claimKey(key, requesterID)
	acquired, err := s.client.SetNX(ctx, redisKey, payload, s.ttl).Result()
	if err != nil {
		return nil, infra.WrapRepoErr("failed to claim idempotency key", err)
	}
	if acquired {
		return &commands.IdempotencyClaim{Acquired: true, RequestHash: requestHash}, nil
	}

	raw, err := s.client.Get(ctx, redisKey).Bytes()
	if err != nil {
		if err == redis.Nil {
			// The holder released between our SETNX and GET; treat as a
			// lost race and let the caller retry.
			return &commands.IdempotencyClaim{Acquired: false, RequestHash: ""}, nil
		}
		return nil, infra.WrapRepoErr("failed to read idempotency claim", err)
	}

	var record claimRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, infra.WrapRepoErr("failed to unmarshal idempotency claim", err)
	}

	return &commands.IdempotencyClaim{
		Acquired:    false,
		RequestHash: record.RequestHash,
		BookingID:   record.BookingID,
	}, nil
}

func (s *IdempotencyStore) Complete(ctx context.Context, key, requesterID, bookingID uuid.UUID) error {
	redisKey := claimKey(key, requesterID)

	raw, err := s.client.Get(ctx, redisKey).Bytes()
	if err != nil {
		return infra.WrapRepoErr("failed to read idempotency claim for completion", err)
	}

	var record claimRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		return infra.WrapRepoErr("failed to unmarshal idempotency claim", err)
	}
	record.BookingID = &bookingID

	payload, err := json.Marshal(record)
	if err != nil {
		return infra.WrapRepoErr("failed to marshal idempotency claim", err)
	}
	if err := s.client.Set(ctx, redisKey, payload, redis.KeepTTL).Err(); err != nil {
		return infra.WrapRepoErr("failed to complete idempotency claim", err)
	}
	return nil
}

func (s *IdempotencyStore) Release(ctx context.Context, key, requesterID uuid.UUID) error {
	if err := s.client.Del(ctx, claimKey(key, requesterID)).Err(); err != nil {
		return infra.WrapRepoErr("failed to release idempotency key", err)
	}
	return nil
}
