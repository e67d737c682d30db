package memstore

import (
	"context"
	"sync"

	"booking-core/internal/pkg/errs"
	"booking-core/internal/usecase/commands"

	"github.com/google/uuid"
)

type ResourceCatalog struct {
	mu        sync.RWMutex
	resources map[uuid.UUID]commands.ResourceSnapshot
}

func NewResourceCatalog() *ResourceCatalog {
	return &ResourceCatalog{resources: make(map[uuid.UUID]commands.ResourceSnapshot)}
}

func (c *ResourceCatalog) Put(snap commands.ResourceSnapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resources[snap.ID] = snap
}

func (c *ResourceCatalog) FindByID(_ context.Context, id uuid.UUID) (*commands.ResourceSnapshot, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	snap, ok := c.resources[id]
	if !ok {
		return nil, errs.Mark(errs.New("resource not found"), errs.ErrResourceNotFound)
	}
	return &snap, nil
}

type EventDeduper struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

func NewEventDeduper() *EventDeduper {
	return &EventDeduper{seen: make(map[string]struct{})}
}

func (d *EventDeduper) MarkProcessed(_ context.Context, externalEventID string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[externalEventID]; ok {
		return false, nil
	}
	d.seen[externalEventID] = struct{}{}
	return true, nil
}

func (d *EventDeduper) Forget(_ context.Context, externalEventID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.seen, externalEventID)
	return nil
}

type idemRecord struct {
	requestHash string
	bookingID   *uuid.UUID
}

type IdempotencyStore struct {
	mu     sync.Mutex
	claims map[string]idemRecord
}

func NewIdempotencyStore() *IdempotencyStore {
	return &IdempotencyStore{claims: make(map[string]idemRecord)}
}

func idemKey(key, requesterID uuid.UUID) string {
	return requesterID.String() + ":" + key.String()
}

func (s *IdempotencyStore) Claim(_ context.Context, key, requesterID uuid.UUID, requestHash string) (*commands.IdempotencyClaim, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := idemKey(key, requesterID)
	if record, ok := s.claims[k]; ok {
		return &commands.IdempotencyClaim{
			Acquired:    false,
			RequestHash: record.requestHash,
			BookingID:   record.bookingID,
		}, nil
	}
	s.claims[k] = idemRecord{requestHash: requestHash}
	return &commands.IdempotencyClaim{Acquired: true, RequestHash: requestHash}, nil
}

func (s *IdempotencyStore) Complete(_ context.Context, key, requesterID, bookingID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := idemKey(key, requesterID)
	record, ok := s.claims[k]
	if !ok {
		return errs.New("idempotency claim not found")
	}
	record.bookingID = &bookingID
	s.claims[k] = record
	return nil
}

func (s *IdempotencyStore) Release(_ context.Context, key, requesterID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.claims, idemKey(key, requesterID))
	return nil
}
