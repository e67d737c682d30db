package queries

import (
	"context"
	"time"

	"booking-core/internal/domain/identity"
	"booking-core/internal/pkg/errs"

	"github.com/google/uuid"
)

// Read models (DTO for read side)
type BookingView struct {
	ID                 uuid.UUID  `json:"id"`
	Kind               string     `json:"kind"`
	ResourceID         uuid.UUID  `json:"resource_id"`
	ResourceName       string     `json:"resource_name"`
	RequesterID        uuid.UUID  `json:"requester_id"`
	StartTime          time.Time  `json:"start_time"`
	EndTime            time.Time  `json:"end_time"`
	Status             string     `json:"status"`
	PaymentStatus      string     `json:"payment_status"`
	AmountCents        int64      `json:"amount_cents"`
	Currency           string     `json:"currency"`
	ExternalPaymentID  *string    `json:"external_payment_id,omitempty"`
	RefundCents        *int64     `json:"refund_cents,omitempty"`
	RefundProcessedAt  *time.Time `json:"refund_processed_at,omitempty"`
	CancellationReason *string    `json:"cancellation_reason,omitempty"`
	CancelledAt        *time.Time `json:"cancelled_at,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

type BookingListItem struct {
	ID           uuid.UUID `json:"id"`
	Kind         string    `json:"kind"`
	ResourceID   uuid.UUID `json:"resource_id"`
	ResourceName string    `json:"resource_name"`
	StartTime    time.Time `json:"start_time"`
	EndTime      time.Time `json:"end_time"`
	Status       string    `json:"status"`
	AmountCents  int64     `json:"amount_cents"`
	Currency     string    `json:"currency"`
	CreatedAt    time.Time `json:"created_at"`
}

type BookingReadStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*BookingView, error)
	FindByRequesterID(ctx context.Context, requesterID uuid.UUID, limit, offset int32) ([]*BookingListItem, error)
}

type BookingQueries interface {
	GetByID(ctx context.Context, actorID uuid.UUID, role identity.Role, id uuid.UUID) (*BookingView, error)
	ListByRequester(ctx context.Context, requesterID uuid.UUID, limit int) ([]*BookingListItem, error)
}

type bookingQueriesImpl struct {
	store BookingReadStore
}

func NewBookingQueries(store BookingReadStore) BookingQueries {
	return &bookingQueriesImpl{store: store}
}

func (q *bookingQueriesImpl) GetByID(ctx context.Context, actorID uuid.UUID, role identity.Role, id uuid.UUID) (*BookingView, error) {
	view, err := q.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if view.RequesterID != actorID && !role.CanManageBookings() {
		return nil, errs.ErrForbidden
	}

	return view, nil
}

func (q *bookingQueriesImpl) ListByRequester(ctx context.Context, requesterID uuid.UUID, limit int) ([]*BookingListItem, error) {
	if limit <= 0 || limit > 50 {
		limit = 50
	}
	return q.store.FindByRequesterID(ctx, requesterID, int32(limit), 0)
}
