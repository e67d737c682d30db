package readstore

import (
	"context"

	"booking-core/internal/infra"
	"booking-core/internal/pkg/errs"
	"booking-core/internal/pkg/pgconv"
	"booking-core/internal/usecase/queries"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

type BookingReadStore struct {
	pool *pgxpool.Pool
}

func NewBookingReadStore(pool *pgxpool.Pool) *BookingReadStore {
	return &BookingReadStore{pool: pool}
}

func (s *BookingReadStore) FindByID(ctx context.Context, id uuid.UUID) (*queries.BookingView, error) {
	var view queries.BookingView
	var externalPaymentID, cancellationReason pgtype.Text
	var refundCents pgtype.Int8
	var refundProcessedAt, cancelledAt pgtype.Timestamptz

	err := s.pool.QueryRow(ctx, `
		SELECT
			b.id, b.kind, b.resource_id, r.name, b.requester_id,
			b.start_time, b.end_time, b.status, b.payment_status,
			b.amount_cents, b.currency,
			b.external_payment_id,
			b.refund_cents, b.refund_processed_at,
			b.cancellation_reason, b.cancelled_at,
			b.created_at, b.updated_at
		FROM bookings b
		JOIN resources r ON r.id = b.resource_id
		WHERE b.id = $1`,
		id,
	).Scan(
		&view.ID, &view.Kind, &view.ResourceID, &view.ResourceName, &view.RequesterID,
		&view.StartTime, &view.EndTime, &view.Status, &view.PaymentStatus,
		&view.AmountCents, &view.Currency,
		&externalPaymentID,
		&refundCents, &refundProcessedAt,
		&cancellationReason, &cancelledAt,
		&view.CreatedAt, &view.UpdatedAt,
	)
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil, errs.Mark(
				infra.WrapRepoErr("booking not found", err, infra.KindNotFound),
				errs.ErrBookingNotFound,
			)
		}
		return nil, infra.WrapRepoErr("failed to find booking view", err)
	}

	view.ExternalPaymentID = pgconv.StringPtrFromPgtype(externalPaymentID)
	view.RefundCents = pgconv.Int64PtrFromPgtype(refundCents)
	view.RefundProcessedAt = pgconv.TimePtrFromPgtype(refundProcessedAt)
	view.CancellationReason = pgconv.StringPtrFromPgtype(cancellationReason)
	view.CancelledAt = pgconv.TimePtrFromPgtype(cancelledAt)

	return &view, nil
}

func (s *BookingReadStore) FindByRequesterID(ctx context.Context, requesterID uuid.UUID, limit, offset int32) ([]*queries.BookingListItem, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT
			b.id, b.kind, b.resource_id, r.name,
			b.start_time, b.end_time, b.status,
			b.amount_cents, b.currency, b.created_at
		FROM bookings b
		JOIN resources r ON r.id = b.resource_id
		WHERE b.requester_id = $1
		ORDER BY b.created_at DESC
		LIMIT $2 OFFSET $3`,
		requesterID, limit, offset,
	)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list bookings", err)
	}
	defer rows.Close()

	var items []*queries.BookingListItem
	for rows.Next() {
		var item queries.BookingListItem
		if err := rows.Scan(
			&item.ID, &item.Kind, &item.ResourceID, &item.ResourceName,
			&item.StartTime, &item.EndTime, &item.Status,
			&item.AmountCents, &item.Currency, &item.CreatedAt,
		); err != nil {
			return nil, infra.WrapRepoErr("failed to scan booking list item", err)
		}
		items = append(items, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to iterate booking list", err)
	}
	return items, nil
}
