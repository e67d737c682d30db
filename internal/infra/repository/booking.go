package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"booking-core/internal/domain/booking"
	"booking-core/internal/domain/payment"
	"booking-core/internal/domain/resource"
	"booking-core/internal/infra"
	"booking-core/internal/pkg/errs"
	"booking-core/internal/pkg/pgconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"booking-core/internal/usecase/commands"
)

const bookingColumns = `
	id, kind, resource_id, provider_id, requester_id,
	start_time, end_time, status, payment_status,
	amount_cents, currency, captured_cents,
	external_payment_id, external_session_id,
	refund_cents, refund_processed_at,
	cancellation_reason, cancelled_at, cancelled_by,
	created_at, updated_at`

// BookingRepository is the pgx-backed booking ledger. The overlap
// check and insertion run in one transaction; the tstzrange exclusion
// constraint backstops the race two concurrent transactions can still
// produce.
type BookingRepository struct {
	pool *pgxpool.Pool
}

func NewBookingRepository(pool *pgxpool.Pool) *BookingRepository {
	return &BookingRepository{pool: pool}
}

func (r *BookingRepository) Create(ctx context.Context, b *booking.Booking) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return infra.WrapRepoErr("failed to begin transaction", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// Service bookings also guard against provider double-booking
	// across that provider's resources, which the per-resource
	// exclusion constraint cannot express.
	if b.Kind() == resource.KindService {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1::text))`, b.ProviderID()); err != nil {
			return infra.WrapRepoErr("failed to acquire provider lock", err)
		}
	}

	if conflictErr := r.findConflict(ctx, tx, b); conflictErr != nil {
		return conflictErr
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO bookings (
			id, kind, resource_id, provider_id, requester_id,
			start_time, end_time, status, payment_status,
			amount_cents, currency
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		b.ID(), b.Kind().String(), b.ResourceID(), b.ProviderID(), b.RequesterID(),
		b.Window().Start(), b.Window().End(), b.Status().String(), b.PaymentStatus().String(),
		b.Amount().Cents(), b.Amount().Currency(),
	)
	if err != nil {
		if pgconv.IsExclusionViolation(err) {
			// The tx is aborted at this point, so the losing booking is
			// looked up on a fresh connection.
			if conflictErr := r.findConflict(ctx, r.pool, b); conflictErr != nil {
				return conflictErr
			}
			return infra.WrapRepoErr("booking window conflict", err, infra.KindConflict)
		}
		return infra.WrapRepoErr("failed to create booking", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return infra.WrapRepoErr("failed to commit booking creation", err)
	}
	return nil
}

type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func (r *BookingRepository) findConflict(ctx context.Context, q rowQuerier, b *booking.Booking) error {
	query := `
		SELECT id, start_time, end_time FROM bookings
		WHERE status NOT IN ('CANCELLED', 'FAILED', 'REFUNDED')
		  AND tstzrange(start_time, end_time, '[)') && tstzrange($1, $2, '[)')
		  AND (resource_id = $3`
	args := []any{b.Window().Start(), b.Window().End(), b.ResourceID()}
	if b.Kind() == resource.KindService {
		query += ` OR (kind = 'SERVICE' AND provider_id = $4)`
		args = append(args, b.ProviderID())
	}
	query += `) LIMIT 1`

	var existingID uuid.UUID
	var start, end time.Time
	err := q.QueryRow(ctx, query, args...).Scan(&existingID, &start, &end)
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil
		}
		return infra.WrapRepoErr("failed to check booking conflicts", err)
	}

	return &commands.ConflictError{
		ExistingBookingID: existingID,
		ExistingStart:     start,
		ExistingEnd:       end,
	}
}

func (r *BookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*booking.Booking, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, id)
	entity, err := scanBooking(row)
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil, errs.Mark(
				infra.WrapRepoErr("booking not found", err, infra.KindNotFound),
				errs.ErrBookingNotFound,
			)
		}
		return nil, infra.WrapRepoErr("failed to find booking by id", err)
	}
	return entity, nil
}

func (r *BookingRepository) FindByCorrelation(ctx context.Context, corr payment.Correlation) (*booking.Booking, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+bookingColumns+` FROM bookings
		WHERE ($1 <> '' AND external_payment_id = $1)
		   OR ($2 <> '' AND external_session_id = $2)
		LIMIT 1`,
		corr.PaymentID, corr.SessionID,
	)
	entity, err := scanBooking(row)
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil, errs.Mark(
				infra.WrapRepoErr("no booking for correlation key", err, infra.KindNotFound),
				errs.ErrBookingNotFound,
			)
		}
		return nil, infra.WrapRepoErr("failed to find booking by correlation key", err)
	}
	return entity, nil
}

// ApplyTransition is the optimistic-concurrency mutation primitive:
// the UPDATE only matches when the current status equals expected, so
// concurrent attempts on one booking are linearized by the first
// committer.
func (r *BookingRepository) ApplyTransition(
	ctx context.Context,
	id uuid.UUID,
	expected, next booking.Status,
	fields commands.TransitionFields,
) error {
	set := []string{"status = $3", "updated_at = now()"}
	args := []any{id, expected.String(), next.String()}

	appendSet := func(column string, value any) {
		args = append(args, value)
		set = append(set, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if fields.PaymentStatus != nil {
		appendSet("payment_status", fields.PaymentStatus.String())
	}
	if fields.CapturedCents != nil {
		appendSet("captured_cents", *fields.CapturedCents)
	}
	if fields.ExternalPaymentID != nil {
		appendSet("external_payment_id", *fields.ExternalPaymentID)
	}
	if fields.ExternalSessionID != nil {
		appendSet("external_session_id", *fields.ExternalSessionID)
	}
	if fields.RefundCents != nil {
		appendSet("refund_cents", *fields.RefundCents)
	}
	if fields.RefundProcessedAt != nil {
		appendSet("refund_processed_at", *fields.RefundProcessedAt)
	}
	if fields.CancellationReason != nil {
		appendSet("cancellation_reason", *fields.CancellationReason)
	}
	if fields.CancelledAt != nil {
		appendSet("cancelled_at", *fields.CancelledAt)
	}
	if fields.CancelledBy != nil {
		appendSet("cancelled_by", *fields.CancelledBy)
	}

	query := `UPDATE bookings SET ` + strings.Join(set, ", ") + ` WHERE id = $1 AND status = $2`

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		if pgconv.IsUniqueViolation(err) {
			return errs.Mark(
				infra.WrapRepoErr("correlation key already bound", err, infra.KindDuplicateKey),
				errs.ErrCorrelationKeyInUse,
			)
		}
		return infra.WrapRepoErr("failed to apply transition", err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	// Zero rows: either the booking is gone or someone else won.
	var current string
	err = r.pool.QueryRow(ctx, `SELECT status FROM bookings WHERE id = $1`, id).Scan(&current)
	if err != nil {
		if pgconv.IsNoRows(err) {
			return errs.Mark(
				infra.WrapRepoErr("booking not found", err, infra.KindNotFound),
				errs.ErrBookingNotFound,
			)
		}
		return infra.WrapRepoErr("failed to re-read booking status", err)
	}

	return errs.Mark(
		infra.WrapRepoErr(
			fmt.Sprintf("expected status %s but found %s", expected, current),
			nil, infra.KindStaleState,
		),
		errs.ErrStaleState,
	)
}

func (r *BookingRepository) ListAwaitingPaymentBefore(ctx context.Context, cutoff time.Time, limit int32) ([]*booking.Booking, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+bookingColumns+` FROM bookings
		WHERE status = 'AWAITING_PAYMENT' AND created_at < $1
		ORDER BY created_at
		LIMIT $2`,
		cutoff, limit,
	)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list stale bookings", err)
	}
	defer rows.Close()

	var result []*booking.Booking
	for rows.Next() {
		entity, err := scanBooking(rows)
		if err != nil {
			return nil, infra.WrapRepoErr("failed to scan stale booking", err)
		}
		result = append(result, entity)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to iterate stale bookings", err)
	}
	return result, nil
}

func scanBooking(row pgx.Row) (*booking.Booking, error) {
	var (
		id, resourceID, providerID, requesterID uuid.UUID
		kindStr, statusStr, paymentStr          string
		startTime, endTime                      time.Time
		amountCents                             int64
		currency                                string
		capturedCents                           pgtype.Int8
		externalPaymentID, externalSessionID    pgtype.Text
		refundCents                             pgtype.Int8
		refundProcessedAt                       pgtype.Timestamptz
		cancellationReason                      pgtype.Text
		cancelledAt                             pgtype.Timestamptz
		cancelledBy                             pgtype.UUID
		createdAt, updatedAt                    time.Time
	)

	err := row.Scan(
		&id, &kindStr, &resourceID, &providerID, &requesterID,
		&startTime, &endTime, &statusStr, &paymentStr,
		&amountCents, &currency, &capturedCents,
		&externalPaymentID, &externalSessionID,
		&refundCents, &refundProcessedAt,
		&cancellationReason, &cancelledAt, &cancelledBy,
		&createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	window, err := booking.NewTimeWindow(startTime, endTime)
	if err != nil {
		return nil, err
	}
	amount, err := booking.NewMoney(amountCents, currency)
	if err != nil {
		return nil, err
	}

	return booking.ReconstructBooking(
		id,
		resource.Kind(kindStr),
		resourceID, providerID, requesterID,
		window,
		booking.Status(statusStr),
		booking.PaymentStatus(paymentStr),
		amount,
		pgconv.Int64PtrFromPgtype(capturedCents),
		pgconv.StringPtrFromPgtype(externalPaymentID),
		pgconv.StringPtrFromPgtype(externalSessionID),
		pgconv.Int64PtrFromPgtype(refundCents),
		pgconv.TimePtrFromPgtype(refundProcessedAt),
		pgconv.StringPtrFromPgtype(cancellationReason),
		pgconv.TimePtrFromPgtype(cancelledAt),
		pgconv.UUIDPtrFromPgtype(cancelledBy),
		createdAt, updatedAt,
	), nil
}
