package repository

import (
	"context"

	"booking-core/internal/domain/resource"
	"booking-core/internal/infra"
	"booking-core/internal/pkg/errs"
	"booking-core/internal/pkg/pgconv"
	"booking-core/internal/usecase/commands"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ResourceRepository struct {
	pool *pgxpool.Pool
}

func NewResourceRepository(pool *pgxpool.Pool) *ResourceRepository {
	return &ResourceRepository{pool: pool}
}

func (r *ResourceRepository) FindByID(ctx context.Context, id uuid.UUID) (*commands.ResourceSnapshot, error) {
	var snap commands.ResourceSnapshot
	var kindStr string

	err := r.pool.QueryRow(ctx, `
		SELECT id, kind, name, provider_id, hourly_cents, currency
		FROM resources
		WHERE id = $1`,
		id,
	).Scan(&snap.ID, &kindStr, &snap.Name, &snap.ProviderID, &snap.HourlyCents, &snap.Currency)
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil, errs.Mark(
				infra.WrapRepoErr("resource not found", err, infra.KindNotFound),
				errs.ErrResourceNotFound,
			)
		}
		return nil, infra.WrapRepoErr("failed to find resource", err)
	}

	kind, err := resource.NewKind(kindStr)
	if err != nil {
		return nil, infra.WrapRepoErr("stored resource kind is invalid", err)
	}
	snap.Kind = kind

	return &snap, nil
}
