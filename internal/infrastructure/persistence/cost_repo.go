package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"syncshield/internal/domain"
	"syncshield/internal/domain/entity"
	"syncshield/internal/domain/value"
	"syncshield/pkg/errcodes"
)

type PlatformCostRepository struct {
	db *sqlx.DB
}

func NewPlatformCostRepository(db *sqlx.DB) *PlatformCostRepository {
	return &PlatformCostRepository{db: db}
}

func (r *PlatformCostRepository) GetPlatformCost(ctx context.Context, platform value.Platform) (float64, error) {
	c, err := r.Get(ctx, platform)
	if err != nil {
		return 0, err
	}

	return c.Cost, nil
}

func (r *PlatformCostRepository) GetPlatformDailyBudget(ctx context.Context, platform value.Platform) (float64, error) {
	c, err := r.Get(ctx, platform)
	if err != nil {
		return 0, err
	}

	return c.DailyBudget, nil
}

func (r *PlatformCostRepository) Get(ctx context.Context, platform value.Platform) (entity.PlatformCost, error) {
	query := `
		SELECT platform, cost, daily_budget, updated_at
		FROM platform_costs
		WHERE platform = $1`

	var schema platformCostSchema
	if err := r.db.GetContext(ctx, &schema, query, platform.String()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return entity.PlatformCost{}, domain.NewError(
				errcodes.PlatformCostMissing,
				fmt.Sprintf("no cost data for platform %s", platform),
			)
		}
		return entity.PlatformCost{}, domain.WrapError(err, errcodes.InternalServerError, "failed to get platform cost")
	}

	return schema.toDomain(), nil
}

// Upsert replaces the cost rows of the given platforms atomically.
func (r *PlatformCostRepository) Upsert(ctx context.Context, costs []entity.PlatformCost) error {
	if len(costs) == 0 {
		return nil
	}

	now := time.Now().UTC()

	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		query := `
			INSERT INTO platform_costs (platform, cost, daily_budget, updated_at)
			VALUES (:platform, :cost, :daily_budget, :updated_at)
			ON CONFLICT (platform) DO UPDATE SET
				cost = EXCLUDED.cost,
				daily_budget = EXCLUDED.daily_budget,
				updated_at = EXCLUDED.updated_at`

		for _, c := range costs {
			if _, err := tx.NamedExecContext(ctx, query, fromPlatformCost(c, now)); err != nil {
				return domain.WrapError(err, errcodes.InternalServerError,
					fmt.Sprintf("failed to upsert cost for %s", c.Platform))
			}
		}

		return nil
	})
}
