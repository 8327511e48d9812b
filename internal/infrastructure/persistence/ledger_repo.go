package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"syncshield/internal/domain"
	"syncshield/internal/domain/entity"
	"syncshield/pkg/errcodes"
)

const defaultListLimit = 20

// LedgerRepository is the audit trail of budget reallocations.
type LedgerRepository struct {
	db    *sqlx.DB
	newID func() string
}

func NewLedgerRepository(db *sqlx.DB) *LedgerRepository {
	return &LedgerRepository{
		db:    db,
		newID: uuid.NewString,
	}
}

// RecordReallocation is idempotent on the event id: a retried event keeps
// the reference it was first stored with.
func (r *LedgerRepository) RecordReallocation(
	ctx context.Context,
	event entity.ReallocationEvent,
) (entity.LedgerReceipt, error) {
	schema := fromReallocation(event, r.newID())

	query := `
		INSERT INTO budget_reallocations (
			id, from_platform, to_platform, amount, reference_id, created_at
		) VALUES (
			:id, :from_platform, :to_platform, :amount, :reference_id, :created_at
		)
		ON CONFLICT (id) DO UPDATE SET id = EXCLUDED.id
		RETURNING reference_id`

	rows, err := r.db.NamedQueryContext(ctx, query, schema)
	if err != nil {
		return entity.LedgerReceipt{}, domain.WrapError(err, errcodes.LedgerWriteFailed, "failed to record reallocation")
	}

	defer rows.Close()

	var referenceID string

	if rows.Next() {
		if err := rows.Scan(&referenceID); err != nil {
			return entity.LedgerReceipt{}, domain.WrapError(err, errcodes.LedgerWriteFailed, "failed to read reference")
		}
	}

	if err := rows.Err(); err != nil {
		return entity.LedgerReceipt{}, domain.WrapError(err, errcodes.LedgerWriteFailed, "failed to record reallocation")
	}

	if referenceID == "" {
		return entity.LedgerReceipt{}, domain.NewError(errcodes.LedgerWriteFailed, "ledger returned no reference")
	}

	return entity.LedgerReceipt{Success: true, ReferenceID: referenceID}, nil
}

// ListRecent returns the latest reallocations, newest first.
func (r *LedgerRepository) ListRecent(ctx context.Context, limit int) ([]entity.ReallocationEvent, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}

	query := `
		SELECT id, from_platform, to_platform, amount, reference_id, created_at
		FROM budget_reallocations
		ORDER BY created_at DESC
		LIMIT $1`

	var schemas []reallocationSchema
	if err := r.db.SelectContext(ctx, &schemas, query, limit); err != nil {
		return nil, domain.WrapError(err, errcodes.InternalServerError, "failed to list reallocations")
	}

	result := make([]entity.ReallocationEvent, 0, len(schemas))
	for _, s := range schemas {
		result = append(result, s.toDomain())
	}

	return result, nil
}
