package persistence_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"syncshield/internal/domain/entity"
	"syncshield/internal/domain/value"
	"syncshield/internal/infrastructure/persistence"
	"syncshield/pkg/dbtest"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// connectTestDB runs against a real Postgres named by TEST_PG_DSN.
func connectTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	dsn := os.Getenv("TEST_PG_DSN")
	if dsn == "" {
		t.Skip("TEST_PG_DSN is not set")
	}

	db, err := sqlx.Connect("pgx", dsn)
	require.NoError(t, err)

	t.Cleanup(func() { db.Close() })

	require.NoError(t, dbtest.MigrateFromFile(db, "../../../migrations/001_init.sql"))

	return db
}

func TestLedgerRepositoryPostgres(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()

	repo := persistence.NewLedgerRepository(connectTestDB(t))

	event := entity.ReallocationEvent{
		ID:        uuid.NewString(),
		From:      value.PlatformMeta,
		To:        value.PlatformTikTok,
		Amount:    100,
		Timestamp: time.Now().UTC().Truncate(time.Microsecond),
	}

	first, err := repo.RecordReallocation(ctx, event)
	rq.NoError(err)
	rq.True(first.Success)

	again, err := repo.RecordReallocation(ctx, event)
	rq.NoError(err)
	rq.Equal(first.ReferenceID, again.ReferenceID)

	events, err := repo.ListRecent(ctx, 200)
	rq.NoError(err)

	found := false

	for _, e := range events {
		if e.ID == event.ID {
			found = true

			rq.Equal(first.ReferenceID, e.LedgerRef)
			rq.Equal(100.0, e.Amount)
		}
	}

	rq.True(found)
}

func TestPlatformCostRepositoryPostgres(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()

	repo := persistence.NewPlatformCostRepository(connectTestDB(t))

	rq.NoError(repo.Upsert(ctx, []entity.PlatformCost{
		{Platform: value.PlatformGoogle, Cost: 100, DailyBudget: 700},
	}))
	rq.NoError(repo.Upsert(ctx, []entity.PlatformCost{
		{Platform: value.PlatformGoogle, Cost: 120, DailyBudget: 800},
	}))

	cost, err := repo.GetPlatformCost(ctx, value.PlatformGoogle)
	rq.NoError(err)
	rq.Equal(120.0, cost)

	budget, err := repo.GetPlatformDailyBudget(ctx, value.PlatformGoogle)
	rq.NoError(err)
	rq.Equal(800.0, budget)
}
