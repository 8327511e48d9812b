package persistence_test

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"syncshield/internal/domain"
	"syncshield/internal/domain/entity"
	"syncshield/internal/domain/value"
	"syncshield/internal/infrastructure/persistence"
	"syncshield/pkg/errcodes"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	t.Cleanup(func() { db.Close() })

	return sqlx.NewDb(db, "pgx"), mock
}

func TestLedgerRepositoryRecordReallocation(t *testing.T) {
	rq := require.New(t)

	ts := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	event := entity.ReallocationEvent{
		ID:        "8f1d2c3e-0000-4000-8000-000000000001",
		From:      value.PlatformMeta,
		To:        value.PlatformTikTok,
		Amount:    100.004,
		Timestamp: ts,
	}

	insert := regexp.QuoteMeta("INSERT INTO budget_reallocations")

	testCases := []struct {
		name    string
		prepare func(mock sqlmock.Sqlmock)
		wantRef string
		wantErr bool
	}{
		{
			name: "Recorded",
			prepare: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(insert).
					WithArgs(event.ID, "meta", "tiktok", "100", sqlmock.AnyArg(), ts).
					WillReturnRows(sqlmock.NewRows([]string{"reference_id"}).AddRow("ref-1"))
			},
			wantRef: "ref-1",
		},
		{
			name: "Database down",
			prepare: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(insert).WillReturnError(errors.New("connection reset"))
			},
			wantErr: true,
		},
		{
			name: "No reference returned",
			prepare: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(insert).WillReturnRows(sqlmock.NewRows([]string{"reference_id"}))
			},
			wantErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			db, mock := newMockDB(t)
			tc.prepare(mock)

			receipt, err := persistence.NewLedgerRepository(db).RecordReallocation(context.Background(), event)

			if tc.wantErr {
				rq.Error(err)
				rq.False(receipt.Success)

				code, ok := domain.GetCode(err)
				rq.True(ok)
				rq.Equal(errcodes.LedgerWriteFailed, code)
			} else {
				rq.NoError(err)
				rq.True(receipt.Success)
				rq.Equal(tc.wantRef, receipt.ReferenceID)
			}

			rq.NoError(mock.ExpectationsWereMet())
		})
	}
}

func TestLedgerRepositoryListRecent(t *testing.T) {
	rq := require.New(t)

	db, mock := newMockDB(t)
	ts := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("FROM budget_reallocations")).
		WithArgs(20).
		WillReturnRows(
			sqlmock.NewRows([]string{"id", "from_platform", "to_platform", "amount", "reference_id", "created_at"}).
				AddRow("e-2", "linkedin", "tiktok", "60.00", "ref-2", ts).
				AddRow("e-1", "meta", "tiktok", "100.00", "ref-1", ts.Add(-time.Second)),
		)

	events, err := persistence.NewLedgerRepository(db).ListRecent(context.Background(), 0)
	rq.NoError(err)
	rq.Len(events, 2)

	rq.Equal(entity.ReallocationEvent{
		ID:        "e-2",
		From:      value.PlatformLinkedIn,
		To:        value.PlatformTikTok,
		Amount:    60,
		Timestamp: ts,
		LedgerRef: "ref-2",
	}, events[0])
	rq.Equal(100.0, events[1].Amount)

	rq.NoError(mock.ExpectationsWereMet())
}

func TestPlatformCostRepositoryGet(t *testing.T) {
	rq := require.New(t)

	selectCost := regexp.QuoteMeta("FROM platform_costs")
	columns := []string{"platform", "cost", "daily_budget", "updated_at"}

	t.Run("Found", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := persistence.NewPlatformCostRepository(db)

		for range 2 {
			mock.ExpectQuery(selectCost).
				WithArgs("meta").
				WillReturnRows(sqlmock.NewRows(columns).AddRow("meta", "100.00", "500.00", time.Now()))
		}

		cost, err := repo.GetPlatformCost(context.Background(), value.PlatformMeta)
		rq.NoError(err)
		rq.Equal(100.0, cost)

		budget, err := repo.GetPlatformDailyBudget(context.Background(), value.PlatformMeta)
		rq.NoError(err)
		rq.Equal(500.0, budget)

		rq.NoError(mock.ExpectationsWereMet())
	})

	t.Run("Missing", func(t *testing.T) {
		db, mock := newMockDB(t)

		mock.ExpectQuery(selectCost).WithArgs("amazon").WillReturnRows(sqlmock.NewRows(columns))

		_, err := persistence.NewPlatformCostRepository(db).GetPlatformCost(context.Background(), value.PlatformAmazon)

		code, ok := domain.GetCode(err)
		rq.True(ok)
		rq.Equal(errcodes.PlatformCostMissing, code)
		rq.NoError(mock.ExpectationsWereMet())
	})
}

func TestPlatformCostRepositoryUpsert(t *testing.T) {
	rq := require.New(t)

	upsert := regexp.QuoteMeta("INSERT INTO platform_costs")
	costs := []entity.PlatformCost{
		{Platform: value.PlatformMeta, Cost: 100, DailyBudget: 500},
		{Platform: value.PlatformTikTok, Cost: 100, DailyBudget: 1000},
	}

	t.Run("Committed", func(t *testing.T) {
		db, mock := newMockDB(t)

		mock.ExpectBegin()
		mock.ExpectExec(upsert).
			WithArgs("meta", "100", "500", sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(upsert).
			WithArgs("tiktok", "100", "1000", sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		rq.NoError(persistence.NewPlatformCostRepository(db).Upsert(context.Background(), costs))
		rq.NoError(mock.ExpectationsWereMet())
	})

	t.Run("Rolled back", func(t *testing.T) {
		db, mock := newMockDB(t)

		mock.ExpectBegin()
		mock.ExpectExec(upsert).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(upsert).WillReturnError(errors.New("constraint violation"))
		mock.ExpectRollback()

		rq.Error(persistence.NewPlatformCostRepository(db).Upsert(context.Background(), costs))
		rq.NoError(mock.ExpectationsWereMet())
	})

	t.Run("Nothing to write", func(t *testing.T) {
		db, mock := newMockDB(t)

		rq.NoError(persistence.NewPlatformCostRepository(db).Upsert(context.Background(), nil))
		rq.NoError(mock.ExpectationsWereMet())
	})
}
