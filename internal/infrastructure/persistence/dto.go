package persistence

import (
	"time"

	"github.com/shopspring/decimal"

	"syncshield/internal/domain/entity"
	"syncshield/internal/domain/value"
)

// moneyPlaces is the scale of every NUMERIC money column.
const moneyPlaces = 2

type reallocationSchema struct {
	ID           string          `db:"id"`
	FromPlatform string          `db:"from_platform"`
	ToPlatform   string          `db:"to_platform"`
	Amount       decimal.Decimal `db:"amount"`
	ReferenceID  string          `db:"reference_id"`
	CreatedAt    time.Time       `db:"created_at"`
}

func fromReallocation(e entity.ReallocationEvent, referenceID string) reallocationSchema {
	return reallocationSchema{
		ID:           e.ID,
		FromPlatform: e.From.String(),
		ToPlatform:   e.To.String(),
		Amount:       decimal.NewFromFloat(e.Amount).Round(moneyPlaces),
		ReferenceID:  referenceID,
		CreatedAt:    e.Timestamp,
	}
}

func (s reallocationSchema) toDomain() entity.ReallocationEvent {
	return entity.ReallocationEvent{
		ID:        s.ID,
		From:      value.Platform(s.FromPlatform),
		To:        value.Platform(s.ToPlatform),
		Amount:    s.Amount.InexactFloat64(),
		Timestamp: s.CreatedAt,
		LedgerRef: s.ReferenceID,
	}
}

type platformCostSchema struct {
	Platform    string          `db:"platform"`
	Cost        decimal.Decimal `db:"cost"`
	DailyBudget decimal.Decimal `db:"daily_budget"`
	UpdatedAt   time.Time       `db:"updated_at"`
}

func fromPlatformCost(c entity.PlatformCost, updatedAt time.Time) platformCostSchema {
	return platformCostSchema{
		Platform:    c.Platform.String(),
		Cost:        decimal.NewFromFloat(c.Cost).Round(moneyPlaces),
		DailyBudget: decimal.NewFromFloat(c.DailyBudget).Round(moneyPlaces),
		UpdatedAt:   updatedAt,
	}
}

func (s platformCostSchema) toDomain() entity.PlatformCost {
	return entity.PlatformCost{
		Platform:    value.Platform(s.Platform),
		Cost:        s.Cost.InexactFloat64(),
		DailyBudget: s.DailyBudget.InexactFloat64(),
	}
}
