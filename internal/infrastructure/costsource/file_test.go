package costsource_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"syncshield/internal/domain"
	"syncshield/internal/domain/entity"
	"syncshield/internal/domain/value"
	"syncshield/internal/infrastructure/costsource"
	"syncshield/pkg/errcodes"
)

const costsYAML = `
platforms:
  meta: {cost: 100, dailyBudget: 500}
  TikTok:
    cost: 100
    dailyBudget: 1000
  linkedin: {cost: 0, dailyBudget: 300}
`

func TestFileSource(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "costs.yaml")
	rq.NoError(os.WriteFile(path, []byte(costsYAML), 0o600))

	src, err := costsource.Load(path)
	rq.NoError(err)

	cost, err := src.GetPlatformCost(ctx, value.PlatformTikTok)
	rq.NoError(err)
	rq.Equal(100.0, cost)

	budget, err := src.GetPlatformDailyBudget(ctx, value.PlatformMeta)
	rq.NoError(err)
	rq.Equal(500.0, budget)

	// Zero cost is passed through; the monitor decides what to do with it.
	cost, err = src.GetPlatformCost(ctx, value.PlatformLinkedIn)
	rq.NoError(err)
	rq.Zero(cost)

	_, err = src.GetPlatformCost(ctx, value.PlatformGoogle)
	code, ok := domain.GetCode(err)
	rq.True(ok)
	rq.Equal(errcodes.PlatformCostMissing, code)

	rq.Equal([]entity.PlatformCost{
		{Platform: value.PlatformLinkedIn, Cost: 0, DailyBudget: 300},
		{Platform: value.PlatformMeta, Cost: 100, DailyBudget: 500},
		{Platform: value.PlatformTikTok, Cost: 100, DailyBudget: 1000},
	}, src.Costs())
}

func TestFileSourceParseErrors(t *testing.T) {
	rq := require.New(t)

	testCases := []struct {
		name string
		raw  string
	}{
		{name: "Unknown platform", raw: "platforms:\n  myspace: {cost: 1, dailyBudget: 1}\n"},
		{name: "Negative budget", raw: "platforms:\n  meta: {cost: 1, dailyBudget: -5}\n"},
		{name: "Malformed YAML", raw: "platforms: [meta"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(*testing.T) {
			_, err := costsource.Parse([]byte(tc.raw))
			rq.Error(err)
		})
	}

	_, err := costsource.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	rq.Error(err)
}
