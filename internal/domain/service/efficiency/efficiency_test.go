package efficiency_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"syncshield/internal/domain/entity"
	"syncshield/internal/domain/service/efficiency"
	"syncshield/internal/domain/value"
)

func platform(p value.Platform, eff float64) entity.PlatformEfficiency {
	return entity.PlatformEfficiency{Platform: p, AverageValue: eff * 10, Cost: 10, Efficiency: eff, DailyBudget: 500}
}

func TestAnalyzeReferenceExample(t *testing.T) {
	rq := require.New(t)

	platforms := []entity.PlatformEfficiency{
		platform(value.PlatformMeta, 2.5),
		platform(value.PlatformTikTok, 4.0),
		platform(value.PlatformGoogle, 3.2),
		platform(value.PlatformLinkedIn, 2.2),
	}

	report := efficiency.Analyze(platforms, nil, 0.15, time.Now())

	rq.InDelta(2.975, report.MeanEfficiency, 1e-9)
	rq.InDelta(2.52875, report.Cutoff, 1e-9)
	rq.Equal([]value.Platform{value.PlatformMeta, value.PlatformLinkedIn}, report.Underperformers)
	rq.Equal(value.PlatformTikTok, report.Best)
	rq.True(report.HasUnderperformers())
}

func TestAnalyzeExcludesFailedPlatforms(t *testing.T) {
	rq := require.New(t)

	platforms := []entity.PlatformEfficiency{
		platform(value.PlatformMeta, 3),
		platform(value.PlatformGoogle, 3),
	}
	failed := []value.Platform{value.PlatformTikTok}

	report := efficiency.Analyze(platforms, failed, 0.15, time.Now())

	// A zeroed TikTok would drag the mean to 2 and flag nothing either way,
	// so check the mean itself.
	rq.InDelta(3.0, report.MeanEfficiency, 1e-9)
	rq.Empty(report.Underperformers)
	rq.Equal(failed, report.Failed)
	rq.False(report.HasUnderperformers())
}

func TestAnalyzeStrictCutoff(t *testing.T) {
	rq := require.New(t)

	// mean = 2, cutoff = 1.0 exactly with threshold 0.5
	platforms := []entity.PlatformEfficiency{
		platform(value.PlatformMeta, 1.0),
		platform(value.PlatformGoogle, 3.0),
	}

	report := efficiency.Analyze(platforms, nil, 0.5, time.Now())

	rq.InDelta(1.0, report.Cutoff, 1e-12)
	rq.Empty(report.Underperformers)
}

func TestAnalyzeEmpty(t *testing.T) {
	rq := require.New(t)

	report := efficiency.Analyze(nil, []value.Platform{value.PlatformMeta}, 0.15, time.Now())

	rq.Zero(report.MeanEfficiency)
	rq.Empty(report.Best)
	rq.Empty(report.Underperformers)
}

func TestCompute(t *testing.T) {
	rq := require.New(t)

	pe, err := efficiency.Compute(value.PlatformGoogle, 120, 40, 800)
	rq.NoError(err)
	rq.InDelta(3.0, pe.Efficiency, 1e-12)
	rq.InDelta(800, pe.DailyBudget, 0)

	_, err = efficiency.Compute(value.PlatformGoogle, 120, 0, 800)
	rq.ErrorIs(err, efficiency.ErrInvalidCost)

	_, err = efficiency.Compute(value.PlatformGoogle, -1, 10, 800)
	rq.ErrorIs(err, efficiency.ErrInvalidValue)
}

func TestShiftAmount(t *testing.T) {
	rq := require.New(t)

	rq.InDelta(100, efficiency.ShiftAmount(500, 0.20), 1e-9)
	rq.Zero(efficiency.ShiftAmount(0, 0.20))
	rq.InDelta(15.966, efficiency.DeviationPercent(2.5, 2.975), 1e-3)
}
