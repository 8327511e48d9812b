// Package efficiency holds the value/cost ranking used by the budget
// reallocation loop.
package efficiency

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/samber/lo"

	"syncshield/internal/domain/entity"
	"syncshield/internal/domain/value"
)

var (
	ErrInvalidCost  = errors.New("cost must be positive")
	ErrInvalidValue = errors.New("average value must be a non-negative number")
)

func Compute(p value.Platform, averageValue, cost, dailyBudget float64) (entity.PlatformEfficiency, error) {
	if math.IsNaN(cost) || cost <= 0 {
		return entity.PlatformEfficiency{}, fmt.Errorf("%s: %w (got %v)", p, ErrInvalidCost, cost)
	}

	if math.IsNaN(averageValue) || math.IsInf(averageValue, 0) || averageValue < 0 {
		return entity.PlatformEfficiency{}, fmt.Errorf("%s: %w (got %v)", p, ErrInvalidValue, averageValue)
	}

	return entity.PlatformEfficiency{
		Platform:     p,
		AverageValue: averageValue,
		Cost:         cost,
		Efficiency:   averageValue / cost,
		DailyBudget:  dailyBudget,
	}, nil
}

// Mean is the arithmetic mean over the given platforms. Callers pass only
// successfully fetched platforms.
func Mean(platforms []entity.PlatformEfficiency) float64 {
	if len(platforms) == 0 {
		return 0
	}

	sum := lo.SumBy(platforms, func(pe entity.PlatformEfficiency) float64 {
		return pe.Efficiency
	})

	return sum / float64(len(platforms))
}

func Cutoff(mean, threshold float64) float64 {
	return mean * (1 - threshold)
}

// Underperformers returns the platforms strictly below cutoff, in input order.
func Underperformers(platforms []entity.PlatformEfficiency, cutoff float64) []entity.PlatformEfficiency {
	return lo.Filter(platforms, func(pe entity.PlatformEfficiency, _ int) bool {
		return pe.Efficiency < cutoff
	})
}

// Best returns the most efficient platform. Ties keep the first one.
func Best(platforms []entity.PlatformEfficiency) (entity.PlatformEfficiency, bool) {
	if len(platforms) == 0 {
		return entity.PlatformEfficiency{}, false
	}

	return lo.MaxBy(platforms, func(a, b entity.PlatformEfficiency) bool {
		return a.Efficiency > b.Efficiency
	}), true
}

// DeviationPercent is how far below the mean a platform sits, in percent.
func DeviationPercent(efficiency, mean float64) float64 {
	if mean == 0 {
		return 0
	}

	return (mean - efficiency) / mean * 100
}

func ShiftAmount(dailyBudget, fraction float64) float64 {
	if dailyBudget <= 0 {
		return 0
	}

	return dailyBudget * fraction
}

// Analyze builds the full report for one set of fetched platforms.
func Analyze(
	platforms []entity.PlatformEfficiency,
	failed []value.Platform,
	threshold float64,
	now time.Time,
) entity.EfficiencyReport {
	report := entity.EfficiencyReport{
		Platforms:   platforms,
		Failed:      failed,
		GeneratedAt: now,
	}

	if len(platforms) == 0 {
		return report
	}

	report.MeanEfficiency = Mean(platforms)
	report.Cutoff = Cutoff(report.MeanEfficiency, threshold)
	report.Underperformers = lo.Map(
		Underperformers(platforms, report.Cutoff),
		func(pe entity.PlatformEfficiency, _ int) value.Platform { return pe.Platform },
	)

	if best, ok := Best(platforms); ok {
		report.Best = best.Platform
	}

	return report
}
