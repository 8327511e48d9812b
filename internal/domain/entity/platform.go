package entity

import (
	"time"

	"syncshield/internal/domain/value"
)

// PlatformValue is the value-prediction summary for one platform over a
// lookback window.
type PlatformValue struct {
	Average    float64 `json:"average"`
	P25        float64 `json:"p25"`
	P75        float64 `json:"p75"`
	SampleSize int     `json:"sampleSize"`
}

type PlatformEfficiency struct {
	Platform     value.Platform
	AverageValue float64
	Cost         float64
	Efficiency   float64
	DailyBudget  float64
}

type EfficiencyReport struct {
	Platforms       []PlatformEfficiency
	Failed          []value.Platform
	MeanEfficiency  float64
	Cutoff          float64
	Underperformers []value.Platform
	Best            value.Platform
	GeneratedAt     time.Time
}

// HasUnderperformers reports whether the cycle needs to shift budget.
func (r EfficiencyReport) HasUnderperformers() bool {
	return len(r.Underperformers) > 0
}

func (r EfficiencyReport) Platform(p value.Platform) (PlatformEfficiency, bool) {
	for _, pe := range r.Platforms {
		if pe.Platform == p {
			return pe, true
		}
	}

	return PlatformEfficiency{}, false
}

// PlatformCost is the spend side of a platform: average cost per acquired
// user and the current daily budget.
type PlatformCost struct {
	Platform    value.Platform
	Cost        float64
	DailyBudget float64
}
