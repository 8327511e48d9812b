package worker

import (
	"slices"

	"github.com/samber/lo"

	"syncshield/internal/domain/value"
)

// Platforms returns a copy of the platform set the monitor scans.
func (m *EfficiencyMonitor) Platforms() []value.Platform {
	return slices.Clone(m.platforms)
}

// dedupPlatforms keeps the first occurrence of every platform.
func dedupPlatforms(platforms []value.Platform) []value.Platform {
	return lo.Uniq(platforms)
}
