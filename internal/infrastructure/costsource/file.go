package costsource

import (
	"context"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"syncshield/internal/domain"
	"syncshield/internal/domain/entity"
	"syncshield/internal/domain/value"
	"syncshield/pkg/errcodes"
)

type fileEntry struct {
	Cost        float64 `yaml:"cost"`
	DailyBudget float64 `yaml:"dailyBudget"`
}

type fileLayout struct {
	Platforms map[string]fileEntry `yaml:"platforms"`
}

// File is a static cost source read once from YAML:
//
//	platforms:
//	  meta: {cost: 100, dailyBudget: 500}
type File struct {
	costs map[value.Platform]entity.PlatformCost
}

func Load(path string) (*File, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("os.ReadFile: %w", err)
	}

	return Parse(raw)
}

func Parse(raw []byte) (*File, error) {
	var layout fileLayout
	if err := yaml.Unmarshal(raw, &layout); err != nil {
		return nil, fmt.Errorf("yaml.Unmarshal: %w", err)
	}

	costs := make(map[value.Platform]entity.PlatformCost, len(layout.Platforms))

	for name, e := range layout.Platforms {
		p, err := value.ParsePlatform(name)
		if err != nil {
			return nil, fmt.Errorf("value.ParsePlatform: %w", err)
		}

		if e.DailyBudget < 0 {
			return nil, fmt.Errorf("platform %s: negative daily budget %v", p, e.DailyBudget)
		}

		costs[p] = entity.PlatformCost{
			Platform:    p,
			Cost:        e.Cost,
			DailyBudget: e.DailyBudget,
		}
	}

	return &File{costs: costs}, nil
}

func (f *File) GetPlatformCost(_ context.Context, platform value.Platform) (float64, error) {
	c, err := f.get(platform)
	if err != nil {
		return 0, err
	}

	return c.Cost, nil
}

func (f *File) GetPlatformDailyBudget(_ context.Context, platform value.Platform) (float64, error) {
	c, err := f.get(platform)
	if err != nil {
		return 0, err
	}

	return c.DailyBudget, nil
}

// Costs lists all entries ordered by platform name.
func (f *File) Costs() []entity.PlatformCost {
	result := make([]entity.PlatformCost, 0, len(f.costs))
	for _, c := range f.costs {
		result = append(result, c)
	}

	sort.Slice(result, func(i, j int) bool { return result[i].Platform < result[j].Platform })

	return result
}

func (f *File) get(platform value.Platform) (entity.PlatformCost, error) {
	c, ok := f.costs[platform]
	if !ok {
		return entity.PlatformCost{}, domain.NewError(
			errcodes.PlatformCostMissing,
			fmt.Sprintf("no cost data for platform %s", platform),
		)
	}

	return c, nil
}
