package config

import (
	"fmt"
	"time"

	"syncshield/internal/domain/value"
	"syncshield/internal/worker"
	"syncshield/pkg/lox"
)

type Optimizer struct {
	EfficiencyThreshold float64       `env:"EFFICIENCY_THRESHOLD" envDefault:"0.15" validate:"gte=0,lt=1"`
	ReallocationPercent float64       `env:"REALLOCATION_PERCENT" envDefault:"0.20" validate:"gt=0,lte=1"`
	CheckInterval       time.Duration `env:"CHECK_INTERVAL" envDefault:"5m" validate:"gt=0"`
	LookbackDays        int           `env:"LOOKBACK_DAYS" envDefault:"30" validate:"gte=1"`
	FetchRatePerSecond  float64       `env:"FETCH_RATE_PER_SECOND" envDefault:"20" validate:"gte=0"`
	FetchTimeout        time.Duration `env:"PLATFORM_FETCH_TIMEOUT" envDefault:"5s" validate:"gt=0"`
	Platforms           []string      `env:"PLATFORMS" envDefault:"meta,google,tiktok,linkedin,amazon,microsoft" envSeparator:"," validate:"min=1,dive,required"`
	CostFile            string        `env:"COST_FILE"`
	AutoStart           bool          `env:"OPTIMIZER_AUTOSTART" envDefault:"true"`
}

func (o Optimizer) Monitor() worker.MonitorConfig {
	return worker.MonitorConfig{
		EfficiencyThreshold: o.EfficiencyThreshold,
		ReallocationPercent: o.ReallocationPercent,
		CheckInterval:       o.CheckInterval,
		LookbackDays:        o.LookbackDays,
		FetchRatePerSecond:  o.FetchRatePerSecond,
		FetchTimeout:        o.FetchTimeout,
	}
}

func (o Optimizer) PlatformSet() ([]value.Platform, error) {
	result, err := lox.MapErr(o.Platforms, value.ParsePlatform)
	if err != nil {
		return nil, fmt.Errorf("value.ParsePlatform: %w", err)
	}

	return result, nil
}
