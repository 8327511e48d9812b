package config

import (
	"time"

	"syncshield/internal/domain/service/guard"
	"syncshield/internal/worker"
)

type Bidding struct {
	SafetyMargin      float64       `env:"SAFETY_MARGIN" envDefault:"0.70" validate:"gt=0,lte=1"`
	MinLTVRequired    float64       `env:"MIN_LTV_REQUIRED" envDefault:"50" validate:"gte=0"`
	MaxBidCap         float64       `env:"MAX_BID_CAP" envDefault:"100" validate:"gt=0"`
	ConservativeValue float64       `env:"CONSERVATIVE_VALUE" envDefault:"50" validate:"gte=0"`
	PredictTimeout    time.Duration `env:"PREDICT_TIMEOUT" envDefault:"30ms" validate:"gt=0"`
	Workers           int           `env:"BID_WORKERS" envDefault:"8" validate:"gte=1"`
	QueueCapacity     int           `env:"BID_QUEUE_CAPACITY" envDefault:"256" validate:"gte=0"`
	RequestDeadline   time.Duration `env:"BID_REQUEST_DEADLINE" envDefault:"50ms" validate:"gt=0"`
}

func (b Bidding) Guard() guard.Config {
	return guard.Config{
		SafetyMargin:      b.SafetyMargin,
		MinLTVRequired:    b.MinLTVRequired,
		MaxBidCap:         b.MaxBidCap,
		ConservativeValue: b.ConservativeValue,
		PredictTimeout:    b.PredictTimeout,
	}
}

func (b Bidding) Dispatcher() worker.DispatcherConfig {
	return worker.DispatcherConfig{
		Workers:         b.Workers,
		QueueCapacity:   b.QueueCapacity,
		RequestDeadline: b.RequestDeadline,
	}
}
