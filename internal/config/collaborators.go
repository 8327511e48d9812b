package config

import "time"

type Collaborators struct {
	ValueServiceURL    string        `env:"VALUE_SERVICE_URL,notEmpty" validate:"url"`
	StrategyServiceURL string        `env:"STRATEGY_SERVICE_URL,notEmpty" validate:"url"`
	Token              string        `env:"COLLABORATOR_TOKEN" json:"-"`
	LogTraffic         bool          `env:"COLLABORATOR_LOG_TRAFFIC" envDefault:"false"`
	BreakerMaxFailures uint32        `env:"BREAKER_MAX_FAILURES" envDefault:"5" validate:"gte=1"`
	BreakerOpenTimeout time.Duration `env:"BREAKER_OPEN_TIMEOUT" envDefault:"30s"`
}
