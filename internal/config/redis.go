package config

import "time"

type Redis struct {
	Address        string        `env:"REDIS_ADDRESS"`
	Username       string        `env:"REDIS_USERNAME"`
	Password       string        `env:"REDIS_PASSWORD" json:"-"`
	DatabaseNumber int           `env:"REDIS_DB" envDefault:"0" validate:"gte=0"`
	PoolSize       int           `env:"REDIS_POOL_SIZE" envDefault:"10" validate:"gte=1"`
	ValueCacheTTL  time.Duration `env:"VALUE_CACHE_TTL" envDefault:"1m"`
	AlertQueue     string        `env:"ALERT_QUEUE" envDefault:"alerts"`
}

func (r Redis) Enabled() bool {
	return r.Address != ""
}
