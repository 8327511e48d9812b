package config

import (
	"fmt"

	"github.com/caarlos0/env/v10"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	App           App
	Servers       Servers
	Postgres      Postgres
	Redis         Redis
	Bot           Bot
	Bidding       Bidding
	Optimizer     Optimizer
	Collaborators Collaborators
}

type App struct {
	Name     string `env:"APP_NAME" envDefault:"syncshield"`
	Version  string `env:"APP_VERSION" envDefault:"dev"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info" validate:"oneof=debug info warn error"`
}

// Load reads an optional .env file, then the environment. The result is
// validated and never changes afterwards.
func Load() (Config, error) {
	_ = godotenv.Load()

	var config Config

	if err := env.Parse(&config); err != nil {
		return Config{}, fmt.Errorf("env.Parse: %w", err)
	}

	if err := validator.New().Struct(config); err != nil {
		return Config{}, fmt.Errorf("validator.Struct: %w", err)
	}

	return config, nil
}
