// Package config loads runtime configuration from environment variables.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds everything the CLI surfaces need that is not per-invocation
// (those come in as flags). Environment variables use the RIPOSTE_ prefix.
type Config struct {
	// ListenAddr is the HTTP bind address for serve mode.
	ListenAddr string `env:"RIPOSTE_LISTEN_ADDR" envDefault:":8214"`

	// PollInterval is the default tick of the evaluation loop.
	PollInterval time.Duration `env:"RIPOSTE_POLL_INTERVAL" envDefault:"250ms"`

	// Store selects the snapshot backend: memory, file or redis.
	Store string `env:"RIPOSTE_STORE" envDefault:"memory"`

	// StorePath is the directory for the file backend.
	StorePath string `env:"RIPOSTE_STORE_PATH" envDefault:""`

	// RedisAddr is the redis endpoint for the redis store, lock and fact
	// source.
	RedisAddr string `env:"RIPOSTE_REDIS_ADDR" envDefault:"localhost:6379"`

	// RedisPassword is the redis auth password, empty for none.
	RedisPassword string `env:"RIPOSTE_REDIS_PASSWORD" envDefault:""`

	// RedisDB is the redis database index.
	RedisDB int `env:"RIPOSTE_REDIS_DB" envDefault:"0"`

	// FactsKey is the redis hash the recognizer publishes facts to.
	FactsKey string `env:"RIPOSTE_FACTS_KEY" envDefault:"riposte:facts"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `env:"RIPOSTE_LOG_LEVEL" envDefault:"info"`
}

// Load parses the environment into a Config.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
