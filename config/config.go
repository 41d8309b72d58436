// Package config holds env-driven configuration for the broker binary.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Session store backends.
const (
	StoreRedis  = "redis"
	StoreMemory = "memory"
)

type Config struct {
	Addr         string   `env:"BROKER_ADDR" envDefault:":7070"`
	ClientId     string   `env:"GOOGLE_CLIENT_ID,required,notEmpty"`
	ClientSecret string   `env:"GOOGLE_CLIENT_SECRET,required,notEmpty"`
	Scopes       []string `env:"OAUTH_SCOPES" envSeparator:" "`

	SessionStore string `env:"SESSION_STORE" envDefault:"redis"`
	RedisAddr    string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPrefix  string `env:"REDIS_PREFIX" envDefault:"colino"`

	// PendingTTL bounds how long a user may take to complete consent.
	// ReadyTTL covers the retrieval window after completion; it is not the
	// access token lifetime, which is tracked per record via expires_at.
	PendingTTL time.Duration `env:"PENDING_SESSION_TTL" envDefault:"15m"`
	ReadyTTL   time.Duration `env:"READY_SESSION_TTL" envDefault:"24h"`

	GatewaySuffix string `env:"GATEWAY_HOST_SUFFIX" envDefault:".amazonaws.com"`
	StagePrefix   string `env:"GATEWAY_STAGE_PREFIX" envDefault:"/Prod"`
}

func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("could not parse config from environment: %w", err)
	}

	if cfg.SessionStore != StoreRedis && cfg.SessionStore != StoreMemory {
		return nil, fmt.Errorf("unknown session store %q", cfg.SessionStore)
	}

	return &cfg, nil
}
