// Package config loads betsim settings from BETSIM_* environment
// variables.
package config

import (
	"errors"
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/shopspring/decimal"
)

// ErrInvalid is wrapped by Validate failures.
var ErrInvalid = errors.New("config: invalid")

// Database drivers accepted in DB_DRIVER.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverNone     = "none"
)

// Config is the shared configuration of the CLI and the API server.
type Config struct {
	Env       string `env:"BETSIM_ENV" envDefault:"local"`
	OutputDir string `env:"BETSIM_OUTPUT_DIR"`

	StartBalance decimal.Decimal `env:"BETSIM_START_BALANCE" envDefault:"500"`
	Stake        decimal.Decimal `env:"BETSIM_STAKE" envDefault:"5"`
	MaxRounds    int             `env:"BETSIM_MAX_ROUNDS" envDefault:"1000"`
	Strategy     string          `env:"BETSIM_STRATEGY" envDefault:"random"`

	DBDriver    string `env:"BETSIM_DB_DRIVER" envDefault:"sqlite"`
	DBPath      string `env:"BETSIM_DB_PATH" envDefault:"betsim.db"`
	PostgresDSN string `env:"BETSIM_POSTGRES_DSN"`

	RedisAddr    string   `env:"BETSIM_REDIS_ADDR"`
	KafkaBrokers []string `env:"BETSIM_KAFKA_BROKERS" envSeparator:","`
	KafkaTopic   string   `env:"BETSIM_KAFKA_TOPIC" envDefault:"roulette_rounds"`

	HTTPAddr string `env:"BETSIM_HTTP_ADDR" envDefault:":8077"`

	ServerSeed string `env:"BETSIM_SERVER_SEED"`
	ClientSeed string `env:"BETSIM_CLIENT_SEED"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load parses the environment into a Config. Call Validate after applying
// flag overrides.
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks values that the environment parser cannot.
func (c Config) Validate() error {
	switch c.DBDriver {
	case DriverSQLite, DriverNone:
	case DriverPostgres:
		if c.PostgresDSN == "" {
			return fmt.Errorf("%w: BETSIM_POSTGRES_DSN is required for the postgres driver", ErrInvalid)
		}
	default:
		return fmt.Errorf("%w: unknown db driver %q", ErrInvalid, c.DBDriver)
	}
	if !c.StartBalance.IsPositive() {
		return fmt.Errorf("%w: start balance must be positive", ErrInvalid)
	}
	if !c.Stake.IsPositive() {
		return fmt.Errorf("%w: stake must be positive", ErrInvalid)
	}
	if c.MaxRounds <= 0 {
		return fmt.Errorf("%w: max rounds must be positive", ErrInvalid)
	}
	if c.ClientSeed != "" && c.ServerSeed == "" {
		return fmt.Errorf("%w: a client seed needs a server seed", ErrInvalid)
	}
	return nil
}

// Seeded reports whether draws should come from the provably fair stream.
func (c Config) Seeded() bool { return c.ServerSeed != "" }

// KafkaEnabled reports whether round events should be published.
func (c Config) KafkaEnabled() bool { return len(c.KafkaBrokers) > 0 }
