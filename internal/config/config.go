package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// RemoteMode selects the remote document store implementation.
type RemoteMode string

const (
	RemotePostgres RemoteMode = "postgres"
	RemoteMemory   RemoteMode = "memory"
)

type Config struct {
	App struct {
		Name string `envconfig:"APP_NAME" default:"BudgetBuddy"`
		Port int    `envconfig:"PORT" default:"8080"`
	}

	Remote struct {
		Mode RemoteMode `envconfig:"REMOTE_MODE" default:"postgres"`
		// SimulateErrors exposes the process-wide failure switch over HTTP.
		SimulateErrors bool `envconfig:"REMOTE_SIMULATE_ERRORS" default:"false"`
	}

	DB struct {
		Host     string `envconfig:"DB_HOST" default:"localhost"`
		Port     int    `envconfig:"DB_PORT" default:"5432"`
		User     string `envconfig:"DB_USER" default:"postgres"`
		Password string `envconfig:"DB_PASSWORD" default:""`
		Name     string `envconfig:"DB_NAME" default:"budgetbuddy"`
	}

	Local struct {
		Path    string `envconfig:"LOCAL_DB_PATH" default:"data/budgetbuddy.db"`
		LogMode bool   `envconfig:"LOCAL_DB_LOG" default:"false"`
	}

	Auth struct {
		Secret     string        `envconfig:"JWT_SECRET" default:"change-me"`
		TokenTTL   time.Duration `envconfig:"JWT_TTL" default:"720h"`
		BcryptCost int           `envconfig:"BCRYPT_COST" default:"10"`
	}

	Server struct {
		Timeout        time.Duration `envconfig:"SERVER_TIMEOUT" default:"30s"`
		AllowedOrigins []string      `envconfig:"CORS_ORIGINS" default:"*"`
	}

	Dashboard struct {
		TrendMonths int `envconfig:"TREND_MONTHS" default:"6"`
	}
}

func (c *Config) ConnectionString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.DB.User, c.DB.Password, c.DB.Host, c.DB.Port, c.DB.Name)
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	switch cfg.Remote.Mode {
	case RemotePostgres, RemoteMemory:
	default:
		return nil, fmt.Errorf("unknown remote mode %q", cfg.Remote.Mode)
	}

	return &cfg, nil
}
