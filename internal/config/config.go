// Package config loads process configuration from the environment (and an optional .env file)
package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Prefix is prepended to every variable name, e.g. NAVFLOW_STORE
const Prefix = "navflow"

// Store backends
const (
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
)

// Config holds all configuration for the service and the CLI
type Config struct {
	Store      string `envconfig:"STORE" default:"sqlite"`
	SQLitePath string `envconfig:"SQLITE_PATH" default:"funds.db"`

	// DBConnStr wins over the individual DB_* fields when set
	DBConnStr  string `envconfig:"DB_CONN_STR"`
	DBHost     string `envconfig:"DB_HOST" default:"localhost"`
	DBPort     string `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" default:"postgres"`
	DBPassword string `envconfig:"DB_PASSWORD" default:"postgres"`
	DBName     string `envconfig:"DB_NAME" default:"navflow"`

	GRPCAddr string `envconfig:"GRPC_ADDR" default:":8080"`
	APIToken string `envconfig:"API_TOKEN" default:"dev-token"`

	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"console"`

	SourceBaseURL   string        `envconfig:"SOURCE_BASE_URL" default:"https://api.mfapi.in"`
	SourceTimeout   time.Duration `envconfig:"SOURCE_TIMEOUT" default:"30s"`
	SourceRateLimit int           `envconfig:"SOURCE_RATE_LIMIT" default:"5"`

	HighReturnThreshold float64 `envconfig:"HIGH_RETURN_THRESHOLD" default:"0.12"`
	MinHorizonYears     float64 `envconfig:"MIN_HORIZON_YEARS" default:"0.5"`
	TailPoints          int     `envconfig:"TAIL_POINTS" default:"100"`
	DefaultBenchmark    float64 `envconfig:"DEFAULT_BENCHMARK" default:"0.06"`

	// WatchCodes are synced at server startup, e.g. NAVFLOW_WATCH_CODES=122639,120828
	WatchCodes []string `envconfig:"WATCH_CODES"`
}

// Load reads .env (when present) into the environment, then maps NAVFLOW_* variables
func Load() (*Config, error) {
	// A missing .env is normal outside local development
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate rejects settings the process cannot run with
func (c *Config) Validate() error {
	switch c.Store {
	case StoreSQLite, StorePostgres:
	default:
		return fmt.Errorf("invalid store %q (supported: %s, %s)", c.Store, StoreSQLite, StorePostgres)
	}
	if c.SourceRateLimit <= 0 {
		return fmt.Errorf("source rate limit must be positive, got %d", c.SourceRateLimit)
	}
	if c.TailPoints < 0 {
		return fmt.Errorf("tail points must not be negative, got %d", c.TailPoints)
	}
	if c.MinHorizonYears < 0 {
		return fmt.Errorf("minimum horizon must not be negative, got %v", c.MinHorizonYears)
	}
	return nil
}

// PostgresDSN returns DB_CONN_STR, or builds one from the individual DB_* fields
func (c *Config) PostgresDSN() string {
	if c.DBConnStr != "" {
		return c.DBConnStr
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName)
}
