package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/vsinha/perishable/pkg/domain/entities"
)

// Config is the full runtime configuration of the planner.
type Config struct {
	Planning PlanningConfig
	Database DatabaseConfig
	Server   ServerConfig
	Schedule ScheduleConfig
	LogLevel string
}

// PlanningConfig holds simulation and optimizer defaults.
type PlanningConfig struct {
	Horizon       int
	Capacity      int64
	TransportRate decimal.Decimal
	SolverTimeout time.Duration
	// MaxSolverTimeout caps the timeout a single request may ask for
	MaxSolverTimeout    time.Duration
	MaxConcurrentSolves int
	HoldingDays         int
	Granularity         string
}

// DatabaseConfig selects the run store. Driver is "memory", "sqlite" or "pgx".
type DatabaseConfig struct {
	Driver string
	DSN    string
}

// ServerConfig holds HTTP server options.
type ServerConfig struct {
	Port string
}

// ScheduleConfig drives the periodic comparison job. An empty Cron disables it.
type ScheduleConfig struct {
	Cron     string
	Scenario string
}

// Load reads environment variables, optionally from envFile first, and
// returns a validated Config.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed loading env file %s: %w", envFile, err)
			}
		}
	} else {
		_ = godotenv.Load()
	}

	cfg := &Config{LogLevel: getenvWithDefault("PERISHABLE_LOG_LEVEL", "info")}
	var err error

	if cfg.Planning.Horizon, err = getenvInt("PERISHABLE_HORIZON", 28); err != nil {
		return nil, err
	}
	if cfg.Planning.Capacity, err = getenvInt64("PERISHABLE_CAPACITY", 0); err != nil {
		return nil, err
	}
	if cfg.Planning.HoldingDays, err = getenvInt("PERISHABLE_HOLDING_DAYS", 1); err != nil {
		return nil, err
	}
	rate := getenvWithDefault("PERISHABLE_TRANSPORT_RATE", entities.DefaultTransportRatePerKm.String())
	if cfg.Planning.TransportRate, err = decimal.NewFromString(rate); err != nil {
		return nil, fmt.Errorf("PERISHABLE_TRANSPORT_RATE: invalid decimal %q", rate)
	}
	timeout := getenvWithDefault("PERISHABLE_SOLVER_TIMEOUT", "30s")
	if cfg.Planning.SolverTimeout, err = time.ParseDuration(timeout); err != nil {
		return nil, fmt.Errorf("PERISHABLE_SOLVER_TIMEOUT: invalid duration %q", timeout)
	}
	maxTimeout := getenvWithDefault("PERISHABLE_SOLVER_MAX_TIMEOUT", "2m")
	if cfg.Planning.MaxSolverTimeout, err = time.ParseDuration(maxTimeout); err != nil {
		return nil, fmt.Errorf("PERISHABLE_SOLVER_MAX_TIMEOUT: invalid duration %q", maxTimeout)
	}
	if cfg.Planning.MaxConcurrentSolves, err = getenvInt("PERISHABLE_MAX_CONCURRENT_SOLVES", 4); err != nil {
		return nil, err
	}
	cfg.Planning.Granularity = getenvWithDefault("PERISHABLE_GRANULARITY", "daily")

	cfg.Database = DatabaseConfig{
		Driver: getenvWithDefault("PERISHABLE_DB_DRIVER", "memory"),
		DSN:    os.Getenv("PERISHABLE_DB_DSN"),
	}
	cfg.Server = ServerConfig{Port: getenvWithDefault("PERISHABLE_HTTP_PORT", "8080")}
	cfg.Schedule = ScheduleConfig{
		Cron:     os.Getenv("PERISHABLE_PLAN_CRON"),
		Scenario: os.Getenv("PERISHABLE_SCENARIO"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate enforces value ranges.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if err := entities.ValidateHorizon(c.Planning.Horizon); err != nil {
		return fmt.Errorf("PERISHABLE_HORIZON: %w", err)
	}
	if c.Planning.Capacity < 0 {
		return fmt.Errorf("PERISHABLE_CAPACITY cannot be negative, got %d", c.Planning.Capacity)
	}
	if c.Planning.HoldingDays < 0 {
		return fmt.Errorf("PERISHABLE_HOLDING_DAYS cannot be negative, got %d", c.Planning.HoldingDays)
	}
	if c.Planning.TransportRate.IsNegative() {
		return fmt.Errorf("PERISHABLE_TRANSPORT_RATE cannot be negative, got %s", c.Planning.TransportRate)
	}
	if c.Planning.SolverTimeout <= 0 {
		return fmt.Errorf("PERISHABLE_SOLVER_TIMEOUT must be positive, got %v", c.Planning.SolverTimeout)
	}
	if c.Planning.MaxSolverTimeout < c.Planning.SolverTimeout {
		return fmt.Errorf("PERISHABLE_SOLVER_MAX_TIMEOUT must be at least PERISHABLE_SOLVER_TIMEOUT (%v), got %v",
			c.Planning.SolverTimeout, c.Planning.MaxSolverTimeout)
	}
	if c.Planning.MaxConcurrentSolves <= 0 {
		return fmt.Errorf("PERISHABLE_MAX_CONCURRENT_SOLVES must be positive, got %d", c.Planning.MaxConcurrentSolves)
	}
	switch c.Planning.Granularity {
	case "daily", "cycle":
	default:
		return fmt.Errorf("PERISHABLE_GRANULARITY must be daily or cycle, got %q", c.Planning.Granularity)
	}

	switch c.Database.Driver {
	case "memory", "sqlite":
	case "pgx":
		if c.Database.DSN == "" {
			return errors.New("PERISHABLE_DB_DSN must be provided for the pgx driver")
		}
	default:
		return fmt.Errorf("PERISHABLE_DB_DRIVER must be memory, sqlite or pgx, got %q", c.Database.Driver)
	}

	if c.Server.Port == "" {
		return errors.New("PERISHABLE_HTTP_PORT must not be empty")
	}
	if c.Schedule.Cron != "" && c.Schedule.Scenario == "" {
		return errors.New("PERISHABLE_SCENARIO must be provided when PERISHABLE_PLAN_CRON is set")
	}
	return nil
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getenvInt(key string, fallback int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid integer %q", key, value)
	}
	return n, nil
}

func getenvInt64(key string, fallback int64) (int64, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid integer %q", key, value)
	}
	return n, nil
}
