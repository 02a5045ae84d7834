package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

var configKeys = []string{
	"PERISHABLE_LOG_LEVEL", "PERISHABLE_HORIZON", "PERISHABLE_CAPACITY", "PERISHABLE_HOLDING_DAYS",
	"PERISHABLE_TRANSPORT_RATE", "PERISHABLE_SOLVER_TIMEOUT", "PERISHABLE_SOLVER_MAX_TIMEOUT",
	"PERISHABLE_MAX_CONCURRENT_SOLVES", "PERISHABLE_GRANULARITY",
	"PERISHABLE_DB_DRIVER", "PERISHABLE_DB_DSN", "PERISHABLE_HTTP_PORT",
	"PERISHABLE_PLAN_CRON", "PERISHABLE_SCENARIO",
}

// clearEnv unsets every key for the duration of the test
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range configKeys {
		t.Setenv(key, "")
		if err := os.Unsetenv(key); err != nil {
			t.Fatalf("Failed to unset %s: %v", key, err)
		}
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("Failed to load defaults: %v", err)
	}

	if cfg.Planning.Horizon != 28 {
		t.Errorf("Expected horizon 28, got %d", cfg.Planning.Horizon)
	}
	if !cfg.Planning.TransportRate.Equal(decimal.RequireFromString("0.01")) {
		t.Errorf("Expected transport rate 0.01, got %s", cfg.Planning.TransportRate)
	}
	if cfg.Planning.SolverTimeout != 30*time.Second {
		t.Errorf("Expected 30s timeout, got %v", cfg.Planning.SolverTimeout)
	}
	if cfg.Planning.MaxSolverTimeout != 2*time.Minute || cfg.Planning.MaxConcurrentSolves != 4 {
		t.Errorf("Expected 2m max timeout and 4 solves, got %v/%d",
			cfg.Planning.MaxSolverTimeout, cfg.Planning.MaxConcurrentSolves)
	}
	if cfg.Planning.HoldingDays != 1 {
		t.Errorf("Expected 1 holding day, got %d", cfg.Planning.HoldingDays)
	}
	if cfg.Database.Driver != "memory" || cfg.Server.Port != "8080" || cfg.LogLevel != "info" {
		t.Errorf("Expected memory/8080/info, got %s/%s/%s", cfg.Database.Driver, cfg.Server.Port, cfg.LogLevel)
	}
}

func TestLoad_EnvFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), ".env")
	content := strings.Join([]string{
		"PERISHABLE_HORIZON=14",
		"PERISHABLE_CAPACITY=600",
		"PERISHABLE_SOLVER_TIMEOUT=5s",
		"PERISHABLE_GRANULARITY=cycle",
		"PERISHABLE_DB_DRIVER=sqlite",
		"PERISHABLE_DB_DSN=data/runs.db",
		"PERISHABLE_PLAN_CRON=0 5 * * *",
		"PERISHABLE_SCENARIO=scenarios/dairy.yaml",
	}, "\n")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write env file: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Failed to load env file: %v", err)
	}
	if cfg.Planning.Horizon != 14 || cfg.Planning.Capacity != 600 {
		t.Errorf("Expected 14/600, got %d/%d", cfg.Planning.Horizon, cfg.Planning.Capacity)
	}
	if cfg.Planning.SolverTimeout != 5*time.Second || cfg.Planning.Granularity != "cycle" {
		t.Errorf("Expected 5s/cycle, got %v/%s", cfg.Planning.SolverTimeout, cfg.Planning.Granularity)
	}
	if cfg.Database.Driver != "sqlite" || cfg.Database.DSN != "data/runs.db" {
		t.Errorf("Expected sqlite data/runs.db, got %s %s", cfg.Database.Driver, cfg.Database.DSN)
	}
	if cfg.Schedule.Cron != "0 5 * * *" || cfg.Schedule.Scenario != "scenarios/dairy.yaml" {
		t.Errorf("Unexpected schedule %+v", cfg.Schedule)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		key, value, contains string
	}{
		{"PERISHABLE_HORIZON", "0", "PERISHABLE_HORIZON"},
		{"PERISHABLE_HORIZON", "abc", "invalid integer"},
		{"PERISHABLE_CAPACITY", "-1", "cannot be negative"},
		{"PERISHABLE_TRANSPORT_RATE", "-0.5", "cannot be negative"},
		{"PERISHABLE_SOLVER_TIMEOUT", "soon", "invalid duration"},
		{"PERISHABLE_SOLVER_TIMEOUT", "5m", "PERISHABLE_SOLVER_MAX_TIMEOUT must be at least"},
		{"PERISHABLE_SOLVER_MAX_TIMEOUT", "10s", "PERISHABLE_SOLVER_MAX_TIMEOUT must be at least"},
		{"PERISHABLE_MAX_CONCURRENT_SOLVES", "0", "must be positive"},
		{"PERISHABLE_GRANULARITY", "weekly", "daily or cycle"},
		{"PERISHABLE_DB_DRIVER", "mysql", "memory, sqlite or pgx"},
		{"PERISHABLE_DB_DRIVER", "pgx", "PERISHABLE_DB_DSN"},
		{"PERISHABLE_PLAN_CRON", "@daily", "PERISHABLE_SCENARIO"},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)
			_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
			if err == nil {
				t.Fatal("Expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.contains) {
				t.Errorf("Expected error containing %q, got %v", tt.contains, err)
			}
		})
	}
}
