package entities

import (
	"encoding/json"
	"time"
)

// RunKind distinguishes persisted run results
type RunKind string

const (
	RunKindSimulation   RunKind = "simulation"
	RunKindOptimization RunKind = "optimization"
	RunKindComparison   RunKind = "comparison"
)

// RunRecord is a stored simulation, optimization or comparison result.
// Payload holds the JSON encoded result DTO.
type RunRecord struct {
	ID        string          `json:"id"`
	Kind      RunKind         `json:"kind"`
	Scenario  string          `json:"scenario"`
	CreatedAt time.Time       `json:"created_at"`
	Payload   json.RawMessage `json:"payload"`
}

// Scenario is a named registry with its run parameters
type Scenario struct {
	Name     string
	Registry *Registry
	Horizon  int
	Capacity Quantity
}

const (
	MinHorizon = 1
	MaxHorizon = 365
)

// ValidateHorizon checks that a simulation or planning horizon is in range
func ValidateHorizon(horizon int) error {
	if horizon < MinHorizon || horizon > MaxHorizon {
		return NewConfigurationError("horizon", horizon, "horizon must be between %d and %d days, got %d",
			MinHorizon, MaxHorizon, horizon)
	}
	return nil
}
