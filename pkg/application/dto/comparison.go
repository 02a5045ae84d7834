package dto

import (
	"github.com/shopspring/decimal"

	"github.com/vsinha/perishable/pkg/domain/entities"
)

// ScenarioOutcome is a simulation with its financial summary
type ScenarioOutcome struct {
	Simulation *SimulationResult `json:"simulation"`
	Financials *FinancialReport  `json:"financials"`
}

// ComparisonResult contrasts the configured production plan with the optimized one
type ComparisonResult struct {
	Scenario    string            `json:"scenario"`
	Baseline    ScenarioOutcome   `json:"baseline"`
	Optimized   ScenarioOutcome   `json:"optimized"`
	Plan        *ProductionPlan   `json:"plan"`
	ProfitDelta decimal.Decimal   `json:"profit_delta"`
	WasteDelta  entities.Quantity `json:"waste_delta"`
}
