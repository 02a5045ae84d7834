package dto

import (
	"github.com/shopspring/decimal"

	"github.com/vsinha/perishable/pkg/domain/entities"
)

// Granularity selects the optimizer's planning period
type Granularity string

const (
	GranularityDaily Granularity = "daily"
	GranularityCycle Granularity = "cycle"
)

// CycleDays is the length of a planning cycle and of the rolling capacity window
const CycleDays = 4

// ProductPlan holds one product's recommended production
type ProductPlan struct {
	ProductID entities.ProductID `json:"product_id"`
	Margin    decimal.Decimal    `json:"margin"`
	// Periods holds one quantity per planning period
	Periods []entities.Quantity `json:"periods"`
	// Daily expands Periods onto simulated days, index 0 is day 1
	Daily  []entities.Quantity `json:"daily"`
	Total  entities.Quantity   `json:"total"`
	Profit decimal.Decimal     `json:"profit"`
}

// ProductionPlan is the optimizer's recommendation
type ProductionPlan struct {
	Granularity Granularity       `json:"granularity"`
	Horizon     int               `json:"horizon"`
	Periods     int               `json:"periods"`
	Capacity    entities.Quantity `json:"capacity"`
	HoldingDays int               `json:"holding_days"`
	Products    []ProductPlan     `json:"products"`
	Objective   decimal.Decimal   `json:"objective"`
}

// AsProductionPlan returns the daily quantities in the form a simulation accepts
func (p *ProductionPlan) AsProductionPlan() map[entities.ProductID][]entities.Quantity {
	plan := make(map[entities.ProductID][]entities.Quantity, len(p.Products))
	for _, product := range p.Products {
		plan[product.ProductID] = append([]entities.Quantity(nil), product.Daily...)
	}
	return plan
}

// PeriodBounds returns the first and last simulated day of a zero-based period
func (p *ProductionPlan) PeriodBounds(period int) (entities.Day, entities.Day) {
	if p.Granularity == GranularityCycle {
		start := period*CycleDays + 1
		end := start + CycleDays - 1
		if end > p.Horizon {
			end = p.Horizon
		}
		return entities.Day(start), entities.Day(end)
	}
	return entities.Day(period + 1), entities.Day(period + 1)
}
