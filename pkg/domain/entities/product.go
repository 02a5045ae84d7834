package entities

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ProductID represents a unique product identifier
type ProductID string

// Quantity represents a whole number of product units
type Quantity int64

// Day is a simulated day number; day 1 is the first day of a run
type Day int

// Pricing groups the per-unit economics of a product
type Pricing struct {
	SellingPrice         decimal.Decimal `json:"selling_price"`
	ProductionCost       decimal.Decimal `json:"production_cost"`
	HoldingCostPerDay    decimal.Decimal `json:"holding_cost_per_day"`
	TransportCostPerUnit decimal.Decimal `json:"transport_cost_per_unit"`
}

// Product represents a perishable good produced in daily batches
type Product struct {
	ID        ProductID `json:"id"`
	Name      string    `json:"name"`
	ShelfLife int       `json:"shelf_life"`
	Pricing   Pricing   `json:"pricing"`
	// ProductionPlan holds planned quantities; index 0 is day 1
	ProductionPlan     []Quantity `json:"production_plan"`
	MinDailyProduction Quantity   `json:"min_daily_production"`
}

// NewProduct creates a validated Product
func NewProduct(id ProductID, name string, shelfLife int, pricing Pricing, plan []Quantity) (*Product, error) {
	product := &Product{
		ID:             id,
		Name:           name,
		ShelfLife:      shelfLife,
		Pricing:        pricing,
		ProductionPlan: append([]Quantity(nil), plan...),
	}
	if err := product.Validate(); err != nil {
		return nil, err
	}
	return product, nil
}

// Validate checks the product's ranges
func (p *Product) Validate() error {
	if string(p.ID) == "" {
		return newConfigurationError("product.id", p.ID, "product id cannot be empty")
	}
	if p.ShelfLife < 1 {
		return newConfigurationError("product.shelf_life", p.ShelfLife,
			fmt.Sprintf("shelf life must be at least 1 day, got %d", p.ShelfLife))
	}
	prices := []struct {
		field string
		value decimal.Decimal
	}{
		{"selling_price", p.Pricing.SellingPrice},
		{"production_cost", p.Pricing.ProductionCost},
		{"holding_cost_per_day", p.Pricing.HoldingCostPerDay},
		{"transport_cost_per_unit", p.Pricing.TransportCostPerUnit},
	}
	for _, price := range prices {
		if price.value.IsNegative() {
			return newConfigurationError("product."+price.field, price.value.String(),
				fmt.Sprintf("%s cannot be negative for product %s, got %s", price.field, p.ID, price.value))
		}
	}
	for i, qty := range p.ProductionPlan {
		if qty < 0 {
			return newConfigurationError("product.production_plan", qty,
				fmt.Sprintf("planned quantity cannot be negative for product %s on day %d, got %d", p.ID, i+1, qty))
		}
	}
	if p.MinDailyProduction < 0 {
		return newConfigurationError("product.min_daily_production", p.MinDailyProduction,
			fmt.Sprintf("minimum daily production cannot be negative for product %s, got %d", p.ID, p.MinDailyProduction))
	}
	return nil
}

// PlannedQuantity returns the planned production for a day, zero outside the plan
func (p *Product) PlannedQuantity(day Day) Quantity {
	idx := int(day) - 1
	if idx < 0 || idx >= len(p.ProductionPlan) {
		return 0
	}
	return p.ProductionPlan[idx]
}

// UnitMargin is the per-unit contribution used by the optimizer: price minus
// production, holding (accrued over holdingDays) and transport costs.
func (p *Product) UnitMargin(holdingDays int) decimal.Decimal {
	holding := p.Pricing.HoldingCostPerDay.Mul(decimal.NewFromInt(int64(holdingDays)))
	return p.Pricing.SellingPrice.
		Sub(p.Pricing.ProductionCost).
		Sub(holding).
		Sub(p.Pricing.TransportCostPerUnit)
}

func (p Product) clone() Product {
	p.ProductionPlan = append([]Quantity(nil), p.ProductionPlan...)
	return p
}
