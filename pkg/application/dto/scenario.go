package dto

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vsinha/perishable/pkg/domain/entities"
)

// ProductInput is the wire form of a product
type ProductInput struct {
	ID                   string          `json:"id"`
	Name                 string          `json:"name"`
	ShelfLife            int             `json:"shelf_life"`
	SellingPrice         decimal.Decimal `json:"selling_price"`
	ProductionCost       decimal.Decimal `json:"production_cost"`
	HoldingCostPerDay    decimal.Decimal `json:"holding_cost_per_day"`
	TransportCostPerUnit decimal.Decimal `json:"transport_cost_per_unit"`
	ProductionPlan       []int64         `json:"production_plan"`
	MinDailyProduction   int64           `json:"min_daily_production"`
}

// DistributorInput is the wire form of a distributor. A nil PrecedenceRank
// defaults to the policy days.
type DistributorInput struct {
	ID                 string          `json:"id"`
	Name               string          `json:"name"`
	PolicyDays         int             `json:"policy_days"`
	PurchaseProportion decimal.Decimal `json:"purchase_proportion"`
	DistanceKm         decimal.Decimal `json:"distance_km"`
	PreferredProducts  []string        `json:"preferred_products"`
	WeeklySchedule     string          `json:"weekly_schedule"`
	PrecedenceRank     *int            `json:"precedence_rank,omitempty"`
}

// ScenarioInput is the wire form of a complete scenario
type ScenarioInput struct {
	Name               string             `json:"name"`
	StartWeekday       string             `json:"start_weekday"`
	TransportRatePerKm *decimal.Decimal   `json:"transport_rate_per_km,omitempty"`
	PlantDays          string             `json:"plant_days"`
	Horizon            int                `json:"horizon"`
	Capacity           int64              `json:"capacity"`
	Products           []ProductInput     `json:"products"`
	Distributors       []DistributorInput `json:"distributors"`
}

// ToScenario validates the input and builds a Scenario
func (in *ScenarioInput) ToScenario() (*entities.Scenario, error) {
	products := make([]*entities.Product, 0, len(in.Products))
	for _, p := range in.Products {
		plan := make([]entities.Quantity, len(p.ProductionPlan))
		for i, q := range p.ProductionPlan {
			plan[i] = entities.Quantity(q)
		}
		product, err := entities.NewProduct(entities.ProductID(p.ID), p.Name, p.ShelfLife, entities.Pricing{
			SellingPrice:         p.SellingPrice,
			ProductionCost:       p.ProductionCost,
			HoldingCostPerDay:    p.HoldingCostPerDay,
			TransportCostPerUnit: p.TransportCostPerUnit,
		}, plan)
		if err != nil {
			return nil, err
		}
		product.MinDailyProduction = entities.Quantity(p.MinDailyProduction)
		if err := product.Validate(); err != nil {
			return nil, err
		}
		products = append(products, product)
	}

	distributors := make([]*entities.Distributor, 0, len(in.Distributors))
	for _, d := range in.Distributors {
		schedule := entities.MondayToSaturday
		if strings.TrimSpace(d.WeeklySchedule) != "" {
			parsed, err := entities.ParseWeekdaySet(d.WeeklySchedule)
			if err != nil {
				return nil, entities.NewConfigurationError("distributor.weekly_schedule", d.WeeklySchedule,
					"invalid weekly schedule for distributor %s: %v", d.ID, err)
			}
			schedule = parsed
		}
		rank := d.PolicyDays
		if d.PrecedenceRank != nil {
			rank = *d.PrecedenceRank
		}
		preferred := make([]entities.ProductID, len(d.PreferredProducts))
		for i, id := range d.PreferredProducts {
			preferred[i] = entities.ProductID(id)
		}
		distributor, err := entities.NewDistributor(entities.DistributorID(d.ID), d.Name,
			entities.Policy{Days: d.PolicyDays, PurchaseProportion: d.PurchaseProportion},
			d.DistanceKm, preferred, schedule, rank)
		if err != nil {
			return nil, err
		}
		distributors = append(distributors, distributor)
	}

	opts, err := in.RegistryOptions()
	if err != nil {
		return nil, err
	}
	registry, err := entities.NewRegistry(products, distributors, opts...)
	if err != nil {
		return nil, err
	}
	return &entities.Scenario{
		Name:     in.Name,
		Registry: registry,
		Horizon:  in.Horizon,
		Capacity: entities.Quantity(in.Capacity),
	}, nil
}

// RegistryOptions converts the scenario-level settings into registry options
func (in *ScenarioInput) RegistryOptions() ([]entities.RegistryOption, error) {
	var opts []entities.RegistryOption
	if in.StartWeekday != "" {
		day, err := ParseWeekday(in.StartWeekday)
		if err != nil {
			return nil, entities.NewConfigurationError("start_weekday", in.StartWeekday, "%v", err)
		}
		opts = append(opts, entities.WithStartWeekday(day))
	}
	if in.TransportRatePerKm != nil {
		opts = append(opts, entities.WithTransportRate(*in.TransportRatePerKm))
	}
	if in.PlantDays != "" {
		days, err := entities.ParseWeekdaySet(in.PlantDays)
		if err != nil {
			return nil, entities.NewConfigurationError("plant_days", in.PlantDays, "invalid plant days: %v", err)
		}
		opts = append(opts, entities.WithPlantDays(days))
	}
	return opts, nil
}

// ParseWeekday parses a single weekday name such as "mon" or "Monday"
func ParseWeekday(value string) (time.Weekday, error) {
	set, err := entities.ParseWeekdaySet(value)
	if err != nil {
		return 0, err
	}
	days := set.Days()
	if len(days) != 1 {
		return 0, fmt.Errorf("expected a single weekday, got %q", value)
	}
	return days[0], nil
}

// ScenarioInputFromRegistry renders a registry back into wire form
func ScenarioInputFromRegistry(name string, registry *entities.Registry, horizon int, capacity entities.Quantity) *ScenarioInput {
	rate := registry.TransportRatePerKm()
	in := &ScenarioInput{
		Name:               name,
		StartWeekday:       registry.StartWeekday().String(),
		TransportRatePerKm: &rate,
		PlantDays:          registry.PlantDays().String(),
		Horizon:            horizon,
		Capacity:           int64(capacity),
	}
	for _, p := range registry.Products() {
		plan := make([]int64, len(p.ProductionPlan))
		for i, q := range p.ProductionPlan {
			plan[i] = int64(q)
		}
		in.Products = append(in.Products, ProductInput{
			ID:                   string(p.ID),
			Name:                 p.Name,
			ShelfLife:            p.ShelfLife,
			SellingPrice:         p.Pricing.SellingPrice,
			ProductionCost:       p.Pricing.ProductionCost,
			HoldingCostPerDay:    p.Pricing.HoldingCostPerDay,
			TransportCostPerUnit: p.Pricing.TransportCostPerUnit,
			ProductionPlan:       plan,
			MinDailyProduction:   int64(p.MinDailyProduction),
		})
	}
	for _, d := range registry.Distributors() {
		rank := d.PrecedenceRank
		schedule := d.WeeklySchedule.String()
		if d.WeeklySchedule.IsEmpty() {
			schedule = "none"
		}
		preferred := make([]string, len(d.PreferredProducts))
		for i, id := range d.PreferredProducts {
			preferred[i] = string(id)
		}
		in.Distributors = append(in.Distributors, DistributorInput{
			ID:                 string(d.ID),
			Name:               d.Name,
			PolicyDays:         d.Policy.Days,
			PurchaseProportion: d.Policy.PurchaseProportion,
			DistanceKm:         d.DistanceKm,
			PreferredProducts:  preferred,
			WeeklySchedule:     schedule,
			PrecedenceRank:     &rank,
		})
	}
	return in
}
