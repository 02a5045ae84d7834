package entities

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultTransportRatePerKm is the per-unit, per-kilometre shipping rate used when none is configured
var DefaultTransportRatePerKm = decimal.RequireFromString("0.01")

// Warning codes reported by Registry.Warnings
const (
	WarningPolicyExceedsShelfLife = "policy_exceeds_shelf_life"
	WarningNeverServed            = "never_served"
)

// ConfigWarning is a non-fatal finding about a registry
type ConfigWarning struct {
	Code          string        `json:"code"`
	DistributorID DistributorID `json:"distributor_id"`
	ProductID     ProductID     `json:"product_id,omitempty"`
	Message       string        `json:"message"`
}

// Registry is the immutable set of products and distributors for one run
type Registry struct {
	products         []Product
	productIndex     map[ProductID]int
	distributors     []Distributor
	distributorIndex map[DistributorID]int

	startWeekday  time.Weekday
	transportRate decimal.Decimal
	plantDays     WeekdaySet
}

// RegistryOption customizes a Registry at construction
type RegistryOption func(*Registry)

// WithStartWeekday sets the weekday of simulated day 1
func WithStartWeekday(d time.Weekday) RegistryOption {
	return func(r *Registry) { r.startWeekday = d }
}

// WithTransportRate sets the shipping rate per unit per kilometre
func WithTransportRate(rate decimal.Decimal) RegistryOption {
	return func(r *Registry) { r.transportRate = rate }
}

// WithPlantDays sets the weekdays on which the plant may produce
func WithPlantDays(days WeekdaySet) RegistryOption {
	return func(r *Registry) { r.plantDays = days }
}

// NewRegistry validates products and distributors and freezes them into a Registry.
// The first violation is returned as a *ConfigurationError.
func NewRegistry(products []*Product, distributors []*Distributor, opts ...RegistryOption) (*Registry, error) {
	r := &Registry{
		productIndex:     make(map[ProductID]int, len(products)),
		distributorIndex: make(map[DistributorID]int, len(distributors)),
		startWeekday:     time.Monday,
		transportRate:    DefaultTransportRatePerKm,
		plantDays:        EveryDay,
	}
	for _, opt := range opts {
		opt(r)
	}

	if len(products) == 0 {
		return nil, newConfigurationError("products", 0, "registry must contain at least one product")
	}
	if r.startWeekday < time.Sunday || r.startWeekday > time.Saturday {
		return nil, newConfigurationError("start_weekday", int(r.startWeekday),
			fmt.Sprintf("start weekday must be between 0 and 6, got %d", r.startWeekday))
	}
	if r.transportRate.IsNegative() {
		return nil, newConfigurationError("transport_rate_per_km", r.transportRate.String(),
			fmt.Sprintf("transport rate cannot be negative, got %s", r.transportRate))
	}
	if r.plantDays.IsEmpty() {
		return nil, newConfigurationError("plant_days", r.plantDays.String(), "plant must produce on at least one weekday")
	}

	r.products = make([]Product, 0, len(products))
	for _, p := range products {
		if p == nil {
			return nil, newConfigurationError("products", nil, "product cannot be nil")
		}
		if err := p.Validate(); err != nil {
			return nil, err
		}
		r.products = append(r.products, p.clone())
	}
	sort.Slice(r.products, func(i, j int) bool { return r.products[i].ID < r.products[j].ID })
	for i, p := range r.products {
		if _, exists := r.productIndex[p.ID]; exists {
			return nil, newConfigurationError("product.id", p.ID, fmt.Sprintf("duplicate product id %s", p.ID))
		}
		r.productIndex[p.ID] = i
	}

	r.distributors = make([]Distributor, 0, len(distributors))
	for _, d := range distributors {
		if d == nil {
			return nil, newConfigurationError("distributors", nil, "distributor cannot be nil")
		}
		if err := d.Validate(); err != nil {
			return nil, err
		}
		dist := d.clone()
		dist.PreferredProducts = normalizeProductIDs(dist.PreferredProducts)
		for _, pid := range dist.PreferredProducts {
			if _, ok := r.productIndex[pid]; !ok {
				return nil, newConfigurationError("distributor.preferred_products", pid,
					fmt.Sprintf("distributor %s prefers unknown product %s", dist.ID, pid))
			}
		}
		r.distributors = append(r.distributors, dist)
	}
	sort.Slice(r.distributors, func(i, j int) bool { return r.distributors[i].ID < r.distributors[j].ID })
	for i, d := range r.distributors {
		if _, exists := r.distributorIndex[d.ID]; exists {
			return nil, newConfigurationError("distributor.id", d.ID, fmt.Sprintf("duplicate distributor id %s", d.ID))
		}
		r.distributorIndex[d.ID] = i
	}

	return r, nil
}

// Products returns copies of all products in id order
func (r *Registry) Products() []Product {
	out := make([]Product, len(r.products))
	for i, p := range r.products {
		out[i] = p.clone()
	}
	return out
}

// ProductIDs returns all product ids in order
func (r *Registry) ProductIDs() []ProductID {
	ids := make([]ProductID, len(r.products))
	for i, p := range r.products {
		ids[i] = p.ID
	}
	return ids
}

// Product returns a copy of the product with the given id
func (r *Registry) Product(id ProductID) (Product, bool) {
	idx, ok := r.productIndex[id]
	if !ok {
		return Product{}, false
	}
	return r.products[idx].clone(), true
}

// Distributors returns copies of all distributors in id order
func (r *Registry) Distributors() []Distributor {
	out := make([]Distributor, len(r.distributors))
	for i, d := range r.distributors {
		out[i] = d.clone()
	}
	return out
}

// Distributor returns a copy of the distributor with the given id
func (r *Registry) Distributor(id DistributorID) (Distributor, bool) {
	idx, ok := r.distributorIndex[id]
	if !ok {
		return Distributor{}, false
	}
	return r.distributors[idx].clone(), true
}

// StartWeekday is the weekday of simulated day 1
func (r *Registry) StartWeekday() time.Weekday { return r.startWeekday }

// TransportRatePerKm is the shipping rate per unit per kilometre
func (r *Registry) TransportRatePerKm() decimal.Decimal { return r.transportRate }

// PlantDays are the weekdays the plant may produce on
func (r *Registry) PlantDays() WeekdaySet { return r.plantDays }

// WeekdayOf maps a simulated day to its weekday
func (r *Registry) WeekdayOf(day Day) time.Weekday {
	offset := (int(day) - 1) % 7
	if offset < 0 {
		offset += 7
	}
	return time.Weekday((int(r.startWeekday) + offset) % 7)
}

// UnitTransportCost is the shipping cost of one unit of product to distributor
func (r *Registry) UnitTransportCost(product ProductID, distributor DistributorID) decimal.Decimal {
	cost := decimal.Zero
	if p, ok := r.productIndex[product]; ok {
		cost = cost.Add(r.products[p].Pricing.TransportCostPerUnit)
	}
	if d, ok := r.distributorIndex[distributor]; ok {
		cost = cost.Add(r.distributors[d].DistanceKm.Mul(r.transportRate))
	}
	return cost
}

// Warnings lists configurations that are legal but probably unintended
func (r *Registry) Warnings() []ConfigWarning {
	var warnings []ConfigWarning
	for _, d := range r.distributors {
		if len(d.PreferredProducts) == 0 || d.WeeklySchedule.IsEmpty() {
			warnings = append(warnings, ConfigWarning{
				Code:          WarningNeverServed,
				DistributorID: d.ID,
				Message:       fmt.Sprintf("distributor %s has no preferred products or purchase days and will never be served", d.ID),
			})
			continue
		}
		for _, pid := range d.PreferredProducts {
			p := r.products[r.productIndex[pid]]
			if d.Policy.Days > p.ShelfLife {
				warnings = append(warnings, ConfigWarning{
					Code:          WarningPolicyExceedsShelfLife,
					DistributorID: d.ID,
					ProductID:     pid,
					Message: fmt.Sprintf("distributor %s accepts %d days but product %s lasts %d; window truncated",
						d.ID, d.Policy.Days, pid, p.ShelfLife),
				})
			}
		}
	}
	return warnings
}

// WithPlan returns a new Registry whose products use the given production plans.
// Products missing from plan keep their current plan.
func (r *Registry) WithPlan(plan map[ProductID][]Quantity) (*Registry, error) {
	products := make([]*Product, 0, len(r.products))
	for _, p := range r.products {
		cp := p.clone()
		if q, ok := plan[cp.ID]; ok {
			cp.ProductionPlan = append([]Quantity(nil), q...)
		}
		products = append(products, &cp)
	}
	for id := range plan {
		if _, ok := r.productIndex[id]; !ok {
			return nil, newConfigurationError("production_plan", id, fmt.Sprintf("production plan references unknown product %s", id))
		}
	}
	distributors := make([]*Distributor, 0, len(r.distributors))
	for _, d := range r.distributors {
		cp := d.clone()
		distributors = append(distributors, &cp)
	}
	return NewRegistry(products, distributors,
		WithStartWeekday(r.startWeekday),
		WithTransportRate(r.transportRate),
		WithPlantDays(r.plantDays),
	)
}
