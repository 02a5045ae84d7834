package entities

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// DistributorID represents a unique distributor identifier
type DistributorID string

const (
	// MinPolicyDays and MaxPolicyDays bound a distributor's acceptance window
	MinPolicyDays = 1
	MaxPolicyDays = 30
)

var (
	minProportion = decimal.NewFromInt(1)
	maxProportion = decimal.NewFromInt(100)
)

// Policy describes which batches a distributor accepts and how much it buys
type Policy struct {
	// Days is the number of days of life, counting the production day as the
	// first, during which the distributor accepts a batch
	Days int `json:"days"`
	// PurchaseProportion is a percentage (1-100) of the eligible stock drawn per purchase day
	PurchaseProportion decimal.Decimal `json:"purchase_proportion"`
}

// Distributor represents a buyer of perishable batches
type Distributor struct {
	ID                DistributorID   `json:"id"`
	Name              string          `json:"name"`
	Policy            Policy          `json:"policy"`
	DistanceKm        decimal.Decimal `json:"distance_km"`
	PreferredProducts []ProductID     `json:"preferred_products"`
	WeeklySchedule    WeekdaySet      `json:"weekly_schedule"`
	PrecedenceRank    int             `json:"precedence_rank"`
}

// NewDistributor creates a validated Distributor. Preferred products are
// de-duplicated and kept in id order.
func NewDistributor(
	id DistributorID,
	name string,
	policy Policy,
	distanceKm decimal.Decimal,
	preferred []ProductID,
	schedule WeekdaySet,
	precedenceRank int,
) (*Distributor, error) {
	distributor := &Distributor{
		ID:                id,
		Name:              name,
		Policy:            policy,
		DistanceKm:        distanceKm,
		PreferredProducts: normalizeProductIDs(preferred),
		WeeklySchedule:    schedule,
		PrecedenceRank:    precedenceRank,
	}
	if err := distributor.Validate(); err != nil {
		return nil, err
	}
	return distributor, nil
}

// Validate checks the distributor's ranges
func (d *Distributor) Validate() error {
	if string(d.ID) == "" {
		return newConfigurationError("distributor.id", d.ID, "distributor id cannot be empty")
	}
	if d.Policy.Days < MinPolicyDays || d.Policy.Days > MaxPolicyDays {
		return newConfigurationError("distributor.policy_days", d.Policy.Days,
			fmt.Sprintf("policy days must be between %d and %d for distributor %s, got %d",
				MinPolicyDays, MaxPolicyDays, d.ID, d.Policy.Days))
	}
	if d.Policy.PurchaseProportion.LessThan(minProportion) || d.Policy.PurchaseProportion.GreaterThan(maxProportion) {
		return newConfigurationError("distributor.purchase_proportion", d.Policy.PurchaseProportion.String(),
			fmt.Sprintf("purchase proportion must be between 1 and 100 percent for distributor %s, got %s",
				d.ID, d.Policy.PurchaseProportion))
	}
	if d.DistanceKm.IsNegative() {
		return newConfigurationError("distributor.distance_km", d.DistanceKm.String(),
			fmt.Sprintf("distance cannot be negative for distributor %s, got %s", d.ID, d.DistanceKm))
	}
	if d.PrecedenceRank < 0 {
		return newConfigurationError("distributor.precedence_rank", d.PrecedenceRank,
			fmt.Sprintf("precedence rank cannot be negative for distributor %s, got %d", d.ID, d.PrecedenceRank))
	}
	return nil
}

// Prefers reports whether the distributor buys the product
func (d *Distributor) Prefers(productID ProductID) bool {
	idx := sort.Search(len(d.PreferredProducts), func(i int) bool {
		return d.PreferredProducts[i] >= productID
	})
	return idx < len(d.PreferredProducts) && d.PreferredProducts[idx] == productID
}

// MaxAcceptedAge returns the oldest batch age (days since production) the
// distributor will take for a product with the given shelf life.
func (d *Distributor) MaxAcceptedAge(shelfLife int) int {
	window := d.Policy.Days
	if shelfLife < window {
		window = shelfLife
	}
	return window - 1
}

func (d Distributor) clone() Distributor {
	d.PreferredProducts = append([]ProductID(nil), d.PreferredProducts...)
	return d
}

func normalizeProductIDs(ids []ProductID) []ProductID {
	seen := make(map[ProductID]bool, len(ids))
	out := make([]ProductID, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
