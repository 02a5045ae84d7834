package yaml

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"
	yamlv3 "gopkg.in/yaml.v3"

	"github.com/vsinha/perishable/pkg/application/dto"
	"github.com/vsinha/perishable/pkg/domain/entities"
	"github.com/vsinha/perishable/pkg/domain/repositories"
)

// amount decodes a YAML number or string into a decimal without a float round trip
type amount struct {
	decimal.Decimal
	set bool
}

func (a *amount) UnmarshalYAML(node *yamlv3.Node) error {
	if node.Kind != yamlv3.ScalarNode {
		return fmt.Errorf("line %d: expected a number, got %s", node.Line, node.Tag)
	}
	d, err := decimal.NewFromString(strings.TrimSpace(node.Value))
	if err != nil {
		return fmt.Errorf("line %d: invalid amount %q", node.Line, node.Value)
	}
	a.Decimal, a.set = d, true
	return nil
}

type productDoc struct {
	ID                   string  `yaml:"id"`
	Name                 string  `yaml:"name"`
	ShelfLife            int     `yaml:"shelf_life"`
	SellingPrice         amount  `yaml:"selling_price"`
	ProductionCost       amount  `yaml:"production_cost"`
	HoldingCostPerDay    amount  `yaml:"holding_cost_per_day"`
	TransportCostPerUnit amount  `yaml:"transport_cost_per_unit"`
	ProductionPlan       []int64 `yaml:"production_plan"`
	MinDailyProduction   int64   `yaml:"min_daily_production"`
}

type distributorDoc struct {
	ID                 string   `yaml:"id"`
	Name               string   `yaml:"name"`
	PolicyDays         int      `yaml:"policy_days"`
	PurchaseProportion amount   `yaml:"purchase_proportion"`
	DistanceKm         amount   `yaml:"distance_km"`
	PreferredProducts  []string `yaml:"preferred_products"`
	WeeklySchedule     string   `yaml:"weekly_schedule"`
	PrecedenceRank     *int     `yaml:"precedence_rank,omitempty"`
}

// Document is the on-disk layout of a YAML scenario
type Document struct {
	Name               string           `yaml:"name"`
	StartWeekday       string           `yaml:"start_weekday"`
	TransportRatePerKm amount           `yaml:"transport_rate_per_km,omitempty"`
	PlantDays          string           `yaml:"plant_days"`
	Horizon            int              `yaml:"horizon"`
	Capacity           int64            `yaml:"capacity"`
	Products           []productDoc     `yaml:"products"`
	Distributors       []distributorDoc `yaml:"distributors"`
}

// Loader reads scenarios from YAML files
type Loader struct {
	defaultHorizon int
	transportRate  *decimal.Decimal
}

// NewLoader creates a YAML loader. defaultHorizon applies when the document sets none.
func NewLoader(defaultHorizon int) *Loader {
	return &Loader{defaultHorizon: defaultHorizon}
}

// WithTransportRate sets the per-km rate used when the document sets none
func (l *Loader) WithTransportRate(rate decimal.Decimal) *Loader {
	l.transportRate = &rate
	return l
}

var _ repositories.ScenarioRepository = (*Loader)(nil)

// LoadScenario reads and validates the scenario file at path
func (l *Loader) LoadScenario(path string) (*entities.Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file %s: %w", path, err)
	}
	in, err := l.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse scenario file %s: %w", path, err)
	}
	if in.Name == "" {
		in.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return in.ToScenario()
}

// Decode parses a YAML document into its wire form. Unknown keys are rejected.
func (l *Loader) Decode(data []byte) (*dto.ScenarioInput, error) {
	var doc Document
	dec := yamlv3.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}

	in := &dto.ScenarioInput{
		Name:         doc.Name,
		StartWeekday: doc.StartWeekday,
		PlantDays:    doc.PlantDays,
		Horizon:      doc.Horizon,
		Capacity:     doc.Capacity,
	}
	if in.Horizon == 0 {
		in.Horizon = l.defaultHorizon
	}
	if doc.TransportRatePerKm.set {
		rate := doc.TransportRatePerKm.Decimal
		in.TransportRatePerKm = &rate
	} else if l.transportRate != nil {
		rate := *l.transportRate
		in.TransportRatePerKm = &rate
	}
	for _, p := range doc.Products {
		in.Products = append(in.Products, dto.ProductInput{
			ID:                   p.ID,
			Name:                 p.Name,
			ShelfLife:            p.ShelfLife,
			SellingPrice:         p.SellingPrice.Decimal,
			ProductionCost:       p.ProductionCost.Decimal,
			HoldingCostPerDay:    p.HoldingCostPerDay.Decimal,
			TransportCostPerUnit: p.TransportCostPerUnit.Decimal,
			ProductionPlan:       p.ProductionPlan,
			MinDailyProduction:   p.MinDailyProduction,
		})
	}
	for _, d := range doc.Distributors {
		in.Distributors = append(in.Distributors, dto.DistributorInput{
			ID:                 d.ID,
			Name:               d.Name,
			PolicyDays:         d.PolicyDays,
			PurchaseProportion: d.PurchaseProportion.Decimal,
			DistanceKm:         d.DistanceKm.Decimal,
			PreferredProducts:  d.PreferredProducts,
			WeeklySchedule:     d.WeeklySchedule,
			PrecedenceRank:     d.PrecedenceRank,
		})
	}
	return in, nil
}

// Encode renders a scenario in the same layout LoadScenario reads
func Encode(in *dto.ScenarioInput) ([]byte, error) {
	doc := Document{
		Name:         in.Name,
		StartWeekday: in.StartWeekday,
		PlantDays:    in.PlantDays,
		Horizon:      in.Horizon,
		Capacity:     in.Capacity,
	}
	if in.TransportRatePerKm != nil {
		doc.TransportRatePerKm = amount{Decimal: *in.TransportRatePerKm, set: true}
	}
	for _, p := range in.Products {
		doc.Products = append(doc.Products, productDoc{
			ID:                   p.ID,
			Name:                 p.Name,
			ShelfLife:            p.ShelfLife,
			SellingPrice:         amount{Decimal: p.SellingPrice, set: true},
			ProductionCost:       amount{Decimal: p.ProductionCost, set: true},
			HoldingCostPerDay:    amount{Decimal: p.HoldingCostPerDay, set: true},
			TransportCostPerUnit: amount{Decimal: p.TransportCostPerUnit, set: true},
			ProductionPlan:       p.ProductionPlan,
			MinDailyProduction:   p.MinDailyProduction,
		})
	}
	for _, d := range in.Distributors {
		doc.Distributors = append(doc.Distributors, distributorDoc{
			ID:                 d.ID,
			Name:               d.Name,
			PolicyDays:         d.PolicyDays,
			PurchaseProportion: amount{Decimal: d.PurchaseProportion, set: true},
			DistanceKm:         amount{Decimal: d.DistanceKm, set: true},
			PreferredProducts:  d.PreferredProducts,
			WeeklySchedule:     d.WeeklySchedule,
			PrecedenceRank:     d.PrecedenceRank,
		})
	}

	var buf bytes.Buffer
	enc := yamlv3.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return nil, fmt.Errorf("failed to encode scenario: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode scenario: %w", err)
	}
	return buf.Bytes(), nil
}

func (a amount) MarshalYAML() (interface{}, error) {
	return &yamlv3.Node{Kind: yamlv3.ScalarNode, Value: a.Decimal.String()}, nil
}

// IsZero reports an absent value, so omitempty drops it
func (a amount) IsZero() bool {
	return !a.set
}

// IsScenarioFile reports whether path has a YAML extension
func IsScenarioFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}
