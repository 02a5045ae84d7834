package entities

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func buildRegistryFixture(t *testing.T, opts ...RegistryOption) *Registry {
	t.Helper()
	milk, err := NewProduct("MILK", "Whole milk", 3, testPricing(), []Quantity{100, 100})
	if err != nil {
		t.Fatalf("Failed to create product: %v", err)
	}
	cheese, err := NewProduct("CHEESE", "Cheddar", 10, testPricing(), nil)
	if err != nil {
		t.Fatalf("Failed to create product: %v", err)
	}
	north, err := NewDistributor("NORTH", "North", testPolicy(5, 50), decimal.NewFromInt(100),
		[]ProductID{"MILK"}, EveryDay, 1)
	if err != nil {
		t.Fatalf("Failed to create distributor: %v", err)
	}
	idle, err := NewDistributor("IDLE", "Idle", testPolicy(2, 10), decimal.Zero, nil, EveryDay, 2)
	if err != nil {
		t.Fatalf("Failed to create distributor: %v", err)
	}
	registry, err := NewRegistry([]*Product{milk, cheese}, []*Distributor{north, idle}, opts...)
	if err != nil {
		t.Fatalf("Failed to create registry: %v", err)
	}
	return registry
}

func TestNewRegistry_SortsAndCopies(t *testing.T) {
	registry := buildRegistryFixture(t)

	ids := registry.ProductIDs()
	if len(ids) != 2 || ids[0] != "CHEESE" || ids[1] != "MILK" {
		t.Errorf("Expected products sorted by id, got %v", ids)
	}

	products := registry.Products()
	products[1].ProductionPlan[0] = 1
	milk, _ := registry.Product("MILK")
	if milk.ProductionPlan[0] != 100 {
		t.Errorf("Expected registry to be immutable, got plan day 1 = %d", milk.ProductionPlan[0])
	}

	if _, ok := registry.Distributor("MISSING"); ok {
		t.Error("Expected missing distributor lookup to fail")
	}
}

func TestNewRegistry_Errors(t *testing.T) {
	milk, _ := NewProduct("MILK", "Whole milk", 3, testPricing(), nil)
	dup, _ := NewProduct("MILK", "Other milk", 3, testPricing(), nil)
	unknownPref := &Distributor{ID: "D1", Policy: testPolicy(2, 50), PreferredProducts: []ProductID{"BREAD"}, WeeklySchedule: EveryDay}

	testCases := []struct {
		name         string
		products     []*Product
		distributors []*Distributor
		opts         []RegistryOption
		expectError  string
	}{
		{"no products", nil, nil, nil, "registry must contain at least one product"},
		{"duplicate product", []*Product{milk, dup}, nil, nil, "duplicate product id MILK"},
		{"unknown preferred product", []*Product{milk}, []*Distributor{unknownPref}, nil, "distributor D1 prefers unknown product BREAD"},
		{"negative rate", []*Product{milk}, nil, []RegistryOption{WithTransportRate(decimal.NewFromInt(-1))}, "transport rate cannot be negative, got -1"},
		{"closed plant", []*Product{milk}, nil, []RegistryOption{WithPlantDays(0)}, "plant must produce on at least one weekday"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewRegistry(tc.products, tc.distributors, tc.opts...)
			if err == nil {
				t.Fatalf("Expected error for %s, but got none", tc.name)
			}
			var cfgErr *ConfigurationError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("Expected *ConfigurationError, got %T", err)
			}
			if err.Error() != tc.expectError {
				t.Errorf("Expected error '%s', got '%s'", tc.expectError, err.Error())
			}
		})
	}
}

func TestRegistry_WeekdayOf(t *testing.T) {
	registry := buildRegistryFixture(t, WithStartWeekday(time.Friday))

	testCases := []struct {
		day      Day
		expected time.Weekday
	}{
		{1, time.Friday},
		{2, time.Saturday},
		{3, time.Sunday},
		{8, time.Friday},
		{10, time.Sunday},
	}
	for _, tc := range testCases {
		if got := registry.WeekdayOf(tc.day); got != tc.expected {
			t.Errorf("Expected day %d to be %s, got %s", tc.day, tc.expected, got)
		}
	}
}

func TestRegistry_UnitTransportCost(t *testing.T) {
	registry := buildRegistryFixture(t)

	// 1 per unit + 100km * 0.01
	cost := registry.UnitTransportCost("MILK", "NORTH")
	if !cost.Equal(decimal.NewFromInt(2)) {
		t.Errorf("Expected unit transport cost 2, got %s", cost)
	}
}

func TestRegistry_Warnings(t *testing.T) {
	registry := buildRegistryFixture(t)

	warnings := registry.Warnings()
	if len(warnings) != 2 {
		t.Fatalf("Expected 2 warnings, got %d: %+v", len(warnings), warnings)
	}
	if warnings[0].Code != WarningNeverServed || warnings[0].DistributorID != "IDLE" {
		t.Errorf("Expected never_served for IDLE, got %+v", warnings[0])
	}
	if warnings[1].Code != WarningPolicyExceedsShelfLife || warnings[1].ProductID != "MILK" {
		t.Errorf("Expected policy_exceeds_shelf_life for NORTH/MILK, got %+v", warnings[1])
	}
}

func TestRegistry_WithPlan(t *testing.T) {
	registry := buildRegistryFixture(t, WithStartWeekday(time.Wednesday))

	replanned, err := registry.WithPlan(map[ProductID][]Quantity{"CHEESE": {7, 8, 9}})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	cheese, _ := replanned.Product("CHEESE")
	if cheese.PlannedQuantity(3) != 9 {
		t.Errorf("Expected replanned day 3 quantity 9, got %d", cheese.PlannedQuantity(3))
	}
	milk, _ := replanned.Product("MILK")
	if milk.PlannedQuantity(1) != 100 {
		t.Errorf("Expected MILK plan untouched, got %d", milk.PlannedQuantity(1))
	}
	if replanned.StartWeekday() != time.Wednesday {
		t.Errorf("Expected start weekday carried over, got %s", replanned.StartWeekday())
	}

	original, _ := registry.Product("CHEESE")
	if len(original.ProductionPlan) != 0 {
		t.Errorf("Expected original registry unchanged, got plan %v", original.ProductionPlan)
	}

	if _, err := registry.WithPlan(map[ProductID][]Quantity{"BREAD": {1}}); err == nil {
		t.Error("Expected error for plan referencing unknown product")
	}
}

func TestBatch_Lifecycle(t *testing.T) {
	batch := &Batch{Ref: BatchRef{ProductID: "MILK", ProductionDay: 4}, ShelfLife: 3, InitialQuantity: 10, RemainingQuantity: 10}

	if batch.ExpiryDay() != 7 {
		t.Errorf("Expected expiry day 7, got %d", batch.ExpiryDay())
	}
	for day, live := range map[Day]bool{3: false, 4: true, 6: true, 7: false} {
		if batch.IsLive(day) != live {
			t.Errorf("Expected IsLive(%d) = %v", day, live)
		}
	}
	if batch.Ref.String() != "MILK@4" {
		t.Errorf("Expected ref MILK@4, got %s", batch.Ref)
	}
}

func TestWasteRecord_WastePercent(t *testing.T) {
	w := WasteRecord{Quantity: 1, InitialQuantity: 3}
	if !w.WastePercent().Equal(decimal.RequireFromString("33.33")) {
		t.Errorf("Expected 33.33, got %s", w.WastePercent())
	}
	if !(WasteRecord{}).WastePercent().IsZero() {
		t.Error("Expected zero percent for empty batch")
	}
}
