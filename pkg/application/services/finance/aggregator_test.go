package finance

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/vsinha/perishable/pkg/application/dto"
	"github.com/vsinha/perishable/pkg/application/services/simulation"
	"github.com/vsinha/perishable/pkg/domain/entities"
	testhelpers "github.com/vsinha/perishable/pkg/infrastructure/testing"
)

func simulate(t *testing.T, registry *entities.Registry, horizon int) *dto.SimulationResult {
	t.Helper()
	result, err := simulation.NewService(nil).Run(context.Background(), simulation.Input{Registry: registry, Horizon: horizon})
	if err != nil {
		t.Fatalf("Simulation failed: %v", err)
	}
	return result
}

func TestAggregate_FreshMilk(t *testing.T) {
	registry := testhelpers.BuildFreshMilkScenario()
	report, err := Aggregate(registry, simulate(t, registry, 8))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	milk := report.Products[0]
	testCases := []struct {
		name     string
		got      decimal.Decimal
		expected string
	}{
		{"revenue", milk.Revenue, "2500"},
		{"production cost", milk.ProductionCost, "2000"},
		{"transport cost", milk.TransportCost, "250"},
		// 750 unit-days of end-of-day stock at 0.5
		{"holding cost", milk.HoldingCost, "375"},
		{"waste loss", milk.WasteLoss, "1000"},
		{"net profit", milk.NetProfit, "-125"},
	}
	for _, tc := range testCases {
		if !tc.got.Equal(decimal.RequireFromString(tc.expected)) {
			t.Errorf("Expected %s %s, got %s", tc.name, tc.expected, tc.got)
		}
	}
	if !report.Total.NetProfit.Equal(milk.NetProfit) {
		t.Errorf("Expected total to equal the single product, got %s", report.Total.NetProfit)
	}
	if milk.Produced != 500 || milk.Sold != 250 || milk.Wasted != 250 || milk.EndInventory != 0 {
		t.Errorf("Unexpected quantities %+v", milk)
	}
}

func TestAggregate_TotalsAcrossProducts(t *testing.T) {
	registry := testhelpers.BuildRegionalScenario()
	report, err := Aggregate(registry, simulate(t, registry, 28))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(report.Products) != 2 {
		t.Fatalf("Expected 2 products, got %d", len(report.Products))
	}

	sum := report.Products[0].NetProfit.Add(report.Products[1].NetProfit)
	if !sum.Equal(report.Total.NetProfit) {
		t.Errorf("Expected total net profit %s, got %s", sum, report.Total.NetProfit)
	}
	if report.Total.Produced != report.Total.Sold+report.Total.Wasted+report.Total.EndInventory {
		t.Errorf("Expected totals to reconcile, got %+v", report.Total)
	}
}

func TestAggregate_NetProfitLeavesWasteInProductionCost(t *testing.T) {
	registry := testhelpers.BuildRegionalScenario()
	report, err := Aggregate(registry, simulate(t, registry, 28))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	for _, row := range append(report.Products, report.Total) {
		expected := row.Revenue.Sub(row.ProductionCost).Sub(row.TransportCost).Sub(row.HoldingCost)
		if !row.NetProfit.Equal(expected) {
			t.Errorf("%q: expected net profit %s, got %s", row.ProductID, expected, row.NetProfit)
		}
		if row.WasteLoss.GreaterThan(row.ProductionCost) {
			t.Errorf("%q: expected waste loss %s within production cost %s", row.ProductID, row.WasteLoss, row.ProductionCost)
		}
	}
}

func TestAggregate_ReconciliationError(t *testing.T) {
	registry := testhelpers.BuildFreshMilkScenario()
	result := simulate(t, registry, 8)
	result.Batches[0].Sold++

	_, err := Aggregate(registry, result)
	var recErr *entities.ReconciliationError
	if !errors.As(err, &recErr) {
		t.Fatalf("Expected *ReconciliationError, got %v", err)
	}
	if recErr.ProductID != "MILK" {
		t.Errorf("Expected MILK, got %s", recErr.ProductID)
	}
}

func TestFromPlan_MatchesMargin(t *testing.T) {
	registry := testhelpers.BuildFreshMilkScenario()
	plan := &dto.ProductionPlan{
		HoldingDays: 2,
		Products:    []dto.ProductPlan{{ProductID: "MILK", Total: 100}},
	}

	report, err := FromPlan(registry, plan)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	product, _ := registry.Product("MILK")
	expected := product.UnitMargin(2).Mul(decimal.NewFromInt(100))
	if !report.Total.NetProfit.Equal(expected) {
		t.Errorf("Expected net profit %s, got %s", expected, report.Total.NetProfit)
	}

	plan.Products[0].ProductID = "BREAD"
	if _, err := FromPlan(registry, plan); err == nil {
		t.Error("Expected error for unknown product")
	}
}

func TestDistributorBatchMatrix(t *testing.T) {
	registry := testhelpers.BuildFreshMilkScenario()
	matrices := DistributorBatchMatrix(simulate(t, registry, 8))

	if len(matrices) != 1 {
		t.Fatalf("Expected 1 matrix, got %d", len(matrices))
	}
	m := matrices[0]
	if len(m.Days) != 5 || len(m.Rows) != 1 {
		t.Fatalf("Expected 5 days and 1 row, got %d days %d rows", len(m.Days), len(m.Rows))
	}
	if m.Rows[0].Total != 250 {
		t.Errorf("Expected SHOP total 250, got %d", m.Rows[0].Total)
	}
	for i, q := range m.Rows[0].Quantities {
		if q != 50 {
			t.Errorf("Expected 50 from batch day %d, got %d", m.Days[i], q)
		}
	}
}
