package finance

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/vsinha/perishable/pkg/application/dto"
	"github.com/vsinha/perishable/pkg/domain/entities"
)

func qty(q entities.Quantity) decimal.Decimal {
	return decimal.NewFromInt(int64(q))
}

// Aggregate computes revenue, costs and profit for a simulation. Waste loss is
// reported separately; it is already part of production cost and is not
// subtracted again.
func Aggregate(registry *entities.Registry, result *dto.SimulationResult) (*dto.FinancialReport, error) {
	if registry == nil || result == nil {
		return nil, fmt.Errorf("registry and simulation result are required")
	}

	rows := make(map[entities.ProductID]*dto.ProductFinancials)
	for _, id := range registry.ProductIDs() {
		rows[id] = newRow(id)
	}
	row := func(id entities.ProductID) (*dto.ProductFinancials, error) {
		r, ok := rows[id]
		if !ok {
			return nil, fmt.Errorf("simulation references unknown product %s", id)
		}
		return r, nil
	}

	for id, totals := range result.Totals() {
		r, err := row(id)
		if err != nil {
			return nil, err
		}
		r.Produced = totals.Produced
		r.Sold = totals.Sold
		r.Wasted = totals.Wasted
	}
	for id, inventory := range result.FinalInventory() {
		r, err := row(id)
		if err != nil {
			return nil, err
		}
		r.EndInventory = inventory
	}
	for _, tx := range result.Transactions {
		r, err := row(tx.Batch.ProductID)
		if err != nil {
			return nil, err
		}
		r.Revenue = r.Revenue.Add(tx.Revenue)
		r.TransportCost = r.TransportCost.Add(tx.TransportCost)
	}
	for _, snap := range result.Snapshots {
		r, err := row(snap.ProductID)
		if err != nil {
			return nil, err
		}
		product, _ := registry.Product(snap.ProductID)
		r.HoldingCost = r.HoldingCost.Add(product.Pricing.HoldingCostPerDay.Mul(qty(snap.Quantity)))
	}

	report := &dto.FinancialReport{Products: make([]dto.ProductFinancials, 0, len(rows))}
	total := newRow("")
	for _, product := range registry.Products() {
		r := rows[product.ID]
		if r.Sold+r.Wasted+r.EndInventory != r.Produced {
			return nil, &entities.ReconciliationError{
				ProductID: product.ID,
				Produced:  r.Produced,
				Sold:      r.Sold,
				Wasted:    r.Wasted,
				Remaining: r.EndInventory,
			}
		}
		r.ProductionCost = product.Pricing.ProductionCost.Mul(qty(r.Produced))
		r.WasteLoss = product.Pricing.ProductionCost.Mul(qty(r.Wasted))
		r.NetProfit = r.Revenue.Sub(r.ProductionCost).Sub(r.TransportCost).Sub(r.HoldingCost)
		report.Products = append(report.Products, *r)
		accumulate(total, r)
	}
	report.Total = *total
	return report, nil
}

// FromPlan values a production plan assuming every planned unit sells. Net
// profit equals the optimizer's objective.
func FromPlan(registry *entities.Registry, plan *dto.ProductionPlan) (*dto.FinancialReport, error) {
	if registry == nil || plan == nil {
		return nil, fmt.Errorf("registry and production plan are required")
	}
	holdingDays := decimal.NewFromInt(int64(plan.HoldingDays))

	report := &dto.FinancialReport{Products: make([]dto.ProductFinancials, 0, len(plan.Products))}
	total := newRow("")
	for _, pp := range plan.Products {
		product, ok := registry.Product(pp.ProductID)
		if !ok {
			return nil, fmt.Errorf("plan references unknown product %s", pp.ProductID)
		}
		units := qty(pp.Total)
		r := newRow(pp.ProductID)
		r.Produced = pp.Total
		r.Sold = pp.Total
		r.Revenue = product.Pricing.SellingPrice.Mul(units)
		r.ProductionCost = product.Pricing.ProductionCost.Mul(units)
		r.HoldingCost = product.Pricing.HoldingCostPerDay.Mul(holdingDays).Mul(units)
		r.TransportCost = product.Pricing.TransportCostPerUnit.Mul(units)
		r.NetProfit = r.Revenue.Sub(r.ProductionCost).Sub(r.TransportCost).Sub(r.HoldingCost)
		report.Products = append(report.Products, *r)
		accumulate(total, r)
	}
	report.Total = *total
	return report, nil
}

// DistributorBatchMatrix tabulates units sold per distributor per batch
// production day, one matrix per product with sales.
func DistributorBatchMatrix(result *dto.SimulationResult) []dto.BatchMatrix {
	type cell struct {
		distributor entities.DistributorID
		day         entities.Day
	}
	byProduct := make(map[entities.ProductID]map[cell]entities.Quantity)
	for _, tx := range result.Transactions {
		cells := byProduct[tx.Batch.ProductID]
		if cells == nil {
			cells = make(map[cell]entities.Quantity)
			byProduct[tx.Batch.ProductID] = cells
		}
		cells[cell{tx.DistributorID, tx.Batch.ProductionDay}] += tx.Quantity
	}

	productIDs := make([]entities.ProductID, 0, len(byProduct))
	for id := range byProduct {
		productIDs = append(productIDs, id)
	}
	sort.Slice(productIDs, func(i, j int) bool { return productIDs[i] < productIDs[j] })

	matrices := make([]dto.BatchMatrix, 0, len(productIDs))
	for _, id := range productIDs {
		cells := byProduct[id]
		daySet := make(map[entities.Day]bool)
		distSet := make(map[entities.DistributorID]bool)
		for c := range cells {
			daySet[c.day] = true
			distSet[c.distributor] = true
		}
		days := make([]entities.Day, 0, len(daySet))
		for d := range daySet {
			days = append(days, d)
		}
		sort.Slice(days, func(i, j int) bool { return days[i] < days[j] })
		dists := make([]entities.DistributorID, 0, len(distSet))
		for d := range distSet {
			dists = append(dists, d)
		}
		sort.Slice(dists, func(i, j int) bool { return dists[i] < dists[j] })

		matrix := dto.BatchMatrix{ProductID: id, Days: days}
		for _, dist := range dists {
			row := dto.BatchMatrixRow{DistributorID: dist, Quantities: make([]entities.Quantity, len(days))}
			for i, day := range days {
				row.Quantities[i] = cells[cell{dist, day}]
				row.Total += row.Quantities[i]
			}
			matrix.Rows = append(matrix.Rows, row)
		}
		matrices = append(matrices, matrix)
	}
	return matrices
}

func newRow(id entities.ProductID) *dto.ProductFinancials {
	return &dto.ProductFinancials{
		ProductID:      id,
		Revenue:        decimal.Zero,
		ProductionCost: decimal.Zero,
		TransportCost:  decimal.Zero,
		HoldingCost:    decimal.Zero,
		WasteLoss:      decimal.Zero,
		NetProfit:      decimal.Zero,
	}
}

func accumulate(total, r *dto.ProductFinancials) {
	total.Produced += r.Produced
	total.Sold += r.Sold
	total.Wasted += r.Wasted
	total.EndInventory += r.EndInventory
	total.Revenue = total.Revenue.Add(r.Revenue)
	total.ProductionCost = total.ProductionCost.Add(r.ProductionCost)
	total.TransportCost = total.TransportCost.Add(r.TransportCost)
	total.HoldingCost = total.HoldingCost.Add(r.HoldingCost)
	total.WasteLoss = total.WasteLoss.Add(r.WasteLoss)
	total.NetProfit = total.NetProfit.Add(r.NetProfit)
}
