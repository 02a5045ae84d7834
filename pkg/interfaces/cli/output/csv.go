package output

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/vsinha/perishable/pkg/application/dto"
)

type table struct {
	filename string
	header   []string
	rows     [][]string
}

func generateCSV(config Config, tables []table) error {
	if config.OutputDir == "" {
		return fmt.Errorf("output directory required for CSV format")
	}
	if err := os.MkdirAll(config.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	for _, t := range tables {
		path := filepath.Join(config.OutputDir, t.filename)
		if err := writeTable(path, t); err != nil {
			return fmt.Errorf("failed to write %s: %w", t.filename, err)
		}
		if config.Verbose {
			fmt.Fprintf(config.writer(), "CSV saved to: %s\n", path)
		}
	}
	return nil
}

func writeTable(path string, t table) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write(t.header); err != nil {
		return err
	}
	if err := w.WriteAll(t.rows); err != nil {
		return err
	}
	return file.Close()
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}

func simulationTables(outcome *dto.ScenarioOutcome) []table {
	result := outcome.Simulation

	transactions := table{
		filename: "transactions.csv",
		header:   []string{"day", "distributor_id", "product_id", "production_day", "age", "quantity", "unit_price", "revenue", "transport_cost"},
	}
	for _, tx := range result.Transactions {
		transactions.rows = append(transactions.rows, []string{
			itoa(int64(tx.Day)), string(tx.DistributorID), string(tx.Batch.ProductID),
			itoa(int64(tx.Batch.ProductionDay)), itoa(int64(tx.Age)), itoa(int64(tx.Quantity)),
			tx.UnitPrice.String(), tx.Revenue.String(), tx.TransportCost.String(),
		})
	}

	waste := table{
		filename: "waste.csv",
		header:   []string{"product_id", "production_day", "expiry_day", "initial_quantity", "wasted", "waste_percent"},
	}
	for _, wr := range result.Waste {
		waste.rows = append(waste.rows, []string{
			string(wr.Batch.ProductID), itoa(int64(wr.Batch.ProductionDay)), itoa(int64(wr.Day)),
			itoa(int64(wr.InitialQuantity)), itoa(int64(wr.Quantity)), wr.WastePercent().StringFixed(2),
		})
	}

	snapshots := table{
		filename: "inventory.csv",
		header:   []string{"day", "product_id", "quantity"},
	}
	for _, s := range result.Snapshots {
		snapshots.rows = append(snapshots.rows, []string{itoa(int64(s.Day)), string(s.ProductID), itoa(int64(s.Quantity))})
	}

	fulfillments := table{
		filename: "fulfillment.csv",
		header:   []string{"day", "distributor_id", "product_id", "demand", "delivered"},
	}
	for _, f := range result.Fulfillments {
		fulfillments.rows = append(fulfillments.rows, []string{
			itoa(int64(f.Day)), string(f.DistributorID), string(f.ProductID), itoa(int64(f.Demand)), itoa(int64(f.Delivered)),
		})
	}

	return []table{transactions, waste, snapshots, fulfillments, financialsTable(outcome.Financials)}
}

func financialsTable(report *dto.FinancialReport) table {
	t := table{
		filename: "financials.csv",
		header: []string{"product_id", "produced", "sold", "wasted", "end_inventory", "revenue",
			"production_cost", "transport_cost", "holding_cost", "waste_loss", "net_profit"},
	}
	rows := append(append([]dto.ProductFinancials(nil), report.Products...), report.Total)
	for _, r := range rows {
		id := string(r.ProductID)
		if id == "" {
			id = "TOTAL"
		}
		t.rows = append(t.rows, []string{
			id, itoa(int64(r.Produced)), itoa(int64(r.Sold)), itoa(int64(r.Wasted)), itoa(int64(r.EndInventory)),
			r.Revenue.String(), r.ProductionCost.String(), r.TransportCost.String(),
			r.HoldingCost.String(), r.WasteLoss.String(), r.NetProfit.String(),
		})
	}
	return t
}

func planTables(plan *dto.ProductionPlan, report *dto.FinancialReport) []table {
	daily := table{
		filename: "production_plan.csv",
		header:   []string{"day", "product_id", "quantity"},
	}
	for day := 1; day <= plan.Horizon; day++ {
		for _, product := range plan.Products {
			qty := int64(0)
			if day-1 < len(product.Daily) {
				qty = int64(product.Daily[day-1])
			}
			daily.rows = append(daily.rows, []string{itoa(int64(day)), string(product.ProductID), itoa(qty)})
		}
	}
	tables := []table{daily}
	if report != nil {
		tables = append(tables, financialsTable(report))
	}
	return tables
}

func comparisonTable(result *dto.ComparisonResult) table {
	base, opt := result.Baseline.Financials.Total, result.Optimized.Financials.Total
	return table{
		filename: "comparison.csv",
		header:   []string{"metric", "baseline", "optimized"},
		rows: [][]string{
			{"produced", itoa(int64(base.Produced)), itoa(int64(opt.Produced))},
			{"sold", itoa(int64(base.Sold)), itoa(int64(opt.Sold))},
			{"wasted", itoa(int64(base.Wasted)), itoa(int64(opt.Wasted))},
			{"revenue", base.Revenue.String(), opt.Revenue.String()},
			{"net_profit", base.NetProfit.String(), opt.NetProfit.String()},
		},
	}
}
