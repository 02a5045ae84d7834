package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/vsinha/perishable/pkg/application/dto"
	"github.com/vsinha/perishable/pkg/application/services/finance"
)

func writeSimulationText(w io.Writer, outcome *dto.ScenarioOutcome, config Config) {
	result := outcome.Simulation
	fmt.Fprintf(w, "Simulation Results\n")
	fmt.Fprintf(w, "==================\n\n")
	fmt.Fprintf(w, "Horizon: %d days starting %s\n", result.Horizon, result.StartWeekday)
	fmt.Fprintf(w, "Transactions: %d\n", len(result.Transactions))
	fmt.Fprintf(w, "Batches Expired: %d\n", len(result.Waste))
	if config.Elapsed > 0 {
		fmt.Fprintf(w, "Simulation Time: %v\n", config.Elapsed)
	}
	if config.RunID != "" {
		fmt.Fprintf(w, "Run ID: %s\n", config.RunID)
	}
	fmt.Fprintln(w)

	for _, warning := range result.Warnings {
		fmt.Fprintf(w, "Warning: %s\n", warning.Message)
	}
	if len(result.Warnings) > 0 {
		fmt.Fprintln(w)
	}

	writeFinancials(w, "Financial Summary", outcome.Financials)

	if len(result.Waste) > 0 {
		fmt.Fprintf(w, "Waste:\n")
		fmt.Fprintf(w, "%-12s %-10s %-10s %-10s %-10s %-8s\n",
			"Product", "Produced", "Expired", "Initial", "Wasted", "Waste %")
		fmt.Fprintf(w, "%-12s %-10s %-10s %-10s %-10s %-8s\n",
			"------------", "----------", "----------", "----------", "----------", "--------")
		for _, waste := range result.Waste {
			fmt.Fprintf(w, "%-12s %-10d %-10d %-10d %-10d %-8s\n",
				waste.Batch.ProductID,
				waste.Batch.ProductionDay,
				waste.Day,
				waste.InitialQuantity,
				waste.Quantity,
				waste.WastePercent().StringFixed(2))
		}
		fmt.Fprintln(w)
	}

	for _, matrix := range finance.DistributorBatchMatrix(result) {
		fmt.Fprintf(w, "Units of %s sold by batch production day:\n", matrix.ProductID)
		header := []string{fmt.Sprintf("%-12s", "Distributor")}
		for _, day := range matrix.Days {
			header = append(header, fmt.Sprintf("%6d", day))
		}
		header = append(header, fmt.Sprintf("%8s", "Total"))
		fmt.Fprintln(w, strings.Join(header, " "))
		for _, row := range matrix.Rows {
			cells := []string{fmt.Sprintf("%-12s", row.DistributorID)}
			for _, q := range row.Quantities {
				cells = append(cells, fmt.Sprintf("%6d", q))
			}
			cells = append(cells, fmt.Sprintf("%8d", row.Total))
			fmt.Fprintln(w, strings.Join(cells, " "))
		}
		fmt.Fprintln(w)
	}

	if config.Verbose && len(result.Transactions) > 0 {
		fmt.Fprintf(w, "Transactions:\n")
		fmt.Fprintf(w, "%-5s %-12s %-12s %-7s %-5s %-8s %-10s %-10s\n",
			"Day", "Distributor", "Product", "Batch", "Age", "Qty", "Revenue", "Transport")
		for _, tx := range result.Transactions {
			fmt.Fprintf(w, "%-5d %-12s %-12s %-7d %-5d %-8d %-10s %-10s\n",
				tx.Day, tx.DistributorID, tx.Batch.ProductID, tx.Batch.ProductionDay,
				tx.Age, tx.Quantity, money(tx.Revenue), money(tx.TransportCost))
		}
		fmt.Fprintln(w)
	}
}

func writePlanText(w io.Writer, plan *dto.ProductionPlan, report *dto.FinancialReport, config Config) {
	fmt.Fprintf(w, "Production Plan\n")
	fmt.Fprintf(w, "===============\n\n")
	fmt.Fprintf(w, "Granularity: %s (%d periods over %d days)\n", plan.Granularity, plan.Periods, plan.Horizon)
	fmt.Fprintf(w, "Capacity: %d per %d-day window\n", plan.Capacity, dto.CycleDays)
	fmt.Fprintf(w, "Holding Days: %d\n", plan.HoldingDays)
	fmt.Fprintf(w, "Objective: %s\n", money(plan.Objective))
	if config.Elapsed > 0 {
		fmt.Fprintf(w, "Solve Time: %v\n", config.Elapsed)
	}
	if config.RunID != "" {
		fmt.Fprintf(w, "Run ID: %s\n", config.RunID)
	}
	fmt.Fprintln(w)

	header := []string{fmt.Sprintf("%-8s", "Period")}
	for _, product := range plan.Products {
		header = append(header, fmt.Sprintf("%12s", product.ProductID))
	}
	fmt.Fprintln(w, strings.Join(header, " "))
	for p := 0; p < plan.Periods; p++ {
		start, end := plan.PeriodBounds(p)
		label := fmt.Sprintf("%d", start)
		if end != start {
			label = fmt.Sprintf("%d-%d", start, end)
		}
		cells := []string{fmt.Sprintf("%-8s", label)}
		for _, product := range plan.Products {
			cells = append(cells, fmt.Sprintf("%12d", product.Periods[p]))
		}
		fmt.Fprintln(w, strings.Join(cells, " "))
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "%-12s %-10s %-10s %-12s\n", "Product", "Margin", "Total", "Profit")
	fmt.Fprintf(w, "%-12s %-10s %-10s %-12s\n", "------------", "----------", "----------", "------------")
	for _, product := range plan.Products {
		fmt.Fprintf(w, "%-12s %-10s %-10d %-12s\n",
			product.ProductID, money(product.Margin), product.Total, money(product.Profit))
	}
	fmt.Fprintln(w)

	if report != nil && config.Verbose {
		writeFinancials(w, "Plan Financials", report)
	}
}

func writeComparisonText(w io.Writer, result *dto.ComparisonResult, config Config) {
	fmt.Fprintf(w, "Scenario Comparison: %s\n", result.Scenario)
	fmt.Fprintf(w, "====================\n\n")

	base, opt := result.Baseline.Financials.Total, result.Optimized.Financials.Total
	fmt.Fprintf(w, "%-16s %-14s %-14s\n", "", "Baseline", "Optimized")
	fmt.Fprintf(w, "%-16s %-14d %-14d\n", "Produced", base.Produced, opt.Produced)
	fmt.Fprintf(w, "%-16s %-14d %-14d\n", "Sold", base.Sold, opt.Sold)
	fmt.Fprintf(w, "%-16s %-14d %-14d\n", "Wasted", base.Wasted, opt.Wasted)
	fmt.Fprintf(w, "%-16s %-14s %-14s\n", "Revenue", money(base.Revenue), money(opt.Revenue))
	fmt.Fprintf(w, "%-16s %-14s %-14s\n", "Waste Loss", money(base.WasteLoss), money(opt.WasteLoss))
	fmt.Fprintf(w, "%-16s %-14s %-14s\n", "Net Profit", money(base.NetProfit), money(opt.NetProfit))
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Profit Change: %s\n", money(result.ProfitDelta))
	fmt.Fprintf(w, "Waste Change: %d units\n", result.WasteDelta)
	if config.RunID != "" {
		fmt.Fprintf(w, "Run ID: %s\n", config.RunID)
	}
	fmt.Fprintln(w)

	if config.Verbose && result.Plan != nil {
		writePlanText(w, result.Plan, nil, Config{})
	}
}

func writeFinancials(w io.Writer, title string, report *dto.FinancialReport) {
	fmt.Fprintf(w, "%s:\n", title)
	fmt.Fprintf(w, "%-12s %-9s %-9s %-9s %-11s %-11s %-11s %-11s %-11s\n",
		"Product", "Produced", "Sold", "Wasted", "Revenue", "Production", "Transport", "Holding", "Net Profit")
	fmt.Fprintf(w, "%-12s %-9s %-9s %-9s %-11s %-11s %-11s %-11s %-11s\n",
		"------------", "---------", "---------", "---------", "-----------", "-----------", "-----------", "-----------", "-----------")
	rows := append(append([]dto.ProductFinancials(nil), report.Products...), report.Total)
	for _, row := range rows {
		name := string(row.ProductID)
		if name == "" {
			name = "TOTAL"
		}
		fmt.Fprintf(w, "%-12s %-9d %-9d %-9d %-11s %-11s %-11s %-11s %-11s\n",
			name, row.Produced, row.Sold, row.Wasted,
			money(row.Revenue), money(row.ProductionCost), money(row.TransportCost),
			money(row.HoldingCost), money(row.NetProfit))
	}
	fmt.Fprintln(w)
}
