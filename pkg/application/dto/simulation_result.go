package dto

import (
	"github.com/shopspring/decimal"

	"github.com/vsinha/perishable/pkg/domain/entities"
)

// Fulfillment records how much of a distributor's demand for a product was met on a day
type Fulfillment struct {
	Day           entities.Day           `json:"day"`
	DistributorID entities.DistributorID `json:"distributor_id"`
	ProductID     entities.ProductID     `json:"product_id"`
	Demand        entities.Quantity      `json:"demand"`
	Delivered     entities.Quantity      `json:"delivered"`
}

// BatchSummary is the final accounting of one batch
type BatchSummary struct {
	Batch        entities.BatchRef `json:"batch"`
	Initial      entities.Quantity `json:"initial"`
	Sold         entities.Quantity `json:"sold"`
	Wasted       entities.Quantity `json:"wasted"`
	Remaining    entities.Quantity `json:"remaining"`
	WastePercent decimal.Decimal   `json:"waste_percent"`
}

// SimulationResult contains the complete output of a simulation run
type SimulationResult struct {
	Horizon      int                          `json:"horizon"`
	StartWeekday string                       `json:"start_weekday"`
	Transactions []entities.Transaction       `json:"transactions"`
	Waste        []entities.WasteRecord       `json:"waste"`
	Snapshots    []entities.InventorySnapshot `json:"snapshots"`
	Fulfillments []Fulfillment                `json:"fulfillments"`
	Batches      []BatchSummary               `json:"batches"`
	Warnings     []entities.ConfigWarning     `json:"warnings"`
}

// ProductTotals aggregates quantities for one product
type ProductTotals struct {
	Produced  entities.Quantity
	Sold      entities.Quantity
	Wasted    entities.Quantity
	Remaining entities.Quantity
}

// Totals sums the batch summaries per product
func (r *SimulationResult) Totals() map[entities.ProductID]ProductTotals {
	totals := make(map[entities.ProductID]ProductTotals)
	for _, b := range r.Batches {
		t := totals[b.Batch.ProductID]
		t.Produced += b.Initial
		t.Sold += b.Sold
		t.Wasted += b.Wasted
		t.Remaining += b.Remaining
		totals[b.Batch.ProductID] = t
	}
	return totals
}

// FinalInventory returns the last snapshot of each product
func (r *SimulationResult) FinalInventory() map[entities.ProductID]entities.Quantity {
	inventory := make(map[entities.ProductID]entities.Quantity)
	for _, s := range r.Snapshots {
		if s.Day == entities.Day(r.Horizon) {
			inventory[s.ProductID] = s.Quantity
		}
	}
	return inventory
}

// MaxDailySold returns the largest quantity of each product sold on a single day
func (r *SimulationResult) MaxDailySold() map[entities.ProductID]entities.Quantity {
	type key struct {
		product entities.ProductID
		day     entities.Day
	}
	daily := make(map[key]entities.Quantity)
	for _, tx := range r.Transactions {
		daily[key{tx.Batch.ProductID, tx.Day}] += tx.Quantity
	}
	peak := make(map[entities.ProductID]entities.Quantity)
	for k, qty := range daily {
		if qty > peak[k.product] {
			peak[k.product] = qty
		}
	}
	return peak
}
