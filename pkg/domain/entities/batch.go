package entities

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// BatchRef identifies a batch by product and production day
type BatchRef struct {
	ProductID     ProductID `json:"product_id"`
	ProductionDay Day       `json:"production_day"`
}

func (r BatchRef) String() string {
	return fmt.Sprintf("%s@%d", r.ProductID, r.ProductionDay)
}

// Batch is a quantity of one product produced on one day, aging as a unit
type Batch struct {
	Ref               BatchRef `json:"ref"`
	ShelfLife         int      `json:"shelf_life"`
	InitialQuantity   Quantity `json:"initial_quantity"`
	RemainingQuantity Quantity `json:"remaining_quantity"`
}

// Age returns the number of days since production
func (b *Batch) Age(day Day) int {
	return int(day - b.Ref.ProductionDay)
}

// ExpiryDay is the day the batch is disposed of
func (b *Batch) ExpiryDay() Day {
	return b.Ref.ProductionDay + Day(b.ShelfLife)
}

// IsLive reports whether the batch can still be sold on day
func (b *Batch) IsLive(day Day) bool {
	age := b.Age(day)
	return age >= 0 && age <= b.ShelfLife-1
}

// Transaction records a quantity of one batch sold to one distributor on one day
type Transaction struct {
	Day           Day             `json:"day"`
	DistributorID DistributorID   `json:"distributor_id"`
	Batch         BatchRef        `json:"batch"`
	Age           int             `json:"age"`
	Quantity      Quantity        `json:"quantity"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	Revenue       decimal.Decimal `json:"revenue"`
	TransportCost decimal.Decimal `json:"transport_cost"`
}

// WasteRecord records the unsold remainder of a batch disposed on its expiry day
type WasteRecord struct {
	Batch           BatchRef `json:"batch"`
	Day             Day      `json:"day"`
	Quantity        Quantity `json:"quantity"`
	InitialQuantity Quantity `json:"initial_quantity"`
}

// WastePercent returns the wasted share of the batch, rounded to two places
func (w WasteRecord) WastePercent() decimal.Decimal {
	if w.InitialQuantity == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(w.Quantity)).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(int64(w.InitialQuantity))).
		Round(2)
}

// BatchLevel is the remaining quantity of one live batch
type BatchLevel struct {
	ProductionDay Day      `json:"production_day"`
	Quantity      Quantity `json:"quantity"`
}

// InventorySnapshot is the end-of-day stock of one product
type InventorySnapshot struct {
	Day       Day          `json:"day"`
	ProductID ProductID    `json:"product_id"`
	Quantity  Quantity     `json:"quantity"`
	Batches   []BatchLevel `json:"batches"`
}
