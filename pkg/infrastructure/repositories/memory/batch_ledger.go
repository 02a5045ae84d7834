package memory

import (
	"fmt"
	"sort"

	"github.com/vsinha/perishable/pkg/domain/entities"
	"github.com/vsinha/perishable/pkg/domain/repositories"
)

// BatchLedger stores batches in an arena with per-product and per-expiry-day indexes
type BatchLedger struct {
	batches   []entities.Batch
	index     map[entities.BatchRef]int
	byProduct map[entities.ProductID][]int
	byExpiry  map[entities.Day][]int
	products  []entities.ProductID
}

// NewBatchLedger creates an empty ledger. Listed products always appear in
// snapshots, even before their first batch.
func NewBatchLedger(products ...entities.ProductID) *BatchLedger {
	l := &BatchLedger{
		index:     make(map[entities.BatchRef]int),
		byProduct: make(map[entities.ProductID][]int),
		byExpiry:  make(map[entities.Day][]int),
	}
	for _, id := range products {
		l.registerProduct(id)
	}
	return l
}

// Verify interface compliance
var _ repositories.BatchLedger = (*BatchLedger)(nil)

func (l *BatchLedger) registerProduct(id entities.ProductID) {
	if _, ok := l.byProduct[id]; ok {
		return
	}
	l.byProduct[id] = []int{}
	l.products = append(l.products, id)
	sort.Slice(l.products, func(i, j int) bool { return l.products[i] < l.products[j] })
}

// CreateBatch records a new batch produced on day
func (l *BatchLedger) CreateBatch(product entities.Product, day entities.Day, quantity entities.Quantity) (*entities.Batch, error) {
	if quantity < 0 {
		return nil, entities.NewConfigurationError("batch.quantity", quantity,
			"batch quantity cannot be negative, got %d", quantity)
	}
	if day < 1 {
		return nil, entities.NewConfigurationError("batch.production_day", day,
			"production day must be at least 1, got %d", day)
	}
	if product.ShelfLife < 1 {
		return nil, entities.NewConfigurationError("product.shelf_life", product.ShelfLife,
			"shelf life must be at least 1 day, got %d", product.ShelfLife)
	}
	ref := entities.BatchRef{ProductID: product.ID, ProductionDay: day}
	if _, exists := l.index[ref]; exists {
		return nil, entities.NewConfigurationError("batch", ref.String(), "batch %s already exists", ref)
	}

	l.registerProduct(product.ID)
	l.batches = append(l.batches, entities.Batch{
		Ref:               ref,
		ShelfLife:         product.ShelfLife,
		InitialQuantity:   quantity,
		RemainingQuantity: quantity,
	})
	slot := len(l.batches) - 1
	l.index[ref] = slot

	// keep each product's slots ordered by production day
	slots := append(l.byProduct[product.ID], slot)
	sort.SliceStable(slots, func(i, j int) bool {
		return l.batches[slots[i]].Ref.ProductionDay < l.batches[slots[j]].Ref.ProductionDay
	})
	l.byProduct[product.ID] = slots

	expiry := l.batches[slot].ExpiryDay()
	l.byExpiry[expiry] = append(l.byExpiry[expiry], slot)

	created := l.batches[slot]
	return &created, nil
}

// ActiveBatches returns copies of the product's live batches with stock, oldest first
func (l *BatchLedger) ActiveBatches(productID entities.ProductID, day entities.Day) []*entities.Batch {
	var active []*entities.Batch
	for _, slot := range l.byProduct[productID] {
		b := l.batches[slot]
		if b.RemainingQuantity > 0 && b.IsLive(day) {
			active = append(active, &b)
		}
	}
	return active
}

// Consume removes quantity from a batch
func (l *BatchLedger) Consume(ref entities.BatchRef, quantity entities.Quantity) error {
	slot, ok := l.index[ref]
	if !ok {
		return fmt.Errorf("batch not found: %s", ref)
	}
	if quantity <= 0 {
		return entities.NewConfigurationError("consume.quantity", quantity,
			"consumed quantity must be positive, got %d", quantity)
	}
	b := &l.batches[slot]
	if quantity > b.RemainingQuantity {
		return &entities.InsufficientInventoryError{Batch: ref, Requested: quantity, Remaining: b.RemainingQuantity}
	}
	b.RemainingQuantity -= quantity
	return nil
}

// Expire zeroes every batch expiring on day and returns waste for the unsold ones
func (l *BatchLedger) Expire(day entities.Day) []entities.WasteRecord {
	slots := l.byExpiry[day]
	if len(slots) == 0 {
		return nil
	}
	ordered := append([]int(nil), slots...)
	sort.Slice(ordered, func(i, j int) bool {
		a, b := l.batches[ordered[i]].Ref, l.batches[ordered[j]].Ref
		if a.ProductID != b.ProductID {
			return a.ProductID < b.ProductID
		}
		return a.ProductionDay < b.ProductionDay
	})

	var waste []entities.WasteRecord
	for _, slot := range ordered {
		b := &l.batches[slot]
		if b.RemainingQuantity > 0 {
			waste = append(waste, entities.WasteRecord{
				Batch:           b.Ref,
				Day:             day,
				Quantity:        b.RemainingQuantity,
				InitialQuantity: b.InitialQuantity,
			})
		}
		b.RemainingQuantity = 0
	}
	delete(l.byExpiry, day)
	return waste
}

// Batches returns copies of every batch in creation order
func (l *BatchLedger) Batches() []entities.Batch {
	return append([]entities.Batch(nil), l.batches...)
}

// Snapshot returns the stock of every known product at the end of day
func (l *BatchLedger) Snapshot(day entities.Day) []entities.InventorySnapshot {
	snapshots := make([]entities.InventorySnapshot, 0, len(l.products))
	for _, id := range l.products {
		snap := entities.InventorySnapshot{Day: day, ProductID: id, Batches: []entities.BatchLevel{}}
		for _, b := range l.ActiveBatches(id, day) {
			snap.Quantity += b.RemainingQuantity
			snap.Batches = append(snap.Batches, entities.BatchLevel{
				ProductionDay: b.Ref.ProductionDay,
				Quantity:      b.RemainingQuantity,
			})
		}
		snapshots = append(snapshots, snap)
	}
	return snapshots
}
