package repositories

import "github.com/vsinha/perishable/pkg/domain/entities"

// BatchLedger owns every batch of a single run. Remaining quantities only
// change through Consume and Expire.
type BatchLedger interface {
	CreateBatch(product entities.Product, day entities.Day, quantity entities.Quantity) (*entities.Batch, error)
	// ActiveBatches returns live batches with stock, oldest first
	ActiveBatches(productID entities.ProductID, day entities.Day) []*entities.Batch
	Consume(ref entities.BatchRef, quantity entities.Quantity) error
	// Expire disposes of every batch whose expiry day is day
	Expire(day entities.Day) []entities.WasteRecord
	Batches() []entities.Batch
	Snapshot(day entities.Day) []entities.InventorySnapshot
}
