package simulation

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/vsinha/perishable/pkg/application/dto"
	"github.com/vsinha/perishable/pkg/application/services/allocation"
	"github.com/vsinha/perishable/pkg/domain/entities"
	"github.com/vsinha/perishable/pkg/domain/repositories"
	"github.com/vsinha/perishable/pkg/infrastructure/events"
	"github.com/vsinha/perishable/pkg/infrastructure/repositories/memory"
)

// LedgerFactory creates the ledger owned by a single run
type LedgerFactory func(products ...entities.ProductID) repositories.BatchLedger

// Input describes one simulation run
type Input struct {
	Registry *entities.Registry
	Horizon  int
	// Plan replaces the registry's production plan for the listed products
	Plan map[entities.ProductID][]entities.Quantity
	// Events receives batch lifecycle events when set
	Events events.EventStore
	// RunID names the event stream; defaults to "simulation"
	RunID string
}

// Service drives the day loop: produce, allocate, expire, snapshot
type Service struct {
	engine    *allocation.Engine
	newLedger LedgerFactory
	logger    *zap.Logger
}

// NewService creates a simulation service backed by in-memory ledgers
func NewService(logger *zap.Logger) *Service {
	return NewServiceWithLedger(logger, func(products ...entities.ProductID) repositories.BatchLedger {
		return memory.NewBatchLedger(products...)
	})
}

// NewServiceWithLedger creates a simulation service with a custom ledger factory
func NewServiceWithLedger(logger *zap.Logger, factory LedgerFactory) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		engine:    allocation.NewEngine(logger),
		newLedger: factory,
		logger:    logger.Named("simulation"),
	}
}

// Run simulates the registry over the horizon. The same input always yields
// the same result.
func (s *Service) Run(ctx context.Context, in Input) (*dto.SimulationResult, error) {
	if in.Registry == nil {
		return nil, entities.NewConfigurationError("registry", nil, "registry cannot be nil")
	}
	if err := entities.ValidateHorizon(in.Horizon); err != nil {
		return nil, err
	}

	registry := in.Registry
	if in.Plan != nil {
		var err error
		registry, err = in.Registry.WithPlan(in.Plan)
		if err != nil {
			return nil, fmt.Errorf("failed to apply production plan: %w", err)
		}
	}

	publisher := newPublisher(in.Events, in.RunID, s.logger)
	ledger := s.newLedger(registry.ProductIDs()...)
	products := registry.Products()

	result := &dto.SimulationResult{
		Horizon:      in.Horizon,
		StartWeekday: registry.StartWeekday().String(),
		Transactions: []entities.Transaction{},
		Waste:        []entities.WasteRecord{},
		Snapshots:    []entities.InventorySnapshot{},
		Fulfillments: []dto.Fulfillment{},
		Warnings:     registry.Warnings(),
	}
	if result.Warnings == nil {
		result.Warnings = []entities.ConfigWarning{}
	}
	for _, w := range result.Warnings {
		s.logger.Warn("configuration warning",
			zap.String("code", w.Code),
			zap.String("distributor", string(w.DistributorID)),
			zap.String("product", string(w.ProductID)),
		)
	}

	for d := 1; d <= in.Horizon; d++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("simulation cancelled on day %d: %w", d, err)
		}
		day := entities.Day(d)

		for _, product := range products {
			qty := product.PlannedQuantity(day)
			if qty == 0 {
				continue
			}
			batch, err := ledger.CreateBatch(product, day, qty)
			if err != nil {
				return nil, fmt.Errorf("failed to produce %s on day %d: %w", product.ID, day, err)
			}
			publisher.publish(events.BatchProducedEvent, events.BatchProduced{Batch: *batch})
		}

		alloc, err := s.engine.AllocateDay(ctx, registry, ledger, day)
		if err != nil {
			return nil, err
		}
		result.Transactions = append(result.Transactions, alloc.Transactions...)
		result.Fulfillments = append(result.Fulfillments, alloc.Fulfillments...)
		for _, tx := range alloc.Transactions {
			publisher.publish(events.BatchConsumedEvent, events.BatchConsumed{Transaction: tx})
		}

		waste := ledger.Expire(day)
		result.Waste = append(result.Waste, waste...)
		for _, w := range waste {
			publisher.publish(events.BatchExpiredEvent, events.BatchExpired{Waste: w})
		}

		result.Snapshots = append(result.Snapshots, ledger.Snapshot(day)...)
	}

	result.Batches = summarizeBatches(ledger.Batches(), result)
	if err := VerifyConservation(result); err != nil {
		return nil, err
	}

	var produced, sold, wasted entities.Quantity
	for _, totals := range result.Totals() {
		produced += totals.Produced
		sold += totals.Sold
		wasted += totals.Wasted
	}
	publisher.publish(events.SimulationCompleteEvent, events.SimulationCompleted{
		Horizon:      in.Horizon,
		Produced:     produced,
		Sold:         sold,
		Wasted:       wasted,
		Transactions: len(result.Transactions),
	})

	s.logger.Info("simulation completed",
		zap.Int("horizon", in.Horizon),
		zap.Int64("produced", int64(produced)),
		zap.Int64("sold", int64(sold)),
		zap.Int64("wasted", int64(wasted)),
	)
	return result, nil
}

func summarizeBatches(batches []entities.Batch, result *dto.SimulationResult) []dto.BatchSummary {
	sold := make(map[entities.BatchRef]entities.Quantity)
	for _, tx := range result.Transactions {
		sold[tx.Batch] += tx.Quantity
	}
	wasted := make(map[entities.BatchRef]entities.WasteRecord)
	for _, w := range result.Waste {
		wasted[w.Batch] = w
	}

	summaries := make([]dto.BatchSummary, 0, len(batches))
	for _, b := range batches {
		w := wasted[b.Ref]
		summaries = append(summaries, dto.BatchSummary{
			Batch:        b.Ref,
			Initial:      b.InitialQuantity,
			Sold:         sold[b.Ref],
			Wasted:       w.Quantity,
			Remaining:    b.RemainingQuantity,
			WastePercent: entities.WasteRecord{Quantity: w.Quantity, InitialQuantity: b.InitialQuantity}.WastePercent(),
		})
	}
	sort.Slice(summaries, func(i, j int) bool {
		a, b := summaries[i].Batch, summaries[j].Batch
		if a.ProductID != b.ProductID {
			return a.ProductID < b.ProductID
		}
		return a.ProductionDay < b.ProductionDay
	})
	return summaries
}

// VerifyConservation checks produced = sold + wasted + remaining for every
// batch and product, and that end inventory matches the final snapshot.
func VerifyConservation(result *dto.SimulationResult) error {
	for _, b := range result.Batches {
		if b.Initial != b.Sold+b.Wasted+b.Remaining {
			return &entities.ReconciliationError{
				ProductID: b.Batch.ProductID,
				Produced:  b.Initial,
				Sold:      b.Sold,
				Wasted:    b.Wasted,
				Remaining: b.Remaining,
			}
		}
	}
	final := result.FinalInventory()
	for id, totals := range result.Totals() {
		if inventory, ok := final[id]; ok && inventory != totals.Remaining {
			return &entities.ReconciliationError{
				ProductID: id,
				Produced:  totals.Produced,
				Sold:      totals.Sold,
				Wasted:    totals.Wasted,
				Remaining: inventory,
			}
		}
	}
	return nil
}
