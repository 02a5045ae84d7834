package allocation

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vsinha/perishable/pkg/application/dto"
	"github.com/vsinha/perishable/pkg/domain/entities"
	"github.com/vsinha/perishable/pkg/domain/repositories"
	"github.com/vsinha/perishable/pkg/domain/services/schedule"
)

var hundred = decimal.NewFromInt(100)

// DayAllocation is everything sold on one day
type DayAllocation struct {
	Day          entities.Day
	Transactions []entities.Transaction
	Fulfillments []dto.Fulfillment
}

// Sold returns the total quantity sold on the day
func (a *DayAllocation) Sold() entities.Quantity {
	var total entities.Quantity
	for _, tx := range a.Transactions {
		total += tx.Quantity
	}
	return total
}

// Engine distributes live batches to the distributors purchasing on a day
type Engine struct {
	logger *zap.Logger
}

// NewEngine creates an allocation engine
func NewEngine(logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{logger: logger.Named("allocation")}
}

// AllocateDay serves active distributors in precedence order. Each takes its
// purchase proportion of the stock it is eligible for, as left by the
// distributors served before it, drawing from the oldest batches first.
func (e *Engine) AllocateDay(
	ctx context.Context,
	registry *entities.Registry,
	ledger repositories.BatchLedger,
	day entities.Day,
) (*DayAllocation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := &DayAllocation{Day: day}
	for _, distributor := range schedule.ActiveDistributors(registry, day) {
		for _, productID := range distributor.PreferredProducts {
			product, ok := registry.Product(productID)
			if !ok {
				return nil, fmt.Errorf("distributor %s prefers unknown product %s", distributor.ID, productID)
			}

			eligible := schedule.EligibleBatches(distributor, ledger.ActiveBatches(productID, day), day)
			demand := Demand(distributor.Policy.PurchaseProportion, eligible)

			delivered, err := e.draw(registry, ledger, distributor, product, eligible, demand, day, result)
			if err != nil {
				return nil, fmt.Errorf("failed to allocate %s to distributor %s on day %d: %w",
					productID, distributor.ID, day, err)
			}
			result.Fulfillments = append(result.Fulfillments, dto.Fulfillment{
				Day:           day,
				DistributorID: distributor.ID,
				ProductID:     productID,
				Demand:        demand,
				Delivered:     delivered,
			})
		}
	}

	e.logger.Debug("day allocated",
		zap.Int("day", int(day)),
		zap.Int("transactions", len(result.Transactions)),
		zap.Int64("sold", int64(result.Sold())),
	)
	return result, nil
}

// Demand is the proportion (a percentage) of the eligible stock, rounded half to even
func Demand(proportion decimal.Decimal, eligible []*entities.Batch) entities.Quantity {
	var available entities.Quantity
	for _, b := range eligible {
		available += b.RemainingQuantity
	}
	if available == 0 {
		return 0
	}
	demand := proportion.Div(hundred).Mul(decimal.NewFromInt(int64(available))).RoundBank(0).IntPart()
	if demand > int64(available) {
		demand = int64(available)
	}
	return entities.Quantity(demand)
}

func (e *Engine) draw(
	registry *entities.Registry,
	ledger repositories.BatchLedger,
	distributor entities.Distributor,
	product entities.Product,
	eligible []*entities.Batch,
	demand entities.Quantity,
	day entities.Day,
	result *DayAllocation,
) (entities.Quantity, error) {
	unitTransport := registry.UnitTransportCost(product.ID, distributor.ID)
	remaining := demand
	var delivered entities.Quantity

	for _, batch := range eligible {
		if remaining <= 0 {
			break
		}
		take := remaining
		if take > batch.RemainingQuantity {
			take = batch.RemainingQuantity
		}
		if err := ledger.Consume(batch.Ref, take); err != nil {
			return delivered, err
		}

		qty := decimal.NewFromInt(int64(take))
		result.Transactions = append(result.Transactions, entities.Transaction{
			Day:           day,
			DistributorID: distributor.ID,
			Batch:         batch.Ref,
			Age:           batch.Age(day),
			Quantity:      take,
			UnitPrice:     product.Pricing.SellingPrice,
			Revenue:       product.Pricing.SellingPrice.Mul(qty),
			TransportCost: unitTransport.Mul(qty),
		})
		delivered += take
		remaining -= take
	}
	return delivered, nil
}
