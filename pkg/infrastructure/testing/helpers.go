package testing

import (
	"github.com/shopspring/decimal"

	"github.com/vsinha/perishable/pkg/domain/entities"
)

// Pricing builds product pricing from decimal strings
func Pricing(price, cost, holding, transport string) entities.Pricing {
	return entities.Pricing{
		SellingPrice:         decimal.RequireFromString(price),
		ProductionCost:       decimal.RequireFromString(cost),
		HoldingCostPerDay:    decimal.RequireFromString(holding),
		TransportCostPerUnit: decimal.RequireFromString(transport),
	}
}

// ConstantPlan returns a plan producing qty on each of the first days
func ConstantPlan(qty entities.Quantity, days int) []entities.Quantity {
	plan := make([]entities.Quantity, days)
	for i := range plan {
		plan[i] = qty
	}
	return plan
}

// MustProduct creates a product or panics
func MustProduct(id entities.ProductID, shelfLife int, pricing entities.Pricing, plan []entities.Quantity) *entities.Product {
	p, err := entities.NewProduct(id, string(id), shelfLife, pricing, plan)
	if err != nil {
		panic(err)
	}
	return p
}

// MustDistributor creates a distributor buying every day at zero distance, or panics
func MustDistributor(id entities.DistributorID, policyDays int, proportion int64, rank int, products ...entities.ProductID) *entities.Distributor {
	d, err := entities.NewDistributor(id, string(id),
		entities.Policy{Days: policyDays, PurchaseProportion: decimal.NewFromInt(proportion)},
		decimal.Zero, products, entities.EveryDay, rank)
	if err != nil {
		panic(err)
	}
	return d
}

// MustRegistry creates a registry or panics
func MustRegistry(products []*entities.Product, distributors []*entities.Distributor, opts ...entities.RegistryOption) *entities.Registry {
	r, err := entities.NewRegistry(products, distributors, opts...)
	if err != nil {
		panic(err)
	}
	return r
}

// BuildFreshMilkScenario is the reference scenario: shelf life 3, 100 units on
// each of days 1-5, one distributor taking 50% of same-day stock every day.
// Over 8 or more days it sells 250 units and wastes 250.
func BuildFreshMilkScenario() *entities.Registry {
	milk := MustProduct("MILK", 3, Pricing("10", "4", "0.5", "1"), ConstantPlan(100, 5))
	shop := MustDistributor("SHOP", 1, 50, 0, "MILK")
	return MustRegistry([]*entities.Product{milk}, []*entities.Distributor{shop})
}

// BuildRegionalScenario is a two-product, three-distributor network with
// distances, a weekly schedule and mixed policies.
func BuildRegionalScenario() *entities.Registry {
	milk := MustProduct("MILK", 3, Pricing("2.50", "1.10", "0.05", "0.10"), ConstantPlan(400, 28))
	yogurt := MustProduct("YOGURT", 7, Pricing("4.00", "1.80", "0.03", "0.15"), ConstantPlan(150, 28))
	yogurt.MinDailyProduction = 20

	grocer, _ := entities.NewDistributor("GROCER", "City Grocer",
		entities.Policy{Days: 1, PurchaseProportion: decimal.NewFromInt(40)},
		decimal.NewFromInt(12), []entities.ProductID{"MILK", "YOGURT"}, entities.MondayToSaturday, 1)
	market, _ := entities.NewDistributor("MARKET", "Farmers Market",
		entities.Policy{Days: 2, PurchaseProportion: decimal.NewFromInt(60)},
		decimal.NewFromInt(45), []entities.ProductID{"MILK"}, entities.EveryDay, 2)
	outlet, _ := entities.NewDistributor("OUTLET", "Discount Outlet",
		entities.Policy{Days: 5, PurchaseProportion: decimal.NewFromInt(80)},
		decimal.NewFromInt(130), []entities.ProductID{"MILK", "YOGURT"}, entities.MondayToSaturday, 5)

	return MustRegistry(
		[]*entities.Product{milk, yogurt},
		[]*entities.Distributor{grocer, market, outlet},
		entities.WithPlantDays(entities.MondayToSaturday),
	)
}
