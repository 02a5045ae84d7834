package dto

import (
	"github.com/shopspring/decimal"

	"github.com/vsinha/perishable/pkg/domain/entities"
)

// ProductFinancials holds quantities and money for one product, or for all
// products when ProductID is empty
type ProductFinancials struct {
	ProductID      entities.ProductID `json:"product_id,omitempty"`
	Produced       entities.Quantity  `json:"produced"`
	Sold           entities.Quantity  `json:"sold"`
	Wasted         entities.Quantity  `json:"wasted"`
	EndInventory   entities.Quantity  `json:"end_inventory"`
	Revenue        decimal.Decimal    `json:"revenue"`
	ProductionCost decimal.Decimal    `json:"production_cost"`
	TransportCost  decimal.Decimal    `json:"transport_cost"`
	HoldingCost    decimal.Decimal    `json:"holding_cost"`
	WasteLoss      decimal.Decimal    `json:"waste_loss"`
	NetProfit      decimal.Decimal    `json:"net_profit"`
}

// FinancialReport is the financial summary of a simulation or a plan.
// NetProfit is Revenue less ProductionCost, TransportCost and HoldingCost.
// WasteLoss is not subtracted again: wasted units are already paid for in
// ProductionCost, so WasteLoss reports the share of that cost that never sold.
type FinancialReport struct {
	Products []ProductFinancials `json:"products"`
	Total    ProductFinancials   `json:"total"`
}

// BatchMatrixRow is one distributor's purchases by batch production day
type BatchMatrixRow struct {
	DistributorID entities.DistributorID `json:"distributor_id"`
	Quantities    []entities.Quantity    `json:"quantities"`
	Total         entities.Quantity      `json:"total"`
}

// BatchMatrix tabulates units sold by distributor and batch production day
type BatchMatrix struct {
	ProductID entities.ProductID `json:"product_id"`
	Days      []entities.Day     `json:"days"`
	Rows      []BatchMatrixRow   `json:"rows"`
}
