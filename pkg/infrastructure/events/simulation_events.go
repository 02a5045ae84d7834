package events

import (
	"github.com/vsinha/perishable/pkg/domain/entities"
)

const (
	BatchProducedEvent      = "batch.produced"
	BatchConsumedEvent      = "batch.consumed"
	BatchExpiredEvent       = "batch.expired"
	SimulationCompleteEvent = "simulation.completed"
)

// AllSimulationEvents lists every event type a simulation publishes
var AllSimulationEvents = []string{
	BatchProducedEvent,
	BatchConsumedEvent,
	BatchExpiredEvent,
	SimulationCompleteEvent,
}

type BatchProduced struct {
	Batch entities.Batch `json:"batch"`
}

type BatchConsumed struct {
	Transaction entities.Transaction `json:"transaction"`
}

type BatchExpired struct {
	Waste entities.WasteRecord `json:"waste"`
}

type SimulationCompleted struct {
	Horizon      int               `json:"horizon"`
	Produced     entities.Quantity `json:"produced"`
	Sold         entities.Quantity `json:"sold"`
	Wasted       entities.Quantity `json:"wasted"`
	Transactions int               `json:"transactions"`
}
