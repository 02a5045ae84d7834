package repositories

import "github.com/vsinha/perishable/pkg/domain/entities"

// ScenarioRepository loads a scenario from some source
type ScenarioRepository interface {
	LoadScenario(source string) (*entities.Scenario, error)
}
