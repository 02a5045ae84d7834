package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/vsinha/perishable/pkg/application/dto"
	"github.com/vsinha/perishable/pkg/domain/entities"
	"github.com/vsinha/perishable/pkg/infrastructure/repositories/csv"
	"github.com/vsinha/perishable/pkg/infrastructure/repositories/yaml"
)

// ScenarioDefaults fill values a scenario source leaves unset
type ScenarioDefaults struct {
	Horizon int
	// TransportRate is the per-km rate; nil keeps the registry default
	TransportRate *decimal.Decimal
}

// LoadScenario reads a scenario from a CSV directory, a YAML file or a JSON file
func LoadScenario(path string, defaults ScenarioDefaults) (*entities.Scenario, error) {
	if path == "" {
		return nil, fmt.Errorf("scenario path cannot be empty")
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("scenario not found: %w", err)
	}

	switch {
	case info.IsDir():
		if !csv.IsScenarioDir(path) {
			return nil, fmt.Errorf("directory %s does not contain %s", path, csv.ProductsFile)
		}
		loader := csv.NewLoader(defaults.Horizon)
		if defaults.TransportRate != nil {
			loader.WithTransportRate(*defaults.TransportRate)
		}
		return loader.LoadScenario(path)
	case yaml.IsScenarioFile(path):
		loader := yaml.NewLoader(defaults.Horizon)
		if defaults.TransportRate != nil {
			loader.WithTransportRate(*defaults.TransportRate)
		}
		return loader.LoadScenario(path)
	case strings.EqualFold(filepath.Ext(path), ".json"):
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read scenario file %s: %w", path, err)
		}
		var in dto.ScenarioInput
		if err := json.Unmarshal(data, &in); err != nil {
			return nil, fmt.Errorf("failed to parse scenario file %s: %w", path, err)
		}
		if in.Horizon == 0 {
			in.Horizon = defaults.Horizon
		}
		if in.TransportRatePerKm == nil {
			in.TransportRatePerKm = defaults.TransportRate
		}
		if in.Name == "" {
			in.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		}
		return in.ToScenario()
	default:
		return nil, fmt.Errorf("unsupported scenario source %s: expected a directory, .yaml, .yml or .json", path)
	}
}
