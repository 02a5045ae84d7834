package csv

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/vsinha/perishable/pkg/application/dto"
	"github.com/vsinha/perishable/pkg/domain/entities"
	"github.com/vsinha/perishable/pkg/domain/repositories"
)

// Scenario directory file names
const (
	ProductsFile       = "products.csv"
	DistributorsFile   = "distributors.csv"
	ProductionPlanFile = "production_plan.csv"
	SettingsFile       = "settings.csv"
)

var (
	productsHeader     = []string{"id", "name", "shelf_life", "selling_price", "production_cost", "holding_cost_per_day", "transport_cost_per_unit", "min_daily_production"}
	distributorsHeader = []string{"id", "name", "policy_days", "purchase_proportion", "distance_km", "preferred_products", "weekly_schedule", "precedence_rank"}
	planHeader         = []string{"day", "product_id", "quantity"}
	settingsHeader     = []string{"key", "value"}
)

// Loader reads scenarios from a directory of CSV files
type Loader struct {
	defaultHorizon int
	transportRate  *decimal.Decimal
}

// NewLoader creates a CSV loader. defaultHorizon applies when settings.csv does not set one.
func NewLoader(defaultHorizon int) *Loader {
	return &Loader{defaultHorizon: defaultHorizon}
}

// WithTransportRate sets the per-km rate used when settings.csv does not set one
func (l *Loader) WithTransportRate(rate decimal.Decimal) *Loader {
	l.transportRate = &rate
	return l
}

// Verify interface compliance
var _ repositories.ScenarioRepository = (*Loader)(nil)

// LoadScenario loads products.csv, distributors.csv and the optional
// production_plan.csv and settings.csv from dir
func (l *Loader) LoadScenario(dir string) (*entities.Scenario, error) {
	products, err := l.LoadProducts(filepath.Join(dir, ProductsFile))
	if err != nil {
		return nil, err
	}
	distributors, err := l.LoadDistributors(filepath.Join(dir, DistributorsFile))
	if err != nil {
		return nil, err
	}

	planPath := filepath.Join(dir, ProductionPlanFile)
	if _, statErr := os.Stat(planPath); statErr == nil {
		plans, err := l.LoadProductionPlan(planPath)
		if err != nil {
			return nil, err
		}
		known := make(map[entities.ProductID]*entities.Product, len(products))
		for _, p := range products {
			known[p.ID] = p
		}
		for id, plan := range plans {
			p, ok := known[id]
			if !ok {
				return nil, entities.NewConfigurationError("production_plan", id,
					"production plan references unknown product %s", id)
			}
			p.ProductionPlan = plan
		}
	}

	in := &dto.ScenarioInput{Name: filepath.Base(dir), Horizon: l.defaultHorizon}
	settingsPath := filepath.Join(dir, SettingsFile)
	if _, statErr := os.Stat(settingsPath); statErr == nil {
		if err := l.loadSettings(settingsPath, in); err != nil {
			return nil, err
		}
	}
	if in.TransportRatePerKm == nil && l.transportRate != nil {
		rate := *l.transportRate
		in.TransportRatePerKm = &rate
	}

	opts, err := in.RegistryOptions()
	if err != nil {
		return nil, err
	}
	registry, err := entities.NewRegistry(products, distributors, opts...)
	if err != nil {
		return nil, fmt.Errorf("invalid scenario %s: %w", dir, err)
	}
	return &entities.Scenario{
		Name:     in.Name,
		Registry: registry,
		Horizon:  in.Horizon,
		Capacity: entities.Quantity(in.Capacity),
	}, nil
}

// LoadProducts loads products from a CSV file
func (l *Loader) LoadProducts(filename string) ([]*entities.Product, error) {
	records, err := readRecords(filename, "products", productsHeader)
	if err != nil {
		return nil, err
	}

	var products []*entities.Product
	for i, record := range records {
		product, err := parseProduct(record)
		if err != nil {
			return nil, fmt.Errorf("products CSV row %d: %w", i+2, err)
		}
		products = append(products, product)
	}
	return products, nil
}

// LoadDistributors loads distributors from a CSV file
func (l *Loader) LoadDistributors(filename string) ([]*entities.Distributor, error) {
	records, err := readRecords(filename, "distributors", distributorsHeader)
	if err != nil {
		return nil, err
	}

	var distributors []*entities.Distributor
	for i, record := range records {
		distributor, err := parseDistributor(record)
		if err != nil {
			return nil, fmt.Errorf("distributors CSV row %d: %w", i+2, err)
		}
		distributors = append(distributors, distributor)
	}
	return distributors, nil
}

// LoadProductionPlan loads day,product_id,quantity rows into per-product plans
func (l *Loader) LoadProductionPlan(filename string) (map[entities.ProductID][]entities.Quantity, error) {
	records, err := readRecords(filename, "production plan", planHeader)
	if err != nil {
		return nil, err
	}

	plans := make(map[entities.ProductID][]entities.Quantity)
	for i, record := range records {
		day, err := strconv.Atoi(strings.TrimSpace(record[0]))
		if err != nil || day < 1 || day > entities.MaxHorizon {
			return nil, fmt.Errorf("production plan CSV row %d: invalid day %q", i+2, record[0])
		}
		id := entities.ProductID(strings.TrimSpace(record[1]))
		qty, err := parseQuantity(record[2])
		if err != nil {
			return nil, fmt.Errorf("production plan CSV row %d: %w", i+2, err)
		}
		plan := plans[id]
		for len(plan) < day {
			plan = append(plan, 0)
		}
		plan[day-1] += qty
		plans[id] = plan
	}
	return plans, nil
}

func (l *Loader) loadSettings(filename string, in *dto.ScenarioInput) error {
	records, err := readRecords(filename, "settings", settingsHeader)
	if err != nil {
		return err
	}
	for i, record := range records {
		key := strings.ToLower(strings.TrimSpace(record[0]))
		value := strings.TrimSpace(record[1])
		switch key {
		case "name":
			in.Name = value
		case "horizon":
			in.Horizon, err = strconv.Atoi(value)
		case "capacity":
			in.Capacity, err = strconv.ParseInt(value, 10, 64)
		case "start_weekday":
			in.StartWeekday = value
		case "plant_days":
			in.PlantDays = value
		case "transport_rate_per_km":
			var rate decimal.Decimal
			rate, err = decimal.NewFromString(value)
			in.TransportRatePerKm = &rate
		default:
			err = fmt.Errorf("unknown setting %q", key)
		}
		if err != nil {
			return fmt.Errorf("settings CSV row %d: %w", i+2, err)
		}
	}
	return nil
}

func readRecords(filename, kind string, expectedHeader []string) ([][]string, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s file %s: %w", kind, filename, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s CSV: %w", kind, err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("%s CSV must have header and at least one data row", kind)
	}
	if !validateHeader(records[0], expectedHeader) {
		return nil, fmt.Errorf("%s CSV header mismatch. Expected: %v, Got: %v", kind, expectedHeader, records[0])
	}
	for i, record := range records[1:] {
		if len(record) != len(expectedHeader) {
			return nil, fmt.Errorf("%s CSV row %d: expected %d columns, got %d", kind, i+2, len(expectedHeader), len(record))
		}
	}
	return records[1:], nil
}

func validateHeader(actual, expected []string) bool {
	if len(actual) != len(expected) {
		return false
	}
	for i, col := range expected {
		if strings.ToLower(strings.TrimSpace(actual[i])) != col {
			return false
		}
	}
	return true
}

func parseProduct(record []string) (*entities.Product, error) {
	shelfLife, err := strconv.Atoi(strings.TrimSpace(record[2]))
	if err != nil {
		return nil, fmt.Errorf("invalid shelf life %q: %w", record[2], err)
	}
	var prices [4]decimal.Decimal
	for k := range prices {
		prices[k], err = parseDecimal(record[3+k])
		if err != nil {
			return nil, err
		}
	}
	minDaily, err := parseOptionalQuantity(record[7])
	if err != nil {
		return nil, err
	}

	product, err := entities.NewProduct(entities.ProductID(strings.TrimSpace(record[0])), strings.TrimSpace(record[1]), shelfLife,
		entities.Pricing{
			SellingPrice:         prices[0],
			ProductionCost:       prices[1],
			HoldingCostPerDay:    prices[2],
			TransportCostPerUnit: prices[3],
		}, nil)
	if err != nil {
		return nil, err
	}
	product.MinDailyProduction = minDaily
	if err := product.Validate(); err != nil {
		return nil, err
	}
	return product, nil
}

func parseDistributor(record []string) (*entities.Distributor, error) {
	policyDays, err := strconv.Atoi(strings.TrimSpace(record[2]))
	if err != nil {
		return nil, fmt.Errorf("invalid policy days %q: %w", record[2], err)
	}
	proportion, err := parseDecimal(record[3])
	if err != nil {
		return nil, err
	}
	distance, err := parseDecimal(record[4])
	if err != nil {
		return nil, err
	}

	var preferred []entities.ProductID
	for _, id := range strings.FieldsFunc(record[5], func(r rune) bool { return r == ';' || r == '|' || r == ' ' }) {
		preferred = append(preferred, entities.ProductID(id))
	}

	schedule := entities.MondayToSaturday
	if strings.TrimSpace(record[6]) != "" {
		schedule, err = entities.ParseWeekdaySet(record[6])
		if err != nil {
			return nil, err
		}
	}

	rank := policyDays
	if s := strings.TrimSpace(record[7]); s != "" {
		rank, err = strconv.Atoi(s)
		if err != nil {
			return nil, fmt.Errorf("invalid precedence rank %q: %w", s, err)
		}
	}

	return entities.NewDistributor(entities.DistributorID(strings.TrimSpace(record[0])), strings.TrimSpace(record[1]),
		entities.Policy{Days: policyDays, PurchaseProportion: proportion},
		distance, preferred, schedule, rank)
}

func parseDecimal(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return d, nil
}

func parseQuantity(s string) (entities.Quantity, error) {
	q, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid quantity %q: %w", s, err)
	}
	if q < 0 {
		return 0, fmt.Errorf("quantity cannot be negative, got %d", q)
	}
	return entities.Quantity(q), nil
}

func parseOptionalQuantity(s string) (entities.Quantity, error) {
	if strings.TrimSpace(s) == "" {
		return 0, nil
	}
	return parseQuantity(s)
}

// IsScenarioDir reports whether dir looks like a CSV scenario
func IsScenarioDir(dir string) bool {
	info, err := os.Stat(filepath.Join(dir, ProductsFile))
	return err == nil && !info.IsDir()
}
