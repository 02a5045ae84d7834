package entities

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func testPolicy(days int, proportion int64) Policy {
	return Policy{Days: days, PurchaseProportion: decimal.NewFromInt(proportion)}
}

func TestNewDistributor_Validation(t *testing.T) {
	d, err := NewDistributor("D1", "North", testPolicy(2, 50), decimal.NewFromInt(120),
		[]ProductID{"YOGURT", "MILK", "MILK"}, MondayToSaturday, 1)
	if err != nil {
		t.Fatalf("Expected valid distributor creation to succeed: %v", err)
	}
	if len(d.PreferredProducts) != 2 {
		t.Fatalf("Expected 2 unique preferred products, got %d", len(d.PreferredProducts))
	}
	if d.PreferredProducts[0] != "MILK" || d.PreferredProducts[1] != "YOGURT" {
		t.Errorf("Expected preferred products sorted by id, got %v", d.PreferredProducts)
	}

	testCases := []struct {
		name        string
		id          DistributorID
		policy      Policy
		distance    decimal.Decimal
		rank        int
		expectError string
	}{
		{"empty id", "", testPolicy(2, 50), decimal.Zero, 0, "distributor id cannot be empty"},
		{"zero policy days", "D1", testPolicy(0, 50), decimal.Zero, 0, "policy days must be between 1 and 30 for distributor D1, got 0"},
		{"policy days too large", "D1", testPolicy(31, 50), decimal.Zero, 0, "policy days must be between 1 and 30 for distributor D1, got 31"},
		{"proportion too small", "D1", testPolicy(2, 0), decimal.Zero, 0, "purchase proportion must be between 1 and 100 percent for distributor D1, got 0"},
		{"proportion too large", "D1", testPolicy(2, 101), decimal.Zero, 0, "purchase proportion must be between 1 and 100 percent for distributor D1, got 101"},
		{"negative distance", "D1", testPolicy(2, 50), decimal.NewFromInt(-3), 0, "distance cannot be negative for distributor D1, got -3"},
		{"negative rank", "D1", testPolicy(2, 50), decimal.Zero, -1, "precedence rank cannot be negative for distributor D1, got -1"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewDistributor(tc.id, "n", tc.policy, tc.distance, nil, EveryDay, tc.rank)
			if err == nil {
				t.Fatalf("Expected error for %s, but got none", tc.name)
			}
			var cfgErr *ConfigurationError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("Expected *ConfigurationError, got %T", err)
			}
			if err.Error() != tc.expectError {
				t.Errorf("Expected error '%s', got '%s'", tc.expectError, err.Error())
			}
		})
	}
}

func TestDistributor_Prefers(t *testing.T) {
	d, _ := NewDistributor("D1", "North", testPolicy(2, 50), decimal.Zero,
		[]ProductID{"CHEESE", "MILK"}, EveryDay, 0)

	if !d.Prefers("MILK") {
		t.Error("Expected distributor to prefer MILK")
	}
	if d.Prefers("YOGURT") {
		t.Error("Expected distributor not to prefer YOGURT")
	}
}

func TestDistributor_MaxAcceptedAge(t *testing.T) {
	testCases := []struct {
		policyDays int
		shelfLife  int
		expected   int
	}{
		{1, 3, 0},
		{2, 3, 1},
		{3, 3, 2},
		{10, 3, 2},
	}
	for _, tc := range testCases {
		d := Distributor{Policy: testPolicy(tc.policyDays, 50)}
		if got := d.MaxAcceptedAge(tc.shelfLife); got != tc.expected {
			t.Errorf("Expected max age %d for policy %d shelf %d, got %d",
				tc.expected, tc.policyDays, tc.shelfLife, got)
		}
	}
}

func TestWeekdaySet_Parse(t *testing.T) {
	testCases := []struct {
		input    string
		expected WeekdaySet
	}{
		{"", 0},
		{"all", EveryDay},
		{"Mon,Tue,Wed,Thu,Fri,Sat", MondayToSaturday},
		{"mon-sat", MondayToSaturday},
		{"sat-mon", NewWeekdaySet(time.Saturday, time.Sunday, time.Monday)},
		{"monday; friday", NewWeekdaySet(time.Monday, time.Friday)},
	}
	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			got, err := ParseWeekdaySet(tc.input)
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if got != tc.expected {
				t.Errorf("Expected %s, got %s", tc.expected, got)
			}
		})
	}

	if _, err := ParseWeekdaySet("mo"); err == nil {
		t.Error("Expected error for ambiguous weekday abbreviation")
	}
	if _, err := ParseWeekdaySet("funday"); err == nil {
		t.Error("Expected error for unknown weekday")
	}
}

func TestWeekdaySet_String(t *testing.T) {
	if got := MondayToSaturday.String(); got != "Mon,Tue,Wed,Thu,Fri,Sat" {
		t.Errorf("Expected Mon..Sat, got %s", got)
	}
	text, _ := NewWeekdaySet(time.Sunday, time.Wednesday).MarshalText()
	if string(text) != "Wed,Sun" {
		t.Errorf("Expected Wed,Sun, got %s", text)
	}
}
