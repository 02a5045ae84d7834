package entities

import (
	"fmt"
	"strings"
	"time"
)

// WeekdaySet is a set of weekdays stored as a bitmask
type WeekdaySet uint8

const (
	// EveryDay contains all seven weekdays
	EveryDay WeekdaySet = 1<<7 - 1
	// MondayToSaturday is the default purchasing week
	MondayToSaturday = EveryDay &^ (1 << time.Sunday)
)

// NewWeekdaySet builds a set from individual weekdays
func NewWeekdaySet(days ...time.Weekday) WeekdaySet {
	var set WeekdaySet
	for _, d := range days {
		set = set.With(d)
	}
	return set
}

// With returns a copy of the set including d
func (s WeekdaySet) With(d time.Weekday) WeekdaySet {
	return s | 1<<uint(d)
}

// Contains reports whether d is in the set
func (s WeekdaySet) Contains(d time.Weekday) bool {
	return s&(1<<uint(d)) != 0
}

// IsEmpty reports whether the set has no days
func (s WeekdaySet) IsEmpty() bool {
	return s&EveryDay == 0
}

// Days lists the weekdays in the set, Sunday first
func (s WeekdaySet) Days() []time.Weekday {
	var days []time.Weekday
	for d := time.Sunday; d <= time.Saturday; d++ {
		if s.Contains(d) {
			days = append(days, d)
		}
	}
	return days
}

// String renders the set as comma separated three letter names starting on Monday
func (s WeekdaySet) String() string {
	var names []string
	for i := 0; i < 7; i++ {
		d := time.Weekday((i + 1) % 7)
		if s.Contains(d) {
			names = append(names, d.String()[:3])
		}
	}
	return strings.Join(names, ",")
}

// MarshalText implements encoding.TextMarshaler
func (s WeekdaySet) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (s *WeekdaySet) UnmarshalText(text []byte) error {
	parsed, err := ParseWeekdaySet(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ParseWeekdaySet parses names like "Mon,Tue,Sat", "mon-fri" ranges, "all", "daily" or "none".
// Separators may be commas, semicolons, pipes or spaces.
func ParseWeekdaySet(value string) (WeekdaySet, error) {
	value = strings.TrimSpace(strings.ToLower(value))
	switch value {
	case "", "none":
		return 0, nil
	case "all", "daily", "every day", "everyday":
		return EveryDay, nil
	}

	fields := strings.FieldsFunc(value, func(r rune) bool {
		return r == ',' || r == ';' || r == '|' || r == ' '
	})

	var set WeekdaySet
	for _, field := range fields {
		if from, to, ok := strings.Cut(field, "-"); ok {
			start, err := parseWeekday(from)
			if err != nil {
				return 0, err
			}
			end, err := parseWeekday(to)
			if err != nil {
				return 0, err
			}
			for d := start; ; d = (d + 1) % 7 {
				set = set.With(d)
				if d == end {
					break
				}
			}
			continue
		}
		d, err := parseWeekday(field)
		if err != nil {
			return 0, err
		}
		set = set.With(d)
	}
	return set, nil
}

func parseWeekday(name string) (time.Weekday, error) {
	name = strings.TrimSpace(name)
	if len(name) < 3 {
		return 0, fmt.Errorf("invalid weekday: %q", name)
	}
	for d := time.Sunday; d <= time.Saturday; d++ {
		if strings.HasPrefix(strings.ToLower(d.String()), name) {
			return d, nil
		}
	}
	return 0, fmt.Errorf("invalid weekday: %q", name)
}
