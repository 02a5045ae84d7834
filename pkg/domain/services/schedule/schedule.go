// Package schedule holds the pure rules deciding who buys on a given day,
// in what order, and from which batches.
package schedule

import (
	"sort"
	"time"

	"github.com/vsinha/perishable/pkg/domain/entities"
)

// ActiveOn reports whether a distributor purchases on the weekday
func ActiveOn(d entities.Distributor, weekday time.Weekday) bool {
	return d.WeeklySchedule.Contains(weekday)
}

// OrderByPrecedence returns the distributors sorted by precedence rank, lowest
// first, with ties broken by id. The input is not modified.
func OrderByPrecedence(distributors []entities.Distributor) []entities.Distributor {
	ordered := append([]entities.Distributor(nil), distributors...)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].PrecedenceRank != ordered[j].PrecedenceRank {
			return ordered[i].PrecedenceRank < ordered[j].PrecedenceRank
		}
		return ordered[i].ID < ordered[j].ID
	})
	return ordered
}

// ActiveDistributors lists the distributors purchasing on day in serving order
func ActiveDistributors(registry *entities.Registry, day entities.Day) []entities.Distributor {
	weekday := registry.WeekdayOf(day)
	var active []entities.Distributor
	for _, d := range registry.Distributors() {
		if len(d.PreferredProducts) > 0 && ActiveOn(d, weekday) {
			active = append(active, d)
		}
	}
	return OrderByPrecedence(active)
}

// IsEligible reports whether the distributor accepts the batch on day
func IsEligible(d entities.Distributor, batch *entities.Batch, day entities.Day) bool {
	if batch.RemainingQuantity <= 0 {
		return false
	}
	age := batch.Age(day)
	return age >= 0 && age <= d.MaxAcceptedAge(batch.ShelfLife)
}

// EligibleBatches filters batches down to those the distributor accepts,
// keeping their order.
func EligibleBatches(d entities.Distributor, batches []*entities.Batch, day entities.Day) []*entities.Batch {
	var eligible []*entities.Batch
	for _, b := range batches {
		if IsEligible(d, b, day) {
			eligible = append(eligible, b)
		}
	}
	return eligible
}
