package monitor

import (
	"github.com/AndreaCasaluci/train-scraper/internal/trenitalia"
)

// Filter keeps the solutions whose journey has at least one segment with a
// category in categories or a denomination in denominations (OR across the
// segment list, OR across the two criteria). Input order is preserved.
// Empty criteria lists keep nothing.
func Filter(solutions []trenitalia.TicketSolution, categories, denominations []string) []trenitalia.TicketSolution {
	cats := toSet(categories)
	denoms := toSet(denominations)

	out := make([]trenitalia.TicketSolution, 0, len(solutions))
	for _, sol := range solutions {
		if matches(sol, cats, denoms) {
			out = append(out, sol)
		}
	}
	return out
}

func matches(sol trenitalia.TicketSolution, cats, denoms map[string]struct{}) bool {
	for _, tr := range sol.Solution.Trains {
		if _, ok := cats[tr.TrainCategory]; ok {
			return true
		}
		if _, ok := denoms[tr.Denomination]; ok {
			return true
		}
	}
	return false
}

func toSet(vals []string) map[string]struct{} {
	m := make(map[string]struct{}, len(vals))
	for _, v := range vals {
		m[v] = struct{}{}
	}
	return m
}
