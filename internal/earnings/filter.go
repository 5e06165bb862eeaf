package earnings

import (
	"sort"
	"strings"

	"techcal/internal/models"
)

type eventKey struct {
	ticker  string
	year    int
	quarter int
}

// FilterEvents keeps only events for the tracked tickers and collapses
// duplicate (ticker, year, quarter) entries, preferring the entry carrying
// the richer estimates when the API returns overlapping rows.
func FilterEvents(events []models.EarningsEvent, tickers []string) []models.EarningsEvent {
	allowed := make(map[string]struct{}, len(tickers))

	for _, t := range tickers {
		t = strings.ToUpper(strings.TrimSpace(t))
		if t != "" {
			allowed[t] = struct{}{}
		}
	}

	seen := make(map[eventKey]int)
	result := make([]models.EarningsEvent, 0, len(events))

	for _, ev := range events {
		if _, ok := allowed[ev.Ticker]; !ok {
			continue
		}

		key := eventKey{ticker: ev.Ticker, year: ev.EventYear(), quarter: ev.Quarter}

		idx, dup := seen[key]
		if !dup {
			seen[key] = len(result)
			result = append(result, ev)

			continue
		}

		if richer(ev, result[idx]) {
			result[idx] = ev
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].Date.Equal(result[j].Date) {
			return result[i].Date.Before(result[j].Date)
		}

		return result[i].Ticker < result[j].Ticker
	})

	return result
}

// richer reports whether a carries more estimate data than b.
func richer(a, b models.EarningsEvent) bool {
	return estimateCount(a) > estimateCount(b)
}

func estimateCount(ev models.EarningsEvent) int {
	n := 0

	if ev.EPSEstimate != nil {
		n++
	}

	if ev.RevenueEstimate != nil {
		n++
	}

	return n
}
