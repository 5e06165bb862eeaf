package earnings

import (
	"testing"

	"techcal/internal/models"
)

func TestFilterEvents_KeepsOnlyTrackedTickers(t *testing.T) {
	events := []models.EarningsEvent{
		{Ticker: "AAPL", Date: models.Date(2026, 1, 29), Quarter: 1, FiscalYear: 2026},
		{Ticker: "ZZZZ", Date: models.Date(2026, 1, 30), Quarter: 1, FiscalYear: 2026},
		{Ticker: "MSFT", Date: models.Date(2026, 1, 27), Quarter: 2, FiscalYear: 2026},
	}

	got := FilterEvents(events, []string{"aapl", " MSFT "})

	if len(got) != 2 {
		t.Fatalf("Expected 2 events, got %d", len(got))
	}

	// Sorted by date.
	if got[0].Ticker != "MSFT" || got[1].Ticker != "AAPL" {
		t.Errorf("Wrong tickers or order: %s, %s", got[0].Ticker, got[1].Ticker)
	}
}

func TestFilterEvents_DeduplicatesByKey(t *testing.T) {
	eps := 2.35

	events := []models.EarningsEvent{
		{Ticker: "AAPL", Date: models.Date(2026, 1, 29), Quarter: 1, FiscalYear: 2026},
		// Same (ticker, year, quarter) but carrying estimates.
		{Ticker: "AAPL", Date: models.Date(2026, 1, 29), Quarter: 1, FiscalYear: 2026, EPSEstimate: &eps},
		// Different quarter survives.
		{Ticker: "AAPL", Date: models.Date(2026, 4, 30), Quarter: 2, FiscalYear: 2026},
	}

	got := FilterEvents(events, []string{"AAPL"})

	if len(got) != 2 {
		t.Fatalf("Expected 2 events after dedupe, got %d", len(got))
	}

	if got[0].EPSEstimate == nil {
		t.Error("Dedupe should prefer the entry with estimates")
	}
}

func TestFilterEvents_FiscalYearFallbackKey(t *testing.T) {
	// One entry reports the fiscal year, the duplicate does not; both key
	// to the same event year, so only one survives.
	events := []models.EarningsEvent{
		{Ticker: "AAPL", Date: models.Date(2026, 1, 29), Quarter: 1, FiscalYear: 2026},
		{Ticker: "AAPL", Date: models.Date(2026, 1, 29), Quarter: 1},
	}

	got := FilterEvents(events, []string{"AAPL"})

	if len(got) != 1 {
		t.Errorf("Expected 1 event, got %d", len(got))
	}
}

func TestFilterEvents_Empty(t *testing.T) {
	if got := FilterEvents(nil, []string{"AAPL"}); len(got) != 0 {
		t.Errorf("Expected no events, got %d", len(got))
	}

	events := []models.EarningsEvent{{Ticker: "AAPL", Date: models.Date(2026, 1, 29), Quarter: 1}}
	if got := FilterEvents(events, nil); len(got) != 0 {
		t.Errorf("Expected no events with no tracked tickers, got %d", len(got))
	}
}
