package models

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// EarningsEvent is a single earnings announcement used for persistence and
// calendar output. FiscalYear may be zero when the source omits it; the
// calendar date's year is used as a fallback key.
type EarningsEvent struct {
	Ticker          string
	Date            time.Time
	Quarter         int
	FiscalYear      int
	EPSEstimate     *float64
	RevenueEstimate *float64
	Source          string
}

// EventYear returns the fiscal year, falling back to the calendar year.
func (e EarningsEvent) EventYear() int {
	if e.FiscalYear != 0 {
		return e.FiscalYear
	}

	return e.Date.Year()
}

// UID returns the deterministic calendar UID for the earnings event.
func (e EarningsEvent) UID(relcalid string) string {
	return EarningsUID(e.Ticker, e.EventYear(), e.Quarter, relcalid)
}

// Title builds the calendar entry summary.
func (e EarningsEvent) Title() string {
	return fmt.Sprintf("%s Q%d Earnings", e.Ticker, e.Quarter)
}

// Description builds the multi-line description for the ICS entry.
func (e EarningsEvent) Description() string {
	eps := "-"
	if e.EPSEstimate != nil {
		eps = fmt.Sprintf("%g", *e.EPSEstimate)
	}

	source := e.Source
	if source == "" {
		source = "-"
	}

	lines := []string{
		fmt.Sprintf("Ticker: %s", e.Ticker),
		fmt.Sprintf("Fiscal Qtr: %d", e.Quarter),
		fmt.Sprintf("Estimate EPS: %s", eps),
		fmt.Sprintf("Est. Revenue: %s", FormatRevenue(e.RevenueEstimate)),
		fmt.Sprintf("Source: %s", source),
	}

	return strings.Join(lines, "\n")
}

// FormatRevenue renders a revenue figure as a compact human-readable string
// (e.g. "1.5 B"). Negative or absent values render as "-".
func FormatRevenue(value *float64) string {
	if value == nil || *value < 0 {
		return "-"
	}

	n := math.Round(*value)

	switch {
	case n < 1e3:
		return fmt.Sprintf("%.0f", n)
	case n < 1e6:
		return fmt.Sprintf("%.0f K", n/1e3)
	case n < 1e9:
		return fmt.Sprintf("%.1f M", n/1e6)
	case n < 1e12:
		return fmt.Sprintf("%.2f B", n/1e9)
	default:
		return fmt.Sprintf("%.2f T", n/1e12)
	}
}
