package models

import "time"

// DateLayout is the ISO 8601 date form used for storage and config.
const DateLayout = "2006-01-02"

// Date builds a calendar date at UTC midnight. All date-only values in the
// system are normalized this way so comparisons stay consistent.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// DatePtr is a convenience for optional date fields.
func DatePtr(year int, month time.Month, day int) *time.Time {
	d := Date(year, month, day)
	return &d
}

// ParseDate parses an ISO date string into a UTC midnight time.
func ParseDate(value string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, value, time.UTC)
}

// FormatDate renders an optional date as ISO 8601, or "" when absent.
func FormatDate(d *time.Time) string {
	if d == nil {
		return ""
	}

	return d.Format(DateLayout)
}
