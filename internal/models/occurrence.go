package models

import (
	"fmt"
	"strings"
	"time"
)

// StoredOccurrence is the persisted record for one (series, year) pair.
// Records are created on first reconciliation and updated in place on every
// later one; they are never deleted, so history stays recoverable if the
// retention window is widened.
type StoredOccurrence struct {
	SeriesID        string
	Year            int
	StartDate       *time.Time
	EndDate         *time.Time
	Location        string
	Timezone        string
	Confident       bool
	Confirmed       bool
	AnnouncementURL string
	Included        bool
}

// IsPast reports whether the occurrence ended strictly before the reference
// date. A record without any dates is never considered past.
func (o StoredOccurrence) IsPast(reference time.Time) bool {
	if o.EndDate != nil {
		return o.EndDate.Before(reference)
	}

	if o.StartDate != nil {
		return o.StartDate.Before(reference)
	}

	return false
}

// Occurrence is the calendar projection of a stored record joined with its
// series. It only exists for records with resolved dates.
type Occurrence struct {
	Series          Series
	Year            int
	StartDate       time.Time
	EndDate         time.Time
	Location        string
	Timezone        string
	Confident       bool
	Confirmed       bool
	AnnouncementURL string
}

// UID returns the deterministic calendar UID for this occurrence.
func (o Occurrence) UID(relcalid string) string {
	return OccurrenceUID(o.Series.ID, o.Year, relcalid)
}

// Title builds the calendar entry summary.
func (o Occurrence) Title() string {
	return fmt.Sprintf("%s %d", o.Series.Name, o.Year)
}

// Description builds the multi-line description for the ICS entry.
func (o Occurrence) Description() string {
	lines := []string{
		fmt.Sprintf("Series: %s", o.Series.Name),
		fmt.Sprintf("Year: %d", o.Year),
		fmt.Sprintf("Confirmed: %t", o.Confirmed),
		fmt.Sprintf("Confident: %t", o.Confident),
	}

	if o.Location != "" {
		lines = append(lines, fmt.Sprintf("Location: %s", o.Location))
	}

	if o.Timezone != "" {
		lines = append(lines, fmt.Sprintf("Timezone (informational): %s", o.Timezone))
	}

	if o.AnnouncementURL != "" {
		lines = append(lines, fmt.Sprintf("Announcement: %s", o.AnnouncementURL))
	}

	return strings.Join(lines, "\n")
}
