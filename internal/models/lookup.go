package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Lookup validation errors.
var (
	ErrLookupYearOutOfRange  = errors.New("lookup year out of range")
	ErrLookupDatesReversed   = errors.New("start date must be on or before end date")
	ErrLookupEndWithoutStart = errors.New("end date requires a start date")
	ErrLookupYearDateMismatch = errors.New("lookup year must match start date year")
)

// Lookup is the structured answer from the research agent for one
// (series, year) query. Dates are optional: an unannounced occurrence has
// no dates yet but may still carry a location or an announcement URL.
type Lookup struct {
	Year            int
	StartDate       *time.Time
	EndDate         *time.Time
	Location        string
	Timezone        string
	Confident       bool
	Confirmed       bool
	AnnouncementURL string
}

// Normalize cleans string fields and enforces the lookup invariants:
// start <= end, end requires start, and the year must match the start
// date's year. A missing end date defaults to the start date.
func (l *Lookup) Normalize() error {
	l.Location = strings.TrimSpace(l.Location)
	l.Timezone = strings.TrimSpace(l.Timezone)
	l.AnnouncementURL = strings.TrimSpace(l.AnnouncementURL)

	if l.Year < 1970 || l.Year > 2100 {
		return fmt.Errorf("%w: %d", ErrLookupYearOutOfRange, l.Year)
	}

	if l.StartDate == nil && l.EndDate != nil {
		return ErrLookupEndWithoutStart
	}

	if l.StartDate != nil && l.EndDate != nil && l.StartDate.After(*l.EndDate) {
		return ErrLookupDatesReversed
	}

	if l.StartDate != nil && l.Year != l.StartDate.Year() {
		return fmt.Errorf("%w: year %d, start %s", ErrLookupYearDateMismatch, l.Year, FormatDate(l.StartDate))
	}

	if l.StartDate != nil && l.EndDate == nil {
		end := *l.StartDate
		l.EndDate = &end
	}

	return nil
}
