// Package events implements the occurrence reconciliation and retention
// engine: merging fresh research lookups with stored history, deciding
// which occurrences belong on the published calendar, and projecting the
// retained history into calendar entries.
package events

import (
	"errors"
	"fmt"
	"time"

	"techcal/internal/models"
)

// ErrYearMismatch is returned when the research agent answers for a
// different year than the one requested. A mismatched answer is never
// silently accepted or corrected.
var ErrYearMismatch = errors.New("lookup year does not match requested year")

// Reconcile merges a fresh lookup against the stored record for the same
// (series, year) and returns the record to persist.
//
// Rules, in order:
//  1. If both the stored occurrence and the incoming one (incoming dates,
//     falling back to stored dates where absent) ended before the reference
//     date, the stored record is returned unchanged: a settled past
//     occurrence is not overwritten with a fresh lookup's possibly worse
//     data.
//  2. Inclusion is earned by a confident or confirmed lookup, and once
//     earned it is never revoked by a single degraded answer.
//  3. Dates, location, timezone, and announcement URL merge with
//     incoming-wins-when-present; confident and confirmed always take the
//     incoming values since they describe the latest answer, not history.
func Reconcile(
	series models.Series,
	lookup models.Lookup,
	existing *models.StoredOccurrence,
	referenceDate time.Time,
	targetYear int,
) (models.StoredOccurrence, error) {
	if lookup.Year != targetYear {
		return models.StoredOccurrence{}, fmt.Errorf(
			"%w: series %s answered %d, expected %d", ErrYearMismatch, series.ID, lookup.Year, targetYear)
	}

	mergedStart := lookup.StartDate
	mergedEnd := lookup.EndDate
	mergedLocation := lookup.Location
	mergedTimezone := lookup.Timezone
	mergedURL := lookup.AnnouncementURL

	if existing != nil {
		if mergedStart == nil {
			mergedStart = existing.StartDate
		}

		if mergedEnd == nil {
			mergedEnd = existing.EndDate
		}

		if mergedLocation == "" {
			mergedLocation = existing.Location
		}

		if mergedTimezone == "" {
			mergedTimezone = existing.Timezone
		}

		if mergedURL == "" {
			mergedURL = existing.AnnouncementURL
		}

		incoming := models.StoredOccurrence{StartDate: mergedStart, EndDate: mergedEnd}
		if existing.IsPast(referenceDate) && incoming.IsPast(referenceDate) {
			return *existing, nil
		}
	}

	included := lookup.Confident || lookup.Confirmed
	if existing != nil && existing.Included && !included {
		included = true
	}

	return models.StoredOccurrence{
		SeriesID:        series.ID,
		Year:            lookup.Year,
		StartDate:       mergedStart,
		EndDate:         mergedEnd,
		Location:        mergedLocation,
		Timezone:        mergedTimezone,
		Confident:       lookup.Confident,
		Confirmed:       lookup.Confirmed,
		AnnouncementURL: mergedURL,
		Included:        included,
	}, nil
}
