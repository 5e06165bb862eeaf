package events

import (
	"techcal/internal/logger"
	"techcal/internal/models"
	"techcal/internal/storage"
)

// SelectForCalendar returns the stored occurrences eligible for the next
// calendar publication: included records no older than the retention
// window. Everything else stays in the store untouched.
func SelectForCalendar(repo *storage.EventRepository, currentYear, retentionYears int) ([]models.StoredOccurrence, error) {
	return repo.ListIncludedSince(currentYear - retentionYears)
}

// ProjectForCalendar maps retained records into calendar-ready occurrences.
// Records whose series is no longer configured are skipped, as are records
// without resolved dates; neither is an error.
func ProjectForCalendar(
	records []models.StoredOccurrence,
	seriesByID map[string]models.Series,
	log *logger.Logger,
) []models.Occurrence {
	occurrences := make([]models.Occurrence, 0, len(records))

	for _, rec := range records {
		series, ok := seriesByID[rec.SeriesID]
		if !ok {
			log.Warn("series missing from config, skipping stored occurrence",
				"series_id", rec.SeriesID, "year", rec.Year)

			continue
		}

		if rec.StartDate == nil || rec.EndDate == nil {
			log.Warn("occurrence excluded, dates not resolved",
				"series_id", rec.SeriesID, "year", rec.Year)

			continue
		}

		occurrences = append(occurrences, models.Occurrence{
			Series:          series,
			Year:            rec.Year,
			StartDate:       *rec.StartDate,
			EndDate:         *rec.EndDate,
			Location:        rec.Location,
			Timezone:        rec.Timezone,
			Confident:       rec.Confident,
			Confirmed:       rec.Confirmed,
			AnnouncementURL: rec.AnnouncementURL,
		})
	}

	return occurrences
}
