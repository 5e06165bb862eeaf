package events

import (
	"context"
	"fmt"
	"time"

	"techcal/internal/calendar"
	"techcal/internal/config"
	"techcal/internal/logger"
	"techcal/internal/models"
	"techcal/internal/storage"
)

// LookupFetcher retrieves a structured best-guess occurrence for one
// (series, year) query.
type LookupFetcher interface {
	Fetch(ctx context.Context, series models.Series, year int) (models.Lookup, error)
}

// Runner drives the events pipeline: research each series for the current
// and next year, reconcile against storage, then publish the retained
// history as an ICS calendar.
type Runner struct {
	series  []models.Series
	repo    *storage.EventRepository
	fetcher LookupFetcher
	cal     config.CalendarConfig
	log     *logger.Logger
}

// NewRunner creates an events pipeline runner.
func NewRunner(
	series []models.Series,
	repo *storage.EventRepository,
	fetcher LookupFetcher,
	cal config.CalendarConfig,
	log *logger.Logger,
) *Runner {
	return &Runner{
		series:  series,
		repo:    repo,
		fetcher: fetcher,
		cal:     cal,
		log:     log,
	}
}

// Run executes a full pipeline pass for the given reference date and
// returns the path of the written ICS file.
//
// A lookup or reconciliation failure is isolated to its series/year pair:
// it is logged and the loop continues. Storage failures abort the run,
// since every later step depends on the store.
func (r *Runner) Run(ctx context.Context, today time.Time) (string, error) {
	for _, series := range r.series {
		for _, year := range []int{today.Year(), today.Year() + 1} {
			if err := r.processSeriesYear(ctx, series, year, today); err != nil {
				return "", err
			}
		}
	}

	records, err := SelectForCalendar(r.repo, today.Year(), r.cal.RetentionYears)
	if err != nil {
		return "", err
	}

	occurrences := ProjectForCalendar(records, seriesIndex(r.series), r.log)

	items := make([]calendar.Event, 0, len(occurrences))
	for _, occ := range occurrences {
		items = append(items, calendar.Event{
			UID:         occ.UID(r.cal.RelCalID),
			Summary:     occ.Title(),
			Description: occ.Description(),
			Location:    occ.Location,
			URL:         occ.AnnouncementURL,
			Start:       occ.StartDate,
			End:         occ.EndDate,
		})
	}

	meta := calendar.Metadata{
		Name:        r.cal.Name,
		RelCalID:    r.cal.RelCalID,
		Description: r.cal.Description,
	}

	if err := calendar.BuildAndWrite(items, meta, r.cal.ICSPath); err != nil {
		return "", fmt.Errorf("failed to write events calendar: %w", err)
	}

	r.log.Info("events calendar written", "path", r.cal.ICSPath, "events_total", len(items))

	return r.cal.ICSPath, nil
}

// processSeriesYear handles one (series, year) pair. The returned error is
// non-nil only for storage failures; lookup and validation failures are
// logged and swallowed so one series never aborts the others.
func (r *Runner) processSeriesYear(ctx context.Context, series models.Series, year int, today time.Time) error {
	lookup, err := r.fetcher.Fetch(ctx, series, year)
	if err != nil {
		r.log.Error("lookup failed, skipping series/year",
			"series_id", series.ID, "year", year, "err", err)

		return nil
	}

	existing, err := r.repo.Get(series.ID, year)
	if err != nil {
		return err
	}

	merged, err := Reconcile(series, lookup, existing, today, year)
	if err != nil {
		r.log.Error("reconciliation rejected lookup, skipping series/year",
			"series_id", series.ID, "year", year, "err", err)

		return nil
	}

	return r.repo.Upsert(merged)
}

// SeriesFromConfig converts configured series into domain values.
func SeriesFromConfig(cfgs []config.SeriesConfig) []models.Series {
	out := make([]models.Series, 0, len(cfgs))
	for _, s := range cfgs {
		out = append(out, models.Series{ID: s.ID, Name: s.Name, Queries: s.Queries})
	}

	return out
}

func seriesIndex(series []models.Series) map[string]models.Series {
	out := make(map[string]models.Series, len(series))
	for _, s := range series {
		out[s.ID] = s
	}

	return out
}
