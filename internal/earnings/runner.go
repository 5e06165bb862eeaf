package earnings

import (
	"context"
	"fmt"
	"time"

	"techcal/internal/calendar"
	"techcal/internal/config"
	"techcal/internal/logger"
	"techcal/internal/storage"
)

// Runner drives the earnings pipeline: fetch the upcoming window from the
// provider, keep the tracked tickers, persist, then publish the retained
// history as an ICS calendar.
type Runner struct {
	cfg    config.EarningsConfig
	repo   *storage.EarningsRepository
	client Client
	log    *logger.Logger
}

// NewRunner creates an earnings pipeline runner.
func NewRunner(cfg config.EarningsConfig, repo *storage.EarningsRepository, client Client, log *logger.Logger) *Runner {
	return &Runner{cfg: cfg, repo: repo, client: client, log: log}
}

// Run executes a full pipeline pass for the given reference date and
// returns the path of the written ICS file.
func (r *Runner) Run(ctx context.Context, today time.Time) (string, error) {
	from := today.AddDate(0, 0, -r.cfg.DaysPast)
	to := today.AddDate(0, 0, r.cfg.DaysAhead)

	fetched, err := r.client.FetchWindow(ctx, from, to)
	if err != nil {
		return "", err
	}

	kept := FilterEvents(fetched, r.cfg.Tickers)

	r.log.Info("earnings filtered", "fetched", len(fetched), "kept", len(kept))

	if err := r.repo.UpsertAll(kept); err != nil {
		return "", err
	}

	minYear := today.Year() - r.cfg.Calendar.RetentionYears

	retained, err := r.repo.ListSince(minYear)
	if err != nil {
		return "", err
	}

	items := make([]calendar.Event, 0, len(retained))
	for _, ev := range retained {
		items = append(items, calendar.Event{
			UID:         ev.UID(r.cfg.Calendar.RelCalID),
			Summary:     ev.Title(),
			Description: ev.Description(),
			Start:       ev.Date,
			End:         ev.Date,
		})
	}

	meta := calendar.Metadata{
		Name:        r.cfg.Calendar.Name,
		RelCalID:    r.cfg.Calendar.RelCalID,
		Description: r.cfg.Calendar.Description,
	}

	if err := calendar.BuildAndWrite(items, meta, r.cfg.Calendar.ICSPath); err != nil {
		return "", fmt.Errorf("failed to write earnings calendar: %w", err)
	}

	r.log.Info("earnings calendar written", "path", r.cfg.Calendar.ICSPath, "events_total", len(items))

	return r.cfg.Calendar.ICSPath, nil
}
