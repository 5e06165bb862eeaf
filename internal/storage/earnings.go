package storage

import (
	"database/sql"
	"fmt"
	"time"

	"techcal/internal/models"
)

// EarningsRepository persists earnings announcements keyed by
// (ticker, fiscal year, quarter).
type EarningsRepository struct {
	db *sql.DB
}

// NewEarningsRepository creates a repository over an open database.
func NewEarningsRepository(db *Database) *EarningsRepository {
	return &EarningsRepository{db: db.DB()}
}

// Upsert inserts or updates one earnings event.
func (r *EarningsRepository) Upsert(ev models.EarningsEvent) error {
	now := time.Now().UTC().Format(time.RFC3339)

	_, err := r.db.Exec(`
		INSERT INTO earnings (
			ticker, fiscal_year, quarter, event_date,
			eps_estimate, revenue_estimate, source, created_at, updated_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(ticker, fiscal_year, quarter) DO UPDATE SET
			event_date=excluded.event_date,
			eps_estimate=excluded.eps_estimate,
			revenue_estimate=excluded.revenue_estimate,
			source=excluded.source,
			updated_at=excluded.updated_at`,
		ev.Ticker, ev.EventYear(), ev.Quarter, ev.Date.Format(models.DateLayout),
		nullFloat(ev.EPSEstimate), nullFloat(ev.RevenueEstimate),
		nullString(ev.Source), now, now,
	)
	if err != nil {
		return fmt.Errorf("%w: failed to persist earnings for %s FY%d Q%d: %v",
			ErrStorage, ev.Ticker, ev.EventYear(), ev.Quarter, err)
	}

	return nil
}

// UpsertAll persists a batch of earnings events.
func (r *EarningsRepository) UpsertAll(events []models.EarningsEvent) error {
	for _, ev := range events {
		if err := r.Upsert(ev); err != nil {
			return err
		}
	}

	return nil
}

// ListSince returns earnings with fiscal_year >= minYear, the read-time
// retention filter for calendar generation.
func (r *EarningsRepository) ListSince(minYear int) ([]models.EarningsEvent, error) {
	rows, err := r.db.Query(`
		SELECT ticker, fiscal_year, quarter, event_date,
		       eps_estimate, revenue_estimate, source
		FROM earnings
		WHERE fiscal_year >= ?
		ORDER BY event_date, ticker`,
		minYear,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query earnings: %v", ErrStorage, err)
	}
	defer rows.Close()

	var out []models.EarningsEvent

	for rows.Next() {
		var (
			ev       models.EarningsEvent
			dateRaw  string
			eps, rev sql.NullFloat64
			source   sql.NullString
		)

		err := rows.Scan(&ev.Ticker, &ev.FiscalYear, &ev.Quarter, &dateRaw, &eps, &rev, &source)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to scan earnings row: %v", ErrStorage, err)
		}

		date, err := models.ParseDate(dateRaw)
		if err != nil {
			return nil, fmt.Errorf("%w: malformed earnings date %q: %v", ErrStorage, dateRaw, err)
		}

		ev.Date = date
		ev.Source = source.String

		if eps.Valid {
			v := eps.Float64
			ev.EPSEstimate = &v
		}

		if rev.Valid {
			v := rev.Float64
			ev.RevenueEstimate = &v
		}

		out = append(out, ev)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: failed to read earnings rows: %v", ErrStorage, err)
	}

	return out, nil
}

func nullFloat(f *float64) any {
	if f == nil {
		return nil
	}

	return *f
}
