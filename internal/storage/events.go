package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"techcal/internal/models"
)

// EventRepository persists one record per (series, year) occurrence.
type EventRepository struct {
	db *sql.DB
}

// NewEventRepository creates a repository over an open database.
func NewEventRepository(db *Database) *EventRepository {
	return &EventRepository{db: db.DB()}
}

// Get retrieves an occurrence by series and year, or nil when absent.
func (r *EventRepository) Get(seriesID string, year int) (*models.StoredOccurrence, error) {
	row := r.db.QueryRow(`
		SELECT series_id, year, start_date, end_date, location, timezone,
		       confident, confirmed, announcement_url, included
		FROM occurrences
		WHERE series_id = ? AND year = ?`,
		seriesID, year,
	)

	occ, err := scanOccurrence(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("%w: failed to fetch occurrence for %s %d: %v", ErrStorage, seriesID, year, err)
	}

	return &occ, nil
}

// Upsert inserts or updates the record for the occurrence's (series, year)
// key. The write is a single atomic statement.
func (r *EventRepository) Upsert(occ models.StoredOccurrence) error {
	now := time.Now().UTC().Format(time.RFC3339)

	_, err := r.db.Exec(`
		INSERT INTO occurrences (
			series_id, year, start_date, end_date, location, timezone,
			confident, confirmed, announcement_url, included, created_at, updated_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(series_id, year) DO UPDATE SET
			start_date=excluded.start_date,
			end_date=excluded.end_date,
			location=excluded.location,
			timezone=excluded.timezone,
			confident=excluded.confident,
			confirmed=excluded.confirmed,
			announcement_url=excluded.announcement_url,
			included=excluded.included,
			updated_at=excluded.updated_at`,
		occ.SeriesID, occ.Year,
		nullDate(occ.StartDate), nullDate(occ.EndDate),
		nullString(occ.Location), nullString(occ.Timezone),
		occ.Confident, occ.Confirmed,
		nullString(occ.AnnouncementURL), occ.Included,
		now, now,
	)
	if err != nil {
		return fmt.Errorf("%w: failed to persist occurrence for %s %d: %v", ErrStorage, occ.SeriesID, occ.Year, err)
	}

	return nil
}

// ListIncludedSince returns calendar-eligible records: those marked included
// with year >= minYear. Aging out is purely this read-time filter; nothing
// is deleted.
func (r *EventRepository) ListIncludedSince(minYear int) ([]models.StoredOccurrence, error) {
	rows, err := r.db.Query(`
		SELECT series_id, year, start_date, end_date, location, timezone,
		       confident, confirmed, announcement_url, included
		FROM occurrences
		WHERE year >= ? AND included = 1
		ORDER BY year, series_id`,
		minYear,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query occurrences: %v", ErrStorage, err)
	}
	defer rows.Close()

	var out []models.StoredOccurrence

	for rows.Next() {
		occ, err := scanOccurrence(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to scan occurrence: %v", ErrStorage, err)
		}

		out = append(out, occ)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: failed to read occurrences: %v", ErrStorage, err)
	}

	return out, nil
}

// ListAll returns every stored occurrence, including excluded and aged-out
// records, for inspection tooling.
func (r *EventRepository) ListAll() ([]models.StoredOccurrence, error) {
	rows, err := r.db.Query(`
		SELECT series_id, year, start_date, end_date, location, timezone,
		       confident, confirmed, announcement_url, included
		FROM occurrences
		ORDER BY year, series_id`,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query occurrences: %v", ErrStorage, err)
	}
	defer rows.Close()

	var out []models.StoredOccurrence

	for rows.Next() {
		occ, err := scanOccurrence(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to scan occurrence: %v", ErrStorage, err)
		}

		out = append(out, occ)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: failed to read occurrences: %v", ErrStorage, err)
	}

	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOccurrence(row rowScanner) (models.StoredOccurrence, error) {
	var (
		occ                        models.StoredOccurrence
		startRaw, endRaw           sql.NullString
		location, timezone, annURL sql.NullString
	)

	err := row.Scan(
		&occ.SeriesID, &occ.Year, &startRaw, &endRaw,
		&location, &timezone, &occ.Confident, &occ.Confirmed,
		&annURL, &occ.Included,
	)
	if err != nil {
		return models.StoredOccurrence{}, err
	}

	occ.StartDate = parseNullDate(startRaw)
	occ.EndDate = parseNullDate(endRaw)
	occ.Location = location.String
	occ.Timezone = timezone.String
	occ.AnnouncementURL = annURL.String

	return occ, nil
}

func parseNullDate(v sql.NullString) *time.Time {
	if !v.Valid || v.String == "" {
		return nil
	}

	d, err := models.ParseDate(v.String)
	if err != nil {
		// A malformed stored date is treated as absent rather than failing
		// the whole read.
		return nil
	}

	return &d
}

func nullDate(d *time.Time) any {
	if d == nil {
		return nil
	}

	return d.Format(models.DateLayout)
}

func nullString(s string) any {
	if s == "" {
		return nil
	}

	return s
}
