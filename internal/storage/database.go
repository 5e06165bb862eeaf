package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"net/url"

	_ "modernc.org/sqlite"

	"techcal/internal/config"
	"techcal/internal/logger"
)

// ErrStorage marks database failures. Storage errors are fatal to a run:
// every later step depends on the store, so callers abort instead of
// continuing with silently lost data.
var ErrStorage = errors.New("storage failure")

// Database wraps the SQLite connection and the backend that produced its
// local file. It is opened once per run and used serially.
type Database struct {
	db      *sql.DB
	backend Backend
}

// Open selects a backend for the location URL, prepares the local database
// file, opens the connection, and ensures the schema exists.
func Open(location string, retryPol *config.RetryPolicy, log *logger.Logger) (*Database, error) {
	backend, err := NewBackend(location, retryPol, log)
	if err != nil {
		return nil, err
	}

	path, err := backend.Prepare()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open database at %s: %v", ErrStorage, path, err)
	}

	// The database is a single serial writer; one connection avoids lock
	// contention between the pipelines and the listing tool.
	db.SetMaxOpenConns(1)

	d := &Database{db: db, backend: backend}
	if err := d.ensureSchema(); err != nil {
		db.Close()

		return nil, err
	}

	return d, nil
}

// NewBackend maps a storage location to its backend variant.
func NewBackend(location string, retryPol *config.RetryPolicy, log *logger.Logger) (Backend, error) {
	scheme := ""
	if u, err := url.Parse(location); err == nil {
		scheme = u.Scheme
	}

	kind, err := KindForScheme(scheme)
	if err != nil {
		return nil, err
	}

	switch kind {
	case KindRemoteSync:
		return NewRemoteSyncBackend(location, retryPol, log)
	default:
		return NewLocalBackend(location)
	}
}

// DB exposes the underlying connection for repositories.
func (d *Database) DB() *sql.DB {
	return d.db
}

// Close closes the connection and lets the backend persist the file.
func (d *Database) Close() error {
	if err := d.db.Close(); err != nil {
		return fmt.Errorf("%w: failed to close database: %v", ErrStorage, err)
	}

	if err := d.backend.Finalize(); err != nil {
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}

	return nil
}

func (d *Database) ensureSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS occurrences (
		series_id        TEXT    NOT NULL,
		year             INTEGER NOT NULL,
		start_date       TEXT,
		end_date         TEXT,
		location         TEXT,
		timezone         TEXT,
		confident        INTEGER NOT NULL DEFAULT 0,
		confirmed        INTEGER NOT NULL DEFAULT 0,
		announcement_url TEXT,
		included         INTEGER NOT NULL DEFAULT 0,
		created_at       TEXT    NOT NULL,
		updated_at       TEXT    NOT NULL,
		PRIMARY KEY (series_id, year)
	);

	CREATE TABLE IF NOT EXISTS earnings (
		ticker           TEXT    NOT NULL,
		fiscal_year      INTEGER NOT NULL,
		quarter          INTEGER NOT NULL,
		event_date       TEXT    NOT NULL,
		eps_estimate     REAL,
		revenue_estimate REAL,
		source           TEXT,
		created_at       TEXT    NOT NULL,
		updated_at       TEXT    NOT NULL,
		PRIMARY KEY (ticker, fiscal_year, quarter)
	);
	`

	if _, err := d.db.Exec(schema); err != nil {
		return fmt.Errorf("%w: failed to initialize schema: %v", ErrStorage, err)
	}

	return nil
}
