// Package storage manages the SQLite database, its location backends, and
// the repositories used by the calendar pipelines.
package storage

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Backend selection errors.
var (
	ErrUnsupportedScheme = errors.New("unsupported storage scheme")
	ErrEmptyStoragePath  = errors.New("storage path is empty")
	ErrMissingRemoteHost = errors.New("remote storage location is missing a host")
	ErrMissingRemoteFile = errors.New("remote storage location must include a filename")
)

// BackendKind enumerates the closed set of database location backends.
type BackendKind int

const (
	// KindLocal keeps the database on the local filesystem.
	KindLocal BackendKind = iota
	// KindRemoteSync downloads the database from a WebDAV server before a
	// run and uploads it back afterwards.
	KindRemoteSync
)

// KindForScheme maps a storage URL scheme to its backend kind. A bare path
// (empty scheme) counts as local.
func KindForScheme(scheme string) (BackendKind, error) {
	switch strings.ToLower(scheme) {
	case "", "file":
		return KindLocal, nil
	case "webdav":
		return KindRemoteSync, nil
	default:
		return 0, fmt.Errorf("%w: %s", ErrUnsupportedScheme, scheme)
	}
}

// Backend prepares a local copy of the database and persists it afterwards.
// Prepare returns the on-disk SQLite path to open; Finalize runs after the
// connection is closed.
type Backend interface {
	Prepare() (string, error)
	Finalize() error
}

// LocalBackend serves a database that already lives on the local filesystem.
type LocalBackend struct {
	path string
}

// NewLocalBackend parses a bare path or file:// URL into a local backend.
func NewLocalBackend(location string) (*LocalBackend, error) {
	path, err := parseLocalPath(location)
	if err != nil {
		return nil, err
	}

	return &LocalBackend{path: path}, nil
}

// Prepare returns the local filesystem path unchanged.
func (b *LocalBackend) Prepare() (string, error) {
	return b.path, nil
}

// Finalize is a no-op for local storage.
func (b *LocalBackend) Finalize() error {
	return nil
}

func parseLocalPath(location string) (string, error) {
	if !strings.HasPrefix(location, "file:") {
		if location == "" {
			return "", ErrEmptyStoragePath
		}

		return location, nil
	}

	u, err := url.Parse(location)
	if err != nil {
		return "", fmt.Errorf("invalid file URL: %w", err)
	}

	// file://name.db parses the name as a host; file:///dir/name.db as a path.
	path := u.Path
	if u.Host != "" {
		path = u.Host + path
	}

	path = strings.TrimSuffix(path, "/")
	if path == "" {
		return "", ErrEmptyStoragePath
	}

	return path, nil
}
