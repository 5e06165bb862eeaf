package storage

import (
	"errors"
	"testing"
)

func TestKindForScheme(t *testing.T) {
	tests := []struct {
		scheme  string
		want    BackendKind
		wantErr error
	}{
		{"", KindLocal, nil},
		{"file", KindLocal, nil},
		{"FILE", KindLocal, nil},
		{"webdav", KindRemoteSync, nil},
		{"WebDAV", KindRemoteSync, nil},
		{"s3", 0, ErrUnsupportedScheme},
		{"http", 0, ErrUnsupportedScheme},
	}

	for _, tt := range tests {
		t.Run("scheme_"+tt.scheme, func(t *testing.T) {
			got, err := KindForScheme(tt.scheme)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Expected %v, got %v", tt.wantErr, err)
				}

				return
			}

			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}

			if got != tt.want {
				t.Errorf("KindForScheme(%q) = %v, want %v", tt.scheme, got, tt.want)
			}
		})
	}
}

func TestNewLocalBackend(t *testing.T) {
	tests := []struct {
		name     string
		location string
		want     string
		wantErr  error
	}{
		{"bare path", "techcal.db", "techcal.db", nil},
		{"relative dir", "data/techcal.db", "data/techcal.db", nil},
		{"file URL absolute", "file:///var/lib/techcal.db", "/var/lib/techcal.db", nil},
		{"file URL bare name", "file://techcal.db", "techcal.db", nil},
		{"empty", "", "", ErrEmptyStoragePath},
		{"file URL empty", "file://", "", ErrEmptyStoragePath},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := NewLocalBackend(tt.location)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Expected %v, got %v", tt.wantErr, err)
				}

				return
			}

			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}

			path, err := b.Prepare()
			if err != nil {
				t.Fatalf("Prepare failed: %v", err)
			}

			if path != tt.want {
				t.Errorf("Prepare() = %q, want %q", path, tt.want)
			}

			if err := b.Finalize(); err != nil {
				t.Errorf("Finalize failed: %v", err)
			}
		})
	}
}
