// Package models defines the domain types shared across the calendar pipelines.
package models

// Series represents a logical annual event series defined in configuration.
// It is immutable at runtime; mutations happen only through config edits.
type Series struct {
	ID      string
	Name    string
	Queries []string
}
