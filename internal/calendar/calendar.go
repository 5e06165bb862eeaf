// Package calendar builds and writes ICS documents from abstract events.
package calendar

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	ics "github.com/arran4/golang-ical"
)

const productID = "-//techcal//calendar//EN"

// Metadata is applied to the top-level calendar.
type Metadata struct {
	Name        string
	RelCalID    string
	Description string
}

// Event is one all-day calendar entry. End is the inclusive last day; the
// serialized DTEND is exclusive per the iCalendar convention.
type Event struct {
	UID         string
	Summary     string
	Description string
	Location    string
	URL         string
	Start       time.Time
	End         time.Time
}

// Build assembles an ICS calendar from events and metadata. Event UIDs must
// be deterministic so downstream clients update entries in place.
func Build(events []Event, meta Metadata) *ics.Calendar {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(productID)
	cal.SetCalscale("GREGORIAN")
	cal.SetXWRCalName(meta.Name)
	cal.SetXWRCalID(meta.RelCalID)
	cal.SetXWRCalDesc(meta.Description)

	now := time.Now().UTC()

	for _, ev := range events {
		e := cal.AddEvent(ev.UID)
		e.SetDtStampTime(now)
		e.SetAllDayStartAt(ev.Start)
		e.SetAllDayEndAt(ev.End.AddDate(0, 0, 1))
		e.SetSummary(ev.Summary)

		if ev.Description != "" {
			e.SetDescription(ev.Description)
		}

		if ev.Location != "" {
			e.SetLocation(ev.Location)
		}

		if ev.URL != "" {
			e.SetURL(ev.URL)
		}
	}

	return cal
}

// WriteFile serializes the calendar and writes it atomically: the document
// lands in a temp file first and is renamed over the target, so no partial
// calendar is ever published.
func WriteFile(cal *ics.Calendar, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".techcal-*.ics")
	if err != nil {
		return fmt.Errorf("failed to create temp calendar file: %w", err)
	}

	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.WriteString(cal.Serialize()); err != nil {
		tmp.Close()

		return fmt.Errorf("failed to write calendar: %w", err)
	}

	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close calendar file: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to move calendar into place: %w", err)
	}

	return nil
}

// BuildAndWrite builds the calendar and writes it to path.
func BuildAndWrite(events []Event, meta Metadata, path string) error {
	return WriteFile(Build(events, meta), path)
}
