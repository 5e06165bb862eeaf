package calendar

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func sampleEvents() []Event {
	return []Event{
		{
			UID:         "v1-abc@tech.calendar.events",
			Summary:     "Widget Conf 2026",
			Description: "Series: Widget Conf\nYear: 2026",
			Location:    "San Jose",
			URL:         "https://example.com/widget-2026",
			Start:       time.Date(2026, 6, 9, 0, 0, 0, 0, time.UTC),
			End:         time.Date(2026, 6, 11, 0, 0, 0, 0, time.UTC),
		},
	}
}

func sampleMetadata() Metadata {
	return Metadata{
		Name:        "Tech Events Calendar",
		RelCalID:    "tech.calendar.events",
		Description: "Annually recurring technology events.",
	}
}

func TestBuild(t *testing.T) {
	cal := Build(sampleEvents(), sampleMetadata())

	out := cal.Serialize()

	checks := []string{
		"BEGIN:VCALENDAR",
		"METHOD:PUBLISH",
		"X-WR-CALNAME:Tech Events Calendar",
		"X-WR-RELCALID:tech.calendar.events",
		"UID:v1-abc@tech.calendar.events",
		"SUMMARY:Widget Conf 2026",
		"LOCATION:San Jose",
		"DTSTART;VALUE=DATE:20260609",
		// DTEND is exclusive: the day after the last event day.
		"DTEND;VALUE=DATE:20260612",
		"END:VCALENDAR",
	}

	for _, want := range checks {
		if !strings.Contains(out, want) {
			t.Errorf("Serialized calendar missing %q", want)
		}
	}
}

func TestBuild_EmptyCalendar(t *testing.T) {
	out := Build(nil, sampleMetadata()).Serialize()

	if !strings.Contains(out, "BEGIN:VCALENDAR") || strings.Contains(out, "BEGIN:VEVENT") {
		t.Errorf("Empty calendar should serialize with no events:\n%s", out)
	}
}

func TestBuildAndWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "events.ics")

	if err := BuildAndWrite(sampleEvents(), sampleMetadata(), path); err != nil {
		t.Fatalf("BuildAndWrite failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read written calendar: %v", err)
	}

	if !strings.Contains(string(data), "SUMMARY:Widget Conf 2026") {
		t.Error("Written calendar missing event")
	}

	// No temp files left behind.
	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatalf("Failed to read output dir: %v", err)
	}

	if len(entries) != 1 {
		t.Errorf("Expected only the calendar file, found %d entries", len(entries))
	}
}

func TestBuildAndWrite_Overwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.ics")

	if err := BuildAndWrite(sampleEvents(), sampleMetadata(), path); err != nil {
		t.Fatalf("First write failed: %v", err)
	}

	if err := BuildAndWrite(nil, sampleMetadata(), path); err != nil {
		t.Fatalf("Second write failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read written calendar: %v", err)
	}

	if strings.Contains(string(data), "BEGIN:VEVENT") {
		t.Error("Second write should have replaced the previous calendar")
	}
}
