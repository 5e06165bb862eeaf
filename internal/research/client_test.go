package research

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"techcal/internal/config"
	"techcal/internal/logger"
	"techcal/internal/models"
)

var researchSeries = models.Series{
	ID:      "widget-conf",
	Name:    "Widget Conf",
	Queries: []string{"widget conf dates"},
}

func testPolicy() *config.RetryPolicy {
	return &config.RetryPolicy{
		MaxAttempts:       3,
		InitialDelayMs:    1,
		MaxDelayMs:        2,
		BackoffMultiplier: 1.0,
		TimeoutSec:        5,
	}
}

func newTestResearcher(t *testing.T, handler http.HandlerFunc) *Researcher {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	r := NewResearcher(config.LLMConfig{
		Endpoint: srv.URL,
		Model:    "test-model",
		APIKey:   "test-key",
	}, testPolicy(), logger.NewNop())

	r.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }

	return r
}

func completionResponse(content string) string {
	resp := map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"content": content}},
		},
	}

	data, _ := json.Marshal(resp)

	return string(data)
}

func TestFetch_Success(t *testing.T) {
	var gotBody chatRequest

	r := newTestResearcher(t, func(w http.ResponseWriter, req *http.Request) {
		if auth := req.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Errorf("Wrong auth header: %q", auth)
		}

		if err := json.NewDecoder(req.Body).Decode(&gotBody); err != nil {
			t.Errorf("Failed to decode request: %v", err)
		}

		fmt.Fprint(w, completionResponse(`{
			"year": 2026,
			"start_date": "2026-06-09",
			"end_date": "2026-06-11",
			"location": "San Jose",
			"timezone": "America/Los_Angeles",
			"confident": true,
			"confirmed": false,
			"announcement_url": "https://example.com/widget-2026"
		}`))
	})

	got, err := r.Fetch(context.Background(), researchSeries, 2026)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}

	if got.Year != 2026 || !got.Confident || got.Confirmed {
		t.Errorf("Wrong lookup: %+v", got)
	}

	if got.StartDate == nil || !got.StartDate.Equal(models.Date(2026, 6, 9)) {
		t.Errorf("Wrong start date: %v", got.StartDate)
	}

	if got.Location != "San Jose" {
		t.Errorf("Wrong location: %q", got.Location)
	}

	if gotBody.Model != "test-model" {
		t.Errorf("Wrong model in request: %q", gotBody.Model)
	}

	if gotBody.ResponseFormat.Type != "json_object" {
		t.Errorf("Wrong response format: %q", gotBody.ResponseFormat.Type)
	}

	if len(gotBody.Messages) != 2 {
		t.Fatalf("Expected system and user messages, got %d", len(gotBody.Messages))
	}

	user := gotBody.Messages[1].Content
	for _, want := range []string{"Widget Conf", "2026", "widget conf dates", "Today is 2026-03-01"} {
		if !strings.Contains(user, want) {
			t.Errorf("User prompt missing %q:\n%s", want, user)
		}
	}
}

func TestFetch_NullDates(t *testing.T) {
	r := newTestResearcher(t, func(w http.ResponseWriter, req *http.Request) {
		fmt.Fprint(w, completionResponse(`{"year": 2027, "confident": false, "confirmed": false}`))
	})

	got, err := r.Fetch(context.Background(), researchSeries, 2027)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}

	if got.StartDate != nil || got.EndDate != nil {
		t.Errorf("Expected nil dates, got %v / %v", got.StartDate, got.EndDate)
	}
}

func TestFetch_InvalidPayload(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"not json", "the event is in June"},
		{"bad date", `{"year": 2026, "start_date": "June 9th"}`},
		{"reversed dates", `{"year": 2026, "start_date": "2026-06-11", "end_date": "2026-06-09"}`},
		{"year mismatch", `{"year": 2026, "start_date": "2027-06-09"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestResearcher(t, func(w http.ResponseWriter, req *http.Request) {
				fmt.Fprint(w, completionResponse(tt.content))
			})

			_, err := r.Fetch(context.Background(), researchSeries, 2026)
			if !errors.Is(err, ErrInvalidLookupPayload) {
				t.Errorf("Expected ErrInvalidLookupPayload, got %v", err)
			}
		})
	}
}

func TestFetch_EmptyChoices(t *testing.T) {
	r := newTestResearcher(t, func(w http.ResponseWriter, req *http.Request) {
		fmt.Fprint(w, `{"choices": []}`)
	})

	_, err := r.Fetch(context.Background(), researchSeries, 2026)
	if !errors.Is(err, ErrEmptyCompletion) {
		t.Errorf("Expected ErrEmptyCompletion, got %v", err)
	}
}

func TestFetch_RetriesServerErrors(t *testing.T) {
	attempts := 0

	r := newTestResearcher(t, func(w http.ResponseWriter, req *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)

			return
		}

		fmt.Fprint(w, completionResponse(`{"year": 2026, "confident": true}`))
	})

	got, err := r.Fetch(context.Background(), researchSeries, 2026)
	if err != nil {
		t.Fatalf("Fetch failed after retries: %v", err)
	}

	if attempts != 3 {
		t.Errorf("Expected 3 attempts, got %d", attempts)
	}

	if !got.Confident {
		t.Errorf("Wrong lookup after retry: %+v", got)
	}
}

func TestFetch_DoesNotRetryClientErrors(t *testing.T) {
	attempts := 0

	r := newTestResearcher(t, func(w http.ResponseWriter, req *http.Request) {
		attempts++
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := r.Fetch(context.Background(), researchSeries, 2026)
	if !errors.Is(err, ErrUnexpectedStatusCode) {
		t.Fatalf("Expected ErrUnexpectedStatusCode, got %v", err)
	}

	if attempts != 1 {
		t.Errorf("Expected 1 attempt, got %d", attempts)
	}
}
