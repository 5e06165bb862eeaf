package earnings

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"techcal/internal/config"
	"techcal/internal/logger"
	"techcal/internal/models"
)

func testPolicy() *config.RetryPolicy {
	return &config.RetryPolicy{
		MaxAttempts:       3,
		InitialDelayMs:    1,
		MaxDelayMs:        2,
		BackoffMultiplier: 1.0,
		TimeoutSec:        5,
	}
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *FinnhubClient {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewFinnhubClient(config.EarningsConfig{
		BaseURL: srv.URL,
		APIKey:  "test-key",
	}, testPolicy(), logger.NewNop())
}

func TestFetchWindow_Success(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, req *http.Request) {
		if req.URL.Path != "/calendar/earnings" {
			t.Errorf("Wrong path: %s", req.URL.Path)
		}

		q := req.URL.Query()
		if q.Get("from") != "2026-02-19" || q.Get("to") != "2026-03-21" {
			t.Errorf("Wrong window: from=%s to=%s", q.Get("from"), q.Get("to"))
		}

		if q.Get("token") != "test-key" {
			t.Errorf("Wrong token: %s", q.Get("token"))
		}

		fmt.Fprint(w, `{"earningsCalendar": [
			{"symbol": "aapl", "date": "2026-02-26", "quarter": 1, "year": 2026,
			 "epsEstimate": 2.35, "revenueEstimate": 119500000000},
			{"symbol": "NVDA", "date": "2026-02-25", "quarter": 4, "year": 2026,
			 "epsEstimate": null, "revenueEstimate": ""}
		]}`)
	})

	got, err := c.FetchWindow(context.Background(), models.Date(2026, 2, 19), models.Date(2026, 3, 21))
	if err != nil {
		t.Fatalf("FetchWindow failed: %v", err)
	}

	if len(got) != 2 {
		t.Fatalf("Expected 2 events, got %d", len(got))
	}

	if got[0].Ticker != "AAPL" {
		t.Errorf("Symbol should be uppercased, got %q", got[0].Ticker)
	}

	if got[0].EPSEstimate == nil || *got[0].EPSEstimate != 2.35 {
		t.Errorf("Wrong EPS estimate: %v", got[0].EPSEstimate)
	}

	if got[1].EPSEstimate != nil || got[1].RevenueEstimate != nil {
		t.Error("Null and empty-string estimates should decode to nil")
	}

	if got[1].Source != "finnhub" {
		t.Errorf("Wrong source: %q", got[1].Source)
	}
}

func TestFetchWindow_SkipsMalformedEntries(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, req *http.Request) {
		fmt.Fprint(w, `{"earningsCalendar": [
			{"symbol": "", "date": "2026-02-26", "quarter": 1, "year": 2026},
			{"symbol": "AAPL", "date": "not-a-date", "quarter": 1, "year": 2026},
			{"symbol": "MSFT", "date": "2026-02-27", "quarter": 2, "year": 2026}
		]}`)
	})

	got, err := c.FetchWindow(context.Background(), models.Date(2026, 2, 19), models.Date(2026, 3, 21))
	if err != nil {
		t.Fatalf("FetchWindow failed: %v", err)
	}

	if len(got) != 1 || got[0].Ticker != "MSFT" {
		t.Errorf("Expected only the well-formed entry, got %+v", got)
	}
}

func TestFetchWindow_RetriesRateLimit(t *testing.T) {
	attempts := 0

	c := newTestClient(t, func(w http.ResponseWriter, req *http.Request) {
		attempts++
		if attempts < 2 {
			w.WriteHeader(http.StatusTooManyRequests)

			return
		}

		fmt.Fprint(w, `{"earningsCalendar": []}`)
	})

	got, err := c.FetchWindow(context.Background(), models.Date(2026, 2, 19), models.Date(2026, 3, 21))
	if err != nil {
		t.Fatalf("FetchWindow failed after retry: %v", err)
	}

	if attempts != 2 {
		t.Errorf("Expected 2 attempts, got %d", attempts)
	}

	if len(got) != 0 {
		t.Errorf("Expected empty window, got %d events", len(got))
	}
}

func TestFetchWindow_AuthFailureIsFatal(t *testing.T) {
	attempts := 0

	c := newTestClient(t, func(w http.ResponseWriter, req *http.Request) {
		attempts++
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := c.FetchWindow(context.Background(), models.Date(2026, 2, 19), models.Date(2026, 3, 21))
	if !errors.Is(err, ErrUnexpectedStatusCode) {
		t.Fatalf("Expected ErrUnexpectedStatusCode, got %v", err)
	}

	if attempts != 1 {
		t.Errorf("Expected 1 attempt, got %d", attempts)
	}
}
