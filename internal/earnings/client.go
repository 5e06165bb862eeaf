// Package earnings fetches upcoming earnings report dates from the Finnhub
// calendar API and publishes them as an ICS calendar.
package earnings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"techcal/internal/config"
	"techcal/internal/logger"
	"techcal/internal/models"
	"techcal/internal/retry"
)

// Earnings client errors.
var (
	ErrUnexpectedStatusCode = errors.New("unexpected status code")
)

// Client fetches earnings calendar entries for a date window.
type Client interface {
	FetchWindow(ctx context.Context, from, to time.Time) ([]models.EarningsEvent, error)
}

// FinnhubClient talks to the Finnhub /calendar/earnings endpoint.
type FinnhubClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	retryPol   *config.RetryPolicy
	log        *logger.Logger
}

var _ Client = (*FinnhubClient)(nil)

// NewFinnhubClient creates a Finnhub earnings client from configuration.
func NewFinnhubClient(cfg config.EarningsConfig, retryPol *config.RetryPolicy, log *logger.Logger) *FinnhubClient {
	return &FinnhubClient{
		httpClient: &http.Client{Timeout: retryPol.GetTimeout()},
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		retryPol:   retryPol,
		log:        log,
	}
}

// calendarResponse mirrors the Finnhub earnings calendar payload. Numeric
// estimates arrive as numbers, null, or occasionally empty strings.
type calendarResponse struct {
	EarningsCalendar []calendarEntry `json:"earningsCalendar"`
}

type calendarEntry struct {
	Symbol          string        `json:"symbol"`
	Date            string        `json:"date"`
	Quarter         int           `json:"quarter"`
	Year            int           `json:"year"`
	EPSEstimate     nullableFloat `json:"epsEstimate"`
	RevenueEstimate nullableFloat `json:"revenueEstimate"`
}

// nullableFloat decodes a float that may arrive as null, a number, a numeric
// string, or an empty string.
type nullableFloat struct {
	Value *float64
}

func (n *nullableFloat) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" || s == `""` {
		n.Value = nil
		return nil
	}

	s = strings.Trim(s, `"`)

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("invalid numeric value %s: %w", string(data), err)
	}

	n.Value = &v

	return nil
}

// FetchWindow retrieves all earnings entries between from and to inclusive.
func (c *FinnhubClient) FetchWindow(ctx context.Context, from, to time.Time) ([]models.EarningsEvent, error) {
	c.log.Info("earnings fetch start",
		"from", from.Format(models.DateLayout),
		"to", to.Format(models.DateLayout),
	)

	var raw []byte

	err := retry.Do(c.retryPol, retryableFinnhub, func() error {
		var opErr error
		raw, opErr = c.get(ctx, from, to)

		return opErr
	})
	if err != nil {
		return nil, fmt.Errorf("earnings calendar request failed: %w", err)
	}

	var resp calendarResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse earnings calendar response: %w", err)
	}

	events := make([]models.EarningsEvent, 0, len(resp.EarningsCalendar))

	for _, entry := range resp.EarningsCalendar {
		ev, err := entry.toEvent()
		if err != nil {
			c.log.Warn("skipping malformed earnings entry", "symbol", entry.Symbol, "error", err)

			continue
		}

		events = append(events, ev)
	}

	c.log.Info("earnings fetch success", "count", len(events))

	return events, nil
}

func (e calendarEntry) toEvent() (models.EarningsEvent, error) {
	if e.Symbol == "" {
		return models.EarningsEvent{}, errors.New("missing symbol")
	}

	date, err := models.ParseDate(e.Date)
	if err != nil {
		return models.EarningsEvent{}, fmt.Errorf("bad date %q: %w", e.Date, err)
	}

	return models.EarningsEvent{
		Ticker:          strings.ToUpper(e.Symbol),
		Date:            date,
		Quarter:         e.Quarter,
		FiscalYear:      e.Year,
		EPSEstimate:     e.EPSEstimate.Value,
		RevenueEstimate: e.RevenueEstimate.Value,
		Source:          "finnhub",
	}, nil
}

func (c *FinnhubClient) get(ctx context.Context, from, to time.Time) ([]byte, error) {
	endpoint, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", c.baseURL, err)
	}

	endpoint = endpoint.JoinPath("calendar", "earnings")

	q := endpoint.Query()
	q.Set("from", from.Format(models.DateLayout))
	q.Set("to", to.Format(models.DateLayout))
	q.Set("token", c.apiKey)
	endpoint.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &statusError{code: resp.StatusCode}
	}

	return data, nil
}

type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("%v: %d", ErrUnexpectedStatusCode, e.code)
}

func (e *statusError) Is(target error) bool {
	return target == ErrUnexpectedStatusCode
}

func retryableFinnhub(err error) bool {
	var se *statusError
	if errors.As(err, &se) {
		switch se.code {
		case http.StatusRequestTimeout, http.StatusTooManyRequests,
			http.StatusInternalServerError, http.StatusBadGateway,
			http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			return true
		default:
			return false
		}
	}

	return true
}
