// Package research retrieves structured occurrence data for event series
// from a language-model-backed agent over an OpenAI-compatible chat API.
package research

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"techcal/internal/config"
	"techcal/internal/events"
	"techcal/internal/logger"
	"techcal/internal/models"
	"techcal/internal/retry"
)

var _ events.LookupFetcher = (*Researcher)(nil)

// Research client errors.
var (
	ErrUnexpectedStatusCode = errors.New("unexpected status code")
	ErrEmptyCompletion      = errors.New("completion response contained no choices")
	ErrInvalidLookupPayload = errors.New("agent returned an invalid lookup payload")
)

// Researcher queries the agent for one (series, year) at a time and decodes
// the structured JSON answer into a validated Lookup.
type Researcher struct {
	httpClient *http.Client
	endpoint   string
	model      string
	apiKey     string
	retryPol   *config.RetryPolicy
	log        *logger.Logger

	// now is injectable so prompt content is testable.
	now func() time.Time
}

// NewResearcher creates a research client from configuration.
func NewResearcher(cfg config.LLMConfig, retryPol *config.RetryPolicy, log *logger.Logger) *Researcher {
	return &Researcher{
		httpClient: &http.Client{Timeout: retryPol.GetTimeout()},
		endpoint:   cfg.Endpoint,
		model:      cfg.Model,
		apiKey:     cfg.APIKey,
		retryPol:   retryPol,
		log:        log,
		now:        time.Now,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	ResponseFormat struct {
		Type string `json:"type"`
	} `json:"response_format"`
	Temperature float64 `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// lookupPayload is the JSON object the agent is instructed to return.
// Absent or null fields decode to zero values.
type lookupPayload struct {
	Year            int    `json:"year"`
	StartDate       string `json:"start_date"`
	EndDate         string `json:"end_date"`
	Location        string `json:"location"`
	Timezone        string `json:"timezone"`
	Confident       bool   `json:"confident"`
	Confirmed       bool   `json:"confirmed"`
	AnnouncementURL string `json:"announcement_url"`
}

// Fetch queries the agent for a specific series and year.
func (r *Researcher) Fetch(ctx context.Context, series models.Series, year int) (models.Lookup, error) {
	r.log.Info("lookup query start", "series_id", series.ID, "year", year, "model", r.model)

	body, err := json.Marshal(r.buildRequest(series, year))
	if err != nil {
		return models.Lookup{}, fmt.Errorf("failed to encode chat request: %w", err)
	}

	var raw []byte

	err = retry.Do(r.retryPol, retryableHTTP, func() error {
		var opErr error
		raw, opErr = r.post(ctx, body)

		return opErr
	})
	if err != nil {
		return models.Lookup{}, fmt.Errorf("lookup request failed for %s %d: %w", series.ID, year, err)
	}

	lookup, err := decodeLookup(raw)
	if err != nil {
		return models.Lookup{}, fmt.Errorf("lookup for %s %d: %w", series.ID, year, err)
	}

	r.log.Info("lookup query success",
		"series_id", series.ID,
		"year", lookup.Year,
		"confident", lookup.Confident,
		"confirmed", lookup.Confirmed,
		"has_dates", lookup.StartDate != nil && lookup.EndDate != nil,
	)

	return lookup, nil
}

func (r *Researcher) buildRequest(series models.Series, year int) chatRequest {
	req := chatRequest{
		Model: r.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: buildPrompt(series, year, r.now().UTC())},
		},
	}
	req.ResponseFormat.Type = "json_object"

	return req
}

func (r *Researcher) post(ctx context.Context, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	if r.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+r.apiKey)
	}

	resp, err := r.httpClient.Do(req)
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

func decodeLookup(raw []byte) (models.Lookup, error) {
	var resp chatResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return models.Lookup{}, fmt.Errorf("failed to parse completion response: %w", err)
	}

	if len(resp.Choices) == 0 {
		return models.Lookup{}, ErrEmptyCompletion
	}

	var payload lookupPayload
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &payload); err != nil {
		return models.Lookup{}, fmt.Errorf("%w: %v", ErrInvalidLookupPayload, err)
	}

	lookup := models.Lookup{
		Year:            payload.Year,
		Location:        payload.Location,
		Timezone:        payload.Timezone,
		Confident:       payload.Confident,
		Confirmed:       payload.Confirmed,
		AnnouncementURL: payload.AnnouncementURL,
	}

	if payload.StartDate != "" {
		d, err := models.ParseDate(payload.StartDate)
		if err != nil {
			return models.Lookup{}, fmt.Errorf("%w: bad start_date %q", ErrInvalidLookupPayload, payload.StartDate)
		}

		lookup.StartDate = &d
	}

	if payload.EndDate != "" {
		d, err := models.ParseDate(payload.EndDate)
		if err != nil {
			return models.Lookup{}, fmt.Errorf("%w: bad end_date %q", ErrInvalidLookupPayload, payload.EndDate)
		}

		lookup.EndDate = &d
	}

	if err := lookup.Normalize(); err != nil {
		return models.Lookup{}, fmt.Errorf("%w: %v", ErrInvalidLookupPayload, err)
	}

	return lookup, nil
}

// statusError carries the HTTP status for retry decisions.
type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("%v: %d", ErrUnexpectedStatusCode, e.code)
}

func (e *statusError) Is(target error) bool {
	return target == ErrUnexpectedStatusCode
}

// retryableHTTP retries transport errors, rate limits, and server errors;
// other HTTP statuses fail immediately.
func retryableHTTP(err error) bool {
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
