// Package config provides configuration management for the calendar pipelines.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment variables that override file-based configuration. Secrets are
// expected to arrive this way rather than being committed to config files.
const (
	EnvDBURL         = "TC_DB_URL"
	EnvFinnhubAPIKey = "TC_FINNHUB_API_KEY"
	EnvLLMAPIKey     = "TC_LLM_API_KEY"
)

// Configuration validation errors.
var (
	ErrNoSeries                 = errors.New("events: at least one series is required")
	ErrSeriesMissingID          = errors.New("series id is required")
	ErrSeriesMissingName        = errors.New("series name is required")
	ErrSeriesMissingQueries     = errors.New("series needs at least one search query")
	ErrSeriesDuplicateID        = errors.New("duplicate series id")
	ErrNoTickers                = errors.New("earnings: at least one ticker is required")
	ErrInvalidRetention         = errors.New("calendar retention_years must be between 1 and 50")
	ErrMissingRelCalID          = errors.New("calendar relcalid is required")
	ErrMissingCalendarName      = errors.New("calendar name is required")
	ErrMissingICSPath           = errors.New("calendar ics_path is required")
	ErrInvalidDaysWindow        = errors.New("earnings days_ahead/days_past must be between 0 and 365")
	ErrInvalidMaxAttempts       = errors.New("retry.max_attempts must be at least 1")
	ErrInvalidInitialDelay      = errors.New("retry.initial_delay_ms must be non-negative")
	ErrInvalidBackoffMultiplier = errors.New("retry.backoff_multiplier must be >= 1.0")
	ErrInvalidTimeout           = errors.New("retry.timeout_sec must be at least 1")
	ErrInvalidLogLevel          = errors.New("logging.level must be one of: debug, info, warn, error")
	ErrMissingLLMModel          = errors.New("events.llm.model is required")
)

// Config is the root configuration for both calendar pipelines.
type Config struct {
	Storage  StorageConfig  `yaml:"storage"`
	Events   EventsConfig   `yaml:"events"`
	Earnings EarningsConfig `yaml:"earnings"`
	Retry    RetryPolicy    `yaml:"retry"`
	Logging  LoggingConfig  `yaml:"logging"`
	Worker   WorkerConfig   `yaml:"worker"`
}

// StorageConfig locates the SQLite database. DBURL accepts a bare path, a
// file:// URL, or a webdav:// URL wrapping the remote http(s) target.
type StorageConfig struct {
	DBURL string `yaml:"db_url"`
}

// CalendarConfig describes one generated ICS calendar.
type CalendarConfig struct {
	ICSPath        string `yaml:"ics_path"`
	RelCalID       string `yaml:"relcalid"`
	Name           string `yaml:"name"`
	Description    string `yaml:"description"`
	RetentionYears int    `yaml:"retention_years"`
}

// SeriesConfig defines one annual event series to research.
type SeriesConfig struct {
	ID      string   `yaml:"id"`
	Name    string   `yaml:"name"`
	Queries []string `yaml:"queries"`
}

// LLMConfig configures the research agent endpoint.
type LLMConfig struct {
	Endpoint string `yaml:"endpoint"`
	Model    string `yaml:"model"`
	APIKey   string `yaml:"api_key"`
}

// EventsConfig configures the annual-events pipeline.
type EventsConfig struct {
	Calendar CalendarConfig `yaml:"calendar"`
	Series   []SeriesConfig `yaml:"series"`
	LLM      LLMConfig      `yaml:"llm"`
}

// EarningsConfig configures the earnings pipeline.
type EarningsConfig struct {
	Calendar  CalendarConfig `yaml:"calendar"`
	Tickers   []string       `yaml:"tickers"`
	DaysAhead int            `yaml:"days_ahead"`
	DaysPast  int            `yaml:"days_past"`
	APIKey    string         `yaml:"api_key"`
	BaseURL   string         `yaml:"base_url"`
}

// RetryPolicy defines retry behavior for external calls.
type RetryPolicy struct {
	MaxAttempts       int     `yaml:"max_attempts"`
	InitialDelayMs    int     `yaml:"initial_delay_ms"`
	MaxDelayMs        int     `yaml:"max_delay_ms"`
	BackoffMultiplier float64 `yaml:"backoff_multiplier"`
	TimeoutSec        int     `yaml:"timeout_sec"`
}

// LoggingConfig defines logging behavior.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// WorkerConfig defines the daemon schedule (cron expression).
type WorkerConfig struct {
	Schedule string `yaml:"schedule"`
}

// Load reads, defaults, env-overrides, and validates a YAML config file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	cfg.ApplyDefaults()
	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// ApplyDefaults fills zero values with sensible defaults and normalizes
// ticker symbols (uppercase, trimmed, empties dropped).
func (c *Config) ApplyDefaults() {
	if c.Storage.DBURL == "" {
		c.Storage.DBURL = "techcal.db"
	}

	applyCalendarDefaults(&c.Events.Calendar, "events.ics", "tech.calendar.events", "Tech Events Calendar")
	applyCalendarDefaults(&c.Earnings.Calendar, "earnings.ics", "tech.calendar.earnings", "Tech Earnings Calendar")

	if c.Events.LLM.Endpoint == "" {
		c.Events.LLM.Endpoint = "https://api.openai.com/v1/chat/completions"
	}

	if c.Earnings.BaseURL == "" {
		c.Earnings.BaseURL = "https://finnhub.io/api/v1"
	}

	if c.Earnings.DaysAhead == 0 {
		c.Earnings.DaysAhead = 20
	}

	if c.Earnings.DaysPast == 0 {
		c.Earnings.DaysPast = 10
	}

	if c.Retry.MaxAttempts == 0 {
		c.Retry = RetryPolicy{
			MaxAttempts:       3,
			InitialDelayMs:    1000,
			MaxDelayMs:        20000,
			BackoffMultiplier: 2.0,
			TimeoutSec:        60,
		}
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}

	if c.Worker.Schedule == "" {
		c.Worker.Schedule = "0 6 * * *"
	}

	var tickers []string

	for _, t := range c.Earnings.Tickers {
		t = strings.ToUpper(strings.TrimSpace(t))
		if t != "" {
			tickers = append(tickers, t)
		}
	}

	c.Earnings.Tickers = tickers
}

func applyCalendarDefaults(cal *CalendarConfig, icsPath, relcalid, name string) {
	if cal.ICSPath == "" {
		cal.ICSPath = icsPath
	}

	if cal.RelCalID == "" {
		cal.RelCalID = relcalid
	}

	if cal.Name == "" {
		cal.Name = name
	}

	if cal.Description == "" {
		cal.Description = "Generated calendar. Dates may change; verify against official announcements."
	}

	if cal.RetentionYears == 0 {
		cal.RetentionYears = 5
	}
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(EnvDBURL); v != "" {
		c.Storage.DBURL = v
	}

	if v := os.Getenv(EnvFinnhubAPIKey); v != "" {
		c.Earnings.APIKey = v
	}

	if v := os.Getenv(EnvLLMAPIKey); v != "" {
		c.Events.LLM.APIKey = v
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := validateCalendar("events", c.Events.Calendar); err != nil {
		return err
	}

	if err := validateCalendar("earnings", c.Earnings.Calendar); err != nil {
		return err
	}

	if len(c.Events.Series) == 0 {
		return ErrNoSeries
	}

	seen := make(map[string]bool, len(c.Events.Series))

	for i, s := range c.Events.Series {
		if s.ID == "" {
			return fmt.Errorf("%w: series[%d]", ErrSeriesMissingID, i)
		}

		if s.Name == "" {
			return fmt.Errorf("%w: series[%d]", ErrSeriesMissingName, i)
		}

		if len(s.Queries) == 0 {
			return fmt.Errorf("%w: series[%d]", ErrSeriesMissingQueries, i)
		}

		for j, q := range s.Queries {
			if strings.TrimSpace(q) == "" {
				return fmt.Errorf("%w: series[%d] query[%d] is empty", ErrSeriesMissingQueries, i, j)
			}
		}

		if seen[s.ID] {
			return fmt.Errorf("%w: %s", ErrSeriesDuplicateID, s.ID)
		}

		seen[s.ID] = true
	}

	if c.Events.LLM.Model == "" {
		return ErrMissingLLMModel
	}

	if len(c.Earnings.Tickers) == 0 {
		return ErrNoTickers
	}

	if c.Earnings.DaysAhead < 0 || c.Earnings.DaysAhead > 365 || c.Earnings.DaysPast < 0 || c.Earnings.DaysPast > 365 {
		return ErrInvalidDaysWindow
	}

	if c.Retry.MaxAttempts < 1 {
		return ErrInvalidMaxAttempts
	}

	if c.Retry.InitialDelayMs < 0 {
		return ErrInvalidInitialDelay
	}

	if c.Retry.BackoffMultiplier < 1.0 {
		return ErrInvalidBackoffMultiplier
	}

	if c.Retry.TimeoutSec < 1 {
		return ErrInvalidTimeout
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return ErrInvalidLogLevel
	}

	return nil
}

func validateCalendar(section string, cal CalendarConfig) error {
	if cal.ICSPath == "" {
		return fmt.Errorf("%w: %s", ErrMissingICSPath, section)
	}

	if cal.RelCalID == "" {
		return fmt.Errorf("%w: %s", ErrMissingRelCalID, section)
	}

	if cal.Name == "" {
		return fmt.Errorf("%w: %s", ErrMissingCalendarName, section)
	}

	if cal.RetentionYears < 1 || cal.RetentionYears > 50 {
		return fmt.Errorf("%w: %s", ErrInvalidRetention, section)
	}

	return nil
}

// GetRetryDelay calculates exponential backoff delay for attempt number.
func (rp *RetryPolicy) GetRetryDelay(attempt int) time.Duration {
	if attempt <= 1 {
		return 0
	}

	delayMs := float64(rp.InitialDelayMs)
	for i := 1; i < attempt; i++ {
		delayMs *= rp.BackoffMultiplier
	}

	// Cap at max delay
	if int(delayMs) > rp.MaxDelayMs {
		delayMs = float64(rp.MaxDelayMs)
	}

	return time.Duration(int(delayMs)) * time.Millisecond
}

// GetTimeout returns the per-call timeout duration.
func (rp *RetryPolicy) GetTimeout() time.Duration {
	return time.Duration(rp.TimeoutSec) * time.Second
}
