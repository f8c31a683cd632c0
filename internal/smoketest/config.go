// Package smoketest checks a running huddle instance end to end: health,
// stats, the snapshot document, and optionally a refresh round trip.
package smoketest

import (
	"time"
)

// Default configuration constants.
const (
	defaultBaseURL        = "http://localhost:5001"
	defaultTimeout        = 10 * time.Second
	defaultRefreshTimeout = 5 * time.Minute
	defaultPollInterval   = 5 * time.Second
)

// Config controls one smoke test run.
type Config struct {
	// BaseURL of the instance under test.
	BaseURL string

	// Timeout bounds each individual HTTP call.
	Timeout time.Duration

	// Refresh triggers an on-demand refresh and waits for a new run to land.
	Refresh bool

	// RefreshTimeout bounds the wait for the refreshed snapshot.
	RefreshTimeout time.Duration

	// PollInterval is how often the snapshot is re-read while waiting.
	PollInterval time.Duration
}

// NewConfig creates a Config with defaults.
func NewConfig() *Config {
	return &Config{
		BaseURL:        defaultBaseURL,
		Timeout:        defaultTimeout,
		RefreshTimeout: defaultRefreshTimeout,
		PollInterval:   defaultPollInterval,
	}
}
