// Package oddsapi queries the odds provider: event discovery plus
// per-market-group quotes for one event.
package oddsapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/okian/huddle/internal/domain/markets"
	"github.com/okian/huddle/pkg/logger"
	"github.com/okian/huddle/pkg/metrics"
)

const (
	defaultBaseURL = "https://api.the-odds-api.com/v4"
	defaultSport   = "americanfootball_nfl"

	defaultPacing = time.Second
)

// Option applies a configuration option to the Client.
type Option func(*Client)

// WithBaseURL overrides the provider base URL.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.baseURL = u
		}
	}
}

// WithSport sets the provider sport key.
func WithSport(sport string) Option {
	return func(c *Client) {
		if sport != "" {
			c.sport = sport
		}
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithPacing sets the fixed delay inserted before each market-group query.
func WithPacing(d time.Duration) Option {
	return func(c *Client) {
		if d >= 0 {
			c.pacing = d
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(log logger.Logger) Option {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

// Client talks to the odds provider.
type Client struct {
	baseURL string
	sport   string
	apiKey  string
	http    *http.Client
	pacing  time.Duration
	log     logger.Logger
}

// NewClient creates an odds client authenticated with the given key.
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL: defaultBaseURL,
		sport:   defaultSport,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 30 * time.Second},
		pacing:  defaultPacing,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Event is one upcoming event from discovery.
type Event struct {
	ID           string    `json:"id"`
	HomeTeam     string    `json:"home_team"`
	AwayTeam     string    `json:"away_team"`
	CommenceTime time.Time `json:"commence_time"`
}

// Events discovers upcoming events for the sport. The provider signals
// errors (bad key, quota) with a JSON object instead of the expected
// array; that shape violation is a hard ErrMalformedResponse, fatal to
// the odds stage.
func (c *Client) Events(ctx context.Context) ([]Event, error) {
	u := fmt.Sprintf("%s/sports/%s/events?apiKey=%s", c.baseURL, c.sport, url.QueryEscape(c.apiKey))

	// The body is read regardless of status: the provider reports key and
	// quota problems as a JSON object, which the shape check below rejects.
	raw, _, err := c.get(ctx, u)
	if err != nil {
		return nil, err
	}

	trimmed := strings.TrimSpace(string(raw))
	if !strings.HasPrefix(trimmed, "[") {
		return nil, fmt.Errorf("%w: event discovery returned a non-list response", ErrMalformedResponse)
	}

	var events []Event
	if err := json.Unmarshal(raw, &events); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}
	return events, nil
}

// FindEvent returns the first event the named team plays in, home or away.
// Matching is by substring to tolerate provider decorations around the
// name. Nil when the team has no discovered event.
func FindEvent(events []Event, team string) *Event {
	for _, e := range events {
		if strings.Contains(e.HomeTeam, team) || strings.Contains(e.AwayTeam, team) {
			event := e
			return &event
		}
	}
	return nil
}

// EventSource returns a quote source scoped to one discovered event,
// implementing the reconciler's Source contract.
func (c *Client) EventSource(eventID string) markets.Source {
	return &eventSource{client: c, eventID: eventID}
}

type eventSource struct {
	client  *Client
	eventID string
}

// oddsResponse is the per-event odds envelope.
type oddsResponse struct {
	Bookmakers []markets.Bookmaker `json:"bookmakers"`
}

// Quotes fetches one market group's bookmakers, optionally region-scoped.
// A fixed pacing delay runs before every query as rate-limit politeness.
func (s *eventSource) Quotes(ctx context.Context, market string, region markets.Region) ([]markets.Bookmaker, error) {
	if err := s.client.pace(ctx); err != nil {
		return nil, err
	}

	u := fmt.Sprintf("%s/sports/%s/events/%s/odds?apiKey=%s&markets=%s",
		s.client.baseURL, s.client.sport, url.PathEscape(s.eventID),
		url.QueryEscape(s.client.apiKey), url.QueryEscape(market))
	if region != markets.RegionAny {
		u += "&regions=" + url.QueryEscape(string(region))
	}

	raw, status, err := s.client.get(ctx, u)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("%w: unexpected status %d for market %s", ErrFetch, status, market)
	}
	metrics.RecordOddsGroupQuery()

	var resp oddsResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return resp.Bookmakers, nil
}

// pace blocks for the configured delay, honoring cancellation.
func (c *Client) pace(ctx context.Context) error {
	if c.pacing <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(c.pacing):
		return nil
	}
}

// get performs one GET and returns the raw body and status code.
func (c *Client) get(ctx context.Context, u string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrFetch, err)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrFetch, err)
	}
	defer func() { _ = resp.Body.Close() }()
	metrics.RecordFetchLatency("oddsapi", time.Since(start).Seconds())

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("%w: %w", ErrFetch, err)
	}
	return body, resp.StatusCode, nil
}
