// Package nflverse fetches and decodes season play-by-play feeds published
// as gzip-compressed CSV release assets.
package nflverse

import (
	"compress/gzip"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/okian/huddle/internal/domain/stats"
	"github.com/okian/huddle/pkg/logger"
	"github.com/okian/huddle/pkg/metrics"
)

const defaultBaseURL = "https://github.com/nflverse/nflverse-data/releases/download/pbp"

// Option applies a configuration option to the Client.
type Option func(*Client)

// WithBaseURL overrides the release asset base URL.
func WithBaseURL(url string) Option {
	return func(c *Client) {
		if url != "" {
			c.baseURL = url
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

// WithLogger sets a custom logger.
func WithLogger(log logger.Logger) Option {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

// Client downloads one season's play-by-play records per call. Calls are
// blocking; the caller owns pacing and caching.
type Client struct {
	baseURL string
	http    *http.Client
	log     logger.Logger
}

// NewClient creates a play-by-play client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL: defaultBaseURL,
		http:    &http.Client{Timeout: 2 * time.Minute},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SeasonPlays fetches and decodes the full-season play-by-play file.
// The feed is large; records stream through the CSV reader rather than
// buffering the raw file.
func (c *Client) SeasonPlays(ctx context.Context, season int) ([]stats.PlayRecord, error) {
	url := fmt.Sprintf("%s/play_by_play_%d.csv.gz", c.baseURL, season)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetch, err)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetch, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: unexpected status %d for season %d", ErrFetch, resp.StatusCode, season)
	}

	records, err := decodePlays(resp.Body)
	metrics.RecordFetchLatency("nflverse", time.Since(start).Seconds())
	if err != nil {
		return nil, err
	}
	if c.log != nil {
		c.log.Info(ctx, "season play-by-play loaded",
			logger.Int("season", season),
			logger.Int("plays", len(records)),
		)
	}
	return records, nil
}

// decodePlays gunzips and decodes the CSV stream, mapping columns by header
// name. Missing columns and blank numerics decode as zero values; the feed
// is not validated beyond that.
func decodePlays(r io.Reader) ([]stats.PlayRecord, error) {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	defer func() { _ = gz.Close() }()

	cr := csv.NewReader(gz)
	cr.ReuseRecord = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[name] = i
	}

	field := func(row []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}
	num := func(row []string, name string) float64 {
		v := field(row, name)
		if v == "" || v == "NA" {
			return 0
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0
		}
		return f
	}

	var records []stats.PlayRecord
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrDecode, err)
		}
		records = append(records, stats.PlayRecord{
			GameID:   field(row, "game_id"),
			Week:     int(num(row, "week")),
			HomeTeam: field(row, "home_team"),
			AwayTeam: field(row, "away_team"),
			Posteam:  field(row, "posteam"),
			Defteam:  field(row, "defteam"),

			PasserName:   field(row, "passer_player_name"),
			RusherName:   field(row, "rusher_player_name"),
			ReceiverName: field(row, "receiver_player_name"),

			YardsGained:    num(row, "yards_gained"),
			PassingYards:   num(row, "passing_yards"),
			RushingYards:   num(row, "rushing_yards"),
			ReceivingYards: num(row, "receiving_yards"),
			PassTouchdown:  num(row, "pass_touchdown"),
			RushTouchdown:  num(row, "rush_touchdown"),
			PassAttempt:    num(row, "pass_attempt"),
			RushAttempt:    num(row, "rush_attempt"),
			CompletePass:   num(row, "complete_pass"),
		})
	}
	return records, nil
}
