// Package espn fetches team schedule, team directory, and injury data.
//
// The injury endpoints are reference-based: the list call returns only
// $ref links, and each injury in turn links to its athlete. The client
// models this as an explicit two-phase fetch (list references, then
// resolve each), with a fixed pacing delay between dependent calls to
// stay polite to the upstream rate limits.
package espn

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/okian/huddle/internal/domain/snapshot"
	"github.com/okian/huddle/pkg/logger"
	"github.com/okian/huddle/pkg/metrics"
)

const (
	defaultSiteURL = "https://site.api.espn.com/apis/site/v2/sports/football/nfl"
	defaultCoreURL = "https://sports.core.api.espn.com/v2/sports/football/leagues/nfl"

	defaultPacing = 100 * time.Millisecond
)

// Option applies a configuration option to the Client.
type Option func(*Client)

// WithSiteURL overrides the site API base URL.
func WithSiteURL(url string) Option {
	return func(c *Client) {
		if url != "" {
			c.siteURL = url
		}
	}
}

// WithCoreURL overrides the core (reference-based) API base URL.
func WithCoreURL(url string) Option {
	return func(c *Client) {
		if url != "" {
			c.coreURL = url
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

// WithPacing sets the delay inserted between dependent reference fetches.
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

// Client talks to the schedule/injury provider.
type Client struct {
	siteURL string
	coreURL string
	http    *http.Client
	pacing  time.Duration
	log     logger.Logger
}

// NewClient creates a schedule/injury client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		siteURL: defaultSiteURL,
		coreURL: defaultCoreURL,
		http:    &http.Client{Timeout: 30 * time.Second},
		pacing:  defaultPacing,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// TeamInfo is one directory entry: abbreviation and logo by team id.
type TeamInfo struct {
	Abbr string
	Logo string
}

// directory response shapes (site API).
type directoryResponse struct {
	Sports []struct {
		Leagues []struct {
			Teams []struct {
				Team struct {
					ID           string `json:"id"`
					Abbreviation string `json:"abbreviation"`
					Logos        []struct {
						Href string `json:"href"`
					} `json:"logos"`
				} `json:"team"`
			} `json:"teams"`
		} `json:"leagues"`
	} `json:"sports"`
}

// TeamDirectory maps team id -> abbreviation and logo for every team in
// the league.
func (c *Client) TeamDirectory(ctx context.Context) (map[string]TeamInfo, error) {
	var resp directoryResponse
	if err := c.getJSON(ctx, c.siteURL+"/teams", &resp); err != nil {
		return nil, err
	}
	dir := make(map[string]TeamInfo)
	for _, sport := range resp.Sports {
		for _, league := range sport.Leagues {
			for _, entry := range league.Teams {
				info := TeamInfo{Abbr: entry.Team.Abbreviation}
				if len(entry.Team.Logos) > 0 {
					info.Logo = entry.Team.Logos[0].Href
				}
				dir[entry.Team.ID] = info
			}
		}
	}
	return dir, nil
}

// schedule response shapes (site API).
type scheduleResponse struct {
	Events []struct {
		Date string `json:"date"`
		Week struct {
			Number int `json:"number"`
		} `json:"week"`
		Competitions []struct {
			Competitors []struct {
				ID   string `json:"id"`
				Team struct {
					DisplayName string `json:"displayName"`
				} `json:"team"`
			} `json:"competitors"`
		} `json:"competitions"`
	} `json:"events"`
}

// Schedule returns the team's season schedule with opponent identity
// resolved through the team directory.
func (c *Client) Schedule(ctx context.Context, teamID string) ([]snapshot.ScheduleGame, error) {
	dir, err := c.TeamDirectory(ctx)
	if err != nil {
		return nil, err
	}

	var resp scheduleResponse
	if err := c.getJSON(ctx, fmt.Sprintf("%s/teams/%s/schedule", c.siteURL, teamID), &resp); err != nil {
		return nil, err
	}

	games := make([]snapshot.ScheduleGame, 0, len(resp.Events))
	for _, event := range resp.Events {
		if len(event.Competitions) == 0 {
			continue
		}
		game := snapshot.ScheduleGame{
			Week:         event.Week.Number,
			Date:         parseEventDate(event.Date),
			OpponentName: "TBD",
		}
		for _, competitor := range event.Competitions[0].Competitors {
			if competitor.ID == teamID {
				continue
			}
			game.OpponentID = competitor.ID
			if competitor.Team.DisplayName != "" {
				game.OpponentName = competitor.Team.DisplayName
			}
			if info, ok := dir[competitor.ID]; ok {
				game.OpponentAbbr = info.Abbr
				game.OpponentLogo = info.Logo
			}
		}
		games = append(games, game)
	}
	return games, nil
}

// reference-based response shapes (core API).
type refList struct {
	Items []struct {
		Ref string `json:"$ref"`
	} `json:"items"`
}

type injuryDetail struct {
	Status       string `json:"status"`
	ShortComment string `json:"shortComment"`
	Athlete      struct {
		Ref string `json:"$ref"`
	} `json:"athlete"`
}

type athleteDetail struct {
	DisplayName string `json:"displayName"`
	Position    struct {
		Abbreviation string `json:"abbreviation"`
	} `json:"position"`
}

// Injuries lists the team's injury report. Phase one lists injury
// references; phase two resolves each injury and its athlete. Individual
// reference failures are logged and skipped so one broken item cannot
// sink the report; a failed list call is a source failure for the caller.
func (c *Client) Injuries(ctx context.Context, teamID string) ([]snapshot.Injury, error) {
	var list refList
	if err := c.getJSON(ctx, fmt.Sprintf("%s/teams/%s/injuries", c.coreURL, teamID), &list); err != nil {
		return nil, err
	}

	injuries := make([]snapshot.Injury, 0, len(list.Items))
	for _, item := range list.Items {
		if err := c.pace(ctx); err != nil {
			return injuries, err
		}

		var detail injuryDetail
		if err := c.getJSON(ctx, item.Ref, &detail); err != nil {
			c.warn(ctx, "skipping unresolvable injury reference", item.Ref, err)
			continue
		}
		if detail.Athlete.Ref == "" {
			continue
		}

		if err := c.pace(ctx); err != nil {
			return injuries, err
		}

		var athlete athleteDetail
		if err := c.getJSON(ctx, detail.Athlete.Ref, &athlete); err != nil {
			c.warn(ctx, "skipping unresolvable athlete reference", detail.Athlete.Ref, err)
			continue
		}
		if athlete.DisplayName == "" {
			continue
		}

		injuries = append(injuries, snapshot.Injury{
			PlayerName: athlete.DisplayName,
			Position:   athlete.Position.Abbreviation,
			Status:     detail.Status,
			Detail:     detail.ShortComment,
		})
	}
	return injuries, nil
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

// getJSON performs one GET and decodes the JSON body.
func (c *Client) getJSON(ctx context.Context, url string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrFetch, err)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrFetch, err)
	}
	defer func() { _ = resp.Body.Close() }()
	metrics.RecordFetchLatency("espn", time.Since(start).Seconds())

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: unexpected status %d from %s", ErrFetch, resp.StatusCode, url)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return nil
}

// parseEventDate handles the provider's minute-precision timestamps as
// well as full RFC3339. Unparseable dates yield the zero time, which the
// schedule model treats as "no date".
func parseEventDate(raw string) time.Time {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04Z07:00"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

func (c *Client) warn(ctx context.Context, msg, ref string, err error) {
	if c.log == nil {
		return
	}
	c.log.Warn(ctx, msg, logger.String("ref", ref), logger.Error(err))
}
