// Package snapshot defines the assembled output document and the per-stage
// result type the pipeline reports instead of a global success flag.
package snapshot

import (
	"sort"
	"time"

	"github.com/okian/huddle/internal/domain/markets"
	"github.com/okian/huddle/internal/domain/rankings"
	"github.com/okian/huddle/internal/domain/stats"
)

// Status classifies a stage outcome.
type Status string

const (
	// StatusOK means the stage produced data.
	StatusOK Status = "ok"
	// StatusEmpty means the stage ran but legitimately had nothing to
	// produce (bye week, no upcoming event, no API key).
	StatusEmpty Status = "empty"
	// StatusFailed means the stage hit a source failure and its fragment
	// is absent from the document.
	StatusFailed Status = "failed"
)

// StageResult reports one stage's outcome in the document.
type StageResult struct {
	Name   string `json:"name"`
	Status Status `json:"status"`
	Error  string `json:"error,omitempty"`
}

// ScheduleGame is one entry of the team's season schedule.
type ScheduleGame struct {
	Week         int       `json:"week"`
	Date         time.Time `json:"date"`
	OpponentName string    `json:"opponent_name"`
	OpponentID   string    `json:"opponent_id,omitempty"`
	OpponentAbbr string    `json:"opponent_abbr,omitempty"`
	OpponentLogo string    `json:"opponent_logo,omitempty"`
}

// Injury is one player's injury report line.
type Injury struct {
	PlayerName string `json:"player_name"`
	Position   string `json:"position,omitempty"`
	Status     string `json:"status,omitempty"`
	Detail     string `json:"detail,omitempty"`
}

// TeamContext bundles the schedule and injury data fetched for the team.
type TeamContext struct {
	Schedule         []ScheduleGame `json:"schedule"`
	Injuries         []Injury       `json:"injuries"`
	OpponentInjuries []Injury       `json:"opponent_injuries"`
}

// NextGame returns the earliest scheduled game after now, or nil when the
// schedule holds no future game.
func (c *TeamContext) NextGame(now time.Time) *ScheduleGame {
	var future []ScheduleGame
	for _, g := range c.Schedule {
		if !g.Date.IsZero() && g.Date.After(now) {
			future = append(future, g)
		}
	}
	if len(future) == 0 {
		return nil
	}
	sort.Slice(future, func(i, j int) bool { return future[i].Date.Before(future[j].Date) })
	next := future[0]
	return &next
}

// SeasonStats is one season's aggregated player game logs.
type SeasonStats struct {
	Season         int           `json:"season"`
	PlayerGameLogs stats.GameLogs `json:"player_game_logs"`
}

// TeamStats pairs the current and previous season for one team. A nil
// season marks a failed fetch, distinct from an empty-but-valid season.
type TeamStats struct {
	CurrentSeason  *SeasonStats `json:"current_season"`
	PreviousSeason *SeasonStats `json:"previous_season"`
}

// Document is the single output of one pipeline run. Every field is owned
// by the run that produced it; nothing survives across runs.
type Document struct {
	RunID       string    `json:"run_id"`
	LastUpdated time.Time `json:"last_updated"`

	ESPN             *TeamContext `json:"espn_data"`
	NFLStats         TeamStats    `json:"nfl_stats"`
	OpponentNFLStats TeamStats    `json:"opponent_nfl_stats"`

	Odds *markets.QuoteSet `json:"odds"`

	TeamRankings        map[string]rankings.TeamSeasonAverage `json:"team_rankings"`
	CurrentTeamRankings map[string]rankings.TeamSeasonAverage `json:"current_team_rankings"`

	Stages []StageResult `json:"stages"`
}

// Succeeded reports whether no stage failed. Empty stages do not count
// against success.
func (d *Document) Succeeded() bool {
	for _, s := range d.Stages {
		if s.Status == StatusFailed {
			return false
		}
	}
	return true
}
