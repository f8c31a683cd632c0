// Package service runs the data pipeline: it pulls play-by-play, schedule,
// injury, and betting data from the upstream sources, reconciles them into
// one snapshot document, and serves run state to the HTTP API.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/huddle/internal/domain/identity"
	"github.com/okian/huddle/internal/domain/markets"
	"github.com/okian/huddle/internal/domain/rankings"
	"github.com/okian/huddle/internal/domain/snapshot"
	"github.com/okian/huddle/internal/domain/stats"
	"github.com/okian/huddle/internal/sources/nflverse"
	"github.com/okian/huddle/internal/sources/oddsapi"
	"github.com/okian/huddle/pkg/logger"
	"github.com/okian/huddle/pkg/metrics"
)

// Stage names as they appear in the snapshot document.
const (
	StageESPN          = "espn_data"
	StageTeamStats     = "nfl_stats"
	StageOpponentStats = "opponent_nfl_stats"
	StageRankings      = "team_rankings"
	StageOdds          = "odds"
)

// PlayFeed supplies a season's play-by-play records.
type PlayFeed interface {
	SeasonPlays(ctx context.Context, season int) ([]stats.PlayRecord, error)
}

// ScheduleSource supplies the team schedule and injury reports.
type ScheduleSource interface {
	Schedule(ctx context.Context, teamID string) ([]snapshot.ScheduleGame, error)
	Injuries(ctx context.Context, teamID string) ([]snapshot.Injury, error)
}

// OddsFeed discovers betting events and opens per-event quote sources.
type OddsFeed interface {
	Events(ctx context.Context) ([]oddsapi.Event, error)
	EventSource(eventID string) markets.Source
}

// Service owns one team's pipeline. Run executes the stages sequentially
// and keeps the latest document in memory for the API.
type Service struct {
	mu      sync.RWMutex
	lastRun *snapshot.Document

	plays    PlayFeed
	schedule ScheduleSource
	odds     OddsFeed

	teamID   string
	teamAbbr string
	teamName string

	snapshotPath string
	marketGroups []string
	aliases      map[string]string

	norm       *identity.Normalizer
	aggregator *stats.Aggregator
	reconciler *markets.Reconciler

	now func() time.Time
	log logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithPlayFeed sets the play-by-play source.
func WithPlayFeed(feed PlayFeed) Option {
	return func(s *Service) {
		if feed != nil {
			s.plays = feed
		}
	}
}

// WithScheduleSource sets the schedule and injury source.
func WithScheduleSource(src ScheduleSource) Option {
	return func(s *Service) {
		if src != nil {
			s.schedule = src
		}
	}
}

// WithOddsFeed sets the betting-quote source. Leaving it nil disables the
// odds stage; the stage reports empty rather than failing.
func WithOddsFeed(feed OddsFeed) Option {
	return func(s *Service) {
		s.odds = feed
	}
}

// WithTeam sets the subject team's provider id, play-feed code, and full name.
func WithTeam(id, abbr, name string) Option {
	return func(s *Service) {
		if id != "" {
			s.teamID = id
		}
		if abbr != "" {
			s.teamAbbr = abbr
		}
		if name != "" {
			s.teamName = name
		}
	}
}

// WithSnapshotPath sets where the assembled document is written.
func WithSnapshotPath(path string) Option {
	return func(s *Service) {
		if path != "" {
			s.snapshotPath = path
		}
	}
}

// WithMarketGroups sets the betting market groups queried per event.
func WithMarketGroups(groups []string) Option {
	return func(s *Service) {
		if len(groups) > 0 {
			s.marketGroups = groups
		}
	}
}

// WithAliases extends the built-in player alias table.
func WithAliases(aliases map[string]string) Option {
	return func(s *Service) {
		if len(aliases) > 0 {
			s.aliases = aliases
		}
	}
}

// WithClock sets the time source, used by tests to pin the season.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(log logger.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// New constructs a Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		teamID:       "2",
		teamAbbr:     "BUF",
		teamName:     "Buffalo Bills",
		snapshotPath: "public/dashboard_data.json",
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = logger.Get()
	}

	s.norm = identity.New(identity.WithAliases(s.aliases))
	s.aggregator = stats.NewAggregator(s.norm)
	s.reconciler = markets.NewReconciler(s.norm, markets.WithLogger(s.log))
	return s
}

// Run executes one pipeline pass and writes the snapshot. The run is
// best-effort: a failed stage leaves its fragment absent and is reported
// in the document's stage list, never aborting the other stages. The
// returned error covers only snapshot persistence and cancellation.
func (s *Service) Run(ctx context.Context) (*snapshot.Document, error) {
	started := s.now()
	doc := &snapshot.Document{
		RunID:       uuid.NewString(),
		LastUpdated: started.UTC(),
	}
	s.log.Info(ctx, "pipeline run starting",
		logger.String("run_id", doc.RunID),
		logger.String("team", s.teamAbbr))

	run := &runState{plays: make(map[int]seasonPlays)}
	currentSeason, previousSeason := nflverse.Seasons(started)

	s.runESPNStage(ctx, doc)
	s.runTeamStatsStage(ctx, doc, run, currentSeason, previousSeason)
	s.runOpponentStatsStage(ctx, doc, run, currentSeason, previousSeason)
	s.runRankingsStage(ctx, doc, run, currentSeason, previousSeason)
	s.runOddsStage(ctx, doc)

	if err := ctx.Err(); err != nil {
		return doc, err
	}
	if err := s.writeSnapshot(doc); err != nil {
		return doc, err
	}

	s.mu.Lock()
	s.lastRun = doc
	s.mu.Unlock()

	if doc.Succeeded() {
		s.log.Info(ctx, "pipeline run succeeded",
			logger.String("run_id", doc.RunID),
			logger.Duration("elapsed", s.now().Sub(started)))
	} else {
		s.log.Warn(ctx, "pipeline run finished with failed stages",
			logger.String("run_id", doc.RunID),
			logger.Duration("elapsed", s.now().Sub(started)))
	}
	return doc, nil
}

// runState caches per-run fetch results so each season's play-by-play is
// downloaded at most once and shared by every stage that needs it.
type runState struct {
	plays map[int]seasonPlays
}

type seasonPlays struct {
	records []stats.PlayRecord
	err     error
}

// playsForSeason fetches one season's plays through the per-run cache.
func (s *Service) playsForSeason(ctx context.Context, run *runState, season int) ([]stats.PlayRecord, error) {
	if cached, ok := run.plays[season]; ok {
		return cached.records, cached.err
	}
	records, err := s.plays.SeasonPlays(ctx, season)
	run.plays[season] = seasonPlays{records: records, err: err}
	return records, err
}

// runESPNStage fetches the schedule, the team's injuries, and the next
// opponent's injuries.
func (s *Service) runESPNStage(ctx context.Context, doc *snapshot.Document) {
	schedule, err := s.schedule.Schedule(ctx, s.teamID)
	if err != nil {
		s.failStage(ctx, doc, StageESPN, err)
		return
	}

	teamCtx := &snapshot.TeamContext{Schedule: schedule}

	if injuries, err := s.schedule.Injuries(ctx, s.teamID); err != nil {
		s.log.Warn(ctx, "team injury report unavailable", logger.Error(err))
	} else {
		teamCtx.Injuries = injuries
	}

	if next := teamCtx.NextGame(s.now()); next != nil && next.OpponentID != "" {
		if injuries, err := s.schedule.Injuries(ctx, next.OpponentID); err != nil {
			s.log.Warn(ctx, "opponent injury report unavailable",
				logger.String("opponent", next.OpponentName),
				logger.Error(err))
		} else {
			teamCtx.OpponentInjuries = injuries
		}
	}

	doc.ESPN = teamCtx
	s.recordStage(doc, StageESPN, snapshot.StatusOK, nil)
}

// runTeamStatsStage aggregates the team's current- and previous-season logs.
func (s *Service) runTeamStatsStage(ctx context.Context, doc *snapshot.Document, run *runState, current, previous int) {
	teamStats, err := s.seasonStats(ctx, run, s.teamAbbr, current, previous)
	doc.NFLStats = teamStats
	if err != nil {
		s.failStage(ctx, doc, StageTeamStats, err)
		return
	}
	status := snapshot.StatusOK
	if emptyStats(teamStats) {
		status = snapshot.StatusEmpty
	}
	s.recordStage(doc, StageTeamStats, status, nil)
}

// runOpponentStatsStage aggregates the next opponent's logs. Without a
// resolved next opponent the stage is empty, not failed.
func (s *Service) runOpponentStatsStage(ctx context.Context, doc *snapshot.Document, run *runState, current, previous int) {
	opponent := s.nextOpponentAbbr(doc)
	if opponent == "" {
		s.recordStage(doc, StageOpponentStats, snapshot.StatusEmpty, nil)
		return
	}

	oppStats, err := s.seasonStats(ctx, run, opponent, current, previous)
	doc.OpponentNFLStats = oppStats
	if err != nil {
		s.failStage(ctx, doc, StageOpponentStats, err)
		return
	}
	status := snapshot.StatusOK
	if emptyStats(oppStats) {
		status = snapshot.StatusEmpty
	}
	s.recordStage(doc, StageOpponentStats, status, nil)
}

// seasonStats builds the two-season stat pair for one team. A season whose
// fetch fails stays nil; the error of either season fails the stage.
func (s *Service) seasonStats(ctx context.Context, run *runState, team string, current, previous int) (snapshot.TeamStats, error) {
	var out snapshot.TeamStats
	var firstErr error

	for _, season := range []int{current, previous} {
		records, err := s.playsForSeason(ctx, run, season)
		if err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("season %d: %w", season, err)
			}
			continue
		}
		seasonStats := &snapshot.SeasonStats{
			Season:         season,
			PlayerGameLogs: s.aggregator.Aggregate(records, team),
		}
		if season == current {
			out.CurrentSeason = seasonStats
		} else {
			out.PreviousSeason = seasonStats
		}
	}
	return out, firstErr
}

// runRankingsStage ranks every team's season averages: the completed
// previous season and the in-progress current season.
func (s *Service) runRankingsStage(ctx context.Context, doc *snapshot.Document, run *runState, current, previous int) {
	previousPlays, prevErr := s.playsForSeason(ctx, run, previous)
	currentPlays, curErr := s.playsForSeason(ctx, run, current)
	if prevErr != nil && curErr != nil {
		s.failStage(ctx, doc, StageRankings, prevErr)
		return
	}

	if prevErr == nil {
		doc.TeamRankings = rankings.Rank(previousPlays)
	}
	if curErr == nil {
		doc.CurrentTeamRankings = rankings.Rank(currentPlays)
	}
	s.recordStage(doc, StageRankings, snapshot.StatusOK, nil)
}

// runOddsStage discovers the team's next betting event and reconciles its
// market groups. No configured feed or no discovered event is an empty
// stage; a broken discovery response is a failed one.
func (s *Service) runOddsStage(ctx context.Context, doc *snapshot.Document) {
	if s.odds == nil {
		s.recordStage(doc, StageOdds, snapshot.StatusEmpty, nil)
		return
	}

	events, err := s.odds.Events(ctx)
	if err != nil {
		s.failStage(ctx, doc, StageOdds, err)
		return
	}
	event := oddsapi.FindEvent(events, s.teamName)
	if event == nil {
		s.log.Info(ctx, "no upcoming betting event for team",
			logger.String("team", s.teamName))
		s.recordStage(doc, StageOdds, snapshot.StatusEmpty, nil)
		return
	}

	set := s.reconciler.Reconcile(ctx, s.marketGroups, s.odds.EventSource(event.ID))
	doc.Odds = &set
	status := snapshot.StatusOK
	if set.Empty() {
		status = snapshot.StatusEmpty
	}
	s.recordStage(doc, StageOdds, status, nil)
}

// nextOpponentAbbr resolves the next opponent's play-feed code from the
// already-fetched schedule.
func (s *Service) nextOpponentAbbr(doc *snapshot.Document) string {
	if doc.ESPN == nil {
		return ""
	}
	next := doc.ESPN.NextGame(s.now())
	if next == nil {
		return ""
	}
	return next.OpponentAbbr
}

// writeSnapshot persists the document atomically enough for a static file
// server: write to a temp file in the target directory, then rename.
func (s *Service) writeSnapshot(doc *snapshot.Document) error {
	dir := filepath.Dir(s.snapshotPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: %w", ErrSnapshotWrite, err)
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSnapshotWrite, err)
	}

	tmp, err := os.CreateTemp(dir, ".snapshot-*.json")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSnapshotWrite, err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("%w: %w", ErrSnapshotWrite, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("%w: %w", ErrSnapshotWrite, err)
	}
	if err := os.Rename(tmp.Name(), s.snapshotPath); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("%w: %w", ErrSnapshotWrite, err)
	}

	metrics.RecordSnapshotWrite(float64(doc.LastUpdated.Unix()))
	return nil
}

// recordStage appends a stage result to the document and the metrics.
func (s *Service) recordStage(doc *snapshot.Document, name string, status snapshot.Status, err error) {
	result := snapshot.StageResult{Name: name, Status: status}
	if err != nil {
		result.Error = err.Error()
	}
	doc.Stages = append(doc.Stages, result)
	metrics.RecordStageResult(name, string(status))
}

func (s *Service) failStage(ctx context.Context, doc *snapshot.Document, name string, err error) {
	s.log.Error(ctx, "pipeline stage failed",
		logger.String("stage", name),
		logger.Error(err))
	s.recordStage(doc, name, snapshot.StatusFailed, err)
}

// emptyStats reports whether neither season produced any player logs.
func emptyStats(ts snapshot.TeamStats) bool {
	return (ts.CurrentSeason == nil || len(ts.CurrentSeason.PlayerGameLogs) == 0) &&
		(ts.PreviousSeason == nil || len(ts.PreviousSeason.PlayerGameLogs) == 0)
}

// LastRun returns the most recent successfully persisted document, nil
// before the first run completes.
func (s *Service) LastRun() *snapshot.Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastRun
}

// GetStats returns run state for the monitoring endpoint.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := map[string]interface{}{
		"team":          s.teamAbbr,
		"snapshot_path": s.snapshotPath,
		"has_run":       s.lastRun != nil,
	}
	if s.lastRun != nil {
		out["run_id"] = s.lastRun.RunID
		out["last_updated"] = s.lastRun.LastUpdated
		out["succeeded"] = s.lastRun.Succeeded()

		stages := make(map[string]string, len(s.lastRun.Stages))
		for _, stage := range s.lastRun.Stages {
			stages[stage.Name] = string(stage.Status)
		}
		out["stages"] = stages
	}
	return out
}
