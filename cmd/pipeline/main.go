// Command pipeline runs one snapshot refresh and exits. It exists for
// scheduled refreshes (cron, CI) where no HTTP server is wanted.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	app "github.com/okian/huddle/internal/app"
	"github.com/okian/huddle/internal/config"
	"github.com/okian/huddle/internal/sources/espn"
	"github.com/okian/huddle/internal/sources/nflverse"
	"github.com/okian/huddle/internal/sources/oddsapi"
	"github.com/okian/huddle/pkg/logger"
)

func main() {
	_ = godotenv.Load()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	log := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		_ = logger.SetLevelString("info")
	}

	timeout := time.Duration(cfg.RequestTimeoutMS) * time.Millisecond
	httpClient := &http.Client{Timeout: timeout}

	opts := []app.Option{
		app.WithLogger(log.Named("pipeline")),
		app.WithPlayFeed(nflverse.NewClient(
			nflverse.WithHTTPClient(httpClient),
			nflverse.WithLogger(log.Named("nflverse")),
		)),
		app.WithScheduleSource(espn.NewClient(
			espn.WithHTTPClient(httpClient),
			espn.WithPacing(time.Duration(cfg.RefPacingMS)*time.Millisecond),
			espn.WithLogger(log.Named("espn")),
		)),
		app.WithTeam(cfg.TeamID, cfg.TeamAbbr, cfg.TeamName),
		app.WithSnapshotPath(cfg.SnapshotPath),
		app.WithMarketGroups(cfg.MarketGroups),
		app.WithAliases(cfg.PlayerAliases),
	}
	if cfg.OddsAPIKey != "" {
		opts = append(opts, app.WithOddsFeed(oddsapi.NewClient(cfg.OddsAPIKey,
			oddsapi.WithHTTPClient(httpClient),
			oddsapi.WithPacing(time.Duration(cfg.OddsPacingMS)*time.Millisecond),
			oddsapi.WithLogger(log.Named("oddsapi")),
		)))
	}

	doc, err := app.New(opts...).Run(ctx)
	if err != nil {
		log.Error(ctx, "pipeline run failed", logger.Error(err))
		os.Exit(1)
	}
	if !doc.Succeeded() {
		// Partial data still ships; the exit code flags it for the scheduler.
		os.Exit(2)
	}
}
