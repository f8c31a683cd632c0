package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/okian/huddle/internal/adapters/http/api"
	"github.com/okian/huddle/internal/adapters/http/site"
	"github.com/okian/huddle/internal/adapters/http/swagger"
	"github.com/okian/huddle/internal/adapters/mq/queue"
	"github.com/okian/huddle/internal/adapters/mq/worker"
	app "github.com/okian/huddle/internal/app"
	"github.com/okian/huddle/internal/config"
	"github.com/okian/huddle/internal/insights"
	"github.com/okian/huddle/internal/sources/espn"
	"github.com/okian/huddle/internal/sources/nflverse"
	"github.com/okian/huddle/internal/sources/oddsapi"
	"github.com/okian/huddle/pkg/logger"
	"github.com/okian/huddle/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 120 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
)

func main() {
	// Local development keeps keys in a .env file; absence is fine.
	_ = godotenv.Load()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	log := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env).
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info",
			logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	svc, proxy := buildService(cfg, log)

	// Pipeline runs go through the refresh queue so they never overlap:
	// the startup refresh, the API's on-demand refreshes, everything.
	refreshQueue := queue.NewRefreshQueue()
	refreshWorker := worker.NewRefreshWorker(refreshQueue, svc,
		worker.WithLogger(log.Named("refresh")))
	refreshWorker.Start(ctx)
	refreshQueue.Enqueue(ctx, queue.Request{Reason: "startup", RequestedAt: time.Now()})

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}))
	swagger.Register(ctx, mux)

	var forwarder api.InsightsForwarder
	if proxy != nil {
		forwarder = proxy
	}

	// A deployed public/ directory next to the snapshot wins the root
	// path; without one the embedded fallback page serves the dashboard.
	serverOpts := []api.ServerOption{api.WithRefresher(refreshQueue)}
	publicDir := filepath.Dir(cfg.SnapshotPath)
	if _, err := os.Stat(filepath.Join(publicDir, "index.html")); err == nil {
		serverOpts = append(serverOpts, api.WithPublicDir(publicDir))
	} else {
		site.Register(ctx, mux)
	}

	apiServer := api.NewServer(svc, forwarder, serverOpts...)
	apiServer.Register(ctx, mux)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			os.Stderr.WriteString("HTTP server failed: " + err.Error() + "\n")
		}
	}()

	<-ctx.Done()
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}
	_ = refreshQueue.Close()
	if err := refreshWorker.Shutdown(shutdownCtx); err != nil {
		log.Warn(ctx, "refresh worker shutdown incomplete", logger.Error(err))
	}
	log.Info(ctx, "server stopped")
}

// buildService wires the pipeline service and the insights proxy from
// configuration. The proxy is nil without a key; the API reports that as
// a configuration error instead of leaking requests upstream.
func buildService(cfg *config.Config, log logger.Logger) (*app.Service, *insights.Proxy) {
	timeout := time.Duration(cfg.RequestTimeoutMS) * time.Millisecond
	httpClient := &http.Client{Timeout: timeout}

	playFeed := nflverse.NewClient(
		nflverse.WithHTTPClient(httpClient),
		nflverse.WithLogger(log.Named("nflverse")),
	)
	scheduleSource := espn.NewClient(
		espn.WithHTTPClient(httpClient),
		espn.WithPacing(time.Duration(cfg.RefPacingMS)*time.Millisecond),
		espn.WithLogger(log.Named("espn")),
	)

	opts := []app.Option{
		app.WithLogger(log.Named("pipeline")),
		app.WithPlayFeed(playFeed),
		app.WithScheduleSource(scheduleSource),
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

	var proxy *insights.Proxy
	if cfg.GeminiAPIKey != "" {
		proxy = insights.NewProxy(cfg.GeminiAPIKey,
			insights.WithMaxAttempts(cfg.ProxyMaxAttempts),
			insights.WithBackoff(time.Duration(cfg.ProxyBackoffMS)*time.Millisecond),
			insights.WithLogger(log.Named("insights")),
		)
	}

	return app.New(opts...), proxy
}
