// Command smoke probes a running huddle instance: health, stats, the
// snapshot document, and optionally a full refresh round trip. It is
// meant for post-deploy verification.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/okian/huddle/internal/smoketest"
	"github.com/okian/huddle/pkg/logger"
)

func main() {
	_ = godotenv.Load()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	log := logger.Get()

	cfg := smoketest.NewConfig()
	flag.StringVar(&cfg.BaseURL, "url", cfg.BaseURL, "base URL of the instance under test")
	flag.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "per-request timeout")
	flag.BoolVar(&cfg.Refresh, "refresh", cfg.Refresh, "trigger a refresh and wait for a new run")
	flag.DurationVar(&cfg.RefreshTimeout, "refresh-timeout", cfg.RefreshTimeout, "how long to wait for the refreshed snapshot")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	report, err := smoketest.Run(ctx, cfg)
	if err != nil {
		log.Error(ctx, "smoke test aborted", logger.Error(err))
		os.Exit(1)
	}
	for _, problem := range report.Problems {
		log.Warn(ctx, "smoke test problem", logger.String("problem", problem))
	}
	if !report.Passed() {
		os.Exit(1)
	}
	log.Info(ctx, "smoke test passed",
		logger.String("run_id", report.RunID),
		logger.Duration("elapsed", report.Elapsed))
}
