package smoketest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/okian/huddle/internal/domain/snapshot"
	"github.com/okian/huddle/pkg/logger"
)

// Report summarizes one smoke test run.
type Report struct {
	Healthy      bool
	HasSnapshot  bool
	RunID        string
	Problems     []string
	RefreshedRun string
	Elapsed      time.Duration
}

// Passed reports whether every check succeeded.
func (r *Report) Passed() bool {
	return r.Healthy && r.HasSnapshot && len(r.Problems) == 0
}

// Run executes the smoke test against a live instance.
func Run(ctx context.Context, cfg *Config) (*Report, error) {
	start := time.Now()
	log := logger.Get().Named("smoketest")
	client := &http.Client{Timeout: cfg.Timeout}
	report := &Report{}

	log.Info(ctx, "starting smoke test", logger.String("base_url", cfg.BaseURL))

	// Step 1: health.
	if err := checkHealth(ctx, client, cfg.BaseURL); err != nil {
		return report, fmt.Errorf("health check failed: %w", err)
	}
	report.Healthy = true

	// Step 2: stats must parse as a JSON object.
	if err := checkStats(ctx, client, cfg.BaseURL); err != nil {
		report.Problems = append(report.Problems, err.Error())
	}

	// Step 3: snapshot document.
	doc, err := fetchSnapshot(ctx, client, cfg.BaseURL)
	if err != nil {
		report.Problems = append(report.Problems, err.Error())
	} else if doc != nil {
		report.HasSnapshot = true
		report.RunID = doc.RunID
		report.Problems = append(report.Problems, VerifySnapshot(doc)...)
	}

	// Step 4: optional refresh round trip.
	if cfg.Refresh && doc != nil {
		refreshed, err := refreshAndWait(ctx, client, cfg, doc.RunID)
		if err != nil {
			report.Problems = append(report.Problems, err.Error())
		} else {
			report.RefreshedRun = refreshed
		}
	}

	report.Elapsed = time.Since(start)
	if report.Passed() {
		log.Info(ctx, "smoke test passed",
			logger.String("run_id", report.RunID),
			logger.Duration("elapsed", report.Elapsed))
	} else {
		log.Warn(ctx, "smoke test found problems",
			logger.Int("problems", len(report.Problems)),
			logger.String("detail", strings.Join(report.Problems, "; ")))
	}
	return report, nil
}

func checkHealth(ctx context.Context, client *http.Client, baseURL string) error {
	var body struct {
		Status string `json:"status"`
	}
	if err := getJSON(ctx, client, baseURL+"/healthz", &body); err != nil {
		return err
	}
	if body.Status != "ok" {
		return fmt.Errorf("unexpected health status %q", body.Status)
	}
	return nil
}

func checkStats(ctx context.Context, client *http.Client, baseURL string) error {
	var body map[string]any
	if err := getJSON(ctx, client, baseURL+"/stats", &body); err != nil {
		return fmt.Errorf("stats endpoint: %w", err)
	}
	if _, ok := body["has_run"]; !ok {
		return fmt.Errorf("stats endpoint: missing has_run field")
	}
	return nil
}

// fetchSnapshot returns nil without error when no run has completed yet.
func fetchSnapshot(ctx context.Context, client *http.Client, baseURL string) (*snapshot.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/api/dashboard-data", nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("snapshot endpoint: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("snapshot endpoint: unexpected status %d", resp.StatusCode)
	}

	var doc snapshot.Document
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("snapshot endpoint: %w", err)
	}
	return &doc, nil
}

// refreshAndWait requests a refresh and polls until a different run lands.
func refreshAndWait(ctx context.Context, client *http.Client, cfg *Config, previousRun string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.BaseURL+"/api/refresh", nil)
	if err != nil {
		return "", err
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("refresh request: %w", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted && resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("refresh request: unexpected status %d", resp.StatusCode)
	}

	deadline := time.Now().Add(cfg.RefreshTimeout)
	for time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(cfg.PollInterval):
		}
		doc, err := fetchSnapshot(ctx, client, cfg.BaseURL)
		if err != nil || doc == nil {
			continue
		}
		if doc.RunID != previousRun {
			return doc.RunID, nil
		}
	}
	return "", fmt.Errorf("refresh did not produce a new run within %s", cfg.RefreshTimeout)
}

func getJSON(ctx context.Context, client *http.Client, url string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d from %s", resp.StatusCode, url)
	}
	return json.NewDecoder(resp.Body).Decode(v)
}
