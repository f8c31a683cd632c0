package smoketest_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/huddle/internal/domain/snapshot"
	"github.com/okian/huddle/internal/domain/stats"
	"github.com/okian/huddle/internal/smoketest"
	"github.com/okian/huddle/pkg/logger"
)

func init() {
	// Initialize logging for tests
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

// healthyDoc builds a snapshot that passes every structural check.
func healthyDoc(runID string) *snapshot.Document {
	return &snapshot.Document{
		RunID:       runID,
		LastUpdated: time.Now(),
		NFLStats: snapshot.TeamStats{
			CurrentSeason: &snapshot.SeasonStats{
				Season: 2025,
				PlayerGameLogs: stats.GameLogs{
					"joshallen": {
						1: {Week: 1, DisplayName: "J.Allen", Stats: map[string]int{"passer_yards": 300}},
					},
				},
			},
		},
		Stages: []snapshot.StageResult{
			{Name: "espn_data", Status: snapshot.StatusOK},
			{Name: "nfl_stats", Status: snapshot.StatusOK},
			{Name: "odds", Status: snapshot.StatusEmpty},
		},
	}
}

// fakeInstance serves the endpoints the smoke test probes. The run id
// advances once a refresh has been requested.
type fakeInstance struct {
	refreshed  atomic.Bool
	noSnapshot bool
}

func (f *fakeInstance) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"status": "ok", "has_run": true})
	})
	mux.HandleFunc("/stats", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"has_run": true, "team": "Buffalo Bills"})
	})
	mux.HandleFunc("/api/dashboard-data", func(w http.ResponseWriter, _ *http.Request) {
		if f.noSnapshot {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		runID := "run-1"
		if f.refreshed.Load() {
			runID = "run-2"
		}
		_ = json.NewEncoder(w).Encode(healthyDoc(runID))
	})
	mux.HandleFunc("/api/refresh", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		f.refreshed.Store(true)
		w.WriteHeader(http.StatusAccepted)
	})
	return mux
}

func TestRun(t *testing.T) {
	Convey("Given a healthy instance with a snapshot", t, func() {
		instance := &fakeInstance{}
		srv := httptest.NewServer(instance.handler())
		defer srv.Close()

		cfg := smoketest.NewConfig()
		cfg.BaseURL = srv.URL

		Convey("When the smoke test runs", func() {
			report, err := smoketest.Run(context.Background(), cfg)

			Convey("Then every check passes", func() {
				So(err, ShouldBeNil)
				So(report.Passed(), ShouldBeTrue)
				So(report.Healthy, ShouldBeTrue)
				So(report.HasSnapshot, ShouldBeTrue)
				So(report.RunID, ShouldEqual, "run-1")
				So(report.Problems, ShouldBeEmpty)
			})
		})

		Convey("When a refresh round trip is requested", func() {
			cfg.Refresh = true
			cfg.PollInterval = 10 * time.Millisecond
			cfg.RefreshTimeout = 2 * time.Second
			report, err := smoketest.Run(context.Background(), cfg)

			Convey("Then a new run lands", func() {
				So(err, ShouldBeNil)
				So(report.Passed(), ShouldBeTrue)
				So(report.RefreshedRun, ShouldEqual, "run-2")
			})
		})
	})

	Convey("Given an instance that has not completed a run yet", t, func() {
		instance := &fakeInstance{noSnapshot: true}
		srv := httptest.NewServer(instance.handler())
		defer srv.Close()

		cfg := smoketest.NewConfig()
		cfg.BaseURL = srv.URL

		Convey("When the smoke test runs", func() {
			report, err := smoketest.Run(context.Background(), cfg)

			Convey("Then the missing snapshot fails the report without an error", func() {
				So(err, ShouldBeNil)
				So(report.Healthy, ShouldBeTrue)
				So(report.HasSnapshot, ShouldBeFalse)
				So(report.Passed(), ShouldBeFalse)
			})
		})
	})

	Convey("Given an unreachable instance", t, func() {
		cfg := smoketest.NewConfig()
		cfg.BaseURL = "http://127.0.0.1:1"
		cfg.Timeout = 500 * time.Millisecond

		Convey("When the smoke test runs", func() {
			report, err := smoketest.Run(context.Background(), cfg)

			Convey("Then the health check reports the failure", func() {
				So(err, ShouldNotBeNil)
				So(report.Healthy, ShouldBeFalse)
			})
		})
	})
}

func TestVerifySnapshot(t *testing.T) {
	Convey("Given a well-formed snapshot", t, func() {
		doc := healthyDoc("run-1")

		Convey("Then no problems are reported", func() {
			So(smoketest.VerifySnapshot(doc), ShouldBeEmpty)
		})
	})

	Convey("Given structural violations", t, func() {
		Convey("A stage with an unknown status is reported", func() {
			doc := healthyDoc("run-1")
			doc.Stages = append(doc.Stages, snapshot.StageResult{Name: "odds", Status: "maybe"})

			problems := smoketest.VerifySnapshot(doc)
			So(problems, ShouldHaveLength, 1)
			So(problems[0], ShouldContainSubstring, "unknown status")
		})

		Convey("A failed stage without an error message is reported", func() {
			doc := healthyDoc("run-1")
			doc.Stages = append(doc.Stages, snapshot.StageResult{Name: "odds", Status: snapshot.StatusFailed})

			problems := smoketest.VerifySnapshot(doc)
			So(problems, ShouldHaveLength, 1)
			So(problems[0], ShouldContainSubstring, "carries no error")
		})

		Convey("A weekly line filed under the wrong week is reported", func() {
			doc := healthyDoc("run-1")
			doc.NFLStats.CurrentSeason.PlayerGameLogs["joshallen"][2] =
				stats.StatLine{Week: 5, DisplayName: "J.Allen"}

			problems := smoketest.VerifySnapshot(doc)
			So(problems, ShouldHaveLength, 1)
			So(problems[0], ShouldContainSubstring, "claims week 5")
		})

		Convey("A line without a display name is reported", func() {
			doc := healthyDoc("run-1")
			doc.NFLStats.CurrentSeason.PlayerGameLogs["joshallen"][1] = stats.StatLine{Week: 1}

			problems := smoketest.VerifySnapshot(doc)
			So(problems, ShouldHaveLength, 1)
			So(problems[0], ShouldContainSubstring, "no display name")
		})

		Convey("A snapshot with no run id and no stages collects every miss", func() {
			doc := &snapshot.Document{LastUpdated: time.Now()}

			problems := smoketest.VerifySnapshot(doc)
			So(problems, ShouldContain, "snapshot has no run id")
			So(problems, ShouldContain, "snapshot reports no stages")
		})
	})
}
