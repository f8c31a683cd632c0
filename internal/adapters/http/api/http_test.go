package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/okian/huddle/internal/adapters/http/api"
	"github.com/okian/huddle/internal/adapters/mq/queue"
	"github.com/okian/huddle/internal/domain/snapshot"
	"github.com/okian/huddle/internal/insights"
	. "github.com/smartystreets/goconvey/convey"
)

type mockDependencies struct {
	doc   *snapshot.Document
	stats map[string]interface{}
}

func (m *mockDependencies) LastRun() *snapshot.Document { return m.doc }

func (m *mockDependencies) GetStats() map[string]interface{} { return m.stats }

type mockForwarder struct {
	result insights.Result
	err    error
	bodies []string
}

func (m *mockForwarder) Forward(_ context.Context, body []byte) (insights.Result, error) {
	m.bodies = append(m.bodies, string(body))
	if m.err != nil {
		return insights.Result{}, m.err
	}
	return m.result, nil
}

type mockRefresher struct {
	outcome queue.Outcome
	reasons []string
}

func (m *mockRefresher) Enqueue(_ context.Context, req queue.Request) queue.Outcome {
	m.reasons = append(m.reasons, req.Reason)
	return m.outcome
}

func newMux(deps api.Dependencies, forwarder api.InsightsForwarder, opts ...api.ServerOption) *http.ServeMux {
	mux := http.NewServeMux()
	api.NewServer(deps, forwarder, opts...).Register(context.Background(), mux)
	return mux
}

func TestHealthAndStats(t *testing.T) {
	Convey("Given a server with a completed run", t, func() {
		deps := &mockDependencies{
			doc:   &snapshot.Document{RunID: "run-1"},
			stats: map[string]interface{}{"team": "BUF", "has_run": true},
		}
		mux := newMux(deps, nil)

		Convey("When probing health", func() {
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

			Convey("Then it reports ok with a run present", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, `"status":"ok"`)
				So(w.Body.String(), ShouldContainSubstring, `"has_run":true`)
			})
		})

		Convey("When reading stats", func() {
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/stats", nil))

			Convey("Then the provider's view is returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var got map[string]interface{}
				So(json.Unmarshal(w.Body.Bytes(), &got), ShouldBeNil)
				So(got["team"], ShouldEqual, "BUF")
			})
		})
	})
}

func TestSnapshotEndpoint(t *testing.T) {
	Convey("Given a server with a completed run", t, func() {
		deps := &mockDependencies{doc: &snapshot.Document{RunID: "run-1"}}
		mux := newMux(deps, nil)

		Convey("When fetching the dashboard data", func() {
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/dashboard-data", nil))

			Convey("Then the document is served", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var got snapshot.Document
				So(json.Unmarshal(w.Body.Bytes(), &got), ShouldBeNil)
				So(got.RunID, ShouldEqual, "run-1")
			})
		})
	})

	Convey("Given a server before the first run", t, func() {
		mux := newMux(&mockDependencies{}, nil)

		Convey("When fetching the dashboard data", func() {
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/dashboard-data", nil))

			Convey("Then the endpoint answers not found", func() {
				So(w.Code, ShouldEqual, http.StatusNotFound)
				So(w.Body.String(), ShouldContainSubstring, "no_snapshot")
			})
		})
	})
}

func TestGenerateInsights(t *testing.T) {
	Convey("Given a configured insights proxy", t, func() {
		forwarder := &mockForwarder{result: insights.Result{
			StatusCode: http.StatusOK,
			Body:       []byte(`{"candidates":[]}`),
		}}
		mux := newMux(&mockDependencies{}, forwarder)

		Convey("When posting a generation request", func() {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/generate-insights", strings.NewReader(`{"contents":[]}`))
			mux.ServeHTTP(w, req)

			Convey("Then the upstream answer passes through", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, "candidates")
				So(forwarder.bodies, ShouldResemble, []string{`{"contents":[]}`})
			})
		})

		Convey("When using the wrong method", func() {
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/generate-insights", nil))

			Convey("Then the route is not found", func() {
				So(w.Code, ShouldEqual, http.StatusNotFound)
			})
		})
	})

	Convey("Given no configured proxy", t, func() {
		mux := newMux(&mockDependencies{}, nil)

		Convey("When posting a generation request", func() {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/generate-insights", strings.NewReader(`{}`))
			mux.ServeHTTP(w, req)

			Convey("Then the endpoint reports the missing configuration", func() {
				So(w.Code, ShouldEqual, http.StatusServiceUnavailable)
				So(w.Body.String(), ShouldContainSubstring, "not_configured")
			})
		})
	})

	Convey("Given an upstream that exhausts its retry budget", t, func() {
		forwarder := &mockForwarder{err: insights.ErrRateLimited}
		mux := newMux(&mockDependencies{}, forwarder)

		Convey("When posting a generation request", func() {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/generate-insights", strings.NewReader(`{}`))
			mux.ServeHTTP(w, req)

			Convey("Then the rate limit is reported to the client", func() {
				So(w.Code, ShouldEqual, http.StatusTooManyRequests)
			})
		})
	})

	Convey("Given an upstream transport failure", t, func() {
		forwarder := &mockForwarder{err: errors.New("connection refused")}
		mux := newMux(&mockDependencies{}, forwarder)

		Convey("When posting a generation request", func() {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/generate-insights", strings.NewReader(`{}`))
			mux.ServeHTTP(w, req)

			Convey("Then the failure maps to a bad gateway", func() {
				So(w.Code, ShouldEqual, http.StatusBadGateway)
			})
		})
	})
}

func TestRefresh(t *testing.T) {
	Convey("Given a configured refresher", t, func() {
		refresher := &mockRefresher{outcome: queue.Accepted}
		mux := newMux(&mockDependencies{}, nil, api.WithRefresher(refresher))

		Convey("When posting a refresh request", func() {
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/refresh", nil))

			Convey("Then the request is accepted for background processing", func() {
				So(w.Code, ShouldEqual, http.StatusAccepted)
				So(w.Body.String(), ShouldContainSubstring, "accepted")
				So(refresher.reasons, ShouldResemble, []string{"api"})
			})
		})
	})

	Convey("Given a run already pending", t, func() {
		refresher := &mockRefresher{outcome: queue.Coalesced}
		mux := newMux(&mockDependencies{}, nil, api.WithRefresher(refresher))

		Convey("When posting a refresh request", func() {
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/refresh", nil))

			Convey("Then the request coalesces into the pending run", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, "coalesced")
			})
		})
	})

	Convey("Given no configured refresher", t, func() {
		mux := newMux(&mockDependencies{}, nil)

		Convey("When posting a refresh request", func() {
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/refresh", nil))

			Convey("Then the endpoint reports the missing configuration", func() {
				So(w.Code, ShouldEqual, http.StatusServiceUnavailable)
			})
		})
	})

	Convey("Given a dropped request", t, func() {
		refresher := &mockRefresher{outcome: queue.Dropped}
		mux := newMux(&mockDependencies{}, nil, api.WithRefresher(refresher))

		Convey("When posting a refresh request", func() {
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/refresh", nil))

			Convey("Then the queue unavailability is reported", func() {
				So(w.Code, ShouldEqual, http.StatusServiceUnavailable)
				So(w.Body.String(), ShouldContainSubstring, "refresh_unavailable")
			})
		})
	})
}
