package oddsapi_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/okian/huddle/internal/domain/markets"
	"github.com/okian/huddle/internal/sources/oddsapi"
	. "github.com/smartystreets/goconvey/convey"
)

func TestEvents(t *testing.T) {
	Convey("Given a provider listing upcoming events", t, func() {
		var gotKey string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotKey = r.URL.Query().Get("apiKey")
			fmt.Fprint(w, `[
				{"id":"ev1","home_team":"Buffalo Bills","away_team":"Miami Dolphins","commence_time":"2025-09-07T17:00:00Z"},
				{"id":"ev2","home_team":"New York Jets","away_team":"Buffalo Bills","commence_time":"2025-09-14T17:00:00Z"}
			]`)
		}))
		defer srv.Close()

		client := oddsapi.NewClient("secret", oddsapi.WithBaseURL(srv.URL), oddsapi.WithPacing(0))

		Convey("When discovering events", func() {
			events, err := client.Events(context.Background())

			Convey("Then every event decodes", func() {
				So(err, ShouldBeNil)
				So(gotKey, ShouldEqual, "secret")
				So(events, ShouldHaveLength, 2)
				So(events[0].ID, ShouldEqual, "ev1")
				So(events[1].HomeTeam, ShouldEqual, "New York Jets")
			})

			Convey("Then FindEvent matches the team on either side", func() {
				event := oddsapi.FindEvent(events, "Miami Dolphins")
				So(event, ShouldNotBeNil)
				So(event.ID, ShouldEqual, "ev1")

				jets := oddsapi.FindEvent(events, "New York Jets")
				So(jets, ShouldNotBeNil)
				So(jets.ID, ShouldEqual, "ev2")

				So(oddsapi.FindEvent(events, "New England Patriots"), ShouldBeNil)
			})
		})
	})

	Convey("Given a provider answering discovery with an error object", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			fmt.Fprint(w, `{"message":"Invalid API key"}`)
		}))
		defer srv.Close()

		client := oddsapi.NewClient("bad", oddsapi.WithBaseURL(srv.URL), oddsapi.WithPacing(0))
		_, err := client.Events(context.Background())

		Convey("Then the shape violation is a malformed-response error", func() {
			So(err, ShouldNotBeNil)
			So(err, ShouldWrap, oddsapi.ErrMalformedResponse)
		})
	})
}

func TestEventSourceQuotes(t *testing.T) {
	Convey("Given a provider serving per-event odds", t, func() {
		var gotRegions, gotMarkets []string
		mux := http.NewServeMux()
		mux.HandleFunc("/sports/americanfootball_nfl/events/ev1/odds", func(w http.ResponseWriter, r *http.Request) {
			gotRegions = append(gotRegions, r.URL.Query().Get("regions"))
			gotMarkets = append(gotMarkets, r.URL.Query().Get("markets"))
			fmt.Fprint(w, `{"bookmakers":[{"key":"draftkings","title":"DraftKings","markets":[
				{"key":"h2h","outcomes":[{"name":"Buffalo Bills","price":1.55}]}
			]}]}`)
		})
		srv := httptest.NewServer(mux)
		defer srv.Close()

		client := oddsapi.NewClient("secret", oddsapi.WithBaseURL(srv.URL), oddsapi.WithPacing(0))
		src := client.EventSource("ev1")

		Convey("When querying the primary region", func() {
			books, err := src.Quotes(context.Background(), "h2h", markets.RegionPrimary)

			Convey("Then bookmakers decode and the region parameter is sent", func() {
				So(err, ShouldBeNil)
				So(books, ShouldHaveLength, 1)
				So(books[0].Markets[0].Key, ShouldEqual, "h2h")
				So(gotRegions, ShouldResemble, []string{"us"})
				So(gotMarkets, ShouldResemble, []string{"h2h"})
			})
		})

		Convey("When querying without a region restriction", func() {
			_, err := src.Quotes(context.Background(), "h2h", markets.RegionAny)

			Convey("Then no region parameter is sent", func() {
				So(err, ShouldBeNil)
				So(gotRegions, ShouldResemble, []string{""})
			})
		})
	})

	Convey("Given a provider failing a quote call", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusUnprocessableEntity)
		}))
		defer srv.Close()

		client := oddsapi.NewClient("secret", oddsapi.WithBaseURL(srv.URL), oddsapi.WithPacing(0))
		_, err := client.EventSource("ev1").Quotes(context.Background(), "player_pass_tds", markets.RegionPrimary)

		Convey("Then the failure surfaces as a fetch error", func() {
			So(err, ShouldNotBeNil)
			So(err, ShouldWrap, oddsapi.ErrFetch)
		})
	})
}
