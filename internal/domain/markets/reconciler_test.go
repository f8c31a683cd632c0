package markets_test

import (
	"context"
	"errors"
	"testing"

	"github.com/okian/huddle/internal/domain/identity"
	"github.com/okian/huddle/internal/domain/markets"
	. "github.com/smartystreets/goconvey/convey"
)

// stubSource returns canned bookmakers per (market, region) and records the
// queries it receives.
type stubSource struct {
	responses map[string]map[markets.Region][]markets.Bookmaker
	errs      map[string]error
	queries   []string
}

func (s *stubSource) Quotes(_ context.Context, market string, region markets.Region) ([]markets.Bookmaker, error) {
	s.queries = append(s.queries, market+"/"+string(region))
	if err, ok := s.errs[market]; ok {
		return nil, err
	}
	return s.responses[market][region], nil
}

func h2hBook(key string, prices ...float64) markets.Bookmaker {
	outcomes := make([]markets.Outcome, 0, len(prices))
	for i, p := range prices {
		name := "Buffalo Bills"
		if i%2 == 1 {
			name = "New York Jets"
		}
		outcomes = append(outcomes, markets.Outcome{Name: name, Price: p})
	}
	return markets.Bookmaker{
		Key:     key,
		Title:   key,
		Markets: []markets.Market{{Key: markets.MarketH2H, Outcomes: outcomes}},
	}
}

func propBook(key, marketKey string, players ...string) markets.Bookmaker {
	outcomes := make([]markets.Outcome, 0, len(players))
	for _, p := range players {
		outcomes = append(outcomes, markets.Outcome{Name: "Over", Description: p, Price: 1.85})
	}
	return markets.Bookmaker{
		Key:     key,
		Title:   key,
		Markets: []markets.Market{{Key: marketKey, Outcomes: outcomes}},
	}
}

func TestReconcile(t *testing.T) {
	ctx := context.Background()
	rec := markets.NewReconciler(identity.New())

	Convey("Given two market groups that both carry h2h", t, func() {
		first := h2hBook("alpha", 1.5, 2.5)
		second := h2hBook("beta", 1.9, 1.9)
		src := &stubSource{responses: map[string]map[markets.Region][]markets.Bookmaker{
			"h2h":     {markets.RegionPrimary: {first}},
			"spreads": {markets.RegionPrimary: {second}},
		}}

		set := rec.Reconcile(ctx, []string{"h2h", "spreads"}, src)

		Convey("Then the first group's outcomes win and are never overwritten", func() {
			So(set.Game["h2h"], ShouldResemble, first.Markets[0].Outcomes)
			So(set.Game["h2h"][0].Price, ShouldEqual, 1.5)
		})
	})

	Convey("Given a group empty in the primary region", t, func() {
		book := h2hBook("offshore", 1.7, 2.1)
		src := &stubSource{responses: map[string]map[markets.Region][]markets.Bookmaker{
			"h2h": {
				markets.RegionPrimary: nil,
				markets.RegionAny:     {book},
			},
		}}

		set := rec.Reconcile(ctx, []string{"h2h"}, src)

		Convey("Then the unrestricted re-query supplies the quotes", func() {
			So(src.queries, ShouldResemble, []string{"h2h/us", "h2h/"})
			So(set.Game["h2h"], ShouldResemble, book.Markets[0].Outcomes)
		})
	})

	Convey("Given a group with bookmakers but no populated markets anywhere", t, func() {
		empty := markets.Bookmaker{Key: "hollow"}
		src := &stubSource{responses: map[string]map[markets.Region][]markets.Bookmaker{
			"totals": {
				markets.RegionPrimary: {empty},
				markets.RegionAny:     {empty},
			},
		}}

		set := rec.Reconcile(ctx, []string{"totals"}, src)

		Convey("Then the group is skipped without error", func() {
			So(set.Empty(), ShouldBeTrue)
		})
	})

	Convey("Given bookmakers where only the second has markets", t, func() {
		empty := markets.Bookmaker{Key: "hollow"}
		full := h2hBook("alpha", 1.6, 2.3)
		src := &stubSource{responses: map[string]map[markets.Region][]markets.Bookmaker{
			"h2h": {markets.RegionPrimary: {empty, full}},
		}}

		set := rec.Reconcile(ctx, []string{"h2h"}, src)

		Convey("Then the first bookmaker with a populated market is used", func() {
			So(set.Game["h2h"], ShouldResemble, full.Markets[0].Outcomes)
		})
	})

	Convey("Given a player prop market", t, func() {
		src := &stubSource{responses: map[string]map[markets.Region][]markets.Bookmaker{
			"player_rush_yds": {markets.RegionPrimary: {propBook("alpha", "player_rush_yds", "J. Cook", "R. Davis")}},
		}}

		set := rec.Reconcile(ctx, []string{"player_rush_yds"}, src)

		Convey("Then outcomes are keyed by canonical identity", func() {
			So(set.Players, ShouldContainKey, "jamescook")
			So(set.Players, ShouldContainKey, "raydavis")
		})

		Convey("Then the display name is the first-seen raw description", func() {
			So(set.Players["jamescook"].DisplayName, ShouldEqual, "J. Cook")
		})

		Convey("Then each player's market holds the full outcome list", func() {
			So(set.Players["jamescook"].Markets["player_rush_yds"], ShouldHaveLength, 2)
		})
	})

	Convey("Given the same player prop key arriving from two groups", t, func() {
		first := propBook("alpha", "player_anytime_td", "J. Allen")
		second := propBook("beta", "player_anytime_td", "J. Allen")
		second.Markets[0].Outcomes[0].Price = 9.99
		src := &stubSource{responses: map[string]map[markets.Region][]markets.Bookmaker{
			"player_anytime_td": {markets.RegionPrimary: {first}},
			"player_1st_td":     {markets.RegionPrimary: {second}},
		}}
		// The second group's bookmaker redundantly repeats the anytime key.
		second.Markets = append(second.Markets, markets.Market{
			Key:      "player_anytime_td",
			Outcomes: []markets.Outcome{{Name: "Over", Description: "J. Allen", Price: 9.99}},
		})

		set := rec.Reconcile(ctx, []string{"player_anytime_td", "player_1st_td"}, src)

		Convey("Then the first population of that player's key is kept", func() {
			So(set.Players["joshallen"].Markets["player_anytime_td"][0].Price, ShouldEqual, 1.85)
		})
	})

	Convey("Given a source that fails for one group", t, func() {
		spread := 2.5
		book := markets.Bookmaker{
			Key:   "alpha",
			Title: "alpha",
			Markets: []markets.Market{{
				Key:      markets.MarketSpreads,
				Outcomes: []markets.Outcome{{Name: "Buffalo Bills", Price: 1.9, Point: &spread}},
			}},
		}
		src := &stubSource{
			responses: map[string]map[markets.Region][]markets.Bookmaker{
				"spreads": {markets.RegionPrimary: {book}},
			},
			errs: map[string]error{"h2h": errors.New("boom")},
		}

		set := rec.Reconcile(ctx, []string{"h2h", "spreads"}, src)

		Convey("Then the failed group is skipped and the rest still merge", func() {
			So(set.Game, ShouldNotContainKey, "h2h")
			So(set.Game, ShouldContainKey, "spreads")
		})
	})
}
