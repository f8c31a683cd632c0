// Package markets merges multi-provider betting quotes into one canonical
// odds structure under a first-successful-source-wins policy.
package markets

import (
	"context"
	"encoding/json"
)

// Region scopes a quote query to a bookmaker region.
type Region string

const (
	// RegionPrimary restricts quotes to the primary bookmaker region.
	RegionPrimary Region = "us"
	// RegionAny places no region restriction on the query.
	RegionAny Region = ""
)

// Team-level market keys. Any other key carrying the player marker is a
// player prop.
const (
	MarketH2H     = "h2h"
	MarketSpreads = "spreads"
	MarketTotals  = "totals"

	playerMarker = "player"
)

// Outcome is one quoted line within a market. Description names the subject
// player on prop markets. Point is a pointer so lines without a point
// (moneyline) are omitted from JSON rather than serialized as 0.
type Outcome struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Price       float64  `json:"price"`
	Point       *float64 `json:"point,omitempty"`
}

// Market is one named market with its quoted outcomes.
type Market struct {
	Key      string    `json:"key"`
	Outcomes []Outcome `json:"outcomes"`
}

// Bookmaker is one quote provider inside a market-group response.
type Bookmaker struct {
	Key     string   `json:"key"`
	Title   string   `json:"title"`
	Markets []Market `json:"markets"`
}

// PlayerProps collects one player's prop markets, keyed by market key.
type PlayerProps struct {
	DisplayName string               `json:"display_name"`
	Markets     map[string][]Outcome `json:"markets"`
}

// QuoteSet is the canonical merged odds structure: game-level markets and
// per-player props, each scope populated at most once per market key.
type QuoteSet struct {
	Game    map[string][]Outcome    `json:"game_odds"`
	Players map[string]*PlayerProps `json:"player_props"`
}

// NewQuoteSet returns an empty, valid quote set.
func NewQuoteSet() QuoteSet {
	return QuoteSet{
		Game:    make(map[string][]Outcome),
		Players: make(map[string]*PlayerProps),
	}
}

// Empty reports whether no market has been populated in either scope.
func (q QuoteSet) Empty() bool {
	return len(q.Game) == 0 && len(q.Players) == 0
}

// MarshalJSON keeps the two mappings present even when empty so downstream
// consumers always see both scopes.
func (q QuoteSet) MarshalJSON() ([]byte, error) {
	type alias QuoteSet
	a := alias(q)
	if a.Game == nil {
		a.Game = map[string][]Outcome{}
	}
	if a.Players == nil {
		a.Players = map[string]*PlayerProps{}
	}
	return json.Marshal(a)
}

// Source supplies bookmaker quotes for one market group within a region
// scope. Implementations perform the actual provider I/O; the reconciler
// only applies selection and merge policy.
type Source interface {
	Quotes(ctx context.Context, market string, region Region) ([]Bookmaker, error)
}
