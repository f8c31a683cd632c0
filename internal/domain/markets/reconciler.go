package markets

import (
	"context"
	"strings"

	"github.com/okian/huddle/internal/domain/identity"
	"github.com/okian/huddle/pkg/logger"
	"github.com/okian/huddle/pkg/metrics"
)

// Option applies a configuration option to the Reconciler.
type Option func(*Reconciler)

// WithLogger sets a custom logger for the reconciler.
func WithLogger(log logger.Logger) Option {
	return func(r *Reconciler) {
		if log != nil {
			r.log = log
		}
	}
}

// Reconciler merges per-market-group provider responses into a QuoteSet.
type Reconciler struct {
	norm *identity.Normalizer
	log  logger.Logger
}

// NewReconciler creates a reconciler keyed by the given normalizer.
func NewReconciler(norm *identity.Normalizer, opts ...Option) *Reconciler {
	r := &Reconciler{norm: norm}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Reconcile queries each market group in order and merges the results.
//
// Per group: the primary region is tried first; when no bookmaker there
// offers any market, an unrestricted re-query runs before the group is
// given up on. The first bookmaker (provider order) with a populated market
// supplies the group's quotes. Team keys land in the game scope, keys with
// the player marker land per normalized player; in both scopes the first
// group to populate a key wins and later data for that key is discarded.
// A group whose queries fail degrades to a skipped group, never an abort.
func (r *Reconciler) Reconcile(ctx context.Context, groups []string, src Source) QuoteSet {
	set := NewQuoteSet()
	for _, group := range groups {
		if ctx.Err() != nil {
			return set
		}
		bookmaker, ok := r.selectBookmaker(ctx, group, src)
		if !ok {
			metrics.RecordOddsGroupSkipped()
			continue
		}
		r.mergeBookmaker(&set, bookmaker)
	}
	return set
}

// selectBookmaker applies the source- and bookmaker-selection policy for one
// market group.
func (r *Reconciler) selectBookmaker(ctx context.Context, group string, src Source) (Bookmaker, bool) {
	books, err := src.Quotes(ctx, group, RegionPrimary)
	if err != nil {
		r.warn(ctx, "primary region query failed", group, err)
		books = nil
	}
	if !anyMarkets(books) {
		books, err = src.Quotes(ctx, group, RegionAny)
		if err != nil {
			r.warn(ctx, "unrestricted region query failed", group, err)
			return Bookmaker{}, false
		}
	}
	for _, b := range books {
		if len(b.Markets) > 0 {
			return b, true
		}
	}
	return Bookmaker{}, false
}

// mergeBookmaker folds the selected bookmaker's markets into the set under
// the first-wins policy.
func (r *Reconciler) mergeBookmaker(set *QuoteSet, b Bookmaker) {
	for _, market := range b.Markets {
		switch {
		case market.Key == MarketH2H || market.Key == MarketSpreads || market.Key == MarketTotals:
			if _, seen := set.Game[market.Key]; !seen {
				set.Game[market.Key] = market.Outcomes
			}
		case strings.Contains(market.Key, playerMarker):
			r.mergeProps(set, market)
		}
	}
}

// mergeProps distributes a prop market's outcomes across the named players.
func (r *Reconciler) mergeProps(set *QuoteSet, market Market) {
	for _, outcome := range market.Outcomes {
		id := r.norm.Normalize(outcome.Description)
		props, ok := set.Players[id]
		if !ok {
			props = &PlayerProps{
				DisplayName: outcome.Description,
				Markets:     make(map[string][]Outcome),
			}
			set.Players[id] = props
		}
		if _, seen := props.Markets[market.Key]; !seen {
			props.Markets[market.Key] = market.Outcomes
		}
	}
}

// anyMarkets reports whether any bookmaker in the response carries at least
// one market.
func anyMarkets(books []Bookmaker) bool {
	for _, b := range books {
		if len(b.Markets) > 0 {
			return true
		}
	}
	return false
}

func (r *Reconciler) warn(ctx context.Context, msg, group string, err error) {
	if r.log == nil {
		return
	}
	r.log.Warn(ctx, msg, logger.String("market_group", group), logger.Error(err))
}
