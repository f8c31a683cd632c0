// Package identity maps raw player display names to canonical identity keys.
//
// Every upstream feed spells players differently ("J.Allen", "Josh Allen",
// "jallen"). The normalizer is the single point of truth for cross-source
// matching: the stat aggregator and the market reconciler both route names
// through it before using identity as a join key.
package identity

import "strings"

// defaultAliases maps stripped short-form names to canonical full forms.
// Extend via config (WithAliases) rather than editing this table.
var defaultAliases = map[string]string{
	"jallen":  "joshallen",
	"jaallen": "joshallen",
	"kcoleman": "keoncoleman",
	"jcook":    "jamescook",
	"dkincaid": "daltonkincaid",
	"dknox":    "dawsonknox",
	"kshakir":  "khalilshakir",
	"rdavis":   "raydavis",
	"jpalmer":  "joshuapalmer",
}

// Option applies a configuration option to the Normalizer.
type Option func(*Normalizer)

// WithAliases merges additional short-form -> canonical entries over the
// built-in table. Later entries win on duplicate keys.
func WithAliases(aliases map[string]string) Option {
	return func(n *Normalizer) {
		for short, canonical := range aliases {
			if short != "" && canonical != "" {
				n.aliases[short] = canonical
			}
		}
	}
}

// Normalizer resolves display-name variants to a single canonical key.
type Normalizer struct {
	aliases map[string]string
}

// New creates a Normalizer with the built-in alias table plus any options.
func New(opts ...Option) *Normalizer {
	n := &Normalizer{aliases: make(map[string]string, len(defaultAliases))}
	for short, canonical := range defaultAliases {
		n.aliases[short] = canonical
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Normalize strips periods and spaces, lowercases, and resolves known
// short-form aliases. It is a pure function of the input and the alias
// table and always returns a string, even for empty input.
//
// Known limitation: two different players who share a short form collide
// (e.g. a second "jcook" would merge with the first). The alias table exists
// to make same-player variants converge; it cannot disambiguate genuinely
// distinct players with identical abbreviations.
func (n *Normalizer) Normalize(raw string) string {
	key := strings.ReplaceAll(raw, ".", "")
	key = strings.ReplaceAll(key, " ", "")
	key = strings.ToLower(key)
	if canonical, ok := n.aliases[key]; ok {
		return canonical
	}
	return key
}
