// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() initializer to build a Config with defaults.
// - Load(ctx) layers defaults, an optional YAML file, and HUDDLE_* env vars.
// - External errors must be wrapped via this package's error kinds.
package config

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":5001".
	Addr string `koanf:"addr"`

	// TeamID is the schedule provider's team identifier.
	TeamID string `koanf:"team_id"`

	// TeamAbbr is the team code used by the play-by-play feed and rankings.
	TeamAbbr string `koanf:"team_abbr"`

	// TeamName is the full team name used to match odds events.
	TeamName string `koanf:"team_name"`

	// SnapshotPath is where the assembled document is written.
	SnapshotPath string `koanf:"snapshot_path"`

	// OddsAPIKey authenticates against the odds provider. Empty disables
	// the odds stage (degrades to an empty result, not an error).
	OddsAPIKey string `koanf:"odds_api_key"`

	// GeminiAPIKey authenticates the completion proxy. Empty makes the
	// proxy endpoint report a configuration error.
	GeminiAPIKey string `koanf:"gemini_api_key"`

	// RequestTimeoutMS bounds each upstream HTTP call.
	RequestTimeoutMS int `koanf:"request_timeout_ms"`

	// OddsPacingMS is the fixed delay between market-group queries.
	OddsPacingMS int `koanf:"odds_pacing_ms"`

	// RefPacingMS is the fixed delay between dependent reference fetches.
	RefPacingMS int `koanf:"ref_pacing_ms"`

	// ProxyMaxAttempts bounds completion-proxy retries on rate limits.
	ProxyMaxAttempts int `koanf:"proxy_max_attempts"`

	// ProxyBackoffMS is the initial backoff delay; it doubles per attempt.
	ProxyBackoffMS int `koanf:"proxy_backoff_ms"`

	// MarketGroups lists the betting market groups queried per event.
	MarketGroups []string `koanf:"market_groups"`

	// PlayerAliases extends the built-in short-form -> canonical name table.
	PlayerAliases map[string]string `koanf:"player_aliases"`
}

// New creates a Config with defaults. The defaults mirror the Buffalo Bills
// dashboard deployment this pipeline was built for; everything is
// overridable through file or env.
func New() *Config {
	return &Config{
		LogLevel:         "info",
		Addr:             ":5001",
		TeamID:           "2",
		TeamAbbr:         "BUF",
		TeamName:         "Buffalo Bills",
		SnapshotPath:     "public/dashboard_data.json",
		RequestTimeoutMS: 30_000,
		OddsPacingMS:     1_000,
		RefPacingMS:      100,
		ProxyMaxAttempts: 4,
		ProxyBackoffMS:   1_000,
		MarketGroups: []string{
			// Standard team markets
			"h2h",
			"spreads",
			"totals",

			// Passing props
			"player_pass_yds",
			"player_pass_tds",
			"player_pass_attempts",
			"player_pass_completions",
			"player_pass_interceptions",
			"player_pass_longest_completion",

			// Rushing props
			"player_rush_yds",
			"player_rush_attempts",
			"player_rush_longest",

			// Receiving props
			"player_reception_yds",
			"player_receptions",
			"player_reception_longest",

			// Touchdowns / scoring props
			"player_1st_td",
			"player_anytime_td",
		},
		PlayerAliases: map[string]string{},
	}
}
