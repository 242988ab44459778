// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(...) initializer to build a Config with defaults.
// - All future functions must accept context.Context as the first parameter.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"context"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// PoolTotal is the sponsor reward pool in USDC for the active period.
	PoolTotal float64 `koanf:"pool_total"`

	// BoostMultiplier is the bonus fraction applied to boosted creators,
	// e.g. 0.10 for a 1.10x reward.
	BoostMultiplier float64 `koanf:"boost_multiplier"`

	// TokenThreshold is the minimum token balance that earns a boost.
	TokenThreshold float64 `koanf:"token_threshold"`

	// WindowSize is the number of reward-eligible ranks.
	WindowSize int `koanf:"window_size"`

	// FetchExcess is how many profiles beyond the window each pass requests.
	FetchExcess int `koanf:"fetch_excess"`

	// RefreshIntervalSec is the cadence of background ranking passes.
	RefreshIntervalSec int `koanf:"refresh_interval_sec"`

	// TalentBaseURL and TalentAPIKey configure the profile search API.
	TalentBaseURL string `koanf:"talent_base_url"`
	TalentAPIKey  string `koanf:"talent_api_key"`

	// TalentPageSize is the page size for profile fetches.
	TalentPageSize int `koanf:"talent_page_size"`

	// TalentRPS paces profile page requests.
	TalentRPS float64 `koanf:"talent_rps"`

	// BoostHolderURLs lists token holder endpoints queried for boosts.
	BoostHolderURLs []string `koanf:"boost_holder_urls"`

	// ScoreCacheTTLSec and BoostCacheTTLSec bound cache staleness.
	ScoreCacheTTLSec int `koanf:"score_cache_ttl_sec"`
	BoostCacheTTLSec int `koanf:"boost_cache_ttl_sec"`

	// CacheSize bounds each LRU cache.
	CacheSize int `koanf:"cache_size"`

	// PostgresDSN enables durable decision and snapshot storage. Empty
	// falls back to the in-memory store.
	PostgresDSN string `koanf:"postgres_dsn"`

	// MaxLeaderboardLimit caps GET /leaderboard?limit.
	MaxLeaderboardLimit int `koanf:"max_leaderboard_limit"`
}

// New creates a Config with defaults. Context is accepted first to satisfy
// the project-wide convention; it is reserved for future use and is
// currently unused.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:            "info",
		Addr:                ":9080",
		PoolTotal:           8_500,
		BoostMultiplier:     0.10,
		TokenThreshold:      100,
		WindowSize:          200,
		FetchExcess:         20,
		RefreshIntervalSec:  600,
		TalentBaseURL:       "https://api.talentprotocol.com",
		TalentPageSize:      25,
		TalentRPS:           10,
		ScoreCacheTTLSec:    300,
		BoostCacheTTLSec:    300,
		CacheSize:           1_024,
		MaxLeaderboardLimit: 200,
	}
}
