// Package config defines service configuration structures and loading hooks.
package config

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// DataDir is the directory for the embedded document store. Empty means
	// in-memory (no persistence), which is what the tests use.
	DataDir string `koanf:"data_dir"`

	// ScoreCacheTTLSeconds is the time-to-live for cached ranking scores.
	ScoreCacheTTLSeconds int `koanf:"score_cache_ttl_seconds"`

	// ScoreCacheMaxEntries bounds the score cache size.
	ScoreCacheMaxEntries int `koanf:"score_cache_max_entries"`

	// VoteTxnMaxRetries bounds transparent retries of conflicting ledger
	// transactions before the error surfaces to the caller.
	VoteTxnMaxRetries int `koanf:"vote_txn_max_retries"`

	// DefaultMaxStars and DefaultMaxVotes are the normalization bounds used
	// when a library is scored without category context.
	DefaultMaxStars int `koanf:"default_max_stars"`
	DefaultMaxVotes int `koanf:"default_max_votes"`

	// MaxPageSize caps the limit parameter on listing endpoints.
	MaxPageSize int `koanf:"max_page_size"`

	// DefaultLocale selects which description language listings return when
	// the request does not specify one: "es" or "en".
	DefaultLocale string `koanf:"default_locale"`

	// Seed loads the built-in development seed set on startup when the
	// catalog is empty.
	Seed bool `koanf:"seed"`
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:             "info",
		Addr:                 ":8080",
		DataDir:              "",
		ScoreCacheTTLSeconds: 3600,
		ScoreCacheMaxEntries: 100_000,
		VoteTxnMaxRetries:    16,
		DefaultMaxStars:      50_000,
		DefaultMaxVotes:      1_000,
		MaxPageSize:          100,
		DefaultLocale:        "es",
		Seed:                 false,
	}
}
