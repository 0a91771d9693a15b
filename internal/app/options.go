package service

import (
	"time"

	"github.com/daordonez11/noreinventeslarueda/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(log logger.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.logger = log
		}
	}
}

// WithDataDir sets the directory for the persistent store. Empty keeps the
// store in memory.
func WithDataDir(dir string) Option {
	return func(s *Service) {
		s.dataDir = dir
	}
}

// WithScoreCacheTTL sets the time-to-live for cached ranking scores.
func WithScoreCacheTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.scoreCacheTTL = ttl
		}
	}
}

// WithScoreCacheMaxEntries bounds the score cache size.
func WithScoreCacheMaxEntries(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.scoreCacheEntries = n
		}
	}
}

// WithVoteTxnMaxRetries bounds transparent retries of conflicting ledger
// transactions.
func WithVoteTxnMaxRetries(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.voteTxnMaxRetries = n
		}
	}
}

// WithDefaultBounds sets the normalization bounds used outside category
// context.
func WithDefaultBounds(maxStars, maxVotes int) Option {
	return func(s *Service) {
		if maxStars > 0 {
			s.defaultMaxStars = maxStars
		}
		if maxVotes > 0 {
			s.defaultMaxVotes = maxVotes
		}
	}
}

// WithMaxPageSize caps the limit parameter on listings.
func WithMaxPageSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxPageSize = n
		}
	}
}

// WithDefaultLocale sets the locale listings fall back to.
func WithDefaultLocale(locale string) Option {
	return func(s *Service) {
		if locale == "es" || locale == "en" {
			s.defaultLocale = locale
		}
	}
}

// WithSeed loads the built-in development seed set on startup.
func WithSeed(seed bool) Option {
	return func(s *Service) {
		s.seed = seed
	}
}
