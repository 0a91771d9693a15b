package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, an optional YAML file, and
// environment variables. Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if RUEDA_CONFIG is set
//  3. env (prefix RUEDA_)
func Load(ctx context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv("RUEDA_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// Environment variables: RUEDA_ADDR, RUEDA_SCORE_CACHE_TTL_SECONDS, ...
	// Keys keep their underscores to match the koanf tags on the struct.
	envProvider := env.Provider("RUEDA_", ".", func(s string) string {
		s = strings.ToLower(s)
		return strings.TrimPrefix(s, "rueda_")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.ScoreCacheTTLSeconds <= 0:
		return fmt.Errorf("%w: score_cache_ttl_seconds must be positive", ErrInvalidConfig)
	case c.VoteTxnMaxRetries <= 0:
		return fmt.Errorf("%w: vote_txn_max_retries must be positive", ErrInvalidConfig)
	case c.DefaultMaxStars <= 0 || c.DefaultMaxVotes <= 0:
		return fmt.Errorf("%w: default normalization bounds must be positive", ErrInvalidConfig)
	case c.MaxPageSize <= 0:
		return fmt.Errorf("%w: max_page_size must be positive", ErrInvalidConfig)
	}
	switch c.DefaultLocale {
	case "es", "en":
	default:
		return fmt.Errorf("%w: default_locale must be es or en", ErrInvalidConfig)
	}
	return nil
}
