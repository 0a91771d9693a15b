// Package ranking computes the curation score that orders libraries in
// listings and search results.
package ranking

import (
	"math"
	"time"

	"github.com/daordonez11/noreinventeslarueda/internal/domain/model"
	"github.com/daordonez11/noreinventeslarueda/internal/domain/types"
)

// Weights of the curation score composition. Popularity dominates, community
// sentiment second, recency third, fork health a minor tiebreaker.
const (
	starsWeight        = 0.4
	votesWeight        = 0.3
	freshnessWeight    = 0.2
	forkActivityWeight = 0.1
)

// Default scoring configuration constants.
const (
	defaultMaxStars = 50_000
	defaultMaxVotes = 1_000

	// neutralVotesScore is where a net-zero vote sum lands: votes are
	// normalized over a symmetric range so zero maps to the midpoint.
	neutralVotesScore = 50

	// unknownFreshnessScore applies when no commit date is known.
	unknownFreshnessScore = 20

	// zeroStarsForkScore applies when the fork/star ratio is undefined.
	zeroStarsForkScore = 20

	maxScoreValue = 100
)

// Bounds are the normalization bounds scores are computed against. When a
// whole category is scored they are the maxima observed across the batch,
// which yields within-category relative ranking.
type Bounds struct {
	MaxStars int
	MaxVotes int
}

// Calculator computes ranking scores. It is pure: the only ambient input is
// the clock, which is injectable for tests.
type Calculator struct {
	defaultBounds Bounds
	now           func() time.Time
}

// NewCalculator creates a calculator with configuration options applied.
func NewCalculator(opts ...Option) *Calculator {
	c := &Calculator{
		defaultBounds: Bounds{MaxStars: defaultMaxStars, MaxVotes: defaultMaxVotes},
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Normalize rescales value from [min, max] to [0, 100], clamped at both
// ends. A degenerate range (min == max) returns def instead of dividing by
// zero.
func Normalize(value, min, max, def float64) float64 {
	if max == min {
		return def
	}
	normalized := (value - min) / (max - min) * maxScoreValue
	return math.Max(0, math.Min(maxScoreValue, normalized))
}

// freshness scores the recency of the last commit as a step function.
// A step function is deliberate: predictable, cheap, and it does not
// over-reward marginal freshness differences.
func (c *Calculator) freshness(lib *model.Library) float64 {
	if lib.Deprecated() {
		return 0
	}
	if lib.LastCommitDate == nil {
		return unknownFreshnessScore
	}

	daysOld := c.now().Sub(*lib.LastCommitDate).Hours() / 24
	switch {
	case daysOld <= 30:
		return 100
	case daysOld <= 90:
		return 80
	case daysOld <= 180:
		return 60
	case daysOld <= 365:
		return 40
	case daysOld <= 730:
		return 20
	default:
		return 0
	}
}

// forkActivity scores community engagement from the fork/star ratio. The
// empirically healthy range is 0.05-0.15; very high ratios are penalized as
// a possible instability signal.
func forkActivity(lib *model.Library) float64 {
	if lib.Stars == 0 {
		return zeroStarsForkScore
	}

	ratio := float64(lib.Forks) / float64(lib.Stars)
	switch {
	case ratio < 0.02:
		return 40 // few forks relative to popularity, possibly unmaintained
	case ratio < 0.05:
		return 60
	case ratio <= 0.15:
		return 100
	case ratio <= 0.3:
		return 80
	default:
		return 60
	}
}

// Score computes the ranking breakdown for a single library using the
// calculator's default bounds.
func (c *Calculator) Score(lib *model.Library) types.RankingScores {
	return c.ScoreWithBounds(lib, c.defaultBounds)
}

// ScoreWithBounds computes the ranking breakdown for a library against the
// given normalization bounds. A deprecated library scores zero on every
// field regardless of any other signal, so it always sorts last.
func (c *Calculator) ScoreWithBounds(lib *model.Library, b Bounds) types.RankingScores {
	if lib.Deprecated() {
		return types.RankingScores{}
	}

	normalizedStars := Normalize(float64(lib.Stars), 0, float64(b.MaxStars), 0)
	normalizedVotes := Normalize(
		float64(lib.CommunityVotesSum),
		-float64(b.MaxVotes),
		float64(b.MaxVotes),
		neutralVotesScore,
	)
	freshnessScore := c.freshness(lib)
	forkActivityScore := forkActivity(lib)

	curation := normalizedStars*starsWeight +
		normalizedVotes*votesWeight +
		freshnessScore*freshnessWeight +
		forkActivityScore*forkActivityWeight

	return types.RankingScores{
		CurationScore:     int(math.Round(curation)),
		NormalizedStars:   int(math.Round(normalizedStars)),
		NormalizedVotes:   int(math.Round(normalizedVotes)),
		FreshnessScore:    int(math.Round(freshnessScore)),
		ForkActivityScore: int(math.Round(forkActivityScore)),
	}
}

// CategoryScores scores a whole batch against shared bounds computed from
// the batch itself: the maximum observed stars and vote sum, each floored at
// 1 to avoid degenerate normalization. Each library's result depends only on
// those precomputed maxima, never on other libraries' scores.
func (c *Calculator) CategoryScores(libraries []*model.Library) map[string]types.RankingScores {
	bounds := Bounds{MaxStars: 1, MaxVotes: 1}
	for _, lib := range libraries {
		if lib.Stars > bounds.MaxStars {
			bounds.MaxStars = lib.Stars
		}
		if lib.CommunityVotesSum > bounds.MaxVotes {
			bounds.MaxVotes = lib.CommunityVotesSum
		}
	}

	scores := make(map[string]types.RankingScores, len(libraries))
	for _, lib := range libraries {
		scores[lib.ID] = c.ScoreWithBounds(lib, bounds)
	}
	return scores
}
