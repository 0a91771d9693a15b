// Package types contains common types used across the application
package types

// RankingScores is the computed ranking breakdown for a library. All fields
// are integers in [0, 100]; CurationScore is the primary sort key, the four
// sub-scores are kept for transparency and debugging.
type RankingScores struct {
	CurationScore     int `json:"curationScore"`
	NormalizedStars   int `json:"normalizedStars"`
	NormalizedVotes   int `json:"normalizedVotes"`
	FreshnessScore    int `json:"freshnessScore"`
	ForkActivityScore int `json:"forkActivityScore"`
}

// VoteCounts is the split up/down tally for a library. Total is upvotes
// minus downvotes and matches the denormalized sum on the library record.
type VoteCounts struct {
	Upvotes   int `json:"upvotes"`
	Downvotes int `json:"downvotes"`
	Total     int `json:"total"`
}
