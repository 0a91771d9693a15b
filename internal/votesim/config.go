package votesim

import "time"

// Config holds configuration for the vote simulation
type Config struct {
	BaseURL  string        // Base URL of the service
	Voters   int           // Number of simulated voters
	NumVotes int           // Number of vote operations to generate
	Workers  int           // Number of concurrent workers
	Timeout  time.Duration // HTTP request timeout
	LogFile  string        // Log file for simulation output
	Verbose  bool          // Enable verbose logging
}

// VoteOp is a single simulated vote action against one library.
type VoteOp struct {
	UserID    string `json:"user_id"`
	LibraryID string `json:"library_id"`
	Value     int    `json:"value"`
	Toggle    bool   `json:"toggle"`
	Remove    bool   `json:"remove"`
}

// Library mirrors the listing item shape returned by the API.
type Library struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	CommunityVotes int    `json:"community_votes"`
	Scores         struct {
		CurationScore int `json:"curationScore"`
	} `json:"scores"`
}

// VoteState mirrors the aggregate vote response for one library.
type VoteState struct {
	Upvotes   int `json:"upvotes"`
	Downvotes int `json:"downvotes"`
	Total     int `json:"total"`
}

// Stats holds simulation statistics
type Stats struct {
	LibrariesFound    int
	VotesGenerated    int
	VotesSubmitted    int
	VotesSuccessful   int
	VotesFailed       int
	LibrariesVerified int
	LibrariesDrifted  int
	StartTime         time.Time
	EndTime           time.Time
	Duration          time.Duration
}
