package votesim

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
)

// verifyResults checks every voted library for ledger consistency: the
// aggregate total must equal upvotes minus downvotes, and the denormalized
// sum on the library record must match the tally derived from the votes.
func verifyResults(ctx context.Context, config *Config, ops []VoteOp, stats *Stats) error {
	log.Println("Verifying vote consistency...")

	voted := make(map[string]bool)
	for _, op := range ops {
		voted[op.LibraryID] = true
	}

	client := newHTTPClient(config.Timeout)

	for libraryID := range voted {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		state, err := fetchVoteState(ctx, client, config.BaseURL, libraryID)
		if err != nil {
			return fmt.Errorf("library %s: %w", libraryID, err)
		}
		if state.Total != state.Upvotes-state.Downvotes {
			stats.LibrariesDrifted++
			log.Printf("DRIFT library %s: total %d != upvotes %d - downvotes %d",
				libraryID, state.Total, state.Upvotes, state.Downvotes)
			continue
		}

		sum, err := fetchLibrarySum(ctx, client, config.BaseURL, libraryID)
		if err != nil {
			return fmt.Errorf("library %s: %w", libraryID, err)
		}
		if sum != state.Total {
			stats.LibrariesDrifted++
			log.Printf("DRIFT library %s: denormalized sum %d != derived total %d",
				libraryID, sum, state.Total)
			continue
		}

		stats.LibrariesVerified++
	}

	if stats.LibrariesDrifted > 0 {
		return fmt.Errorf("%d of %d libraries drifted from their vote ledgers",
			stats.LibrariesDrifted, stats.LibrariesDrifted+stats.LibrariesVerified)
	}

	log.Printf("All %d voted libraries are consistent", stats.LibrariesVerified)
	return nil
}

// fetchLibrarySum reads the denormalized vote sum off the library record.
func fetchLibrarySum(ctx context.Context, client *HTTPClient, baseURL, libraryID string) (int, error) {
	resp, err := client.Get(ctx, baseURL+"/api/libraries/"+libraryID)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch library: %w", err)
	}
	body, err := readResponseBody(resp)
	if err != nil {
		return 0, fmt.Errorf("failed to read library: %w", err)
	}
	if resp.StatusCode != StatusOK {
		return 0, fmt.Errorf("library request failed with status: %d", resp.StatusCode)
	}

	var lib Library
	if err := json.Unmarshal(body, &lib); err != nil {
		return 0, fmt.Errorf("failed to decode library: %w", err)
	}
	return lib.CommunityVotes, nil
}
