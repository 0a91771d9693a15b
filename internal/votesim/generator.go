package votesim

import (
	"context"
	"crypto/rand"
	"math/big"
	"strconv"

	"github.com/daordonez11/noreinventeslarueda/pkg/logger"
)

// Constants for the action distribution. Out of ten draws: six upvotes,
// two downvotes, one toggle, one removal. That mirrors how real directories
// trend positive while still exercising every code path.
const (
	actionDivisor     = 10
	upvoteThreshold   = 6
	downvoteThreshold = 8
	toggleThreshold   = 9
)

// randomInt returns a random int in [0, max) using crypto/rand.
func randomInt(max int64) int64 {
	n, _ := rand.Int(rand.Reader, big.NewInt(max))
	return n.Int64()
}

// generateVotes creates randomized vote operations spread across the given
// libraries and a fixed pool of voter identities.
func generateVotes(ctx context.Context, config *Config, libraries []Library, stats *Stats) ([]VoteOp, error) {
	logger.Get().Info(ctx, "generating vote operations",
		logger.Int("numVotes", config.NumVotes),
		logger.Int("voters", config.Voters),
		logger.Int("libraries", len(libraries)))

	voters := make([]string, config.Voters)
	for i := range voters {
		voters[i] = "sim_voter_" + strconv.Itoa(i)
	}

	ops := make([]VoteOp, config.NumVotes)
	for i := range ops {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		ops[i] = generateSingleVote(voters, libraries)
	}

	stats.VotesGenerated = len(ops)
	logger.Get().Info(ctx, "generated vote operations", logger.Int("count", len(ops)))
	return ops, nil
}

// generateSingleVote picks a voter, a library and an action.
func generateSingleVote(voters []string, libraries []Library) VoteOp {
	op := VoteOp{
		UserID:    voters[randomInt(int64(len(voters)))],
		LibraryID: libraries[randomInt(int64(len(libraries)))].ID,
	}

	switch draw := randomInt(actionDivisor); {
	case draw < upvoteThreshold:
		op.Value = 1
	case draw < downvoteThreshold:
		op.Value = -1
	case draw < toggleThreshold:
		op.Value = 1
		op.Toggle = true
	default:
		op.Remove = true
	}
	return op
}
