package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/daordonez11/noreinventeslarueda/internal/domain/model"
	"github.com/daordonez11/noreinventeslarueda/internal/domain/types"
	"github.com/daordonez11/noreinventeslarueda/pkg/logger"
	"github.com/daordonez11/noreinventeslarueda/pkg/metrics"
)

// defaultMaxRetries bounds transparent retries of conflicting transactions.
const defaultMaxRetries = 16

// Ledger maintains the single-vote-per-user invariant and keeps each
// library's communityVotesSum consistent with the set of live votes.
//
// Every mutation runs as one Badger transaction that performs all reads
// before all writes. Badger detects write conflicts between concurrent
// transactions at commit time; the ledger retries transparently, so the
// final sum always reflects the serialized application of all deltas and
// callers never observe a partial update.
type Ledger struct {
	store      *Store
	maxRetries int
	now        func() time.Time
	log        logger.Logger
}

// LedgerOption applies a configuration option to the Ledger.
type LedgerOption func(*Ledger)

// WithMaxRetries bounds how many times a conflicting transaction is retried
// before ErrTxnRetryLimit surfaces.
func WithMaxRetries(n int) LedgerOption {
	return func(l *Ledger) {
		if n > 0 {
			l.maxRetries = n
		}
	}
}

// WithLedgerClock overrides the timestamp source. Used by tests.
func WithLedgerClock(now func() time.Time) LedgerOption {
	return func(l *Ledger) {
		if now != nil {
			l.now = now
		}
	}
}

// WithLedgerLogger sets a logger for the ledger's diagnostics.
func WithLedgerLogger(log logger.Logger) LedgerOption {
	return func(l *Ledger) {
		l.log = log
	}
}

// NewLedger creates a vote ledger backed by the given store.
func NewLedger(store *Store, opts ...LedgerOption) *Ledger {
	l := &Ledger{
		store:      store,
		maxRetries: defaultMaxRetries,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// update runs fn as a read-write transaction, retrying on commit conflicts.
func (l *Ledger) update(ctx context.Context, fn func(txn *badger.Txn) error) error {
	start := time.Now()
	defer func() {
		metrics.RecordLedgerTxnLatency(float64(time.Since(start).Milliseconds()))
	}()

	for attempt := 0; attempt < l.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := l.store.db.Update(fn)
		if err == nil {
			return nil
		}
		if errors.Is(err, badger.ErrConflict) {
			metrics.RecordVoteTxnRetry()
			continue
		}
		return err
	}
	metrics.RecordVoteTxnFailure()
	return ErrTxnRetryLimit
}

// Cast records value as the user's vote on the library, overwriting any
// prior vote, and atomically adjusts the library's vote sum by the delta
// (new value minus old, where "no prior vote" counts as zero).
//
// When the library record has not materialized yet a minimal record holding
// just the vote sum is created instead of failing, so a vote is never lost
// to a timing issue with catalog sync.
func (l *Ledger) Cast(ctx context.Context, userID, libraryID string, value model.VoteValue) (model.Vote, error) {
	if !value.Valid() {
		return model.Vote{}, ErrInvalidVote
	}
	if userID == "" || libraryID == "" {
		return model.Vote{}, ErrMissingIdentity
	}

	var result model.Vote
	err := l.update(ctx, func(txn *badger.Txn) error {
		now := l.now()

		// All reads first: Badger requires reads before writes within a
		// transaction to participate in conflict detection.
		var existing model.Vote
		oldValue := model.VoteValue(0)
		haveVote := true
		if err := getJSON(txn, voteKey(libraryID, userID), &existing); err != nil {
			if !errors.Is(err, ErrNotFound) {
				return err
			}
			haveVote = false
		} else {
			oldValue = existing.Value
		}

		var lib model.Library
		haveLib := true
		if err := getJSON(txn, libraryKey(libraryID), &lib); err != nil {
			if !errors.Is(err, ErrNotFound) {
				return err
			}
			haveLib = false
		}

		// Writes.
		vote := model.Vote{
			UserID:    userID,
			LibraryID: libraryID,
			Value:     value,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if haveVote {
			vote.CreatedAt = existing.CreatedAt
		}
		if err := setJSON(txn, voteKey(libraryID, userID), &vote); err != nil {
			return err
		}

		if haveLib {
			lib.CommunityVotesSum = lib.CommunityVotesSum - int(oldValue) + int(value)
			lib.UpdatedAt = now
		} else {
			if l.log != nil {
				l.log.Warn(ctx, "vote cast on unknown library; creating minimal record",
					logger.String("library", libraryID))
			}
			lib = model.Library{
				ID:                libraryID,
				CommunityVotesSum: int(value),
				CreatedAt:         now,
				UpdatedAt:         now,
			}
		}
		if err := setJSON(txn, libraryKey(libraryID), &lib); err != nil {
			return err
		}

		result = vote
		return nil
	})
	if err != nil {
		return model.Vote{}, err
	}
	metrics.RecordVoteCast()
	return result, nil
}

// Remove deletes the user's vote on the library and subtracts its value
// from the library's sum. Removing a vote that does not exist is a no-op,
// which makes Remove idempotent.
func (l *Ledger) Remove(ctx context.Context, userID, libraryID string) error {
	if userID == "" || libraryID == "" {
		return ErrMissingIdentity
	}

	removed := false
	err := l.update(ctx, func(txn *badger.Txn) error {
		removed = false

		var existing model.Vote
		if err := getJSON(txn, voteKey(libraryID, userID), &existing); err != nil {
			if errors.Is(err, ErrNotFound) {
				return nil
			}
			return err
		}

		var lib model.Library
		haveLib := true
		if err := getJSON(txn, libraryKey(libraryID), &lib); err != nil {
			if !errors.Is(err, ErrNotFound) {
				return err
			}
			haveLib = false
		}

		if err := txn.Delete(voteKey(libraryID, userID)); err != nil {
			return err
		}
		if haveLib {
			lib.CommunityVotesSum -= int(existing.Value)
			lib.UpdatedAt = l.now()
			if err := setJSON(txn, libraryKey(libraryID), &lib); err != nil {
				return err
			}
		}
		removed = true
		return nil
	})
	if err != nil {
		return err
	}
	if removed {
		metrics.RecordVoteRemoved()
	}
	return nil
}

// Toggle applies the "re-clicking an active vote clears it" rule as one
// atomic server-side decision: when the user already holds a vote with the
// same value the vote is removed, otherwise value is cast. The returned
// vote is nil when the toggle cleared an existing vote.
func (l *Ledger) Toggle(ctx context.Context, userID, libraryID string, value model.VoteValue) (*model.Vote, error) {
	if !value.Valid() {
		return nil, ErrInvalidVote
	}
	if userID == "" || libraryID == "" {
		return nil, ErrMissingIdentity
	}

	var result *model.Vote
	err := l.update(ctx, func(txn *badger.Txn) error {
		now := l.now()
		result = nil

		var existing model.Vote
		oldValue := model.VoteValue(0)
		haveVote := true
		if err := getJSON(txn, voteKey(libraryID, userID), &existing); err != nil {
			if !errors.Is(err, ErrNotFound) {
				return err
			}
			haveVote = false
		} else {
			oldValue = existing.Value
		}

		var lib model.Library
		haveLib := true
		if err := getJSON(txn, libraryKey(libraryID), &lib); err != nil {
			if !errors.Is(err, ErrNotFound) {
				return err
			}
			haveLib = false
		}

		if haveVote && oldValue == value {
			// Same direction again: clear the vote.
			if err := txn.Delete(voteKey(libraryID, userID)); err != nil {
				return err
			}
			if haveLib {
				lib.CommunityVotesSum -= int(oldValue)
				lib.UpdatedAt = now
				if err := setJSON(txn, libraryKey(libraryID), &lib); err != nil {
					return err
				}
			}
			return nil
		}

		vote := model.Vote{
			UserID:    userID,
			LibraryID: libraryID,
			Value:     value,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if haveVote {
			vote.CreatedAt = existing.CreatedAt
		}
		if err := setJSON(txn, voteKey(libraryID, userID), &vote); err != nil {
			return err
		}

		if haveLib {
			lib.CommunityVotesSum = lib.CommunityVotesSum - int(oldValue) + int(value)
			lib.UpdatedAt = now
		} else {
			if l.log != nil {
				l.log.Warn(ctx, "vote cast on unknown library; creating minimal record",
					logger.String("library", libraryID))
			}
			lib = model.Library{
				ID:                libraryID,
				CommunityVotesSum: int(value),
				CreatedAt:         now,
				UpdatedAt:         now,
			}
		}
		if err := setJSON(txn, libraryKey(libraryID), &lib); err != nil {
			return err
		}

		result = &vote
		return nil
	})
	if err != nil {
		return nil, err
	}
	if result == nil {
		metrics.RecordVoteToggled()
	} else {
		metrics.RecordVoteCast()
	}
	return result, nil
}

// UserVote returns the user's live vote on the library, or ErrNotFound.
func (l *Ledger) UserVote(ctx context.Context, userID, libraryID string) (model.Vote, error) {
	if userID == "" || libraryID == "" {
		return model.Vote{}, ErrMissingIdentity
	}

	var vote model.Vote
	err := l.store.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, voteKey(libraryID, userID), &vote)
	})
	if err != nil {
		return model.Vote{}, err
	}
	return vote, nil
}

// Counts tallies the library's live votes by sign with a prefix scan.
//
// This is the full-scan fallback kept distinct from the denormalized sum:
// the sum is net, not split. At scale this should become denormalized
// up/down counters maintained in the same transaction as the sum.
func (l *Ledger) Counts(ctx context.Context, libraryID string) (types.VoteCounts, error) {
	var counts types.VoteCounts
	err := l.store.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = votePrefix(libraryID)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var vote model.Vote
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &vote)
			}); err != nil {
				return err
			}
			switch vote.Value {
			case model.Upvote:
				counts.Upvotes++
			case model.Downvote:
				counts.Downvotes++
			}
		}
		return nil
	})
	if err != nil {
		return types.VoteCounts{}, err
	}
	counts.Total = counts.Upvotes - counts.Downvotes
	return counts, nil
}

// TotalVotes counts live vote records across all libraries. Keys only, no
// value loading.
func (l *Ledger) TotalVotes(ctx context.Context) (int, error) {
	total := 0
	err := l.store.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte("vote/")
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			total++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return total, nil
}
