package repository

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"testing"

	"github.com/daordonez11/noreinventeslarueda/internal/domain/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(WithInMemory())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("close store: %v", err)
		}
	})
	return store
}

func seedLibrary(t *testing.T, store *Store, id string) {
	t.Helper()
	catalog := NewCatalog(store)
	_, err := catalog.UpsertLibrary(context.Background(), model.Library{
		ID:     id,
		Name:   id,
		Stars:  100,
		Forks:  10,
	})
	if err != nil {
		t.Fatalf("seed library: %v", err)
	}
}

func librarySum(t *testing.T, store *Store, id string) int {
	t.Helper()
	lib, err := NewCatalog(store).GetLibrary(context.Background(), id)
	if err != nil {
		t.Fatalf("get library: %v", err)
	}
	return lib.CommunityVotesSum
}

// scanSum recomputes the sum from the authoritative vote records.
func scanSum(t *testing.T, store *Store, ledger *Ledger, id string) int {
	t.Helper()
	counts, err := ledger.Counts(context.Background(), id)
	if err != nil {
		t.Fatalf("counts: %v", err)
	}
	return counts.Total
}

func TestLedger_CastAndOverwrite(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	seedLibrary(t, store, "lib1")
	ledger := NewLedger(store)

	vote, err := ledger.Cast(ctx, "alice", "lib1", model.Upvote)
	if err != nil {
		t.Fatalf("cast: %v", err)
	}
	if vote.Value != model.Upvote {
		t.Errorf("vote value = %d, want +1", vote.Value)
	}
	if sum := librarySum(t, store, "lib1"); sum != 1 {
		t.Errorf("sum after upvote = %d, want 1", sum)
	}

	// Overwrite with a downvote: delta is -2.
	if _, err := ledger.Cast(ctx, "alice", "lib1", model.Downvote); err != nil {
		t.Fatalf("cast flip: %v", err)
	}
	if sum := librarySum(t, store, "lib1"); sum != -1 {
		t.Errorf("sum after flip = %d, want -1", sum)
	}

	// At most one live vote for the pair regardless of repeat casts.
	counts, err := ledger.Counts(ctx, "lib1")
	if err != nil {
		t.Fatalf("counts: %v", err)
	}
	if counts.Upvotes+counts.Downvotes != 1 {
		t.Errorf("live votes = %d, want 1", counts.Upvotes+counts.Downvotes)
	}
	if counts.Downvotes != 1 {
		t.Errorf("downvotes = %d, want 1", counts.Downvotes)
	}

	got, err := ledger.UserVote(ctx, "alice", "lib1")
	if err != nil {
		t.Fatalf("user vote: %v", err)
	}
	if got.Value != model.Downvote {
		t.Errorf("stored value = %d, want most recent cast (-1)", got.Value)
	}
	if !got.CreatedAt.Equal(vote.CreatedAt) {
		t.Error("overwrite should preserve the original CreatedAt")
	}
}

func TestLedger_InvalidValue(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	seedLibrary(t, store, "lib1")
	ledger := NewLedger(store)

	for _, v := range []model.VoteValue{0, 2, -2, 100} {
		if _, err := ledger.Cast(ctx, "alice", "lib1", v); !errors.Is(err, ErrInvalidVote) {
			t.Errorf("Cast(value=%d): err = %v, want ErrInvalidVote", v, err)
		}
	}
	// Nothing was written.
	if sum := librarySum(t, store, "lib1"); sum != 0 {
		t.Errorf("sum = %d, want 0 after rejected casts", sum)
	}
}

func TestLedger_RemoveIdempotent(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	seedLibrary(t, store, "lib1")
	ledger := NewLedger(store)

	if _, err := ledger.Cast(ctx, "alice", "lib1", model.Upvote); err != nil {
		t.Fatalf("cast: %v", err)
	}
	if err := ledger.Remove(ctx, "alice", "lib1"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if sum := librarySum(t, store, "lib1"); sum != 0 {
		t.Errorf("sum after remove = %d, want 0", sum)
	}

	// Second removal is a no-op, not an error.
	if err := ledger.Remove(ctx, "alice", "lib1"); err != nil {
		t.Fatalf("second remove: %v", err)
	}
	if sum := librarySum(t, store, "lib1"); sum != 0 {
		t.Errorf("sum after double remove = %d, want 0", sum)
	}

	if _, err := ledger.UserVote(ctx, "alice", "lib1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("user vote after remove: err = %v, want ErrNotFound", err)
	}
}

func TestLedger_DefensiveCreateOnMissingLibrary(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	ledger := NewLedger(store)

	if _, err := ledger.Cast(ctx, "alice", "ghost", model.Upvote); err != nil {
		t.Fatalf("cast on unknown library: %v", err)
	}

	lib, err := NewCatalog(store).GetLibrary(ctx, "ghost")
	if err != nil {
		t.Fatalf("minimal record was not created: %v", err)
	}
	if lib.CommunityVotesSum != 1 {
		t.Errorf("minimal record sum = %d, want 1", lib.CommunityVotesSum)
	}
	if lib.Name != "" {
		t.Errorf("minimal record should carry no catalog fields, got name %q", lib.Name)
	}
}

func TestLedger_Toggle(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	seedLibrary(t, store, "lib1")
	ledger := NewLedger(store)

	// First toggle casts.
	vote, err := ledger.Toggle(ctx, "alice", "lib1", model.Upvote)
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if vote == nil || vote.Value != model.Upvote {
		t.Fatalf("first toggle should cast an upvote, got %+v", vote)
	}
	if sum := librarySum(t, store, "lib1"); sum != 1 {
		t.Errorf("sum = %d, want 1", sum)
	}

	// Same direction again clears.
	vote, err = ledger.Toggle(ctx, "alice", "lib1", model.Upvote)
	if err != nil {
		t.Fatalf("toggle clear: %v", err)
	}
	if vote != nil {
		t.Errorf("repeat toggle should clear the vote, got %+v", vote)
	}
	if sum := librarySum(t, store, "lib1"); sum != 0 {
		t.Errorf("sum = %d, want 0", sum)
	}

	// Opposite direction flips in one step.
	if _, err := ledger.Toggle(ctx, "alice", "lib1", model.Upvote); err != nil {
		t.Fatalf("toggle recast: %v", err)
	}
	vote, err = ledger.Toggle(ctx, "alice", "lib1", model.Downvote)
	if err != nil {
		t.Fatalf("toggle flip: %v", err)
	}
	if vote == nil || vote.Value != model.Downvote {
		t.Fatalf("flip should leave a downvote, got %+v", vote)
	}
	if sum := librarySum(t, store, "lib1"); sum != -1 {
		t.Errorf("sum = %d, want -1", sum)
	}
}

func TestLedger_ConcurrentVotersSerialize(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	seedLibrary(t, store, "lib1")
	ledger := NewLedger(store, WithMaxRetries(200))

	// Scenario: A and B upvote concurrently, then A removes. Whatever the
	// interleaving, no delta may be lost.
	var wg sync.WaitGroup
	for _, user := range []string{"alice", "bob"} {
		wg.Add(1)
		go func(u string) {
			defer wg.Done()
			if _, err := ledger.Cast(ctx, u, "lib1", model.Upvote); err != nil {
				t.Errorf("cast %s: %v", u, err)
			}
		}(user)
	}
	wg.Wait()

	if sum := librarySum(t, store, "lib1"); sum != 2 {
		t.Fatalf("sum after concurrent upvotes = %d, want 2", sum)
	}

	if err := ledger.Remove(ctx, "alice", "lib1"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if sum := librarySum(t, store, "lib1"); sum != 1 {
		t.Errorf("final sum = %d, want 1", sum)
	}

	counts, err := ledger.Counts(ctx, "lib1")
	if err != nil {
		t.Fatalf("counts: %v", err)
	}
	if counts.Upvotes != 1 || counts.Downvotes != 0 {
		t.Errorf("counts = %+v, want {1 0 1}", counts)
	}
}

func TestLedger_SumNeverDrifts(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	seedLibrary(t, store, "lib1")
	ledger := NewLedger(store, WithMaxRetries(500))

	users := []string{"u1", "u2", "u3", "u4", "u5", "u6"}
	rng := rand.New(rand.NewSource(7))

	// Sequential random walk: the invariant must hold after every single
	// operation, not just at the end.
	for i := 0; i < 200; i++ {
		user := users[rng.Intn(len(users))]
		switch rng.Intn(3) {
		case 0:
			if _, err := ledger.Cast(ctx, user, "lib1", model.Upvote); err != nil {
				t.Fatalf("op %d cast +1: %v", i, err)
			}
		case 1:
			if _, err := ledger.Cast(ctx, user, "lib1", model.Downvote); err != nil {
				t.Fatalf("op %d cast -1: %v", i, err)
			}
		case 2:
			if err := ledger.Remove(ctx, user, "lib1"); err != nil {
				t.Fatalf("op %d remove: %v", i, err)
			}
		}

		stored := librarySum(t, store, "lib1")
		derived := scanSum(t, store, ledger, "lib1")
		if stored != derived {
			t.Fatalf("op %d: stored sum %d != derived sum %d", i, stored, derived)
		}
	}

	// Concurrent storm: invariant must hold once all writers settle.
	var wg sync.WaitGroup
	for w := 0; w < len(users); w++ {
		wg.Add(1)
		go func(user string, seed int64) {
			defer wg.Done()
			local := rand.New(rand.NewSource(seed))
			for i := 0; i < 30; i++ {
				switch local.Intn(3) {
				case 0:
					_, _ = ledger.Cast(ctx, user, "lib1", model.Upvote)
				case 1:
					_, _ = ledger.Cast(ctx, user, "lib1", model.Downvote)
				case 2:
					_ = ledger.Remove(ctx, user, "lib1")
				}
			}
		}(users[w], int64(w))
	}
	wg.Wait()

	stored := librarySum(t, store, "lib1")
	derived := scanSum(t, store, ledger, "lib1")
	if stored != derived {
		t.Fatalf("after concurrent storm: stored sum %d != derived sum %d", stored, derived)
	}
}

func TestLedger_IndependentLibraries(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	seedLibrary(t, store, "libA")
	seedLibrary(t, store, "libB")
	ledger := NewLedger(store, WithMaxRetries(200))

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			lib := "libA"
			if n%2 == 1 {
				lib = "libB"
			}
			for j := 0; j < 20; j++ {
				if _, err := ledger.Cast(ctx, "user", lib, model.Upvote); err != nil {
					t.Errorf("cast: %v", err)
				}
			}
		}(i)
	}
	wg.Wait()

	// One user per library, so each sum is exactly 1 despite repeat casts.
	if sum := librarySum(t, store, "libA"); sum != 1 {
		t.Errorf("libA sum = %d, want 1", sum)
	}
	if sum := librarySum(t, store, "libB"); sum != 1 {
		t.Errorf("libB sum = %d, want 1", sum)
	}
}

func TestLedger_TotalVotes(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	seedLibrary(t, store, "libA")
	seedLibrary(t, store, "libB")
	ledger := NewLedger(store)

	if _, err := ledger.Cast(ctx, "alice", "libA", model.Upvote); err != nil {
		t.Fatalf("cast: %v", err)
	}
	if _, err := ledger.Cast(ctx, "bob", "libA", model.Downvote); err != nil {
		t.Fatalf("cast: %v", err)
	}
	if _, err := ledger.Cast(ctx, "alice", "libB", model.Upvote); err != nil {
		t.Fatalf("cast: %v", err)
	}

	total, err := ledger.TotalVotes(ctx)
	if err != nil {
		t.Fatalf("total votes: %v", err)
	}
	if total != 3 {
		t.Errorf("total votes = %d, want 3", total)
	}
}
