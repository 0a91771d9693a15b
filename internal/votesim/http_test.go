package votesim

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/daordonez11/noreinventeslarueda/pkg/logger"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func TestSubmitVotesConcurrent(t *testing.T) {
	var posts, deletes atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/api/libraries/") {
			http.NotFound(w, r)
			return
		}
		if r.Header.Get("X-User-ID") == "" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		switch r.Method {
		case http.MethodPost:
			posts.Add(1)
			w.WriteHeader(http.StatusCreated)
		case http.MethodDelete:
			deletes.Add(1)
			w.WriteHeader(http.StatusNoContent)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	config := &Config{
		BaseURL: srv.URL,
		Workers: 8,
		Timeout: 5 * time.Second,
	}

	libraries := []Library{{ID: "lib-a"}, {ID: "lib-b"}, {ID: "lib-c"}}
	voters := 20
	config.Voters = voters
	config.NumVotes = 500

	stats := &Stats{}
	ops, err := generateVotes(context.Background(), config, libraries, stats)
	if err != nil {
		t.Fatalf("generate votes: %v", err)
	}
	if len(ops) != config.NumVotes {
		t.Fatalf("generated %d ops, want %d", len(ops), config.NumVotes)
	}
	removes := 0
	for _, op := range ops {
		if op.Remove {
			removes++
			continue
		}
		if op.Value != 1 && op.Value != -1 {
			t.Fatalf("generated vote with invalid value %d", op.Value)
		}
	}

	if err := submitVotes(context.Background(), config, ops, stats); err != nil {
		t.Fatalf("submit votes: %v", err)
	}
	if stats.VotesSubmitted != config.NumVotes {
		t.Fatalf("submitted %d, want %d", stats.VotesSubmitted, config.NumVotes)
	}
	if stats.VotesFailed != 0 {
		t.Fatalf("unexpected failures: %d", stats.VotesFailed)
	}
	if got := int(posts.Load()); got != config.NumVotes-removes {
		t.Fatalf("server saw %d posts, want %d", got, config.NumVotes-removes)
	}
	if got := int(deletes.Load()); got != removes {
		t.Fatalf("server saw %d deletes, want %d", got, removes)
	}
}
