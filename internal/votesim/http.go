package votesim

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// HTTPClient wraps http.Client with timeout
type HTTPClient struct {
	client  *http.Client
	timeout time.Duration
}

// newHTTPClient creates a new HTTP client with timeout
func newHTTPClient(timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		client: &http.Client{
			Timeout: timeout,
		},
		timeout: timeout,
	}
}

// Get performs a GET request
func (c *HTTPClient) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return c.client.Do(req)
}

// Do performs a request with JSON body and optional user identity.
func (c *HTTPClient) Do(ctx context.Context, method, url, userID string, body any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}
	return c.client.Do(req)
}

// readResponseBody reads and closes the response body
func readResponseBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

// submitVotes submits vote operations concurrently using worker pools
func submitVotes(ctx context.Context, config *Config, ops []VoteOp, stats *Stats) error {
	log.Printf("Submitting %d vote operations with %d workers...", len(ops), config.Workers)

	client := newHTTPClient(config.Timeout)

	var (
		successful int64
		failed     int64
		submitted  int64
	)

	// Unix nanos of the last progress report; workers race for the next
	// slot with a compare-and-swap so only one of them prints per interval.
	var lastReport atomic.Int64
	reportInterval := 1 * time.Second

	opChan := make(chan VoteOp, config.Workers*WorkerChannelMultiplier)
	var wg sync.WaitGroup

	for i := 0; i < config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			for op := range opChan {
				select {
				case <-ctx.Done():
					return
				default:
					ok := submitSingleVote(ctx, client, config.BaseURL, op)

					atomic.AddInt64(&submitted, 1)
					if ok {
						atomic.AddInt64(&successful, 1)
					} else {
						atomic.AddInt64(&failed, 1)
					}

					if last := lastReport.Load(); time.Since(time.Unix(0, last)) >= reportInterval &&
						lastReport.CompareAndSwap(last, time.Now().UnixNano()) {
						total := atomic.LoadInt64(&submitted)
						succ := atomic.LoadInt64(&successful)
						fail := atomic.LoadInt64(&failed)

						if config.Verbose {
							log.Printf("Progress: %d/%d submitted (success: %d, failed: %d)",
								total, len(ops), succ, fail)
						} else {
							fmt.Printf("\rSubmitted: %d/%d (success: %d, failed: %d)",
								total, len(ops), succ, fail)
						}
					}
				}
			}
		}()
	}

	go func() {
		defer close(opChan)
		for _, op := range ops {
			select {
			case <-ctx.Done():
				return
			case opChan <- op:
			}
		}
	}()

	wg.Wait()

	if !config.Verbose {
		fmt.Println()
	}

	stats.VotesSubmitted = int(atomic.LoadInt64(&submitted))
	stats.VotesSuccessful = int(atomic.LoadInt64(&successful))
	stats.VotesFailed = int(atomic.LoadInt64(&failed))

	log.Printf(`Vote submission completed:
   Successful: %d
   Failed: %d
`, stats.VotesSuccessful, stats.VotesFailed)

	return nil
}

// submitSingleVote performs one vote operation and reports success.
func submitSingleVote(ctx context.Context, client *HTTPClient, baseURL string, op VoteOp) bool {
	url := baseURL + "/api/libraries/" + op.LibraryID + "/votes"

	var resp *http.Response
	var err error
	if op.Remove {
		resp, err = client.Do(ctx, http.MethodDelete, url, op.UserID, nil)
	} else {
		resp, err = client.Do(ctx, http.MethodPost, url, op.UserID, map[string]any{
			"value":  op.Value,
			"toggle": op.Toggle,
		})
	}
	if err != nil {
		return false
	}
	if _, err := readResponseBody(resp); err != nil {
		return false
	}

	switch resp.StatusCode {
	case StatusOK, StatusCreated, StatusNoContent:
		return true
	default:
		return false
	}
}

// fetchLibraries retrieves the full catalog so votes can target real records.
func fetchLibraries(ctx context.Context, config *Config, stats *Stats) ([]Library, error) {
	client := newHTTPClient(config.Timeout)
	url := config.BaseURL + "/api/libraries?include_deprecated=true&limit=100"

	resp, err := client.Get(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to list libraries: %w", err)
	}
	body, err := readResponseBody(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to read library listing: %w", err)
	}
	if resp.StatusCode != StatusOK {
		return nil, fmt.Errorf("library listing failed with status: %d", resp.StatusCode)
	}

	var listing struct {
		Items []Library `json:"items"`
	}
	if err := json.Unmarshal(body, &listing); err != nil {
		return nil, fmt.Errorf("failed to decode library listing: %w", err)
	}
	if len(listing.Items) == 0 {
		return nil, fmt.Errorf("catalog is empty; start the service with RUEDA_SEED=true or load data first")
	}

	stats.LibrariesFound = len(listing.Items)
	return listing.Items, nil
}

// fetchVoteState retrieves the aggregate tally for one library.
func fetchVoteState(ctx context.Context, client *HTTPClient, baseURL, libraryID string) (VoteState, error) {
	url := baseURL + "/api/libraries/" + libraryID + "/votes"

	resp, err := client.Get(ctx, url)
	if err != nil {
		return VoteState{}, fmt.Errorf("failed to fetch vote state: %w", err)
	}
	body, err := readResponseBody(resp)
	if err != nil {
		return VoteState{}, fmt.Errorf("failed to read vote state: %w", err)
	}
	if resp.StatusCode != StatusOK {
		return VoteState{}, fmt.Errorf("vote state request failed with status: %d", resp.StatusCode)
	}

	var state VoteState
	if err := json.Unmarshal(body, &state); err != nil {
		return VoteState{}, fmt.Errorf("failed to decode vote state: %w", err)
	}
	return state, nil
}
