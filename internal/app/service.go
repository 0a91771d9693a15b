// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/daordonez11/noreinventeslarueda/internal/adapters/cache"
	"github.com/daordonez11/noreinventeslarueda/internal/adapters/repository"
	"github.com/daordonez11/noreinventeslarueda/internal/domain/model"
	"github.com/daordonez11/noreinventeslarueda/internal/domain/ranking"
	"github.com/daordonez11/noreinventeslarueda/internal/domain/types"
	"github.com/daordonez11/noreinventeslarueda/pkg/logger"
	"github.com/daordonez11/noreinventeslarueda/pkg/metrics"
)

// Sort keys accepted by ListLibraries.
const (
	SortCurationScore  = "curation_score"
	SortCommunityVotes = "community_votes"
	SortStars          = "stars"
	SortLastUpdated    = "last_updated"
)

// minSearchQueryLen is the shortest accepted search query.
const minSearchQueryLen = 2

// Service implements the directory's ranking and voting operations.
type Service struct {
	mu sync.RWMutex

	// Core components
	store      *repository.Store
	catalog    *repository.Catalog
	ledger     *repository.Ledger
	calculator *ranking.Calculator
	scores     *cache.ScoreCache

	// Configuration
	dataDir           string
	scoreCacheTTL     time.Duration
	scoreCacheEntries int
	voteTxnMaxRetries int
	defaultMaxStars   int
	defaultMaxVotes   int
	maxPageSize       int
	defaultLocale     string
	seed              bool

	// State
	started bool

	// Logging
	logger logger.Logger
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		scoreCacheTTL:     time.Hour,
		scoreCacheEntries: 100_000,
		voteTxnMaxRetries: 16,
		defaultMaxStars:   50_000,
		defaultMaxVotes:   1_000,
		maxPageSize:       100,
		defaultLocale:     "es",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start opens the store and initializes all components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}

	storeOpts := []repository.StoreOption{repository.WithInMemory()}
	if s.dataDir != "" {
		storeOpts = []repository.StoreOption{
			repository.WithPath(s.dataDir),
			repository.WithSyncWrites(true),
		}
	}
	store, err := repository.Open(storeOpts...)
	if err != nil {
		return err
	}
	s.store = store
	s.catalog = repository.NewCatalog(store)
	s.ledger = repository.NewLedger(store,
		repository.WithMaxRetries(s.voteTxnMaxRetries),
		repository.WithLedgerLogger(s.logger.Named("ledger")),
	)
	s.calculator = ranking.NewCalculator(
		ranking.WithDefaultBounds(s.defaultMaxStars, s.defaultMaxVotes),
	)

	scoreCache, err := cache.New(
		cache.WithTTL(s.scoreCacheTTL),
		cache.WithMaxEntries(s.scoreCacheEntries),
	)
	if err != nil {
		// The cache is an accelerator; run without it rather than fail.
		s.logger.Warn(ctx, "score cache unavailable; running uncached", logger.Error(err))
		scoreCache = nil
	}
	s.scores = scoreCache

	if s.seed {
		if err := s.seedCatalog(ctx); err != nil {
			return err
		}
	}

	s.started = true
	s.logger.Info(ctx, "curation service started",
		logger.String("dataDir", s.dataDir),
		logger.Duration("scoreCacheTTL", s.scoreCacheTTL),
		logger.Int("voteTxnMaxRetries", s.voteTxnMaxRetries),
	)
	return nil
}

// Stop releases the store and cache.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	s.scores.Close()
	if err := s.store.Close(); err != nil {
		s.logger.Error(context.Background(), "store close failed", logger.Error(err))
	}
	s.started = false
	s.logger.Info(context.Background(), "curation service stopped")
}

// CastVote records the user's vote on a library.
func (s *Service) CastVote(ctx context.Context, userID, libraryID string, value model.VoteValue) (model.Vote, error) {
	return s.ledger.Cast(ctx, userID, libraryID, value)
}

// RemoveVote clears the user's vote on a library, if any.
func (s *Service) RemoveVote(ctx context.Context, userID, libraryID string) error {
	return s.ledger.Remove(ctx, userID, libraryID)
}

// ToggleVote applies value as a toggle: voting the held direction again
// clears the vote. The returned vote is nil when the vote was cleared.
func (s *Service) ToggleVote(ctx context.Context, userID, libraryID string, value model.VoteValue) (*model.Vote, error) {
	return s.ledger.Toggle(ctx, userID, libraryID, value)
}

// UserVote returns the user's live vote on a library, or repository.ErrNotFound.
func (s *Service) UserVote(ctx context.Context, userID, libraryID string) (model.Vote, error) {
	return s.ledger.UserVote(ctx, userID, libraryID)
}

// VoteCounts returns the split up/down tally for a library.
func (s *Service) VoteCounts(ctx context.Context, libraryID string) (types.VoteCounts, error) {
	return s.ledger.Counts(ctx, libraryID)
}

// LibraryView is a library joined with its computed ranking scores and a
// locale-resolved description.
type LibraryView struct {
	Library model.Library
	Scores  types.RankingScores
}

// ListOptions filter and shape a library listing.
type ListOptions struct {
	CategorySlug      string
	Sort              string
	Page              int
	Limit             int
	IncludeDeprecated bool
}

// ListResult is one page of a listing.
type ListResult struct {
	Items []LibraryView
	Page  int
	Limit int
	Total int
	Pages int
}

// ListLibraries returns a scored, sorted, paginated library listing. When a
// category is given the batch is scored against category-relative bounds,
// which is what makes within-category ranking meaningful.
func (s *Service) ListLibraries(ctx context.Context, opts ListOptions) (ListResult, error) {
	categoryID := ""
	if opts.CategorySlug != "" {
		cat, err := s.catalog.GetCategory(ctx, opts.CategorySlug)
		if err != nil {
			return ListResult{}, err
		}
		categoryID = cat.ID
	}

	libs, err := s.catalog.ListLibraries(ctx, categoryID, opts.IncludeDeprecated)
	if err != nil {
		return ListResult{}, err
	}

	views := s.scoreBatch(ctx, libs)
	sortViews(views, opts.Sort)

	page, limit := opts.Page, opts.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	if limit > s.maxPageSize {
		limit = s.maxPageSize
	}

	total := len(views)
	pages := (total + limit - 1) / limit
	start := (page - 1) * limit
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}

	return ListResult{
		Items: views[start:end],
		Page:  page,
		Limit: limit,
		Total: total,
		Pages: pages,
	}, nil
}

// GetLibrary returns a single library with its ranking scores, read through
// the score cache.
func (s *Service) GetLibrary(ctx context.Context, id string) (LibraryView, error) {
	lib, err := s.catalog.GetLibrary(ctx, id)
	if err != nil {
		return LibraryView{}, err
	}

	scores, ok := s.scores.Get(ctx, id)
	if !ok {
		scores = s.calculator.Score(&lib)
		metrics.RecordScoreComputation()
		s.scores.Set(ctx, id, scores)
	}
	return LibraryView{Library: lib, Scores: scores}, nil
}

// Search returns scored matches for a free-text query, best first.
func (s *Service) Search(ctx context.Context, query string) ([]LibraryView, error) {
	if len([]rune(query)) < minSearchQueryLen {
		return nil, ErrQueryTooShort
	}
	hits, err := s.catalog.SearchLibraries(ctx, query)
	if err != nil {
		return nil, err
	}

	views := s.scoreBatch(ctx, hits)
	sortViews(views, SortCurationScore)
	return views, nil
}

// Categories returns all categories in display order.
func (s *Service) Categories(ctx context.Context) ([]*model.Category, error) {
	return s.catalog.ListCategories(ctx)
}

// UpsertLibrary creates or refreshes a catalog record. The vote sum is
// ledger-owned and survives the upsert untouched.
func (s *Service) UpsertLibrary(ctx context.Context, lib model.Library) (model.Library, error) {
	return s.catalog.UpsertLibrary(ctx, lib)
}

// UpsertCategory creates or refreshes a category.
func (s *Service) UpsertCategory(ctx context.Context, cat model.Category) (model.Category, error) {
	return s.catalog.UpsertCategory(ctx, cat)
}

// InvalidateScores drops every cached score. Call after a bulk data
// refresh so listings pick up new star/fork data immediately.
func (s *Service) InvalidateScores(ctx context.Context) {
	s.scores.Clear(ctx)
	s.logger.Info(ctx, "score cache invalidated")
}

// DefaultLocale returns the locale listings fall back to.
func (s *Service) DefaultLocale() string {
	return s.defaultLocale
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]any{
		"started":     s.started,
		"maxPageSize": s.maxPageSize,
	}
	if !s.started {
		return stats
	}

	ctx := context.Background()
	if libs, err := s.catalog.CountLibraries(ctx); err == nil {
		stats["libraries"] = libs
		metrics.UpdateLibrariesTotal(libs)
	}
	if votes, err := s.ledger.TotalVotes(ctx); err == nil {
		stats["votes"] = votes
		metrics.UpdateVotesTotal(votes)
	}
	return stats
}

// scoreBatch computes category-relative scores for a batch and caches each
// result.
func (s *Service) scoreBatch(ctx context.Context, libs []*model.Library) []LibraryView {
	scores := s.calculator.CategoryScores(libs)
	metrics.RecordBatchComputation()

	views := make([]LibraryView, 0, len(libs))
	for _, lib := range libs {
		sc := scores[lib.ID]
		s.scores.Set(ctx, lib.ID, sc)
		views = append(views, LibraryView{Library: *lib, Scores: sc})
	}
	return views
}

// sortViews orders a listing by the requested key, descending, with name as
// a deterministic tiebreaker.
func sortViews(views []LibraryView, key string) {
	less := func(i, j int) bool {
		a, b := views[i], views[j]
		switch key {
		case SortCommunityVotes:
			if a.Library.CommunityVotesSum != b.Library.CommunityVotesSum {
				return a.Library.CommunityVotesSum > b.Library.CommunityVotesSum
			}
		case SortStars:
			if a.Library.Stars != b.Library.Stars {
				return a.Library.Stars > b.Library.Stars
			}
		case SortLastUpdated:
			at, bt := a.Library.LastCommitDate, b.Library.LastCommitDate
			switch {
			case at != nil && bt != nil && !at.Equal(*bt):
				return at.After(*bt)
			case at != nil && bt == nil:
				return true
			case at == nil && bt != nil:
				return false
			}
		default: // SortCurationScore
			if a.Scores.CurationScore != b.Scores.CurationScore {
				return a.Scores.CurationScore > b.Scores.CurationScore
			}
		}
		return a.Library.Name < b.Library.Name
	}
	sort.SliceStable(views, less)
}

// ErrQueryTooShort rejects search queries below the minimum length.
var ErrQueryTooShort = errors.New("search query too short")
