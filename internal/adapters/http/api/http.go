// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/daordonez11/noreinventeslarueda/internal/adapters/repository"
	service "github.com/daordonez11/noreinventeslarueda/internal/app"
	"github.com/daordonez11/noreinventeslarueda/internal/domain/model"
	"github.com/daordonez11/noreinventeslarueda/internal/domain/types"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// Vote operations.
	CastVote(ctx context.Context, userID, libraryID string, value model.VoteValue) (model.Vote, error)
	RemoveVote(ctx context.Context, userID, libraryID string) error
	ToggleVote(ctx context.Context, userID, libraryID string, value model.VoteValue) (*model.Vote, error)
	UserVote(ctx context.Context, userID, libraryID string) (model.Vote, error)
	VoteCounts(ctx context.Context, libraryID string) (types.VoteCounts, error)

	// Read operations expose the scored catalog.
	ListLibraries(ctx context.Context, opts service.ListOptions) (service.ListResult, error)
	GetLibrary(ctx context.Context, id string) (service.LibraryView, error)
	Search(ctx context.Context, query string) ([]service.LibraryView, error)
	Categories(ctx context.Context) ([]*model.Category, error)

	// Admin operations.
	UpsertLibrary(ctx context.Context, lib model.Library) (model.Library, error)
	UpsertCategory(ctx context.Context, cat model.Category) (model.Category, error)
	InvalidateScores(ctx context.Context)

	DefaultLocale() string
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler     *HealthHandler
	statsHandler      *StatsHandler
	librariesHandler  *LibrariesHandler
	categoriesHandler *CategoriesHandler
	searchHandler     *SearchHandler
	adminHandler      *AdminHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:     NewHealthHandler(),
		statsHandler:      NewStatsHandler(statsProvider),
		librariesHandler:  NewLibrariesHandler(deps),
		categoriesHandler: NewCategoriesHandler(deps),
		searchHandler:     NewSearchHandler(deps),
		adminHandler:      NewAdminHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	// Specific paths first (most specific to least specific)
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/metrics", s.healthHandler.HandleMetrics)
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/api/categories", MetricsMiddleware(s.categoriesHandler.HandleList, "categories"))
	mux.HandleFunc("/api/search", MetricsMiddleware(s.searchHandler.HandleSearch, "search"))
	mux.HandleFunc("/api/libraries", MetricsMiddleware(s.librariesHandler.HandleList, "libraries"))
	mux.HandleFunc("/api/libraries/", MetricsMiddleware(s.librariesHandler.HandleLibrary, "library"))
	mux.HandleFunc("/admin/libraries", MetricsMiddleware(s.adminHandler.HandleUpsertLibrary, "admin_libraries"))
	mux.HandleFunc("/admin/categories", MetricsMiddleware(s.adminHandler.HandleUpsertCategory, "admin_categories"))
	mux.HandleFunc("/admin/invalidate-scores", MetricsMiddleware(s.adminHandler.HandleInvalidateScores, "admin_invalidate"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// isNotFound allows the API to translate upstream not-found errors to 404.
func isNotFound(err error) bool {
	return errors.Is(err, repository.ErrNotFound)
}
