// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	service "github.com/daordonez11/noreinventeslarueda/internal/app"
	"github.com/daordonez11/noreinventeslarueda/internal/domain/types"
)

// LibrariesHandler handles catalog listing and detail requests.
type LibrariesHandler struct {
	deps  Dependencies
	votes *VotesHandler
}

// NewLibrariesHandler creates a new libraries handler.
func NewLibrariesHandler(deps Dependencies) *LibrariesHandler {
	return &LibrariesHandler{deps: deps, votes: NewVotesHandler(deps)}
}

// libraryResponse is the wire shape of a scored library. The description is
// already resolved to the requested locale.
type libraryResponse struct {
	ID             string              `json:"id"`
	CategoryID     string              `json:"category_id,omitempty"`
	Name           string              `json:"name"`
	Description    string              `json:"description"`
	GithubURL      string              `json:"github_url,omitempty"`
	Language       string              `json:"language,omitempty"`
	Stars          int                 `json:"stars"`
	Forks          int                 `json:"forks"`
	CommunityVotes int                 `json:"community_votes"`
	Deprecated     bool                `json:"deprecated"`
	LastCommitDate *time.Time          `json:"last_commit_date,omitempty"`
	Scores         types.RankingScores `json:"scores"`
}

func toLibraryResponse(v service.LibraryView, locale string) libraryResponse {
	return libraryResponse{
		ID:             v.Library.ID,
		CategoryID:     v.Library.CategoryID,
		Name:           v.Library.Name,
		Description:    v.Library.Description(locale),
		GithubURL:      v.Library.GithubURL,
		Language:       v.Library.Language,
		Stars:          v.Library.Stars,
		Forks:          v.Library.Forks,
		CommunityVotes: v.Library.CommunityVotesSum,
		Deprecated:     v.Library.Deprecated(),
		LastCommitDate: v.Library.LastCommitDate,
		Scores:         v.Scores,
	}
}

type listResponse struct {
	Items []libraryResponse `json:"items"`
	Page  int               `json:"page"`
	Limit int               `json:"limit"`
	Total int               `json:"total"`
	Pages int               `json:"pages"`
}

// resolveLocale picks the response locale from the query string, falling
// back to the service default.
func (h *LibrariesHandler) resolveLocale(r *http.Request) string {
	locale := strings.ToLower(r.URL.Query().Get("locale"))
	if locale != "es" && locale != "en" {
		locale = h.deps.DefaultLocale()
	}
	return locale
}

// HandleList handles GET /api/libraries requests.
// Query parameters: category, sort, page, limit, include_deprecated, locale.
func (h *LibrariesHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	q := r.URL.Query()

	opts := service.ListOptions{
		CategorySlug:      q.Get("category"),
		Sort:              q.Get("sort"),
		IncludeDeprecated: q.Get("include_deprecated") == "true",
	}
	if v := q.Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
			return
		}
		opts.Page = n
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
			return
		}
		opts.Limit = n
	}

	res, err := h.deps.ListLibraries(r.Context(), opts)
	if err != nil {
		if isNotFound(err) {
			writeError(w, http.StatusNotFound, "not_found", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}

	locale := h.resolveLocale(r)
	items := make([]libraryResponse, 0, len(res.Items))
	for _, v := range res.Items {
		items = append(items, toLibraryResponse(v, locale))
	}
	writeJSON(w, http.StatusOK, listResponse{
		Items: items,
		Page:  res.Page,
		Limit: res.Limit,
		Total: res.Total,
		Pages: res.Pages,
	})
}

// HandleLibrary routes /api/libraries/{id} and /api/libraries/{id}/votes.
func (h *LibrariesHandler) HandleLibrary(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/libraries/")
	if path == "" {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}

	id, rest, nested := strings.Cut(path, "/")
	if id == "" {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}
	if nested {
		if rest == "votes" {
			h.votes.HandleVotes(w, r, id)
			return
		}
		http.NotFound(w, r)
		return
	}

	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	view, err := h.deps.GetLibrary(r.Context(), id)
	if err != nil {
		if isNotFound(err) {
			writeError(w, http.StatusNotFound, "not_found", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	writeJSON(w, http.StatusOK, toLibraryResponse(view, h.resolveLocale(r)))
}
