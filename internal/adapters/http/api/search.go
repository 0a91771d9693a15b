// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"errors"
	"net/http"
	"strings"

	service "github.com/daordonez11/noreinventeslarueda/internal/app"
)

// SearchHandler handles free-text catalog search requests.
type SearchHandler struct {
	deps Dependencies
}

// NewSearchHandler creates a new search handler.
func NewSearchHandler(deps Dependencies) *SearchHandler {
	return &SearchHandler{deps: deps}
}

type searchResponse struct {
	Query string            `json:"query"`
	Items []libraryResponse `json:"items"`
}

// HandleSearch handles GET /api/search?q= requests.
func (h *SearchHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	query := strings.TrimSpace(r.URL.Query().Get("q"))

	hits, err := h.deps.Search(r.Context(), query)
	if err != nil {
		if errors.Is(err, service.ErrQueryTooShort) {
			writeError(w, http.StatusBadRequest, "query_too_short", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}

	locale := strings.ToLower(r.URL.Query().Get("locale"))
	if locale != "es" && locale != "en" {
		locale = h.deps.DefaultLocale()
	}
	items := make([]libraryResponse, 0, len(hits))
	for _, v := range hits {
		items = append(items, toLibraryResponse(v, locale))
	}
	writeJSON(w, http.StatusOK, searchResponse{Query: query, Items: items})
}
