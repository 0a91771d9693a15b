// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"net/http"
	"strings"
)

// CategoriesHandler handles category listing requests.
type CategoriesHandler struct {
	deps Dependencies
}

// NewCategoriesHandler creates a new categories handler.
func NewCategoriesHandler(deps Dependencies) *CategoriesHandler {
	return &CategoriesHandler{deps: deps}
}

type categoryResponse struct {
	ID           string `json:"id"`
	Slug         string `json:"slug"`
	Name         string `json:"name"`
	Description  string `json:"description,omitempty"`
	DisplayOrder int    `json:"display_order"`
}

// HandleList handles GET /api/categories requests.
func (h *CategoriesHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	locale := strings.ToLower(r.URL.Query().Get("locale"))
	if locale != "es" && locale != "en" {
		locale = h.deps.DefaultLocale()
	}

	cats, err := h.deps.Categories(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	out := make([]categoryResponse, 0, len(cats))
	for _, c := range cats {
		out = append(out, categoryResponse{
			ID:           c.ID,
			Slug:         c.Slug,
			Name:         c.Name(locale),
			Description:  c.Description(locale),
			DisplayOrder: c.DisplayOrder,
		})
	}
	writeJSON(w, http.StatusOK, out)
}
