// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/daordonez11/noreinventeslarueda/internal/domain/model"
)

// AdminHandler handles catalog maintenance requests. These endpoints back
// the sync job that refreshes GitHub data; they carry no scoring logic.
type AdminHandler struct {
	deps Dependencies
}

// NewAdminHandler creates a new admin handler.
func NewAdminHandler(deps Dependencies) *AdminHandler {
	return &AdminHandler{deps: deps}
}

// libraryUpsertRequest mirrors the body accepted by POST /admin/libraries.
type libraryUpsertRequest struct {
	ID             string     `json:"id"`
	CategoryID     string     `json:"category_id"`
	Name           string     `json:"name"`
	DescriptionES  string     `json:"description_es"`
	DescriptionEN  string     `json:"description_en"`
	GithubURL      string     `json:"github_url"`
	GithubID       int64      `json:"github_id"`
	Language       string     `json:"language"`
	Stars          int        `json:"stars"`
	Forks          int        `json:"forks"`
	LastCommitDate *time.Time `json:"last_commit_date"`
	DeprecatedAt   *time.Time `json:"deprecated_at"`
}

func (req libraryUpsertRequest) validate() error {
	switch {
	case strings.TrimSpace(req.Name) == "":
		return errors.New("missing name")
	case req.Stars < 0:
		return errors.New("stars must not be negative")
	case req.Forks < 0:
		return errors.New("forks must not be negative")
	}
	return nil
}

// HandleUpsertLibrary handles POST /admin/libraries requests.
func (h *AdminHandler) HandleUpsertLibrary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req libraryUpsertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	lib, err := h.deps.UpsertLibrary(r.Context(), model.Library{
		ID:             req.ID,
		CategoryID:     req.CategoryID,
		Name:           req.Name,
		DescriptionES:  req.DescriptionES,
		DescriptionEN:  req.DescriptionEN,
		GithubURL:      req.GithubURL,
		GithubID:       req.GithubID,
		Language:       req.Language,
		Stars:          req.Stars,
		Forks:          req.Forks,
		LastCommitDate: req.LastCommitDate,
		DeprecatedAt:   req.DeprecatedAt,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	writeJSON(w, http.StatusOK, lib)
}

// categoryUpsertRequest mirrors the body accepted by POST /admin/categories.
type categoryUpsertRequest struct {
	Slug          string `json:"slug"`
	NameES        string `json:"name_es"`
	NameEN        string `json:"name_en"`
	DescriptionES string `json:"description_es"`
	DescriptionEN string `json:"description_en"`
	Icon          string `json:"icon"`
	DisplayOrder  int    `json:"display_order"`
}

func (req categoryUpsertRequest) validate() error {
	switch {
	case strings.TrimSpace(req.Slug) == "":
		return errors.New("missing slug")
	case strings.TrimSpace(req.NameES) == "":
		return errors.New("missing name_es")
	}
	return nil
}

// HandleUpsertCategory handles POST /admin/categories requests.
func (h *AdminHandler) HandleUpsertCategory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req categoryUpsertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	cat, err := h.deps.UpsertCategory(r.Context(), model.Category{
		Slug:          strings.ToLower(req.Slug),
		NameES:        req.NameES,
		NameEN:        req.NameEN,
		DescriptionES: req.DescriptionES,
		DescriptionEN: req.DescriptionEN,
		Icon:          req.Icon,
		DisplayOrder:  req.DisplayOrder,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	writeJSON(w, http.StatusOK, cat)
}

// HandleInvalidateScores handles POST /admin/invalidate-scores requests.
// Call it after a bulk catalog refresh so cached scores are recomputed.
func (h *AdminHandler) HandleInvalidateScores(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	h.deps.InvalidateScores(r.Context())
	writeJSON(w, http.StatusOK, map[string]string{"status": "invalidated"})
}
