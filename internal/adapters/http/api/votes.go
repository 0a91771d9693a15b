// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/daordonez11/noreinventeslarueda/internal/adapters/repository"
	"github.com/daordonez11/noreinventeslarueda/internal/domain/model"
)

// userHeader identifies the voter. Votes are keyed per user so there is no
// anonymous voting.
const userHeader = "X-User-ID"

// VotesHandler handles vote requests for a single library.
type VotesHandler struct {
	deps Dependencies
}

// NewVotesHandler creates a new votes handler.
func NewVotesHandler(deps Dependencies) *VotesHandler {
	return &VotesHandler{deps: deps}
}

// voteRequest mirrors the body accepted by POST .../votes.
type voteRequest struct {
	Value  int  `json:"value"`
	Toggle bool `json:"toggle"`
}

func (v voteRequest) validate() error {
	if v.Value != 1 && v.Value != -1 {
		return errors.New("value must be 1 or -1")
	}
	return nil
}

type voteResponse struct {
	UserID    string    `json:"user_id"`
	LibraryID string    `json:"library_id"`
	Value     int       `json:"value"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type voteStateResponse struct {
	Upvotes   int           `json:"upvotes"`
	Downvotes int           `json:"downvotes"`
	Total     int           `json:"total"`
	MyVote    *voteResponse `json:"my_vote,omitempty"`
}

func toVoteResponse(v model.Vote) voteResponse {
	return voteResponse{
		UserID:    v.UserID,
		LibraryID: v.LibraryID,
		Value:     int(v.Value),
		CreatedAt: v.CreatedAt,
		UpdatedAt: v.UpdatedAt,
	}
}

// HandleVotes dispatches vote requests for one library by method.
func (h *VotesHandler) HandleVotes(w http.ResponseWriter, r *http.Request, libraryID string) {
	switch r.Method {
	case http.MethodGet:
		h.handleGet(w, r, libraryID)
	case http.MethodPost:
		h.handleCast(w, r, libraryID)
	case http.MethodDelete:
		h.handleRemove(w, r, libraryID)
	default:
		http.NotFound(w, r)
	}
}

func (h *VotesHandler) handleGet(w http.ResponseWriter, r *http.Request, libraryID string) {
	counts, err := h.deps.VoteCounts(r.Context(), libraryID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	resp := voteStateResponse{
		Upvotes:   counts.Upvotes,
		Downvotes: counts.Downvotes,
		Total:     counts.Total,
	}
	if userID := strings.TrimSpace(r.Header.Get(userHeader)); userID != "" {
		if vote, err := h.deps.UserVote(r.Context(), userID, libraryID); err == nil {
			vr := toVoteResponse(vote)
			resp.MyVote = &vr
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *VotesHandler) handleCast(w http.ResponseWriter, r *http.Request, libraryID string) {
	userID := strings.TrimSpace(r.Header.Get(userHeader))
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "missing_user", ErrMissingUser)
		return
	}

	var req voteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	value := model.VoteValue(req.Value)

	if req.Toggle {
		vote, err := h.deps.ToggleVote(r.Context(), userID, libraryID, value)
		if err != nil {
			h.writeVoteError(w, err)
			return
		}
		if vote == nil {
			// Same direction toggled off; the vote is gone.
			writeJSON(w, http.StatusOK, voteStateOnly(r, h.deps, libraryID))
			return
		}
		writeJSON(w, http.StatusOK, toVoteResponse(*vote))
		return
	}

	vote, err := h.deps.CastVote(r.Context(), userID, libraryID, value)
	if err != nil {
		h.writeVoteError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toVoteResponse(vote))
}

func (h *VotesHandler) handleRemove(w http.ResponseWriter, r *http.Request, libraryID string) {
	userID := strings.TrimSpace(r.Header.Get(userHeader))
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "missing_user", ErrMissingUser)
		return
	}
	if err := h.deps.RemoveVote(r.Context(), userID, libraryID); err != nil {
		h.writeVoteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *VotesHandler) writeVoteError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repository.ErrInvalidVote), errors.Is(err, repository.ErrMissingIdentity):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	case isNotFound(err):
		writeError(w, http.StatusNotFound, "not_found", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}

// voteStateOnly rebuilds the aggregate response after a toggle cleared the
// caller's vote.
func voteStateOnly(r *http.Request, deps Dependencies, libraryID string) voteStateResponse {
	counts, err := deps.VoteCounts(r.Context(), libraryID)
	if err != nil {
		return voteStateResponse{}
	}
	return voteStateResponse{
		Upvotes:   counts.Upvotes,
		Downvotes: counts.Downvotes,
		Total:     counts.Total,
	}
}
