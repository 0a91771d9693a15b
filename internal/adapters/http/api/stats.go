// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"net/http"
	"time"
)

// StatsProvider exposes catalog and ledger statistics for monitoring.
type StatsProvider interface {
	GetStats() map[string]any
}

// StatsHandler serves operational statistics about the curation service.
type StatsHandler struct {
	statsProvider StatsProvider
	startedAt     time.Time
}

// NewStatsHandler creates a new stats handler.
func NewStatsHandler(statsProvider StatsProvider) *StatsHandler {
	return &StatsHandler{
		statsProvider: statsProvider,
		startedAt:     time.Now(),
	}
}

// HandleStats handles GET /stats requests. The provider's counters are
// augmented with process identity and uptime.
func (h *StatsHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	stats := h.statsProvider.GetStats()
	stats["service"] = "curation"
	stats["uptime"] = time.Since(h.startedAt).Round(time.Second).String()
	writeJSON(w, http.StatusOK, stats)
}
