package handlers

import (
	"net/http"

	"github.com/pressfeed/pressfeed/internal/personalize"
)

// ClientCounter reports how many websocket clients are connected. The hub
// satisfies it; stats work without a hub when events are disabled.
type ClientCounter interface {
	ClientCount() int
}

// StatsHandler serves GET /api/stats.
type StatsHandler struct {
	svc *personalize.Service
	hub ClientCounter // optional
}

// NewStatsHandler creates a stats handler. hub may be nil.
func NewStatsHandler(svc *personalize.Service, hub ClientCounter) *StatsHandler {
	return &StatsHandler{svc: svc, hub: hub}
}

// GetStats handles GET /api/stats.
func (h *StatsHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	users, err := h.svc.Users(r.Context())
	if err != nil {
		respondStoreError(w, "failed to list users", err)
		return
	}

	resp := StatsResponse{Users: len(users)}
	if h.hub != nil {
		resp.ConnectedClients = h.hub.ClientCount()
	}
	respondJSON(w, http.StatusOK, resp)
}
