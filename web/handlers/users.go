package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/pressfeed/pressfeed/internal/personalize"
	"github.com/pressfeed/pressfeed/internal/storage"
)

// UserHandlers serves the per-user profile API.
type UserHandlers struct {
	svc *personalize.Service
}

// NewUserHandlers creates user handlers over the personalization service.
func NewUserHandlers(svc *personalize.Service) *UserHandlers {
	return &UserHandlers{svc: svc}
}

// GetSummary handles GET /api/users/{id}/summary.
func (h *UserHandlers) GetSummary(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("id")
	if userID == "" {
		respondError(w, http.StatusBadRequest, "user ID is required", nil)
		return
	}

	summary, err := h.svc.Summary(r.Context(), userID)
	if err != nil {
		respondStoreError(w, "failed to build summary", err)
		return
	}
	respondJSON(w, http.StatusOK, summary)
}

// GetRecommendations handles GET /api/users/{id}/recommendations.
func (h *UserHandlers) GetRecommendations(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("id")
	if userID == "" {
		respondError(w, http.StatusBadRequest, "user ID is required", nil)
		return
	}

	recs, err := h.svc.Recommendations(r.Context(), userID)
	if err != nil {
		respondStoreError(w, "failed to build recommendations", err)
		return
	}
	respondJSON(w, http.StatusOK, recs)
}

// GetConversations handles GET /api/users/{id}/conversations.
// The optional "limit" query parameter bounds the window.
func (h *UserHandlers) GetConversations(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("id")
	if userID == "" {
		respondError(w, http.StatusBadRequest, "user ID is required", nil)
		return
	}

	limit := parseInt(r.URL.Query().Get("limit"), 0)
	history, err := h.svc.RecentConversations(r.Context(), userID, limit)
	if err != nil {
		respondStoreError(w, "failed to load conversations", err)
		return
	}
	respondJSON(w, http.StatusOK, history)
}

// PostConversation handles POST /api/users/{id}/conversations.
func (h *UserHandlers) PostConversation(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("id")
	if userID == "" {
		respondError(w, http.StatusBadRequest, "user ID is required", nil)
		return
	}

	var req ConversationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "failed to parse request body", err)
		return
	}
	if req.UserMessage == "" && req.AgentResponse == "" {
		respondError(w, http.StatusBadRequest, "user_message or agent_response is required", nil)
		return
	}

	profile, err := h.svc.AppendConversation(r.Context(), userID, req.UserMessage, req.AgentResponse, req.Extra)
	if err != nil {
		respondStoreError(w, "failed to append conversation", err)
		return
	}
	respondJSON(w, http.StatusCreated, profile)
}

// PatchProfile handles PATCH /api/users/{id}/profile. Only fields present
// in the body change; preferences merge key by key.
func (h *UserHandlers) PatchProfile(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("id")
	if userID == "" {
		respondError(w, http.StatusBadRequest, "user ID is required", nil)
		return
	}

	var req ProfileUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "failed to parse request body", err)
		return
	}

	profile, err := h.svc.UpdateProfile(r.Context(), userID, personalize.ProfileUpdate{
		Name:        req.Name,
		Interests:   req.Interests,
		Preferences: req.Preferences,
	})
	if err != nil {
		respondStoreError(w, "failed to update profile", err)
		return
	}
	respondJSON(w, http.StatusOK, profile)
}

// respondStoreError maps storage sentinel errors onto HTTP statuses.
func respondStoreError(w http.ResponseWriter, message string, err error) {
	switch {
	case errors.Is(err, storage.ErrInvalidInput):
		respondError(w, http.StatusBadRequest, message, err)
	case errors.Is(err, storage.ErrNotFound):
		respondError(w, http.StatusNotFound, message, err)
	case errors.Is(err, storage.ErrStoreUnavailable):
		respondError(w, http.StatusServiceUnavailable, message, err)
	default:
		respondError(w, http.StatusInternalServerError, message, err)
	}
}
