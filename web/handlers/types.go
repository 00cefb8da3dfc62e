package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
)

// ErrorResponse is the standard error response format for the API.
type ErrorResponse struct {
	Error   string                 `json:"error"`
	Code    string                 `json:"code"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// StatsResponse is the response format for GET /api/stats.
type StatsResponse struct {
	Users            int `json:"users"`
	ConnectedClients int `json:"connected_clients"`
}

// ConversationRequest is the request body for POST /api/users/{id}/conversations.
type ConversationRequest struct {
	UserMessage   string                 `json:"user_message"`
	AgentResponse string                 `json:"agent_response"`
	Extra         map[string]interface{} `json:"extra,omitempty"`
}

// ProfileUpdateRequest is the request body for PATCH /api/users/{id}/profile.
// Absent fields leave the profile untouched.
type ProfileUpdateRequest struct {
	Name        string                 `json:"name,omitempty"`
	Interests   []string               `json:"interests,omitempty"`
	Preferences map[string]interface{} `json:"preferences,omitempty"`
}

// parseInt parses an integer from a string, returning defaultValue if parsing fails.
func parseInt(s string, defaultValue int) int {
	if s == "" {
		return defaultValue
	}
	val, err := strconv.Atoi(s)
	if err != nil {
		return defaultValue
	}
	return val
}

// respondJSON writes a JSON response with the given status code.
func respondJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Headers are already sent, so just log.
		log.Printf("handlers: failed to encode JSON response: %v", err)
	}
}

// respondError writes an error response with the given status code.
func respondError(w http.ResponseWriter, statusCode int, message string, err error) {
	errResp := ErrorResponse{
		Error: message,
		Code:  http.StatusText(statusCode),
	}
	if err != nil {
		errResp.Details = map[string]interface{}{
			"error": err.Error(),
		}
	}
	respondJSON(w, statusCode, errResp)
}
