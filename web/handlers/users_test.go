package handlers_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pressfeed/pressfeed/internal/conversation"
	"github.com/pressfeed/pressfeed/internal/personalize"
	"github.com/pressfeed/pressfeed/pkg/types"
	"github.com/pressfeed/pressfeed/web/handlers"
)

func userRequest(method, path, userID string, body string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	req.SetPathValue("id", userID)
	return req
}

func TestGetSummary(t *testing.T) {
	svc := newTestService(t)
	h := handlers.NewUserHandlers(svc)
	ctx := context.Background()

	_, err := svc.RecordFeedback(ctx, types.Feedback{
		UserID: "alice", ArticleID: "a1", Category: "science", Action: types.ActionLike,
	})
	require.NoError(t, err)
	_, err = svc.RecordView(ctx, "alice", "Fusion milestone", "https://example.com/f", "science")
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	h.GetSummary(rec, userRequest(http.MethodGet, "/api/users/alice/summary", "alice", ""))
	require.Equal(t, http.StatusOK, rec.Code)

	var summary types.ProfileSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Equal(t, "alice", summary.UserID)
	assert.Equal(t, 1, summary.TotalLiked)
	assert.InDelta(t, 100.0, summary.EngagementScore, 0.001)
	assert.Equal(t, []string{"science"}, summary.RecentTopics)
}

func TestGetSummaryUnknownUserIsDefault(t *testing.T) {
	h := handlers.NewUserHandlers(newTestService(t))

	rec := httptest.NewRecorder()
	h.GetSummary(rec, userRequest(http.MethodGet, "/api/users/ghost/summary", "ghost", ""))
	require.Equal(t, http.StatusOK, rec.Code)

	var summary types.ProfileSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Zero(t, summary.EngagementScore)
	assert.Empty(t, summary.TopInterests)
}

func TestGetSummaryRequiresUserID(t *testing.T) {
	h := handlers.NewUserHandlers(newTestService(t))

	rec := httptest.NewRecorder()
	h.GetSummary(rec, userRequest(http.MethodGet, "/api/users//summary", "", ""))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetRecommendations(t *testing.T) {
	svc := newTestService(t)
	h := handlers.NewUserHandlers(svc)
	ctx := context.Background()

	_, err := svc.RecordFeedback(ctx, types.Feedback{
		UserID: "alice", ArticleID: "a1", Category: "science", Action: types.ActionLike,
	})
	require.NoError(t, err)
	_, err = svc.RecordFeedback(ctx, types.Feedback{
		UserID: "alice", ArticleID: "a2", Category: "sports", Action: types.ActionDislike,
	})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	h.GetRecommendations(rec, userRequest(http.MethodGet, "/api/users/alice/recommendations", "alice", ""))
	require.Equal(t, http.StatusOK, rec.Code)

	var recs types.Recommendations
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &recs))
	assert.Equal(t, []string{"science"}, recs.Recommend)
	assert.Equal(t, []string{"sports"}, recs.Avoid)
}

func TestConversationEndpointsRoundTrip(t *testing.T) {
	svc := newTestService(t)
	h := handlers.NewUserHandlers(svc)

	for i := 1; i <= 3; i++ {
		body := fmt.Sprintf(`{"user_message":"question %d","agent_response":"answer %d"}`, i, i)
		rec := httptest.NewRecorder()
		h.PostConversation(rec, userRequest(http.MethodPost, "/api/users/alice/conversations", "alice", body))
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := httptest.NewRecorder()
	h.GetConversations(rec, userRequest(http.MethodGet, "/api/users/alice/conversations?limit=2", "alice", ""))
	require.Equal(t, http.StatusOK, rec.Code)

	var history conversation.History
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &history))
	assert.Equal(t, 3, history.Total)
	require.Len(t, history.Entries, 2)
	assert.Equal(t, "question 2", history.Entries[0].User)
	assert.Equal(t, "question 3", history.Entries[1].User)
}

func TestPostConversationRequiresContent(t *testing.T) {
	h := handlers.NewUserHandlers(newTestService(t))

	rec := httptest.NewRecorder()
	h.PostConversation(rec, userRequest(http.MethodPost, "/api/users/alice/conversations", "alice", `{}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "user_message or agent_response is required")
}

func TestPatchProfile(t *testing.T) {
	svc := newTestService(t)
	h := handlers.NewUserHandlers(svc)

	body := `{"name":"Alice","interests":["space"],"preferences":{"format":"short"}}`
	rec := httptest.NewRecorder()
	h.PatchProfile(rec, userRequest(http.MethodPatch, "/api/users/alice/profile", "alice", body))
	require.Equal(t, http.StatusOK, rec.Code)

	var profile types.UserProfile
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &profile))
	assert.Equal(t, "Alice", profile.Name)
	assert.Equal(t, []string{"space"}, profile.Interests)
	assert.Equal(t, "short", profile.Preferences["format"])

	// A second patch that only merges a preference leaves the rest intact.
	rec = httptest.NewRecorder()
	h.PatchProfile(rec, userRequest(http.MethodPatch, "/api/users/alice/profile", "alice",
		`{"preferences":{"digest_hour":8}}`))
	require.Equal(t, http.StatusOK, rec.Code)

	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &profile))
	assert.Equal(t, "Alice", profile.Name)
	assert.Equal(t, "short", profile.Preferences["format"])
	assert.EqualValues(t, 8, profile.Preferences["digest_hour"])
}

func TestPatchProfileRejectsBadJSON(t *testing.T) {
	h := handlers.NewUserHandlers(newTestService(t))

	rec := httptest.NewRecorder()
	h.PatchProfile(rec, userRequest(http.MethodPatch, "/api/users/alice/profile", "alice", "{"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetStats(t *testing.T) {
	svc := newTestService(t)
	h := handlers.NewStatsHandler(svc, fixedCounter(3))

	_, err := svc.UpdateProfile(context.Background(), "alice", personalize.ProfileUpdate{Name: "Alice"})
	require.NoError(t, err)
	_, err = svc.UpdateProfile(context.Background(), "bob", personalize.ProfileUpdate{Name: "Bob"})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	h.GetStats(rec, httptest.NewRequest(http.MethodGet, "/api/stats", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var stats handlers.StatsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, 2, stats.Users)
	assert.Equal(t, 3, stats.ConnectedClients)
}

func TestGetStatsWithoutHub(t *testing.T) {
	h := handlers.NewStatsHandler(newTestService(t), nil)

	rec := httptest.NewRecorder()
	h.GetStats(rec, httptest.NewRequest(http.MethodGet, "/api/stats", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var stats handlers.StatsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Zero(t, stats.ConnectedClients)
}

type fixedCounter int

func (c fixedCounter) ClientCount() int { return int(c) }
