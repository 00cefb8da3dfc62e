package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"net/http"

	"github.com/pressfeed/pressfeed/internal/personalize"
	"github.com/pressfeed/pressfeed/internal/storage"
	"github.com/pressfeed/pressfeed/pkg/types"
)

// Webhook query parameter defaults. Email clients strip parameters more
// often than one would hope, so every field has a fallback.
const (
	defaultUserID    = "demo_user"
	defaultArticleID = "unknown"
	defaultCategory  = "general"
	defaultAction    = types.ActionLike
)

// thankYouHTML is the page shown after a recorded feedback click.
// The first placeholder is the reaction emoji.
const thankYouHTML = `<!DOCTYPE html>
<html>
<head>
    <title>Feedback Recorded</title>
    <style>
        body {
            font-family: Arial, sans-serif;
            display: flex;
            justify-content: center;
            align-items: center;
            height: 100vh;
            margin: 0;
            background: linear-gradient(135deg, #667eea 0%%, #764ba2 100%%);
        }
        .container {
            background: white;
            padding: 40px;
            border-radius: 10px;
            text-align: center;
            box-shadow: 0 4px 6px rgba(0,0,0,0.1);
        }
        h1 { color: #333; margin-bottom: 20px; }
        p { color: #666; font-size: 18px; }
        .emoji { font-size: 64px; margin-bottom: 20px; }
    </style>
</head>
<body>
    <div class="container">
        <div class="emoji">%s</div>
        <h1>Thank You!</h1>
        <p>Your feedback has been recorded.</p>
        <p>We'll use this to personalize your future news digests.</p>
    </div>
</body>
</html>
`

// feedbackErrorHTML is the page shown when recording fails. The placeholder
// is an HTML-escaped failure message.
const feedbackErrorHTML = `<!DOCTYPE html>
<html>
<head>
    <title>Error</title>
    <style>
        body {
            font-family: Arial, sans-serif;
            display: flex;
            justify-content: center;
            align-items: center;
            height: 100vh;
            margin: 0;
            background: #f44336;
        }
        .container {
            background: white;
            padding: 40px;
            border-radius: 10px;
            text-align: center;
        }
    </style>
</head>
<body>
    <div class="container">
        <h1>Oops!</h1>
        <p>Something went wrong recording your feedback.</p>
        <p>%s</p>
    </div>
</body>
</html>
`

// FeedbackHandlers serves the email webhook and the JSON feedback endpoint.
type FeedbackHandlers struct {
	svc *personalize.Service
}

// NewFeedbackHandlers creates feedback handlers over the personalization service.
func NewFeedbackHandlers(svc *personalize.Service) *FeedbackHandlers {
	return &FeedbackHandlers{svc: svc}
}

// Webhook handles GET /feedback, the link target of the like and dislike
// buttons in digest emails. It answers with a human-facing HTML page, never
// JSON, because the caller is a browser opened from an email client.
func (h *FeedbackHandlers) Webhook(w http.ResponseWriter, r *http.Request) {
	if r.URL.RawQuery == "" {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, "<h1>400 Bad Request</h1><p>Missing parameters</p>")
		return
	}

	q := r.URL.Query()
	fb := types.Feedback{
		UserID:    orDefault(q.Get("user_id"), defaultUserID),
		ArticleID: orDefault(q.Get("article_id"), defaultArticleID),
		Category:  orDefault(q.Get("category"), defaultCategory),
		Action:    orDefault(q.Get("action"), defaultAction),
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	if _, err := h.svc.RecordFeedback(r.Context(), fb); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, storage.ErrInvalidInput) {
			status = http.StatusBadRequest
		}
		w.WriteHeader(status)
		fmt.Fprintf(w, feedbackErrorHTML, html.EscapeString(err.Error()))
		return
	}

	emoji := "\U0001F44D" // thumbs up
	if fb.Action == types.ActionDislike {
		emoji = "\U0001F44E"
	}
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, thankYouHTML, emoji)
}

// PostFeedback handles POST /api/feedback, the JSON twin of the webhook.
func (h *FeedbackHandlers) PostFeedback(w http.ResponseWriter, r *http.Request) {
	var fb types.Feedback
	if err := json.NewDecoder(r.Body).Decode(&fb); err != nil {
		respondError(w, http.StatusBadRequest, "failed to parse request body", err)
		return
	}
	if fb.UserID == "" {
		respondError(w, http.StatusBadRequest, "user_id is required", nil)
		return
	}
	if fb.ArticleID == "" {
		fb.ArticleID = defaultArticleID
	}
	if fb.Category == "" {
		fb.Category = defaultCategory
	}

	profile, err := h.svc.RecordFeedback(r.Context(), fb)
	if err != nil {
		if errors.Is(err, storage.ErrInvalidInput) {
			respondError(w, http.StatusBadRequest, "invalid feedback action", err)
			return
		}
		if errors.Is(err, storage.ErrStoreUnavailable) {
			respondError(w, http.StatusServiceUnavailable, "store unavailable", err)
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to record feedback", err)
		return
	}
	respondJSON(w, http.StatusOK, profile)
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
