package types

// Feedback actions accepted by the feedback-recording path. Views and saves
// are exposure signals recorded through their own operations; only like and
// dislike carry sentiment and move category scores.
const (
	ActionLike    = "like"
	ActionDislike = "dislike"
)

// IsValidAction reports whether action is an accepted feedback action.
func IsValidAction(action string) bool {
	return action == ActionLike || action == ActionDislike
}

// Feedback is a transient feedback event. It is never stored as-is: recording
// folds it into the profile's interaction lists and category scores.
type Feedback struct {
	UserID    string `json:"user_id"`
	ArticleID string `json:"article_id"`
	Category  string `json:"category"`
	Action    string `json:"action"`
}
