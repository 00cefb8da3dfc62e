package types

import "time"

// CategoryScore is a single (category, score) pair in ranking output.
type CategoryScore struct {
	Category string `json:"category"`
	Score    int    `json:"score"`
}

// ProfileSummary is the derived read model produced by the aggregator.
// It embeds the full profile plus computed fields and never feeds back into
// durable state.
type ProfileSummary struct {
	UserID  string      `json:"user_id"`
	Profile UserProfile `json:"profile"`

	// EngagementScore relates interaction volume to viewed volume:
	// (liked + disliked + saved) / max(viewed, 1) * 100, rounded to two
	// decimal places. Feedback can arrive for articles never marked viewed,
	// so the score is unbounded above 100 and deliberately not clamped.
	EngagementScore float64 `json:"engagement_score"`

	// TopInterests are the five highest-scoring categories, descending by
	// score; ties keep first-seen category order.
	TopInterests []CategoryScore `json:"top_interests"`

	TotalLiked    int        `json:"total_articles_liked"`
	TotalDisliked int        `json:"total_articles_disliked"`
	TotalSaved    int        `json:"total_articles_saved"`
	RecentTopics  []string   `json:"recent_topics"`
	LastSession   *time.Time `json:"last_session,omitempty"`
}

// Recommendations partitions a profile's scored categories by sentiment.
// Categories with a net score of exactly zero appear in neither list.
type Recommendations struct {
	UserID string `json:"user_id"`

	// Recommend holds positively scored categories, descending by score,
	// name ascending on ties.
	Recommend []string `json:"recommended_categories"`

	// Avoid holds negatively scored categories, most negative first,
	// name ascending on ties.
	Avoid []string `json:"avoid_categories"`

	// RecentInterests is the profile's recent-topics window verbatim.
	RecentInterests []string `json:"recent_interests"`
}
