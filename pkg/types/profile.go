package types

import "time"

const (
	// MaxConversations is the number of conversation entries retained per
	// profile. Older entries are evicted first (FIFO).
	MaxConversations = 100

	// MaxRecentTopics is the size of the recent-topics window in profile stats.
	MaxRecentTopics = 5
)

// UserProfile is the durable per-user personalization record. One profile
// exists per opaque user id; it is created lazily on first access and never
// deleted (retention is an explicit non-decision, see the store docs).
type UserProfile struct {
	// CreatedAt is set once when the profile is first materialized.
	CreatedAt time.Time `json:"created_at"`

	// Name is the optional display name.
	Name string `json:"name,omitempty"`

	// Interests are explicit, user-declared topic strings in declaration order.
	Interests []string `json:"interests"`

	// Preferences holds free-form preference keys (summary length, language, ...).
	Preferences map[string]interface{} `json:"preferences"`

	// Conversations is the retained exchange history, newest last,
	// capped at MaxConversations.
	Conversations []ConversationEntry `json:"conversations"`

	// Interactions are the per-action article interaction lists.
	Interactions Interactions `json:"interactions"`

	// CategoryScores is the cumulative like/dislike score per category.
	// It is only ever adjusted by feedback recording, never overwritten.
	CategoryScores CategoryScores `json:"category_scores"`

	// Stats holds maintained counters and the recent-topics window.
	Stats Stats `json:"stats"`
}

// ConversationEntry is one stored user/agent exchange.
type ConversationEntry struct {
	Timestamp time.Time              `json:"timestamp"`
	User      string                 `json:"user"`
	Agent     string                 `json:"agent"`
	Context   map[string]interface{} `json:"context,omitempty"`
}

// ArticleInteraction records a single interaction with an article.
// The view/save paths populate Title and URL; the feedback path only knows
// an article id, so it populates ArticleID instead. Both shapes live in the
// same lists (the old separate preference ledger is a projection of these).
type ArticleInteraction struct {
	Timestamp time.Time `json:"timestamp"`
	Title     string    `json:"title,omitempty"`
	URL       string    `json:"url,omitempty"`
	ArticleID string    `json:"article_id,omitempty"`
	Category  string    `json:"category"`
}

// Interactions groups article interactions by action.
type Interactions struct {
	Viewed   []ArticleInteraction `json:"viewed"`
	Liked    []ArticleInteraction `json:"liked"`
	Disliked []ArticleInteraction `json:"disliked"`
	Saved    []ArticleInteraction `json:"saved"`
}

// Stats holds maintained per-profile counters. EngagementScore is *derived*
// on read by the aggregator and deliberately not stored here.
type Stats struct {
	TotalConversations  int `json:"total_conversations"`
	TotalArticlesViewed int `json:"total_articles_viewed"`
	TotalEmailsSent     int `json:"total_emails_sent"`

	// RecentTopics is a FIFO window of the last MaxRecentTopics distinct
	// topics touched by views. A topic already present is not re-appended
	// and keeps its position.
	RecentTopics []string `json:"recent_topics"`

	// LastSession is the time of the most recent conversation append.
	LastSession *time.Time `json:"last_session,omitempty"`

	// PendingQuestions is carried for schema fidelity with older documents;
	// no operation in this service mutates it.
	PendingQuestions []string `json:"pending_questions"`
}

// NewUserProfile returns a default profile with all sequences empty and all
// counters zero. Collections are non-nil so a freshly created profile is
// indistinguishable from a persisted-then-reloaded empty one.
func NewUserProfile(now time.Time) *UserProfile {
	return &UserProfile{
		CreatedAt:     now,
		Interests:     []string{},
		Preferences:   map[string]interface{}{},
		Conversations: []ConversationEntry{},
		Interactions: Interactions{
			Viewed:   []ArticleInteraction{},
			Liked:    []ArticleInteraction{},
			Disliked: []ArticleInteraction{},
			Saved:    []ArticleInteraction{},
		},
		CategoryScores: NewCategoryScores(),
		Stats: Stats{
			RecentTopics:     []string{},
			PendingQuestions: []string{},
		},
	}
}

// TouchTopic inserts topic into the recent-topics window with FIFO-dedup
// semantics: a topic already present is left untouched; otherwise it is
// appended and the oldest entry is evicted when the window exceeds
// MaxRecentTopics.
func (s *Stats) TouchTopic(topic string) {
	for _, t := range s.RecentTopics {
		if t == topic {
			return
		}
	}
	s.RecentTopics = append(s.RecentTopics, topic)
	if len(s.RecentTopics) > MaxRecentTopics {
		s.RecentTopics = s.RecentTopics[len(s.RecentTopics)-MaxRecentTopics:]
	}
}

// Clone returns a deep copy of the profile. Stores hand out clones so
// callers can never mutate durable state outside an Update transaction.
func (p *UserProfile) Clone() *UserProfile {
	if p == nil {
		return nil
	}
	cp := *p
	cp.Interests = cloneStrings(p.Interests)
	cp.Preferences = cloneValueMap(p.Preferences)
	if p.Conversations != nil {
		cp.Conversations = make([]ConversationEntry, len(p.Conversations))
		for i, c := range p.Conversations {
			cp.Conversations[i] = c
			cp.Conversations[i].Context = cloneValueMap(c.Context)
		}
	}
	cp.Interactions = Interactions{
		Viewed:   cloneInteractions(p.Interactions.Viewed),
		Liked:    cloneInteractions(p.Interactions.Liked),
		Disliked: cloneInteractions(p.Interactions.Disliked),
		Saved:    cloneInteractions(p.Interactions.Saved),
	}
	cp.CategoryScores = p.CategoryScores.Clone()
	cp.Stats.RecentTopics = cloneStrings(p.Stats.RecentTopics)
	cp.Stats.PendingQuestions = cloneStrings(p.Stats.PendingQuestions)
	if p.Stats.LastSession != nil {
		ts := *p.Stats.LastSession
		cp.Stats.LastSession = &ts
	}
	return &cp
}

// cloneStrings copies a string slice, preserving nil-ness and emptiness so a
// clone compares deeply equal to its source.
func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	cp := make([]string, len(s))
	copy(cp, s)
	return cp
}

func cloneInteractions(s []ArticleInteraction) []ArticleInteraction {
	if s == nil {
		return nil
	}
	cp := make([]ArticleInteraction, len(s))
	copy(cp, s)
	return cp
}

func cloneValueMap(m map[string]interface{}) map[string]interface{} {
	if m == nil {
		return nil
	}
	cp := make(map[string]interface{}, len(m))
	for k, v := range m {
		cp[k] = v
	}
	return cp
}
