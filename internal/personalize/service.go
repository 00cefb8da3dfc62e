// Package personalize is the facade consumed by external collaborators: the
// agent tool layer and the webhook front end both call into the
// personalization core through this service.
package personalize

import (
	"context"
	"log"

	"github.com/pressfeed/pressfeed/internal/aggregate"
	"github.com/pressfeed/pressfeed/internal/conversation"
	"github.com/pressfeed/pressfeed/internal/ledger"
	"github.com/pressfeed/pressfeed/internal/notify"
	"github.com/pressfeed/pressfeed/internal/recommend"
	"github.com/pressfeed/pressfeed/internal/storage"
	"github.com/pressfeed/pressfeed/pkg/types"
)

// Service wires the feedback ledger, conversation memory, aggregator and
// recommendation engine over one profile store.
type Service struct {
	store         storage.ProfileStore
	ledger        *ledger.Ledger
	conversations *conversation.Memory
	aggregator    *aggregate.Aggregator
	recommender   *recommend.Engine
	events        *notify.EventWriter // optional
}

// Option configures a Service.
type Option func(*Service)

// WithEvents makes the service emit cross-process notification events after
// successful mutations.
func WithEvents(w *notify.EventWriter) Option {
	return func(s *Service) { s.events = w }
}

// New creates the personalization service over store.
func New(store storage.ProfileStore, opts ...Option) *Service {
	s := &Service{
		store:         store,
		ledger:        ledger.New(store),
		conversations: conversation.New(store),
		aggregator:    aggregate.New(store),
		recommender:   recommend.New(store),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RecordFeedback records a like/dislike for an article and emits a feedback
// event. See ledger.RecordFeedback for the (non-)idempotency contract.
func (s *Service) RecordFeedback(ctx context.Context, fb types.Feedback) (*types.UserProfile, error) {
	p, err := s.ledger.RecordFeedback(ctx, fb.UserID, fb.ArticleID, fb.Category, fb.Action)
	if err != nil {
		return nil, err
	}
	s.emit(notify.Event{
		Type:     notify.EventFeedback,
		UserID:   fb.UserID,
		Category: fb.Category,
		Action:   fb.Action,
	})
	return p, nil
}

// RecordView records an article exposure.
func (s *Service) RecordView(ctx context.Context, userID, title, url, category string) (*types.UserProfile, error) {
	return s.ledger.RecordView(ctx, userID, title, url, category)
}

// RecordSave records a bookmarked article.
func (s *Service) RecordSave(ctx context.Context, userID, title, url, category string) (*types.UserProfile, error) {
	return s.ledger.RecordSave(ctx, userID, title, url, category)
}

// AppendConversation stores one user/agent exchange.
func (s *Service) AppendConversation(ctx context.Context, userID, userMessage, agentResponse string, extra map[string]interface{}) (*types.UserProfile, error) {
	p, err := s.conversations.Append(ctx, userID, userMessage, agentResponse, extra)
	if err != nil {
		return nil, err
	}
	s.emit(notify.Event{Type: notify.EventConversation, UserID: userID})
	return p, nil
}

// ProfileUpdate carries the optional profile fields an update may set.
// Nil/empty fields are left untouched; preferences are merged key by key.
type ProfileUpdate struct {
	Name        string                 `json:"name,omitempty"`
	Interests   []string               `json:"interests,omitempty"`
	Preferences map[string]interface{} `json:"preferences,omitempty"`
}

// UpdateProfile applies the given fields to the user's profile.
func (s *Service) UpdateProfile(ctx context.Context, userID string, update ProfileUpdate) (*types.UserProfile, error) {
	p, err := s.store.Update(ctx, userID, func(p *types.UserProfile) error {
		if update.Name != "" {
			p.Name = update.Name
		}
		if update.Interests != nil {
			p.Interests = append([]string{}, update.Interests...)
		}
		for k, v := range update.Preferences {
			if p.Preferences == nil {
				p.Preferences = map[string]interface{}{}
			}
			p.Preferences[k] = v
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.emit(notify.Event{Type: notify.EventProfileUpdated, UserID: userID})
	return p, nil
}

// RecentConversations returns the most recent limit exchanges.
func (s *Service) RecentConversations(ctx context.Context, userID string, limit int) (*conversation.History, error) {
	return s.conversations.Recent(ctx, userID, limit)
}

// Summary returns the derived profile summary.
func (s *Service) Summary(ctx context.Context, userID string) (*types.ProfileSummary, error) {
	return s.aggregator.Summarize(ctx, userID)
}

// Recommendations returns the category recommendations.
func (s *Service) Recommendations(ctx context.Context, userID string) (*types.Recommendations, error) {
	return s.recommender.Recommend(ctx, userID)
}

// Users lists all known user ids.
func (s *Service) Users(ctx context.Context) ([]string, error) {
	return s.store.Users(ctx)
}

// emit writes a notification event. Event delivery is best-effort: a write
// failure is logged, never surfaced to the mutation that triggered it.
func (s *Service) emit(evt notify.Event) {
	if s.events == nil {
		return
	}
	if err := s.events.Notify(evt); err != nil {
		log.Printf("personalize: emit %s event: %v", evt.Type, err)
	}
}
