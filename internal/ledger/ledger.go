// Package ledger records article feedback and exposure signals against user
// profiles.
package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/pressfeed/pressfeed/internal/storage"
	"github.com/pressfeed/pressfeed/pkg/types"
)

// ErrInvalidAction is returned for feedback actions other than "like" or
// "dislike". It is rejected before any mutation; the store is untouched.
var ErrInvalidAction = fmt.Errorf("%w: action must be %q or %q",
	storage.ErrInvalidInput, types.ActionLike, types.ActionDislike)

// Ledger folds feedback events into profiles through the store's update
// transaction.
type Ledger struct {
	store storage.ProfileStore
}

// New creates a Ledger over the given store.
func New(store storage.ProfileStore) *Ledger {
	return &Ledger{store: store}
}

// RecordFeedback records a like or dislike for an article: the interaction
// is appended to the matching list and the category score moves by +1/-1.
//
// Recording is deliberately NOT idempotent: the webhook that feeds this
// path delivers at least once, and recording the same feedback twice
// doubles its effect. Callers needing idempotence must dedupe by article id
// before calling.
func (l *Ledger) RecordFeedback(ctx context.Context, userID, articleID, category, action string) (*types.UserProfile, error) {
	if !types.IsValidAction(action) {
		return nil, ErrInvalidAction
	}

	return l.store.Update(ctx, userID, func(p *types.UserProfile) error {
		interaction := types.ArticleInteraction{
			Timestamp: time.Now(),
			ArticleID: articleID,
			Category:  category,
		}

		switch action {
		case types.ActionLike:
			p.Interactions.Liked = append(p.Interactions.Liked, interaction)
			p.CategoryScores.Add(category, 1)
		case types.ActionDislike:
			p.Interactions.Disliked = append(p.Interactions.Disliked, interaction)
			p.CategoryScores.Add(category, -1)
		}
		return nil
	})
}

// RecordView records that an article was shown to the user. Views are
// exposure signals, not sentiment signals: the viewed list, the view
// counter and the recent-topics window move, category scores do not.
func (l *Ledger) RecordView(ctx context.Context, userID, title, url, category string) (*types.UserProfile, error) {
	return l.store.Update(ctx, userID, func(p *types.UserProfile) error {
		p.Interactions.Viewed = append(p.Interactions.Viewed, types.ArticleInteraction{
			Timestamp: time.Now(),
			Title:     title,
			URL:       url,
			Category:  category,
		})
		p.Stats.TotalArticlesViewed++
		p.Stats.TouchTopic(category)
		return nil
	})
}

// RecordSave records a bookmarked article. Saves affect neither counters
// nor scores.
func (l *Ledger) RecordSave(ctx context.Context, userID, title, url, category string) (*types.UserProfile, error) {
	return l.store.Update(ctx, userID, func(p *types.UserProfile) error {
		p.Interactions.Saved = append(p.Interactions.Saved, types.ArticleInteraction{
			Timestamp: time.Now(),
			Title:     title,
			URL:       url,
			Category:  category,
		})
		return nil
	})
}
