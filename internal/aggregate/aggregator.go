// Package aggregate computes derived statistics from user profiles.
package aggregate

import (
	"context"
	"math"
	"sort"

	"github.com/pressfeed/pressfeed/internal/storage"
	"github.com/pressfeed/pressfeed/pkg/types"
)

// topInterestCount is how many categories the summary ranks.
const topInterestCount = 5

// Aggregator produces read-only profile summaries. It never mutates the
// profile.
type Aggregator struct {
	store storage.ProfileStore
}

// New creates an Aggregator over the given store.
func New(store storage.ProfileStore) *Aggregator {
	return &Aggregator{store: store}
}

// Summarize reads a consistent snapshot of the profile and computes the
// derived fields.
//
// The engagement score relates interaction volume to viewed volume:
// (liked + disliked + saved) / max(viewed, 1) * 100, rounded to two
// decimals. Feedback can be recorded for articles never marked viewed, so
// the score exceeds 100 in that case; it is intentionally not clamped.
func (a *Aggregator) Summarize(ctx context.Context, userID string) (*types.ProfileSummary, error) {
	p, err := a.store.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	liked := len(p.Interactions.Liked)
	disliked := len(p.Interactions.Disliked)
	saved := len(p.Interactions.Saved)
	viewed := p.Stats.TotalArticlesViewed

	interactions := liked + disliked + saved
	engagement := float64(interactions) / math.Max(float64(viewed), 1) * 100
	engagement = math.Round(engagement*100) / 100

	return &types.ProfileSummary{
		UserID:          userID,
		Profile:         *p,
		EngagementScore: engagement,
		TopInterests:    topInterests(&p.CategoryScores),
		TotalLiked:      liked,
		TotalDisliked:   disliked,
		TotalSaved:      saved,
		RecentTopics:    p.Stats.RecentTopics,
		LastSession:     p.Stats.LastSession,
	}, nil
}

// topInterests ranks categories by score descending. The entries come out
// of the score map in first-seen order and the sort is stable, so equal
// scores keep that order, which is the documented deterministic tie-breaker.
func topInterests(scores *types.CategoryScores) []types.CategoryScore {
	entries := scores.Entries()
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Score > entries[j].Score
	})
	if len(entries) > topInterestCount {
		entries = entries[:topInterestCount]
	}
	return entries
}
