// Package recommend ranks content categories from accumulated feedback
// scores.
package recommend

import (
	"context"
	"sort"

	"github.com/pressfeed/pressfeed/internal/storage"
	"github.com/pressfeed/pressfeed/pkg/types"
)

// Engine partitions a profile's scored categories into recommend and avoid
// lists.
type Engine struct {
	store storage.ProfileStore
}

// New creates an Engine over the given store.
func New(store storage.ProfileStore) *Engine {
	return &Engine{store: store}
}

// Recommend reads the profile's category scores and splits them by sign:
// positive scores are recommended (descending by score, name ascending on
// ties), negative scores are avoided (most negative first, name ascending
// on ties). Categories at exactly zero appear in neither list. The recent
// interests are the profile's recent-topics window verbatim.
func (e *Engine) Recommend(ctx context.Context, userID string) (*types.Recommendations, error) {
	p, err := e.store.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	var positive, negative []types.CategoryScore
	for _, entry := range p.CategoryScores.Entries() {
		switch {
		case entry.Score > 0:
			positive = append(positive, entry)
		case entry.Score < 0:
			negative = append(negative, entry)
		}
	}

	sort.Slice(positive, func(i, j int) bool {
		if positive[i].Score != positive[j].Score {
			return positive[i].Score > positive[j].Score
		}
		return positive[i].Category < positive[j].Category
	})
	sort.Slice(negative, func(i, j int) bool {
		if negative[i].Score != negative[j].Score {
			return negative[i].Score < negative[j].Score
		}
		return negative[i].Category < negative[j].Category
	})

	return &types.Recommendations{
		UserID:          userID,
		Recommend:       categories(positive),
		Avoid:           categories(negative),
		RecentInterests: p.Stats.RecentTopics,
	}, nil
}

func categories(entries []types.CategoryScore) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Category)
	}
	return out
}
