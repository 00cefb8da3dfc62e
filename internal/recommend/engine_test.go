package recommend_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pressfeed/pressfeed/internal/ledger"
	"github.com/pressfeed/pressfeed/internal/recommend"
	"github.com/pressfeed/pressfeed/internal/storage/jsonfile"
	"github.com/pressfeed/pressfeed/pkg/types"
)

func newEngine(t *testing.T) (*recommend.Engine, *jsonfile.Store) {
	t.Helper()
	store, err := jsonfile.Open(filepath.Join(t.TempDir(), "profiles.json"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return recommend.New(store), store
}

func TestRecommendUnknownUserEmptyLists(t *testing.T) {
	e, _ := newEngine(t)

	r, err := e.Recommend(context.Background(), "ghost")
	require.NoError(t, err)

	assert.Equal(t, "ghost", r.UserID)
	assert.Empty(t, r.Recommend)
	assert.Empty(t, r.Avoid)
	assert.Empty(t, r.RecentInterests)
	assert.NotNil(t, r.Recommend, "lists serialize as [], not null")
	assert.NotNil(t, r.Avoid)
}

func TestRecommendPartitionsBySign(t *testing.T) {
	e, store := newEngine(t)
	ctx := context.Background()

	_, err := store.Update(ctx, "alice", func(p *types.UserProfile) error {
		p.CategoryScores.Add("tech", 3)
		p.CategoryScores.Add("sports", -1)
		p.CategoryScores.Add("health", 0)
		return nil
	})
	require.NoError(t, err)

	r, err := e.Recommend(ctx, "alice")
	require.NoError(t, err)

	assert.Equal(t, []string{"tech"}, r.Recommend)
	assert.Equal(t, []string{"sports"}, r.Avoid)
	assert.NotContains(t, r.Recommend, "health", "zero-score categories appear in neither list")
	assert.NotContains(t, r.Avoid, "health")
}

func TestRecommendOrderingAndTies(t *testing.T) {
	e, store := newEngine(t)
	ctx := context.Background()

	_, err := store.Update(ctx, "alice", func(p *types.UserProfile) error {
		p.CategoryScores.Add("zebra", 2)
		p.CategoryScores.Add("alpha", 2)
		p.CategoryScores.Add("mango", 5)
		p.CategoryScores.Add("delta", -3)
		p.CategoryScores.Add("bravo", -3)
		p.CategoryScores.Add("echo", -1)
		return nil
	})
	require.NoError(t, err)

	r, err := e.Recommend(ctx, "alice")
	require.NoError(t, err)

	// Positive: score descending, name ascending on ties.
	assert.Equal(t, []string{"mango", "alpha", "zebra"}, r.Recommend)
	// Negative: most negative first, name ascending on ties.
	assert.Equal(t, []string{"bravo", "delta", "echo"}, r.Avoid)
}

func TestRecommendCarriesRecentInterests(t *testing.T) {
	e, store := newEngine(t)
	ctx := context.Background()
	l := ledger.New(store)

	for _, cat := range []string{"tech", "health", "tech"} {
		_, err := l.RecordView(ctx, "alice", "t", "u", cat)
		require.NoError(t, err)
	}

	r, err := e.Recommend(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, []string{"tech", "health"}, r.RecentInterests)
}

func TestRecommendNetZeroAfterOffsettingFeedback(t *testing.T) {
	e, store := newEngine(t)
	ctx := context.Background()
	l := ledger.New(store)

	_, err := l.RecordFeedback(ctx, "alice", "a1", "tech", types.ActionLike)
	require.NoError(t, err)
	_, err = l.RecordFeedback(ctx, "alice", "a2", "tech", types.ActionDislike)
	require.NoError(t, err)

	r, err := e.Recommend(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, r.Recommend)
	assert.Empty(t, r.Avoid)
}
