package conversation_test

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pressfeed/pressfeed/internal/conversation"
	"github.com/pressfeed/pressfeed/internal/storage/jsonfile"
	"github.com/pressfeed/pressfeed/pkg/types"
)

func newMemory(t *testing.T) *conversation.Memory {
	t.Helper()
	store, err := jsonfile.Open(filepath.Join(t.TempDir(), "profiles.json"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return conversation.New(store)
}

func TestAppendRecordsExchange(t *testing.T) {
	m := newMemory(t)
	ctx := context.Background()

	p, err := m.Append(ctx, "alice", "any tech news?", "three stories today", map[string]interface{}{"channel": "email"})
	require.NoError(t, err)

	require.Len(t, p.Conversations, 1)
	assert.Equal(t, "any tech news?", p.Conversations[0].User)
	assert.Equal(t, "three stories today", p.Conversations[0].Agent)
	assert.Equal(t, "email", p.Conversations[0].Context["channel"])
	assert.Equal(t, 1, p.Stats.TotalConversations)
	require.NotNil(t, p.Stats.LastSession)
	assert.Equal(t, p.Conversations[0].Timestamp, *p.Stats.LastSession)
}

func TestAppendTruncatesToRetentionCap(t *testing.T) {
	m := newMemory(t)
	ctx := context.Background()

	var p *types.UserProfile
	var err error
	for i := 1; i <= 150; i++ {
		p, err = m.Append(ctx, "alice", fmt.Sprintf("msg %d", i), "ok", nil)
		require.NoError(t, err)
	}

	require.Len(t, p.Conversations, types.MaxConversations)
	// The oldest 50 were evicted: the window is entries 51..150.
	assert.Equal(t, "msg 51", p.Conversations[0].User)
	assert.Equal(t, "msg 150", p.Conversations[len(p.Conversations)-1].User)
	assert.Equal(t, 150, p.Stats.TotalConversations, "the all-time counter keeps counting past the cap")
}

func TestRecentReturnsChronologicalWindow(t *testing.T) {
	m := newMemory(t)
	ctx := context.Background()

	for i := 1; i <= 20; i++ {
		_, err := m.Append(ctx, "alice", fmt.Sprintf("msg %d", i), "ok", nil)
		require.NoError(t, err)
	}

	h, err := m.Recent(ctx, "alice", 5)
	require.NoError(t, err)

	assert.Equal(t, "alice", h.UserID)
	assert.Equal(t, 20, h.Total)
	require.Len(t, h.Entries, 5)
	assert.Equal(t, "msg 16", h.Entries[0].User)
	assert.Equal(t, "msg 20", h.Entries[4].User)
}

func TestRecentDefaultsLimit(t *testing.T) {
	m := newMemory(t)
	ctx := context.Background()

	for i := 1; i <= 20; i++ {
		_, err := m.Append(ctx, "alice", fmt.Sprintf("msg %d", i), "ok", nil)
		require.NoError(t, err)
	}

	h, err := m.Recent(ctx, "alice", 0)
	require.NoError(t, err)
	assert.Len(t, h.Entries, conversation.DefaultRecentLimit)

	h, err = m.Recent(ctx, "alice", -3)
	require.NoError(t, err)
	assert.Len(t, h.Entries, conversation.DefaultRecentLimit)
}

func TestRecentUnknownUserEmpty(t *testing.T) {
	m := newMemory(t)

	h, err := m.Recent(context.Background(), "ghost", 5)
	require.NoError(t, err)
	assert.Empty(t, h.Entries)
	assert.Equal(t, 0, h.Total)
}

func TestRecentTotalCountsBeyondRetention(t *testing.T) {
	m := newMemory(t)
	ctx := context.Background()

	for i := 1; i <= 120; i++ {
		_, err := m.Append(ctx, "alice", fmt.Sprintf("msg %d", i), "ok", nil)
		require.NoError(t, err)
	}

	h, err := m.Recent(ctx, "alice", 5)
	require.NoError(t, err)
	assert.Equal(t, 120, h.Total)
	assert.Equal(t, "msg 120", h.Entries[len(h.Entries)-1].User)
}
