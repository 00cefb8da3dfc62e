// Package conversation maintains the bounded per-user conversation history.
package conversation

import (
	"context"
	"time"

	"github.com/pressfeed/pressfeed/internal/storage"
	"github.com/pressfeed/pressfeed/pkg/types"
)

// DefaultRecentLimit is used when a caller asks for recent history without
// a limit.
const DefaultRecentLimit = 10

// Memory appends and reads conversation exchanges for a profile.
type Memory struct {
	store storage.ProfileStore
}

// New creates a Memory over the given store.
func New(store storage.ProfileStore) *Memory {
	return &Memory{store: store}
}

// History is a window of recent conversation entries. Total counts every
// exchange ever stored for the user, not just the retained window.
type History struct {
	UserID  string                    `json:"user_id"`
	Entries []types.ConversationEntry `json:"conversations"`
	Total   int                       `json:"total_conversations"`
}

// Append stores one user/agent exchange: the entry is appended, the
// all-time conversation counter and last-session timestamp move, and the
// retained history is truncated to the most recent types.MaxConversations
// entries (oldest dropped first).
func (m *Memory) Append(ctx context.Context, userID, userMessage, agentResponse string, extra map[string]interface{}) (*types.UserProfile, error) {
	return m.store.Update(ctx, userID, func(p *types.UserProfile) error {
		now := time.Now()
		p.Conversations = append(p.Conversations, types.ConversationEntry{
			Timestamp: now,
			User:      userMessage,
			Agent:     agentResponse,
			Context:   extra,
		})
		p.Stats.TotalConversations++
		p.Stats.LastSession = &now

		if len(p.Conversations) > types.MaxConversations {
			// Copy instead of re-slicing so the evicted entries can be
			// collected.
			retained := make([]types.ConversationEntry, types.MaxConversations)
			copy(retained, p.Conversations[len(p.Conversations)-types.MaxConversations:])
			p.Conversations = retained
		}
		return nil
	})
}

// Recent returns the most recent limit entries in chronological order
// (oldest of the selected window first). A non-positive limit falls back to
// DefaultRecentLimit.
func (m *Memory) Recent(ctx context.Context, userID string, limit int) (*History, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}

	p, err := m.store.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	entries := p.Conversations
	if len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}

	return &History{
		UserID:  userID,
		Entries: entries,
		Total:   p.Stats.TotalConversations,
	}, nil
}
