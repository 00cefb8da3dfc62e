// Package storage defines the profile persistence contract shared by all
// storage engines.
//
// Every mutation in the system funnels through ProfileStore.Update, which
// carries the central correctness property: updates for the same user id
// are strictly serialized (no lost updates), while updates for different
// user ids may proceed concurrently. Loading the whole document, mutating
// and writing it back with no guard loses updates under concurrency;
// engines here own their own per-key serialization instead.
package storage

import (
	"context"

	"github.com/pressfeed/pressfeed/pkg/types"
)

// ProfileStore provides durable access to user profiles keyed by an opaque
// user id.
type ProfileStore interface {
	// Get returns the profile for userID, or a fresh default profile when
	// the user is unknown. Unknown users are never an error; the default is
	// not persisted until the first Update. Callers receive a private copy.
	Get(ctx context.Context, userID string) (*types.UserProfile, error)

	// Update applies fn to the current profile for userID (materializing a
	// default first for unknown users) and persists the result atomically.
	// Updates for the same user id are serialized: the second caller sees
	// the first caller's effect. If fn returns an error, or persistence
	// fails, no mutation becomes visible and the prior durable state stays
	// authoritative. On success the updated profile is returned.
	Update(ctx context.Context, userID string, fn func(*types.UserProfile) error) (*types.UserProfile, error)

	// Users returns all known user ids. Profiles are never expired or
	// evicted by this subsystem, so this is the hook an external
	// retention job would build on.
	Users(ctx context.Context) ([]string, error)

	// Close releases any resources held by the store.
	Close() error
}
