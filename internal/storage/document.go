package storage

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/pressfeed/pressfeed/pkg/types"
)

// SchemaVersion is the current persisted document schema. Version 1
// documents (which kept category scores in a separate preference ledger
// file) decode under the same struct; anything newer than the current
// version is rejected as corrupt rather than silently misread.
const SchemaVersion = 2

// Document is the persisted "memory store": one logical JSON document
// holding every user profile.
type Document struct {
	SchemaVersion int                           `json:"schema_version"`
	CreatedAt     time.Time                     `json:"created_at"`
	LastUpdated   time.Time                     `json:"last_updated"`
	UsersByID     map[string]*types.UserProfile `json:"users_by_id"`
}

// NewDocument returns an empty document at the current schema version.
func NewDocument(now time.Time) *Document {
	return &Document{
		SchemaVersion: SchemaVersion,
		CreatedAt:     now,
		UsersByID:     map[string]*types.UserProfile{},
	}
}

// DecodeDocument parses and validates a persisted document. It returns
// ErrCorruptStore (wrapped with detail) for undecodable bytes or an
// unsupported schema version.
func DecodeDocument(data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptStore, err)
	}
	if doc.SchemaVersion < 1 || doc.SchemaVersion > SchemaVersion {
		return nil, fmt.Errorf("%w: unsupported schema version %d", ErrCorruptStore, doc.SchemaVersion)
	}
	if doc.UsersByID == nil {
		doc.UsersByID = map[string]*types.UserProfile{}
	}
	doc.SchemaVersion = SchemaVersion
	return &doc, nil
}
