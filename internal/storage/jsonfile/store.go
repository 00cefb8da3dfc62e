// Package jsonfile implements storage.ProfileStore over a single JSON
// document on disk.
//
// The whole store is one versioned document (see storage.Document). An
// in-memory copy is authoritative between writes; durability comes from
// writing a complete replacement file and renaming it over the old one in a
// single step, so a writer that dies mid-write can never leave a
// half-written, unreadable store behind.
package jsonfile

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/pressfeed/pressfeed/internal/storage"
	"github.com/pressfeed/pressfeed/pkg/types"
)

// Store is a JSON-file-backed profile store.
//
// Concurrency model: one mutex per user id serializes read-modify-write
// cycles for that user; mutation functions for different users run in
// parallel. Only the document swap itself is serialized (writeMu), and the
// swapped document is always rebuilt from the latest in-memory state, so a
// concurrent writer for another user can never be lost.
type Store struct {
	path string

	mu  sync.RWMutex // guards doc
	doc *storage.Document

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex

	writeMu sync.Mutex // serializes file replacement
}

// Open loads (or initializes) the store at path. A missing file starts an
// empty store; a corrupt or unreadable file is logged and also treated as
// empty; prior data is left on disk untouched until the first successful
// write replaces it.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("jsonfile: %w: store path is required", storage.ErrInvalidInput)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("jsonfile: create data directory: %w", err)
	}

	s := &Store{
		path:  path,
		locks: map[string]*sync.Mutex{},
	}
	s.doc = s.load()
	return s, nil
}

// load reads the durable document, falling back to an empty one on any
// decode failure. A corrupt store must never propagate its corruption
// into callers.
func (s *Store) load() *storage.Document {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return storage.NewDocument(time.Now())
	}
	if err != nil {
		log.Printf("jsonfile: read %s: %v (starting empty)", s.path, err)
		return storage.NewDocument(time.Now())
	}

	doc, err := storage.DecodeDocument(data)
	if err != nil {
		log.Printf("jsonfile: %s: %v (starting empty)", s.path, err)
		return storage.NewDocument(time.Now())
	}
	return doc
}

// Get returns a copy of the profile for userID, or a fresh default for an
// unknown user. The default is not persisted; the first Update is.
func (s *Store) Get(ctx context.Context, userID string) (*types.UserProfile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if p, ok := s.doc.UsersByID[userID]; ok {
		return p.Clone(), nil
	}
	return types.NewUserProfile(time.Now()), nil
}

// Update applies fn to the current profile for userID and persists the
// result as a single atomic replacement of the store file. If fn fails or
// the write fails, neither memory nor disk changes.
func (s *Store) Update(ctx context.Context, userID string, fn func(*types.UserProfile) error) (*types.UserProfile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	s.mu.RLock()
	var profile *types.UserProfile
	if p, ok := s.doc.UsersByID[userID]; ok {
		profile = p.Clone()
	} else {
		profile = types.NewUserProfile(time.Now())
	}
	s.mu.RUnlock()

	if err := fn(profile); err != nil {
		return nil, err
	}

	if err := s.commit(userID, profile); err != nil {
		return nil, err
	}
	return profile.Clone(), nil
}

// commit rebuilds the document with the updated profile and swaps it onto
// disk, then into memory. Callers hold the per-user lock for userID.
func (s *Store) commit(userID string, profile *types.UserProfile) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	// Rebuild from the latest in-memory state: a writer for another user
	// may have swapped a newer document in while we were mutating.
	s.mu.RLock()
	next := &storage.Document{
		SchemaVersion: storage.SchemaVersion,
		CreatedAt:     s.doc.CreatedAt,
		LastUpdated:   time.Now(),
		UsersByID:     make(map[string]*types.UserProfile, len(s.doc.UsersByID)+1),
	}
	for id, p := range s.doc.UsersByID {
		next.UsersByID[id] = p
	}
	s.mu.RUnlock()
	next.UsersByID[userID] = profile

	if err := s.persist(next); err != nil {
		return err
	}

	s.mu.Lock()
	s.doc = next
	s.mu.Unlock()
	return nil
}

// persist writes doc to a temp file in the same directory, syncs it, and
// renames it over the store file. In-place mutation of the durable file is
// never attempted.
func (s *Store) persist(doc *storage.Document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("jsonfile: encode store: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("jsonfile: create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("jsonfile: write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("jsonfile: sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("jsonfile: close temp file: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("jsonfile: replace store file: %w", err)
	}
	return nil
}

// Users returns all known user ids, sorted for deterministic output.
func (s *Store) Users(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.doc.UsersByID))
	for id := range s.doc.UsersByID {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// Path returns the store file location (used by the backup service).
func (s *Store) Path() string {
	return s.path
}

// Close releases the store. All writes are synchronous, so there is nothing
// to flush.
func (s *Store) Close() error {
	return nil
}

func (s *Store) userLock(userID string) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()

	if l, ok := s.locks[userID]; ok {
		return l
	}
	l := &sync.Mutex{}
	s.locks[userID] = l
	return l
}
