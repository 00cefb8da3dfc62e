// Package sqlite implements storage.ProfileStore using SQLite. Each profile
// is stored as one JSON document row, keyed by user id.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/pressfeed/pressfeed/internal/storage"
	"github.com/pressfeed/pressfeed/pkg/types"
)

// Schema creates the profiles table. All statements are idempotent.
const Schema = `
CREATE TABLE IF NOT EXISTS profiles (
    user_id    TEXT PRIMARY KEY,
    doc        TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// Store implements storage.ProfileStore over SQLite.
type Store struct {
	db *sql.DB
}

// Open creates a SQLite profile store at the given DSN (a file path or
// ":memory:").
func Open(dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("sqlite: %w: dsn is required", storage.ErrInvalidInput)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open database: %w", err)
	}

	// SQLite only supports one concurrent writer. A single open connection
	// serializes transactions and avoids SQLITE_BUSY under concurrent load;
	// together with the transactional read-modify-write in Update this
	// yields the per-user serialization the store contract requires.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("sqlite: %s: %w", pragma, err)
		}
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: apply schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Get returns the profile for userID, or a fresh default for unknown users.
func (s *Store) Get(ctx context.Context, userID string) (*types.UserProfile, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, "SELECT doc FROM profiles WHERE user_id = ?", userID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return types.NewUserProfile(time.Now()), nil
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: load profile %q: %w", userID, err)
	}
	return decodeProfile(userID, raw), nil
}

// Update applies fn to the profile for userID inside one transaction.
// The single-connection pool means transactions execute strictly one after
// another, so a second update for the same user always sees the first's
// effect; a failed transaction rolls back with no visible mutation.
func (s *Store) Update(ctx context.Context, userID string, fn func(*types.UserProfile) error) (*types.UserProfile, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("sqlite: begin update for %q: %w", userID, err)
	}
	defer tx.Rollback()

	profile := types.NewUserProfile(time.Now())
	var raw string
	err = tx.QueryRowContext(ctx, "SELECT doc FROM profiles WHERE user_id = ?", userID).Scan(&raw)
	if err == nil {
		profile = decodeProfile(userID, raw)
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("sqlite: load profile %q: %w", userID, err)
	}

	if err := fn(profile); err != nil {
		return nil, err
	}

	data, err := json.Marshal(profile)
	if err != nil {
		return nil, fmt.Errorf("sqlite: encode profile %q: %w", userID, err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO profiles (user_id, doc)
		VALUES (?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			doc = excluded.doc,
			updated_at = CURRENT_TIMESTAMP
	`, userID, string(data))
	if err != nil {
		return nil, fmt.Errorf("sqlite: store profile %q: %w", userID, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("sqlite: commit update for %q: %w", userID, err)
	}
	return profile.Clone(), nil
}

// Users returns all known user ids in lexical order.
func (s *Store) Users(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT user_id FROM profiles ORDER BY user_id")
	if err != nil {
		return nil, fmt.Errorf("sqlite: list users: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("sqlite: scan user id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: list users: %w", err)
	}
	return ids, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// GetDB exposes the database handle for diagnostics and tests.
func (s *Store) GetDB() *sql.DB {
	return s.db
}

// decodeProfile parses a stored document, recovering with a fresh default
// when the row is corrupt. The bad row stays in place until the next
// successful update overwrites it.
func decodeProfile(userID, raw string) *types.UserProfile {
	var p types.UserProfile
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		log.Printf("sqlite: corrupt profile document for %q: %v (starting fresh)", userID, err)
		return types.NewUserProfile(time.Now())
	}
	return &p
}
