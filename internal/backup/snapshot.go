package backup

import (
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/pressfeed/pressfeed/internal/storage"
)

// snapshotJSON copies the JSON document store to destPath. The copy goes
// through a temp file in the destination directory followed by a rename,
// so a partially written snapshot is never left under its final name.
func snapshotJSON(sourcePath, destPath string) error {
	src, err := os.Open(sourcePath)
	if err != nil {
		return fmt.Errorf("open source store: %w", err)
	}
	defer func() { _ = src.Close() }()

	tmp, err := os.CreateTemp(filepath.Dir(destPath), ".snapshot-*.json")
	if err != nil {
		return fmt.Errorf("create temp snapshot: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := io.Copy(tmp, src); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("copy store: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("sync snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("close snapshot: %w", err)
	}
	if err := os.Rename(tmpPath, destPath); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("finalize snapshot: %w", err)
	}
	return nil
}

// verifyJSON checks that a JSON snapshot decodes as a valid profile
// document with a supported schema version.
func verifyJSON(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read snapshot: %w", err)
	}
	if _, err := storage.DecodeDocument(data); err != nil {
		return fmt.Errorf("snapshot is not a valid profile document: %w", err)
	}
	return nil
}

// snapshotSQLite creates a consistent snapshot of the SQLite store using
// VACUUM INTO, which is safe under WAL mode.
func snapshotSQLite(sourcePath, destPath string) error {
	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?mode=ro", sourcePath))
	if err != nil {
		return fmt.Errorf("open source database: %w", err)
	}
	defer func() { _ = db.Close() }()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("ping source database: %w", err)
	}

	if _, err := db.Exec(fmt.Sprintf("VACUUM INTO '%s'", destPath)); err != nil {
		return fmt.Errorf("vacuum into snapshot: %w", err)
	}
	return nil
}

// verifySQLite opens a SQLite snapshot read-only and runs integrity_check.
func verifySQLite(path string) error {
	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?mode=ro", path))
	if err != nil {
		return fmt.Errorf("open snapshot: %w", err)
	}
	defer func() { _ = db.Close() }()

	var result string
	if err := db.QueryRow("PRAGMA integrity_check").Scan(&result); err != nil {
		return fmt.Errorf("run integrity check: %w", err)
	}
	if result != "ok" {
		return fmt.Errorf("integrity check failed: %s", result)
	}
	return nil
}

// snapshot dispatches to the engine-specific snapshot routine.
func snapshot(kind StoreKind, sourcePath, destPath string) error {
	switch kind {
	case KindSQLite:
		return snapshotSQLite(sourcePath, destPath)
	default:
		return snapshotJSON(sourcePath, destPath)
	}
}

// verify dispatches to the engine-specific verification routine.
func verify(kind StoreKind, path string) error {
	switch kind {
	case KindSQLite:
		return verifySQLite(path)
	default:
		return verifyJSON(path)
	}
}

// restore replaces the store at targetPath with the verified snapshot at
// snapshotPath. The store must not be in use while restoring.
func restore(kind StoreKind, snapshotPath, targetPath string) error {
	if err := verify(kind, snapshotPath); err != nil {
		return fmt.Errorf("snapshot verification failed: %w", err)
	}

	src, err := os.Open(snapshotPath)
	if err != nil {
		return fmt.Errorf("open snapshot: %w", err)
	}
	defer func() { _ = src.Close() }()

	dst, err := os.Create(targetPath)
	if err != nil {
		return fmt.Errorf("create target file: %w", err)
	}
	defer func() { _ = dst.Close() }()

	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("copy snapshot: %w", err)
	}
	if err := dst.Sync(); err != nil {
		return fmt.Errorf("sync target file: %w", err)
	}

	if err := verify(kind, targetPath); err != nil {
		return fmt.Errorf("restored store verification failed: %w", err)
	}
	return nil
}
