package backup

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// snapshotPrefix is the filename prefix shared by all snapshots.
const snapshotPrefix = "pressfeed-"

// Service performs scheduled snapshots of the profile store with
// verification and tiered retention.
type Service struct {
	kind       StoreKind
	sourcePath string
	dir        string
	interval   time.Duration
	retention  RetentionPolicy
	verifyEach bool

	mu           sync.Mutex
	running      bool
	stopCh       chan struct{}
	lastSnapshot time.Time
	nextSnapshot time.Time
}

// New creates a backup service. Zero retention tiers and a zero interval
// fall back to defaults.
func New(cfg Config) (*Service, error) {
	if cfg.SourcePath == "" {
		return nil, fmt.Errorf("backup: source path is required")
	}
	if cfg.Dir == "" {
		return nil, fmt.Errorf("backup: snapshot directory is required")
	}
	if cfg.Kind == "" {
		cfg.Kind = KindJSONFile
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 24 * time.Hour
	}
	if cfg.Retention.Hourly == 0 {
		cfg.Retention.Hourly = 24
	}
	if cfg.Retention.Daily == 0 {
		cfg.Retention.Daily = 7
	}
	if cfg.Retention.Weekly == 0 {
		cfg.Retention.Weekly = 4
	}
	if cfg.Retention.Monthly == 0 {
		cfg.Retention.Monthly = 12
	}

	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("backup: create snapshot directory: %w", err)
	}

	return &Service{
		kind:       cfg.Kind,
		sourcePath: cfg.SourcePath,
		dir:        cfg.Dir,
		interval:   cfg.Interval,
		retention:  cfg.Retention,
		verifyEach: cfg.Verify,
		stopCh:     make(chan struct{}),
	}, nil
}

// ext returns the snapshot file extension for the configured store kind.
func (s *Service) ext() string {
	if s.kind == KindSQLite {
		return ".db"
	}
	return ".json"
}

// Start runs the snapshot loop until the context is cancelled or Stop is
// called. It blocks, so callers usually run it in a goroutine.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("backup: service is already running")
	}
	s.running = true
	s.nextSnapshot = time.Now().Add(s.interval)
	s.mu.Unlock()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	log.Printf("backup: service started: interval=%v dir=%s", s.interval, s.dir)

	for {
		select {
		case <-ctx.Done():
			log.Println("backup: service stopping (context cancelled)")
			return ctx.Err()

		case <-s.stopCh:
			log.Println("backup: service stopping (stop requested)")
			return nil

		case <-ticker.C:
			result, err := s.SnapshotNow(ctx)
			if err != nil {
				log.Printf("backup: scheduled snapshot failed: %v", err)
			} else {
				log.Printf("backup: snapshot completed: path=%s size=%d duration=%v verified=%v",
					result.Path, result.Size, result.Duration, result.Verified)
			}

			s.mu.Lock()
			s.nextSnapshot = time.Now().Add(s.interval)
			s.mu.Unlock()
		}
	}
}

// Stop stops the snapshot loop.
func (s *Service) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return fmt.Errorf("backup: service is not running")
	}
	close(s.stopCh)
	s.running = false
	return nil
}

// SnapshotNow takes an immediate snapshot, optionally verifies it, and
// applies the retention policy.
func (s *Service) SnapshotNow(ctx context.Context) (*Result, error) {
	start := time.Now()

	if _, err := os.Stat(s.sourcePath); err != nil {
		return nil, fmt.Errorf("backup: store not found: %w", err)
	}

	// Microsecond precision keeps names unique under rapid snapshots.
	stamp := time.Now().Format("20060102-150405.000000")
	destPath := filepath.Join(s.dir, snapshotPrefix+stamp+s.ext())

	if err := snapshot(s.kind, s.sourcePath, destPath); err != nil {
		return &Result{Path: destPath, Duration: time.Since(start), Error: err}, err
	}

	info, err := os.Stat(destPath)
	if err != nil {
		err = fmt.Errorf("backup: stat snapshot: %w", err)
		return &Result{Path: destPath, Duration: time.Since(start), Error: err}, err
	}

	result := &Result{
		Path:     destPath,
		Duration: time.Since(start),
		Size:     info.Size(),
	}

	if s.verifyEach {
		if err := verify(s.kind, destPath); err != nil {
			result.Error = fmt.Errorf("backup: verification failed: %w", err)
			return result, result.Error
		}
		result.Verified = true
	}

	s.mu.Lock()
	s.lastSnapshot = time.Now()
	s.mu.Unlock()

	if err := applyRetention(s.dir, s.ext(), s.retention); err != nil {
		// Retention failures never fail the snapshot itself.
		log.Printf("backup: retention pass failed: %v", err)
	}

	return result, nil
}

// List returns metadata for all stored snapshots, newest first.
func (s *Service) List() ([]Info, error) {
	return listSnapshots(s.dir, s.ext())
}

// Restore replaces the live store with the given snapshot. The service
// must be stopped and the store closed before calling this.
func (s *Service) Restore(ctx context.Context, snapshotPath string) error {
	s.mu.Lock()
	running := s.running
	s.mu.Unlock()

	if running {
		return fmt.Errorf("backup: cannot restore while service is running")
	}
	if _, err := os.Stat(snapshotPath); err != nil {
		return fmt.Errorf("backup: snapshot not found: %w", err)
	}

	// Keep a pre-restore copy of the current store so a failed restore
	// can roll back.
	preRestore := s.sourcePath + ".pre-restore"
	if _, err := os.Stat(s.sourcePath); err == nil {
		if err := snapshot(s.kind, s.sourcePath, preRestore); err != nil {
			return fmt.Errorf("backup: create pre-restore copy: %w", err)
		}
		defer func() { _ = os.Remove(preRestore) }()
	}

	if err := restore(s.kind, snapshotPath, s.sourcePath); err != nil {
		if _, statErr := os.Stat(preRestore); statErr == nil {
			if rbErr := restore(s.kind, preRestore, s.sourcePath); rbErr != nil {
				return fmt.Errorf("backup: restore failed and rollback failed: %v (restore error: %w)", rbErr, err)
			}
			return fmt.Errorf("backup: restore failed, rolled back to previous state: %w", err)
		}
		return err
	}

	log.Printf("backup: store restored from snapshot: %s", snapshotPath)
	return nil
}

// Health reports the current snapshot schedule and storage usage.
func (s *Service) Health() (*Health, error) {
	s.mu.Lock()
	last := s.lastSnapshot
	next := s.nextSnapshot
	s.mu.Unlock()

	snapshots, err := s.List()
	if err != nil {
		return nil, fmt.Errorf("backup: list snapshots: %w", err)
	}

	var usage int64
	for _, snap := range snapshots {
		usage += snap.Size
	}

	status := &Health{
		LastBackup:    last,
		NextBackup:    next,
		TotalBackups:  len(snapshots),
		Dir:           s.dir,
		DiskSpaceUsed: usage,
		Status:        "healthy",
	}

	switch {
	case !last.IsZero() && time.Since(last) > s.interval*2:
		status.Status = "warning"
		status.Message = fmt.Sprintf("snapshot overdue by %v", time.Since(last)-s.interval)
	case last.IsZero():
		status.Message = "no snapshots yet"
	default:
		status.Message = fmt.Sprintf("last snapshot %v ago", time.Since(last).Round(time.Minute))
	}

	return status, nil
}
