// Command pressfeed-backup runs the automated profile store backup service.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/pressfeed/pressfeed/internal/backup"
	"github.com/pressfeed/pressfeed/internal/config"
)

var (
	storePath  = flag.String("store", "", "Path to store file (overrides config)")
	backupDir  = flag.String("backup-dir", "", "Snapshot directory (overrides config)")
	interval   = flag.Duration("interval", 0, "Snapshot interval (overrides config)")
	verify     = flag.Bool("verify", true, "Verify snapshots after creation")
	oneshot    = flag.Bool("oneshot", false, "Take a single snapshot and exit")
	restorePth = flag.String("restore", "", "Restore the store from a snapshot file and exit")
	healthCmd  = flag.Bool("health", false, "Check backup service health and exit")
	listCmd    = flag.Bool("list", false, "List all snapshots and exit")
)

func main() {
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	kind := backup.KindJSONFile
	sourcePath := filepath.Join(cfg.Storage.DataPath, "profiles.json")
	if cfg.Storage.Engine == "sqlite" {
		kind = backup.KindSQLite
		sourcePath = filepath.Join(cfg.Storage.DataPath, "pressfeed.db")
	}
	if *storePath != "" {
		sourcePath = *storePath
	}

	dir := cfg.Backup.Path
	if *backupDir != "" {
		dir = *backupDir
	}

	snapshotInterval := 24 * time.Hour
	if cfg.Backup.Interval != "" {
		if d, err := time.ParseDuration(cfg.Backup.Interval); err == nil {
			snapshotInterval = d
		}
	}
	if *interval > 0 {
		snapshotInterval = *interval
	}

	service, err := backup.New(backup.Config{
		Kind:       kind,
		SourcePath: sourcePath,
		Dir:        dir,
		Interval:   snapshotInterval,
		Retention: backup.RetentionPolicy{
			Hourly:  cfg.Backup.RetentionHourly,
			Daily:   cfg.Backup.RetentionDaily,
			Weekly:  cfg.Backup.RetentionWeekly,
			Monthly: cfg.Backup.RetentionMonthly,
		},
		Verify: *verify,
	})
	if err != nil {
		log.Fatalf("Failed to create backup service: %v", err)
	}

	ctx := context.Background()

	switch {
	case *restorePth != "":
		handleRestore(ctx, service, *restorePth)
	case *healthCmd:
		handleHealth(service)
	case *listCmd:
		handleList(service)
	case *oneshot:
		handleOneshot(ctx, service)
	default:
		runService(ctx, service)
	}
}

func handleRestore(ctx context.Context, service *backup.Service, snapshotPath string) {
	log.Printf("Restoring store from snapshot: %s", snapshotPath)
	if err := service.Restore(ctx, snapshotPath); err != nil {
		log.Fatalf("Restore failed: %v", err)
	}
	log.Println("Store restored successfully")
}

func handleHealth(service *backup.Service) {
	health, err := service.Health()
	if err != nil {
		log.Fatalf("Health check failed: %v", err)
	}

	fmt.Printf("Status: %s\n", health.Status)
	if health.Message != "" {
		fmt.Printf("Message: %s\n", health.Message)
	}
	fmt.Printf("Total Snapshots: %d\n", health.TotalBackups)
	fmt.Printf("Disk Space Used: %.2f MB\n", float64(health.DiskSpaceUsed)/(1024*1024))
	fmt.Printf("Snapshot Directory: %s\n", health.Dir)

	if !health.LastBackup.IsZero() {
		fmt.Printf("Last Snapshot: %s (%s ago)\n",
			health.LastBackup.Format(time.RFC3339),
			time.Since(health.LastBackup).Round(time.Minute))
	} else {
		fmt.Println("Last Snapshot: Never")
	}

	if !health.NextBackup.IsZero() {
		fmt.Printf("Next Snapshot: %s (in %s)\n",
			health.NextBackup.Format(time.RFC3339),
			time.Until(health.NextBackup).Round(time.Minute))
	}

	if health.Status != "healthy" {
		os.Exit(1)
	}
}

func handleList(service *backup.Service) {
	snapshots, err := service.List()
	if err != nil {
		log.Fatalf("Failed to list snapshots: %v", err)
	}

	if len(snapshots) == 0 {
		fmt.Println("No snapshots found")
		return
	}

	fmt.Printf("Found %d snapshot(s):\n\n", len(snapshots))
	for i, s := range snapshots {
		fmt.Printf("%d. %s\n", i+1, s.Path)
		fmt.Printf("   Size: %.2f MB\n", float64(s.Size)/(1024*1024))
		fmt.Printf("   Created: %s (%s ago)\n",
			s.Timestamp.Format(time.RFC3339),
			time.Since(s.Timestamp).Round(time.Minute))
		fmt.Println()
	}
}

func handleOneshot(ctx context.Context, service *backup.Service) {
	log.Println("Taking one-time snapshot...")

	result, err := service.SnapshotNow(ctx)
	if err != nil {
		log.Fatalf("Snapshot failed: %v", err)
	}

	log.Printf("Snapshot completed successfully:")
	log.Printf("  Path: %s", result.Path)
	log.Printf("  Size: %.2f MB", float64(result.Size)/(1024*1024))
	log.Printf("  Duration: %v", result.Duration)
	log.Printf("  Verified: %v", result.Verified)
}

func runService(ctx context.Context, service *backup.Service) {
	go func() {
		if err := service.Start(ctx); err != nil && err != context.Canceled {
			log.Printf("Backup service error: %v", err)
		}
	}()

	log.Println("pressfeed backup service started")
	log.Println("Press Ctrl+C to stop")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("Shutting down backup service...")
	if err := service.Stop(); err != nil {
		log.Printf("Warning: %v", err)
	}
	log.Println("Backup service stopped")
}
