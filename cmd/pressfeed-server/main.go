// Command pressfeed-server runs the feedback webhook and profile API.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/pressfeed/pressfeed/internal/config"
	"github.com/pressfeed/pressfeed/internal/notify"
	"github.com/pressfeed/pressfeed/internal/personalize"
	"github.com/pressfeed/pressfeed/internal/server"
	"github.com/pressfeed/pressfeed/internal/storage"
	"github.com/pressfeed/pressfeed/internal/storage/jsonfile"
	"github.com/pressfeed/pressfeed/internal/storage/postgres"
	"github.com/pressfeed/pressfeed/internal/storage/sqlite"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	store, err := openStore(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}
	defer store.Close()

	// Fail fast when the store keeps erroring instead of hammering it.
	store = storage.WithBreaker(store)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var opts []personalize.Option
	var watcher *notify.EventWatcher
	if cfg.Features.EnableEvents {
		opts = append(opts, personalize.WithEvents(notify.NewEventWriter(cfg.Storage.DataPath)))
	}

	svc := personalize.New(store, opts...)

	addr, hub, err := server.Start(ctx, cfg, svc)
	if err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
	log.Printf("pressfeed server running at http://%s", addr)

	// Relay events dropped by any process (this one included) to the
	// websocket hub.
	if cfg.Features.EnableEvents {
		watcher = notify.NewEventWatcher(cfg.Storage.DataPath, func(evt notify.Event) {
			hub.Broadcast(evt)
		})
		if err := watcher.Start(); err != nil {
			log.Printf("Warning: event watcher disabled: %v", err)
			watcher = nil
		}
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Println("Shutting down gracefully...")
	if watcher != nil {
		watcher.Stop()
	}
	cancel()
	time.Sleep(1 * time.Second) // give in-flight connections time to close
}

// openStore opens the profile store selected by the storage engine config.
func openStore(cfg *config.Config) (storage.ProfileStore, error) {
	switch cfg.Storage.Engine {
	case "sqlite":
		return sqlite.Open(filepath.Join(cfg.Storage.DataPath, "pressfeed.db"))
	case "postgres":
		return postgres.Open(cfg.Storage.PostgresDSN)
	default:
		return jsonfile.Open(filepath.Join(cfg.Storage.DataPath, "profiles.json"))
	}
}
