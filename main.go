package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"media-cache/internal/config"
	"media-cache/internal/handlers"
	"media-cache/internal/importer"
	"media-cache/internal/logging"
	"media-cache/internal/optimizer"
	"media-cache/internal/scanner"
	"media-cache/internal/store"
	"media-cache/internal/tasks"
)

const defaultPort = "8590"

func main() {
	startTime := time.Now()

	dataDir, err := config.DefaultDir()
	if err != nil {
		logging.Fatal("Cannot resolve data directory: %v", err)
	}
	cfg, err := config.Load(dataDir)
	if err != nil {
		logging.Fatal("Configuration error: %v", err)
	}

	if err := optimizer.InitVips(); err != nil {
		logging.Warn("libvips unavailable, HEIC decoding disabled: %v", err)
	}
	defer optimizer.ShutdownVips()

	st, err := store.New(context.Background(), filepath.Join(dataDir, "cache.db"))
	if err != nil {
		logging.Fatal("Failed to initialize cache store: %v", err)
	}
	defer func() {
		if err := st.Close(); err != nil {
			logging.Error("Failed to close cache store: %v", err)
		}
	}()

	registry := tasks.NewRegistry()
	opt := optimizer.New(cfg, st, registry)
	sc := scanner.New(st)
	im := importer.New(cfg, st)

	watcher := startWatcher(cfg, st)
	if watcher != nil {
		defer func() {
			if err := watcher.Close(); err != nil {
				logging.Error("Failed to close watcher: %v", err)
			}
		}()
	}

	h := handlers.New(cfg, st, registry, opt, sc, im)

	port := os.Getenv("MEDIA_CACHE_PORT")
	if port == "" {
		port = defaultPort
	}

	srv := &http.Server{
		Addr:         "127.0.0.1:" + port,
		Handler:      h.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // batch responses and imports can take a while
		IdleTimeout:  60 * time.Second,
	}

	go handleShutdown(srv)

	logging.Info("media-cache listening on %s (started in %v)", srv.Addr, time.Since(startTime))
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		logging.Fatal("Server error: %v", err)
	}
}

// startWatcher watches the registered library folders and keeps the
// media metadata table free of records for deleted files. Added files
// are left for the next scan; the event stream does no debouncing.
func startWatcher(cfg *config.Manager, st *store.Store) *scanner.Watcher {
	watcher, err := scanner.NewWatcher()
	if err != nil {
		logging.Warn("Filesystem watcher unavailable: %v", err)
		return nil
	}

	for _, folder := range cfg.Snapshot().LibraryFolders {
		if err := watcher.Watch(folder); err != nil {
			logging.Warn("Cannot watch %s: %v", folder, err)
		}
	}

	go func() {
		for ev := range watcher.Events() {
			logging.Debug("Watcher: %s %s", ev.Kind, ev.Path)
			if ev.Kind != scanner.EventRemoved {
				continue
			}
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			if err := st.DeleteMediaRecordByPath(ctx, ev.Path); err != nil {
				logging.Warn("Failed to drop record for removed file %s: %v", ev.Path, err)
			}
			cancel()
		}
	}()

	return watcher
}

func handleShutdown(srv *http.Server) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logging.Info("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logging.Error("Graceful shutdown failed: %v", err)
	}
}
