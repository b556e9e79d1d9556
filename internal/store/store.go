package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite3 driver

	"media-cache/internal/logging"
	"media-cache/internal/metrics"
)

// Default timeout for store operations
const defaultTimeout = 5 * time.Second

// ErrFolderNotFound is returned when an operation targets a folder path
// that is not registered in the store.
var ErrFolderNotFound = errors.New("library folder not registered")

// Store is the durable source of truth for folder registration, cache
// entry bookkeeping and media metadata, and the dedup oracle for content
// hashes. It never touches derivative files on disk; callers receive the
// affected paths and do their own filesystem cleanup.
type Store struct {
	db     *sql.DB
	dbPath string
	mu     sync.RWMutex
}

// New opens (or creates) the store at dbPath. The parent directory must
// already exist and be writable.
func New(ctx context.Context, dbPath string) (*Store, error) {
	logging.Info("Cache store path: %s", dbPath)

	// WAL keeps readers unblocked while a batch writes; busy_timeout
	// prevents spurious "database is locked" errors; foreign_keys makes
	// the cache_entries cascade actually fire.
	connStr := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000&_foreign_keys=on", dbPath)

	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache store: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close store after ping failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to connect to cache store: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(4)
	db.SetConnMaxLifetime(time.Hour)

	s := &Store{
		db:     db,
		dbPath: dbPath,
	}

	if err := s.initialize(ctx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close store after schema failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to initialize cache store schema: %w", err)
	}

	logging.Info("Cache store initialized at %s", dbPath)
	return s, nil
}

func (s *Store) initialize(ctx context.Context) error {
	schema := `
	-- Registered library folders
	CREATE TABLE IF NOT EXISTS library_folders (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		path TEXT NOT NULL UNIQUE,
		folder_hash TEXT NOT NULL,
		added_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now')),
		last_scanned INTEGER,
		total_files INTEGER NOT NULL DEFAULT 0
	);

	-- One row per cached derivative, owned by exactly one folder
	CREATE TABLE IF NOT EXISTS cache_entries (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		folder_id INTEGER NOT NULL,
		original_path TEXT NOT NULL,
		file_hash TEXT NOT NULL,
		cached_path TEXT NOT NULL,
		media_type TEXT NOT NULL,
		file_size INTEGER NOT NULL,
		cached_size INTEGER NOT NULL,
		created_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now')),
		FOREIGN KEY (folder_id) REFERENCES library_folders(id) ON DELETE CASCADE,
		UNIQUE(folder_id, file_hash)
	);

	CREATE INDEX IF NOT EXISTS idx_cache_entries_folder ON cache_entries(folder_id);
	CREATE INDEX IF NOT EXISTS idx_cache_entries_hash ON cache_entries(file_hash);

	-- Richer media metadata for fast library reload without rescanning
	CREATE TABLE IF NOT EXISTS media_files (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		folder_id INTEGER NOT NULL,
		file_path TEXT NOT NULL UNIQUE,
		file_hash TEXT NOT NULL,
		file_size INTEGER NOT NULL,
		width INTEGER NOT NULL DEFAULT 0,
		height INTEGER NOT NULL DEFAULT 0,
		taken_at TEXT,
		modified_at TEXT NOT NULL,
		thumbnail_path TEXT,
		media_type TEXT NOT NULL,
		created_at TEXT NOT NULL DEFAULT (datetime('now'))
	);

	CREATE INDEX IF NOT EXISTS idx_media_files_hash ON media_files(file_hash);
	CREATE INDEX IF NOT EXISTS idx_media_files_taken_at ON media_files(taken_at);
	`

	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// Close closes the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// recordQuery records store query metrics.
func recordQuery(operation string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.StoreQueryTotal.WithLabelValues(operation, status).Inc()
	metrics.StoreQueryDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}
