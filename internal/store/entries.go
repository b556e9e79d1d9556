package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"

	"media-cache/internal/logging"
	"media-cache/internal/metrics"
)

// closeRows closes a result set, logging on failure.
func closeRows(rows *sql.Rows) {
	if err := rows.Close(); err != nil {
		logging.Error("failed to close result rows: %v", err)
	}
}

// AddCacheEntry records a derivative for a file. The upsert is keyed by
// (folder_id, file_hash): hashing the same content twice within a folder
// overwrites the prior entry.
func (s *Store) AddCacheEntry(ctx context.Context, e CacheEntry) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("add_cache_entry", start, err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO cache_entries
			(folder_id, original_path, file_hash, cached_path, media_type, file_size, cached_size)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(folder_id, file_hash) DO UPDATE SET
			original_path = excluded.original_path,
			cached_path = excluded.cached_path,
			media_type = excluded.media_type,
			file_size = excluded.file_size,
			cached_size = excluded.cached_size
	`, e.FolderID, e.OriginalPath, e.FileHash, e.CachedPath, e.MediaType.String(), e.FileSize, e.CachedSize)
	if err != nil {
		return fmt.Errorf("failed to add cache entry for %s: %w", e.OriginalPath, err)
	}
	return nil
}

// GetCachedPath looks up a derivative path by content hash alone, across
// all folders. The second return value is false when the hash is unknown.
func (s *Store) GetCachedPath(ctx context.Context, fileHash string) (string, bool, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("get_cached_path", start, err) }()

	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var cachedPath string
	err = s.db.QueryRowContext(ctx,
		"SELECT cached_path FROM cache_entries WHERE file_hash = ? LIMIT 1", fileHash).Scan(&cachedPath)
	if errors.Is(err, sql.ErrNoRows) {
		err = nil
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to look up cached path for %s: %w", fileHash, err)
	}
	return cachedPath, true, nil
}

// FileExists reports whether content with this hash is still represented
// by a live original file. It is self-healing: when every recorded
// original path for the hash is gone from disk, the stale entries are
// purged and false is returned, so a deleted original cannot permanently
// hide re-imported content.
func (s *Store) FileExists(ctx context.Context, fileHash string) (bool, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("file_exists", start, err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx,
		"SELECT original_path FROM cache_entries WHERE file_hash = ?", fileHash)
	if err != nil {
		return false, fmt.Errorf("failed to look up originals for %s: %w", fileHash, err)
	}

	var originals []string
	for rows.Next() {
		var p string
		if err = rows.Scan(&p); err != nil {
			closeRows(rows)
			return false, fmt.Errorf("failed to scan original path: %w", err)
		}
		originals = append(originals, p)
	}
	err = rows.Err()
	closeRows(rows)
	if err != nil {
		return false, fmt.Errorf("failed reading original paths: %w", err)
	}

	if len(originals) == 0 {
		return false, nil
	}

	for _, p := range originals {
		if _, statErr := os.Stat(p); statErr == nil {
			return true, nil
		}
	}

	// Every recorded original is gone; drop the stale entries.
	res, err := s.db.ExecContext(ctx, "DELETE FROM cache_entries WHERE file_hash = ?", fileHash)
	if err != nil {
		return false, fmt.Errorf("failed to purge stale entries for %s: %w", fileHash, err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		logging.Info("Purged %d stale cache entries for hash %s", n, fileHash)
		metrics.StoreEntriesPurged.Add(float64(n))
	}
	return false, nil
}

// Stats aggregates the cache entry ledger.
func (s *Store) Stats(ctx context.Context) (CacheStats, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("cache_stats", start, err) }()

	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var stats CacheStats
	err = s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(file_size), 0), COALESCE(SUM(cached_size), 0)
		FROM cache_entries
	`).Scan(&stats.EntryCount, &stats.OriginalSize, &stats.CachedSize)
	if err != nil {
		return CacheStats{}, fmt.Errorf("failed to compute cache stats: %w", err)
	}
	return stats, nil
}

// EntriesForFolder returns the cache entries owned by a folder id.
func (s *Store) EntriesForFolder(ctx context.Context, folderID int64) ([]CacheEntry, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("entries_for_folder", start, err) }()

	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, folder_id, original_path, file_hash, cached_path, media_type, file_size, cached_size, created_at
		FROM cache_entries
		WHERE folder_id = ?
	`, folderID)
	if err != nil {
		return nil, fmt.Errorf("failed to list entries for folder %d: %w", folderID, err)
	}
	defer closeRows(rows)

	var entries []CacheEntry
	for rows.Next() {
		e, scanErr := scanCacheEntry(rows)
		if scanErr != nil {
			err = scanErr
			return nil, err
		}
		entries = append(entries, e)
	}
	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("failed reading entry rows: %w", err)
	}
	return entries, nil
}

func scanCacheEntry(rows *sql.Rows) (CacheEntry, error) {
	var e CacheEntry
	var mediaType string
	var createdAt int64
	if err := rows.Scan(&e.ID, &e.FolderID, &e.OriginalPath, &e.FileHash, &e.CachedPath,
		&mediaType, &e.FileSize, &e.CachedSize, &createdAt); err != nil {
		return CacheEntry{}, fmt.Errorf("failed to scan cache entry: %w", err)
	}
	mt, err := parseStoredMediaType(mediaType, e.OriginalPath)
	if err != nil {
		return CacheEntry{}, err
	}
	e.MediaType = mt
	e.CreatedAt = time.Unix(createdAt, 0)
	return e, nil
}
