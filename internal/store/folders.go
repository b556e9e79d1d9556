package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"media-cache/internal/hashing"
)

// AddFolder registers a library folder, returning its id. Re-registering
// an existing path updates the row in place rather than replacing it, so
// the cascade on cache_entries cannot fire from a re-registration.
func (s *Store) AddFolder(ctx context.Context, path string) (int64, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("add_folder", start, err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	folderHash := hashing.FolderHash(path)

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO library_folders (path, folder_hash)
		VALUES (?, ?)
		ON CONFLICT(path) DO UPDATE SET folder_hash = excluded.folder_hash
	`, path, folderHash)
	if err != nil {
		return 0, fmt.Errorf("failed to register folder %s: %w", path, err)
	}

	var id int64
	err = s.db.QueryRowContext(ctx, "SELECT id FROM library_folders WHERE path = ?", path).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to look up registered folder %s: %w", path, err)
	}
	return id, nil
}

// GetFolderID returns the id of a registered folder, or ErrFolderNotFound.
func (s *Store) GetFolderID(ctx context.Context, path string) (int64, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("get_folder_id", start, err) }()

	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var id int64
	err = s.db.QueryRowContext(ctx, "SELECT id FROM library_folders WHERE path = ?", path).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		err = nil // not a storage failure
		return 0, ErrFolderNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to look up folder %s: %w", path, err)
	}
	return id, nil
}

// ListFolders returns all registered folders, most recently added first.
func (s *Store) ListFolders(ctx context.Context) ([]LibraryFolder, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("list_folders", start, err) }()

	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, path, folder_hash, added_at, last_scanned, total_files
		FROM library_folders
		ORDER BY added_at DESC, id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list folders: %w", err)
	}
	defer closeRows(rows)

	var folders []LibraryFolder
	for rows.Next() {
		var f LibraryFolder
		var addedAt int64
		var lastScanned sql.NullInt64
		if err = rows.Scan(&f.ID, &f.Path, &f.FolderHash, &addedAt, &lastScanned, &f.TotalFiles); err != nil {
			return nil, fmt.Errorf("failed to scan folder row: %w", err)
		}
		f.AddedAt = time.Unix(addedAt, 0)
		if lastScanned.Valid {
			t := time.Unix(lastScanned.Int64, 0)
			f.LastScanned = &t
		}
		folders = append(folders, f)
	}
	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("failed reading folder rows: %w", err)
	}
	return folders, nil
}

// UpdateFolderStats records a completed scan's file count and timestamp.
func (s *Store) UpdateFolderStats(ctx context.Context, folderID, totalFiles int64) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("update_folder_stats", start, err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err = s.db.ExecContext(ctx, `
		UPDATE library_folders
		SET total_files = ?, last_scanned = strftime('%s', 'now')
		WHERE id = ?
	`, totalFiles, folderID)
	if err != nil {
		return fmt.Errorf("failed to update folder stats: %w", err)
	}
	return nil
}

// RemoveFolder deletes a registered folder and, via cascade, all of its
// cache entries. It returns the derivatives that existed beforehand so
// the caller can delete the files and thumbnails on disk.
func (s *Store) RemoveFolder(ctx context.Context, path string) ([]CachedDerivative, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("remove_folder", start, err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var folderID int64
	err = s.db.QueryRowContext(ctx, "SELECT id FROM library_folders WHERE path = ?", path).Scan(&folderID)
	if errors.Is(err, sql.ErrNoRows) {
		err = nil
		return nil, ErrFolderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up folder %s: %w", path, err)
	}

	derivatives, err := s.folderDerivativesLocked(ctx, path)
	if err != nil {
		return nil, err
	}

	// media_files has no foreign key, so it is cleaned up explicitly
	// before the folder row goes away.
	if _, err = s.db.ExecContext(ctx, "DELETE FROM media_files WHERE folder_id = ?", folderID); err != nil {
		return nil, fmt.Errorf("failed to remove media records for %s: %w", path, err)
	}

	if _, err = s.db.ExecContext(ctx, "DELETE FROM library_folders WHERE id = ?", folderID); err != nil {
		return nil, fmt.Errorf("failed to remove folder %s: %w", path, err)
	}

	return derivatives, nil
}

// ClearFolderCache deletes a folder's cache entries while leaving the
// folder registered. Returns the same enumeration as RemoveFolder.
func (s *Store) ClearFolderCache(ctx context.Context, path string) ([]CachedDerivative, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("clear_folder_cache", start, err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	derivatives, err := s.folderDerivativesLocked(ctx, path)
	if err != nil {
		return nil, err
	}

	_, err = s.db.ExecContext(ctx, `
		DELETE FROM cache_entries
		WHERE folder_id IN (SELECT id FROM library_folders WHERE path = ?)
	`, path)
	if err != nil {
		return nil, fmt.Errorf("failed to clear cache for %s: %w", path, err)
	}

	return derivatives, nil
}

// folderDerivativesLocked enumerates the (cachedPath, fileHash) pairs for
// a folder's cache entries. Caller must hold mu.
func (s *Store) folderDerivativesLocked(ctx context.Context, path string) ([]CachedDerivative, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT ce.cached_path, ce.file_hash
		FROM cache_entries ce
		JOIN library_folders lf ON ce.folder_id = lf.id
		WHERE lf.path = ?
	`, path)
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate derivatives for %s: %w", path, err)
	}
	defer closeRows(rows)

	var derivatives []CachedDerivative
	for rows.Next() {
		var d CachedDerivative
		if err := rows.Scan(&d.CachedPath, &d.FileHash); err != nil {
			return nil, fmt.Errorf("failed to scan derivative row: %w", err)
		}
		derivatives = append(derivatives, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed reading derivative rows: %w", err)
	}
	return derivatives, nil
}
