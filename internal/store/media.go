package store

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	"media-cache/internal/logging"
	"media-cache/internal/mediatypes"
)

// timeLayout is the persisted form of media_files timestamps.
const timeLayout = time.RFC3339

// parseStoredMediaType validates a media_type column value. The enum is
// closed: a row carrying anything else is a bug or a schema migration
// gone wrong, and the caller decides whether that is fatal.
func parseStoredMediaType(stored, path string) (mediatypes.MediaType, error) {
	mt, err := mediatypes.Parse(stored)
	if err != nil {
		return "", fmt.Errorf("row for %s: %w", path, err)
	}
	return mt, nil
}

// normalizeMediaPath canonicalizes a path for prefix matching: forward
// slashes, lowercase, no trailing slash. Matching is deliberately
// case-insensitive so records written on a case-insensitive filesystem
// resolve regardless of how the folder was registered.
func normalizeMediaPath(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	p = strings.ToLower(p)
	return strings.TrimRight(p, "/")
}

// hasPathPrefix reports whether path sits under root (both normalized).
func hasPathPrefix(path, root string) bool {
	if path == root {
		return true
	}
	return strings.HasPrefix(path, root+"/")
}

// SaveMediaRecords upserts media metadata rows, resolving each record's
// owning folder by longest registered-path prefix. Records that fall
// under no registered folder are skipped with a warning.
func (s *Store) SaveMediaRecords(ctx context.Context, records []MediaRecord) (int, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("save_media_records", start, err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	folders, err := s.folderPrefixesLocked(ctx)
	if err != nil {
		return 0, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin media record transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && rbErr != sql.ErrTxDone {
				logging.Error("failed to roll back media record transaction: %v", rbErr)
			}
		}
	}()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO media_files
			(folder_id, file_path, file_hash, file_size, width, height, taken_at, modified_at, thumbnail_path, media_type)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(file_path) DO UPDATE SET
			folder_id = excluded.folder_id,
			file_hash = excluded.file_hash,
			file_size = excluded.file_size,
			width = excluded.width,
			height = excluded.height,
			taken_at = excluded.taken_at,
			modified_at = excluded.modified_at,
			thumbnail_path = excluded.thumbnail_path,
			media_type = excluded.media_type
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare media record upsert: %w", err)
	}
	defer stmt.Close()

	saved := 0
	for _, r := range records {
		folderID, ok := resolveFolder(folders, r.FilePath)
		if !ok {
			logging.Warn("Media record %s is under no registered folder, skipping", r.FilePath)
			continue
		}

		var takenAt sql.NullString
		if r.TakenAt != nil {
			takenAt = sql.NullString{String: r.TakenAt.UTC().Format(timeLayout), Valid: true}
		}
		var thumb sql.NullString
		if r.ThumbnailPath != "" {
			thumb = sql.NullString{String: r.ThumbnailPath, Valid: true}
		}

		if _, err = stmt.ExecContext(ctx,
			folderID, r.FilePath, r.FileHash, r.FileSize, r.Width, r.Height,
			takenAt, r.ModifiedAt.UTC().Format(timeLayout), thumb, r.MediaType.String()); err != nil {
			return 0, fmt.Errorf("failed to save media record for %s: %w", r.FilePath, err)
		}
		saved++
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit media records: %w", err)
	}
	return saved, nil
}

// folderPrefix pairs a folder id with its normalized path for prefix
// resolution.
type folderPrefix struct {
	id   int64
	path string
}

// folderPrefixesLocked loads registered folders sorted longest path
// first, so the first prefix match is the most specific. Caller must
// hold mu.
func (s *Store) folderPrefixesLocked(ctx context.Context) ([]folderPrefix, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, path FROM library_folders")
	if err != nil {
		return nil, fmt.Errorf("failed to load folder prefixes: %w", err)
	}
	defer closeRows(rows)

	var folders []folderPrefix
	for rows.Next() {
		var f folderPrefix
		if err := rows.Scan(&f.id, &f.path); err != nil {
			return nil, fmt.Errorf("failed to scan folder prefix: %w", err)
		}
		f.path = normalizeMediaPath(f.path)
		folders = append(folders, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed reading folder prefixes: %w", err)
	}

	sort.Slice(folders, func(i, j int) bool {
		return len(folders[i].path) > len(folders[j].path)
	})
	return folders, nil
}

func resolveFolder(folders []folderPrefix, filePath string) (int64, bool) {
	p := normalizeMediaPath(filePath)
	for _, f := range folders {
		if hasPathPrefix(p, f.path) {
			return f.id, true
		}
	}
	return 0, false
}

// LoadMediaRecords returns all media metadata rows. Rows carrying an
// unparseable media_type are logged and skipped rather than failing the
// whole load.
func (s *Store) LoadMediaRecords(ctx context.Context) ([]MediaRecord, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("load_media_records", start, err) }()

	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, folder_id, file_path, file_hash, file_size, width, height,
		       taken_at, modified_at, thumbnail_path, media_type, created_at
		FROM media_files
		ORDER BY taken_at DESC, file_path
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to load media records: %w", err)
	}
	defer closeRows(rows)

	var records []MediaRecord
	for rows.Next() {
		var r MediaRecord
		var mediaType string
		var takenAt, thumb sql.NullString
		var modifiedAt, createdAt string
		if err = rows.Scan(&r.ID, &r.FolderID, &r.FilePath, &r.FileHash, &r.FileSize,
			&r.Width, &r.Height, &takenAt, &modifiedAt, &thumb, &mediaType, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan media record: %w", err)
		}

		mt, parseErr := parseStoredMediaType(mediaType, r.FilePath)
		if parseErr != nil {
			logging.Warn("Skipping media record: %v", parseErr)
			continue
		}
		r.MediaType = mt

		if takenAt.Valid {
			if t, tErr := time.Parse(timeLayout, takenAt.String); tErr == nil {
				r.TakenAt = &t
			}
		}
		if t, tErr := time.Parse(timeLayout, modifiedAt); tErr == nil {
			r.ModifiedAt = t
		}
		if t, tErr := time.Parse("2006-01-02 15:04:05", createdAt); tErr == nil {
			r.CreatedAt = t
		}
		r.ThumbnailPath = thumb.String

		records = append(records, r)
	}
	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("failed reading media records: %w", err)
	}
	return records, nil
}

// DeleteMediaRecordByPath removes the metadata row for one file path.
// Deleting an unknown path is not an error.
func (s *Store) DeleteMediaRecordByPath(ctx context.Context, filePath string) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("delete_media_record", start, err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err = s.db.ExecContext(ctx, "DELETE FROM media_files WHERE file_path = ?", filePath)
	if err != nil {
		return fmt.Errorf("failed to delete media record for %s: %w", filePath, err)
	}
	return nil
}

// CountMediaRecords returns the number of media metadata rows.
func (s *Store) CountMediaRecords(ctx context.Context) (int64, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("count_media_records", start, err) }()

	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var n int64
	err = s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM media_files").Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count media records: %w", err)
	}
	return n, nil
}

// MediaPathsForFolder returns the recorded file paths under a folder,
// for rescan ghost eviction.
func (s *Store) MediaPathsForFolder(ctx context.Context, folderID int64) ([]string, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("media_paths_for_folder", start, err) }()

	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, "SELECT file_path FROM media_files WHERE folder_id = ?", folderID)
	if err != nil {
		return nil, fmt.Errorf("failed to list media paths for folder %d: %w", folderID, err)
	}
	defer closeRows(rows)

	var paths []string
	for rows.Next() {
		var p string
		if err = rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("failed to scan media path: %w", err)
		}
		paths = append(paths, p)
	}
	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("failed reading media paths: %w", err)
	}
	return paths, nil
}
