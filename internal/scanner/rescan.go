package scanner

import (
	"context"
	"os"
	"strings"

	"media-cache/internal/logging"
	"media-cache/internal/metrics"
	"media-cache/internal/store"
)

// comparablePath canonicalizes a path for ghost detection: forward
// slashes, lowercase, no trailing slash. Records written on another
// platform or through a differently-cased mount must still match the
// freshly walked paths.
func comparablePath(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	p = strings.ToLower(p)
	return strings.TrimRight(p, "/")
}

// Rescan re-walks a folder and evicts ghost records: metadata rows whose
// files no longer exist on disk. Returns the fresh records and the
// number of evicted ghosts.
func (s *Scanner) Rescan(ctx context.Context, folderPath string, followSymlinks bool) ([]store.MediaRecord, int, error) {
	folderID, err := s.store.GetFolderID(ctx, folderPath)
	if err != nil {
		return nil, 0, err
	}

	known, err := s.store.MediaPathsForFolder(ctx, folderID)
	if err != nil {
		return nil, 0, err
	}

	records, err := s.Scan(ctx, folderPath, followSymlinks)
	if err != nil {
		return nil, 0, err
	}

	live := make(map[string]bool, len(records))
	for _, r := range records {
		live[comparablePath(r.FilePath)] = true
	}

	evicted := 0
	for _, path := range known {
		if live[comparablePath(path)] {
			continue
		}
		// Absence from the scan results is not proof of deletion: a
		// transient read failure during hashing also drops a file from
		// the results. Only evict when the file is really gone.
		if _, statErr := os.Stat(path); statErr == nil {
			logging.Warn("Keeping record for unscanned but present file: %s", path)
			continue
		}
		if err := s.store.DeleteMediaRecordByPath(ctx, path); err != nil {
			return nil, evicted, err
		}
		logging.Info("Evicted ghost record: %s", path)
		evicted++
	}
	if evicted > 0 {
		metrics.ScannerGhostsEvicted.Add(float64(evicted))
	}
	return records, evicted, nil
}
