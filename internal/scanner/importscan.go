package scanner

import (
	"context"
	"fmt"
	"os"
	"time"

	"media-cache/internal/hashing"
	"media-cache/internal/logging"
	"media-cache/internal/mediatypes"
)

// ImportCandidate describes one file found on an import source, with
// the duplicate verdict already computed against the cache store.
type ImportCandidate struct {
	Path        string               `json:"path"`
	FileHash    string               `json:"fileHash"`
	FileSize    int64                `json:"fileSize"`
	ModifiedAt  time.Time            `json:"modifiedAt"`
	MediaType   mediatypes.MediaType `json:"mediaType"`
	IsDuplicate bool                 `json:"isDuplicate"`
}

// ScanImportSource walks an import source (a card or phone mount) and
// returns its media files, flagging the ones whose content is already
// cached. Files that cannot be read are logged and omitted.
func (s *Scanner) ScanImportSource(ctx context.Context, sourcePath string) ([]ImportCandidate, error) {
	paths, err := CollectMediaPaths(sourcePath, false)
	if err != nil {
		return nil, err
	}

	candidates := make([]ImportCandidate, 0, len(paths))
	for _, path := range paths {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		mediaType, ok := mediatypes.FromPath(path)
		if !ok {
			continue
		}
		info, statErr := os.Stat(path)
		if statErr != nil {
			logging.Warn("Skipping unreadable import candidate %s: %v", path, statErr)
			continue
		}
		fileHash, hashErr := hashing.HashFile(path)
		if hashErr != nil {
			logging.Warn("Skipping import candidate: %v", hashErr)
			continue
		}

		duplicate, dupErr := s.store.FileExists(ctx, fileHash)
		if dupErr != nil {
			return nil, fmt.Errorf("failed duplicate check for %s: %w", path, dupErr)
		}

		candidates = append(candidates, ImportCandidate{
			Path:        path,
			FileHash:    fileHash,
			FileSize:    info.Size(),
			ModifiedAt:  info.ModTime(),
			MediaType:   mediaType,
			IsDuplicate: duplicate,
		})
	}

	logging.Info("Import source %s: %d candidates", sourcePath, len(candidates))
	return candidates, nil
}
