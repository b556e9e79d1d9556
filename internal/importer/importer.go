package importer

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"media-cache/internal/config"
	"media-cache/internal/hashing"
	"media-cache/internal/logging"
	"media-cache/internal/mediatypes"
	"media-cache/internal/store"
)

// Importer copies media files from external sources (cards, phones)
// into a destination library, bucketing by capture date and registering
// each copy with the cache store.
type Importer struct {
	cfg   *config.Manager
	store *store.Store
}

// New creates an importer bound to the given config and store.
func New(cfg *config.Manager, st *store.Store) *Importer {
	return &Importer{cfg: cfg, store: st}
}

// FileResult describes the outcome for one imported file.
type FileResult struct {
	SourcePath string `json:"sourcePath"`
	DestPath   string `json:"destPath,omitempty"`
	FileHash   string `json:"fileHash,omitempty"`
	Renamed    bool   `json:"renamed"`
	Error      string `json:"error,omitempty"`
}

// Summary aggregates an import run.
type Summary struct {
	Imported int          `json:"imported"`
	Failed   int          `json:"failed"`
	Files    []FileResult `json:"files"`
}

// Import copies the given files into destFolder under date-bucketed
// subfolders (YYYY/YYYY-MM-DD from the file's modification time),
// renaming on filename conflicts. The destination is registered as a
// library folder and every copy gets a cache entry whose cached path is
// the copy itself (imports are originals, not derivatives). Per-file
// failures are counted and reported; they never abort the run.
func (im *Importer) Import(ctx context.Context, files []string, destFolder string) (Summary, error) {
	if err := im.cfg.AddLibraryFolder(destFolder); err != nil {
		return Summary{}, err
	}
	folderID, err := im.store.AddFolder(ctx, destFolder)
	if err != nil {
		return Summary{}, err
	}

	summary := Summary{Files: make([]FileResult, 0, len(files))}
	for _, src := range files {
		select {
		case <-ctx.Done():
			return summary, ctx.Err()
		default:
		}

		result := im.importOne(ctx, src, destFolder, folderID)
		if result.Error != "" {
			summary.Failed++
		} else {
			summary.Imported++
		}
		summary.Files = append(summary.Files, result)
	}

	logging.Info("Import into %s: %d imported, %d failed", destFolder, summary.Imported, summary.Failed)
	return summary, nil
}

func (im *Importer) importOne(ctx context.Context, src, destFolder string, folderID int64) FileResult {
	result := FileResult{SourcePath: src}

	mediaType, ok := mediatypes.FromPath(src)
	if !ok {
		result.Error = fmt.Sprintf("unsupported media file: %s", src)
		return result
	}

	info, err := os.Stat(src)
	if err != nil {
		result.Error = fmt.Sprintf("failed to stat %s: %v", src, err)
		return result
	}

	bucket := dateBucket(info.ModTime())
	destDir := filepath.Join(destFolder, bucket)
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		result.Error = fmt.Sprintf("failed to create %s: %v", destDir, err)
		return result
	}

	destPath, renamed, err := conflictFreePath(destDir, filepath.Base(src))
	if err != nil {
		result.Error = err.Error()
		return result
	}

	if err := copyFile(src, destPath); err != nil {
		result.Error = err.Error()
		return result
	}

	fileHash, err := hashing.HashFile(destPath)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	entry := store.CacheEntry{
		FolderID:     folderID,
		OriginalPath: destPath,
		FileHash:     fileHash,
		CachedPath:   destPath,
		MediaType:    mediaType,
		FileSize:     info.Size(),
		CachedSize:   info.Size(),
	}
	if err := im.store.AddCacheEntry(ctx, entry); err != nil {
		result.Error = err.Error()
		return result
	}

	result.DestPath = destPath
	result.FileHash = fileHash
	result.Renamed = renamed
	logging.Debug("Imported %s -> %s", src, destPath)
	return result
}

// dateBucket returns the YYYY/YYYY-MM-DD subpath for a timestamp.
func dateBucket(t time.Time) string {
	return filepath.Join(t.Format("2006"), t.Format("2006-01-02"))
}

// conflictFreePath finds a destination filename that does not collide
// with an existing file, appending _1, _2, ... before the extension.
func conflictFreePath(dir, name string) (string, bool, error) {
	candidate := filepath.Join(dir, name)
	if _, err := os.Stat(candidate); os.IsNotExist(err) {
		return candidate, false, nil
	}

	ext := filepath.Ext(name)
	stem := name[:len(name)-len(ext)]
	for i := 1; i < 10000; i++ {
		candidate = filepath.Join(dir, fmt.Sprintf("%s_%d%s", stem, i, ext))
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate, true, nil
		}
	}
	return "", false, fmt.Errorf("no conflict-free name for %s in %s", name, dir)
}

// copyFile copies src to dest, removing a partial dest on failure.
func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer func() {
		if cerr := in.Close(); cerr != nil {
			logging.Error("failed to close %s: %v", src, cerr)
		}
	}()

	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dest, err)
	}

	if _, err := io.Copy(out, in); err != nil {
		if cerr := out.Close(); cerr != nil {
			logging.Error("failed to close %s: %v", dest, cerr)
		}
		if rmErr := os.Remove(dest); rmErr != nil {
			logging.Error("failed to remove partial copy %s: %v", dest, rmErr)
		}
		return fmt.Errorf("failed to copy %s: %w", src, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("failed to flush %s: %w", dest, err)
	}
	return nil
}
