package optimizer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"media-cache/internal/config"
	"media-cache/internal/hashing"
	"media-cache/internal/logging"
	"media-cache/internal/mediatypes"
	"media-cache/internal/metrics"
	"media-cache/internal/store"
	"media-cache/internal/tasks"
)

// Optimizer turns library files into content-addressed derivatives under
// the cache folder. Every write is gated on the owning folder still
// being registered and on the folder's task (when one exists).
type Optimizer struct {
	cfg   *config.Manager
	store *store.Store
	tasks *tasks.Registry
}

// New creates an optimizer bound to the given config, store and task
// registry.
func New(cfg *config.Manager, st *store.Store, registry *tasks.Registry) *Optimizer {
	return &Optimizer{cfg: cfg, store: st, tasks: registry}
}

// Result describes one completed optimization.
type Result struct {
	CachedPath   string `json:"cachedPath"`
	FileHash     string `json:"fileHash"`
	CacheHit     bool   `json:"cacheHit"`
	OriginalSize int64  `json:"originalSize"`
	CachedSize   int64  `json:"cachedSize"`
}

// OptimizeFile optimizes a single file belonging to folderPath. It
// re-checks folder registration, honors the folder's task (blocking on
// pause, aborting on stop), short-circuits when the content hash already
// has a live derivative, and registers the cache entry for this folder.
func (o *Optimizer) OptimizeFile(ctx context.Context, folderPath, filePath string) (Result, error) {
	mediaType, ok := mediatypes.FromPath(filePath)
	if !ok {
		return Result{}, fmt.Errorf("%w: %s", ErrUnsupportedFile, filePath)
	}

	// A folder unregistered mid-flight must not regrow cache state.
	if !o.cfg.IsLibraryFolder(folderPath) {
		return Result{}, fmt.Errorf("%w: %s", ErrFolderRemoved, folderPath)
	}
	folderID, err := o.store.GetFolderID(ctx, folderPath)
	if err != nil {
		if errors.Is(err, store.ErrFolderNotFound) {
			return Result{}, fmt.Errorf("%w: %s", ErrFolderRemoved, folderPath)
		}
		return Result{}, err
	}

	task, taskErr := o.tasks.Get(folderPath)
	if taskErr != nil {
		task = nil // single-file optimizations may run without a task
	}
	if task != nil {
		if err := task.WaitIfPaused(); err != nil {
			// Aborting on stop still accounts for the file exactly once.
			task.RecordProcessed()
			task.RecordFailed()
			return Result{}, err
		}
	}

	start := time.Now()
	result, err := o.optimizeHashed(ctx, folderID, filePath, mediaType)
	metrics.OptimizerDuration.WithLabelValues(mediaType.String()).Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.OptimizerOperationsTotal.WithLabelValues(mediaType.String(), "error").Inc()
		if task != nil {
			task.RecordProcessed()
			task.RecordFailed()
		}
		return Result{}, err
	}

	metrics.OptimizerOperationsTotal.WithLabelValues(mediaType.String(), "success").Inc()
	if result.CacheHit {
		metrics.OptimizerCacheHits.Inc()
	}
	if saved := result.OriginalSize - result.CachedSize; saved > 0 {
		metrics.OptimizerBytesSaved.Add(float64(saved))
	}
	if task != nil {
		task.RecordProcessed()
		task.RecordOptimized()
		task.MarkCompleted()
	}
	return result, nil
}

// optimizeHashed hashes the file, resolves dedup, and produces the
// derivative when the content is new.
func (o *Optimizer) optimizeHashed(ctx context.Context, folderID int64, filePath string, mediaType mediatypes.MediaType) (Result, error) {
	info, err := os.Stat(filePath)
	if err != nil {
		return Result{}, fmt.Errorf("failed to stat %s: %w", filePath, err)
	}

	fileHash, err := hashing.HashFile(filePath)
	if err != nil {
		return Result{}, err
	}

	// Dedup short-circuit: trust only the store's full-hash ledger, and
	// only when the derivative file actually exists.
	if cachedPath, found, err := o.store.GetCachedPath(ctx, fileHash); err != nil {
		return Result{}, err
	} else if found {
		if cachedInfo, statErr := os.Stat(cachedPath); statErr == nil {
			entry := store.CacheEntry{
				FolderID:     folderID,
				OriginalPath: filePath,
				FileHash:     fileHash,
				CachedPath:   cachedPath,
				MediaType:    mediaType,
				FileSize:     info.Size(),
				CachedSize:   cachedInfo.Size(),
			}
			if err := o.store.AddCacheEntry(ctx, entry); err != nil {
				return Result{}, err
			}
			logging.Debug("Cache hit for %s (%s)", filePath, hashing.ShortID(fileHash))
			return Result{
				CachedPath:   cachedPath,
				FileHash:     fileHash,
				CacheHit:     true,
				OriginalSize: info.Size(),
				CachedSize:   cachedInfo.Size(),
			}, nil
		}
		logging.Warn("Derivative %s missing on disk, re-optimizing", cachedPath)
	}

	outDir := filepath.Join(o.cfg.CacheFolder(), "optimized")
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return Result{}, fmt.Errorf("failed to create cache directory: %w", err)
	}
	destPath := filepath.Join(outDir, hashing.ShortID(fileHash)+mediaType.DerivativeExt())

	switch mediaType {
	case mediatypes.Image:
		err = optimizeImage(filePath, destPath, o.cfg.MaxResolution(), o.cfg.Quality())
	case mediatypes.Video:
		err = optimizeVideo(ctx, filePath, destPath, o.cfg.MaxResolution())
	}
	if err != nil {
		return Result{}, err
	}

	destInfo, err := os.Stat(destPath)
	if err != nil {
		return Result{}, fmt.Errorf("failed to stat derivative %s: %w", destPath, err)
	}

	entry := store.CacheEntry{
		FolderID:     folderID,
		OriginalPath: filePath,
		FileHash:     fileHash,
		CachedPath:   destPath,
		MediaType:    mediaType,
		FileSize:     info.Size(),
		CachedSize:   destInfo.Size(),
	}
	if err := o.store.AddCacheEntry(ctx, entry); err != nil {
		return Result{}, err
	}

	if mediaType == mediatypes.Image {
		if _, thumbErr := o.GenerateThumbnail(filePath, fileHash); thumbErr != nil {
			logging.Warn("Thumbnail generation failed for %s: %v", filePath, thumbErr)
		}
	}

	logging.Debug("Optimized %s -> %s (%d -> %d bytes)", filePath, destPath, info.Size(), destInfo.Size())
	return Result{
		CachedPath:   destPath,
		FileHash:     fileHash,
		OriginalSize: info.Size(),
		CachedSize:   destInfo.Size(),
	}, nil
}
