package optimizer

import (
	"context"
	"errors"
	"sync"

	"media-cache/internal/logging"
	"media-cache/internal/scanner"
	"media-cache/internal/tasks"
	"media-cache/internal/workers"
)

// BatchOptimize walks a registered folder and optimizes every media file
// with a CPU-sized worker pool. It creates (and replaces) the folder's
// task, which callers use to pause, resume, stop and observe progress.
// Per-file failures are counted and logged, never fatal; a stop aborts
// the remaining files. Blocks until the batch finishes.
func (o *Optimizer) BatchOptimize(ctx context.Context, folderPath string, followSymlinks bool) (tasks.Snapshot, error) {
	if !o.cfg.IsLibraryFolder(folderPath) {
		return tasks.Snapshot{}, ErrFolderRemoved
	}

	paths, err := scanner.CollectMediaPaths(folderPath, followSymlinks)
	if err != nil {
		return tasks.Snapshot{}, err
	}

	task := o.tasks.Create(folderPath, int64(len(paths)))
	numWorkers := workers.ForCPU(0)
	logging.Info("Batch optimizing %d files under %s with %d workers", len(paths), folderPath, numWorkers)

	jobs := make(chan string)
	var wg sync.WaitGroup

	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range jobs {
				select {
				case <-ctx.Done():
					return
				default:
				}
				if _, err := o.OptimizeFile(ctx, folderPath, path); err != nil {
					if errors.Is(err, tasks.ErrTaskStopped) {
						return
					}
					logging.Warn("Failed to optimize %s: %v", path, err)
				}
			}
		}()
	}

enqueue:
	for _, path := range paths {
		if task.IsStopped() {
			break
		}
		select {
		case jobs <- path:
		case <-ctx.Done():
			break enqueue
		}
	}
	close(jobs)
	wg.Wait()

	task.MarkCompleted()
	snap := task.Snapshot()
	logging.Info("Batch for %s finished: %s (%d/%d processed, %d optimized, %d failed)",
		folderPath, snap.Status, snap.Processed, snap.TotalFiles, snap.Optimized, snap.Failed)
	return snap, nil
}
