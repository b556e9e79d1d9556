package scanner

import (
	"context"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"media-cache/internal/hashing"
	"media-cache/internal/logging"
	"media-cache/internal/mediatypes"
	"media-cache/internal/metrics"
	"media-cache/internal/store"
	"media-cache/internal/workers"
)

// channelBuffer sizes the job and result channels for parallel scans.
const channelBuffer = 256

// Scanner builds media metadata for library folders: it walks, hashes
// and probes files in parallel and persists the results through the
// store.
type Scanner struct {
	store      *store.Store
	probe      Prober
	numWorkers int
}

// New creates a scanner using the default prober and an I/O-sized
// worker pool.
func New(st *store.Store) *Scanner {
	return &Scanner{
		store:      st,
		probe:      DefaultProber{},
		numWorkers: workers.ForIO(0),
	}
}

// WithProber overrides the probe implementation. Used by tests and by
// callers that carry richer probes.
func (s *Scanner) WithProber(p Prober) *Scanner {
	s.probe = p
	return s
}

type scanResult struct {
	record *store.MediaRecord
	err    error
}

// Scan walks a registered folder, hashes and probes every media file in
// parallel, persists the records, and updates the folder's scan stats.
// Per-file failures are logged and skipped; the scan itself fails only
// when the walk or the store does.
func (s *Scanner) Scan(ctx context.Context, folderPath string, followSymlinks bool) ([]store.MediaRecord, error) {
	folderID, err := s.store.GetFolderID(ctx, folderPath)
	if err != nil {
		return nil, err
	}

	paths, err := CollectMediaPaths(folderPath, followSymlinks)
	if err != nil {
		return nil, err
	}

	logging.Info("Scanning %d files under %s with %d workers", len(paths), folderPath, s.numWorkers)
	start := time.Now()

	records := s.scanPaths(ctx, folderID, paths)

	if _, err := s.store.SaveMediaRecords(ctx, records); err != nil {
		return nil, fmt.Errorf("failed to persist scan of %s: %w", folderPath, err)
	}
	if err := s.store.UpdateFolderStats(ctx, folderID, int64(len(records))); err != nil {
		return nil, err
	}

	duration := time.Since(start)
	metrics.ScannerScanDuration.WithLabelValues("scan").Observe(duration.Seconds())
	logging.Info("Scan of %s complete: %d records in %v", folderPath, len(records), duration)
	return records, nil
}

// scanPaths fans the paths out to a worker pool and collects the
// resulting records.
func (s *Scanner) scanPaths(ctx context.Context, folderID int64, paths []string) []store.MediaRecord {
	jobs := make(chan string, channelBuffer)
	results := make(chan scanResult, channelBuffer)

	var wg sync.WaitGroup
	var errorCount atomic.Int64

	for i := 0; i < s.numWorkers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			logging.Debug("Scan worker %d started", id)
			for path := range jobs {
				select {
				case <-ctx.Done():
					return
				default:
				}
				record, err := s.scanFile(folderID, path)
				select {
				case results <- scanResult{record: record, err: err}:
				case <-ctx.Done():
					return
				}
			}
		}(i)
	}

	var records []store.MediaRecord
	var collectorWg sync.WaitGroup
	collectorWg.Add(1)
	go func() {
		defer collectorWg.Done()
		for result := range results {
			if result.err != nil {
				errorCount.Add(1)
				logging.Warn("Scan error: %v", result.err)
				continue
			}
			if result.record != nil {
				records = append(records, *result.record)
				metrics.ScannerFilesScanned.WithLabelValues("scan").Inc()
			}
		}
	}()

enqueue:
	for _, path := range paths {
		select {
		case jobs <- path:
		case <-ctx.Done():
			break enqueue
		}
	}
	close(jobs)
	wg.Wait()
	close(results)
	collectorWg.Wait()

	if n := errorCount.Load(); n > 0 {
		logging.Warn("Scan finished with %d file errors", n)
	}
	return records
}

// scanFile builds the metadata record for one file.
func (s *Scanner) scanFile(folderID int64, path string) (*store.MediaRecord, error) {
	mediaType, ok := mediatypes.FromPath(path)
	if !ok {
		return nil, nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	fileHash, err := hashing.HashFile(path)
	if err != nil {
		return nil, err
	}

	probed, err := s.probe.Probe(path, mediaType)
	if err != nil {
		// Metadata is best-effort; the record is still useful without it.
		logging.Debug("Probe failed for %s: %v", path, err)
		probed = ProbeResult{}
	}

	return &store.MediaRecord{
		FolderID:   folderID,
		FilePath:   path,
		FileHash:   fileHash,
		FileSize:   info.Size(),
		Width:      probed.Width,
		Height:     probed.Height,
		TakenAt:    probed.TakenAt,
		ModifiedAt: info.ModTime(),
		MediaType:  mediaType,
	}, nil
}
