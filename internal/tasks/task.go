package tasks

import (
	"errors"
	"sync"

	"media-cache/internal/metrics"
)

// Status is a task's lifecycle state.
type Status string

const (
	// StatusRunning means workers may process files.
	StatusRunning Status = "running"
	// StatusPaused means workers block until resumed or stopped.
	StatusPaused Status = "paused"
	// StatusStopped is terminal: workers abort at the next checkpoint.
	StatusStopped Status = "stopped"
	// StatusCompleted is terminal: every file was processed.
	StatusCompleted Status = "completed"
)

// ErrTaskStopped is returned from WaitIfPaused when the task was stopped,
// either directly or while the caller was blocked on a pause.
var ErrTaskStopped = errors.New("task stopped")

// Task tracks one folder's batch optimization run. All state sits behind
// a single mutex; pausing blocks workers on a condition variable instead
// of making them poll.
type Task struct {
	folderPath string

	mu         sync.Mutex
	cond       *sync.Cond
	status     Status
	totalFiles int64
	processed  int64
	optimized  int64
	failed     int64
}

// Snapshot is a point-in-time copy of a task's state.
type Snapshot struct {
	FolderPath string `json:"folderPath"`
	Status     Status `json:"status"`
	TotalFiles int64  `json:"totalFiles"`
	Processed  int64  `json:"processed"`
	Optimized  int64  `json:"optimized"`
	Failed     int64  `json:"failed"`
}

// NewTask creates a running task for a folder batch.
func NewTask(folderPath string, totalFiles int64) *Task {
	t := &Task{
		folderPath: folderPath,
		status:     StatusRunning,
		totalFiles: totalFiles,
	}
	t.cond = sync.NewCond(&t.mu)
	metrics.TasksActive.Inc()
	metrics.TaskTransitionsTotal.WithLabelValues(string(StatusRunning)).Inc()
	return t
}

// FolderPath returns the folder this task belongs to.
func (t *Task) FolderPath() string {
	return t.folderPath
}

// Pause moves a running task to paused. Pausing a task in any other
// state is a no-op.
func (t *Task) Pause() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.status != StatusRunning {
		return
	}
	t.setStatusLocked(StatusPaused)
}

// Resume moves a paused task back to running and wakes blocked workers.
// Resuming a task in any other state is a no-op.
func (t *Task) Resume() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.status != StatusPaused {
		return
	}
	t.setStatusLocked(StatusRunning)
	t.cond.Broadcast()
}

// Stop moves a running or paused task to stopped and wakes blocked
// workers so they can observe the stop. Terminal states are unchanged.
func (t *Task) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.status != StatusRunning && t.status != StatusPaused {
		return
	}
	t.setStatusLocked(StatusStopped)
	t.cond.Broadcast()
}

// WaitIfPaused is the per-file checkpoint. It returns immediately while
// the task runs, blocks while it is paused, and returns ErrTaskStopped
// once it is stopped. Workers call this before touching each file.
func (t *Task) WaitIfPaused() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	for t.status == StatusPaused {
		t.cond.Wait()
	}
	if t.status == StatusStopped {
		return ErrTaskStopped
	}
	return nil
}

// IsStopped reports whether the task has been stopped.
func (t *Task) IsStopped() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status == StatusStopped
}

// RecordProcessed counts one file as handled, successfully or not.
func (t *Task) RecordProcessed() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.processed++
}

// RecordOptimized counts one file as optimized, whether freshly encoded
// or satisfied by an existing derivative.
func (t *Task) RecordOptimized() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.optimized++
}

// RecordFailed counts one file as failed.
func (t *Task) RecordFailed() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.failed++
}

// MarkCompleted moves the task to completed, but only from running and
// only once every file has been processed. A stopped task stays stopped.
func (t *Task) MarkCompleted() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.status != StatusRunning || t.processed < t.totalFiles {
		return
	}
	t.setStatusLocked(StatusCompleted)
}

// Snapshot returns a consistent copy of the task's counters and status.
func (t *Task) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return Snapshot{
		FolderPath: t.folderPath,
		Status:     t.status,
		TotalFiles: t.totalFiles,
		Processed:  t.processed,
		Optimized:  t.optimized,
		Failed:     t.failed,
	}
}

// setStatusLocked transitions the state and keeps the active gauge in
// step. Caller must hold mu.
func (t *Task) setStatusLocked(next Status) {
	prev := t.status
	t.status = next
	metrics.TaskTransitionsTotal.WithLabelValues(string(next)).Inc()

	prevActive := prev == StatusRunning || prev == StatusPaused
	nextActive := next == StatusRunning || next == StatusPaused
	if prevActive && !nextActive {
		metrics.TasksActive.Dec()
	}
}
