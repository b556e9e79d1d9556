package tasks

import (
	"errors"
	"sync"

	"media-cache/internal/logging"
)

// ErrTaskNotFound is returned when an operation names a folder with no
// registered task.
var ErrTaskNotFound = errors.New("no task for folder")

// Registry tracks the task for each folder path. It is injected into the
// optimizer and the handlers rather than living as package state, so
// tests get an isolated registry per case.
type Registry struct {
	mu    sync.Mutex
	tasks map[string]*Task
}

// NewRegistry creates an empty task registry.
func NewRegistry() *Registry {
	return &Registry{tasks: make(map[string]*Task)}
}

// Create registers a new running task for a folder, replacing any
// existing task for the same path. Replacement stops the old task first
// so workers still holding it abort instead of racing the new run.
func (r *Registry) Create(folderPath string, totalFiles int64) *Task {
	r.mu.Lock()
	defer r.mu.Unlock()

	if old, ok := r.tasks[folderPath]; ok {
		logging.Warn("Replacing existing task for %s", folderPath)
		old.Stop()
	}
	t := NewTask(folderPath, totalFiles)
	r.tasks[folderPath] = t
	return t
}

// Get returns the task for a folder.
func (r *Registry) Get(folderPath string) (*Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[folderPath]
	if !ok {
		return nil, ErrTaskNotFound
	}
	return t, nil
}

// Remove forgets a folder's task. The task itself is not stopped; a
// forgotten running task finishes on its own.
func (r *Registry) Remove(folderPath string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tasks, folderPath)
}

// Pause pauses a folder's task.
func (r *Registry) Pause(folderPath string) error {
	t, err := r.Get(folderPath)
	if err != nil {
		return err
	}
	t.Pause()
	logging.Info("Paused optimization for %s", folderPath)
	return nil
}

// Resume resumes a folder's task.
func (r *Registry) Resume(folderPath string) error {
	t, err := r.Get(folderPath)
	if err != nil {
		return err
	}
	t.Resume()
	logging.Info("Resumed optimization for %s", folderPath)
	return nil
}

// Stop stops a folder's task.
func (r *Registry) Stop(folderPath string) error {
	t, err := r.Get(folderPath)
	if err != nil {
		return err
	}
	t.Stop()
	logging.Info("Stopped optimization for %s", folderPath)
	return nil
}

// HasRunningTask reports whether the folder's task is running or paused.
// A stopped or completed task does not count; neither does a folder with
// no task at all.
func (r *Registry) HasRunningTask(folderPath string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[folderPath]
	if !ok {
		return false
	}
	s := t.Snapshot().Status
	return s == StatusRunning || s == StatusPaused
}

// AnyActive reports whether any registered task is running or paused.
func (r *Registry) AnyActive() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tasks {
		s := t.Snapshot().Status
		if s == StatusRunning || s == StatusPaused {
			return true
		}
	}
	return false
}

// All returns a snapshot of every registered task.
func (r *Registry) All() []Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	snaps := make([]Snapshot, 0, len(r.tasks))
	for _, t := range r.tasks {
		snaps = append(snaps, t.Snapshot())
	}
	return snaps
}
