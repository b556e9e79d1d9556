package scanner

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"media-cache/internal/logging"
	"media-cache/internal/mediatypes"
	"media-cache/internal/metrics"
)

// EventKind classifies a watcher event.
type EventKind string

const (
	// EventAdded means a media file appeared or changed.
	EventAdded EventKind = "added"
	// EventRemoved means a media file was deleted or renamed away.
	EventRemoved EventKind = "removed"
)

// Event is one raw filesystem observation. The watcher deliberately does
// no debouncing or coalescing; consumers decide how to batch.
type Event struct {
	Path string    `json:"path"`
	Kind EventKind `json:"kind"`
}

// Watcher emits added/removed events for media files under watched
// folders. New subdirectories are added to the watch as they appear.
type Watcher struct {
	fsw    *fsnotify.Watcher
	events chan Event
	done   chan struct{}
}

// NewWatcher creates a watcher with no folders registered.
func NewWatcher() (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create filesystem watcher: %w", err)
	}
	w := &Watcher{
		fsw:    fsw,
		events: make(chan Event, 128),
		done:   make(chan struct{}),
	}
	go w.run()
	return w, nil
}

// Watch registers a folder tree. Every existing subdirectory is watched;
// directories created later are picked up from their create events.
func (w *Watcher) Watch(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			logging.Warn("Error accessing %s while registering watch: %v", path, err)
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") && path != root {
			return filepath.SkipDir
		}
		if addErr := w.fsw.Add(path); addErr != nil {
			return fmt.Errorf("failed to watch %s: %w", path, addErr)
		}
		return nil
	})
}

// Unwatch removes a single directory from the watch. Subdirectory
// watches are removed by the kernel when the directories disappear.
func (w *Watcher) Unwatch(root string) error {
	if err := w.fsw.Remove(root); err != nil {
		return fmt.Errorf("failed to unwatch %s: %w", root, err)
	}
	return nil
}

// Events returns the raw event stream. The channel closes when the
// watcher is closed.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Close stops the watcher and closes the event stream.
func (w *Watcher) Close() error {
	err := w.fsw.Close()
	<-w.done
	return err
}

func (w *Watcher) run() {
	defer close(w.done)
	defer close(w.events)

	for {
		select {
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handle(ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			logging.Warn("Watcher error: %v", err)
		}
	}
}

func (w *Watcher) handle(ev fsnotify.Event) {
	switch {
	case ev.Op.Has(fsnotify.Create):
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if addErr := w.fsw.Add(ev.Name); addErr != nil {
				logging.Warn("Failed to watch new directory %s: %v", ev.Name, addErr)
			}
			return
		}
		w.emit(ev.Name, EventAdded)
	case ev.Op.Has(fsnotify.Write):
		w.emit(ev.Name, EventAdded)
	case ev.Op.Has(fsnotify.Remove), ev.Op.Has(fsnotify.Rename):
		w.emit(ev.Name, EventRemoved)
	}
}

func (w *Watcher) emit(path string, kind EventKind) {
	if !mediatypes.IsMediaFile(path) {
		return
	}
	metrics.ScannerWatcherEventsTotal.WithLabelValues(string(kind)).Inc()
	select {
	case w.events <- Event{Path: path, Kind: kind}:
	default:
		logging.Warn("Watcher event buffer full, dropping %s event for %s", kind, path)
	}
}
