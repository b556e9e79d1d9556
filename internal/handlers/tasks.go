package handlers

import (
	"net/http"

	"media-cache/internal/tasks"
)

type taskRequest struct {
	FolderPath string `json:"folderPath"`
	TotalFiles int64  `json:"totalFiles"`
}

func (h *Handlers) taskFolderFromRequest(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req taskRequest
	if !decodeJSON(w, r, &req) {
		return "", false
	}
	if req.FolderPath == "" {
		writeJSONError(w, "folderPath is required", http.StatusBadRequest)
		return "", false
	}
	return req.FolderPath, true
}

// ListTasks returns a snapshot of every registered task.
func (h *Handlers) ListTasks(w http.ResponseWriter, r *http.Request) {
	snaps := h.tasks.All()
	if snaps == nil {
		snaps = []tasks.Snapshot{}
	}
	writeJSON(w, snaps)
}

// CreateTask registers a new running task for a folder, replacing any
// existing one.
func (h *Handlers) CreateTask(w http.ResponseWriter, r *http.Request) {
	var req taskRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.FolderPath == "" {
		writeJSONError(w, "folderPath is required", http.StatusBadRequest)
		return
	}
	task := h.tasks.Create(req.FolderPath, req.TotalFiles)
	writeJSON(w, task.Snapshot())
}

// TaskStatus returns one folder's task snapshot.
func (h *Handlers) TaskStatus(w http.ResponseWriter, r *http.Request) {
	folderPath := r.URL.Query().Get("path")
	if folderPath == "" {
		writeJSONError(w, "path query parameter is required", http.StatusBadRequest)
		return
	}
	task, err := h.tasks.Get(folderPath)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, task.Snapshot())
}

// PauseTask pauses a folder's task.
func (h *Handlers) PauseTask(w http.ResponseWriter, r *http.Request) {
	folderPath, ok := h.taskFolderFromRequest(w, r)
	if !ok {
		return
	}
	if err := h.tasks.Pause(folderPath); err != nil {
		writeError(w, err)
		return
	}
	writeJSONStatus(w, "paused")
}

// ResumeTask resumes a folder's task.
func (h *Handlers) ResumeTask(w http.ResponseWriter, r *http.Request) {
	folderPath, ok := h.taskFolderFromRequest(w, r)
	if !ok {
		return
	}
	if err := h.tasks.Resume(folderPath); err != nil {
		writeError(w, err)
		return
	}
	writeJSONStatus(w, "resumed")
}

// StopTask stops a folder's task.
func (h *Handlers) StopTask(w http.ResponseWriter, r *http.Request) {
	folderPath, ok := h.taskFolderFromRequest(w, r)
	if !ok {
		return
	}
	if err := h.tasks.Stop(folderPath); err != nil {
		writeError(w, err)
		return
	}
	writeJSONStatus(w, "stopped")
}

// RemoveTask forgets a folder's task.
func (h *Handlers) RemoveTask(w http.ResponseWriter, r *http.Request) {
	folderPath := r.URL.Query().Get("path")
	if folderPath == "" {
		writeJSONError(w, "path query parameter is required", http.StatusBadRequest)
		return
	}
	h.tasks.Remove(folderPath)
	writeJSONStatus(w, "removed")
}
