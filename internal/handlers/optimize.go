package handlers

import (
	"context"
	"net/http"

	"media-cache/internal/logging"
)

type optimizeRequest struct {
	FolderPath string `json:"folderPath"`
	FilePath   string `json:"filePath"`
}

// OptimizeFile runs a single-file optimization synchronously.
func (h *Handlers) OptimizeFile(w http.ResponseWriter, r *http.Request) {
	var req optimizeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.FolderPath == "" || req.FilePath == "" {
		writeJSONError(w, "folderPath and filePath are required", http.StatusBadRequest)
		return
	}

	result, err := h.opt.OptimizeFile(r.Context(), req.FolderPath, req.FilePath)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, result)
}

type batchRequest struct {
	FolderPath     string `json:"folderPath"`
	FollowSymlinks bool   `json:"followSymlinks"`
}

// BatchOptimize launches a whole-folder batch in the background and
// returns immediately. Progress and control go through the task API.
func (h *Handlers) BatchOptimize(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.FolderPath == "" {
		writeJSONError(w, "folderPath is required", http.StatusBadRequest)
		return
	}
	if !h.cfg.IsLibraryFolder(req.FolderPath) {
		writeJSONError(w, "folder not registered", http.StatusConflict)
		return
	}

	// The batch outlives this request; it is controlled via its task.
	go func() {
		if _, err := h.opt.BatchOptimize(context.Background(), req.FolderPath, req.FollowSymlinks); err != nil {
			logging.Error("Batch optimization of %s failed: %v", req.FolderPath, err)
		}
	}()

	w.WriteHeader(http.StatusAccepted)
	writeJSON(w, map[string]string{"status": "started", "folderPath": req.FolderPath})
}
