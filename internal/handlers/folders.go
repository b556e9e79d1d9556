package handlers

import (
	"context"
	"net/http"
	"os"

	"media-cache/internal/logging"
	"media-cache/internal/store"
)

type folderRequest struct {
	Path string `json:"path"`
}

// ListFolders returns every registered library folder.
func (h *Handlers) ListFolders(w http.ResponseWriter, r *http.Request) {
	folders, err := h.store.ListFolders(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if folders == nil {
		folders = []store.LibraryFolder{}
	}
	writeJSON(w, folders)
}

// RegisterFolder adds a library folder to the config and the store.
func (h *Handlers) RegisterFolder(w http.ResponseWriter, r *http.Request) {
	var req folderRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Path == "" {
		writeJSONError(w, "path is required", http.StatusBadRequest)
		return
	}
	if info, err := os.Stat(req.Path); err != nil || !info.IsDir() {
		writeJSONError(w, "path is not an existing directory", http.StatusBadRequest)
		return
	}

	wasRegistered := h.cfg.IsLibraryFolder(req.Path)
	if err := h.cfg.AddLibraryFolder(req.Path); err != nil {
		writeError(w, err)
		return
	}
	id, err := h.store.AddFolder(r.Context(), req.Path)
	if err != nil {
		// Roll back the config entry so a failed registration leaves no
		// partial state. A folder that was already registered stays.
		if !wasRegistered {
			if rbErr := h.cfg.RemoveLibraryFolder(req.Path); rbErr != nil {
				logging.Warn("Failed to roll back config entry for %s: %v", req.Path, rbErr)
			}
		}
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]interface{}{"id": id, "path": req.Path})
}

// UnregisterFolder removes a folder from config and store and deletes
// its derivative files, except those still referenced by other folders.
func (h *Handlers) UnregisterFolder(w http.ResponseWriter, r *http.Request) {
	var req folderRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Path == "" {
		writeJSONError(w, "path is required", http.StatusBadRequest)
		return
	}

	if err := h.cfg.RemoveLibraryFolder(req.Path); err != nil {
		writeError(w, err)
		return
	}
	derivatives, err := h.store.RemoveFolder(r.Context(), req.Path)
	if err != nil {
		writeError(w, err)
		return
	}

	removed := h.removeDerivatives(r.Context(), derivatives)
	writeJSON(w, map[string]interface{}{"path": req.Path, "derivativesRemoved": removed})
}

// ClearFolderCache drops a folder's cache entries and derivative files
// while keeping the folder registered.
func (h *Handlers) ClearFolderCache(w http.ResponseWriter, r *http.Request) {
	var req folderRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Path == "" {
		writeJSONError(w, "path is required", http.StatusBadRequest)
		return
	}

	derivatives, err := h.store.ClearFolderCache(r.Context(), req.Path)
	if err != nil {
		writeError(w, err)
		return
	}

	removed := h.removeDerivatives(r.Context(), derivatives)
	writeJSON(w, map[string]interface{}{"path": req.Path, "derivativesRemoved": removed})
}

// removeDerivatives deletes derivative files whose hashes no longer
// resolve in the store. A hash still referenced by another folder keeps
// its file.
func (h *Handlers) removeDerivatives(ctx context.Context, derivatives []store.CachedDerivative) int {
	removed := 0
	for _, d := range derivatives {
		if _, stillUsed, err := h.store.GetCachedPath(ctx, d.FileHash); err != nil || stillUsed {
			continue
		}
		if err := os.Remove(d.CachedPath); err != nil {
			if !os.IsNotExist(err) {
				logging.Warn("Failed to remove derivative %s: %v", d.CachedPath, err)
			}
			continue
		}
		removed++
		if thumb := h.thumbnailPath(d.FileHash); thumb != "" {
			if err := os.Remove(thumb); err != nil && !os.IsNotExist(err) {
				logging.Warn("Failed to remove thumbnail %s: %v", thumb, err)
			}
		}
	}
	return removed
}
