package handlers

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/gorilla/mux"

	"media-cache/internal/hashing"
	"media-cache/internal/logging"
	"media-cache/internal/mediatypes"
	"media-cache/internal/store"
)

// thumbnailPath returns where a hash's thumbnail would live, or "" when
// the hash is empty.
func (h *Handlers) thumbnailPath(fileHash string) string {
	if fileHash == "" {
		return ""
	}
	return filepath.Join(h.cfg.CacheFolder(), "thumbnails", hashing.ShortID(fileHash)+mediatypes.ThumbnailExt)
}

// GetCachedPath resolves a content hash to its derivative path.
func (h *Handlers) GetCachedPath(w http.ResponseWriter, r *http.Request) {
	hash := mux.Vars(r)["hash"]

	path, found, err := h.store.GetCachedPath(r.Context(), hash)
	if err != nil {
		writeError(w, err)
		return
	}
	if !found {
		writeJSONError(w, "hash not cached", http.StatusNotFound)
		return
	}
	writeJSON(w, map[string]string{"cachedPath": path})
}

type cacheEntryRequest struct {
	FolderPath   string `json:"folderPath"`
	OriginalPath string `json:"originalPath"`
	FileHash     string `json:"fileHash"`
	CachedPath   string `json:"cachedPath"`
	MediaType    string `json:"mediaType"`
	FileSize     int64  `json:"fileSize"`
	CachedSize   int64  `json:"cachedSize"`
}

// AddCacheEntry registers a derivative explicitly, for callers that
// produced the file themselves.
func (h *Handlers) AddCacheEntry(w http.ResponseWriter, r *http.Request) {
	var req cacheEntryRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.FolderPath == "" || req.FileHash == "" || req.CachedPath == "" {
		writeJSONError(w, "folderPath, fileHash and cachedPath are required", http.StatusBadRequest)
		return
	}
	mediaType, err := mediatypes.Parse(req.MediaType)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	folderID, err := h.store.GetFolderID(r.Context(), req.FolderPath)
	if err != nil {
		writeError(w, err)
		return
	}

	entry := store.CacheEntry{
		FolderID:     folderID,
		OriginalPath: req.OriginalPath,
		FileHash:     req.FileHash,
		CachedPath:   req.CachedPath,
		MediaType:    mediaType,
		FileSize:     req.FileSize,
		CachedSize:   req.CachedSize,
	}
	if err := h.store.AddCacheEntry(r.Context(), entry); err != nil {
		writeError(w, err)
		return
	}
	writeJSONStatus(w, "registered")
}

// CacheStats returns aggregate cache statistics.
func (h *Handlers) CacheStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.store.Stats(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, stats)
}

// CleanupOrphanedFolders unregisters folders whose paths no longer exist
// on disk and removes their unshared derivatives.
func (h *Handlers) CleanupOrphanedFolders(w http.ResponseWriter, r *http.Request) {
	folders, err := h.store.ListFolders(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	cleaned := 0
	derivativesRemoved := 0
	for _, f := range folders {
		if info, statErr := os.Stat(f.Path); statErr == nil && info.IsDir() {
			continue
		}
		logging.Info("Cleaning up orphaned folder %s", f.Path)

		if err := h.cfg.RemoveLibraryFolder(f.Path); err != nil {
			writeError(w, err)
			return
		}
		derivatives, err := h.store.RemoveFolder(r.Context(), f.Path)
		if err != nil {
			writeError(w, err)
			return
		}
		derivativesRemoved += h.removeDerivatives(r.Context(), derivatives)
		cleaned++
	}

	writeJSON(w, map[string]int{
		"foldersRemoved":     cleaned,
		"derivativesRemoved": derivativesRemoved,
	})
}
