package handlers

import (
	"net/http"

	"media-cache/internal/scanner"
	"media-cache/internal/store"
)

type scanRequest struct {
	Path           string `json:"path"`
	FollowSymlinks bool   `json:"followSymlinks"`
	Rescan         bool   `json:"rescan"`
}

// ScanFolder scans (or rescans) a registered folder and returns the
// resulting media records. A rescan also evicts records whose files
// disappeared.
func (h *Handlers) ScanFolder(w http.ResponseWriter, r *http.Request) {
	var req scanRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Path == "" {
		writeJSONError(w, "path is required", http.StatusBadRequest)
		return
	}

	var records []store.MediaRecord
	var evicted int
	var err error
	if req.Rescan {
		records, evicted, err = h.scanner.Rescan(r.Context(), req.Path, req.FollowSymlinks)
	} else {
		records, err = h.scanner.Scan(r.Context(), req.Path, req.FollowSymlinks)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	if records == nil {
		records = []store.MediaRecord{}
	}
	writeJSON(w, map[string]interface{}{
		"records": records,
		"evicted": evicted,
	})
}

// ScanImportSource walks an import source and returns candidates with
// duplicate flags.
func (h *Handlers) ScanImportSource(w http.ResponseWriter, r *http.Request) {
	var req scanRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Path == "" {
		writeJSONError(w, "path is required", http.StatusBadRequest)
		return
	}

	candidates, err := h.scanner.ScanImportSource(r.Context(), req.Path)
	if err != nil {
		writeError(w, err)
		return
	}
	if candidates == nil {
		candidates = []scanner.ImportCandidate{}
	}
	writeJSON(w, candidates)
}

// CountMediaFiles returns the number of media files under a path.
func (h *Handlers) CountMediaFiles(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		writeJSONError(w, "path query parameter is required", http.StatusBadRequest)
		return
	}

	count, err := scanner.CountMediaFiles(path)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]int64{"count": count})
}
