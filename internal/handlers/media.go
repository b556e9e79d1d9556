package handlers

import (
	"net/http"

	"media-cache/internal/store"
)

// LoadMediaRecords returns all persisted media metadata rows.
func (h *Handlers) LoadMediaRecords(w http.ResponseWriter, r *http.Request) {
	records, err := h.store.LoadMediaRecords(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if records == nil {
		records = []store.MediaRecord{}
	}
	writeJSON(w, records)
}

// SaveMediaRecords upserts a batch of media metadata rows.
func (h *Handlers) SaveMediaRecords(w http.ResponseWriter, r *http.Request) {
	var records []store.MediaRecord
	if !decodeJSON(w, r, &records) {
		return
	}

	saved, err := h.store.SaveMediaRecords(r.Context(), records)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]int{"saved": saved})
}

// DeleteMediaRecord removes the metadata row for one file path.
func (h *Handlers) DeleteMediaRecord(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		writeJSONError(w, "path query parameter is required", http.StatusBadRequest)
		return
	}

	if err := h.store.DeleteMediaRecordByPath(r.Context(), path); err != nil {
		writeError(w, err)
		return
	}
	writeJSONStatus(w, "deleted")
}

// CountMediaRecords returns the number of persisted media rows.
func (h *Handlers) CountMediaRecords(w http.ResponseWriter, r *http.Request) {
	count, err := h.store.CountMediaRecords(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]int64{"count": count})
}
