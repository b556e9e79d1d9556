package handlers

import (
	"net/http"
)

type importRequest struct {
	Files      []string `json:"files"`
	DestFolder string   `json:"destFolder"`
}

// Import copies files into a destination library with date bucketing and
// conflict-safe renaming.
func (h *Handlers) Import(w http.ResponseWriter, r *http.Request) {
	var req importRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if len(req.Files) == 0 || req.DestFolder == "" {
		writeJSONError(w, "files and destFolder are required", http.StatusBadRequest)
		return
	}

	summary, err := h.importer.Import(r.Context(), req.Files, req.DestFolder)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, summary)
}
