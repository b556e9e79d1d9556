package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"media-cache/internal/logging"
	"media-cache/internal/optimizer"
	"media-cache/internal/store"
	"media-cache/internal/tasks"
)

// writeJSON encodes v as the response body.
func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error("failed to encode JSON response: %v", err)
	}
}

// writeJSONError writes an error response as JSON with the given status.
func writeJSONError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(map[string]string{"error": message}); err != nil {
		logging.Error("failed to encode JSON error response: %v", err)
	}
}

// writeJSONStatus writes a simple status response as JSON.
func writeJSONStatus(w http.ResponseWriter, status string) {
	writeJSON(w, map[string]string{"status": status})
}

// decodeJSON parses the request body into v, reporting a 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSONError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

// writeError maps domain errors onto HTTP statuses so the shell can tell
// "install ffmpeg" apart from "folder is gone" apart from "we broke".
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrFolderNotFound), errors.Is(err, tasks.ErrTaskNotFound):
		writeJSONError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, optimizer.ErrFolderRemoved), errors.Is(err, tasks.ErrTaskStopped):
		writeJSONError(w, err.Error(), http.StatusConflict)
	case errors.Is(err, optimizer.ErrEncoderMissing):
		writeJSONError(w, err.Error(), http.StatusServiceUnavailable)
	case errors.Is(err, optimizer.ErrUnsupportedFile):
		writeJSONError(w, err.Error(), http.StatusBadRequest)
	default:
		var encErr *optimizer.EncoderError
		if errors.As(err, &encErr) {
			writeJSONError(w, encErr.Error(), http.StatusUnprocessableEntity)
			return
		}
		writeJSONError(w, err.Error(), http.StatusInternalServerError)
	}
}
