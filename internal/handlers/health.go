package handlers

import (
	"net/http"
)

// Health reports service liveness and whether any batch is active.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]interface{}{
		"status":     "ok",
		"batchBusy":  h.tasks.AnyActive(),
		"cacheStats": h.cacheStatsOrNil(r),
	})
}

func (h *Handlers) cacheStatsOrNil(r *http.Request) interface{} {
	stats, err := h.store.Stats(r.Context())
	if err != nil {
		return nil
	}
	return stats
}
