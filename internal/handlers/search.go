package handlers

import (
	"net/http"

	"mangashelf/internal/logging"
)

// Search matches volumes by name, series or path. Queries of three or
// more characters go through the full-text index; shorter ones fall
// back to substring matching.
func (h *Handlers) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")

	result, err := h.db.Search(query)
	if err != nil {
		logging.Error("Search %q failed: %v", query, err)
		writeJSONError(w, "Search failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, result)
}
