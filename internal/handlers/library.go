package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"mangashelf/internal/database"
	"mangashelf/internal/logging"
)

// GetSeries lists every series on the shelf, ordered by the requested
// sort strategy.
func (h *Handlers) GetSeries(w http.ResponseWriter, r *http.Request) {
	series, err := h.db.ListSeries(h.sortFromRequest(r))
	if err != nil {
		logging.Error("Failed to list series: %v", err)
		writeJSONError(w, "Failed to list series", http.StatusInternalServerError)
		return
	}
	if series == nil {
		series = []database.Series{}
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, series)
}

// GetVolumes lists the volumes of one series with bookmarks joined in.
func (h *Handlers) GetVolumes(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["series"]

	series, err := h.db.GetSeries(name)
	if err != nil {
		logging.Error("Failed to get series %q: %v", name, err)
		writeJSONError(w, "Failed to get series", http.StatusInternalServerError)
		return
	}
	if series == nil {
		writeJSONError(w, "Series not found", http.StatusNotFound)
		return
	}

	volumes, err := h.db.ListVolumes(name, h.sortFromRequest(r))
	if err != nil {
		logging.Error("Failed to list volumes for %q: %v", name, err)
		writeJSONError(w, "Failed to list volumes", http.StatusInternalServerError)
		return
	}
	if volumes == nil {
		volumes = []database.Volume{}
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, volumes)
}
