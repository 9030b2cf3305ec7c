package handlers

import (
	"net/http"

	"mangashelf/internal/logging"
)

// StatsResponse summarizes the catalog.
type StatsResponse struct {
	SeriesCount   int    `json:"seriesCount"`
	VolumeCount   int    `json:"volumeCount"`
	FavoriteCount int    `json:"favoriteCount"`
	BookmarkCount int    `json:"bookmarkCount"`
	LastIndexed   string `json:"lastIndexed,omitempty"`
	IndexDuration string `json:"indexDuration,omitempty"`
}

// GetStats returns library statistics.
func (h *Handlers) GetStats(w http.ResponseWriter, _ *http.Request) {
	stats := h.db.GetStats()

	response := StatsResponse{
		SeriesCount:   stats.SeriesCount,
		VolumeCount:   stats.VolumeCount,
		FavoriteCount: h.db.GetFavoriteCount(),
		BookmarkCount: h.db.GetBookmarkCount(),
	}
	if !stats.LastIndexed.IsZero() {
		response.LastIndexed = stats.LastIndexed.Format("2006-01-02T15:04:05Z07:00")
		response.IndexDuration = stats.IndexDuration.String()
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, response)
}

// Reindex triggers a library re-scan without waiting for it.
func (h *Handlers) Reindex(w http.ResponseWriter, _ *http.Request) {
	if h.indexer.IsIndexing() {
		writeJSONStatus(w, "already_running")
		return
	}

	logging.Info("Re-scan requested over the API")
	h.indexer.TriggerIndex()
	writeJSONStatus(w, "started")
}
