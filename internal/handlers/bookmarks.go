package handlers

import (
	"encoding/json"
	"net/http"

	"mangashelf/internal/logging"
)

// BookmarkRequest names a reading position. Page is the 0-based page
// index; presentation layers add one for display.
type BookmarkRequest struct {
	Series string `json:"series"`
	Volume string `json:"volume"`
	Page   int    `json:"page"`
}

// GetBookmarks returns the full bookmark map keyed "<series>/<volume>".
func (h *Handlers) GetBookmarks(w http.ResponseWriter, _ *http.Request) {
	bookmarks, err := h.db.GetAllBookmarks()
	if err != nil {
		logging.Error("Failed to list bookmarks: %v", err)
		writeJSONError(w, "Failed to list bookmarks", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, bookmarks)
}

// GetBookmark returns the stored page for one volume, -1 when none.
func (h *Handlers) GetBookmark(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	series, volume := q.Get("series"), q.Get("volume")
	if series == "" || volume == "" {
		writeJSONError(w, "series and volume are required", http.StatusBadRequest)
		return
	}

	page, err := h.db.GetBookmark(series, volume)
	if err != nil {
		logging.Error("Failed to get bookmark: %v", err)
		writeJSONError(w, "Failed to get bookmark", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]int{"page": page})
}

// SetBookmark stores or overwrites a reading position.
func (h *Handlers) SetBookmark(w http.ResponseWriter, r *http.Request) {
	var req BookmarkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Series == "" || req.Volume == "" {
		writeJSONError(w, "series and volume are required", http.StatusBadRequest)
		return
	}
	if req.Page < 0 {
		writeJSONError(w, "page must be non-negative", http.StatusBadRequest)
		return
	}

	if err := h.db.SetBookmark(req.Series, req.Volume, req.Page); err != nil {
		logging.Error("Failed to set bookmark: %v", err)
		writeJSONError(w, "Failed to set bookmark", http.StatusInternalServerError)
		return
	}

	writeJSONStatus(w, "ok")
}

// DeleteBookmark forgets a reading position.
func (h *Handlers) DeleteBookmark(w http.ResponseWriter, r *http.Request) {
	var req BookmarkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Series == "" || req.Volume == "" {
		writeJSONError(w, "series and volume are required", http.StatusBadRequest)
		return
	}

	if err := h.db.DeleteBookmark(req.Series, req.Volume); err != nil {
		logging.Error("Failed to delete bookmark: %v", err)
		writeJSONError(w, "Failed to delete bookmark", http.StatusInternalServerError)
		return
	}

	writeJSONStatus(w, "ok")
}
