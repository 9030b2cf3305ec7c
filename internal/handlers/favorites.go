package handlers

import (
	"encoding/json"
	"net/http"

	"mangashelf/internal/logging"
)

type FavoriteRequest struct {
	Series string `json:"series"`
}

// GetFavorites lists favorite series in insertion order.
func (h *Handlers) GetFavorites(w http.ResponseWriter, _ *http.Request) {
	favorites, err := h.db.GetFavorites()
	if err != nil {
		logging.Error("Failed to list favorites: %v", err)
		writeJSONError(w, "Failed to list favorites", http.StatusInternalServerError)
		return
	}
	if favorites == nil {
		favorites = []string{}
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, favorites)
}

func (h *Handlers) AddFavorite(w http.ResponseWriter, r *http.Request) {
	var req FavoriteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Series == "" {
		writeJSONError(w, "series is required", http.StatusBadRequest)
		return
	}

	if err := h.db.AddFavorite(req.Series); err != nil {
		logging.Error("Failed to add favorite: %v", err)
		writeJSONError(w, "Failed to add favorite", http.StatusInternalServerError)
		return
	}

	writeJSONStatus(w, "ok")
}

func (h *Handlers) RemoveFavorite(w http.ResponseWriter, r *http.Request) {
	var req FavoriteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Series == "" {
		writeJSONError(w, "series is required", http.StatusBadRequest)
		return
	}

	if err := h.db.RemoveFavorite(req.Series); err != nil {
		logging.Error("Failed to remove favorite: %v", err)
		writeJSONError(w, "Failed to remove favorite", http.StatusInternalServerError)
		return
	}

	writeJSONStatus(w, "ok")
}

func (h *Handlers) CheckFavorite(w http.ResponseWriter, r *http.Request) {
	series := r.URL.Query().Get("series")
	if series == "" {
		writeJSONError(w, "series is required", http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]bool{"favorite": h.db.IsFavorite(series)})
}
