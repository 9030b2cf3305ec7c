package handlers

import (
	"encoding/json"
	"net/http"
	"path/filepath"
	"strings"

	"mangashelf/internal/logging"
	"mangashelf/internal/natsort"
)

// writeJSON encodes v as JSON and writes it to the response writer.
// Encoding errors are logged since there is no way to recover mid
// response.
func writeJSON(w http.ResponseWriter, v interface{}) {
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error("failed to encode JSON response: %v", err)
	}
}

// writeJSONError writes an error response as JSON with the given status code.
func writeJSONError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	writeJSON(w, map[string]string{"error": message})
}

// writeJSONStatus writes a simple status response as JSON.
func writeJSONStatus(w http.ResponseWriter, status string) {
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]string{"status": status})
}

// sortFromRequest resolves the ?sort= query parameter to a strategy ID,
// falling back to the configured default when absent or unknown.
func (h *Handlers) sortFromRequest(r *http.Request) int {
	switch name := r.URL.Query().Get("sort"); name {
	case "natural", "locale", "lexical":
		return natsort.StrategyByName(name).ID()
	default:
		return h.defaultSort
	}
}

// isLibraryPath reports whether path resolves to a location inside one
// of the configured library roots. Every file-serving endpoint checks
// this before touching the filesystem.
func (h *Handlers) isLibraryPath(path string) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	for _, root := range h.libraryDirs {
		rel, err := filepath.Rel(root, abs)
		if err != nil {
			continue
		}
		if rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return true
		}
	}
	return false
}
