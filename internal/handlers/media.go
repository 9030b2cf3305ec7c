package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"mangashelf/internal/logging"
	"mangashelf/internal/media"
	"mangashelf/internal/pdfrender"
)

// GetThumbnail serves the cached first-page preview for a volume, or a
// series cover override when one exists in the series directory.
// Responses are cacheable: the cache key is the path, and entries never
// change in place.
func (h *Handlers) GetThumbnail(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		writeJSONError(w, "path is required", http.StatusBadRequest)
		return
	}
	if !h.isLibraryPath(path) {
		writeJSONError(w, "path outside library", http.StatusForbidden)
		return
	}

	// A cover image dropped next to the volumes wins over rendering.
	if series, err := h.db.GetSeries(seriesNameForPath(r)); err == nil && series != nil && series.CoverPath != "" {
		if data, err := media.LoadCover(series.CoverPath); err == nil {
			serveThumbnail(w, data)
			return
		}
	}

	data, err := h.thumbGen.GetThumbnail(r.Context(), path)
	if errors.Is(err, media.ErrNoPreview) {
		writeJSONError(w, "no preview available", http.StatusNotFound)
		return
	}
	if err != nil {
		logging.Error("Thumbnail for %s failed: %v", path, err)
		writeJSONError(w, "thumbnail generation failed", http.StatusInternalServerError)
		return
	}
	serveThumbnail(w, data)
}

// seriesNameForPath pulls the optional series query parameter used to
// resolve cover overrides.
func seriesNameForPath(r *http.Request) string {
	return r.URL.Query().Get("series")
}

func serveThumbnail(w http.ResponseWriter, data []byte) {
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	if _, err := w.Write(data); err != nil {
		logging.Debug("Thumbnail write aborted: %v", err)
	}
}

// GetPage renders one page of a volume as PNG. Scale comes from the
// viewport: with fit=1 and width/height given the page is scaled to the
// viewport with a small margin, otherwise the configured fixed scale
// applies. Page renders are never written to the thumbnail cache.
func (h *Handlers) GetPage(w http.ResponseWriter, r *http.Request) {
	if h.renderer == nil {
		writeJSONError(w, "no PDF renderer available", http.StatusServiceUnavailable)
		return
	}

	q := r.URL.Query()
	path := q.Get("path")
	if path == "" {
		writeJSONError(w, "path is required", http.StatusBadRequest)
		return
	}
	if !h.isLibraryPath(path) {
		writeJSONError(w, "path outside library", http.StatusForbidden)
		return
	}

	page, err := strconv.Atoi(q.Get("page"))
	if err != nil || page < 0 {
		writeJSONError(w, "page must be a non-negative integer", http.StatusBadRequest)
		return
	}

	doc, err := h.renderer.Open(path)
	if err != nil {
		logging.Warn("Failed to open %s: %v", path, err)
		writeJSONError(w, "failed to open document", http.StatusNotFound)
		return
	}
	defer func() {
		if err := doc.Close(); err != nil {
			logging.Warn("Failed to close %s: %v", path, err)
		}
	}()

	if page >= doc.PageCount() {
		writeJSONError(w, "page out of range", http.StatusBadRequest)
		return
	}

	h.recordPageCount(r, path, doc.PageCount())

	scale := h.pageScale
	fit := q.Get("fit") == "1" || q.Get("fit") == "true"
	if fit {
		viewW, _ := strconv.Atoi(q.Get("width"))
		viewH, _ := strconv.Atoi(q.Get("height"))
		pageW, pageH, err := doc.PageSize(r.Context(), page)
		if err != nil {
			logging.Warn("Failed to read page size of %s: %v", path, err)
			writeJSONError(w, "failed to read page size", http.StatusInternalServerError)
			return
		}
		scale = pdfrender.FitScale(viewW, viewH, pageW, pageH, true)
	}

	data, err := doc.RenderPage(r.Context(), page, scale)
	if err != nil {
		logging.Error("Failed to render %s page %d: %v", path, page, err)
		writeJSONError(w, "render failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("X-Page-Count", strconv.Itoa(doc.PageCount()))
	if _, err := w.Write(data); err != nil {
		logging.Debug("Page write aborted: %v", err)
	}
}

// recordPageCount backfills the catalog the first time a volume is
// opened; the indexer never opens files, so counts arrive lazily.
func (h *Handlers) recordPageCount(r *http.Request, path string, pages int) {
	volume, err := h.db.GetVolumeByPath(r.Context(), path)
	if err != nil || volume == nil || volume.PageCount == pages {
		return
	}
	if err := h.db.SetVolumePageCount(r.Context(), path, pages); err != nil {
		logging.Debug("Failed to record page count for %s: %v", path, err)
	}
}
