package media

import (
	"context"
	"crypto/md5"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"mangashelf/internal/logging"
	"mangashelf/internal/metrics"
	"mangashelf/internal/pdfrender"
)

// ErrNoPreview is the sentinel for "no thumbnail could be produced".
// It is a benign outcome: callers show a placeholder and move on. No
// failure inside the generator ever propagates as anything else.
var ErrNoPreview = errors.New("no preview available")

// ThumbnailGenerator renders and caches first-page previews of volumes.
//
// The cache key is derived from the path string, not the file content:
// a renamed file misses and an overwritten file hits stale. Both are
// accepted tradeoffs; entries are never invalidated automatically.
type ThumbnailGenerator struct {
	cacheDir string
	renderer pdfrender.Renderer
	enabled  bool

	// generation gate: when two requests race on a cold key, one
	// renders and the other finds the fresh cache file on re-check.
	// libvips is configured single-threaded, so serializing renders
	// costs nothing.
	genMu sync.Mutex
}

// NewThumbnailGenerator creates a generator writing PNG previews under
// cacheDir. With enabled false every request yields ErrNoPreview.
func NewThumbnailGenerator(cacheDir string, renderer pdfrender.Renderer, enabled bool) *ThumbnailGenerator {
	return &ThumbnailGenerator{
		cacheDir: cacheDir,
		renderer: renderer,
		enabled:  enabled,
	}
}

// CacheFilename returns the deterministic cache filename for a source
// path: the md5 of the path string, hex encoded, with a .png extension.
// Stable across restarts by construction.
func CacheFilename(sourcePath string) string {
	return fmt.Sprintf("%x.png", md5.Sum([]byte(sourcePath)))
}

// CachePath returns the full cache file path for a source path.
func (g *ThumbnailGenerator) CachePath(sourcePath string) string {
	return filepath.Join(g.cacheDir, CacheFilename(sourcePath))
}

// GetThumbnail returns the PNG thumbnail for the volume at sourcePath,
// rendering and caching it on first request. A cache hit is returned
// without validating it against the current file content. All failures
// come back as ErrNoPreview.
func (g *ThumbnailGenerator) GetThumbnail(ctx context.Context, sourcePath string) ([]byte, error) {
	if !g.enabled {
		return nil, ErrNoPreview
	}

	caching := true
	if err := os.MkdirAll(g.cacheDir, 0o755); err != nil {
		// Degrade to render-without-caching rather than failing.
		logging.Warn("Thumbnail cache dir unavailable: %v", err)
		caching = false
	}

	cachePath := g.CachePath(sourcePath)
	if caching {
		if data, err := os.ReadFile(cachePath); err == nil {
			metrics.ThumbnailCacheHits.Inc()
			return data, nil
		}
	}
	metrics.ThumbnailCacheMisses.Inc()

	g.genMu.Lock()
	defer g.genMu.Unlock()

	// Re-check after acquiring the gate: a racing request may have
	// rendered this key while we waited.
	if caching {
		if data, err := os.ReadFile(cachePath); err == nil {
			metrics.ThumbnailCacheHits.Inc()
			return data, nil
		}
	}

	data, err := g.render(ctx, sourcePath)
	if err != nil {
		logging.Debug("No preview for %s: %v", filepath.Base(sourcePath), err)
		metrics.ThumbnailGenerationsTotal.WithLabelValues("error").Inc()
		return nil, ErrNoPreview
	}
	metrics.ThumbnailGenerationsTotal.WithLabelValues("success").Inc()

	if caching {
		// Racing writers for the same key are harmless: content is
		// deterministic per path, last writer wins.
		if err := os.WriteFile(cachePath, data, 0o644); err != nil {
			logging.Warn("Failed to write thumbnail cache %s: %v", cachePath, err)
		}
	}
	return data, nil
}

// render rasterizes page 0 at thumbnail scale, closing the document on
// every path.
func (g *ThumbnailGenerator) render(ctx context.Context, sourcePath string) ([]byte, error) {
	start := time.Now()

	doc, err := g.renderer.Open(sourcePath)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	defer func() {
		if closeErr := doc.Close(); closeErr != nil {
			logging.Warn("Failed to close %s: %v", filepath.Base(sourcePath), closeErr)
		}
	}()

	if doc.PageCount() < 1 {
		return nil, fmt.Errorf("document has no pages")
	}

	data, err := doc.RenderPage(ctx, 0, pdfrender.ThumbnailScale)
	if err != nil {
		return nil, fmt.Errorf("render page 0: %w", err)
	}

	metrics.ThumbnailGenerationDuration.Observe(time.Since(start).Seconds())
	return data, nil
}
