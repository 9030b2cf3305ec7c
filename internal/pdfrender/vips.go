package pdfrender

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"mangashelf/internal/logging"
	"mangashelf/internal/metrics"

	"github.com/davidbyttow/govips/v2/vips"
)

var (
	vipsInitMutex   sync.Mutex
	vipsInitialized bool
	vipsAvailable   bool
)

// vipsLoadMu serializes every pdfload call: libvips's PDF loader is
// not reentrant, so only one goroutine may load at a time.
var vipsLoadMu sync.Mutex

// InitVips initializes libvips. Call once at startup before any render.
func InitVips() error {
	vipsInitMutex.Lock()
	defer vipsInitMutex.Unlock()

	if vipsInitialized {
		return nil
	}

	// Configure vips logging before Startup so LOG_LEVEL is respected.
	var vipsLogLevel vips.LogLevel
	switch logging.GetLevel() {
	case logging.LevelDebug:
		vipsLogLevel = vips.LogLevelInfo
	case logging.LevelWarn:
		vipsLogLevel = vips.LogLevelError
	case logging.LevelError:
		vipsLogLevel = vips.LogLevelCritical
	default:
		vipsLogLevel = vips.LogLevelWarning
	}
	vips.LoggingSettings(func(domain string, level vips.LogLevel, msg string) {
		switch {
		case level >= vips.LogLevelError:
			logging.Error("[%s] %s", domain, msg)
		case level == vips.LogLevelWarning:
			logging.Warn("[%s] %s", domain, msg)
		default:
			logging.Debug("[%s] %s", domain, msg)
		}
	}, vipsLogLevel)

	// Conservative memory settings: pages render one at a time.
	vips.Startup(&vips.Config{
		ConcurrencyLevel: 1,
		MaxCacheMem:      50 * 1024 * 1024,
		MaxCacheSize:     100,
	})

	vipsInitialized = true
	vipsAvailable = true
	logging.Info("libvips initialized successfully (version: %s)", vips.Version)
	return nil
}

// ShutdownVips releases libvips resources.
func ShutdownVips() {
	vipsInitMutex.Lock()
	defer vipsInitMutex.Unlock()

	if vipsInitialized {
		vips.Shutdown()
		vipsInitialized = false
		vipsAvailable = false
		logging.Info("libvips shutdown complete")
	}
}

// IsVipsAvailable returns whether libvips is initialized.
func IsVipsAvailable() bool {
	vipsInitMutex.Lock()
	defer vipsInitMutex.Unlock()
	return vipsAvailable
}

// VipsRenderer rasterizes PDFs in process through libvips pdfload.
type VipsRenderer struct{}

// NewVipsRenderer returns the libvips-backed renderer. InitVips must
// have succeeded first.
func NewVipsRenderer() *VipsRenderer {
	return &VipsRenderer{}
}

// Name implements Renderer.
func (r *VipsRenderer) Name() string { return "vips" }

// Open implements Renderer. The page count and first-page dimensions are
// read eagerly from a low-density import of page 0.
func (r *VipsRenderer) Open(path string) (Document, error) {
	if !IsVipsAvailable() {
		return nil, fmt.Errorf("libvips not available")
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("stat document: %w", err)
	}

	params := vips.NewImportParams()
	params.Page.Set(0)
	params.Density.Set(baseDPI)

	vipsLoadMu.Lock()
	defer vipsLoadMu.Unlock()
	ref, err := vips.LoadImageFromFile(path, params)
	if err != nil {
		return nil, fmt.Errorf("vips failed to load document: %w", err)
	}
	defer ref.Close()

	pages := ref.Pages()
	if pages < 1 {
		return nil, fmt.Errorf("document has no pages")
	}

	return &vipsDocument{
		path:   path,
		pages:  pages,
		width:  float64(ref.Width()),
		height: float64(ref.Height()),
	}, nil
}

type vipsDocument struct {
	path   string
	pages  int
	width  float64
	height float64
}

func (d *vipsDocument) PageCount() int { return d.pages }

func (d *vipsDocument) PageSize(ctx context.Context, page int) (float64, float64, error) {
	if page < 0 || page >= d.pages {
		return 0, 0, ErrPageOutOfRange
	}
	if page == 0 {
		return d.width, d.height, nil
	}

	params := vips.NewImportParams()
	params.Page.Set(page)
	params.Density.Set(baseDPI)

	vipsLoadMu.Lock()
	defer vipsLoadMu.Unlock()
	ref, err := vips.LoadImageFromFile(d.path, params)
	if err != nil {
		return 0, 0, fmt.Errorf("vips failed to load page %d: %w", page, err)
	}
	defer ref.Close()
	return float64(ref.Width()), float64(ref.Height()), nil
}

func (d *vipsDocument) RenderPage(ctx context.Context, page int, scale float64) ([]byte, error) {
	if page < 0 || page >= d.pages {
		return nil, ErrPageOutOfRange
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	params := vips.NewImportParams()
	params.Page.Set(page)
	params.Density.Set(scaleToDPI(scale))

	vipsLoadMu.Lock()
	defer vipsLoadMu.Unlock()
	ref, err := vips.LoadImageFromFile(d.path, params)
	if err != nil {
		metrics.RenderFailures.WithLabelValues("vips").Inc()
		return nil, fmt.Errorf("vips failed to render page %d: %w", page, err)
	}
	defer ref.Close()

	buf, _, err := ref.ExportPng(vips.NewPngExportParams())
	if err != nil {
		metrics.RenderFailures.WithLabelValues("vips").Inc()
		return nil, fmt.Errorf("vips png export failed: %w", err)
	}

	metrics.RenderDuration.WithLabelValues("vips").Observe(time.Since(start).Seconds())
	return buf, nil
}

func (d *vipsDocument) Close() error { return nil }
