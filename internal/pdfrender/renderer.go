// Package pdfrender rasterizes PDF pages to PNG.
//
// Rendering goes through the Renderer interface so callers never depend
// on a concrete backend. Two backends exist: libvips (pdfload, in
// process) and poppler (pdftoppm subprocess). The thumbnail cache and
// the page endpoints both consume this package; tests substitute a fake.
package pdfrender

import (
	"context"
	"errors"
)

// ThumbnailScale is the fixed render scale used for cached thumbnails.
// Deliberately small: the result is a preview, not a readable page.
const ThumbnailScale = 0.2

// DefaultPageScale is used for page renders when fit-to-viewport is not
// requested.
const DefaultPageScale = 1.5

// baseDPI is the PDF point density corresponding to scale 1.0.
const baseDPI = 72

// ErrPageOutOfRange is returned when a requested page does not exist.
var ErrPageOutOfRange = errors.New("page out of range")

// Renderer opens PDF documents for rasterization.
type Renderer interface {
	// Open prepares the document at path. The returned Document must be
	// closed by the caller on every path.
	Open(path string) (Document, error)
	// Name identifies the backend ("vips", "poppler") for logs and metrics.
	Name() string
}

// Document is an open PDF ready to rasterize.
type Document interface {
	// PageCount returns the number of pages in the document.
	PageCount() int
	// PageSize returns the media box of a 0-based page in PDF points.
	PageSize(ctx context.Context, page int) (width, height float64, err error)
	// RenderPage rasterizes a 0-based page at the given scale (1.0 is
	// 72 dpi) and returns an encoded PNG.
	RenderPage(ctx context.Context, page int, scale float64) ([]byte, error)
	// Close releases the document.
	Close() error
}

// FitScale computes the render scale for a viewport. With fit enabled it
// scales the page to the viewport with a small margin; otherwise the
// fixed default scale applies. Degenerate dimensions fall back to the
// default as well.
func FitScale(viewW, viewH int, pageW, pageH float64, fit bool) float64 {
	if !fit || viewW <= 0 || viewH <= 0 || pageW <= 0 || pageH <= 0 {
		return DefaultPageScale
	}
	sx := float64(viewW) / pageW
	sy := float64(viewH) / pageH
	s := sx
	if sy < s {
		s = sy
	}
	return s * 0.98
}

func scaleToDPI(scale float64) int {
	dpi := int(float64(baseDPI) * scale)
	if dpi < 1 {
		dpi = 1
	}
	return dpi
}
