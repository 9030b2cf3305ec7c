package pdfrender

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"mangashelf/internal/metrics"
)

// PopplerRenderer rasterizes PDFs through the poppler command-line
// tools (pdfinfo, pdftoppm). It is the fallback when libvips was built
// without PDF support.
type PopplerRenderer struct{}

// NewPopplerRenderer returns the poppler-backed renderer.
func NewPopplerRenderer() *PopplerRenderer {
	return &PopplerRenderer{}
}

// Name implements Renderer.
func (r *PopplerRenderer) Name() string { return "poppler" }

// CheckPoppler verifies the poppler tools are on PATH.
func CheckPoppler() error {
	for _, tool := range []string{"pdfinfo", "pdftoppm"} {
		if _, err := exec.LookPath(tool); err != nil {
			return fmt.Errorf("%s not found in PATH", tool)
		}
	}
	return nil
}

// Open implements Renderer. Document metadata comes from pdfinfo.
func (r *PopplerRenderer) Open(path string) (Document, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("stat document: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, "pdfinfo", path)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("pdfinfo error: %w - %s", err, stderr.String())
	}

	doc := &popplerDocument{path: path}
	doc.pages, doc.width, doc.height = parsePdfinfo(stdout.String())
	if doc.pages < 1 {
		return nil, fmt.Errorf("document has no pages")
	}
	return doc, nil
}

// parsePdfinfo extracts the page count and first-page media box from
// pdfinfo output.
func parsePdfinfo(out string) (pages int, width, height float64) {
	for _, line := range strings.Split(out, "\n") {
		key, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		value = strings.TrimSpace(value)
		switch strings.TrimSpace(key) {
		case "Pages":
			pages, _ = strconv.Atoi(value)
		case "Page size":
			// "595.28 x 841.89 pts (A4)"
			fields := strings.Fields(value)
			if len(fields) >= 3 {
				width, _ = strconv.ParseFloat(fields[0], 64)
				height, _ = strconv.ParseFloat(fields[2], 64)
			}
		}
	}
	return pages, width, height
}

type popplerDocument struct {
	path   string
	pages  int
	width  float64
	height float64
}

func (d *popplerDocument) PageCount() int { return d.pages }

func (d *popplerDocument) PageSize(ctx context.Context, page int) (float64, float64, error) {
	if page < 0 || page >= d.pages {
		return 0, 0, ErrPageOutOfRange
	}
	// pdfinfo reports the first page's media box; manga volumes have
	// uniform page sizes, so it serves for every page.
	return d.width, d.height, nil
}

func (d *popplerDocument) RenderPage(ctx context.Context, page int, scale float64) ([]byte, error) {
	if page < 0 || page >= d.pages {
		return nil, ErrPageOutOfRange
	}

	start := time.Now()
	outDir, err := os.MkdirTemp("", "mangashelf-render-")
	if err != nil {
		metrics.RenderFailures.WithLabelValues("poppler").Inc()
		return nil, fmt.Errorf("create render dir: %w", err)
	}
	defer os.RemoveAll(outDir)

	outRoot := filepath.Join(outDir, "page")
	pageNum := strconv.Itoa(page + 1) // pdftoppm pages are 1-based

	cmd := exec.CommandContext(ctx, "pdftoppm",
		"-png",
		"-r", strconv.Itoa(scaleToDPI(scale)),
		"-f", pageNum,
		"-l", pageNum,
		"-singlefile",
		d.path,
		outRoot,
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		metrics.RenderFailures.WithLabelValues("poppler").Inc()
		return nil, fmt.Errorf("pdftoppm error: %w - %s", err, stderr.String())
	}

	buf, err := os.ReadFile(outRoot + ".png")
	if err != nil {
		metrics.RenderFailures.WithLabelValues("poppler").Inc()
		return nil, fmt.Errorf("read rendered page: %w", err)
	}

	metrics.RenderDuration.WithLabelValues("poppler").Observe(time.Since(start).Seconds())
	return buf, nil
}

func (d *popplerDocument) Close() error { return nil }
