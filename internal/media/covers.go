package media

import (
	"bytes"
	"fmt"
	"image"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"

	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"

	"mangashelf/internal/doctypes"
	"mangashelf/internal/filesystem"
)

// Cover thumbnails are bounded to this box; the aspect ratio of the
// source image is preserved.
const (
	coverMaxWidth  = 480
	coverMaxHeight = 720
)

// FindCover returns the path to an explicit cover image inside dir, or
// "" when the directory carries none. Matching is case-insensitive
// (Cover.JPG is common on libraries that passed through Windows
// tooling); extensions are checked in a fixed order so the choice is
// deterministic when several covers coexist.
func FindCover(dir string) string {
	entries, err := filesystem.ReadDir(dir)
	if err != nil {
		return ""
	}
	found := make(map[string]string, len(doctypes.CoverExtensions))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := strings.ToLower(entry.Name())
		ext := filepath.Ext(name)
		if strings.TrimSuffix(name, ext) != doctypes.CoverBasename {
			continue
		}
		if _, ok := found[ext]; !ok {
			found[ext] = filepath.Join(dir, entry.Name())
		}
	}
	for _, ext := range doctypes.CoverPriority {
		if path, ok := found[ext]; ok {
			return path
		}
	}
	return ""
}

// LoadCover reads, decodes and downscales a cover image to thumbnail
// size, returning PNG bytes so covers and rendered thumbnails share one
// format downstream.
func LoadCover(path string) ([]byte, error) {
	f, err := filesystem.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open cover %s: %w", path, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode cover %s: %w", path, err)
	}

	fitted := imaging.Fit(img, coverMaxWidth, coverMaxHeight, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, fitted, imaging.PNG); err != nil {
		return nil, fmt.Errorf("failed to encode cover %s: %w", path, err)
	}
	return buf.Bytes(), nil
}
