package media

import (
	"bytes"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func writeTestPNG(t *testing.T, path string, w, h int) {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestFindCover(t *testing.T) {
	t.Run("NoCover", func(t *testing.T) {
		dir := t.TempDir()
		writeTestPNG(t, filepath.Join(dir, "page.png"), 10, 10)
		if got := FindCover(dir); got != "" {
			t.Errorf("expected no cover, got %s", got)
		}
	})

	t.Run("MissingDir", func(t *testing.T) {
		if got := FindCover(filepath.Join(t.TempDir(), "nope")); got != "" {
			t.Errorf("expected no cover for missing dir, got %s", got)
		}
	})

	t.Run("CaseInsensitive", func(t *testing.T) {
		dir := t.TempDir()
		writeTestPNG(t, filepath.Join(dir, "Cover.PNG"), 10, 10)
		if got := FindCover(dir); filepath.Base(got) != "Cover.PNG" {
			t.Errorf("expected Cover.PNG, got %s", got)
		}
	})

	t.Run("ExtensionPriority", func(t *testing.T) {
		dir := t.TempDir()
		writeTestPNG(t, filepath.Join(dir, "cover.png"), 10, 10)
		writeTestPNG(t, filepath.Join(dir, "cover.jpg"), 10, 10)
		// jpg comes before png in the extension order.
		if got := FindCover(dir); filepath.Base(got) != "cover.jpg" {
			t.Errorf("expected cover.jpg to win, got %s", got)
		}
	})

	t.Run("IgnoresDirectories", func(t *testing.T) {
		dir := t.TempDir()
		if err := os.Mkdir(filepath.Join(dir, "cover.jpg"), 0o755); err != nil {
			t.Fatal(err)
		}
		if got := FindCover(dir); got != "" {
			t.Errorf("directory should not match as cover, got %s", got)
		}
	})
}

func TestLoadCover(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "cover.png")
	writeTestPNG(t, src, 2000, 3000)

	data, err := LoadCover(src)
	if err != nil {
		t.Fatalf("LoadCover failed: %v", err)
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("result does not decode: %v", err)
	}
	if format != "png" {
		t.Errorf("expected png output, got %s", format)
	}
	bounds := img.Bounds()
	if bounds.Dx() > coverMaxWidth || bounds.Dy() > coverMaxHeight {
		t.Errorf("cover not downscaled: %dx%d", bounds.Dx(), bounds.Dy())
	}
	// Aspect ratio 2:3 matches the bounding box, so the fit should be
	// exact on both axes.
	if bounds.Dx() != coverMaxWidth || bounds.Dy() != coverMaxHeight {
		t.Errorf("expected %dx%d, got %dx%d", coverMaxWidth, coverMaxHeight, bounds.Dx(), bounds.Dy())
	}
}

func TestLoadCoverErrors(t *testing.T) {
	dir := t.TempDir()

	if _, err := LoadCover(filepath.Join(dir, "missing.png")); err == nil {
		t.Error("expected error for missing file")
	}

	garbage := filepath.Join(dir, "cover.jpg")
	if err := os.WriteFile(garbage, []byte("not an image"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadCover(garbage); err == nil {
		t.Error("expected error for undecodable file")
	}
}
