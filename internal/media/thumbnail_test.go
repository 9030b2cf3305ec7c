package media

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"mangashelf/internal/pdfrender"
)

// fakeRenderer counts Open calls and serves canned documents so cache
// behavior can be asserted without a real PDF backend. openDelay
// simulates a slow backend.
type fakeRenderer struct {
	mu        sync.Mutex
	openCalls int32
	failPaths map[string]bool
	openDelay time.Duration
}

func (f *fakeRenderer) Open(path string) (pdfrender.Document, error) {
	atomic.AddInt32(&f.openCalls, 1)
	if f.openDelay > 0 {
		time.Sleep(f.openDelay)
	}
	f.mu.Lock()
	fail := f.failPaths[path]
	f.mu.Unlock()
	if fail {
		return nil, errors.New("corrupt document")
	}
	return &fakeDocument{path: path}, nil
}

func (f *fakeRenderer) Name() string { return "fake" }

func (f *fakeRenderer) opens() int32 { return atomic.LoadInt32(&f.openCalls) }

type fakeDocument struct {
	path   string
	closed bool
}

func (d *fakeDocument) PageCount() int { return 3 }

func (d *fakeDocument) PageSize(ctx context.Context, page int) (float64, float64, error) {
	return 595.28, 841.89, nil
}

func (d *fakeDocument) RenderPage(ctx context.Context, page int, scale float64) ([]byte, error) {
	return []byte(fmt.Sprintf("png:%s:%d:%g", d.path, page, scale)), nil
}

func (d *fakeDocument) Close() error {
	d.closed = true
	return nil
}

func TestCacheFilenameDeterministic(t *testing.T) {
	a := CacheFilename("/library/Naruto/vol1.pdf")
	b := CacheFilename("/library/Naruto/vol1.pdf")
	if a != b {
		t.Errorf("same path produced different cache names: %s vs %s", a, b)
	}
	c := CacheFilename("/library/Naruto/vol2.pdf")
	if a == c {
		t.Errorf("different paths collided on cache name %s", a)
	}
	if filepath.Ext(a) != ".png" {
		t.Errorf("cache name should end in .png, got %s", a)
	}
	// The digest is over the path string, so the same bytes always map
	// to the same entry regardless of process or host.
	if want := "84b9b46d041832b7c764a0f9be1c0d72.png"; a != want {
		t.Errorf("cache filename = %s, want %s", a, want)
	}
}

func TestGetThumbnailRendersOnceThenCaches(t *testing.T) {
	renderer := &fakeRenderer{}
	gen := NewThumbnailGenerator(t.TempDir(), renderer, true)

	first, err := gen.GetThumbnail(context.Background(), "/library/Naruto/vol1.pdf")
	if err != nil {
		t.Fatalf("first GetThumbnail failed: %v", err)
	}
	if len(first) == 0 {
		t.Fatal("first GetThumbnail returned empty data")
	}
	if got := renderer.opens(); got != 1 {
		t.Fatalf("expected 1 document open, got %d", got)
	}

	second, err := gen.GetThumbnail(context.Background(), "/library/Naruto/vol1.pdf")
	if err != nil {
		t.Fatalf("second GetThumbnail failed: %v", err)
	}
	if string(first) != string(second) {
		t.Error("cached thumbnail differs from rendered one")
	}
	if got := renderer.opens(); got != 1 {
		t.Errorf("cache hit should not re-open the document, got %d opens", got)
	}
}

func TestGetThumbnailFailureIsIsolated(t *testing.T) {
	renderer := &fakeRenderer{failPaths: map[string]bool{
		"/library/Bleach/broken.pdf": true,
	}}
	gen := NewThumbnailGenerator(t.TempDir(), renderer, true)

	if _, err := gen.GetThumbnail(context.Background(), "/library/Bleach/broken.pdf"); !errors.Is(err, ErrNoPreview) {
		t.Errorf("expected ErrNoPreview for broken document, got %v", err)
	}

	// A bad volume must not poison its neighbors.
	if _, err := gen.GetThumbnail(context.Background(), "/library/Bleach/vol1.pdf"); err != nil {
		t.Errorf("healthy document failed after broken one: %v", err)
	}
}

func TestGetThumbnailDisabled(t *testing.T) {
	renderer := &fakeRenderer{}
	gen := NewThumbnailGenerator(t.TempDir(), renderer, false)

	if _, err := gen.GetThumbnail(context.Background(), "/library/Naruto/vol1.pdf"); !errors.Is(err, ErrNoPreview) {
		t.Errorf("disabled generator should return ErrNoPreview, got %v", err)
	}
	if got := renderer.opens(); got != 0 {
		t.Errorf("disabled generator opened a document %d times", got)
	}
}

func TestGetThumbnailDegradesWithoutCacheDir(t *testing.T) {
	// A file where the cache dir should be makes MkdirAll fail; the
	// generator must still render, just without persisting.
	base := t.TempDir()
	blocked := filepath.Join(base, "not-a-dir")
	if err := os.WriteFile(blocked, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	renderer := &fakeRenderer{}
	gen := NewThumbnailGenerator(blocked, renderer, true)

	data, err := gen.GetThumbnail(context.Background(), "/library/Naruto/vol1.pdf")
	if err != nil {
		t.Fatalf("GetThumbnail should degrade to uncached rendering: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("degraded render returned empty data")
	}

	// Without a cache every request renders again.
	if _, err := gen.GetThumbnail(context.Background(), "/library/Naruto/vol1.pdf"); err != nil {
		t.Fatal(err)
	}
	if got := renderer.opens(); got != 2 {
		t.Errorf("expected 2 opens without a cache, got %d", got)
	}
}

func TestCachePathUsesCacheDir(t *testing.T) {
	dir := t.TempDir()
	gen := NewThumbnailGenerator(dir, &fakeRenderer{}, true)
	got := gen.CachePath("/library/Naruto/vol1.pdf")
	if filepath.Dir(got) != dir {
		t.Errorf("cache path %s not under cache dir %s", got, dir)
	}
	if filepath.Base(got) != CacheFilename("/library/Naruto/vol1.pdf") {
		t.Errorf("cache path basename mismatch: %s", got)
	}
}
