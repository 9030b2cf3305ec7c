package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gorilla/mux"

	"mangashelf/internal/database"
	"mangashelf/internal/indexer"
	"mangashelf/internal/media"
	"mangashelf/internal/natsort"
	"mangashelf/internal/pdfrender"
	"mangashelf/internal/startup"
)

// stubRenderer produces deterministic fake pages without a PDF backend.
type stubRenderer struct {
	failPaths map[string]bool
}

func (s stubRenderer) Name() string { return "stub" }

func (s stubRenderer) Open(path string) (pdfrender.Document, error) {
	if s.failPaths[path] {
		return nil, fmt.Errorf("open %s: corrupt", path)
	}
	return stubDocument{path: path}, nil
}

type stubDocument struct {
	path string
}

func (d stubDocument) PageCount() int { return 5 }

func (d stubDocument) PageSize(context.Context, int) (float64, float64, error) {
	return 612, 792, nil
}

func (d stubDocument) RenderPage(_ context.Context, page int, scale float64) ([]byte, error) {
	return []byte(fmt.Sprintf("png:%s:%d:%.2f", d.path, page, scale)), nil
}

func (d stubDocument) Close() error { return nil }

// writeVolume drops a fake PDF into a series directory.
func writeVolume(t *testing.T, root, series, name string) string {
	t.Helper()
	dir := filepath.Join(root, series)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", dir, err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("%PDF-1.4 test"), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

// newTestHandlers builds a handler set over a real database and a
// scanned temp library with two series.
func newTestHandlers(t *testing.T) (*Handlers, string) {
	t.Helper()

	lib := t.TempDir()
	writeVolume(t, lib, "Naruto", "vol1.pdf")
	writeVolume(t, lib, "Naruto", "vol2.pdf")
	writeVolume(t, lib, "Naruto", "vol10.pdf")
	writeVolume(t, lib, "Bleach", "ch001.pdf")

	db, err := database.New(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("database.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	idx := indexer.New(db, []string{lib}, time.Hour)
	if err := idx.Index(); err != nil {
		t.Fatalf("Index: %v", err)
	}

	renderer := stubRenderer{}
	gen := media.NewThumbnailGenerator(t.TempDir(), renderer, true)

	cfg := &startup.Config{
		LibraryDirs: []string{lib},
		DefaultSort: natsort.SortNatural,
		PageScale:   1.5,
	}
	return New(db, idx, renderer, gen, cfg), lib
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func postJSON(t *testing.T, v interface{}) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		t.Fatalf("encode body: %v", err)
	}
	return &buf
}

func TestGetSeries(t *testing.T) {
	h, _ := newTestHandlers(t)

	rec := httptest.NewRecorder()
	h.GetSeries(rec, httptest.NewRequest(http.MethodGet, "/api/series", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var series []database.Series
	decodeJSON(t, rec, &series)
	if len(series) != 2 {
		t.Fatalf("got %d series, want 2", len(series))
	}
	if series[0].Name != "Bleach" || series[1].Name != "Naruto" {
		t.Errorf("order = [%s %s], want [Bleach Naruto]", series[0].Name, series[1].Name)
	}
	if series[1].VolumeCount != 3 {
		t.Errorf("Naruto volume count = %d, want 3", series[1].VolumeCount)
	}
}

func TestGetVolumes(t *testing.T) {
	h, _ := newTestHandlers(t)

	t.Run("NaturalOrder", func(t *testing.T) {
		req := mux.SetURLVars(httptest.NewRequest(http.MethodGet, "/api/series/Naruto/volumes", nil),
			map[string]string{"series": "Naruto"})
		rec := httptest.NewRecorder()
		h.GetVolumes(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		var volumes []database.Volume
		decodeJSON(t, rec, &volumes)
		var names []string
		for _, v := range volumes {
			names = append(names, v.Name)
		}
		want := []string{"vol1.pdf", "vol2.pdf", "vol10.pdf"}
		if len(names) != len(want) {
			t.Fatalf("got %v, want %v", names, want)
		}
		for i := range want {
			if names[i] != want[i] {
				t.Errorf("volume[%d] = %s, want %s", i, names[i], want[i])
			}
		}
		if volumes[0].Bookmark != -1 {
			t.Errorf("fresh volume bookmark = %d, want -1", volumes[0].Bookmark)
		}
	})

	t.Run("LexicalOverride", func(t *testing.T) {
		req := mux.SetURLVars(httptest.NewRequest(http.MethodGet, "/api/series/Naruto/volumes?sort=lexical", nil),
			map[string]string{"series": "Naruto"})
		rec := httptest.NewRecorder()
		h.GetVolumes(rec, req)

		var volumes []database.Volume
		decodeJSON(t, rec, &volumes)
		if len(volumes) != 3 || volumes[1].Name != "vol10.pdf" {
			t.Errorf("lexical order puts vol10 second, got %+v", volumes)
		}
	})

	t.Run("UnknownSeries", func(t *testing.T) {
		req := mux.SetURLVars(httptest.NewRequest(http.MethodGet, "/api/series/Nothing/volumes", nil),
			map[string]string{"series": "Nothing"})
		rec := httptest.NewRecorder()
		h.GetVolumes(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", rec.Code)
		}
	})
}

func TestBookmarks(t *testing.T) {
	h, _ := newTestHandlers(t)

	set := func(series, volume string, page int) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		h.SetBookmark(rec, httptest.NewRequest(http.MethodPost, "/api/bookmarks",
			postJSON(t, BookmarkRequest{Series: series, Volume: volume, Page: page})))
		return rec
	}

	if rec := set("Naruto", "vol1.pdf", 12); rec.Code != http.StatusOK {
		t.Fatalf("set status = %d, want 200", rec.Code)
	}

	rec := httptest.NewRecorder()
	h.GetBookmark(rec, httptest.NewRequest(http.MethodGet, "/api/bookmark?series=Naruto&volume=vol1.pdf", nil))
	var got map[string]int
	decodeJSON(t, rec, &got)
	if got["page"] != 12 {
		t.Errorf("page = %d, want 12", got["page"])
	}

	rec = httptest.NewRecorder()
	h.GetBookmark(rec, httptest.NewRequest(http.MethodGet, "/api/bookmark?series=Naruto&volume=none.pdf", nil))
	decodeJSON(t, rec, &got)
	if got["page"] != -1 {
		t.Errorf("absent bookmark page = %d, want -1", got["page"])
	}

	if rec := set("Naruto", "vol1.pdf", -3); rec.Code != http.StatusBadRequest {
		t.Errorf("negative page status = %d, want 400", rec.Code)
	}
	if rec := set("", "vol1.pdf", 0); rec.Code != http.StatusBadRequest {
		t.Errorf("missing series status = %d, want 400", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.GetBookmarks(rec, httptest.NewRequest(http.MethodGet, "/api/bookmarks", nil))
	var all map[string]int
	decodeJSON(t, rec, &all)
	if all["Naruto/vol1.pdf"] != 12 {
		t.Errorf("bookmark map = %v, want Naruto/vol1.pdf:12", all)
	}

	rec = httptest.NewRecorder()
	h.DeleteBookmark(rec, httptest.NewRequest(http.MethodDelete, "/api/bookmarks",
		postJSON(t, BookmarkRequest{Series: "Naruto", Volume: "vol1.pdf"})))
	if rec.Code != http.StatusOK {
		t.Fatalf("delete status = %d, want 200", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.GetBookmark(rec, httptest.NewRequest(http.MethodGet, "/api/bookmark?series=Naruto&volume=vol1.pdf", nil))
	decodeJSON(t, rec, &got)
	if got["page"] != -1 {
		t.Errorf("deleted bookmark page = %d, want -1", got["page"])
	}
}

func TestFavorites(t *testing.T) {
	h, _ := newTestHandlers(t)

	rec := httptest.NewRecorder()
	h.AddFavorite(rec, httptest.NewRequest(http.MethodPost, "/api/favorites",
		postJSON(t, FavoriteRequest{Series: "Naruto"})))
	if rec.Code != http.StatusOK {
		t.Fatalf("add status = %d, want 200", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.CheckFavorite(rec, httptest.NewRequest(http.MethodGet, "/api/favorites/check?series=Naruto", nil))
	var check map[string]bool
	decodeJSON(t, rec, &check)
	if !check["favorite"] {
		t.Error("Naruto should be a favorite")
	}

	rec = httptest.NewRecorder()
	h.GetFavorites(rec, httptest.NewRequest(http.MethodGet, "/api/favorites", nil))
	var favorites []string
	decodeJSON(t, rec, &favorites)
	if len(favorites) != 1 || favorites[0] != "Naruto" {
		t.Errorf("favorites = %v, want [Naruto]", favorites)
	}

	rec = httptest.NewRecorder()
	h.RemoveFavorite(rec, httptest.NewRequest(http.MethodDelete, "/api/favorites",
		postJSON(t, FavoriteRequest{Series: "Naruto"})))
	if rec.Code != http.StatusOK {
		t.Fatalf("remove status = %d, want 200", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.CheckFavorite(rec, httptest.NewRequest(http.MethodGet, "/api/favorites/check?series=Naruto", nil))
	decodeJSON(t, rec, &check)
	if check["favorite"] {
		t.Error("Naruto should no longer be a favorite")
	}
}

func TestGetThumbnail(t *testing.T) {
	h, lib := newTestHandlers(t)
	volPath := filepath.Join(lib, "Naruto", "vol1.pdf")

	t.Run("Serves", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.GetThumbnail(rec, httptest.NewRequest(http.MethodGet, "/api/thumbnail?path="+volPath, nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		if ct := rec.Header().Get("Content-Type"); ct != "image/png" {
			t.Errorf("Content-Type = %s, want image/png", ct)
		}
		if cc := rec.Header().Get("Cache-Control"); cc == "" {
			t.Error("thumbnail response should be cacheable")
		}
	})

	t.Run("MissingPath", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.GetThumbnail(rec, httptest.NewRequest(http.MethodGet, "/api/thumbnail", nil))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("OutsideLibrary", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.GetThumbnail(rec, httptest.NewRequest(http.MethodGet, "/api/thumbnail?path=/etc/passwd", nil))
		if rec.Code != http.StatusForbidden {
			t.Errorf("status = %d, want 403", rec.Code)
		}
	})

	t.Run("TraversalBlocked", func(t *testing.T) {
		sneaky := filepath.Join(lib, "..", "..", "etc", "passwd")
		rec := httptest.NewRecorder()
		h.GetThumbnail(rec, httptest.NewRequest(http.MethodGet, "/api/thumbnail?path="+sneaky, nil))
		if rec.Code != http.StatusForbidden {
			t.Errorf("status = %d, want 403", rec.Code)
		}
	})
}

func TestGetPage(t *testing.T) {
	h, lib := newTestHandlers(t)
	volPath := filepath.Join(lib, "Naruto", "vol1.pdf")

	t.Run("RendersWithDefaultScale", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.GetPage(rec, httptest.NewRequest(http.MethodGet, "/api/page?path="+volPath+"&page=2", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		want := fmt.Sprintf("png:%s:2:1.50", volPath)
		if rec.Body.String() != want {
			t.Errorf("body = %q, want %q", rec.Body.String(), want)
		}
		if pc := rec.Header().Get("X-Page-Count"); pc != "5" {
			t.Errorf("X-Page-Count = %s, want 5", pc)
		}
	})

	t.Run("FitToViewport", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.GetPage(rec, httptest.NewRequest(http.MethodGet,
			"/api/page?path="+volPath+"&page=0&fit=1&width=612&height=10000", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		// 612/612 = 1.0, shrunk by the margin factor.
		want := fmt.Sprintf("png:%s:0:0.98", volPath)
		if rec.Body.String() != want {
			t.Errorf("body = %q, want %q", rec.Body.String(), want)
		}
	})

	t.Run("PageOutOfRange", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.GetPage(rec, httptest.NewRequest(http.MethodGet, "/api/page?path="+volPath+"&page=5", nil))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("BadPageParam", func(t *testing.T) {
		for _, page := range []string{"", "-1", "abc"} {
			rec := httptest.NewRecorder()
			h.GetPage(rec, httptest.NewRequest(http.MethodGet, "/api/page?path="+volPath+"&page="+page, nil))
			if rec.Code != http.StatusBadRequest {
				t.Errorf("page=%q status = %d, want 400", page, rec.Code)
			}
		}
	})

	t.Run("BackfillsPageCount", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.GetPage(rec, httptest.NewRequest(http.MethodGet, "/api/page?path="+volPath+"&page=0", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		volume, err := h.db.GetVolumeByPath(context.Background(), volPath)
		if err != nil || volume == nil {
			t.Fatalf("GetVolumeByPath: %v", err)
		}
		if volume.PageCount != 5 {
			t.Errorf("recorded page count = %d, want 5", volume.PageCount)
		}
	})

	t.Run("NoRenderer", func(t *testing.T) {
		bare := *h
		bare.renderer = nil
		rec := httptest.NewRecorder()
		bare.GetPage(rec, httptest.NewRequest(http.MethodGet, "/api/page?path="+volPath+"&page=0", nil))
		if rec.Code != http.StatusServiceUnavailable {
			t.Errorf("status = %d, want 503", rec.Code)
		}
	})
}

func TestSearch(t *testing.T) {
	h, _ := newTestHandlers(t)

	rec := httptest.NewRecorder()
	h.Search(rec, httptest.NewRequest(http.MethodGet, "/api/search?q=vol1", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var result database.SearchResult
	decodeJSON(t, rec, &result)
	if result.Total != 2 {
		t.Errorf("total = %d, want 2 (vol1 and vol10)", result.Total)
	}
}

func TestGetStats(t *testing.T) {
	h, _ := newTestHandlers(t)

	rec := httptest.NewRecorder()
	h.GetStats(rec, httptest.NewRequest(http.MethodGet, "/api/stats", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var stats StatsResponse
	decodeJSON(t, rec, &stats)
	if stats.SeriesCount != 2 || stats.VolumeCount != 4 {
		t.Errorf("counts = %d series / %d volumes, want 2/4", stats.SeriesCount, stats.VolumeCount)
	}
	if stats.LastIndexed == "" {
		t.Error("LastIndexed should be set after a scan")
	}
}

func TestHealthEndpoints(t *testing.T) {
	h, _ := newTestHandlers(t)

	rec := httptest.NewRecorder()
	h.HealthCheck(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("health status = %d, want 200", rec.Code)
	}
	var health HealthResponse
	decodeJSON(t, rec, &health)
	if health.Status != statusHealthy || !health.Ready {
		t.Errorf("health = %+v, want healthy and ready", health)
	}
	if health.SeriesIndexed != 2 || health.VolumesIndexed != 4 {
		t.Errorf("indexed = %d/%d, want 2/4", health.SeriesIndexed, health.VolumesIndexed)
	}

	rec = httptest.NewRecorder()
	h.ReadinessCheck(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("readiness status = %d, want 200", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.LivenessCheck(rec, httptest.NewRequest(http.MethodHead, "/livez", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("liveness status = %d, want 200", rec.Code)
	}
	if rec.Body.Len() != 0 {
		t.Error("HEAD liveness should have no body")
	}
}

func TestGetVersion(t *testing.T) {
	h, _ := newTestHandlers(t)

	rec := httptest.NewRecorder()
	h.GetVersion(rec, httptest.NewRequest(http.MethodGet, "/api/version", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var info startup.BuildInfo
	decodeJSON(t, rec, &info)
	if info.Version == "" {
		t.Error("version should never be empty")
	}
}
