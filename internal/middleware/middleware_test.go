package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"mangashelf/internal/database"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestSanitizeLogField(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"Clean", "GET /api/series", "GET /api/series"},
		{"Newline", "line1\nline2", "line1 line2"},
		{"CarriageReturn", "a\rb", "a b"},
		{"NullByte", "a\x00b", "ab"},
		{"ANSIEscape", "a\x1b[31mb", "a[31mb"},
		{"TabKept", "a\tb", "a\tb"},
		{"Empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sanitizeLogField(tt.input); got != tt.want {
				t.Errorf("sanitizeLogField(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		want       string
	}{
		{"RemoteAddr", "10.0.0.5:4321", nil, "10.0.0.5"},
		{"XForwardedFor", "10.0.0.5:4321", map[string]string{"X-Forwarded-For": "203.0.113.9"}, "203.0.113.9"},
		{"XForwardedForChain", "10.0.0.5:4321", map[string]string{"X-Forwarded-For": "203.0.113.9, 10.0.0.1"}, "203.0.113.9"},
		{"XRealIP", "10.0.0.5:4321", map[string]string{"X-Real-IP": "198.51.100.7"}, "198.51.100.7"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			if got := clientIP(r); got != tt.want {
				t.Errorf("clientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/api/series", "/api/series"},
		{"/api/series/Naruto/volumes", "/api/series/Naruto/volumes"},
		{"/api/series/Naruto/volumes/extra/deep", "/api/series/Naruto/{path}"},
		{"/", "/"},
	}
	for _, tt := range tests {
		if got := normalizePath(tt.path); got != tt.want {
			t.Errorf("normalizePath(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestStatusRecorder(t *testing.T) {
	rec := httptest.NewRecorder()
	rw := newStatusRecorder(rec)

	rw.WriteHeader(http.StatusNotFound)
	rw.WriteHeader(http.StatusOK) // second call must not override
	n, err := rw.Write([]byte("not found"))
	if err != nil || n != 9 {
		t.Fatalf("Write() = %d, %v", n, err)
	}

	if rw.statusCode != http.StatusNotFound {
		t.Errorf("statusCode = %d, want %d", rw.statusCode, http.StatusNotFound)
	}
	if rw.bytesWritten != 9 {
		t.Errorf("bytesWritten = %d, want 9", rw.bytesWritten)
	}
}

func TestChainOrder(t *testing.T) {
	var order []string
	layer := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := Chain(okHandler(), layer("outer"), layer("inner"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if len(order) != 2 || order[0] != "outer" || order[1] != "inner" {
		t.Errorf("middleware order = %v, want [outer inner]", order)
	}
}

func newAuthDB(t *testing.T) *database.Database {
	t.Helper()
	db, err := database.New(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestAuthDisabledPassesThrough(t *testing.T) {
	db := newAuthDB(t)
	h := Auth(db, false)(okHandler())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/series", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("disabled auth should pass through, got %d", rec.Code)
	}
}

func TestAuthRejectsWithoutSession(t *testing.T) {
	db := newAuthDB(t)
	h := Auth(db, true)(okHandler())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/series", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without session, got %d", rec.Code)
	}
}

func TestAuthExemptPaths(t *testing.T) {
	db := newAuthDB(t)
	h := Auth(db, true)(okHandler())

	for _, path := range []string{"/healthz", "/readyz", "/metrics", "/api/auth/login"} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK {
			t.Errorf("%s should be exempt from auth, got %d", path, rec.Code)
		}
	}
}

func TestAuthAcceptsValidSession(t *testing.T) {
	db := newAuthDB(t)
	if err := db.CreateUser("secret123"); err != nil {
		t.Fatal(err)
	}
	user, err := db.ValidatePassword("secret123")
	if err != nil {
		t.Fatal(err)
	}
	session, err := db.CreateSession(user.ID)
	if err != nil {
		t.Fatal(err)
	}

	h := Auth(db, true)(okHandler())
	req := httptest.NewRequest(http.MethodGet, "/api/series", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: session.Token})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("valid session rejected with %d", rec.Code)
	}
}

func TestAuthRejectsBogusToken(t *testing.T) {
	db := newAuthDB(t)
	h := Auth(db, true)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/api/series", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "deadbeef"})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("bogus token accepted with %d", rec.Code)
	}
	// The invalid cookie gets cleared.
	cleared := false
	for _, c := range rec.Result().Cookies() {
		if c.Name == SessionCookieName && c.Value == "" {
			cleared = true
		}
	}
	if !cleared {
		t.Error("invalid session cookie was not cleared")
	}
}
