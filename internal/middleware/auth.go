package middleware

import (
	"net/http"
	"strings"
	"time"

	"mangashelf/internal/database"
)

// SessionCookieName is the cookie carrying the opaque session token.
const SessionCookieName = "mangashelf_session"

// authExemptPaths are reachable without a session: login itself, the
// probes, and the exporter.
var authExemptPaths = []string{
	"/api/auth/",
	"/health",
	"/healthz",
	"/livez",
	"/readyz",
	"/metrics",
}

// Auth returns session-checking middleware. With enabled false it is a
// pass-through, so the route setup stays identical either way.
func Auth(db *database.Database, enabled bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !enabled {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, prefix := range authExemptPaths {
				if strings.HasPrefix(r.URL.Path, prefix) {
					next.ServeHTTP(w, r)
					return
				}
			}

			cookie, err := r.Cookie(SessionCookieName)
			if err != nil || cookie.Value == "" {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			if _, err := db.ValidateSession(cookie.Value); err != nil {
				ClearSessionCookie(w)
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// ClearSessionCookie expires the session cookie on the client.
func ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}
