package middleware

import (
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/EmpoweredVote/Barangay-Backend/internal/utils"
)

type SessionFetcher interface {
	FindSessionByID(id string) (utils.SessionData, error)
}

func SessionMiddleware(fetcher SessionFetcher) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie("session_id")
			if err != nil || cookie.Value == "" {
				http.Error(w, "Couldn't find cookie", http.StatusUnauthorized)
				return
			}

			session, err := fetcher.FindSessionByID(cookie.Value)
			if err != nil {
				http.Error(w, "Couldn't find session", http.StatusUnauthorized)
				return
			}

			if session.ExpiresAt.Before(time.Now()) {
				http.Error(w, "Session expired", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(utils.WithSession(r.Context(), session)))
		})
	}
}

var allowed = map[string]struct{}{
	"http://localhost:5173": {},
	"http://localhost:5174": {},
	"http://localhost:3000": {},
}

// AllowOrigins extends the CORS allow-list, e.g. from CORS_ALLOWED_ORIGINS.
func AllowOrigins(origins ...string) {
	for _, o := range origins {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		if o != "" {
			allowed[o] = struct{}{}
		}
	}
}

// AllowOriginsFromEnv reads a comma separated CORS_ALLOWED_ORIGINS.
func AllowOriginsFromEnv() {
	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		AllowOrigins(strings.Split(v, ",")...)
	}
}

// OriginAllowed reports whether origin is on the allow-list. An empty origin
// (same-origin or non-browser client) is allowed.
func OriginAllowed(origin string) bool {
	if origin == "" {
		return true
	}
	_, ok := allowed[origin]
	return ok
}

func CORSMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")

		// Echo the origin back only if it’s on our allow-list
		if _, ok := allowed[origin]; ok {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods",
				"GET, POST, PUT, PATCH, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers",
				"Content-Type, Authorization, X-Client-Info")
		}

		w.Header().Set("Access-Control-Expose-Headers", "Retry-After, X-Total-Count")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// AdminMiddleware must run after SessionMiddleware.
func AdminMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := utils.GetUserIDFromContext(r.Context()); !ok {
			http.Error(w, "Unauthorized: missing user ID in context", http.StatusUnauthorized)
			return
		}

		if utils.GetRoleFromContext(r.Context()) != "admin" {
			http.Error(w, "Forbidden: admin access required", http.StatusForbidden)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// BarangayScope rejects sessions that are not bound to a barangay.
func BarangayScope(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := utils.GetBarangayIDFromContext(r.Context()); !ok {
			http.Error(w, "Forbidden: account has no barangay", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}
