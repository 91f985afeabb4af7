package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"go-driveway/internal/session"
	"go-driveway/internal/storage"
)

type contextKey string

const sessionContextKey contextKey = "visitor_session"

type sessionAcquirer interface {
	Acquire(ctx context.Context, id string) (*session.Session, error)
}

type SessionCookie struct {
	Name   string
	Secure bool
	MaxAge time.Duration
}

// SessionLoader attaches the visitor's session to the request, issuing a new
// session cookie when the request carries none or a malformed one.
func SessionLoader(sessions sessionAcquirer, cookie SessionCookie) func(http.Handler) http.Handler {
	if cookie.Name == "" {
		cookie.Name = "driveway_session"
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := ""
			if existing, err := r.Cookie(cookie.Name); err == nil {
				if parsed, parseErr := uuid.Parse(existing.Value); parseErr == nil {
					id = parsed.String()
				}
			}

			if id == "" {
				id = uuid.NewString()
			}

			// refresh on every request so the cookie outlives active visitors
			http.SetCookie(w, &http.Cookie{
				Name:     cookie.Name,
				Value:    id,
				Path:     "/",
				MaxAge:   int(cookie.MaxAge.Seconds()),
				HttpOnly: true,
				Secure:   cookie.Secure,
				SameSite: http.SameSiteLaxMode,
			})

			s, err := sessions.Acquire(r.Context(), id)
			if err != nil {
				slog.Error("failed to acquire session", "session_id", id, "error", err)
				writeJSONError(w, http.StatusServiceUnavailable, "SESSION_UNAVAILABLE", "session storage unavailable")
				return
			}

			annotateSession(r.Context(), id)
			ctx := context.WithValue(r.Context(), sessionContextKey, s)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func SessionFromContext(ctx context.Context) (*session.Session, bool) {
	s, ok := ctx.Value(sessionContextKey).(*session.Session)
	return s, ok
}

// RequireAuth renders the route for authenticated visitors and sends everyone
// else to loginPath, remembering where they were going.
func RequireAuth(loginPath string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s, ok := SessionFromContext(r.Context())
			if ok && s.IsAuthenticated() {
				next.ServeHTTP(w, r)
				return
			}

			if ok && r.Method == http.MethodGet {
				if err := s.Remember(r.Context(), storage.KeyRedirectTo, r.URL.RequestURI()); err != nil {
					slog.Warn("failed to remember redirect target", "session_id", s.ID(), "error", err)
				}
			}

			http.Redirect(w, r, loginPath, http.StatusSeeOther)
		})
	}
}

// RequireGuest renders the route for anonymous visitors and sends
// authenticated ones to dashboardPath.
func RequireGuest(dashboardPath string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s, ok := SessionFromContext(r.Context())
			if ok && s.IsAuthenticated() {
				http.Redirect(w, r, dashboardPath, http.StatusSeeOther)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireSession is the JSON flavour of RequireAuth for API calls.
func RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s, ok := SessionFromContext(r.Context())
		if !ok || !s.IsAuthenticated() {
			writeJSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// RejectAuthenticated is the JSON flavour of RequireGuest for API calls.
func RejectAuthenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s, ok := SessionFromContext(r.Context())
		if ok && s.IsAuthenticated() {
			writeJSONError(w, http.StatusConflict, "ALREADY_AUTHENTICATED", "already logged in")
			return
		}

		next.ServeHTTP(w, r)
	})
}
