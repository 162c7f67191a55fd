package auth

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/BradenHooton/calcvault/internal/session"
	pkghttp "github.com/BradenHooton/calcvault/pkg/http"
)

// contextKey is a custom type for context keys
type contextKey string

const (
	// SessionContextKey is the key for storing the session controller in context
	SessionContextKey contextKey = "session"
)

// SessionResolver looks up live sessions
type SessionResolver interface {
	Get(id string) (*session.Controller, error)
}

// RequireSession resolves the session named by the session cookie and
// injects its controller into the request context
func RequireSession(tm *TokenManager, sessions SessionResolver, cookieConfig CookieConfig, logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, err := GetSessionCookie(r)
			if err != nil || tokenString == "" {
				pkghttp.WriteUnauthorized(w, "missing session")
				return
			}

			claims, err := tm.ValidateToken(tokenString)
			if err != nil {
				ClearSessionCookie(w, cookieConfig)
				pkghttp.WriteUnauthorized(w, "invalid or expired session")
				return
			}

			ctrl, err := sessions.Get(claims.SessionID)
			if err != nil {
				// swept or ended; the page has to be reloaded
				logger.Debug("session not found", slog.String("session_id", claims.SessionID))
				ClearSessionCookie(w, cookieConfig)
				pkghttp.WriteUnauthorized(w, "session expired")
				return
			}

			ctx := context.WithValue(r.Context(), SessionContextKey, ctrl)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetSessionFromContext extracts the session controller from request context
func GetSessionFromContext(r *http.Request) *session.Controller {
	ctrl, ok := r.Context().Value(SessionContextKey).(*session.Controller)
	if !ok {
		return nil
	}
	return ctrl
}

// WithSession returns a copy of r carrying ctrl, for handlers mounted
// behind RequireSession
func WithSession(r *http.Request, ctrl *session.Controller) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), SessionContextKey, ctrl))
}
