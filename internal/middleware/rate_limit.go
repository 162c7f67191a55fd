package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/httprate"

	"github.com/BradenHooton/calcvault/internal/auth"
	pkghttp "github.com/BradenHooton/calcvault/pkg/http"
)

// RateLimitConfig holds rate limiting configuration. IPConfig decides
// whether forwarding headers may name the client; nil keys on the peer.
type RateLimitConfig struct {
	RequestsPerMinute int
	IPConfig          *pkghttp.IPConfig
}

// DefaultAPIRateLimit returns the default limit for the session API
func DefaultAPIRateLimit() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerMinute: 120,
	}
}

// RateLimitByIP creates a middleware that rate limits requests by client IP
func RateLimitByIP(config RateLimitConfig) func(next http.Handler) http.Handler {
	return httprate.Limit(
		config.RequestsPerMinute,
		1*time.Minute,
		httprate.WithKeyFuncs(clientIPKey(config.IPConfig)),
		httprate.WithLimitHandler(writeRateLimited),
	)
}

// RateLimitBySession limits each session cookie separately, falling back
// to the client IP for requests without one
func RateLimitBySession(config RateLimitConfig) func(next http.Handler) http.Handler {
	return httprate.Limit(
		config.RequestsPerMinute,
		1*time.Minute,
		httprate.WithKeyFuncs(sessionKey(config.IPConfig)),
		httprate.WithLimitHandler(writeRateLimited),
	)
}

// clientIPKey keys on the peer address, or on the forwarded client when
// the peer is a trusted proxy
func clientIPKey(ipConfig *pkghttp.IPConfig) httprate.KeyFunc {
	return func(r *http.Request) (string, error) {
		return pkghttp.ExtractClientIP(r, ipConfig), nil
	}
}

func sessionKey(ipConfig *pkghttp.IPConfig) httprate.KeyFunc {
	byIP := clientIPKey(ipConfig)
	return func(r *http.Request) (string, error) {
		if token, err := auth.GetSessionCookie(r); err == nil && token != "" {
			return "session:" + token, nil
		}
		return byIP(r)
	}
}

func writeRateLimited(w http.ResponseWriter, r *http.Request) {
	pkghttp.WriteTooManyRequests(w, "Rate limit exceeded")
}
