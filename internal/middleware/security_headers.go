package middleware

import (
	"net/http"
	"strings"
)

// SecurityHeadersConfig holds security headers configuration
type SecurityHeadersConfig struct {
	Env string
}

// driveOrigins are the hosts vault thumbnails and previews load from
const driveOrigins = "https://drive.google.com https://*.googleusercontent.com"

var productionCSP = []string{
	"default-src 'self'",
	"script-src 'self'",
	"style-src 'self' 'unsafe-inline'",
	"img-src 'self' data: " + driveOrigins,
	"frame-src https://drive.google.com",
	"media-src " + driveOrigins,
	"connect-src 'self'",
	"frame-ancestors 'none'",
	"base-uri 'self'",
	"form-action 'self'",
}

// developmentCSP lets a local dev server hot-reload the calculator page
var developmentCSP = []string{
	"default-src 'self' http: https: ws:",
	"script-src 'self' 'unsafe-inline' 'unsafe-eval' http: https: ws:",
	"style-src 'self' 'unsafe-inline' http: https:",
	"img-src 'self' data: http: https:",
	"frame-src https://drive.google.com",
	"connect-src 'self' http: https: ws: wss:",
	"frame-ancestors 'none'",
	"base-uri 'self'",
	"form-action 'self'",
}

// display-capture is denied so the page cannot be asked to record itself
var permissionsPolicy = strings.Join([]string{
	"camera=()",
	"display-capture=()",
	"geolocation=()",
	"microphone=()",
	"payment=()",
	"usb=()",
}, ", ")

// SecurityHeaders adds hardening headers to every response. Vault
// responses are never cached and the page may not be framed.
func SecurityHeaders(config SecurityHeadersConfig) func(http.Handler) http.Handler {
	production := config.Env == "production"
	csp := strings.Join(developmentCSP, "; ")
	if production {
		csp = strings.Join(productionCSP, "; ")
	}

	static := map[string]string{
		"X-Frame-Options":            "DENY",
		"X-Content-Type-Options":     "nosniff",
		"Referrer-Policy":            "no-referrer",
		"Cache-Control":              "no-store",
		"Content-Security-Policy":    csp,
		"Permissions-Policy":         permissionsPolicy,
		"X-DNS-Prefetch-Control":     "off",
		"Cross-Origin-Opener-Policy": "same-origin",
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			for k, v := range static {
				h.Set(k, v)
			}
			if production && (r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https") {
				h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
			}
			next.ServeHTTP(w, r)
		})
	}
}
