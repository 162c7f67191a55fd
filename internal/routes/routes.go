package routes

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/BradenHooton/calcvault/internal/auth"
	"github.com/BradenHooton/calcvault/internal/handlers"
	"github.com/BradenHooton/calcvault/internal/middleware"
	pkghttp "github.com/BradenHooton/calcvault/pkg/http"
)

// Handlers groups the HTTP handlers mounted by the router
type Handlers struct {
	Session *handlers.SessionHandler
	Vault   *handlers.VaultHandler
	Admin   *handlers.AdminHandler
	Health  *handlers.HealthHandler
}

// Options configures the router
type Options struct {
	Env            string
	Tokens         *auth.TokenManager
	Sessions       auth.SessionResolver
	Cookies        auth.CookieConfig
	IPConfig       *pkghttp.IPConfig
	AllowedOrigins []string
	RateLimit      middleware.RateLimitConfig
	RequestTimeout time.Duration
	AdminEnabled   bool
	StaticDir      string
	Logger         *slog.Logger
}

// NewRouter builds the chi router with the global middleware stack and
// every route registered
func NewRouter(h Handlers, opts Options) chi.Router {
	if opts.RequestTimeout == 0 {
		opts.RequestTimeout = 30 * time.Second
	}

	router := chi.NewRouter()
	router.Use(chimiddleware.RequestID)
	if opts.IPConfig != nil && len(opts.IPConfig.TrustedProxies) > 0 {
		// Forwarding headers are only honoured behind a known proxy
		router.Use(chimiddleware.RealIP)
	}
	router.Use(middleware.SecurityHeaders(middleware.SecurityHeadersConfig{Env: opts.Env}))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig(opts.AllowedOrigins)))
	router.Use(middleware.SecureLogger(opts.Logger, opts.IPConfig))
	router.Use(chimiddleware.Recoverer)
	router.Use(chimiddleware.Timeout(opts.RequestTimeout))

	RegisterRoutes(router, h, opts)
	return router
}

// RegisterRoutes registers all application routes
func RegisterRoutes(router chi.Router, h Handlers, opts Options) {
	if opts.RateLimit.IPConfig == nil {
		opts.RateLimit.IPConfig = opts.IPConfig
	}

	router.Get("/health", h.Health.Health)

	router.Route("/api", func(r chi.Router) {
		r.Use(middleware.RequireJSON(opts.Logger))

		// Page load; limited per IP since no session exists yet
		r.With(middleware.RateLimitByIP(opts.RateLimit)).Post("/session", h.Session.Create)
		r.With(middleware.RateLimitByIP(opts.RateLimit)).Get("/gate/status", h.Vault.GateStatus)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimitBySession(opts.RateLimit))
			r.Use(auth.RequireSession(opts.Tokens, opts.Sessions, opts.Cookies, opts.Logger))

			r.Get("/session", h.Session.Get)
			r.Post("/session/reveal", h.Session.Reveal)
			r.Post("/session/commands", h.Session.Command)
			r.Post("/session/visibility", h.Session.Visibility)
			r.Post("/session/violations", h.Session.Violation)
			r.Post("/session/logout", h.Session.Logout)
			r.Get("/vault/links", h.Vault.Links)
		})
	})

	// No authentication and no throttling on the PIN check. Disable on any
	// deployment reachable beyond localhost and use vaultctl instead.
	if opts.AdminEnabled {
		router.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireJSON(opts.Logger))

			r.Get("/status", h.Admin.Status)
			r.Post("/pin", h.Admin.ChangePIN)
			r.Get("/links", h.Admin.ListLinks)
			r.Post("/links", h.Admin.AddLink)
			r.Delete("/links", h.Admin.ClearAll)
			r.Delete("/links/{category}", h.Admin.ClearCategory)
			r.Delete("/links/{category}/{id}", h.Admin.RemoveLink)
		})
	}

	if opts.StaticDir != "" {
		router.Handle("/*", http.FileServer(http.Dir(opts.StaticDir)))
	}
}
