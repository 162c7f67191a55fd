package routes_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BradenHooton/calcvault/internal/auth"
	"github.com/BradenHooton/calcvault/internal/clock"
	"github.com/BradenHooton/calcvault/internal/gate"
	"github.com/BradenHooton/calcvault/internal/handlers"
	"github.com/BradenHooton/calcvault/internal/links"
	"github.com/BradenHooton/calcvault/internal/middleware"
	"github.com/BradenHooton/calcvault/internal/repositories"
	"github.com/BradenHooton/calcvault/internal/routes"
	"github.com/BradenHooton/calcvault/internal/session"
	pkglogger "github.com/BradenHooton/calcvault/pkg/logger"
)

type app struct {
	router http.Handler
	clock  *clock.Manual
	cookie *http.Cookie
}

func newApp(t *testing.T, adminEnabled bool, staticDir string) *app {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	audit := pkglogger.NewAuditLogger(logger)
	store := repositories.NewMemoryKVRepository()
	clk := clock.NewManual(time.Unix(1_700_000_000, 0))

	g := gate.New(store, gate.Config{}, clk, logger, audit)
	manager := session.NewManager(g, clk, session.DefaultConfig(), logger, audit)
	registry := links.NewRegistry(store, clk, logger, audit)
	tokens := auth.NewTokenManager("routes-test-secret-32-characters!", time.Hour)
	cookies := auth.CookieConfig{SameSite: "strict"}

	h := routes.Handlers{
		Session: handlers.NewSessionHandler(manager, tokens, cookies, logger),
		Vault:   handlers.NewVaultHandler(registry, g, logger),
		Admin:   handlers.NewAdminHandler(g, registry, manager, audit, nil, logger),
		Health:  handlers.NewHealthHandler(store, "memory", logger),
	}

	router := routes.NewRouter(h, routes.Options{
		Env:          "development",
		Tokens:       tokens,
		Sessions:     manager,
		Cookies:      cookies,
		RateLimit:    middleware.RateLimitConfig{RequestsPerMinute: 20},
		AdminEnabled: adminEnabled,
		StaticDir:    staticDir,
		Logger:       logger,
	})
	return &app{router: router, clock: clk}
}

func (a *app) call(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.RemoteAddr = "198.51.100.20:5000"
	if a.cookie != nil {
		req.AddCookie(a.cookie)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func (a *app) start(t *testing.T) {
	t.Helper()
	w := a.call(t, "POST", "/api/session", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	for _, c := range w.Result().Cookies() {
		if c.Name == auth.SessionCookieName {
			a.cookie = c
		}
	}
	require.NotNil(t, a.cookie)
}

func phase(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var snap map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	p, _ := snap["phase"].(string)
	return p
}

func TestRouter_Health(t *testing.T) {
	a := newApp(t, true, "")

	w := a.call(t, "GET", "/health", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
}

func TestRouter_SessionRoutesRequireCookie(t *testing.T) {
	a := newApp(t, true, "")

	w := a.call(t, "GET", "/api/session", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = a.call(t, "GET", "/api/vault/links", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRouter_UnlockAndBrowseVault(t *testing.T) {
	a := newApp(t, true, "")
	a.start(t)

	w := a.call(t, "POST", "/api/session/reveal", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "entering", phase(t, w))

	w = a.call(t, "GET", "/api/vault/links", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	for _, d := range []string{"1", "2", "3", "4"} {
		w = a.call(t, "POST", "/api/session/commands", map[string]string{"command": "digit", "digit": d})
		require.Equal(t, http.StatusOK, w.Code)
	}
	a.clock.Advance(500 * time.Millisecond)

	w = a.call(t, "GET", "/api/session", nil)
	assert.Equal(t, "unlocked", phase(t, w))

	w = a.call(t, "GET", "/api/vault/links", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_RejectsFormEncodedCommands(t *testing.T) {
	a := newApp(t, true, "")
	a.start(t)

	req := httptest.NewRequest("POST", "/api/session/commands", bytes.NewBufferString("command=digit&digit=1"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(a.cookie)
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)
}

func TestRouter_SessionAPIIsRateLimited(t *testing.T) {
	a := newApp(t, true, "")
	a.start(t)

	limited := false
	for i := 0; i < 25; i++ {
		if a.call(t, "GET", "/api/session", nil).Code == http.StatusTooManyRequests {
			limited = true
			break
		}
	}
	assert.True(t, limited)
}

func TestRouter_AdminPINChangeIsNotThrottled(t *testing.T) {
	a := newApp(t, true, "")

	for i := 0; i < 30; i++ {
		w := a.call(t, "POST", "/admin/pin", map[string]string{
			"current_pin": "9999", "new_pin": "5678", "confirm_pin": "5678",
		})
		require.Equal(t, http.StatusForbidden, w.Code, "attempt %d", i)
	}

	w := a.call(t, "POST", "/admin/pin", map[string]string{
		"current_pin": "1234", "new_pin": "5678", "confirm_pin": "5678",
	})
	assert.Equal(t, http.StatusOK, w.Code)

	w = a.call(t, "GET", "/api/gate/status", nil)
	var st map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &st))
	assert.Equal(t, false, st["locked"], "wrong current PINs never lock the gate")
}

func TestRouter_AdminRoutesCanBeDisabled(t *testing.T) {
	a := newApp(t, false, "")

	w := a.call(t, "GET", "/admin/status", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_ServesStaticCalculator(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<h1>calc</h1>"), 0o600))
	a := newApp(t, true, dir)

	w := a.call(t, "GET", "/", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "calc")
}
