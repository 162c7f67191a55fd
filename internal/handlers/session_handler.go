package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/BradenHooton/calcvault/internal/auth"
	"github.com/BradenHooton/calcvault/internal/models"
	"github.com/BradenHooton/calcvault/internal/session"
	pkghttp "github.com/BradenHooton/calcvault/pkg/http"
)

// SessionManager creates and ends page-load sessions
type SessionManager interface {
	Create() *session.Controller
	End(id string) error
}

// SessionTokens issues and checks session cookie tokens
type SessionTokens interface {
	GenerateSessionToken(sessionID string) (string, error)
	ValidateToken(tokenString string) (*models.SessionClaims, error)
	TTL() time.Duration
}

// SessionHandler drives the calculator's hidden PIN screen
type SessionHandler struct {
	sessions SessionManager
	tokens   SessionTokens
	cookies  auth.CookieConfig
	logger   *slog.Logger
}

// NewSessionHandler creates a session handler
func NewSessionHandler(sessions SessionManager, tokens SessionTokens, cookies auth.CookieConfig, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{
		sessions: sessions,
		tokens:   tokens,
		cookies:  cookies,
		logger:   logger,
	}
}

// CommandRequest is one keypad input
type CommandRequest struct {
	Command string `json:"command" validate:"required,oneof=digit backspace clear cancel submit"`
	Digit   string `json:"digit,omitempty" validate:"omitempty,len=1,numeric"`
}

// VisibilityRequest reports the page being hidden or shown
type VisibilityRequest struct {
	Hidden *bool `json:"hidden" validate:"required"`
}

// ViolationRequest reports a suspicious-activity signal from the page
type ViolationRequest struct {
	Kind string `json:"kind" validate:"omitempty,max=64"`
}

// Create handles POST /api/session. Every page load starts a fresh Hidden
// session; a session carried over in the cookie is ended first.
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	if token, err := auth.GetSessionCookie(r); err == nil && token != "" {
		if claims, err := h.tokens.ValidateToken(token); err == nil {
			_ = h.sessions.End(claims.SessionID)
		}
	}

	ctrl := h.sessions.Create()

	token, err := h.tokens.GenerateSessionToken(ctrl.ID())
	if err != nil {
		h.logger.Error("failed to sign session token", slog.Any("error", err))
		_ = h.sessions.End(ctrl.ID())
		pkghttp.WriteInternalError(w, "Failed to start session")
		return
	}

	auth.SetSessionCookie(w, token, int(h.tokens.TTL().Seconds()), h.cookies)
	pkghttp.WriteJSON(w, http.StatusCreated, ctrl.Snapshot())
}

// Get handles GET /api/session
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := h.controller(w, r)
	if !ok {
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, ctrl.Snapshot())
}

// Reveal handles POST /api/session/reveal, the secret gesture
func (h *SessionHandler) Reveal(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := h.controller(w, r)
	if !ok {
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, ctrl.Reveal(r.Context()))
}

// Command handles POST /api/session/commands
func (h *SessionHandler) Command(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := h.controller(w, r)
	if !ok {
		return
	}

	var req CommandRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	cmd, err := session.ParseCommand(req.Command, req.Digit)
	if err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, ctrl.Handle(r.Context(), cmd))
}

// Visibility handles POST /api/session/visibility
func (h *SessionHandler) Visibility(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := h.controller(w, r)
	if !ok {
		return
	}

	var req VisibilityRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, ctrl.Visibility(*req.Hidden))
}

// Violation handles POST /api/session/violations
func (h *SessionHandler) Violation(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := h.controller(w, r)
	if !ok {
		return
	}

	var req ViolationRequest
	if r.ContentLength != 0 && !decodeAndValidate(w, r, &req) {
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, ctrl.Violation(req.Kind))
}

// Logout handles POST /api/session/logout. The session stays alive in the
// Hidden phase so the calculator keeps working.
func (h *SessionHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := h.controller(w, r)
	if !ok {
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, ctrl.Logout())
}

func (h *SessionHandler) controller(w http.ResponseWriter, r *http.Request) (*session.Controller, bool) {
	ctrl := auth.GetSessionFromContext(r)
	if ctrl == nil {
		pkghttp.WriteUnauthorized(w, "missing session")
		return nil, false
	}
	return ctrl, true
}
