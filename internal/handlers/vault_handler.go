package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/BradenHooton/calcvault/internal/auth"
	"github.com/BradenHooton/calcvault/internal/gate"
	"github.com/BradenHooton/calcvault/internal/models"
	"github.com/BradenHooton/calcvault/internal/session"
	pkghttp "github.com/BradenHooton/calcvault/pkg/http"
)

// LinkLister reads the vault's links
type LinkLister interface {
	List(ctx context.Context) (models.CategoryMap, error)
}

// GateStatusReader reads the gate's lockout state
type GateStatusReader interface {
	Status(ctx context.Context) (gate.Status, error)
}

// VaultHandler serves vault content to unlocked sessions
type VaultHandler struct {
	links  LinkLister
	gate   GateStatusReader
	logger *slog.Logger
}

// NewVaultHandler creates a vault handler
func NewVaultHandler(links LinkLister, g GateStatusReader, logger *slog.Logger) *VaultHandler {
	return &VaultHandler{links: links, gate: g, logger: logger}
}

// LockoutStatus is the public view of the gate. Attempt counts are only
// shown on the admin surface.
type LockoutStatus struct {
	Locked           bool `json:"locked"`
	RemainingSeconds int  `json:"remaining_seconds"`
}

// Links handles GET /api/vault/links
func (h *VaultHandler) Links(w http.ResponseWriter, r *http.Request) {
	ctrl := auth.GetSessionFromContext(r)
	if ctrl == nil {
		pkghttp.WriteUnauthorized(w, "missing session")
		return
	}

	if ctrl.Snapshot().Phase != session.PhaseUnlocked {
		pkghttp.WriteError(w, http.StatusForbidden, pkghttp.CodeVaultLocked, models.ErrVaultLocked.Error())
		return
	}

	content, err := h.links.List(r.Context())
	if err != nil {
		h.logger.Error("failed to load vault links", slog.Any("error", err))
		pkghttp.WriteServiceUnavailable(w, "Vault storage unavailable")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, content)
}

// GateStatus handles GET /api/gate/status
func (h *VaultHandler) GateStatus(w http.ResponseWriter, r *http.Request) {
	st, err := h.gate.Status(r.Context())
	if err != nil {
		h.logger.Error("failed to read gate status", slog.Any("error", err))
		pkghttp.WriteServiceUnavailable(w, "Vault storage unavailable")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, LockoutStatus{
		Locked:           st.Locked,
		RemainingSeconds: st.RemainingSeconds,
	})
}
