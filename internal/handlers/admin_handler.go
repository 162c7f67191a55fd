package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/BradenHooton/calcvault/internal/gate"
	"github.com/BradenHooton/calcvault/internal/links"
	"github.com/BradenHooton/calcvault/internal/models"
	pkghttp "github.com/BradenHooton/calcvault/pkg/http"
	pkglogger "github.com/BradenHooton/calcvault/pkg/logger"
)

// CredentialService changes the vault PIN and reports gate state
type CredentialService interface {
	ChangeCredential(ctx context.Context, current, next string) models.Outcome
	Status(ctx context.Context) (gate.Status, error)
}

// LinkCurator manages the vault's links
type LinkCurator interface {
	List(ctx context.Context) (models.CategoryMap, error)
	Add(ctx context.Context, driveURL, name string, category models.Category) (*links.AddResult, error)
	Remove(ctx context.Context, id string, category models.Category) (models.Category, error)
	ClearCategory(ctx context.Context, category models.Category) error
	ClearAll(ctx context.Context) error
}

// SessionCounter reports how many sessions are live
type SessionCounter interface {
	Count() int
}

// AdminHandler serves the admin page: PIN changes and link curation
type AdminHandler struct {
	gate     CredentialService
	links    LinkCurator
	sessions SessionCounter
	audit    *pkglogger.AuditLogger
	ipConfig *pkghttp.IPConfig
	logger   *slog.Logger
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(g CredentialService, l LinkCurator, sessions SessionCounter, audit *pkglogger.AuditLogger, ipConfig *pkghttp.IPConfig, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{
		gate:     g,
		links:    l,
		sessions: sessions,
		audit:    audit,
		ipConfig: ipConfig,
		logger:   logger,
	}
}

// ChangePINRequest is the body of POST /admin/pin
type ChangePINRequest struct {
	CurrentPIN string `json:"current_pin" validate:"required,pin"`
	NewPIN     string `json:"new_pin" validate:"required,pin"`
	ConfirmPIN string `json:"confirm_pin" validate:"required,eqfield=NewPIN"`
}

// AddLinkRequest is the body of POST /admin/links
type AddLinkRequest struct {
	URL      string `json:"url" validate:"required,url,max=2048"`
	Name     string `json:"name" validate:"required,min=1,max=255"`
	Category string `json:"category,omitempty" validate:"omitempty,oneof=photos videos files recordings"`
}

// StatusResponse is the admin dashboard summary
type StatusResponse struct {
	Gate           gate.Status             `json:"gate"`
	Links          map[models.Category]int `json:"links"`
	TotalLinks     int                     `json:"total_links"`
	ActiveSessions int                     `json:"active_sessions"`
}

// RemoveLinkResponse confirms a removal
type RemoveLinkResponse struct {
	Message  string          `json:"message"`
	Category models.Category `json:"category"`
	Note     string          `json:"note"`
}

// Status handles GET /admin/status
func (h *AdminHandler) Status(w http.ResponseWriter, r *http.Request) {
	st, err := h.gate.Status(r.Context())
	if err != nil {
		h.storageUnavailable(w, "gate status", err)
		return
	}

	content, err := h.links.List(r.Context())
	if err != nil {
		h.storageUnavailable(w, "list links", err)
		return
	}

	counts := make(map[models.Category]int, len(models.Categories))
	for _, c := range models.Categories {
		counts[c] = len(content[c])
	}

	pkghttp.WriteJSON(w, http.StatusOK, StatusResponse{
		Gate:           st,
		Links:          counts,
		TotalLinks:     content.Total(),
		ActiveSessions: h.sessions.Count(),
	})
}

// ChangePIN handles POST /admin/pin. Unlike PIN entry, this comparison is
// neither rate limited nor counted toward lockout.
func (h *AdminHandler) ChangePIN(w http.ResponseWriter, r *http.Request) {
	ip := pkghttp.ExtractClientIP(r, h.ipConfig)

	var req ChangePINRequest
	if err := pkghttp.DecodeJSON(w, r, &req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(&req); err != nil {
		h.audit.LogPinChange(ip, false, "validation")
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	out := h.gate.ChangeCredential(r.Context(), req.CurrentPIN, req.NewPIN)
	if out.Accepted {
		h.audit.LogPinChange(ip, true, "")
		pkghttp.WriteMessage(w, http.StatusOK, "PIN successfully updated", "")
		return
	}

	h.audit.LogPinChange(ip, false, out.Reason.String())

	switch out.Reason {
	case models.ReasonSamePin:
		pkghttp.WriteError(w, http.StatusBadRequest, pkghttp.CodeSamePIN, "New PIN cannot be the same as current PIN")
	case models.ReasonWrongPin:
		pkghttp.WriteError(w, http.StatusForbidden, pkghttp.CodeWrongPIN, "Current PIN is incorrect")
	case models.ReasonStorageError:
		h.storageUnavailable(w, "change pin", out.Err)
	default:
		pkghttp.WriteBadRequest(w, "PIN must be exactly 4 digits")
	}
}

// ListLinks handles GET /admin/links
func (h *AdminHandler) ListLinks(w http.ResponseWriter, r *http.Request) {
	content, err := h.links.List(r.Context())
	if err != nil {
		h.storageUnavailable(w, "list links", err)
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, content)
}

// AddLink handles POST /admin/links
func (h *AdminHandler) AddLink(w http.ResponseWriter, r *http.Request) {
	var req AddLinkRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	result, err := h.links.Add(r.Context(), req.URL, req.Name, models.Category(req.Category))
	if err != nil {
		switch {
		case errors.Is(err, models.ErrInvalidURL):
			pkghttp.WriteBadRequest(w, "Invalid Google Drive URL format")
		case errors.Is(err, models.ErrInvalidCategory):
			pkghttp.WriteBadRequest(w, "Invalid category")
		case errors.Is(err, models.ErrDuplicateLink):
			pkghttp.WriteConflict(w, "This file is already in the vault")
		default:
			h.storageUnavailable(w, "add link", err)
		}
		return
	}

	pkghttp.WriteJSON(w, http.StatusCreated, result)
}

// RemoveLink handles DELETE /admin/links/{category}/{id}. The category
// "any" searches every category.
func (h *AdminHandler) RemoveLink(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	category := models.Category(chi.URLParam(r, "category"))
	if category == "any" {
		category = ""
	}
	if category != "" && !category.Valid() {
		pkghttp.WriteBadRequest(w, "Invalid category")
		return
	}

	removedFrom, err := h.links.Remove(r.Context(), id, category)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			pkghttp.WriteNotFound(w, "File not found in vault")
			return
		}
		h.storageUnavailable(w, "remove link", err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, RemoveLinkResponse{
		Message:  "File removed from vault",
		Category: removedFrom,
		Note:     "The file is still stored in Google Drive",
	})
}

// ClearCategory handles DELETE /admin/links/{category}
func (h *AdminHandler) ClearCategory(w http.ResponseWriter, r *http.Request) {
	category := models.Category(chi.URLParam(r, "category"))
	if !category.Valid() {
		pkghttp.WriteBadRequest(w, "Invalid category")
		return
	}

	if err := h.links.ClearCategory(r.Context(), category); err != nil {
		h.storageUnavailable(w, "clear category", err)
		return
	}

	pkghttp.WriteMessage(w, http.StatusOK, "Cleared all "+string(category), "Files are still stored in Google Drive")
}

// ClearAll handles DELETE /admin/links
func (h *AdminHandler) ClearAll(w http.ResponseWriter, r *http.Request) {
	if err := h.links.ClearAll(r.Context()); err != nil {
		h.storageUnavailable(w, "clear all", err)
		return
	}

	pkghttp.WriteMessage(w, http.StatusOK, "Cleared all vault content", "Files are still stored in Google Drive")
}

func (h *AdminHandler) storageUnavailable(w http.ResponseWriter, op string, err error) {
	h.logger.Error("vault storage failure", slog.String("op", op), slog.Any("error", err))
	pkghttp.WriteServiceUnavailable(w, "Vault storage unavailable")
}
