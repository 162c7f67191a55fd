package handlers_test

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BradenHooton/calcvault/internal/gate"
	"github.com/BradenHooton/calcvault/internal/handlers"
	"github.com/BradenHooton/calcvault/internal/links"
	"github.com/BradenHooton/calcvault/internal/models"
	pkghttp "github.com/BradenHooton/calcvault/pkg/http"
)

func newAdminHandler(g handlers.CredentialService, l handlers.LinkCurator, audit *bytes.Buffer) *handlers.AdminHandler {
	return handlers.NewAdminHandler(g, l, staticCounter(2), recordingAudit(audit), nil, discardLogger())
}

// ── ChangePIN ─────────────────────────────────────────────────────────────────

func TestChangePIN_Success_Returns200(t *testing.T) {
	var gotCurrent, gotNext string
	svc := &MockCredentialService{
		ChangeCredentialFunc: func(_ context.Context, current, next string) models.Outcome {
			gotCurrent, gotNext = current, next
			return models.Accept()
		},
	}
	var audit bytes.Buffer
	h := newAdminHandler(svc, &MockLinkCurator{}, &audit)

	req := NewTestRequest(t, "POST", "/admin/pin", map[string]string{
		"current_pin": "1234",
		"new_pin":     "5678",
		"confirm_pin": "5678",
	})
	w := httptest.NewRecorder()
	h.ChangePIN(w, req)

	var resp pkghttp.MessageResponse
	AssertJSONResponse(t, w, http.StatusOK, &resp)
	assert.Equal(t, "PIN successfully updated", resp.Message)
	assert.Equal(t, "1234", gotCurrent)
	assert.Equal(t, "5678", gotNext)
	assert.Contains(t, audit.String(), `"event_type":"pin_change"`)
	assert.Contains(t, audit.String(), `"success":true`)
}

func TestChangePIN_ValidationFailures(t *testing.T) {
	tests := []struct {
		name    string
		body    map[string]string
		message string
	}{
		{"missing current", map[string]string{"new_pin": "5678", "confirm_pin": "5678"}, "current_pin"},
		{"short new pin", map[string]string{"current_pin": "1234", "new_pin": "567", "confirm_pin": "567"}, "must be exactly 4 digits"},
		{"signed number", map[string]string{"current_pin": "1234", "new_pin": "-567", "confirm_pin": "-567"}, "must be exactly 4 digits"},
		{"letters", map[string]string{"current_pin": "12a4", "new_pin": "5678", "confirm_pin": "5678"}, "must be exactly 4 digits"},
		{"confirmation mismatch", map[string]string{"current_pin": "1234", "new_pin": "5678", "confirm_pin": "5679"}, "must match NewPIN"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			svc := &MockCredentialService{
				ChangeCredentialFunc: func(context.Context, string, string) models.Outcome {
					called = true
					return models.Accept()
				},
			}
			var audit bytes.Buffer
			h := newAdminHandler(svc, &MockLinkCurator{}, &audit)

			w := httptest.NewRecorder()
			h.ChangePIN(w, NewTestRequest(t, "POST", "/admin/pin", tt.body))

			resp := AssertErrorResponse(t, w, http.StatusBadRequest, "bad_request")
			assert.Contains(t, resp.Message, tt.message)
			assert.False(t, called, "gate must not be consulted")
			assert.Contains(t, audit.String(), `"failure_reason":"validation"`)
		})
	}
}

func TestChangePIN_OutcomeMapping(t *testing.T) {
	tests := []struct {
		name    string
		outcome models.Outcome
		status  int
		code    string
		message string
	}{
		{"same pin", models.Reject(models.ReasonSamePin), 400, "same_pin", "New PIN cannot be the same as current PIN"},
		{"wrong pin", models.Reject(models.ReasonWrongPin), 403, "wrong_pin", "Current PIN is incorrect"},
		{"storage", models.RejectStorage(errors.New("disk full")), 503, "service_unavailable", "Vault storage unavailable"},
		{"malformed", models.Reject(models.ReasonMalformedInput), 400, "bad_request", "PIN must be exactly 4 digits"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &MockCredentialService{
				ChangeCredentialFunc: func(context.Context, string, string) models.Outcome { return tt.outcome },
			}
			var audit bytes.Buffer
			h := newAdminHandler(svc, &MockLinkCurator{}, &audit)

			req := NewTestRequest(t, "POST", "/admin/pin", map[string]string{
				"current_pin": "1234", "new_pin": "1234", "confirm_pin": "1234",
			})
			w := httptest.NewRecorder()
			h.ChangePIN(w, req)

			resp := AssertErrorResponse(t, w, tt.status, tt.code)
			assert.Equal(t, tt.message, resp.Message)
			assert.Contains(t, audit.String(), `"success":false`)
		})
	}
}

func TestChangePIN_InvalidJSON_Returns400(t *testing.T) {
	h := newAdminHandler(&MockCredentialService{}, &MockLinkCurator{}, &bytes.Buffer{})

	req := httptest.NewRequest("POST", "/admin/pin", bytes.NewBufferString("{not json"))
	w := httptest.NewRecorder()
	h.ChangePIN(w, req)

	AssertErrorResponse(t, w, http.StatusBadRequest, "bad_request")
}

// ── Status ────────────────────────────────────────────────────────────────────

func TestAdminStatus_ReportsGateLinksAndSessions(t *testing.T) {
	svc := &MockCredentialService{
		StatusFunc: func(context.Context) (gate.Status, error) {
			return gate.Status{Locked: true, RemainingSeconds: 12, WrongAttempts: 3}, nil
		},
	}
	curator := &MockLinkCurator{
		ListFunc: func(context.Context) (models.CategoryMap, error) {
			m := models.NewCategoryMap()
			m[models.CategoryPhotos] = []models.Link{{ID: "a"}, {ID: "b"}}
			m[models.CategoryFiles] = []models.Link{{ID: "c"}}
			return m, nil
		},
	}
	h := newAdminHandler(svc, curator, &bytes.Buffer{})

	w := httptest.NewRecorder()
	h.Status(w, httptest.NewRequest("GET", "/admin/status", nil))

	var resp handlers.StatusResponse
	AssertJSONResponse(t, w, http.StatusOK, &resp)
	assert.True(t, resp.Gate.Locked)
	assert.Equal(t, 12, resp.Gate.RemainingSeconds)
	assert.Equal(t, 2, resp.Links[models.CategoryPhotos])
	assert.Equal(t, 0, resp.Links[models.CategoryVideos])
	assert.Equal(t, 3, resp.TotalLinks)
	assert.Equal(t, 2, resp.ActiveSessions)
}

func TestAdminStatus_StorageError_Returns503(t *testing.T) {
	svc := &MockCredentialService{
		StatusFunc: func(context.Context) (gate.Status, error) { return gate.Status{}, models.ErrStorage },
	}
	h := newAdminHandler(svc, &MockLinkCurator{}, &bytes.Buffer{})

	w := httptest.NewRecorder()
	h.Status(w, httptest.NewRequest("GET", "/admin/status", nil))

	AssertErrorResponse(t, w, http.StatusServiceUnavailable, "service_unavailable")
}

// ── Links ─────────────────────────────────────────────────────────────────────

func TestAddLink_Created(t *testing.T) {
	curator := &MockLinkCurator{
		AddFunc: func(_ context.Context, driveURL, name string, category models.Category) (*links.AddResult, error) {
			assert.Equal(t, "https://drive.google.com/file/d/abc123/view", driveURL)
			assert.Equal(t, "beach.jpg", name)
			assert.Equal(t, models.Category(""), category)
			return &links.AddResult{
				Category: models.CategoryPhotos,
				Link:     models.Link{ID: "abc123", Name: name, AddedDate: time.Unix(0, 0).UTC()},
			}, nil
		},
	}
	h := newAdminHandler(&MockCredentialService{}, curator, &bytes.Buffer{})

	req := NewTestRequest(t, "POST", "/admin/links", map[string]string{
		"url":  "https://drive.google.com/file/d/abc123/view",
		"name": "beach.jpg",
	})
	w := httptest.NewRecorder()
	h.AddLink(w, req)

	var resp links.AddResult
	AssertJSONResponse(t, w, http.StatusCreated, &resp)
	assert.Equal(t, models.CategoryPhotos, resp.Category)
	assert.Equal(t, "abc123", resp.Link.ID)
}

func TestAddLink_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"invalid url", models.ErrInvalidURL, 400, "bad_request"},
		{"invalid category", models.ErrInvalidCategory, 400, "bad_request"},
		{"duplicate", models.ErrDuplicateLink, 409, "conflict"},
		{"storage", models.ErrStorage, 503, "service_unavailable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			curator := &MockLinkCurator{
				AddFunc: func(context.Context, string, string, models.Category) (*links.AddResult, error) {
					return nil, tt.err
				},
			}
			h := newAdminHandler(&MockCredentialService{}, curator, &bytes.Buffer{})

			req := NewTestRequest(t, "POST", "/admin/links", map[string]string{
				"url":      "https://example.com/not-drive",
				"name":     "x",
				"category": "files",
			})
			w := httptest.NewRecorder()
			h.AddLink(w, req)

			AssertErrorResponse(t, w, tt.status, tt.code)
		})
	}
}

func TestAddLink_RejectsUnknownCategoryBeforeRegistry(t *testing.T) {
	h := newAdminHandler(&MockCredentialService{}, &MockLinkCurator{}, &bytes.Buffer{})

	req := NewTestRequest(t, "POST", "/admin/links", map[string]string{
		"url":      "https://drive.google.com/file/d/abc/view",
		"name":     "x",
		"category": "documents",
	})
	w := httptest.NewRecorder()
	h.AddLink(w, req)

	resp := AssertErrorResponse(t, w, http.StatusBadRequest, "bad_request")
	assert.Contains(t, resp.Message, "must be one of")
}

func TestRemoveLink(t *testing.T) {
	t.Run("removed", func(t *testing.T) {
		curator := &MockLinkCurator{
			RemoveFunc: func(_ context.Context, id string, category models.Category) (models.Category, error) {
				assert.Equal(t, "abc", id)
				assert.Equal(t, models.Category(""), category)
				return models.CategoryVideos, nil
			},
		}
		h := newAdminHandler(&MockCredentialService{}, curator, &bytes.Buffer{})

		req := WithChiRouteContext(httptest.NewRequest("DELETE", "/admin/links/any/abc", nil),
			map[string]string{"category": "any", "id": "abc"})
		w := httptest.NewRecorder()
		h.RemoveLink(w, req)

		var resp handlers.RemoveLinkResponse
		AssertJSONResponse(t, w, http.StatusOK, &resp)
		assert.Equal(t, models.CategoryVideos, resp.Category)
		assert.NotEmpty(t, resp.Note)
	})

	t.Run("not found", func(t *testing.T) {
		h := newAdminHandler(&MockCredentialService{}, &MockLinkCurator{}, &bytes.Buffer{})

		req := WithChiRouteContext(httptest.NewRequest("DELETE", "/admin/links/photos/zzz", nil),
			map[string]string{"category": "photos", "id": "zzz"})
		w := httptest.NewRecorder()
		h.RemoveLink(w, req)

		AssertErrorResponse(t, w, http.StatusNotFound, "not_found")
	})

	t.Run("bad category", func(t *testing.T) {
		h := newAdminHandler(&MockCredentialService{}, &MockLinkCurator{}, &bytes.Buffer{})

		req := WithChiRouteContext(httptest.NewRequest("DELETE", "/admin/links/music/abc", nil),
			map[string]string{"category": "music", "id": "abc"})
		w := httptest.NewRecorder()
		h.RemoveLink(w, req)

		AssertErrorResponse(t, w, http.StatusBadRequest, "bad_request")
	})
}

func TestClearCategoryAndAll(t *testing.T) {
	var cleared []models.Category
	clearedAll := false
	curator := &MockLinkCurator{
		ClearCategoryFunc: func(_ context.Context, c models.Category) error {
			cleared = append(cleared, c)
			return nil
		},
		ClearAllFunc: func(context.Context) error {
			clearedAll = true
			return nil
		},
	}
	h := newAdminHandler(&MockCredentialService{}, curator, &bytes.Buffer{})

	req := WithChiRouteContext(httptest.NewRequest("DELETE", "/admin/links/recordings", nil),
		map[string]string{"category": "recordings"})
	w := httptest.NewRecorder()
	h.ClearCategory(w, req)

	var msg pkghttp.MessageResponse
	AssertJSONResponse(t, w, http.StatusOK, &msg)
	assert.Equal(t, "Cleared all recordings", msg.Message)
	assert.Equal(t, []models.Category{models.CategoryRecordings}, cleared)

	w = httptest.NewRecorder()
	h.ClearAll(w, httptest.NewRequest("DELETE", "/admin/links", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, clearedAll)

	req = WithChiRouteContext(httptest.NewRequest("DELETE", "/admin/links/nope", nil),
		map[string]string{"category": "nope"})
	w = httptest.NewRecorder()
	h.ClearCategory(w, req)
	AssertErrorResponse(t, w, http.StatusBadRequest, "bad_request")
}
