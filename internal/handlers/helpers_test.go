package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"

	"github.com/BradenHooton/calcvault/internal/gate"
	"github.com/BradenHooton/calcvault/internal/links"
	"github.com/BradenHooton/calcvault/internal/models"
	pkghttp "github.com/BradenHooton/calcvault/pkg/http"
	pkglogger "github.com/BradenHooton/calcvault/pkg/logger"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// NewTestRequest creates an HTTP request with JSON body for testing
func NewTestRequest(t *testing.T, method, url string, body interface{}) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, url, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// AssertJSONResponse checks that response has correct status and decodes JSON body
func AssertJSONResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, target interface{}) {
	assert.Equal(t, expectedStatus, w.Code, "Response status mismatch")
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"), "Content-Type should be application/json")

	if target != nil {
		err := json.Unmarshal(w.Body.Bytes(), target)
		assert.NoError(t, err, "Failed to decode response JSON")
	}
}

// AssertErrorResponse checks that response is a valid error response
func AssertErrorResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, expectedError string) pkghttp.ErrorResponse {
	assert.Equal(t, expectedStatus, w.Code, "Response status mismatch")

	var resp pkghttp.ErrorResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	assert.NoError(t, err, "Failed to decode error response")
	assert.Equal(t, expectedError, resp.Error, "Error code mismatch")
	assert.NotEmpty(t, resp.Message, "Error message should not be empty")
	return resp
}

// WithChiRouteContext adds chi URL parameters to request context for testing
func WithChiRouteContext(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for key, value := range params {
		rctx.URLParams.Add(key, value)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// MockCredentialService implements handlers.CredentialService for testing
type MockCredentialService struct {
	ChangeCredentialFunc func(ctx context.Context, current, next string) models.Outcome
	StatusFunc           func(ctx context.Context) (gate.Status, error)
}

func (m *MockCredentialService) ChangeCredential(ctx context.Context, current, next string) models.Outcome {
	if m.ChangeCredentialFunc == nil {
		return models.Accept()
	}
	return m.ChangeCredentialFunc(ctx, current, next)
}

func (m *MockCredentialService) Status(ctx context.Context) (gate.Status, error) {
	if m.StatusFunc == nil {
		return gate.Status{AttemptsUntilLockout: gate.LockoutThreshold}, nil
	}
	return m.StatusFunc(ctx)
}

// MockLinkCurator implements handlers.LinkCurator for testing
type MockLinkCurator struct {
	ListFunc          func(ctx context.Context) (models.CategoryMap, error)
	AddFunc           func(ctx context.Context, driveURL, name string, category models.Category) (*links.AddResult, error)
	RemoveFunc        func(ctx context.Context, id string, category models.Category) (models.Category, error)
	ClearCategoryFunc func(ctx context.Context, category models.Category) error
	ClearAllFunc      func(ctx context.Context) error
}

func (m *MockLinkCurator) List(ctx context.Context) (models.CategoryMap, error) {
	if m.ListFunc == nil {
		return models.NewCategoryMap(), nil
	}
	return m.ListFunc(ctx)
}

func (m *MockLinkCurator) Add(ctx context.Context, driveURL, name string, category models.Category) (*links.AddResult, error) {
	if m.AddFunc == nil {
		return nil, models.ErrInvalidURL
	}
	return m.AddFunc(ctx, driveURL, name, category)
}

func (m *MockLinkCurator) Remove(ctx context.Context, id string, category models.Category) (models.Category, error) {
	if m.RemoveFunc == nil {
		return "", models.ErrNotFound
	}
	return m.RemoveFunc(ctx, id, category)
}

func (m *MockLinkCurator) ClearCategory(ctx context.Context, category models.Category) error {
	if m.ClearCategoryFunc == nil {
		return nil
	}
	return m.ClearCategoryFunc(ctx, category)
}

func (m *MockLinkCurator) ClearAll(ctx context.Context) error {
	if m.ClearAllFunc == nil {
		return nil
	}
	return m.ClearAllFunc(ctx)
}

type staticCounter int

func (c staticCounter) Count() int { return int(c) }

// recordingAudit returns an audit logger whose records land in buf
func recordingAudit(buf *bytes.Buffer) *pkglogger.AuditLogger {
	return pkglogger.NewAuditLogger(slog.New(slog.NewJSONHandler(buf, nil)))
}
