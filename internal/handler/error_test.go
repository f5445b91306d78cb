package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/DukeRupert/certum/internal/domain"
)

// =============================================================================
// Error Response Tests - Security Focus
// =============================================================================

func TestErrorResponse_InternalErrorHidesDetails(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	// Create an internal error wrapping a database error
	dbErr := &mockDatabaseError{message: "ERROR: relation \"users\" does not exist (SQLSTATE 42P01)"}
	internalErr := domain.Internal(dbErr, "usage.get", "Database query failed")

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ErrorResponse(w, r, logger, internalErr)
	})

	req := httptest.NewRequest("GET", "/api/usage", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	body := rec.Body.String()

	// Should NOT contain database error details
	if strings.Contains(body, "SQLSTATE") {
		t.Errorf("response exposes database error: %s", body)
	}
	if strings.Contains(body, "relation") {
		t.Errorf("response exposes database schema: %s", body)
	}
	if strings.Contains(body, "usage.get") {
		t.Errorf("response exposes internal operation: %s", body)
	}

	// Should return generic message
	if !strings.Contains(body, "internal error") {
		t.Errorf("response should contain generic internal error message, got: %s", body)
	}
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rec.Code)
	}
}

func TestErrorResponse_UpstreamHidesCause(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	cause := errors.New("googleapi: Error 403: API key 'AIza-secret' is invalid")
	err := domain.Upstream(cause, "interview.generate_feedback", "Failed to generate feedback")

	rec := httptest.NewRecorder()
	ErrorResponse(rec, httptest.NewRequest("POST", "/api/interviews/x/feedback", nil), logger, err)

	body := rec.Body.String()
	if strings.Contains(body, "AIza") || strings.Contains(body, "googleapi") {
		t.Errorf("response exposes upstream cause: %s", body)
	}
	if !strings.Contains(body, "Failed to generate feedback") {
		t.Errorf("expected upstream message, got: %s", body)
	}
	if rec.Code != http.StatusBadGateway {
		t.Errorf("expected 502, got %d", rec.Code)
	}
}

func TestErrorResponse_NotFoundDoesNotExposeInternals(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	notFoundErr := domain.NotFound("job_info.get", "job info", "550e8400-e29b-41d4-a716-446655440000")

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ErrorResponse(w, r, logger, notFoundErr)
	})

	req := httptest.NewRequest("GET", "/api/job-infos/550e8400-e29b-41d4-a716-446655440000", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	body := rec.Body.String()

	// Should NOT contain internal operation name
	if strings.Contains(body, "job_info.get") {
		t.Errorf("response exposes operation name: %s", body)
	}

	// Should contain user-friendly not found message (resource type is OK)
	if !strings.Contains(body, "not found") {
		t.Errorf("response should indicate resource not found: %s", body)
	}
}

func TestErrorResponse_UnwrappedErrorReturnsGeneric(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	// Create a raw error (not a domain.Error)
	rawErr := &mockDatabaseError{message: "FATAL: password authentication failed for user \"postgres\""}

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ErrorResponse(w, r, logger, rawErr)
	})

	req := httptest.NewRequest("GET", "/api/usage", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	body := rec.Body.String()

	// Should NOT contain the raw error
	if strings.Contains(body, "FATAL") {
		t.Errorf("response exposes raw error: %s", body)
	}
	if strings.Contains(body, "password") {
		t.Errorf("response exposes password-related error: %s", body)
	}
	if strings.Contains(body, "postgres") {
		t.Errorf("response exposes database user: %s", body)
	}

	// Should return generic message
	if !strings.Contains(body, "internal error") {
		t.Errorf("response should contain generic message, got: %s", body)
	}
}

func TestErrorResponse_JSONShape(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	rec := httptest.NewRecorder()
	ErrorResponse(rec, httptest.NewRequest("POST", "/api/job-infos/x/interviews", nil), logger,
		domain.PlanLimit("interview.create", "You have reached your plan limit. Upgrade to continue."))

	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected application/json, got %q", ct)
	}

	var body JSONError
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if body.Error.Code != domain.EPLANLIMIT {
		t.Errorf("expected code %q, got %q", domain.EPLANLIMIT, body.Error.Code)
	}
	if !strings.Contains(body.Error.Message, "plan limit") {
		t.Errorf("unexpected message %q", body.Error.Message)
	}
}

func TestErrorCodeToHTTPStatus(t *testing.T) {
	tests := []struct {
		code string
		want int
	}{
		{domain.EINVALID, http.StatusBadRequest},
		{domain.EUNAUTHORIZED, http.StatusUnauthorized},
		{domain.EPAYMENT, http.StatusPaymentRequired},
		{domain.EFORBIDDEN, http.StatusForbidden},
		{domain.EPLANLIMIT, http.StatusForbidden},
		{domain.ENOTFOUND, http.StatusNotFound},
		{domain.ECONFLICT, http.StatusConflict},
		{domain.EGONE, http.StatusGone},
		{domain.ETOOLARGE, http.StatusRequestEntityTooLarge},
		{domain.ERATELIMIT, http.StatusTooManyRequests},
		{domain.EINTERNAL, http.StatusInternalServerError},
		{domain.ENOTIMPL, http.StatusNotImplemented},
		{domain.EUPSTREAM, http.StatusBadGateway},
		{"something_else", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		if got := ErrorCodeToHTTPStatus(tt.code); got != tt.want {
			t.Errorf("ErrorCodeToHTTPStatus(%q) = %d, want %d", tt.code, got, tt.want)
		}
	}
}

// mockDatabaseError simulates a database error for testing
type mockDatabaseError struct {
	message string
}

func (e *mockDatabaseError) Error() string {
	return e.message
}
