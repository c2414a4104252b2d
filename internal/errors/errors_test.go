package errors

import (
	"encoding/json"
	stderrors "errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"superstore-dashboard/internal/observability"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestStatusCodes(t *testing.T) {
	tests := []struct {
		err  *AppError
		want int
	}{
		{Validation("bad period"), http.StatusBadRequest},
		{BadRequestWrap(stderrors.New("parse"), "bad date"), http.StatusBadRequest},
		{NotFound("missing"), http.StatusNotFound},
		{RateLimit("slow down"), http.StatusTooManyRequests},
		{ServiceUnavailable("loading"), http.StatusServiceUnavailable},
		{Internal("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.err.Code), func(t *testing.T) {
			if tt.err.StatusCode != tt.want {
				t.Errorf("expected status %d, got %d", tt.want, tt.err.StatusCode)
			}
		})
	}
}

func TestWrap_Unwrap(t *testing.T) {
	cause := stderrors.New("period must be positive")
	err := ValidationWrap(cause, "invalid period")

	if !stderrors.Is(err, cause) {
		t.Error("wrapped error should unwrap to its cause")
	}
	if err.Details != cause.Error() {
		t.Errorf("expected details %q, got %q", cause.Error(), err.Details)
	}
}

func TestWriteError(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/kpis?period=0", nil)
	req = req.WithContext(observability.WithRequestID(req.Context(), "req-1"))
	w := httptest.NewRecorder()

	WriteError(w, req, testLogger(), Validation("period must be positive"))

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected application/json, got %q", ct)
	}

	var resp struct {
		Error   AppError `json:"error"`
		Success bool     `json:"success"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if resp.Success {
		t.Error("expected success=false")
	}
	if resp.Error.Code != CodeValidation {
		t.Errorf("expected %s, got %s", CodeValidation, resp.Error.Code)
	}
	if resp.Error.RequestID != "req-1" {
		t.Errorf("expected request id req-1, got %q", resp.Error.RequestID)
	}
}

func TestWriteError_PlainErrorIsInternal(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()

	WriteError(w, req, testLogger(), stderrors.New("disk on fire"))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected status 500, got %d", w.Code)
	}
	var resp map[string]any
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	errBody := resp["error"].(map[string]any)
	if _, ok := errBody["details"]; ok {
		t.Error("internal errors should not expose details")
	}
}
