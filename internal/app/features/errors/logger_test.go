package errors_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	uierrors "github.com/Elqomdes/hedeflynet/internal/app/features/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestErrorLogger(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	el := uierrors.NewErrorLogger(zap.New(core))

	tests := []struct {
		name   string
		call   func(w http.ResponseWriter, r *http.Request)
		status int
		body   string
	}{
		{"server", func(w http.ResponseWriter, r *http.Request) {
			el.LogServerError(w, r, "db failed", errors.New("boom"), "")
		}, http.StatusInternalServerError, "A server error occurred."},
		{"bad request", func(w http.ResponseWriter, r *http.Request) {
			el.LogBadRequest(w, r, "decode", errors.New("eof"), "Invalid JSON.")
		}, http.StatusBadRequest, "Invalid JSON."},
		{"not found", func(w http.ResponseWriter, r *http.Request) {
			el.LogNotFound(w, r, "missing", "Not found.")
		}, http.StatusNotFound, "Not found."},
		{"forbidden", func(w http.ResponseWriter, r *http.Request) {
			el.LogForbidden(w, r, "not owner", "")
		}, http.StatusForbidden, "You don't have permission to do that."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			tt.call(rec, httptest.NewRequest(http.MethodGet, "/api/x", nil))
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d", rec.Code, tt.status)
			}
			var body struct{ Error string }
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil || body.Error != tt.body {
				t.Errorf("body = %q (%v), want %q", rec.Body.String(), err, tt.body)
			}
		})
	}
	if logs.Len() != len(tests) {
		t.Errorf("logged %d entries, want %d", logs.Len(), len(tests))
	}
	if got := logs.All()[0].ContextMap()["path"]; got != "/api/x" {
		t.Errorf("path field = %v", got)
	}
}

func TestRouterFallbacks(t *testing.T) {
	rec := httptest.NewRecorder()
	uierrors.NotFound(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("NotFound status = %d", rec.Code)
	}
	rec = httptest.NewRecorder()
	uierrors.MethodNotAllowed(rec, httptest.NewRequest(http.MethodPut, "/health", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("MethodNotAllowed status = %d", rec.Code)
	}
}
