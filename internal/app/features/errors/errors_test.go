package errors_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	uierrors "github.com/dalemusser/branchhub/internal/app/features/errors"
	"github.com/dalemusser/branchhub/internal/app/system/apierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func decode(t *testing.T, rec *httptest.ResponseRecorder) apierr.Envelope {
	t.Helper()
	var env apierr.Envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v (body %q)", err, rec.Body.String())
	}
	return env
}

func TestHandlers(t *testing.T) {
	h := uierrors.NewHandler()
	tests := []struct {
		name    string
		fn      http.HandlerFunc
		status  int
		code    string
		message string
	}{
		{"forbidden", h.Forbidden, http.StatusForbidden, "INSUFFICIENT_PERMISSIONS", "Insufficient permissions"},
		{"unauthorized", h.Unauthorized, http.StatusUnauthorized, "UNAUTHENTICATED", "Unauthenticated"},
		{"not found", h.NotFound, http.StatusNotFound, "NOT_FOUND", "Not found"},
		{"method", h.MethodNotAllowed, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			tt.fn(rec, httptest.NewRequest("GET", "/x", nil))
			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
			env := decode(t, rec)
			if env.Error.Code != tt.code || env.Error.Message != tt.message {
				t.Errorf("envelope = %+v", env.Error)
			}
		})
	}
}

func TestErrorLogger(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	el := uierrors.NewErrorLogger(zap.New(core))

	rec := httptest.NewRecorder()
	el.LogServerError(rec, httptest.NewRequest("GET", "/users", nil), "list users failed", errors.New("boom"))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
	if env := decode(t, rec); env.Error.Code != "INTERNAL" {
		t.Errorf("code = %q", env.Error.Code)
	}

	rec = httptest.NewRecorder()
	el.LogBadRequest(rec, httptest.NewRequest("POST", "/login", nil), "bad json", errors.New("eof"), "Invalid JSON body.")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if env := decode(t, rec); env.Error.Message != "Invalid JSON body." {
		t.Errorf("message = %q", env.Error.Message)
	}

	if logs.Len() != 2 {
		t.Fatalf("logged %d entries, want 2", logs.Len())
	}
	if e := logs.All()[0]; e.Level != zap.ErrorLevel || e.ContextMap()["path"] != "/users" {
		t.Errorf("first entry = %v %v", e.Level, e.ContextMap())
	}
}
