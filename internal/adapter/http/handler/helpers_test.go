package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/iho/finmodel/internal/adapter/http/dto"
	"github.com/iho/finmodel/internal/domain"
)

func TestParseIntQuery(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/runs?limit=50", nil)
	if got := parseIntQuery(req, "limit", 10); got != 50 {
		t.Fatalf("expected limit=50, got %d", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/runs?limit=invalid", nil)
	if got := parseIntQuery(req, "limit", 10); got != 10 {
		t.Fatalf("expected fallback to default, got %d", got)
	}

	req.URL = &url.URL{RawQuery: ""}
	if got := parseIntQuery(req, "limit", 25); got != 25 {
		t.Fatalf("expected default when missing, got %d", got)
	}
}

func TestMapDomainError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"validation", fmt.Errorf("%w: horizon", domain.ErrInputValidation), http.StatusUnprocessableEntity},
		{"concurrency", domain.ErrConcurrency, http.StatusConflict},
		{"finalized", domain.ErrRunFinalized, http.StatusConflict},
		{"run not found", domain.ErrRunNotFound, http.StatusNotFound},
		{"project not found", domain.ErrProjectNotFound, http.StatusNotFound},
		{"type mismatch", domain.ErrRunTypeMismatch, http.StatusBadRequest},
		{"not restorable", domain.ErrRunNotRestorable, http.StatusBadRequest},
		{"unknown type", domain.ErrUnknownCalculationType, http.StatusBadRequest},
		{"computation", domain.ErrComputation, http.StatusInternalServerError},
		{"unknown error", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			if got := mapDomainError(tt.err); got != tt.expected {
				t.Fatalf("expected %d, got %d", tt.expected, got)
			}
		})
	}
}

func TestWriteJSON(t *testing.T) {
	rr := httptest.NewRecorder()
	payload := map[string]string{"status": "ok"}

	writeJSON(rr, http.StatusCreated, payload)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d", rr.Code)
	}

	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("expected content-type application/json, got %s", ct)
	}

	var decoded map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &decoded); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if decoded["status"] != "ok" {
		t.Fatalf("expected payload to round-trip, got %+v", decoded)
	}
}

func TestWriteError(t *testing.T) {
	rr := httptest.NewRecorder()

	writeError(rr, http.StatusBadRequest, "bad request", "detail")

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}

	var resp dto.ErrorResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}

	if resp.Error != "bad request" {
		t.Fatalf("expected error message to propagate, got %+v", resp)
	}
}

func TestHealthHandler_Readiness(t *testing.T) {
	h := &HealthHandler{checks: []dependencyCheck{
		{name: "postgres", ping: func(ctx context.Context) error { return nil }},
		{name: "redis", ping: func(ctx context.Context) error { return errors.New("connection refused") }},
	}}

	rr := httptest.NewRecorder()
	h.Readiness(rr, httptest.NewRequest(http.MethodGet, "/ready", nil))

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "redis unhealthy") {
		t.Fatalf("expected failing dependency to be named: %s", rr.Body.String())
	}

	h.checks = h.checks[:1]
	rr = httptest.NewRecorder()
	h.Readiness(rr, httptest.NewRequest(http.MethodGet, "/ready", nil))

	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), `"postgres":"ok"`) {
		t.Fatalf("expected ready response, got %d: %s", rr.Code, rr.Body.String())
	}
}
