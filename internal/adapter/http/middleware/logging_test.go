package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggingMiddleware_WritesRequestLine(t *testing.T) {
	var buf bytes.Buffer
	logging := NewLoggingMiddleware(zerolog.New(&buf))

	handler := RequestContext(logging.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/runs/r1", nil)
	req.Header.Set(RequestIDHeader, "req-7")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "error", line["level"])
	assert.Equal(t, "http", line["component"])
	assert.Equal(t, float64(http.StatusBadGateway), line["status"])
	assert.Equal(t, "req-7", line["request_id"])
	assert.Equal(t, "/api/v1/runs/r1", line["path"])
}

func TestRecovery_ReturnsInternalError(t *testing.T) {
	var buf bytes.Buffer
	handler := Recovery(zerolog.New(&buf))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/runs/r1", nil))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.JSONEq(t, `{"error":"internal server error"}`, rr.Body.String())
	assert.Contains(t, buf.String(), "panic recovered")
}
