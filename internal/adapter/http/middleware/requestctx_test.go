package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/iho/finmodel/internal/domain"
)

func TestRequestContext_PropagatesHeaders(t *testing.T) {
	var gotID, gotActor string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID = domain.RequestIDFromContext(r.Context())
		gotActor = domain.ActorFromContext(r.Context())
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/projects/p1/calculations/kpi", nil)
	req.Header.Set(RequestIDHeader, "req-42")
	req.Header.Set(ActorHeader, "analyst")
	rr := httptest.NewRecorder()

	RequestContext(next).ServeHTTP(rr, req)

	assert.Equal(t, "req-42", gotID)
	assert.Equal(t, "analyst", gotActor)
	assert.Equal(t, "req-42", rr.Header().Get(RequestIDHeader))
}

func TestRequestContext_GeneratesID(t *testing.T) {
	var gotID, gotActor string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID = domain.RequestIDFromContext(r.Context())
		gotActor = domain.ActorFromContext(r.Context())
	})

	rr := httptest.NewRecorder()
	RequestContext(next).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Len(t, gotID, 36)
	assert.Equal(t, gotID, rr.Header().Get(RequestIDHeader))
	assert.Equal(t, "system", gotActor)
}
