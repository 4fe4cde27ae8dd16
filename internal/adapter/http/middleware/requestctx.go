package middleware

import (
	"net/http"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/iho/finmodel/internal/domain"
)

const (
	// RequestIDHeader carries the request ID in and out.
	RequestIDHeader = "X-Request-ID"
	// ActorHeader names the caller recorded in audit logs.
	ActorHeader = "X-Actor"
)

// RequestContext stores the request ID and actor on the context for audit
// logging. It reuses chi's request ID when one is set.
func RequestContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = chimiddleware.GetReqID(r.Context())
		}
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)

		ctx := domain.WithRequestID(r.Context(), id)
		if actor := r.Header.Get(ActorHeader); actor != "" {
			ctx = domain.WithActor(ctx, actor)
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
