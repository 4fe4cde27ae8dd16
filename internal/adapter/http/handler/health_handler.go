package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

type dependencyCheck struct {
	name string
	ping func(ctx context.Context) error
}

// HealthHandler handles health check requests.
type HealthHandler struct {
	checks []dependencyCheck
}

// NewHealthHandler creates a new HealthHandler. Either dependency may be nil.
func NewHealthHandler(pool *pgxpool.Pool, redisClient *redis.Client) *HealthHandler {
	h := &HealthHandler{}
	if pool != nil {
		h.checks = append(h.checks, dependencyCheck{name: "postgres", ping: pool.Ping})
	}
	if redisClient != nil {
		h.checks = append(h.checks, dependencyCheck{name: "redis", ping: func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}})
	}
	return h
}

// Liveness returns 200 if the service is alive.
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Readiness returns 200 if the service is ready to accept traffic.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := map[string]string{"status": "ready"}
	for _, c := range h.checks {
		if err := c.ping(ctx); err != nil {
			writeError(w, http.StatusServiceUnavailable, c.name+" unhealthy", err.Error())
			return
		}
		status[c.name] = "ok"
	}

	writeJSON(w, http.StatusOK, status)
}
