package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/iho/finmodel/internal/adapter/http/handler"
	apimiddleware "github.com/iho/finmodel/internal/adapter/http/middleware"
	"github.com/iho/finmodel/internal/domain"
	"github.com/iho/finmodel/internal/usecase"
)

func TestNewRouter_HealthEndpointAvailable(t *testing.T) {
	router := NewRouter(newRouterConfig())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected /health to return 200, got %d", rec.Code)
	}
	if rec.Header().Get(apimiddleware.RequestIDHeader) == "" {
		t.Fatalf("expected a request ID on the response")
	}
}

func TestNewRouter_RateLimiterBlocksExcessRequests(t *testing.T) {
	rl := apimiddleware.NewRateLimiter(1, 1)
	router := NewRouter(newRouterConfig(func(cfg *RouterConfig) {
		cfg.RateLimiter = rl
	}))

	req1 := httptest.NewRequest(http.MethodGet, "/health", nil)
	req1.RemoteAddr = "1.2.3.4:1234"
	rec1 := httptest.NewRecorder()
	router.ServeHTTP(rec1, req1)
	if rec1.Code != http.StatusOK {
		t.Fatalf("expected first request to succeed, got %d", rec1.Code)
	}

	req2 := httptest.NewRequest(http.MethodGet, "/health", nil)
	req2.RemoteAddr = "1.2.3.4:1234"
	rec2 := httptest.NewRecorder()
	router.ServeHTTP(rec2, req2)
	if rec2.Code != http.StatusTooManyRequests {
		t.Fatalf("expected second request to be throttled, got %d", rec2.Code)
	}
}

func TestNewRouter_IdempotencyMiddlewareInvokesStore(t *testing.T) {
	store := &stubIdempotencyStore{}
	router := NewRouter(newRouterConfig(func(cfg *RouterConfig) {
		cfg.IdempotencyStore = store
	}))

	body := `{"change_reason":"refinanced"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/projects/p1/calculations/amortization", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(apimiddleware.IdempotencyKeyHeader, "key-123")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if store.checkedKey != "POST:/api/v1/projects/p1/calculations/amortization:key-123" {
		t.Fatalf("expected scoped idempotency key, got %q", store.checkedKey)
	}
	if !store.updated {
		t.Fatalf("expected the response to be stored")
	}
}

func TestNewRouter_CompareIsNotARunID(t *testing.T) {
	runs := &stubRunService{}
	router := NewRouter(newRouterConfig(func(cfg *RouterConfig) {
		cfg.RunHandler = handler.NewRunHandler(runs)
	}))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/runs/compare?a=r1&b=r2", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if runs.compared != "r1>r2" || runs.fetched != "" {
		t.Fatalf("expected compare route, got compared=%q fetched=%q", runs.compared, runs.fetched)
	}
}

func TestNewRouter_RegistersKeyRoutes(t *testing.T) {
	router := NewRouter(newRouterConfig())

	chiRoutes, ok := router.(chi.Router)
	if !ok {
		t.Fatal("router does not implement chi.Routes")
	}

	seen := map[string]bool{}
	if err := chi.Walk(chiRoutes, func(method string, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		seen[method+" "+route] = true
		return nil
	}); err != nil {
		t.Fatalf("walk failed: %v", err)
	}

	expected := []string{
		"GET /health",
		"GET /ready",
		"GET /metrics",
		"GET /api/v1/projects/{projectID}/validate/{type}",
		"POST /api/v1/projects/{projectID}/calculations/{type}",
		"GET /api/v1/projects/{projectID}/calculations/{type}",
		"GET /api/v1/projects/{projectID}/calculations/{type}/active",
		"GET /api/v1/runs/compare",
		"GET /api/v1/runs/{id}",
		"POST /api/v1/runs/{id}/restore",
		"GET /api/v1/runs/{id}/export",
	}

	for _, route := range expected {
		if !seen[route] {
			t.Fatalf("expected route %s to be registered", route)
		}
	}
}

func newRouterConfig(opts ...func(*RouterConfig)) RouterConfig {
	cfg := RouterConfig{
		HealthHandler:      &handler.HealthHandler{},
		CalculationHandler: handler.NewCalculationHandler(stubCalculationService{}, stubValidationService{}),
		RunHandler:         handler.NewRunHandler(&stubRunService{}),
		Logger:             zerolog.Nop(),
	}

	for _, opt := range opts {
		opt(&cfg)
	}

	return cfg
}

type stubCalculationService struct{}

func (stubCalculationService) Calculate(ctx context.Context, input usecase.CalculateInput) (*domain.CalculationRun, error) {
	return &domain.CalculationRun{ID: "run-1", ProjectID: input.ProjectID, Type: input.Type, Status: domain.RunStatusCompleted, Version: 1}, nil
}

func (stubCalculationService) Submit(ctx context.Context, input usecase.CalculateInput) (*domain.CalculationRun, error) {
	return &domain.CalculationRun{ID: "run-1", ProjectID: input.ProjectID, Type: input.Type, Status: domain.RunStatusRunning, Version: 1}, nil
}

func (stubCalculationService) History(ctx context.Context, projectID string, calcType domain.CalculationType, limit, offset int) ([]*domain.CalculationRun, error) {
	return []*domain.CalculationRun{}, nil
}

func (stubCalculationService) GetSchedule(ctx context.Context, projectID string, calcType domain.CalculationType) (*domain.CalculationRun, error) {
	return nil, domain.ErrRunNotFound
}

type stubValidationService struct{}

func (stubValidationService) Validate(ctx context.Context, projectID string, calcType domain.CalculationType) (domain.ValidationResult, error) {
	return domain.ValidationResult{IsValid: true}, nil
}

type stubRunService struct {
	fetched  string
	compared string
}

func (s *stubRunService) GetRun(ctx context.Context, runID string) (*domain.CalculationRun, error) {
	s.fetched = runID
	return &domain.CalculationRun{ID: runID}, nil
}

func (s *stubRunService) Restore(ctx context.Context, runID string) (*domain.RunOutput, error) {
	return &domain.RunOutput{}, nil
}

func (s *stubRunService) Compare(ctx context.Context, baseRunID, targetRunID string) (*usecase.RunComparison, error) {
	s.compared = baseRunID + ">" + targetRunID
	return &usecase.RunComparison{
		Base:   &domain.CalculationRun{ID: baseRunID, Version: 1},
		Target: &domain.CalculationRun{ID: targetRunID, Version: 2},
		Type:   domain.CalculationKPI,
	}, nil
}

type stubIdempotencyStore struct {
	checkedKey string
	updated    bool
}

func (s *stubIdempotencyStore) CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
	s.checkedKey = key
	return false, nil, nil
}

func (s *stubIdempotencyStore) Release(ctx context.Context, key string) error {
	return nil
}

func (s *stubIdempotencyStore) Update(ctx context.Context, key string, response []byte, ttl time.Duration) error {
	s.updated = true
	return nil
}
