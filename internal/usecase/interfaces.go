package usecase

import (
	"context"
	"time"

	"github.com/iho/finmodel/internal/domain"
)

// InputRepository reads the data-entry side of a project. It is read-only.
type InputRepository interface {
	GetProject(ctx context.Context, projectID string) (*domain.Project, error)
	ListFinancialInputs(ctx context.Context, projectID string) ([]domain.FinancialInputs, error)
	ListDebtInstruments(ctx context.Context, projectID string) ([]domain.DebtInstrument, error)
	ListDepreciationVintages(ctx context.Context, projectID string) ([]domain.DepreciationVintage, error)
}

// RunRepository defines data access for calculation runs.
type RunRepository interface {
	// Create inserts a running run and assigns run.Version as the next
	// version for its project and type. It returns domain.ErrConcurrency if
	// another run for the same pair is still running.
	Create(ctx context.Context, tx Transaction, run *domain.CalculationRun) error
	Complete(ctx context.Context, tx Transaction, run *domain.CalculationRun) error
	Fail(ctx context.Context, tx Transaction, run *domain.CalculationRun) error
	GetByID(ctx context.Context, id string) (*domain.CalculationRun, error)
	List(ctx context.Context, filter domain.RunFilter) ([]*domain.CalculationRun, error)
	GetActive(ctx context.Context, projectID string, calcType domain.CalculationType) (*domain.CalculationRun, error)
	SetActive(ctx context.Context, tx Transaction, run *domain.CalculationRun) error
	// MarkStaleFailed fails every run still running that was created before
	// the cutoff and returns them.
	MarkStaleFailed(ctx context.Context, before time.Time, reason string) ([]*domain.CalculationRun, error)
}

// OutboxRepository defines data access for outbox events.
type OutboxRepository interface {
	Create(ctx context.Context, tx Transaction, event *domain.OutboxEvent) error
	GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	MarkPublished(ctx context.Context, id string, publishedAt time.Time) error
	DeletePublished(ctx context.Context, before time.Time) error
}

// AuditRepository defines data access for audit logs.
type AuditRepository interface {
	Create(ctx context.Context, log *domain.AuditLog) error
	List(ctx context.Context, filter domain.AuditFilter) ([]*domain.AuditLog, error)
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// Retrier retries an operation on transient storage errors.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// ReleaseFunc releases a lock obtained from RunLocker.
type ReleaseFunc func(ctx context.Context) error

// RunLocker guards the one-running-run-per-(project, type) rule.
type RunLocker interface {
	// Acquire returns domain.ErrConcurrency if the pair is already locked.
	Acquire(ctx context.Context, projectID string, calcType domain.CalculationType) (ReleaseFunc, error)
}

// OutputCache caches the outputs of completed runs, which never change.
type OutputCache interface {
	GetOutput(ctx context.Context, runID string) (*domain.RunOutput, bool, error)
	SetOutput(ctx context.Context, runID string, output *domain.RunOutput) error
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Release drops a key so a failed request can be retried.
	Release(ctx context.Context, key string) error
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
}
