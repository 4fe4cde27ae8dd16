package usecase

import "time"

const (
	// DefaultTransactionTimeout is the maximum duration for a database transaction
	DefaultTransactionTimeout = 10 * time.Second

	// DefaultHistoryLimit caps history queries that don't ask for a page size
	DefaultHistoryLimit = 100

	// IdempotencyKeyTTL is how long idempotency keys are cached
	IdempotencyKeyTTL = 24 * time.Hour

	// IdempotencyPending marks a key whose first request is still in flight
	IdempotencyPending = "processing"

	// StaleRunReason is stored on runs failed by the reaper
	StaleRunReason = "run abandoned: no completion before stale deadline"
)
