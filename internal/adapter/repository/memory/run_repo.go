package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/iho/finmodel/internal/domain"
	"github.com/iho/finmodel/internal/usecase"
)

var _ usecase.RunRepository = (*RunRepository)(nil)

type pairKey struct {
	projectID string
	calcType  domain.CalculationType
}

// RunRepository is an append-only run log with an active pointer per
// (project, type).
type RunRepository struct {
	mu     sync.RWMutex
	runs   map[string]domain.CalculationRun
	active map[pairKey]string
}

// NewRunRepository creates an empty RunRepository.
func NewRunRepository() *RunRepository {
	return &RunRepository{
		runs:   make(map[string]domain.CalculationRun),
		active: make(map[pairKey]string),
	}
}

// Create assigns the next version and stores the run on commit. If another
// run took that version first, the commit assigns the next free one and
// updates run.Version to match.
func (r *RunRepository) Create(ctx context.Context, tx usecase.Transaction, run *domain.CalculationRun) error {
	key := pairKey{run.ProjectID, run.Type}

	r.mu.RLock()
	if r.runningLocked(key) {
		r.mu.RUnlock()
		return fmt.Errorf("%w: %s/%s", domain.ErrConcurrency, run.ProjectID, run.Type)
	}
	run.Version = r.maxVersionLocked(key) + 1
	r.mu.RUnlock()

	stored := *run
	stored.Output = nil
	stored.Active = false

	return apply(tx, func() error {
		r.mu.Lock()
		defer r.mu.Unlock()

		if r.runningLocked(key) {
			return fmt.Errorf("%w: %s/%s", domain.ErrConcurrency, stored.ProjectID, stored.Type)
		}
		if stored.Version <= r.maxVersionLocked(key) {
			stored.Version = r.maxVersionLocked(key) + 1
		}
		r.runs[stored.ID] = stored
		run.Version = stored.Version
		return nil
	})
}

// Complete stores the output of a running run.
func (r *RunRepository) Complete(ctx context.Context, tx usecase.Transaction, run *domain.CalculationRun) error {
	return r.finish(tx, run, domain.RunStatusCompleted)
}

// Fail records the error of a running run.
func (r *RunRepository) Fail(ctx context.Context, tx usecase.Transaction, run *domain.CalculationRun) error {
	return r.finish(tx, run, domain.RunStatusFailed)
}

func (r *RunRepository) finish(tx usecase.Transaction, run *domain.CalculationRun, status domain.RunStatus) error {
	id := run.ID
	output := run.Output.Clone()
	errMsg := run.ErrorMessage
	completedAt := run.CompletedAt
	execTime := run.ExecutionTime

	return apply(tx, func() error {
		r.mu.Lock()
		defer r.mu.Unlock()

		stored, ok := r.runs[id]
		if !ok {
			return domain.ErrRunNotFound
		}
		if stored.Status.IsFinal() {
			return fmt.Errorf("%w: %s is %s", domain.ErrRunFinalized, id, stored.Status)
		}

		stored.Status = status
		stored.ErrorMessage = errMsg
		stored.CompletedAt = completedAt
		stored.ExecutionTime = execTime
		if status == domain.RunStatusCompleted {
			stored.Output = output
		}
		r.runs[id] = stored
		return nil
	})
}

// GetByID returns a run with its output.
func (r *RunRepository) GetByID(ctx context.Context, id string) (*domain.CalculationRun, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored, ok := r.runs[id]
	if !ok {
		return nil, domain.ErrRunNotFound
	}
	return r.viewLocked(stored), nil
}

// List returns run metadata newest version first. Outputs are not included.
func (r *RunRepository) List(ctx context.Context, filter domain.RunFilter) ([]*domain.CalculationRun, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var runs []*domain.CalculationRun
	for _, stored := range r.runs {
		if filter.ProjectID != "" && stored.ProjectID != filter.ProjectID {
			continue
		}
		if filter.Type != "" && stored.Type != filter.Type {
			continue
		}
		if filter.Status != "" && stored.Status != filter.Status {
			continue
		}
		run := r.viewLocked(stored)
		run.Output = nil
		runs = append(runs, run)
	}

	slices.SortFunc(runs, func(a, b *domain.CalculationRun) int {
		if a.Version != b.Version {
			return int(b.Version - a.Version)
		}
		return b.CreatedAt.Compare(a.CreatedAt)
	})

	if filter.Offset > 0 {
		if filter.Offset >= len(runs) {
			return nil, nil
		}
		runs = runs[filter.Offset:]
	}
	if filter.Limit > 0 && len(runs) > filter.Limit {
		runs = runs[:filter.Limit]
	}
	return runs, nil
}

// GetActive returns the active run of a project and type.
func (r *RunRepository) GetActive(ctx context.Context, projectID string, calcType domain.CalculationType) (*domain.CalculationRun, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.active[pairKey{projectID, calcType}]
	if !ok {
		return nil, domain.ErrRunNotFound
	}
	return r.viewLocked(r.runs[id]), nil
}

// SetActive moves the active pointer to a completed run.
func (r *RunRepository) SetActive(ctx context.Context, tx usecase.Transaction, run *domain.CalculationRun) error {
	id := run.ID
	return apply(tx, func() error {
		r.mu.Lock()
		defer r.mu.Unlock()

		stored, ok := r.runs[id]
		if !ok {
			return domain.ErrRunNotFound
		}
		if stored.Status != domain.RunStatusCompleted {
			return fmt.Errorf("%w: run %s is %s", domain.ErrRunNotRestorable, id, stored.Status)
		}
		r.active[pairKey{stored.ProjectID, stored.Type}] = id
		return nil
	})
}

// MarkStaleFailed fails running runs created before the cutoff.
func (r *RunRepository) MarkStaleFailed(ctx context.Context, before time.Time, reason string) ([]*domain.CalculationRun, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	var reaped []*domain.CalculationRun
	for id, stored := range r.runs {
		if stored.Status != domain.RunStatusRunning || !stored.CreatedAt.Before(before) {
			continue
		}
		stored.Status = domain.RunStatusFailed
		stored.ErrorMessage = reason
		stored.CompletedAt = &now
		r.runs[id] = stored
		reaped = append(reaped, r.viewLocked(stored))
	}
	return reaped, nil
}

func (r *RunRepository) viewLocked(stored domain.CalculationRun) *domain.CalculationRun {
	run := stored
	run.Output = stored.Output.Clone()
	run.Active = r.active[pairKey{stored.ProjectID, stored.Type}] == stored.ID
	return &run
}

func (r *RunRepository) runningLocked(key pairKey) bool {
	for _, stored := range r.runs {
		if stored.ProjectID == key.projectID && stored.Type == key.calcType && stored.Status == domain.RunStatusRunning {
			return true
		}
	}
	return false
}

func (r *RunRepository) maxVersionLocked(key pairKey) int64 {
	var v int64
	for _, stored := range r.runs {
		if stored.ProjectID == key.projectID && stored.Type == key.calcType && stored.Version > v {
			v = stored.Version
		}
	}
	return v
}
