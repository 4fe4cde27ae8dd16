package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/iho/finmodel/internal/domain"
	"github.com/iho/finmodel/internal/usecase"
)

var _ usecase.RunLocker = (*RunLocker)(nil)

// RunLocker is a process-local RunLocker.
type RunLocker struct {
	mu   sync.Mutex
	held map[pairKey]struct{}
}

// NewRunLocker creates a new RunLocker.
func NewRunLocker() *RunLocker {
	return &RunLocker{held: make(map[pairKey]struct{})}
}

// Acquire locks the pair or fails fast with domain.ErrConcurrency.
func (l *RunLocker) Acquire(ctx context.Context, projectID string, calcType domain.CalculationType) (usecase.ReleaseFunc, error) {
	key := pairKey{projectID, calcType}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.held[key]; ok {
		return nil, fmt.Errorf("%w: %s/%s", domain.ErrConcurrency, projectID, calcType)
	}
	l.held[key] = struct{}{}

	var once sync.Once
	return func(context.Context) error {
		once.Do(func() {
			l.mu.Lock()
			delete(l.held, key)
			l.mu.Unlock()
		})
		return nil
	}, nil
}
