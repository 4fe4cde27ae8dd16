// Package memory holds in-process implementations of the use-case ports.
// They back the offline CLI and the use-case tests.
package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/iho/finmodel/internal/usecase"
)

var errTxDone = errors.New("transaction already finished")

// TxManager implements usecase.TransactionManager.
type TxManager struct{}

// NewTxManager creates a new TxManager.
func NewTxManager() *TxManager {
	return &TxManager{}
}

// Begin starts a new transaction.
func (m *TxManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &Tx{}, nil
}

// Tx buffers writes and applies them in order on Commit.
type Tx struct {
	mu   sync.Mutex
	ops  []func() error
	done bool
}

// Commit applies the buffered writes, stopping at the first failing one.
func (t *Tx) Commit(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.done {
		return errTxDone
	}
	t.done = true

	for _, op := range t.ops {
		if err := op(); err != nil {
			return err
		}
	}
	t.ops = nil
	return nil
}

// Rollback discards the buffered writes. Rolling back a finished
// transaction is a no-op.
func (t *Tx) Rollback(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.done = true
	t.ops = nil
	return nil
}

func (t *Tx) add(op func() error) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.done {
		return errTxDone
	}
	t.ops = append(t.ops, op)
	return nil
}

// apply runs op inside tx when tx is a memory transaction, immediately otherwise.
func apply(tx usecase.Transaction, op func() error) error {
	if mt, ok := tx.(*Tx); ok && mt != nil {
		return mt.add(op)
	}
	return op()
}
