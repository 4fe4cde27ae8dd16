package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/iho/finmodel/internal/domain"
	"github.com/iho/finmodel/internal/usecase"
)

var _ usecase.OutboxRepository = (*OutboxRepository)(nil)

// OutboxRepository keeps outbox events in insertion order.
type OutboxRepository struct {
	mu     sync.RWMutex
	events []*domain.OutboxEvent
}

// NewOutboxRepository creates an empty OutboxRepository.
func NewOutboxRepository() *OutboxRepository {
	return &OutboxRepository{}
}

// Create appends an event on commit.
func (r *OutboxRepository) Create(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error {
	e := *event
	return apply(tx, func() error {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.events = append(r.events, &e)
		return nil
	})
}

// GetUnpublished returns up to limit unpublished events, oldest first.
func (r *OutboxRepository) GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*domain.OutboxEvent
	for _, e := range r.events {
		if e.Published {
			continue
		}
		c := *e
		out = append(out, &c)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// MarkPublished flags an event as published.
func (r *OutboxRepository) MarkPublished(ctx context.Context, id string, publishedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, e := range r.events {
		if e.ID == id {
			e.Published = true
			e.PublishedAt = &publishedAt
			return nil
		}
	}
	return nil
}

// DeletePublished drops published events older than before.
func (r *OutboxRepository) DeletePublished(ctx context.Context, before time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.events = slices.DeleteFunc(r.events, func(e *domain.OutboxEvent) bool {
		return e.Published && e.PublishedAt != nil && e.PublishedAt.Before(before)
	})
	return nil
}

// Events returns a copy of every stored event.
func (r *OutboxRepository) Events() []domain.OutboxEvent {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.OutboxEvent, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, *e)
	}
	return out
}
