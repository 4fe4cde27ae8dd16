package memory

import (
	"context"
	"sync"

	"github.com/iho/finmodel/internal/domain"
	"github.com/iho/finmodel/internal/usecase"
)

var _ usecase.AuditRepository = (*AuditRepository)(nil)

// AuditRepository keeps audit logs in memory.
type AuditRepository struct {
	mu   sync.RWMutex
	logs []domain.AuditLog
}

// NewAuditRepository creates an empty AuditRepository.
func NewAuditRepository() *AuditRepository {
	return &AuditRepository{}
}

// Create stores an audit log entry.
func (r *AuditRepository) Create(ctx context.Context, log *domain.AuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logs = append(r.logs, *log)
	return nil
}

// List returns matching logs, newest first.
func (r *AuditRepository) List(ctx context.Context, filter domain.AuditFilter) ([]*domain.AuditLog, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*domain.AuditLog
	for i := len(r.logs) - 1; i >= 0; i-- {
		l := r.logs[i]
		if filter.Actor != "" && l.Actor != filter.Actor {
			continue
		}
		if filter.Action != "" && l.Action != filter.Action {
			continue
		}
		if filter.ResourceType != "" && l.ResourceType != filter.ResourceType {
			continue
		}
		if filter.ResourceID != "" && l.ResourceID != filter.ResourceID {
			continue
		}
		if filter.StartDate != nil && l.CreatedAt.Before(*filter.StartDate) {
			continue
		}
		if filter.EndDate != nil && l.CreatedAt.After(*filter.EndDate) {
			continue
		}
		out = append(out, &l)
	}

	if filter.Offset > 0 {
		if filter.Offset >= len(out) {
			return nil, nil
		}
		out = out[filter.Offset:]
	}
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}
