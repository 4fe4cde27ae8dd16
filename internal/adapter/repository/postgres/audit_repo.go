package postgres

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/finmodel/internal/domain"
	"github.com/iho/finmodel/internal/infrastructure/postgres/generated"
	"github.com/iho/finmodel/internal/usecase"
)

var _ usecase.AuditRepository = (*AuditRepository)(nil)

const defaultAuditLimit = 100

// AuditRepository implements audit log persistence
type AuditRepository struct {
	queries *generated.Queries
}

// NewAuditRepository creates a new audit repository
func NewAuditRepository(pool *pgxpool.Pool) *AuditRepository {
	return newAuditRepository(pool)
}

func newAuditRepository(db generated.DBTX) *AuditRepository {
	return &AuditRepository{queries: generated.New(db)}
}

// Create inserts a new audit log entry
func (r *AuditRepository) Create(ctx context.Context, log *domain.AuditLog) error {
	if log.ID == "" {
		log.ID = uuid.New().String()
	}

	beforeState, err := marshalState(log.BeforeState)
	if err != nil {
		return err
	}

	afterState, err := marshalState(log.AfterState)
	if err != nil {
		return err
	}

	return r.queries.CreateAuditLog(ctx, generated.CreateAuditLogParams{
		ID:           log.ID,
		Actor:        log.Actor,
		Action:       log.Action,
		ResourceType: log.ResourceType,
		ResourceID:   log.ResourceID,
		RequestID:    log.RequestID,
		BeforeState:  beforeState,
		AfterState:   afterState,
		Status:       log.Status,
		ErrorMessage: log.ErrorMessage,
		CreatedAt:    timeToPgTimestamptz(log.CreatedAt),
	})
}

// List retrieves audit logs with filtering, newest first
func (r *AuditRepository) List(ctx context.Context, filter domain.AuditFilter) ([]*domain.AuditLog, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultAuditLimit
	}

	params := generated.ListAuditLogsParams{
		Actor:        filter.Actor,
		Action:       filter.Action,
		ResourceType: filter.ResourceType,
		ResourceID:   filter.ResourceID,
		RowLimit:     int32(limit),
		RowOffset:    int32(filter.Offset),
	}
	if filter.StartDate != nil {
		params.StartDate = timeToPgTimestamptz(*filter.StartDate)
	}
	if filter.EndDate != nil {
		params.EndDate = timeToPgTimestamptz(*filter.EndDate)
	}

	rows, err := r.queries.ListAuditLogs(ctx, params)
	if err != nil {
		return nil, err
	}

	logs := make([]*domain.AuditLog, 0, len(rows))
	for _, row := range rows {
		log := &domain.AuditLog{
			ID:           row.ID,
			Actor:        row.Actor,
			Action:       row.Action,
			ResourceType: row.ResourceType,
			ResourceID:   row.ResourceID,
			RequestID:    row.RequestID,
			Status:       row.Status,
			ErrorMessage: row.ErrorMessage,
			CreatedAt:    row.CreatedAt.Time,
		}

		if row.BeforeState != nil {
			_ = json.Unmarshal(row.BeforeState, &log.BeforeState)
		}

		if row.AfterState != nil {
			_ = json.Unmarshal(row.AfterState, &log.AfterState)
		}

		logs = append(logs, log)
	}

	return logs, nil
}

func marshalState(state domain.JSON) ([]byte, error) {
	if state == nil {
		return nil, nil
	}

	return json.Marshal(state)
}
