package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/finmodel/internal/domain"
	"github.com/iho/finmodel/internal/infrastructure/postgres/generated"
	"github.com/iho/finmodel/internal/usecase"
)

var _ usecase.RunRepository = (*RunRepository)(nil)

// RunRepository implements usecase.RunRepository.
type RunRepository struct {
	db      generated.DBTX
	queries *generated.Queries
}

// NewRunRepository creates a new RunRepository.
func NewRunRepository(pool *pgxpool.Pool) *RunRepository {
	return newRunRepository(pool)
}

func newRunRepository(db generated.DBTX) *RunRepository {
	return &RunRepository{
		db:      db,
		queries: generated.New(db),
	}
}

// Create inserts a running run. The version is assigned by the database.
func (r *RunRepository) Create(ctx context.Context, tx usecase.Transaction, run *domain.CalculationRun) error {
	version, err := queriesFor(r.db, tx).CreateRun(ctx, generated.CreateRunParams{
		ID:            run.ID,
		ProjectID:     run.ProjectID,
		CalcType:      string(run.Type),
		Status:        string(run.Status),
		InputHash:     run.InputHash,
		InputSnapshot: run.InputSnapshot,
		ChangeReason:  run.ChangeReason,
		CreatedAt:     timeToPgTimestamptz(run.CreatedAt),
	})
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s/%s", domain.ErrConcurrency, run.ProjectID, run.Type)
		}

		return err
	}

	run.Version = version

	return nil
}

// Complete stores the output of a running run.
func (r *RunRepository) Complete(ctx context.Context, tx usecase.Transaction, run *domain.CalculationRun) error {
	output, err := json.Marshal(run.Output)
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}

	queries := queriesFor(r.db, tx)
	n, err := queries.CompleteRun(ctx, generated.CompleteRunParams{
		ID:          run.ID,
		Output:      output,
		CompletedAt: completedAt(run),
		ExecutionMs: run.ExecutionTime.Milliseconds(),
	})
	if err != nil {
		return err
	}

	return r.checkFinished(ctx, queries, run.ID, n)
}

// Fail records the error of a running run.
func (r *RunRepository) Fail(ctx context.Context, tx usecase.Transaction, run *domain.CalculationRun) error {
	queries := queriesFor(r.db, tx)
	n, err := queries.FailRun(ctx, generated.FailRunParams{
		ID:           run.ID,
		ErrorMessage: run.ErrorMessage,
		CompletedAt:  completedAt(run),
		ExecutionMs:  run.ExecutionTime.Milliseconds(),
	})
	if err != nil {
		return err
	}

	return r.checkFinished(ctx, queries, run.ID, n)
}

// checkFinished explains why a status transition touched no row.
func (r *RunRepository) checkFinished(ctx context.Context, queries *generated.Queries, id string, affected int64) error {
	if affected > 0 {
		return nil
	}

	status, err := queries.GetRunStatus(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrRunNotFound
		}

		return err
	}

	return fmt.Errorf("%w: %s is %s", domain.ErrRunFinalized, id, status)
}

// GetByID retrieves a run with its output.
func (r *RunRepository) GetByID(ctx context.Context, id string) (*domain.CalculationRun, error) {
	row, err := r.queries.GetRunByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRunNotFound
		}

		return nil, err
	}

	run := rowToRun(generated.CalculationRun{
		ID:            row.ID,
		ProjectID:     row.ProjectID,
		CalcType:      row.CalcType,
		Status:        row.Status,
		Version:       row.Version,
		InputHash:     row.InputHash,
		InputSnapshot: row.InputSnapshot,
		Output:        row.Output,
		ChangeReason:  row.ChangeReason,
		ErrorMessage:  row.ErrorMessage,
		ExecutionMs:   row.ExecutionMs,
		CreatedAt:     row.CreatedAt,
		CompletedAt:   row.CompletedAt,
	})
	run.Active = row.Active

	if err := decodeOutput(row.Output, run); err != nil {
		return nil, err
	}

	return run, nil
}

// List retrieves run metadata, newest version first.
func (r *RunRepository) List(ctx context.Context, filter domain.RunFilter) ([]*domain.CalculationRun, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = usecase.DefaultHistoryLimit
	}

	rows, err := r.queries.ListRuns(ctx, generated.ListRunsParams{
		ProjectID: filter.ProjectID,
		CalcType:  string(filter.Type),
		Status:    string(filter.Status),
		RowLimit:  int32(limit),
		RowOffset: int32(filter.Offset),
	})
	if err != nil {
		return nil, err
	}

	runs := make([]*domain.CalculationRun, 0, len(rows))
	for _, row := range rows {
		run := rowToRun(generated.CalculationRun{
			ID:           row.ID,
			ProjectID:    row.ProjectID,
			CalcType:     row.CalcType,
			Status:       row.Status,
			Version:      row.Version,
			InputHash:    row.InputHash,
			ChangeReason: row.ChangeReason,
			ErrorMessage: row.ErrorMessage,
			ExecutionMs:  row.ExecutionMs,
			CreatedAt:    row.CreatedAt,
			CompletedAt:  row.CompletedAt,
		})
		run.Active = row.Active
		runs = append(runs, run)
	}

	return runs, nil
}

// GetActive retrieves the active run of a project and type.
func (r *RunRepository) GetActive(ctx context.Context, projectID string, calcType domain.CalculationType) (*domain.CalculationRun, error) {
	row, err := r.queries.GetActiveRun(ctx, generated.GetActiveRunParams{
		ProjectID: projectID,
		CalcType:  string(calcType),
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRunNotFound
		}

		return nil, err
	}

	run := rowToRun(row)
	run.Active = true

	if err := decodeOutput(row.Output, run); err != nil {
		return nil, err
	}

	return run, nil
}

// SetActive points the run's (project, type) pair at a completed run.
func (r *RunRepository) SetActive(ctx context.Context, tx usecase.Transaction, run *domain.CalculationRun) error {
	queries := queriesFor(r.db, tx)
	n, err := queries.SetActiveRun(ctx, generated.SetActiveRunParams{
		ID:        run.ID,
		UpdatedAt: timeToPgTimestamptz(time.Now().UTC()),
	})
	if err != nil {
		return err
	}

	if n > 0 {
		return nil
	}

	status, err := queries.GetRunStatus(ctx, run.ID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrRunNotFound
		}

		return err
	}

	return fmt.Errorf("%w: run %s is %s", domain.ErrRunNotRestorable, run.ID, status)
}

// MarkStaleFailed fails running runs created before the cutoff.
func (r *RunRepository) MarkStaleFailed(ctx context.Context, before time.Time, reason string) ([]*domain.CalculationRun, error) {
	rows, err := r.queries.MarkStaleRunsFailed(ctx, generated.MarkStaleRunsFailedParams{
		CreatedAt:    timeToPgTimestamptz(before),
		ErrorMessage: reason,
		CompletedAt:  timeToPgTimestamptz(time.Now().UTC()),
	})
	if err != nil {
		return nil, err
	}

	runs := make([]*domain.CalculationRun, 0, len(rows))
	for _, row := range rows {
		runs = append(runs, rowToRun(generated.CalculationRun{
			ID:           row.ID,
			ProjectID:    row.ProjectID,
			CalcType:     row.CalcType,
			Status:       row.Status,
			Version:      row.Version,
			InputHash:    row.InputHash,
			ChangeReason: row.ChangeReason,
			ErrorMessage: row.ErrorMessage,
			ExecutionMs:  row.ExecutionMs,
			CreatedAt:    row.CreatedAt,
			CompletedAt:  row.CompletedAt,
		}))
	}

	return runs, nil
}

func completedAt(run *domain.CalculationRun) pgtype.Timestamptz {
	if run.CompletedAt == nil {
		return timeToPgTimestamptz(time.Now().UTC())
	}

	return timeToPgTimestamptz(*run.CompletedAt)
}

func rowToRun(row generated.CalculationRun) *domain.CalculationRun {
	return &domain.CalculationRun{
		ID:            row.ID,
		ProjectID:     row.ProjectID,
		Type:          domain.CalculationType(row.CalcType),
		Status:        domain.RunStatus(row.Status),
		Version:       row.Version,
		InputHash:     row.InputHash,
		InputSnapshot: row.InputSnapshot,
		ChangeReason:  row.ChangeReason,
		ErrorMessage:  row.ErrorMessage,
		CreatedAt:     row.CreatedAt.Time,
		CompletedAt:   pgTimestamptzToPtr(row.CompletedAt),
		ExecutionTime: time.Duration(row.ExecutionMs) * time.Millisecond,
	}
}

func decodeOutput(data []byte, run *domain.CalculationRun) error {
	if len(data) == 0 || string(data) == "null" {
		return nil
	}

	var output domain.RunOutput
	if err := json.Unmarshal(data, &output); err != nil {
		return fmt.Errorf("decode output of run %s: %w", run.ID, err)
	}
	run.Output = &output

	return nil
}
