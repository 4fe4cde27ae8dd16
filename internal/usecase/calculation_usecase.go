package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/finmodel/internal/domain"
	"github.com/iho/finmodel/internal/engine"
	"github.com/iho/finmodel/internal/infrastructure/metrics"
)

// CalculationUseCase manages the lifecycle of calculation runs: it gates,
// serializes, executes and versions them, and serves their history.
type CalculationUseCase struct {
	validator  *ValidationUseCase
	txManager  TransactionManager
	runRepo    RunRepository
	outboxRepo OutboxRepository
	auditRepo  AuditRepository
	locker     RunLocker
	cache      OutputCache
	retrier    Retrier
	idGen      IDGenerator
	metrics    *metrics.Metrics
	logger     zerolog.Logger

	defaultHorizon int
	now            func() time.Time
	background     sync.WaitGroup
}

// CalculationConfig wires a CalculationUseCase. AuditRepo, Cache, Retrier
// and Metrics are optional.
type CalculationConfig struct {
	Validator      *ValidationUseCase
	TxManager      TransactionManager
	RunRepo        RunRepository
	OutboxRepo     OutboxRepository
	AuditRepo      AuditRepository
	Locker         RunLocker
	Cache          OutputCache
	Retrier        Retrier
	IDGen          IDGenerator
	Metrics        *metrics.Metrics
	Logger         zerolog.Logger
	DefaultHorizon int // depreciation horizon when neither request nor project sets one
}

// NewCalculationUseCase creates a new CalculationUseCase.
func NewCalculationUseCase(cfg CalculationConfig) *CalculationUseCase {
	return &CalculationUseCase{
		validator:      cfg.Validator,
		txManager:      cfg.TxManager,
		runRepo:        cfg.RunRepo,
		outboxRepo:     cfg.OutboxRepo,
		auditRepo:      cfg.AuditRepo,
		locker:         cfg.Locker,
		cache:          cfg.Cache,
		retrier:        cfg.Retrier,
		idGen:          cfg.IDGen,
		metrics:        cfg.Metrics,
		logger:         cfg.Logger.With().Str("component", "calculation").Logger(),
		defaultHorizon: cfg.DefaultHorizon,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

// CalculateInput represents a request to run a calculation.
type CalculateInput struct {
	ProjectID     string
	Type          domain.CalculationType
	ChangeReason  string
	HorizonMonths int // depreciation only; 0 falls back to the project horizon
}

// Calculate validates, runs and persists a calculation synchronously.
//
// Invalid inputs and a concurrent run for the same project and type are
// rejected without creating a run. A failure inside the engine is not an
// error of Calculate: the returned run is failed and carries the message,
// and the previously active run stays active.
//
// Once the run row exists it always reaches a final state, even if ctx is
// cancelled before the outcome is persisted.
func (uc *CalculationUseCase) Calculate(ctx context.Context, input CalculateInput) (*domain.CalculationRun, error) {
	run, snapshot, release, err := uc.begin(ctx, input)
	if err != nil {
		return nil, err
	}
	defer uc.release(release, run)

	return uc.execute(context.WithoutCancel(ctx), run, snapshot)
}

// Submit is Calculate off the request path. The run is created before Submit
// returns; the engine then executes in the background and callers poll
// GetRun or listen for the completion event.
func (uc *CalculationUseCase) Submit(ctx context.Context, input CalculateInput) (*domain.CalculationRun, error) {
	run, snapshot, release, err := uc.begin(ctx, input)
	if err != nil {
		return nil, err
	}

	queued := *run
	bg := context.WithoutCancel(ctx)

	uc.background.Add(1)
	go func() {
		defer uc.background.Done()
		defer uc.release(release, run)

		if _, err := uc.execute(bg, run, snapshot); err != nil {
			uc.logger.Error().Err(err).Str("run_id", run.ID).Msg("background run could not be persisted")
		}
	}()

	return &queued, nil
}

// Wait blocks until every submitted run has finished.
func (uc *CalculationUseCase) Wait() {
	uc.background.Wait()
}

// History lists the runs of a project and type, newest version first.
// Failed runs are included with their error message.
func (uc *CalculationUseCase) History(ctx context.Context, projectID string, calcType domain.CalculationType, limit, offset int) ([]*domain.CalculationRun, error) {
	if _, err := domain.ParseCalculationType(string(calcType)); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	limit, offset, _ = domain.ValidatePagination(limit, offset)

	return uc.runRepo.List(ctx, domain.RunFilter{
		ProjectID: projectID,
		Type:      calcType,
		Limit:     limit,
		Offset:    offset,
	})
}

// GetRun returns a run with its stored output.
func (uc *CalculationUseCase) GetRun(ctx context.Context, runID string) (*domain.CalculationRun, error) {
	return uc.runRepo.GetByID(ctx, runID)
}

// GetSchedule returns the active run of a project and type.
func (uc *CalculationUseCase) GetSchedule(ctx context.Context, projectID string, calcType domain.CalculationType) (*domain.CalculationRun, error) {
	if _, err := domain.ParseCalculationType(string(calcType)); err != nil {
		return nil, err
	}
	return uc.runRepo.GetActive(ctx, projectID, calcType)
}

// Restore makes a completed run the active one and returns its output exactly
// as it was stored. Nothing is recomputed, so later input changes have no
// effect on the result.
func (uc *CalculationUseCase) Restore(ctx context.Context, runID string) (*domain.RunOutput, error) {
	run, err := uc.runRepo.GetByID(ctx, runID)
	if err != nil {
		return nil, err
	}

	if run.Status != domain.RunStatusCompleted {
		err := fmt.Errorf("%w: run %s is %s", domain.ErrRunNotRestorable, run.ID, run.Status)
		uc.audit(ctx, domain.AuditActionRunRestore, run.ID, nil, nil, err)
		return nil, err
	}

	output := uc.cachedOutput(ctx, run)

	previous, err := uc.runRepo.GetActive(ctx, run.ProjectID, run.Type)
	if err != nil && !errors.Is(err, domain.ErrRunNotFound) {
		return nil, err
	}

	if previous == nil || previous.ID != run.ID {
		err = uc.inTx(ctx, func(txCtx context.Context, tx Transaction) error {
			if err := uc.runRepo.SetActive(txCtx, tx, run); err != nil {
				return err
			}
			return uc.outboxRepo.Create(txCtx, tx, domain.NewRunEvent(uc.idGen.Generate(), domain.EventTypeRunRestored, run, uc.now()))
		})
		if err != nil {
			uc.audit(ctx, domain.AuditActionRunRestore, run.ID, runState(previous), runState(run), err)
			return nil, err
		}
	}
	run.Active = true

	uc.audit(ctx, domain.AuditActionRunRestore, run.ID, runState(previous), runState(run), nil)
	if uc.metrics != nil {
		uc.metrics.RunsRestored.WithLabelValues(string(run.Type)).Inc()
	}

	uc.logger.Info().
		Str("run_id", run.ID).
		Str("project_id", run.ProjectID).
		Str("calc_type", string(run.Type)).
		Int64("version", run.Version).
		Msg("run restored")

	return output, nil
}

// Compare diffs the outputs of two runs of the same calculation type.
func (uc *CalculationUseCase) Compare(ctx context.Context, baseRunID, targetRunID string) (*RunComparison, error) {
	base, err := uc.runRepo.GetByID(ctx, baseRunID)
	if err != nil {
		return nil, err
	}
	target, err := uc.runRepo.GetByID(ctx, targetRunID)
	if err != nil {
		return nil, err
	}

	if base.Type != target.Type {
		return nil, fmt.Errorf("%w: %s is %s, %s is %s",
			domain.ErrRunTypeMismatch, base.ID, base.Type, target.ID, target.Type)
	}

	diffs, unchanged, err := DiffOutputs(uc.cachedOutput(ctx, base), uc.cachedOutput(ctx, target))
	if err != nil {
		return nil, err
	}

	uc.audit(ctx, domain.AuditActionRunCompare, base.ID, runState(base), runState(target), nil)

	return &RunComparison{
		Base:        base,
		Target:      target,
		Type:        base.Type,
		Differences: diffs,
		Unchanged:   unchanged,
	}, nil
}

// ReapStaleRuns fails runs that have been running longer than staleAfter.
// A run that never finishes would otherwise block its project and type.
func (uc *CalculationUseCase) ReapStaleRuns(ctx context.Context, staleAfter time.Duration) (int, error) {
	reaped, err := uc.runRepo.MarkStaleFailed(ctx, uc.now().Add(-staleAfter), StaleRunReason)
	if err != nil {
		return 0, err
	}

	for _, run := range reaped {
		uc.logger.Warn().
			Str("run_id", run.ID).
			Str("project_id", run.ProjectID).
			Str("calc_type", string(run.Type)).
			Int64("version", run.Version).
			Msg("stale run marked failed")
		if uc.metrics != nil {
			uc.metrics.RunsFailed.WithLabelValues(string(run.Type)).Inc()
			uc.metrics.StaleRunsReaped.Inc()
		}
	}

	return len(reaped), nil
}

// begin runs the gate and creates the running run. On success the caller owns
// the returned lock.
func (uc *CalculationUseCase) begin(ctx context.Context, input CalculateInput) (*domain.CalculationRun, domain.InputSnapshot, ReleaseFunc, error) {
	var snapshot domain.InputSnapshot

	if err := domain.ValidateChangeReason(input.ChangeReason); err != nil {
		uc.reject(input.Type, "validation")
		return nil, snapshot, nil, err
	}
	if err := domain.ValidateHorizon(input.HorizonMonths); err != nil {
		uc.reject(input.Type, "validation")
		return nil, snapshot, nil, err
	}

	snapshot, result, err := uc.validator.load(ctx, input.ProjectID, input.Type, input.HorizonMonths)
	if err != nil {
		return nil, snapshot, nil, err
	}
	if !result.IsValid {
		uc.reject(input.Type, "validation")
		return nil, snapshot, nil, result.Err()
	}
	if input.Type == domain.CalculationDepreciation && snapshot.HorizonMonths == 0 {
		snapshot.HorizonMonths = uc.defaultHorizon
	}

	release, err := uc.locker.Acquire(ctx, input.ProjectID, input.Type)
	if err != nil {
		if errors.Is(err, domain.ErrConcurrency) {
			uc.reject(input.Type, "concurrency")
		}
		return nil, snapshot, nil, err
	}

	raw, hash, err := snapshot.Encode()
	if err != nil {
		uc.release(release, nil)
		return nil, snapshot, nil, fmt.Errorf("encode input snapshot: %w", err)
	}

	run := &domain.CalculationRun{
		ID:            uc.idGen.Generate(),
		ProjectID:     input.ProjectID,
		Type:          input.Type,
		Status:        domain.RunStatusRunning,
		InputHash:     hash,
		InputSnapshot: raw,
		ChangeReason:  input.ChangeReason,
		CreatedAt:     uc.now(),
	}

	err = uc.inTx(ctx, func(txCtx context.Context, tx Transaction) error {
		if err := uc.runRepo.Create(txCtx, tx, run); err != nil {
			return err
		}
		return uc.outboxRepo.Create(txCtx, tx, domain.NewRunEvent(uc.idGen.Generate(), domain.EventTypeRunStarted, run, run.CreatedAt))
	})
	if err != nil {
		uc.release(release, nil)
		if errors.Is(err, domain.ErrConcurrency) {
			uc.reject(input.Type, "concurrency")
		}
		return nil, snapshot, nil, err
	}

	if uc.metrics != nil {
		uc.metrics.RunsStarted.WithLabelValues(string(run.Type)).Inc()
	}
	uc.logger.Info().
		Str("run_id", run.ID).
		Str("project_id", run.ProjectID).
		Str("calc_type", string(run.Type)).
		Int64("version", run.Version).
		Str("input_hash", run.InputHash).
		Msg("run started")

	return run, snapshot, release, nil
}

// execute computes and records the outcome of a running run.
func (uc *CalculationUseCase) execute(ctx context.Context, run *domain.CalculationRun, snapshot domain.InputSnapshot) (*domain.CalculationRun, error) {
	start := time.Now()
	output, computeErr := compute(ctx, run.Type, snapshot)
	run.ExecutionTime = time.Since(start)

	completedAt := uc.now()
	run.CompletedAt = &completedAt

	if computeErr != nil {
		return uc.fail(ctx, run, computeErr)
	}

	run.Status = domain.RunStatusCompleted
	run.Output = output

	err := uc.inTx(ctx, func(txCtx context.Context, tx Transaction) error {
		if err := uc.runRepo.Complete(txCtx, tx, run); err != nil {
			return err
		}
		if err := uc.runRepo.SetActive(txCtx, tx, run); err != nil {
			return err
		}
		return uc.outboxRepo.Create(txCtx, tx, domain.NewRunEvent(uc.idGen.Generate(), domain.EventTypeRunCompleted, run, completedAt))
	})
	if err != nil {
		run.Output = nil
		if _, failErr := uc.fail(ctx, run, fmt.Errorf("persist output: %w", err)); failErr != nil {
			uc.logger.Error().Err(failErr).Str("run_id", run.ID).Msg("failed to record run failure")
		}
		return nil, err
	}
	run.Active = true

	if uc.cache != nil {
		if err := uc.cache.SetOutput(ctx, run.ID, output); err != nil {
			uc.logger.Warn().Err(err).Str("run_id", run.ID).Msg("failed to cache run output")
		}
	}

	periods := outputPeriods(output)
	if uc.metrics != nil {
		uc.metrics.RunsCompleted.WithLabelValues(string(run.Type)).Inc()
		uc.metrics.RunDuration.WithLabelValues(string(run.Type)).Observe(run.ExecutionTime.Seconds())
		uc.metrics.ScheduleLength.WithLabelValues(string(run.Type)).Observe(float64(periods))
	}

	uc.logger.Info().
		Str("run_id", run.ID).
		Str("project_id", run.ProjectID).
		Str("calc_type", string(run.Type)).
		Int64("version", run.Version).
		Int("periods", periods).
		Dur("duration", run.ExecutionTime).
		Msg("run completed")

	return run, nil
}

// fail records a failed run. The active pointer is left alone.
func (uc *CalculationUseCase) fail(ctx context.Context, run *domain.CalculationRun, cause error) (*domain.CalculationRun, error) {
	run.Status = domain.RunStatusFailed
	run.ErrorMessage = cause.Error()
	run.Active = false

	err := uc.inTx(ctx, func(txCtx context.Context, tx Transaction) error {
		if err := uc.runRepo.Fail(txCtx, tx, run); err != nil {
			return err
		}
		return uc.outboxRepo.Create(txCtx, tx, domain.NewRunEvent(uc.idGen.Generate(), domain.EventTypeRunFailed, run, uc.now()))
	})
	if err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.RunsFailed.WithLabelValues(string(run.Type)).Inc()
	}
	uc.logger.Warn().
		Str("run_id", run.ID).
		Str("project_id", run.ProjectID).
		Str("calc_type", string(run.Type)).
		Int64("version", run.Version).
		Str("error", run.ErrorMessage).
		Dur("duration", run.ExecutionTime).
		Msg("run failed")

	return run, nil
}

// compute dispatches to the engine. A panic inside the engine becomes a
// computation error.
func compute(ctx context.Context, calcType domain.CalculationType, snapshot domain.InputSnapshot) (output *domain.RunOutput, err error) {
	defer func() {
		if r := recover(); r != nil {
			output = nil
			err = fmt.Errorf("%w: panic: %v", domain.ErrComputation, r)
		}
	}()

	switch calcType {
	case domain.CalculationAmortization:
		schedules, err := engine.GenerateAmortizationSet(snapshot.Instruments)
		if err != nil {
			return nil, err
		}
		return &domain.RunOutput{Amortization: schedules}, nil

	case domain.CalculationDepreciation:
		schedule, err := engine.GenerateDepreciation(snapshot.Vintages, snapshot.HorizonMonths)
		if err != nil {
			return nil, err
		}
		return &domain.RunOutput{Depreciation: schedule}, nil

	case domain.CalculationKPI:
		report, err := engine.BuildKPIReport(ctx, snapshot.FinancialInputs)
		if err != nil {
			return nil, err
		}
		return &domain.RunOutput{KPIs: report}, nil
	}

	return nil, fmt.Errorf("%w: %q", domain.ErrUnknownCalculationType, calcType)
}

// inTx runs fn in a transaction, retrying the whole transaction on
// transient storage errors.
func (uc *CalculationUseCase) inTx(ctx context.Context, fn func(txCtx context.Context, tx Transaction) error) error {
	attempt := func() error {
		txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
		defer cancel()

		tx, err := uc.txManager.Begin(txCtx)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback(txCtx) }()

		if err := fn(txCtx, tx); err != nil {
			return err
		}
		return tx.Commit(txCtx)
	}

	if uc.retrier == nil {
		return attempt()
	}
	return uc.retrier.Retry(ctx, attempt)
}

func (uc *CalculationUseCase) release(release ReleaseFunc, run *domain.CalculationRun) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := release(ctx); err != nil {
		ev := uc.logger.Warn().Err(err)
		if run != nil {
			ev = ev.Str("run_id", run.ID)
		}
		ev.Msg("failed to release run lock")
	}
}

func (uc *CalculationUseCase) reject(calcType domain.CalculationType, reason string) {
	if uc.metrics != nil {
		uc.metrics.RunRejections.WithLabelValues(string(calcType), reason).Inc()
	}
}

// cachedOutput returns the output of a completed run, preferring the cache.
func (uc *CalculationUseCase) cachedOutput(ctx context.Context, run *domain.CalculationRun) *domain.RunOutput {
	if uc.cache == nil || run.Status != domain.RunStatusCompleted {
		return run.Output
	}

	output, ok, err := uc.cache.GetOutput(ctx, run.ID)
	if err != nil {
		uc.logger.Warn().Err(err).Str("run_id", run.ID).Msg("output cache lookup failed")
	}
	if ok {
		uc.cacheResult("hit")
		return output
	}

	uc.cacheResult("miss")
	if run.Output != nil {
		if err := uc.cache.SetOutput(ctx, run.ID, run.Output); err != nil {
			uc.logger.Warn().Err(err).Str("run_id", run.ID).Msg("failed to cache run output")
		}
	}
	return run.Output
}

func (uc *CalculationUseCase) cacheResult(result string) {
	if uc.metrics != nil {
		uc.metrics.OutputCache.WithLabelValues(result).Inc()
	}
}

func (uc *CalculationUseCase) audit(ctx context.Context, action domain.AuditAction, runID string, before, after domain.JSON, cause error) {
	if uc.auditRepo == nil {
		return
	}

	log := &domain.AuditLog{
		ID:           uc.idGen.Generate(),
		Actor:        domain.ActorFromContext(ctx),
		Action:       string(action),
		ResourceType: domain.AggregateTypeCalculationRun,
		ResourceID:   runID,
		RequestID:    domain.RequestIDFromContext(ctx),
		BeforeState:  before,
		AfterState:   after,
		Status:       string(domain.AuditStatusSuccess),
		CreatedAt:    uc.now(),
	}
	if cause != nil {
		log.Status = string(domain.AuditStatusFailure)
		log.ErrorMessage = cause.Error()
	}

	if err := uc.auditRepo.Create(ctx, log); err != nil {
		uc.logger.Warn().Err(err).Str("run_id", runID).Str("action", log.Action).Msg("failed to write audit log")
		return
	}
	if uc.metrics != nil {
		uc.metrics.AuditLogsCreated.WithLabelValues(log.Action, log.Status).Inc()
	}
}

// runState is the audit view of a run: identity and version, not output.
func runState(run *domain.CalculationRun) domain.JSON {
	if run == nil {
		return nil
	}
	return domain.JSON{
		"run_id":     run.ID,
		"version":    run.Version,
		"status":     string(run.Status),
		"input_hash": run.InputHash,
	}
}

// outputPeriods is the longest schedule length in an output.
func outputPeriods(out *domain.RunOutput) int {
	if out == nil {
		return 0
	}

	n := 0
	for _, s := range out.Amortization {
		n = max(n, len(s.Entries))
	}
	if out.Depreciation != nil {
		n = max(n, len(out.Depreciation.Entries))
	}
	if out.KPIs != nil {
		n = max(n, len(out.KPIs.Monthly))
	}
	return n
}
