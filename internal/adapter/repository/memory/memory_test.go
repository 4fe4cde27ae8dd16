package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/finmodel/internal/domain"
)

func newRun(id string) *domain.CalculationRun {
	return &domain.CalculationRun{
		ID:        id,
		ProjectID: "p1",
		Type:      domain.CalculationKPI,
		Status:    domain.RunStatusRunning,
		CreatedAt: time.Now().UTC(),
	}
}

func createCommitted(t *testing.T, repo *RunRepository, run *domain.CalculationRun) {
	t.Helper()
	ctx := context.Background()

	tx, err := NewTxManager().Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, tx, run))
	require.NoError(t, tx.Commit(ctx))
}

func TestRunRepository_RollbackDiscardsWrites(t *testing.T) {
	ctx := context.Background()
	repo := NewRunRepository()

	tx, err := NewTxManager().Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, tx, newRun("r1")))
	require.NoError(t, tx.Rollback(ctx))

	_, err = repo.GetByID(ctx, "r1")
	assert.ErrorIs(t, err, domain.ErrRunNotFound)

	// Writes after the transaction finished are refused.
	assert.Error(t, repo.Create(ctx, tx, newRun("r2")))
}

func TestRunRepository_VersionsAndConcurrency(t *testing.T) {
	ctx := context.Background()
	repo := NewRunRepository()

	first := newRun("r1")
	createCommitted(t, repo, first)
	assert.Equal(t, int64(1), first.Version)

	// Another run for the same pair while r1 is running.
	err := repo.Create(ctx, nil, newRun("r2"))
	assert.ErrorIs(t, err, domain.ErrConcurrency)

	// A different type is independent.
	other := newRun("r3")
	other.Type = domain.CalculationAmortization
	createCommitted(t, repo, other)
	assert.Equal(t, int64(1), other.Version)

	first.Status = domain.RunStatusFailed
	first.ErrorMessage = "boom"
	require.NoError(t, repo.Fail(ctx, nil, first))

	second := newRun("r2")
	createCommitted(t, repo, second)
	assert.Equal(t, int64(2), second.Version)
}

func TestRunRepository_CompleteAndActivePointer(t *testing.T) {
	ctx := context.Background()
	repo := NewRunRepository()

	run := newRun("r1")
	createCommitted(t, repo, run)

	err := repo.SetActive(ctx, nil, run)
	assert.ErrorIs(t, err, domain.ErrRunNotRestorable)

	run.Output = &domain.RunOutput{KPIs: &domain.KPIReport{}}
	require.NoError(t, repo.Complete(ctx, nil, run))
	require.NoError(t, repo.SetActive(ctx, nil, run))

	active, err := repo.GetActive(ctx, "p1", domain.CalculationKPI)
	require.NoError(t, err)
	assert.Equal(t, "r1", active.ID)
	assert.True(t, active.Active)
	assert.Equal(t, run.Output, active.Output)
	assert.NotSame(t, run.Output, active.Output)

	// Completed runs are immutable.
	err = repo.Fail(ctx, nil, run)
	assert.ErrorIs(t, err, domain.ErrRunFinalized)

	_, err = repo.GetActive(ctx, "p1", domain.CalculationDepreciation)
	assert.ErrorIs(t, err, domain.ErrRunNotFound)
}

func TestRunRepository_StoredOutputIsImmutable(t *testing.T) {
	ctx := context.Background()
	repo := NewRunRepository()

	run := newRun("r1")
	run.Type = domain.CalculationAmortization
	createCommitted(t, repo, run)

	run.Output = &domain.RunOutput{Amortization: []domain.InstrumentSchedule{{
		InstrumentID: "senior",
		Entries:      []domain.AmortizationScheduleEntry{{Period: 1, Payment: 287_354.94}},
	}}}
	require.NoError(t, repo.Complete(ctx, nil, run))

	// Writes through the caller's pointer do not reach the log.
	run.Output.Amortization[0].Entries[0].Payment = 1

	got, err := repo.GetByID(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, 287_354.94, got.Output.Amortization[0].Entries[0].Payment)

	// Nor do writes through a returned copy.
	got.Output.Amortization[0].Entries[0].Payment = 2
	got.Output.Amortization[0].InstrumentID = "changed"

	again, err := repo.GetByID(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, 287_354.94, again.Output.Amortization[0].Entries[0].Payment)
	assert.Equal(t, "senior", again.Output.Amortization[0].InstrumentID)
}

func TestRunRepository_CreateReportsCommittedVersion(t *testing.T) {
	ctx := context.Background()
	repo := NewRunRepository()
	txm := NewTxManager()

	tx1, err := txm.Begin(ctx)
	require.NoError(t, err)
	tx2, err := txm.Begin(ctx)
	require.NoError(t, err)

	first := newRun("r1")
	second := newRun("r2")
	require.NoError(t, repo.Create(ctx, tx1, first))
	require.NoError(t, repo.Create(ctx, tx2, second))
	assert.Equal(t, int64(1), second.Version)

	require.NoError(t, tx1.Commit(ctx))
	first.Output = &domain.RunOutput{KPIs: &domain.KPIReport{}}
	require.NoError(t, repo.Complete(ctx, nil, first))
	require.NoError(t, tx2.Commit(ctx))

	stored, err := repo.GetByID(ctx, "r2")
	require.NoError(t, err)
	assert.Equal(t, int64(2), stored.Version)
	assert.Equal(t, stored.Version, second.Version)
}

func TestRunRepository_ListNewestFirstWithoutOutput(t *testing.T) {
	ctx := context.Background()
	repo := NewRunRepository()

	for _, id := range []string{"r1", "r2", "r3"} {
		run := newRun(id)
		createCommitted(t, repo, run)
		run.Output = &domain.RunOutput{KPIs: &domain.KPIReport{}}
		require.NoError(t, repo.Complete(ctx, nil, run))
	}

	runs, err := repo.List(ctx, domain.RunFilter{ProjectID: "p1", Type: domain.CalculationKPI})
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, []int64{3, 2, 1}, []int64{runs[0].Version, runs[1].Version, runs[2].Version})
	for _, r := range runs {
		assert.Nil(t, r.Output)
	}

	page, err := repo.List(ctx, domain.RunFilter{ProjectID: "p1", Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "r2", page[0].ID)
}

func TestRunRepository_MarkStaleFailed(t *testing.T) {
	ctx := context.Background()
	repo := NewRunRepository()

	stale := newRun("old")
	stale.CreatedAt = time.Now().Add(-time.Hour)
	createCommitted(t, repo, stale)

	reaped, err := repo.MarkStaleFailed(ctx, time.Now().Add(-time.Minute), "abandoned")
	require.NoError(t, err)
	require.Len(t, reaped, 1)
	assert.Equal(t, domain.RunStatusFailed, reaped[0].Status)
	assert.Equal(t, "abandoned", reaped[0].ErrorMessage)

	// The pair is free again.
	createCommitted(t, repo, newRun("new"))
}

func TestRunLocker(t *testing.T) {
	ctx := context.Background()
	locker := NewRunLocker()

	release, err := locker.Acquire(ctx, "p1", domain.CalculationKPI)
	require.NoError(t, err)

	_, err = locker.Acquire(ctx, "p1", domain.CalculationKPI)
	assert.ErrorIs(t, err, domain.ErrConcurrency)

	otherRelease, err := locker.Acquire(ctx, "p2", domain.CalculationKPI)
	require.NoError(t, err)
	require.NoError(t, otherRelease(ctx))

	require.NoError(t, release(ctx))
	require.NoError(t, release(ctx))

	release, err = locker.Acquire(ctx, "p1", domain.CalculationKPI)
	require.NoError(t, err)
	require.NoError(t, release(ctx))
}

func TestOutboxRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewOutboxRepository()

	tx, _ := NewTxManager().Begin(ctx)
	require.NoError(t, repo.Create(ctx, tx, &domain.OutboxEvent{ID: "e1"}))
	require.NoError(t, repo.Create(ctx, tx, &domain.OutboxEvent{ID: "e2"}))

	pending, err := repo.GetUnpublished(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending, "events are invisible before commit")

	require.NoError(t, tx.Commit(ctx))

	pending, err = repo.GetUnpublished(ctx, 1)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "e1", pending[0].ID)

	publishedAt := time.Now().Add(-time.Hour)
	require.NoError(t, repo.MarkPublished(ctx, "e1", publishedAt))
	require.NoError(t, repo.DeletePublished(ctx, time.Now()))

	events := repo.Events()
	require.Len(t, events, 1)
	assert.Equal(t, "e2", events[0].ID)
}

func TestAuditRepository_List(t *testing.T) {
	ctx := context.Background()
	repo := NewAuditRepository()

	require.NoError(t, repo.Create(ctx, &domain.AuditLog{ID: "a1", Actor: "alice", Action: "run.restore"}))
	require.NoError(t, repo.Create(ctx, &domain.AuditLog{ID: "a2", Actor: "bob", Action: "run.compare"}))
	require.NoError(t, repo.Create(ctx, &domain.AuditLog{ID: "a3", Actor: "alice", Action: "run.compare"}))

	logs, err := repo.List(ctx, domain.AuditFilter{Actor: "alice"})
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, "a3", logs[0].ID)
	assert.Equal(t, "a1", logs[1].ID)
}

func TestInputRepository_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewInputRepository()

	_, err := repo.GetProject(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrProjectNotFound)

	repo.PutProject(domain.Project{ID: "p1", Name: "Plant"})
	repo.PutDebtInstruments("p1", []domain.DebtInstrument{{ID: "senior", Principal: 100}})

	got, err := repo.ListDebtInstruments(ctx, "p1")
	require.NoError(t, err)
	got[0].Principal = 1

	again, err := repo.ListDebtInstruments(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 100.0, again[0].Principal)
}

func TestInputRepository_Load(t *testing.T) {
	ctx := context.Background()
	repo := NewInputRepository()

	repo.Load(domain.Scenario{
		Project:         domain.Project{ID: "p1", Name: "Plant", HorizonMonths: 24},
		FinancialInputs: []domain.FinancialInputs{{Period: domain.Period{Year: 2025, Month: 1}, Revenue: 10}},
		Instruments:     []domain.DebtInstrument{{ID: "senior"}},
		Vintages:        []domain.DepreciationVintage{{ID: "v1"}, {ID: "v2"}},
	})

	project, err := repo.GetProject(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 24, project.HorizonMonths)

	inputs, err := repo.ListFinancialInputs(ctx, "p1")
	require.NoError(t, err)
	assert.Len(t, inputs, 1)

	vintages, err := repo.ListDepreciationVintages(ctx, "p1")
	require.NoError(t, err)
	assert.Len(t, vintages, 2)
}
