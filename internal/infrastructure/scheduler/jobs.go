package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// StaleRunReaper is the part of the calculation use case the reaper needs.
type StaleRunReaper interface {
	ReapStaleRuns(ctx context.Context, staleAfter time.Duration) (int, error)
}

// ReapStaleRunsJob fails runs stuck in running longer than StaleAfter.
type ReapStaleRunsJob struct {
	Reaper     StaleRunReaper
	StaleAfter time.Duration
	Logger     zerolog.Logger
}

// Name implements Job.
func (j *ReapStaleRunsJob) Name() string { return "reap_stale_runs" }

// Run implements Job.
func (j *ReapStaleRunsJob) Run(ctx context.Context) error {
	n, err := j.Reaper.ReapStaleRuns(ctx, j.StaleAfter)
	if err != nil {
		return err
	}
	if n > 0 {
		j.Logger.Info().Int("reaped", n).Msg("stale runs failed")
	}

	return nil
}

// OutboxPurger deletes published outbox events.
type OutboxPurger interface {
	DeletePublished(ctx context.Context, before time.Time) error
}

// PurgeOutboxJob removes events published more than Retention ago.
type PurgeOutboxJob struct {
	Outbox    OutboxPurger
	Retention time.Duration
	now       func() time.Time
}

// Name implements Job.
func (j *PurgeOutboxJob) Name() string { return "purge_outbox" }

// Run implements Job.
func (j *PurgeOutboxJob) Run(ctx context.Context) error {
	now := time.Now
	if j.now != nil {
		now = j.now
	}

	return j.Outbox.DeletePublished(ctx, now().UTC().Add(-j.Retention))
}

// FuncJob adapts a plain function into a Job.
type FuncJob struct {
	JobName string
	Fn      func(ctx context.Context) error
}

// Name implements Job.
func (j FuncJob) Name() string { return j.JobName }

// Run implements Job.
func (j FuncJob) Run(ctx context.Context) error { return j.Fn(ctx) }
