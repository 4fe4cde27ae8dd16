package postgres

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/pashagolub/pgxmock/v4"

	"github.com/iho/finmodel/internal/domain"
)

func TestOutboxRepositoryCreateUsesTransaction(t *testing.T) {
	ctx := context.Background()
	mockPool := newMockPool(t)
	at := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	mockPool.ExpectBegin()
	mockPool.ExpectExec(regexp.QuoteMeta("INSERT INTO outbox_events")).
		WithArgs("evt-1", "run-1", domain.AggregateTypeCalculationRun, domain.EventTypeRunCompleted,
			pgxmock.AnyArg(), timeToPgTimestamptz(at), false).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mockPool.ExpectRollback()

	tx, err := newTxManagerWithPool(mockPool).Begin(ctx)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}

	run := runningRun()
	run.Status = domain.RunStatusCompleted
	event := domain.NewRunEvent("evt-1", domain.EventTypeRunCompleted, run, at)

	if err := newOutboxRepository(mockPool).Create(ctx, tx, event); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := tx.Rollback(ctx); err != nil {
		t.Fatalf("rollback: %v", err)
	}
	assertExpectations(t, mockPool)
}

func TestOutboxRepositoryGetUnpublished(t *testing.T) {
	mockPool := newMockPool(t)
	created := timeToPgTimestamptz(time.Now().UTC())

	mockPool.ExpectQuery(regexp.QuoteMeta("FROM outbox_events")).
		WithArgs(int32(50)).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "aggregate_id", "aggregate_type", "event_type", "payload", "created_at", "published_at", "published",
		}).AddRow("evt-1", "run-1", "calculation_run", domain.EventTypeRunFailed,
			[]byte(`{"run_id":"run-1","error_message":"boom"}`), created, pgtype.Timestamptz{}, false))

	events, err := newOutboxRepository(mockPool).GetUnpublished(context.Background(), 50)
	if err != nil {
		t.Fatalf("get unpublished: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].Payload["error_message"] != "boom" || events[0].PublishedAt != nil {
		t.Fatalf("unexpected event: %+v", events[0])
	}
	assertExpectations(t, mockPool)
}

func TestOutboxRepositoryMarkAndPurge(t *testing.T) {
	mockPool := newMockPool(t)
	at := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	mockPool.ExpectExec(regexp.QuoteMeta("UPDATE outbox_events SET published = TRUE")).
		WithArgs("evt-1", timeToPgTimestamptz(at)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mockPool.ExpectExec(regexp.QuoteMeta("DELETE FROM outbox_events WHERE published = TRUE")).
		WithArgs(timeToPgTimestamptz(at)).
		WillReturnResult(pgxmock.NewResult("DELETE", 12))

	repo := newOutboxRepository(mockPool)
	if err := repo.MarkPublished(context.Background(), "evt-1", at); err != nil {
		t.Fatalf("mark published: %v", err)
	}
	if err := repo.DeletePublished(context.Background(), at); err != nil {
		t.Fatalf("delete published: %v", err)
	}
	assertExpectations(t, mockPool)
}
