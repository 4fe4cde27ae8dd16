package domain

import "time"

// Event types
const (
	EventTypeRunStarted   = "calculation_run.started"
	EventTypeRunCompleted = "calculation_run.completed"
	EventTypeRunFailed    = "calculation_run.failed"
	EventTypeRunRestored  = "calculation_run.restored"
)

// Aggregate types
const (
	AggregateTypeCalculationRun = "calculation_run"
)

// OutboxEvent represents an event to be published
type OutboxEvent struct {
	ID            string
	AggregateID   string
	AggregateType string
	EventType     string
	Payload       map[string]any
	CreatedAt     time.Time
	PublishedAt   *time.Time
	Published     bool
}

// NewRunEvent builds the outbox event for a run transition.
func NewRunEvent(id, eventType string, run *CalculationRun, at time.Time) *OutboxEvent {
	payload := map[string]any{
		"run_id":           run.ID,
		"project_id":       run.ProjectID,
		"calculation_type": string(run.Type),
		"version":          run.Version,
		"status":           string(run.Status),
	}
	if run.ErrorMessage != "" {
		payload["error_message"] = run.ErrorMessage
	}
	if run.ExecutionTime > 0 {
		payload["execution_ms"] = run.ExecutionTime.Milliseconds()
	}

	return &OutboxEvent{
		ID:            id,
		AggregateID:   run.ID,
		AggregateType: AggregateTypeCalculationRun,
		EventType:     eventType,
		Payload:       payload,
		CreatedAt:     at,
	}
}
