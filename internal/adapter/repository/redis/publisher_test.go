package redis

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/finmodel/internal/domain"
)

func TestPublisherPublishesJSON(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer mr.Close()
	defer client.Close()

	ctx := context.Background()
	sub := client.Subscribe(ctx, "finmodel.runs")
	defer sub.Close()

	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	run := &domain.CalculationRun{ID: "run-1", ProjectID: "p1", Type: domain.CalculationKPI, Status: domain.RunStatusCompleted, Version: 3}
	event := domain.NewRunEvent("evt-1", domain.EventTypeRunCompleted, run, time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC))

	require.NoError(t, NewPublisher(client, "finmodel.runs").Publish(ctx, event))

	select {
	case msg := <-sub.Channel():
		var got EventMessage
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &got))
		assert.Equal(t, "evt-1", got.ID)
		assert.Equal(t, domain.EventTypeRunCompleted, got.EventType)
		assert.Equal(t, "run-1", got.AggregateID)
		assert.Equal(t, "p1", got.Payload["project_id"])
		assert.Equal(t, 3.0, got.Payload["version"])
	case <-time.After(2 * time.Second):
		t.Fatal("no message received")
	}
}

func TestPublisherWithoutSubscribers(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer mr.Close()
	defer client.Close()

	event := &domain.OutboxEvent{ID: "evt-1", EventType: domain.EventTypeRunFailed}
	assert.NoError(t, NewPublisher(client, "finmodel.runs").Publish(context.Background(), event))
}
