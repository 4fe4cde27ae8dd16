package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/finmodel/internal/domain"
)

func TestRunLockerExcludesSamePair(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer mr.Close()
	defer client.Close()

	locker := NewRunLocker(client, time.Minute)
	ctx := context.Background()

	release, err := locker.Acquire(ctx, "p1", domain.CalculationAmortization)
	require.NoError(t, err)

	_, err = locker.Acquire(ctx, "p1", domain.CalculationAmortization)
	assert.ErrorIs(t, err, domain.ErrConcurrency)

	other, err := locker.Acquire(ctx, "p1", domain.CalculationKPI)
	require.NoError(t, err, "different calculation types do not block each other")
	require.NoError(t, other(ctx))

	require.NoError(t, release(ctx))
	assert.False(t, mr.Exists("finmodel:runlock:p1:amortization"))

	again, err := locker.Acquire(ctx, "p1", domain.CalculationAmortization)
	require.NoError(t, err)
	require.NoError(t, again(ctx))
}

func TestRunLockerReleaseKeepsForeignLock(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer mr.Close()
	defer client.Close()

	locker := NewRunLocker(client, time.Second)
	ctx := context.Background()

	stale, err := locker.Acquire(ctx, "p1", domain.CalculationDepreciation)
	require.NoError(t, err)

	mr.FastForward(2 * time.Second)

	current, err := locker.Acquire(ctx, "p1", domain.CalculationDepreciation)
	require.NoError(t, err, "expired lock can be taken over")

	require.NoError(t, stale(ctx))
	assert.True(t, mr.Exists("finmodel:runlock:p1:depreciation"), "stale holder must not release the new lock")

	require.NoError(t, current(ctx))
	assert.False(t, mr.Exists("finmodel:runlock:p1:depreciation"))
}

func TestRunLockerServerDown(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer client.Close()
	mr.Close()

	_, err := NewRunLocker(client, time.Second).Acquire(context.Background(), "p1", domain.CalculationKPI)
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrConcurrency)
}
