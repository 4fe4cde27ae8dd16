package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/iho/finmodel/internal/domain"
	"github.com/iho/finmodel/internal/usecase"
)

var _ usecase.RunLocker = (*RunLocker)(nil)

// releaseScript deletes the lock only if it still holds our token, so an
// expired lock taken over by another process is left alone.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RunLocker implements usecase.RunLocker across processes using Redis.
type RunLocker struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRunLocker creates a new RunLocker. The ttl bounds how long a crashed
// holder can block its (project, type) pair.
func NewRunLocker(client *redis.Client, ttl time.Duration) *RunLocker {
	return &RunLocker{
		client: client,
		prefix: "finmodel:runlock:",
		ttl:    ttl,
	}
}

// Acquire takes the lock for a project and calculation type.
func (l *RunLocker) Acquire(ctx context.Context, projectID string, calcType domain.CalculationType) (usecase.ReleaseFunc, error) {
	key := l.key(projectID, calcType)
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire run lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", domain.ErrConcurrency, projectID, calcType)
	}

	return func(ctx context.Context) error {
		return releaseScript.Run(ctx, l.client, []string{key}, token).Err()
	}, nil
}

func (l *RunLocker) key(projectID string, calcType domain.CalculationType) string {
	return l.prefix + projectID + ":" + string(calcType)
}
