package redis

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/iho/finmodel/internal/domain"
	"github.com/iho/finmodel/internal/usecase"
)

var _ usecase.OutputCache = (*OutputCache)(nil)

// OutputCache implements usecase.OutputCache using Redis. Outputs are
// stored as msgpack, keyed by run ID.
type OutputCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewOutputCache creates a new OutputCache. A zero ttl keeps entries forever.
func NewOutputCache(client *redis.Client, ttl time.Duration) *OutputCache {
	return &OutputCache{
		client: client,
		prefix: "finmodel:output:",
		ttl:    ttl,
	}
}

// GetOutput returns the cached output of a run, if present.
func (c *OutputCache) GetOutput(ctx context.Context, runID string) (*domain.RunOutput, bool, error) {
	data, err := c.client.Get(ctx, c.prefix+runID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}

		return nil, false, err
	}

	dec := msgpack.NewDecoder(bytes.NewReader(data))
	dec.SetCustomStructTag("json")

	var output domain.RunOutput
	if err := dec.Decode(&output); err != nil {
		return nil, false, fmt.Errorf("decode cached output of run %s: %w", runID, err)
	}

	return &output, true, nil
}

// SetOutput caches the output of a completed run.
func (c *OutputCache) SetOutput(ctx context.Context, runID string, output *domain.RunOutput) error {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag("json")

	if err := enc.Encode(output); err != nil {
		return fmt.Errorf("encode output of run %s: %w", runID, err)
	}

	return c.client.Set(ctx, c.prefix+runID, buf.Bytes(), c.ttl).Err()
}
