package postgres

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/iho/finmodel/internal/usecase"
)

var _ usecase.IDGenerator = (*ULIDGenerator)(nil)

// ULIDGenerator generates ULID-based IDs. IDs from one generator sort in
// creation order, even within the same millisecond.
type ULIDGenerator struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

// NewULIDGenerator creates a new ULIDGenerator.
func NewULIDGenerator() *ULIDGenerator {
	return &ULIDGenerator{entropy: ulid.Monotonic(rand.Reader, 0)}
}

// Generate generates a new ULID.
func (g *ULIDGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	id, err := ulid.New(ulid.Timestamp(time.Now()), g.entropy)
	if err != nil {
		// Monotonic entropy overflowed within one millisecond.
		return ulid.Make().String()
	}

	return id.String()
}
