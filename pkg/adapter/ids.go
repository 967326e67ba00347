package adapter

import (
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
)

// IDGenerator mints identifiers that are never reused within a process.
// A monotonic counter orders them and a random fragment keeps separate
// generators from colliding.
type IDGenerator struct {
	counter atomic.Uint64
}

func NewIDGenerator() *IDGenerator {
	return &IDGenerator{}
}

func (g *IDGenerator) Next(prefix string) string {
	n := g.counter.Add(1)

	return fmt.Sprintf("%s_%06d_%s", prefix, n, uuid.New().String()[:8])
}
