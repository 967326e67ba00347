package adapter

import (
	"math/rand/v2"
	"time"

	"github.com/dukex/studioflow/pkg/models"
)

const (
	DefaultMinLatency = 10 * time.Millisecond
	DefaultMaxLatency = 50 * time.Millisecond
)

// RandomLatency draws a uniform delay in [Min, Max).
type RandomLatency struct {
	Min time.Duration
	Max time.Duration
}

func (l RandomLatency) Delay(models.Operation) time.Duration {
	if l.Max <= l.Min {
		return l.Min
	}

	return l.Min + rand.N(l.Max-l.Min)
}

// FixedLatency always waits the same amount. FixedLatency(0) disables the delay.
type FixedLatency time.Duration

func (l FixedLatency) Delay(models.Operation) time.Duration {
	return time.Duration(l)
}
