package protocol

import (
	"time"

	"github.com/dukex/studioflow/pkg/models"
)

// LatencyModel decides how long a simulated command takes.
type LatencyModel interface {
	Delay(operation models.Operation) time.Duration
}

// ScoringFunction assigns a base score in [0, 1) to a window of a source.
type ScoringFunction interface {
	Score(source string, sourceIndex, window int) float64
}

// ScoringFunc adapts a plain function to ScoringFunction.
type ScoringFunc func(source string, sourceIndex, window int) float64

func (f ScoringFunc) Score(source string, sourceIndex, window int) float64 {
	return f(source, sourceIndex, window)
}
