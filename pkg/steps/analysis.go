package steps

import (
	"context"
	"time"

	"github.com/dukex/studioflow/pkg/models"
	"github.com/dukex/studioflow/pkg/protocol"
)

// DefaultAnalysisDelay is how long the integration analysis takes.
const DefaultAnalysisDelay = 500 * time.Millisecond

// AnalysisHandler waits for the integration analysis and then collects the
// artifacts its dependencies produced.
type AnalysisHandler struct {
	delay time.Duration
	now   func() time.Time
}

type AnalysisOption func(*AnalysisHandler)

func WithAnalysisDelay(delay time.Duration) AnalysisOption {
	return func(h *AnalysisHandler) {
		h.delay = delay
	}
}

func NewAnalysisHandler(opts ...AnalysisOption) *AnalysisHandler {
	h := &AnalysisHandler{
		delay: DefaultAnalysisDelay,
		now:   time.Now,
	}

	for _, opt := range opts {
		opt(h)
	}

	return h
}

func (h *AnalysisHandler) Kind() models.StepKind {
	return models.StepKindAnalysis
}

func (h *AnalysisHandler) Handle(ctx context.Context, sc protocol.StepContext) (map[string]any, error) {
	if h.delay > 0 {
		timer := time.NewTimer(h.delay)
		defer timer.Stop()

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	deps := make(map[string]map[string]any, len(sc.Step.Dependencies))
	for _, id := range sc.Step.Dependencies {
		if out, ok := sc.Outputs[id]; ok {
			deps[id] = out
		}
	}

	return map[string]any{
		OutputArtifacts:    collectArtifacts(deps),
		OutputDependencies: len(deps),
		"analyzed_at":      h.now().UTC().Format(time.RFC3339),
	}, nil
}
