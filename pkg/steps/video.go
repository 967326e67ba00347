package steps

import (
	"context"
	"fmt"

	"github.com/dukex/studioflow/pkg/models"
	"github.com/dukex/studioflow/pkg/protocol"
)

type VideoHandler struct {
	producer Producer
}

func NewVideoHandler(producer Producer) *VideoHandler {
	return &VideoHandler{producer: producer}
}

func (h *VideoHandler) Kind() models.StepKind {
	return models.StepKindVideo
}

func (h *VideoHandler) Handle(ctx context.Context, sc protocol.StepContext) (map[string]any, error) {
	if sc.Config.Video == nil {
		return nil, fmt.Errorf("%w: video step needs a video production config", ErrMissingConfig)
	}

	cfg := *sc.Config.Video
	cfg.Kind = models.ContentKindVideo

	if cfg.Title == "" {
		cfg.Title = sc.WorkflowName
	}

	return produce(ctx, h.producer, cfg)
}
