package steps

import (
	"context"

	"github.com/dukex/studioflow/pkg/models"
	"github.com/dukex/studioflow/pkg/protocol"
)

// DesignHandler produces a poster. Without a design config it derives a
// promo poster titled after the workflow.
type DesignHandler struct {
	producer Producer
}

func NewDesignHandler(producer Producer) *DesignHandler {
	return &DesignHandler{producer: producer}
}

func (h *DesignHandler) Kind() models.StepKind {
	return models.StepKindDesign
}

func (h *DesignHandler) Handle(ctx context.Context, sc protocol.StepContext) (map[string]any, error) {
	var cfg models.ProductionConfig
	if sc.Config.Design != nil {
		cfg = *sc.Config.Design
	}

	cfg.Kind = models.ContentKindPoster

	if cfg.Title == "" {
		cfg.Title = sc.WorkflowName
	}

	if cfg.Style == "" {
		cfg.Style = models.StylePromo
	}

	if cfg.AspectRatio == "" {
		cfg.AspectRatio = models.AspectSquare
	}

	return produce(ctx, h.producer, cfg)
}
