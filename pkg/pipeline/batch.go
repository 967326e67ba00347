package pipeline

import (
	"context"
	"fmt"

	"github.com/dukex/studioflow/pkg/models"
)

// RunBatch produces each config in order, one at a time. A failing item
// never affects the others; every input gets exactly one result.
func (p *Pipeline) RunBatch(ctx context.Context, configs []models.ProductionConfig) []*models.PipelineResult {
	results := make([]*models.PipelineResult, 0, len(configs))

	for i, cfg := range configs {
		result := p.runItem(ctx, cfg)

		p.logger.InfoContext(ctx, "Batch item finished", "index", i, "title", cfg.Title, "success", result.Success)

		results = append(results, result)
	}

	return results
}

func (p *Pipeline) runItem(ctx context.Context, cfg models.ProductionConfig) (result *models.PipelineResult) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.ErrorContext(ctx, "Batch item panicked", "title", cfg.Title, "panic", r)

			result = models.NewPipelineResult(cfg.EffectiveKind(), cfg.Title)
			result.Error = fmt.Sprintf("production panicked: %v", r)
		}
	}()

	result, err := p.CreateContentArtifact(ctx, cfg)
	if err != nil && result.Error == "" {
		result.Error = err.Error()
	}

	return result
}
