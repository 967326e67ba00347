package pipeline

import (
	"context"

	"github.com/dukex/studioflow/pkg/models"
)

var taglines = map[models.Style]string{
	models.StyleEducation: "Learn something new today",
	models.StyleVlog:      "A day in the life",
	models.StyleCinematic: "Coming soon",
	models.StylePromo:     "Limited time offer",
	models.StyleMusic:     "Turn it up",
}

func (p *Pipeline) runPoster(ctx context.Context, cfg models.ProductionConfig) (*models.PipelineResult, error) {
	e := p.newExecution(models.ContentKindPoster, cfg.Title)

	if err := p.validateConfig(cfg); err != nil {
		return e.failValidation(ctx, err)
	}

	e.fetchRules(ctx)

	if err := e.createDraft(ctx, cfg); err != nil {
		return e.abort(err), err
	}

	_ = e.createTrack(ctx, models.TrackTypeText)
	textSegments := e.addSegments(ctx, "add_text_segments", models.OperationAddTextSegment, []map[string]any{
		{"text": cfg.Title, "start": 0.0},
		{"text": taglines[cfg.Style], "start": 0.0},
	})

	var imageSegments []string

	if len(cfg.Sources) > 0 {
		stills := make([]map[string]any, 0, len(cfg.Sources))
		for _, src := range cfg.Sources {
			stills = append(stills, map[string]any{"material": src, "start": 0.0})
		}

		_ = e.createTrack(ctx, models.TrackTypeVideo)
		imageSegments = e.addSegments(ctx, "add_video_segments", models.OperationAddVideoSegment, stills)
	}

	names := e.findEffects(ctx, cfg.Style)

	var targets []string
	if len(textSegments) > 0 {
		targets = append(targets, textSegments[0])
	}

	if len(imageSegments) > 0 {
		targets = append(targets, imageSegments[0])
	}

	e.applyEffects(ctx, targets, names)
	e.export(ctx, cfg, "png")

	e.result.Success = true

	return e.result, nil
}
