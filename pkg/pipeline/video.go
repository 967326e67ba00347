package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dukex/studioflow/pkg/media"
	"github.com/dukex/studioflow/pkg/models"
)

const titleCardSeconds = 3.0

func (p *Pipeline) runVideo(ctx context.Context, cfg models.ProductionConfig) (*models.PipelineResult, error) {
	e := p.newExecution(models.ContentKindVideo, cfg.Title)

	if err := p.validateConfig(cfg); err != nil {
		return e.failValidation(ctx, err)
	}

	e.fetchRules(ctx)

	sources := e.analyzeInputs(ctx, cfg.Sources)
	timeline := e.selectHighlights(ctx, sources, cfg)

	if err := e.createDraft(ctx, cfg); err != nil {
		return e.abort(err), err
	}

	total := e.result.EstimatedTotalDuration

	_ = e.createTrack(ctx, models.TrackTypeVideo)
	videoSegments := e.addSegments(ctx, "add_video_segments", models.OperationAddVideoSegment, videoSegmentParams(timeline))

	if cfg.MusicStyle != "" {
		_ = e.createTrack(ctx, models.TrackTypeAudio)
		e.addSegments(ctx, "add_audio_segment", models.OperationAddAudioSegment, []map[string]any{{
			"material": cfg.MusicStyle,
			"start":    0.0,
			"duration": total,
		}})
	}

	if cfg.Captions {
		_ = e.createTrack(ctx, models.TrackTypeText)
		e.addSegments(ctx, "add_text_segments", models.OperationAddTextSegment, captionParams(cfg.Title, timeline))
	}

	names := e.findEffects(ctx, cfg.Style)

	targets := videoSegments
	if len(targets) == 0 && len(e.result.SegmentIDs) > 0 {
		targets = e.result.SegmentIDs[:1]
	}

	e.applyEffects(ctx, targets, names)
	e.export(ctx, cfg, "mp4")

	e.result.Success = true

	return e.result, nil
}

func (e *execution) analyzeInputs(ctx context.Context, paths []string) []models.MediaMetadata {
	sources := make([]models.MediaMetadata, 0, len(paths))

	_ = e.stage(ctx, "analyze_inputs", func(ctx context.Context) (map[string]any, error) {
		fallbacks := 0
		total := 0.0

		for _, path := range paths {
			meta, err := e.p.probe.Probe(ctx, path)
			if err != nil {
				meta = media.Defaults(path)
			}

			if meta.Fallback {
				fallbacks++
			}

			total += meta.Duration
			sources = append(sources, meta)
		}

		return map[string]any{
			"sources":        len(sources),
			"fallbacks":      fallbacks,
			"total_duration": total,
		}, nil
	})

	return sources
}

func (e *execution) selectHighlights(ctx context.Context, sources []models.MediaMetadata, cfg models.ProductionConfig) []models.TimelineWindow {
	timeline := e.p.selector.Select(sources, cfg.Style, cfg.TargetDuration)

	e.result.DerivedTimeline = timeline
	e.result.EstimatedTotalDuration = TotalDuration(timeline)

	_ = e.stage(ctx, "select_highlights", func(context.Context) (map[string]any, error) {
		if len(timeline) == 0 {
			return nil, errors.New("no highlight windows selected")
		}

		return map[string]any{
			"windows":            len(timeline),
			"estimated_duration": e.result.EstimatedTotalDuration,
			"target_duration":    cfg.TargetDuration,
		}, nil
	})

	return timeline
}

func videoSegmentParams(timeline []models.TimelineWindow) []map[string]any {
	params := make([]map[string]any, 0, len(timeline))

	for _, w := range timeline {
		params = append(params, map[string]any{
			"material":     w.Source,
			"start":        w.TimelineStart,
			"duration":     w.Duration,
			"source_start": w.Start,
		})
	}

	return params
}

// captionParams opens with a title card and captions each highlight with
// the name of its source.
func captionParams(title string, timeline []models.TimelineWindow) []map[string]any {
	total := TotalDuration(timeline)
	params := []map[string]any{{
		"text":     title,
		"start":    0.0,
		"duration": min(titleCardSeconds, total),
	}}

	for i, w := range timeline {
		name := strings.TrimSuffix(filepath.Base(w.Source), filepath.Ext(w.Source))

		params = append(params, map[string]any{
			"text":     fmt.Sprintf("%d. %s", i+1, name),
			"start":    w.TimelineStart,
			"duration": w.Duration,
		})
	}

	return params
}
