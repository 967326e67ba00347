package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/dukex/studioflow/pkg/models"
	"github.com/dukex/studioflow/pkg/template"
)

const maxEffectsPerRun = 3

type effectPlan struct {
	category string
	fallback []string
}

var styleEffects = map[models.Style]effectPlan{
	models.StyleEducation: {category: "text_animation", fallback: []string{"typewriter"}},
	models.StyleVlog:      {category: "filter", fallback: []string{"warm"}},
	models.StyleCinematic: {category: "transition", fallback: []string{"dissolve"}},
	models.StylePromo:     {category: "motion", fallback: []string{"zoom_in"}},
	models.StyleMusic:     {category: "beat", fallback: []string{"flash"}},
}

func effectsFor(style models.Style) effectPlan {
	if plan, ok := styleEffects[style]; ok {
		return plan
	}

	return effectPlan{category: "transition", fallback: []string{"fade"}}
}

var errNoSegments = errors.New("no segment to apply effects to")

func (e *execution) fetchRules(ctx context.Context) {
	_ = e.stage(ctx, "fetch_rules", func(ctx context.Context) (map[string]any, error) {
		ruleset, err := e.p.rules.FetchRules(ctx)
		if err != nil {
			return nil, err
		}

		return map[string]any{"rules": ruleset}, nil
	})
}

// createDraft is the only fatal stage: nothing else can attach without it.
func (e *execution) createDraft(ctx context.Context, cfg models.ProductionConfig) error {
	width, height := cfg.EffectiveAspectRatio().Dimensions()

	err := e.stage(ctx, "create_draft", func(ctx context.Context) (map[string]any, error) {
		resp := e.send(ctx, models.OperationCreateDraft, map[string]any{
			"name":   cfg.Title,
			"width":  width,
			"height": height,
		})
		if err := responseError(models.OperationCreateDraft, resp); err != nil {
			return nil, err
		}

		draftID := resp.IDFor(models.IDRoleDraft)
		if draftID == "" {
			return nil, errors.New("create_draft returned no draft id")
		}

		e.result.ContainerID = draftID

		return resp.Result, nil
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrContainerCreation, err)
	}

	return nil
}

func (e *execution) createTrack(ctx context.Context, trackType models.TrackType) error {
	return e.stage(ctx, "create_"+string(trackType)+"_track", func(ctx context.Context) (map[string]any, error) {
		resp := e.send(ctx, models.OperationCreateTrack, map[string]any{"track_type": string(trackType)})
		if err := responseError(models.OperationCreateTrack, resp); err != nil {
			// Later segments must not attach to an older track.
			delete(e.last, models.IDRoleTrack)

			return nil, err
		}

		e.result.SubContainerIDs[string(trackType)] = resp.IDFor(models.IDRoleTrack)

		return resp.Result, nil
	})
}

// addSegments adds every segment of one stage. A failed segment is recorded
// and the remaining segments are still attempted.
func (e *execution) addSegments(ctx context.Context, name string, op models.Operation, segments []map[string]any) []string {
	var added []string

	_ = e.stage(ctx, name, func(ctx context.Context) (map[string]any, error) {
		var errs []error

		for _, params := range segments {
			resp := e.send(ctx, op, params)
			if err := responseError(op, resp); err != nil {
				errs = append(errs, err)

				continue
			}

			id := resp.IDFor(models.IDRoleSegment)
			added = append(added, id)
			e.result.SegmentIDs = append(e.result.SegmentIDs, id)
		}

		if err := errors.Join(errs...); err != nil {
			return nil, err
		}

		return map[string]any{"segment_ids": added, "count": len(added)}, nil
	})

	return added
}

func (e *execution) findEffects(ctx context.Context, style models.Style) []string {
	plan := effectsFor(style)
	names := plan.fallback

	_ = e.stage(ctx, "find_effects", func(ctx context.Context) (map[string]any, error) {
		resp := e.send(ctx, models.OperationFindEffectsByCategory, map[string]any{"category": plan.category})
		if err := responseError(models.OperationFindEffectsByCategory, resp); err != nil {
			return nil, err
		}

		if found := effectNames(resp.Result["effects"]); len(found) > 0 {
			names = found
		}

		return map[string]any{"category": plan.category, "effects": names}, nil
	})

	return names
}

func effectNames(raw any) []string {
	list, ok := raw.([]any)
	if !ok {
		return nil
	}

	var names []string

	for _, item := range list {
		switch v := item.(type) {
		case string:
			names = append(names, v)
		case map[string]any:
			if name, ok := v["name"].(string); ok && name != "" {
				names = append(names, name)
			}
		}
	}

	return names
}

// applyEffects attaches effects to the given segments, at most
// maxEffectsPerRun, cycling through the available effect names.
func (e *execution) applyEffects(ctx context.Context, segments []string, names []string) {
	_ = e.stage(ctx, "apply_effects", func(ctx context.Context) (map[string]any, error) {
		if len(segments) == 0 {
			return nil, errNoSegments
		}

		if len(segments) > maxEffectsPerRun {
			segments = segments[:maxEffectsPerRun]
		}

		var errs []error

		for i, segmentID := range segments {
			effectType := names[i%len(names)]

			resp := e.send(ctx, models.OperationApplyEffect, map[string]any{
				"segment_id":  segmentID,
				"effect_type": effectType,
			})
			if err := responseError(models.OperationApplyEffect, resp); err != nil {
				errs = append(errs, err)

				continue
			}

			e.result.AppliedEffects = append(e.result.AppliedEffects, models.AppliedEffect{
				EffectID:   resp.IDFor(models.IDRoleEffect),
				EffectType: effectType,
				SegmentID:  segmentID,
			})
		}

		if err := errors.Join(errs...); err != nil {
			return nil, err
		}

		return map[string]any{"applied": len(e.result.AppliedEffects)}, nil
	})
}

func (e *execution) export(ctx context.Context, cfg models.ProductionConfig, format string) {
	_ = e.stage(ctx, "export", func(ctx context.Context) (map[string]any, error) {
		exportPath := cfg.ExportPath
		if exportPath == "" {
			var err error

			exportPath, err = template.ExportPath(e.p.exportPattern, template.ExportData{
				OutputDir:   e.p.outputDir,
				DraftID:     e.result.ContainerID,
				ContainerID: e.result.ContainerID,
				Title:       cfg.Title,
				Kind:        string(cfg.EffectiveKind()),
				Style:       string(cfg.Style),
				Ext:         format,
			})
			if err != nil {
				return nil, err
			}
		}

		resp := e.send(ctx, models.OperationExportDraft, map[string]any{
			"export_path": exportPath,
			"format":      format,
		})
		if err := responseError(models.OperationExportDraft, resp); err != nil {
			return nil, err
		}

		if path, ok := resp.Result["export_path"].(string); ok && path != "" {
			exportPath = path
		}

		e.result.ExportPath = exportPath

		return resp.Result, nil
	})
}
