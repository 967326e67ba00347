package adapter

import (
	"context"

	"github.com/dukex/studioflow/pkg/models"
)

func (a *Adapter) CreateDraft(ctx context.Context, name string, width, height int) models.CommandResponse {
	return a.Send(ctx, models.OperationCreateDraft, map[string]any{
		"name":   name,
		"width":  width,
		"height": height,
	})
}

func (a *Adapter) CreateTrack(ctx context.Context, draftID string, trackType models.TrackType) models.CommandResponse {
	return a.Send(ctx, models.OperationCreateTrack, map[string]any{
		"draft_id":   draftID,
		"track_type": string(trackType),
	})
}

func (a *Adapter) AddVideoSegment(ctx context.Context, trackID, material string, start, duration float64) models.CommandResponse {
	return a.Send(ctx, models.OperationAddVideoSegment, map[string]any{
		"track_id": trackID,
		"material": material,
		"start":    start,
		"duration": duration,
	})
}

func (a *Adapter) AddAudioSegment(ctx context.Context, trackID, material string, start, duration float64) models.CommandResponse {
	return a.Send(ctx, models.OperationAddAudioSegment, map[string]any{
		"track_id": trackID,
		"material": material,
		"start":    start,
		"duration": duration,
	})
}

func (a *Adapter) AddTextSegment(ctx context.Context, trackID, text string, start, duration float64) models.CommandResponse {
	return a.Send(ctx, models.OperationAddTextSegment, map[string]any{
		"track_id": trackID,
		"text":     text,
		"start":    start,
		"duration": duration,
	})
}

func (a *Adapter) FindEffectsByCategory(ctx context.Context, category string) models.CommandResponse {
	return a.Send(ctx, models.OperationFindEffectsByCategory, map[string]any{"category": category})
}

func (a *Adapter) ApplyEffect(ctx context.Context, segmentID, effectType string) models.CommandResponse {
	return a.Send(ctx, models.OperationApplyEffect, map[string]any{
		"segment_id":  segmentID,
		"effect_type": effectType,
	})
}

func (a *Adapter) ParseMediaMetadata(ctx context.Context, path string) models.CommandResponse {
	return a.Send(ctx, models.OperationParseMediaMetadata, map[string]any{"path": path})
}

// ExportDraft exports a draft. An empty exportPath lets the backend choose.
func (a *Adapter) ExportDraft(ctx context.Context, draftID, exportPath, format string) models.CommandResponse {
	params := map[string]any{"draft_id": draftID}
	if exportPath != "" {
		params["export_path"] = exportPath
	}

	if format != "" {
		params["format"] = format
	}

	return a.Send(ctx, models.OperationExportDraft, params)
}

func (a *Adapter) GetRuleset(ctx context.Context) models.CommandResponse {
	return a.Send(ctx, models.OperationGetRuleset, nil)
}
