package adapter

import (
	"context"
	"fmt"
	"hash/fnv"
	"path/filepath"
	"strings"
	"time"

	"github.com/dukex/studioflow/pkg/models"
	"github.com/dukex/studioflow/pkg/protocol"
)

// DefaultRuleset is what the simulator answers to get_ruleset.
const DefaultRuleset = `# Production rules
- Keep the first 3 seconds visually strong.
- Captions stay inside the central 80% safe area.
- Music ducks 12dB under speech.
- Export at the canvas native resolution.`

var effectCatalog = map[string][]string{
	"transition":     {"fade", "dissolve", "slide"},
	"filter":         {"warm", "mono", "vivid"},
	"text_animation": {"typewriter", "pop", "fade_in"},
	"motion":         {"zoom_in", "ken_burns", "shake"},
	"beat":           {"flash", "pulse", "cut_on_beat"},
}

// Simulator fabricates internally consistent responses when no live backend
// is attached.
type Simulator struct {
	ids       *IDGenerator
	latency   protocol.LatencyModel
	outputDir string
}

func NewSimulator(ids *IDGenerator, latency protocol.LatencyModel, outputDir string) *Simulator {
	return &Simulator{
		ids:       ids,
		latency:   latency,
		outputDir: outputDir,
	}
}

// Execute answers a command after the simulated latency.
func (s *Simulator) Execute(ctx context.Context, op models.Operation, params map[string]any) models.CommandResponse {
	if err := s.wait(ctx, op); err != nil {
		return models.NewFailureResponse(fmt.Sprintf("simulated %s interrupted: %v", op, err))
	}

	switch op {
	case models.OperationCreateDraft:
		return s.createDraft(params)
	case models.OperationCreateTrack:
		return s.createTrack(params)
	case models.OperationAddVideoSegment, models.OperationAddAudioSegment, models.OperationAddTextSegment:
		return s.addSegment(op, params)
	case models.OperationFindEffectsByCategory:
		return s.findEffects(params)
	case models.OperationApplyEffect:
		return s.applyEffect(params)
	case models.OperationParseMediaMetadata:
		return s.parseMediaMetadata(params)
	case models.OperationExportDraft:
		return s.exportDraft(params)
	case models.OperationGetRuleset:
		return models.NewSuccessResponse(map[string]any{"rules": DefaultRuleset}, nil)
	default:
		return models.NewSuccessResponse(map[string]any{
			"operation":  string(op),
			"parameters": params,
			"simulated":  true,
		}, nil)
	}
}

func (s *Simulator) wait(ctx context.Context, op models.Operation) error {
	if s.latency == nil {
		return ctx.Err()
	}

	delay := s.latency.Delay(op)
	if delay <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (s *Simulator) createDraft(params map[string]any) models.CommandResponse {
	draftID := s.ids.Next("draft")

	return models.NewSuccessResponse(map[string]any{
		"draft_id": draftID,
		"name":     stringParam(params, "name", "untitled"),
		"width":    intParam(params, "width", 1920),
		"height":   intParam(params, "height", 1080),
		"fps":      floatParam(params, "fps", 30),
	}, map[models.IDRole]string{models.IDRoleDraft: draftID})
}

func (s *Simulator) createTrack(params map[string]any) models.CommandResponse {
	trackID := s.ids.Next("track")

	return models.NewSuccessResponse(map[string]any{
		"track_id":   trackID,
		"draft_id":   stringParam(params, "draft_id", ""),
		"track_type": stringParam(params, "track_type", string(models.TrackTypeVideo)),
	}, map[models.IDRole]string{models.IDRoleTrack: trackID})
}

func (s *Simulator) addSegment(op models.Operation, params map[string]any) models.CommandResponse {
	segmentID := s.ids.Next("segment")

	result := map[string]any{
		"segment_id": segmentID,
		"track_id":   stringParam(params, "track_id", ""),
		"start":      floatParam(params, "start", 0),
		"duration":   floatParam(params, "duration", 0),
	}

	if op == models.OperationAddTextSegment {
		result["text"] = stringParam(params, "text", "")
	} else {
		result["material"] = stringParam(params, "material", "")
	}

	return models.NewSuccessResponse(result, map[models.IDRole]string{models.IDRoleSegment: segmentID})
}

func (s *Simulator) findEffects(params map[string]any) models.CommandResponse {
	category := stringParam(params, "category", "")

	names, ok := effectCatalog[category]
	if !ok {
		names = []string{"basic"}
	}

	effects := make([]any, 0, len(names))
	for _, name := range names {
		effects = append(effects, map[string]any{
			"effect_id": "fx_" + name,
			"name":      name,
			"category":  category,
		})
	}

	return models.NewSuccessResponse(map[string]any{
		"category": category,
		"effects":  effects,
	}, nil)
}

func (s *Simulator) applyEffect(params map[string]any) models.CommandResponse {
	effectID := s.ids.Next("effect")

	return models.NewSuccessResponse(map[string]any{
		"effect_id":   effectID,
		"segment_id":  stringParam(params, "segment_id", ""),
		"effect_type": stringParam(params, "effect_type", ""),
	}, map[models.IDRole]string{models.IDRoleEffect: effectID})
}

// parseMediaMetadata derives stable, plausible metadata from the path so
// repeated probes of the same file agree.
func (s *Simulator) parseMediaMetadata(params map[string]any) models.CommandResponse {
	path := stringParam(params, "path", "")

	h := fnv.New32a()
	_, _ = h.Write([]byte(path))

	format := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	if format == "" {
		format = "mp4"
	}

	return models.NewSuccessResponse(map[string]any{
		"path":       path,
		"duration":   float64(30 + h.Sum32()%151),
		"frame_rate": 30.0,
		"format":     format,
		"width":      1920,
		"height":     1080,
	}, nil)
}

func (s *Simulator) exportDraft(params map[string]any) models.CommandResponse {
	draftID := stringParam(params, "draft_id", "")
	format := stringParam(params, "format", "mp4")

	exportPath := stringParam(params, "export_path", "")
	if exportPath == "" {
		exportPath = filepath.Join(s.outputDir, draftID+"."+format)
	}

	return models.NewSuccessResponse(map[string]any{
		"draft_id":    draftID,
		"export_path": exportPath,
		"format":      format,
	}, nil)
}

func stringParam(params map[string]any, key, fallback string) string {
	switch v := params[key].(type) {
	case string:
		if v != "" {
			return v
		}
	case models.TrackType:
		if v != "" {
			return string(v)
		}
	}

	return fallback
}

func floatParam(params map[string]any, key string, fallback float64) float64 {
	switch v := params[key].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	}

	return fallback
}

func intParam(params map[string]any, key string, fallback int) int {
	switch v := params[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}

	return fallback
}
