package adapter

import (
	"fmt"
	"strings"

	"github.com/dukex/studioflow/pkg/models"
	"github.com/xeipuuv/gojsonschema"
)

func idProperty(description string) map[string]any {
	return map[string]any{"type": "string", "minLength": 1, "description": description}
}

func segmentSchema(contentKey, contentDescription string) map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"track_id": idProperty("Track receiving the segment"),
			contentKey: map[string]any{"type": "string", "minLength": 1, "description": contentDescription},
			"start":    map[string]any{"type": "number", "minimum": 0},
			"duration": map[string]any{"type": "number", "minimum": 0},
		},
		"required": []string{"track_id", contentKey},
	}
}

// operationSchemas returns the JSON schema of each operation's parameters.
func operationSchemas() map[models.Operation]map[string]any {
	return map[models.Operation]map[string]any{
		models.OperationCreateDraft: {
			"type": "object",
			"properties": map[string]any{
				"name":   map[string]any{"type": "string", "minLength": 1},
				"width":  map[string]any{"type": "integer", "minimum": 1},
				"height": map[string]any{"type": "integer", "minimum": 1},
				"fps":    map[string]any{"type": "number", "minimum": 1},
			},
			"required": []string{"name"},
		},
		models.OperationCreateTrack: {
			"type": "object",
			"properties": map[string]any{
				"draft_id":   idProperty("Draft owning the track"),
				"track_type": map[string]any{"type": "string", "enum": []string{"video", "audio", "text"}},
			},
			"required": []string{"draft_id", "track_type"},
		},
		models.OperationAddVideoSegment: segmentSchema("material", "Path of the video or image source"),
		models.OperationAddAudioSegment: segmentSchema("material", "Path or style tag of the audio source"),
		models.OperationAddTextSegment:  segmentSchema("text", "Overlay text"),
		models.OperationFindEffectsByCategory: {
			"type": "object",
			"properties": map[string]any{
				"category": map[string]any{"type": "string", "minLength": 1},
			},
			"required": []string{"category"},
		},
		models.OperationApplyEffect: {
			"type": "object",
			"properties": map[string]any{
				"segment_id":  idProperty("Segment receiving the effect"),
				"effect_type": map[string]any{"type": "string", "minLength": 1},
			},
			"required": []string{"segment_id", "effect_type"},
		},
		models.OperationParseMediaMetadata: {
			"type": "object",
			"properties": map[string]any{
				"path": map[string]any{"type": "string", "minLength": 1},
			},
			"required": []string{"path"},
		},
		models.OperationExportDraft: {
			"type": "object",
			"properties": map[string]any{
				"draft_id":    idProperty("Draft to export"),
				"export_path": map[string]any{"type": "string"},
				"format":      map[string]any{"type": "string", "enum": []string{"mp4", "mov", "png", "jpg"}},
			},
			"required": []string{"draft_id"},
		},
		models.OperationGetRuleset: {
			"type": "object",
		},
	}
}

// Schemas validates command parameters against per-operation JSON schemas.
type Schemas struct {
	compiled map[models.Operation]*gojsonschema.Schema
}

func NewSchemas() (*Schemas, error) {
	compiled := make(map[models.Operation]*gojsonschema.Schema)

	for op, schema := range operationSchemas() {
		s, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(schema))
		if err != nil {
			return nil, fmt.Errorf("failed to compile schema for %s: %w", op, err)
		}

		compiled[op] = s
	}

	return &Schemas{compiled: compiled}, nil
}

// Schema returns the raw schema of an operation, if it is known.
func (s *Schemas) Schema(op models.Operation) (map[string]any, bool) {
	schema, ok := operationSchemas()[op]

	return schema, ok
}

// Validate checks params against the schema of op. Unknown operations pass.
func (s *Schemas) Validate(op models.Operation, params map[string]any) error {
	schema, ok := s.compiled[op]
	if !ok {
		return nil
	}

	result, err := schema.Validate(gojsonschema.NewGoLoader(params))
	if err != nil {
		return fmt.Errorf("failed to validate parameters for %s: %w", op, err)
	}

	if !result.Valid() {
		var errs []string
		for _, e := range result.Errors() {
			errs = append(errs, e.String())
		}

		return fmt.Errorf("invalid parameters for %s: %s", op, strings.Join(errs, "; "))
	}

	return nil
}
