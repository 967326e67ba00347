// Package steps holds the built-in workflow step handlers.
package steps

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/dukex/studioflow/pkg/models"
	"github.com/dukex/studioflow/pkg/protocol"
)

var (
	ErrMissingConfig    = errors.New("step config missing")
	ErrProductionFailed = errors.New("production failed")
)

// Output keys shared by the handlers.
const (
	OutputKind          = "kind"
	OutputTitle         = "title"
	OutputContainerID   = "container_id"
	OutputExportPath    = "export_path"
	OutputSegmentCount  = "segment_count"
	OutputEffectCount   = "effect_count"
	OutputDuration      = "estimated_duration"
	OutputArtifacts     = "artifacts"
	OutputDependencies  = "dependencies"
	OutputRevenue       = "expected_revenue"
	OutputPlatforms     = "platforms"
	OutputSuggestions   = "suggestions"
	OutputDistributions = "distribution_plan"
)

// Producer runs the production pipeline. *pipeline.Pipeline satisfies it.
type Producer interface {
	CreateContentArtifact(ctx context.Context, cfg models.ProductionConfig) (*models.PipelineResult, error)
}

// Planner builds monetization plans. *monetization.Planner satisfies it.
type Planner interface {
	Plan(cfg models.MonetizationConfig) (*models.MonetizationPlan, error)
}

// Defaults returns one handler per built-in step kind.
func Defaults(producer Producer, planner Planner, opts ...AnalysisOption) []protocol.StepHandler {
	return []protocol.StepHandler{
		NewDesignHandler(producer),
		NewVideoHandler(producer),
		NewAnalysisHandler(opts...),
		NewOptimizationHandler(planner),
	}
}

func produce(ctx context.Context, producer Producer, cfg models.ProductionConfig) (map[string]any, error) {
	result, err := producer.CreateContentArtifact(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrProductionFailed, err)
	}

	if !result.Success {
		return nil, fmt.Errorf("%w: %s", ErrProductionFailed, result.Error)
	}

	return map[string]any{
		OutputKind:         string(result.Kind),
		OutputTitle:        result.Title,
		OutputContainerID:  result.ContainerID,
		OutputExportPath:   result.ExportPath,
		OutputSegmentCount: len(result.SegmentIDs),
		OutputEffectCount:  len(result.AppliedEffects),
		OutputDuration:     result.EstimatedTotalDuration,
	}, nil
}

// artifactsOf extracts the artifact paths a step output carries, either as a
// single export path or as a collected list. Outputs reloaded from JSON hold
// []any instead of []string.
func artifactsOf(output map[string]any) []string {
	var artifacts []string

	if path, ok := output[OutputExportPath].(string); ok && path != "" {
		artifacts = append(artifacts, path)
	}

	switch list := output[OutputArtifacts].(type) {
	case []string:
		artifacts = append(artifacts, list...)
	case []any:
		for _, item := range list {
			if path, ok := item.(string); ok && path != "" {
				artifacts = append(artifacts, path)
			}
		}
	}

	return artifacts
}

// collectArtifacts gathers artifact paths from outputs keyed by step ID, in
// step ID order, without duplicates.
func collectArtifacts(outputs map[string]map[string]any) []string {
	artifacts := []string{}

	for _, id := range slices.Sorted(maps.Keys(outputs)) {
		for _, path := range artifactsOf(outputs[id]) {
			if !slices.Contains(artifacts, path) {
				artifacts = append(artifacts, path)
			}
		}
	}

	return artifacts
}
