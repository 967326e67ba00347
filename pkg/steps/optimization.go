package steps

import (
	"context"
	"fmt"
	"slices"

	"github.com/dukex/studioflow/pkg/models"
	"github.com/dukex/studioflow/pkg/protocol"
)

// OptimizationHandler plans monetization for the artifacts produced by the
// workflow's completed steps.
type OptimizationHandler struct {
	planner Planner
}

func NewOptimizationHandler(planner Planner) *OptimizationHandler {
	return &OptimizationHandler{planner: planner}
}

func (h *OptimizationHandler) Kind() models.StepKind {
	return models.StepKindOptimization
}

func (h *OptimizationHandler) Handle(_ context.Context, sc protocol.StepContext) (map[string]any, error) {
	var cfg models.MonetizationConfig
	if sc.Config.Monetization != nil {
		cfg = *sc.Config.Monetization
		cfg.Platforms = slices.Clone(cfg.Platforms)
		cfg.Artifacts = slices.Clone(cfg.Artifacts)
	}

	if cfg.Title == "" {
		cfg.Title = sc.WorkflowName
	}

	for _, path := range collectArtifacts(sc.Outputs) {
		if !slices.Contains(cfg.Artifacts, path) {
			cfg.Artifacts = append(cfg.Artifacts, path)
		}
	}

	plan, err := h.planner.Plan(cfg)
	if err != nil {
		return nil, fmt.Errorf("monetization planning failed: %w", err)
	}

	platforms := make([]string, 0, len(plan.DistributionPlan))
	for _, d := range plan.DistributionPlan {
		platforms = append(platforms, d.Platform)
	}

	return map[string]any{
		OutputRevenue:       plan.ExpectedRevenue,
		OutputPlatforms:     platforms,
		OutputSuggestions:   plan.Suggestions,
		OutputArtifacts:     cfg.Artifacts,
		OutputDistributions: plan.DistributionPlan,
	}, nil
}
