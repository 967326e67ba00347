// Package testutil provides test data builders and utilities for testing.
package testutil

import (
	"time"

	"github.com/dukex/studioflow/pkg/models"
	"github.com/google/uuid"
)

// CreateTestProductionConfig creates a valid video ProductionConfig with
// default values that can be overridden.
func CreateTestProductionConfig(overrides ...func(*models.ProductionConfig)) models.ProductionConfig {
	cfg := models.ProductionConfig{
		Kind:           models.ContentKindVideo,
		Title:          "Test Production",
		Style:          models.StyleEducation,
		TargetDuration: 60,
		AspectRatio:    models.AspectLandscape,
		Sources:        []string{"clips/a.mp4", "clips/b.mp4", "clips/c.mp4"},
	}

	for _, override := range overrides {
		override(&cfg)
	}

	return cfg
}

// AsPoster configures the production as a poster.
func AsPoster() func(*models.ProductionConfig) {
	return func(c *models.ProductionConfig) {
		c.Kind = models.ContentKindPoster
		c.AspectRatio = models.AspectFeed
		c.TargetDuration = 0
	}
}

// WithStyle sets the production style.
func WithStyle(style models.Style) func(*models.ProductionConfig) {
	return func(c *models.ProductionConfig) {
		c.Style = style
	}
}

// WithSources replaces the production sources.
func WithSources(sources ...string) func(*models.ProductionConfig) {
	return func(c *models.ProductionConfig) {
		c.Sources = sources
	}
}

// CreateTestWorkflow creates a pending workflow with the given steps.
func CreateTestWorkflow(steps ...*models.Step) *models.Workflow {
	now := time.Now().UTC()

	return &models.Workflow{
		ID:          uuid.New().String(),
		Name:        "Test Workflow",
		ContentType: models.ContentTypeCampaign,
		Status:      models.WorkflowStatusPending,
		Steps:       steps,
		Config:      models.WorkflowConfig{ContentType: models.ContentTypeCampaign, Name: "Test Workflow"},
		Report:      []models.ExecutionRecord{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// CreateTestStep creates a step of the given kind and dependencies.
func CreateTestStep(id string, kind models.StepKind, deps ...string) *models.Step {
	if deps == nil {
		deps = []string{}
	}

	return &models.Step{
		ID:           id,
		Kind:         kind,
		Description:  string(kind) + " step",
		Dependencies: deps,
	}
}
