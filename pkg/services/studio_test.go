package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dukex/studioflow/pkg/adapter"
	"github.com/dukex/studioflow/pkg/log"
	"github.com/dukex/studioflow/pkg/models"
	"github.com/dukex/studioflow/pkg/monetization"
	"github.com/dukex/studioflow/pkg/persistence"
	"github.com/dukex/studioflow/pkg/persistence/memory"
	"github.com/dukex/studioflow/pkg/pipeline"
	"github.com/dukex/studioflow/pkg/registry"
	"github.com/dukex/studioflow/pkg/services"
	"github.com/dukex/studioflow/pkg/steps"
	"github.com/dukex/studioflow/pkg/testutil"
	"github.com/dukex/studioflow/pkg/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type studioFixture struct {
	studio  *services.Studio
	adapter *adapter.Adapter
	store   *memory.Persistence
}

func newStudio(t *testing.T) *studioFixture {
	t.Helper()

	a, err := adapter.New(
		adapter.WithLogger(log.Discard()),
		adapter.WithLatency(adapter.FixedLatency(0)),
		adapter.WithPaths(t.TempDir(), "out"),
	)
	require.NoError(t, err)

	p := pipeline.New(a, pipeline.WithLogger(log.Discard()))
	planner := monetization.NewPlanner()

	reg := registry.NewRegistry(log.Discard())
	for _, h := range steps.Defaults(p, planner, steps.WithAnalysisDelay(0)) {
		reg.Register(h)
	}

	store := memory.NewPersistence()
	engine := workflow.NewEngine(store, reg, workflow.WithLogger(log.Discard()))

	studio := services.NewStudio(p, engine, planner, store,
		services.WithAdapter(a),
		services.WithLogger(log.Discard()),
	)

	return &studioFixture{studio: studio, adapter: a, store: store}
}

func waitForStatus(t *testing.T, studio *services.Studio, id string) *models.Workflow {
	t.Helper()

	studio.Wait()

	wf, err := studio.GetWorkflowStatus(t.Context(), id)
	require.NoError(t, err)

	return wf
}

func TestStudio_CreateContentArtifact(t *testing.T) {
	f := newStudio(t)

	result, err := f.studio.CreateContentArtifact(t.Context(), testutil.CreateTestProductionConfig())
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, models.ContentKindVideo, result.Kind)
	assert.NotEmpty(t, result.ContainerID)
	assert.NotEmpty(t, result.ExportPath)
}

func TestStudio_CreateContentArtifact_InvalidConfig(t *testing.T) {
	f := newStudio(t)

	tests := []struct {
		name   string
		mutate func(*models.ProductionConfig)
	}{
		{"missing title", func(c *models.ProductionConfig) { c.Title = "" }},
		{"unknown style", func(c *models.ProductionConfig) { c.Style = "noir" }},
		{"video without sources", func(c *models.ProductionConfig) { c.Sources = nil }},
		{"video without duration", func(c *models.ProductionConfig) { c.TargetDuration = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := f.studio.CreateContentArtifact(t.Context(), testutil.CreateTestProductionConfig(tt.mutate))
			require.Error(t, err)

			assert.True(t, services.IsValidationError(err))
			require.ErrorIs(t, err, pipeline.ErrInvalidConfig)
			require.NotNil(t, result)
			assert.False(t, result.Success)

			var serviceErr *services.ServiceError
			require.ErrorAs(t, err, &serviceErr)
			assert.Equal(t, "invalid_config", serviceErr.Code)
		})
	}
}

func TestStudio_CreateContentArtifacts(t *testing.T) {
	f := newStudio(t)

	results, err := f.studio.CreateContentArtifacts(t.Context(), []models.ProductionConfig{
		testutil.CreateTestProductionConfig(),
		testutil.CreateTestProductionConfig(testutil.AsPoster()),
		testutil.CreateTestProductionConfig(func(c *models.ProductionConfig) { c.Title = "" }),
	})
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.True(t, results[0].Success)
	assert.Equal(t, models.ContentKindPoster, results[1].Kind)
	assert.True(t, results[1].Success)
	assert.False(t, results[2].Success)
	assert.NotEmpty(t, results[2].Error)
}

func TestStudio_CreateContentArtifacts_EmptyBatch(t *testing.T) {
	f := newStudio(t)

	_, err := f.studio.CreateContentArtifacts(t.Context(), nil)

	require.ErrorIs(t, err, services.ErrEmptyBatch)
	assert.True(t, services.IsValidationError(err))
}

func TestStudio_CampaignWorkflow(t *testing.T) {
	f := newStudio(t)

	design := testutil.CreateTestProductionConfig(testutil.AsPoster())
	video := testutil.CreateTestProductionConfig()

	started, err := f.studio.StartWorkflow(t.Context(), models.WorkflowConfig{
		ContentType: models.ContentTypeCampaign,
		Name:        "Launch",
		Design:      &design,
		Video:       &video,
		Monetization: &models.MonetizationConfig{
			Platforms:    []string{"youtube", "instagram"},
			AudienceSize: 5000,
			ProductPrice: 19.9,
		},
	})
	require.NoError(t, err)
	require.NotEmpty(t, started.WorkflowID)
	require.Len(t, started.Steps, 4)

	wf := waitForStatus(t, f.studio, started.WorkflowID)

	assert.Equal(t, models.WorkflowStatusCompleted, wf.Status)
	assert.NotNil(t, wf.CompletedAt)

	for _, step := range wf.Steps {
		assert.True(t, step.Completed, step.ID)
		assert.NotEmpty(t, step.Result, step.ID)
	}

	optimization := wf.Steps[3]
	assert.Equal(t, models.StepKindOptimization, optimization.Kind)
	assert.NotNil(t, optimization.Result[steps.OutputDistributions])
}

func TestStudio_StartWorkflow_Validation(t *testing.T) {
	f := newStudio(t)

	tests := []struct {
		name string
		cfg  models.WorkflowConfig
	}{
		{"unknown content type", models.WorkflowConfig{ContentType: "podcast"}},
		{"invalid monetization", models.WorkflowConfig{
			ContentType:  models.ContentTypeCampaign,
			Monetization: &models.MonetizationConfig{AudienceSize: -1},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.studio.StartWorkflow(t.Context(), tt.cfg)

			require.Error(t, err)
			assert.True(t, services.IsValidationError(err))
		})
	}

	workflows, err := f.studio.ListWorkflows(t.Context())
	require.NoError(t, err)
	assert.Empty(t, workflows)
}

func TestStudio_VideoWorkflowWithoutConfigFails(t *testing.T) {
	f := newStudio(t)

	started, err := f.studio.StartWorkflow(t.Context(), models.WorkflowConfig{ContentType: models.ContentTypeVideo})
	require.NoError(t, err)

	wf := waitForStatus(t, f.studio, started.WorkflowID)

	assert.Equal(t, models.WorkflowStatusError, wf.Status)
	assert.Contains(t, wf.Steps[0].Error, steps.ErrMissingConfig.Error())
}

func TestStudio_GetWorkflowStatus_NotFound(t *testing.T) {
	f := newStudio(t)

	_, err := f.studio.GetWorkflowStatus(t.Context(), "missing")

	require.Error(t, err)
	assert.True(t, services.IsWorkflowNotFound(err))
	assert.True(t, persistence.IsWorkflowNotFound(err))
}

func TestStudio_PlanMonetization(t *testing.T) {
	f := newStudio(t)

	plan, err := f.studio.PlanMonetization(t.Context(), models.MonetizationConfig{
		Title:        "Course",
		Platforms:    []string{"youtube"},
		AudienceSize: 1000,
		ProductPrice: 49,
	})
	require.NoError(t, err)
	require.Len(t, plan.DistributionPlan, 1)
	assert.Equal(t, "youtube", plan.DistributionPlan[0].Platform)

	_, err = f.studio.PlanMonetization(t.Context(), models.MonetizationConfig{Platforms: []string{"myspace"}})
	require.Error(t, err)
	assert.True(t, services.IsValidationError(err))
	require.ErrorIs(t, err, monetization.ErrInvalidConfig)
}

type brokenStore struct {
	*memory.Persistence
}

func (brokenStore) HealthCheck(context.Context) error {
	return errors.New("disk unplugged")
}

func TestStudio_HealthCheck(t *testing.T) {
	f := newStudio(t)

	health := f.studio.HealthCheck(t.Context())
	assert.True(t, health.Healthy)
	assert.Equal(t, "stopped", health.Adapter)

	f.adapter.Start(t.Context())
	t.Cleanup(func() { _ = f.adapter.Stop(context.Background()) })

	assert.Equal(t, "ready", f.studio.HealthCheck(t.Context()).Adapter)

	store := brokenStore{Persistence: memory.NewPersistence()}
	engine := workflow.NewEngine(store, registry.NewRegistry(log.Discard()), workflow.WithLogger(log.Discard()))
	unhealthy := services.NewStudio(nil, engine, monetization.NewPlanner(), store, services.WithLogger(log.Discard()))

	health = unhealthy.HealthCheck(t.Context())
	assert.False(t, health.Healthy)
	assert.Contains(t, health.Persistence, "disk unplugged")
	assert.Equal(t, "not configured", health.Adapter)
}

func TestStudio_ListWorkflowsAfterRuns(t *testing.T) {
	f := newStudio(t)
	design := testutil.CreateTestProductionConfig(testutil.AsPoster())

	for range 3 {
		_, err := f.studio.StartWorkflow(t.Context(), models.WorkflowConfig{ContentType: models.ContentTypeDesign, Design: &design})
		require.NoError(t, err)
		time.Sleep(time.Millisecond)
	}

	f.studio.Wait()

	workflows, err := f.studio.ListWorkflows(t.Context())
	require.NoError(t, err)
	require.Len(t, workflows, 3)

	for _, wf := range workflows {
		assert.Equal(t, models.WorkflowStatusCompleted, wf.Status)
	}
}
