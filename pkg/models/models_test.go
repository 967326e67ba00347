package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOperation_IsKnown(t *testing.T) {
	for _, op := range Operations() {
		assert.True(t, op.IsKnown(), string(op))
	}

	assert.False(t, Operation("create_frame").IsKnown())
	assert.False(t, Operation("").IsKnown())
}

func TestIDRole_ParameterKey(t *testing.T) {
	assert.Equal(t, "draft_id", IDRoleDraft.ParameterKey())
	assert.Equal(t, "track_id", IDRoleTrack.ParameterKey())
	assert.Equal(t, "segment_id", IDRoleSegment.ParameterKey())
}

func TestNewFailureResponse(t *testing.T) {
	resp := NewFailureResponse("boom")

	assert.False(t, resp.Success)
	assert.Nil(t, resp.Result)
	assert.Equal(t, "boom", resp.Error)
	assert.NotNil(t, resp.GeneratedIDs)

	assert.Equal(t, "unknown error", NewFailureResponse("").Error)
}

func TestNewSuccessResponse(t *testing.T) {
	resp := NewSuccessResponse(map[string]any{"name": "x"}, map[IDRole]string{IDRoleDraft: "draft_1"})

	assert.True(t, resp.Success)
	assert.Empty(t, resp.Error)
	assert.Equal(t, "draft_1", resp.IDFor(IDRoleDraft))
	assert.Empty(t, resp.IDFor(IDRoleTrack))
}

func TestAspectRatio_Dimensions(t *testing.T) {
	tests := []struct {
		ratio  AspectRatio
		width  int
		height int
	}{
		{AspectLandscape, 1920, 1080},
		{AspectPortrait, 1080, 1920},
		{AspectSquare, 1080, 1080},
		{AspectFeed, 1080, 1350},
		{"", 1920, 1080},
	}

	for _, tt := range tests {
		w, h := tt.ratio.Dimensions()
		assert.Equal(t, tt.width, w, string(tt.ratio))
		assert.Equal(t, tt.height, h, string(tt.ratio))
	}
}

func TestProductionConfig_Defaults(t *testing.T) {
	cfg := ProductionConfig{}

	assert.Equal(t, ContentKindVideo, cfg.EffectiveKind())
	assert.Equal(t, AspectLandscape, cfg.EffectiveAspectRatio())
}

func TestWorkflow_Clone(t *testing.T) {
	original := &Workflow{
		ID:     "wf-1",
		Status: WorkflowStatusRunning,
		Steps: []*Step{
			{ID: "design-1", Kind: StepKindDesign, Result: map[string]any{"a": 1}},
			{ID: "analysis-1", Kind: StepKindAnalysis, Dependencies: []string{"design-1"}},
		},
	}

	clone := original.Clone()
	require.NotNil(t, clone)

	clone.Steps[0].Completed = true
	clone.Steps[0].Result["a"] = 2
	clone.Steps[1].Dependencies[0] = "changed"

	assert.False(t, original.Steps[0].Completed)
	assert.Equal(t, 1, original.Steps[0].Result["a"])
	assert.Equal(t, "design-1", original.Steps[1].Dependencies[0])

	var nilWorkflow *Workflow
	assert.Nil(t, nilWorkflow.Clone())
}

func TestWorkflow_AllStepsCompleted(t *testing.T) {
	wf := &Workflow{Steps: []*Step{{ID: "a", Completed: true}, {ID: "b"}}}
	assert.False(t, wf.AllStepsCompleted())

	wf.Steps[1].Completed = true
	assert.True(t, wf.AllStepsCompleted())

	step, ok := wf.StepByID("b")
	assert.True(t, ok)
	assert.Equal(t, "b", step.ID)

	_, ok = wf.StepByID("missing")
	assert.False(t, ok)
}
