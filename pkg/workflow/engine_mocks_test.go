package workflow_test

import (
	"context"
	"errors"
	"testing"

	"github.com/dukex/studioflow/pkg/events"
	"github.com/dukex/studioflow/pkg/log"
	"github.com/dukex/studioflow/pkg/mocks"
	"github.com/dukex/studioflow/pkg/models"
	"github.com/dukex/studioflow/pkg/persistence"
	"github.com/dukex/studioflow/pkg/persistence/memory"
	"github.com/dukex/studioflow/pkg/protocol"
	"github.com/dukex/studioflow/pkg/registry"
	"github.com/dukex/studioflow/pkg/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestEngine_CreateStoreFailure(t *testing.T) {
	store := mocks.NewMockPersistence()
	store.On("SaveWorkflow", mock.Anything, mock.AnythingOfType("*models.Workflow")).Return(errors.New("connection refused"))

	bus := &mocks.MockEventBus{}

	engine := workflow.NewEngine(store, registry.NewRegistry(log.Discard()),
		workflow.WithLogger(log.Discard()),
		workflow.WithPublisher(bus),
	)

	_, err := engine.Create(t.Context(), models.WorkflowConfig{ContentType: models.ContentTypeDesign})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
	store.AssertExpectations(t)
	bus.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
}

func TestEngine_ExecuteMissingWorkflow(t *testing.T) {
	store := mocks.NewMockPersistence()
	store.On("WorkflowByID", mock.Anything, "gone").Return(nil, persistence.NewWorkflowError("WorkflowByID", "gone", persistence.ErrWorkflowNotFound))

	engine := workflow.NewEngine(store, registry.NewRegistry(log.Discard()), workflow.WithLogger(log.Discard()))

	err := engine.Execute(t.Context(), "gone")

	require.ErrorIs(t, err, persistence.ErrWorkflowNotFound)
	store.AssertExpectations(t)
}

func TestEngine_PublishFailuresDoNotStopExecution(t *testing.T) {
	bus := &mocks.MockEventBus{}
	bus.On("Publish", mock.Anything, mock.AnythingOfType("string"), mock.Anything).Return(errors.New("broker down"))

	reg := registry.NewRegistry(log.Discard())
	reg.Register(funcHandler{kind: models.StepKindDesign, fn: func(context.Context, protocol.StepContext) (map[string]any, error) {
		return map[string]any{"export_path": "output/poster.png"}, nil
	}})

	store := memory.NewPersistence()
	engine := workflow.NewEngine(store, reg,
		workflow.WithLogger(log.Discard()),
		workflow.WithPublisher(bus),
	)

	wf, err := engine.Create(t.Context(), models.WorkflowConfig{ContentType: models.ContentTypeDesign})
	require.NoError(t, err)
	require.NoError(t, engine.Execute(t.Context(), wf.ID))

	stored, err := engine.Status(t.Context(), wf.ID)
	require.NoError(t, err)
	assert.Equal(t, models.WorkflowStatusCompleted, stored.Status)

	bus.AssertCalled(t, "Publish", mock.Anything, wf.ID, mock.MatchedBy(func(e any) bool {
		completed, ok := e.(events.WorkflowCompleted)

		return ok && completed.StepsCompleted == 1
	}))
}
