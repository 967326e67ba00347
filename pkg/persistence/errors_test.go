package persistence_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/dukex/studioflow/pkg/persistence"
	"github.com/stretchr/testify/assert"
)

func TestWorkflowError(t *testing.T) {
	t.Parallel()

	t.Run("unwraps to the sentinel", func(t *testing.T) {
		err := persistence.NewWorkflowError("WorkflowByID", "workflow-123", persistence.ErrWorkflowNotFound)

		assert.True(t, persistence.IsWorkflowNotFound(err))
		assert.True(t, errors.Is(err, persistence.ErrWorkflowNotFound))
		assert.False(t, errors.Is(err, persistence.ErrInvalidWorkflow))
	})

	t.Run("survives further wrapping", func(t *testing.T) {
		err := fmt.Errorf("status lookup: %w", persistence.NewWorkflowError("WorkflowByID", "wf", persistence.ErrWorkflowNotFound))

		assert.True(t, persistence.IsWorkflowNotFound(err))

		var wfErr *persistence.WorkflowError
		assert.True(t, errors.As(err, &wfErr))
		assert.Equal(t, "wf", wfErr.WorkflowID)
	})

	t.Run("message carries context", func(t *testing.T) {
		err := persistence.NewWorkflowError("SaveWorkflow", "workflow-123", persistence.ErrInvalidWorkflow)
		err.Message = "empty id"

		assert.Contains(t, err.Error(), "SaveWorkflow")
		assert.Contains(t, err.Error(), "workflow-123")
		assert.Contains(t, err.Error(), "empty id")
		assert.Contains(t, err.Error(), "invalid workflow")
	})
}
