// Package persistencetest holds the behaviour every persistence.Persistence
// implementation must share.
package persistencetest

import (
	"testing"
	"time"

	"github.com/dukex/studioflow/pkg/models"
	"github.com/dukex/studioflow/pkg/persistence"
	"github.com/dukex/studioflow/pkg/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Factory returns an empty store for one subtest.
type Factory func(t *testing.T) persistence.Persistence

func campaign(createdAt time.Time) *models.Workflow {
	wf := testutil.CreateTestWorkflow(
		testutil.CreateTestStep("design-1", models.StepKindDesign),
		testutil.CreateTestStep("video-2", models.StepKindVideo),
		testutil.CreateTestStep("analysis-3", models.StepKindAnalysis, "design-1", "video-2"),
	)
	wf.CreatedAt = createdAt
	wf.UpdatedAt = createdAt

	return wf
}

// Run exercises store against the repository contract.
func Run(t *testing.T, newStore Factory) {
	t.Helper()

	t.Run("missing workflow is not found", func(t *testing.T) {
		store := newStore(t)

		wf, err := store.WorkflowByID(t.Context(), uuid.NewString())

		assert.Nil(t, wf)
		require.Error(t, err)
		assert.True(t, persistence.IsWorkflowNotFound(err))
	})

	t.Run("save then load", func(t *testing.T) {
		store := newStore(t)
		wf := campaign(time.Now().UTC())
		wf.Steps[0].Completed = true
		wf.Steps[0].Result = map[string]any{"container_id": "draft_1"}
		wf.Status = models.WorkflowStatusRunning

		require.NoError(t, store.SaveWorkflow(t.Context(), wf))

		loaded, err := store.WorkflowByID(t.Context(), wf.ID)
		require.NoError(t, err)

		assert.Equal(t, wf.ID, loaded.ID)
		assert.Equal(t, wf.Name, loaded.Name)
		assert.Equal(t, models.WorkflowStatusRunning, loaded.Status)
		assert.Equal(t, models.ContentTypeCampaign, loaded.ContentType)
		require.Len(t, loaded.Steps, 3)
		assert.True(t, loaded.Steps[0].Completed)
		assert.Equal(t, "draft_1", loaded.Steps[0].Result["container_id"])
		assert.Equal(t, []string{"design-1", "video-2"}, loaded.Steps[2].Dependencies)
		assert.WithinDuration(t, wf.CreatedAt, loaded.CreatedAt, time.Millisecond)
	})

	t.Run("save stamps creation time", func(t *testing.T) {
		store := newStore(t)
		wf := campaign(time.Time{})

		require.NoError(t, store.SaveWorkflow(t.Context(), wf))

		assert.False(t, wf.CreatedAt.IsZero())
		assert.False(t, wf.UpdatedAt.Before(wf.CreatedAt))
	})

	t.Run("save replaces", func(t *testing.T) {
		store := newStore(t)
		wf := campaign(time.Now().UTC())

		require.NoError(t, store.SaveWorkflow(t.Context(), wf))

		wf.Status = models.WorkflowStatusCompleted
		wf.Error = ""
		require.NoError(t, store.SaveWorkflow(t.Context(), wf))

		loaded, err := store.WorkflowByID(t.Context(), wf.ID)
		require.NoError(t, err)
		assert.Equal(t, models.WorkflowStatusCompleted, loaded.Status)

		all, err := store.Workflows(t.Context())
		require.NoError(t, err)
		assert.Len(t, all, 1)
	})

	t.Run("list is ordered by creation", func(t *testing.T) {
		store := newStore(t)
		base := time.Now().UTC().Truncate(time.Second)

		newest := campaign(base.Add(2 * time.Minute))
		oldest := campaign(base)
		middle := campaign(base.Add(time.Minute))

		for _, wf := range []*models.Workflow{newest, oldest, middle} {
			require.NoError(t, store.SaveWorkflow(t.Context(), wf))
		}

		all, err := store.Workflows(t.Context())
		require.NoError(t, err)
		require.Len(t, all, 3)
		assert.Equal(t, []string{oldest.ID, middle.ID, newest.ID}, []string{all[0].ID, all[1].ID, all[2].ID})
	})

	t.Run("stored state is not shared", func(t *testing.T) {
		store := newStore(t)
		wf := campaign(time.Now().UTC())

		require.NoError(t, store.SaveWorkflow(t.Context(), wf))

		wf.Steps[0].Completed = true

		loaded, err := store.WorkflowByID(t.Context(), wf.ID)
		require.NoError(t, err)
		assert.False(t, loaded.Steps[0].Completed)

		loaded.Steps[1].Completed = true

		again, err := store.WorkflowByID(t.Context(), wf.ID)
		require.NoError(t, err)
		assert.False(t, again.Steps[1].Completed)
	})

	t.Run("delete", func(t *testing.T) {
		store := newStore(t)
		wf := campaign(time.Now().UTC())

		require.NoError(t, store.SaveWorkflow(t.Context(), wf))
		require.NoError(t, store.DeleteWorkflow(t.Context(), wf.ID))

		_, err := store.WorkflowByID(t.Context(), wf.ID)
		assert.True(t, persistence.IsWorkflowNotFound(err))

		all, err := store.Workflows(t.Context())
		require.NoError(t, err)
		assert.Empty(t, all)

		assert.NoError(t, store.DeleteWorkflow(t.Context(), wf.ID), "deleting twice is not an error")
	})

	t.Run("empty id is rejected", func(t *testing.T) {
		store := newStore(t)
		wf := campaign(time.Now().UTC())
		wf.ID = ""

		err := store.SaveWorkflow(t.Context(), wf)
		require.ErrorIs(t, err, persistence.ErrInvalidWorkflow)
	})

	t.Run("health check", func(t *testing.T) {
		store := newStore(t)

		assert.NoError(t, store.HealthCheck(t.Context()))
	})
}
