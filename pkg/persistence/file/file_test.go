package file_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/dukex/studioflow/pkg/persistence"
	"github.com/dukex/studioflow/pkg/persistence/file"
	"github.com/dukex/studioflow/pkg/persistence/persistencetest"
	"github.com/dukex/studioflow/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPersistence_Contract(t *testing.T) {
	persistencetest.Run(t, func(t *testing.T) persistence.Persistence {
		return file.NewPersistence(t.TempDir())
	})
}

func TestPersistence_AcceptsFileURL(t *testing.T) {
	root := t.TempDir()
	store := file.NewPersistence("file://" + root)

	wf := testutil.CreateTestWorkflow()
	require.NoError(t, store.SaveWorkflow(t.Context(), wf))

	_, err := os.Stat(filepath.Join(root, "workflows", wf.ID+".json"))
	assert.NoError(t, err)

	entries, err := os.ReadDir(filepath.Join(root, "workflows"))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temporary files are left behind")
}

func TestPersistence_HealthCheckMissingRoot(t *testing.T) {
	store := file.NewPersistence(filepath.Join(t.TempDir(), "missing"))

	assert.Error(t, store.HealthCheck(t.Context()))
}

func TestPersistence_RejectsPathLikeIDs(t *testing.T) {
	store := file.NewPersistence(t.TempDir())

	wf := testutil.CreateTestWorkflow()
	wf.ID = "../escape"

	require.ErrorIs(t, store.SaveWorkflow(t.Context(), wf), persistence.ErrInvalidWorkflow)

	_, err := store.WorkflowByID(t.Context(), "../escape")
	assert.True(t, persistence.IsWorkflowNotFound(err))
}

func TestPersistence_CorruptDocument(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "workflows"), 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(root, "workflows", "broken.json"), []byte("{"), 0o600))

	store := file.NewPersistence(root)

	_, err := store.WorkflowByID(t.Context(), "broken")
	require.Error(t, err)
	assert.False(t, persistence.IsWorkflowNotFound(err))
}
