package process_test

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/dukex/studioflow/pkg/adapter"
	"github.com/dukex/studioflow/pkg/backends/process"
	"github.com/dukex/studioflow/pkg/log"
	"github.com/dukex/studioflow/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const helperEnv = "STUDIOFLOW_HELPER_BACKEND"

// TestHelperBackend is not a real test. It is the child process launched by
// the tests below.
func TestHelperBackend(t *testing.T) {
	mode := os.Getenv(helperEnv)
	if mode == "" {
		return
	}

	switch mode {
	case "silent":
		time.Sleep(time.Minute)
		os.Exit(0)
	case "exit":
		os.Exit(3)
	}

	duplicate := mode == "duplicate"

	out := bufio.NewWriter(os.Stdout)
	fmt.Fprintln(out, "not json")
	fmt.Fprintln(out, `{"ready":true}`)
	out.Flush()

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		var req models.CommandRequest
		if err := json.Unmarshal(scanner.Bytes(), &req); err != nil {
			continue
		}

		resp := models.NewSuccessResponse(map[string]any{"operation": string(req.Operation)}, nil)
		switch req.Operation {
		case models.OperationCreateDraft:
			resp.GeneratedIDs[models.IDRoleDraft] = "live_draft_1"
		case models.OperationExportDraft:
			resp = models.NewFailureResponse("export queue full")
		}

		resp.ID = req.ID

		line, _ := json.Marshal(resp)
		fmt.Fprintln(out, string(line))

		if duplicate {
			fmt.Fprintln(out, string(line))
		}

		out.Flush()
	}

	os.Exit(0)
}

func helperFactory(mode string) *process.Factory {
	return process.NewFactory(os.Args[0], []string{"-test.run=^TestHelperBackend$"},
		process.WithEnv(helperEnv+"="+mode),
		process.WithLogger(log.Discard()),
	)
}

func TestBackend_RoundTrip(t *testing.T) {
	backend, err := helperFactory("echo").Launch(t.Context())
	require.NoError(t, err)
	t.Cleanup(func() { _ = backend.Close() })

	select {
	case <-backend.Ready():
	case <-time.After(10 * time.Second):
		t.Fatal("helper backend never became ready")
	}

	resp, err := backend.Call(t.Context(), models.CommandRequest{
		ID:         "req-1",
		Operation:  models.OperationCreateDraft,
		Parameters: map[string]any{"name": "x"},
	})
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, "req-1", resp.ID)
	assert.Equal(t, "live_draft_1", resp.IDFor(models.IDRoleDraft))

	resp, err = backend.Call(t.Context(), models.CommandRequest{ID: "req-2", Operation: models.OperationExportDraft})
	require.NoError(t, err)
	assert.False(t, resp.Success)
	assert.Equal(t, "export queue full", resp.Error)

	_, err = backend.Call(t.Context(), models.CommandRequest{Operation: models.OperationGetRuleset})
	assert.ErrorIs(t, err, process.ErrMissingID)
}

func TestBackend_CallAfterClose(t *testing.T) {
	backend, err := helperFactory("echo").Launch(t.Context())
	require.NoError(t, err)

	<-backend.Ready()
	require.NoError(t, backend.Close())
	require.NoError(t, backend.Close())

	_, err = backend.Call(t.Context(), models.CommandRequest{ID: "late", Operation: models.OperationGetRuleset})
	assert.ErrorIs(t, err, process.ErrBackendClosed)
}

func TestFactory_MissingBinary(t *testing.T) {
	factory := process.NewFactory("studioflow-no-such-editor", nil, process.WithLogger(log.Discard()))

	_, err := factory.Launch(t.Context())

	assert.Error(t, err)
	assert.Equal(t, "process:studioflow-no-such-editor", factory.Name())
}

func TestAdapter_WithProcessBackend(t *testing.T) {
	a, err := adapter.New(
		adapter.WithLogger(log.Discard()),
		adapter.WithBackendFactory(helperFactory("echo")),
		adapter.WithStartupTimeout(10*time.Second),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Stop(t.Context()) })

	require.Equal(t, adapter.ModeLive, a.Start(t.Context()))

	resp := a.CreateDraft(t.Context(), "live", 1920, 1080)
	assert.True(t, resp.Success)
	assert.Equal(t, "live_draft_1", resp.IDFor(models.IDRoleDraft))
}

func TestAdapter_SilentProcessFallsBack(t *testing.T) {
	a, err := adapter.New(
		adapter.WithLogger(log.Discard()),
		adapter.WithBackendFactory(helperFactory("silent")),
		adapter.WithStartupTimeout(200*time.Millisecond),
		adapter.WithLatency(adapter.FixedLatency(0)),
	)
	require.NoError(t, err)

	assert.Equal(t, adapter.ModeSimulation, a.Start(t.Context()))

	resp := a.CreateDraft(t.Context(), "sim", 1920, 1080)
	assert.True(t, resp.Success)
	assert.NotEqual(t, "live_draft_1", resp.IDFor(models.IDRoleDraft))
}

func TestBackend_DuplicateResponsesDoNotStall(t *testing.T) {
	backend, err := helperFactory("duplicate").Launch(t.Context())
	require.NoError(t, err)
	t.Cleanup(func() { _ = backend.Close() })

	<-backend.Ready()

	for i := range 3 {
		ctx, cancel := context.WithTimeout(t.Context(), 5*time.Second)

		resp, err := backend.Call(ctx, models.CommandRequest{
			ID:        fmt.Sprintf("req-%d", i),
			Operation: models.OperationGetRuleset,
		})

		cancel()

		require.NoError(t, err, "call %d", i)
		assert.True(t, resp.Success)
	}
}

func TestBackend_DoneAfterChildExits(t *testing.T) {
	backend, err := helperFactory("exit").Launch(t.Context())
	require.NoError(t, err)
	t.Cleanup(func() { _ = backend.Close() })

	select {
	case <-backend.Done():
	case <-time.After(10 * time.Second):
		t.Fatal("backend never reported the child exit")
	}

	select {
	case <-backend.Ready():
		t.Fatal("exited child must not be ready")
	default:
	}
}

func TestAdapter_ExitedProcessFallsBackWithoutWaiting(t *testing.T) {
	a, err := adapter.New(
		adapter.WithLogger(log.Discard()),
		adapter.WithBackendFactory(helperFactory("exit")),
		adapter.WithStartupTimeout(time.Minute),
		adapter.WithLatency(adapter.FixedLatency(0)),
	)
	require.NoError(t, err)

	started := time.Now()

	assert.Equal(t, adapter.ModeSimulation, a.Start(t.Context()))
	assert.Less(t, time.Since(started), 15*time.Second)
	assert.True(t, a.IsReady())
}
