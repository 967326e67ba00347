package adapter_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dukex/studioflow/pkg/adapter"
	"github.com/dukex/studioflow/pkg/log"
	"github.com/dukex/studioflow/pkg/models"
	"github.com/dukex/studioflow/pkg/otelhelper"
	"github.com/dukex/studioflow/pkg/testutil"
	"github.com/prometheus/client_golang/prometheus"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// gatedBackend becomes ready when its ready channel is closed.
type gatedBackend struct {
	*testutil.RecordingBackend
	ready chan struct{}
}

func (b gatedBackend) Ready() <-chan struct{} {
	return b.ready
}

func newAdapter(t *testing.T, opts ...adapter.Option) *adapter.Adapter {
	t.Helper()

	opts = append([]adapter.Option{
		adapter.WithLogger(log.Discard()),
		adapter.WithLatency(adapter.FixedLatency(0)),
		adapter.WithPaths(t.TempDir(), "out"),
	}, opts...)

	a, err := adapter.New(opts...)
	require.NoError(t, err)

	return a
}

func TestAdapter_SendWithoutStart(t *testing.T) {
	a, err := adapter.New(adapter.WithLogger(log.Discard()))
	require.NoError(t, err)

	started := time.Now()
	resp := a.Send(t.Context(), models.OperationCreateDraft, map[string]any{"name": "x"})

	assert.Less(t, time.Since(started), time.Second)
	assert.True(t, resp.Success)
	assert.NotEmpty(t, resp.IDFor(models.IDRoleDraft))
	assert.False(t, a.IsReady())
}

func TestAdapter_SimulationSucceedsForEveryOperation(t *testing.T) {
	a := newAdapter(t)

	params := map[models.Operation]map[string]any{
		models.OperationCreateDraft:           {"name": "draft", "width": 1920, "height": 1080},
		models.OperationCreateTrack:           {"draft_id": "draft_1", "track_type": "video"},
		models.OperationAddVideoSegment:       {"track_id": "track_1", "material": "a.mp4", "start": 0.0, "duration": 5.0},
		models.OperationAddAudioSegment:       {"track_id": "track_1", "material": "upbeat", "start": 0.0, "duration": 5.0},
		models.OperationAddTextSegment:        {"track_id": "track_1", "text": "Hello", "start": 0.0, "duration": 5.0},
		models.OperationFindEffectsByCategory: {"category": "transition"},
		models.OperationApplyEffect:           {"segment_id": "segment_1", "effect_type": "fade"},
		models.OperationParseMediaMetadata:    {"path": "clips/a.mov"},
		models.OperationExportDraft:           {"draft_id": "draft_1"},
		models.OperationGetRuleset:            {},
	}

	for _, op := range models.Operations() {
		t.Run(string(op), func(t *testing.T) {
			p, ok := params[op]
			require.True(t, ok, "missing fixture for %s", op)

			resp := a.Send(t.Context(), op, p)
			assert.True(t, resp.Success, resp.Error)
			assert.NotNil(t, resp.Result)
			assert.Empty(t, resp.Error)
		})
	}
}

func TestAdapter_GeneratedIDsAreUnique(t *testing.T) {
	a := newAdapter(t)

	const workers = 8
	const perWorker = 50

	var (
		mu   sync.Mutex
		seen = make(map[string]struct{})
		wg   sync.WaitGroup
	)

	for range workers {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for range perWorker {
				resp := a.Send(context.Background(), models.OperationCreateDraft, map[string]any{"name": "x"})
				id := resp.IDFor(models.IDRoleDraft)

				mu.Lock()
				seen[id] = struct{}{}
				mu.Unlock()
			}
		}()
	}

	wg.Wait()

	assert.Len(t, seen, workers*perWorker)
}

func TestAdapter_UnknownOperationEchoes(t *testing.T) {
	a := newAdapter(t)

	resp := a.Send(t.Context(), models.Operation("create_frame"), map[string]any{"width": 1080})

	assert.True(t, resp.Success)
	assert.Equal(t, "create_frame", resp.Result["operation"])
	assert.Equal(t, true, resp.Result["simulated"])
}

func TestAdapter_InvalidParameters(t *testing.T) {
	a := newAdapter(t)

	resp := a.Send(t.Context(), models.OperationCreateTrack, map[string]any{"track_type": "video"})

	assert.False(t, resp.Success)
	assert.Nil(t, resp.Result)
	assert.Contains(t, resp.Error, "draft_id")

	resp = a.Send(t.Context(), models.OperationCreateTrack, map[string]any{"draft_id": "d", "track_type": "hologram"})
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Error, "create_track")
}

func TestAdapter_StartWithoutBackend(t *testing.T) {
	a := newAdapter(t)

	assert.Equal(t, adapter.ModeSimulation, a.Start(t.Context()))
	assert.True(t, a.IsReady())

	// idempotent
	assert.Equal(t, adapter.ModeSimulation, a.Start(t.Context()))
}

func TestAdapter_StartLaunchErrorFallsBack(t *testing.T) {
	a := newAdapter(t, adapter.WithBackendFactory(testutil.StaticBackendFactory{Err: errors.New("binary not found")}))

	assert.Equal(t, adapter.ModeSimulation, a.Start(t.Context()))
	assert.True(t, a.IsReady())
}

func TestAdapter_StartTimeoutFallsBack(t *testing.T) {
	backend := testutil.NewSilentBackend()
	a := newAdapter(t,
		adapter.WithBackendFactory(testutil.StaticBackendFactory{Backend: backend}),
		adapter.WithStartupTimeout(50*time.Millisecond),
	)

	started := time.Now()
	mode := a.Start(t.Context())

	assert.Equal(t, adapter.ModeSimulation, mode)
	assert.Less(t, time.Since(started), 2*time.Second)
	assert.True(t, backend.Closed())

	resp := a.Send(t.Context(), models.OperationCreateDraft, map[string]any{"name": "x"})
	assert.True(t, resp.Success)
	assert.Empty(t, backend.Requests())
}

func TestAdapter_QueriesDoNotBlockDuringStartup(t *testing.T) {
	backend := testutil.NewSilentBackend()
	a := newAdapter(t,
		adapter.WithBackendFactory(testutil.StaticBackendFactory{Backend: backend}),
		adapter.WithStartupTimeout(2*time.Second),
	)

	modeCh := make(chan adapter.Mode, 1)

	go func() { modeCh <- a.Start(context.Background()) }()

	require.Eventually(t, func() bool { return a.Mode() == adapter.ModeStarting }, time.Second, 5*time.Millisecond)

	started := time.Now()

	assert.False(t, a.IsReady())

	resp := a.Send(t.Context(), models.OperationCreateDraft, map[string]any{"name": "early"})
	assert.True(t, resp.Success)
	assert.NotEmpty(t, resp.IDFor(models.IDRoleDraft))
	assert.Empty(t, backend.Requests())

	assert.Less(t, time.Since(started), 500*time.Millisecond)

	assert.Equal(t, adapter.ModeSimulation, <-modeCh)
	assert.True(t, a.IsReady())
}

func TestAdapter_ConcurrentStartWaitsForFirst(t *testing.T) {
	backend := testutil.NewSilentBackend()
	a := newAdapter(t,
		adapter.WithBackendFactory(testutil.StaticBackendFactory{Backend: backend}),
		adapter.WithStartupTimeout(100*time.Millisecond),
	)

	var wg sync.WaitGroup

	modes := make([]adapter.Mode, 4)

	for i := range modes {
		wg.Add(1)

		go func() {
			defer wg.Done()

			modes[i] = a.Start(t.Context())
		}()
	}

	wg.Wait()

	for _, mode := range modes {
		assert.Equal(t, adapter.ModeSimulation, mode)
	}
}

func TestAdapter_StopDuringStartupClosesBackend(t *testing.T) {
	ready := make(chan struct{})
	backend := testutil.NewSilentBackend()
	a := newAdapter(t,
		adapter.WithBackendFactory(testutil.StaticBackendFactory{Backend: gatedBackend{RecordingBackend: backend, ready: ready}}),
		adapter.WithStartupTimeout(5*time.Second),
	)

	modeCh := make(chan adapter.Mode, 1)

	go func() { modeCh <- a.Start(context.Background()) }()

	require.Eventually(t, func() bool { return a.Mode() == adapter.ModeStarting }, time.Second, 5*time.Millisecond)
	require.NoError(t, a.Stop(t.Context()))

	close(ready)

	assert.Equal(t, adapter.ModeStopped, <-modeCh)
	assert.Equal(t, adapter.ModeStopped, a.Mode())
	assert.True(t, backend.Closed())
}

func TestAdapter_ExitedBackendFallsBackWithoutWaiting(t *testing.T) {
	backend := testutil.NewExitedBackend()
	a := newAdapter(t,
		adapter.WithBackendFactory(testutil.StaticBackendFactory{Backend: backend}),
		adapter.WithStartupTimeout(time.Minute),
	)

	started := time.Now()

	assert.Equal(t, adapter.ModeSimulation, a.Start(t.Context()))
	assert.Less(t, time.Since(started), time.Second)
	assert.True(t, backend.Closed())
}

func TestAdapter_LiveDispatch(t *testing.T) {
	backend := testutil.NewRecordingBackend(func(_ context.Context, req models.CommandRequest) (models.CommandResponse, error) {
		switch req.Operation {
		case models.OperationCreateDraft:
			return models.NewSuccessResponse(map[string]any{"draft_id": "live-draft"}, map[models.IDRole]string{models.IDRoleDraft: "live-draft"}), nil
		case models.OperationExportDraft:
			return models.CommandResponse{Success: false, Error: "disk full", Result: map[string]any{"partial": true}}, nil
		default:
			return models.CommandResponse{}, errors.New("connection reset")
		}
	})

	a := newAdapter(t, adapter.WithBackendFactory(testutil.StaticBackendFactory{Backend: backend}))
	require.Equal(t, adapter.ModeLive, a.Start(t.Context()))

	resp := a.Send(t.Context(), models.OperationCreateDraft, map[string]any{"name": "x"})
	require.True(t, resp.Success)
	assert.Equal(t, "live-draft", resp.IDFor(models.IDRoleDraft))

	requests := backend.Requests()
	require.Len(t, requests, 1)
	assert.Equal(t, models.OperationCreateDraft, requests[0].Operation)
	assert.Equal(t, "x", requests[0].Parameters["name"])
	assert.NotEmpty(t, requests[0].ID)

	resp = a.Send(t.Context(), models.OperationExportDraft, map[string]any{"draft_id": "live-draft"})
	assert.False(t, resp.Success)
	assert.Equal(t, "disk full", resp.Error)
	assert.Nil(t, resp.Result)

	resp = a.Send(t.Context(), models.OperationGetRuleset, nil)
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Error, "connection reset")
}

func TestAdapter_PanicIsContained(t *testing.T) {
	backend := testutil.NewRecordingBackend(func(context.Context, models.CommandRequest) (models.CommandResponse, error) {
		panic("backend exploded")
	})

	a := newAdapter(t, adapter.WithBackendFactory(testutil.StaticBackendFactory{Backend: backend}))
	require.Equal(t, adapter.ModeLive, a.Start(t.Context()))

	resp := a.Send(t.Context(), models.OperationGetRuleset, nil)

	assert.False(t, resp.Success)
	assert.Contains(t, resp.Error, "backend exploded")
}

func TestAdapter_StopNeverResurrectsBackend(t *testing.T) {
	backend := testutil.NewRecordingBackend(nil)
	a := newAdapter(t, adapter.WithBackendFactory(testutil.StaticBackendFactory{Backend: backend}))

	require.Equal(t, adapter.ModeLive, a.Start(t.Context()))
	require.NoError(t, a.Stop(t.Context()))

	assert.False(t, a.IsReady())
	assert.Equal(t, adapter.ModeStopped, a.Mode())
	assert.True(t, backend.Closed())

	resp := a.Send(t.Context(), models.OperationCreateDraft, map[string]any{"name": "after-stop"})
	assert.True(t, resp.Success)
	assert.NotEmpty(t, resp.IDFor(models.IDRoleDraft))
	assert.Empty(t, backend.Requests())
}

func TestAdapter_StopWhenNeverStarted(t *testing.T) {
	a := newAdapter(t)

	assert.NoError(t, a.Stop(t.Context()))
	assert.False(t, a.IsReady())
}

func TestAdapter_SimulationHonoursContext(t *testing.T) {
	a := newAdapter(t, adapter.WithLatency(adapter.FixedLatency(time.Second)))

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	resp := a.Send(ctx, models.OperationCreateDraft, map[string]any{"name": "x"})
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Error, "interrupted")
}

func TestAdapter_TypedCommandsChain(t *testing.T) {
	a := newAdapter(t)
	ctx := t.Context()

	draft := a.CreateDraft(ctx, "chain", 1080, 1920)
	require.True(t, draft.Success)
	draftID := draft.IDFor(models.IDRoleDraft)

	track := a.CreateTrack(ctx, draftID, models.TrackTypeVideo)
	require.True(t, track.Success)
	assert.Equal(t, draftID, track.Result["draft_id"])

	segment := a.AddVideoSegment(ctx, track.IDFor(models.IDRoleTrack), "a.mp4", 0, 5)
	require.True(t, segment.Success)

	effect := a.ApplyEffect(ctx, segment.IDFor(models.IDRoleSegment), "fade")
	require.True(t, effect.Success)
	assert.NotEmpty(t, effect.IDFor(models.IDRoleEffect))

	exported := a.ExportDraft(ctx, draftID, "", "")
	require.True(t, exported.Success)
	assert.Equal(t, "out/"+draftID+".mp4", exported.Result["export_path"])

	rules := a.GetRuleset(ctx)
	require.True(t, rules.Success)
	assert.Equal(t, adapter.DefaultRuleset, rules.Result["rules"])
}

func TestAdapter_SendSpans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	a := newAdapter(t, adapter.WithTracer(provider.Tracer("test")))

	a.Send(t.Context(), models.OperationCreateDraft, map[string]any{"name": "x"})
	a.Send(t.Context(), models.OperationCreateTrack, map[string]any{})

	spans := recorder.Ended()
	require.Len(t, spans, 2)

	for _, span := range spans {
		assert.Equal(t, "adapter.send", span.Name())
	}

	attrs := attribute.NewSet(spans[0].Attributes()...)
	op, ok := attrs.Value(otelhelper.OperationKey)
	require.True(t, ok)
	assert.Equal(t, "create_draft", op.AsString())

	mode, ok := attrs.Value(otelhelper.CommandModeKey)
	require.True(t, ok)
	assert.Equal(t, "simulation", mode.AsString())
	assert.Equal(t, codes.Unset, spans[0].Status().Code)

	assert.Equal(t, codes.Error, spans[1].Status().Code)
}

func TestAdapter_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	a := newAdapter(t, adapter.WithMetrics(adapter.NewMetrics(reg)))

	a.Send(t.Context(), models.OperationCreateDraft, map[string]any{"name": "x"})
	a.Send(t.Context(), models.OperationCreateTrack, map[string]any{})

	count, err := promtestutil.GatherAndCount(reg, "studioflow_adapter_commands_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}
