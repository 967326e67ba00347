// Package adapter provides the command gateway between production planning
// and the external editing surface.
package adapter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dukex/studioflow/pkg/models"
	"github.com/dukex/studioflow/pkg/otelhelper"
	"github.com/dukex/studioflow/pkg/protocol"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// DefaultStartupTimeout bounds how long Start waits for a live backend.
const DefaultStartupTimeout = 5 * time.Second

// Mode is the dispatch mode of an adapter.
type Mode string

const (
	ModeStopped    Mode = "stopped"
	ModeStarting   Mode = "starting"
	ModeLive       Mode = "live"
	ModeSimulation Mode = "simulation"
)

// Adapter dispatches commands to a live backend when one is attached and to
// the simulator otherwise. Send never returns an error: every failure is
// folded into the response envelope.
type Adapter struct {
	mu         sync.RWMutex
	mode       Mode
	backend    protocol.Backend
	starting   chan struct{}
	generation uint64

	factory        protocol.BackendFactory
	startupTimeout time.Duration
	latency        protocol.LatencyModel
	ids            *IDGenerator
	schemas        *Schemas
	simulator      *Simulator
	metrics        *Metrics
	tracer         trace.Tracer
	logger         *slog.Logger
	workDir        string
	outputDir      string
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithBackendFactory sets the live backend Start tries to attach to.
func WithBackendFactory(factory protocol.BackendFactory) Option {
	return func(a *Adapter) {
		a.factory = factory
	}
}

func WithStartupTimeout(timeout time.Duration) Option {
	return func(a *Adapter) {
		a.startupTimeout = timeout
	}
}

func WithLatency(latency protocol.LatencyModel) Option {
	return func(a *Adapter) {
		a.latency = latency
	}
}

func WithIDGenerator(ids *IDGenerator) Option {
	return func(a *Adapter) {
		a.ids = ids
	}
}

func WithMetrics(metrics *Metrics) Option {
	return func(a *Adapter) {
		a.metrics = metrics
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(a *Adapter) {
		a.tracer = tracer
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(a *Adapter) {
		a.logger = logger
	}
}

// WithPaths sets the working directory handed to live backends and the
// directory exports default into.
func WithPaths(workDir, outputDir string) Option {
	return func(a *Adapter) {
		a.workDir = workDir
		a.outputDir = outputDir
	}
}

// New creates a stopped adapter.
func New(opts ...Option) (*Adapter, error) {
	a := &Adapter{
		mode:           ModeStopped,
		startupTimeout: DefaultStartupTimeout,
		latency:        RandomLatency{Min: DefaultMinLatency, Max: DefaultMaxLatency},
		tracer:         otelhelper.NoopTracer(),
		logger:         slog.Default(),
		outputDir:      "output",
	}

	for _, opt := range opts {
		opt(a)
	}

	if a.ids == nil {
		a.ids = NewIDGenerator()
	}

	schemas, err := NewSchemas()
	if err != nil {
		return nil, err
	}

	a.schemas = schemas
	a.simulator = NewSimulator(a.ids, a.latency, a.outputDir)
	a.logger = a.logger.With("module", "command_adapter")

	return a, nil
}

// Start attaches to the live backend, or enters simulation mode when the
// backend is missing, fails to launch, exits, or stays silent past the
// startup timeout. Calling Start while ready is a no-op; calling it while
// another Start is in flight waits for that one.
//
// The readiness wait runs without holding the adapter lock, so IsReady,
// Mode and Send stay responsive. Send simulates until the backend is
// attached.
func (a *Adapter) Start(ctx context.Context) Mode {
	a.mu.Lock()

	switch a.mode {
	case ModeStopped:
	case ModeStarting:
		starting := a.starting
		a.mu.Unlock()

		select {
		case <-starting:
		case <-ctx.Done():
		}

		return a.Mode()
	default:
		mode := a.mode
		a.mu.Unlock()

		return mode
	}

	if a.factory == nil {
		a.logger.InfoContext(ctx, "No live backend configured, using simulation mode")
		a.mode = ModeSimulation
		a.mu.Unlock()

		return ModeSimulation
	}

	a.generation++
	generation := a.generation
	starting := make(chan struct{})
	a.starting = starting
	a.mode = ModeStarting
	a.mu.Unlock()

	defer close(starting)

	backend, mode := a.attach(ctx)

	return a.commit(ctx, generation, backend, mode)
}

// attach launches the backend and waits for it to become ready. A nil
// backend means simulation.
func (a *Adapter) attach(ctx context.Context) (protocol.Backend, Mode) {
	logger := a.logger.With("backend", a.factory.Name())

	backend, err := a.factory.Launch(ctx)
	if err != nil {
		logger.WarnContext(ctx, "Live backend unavailable, using simulation mode", "error", err)

		return nil, ModeSimulation
	}

	timer := time.NewTimer(a.startupTimeout)
	defer timer.Stop()

	select {
	case <-backend.Ready():
		logger.InfoContext(ctx, "Attached to live backend")

		return backend, ModeLive
	case <-backend.Done():
		logger.WarnContext(ctx, "Live backend exited before becoming ready, using simulation mode")
	case <-timer.C:
		logger.WarnContext(ctx, "Live backend did not become ready, using simulation mode", "timeout", a.startupTimeout)
	case <-ctx.Done():
		logger.WarnContext(ctx, "Startup interrupted, using simulation mode", "error", ctx.Err())
	}

	a.closeBackend(ctx, backend)

	return nil, ModeSimulation
}

// commit records the outcome of a Start unless Stop ran in the meantime,
// in which case the freshly attached backend is closed.
func (a *Adapter) commit(ctx context.Context, generation uint64, backend protocol.Backend, mode Mode) Mode {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.generation != generation || a.mode != ModeStarting {
		if backend != nil {
			a.closeBackend(ctx, backend)
		}

		return a.mode
	}

	a.backend = backend
	a.mode = mode

	return mode
}

// IsReady reports whether Start completed, live or simulated.
func (a *Adapter) IsReady() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()

	return a.mode == ModeLive || a.mode == ModeSimulation
}

func (a *Adapter) Mode() Mode {
	a.mu.RLock()
	defer a.mu.RUnlock()

	return a.mode
}

// Stop detaches from the live backend. It is safe to call when never
// started. Later Send calls use the simulator until Start is called again.
func (a *Adapter) Stop(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	var err error
	if a.backend != nil {
		err = a.backend.Close()
		if err != nil {
			err = fmt.Errorf("failed to close live backend: %w", err)
		}

		a.backend = nil
	}

	if a.mode != ModeStopped {
		a.logger.InfoContext(ctx, "Command adapter stopped")
	}

	a.generation++
	a.mode = ModeStopped

	return err
}

// Send dispatches one command.
func (a *Adapter) Send(ctx context.Context, op models.Operation, params map[string]any) (resp models.CommandResponse) {
	started := time.Now()
	mode := ModeSimulation

	ctx, span := otelhelper.StartSpan(ctx, a.tracer, "adapter.send",
		attribute.String(otelhelper.OperationKey, string(op)),
	)

	defer func() {
		if r := recover(); r != nil {
			a.logger.ErrorContext(ctx, "Command panicked", "operation", op, "panic", r)
			resp = models.NewFailureResponse(fmt.Sprintf("command %s failed: %v", op, r))
		}

		span.SetAttributes(attribute.String(otelhelper.CommandModeKey, string(mode)))

		if !resp.Success {
			otelhelper.SetError(span, errors.New(resp.Error))
		}

		span.End()

		a.metrics.observe(op, mode, resp.Success, time.Since(started))
	}()

	if params == nil {
		params = map[string]any{}
	}

	if err := a.schemas.Validate(op, params); err != nil {
		return models.NewFailureResponse(err.Error())
	}

	a.mu.RLock()
	backend := a.backend
	if a.mode == ModeLive && backend != nil {
		mode = ModeLive
	}
	a.mu.RUnlock()

	if mode == ModeLive {
		return a.sendLive(ctx, backend, op, params)
	}

	return a.simulator.Execute(ctx, op, params)
}

func (a *Adapter) sendLive(ctx context.Context, backend protocol.Backend, op models.Operation, params map[string]any) models.CommandResponse {
	req := models.CommandRequest{
		ID:         a.ids.Next("req"),
		Operation:  op,
		Parameters: params,
	}

	resp, err := backend.Call(ctx, req)
	if err != nil {
		a.logger.WarnContext(ctx, "Live backend call failed", "operation", op, "error", err)

		return models.NewFailureResponse(fmt.Sprintf("backend call %s failed: %v", op, err))
	}

	return normalize(resp)
}

// normalize enforces the envelope invariants on responses from a backend.
func normalize(resp models.CommandResponse) models.CommandResponse {
	if !resp.Success {
		return models.NewFailureResponse(resp.Error)
	}

	if resp.GeneratedIDs == nil {
		resp.GeneratedIDs = map[models.IDRole]string{}
	}

	resp.Error = ""

	return resp
}

func (a *Adapter) closeBackend(ctx context.Context, backend protocol.Backend) {
	if err := backend.Close(); err != nil {
		a.logger.WarnContext(ctx, "Failed to close backend", "error", err)
	}
}

// WorkDir returns the working directory configured for live backends.
func (a *Adapter) WorkDir() string {
	return a.workDir
}

// OutputDir returns the directory exports default into.
func (a *Adapter) OutputDir() string {
	return a.outputDir
}
