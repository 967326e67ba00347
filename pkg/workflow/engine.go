// Package workflow sequences the steps of production workflows, threading
// each completed step's output into the steps that follow it.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"strings"
	"sync"
	"time"

	"github.com/dukex/studioflow/pkg/eventbus"
	"github.com/dukex/studioflow/pkg/events"
	"github.com/dukex/studioflow/pkg/models"
	"github.com/dukex/studioflow/pkg/otelhelper"
	"github.com/dukex/studioflow/pkg/persistence"
	"github.com/dukex/studioflow/pkg/protocol"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var (
	ErrUnknownContentType = errors.New("unknown content type")
	ErrDependencyCycle    = errors.New("dependency cycle")
	ErrStepFailed         = errors.New("step failed")
	ErrInvalidConfig      = errors.New("invalid workflow config")
	ErrAlreadyRunning     = errors.New("workflow already executing")
)

// HandlerRegistry resolves the handler of a step kind. *registry.Registry
// satisfies it.
type HandlerRegistry interface {
	Handler(kind models.StepKind) (protocol.StepHandler, error)
}

// StartResult is returned by Start before execution finishes.
type StartResult struct {
	WorkflowID string         `json:"workflow_id"`
	Steps      []*models.Step `json:"steps"`
}

type Engine struct {
	store     persistence.Persistence
	handlers  HandlerRegistry
	publisher eventbus.EventPublisher
	tracer    trace.Tracer
	validate  *validator.Validate
	logger    *slog.Logger
	now       func() time.Time

	wg sync.WaitGroup

	mu        sync.Mutex
	executing map[string]struct{}
}

type Option func(*Engine)

func WithPublisher(publisher eventbus.EventPublisher) Option {
	return func(e *Engine) {
		e.publisher = publisher
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(e *Engine) {
		e.tracer = tracer
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

func NewEngine(store persistence.Persistence, handlers HandlerRegistry, opts ...Option) *Engine {
	e := &Engine{
		store:     store,
		handlers:  handlers,
		publisher: eventbus.Nop{},
		tracer:    otelhelper.NoopTracer(),
		validate:  validator.New(validator.WithRequiredStructEnabled()),
		logger:    slog.Default(),
		now:       func() time.Time { return time.Now().UTC() },
		executing: make(map[string]struct{}),
	}

	for _, opt := range opts {
		opt(e)
	}

	e.logger = e.logger.With("module", "workflow_engine")

	return e
}

// Create synthesizes the steps for cfg.ContentType and stores the workflow
// as pending.
func (e *Engine) Create(ctx context.Context, cfg models.WorkflowConfig) (*models.Workflow, error) {
	steps, err := StepsFor(cfg.ContentType)
	if err != nil {
		return nil, err
	}

	// Production configs are validated by the pipeline when their step runs.
	if err := e.validate.StructExcept(cfg, "Design", "Video"); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	name := cfg.Name
	if name == "" {
		name = string(cfg.ContentType) + " workflow"
	}

	now := e.now()
	wf := &models.Workflow{
		ID:          uuid.New().String(),
		Name:        name,
		ContentType: cfg.ContentType,
		Status:      models.WorkflowStatusPending,
		Steps:       steps,
		Config:      cfg,
		Report:      []models.ExecutionRecord{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err = e.store.SaveWorkflow(ctx, wf)
	if err != nil {
		return nil, fmt.Errorf("failed to store workflow: %w", err)
	}

	stepIDs := make([]string, 0, len(steps))
	for _, step := range steps {
		stepIDs = append(stepIDs, step.ID)
	}

	e.logger.InfoContext(ctx, "Workflow created", "workflow_id", wf.ID, "content_type", wf.ContentType, "steps", stepIDs)

	e.publish(ctx, wf.ID, events.WorkflowCreated{
		BaseEvent:   events.NewBaseEvent(events.WorkflowCreatedEvent, wf.ID),
		Name:        wf.Name,
		ContentType: wf.ContentType,
		StepIDs:     stepIDs,
	})

	return wf, nil
}

// Start creates the workflow and executes it in the background. The
// execution keeps only ctx's span context, so it outlives the caller; use
// Wait to block on it.
func (e *Engine) Start(ctx context.Context, cfg models.WorkflowConfig) (StartResult, error) {
	wf, err := e.Create(ctx, cfg)
	if err != nil {
		return StartResult{}, err
	}

	result := StartResult{WorkflowID: wf.ID, Steps: wf.Clone().Steps}

	runCtx := trace.ContextWithSpanContext(context.Background(), trace.SpanContextFromContext(ctx))

	e.wg.Add(1)

	go func() {
		defer e.wg.Done()

		if err := e.Execute(runCtx, wf.ID); err != nil {
			e.logger.ErrorContext(runCtx, "Workflow execution failed", "workflow_id", wf.ID, "error", err)
		}
	}()

	return result, nil
}

// Wait blocks until every execution launched by Start has returned.
func (e *Engine) Wait() {
	e.wg.Wait()
}

// Execute runs one pass over the workflow's incomplete steps in dependency
// order. A step whose dependencies are not completed is skipped for the
// pass. The first handler error stops the pass, marks the workflow as
// errored, and is returned wrapped in ErrStepFailed.
func (e *Engine) Execute(ctx context.Context, id string) error {
	if !e.acquire(id) {
		return fmt.Errorf("%w: %s", ErrAlreadyRunning, id)
	}
	defer e.release(id)

	wf, err := e.store.WorkflowByID(ctx, id)
	if err != nil {
		return err
	}

	if wf.Status == models.WorkflowStatusCompleted {
		return nil
	}

	ctx, span := otelhelper.StartSpan(ctx, e.tracer, "workflow.execute",
		attribute.String(otelhelper.WorkflowIDKey, wf.ID),
		attribute.String(otelhelper.WorkflowNameKey, wf.Name),
	)
	defer span.End()

	logger := e.logger.With("workflow_id", wf.ID)
	started := e.now()

	ordered, err := executionOrder(wf.Steps)
	if err != nil {
		otelhelper.SetError(span, err)
		logger.ErrorContext(ctx, "Workflow has a dependency cycle", "error", err)

		wf.Status = models.WorkflowStatusError
		wf.Error = err.Error()
		e.save(ctx, wf)

		e.publish(ctx, wf.ID, events.WorkflowFailed{
			BaseEvent: events.NewBaseEvent(events.WorkflowFailedEvent, wf.ID),
			Error:     wf.Error,
		})

		return err
	}

	wf.Status = models.WorkflowStatusRunning
	wf.Error = ""
	e.save(ctx, wf)

	logger.InfoContext(ctx, "Workflow started", "steps", len(wf.Steps))
	e.publish(ctx, wf.ID, events.WorkflowStarted{
		BaseEvent: events.NewBaseEvent(events.WorkflowStartedEvent, wf.ID),
		Name:      wf.Name,
	})

	outputs := make(map[string]map[string]any, len(wf.Steps))
	for _, step := range wf.Steps {
		if step.Completed {
			outputs[step.ID] = step.Result
		}
	}

	for _, step := range ordered {
		if step.Completed {
			continue
		}

		if missing := missingDependencies(wf, step); len(missing) > 0 {
			e.stall(ctx, logger, wf, step, missing)

			continue
		}

		if err := e.runStep(ctx, logger, wf, step, outputs); err != nil {
			otelhelper.SetError(span, err)

			wf.Status = models.WorkflowStatusError
			wf.Error = err.Error()
			e.save(ctx, wf)

			e.publish(ctx, wf.ID, events.WorkflowFailed{
				BaseEvent: events.NewBaseEvent(events.WorkflowFailedEvent, wf.ID),
				StepID:    step.ID,
				Error:     wf.Error,
				Duration:  e.now().Sub(started),
			})

			return err
		}
	}

	if wf.AllStepsCompleted() {
		completedAt := e.now()
		wf.Status = models.WorkflowStatusCompleted
		wf.CompletedAt = &completedAt
		e.save(ctx, wf)

		logger.InfoContext(ctx, "Workflow completed", "duration", completedAt.Sub(started))
		e.publish(ctx, wf.ID, events.WorkflowCompleted{
			BaseEvent:      events.NewBaseEvent(events.WorkflowCompletedEvent, wf.ID),
			StepsCompleted: len(wf.Steps),
			Duration:       completedAt.Sub(started),
		})

		return nil
	}

	e.save(ctx, wf)
	logger.WarnContext(ctx, "Workflow pass finished with incomplete steps")

	return nil
}

func (e *Engine) runStep(ctx context.Context, logger *slog.Logger, wf *models.Workflow, step *models.Step, outputs map[string]map[string]any) error {
	ctx, span := otelhelper.StartSpan(ctx, e.tracer, "workflow.step",
		attribute.String(otelhelper.StepIDKey, step.ID),
		attribute.String(otelhelper.StepKindKey, string(step.Kind)),
	)
	defer span.End()

	logger = logger.With("step_id", step.ID, "kind", step.Kind)

	started := e.now()
	step.StartedAt = &started
	step.Error = ""

	output, err := e.handle(ctx, wf, step, outputs)
	duration := e.now().Sub(started)

	if err != nil {
		otelhelper.SetError(span, err)
		logger.ErrorContext(ctx, "Step failed", "error", err)

		step.Error = err.Error()
		wf.Report = append(wf.Report, models.ExecutionRecord{
			Step:      step.ID,
			Success:   false,
			Error:     step.Error,
			StartedAt: started,
			Duration:  duration,
		})

		e.publish(ctx, wf.ID, events.StepFailed{
			BaseEvent: events.NewBaseEvent(events.StepFailedEvent, wf.ID),
			StepID:    step.ID,
			Kind:      step.Kind,
			Error:     step.Error,
			Duration:  duration,
		})

		return fmt.Errorf("%w: %s: %w", ErrStepFailed, step.ID, err)
	}

	completedAt := started.Add(duration)
	step.Completed = true
	step.Result = output
	step.CompletedAt = &completedAt
	outputs[step.ID] = output

	wf.Report = append(wf.Report, models.ExecutionRecord{
		Step:      step.ID,
		Success:   true,
		Result:    output,
		StartedAt: started,
		Duration:  duration,
	})
	e.save(ctx, wf)

	logger.InfoContext(ctx, "Step completed", "duration", duration)
	e.publish(ctx, wf.ID, events.StepCompleted{
		BaseEvent: events.NewBaseEvent(events.StepCompletedEvent, wf.ID),
		StepID:    step.ID,
		Kind:      step.Kind,
		Result:    output,
		Duration:  duration,
	})

	return nil
}

func (e *Engine) handle(ctx context.Context, wf *models.Workflow, step *models.Step, outputs map[string]map[string]any) (output map[string]any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panicked: %v", r)
		}
	}()

	handler, err := e.handlers.Handler(step.Kind)
	if err != nil {
		return nil, err
	}

	output, err = handler.Handle(ctx, protocol.StepContext{
		WorkflowID:   wf.ID,
		WorkflowName: wf.Name,
		Config:       wf.Config,
		Step:         *step,
		Outputs:      maps.Clone(outputs),
	})
	if err != nil {
		return nil, err
	}

	if output == nil {
		output = map[string]any{}
	}

	return output, nil
}

func (e *Engine) stall(ctx context.Context, logger *slog.Logger, wf *models.Workflow, step *models.Step, missing []string) {
	reason := "waiting for dependencies: " + strings.Join(missing, ", ")

	logger.WarnContext(ctx, "Step skipped", "step_id", step.ID, "missing", missing)

	wf.Report = append(wf.Report, models.ExecutionRecord{
		Step:      step.ID,
		Success:   false,
		Error:     reason,
		StartedAt: e.now(),
	})

	e.publish(ctx, wf.ID, events.StepStalled{
		BaseEvent: events.NewBaseEvent(events.StepStalledEvent, wf.ID),
		StepID:    step.ID,
		Missing:   missing,
	})
}

// Status returns the stored workflow, or persistence.ErrWorkflowNotFound.
func (e *Engine) Status(ctx context.Context, id string) (*models.Workflow, error) {
	return e.store.WorkflowByID(ctx, id)
}

// List returns every stored workflow ordered by creation time.
func (e *Engine) List(ctx context.Context) ([]*models.Workflow, error) {
	return e.store.Workflows(ctx)
}

func (e *Engine) save(ctx context.Context, wf *models.Workflow) {
	if err := e.store.SaveWorkflow(ctx, wf); err != nil {
		e.logger.ErrorContext(ctx, "Failed to save workflow", "workflow_id", wf.ID, "error", err)
	}
}

func (e *Engine) publish(ctx context.Context, workflowID string, event eventbus.Event) {
	if err := e.publisher.Publish(ctx, workflowID, event); err != nil {
		e.logger.WarnContext(ctx, "Failed to publish event", "workflow_id", workflowID, "event", event.GetType(), "error", err)
	}
}

func (e *Engine) acquire(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.executing[id]; ok {
		return false
	}

	e.executing[id] = struct{}{}

	return true
}

func (e *Engine) release(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	delete(e.executing, id)
}
