package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/dukex/studioflow/pkg/models"
	"github.com/dukex/studioflow/pkg/monetization"
	"github.com/dukex/studioflow/pkg/persistence"
	"github.com/dukex/studioflow/pkg/pipeline"
	"github.com/dukex/studioflow/pkg/workflow"
)

// Producer runs single and batch productions. *pipeline.Pipeline satisfies it.
type Producer interface {
	CreateContentArtifact(ctx context.Context, cfg models.ProductionConfig) (*models.PipelineResult, error)
	RunBatch(ctx context.Context, configs []models.ProductionConfig) []*models.PipelineResult
}

// Planner builds monetization plans. *monetization.Planner satisfies it.
type Planner interface {
	Plan(cfg models.MonetizationConfig) (*models.MonetizationPlan, error)
}

// ModeReporter reports how commands are dispatched. *adapter.Adapter
// satisfies it.
type ModeReporter interface {
	IsReady() bool
}

type Studio struct {
	producer Producer
	engine   *workflow.Engine
	planner  Planner
	store    persistence.Persistence
	adapter  ModeReporter
	logger   *slog.Logger
}

type StudioOption func(*Studio)

func WithAdapter(adapter ModeReporter) StudioOption {
	return func(s *Studio) {
		s.adapter = adapter
	}
}

func WithLogger(logger *slog.Logger) StudioOption {
	return func(s *Studio) {
		s.logger = logger
	}
}

func NewStudio(producer Producer, engine *workflow.Engine, planner Planner, store persistence.Persistence, opts ...StudioOption) *Studio {
	s := &Studio{
		producer: producer,
		engine:   engine,
		planner:  planner,
		store:    store,
		logger:   slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.logger = s.logger.With("module", "studio")

	return s
}

// CreateContentArtifact produces one artifact. The result is returned even
// when err is non-nil so callers can inspect the partial report.
func (s *Studio) CreateContentArtifact(ctx context.Context, cfg models.ProductionConfig) (*models.PipelineResult, error) {
	result, err := s.producer.CreateContentArtifact(ctx, cfg)
	if err != nil {
		if errors.Is(err, pipeline.ErrInvalidConfig) {
			return result, NewValidationError("CreateContentArtifact", "invalid_config", err)
		}

		return result, &ServiceError{Op: "CreateContentArtifact", Code: "production_failed", Err: err}
	}

	return result, nil
}

// CreateContentArtifacts produces every config in order; one result per config.
func (s *Studio) CreateContentArtifacts(ctx context.Context, configs []models.ProductionConfig) ([]*models.PipelineResult, error) {
	if len(configs) == 0 {
		return nil, &ServiceError{Op: "CreateContentArtifacts", Code: "empty_batch", Err: ErrEmptyBatch}
	}

	results := s.producer.RunBatch(ctx, configs)

	succeeded := 0
	for _, r := range results {
		if r.Success {
			succeeded++
		}
	}

	s.logger.InfoContext(ctx, "Batch finished", "items", len(results), "succeeded", succeeded)

	return results, nil
}

func (s *Studio) StartWorkflow(ctx context.Context, cfg models.WorkflowConfig) (workflow.StartResult, error) {
	result, err := s.engine.Start(ctx, cfg)
	if err != nil {
		if errors.Is(err, workflow.ErrUnknownContentType) || errors.Is(err, workflow.ErrInvalidConfig) {
			return workflow.StartResult{}, NewValidationError("StartWorkflow", "invalid_workflow", err)
		}

		return workflow.StartResult{}, &ServiceError{Op: "StartWorkflow", Code: "start_failed", Err: err}
	}

	return result, nil
}

// GetWorkflowStatus returns the workflow or an error matching ErrWorkflowNotFound.
func (s *Studio) GetWorkflowStatus(ctx context.Context, id string) (*models.Workflow, error) {
	return s.engine.Status(ctx, id)
}

func (s *Studio) ListWorkflows(ctx context.Context) ([]*models.Workflow, error) {
	return s.engine.List(ctx)
}

func (s *Studio) PlanMonetization(_ context.Context, cfg models.MonetizationConfig) (*models.MonetizationPlan, error) {
	plan, err := s.planner.Plan(cfg)
	if err != nil {
		if errors.Is(err, monetization.ErrInvalidConfig) {
			return nil, NewValidationError("PlanMonetization", "invalid_config", err)
		}

		return nil, &ServiceError{Op: "PlanMonetization", Code: "planning_failed", Err: err}
	}

	return plan, nil
}

// Wait blocks until background workflow executions finish.
func (s *Studio) Wait() {
	s.engine.Wait()
}

// Health summarises the state of the studio's dependencies.
type Health struct {
	Healthy     bool   `json:"healthy"`
	Persistence string `json:"persistence"`
	Adapter     string `json:"adapter"`
}

// HealthCheck reports persistence health and whether the command adapter
// has been started. An adapter that was never started still serves
// commands through simulation, so it does not make the studio unhealthy.
func (s *Studio) HealthCheck(ctx context.Context) Health {
	health := Health{Healthy: true, Persistence: "Persistence layer is healthy", Adapter: "not configured"}

	if s.store == nil {
		health.Healthy = false
		health.Persistence = "Persistence layer not initialized"
	} else if err := s.store.HealthCheck(ctx); err != nil {
		health.Healthy = false
		health.Persistence = "Persistence layer is unhealthy: " + err.Error()
	}

	if s.adapter != nil {
		health.Adapter = "stopped"
		if s.adapter.IsReady() {
			health.Adapter = "ready"
		}
	}

	return health
}
