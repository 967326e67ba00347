// Package scheduler starts workflows on cron schedules.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/dukex/studioflow/pkg/models"
	"github.com/dukex/studioflow/pkg/workflow"
	"github.com/robfig/cron/v3"
)

var (
	ErrInvalidJob  = errors.New("invalid schedule job")
	ErrJobNotFound = errors.New("schedule job not found")
)

// Starter launches a workflow. *services.Studio satisfies it.
type Starter interface {
	StartWorkflow(ctx context.Context, cfg models.WorkflowConfig) (workflow.StartResult, error)
}

// Job starts one workflow per cron tick.
type Job struct {
	ID     string                `json:"id"     yaml:"id"`
	Cron   string                `json:"cron"   yaml:"cron"`
	Config models.WorkflowConfig `json:"config" yaml:"config"`
}

func (j Job) Validate() error {
	if j.ID == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidJob)
	}

	if j.Cron == "" {
		return fmt.Errorf("%w: %s: cron expression is required", ErrInvalidJob, j.ID)
	}

	if _, err := cron.ParseStandard(j.Cron); err != nil {
		return fmt.Errorf("%w: %s: invalid cron expression: %w", ErrInvalidJob, j.ID, err)
	}

	return nil
}

type Scheduler struct {
	starter Starter
	cron    *cron.Cron
	logger  *slog.Logger

	mu      sync.Mutex
	jobs    map[string]Job
	entries map[string]cron.EntryID
}

func New(starter Starter, logger *slog.Logger) *Scheduler {
	logger = logger.With("module", "scheduler")
	cronLogger := slogCronLogger{logger: logger}

	return &Scheduler{
		starter: starter,
		logger:  logger,
		cron: cron.New(cron.WithChain(
			cron.SkipIfStillRunning(cronLogger),
			cron.Recover(cronLogger),
		)),
		jobs:    map[string]Job{},
		entries: map[string]cron.EntryID{},
	}
}

// Add registers job. Adding an id twice replaces the earlier schedule.
func (s *Scheduler) Add(job Job) error {
	if err := job.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.entries[job.ID]; ok {
		s.cron.Remove(id)
	}

	entryID, err := s.cron.AddFunc(job.Cron, func() {
		s.run(context.Background(), job)
	})
	if err != nil {
		return fmt.Errorf("failed to add cron job %s: %w", job.ID, err)
	}

	s.jobs[job.ID] = job
	s.entries[job.ID] = entryID

	s.logger.Info("Scheduled workflow", "job_id", job.ID, "cron", job.Cron, "content_type", job.Config.ContentType)

	return nil
}

// Remove unschedules a job. Unknown ids are ignored.
func (s *Scheduler) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entryID, ok := s.entries[id]; ok {
		s.cron.Remove(entryID)
		delete(s.entries, id)
		delete(s.jobs, id)
	}
}

// Trigger runs a job now, outside its schedule.
func (s *Scheduler) Trigger(ctx context.Context, id string) (workflow.StartResult, error) {
	s.mu.Lock()
	job, ok := s.jobs[id]
	s.mu.Unlock()

	if !ok {
		return workflow.StartResult{}, fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}

	return s.starter.StartWorkflow(ctx, job.Config)
}

func (s *Scheduler) run(ctx context.Context, job Job) {
	logger := s.logger.With("job_id", job.ID)
	logger.InfoContext(ctx, "Cron job triggered")

	result, err := s.starter.StartWorkflow(ctx, job.Config)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to start scheduled workflow", "error", err)

		return
	}

	logger.InfoContext(ctx, "Scheduled workflow started", "workflow_id", result.WorkflowID)
}

func (s *Scheduler) Start() {
	s.logger.Info("Starting scheduler", "jobs", len(s.Jobs()))
	s.cron.Start()
}

// Stop halts the schedule and waits for running jobs or ctx.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.logger.InfoContext(ctx, "Stopping scheduler")

	select {
	case <-s.cron.Stop().Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Jobs returns the registered jobs.
func (s *Scheduler) Jobs() []Job {
	s.mu.Lock()
	defer s.mu.Unlock()

	jobs := make([]Job, 0, len(s.jobs))
	for _, job := range s.jobs {
		jobs = append(jobs, job)
	}

	return jobs
}

type slogCronLogger struct {
	logger *slog.Logger
}

func (l slogCronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l slogCronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error(msg, append(keysAndValues, "error", err)...)
}
