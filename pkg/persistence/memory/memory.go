// Package memory provides the default in-process workflow store.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/dukex/studioflow/pkg/models"
	"github.com/dukex/studioflow/pkg/persistence"
)

type Persistence struct {
	mu        sync.RWMutex
	workflows map[string]*models.Workflow
}

func NewPersistence() *Persistence {
	return &Persistence{workflows: make(map[string]*models.Workflow)}
}

func (p *Persistence) Workflows(_ context.Context) ([]*models.Workflow, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	workflows := make([]*models.Workflow, 0, len(p.workflows))
	for _, wf := range p.workflows {
		workflows = append(workflows, wf.Clone())
	}

	persistence.SortByCreation(workflows)

	return workflows, nil
}

func (p *Persistence) SaveWorkflow(_ context.Context, workflow *models.Workflow) error {
	if err := persistence.CheckWorkflow("SaveWorkflow", workflow); err != nil {
		return err
	}

	now := time.Now().UTC()
	if workflow.CreatedAt.IsZero() {
		workflow.CreatedAt = now
	}

	workflow.UpdatedAt = now

	p.mu.Lock()
	defer p.mu.Unlock()

	p.workflows[workflow.ID] = workflow.Clone()

	return nil
}

func (p *Persistence) WorkflowByID(_ context.Context, id string) (*models.Workflow, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	wf, ok := p.workflows[id]
	if !ok {
		return nil, persistence.NewWorkflowError("WorkflowByID", id, persistence.ErrWorkflowNotFound)
	}

	return wf.Clone(), nil
}

func (p *Persistence) DeleteWorkflow(_ context.Context, id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	delete(p.workflows, id)

	return nil
}

func (p *Persistence) HealthCheck(context.Context) error {
	return nil
}

func (p *Persistence) Close(context.Context) error {
	return nil
}
