// Package persistence provides the storage abstraction for workflows.
package persistence

import (
	"context"

	"github.com/dukex/studioflow/pkg/models"
)

// Persistence stores workflows. Implementations are safe for concurrent use
// and never hand out values shared with their own state.
type Persistence interface {
	// Workflows returns every stored workflow ordered by creation time.
	Workflows(ctx context.Context) ([]*models.Workflow, error)
	SaveWorkflow(ctx context.Context, workflow *models.Workflow) error
	// WorkflowByID returns ErrWorkflowNotFound when no workflow has the id.
	WorkflowByID(ctx context.Context, id string) (*models.Workflow, error)
	DeleteWorkflow(ctx context.Context, id string) error
	HealthCheck(ctx context.Context) error

	Close(ctx context.Context) error
}
