package persistence

import (
	"cmp"
	"slices"

	"github.com/dukex/studioflow/pkg/models"
)

// SortByCreation orders workflows oldest first, breaking ties by id.
func SortByCreation(workflows []*models.Workflow) {
	slices.SortStableFunc(workflows, func(a, b *models.Workflow) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}

		return cmp.Compare(a.ID, b.ID)
	})
}

// CheckWorkflow rejects workflows no repository can key.
func CheckWorkflow(op string, workflow *models.Workflow) error {
	if workflow == nil {
		return &WorkflowError{Op: op, Err: ErrInvalidWorkflow, Message: "nil workflow"}
	}

	if workflow.ID == "" {
		return &WorkflowError{Op: op, Err: ErrInvalidWorkflow, Message: "empty id"}
	}

	return nil
}
