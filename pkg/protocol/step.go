package protocol

import (
	"context"

	"github.com/dukex/studioflow/pkg/models"
)

// StepContext is what a handler sees while executing a workflow step.
type StepContext struct {
	WorkflowID   string
	WorkflowName string
	Config       models.WorkflowConfig
	Step         models.Step

	// Outputs holds the results of steps already completed in this
	// workflow, keyed by step ID.
	Outputs map[string]map[string]any
}

// DependencyOutputs returns the outputs of the step's dependencies in
// declaration order, skipping any that have not produced output.
func (c StepContext) DependencyOutputs() []map[string]any {
	outputs := make([]map[string]any, 0, len(c.Step.Dependencies))

	for _, dep := range c.Step.Dependencies {
		if out, ok := c.Outputs[dep]; ok {
			outputs = append(outputs, out)
		}
	}

	return outputs
}

// StepHandler executes steps of one kind.
type StepHandler interface {
	Kind() models.StepKind
	Handle(ctx context.Context, sc StepContext) (map[string]any, error)
}
