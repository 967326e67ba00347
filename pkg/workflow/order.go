package workflow

import (
	"fmt"
	"strings"

	"github.com/dukex/studioflow/pkg/models"
)

// executionOrder sorts steps so every step comes after the steps it depends
// on (Kahn's algorithm). Among steps that are ready at the same time the one
// declared first wins. Dependencies on ids outside the workflow do not
// constrain the order; such steps stall at execution time instead.
func executionOrder(steps []*models.Step) ([]*models.Step, error) {
	index := make(map[string]int, len(steps))
	for i, step := range steps {
		if _, dup := index[step.ID]; !dup {
			index[step.ID] = i
		}
	}

	indegree := make([]int, len(steps))
	dependents := make([][]int, len(steps))

	for i, step := range steps {
		for _, dep := range step.Dependencies {
			d, ok := index[dep]
			if !ok {
				continue
			}

			indegree[i]++
			dependents[d] = append(dependents[d], i)
		}
	}

	done := make([]bool, len(steps))
	ordered := make([]*models.Step, 0, len(steps))

	for len(ordered) < len(steps) {
		next := -1

		for i := range steps {
			if !done[i] && indegree[i] == 0 {
				next = i

				break
			}
		}

		if next < 0 {
			return nil, cycleError(steps, done)
		}

		done[next] = true
		ordered = append(ordered, steps[next])

		for _, dependent := range dependents[next] {
			indegree[dependent]--
		}
	}

	return ordered, nil
}

func cycleError(steps []*models.Step, done []bool) error {
	remaining := make([]string, 0, len(steps))
	for i, step := range steps {
		if !done[i] {
			remaining = append(remaining, step.ID)
		}
	}

	return fmt.Errorf("%w: %s", ErrDependencyCycle, strings.Join(remaining, ", "))
}

// missingDependencies lists the dependencies of step that are not completed,
// including ids that name no step of the workflow.
func missingDependencies(wf *models.Workflow, step *models.Step) []string {
	var missing []string

	for _, dep := range step.Dependencies {
		other, ok := wf.StepByID(dep)
		if !ok || !other.Completed {
			missing = append(missing, dep)
		}
	}

	return missing
}
