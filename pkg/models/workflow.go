package models

import (
	"maps"
	"slices"
	"time"
)

// WorkflowStatus represents the lifecycle state of a workflow.
type WorkflowStatus string

const (
	WorkflowStatusPending   WorkflowStatus = "pending"
	WorkflowStatusRunning   WorkflowStatus = "running"
	WorkflowStatusCompleted WorkflowStatus = "completed"
	WorkflowStatusError     WorkflowStatus = "error"
)

// IsTerminal reports whether no further execution will change the status.
func (s WorkflowStatus) IsTerminal() bool {
	return s == WorkflowStatusCompleted || s == WorkflowStatusError
}

// ContentType selects the step template of a workflow.
type ContentType string

const (
	ContentTypeDesign   ContentType = "design"   // Poster design only
	ContentTypeVideo    ContentType = "video"    // Video editing only
	ContentTypeCampaign ContentType = "campaign" // Design + video + analysis + monetization
)

// StepKind tags which handler executes a step.
type StepKind string

const (
	StepKindDesign       StepKind = "design"
	StepKindVideo        StepKind = "video"
	StepKindAnalysis     StepKind = "analysis"
	StepKindOptimization StepKind = "optimization"
)

// Step is a unit of work inside a workflow.
type Step struct {
	ID           string         `json:"id"`
	Kind         StepKind       `json:"kind"`
	Description  string         `json:"description"`
	Dependencies []string       `json:"dependencies"`
	Completed    bool           `json:"completed"`
	Result       map[string]any `json:"result,omitempty"`
	Error        string         `json:"error,omitempty"`
	StartedAt    *time.Time     `json:"started_at,omitempty"`
	CompletedAt  *time.Time     `json:"completed_at,omitempty"`
}

// WorkflowConfig is the declarative request a workflow is built from.
type WorkflowConfig struct {
	ContentType  ContentType         `json:"content_type"           yaml:"content_type" validate:"required,oneof=design video campaign"`
	Name         string              `json:"name"                   yaml:"name"`
	Design       *ProductionConfig   `json:"design,omitempty"       yaml:"design"`
	Video        *ProductionConfig   `json:"video,omitempty"        yaml:"video"`
	Monetization *MonetizationConfig `json:"monetization,omitempty" yaml:"monetization"`
}

// Workflow is a stored, executable list of steps.
type Workflow struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	ContentType ContentType       `json:"content_type"`
	Status      WorkflowStatus    `json:"status"`
	Steps       []*Step           `json:"steps"`
	Config      WorkflowConfig    `json:"config"`
	Report      []ExecutionRecord `json:"report"`
	Error       string            `json:"error,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
	CompletedAt *time.Time        `json:"completed_at,omitempty"`
}

// StepByID looks up a step of this workflow.
func (w *Workflow) StepByID(id string) (*Step, bool) {
	for _, step := range w.Steps {
		if step.ID == id {
			return step, true
		}
	}

	return nil, false
}

// AllStepsCompleted reports whether every step has completed.
func (w *Workflow) AllStepsCompleted() bool {
	for _, step := range w.Steps {
		if !step.Completed {
			return false
		}
	}

	return true
}

// Clone returns a copy that shares no mutable state with w.
func (w *Workflow) Clone() *Workflow {
	if w == nil {
		return nil
	}

	clone := *w
	clone.Steps = make([]*Step, 0, len(w.Steps))

	for _, step := range w.Steps {
		s := *step
		s.Dependencies = slices.Clone(step.Dependencies)
		s.Result = maps.Clone(step.Result)
		clone.Steps = append(clone.Steps, &s)
	}

	clone.Report = slices.Clone(w.Report)

	return &clone
}
