// Package events defines event types and structures for workflow lifecycle notifications.
package events

import (
	"time"

	"github.com/dukex/studioflow/pkg/models"
	"github.com/google/uuid"
)

type EventType string

// Topic carries every workflow lifecycle event.
const Topic = "studioflow.events"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	WorkflowCreatedEvent   EventType = "workflow.created"
	WorkflowStartedEvent   EventType = "workflow.started"
	WorkflowCompletedEvent EventType = "workflow.completed"
	WorkflowFailedEvent    EventType = "workflow.failed"

	StepCompletedEvent EventType = "step.completed"
	StepFailedEvent    EventType = "step.failed"
	StepStalledEvent   EventType = "step.stalled"

	ArtifactProducedEvent EventType = "artifact.produced"
)

type BaseEvent struct {
	ID         string         `json:"id"`
	Type       EventType      `json:"type"`
	Timestamp  time.Time      `json:"timestamp"`
	WorkflowID string         `json:"workflow_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

func NewBaseEvent(eventType EventType, workflowID string) BaseEvent {
	return BaseEvent{
		ID:         uuid.New().String(),
		Type:       eventType,
		Timestamp:  time.Now().UTC(),
		WorkflowID: workflowID,
		Metadata:   make(map[string]any),
	}
}

type WorkflowCreated struct {
	BaseEvent

	Name        string             `json:"name"`
	ContentType models.ContentType `json:"content_type"`
	StepIDs     []string           `json:"step_ids"`
}

func (w WorkflowCreated) GetType() EventType {
	return WorkflowCreatedEvent
}

type WorkflowStarted struct {
	BaseEvent

	Name string `json:"name"`
}

func (w WorkflowStarted) GetType() EventType {
	return WorkflowStartedEvent
}

type WorkflowCompleted struct {
	BaseEvent

	StepsCompleted int           `json:"steps_completed"`
	Duration       time.Duration `json:"duration"`
}

func (w WorkflowCompleted) GetType() EventType {
	return WorkflowCompletedEvent
}

type WorkflowFailed struct {
	BaseEvent

	StepID   string        `json:"step_id,omitempty"`
	Error    string        `json:"error"`
	Duration time.Duration `json:"duration"`
}

func (w WorkflowFailed) GetType() EventType {
	return WorkflowFailedEvent
}

type StepCompleted struct {
	BaseEvent

	StepID   string          `json:"step_id"`
	Kind     models.StepKind `json:"kind"`
	Result   map[string]any  `json:"result,omitempty"`
	Duration time.Duration   `json:"duration"`
}

func (s StepCompleted) GetType() EventType {
	return StepCompletedEvent
}

type StepFailed struct {
	BaseEvent

	StepID   string          `json:"step_id"`
	Kind     models.StepKind `json:"kind"`
	Error    string          `json:"error"`
	Duration time.Duration   `json:"duration"`
}

func (s StepFailed) GetType() EventType {
	return StepFailedEvent
}

// StepStalled is emitted when a step is skipped because its dependencies are
// not completed.
type StepStalled struct {
	BaseEvent

	StepID  string   `json:"step_id"`
	Missing []string `json:"missing"`
}

func (s StepStalled) GetType() EventType {
	return StepStalledEvent
}

type ArtifactProduced struct {
	BaseEvent

	Kind        models.ContentKind `json:"kind"`
	Title       string             `json:"title"`
	Success     bool               `json:"success"`
	ContainerID string             `json:"container_id,omitempty"`
	ExportPath  string             `json:"export_path,omitempty"`
	Error       string             `json:"error,omitempty"`
}

func (a ArtifactProduced) GetType() EventType {
	return ArtifactProducedEvent
}
