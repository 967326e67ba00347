package events

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/dukex/studioflow/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBaseEvent(t *testing.T) {
	before := time.Now().UTC()
	event := NewBaseEvent(StepCompletedEvent, "wf-1")

	assert.NotEmpty(t, event.ID)
	assert.Equal(t, StepCompletedEvent, event.Type)
	assert.Equal(t, "wf-1", event.WorkflowID)
	assert.False(t, event.Timestamp.Before(before))
	assert.NotNil(t, event.Metadata)
}

func TestEventTypes(t *testing.T) {
	tests := []struct {
		event interface{ GetType() EventType }
		want  EventType
	}{
		{WorkflowCreated{}, WorkflowCreatedEvent},
		{WorkflowStarted{}, WorkflowStartedEvent},
		{WorkflowCompleted{}, WorkflowCompletedEvent},
		{WorkflowFailed{}, WorkflowFailedEvent},
		{StepCompleted{}, StepCompletedEvent},
		{StepFailed{}, StepFailedEvent},
		{StepStalled{}, StepStalledEvent},
		{ArtifactProduced{}, ArtifactProducedEvent},
	}

	for _, tt := range tests {
		t.Run(string(tt.want), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.event.GetType())
		})
	}
}

func TestStepFailed_JSON(t *testing.T) {
	original := StepFailed{
		BaseEvent: NewBaseEvent(StepFailedEvent, "wf-9"),
		StepID:    "video-2",
		Kind:      models.StepKindVideo,
		Error:     "container creation failed",
		Duration:  1500 * time.Millisecond,
	}

	data, err := json.Marshal(original)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"type":"step.failed"`)
	assert.Contains(t, string(data), `"step_id":"video-2"`)
	assert.Contains(t, string(data), `"kind":"video"`)

	var decoded StepFailed
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, original.WorkflowID, decoded.WorkflowID)
	assert.Equal(t, original.Error, decoded.Error)
	assert.Equal(t, original.Duration, decoded.Duration)
}
