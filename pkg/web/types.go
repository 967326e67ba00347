// Package web provides HTTP request and response types for the studio API.
package web

import (
	"time"

	"github.com/dukex/studioflow/pkg/models"
)

// BatchRequest is the body of a batch production request.
type BatchRequest struct {
	Items []models.ProductionConfig `json:"items" validate:"required,min=1,dive"`
}

// BatchResponse carries one result per requested item, in request order.
type BatchResponse struct {
	Results   []*models.PipelineResult `json:"results"`
	Succeeded int                      `json:"succeeded"`
	Failed    int                      `json:"failed"`
}

// StartWorkflowResponse is returned before the workflow finishes running.
type StartWorkflowResponse struct {
	WorkflowID string         `json:"workflow_id"`
	Status     string         `json:"status"`
	Steps      []*models.Step `json:"steps"`
}

// WorkflowSummary is the list view of a workflow.
type WorkflowSummary struct {
	ID          string                `json:"id"`
	Name        string                `json:"name"`
	ContentType models.ContentType    `json:"content_type"`
	Status      models.WorkflowStatus `json:"status"`
	Completed   int                   `json:"completed_steps"`
	Total       int                   `json:"total_steps"`
	CreatedAt   time.Time             `json:"created_at"`
}

// TransformWorkflowSummary builds the list view of a workflow.
func TransformWorkflowSummary(wf *models.Workflow) WorkflowSummary {
	completed := 0
	for _, step := range wf.Steps {
		if step.Completed {
			completed++
		}
	}

	return WorkflowSummary{
		ID:          wf.ID,
		Name:        wf.Name,
		ContentType: wf.ContentType,
		Status:      wf.Status,
		Completed:   completed,
		Total:       len(wf.Steps),
		CreatedAt:   wf.CreatedAt,
	}
}
