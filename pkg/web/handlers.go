// Package web provides HTTP handlers and REST API endpoints for the studio.
package web

import (
	"errors"
	"net/http"
	"time"

	"github.com/dukex/studioflow/pkg/models"
	"github.com/dukex/studioflow/pkg/pipeline"
	"github.com/dukex/studioflow/pkg/services"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

type APIHandlers struct {
	studio    *services.Studio
	validator *validator.Validate
}

func NewAPIHandlers(studio *services.Studio, validator *validator.Validate) *APIHandlers {
	return &APIHandlers{
		studio:    studio,
		validator: validator,
	}
}

// Routes mounts every studio endpoint on router.
func (h *APIHandlers) Routes(router fiber.Router) {
	router.Post("/artifacts", h.CreateArtifact)
	router.Post("/artifacts/batch", h.CreateArtifacts)

	w := router.Group("/workflows")
	w.Get("/", h.GetWorkflows)
	w.Post("/", h.StartWorkflow)
	w.Get("/:id", h.GetWorkflow)

	router.Post("/monetization/plan", h.PlanMonetization)
	router.Get("/health", h.HealthCheck)
}

func (h *APIHandlers) CreateArtifact(c fiber.Ctx) error {
	var req models.ProductionConfig
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	result, err := h.studio.CreateContentArtifact(c.Context(), req)
	if err != nil {
		// The partial report is more useful to the caller than a bare problem.
		if errors.Is(err, pipeline.ErrContainerCreation) && result != nil {
			return c.Status(fiber.StatusBadGateway).JSON(result)
		}

		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(result)
}

func (h *APIHandlers) CreateArtifacts(c fiber.Ctx) error {
	var req BatchRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if len(req.Items) == 0 {
		return badRequest(c, "items must contain at least one production config")
	}

	results, err := h.studio.CreateContentArtifacts(c.Context(), req.Items)
	if err != nil {
		return handleServiceError(c, err)
	}

	resp := BatchResponse{Results: results}
	for _, r := range results {
		if r.Success {
			resp.Succeeded++
		} else {
			resp.Failed++
		}
	}

	return c.JSON(resp)
}

func (h *APIHandlers) StartWorkflow(c fiber.Ctx) error {
	var req models.WorkflowConfig
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	started, err := h.studio.StartWorkflow(c.Context(), req)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusAccepted).JSON(StartWorkflowResponse{
		WorkflowID: started.WorkflowID,
		Status:     string(models.WorkflowStatusPending),
		Steps:      started.Steps,
	})
}

func (h *APIHandlers) GetWorkflows(c fiber.Ctx) error {
	workflows, err := h.studio.ListWorkflows(c.Context())
	if err != nil {
		return handleServiceError(c, err)
	}

	status := models.WorkflowStatus(c.Query("status"))

	summaries := make([]WorkflowSummary, 0, len(workflows))
	for _, wf := range workflows {
		if status != "" && wf.Status != status {
			continue
		}

		summaries = append(summaries, TransformWorkflowSummary(wf))
	}

	return c.JSON(fiber.Map{
		"workflows":   summaries,
		"total_count": len(summaries),
	})
}

func (h *APIHandlers) GetWorkflow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	wf, err := h.studio.GetWorkflowStatus(c.Context(), id)
	if err != nil {
		if services.IsWorkflowNotFound(err) {
			return notFound(c, "Workflow not found")
		}

		return internalError(c, err)
	}

	return c.JSON(wf)
}

func (h *APIHandlers) PlanMonetization(c fiber.Ctx) error {
	var req models.MonetizationConfig
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	plan, err := h.studio.PlanMonetization(c.Context(), req)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(plan)
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	health := h.studio.HealthCheck(c.Context())

	status := "unhealthy"
	message := "Studioflow API is unhealthy"
	httpStatus := http.StatusInternalServerError

	if health.Healthy {
		status = "healthy"
		message = "Studioflow API is healthy"
		httpStatus = http.StatusOK
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":  status,
		"message": message,
		"checkers": fiber.Map{
			"persistence": health.Persistence,
			"adapter":     health.Adapter,
		},
		"timestamp": time.Now().UTC(),
	})
}
