package api

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"netchange/backend/pkg/models"
)

// ListWorkflows returns all workflows that are not soft-deleted
// (GET /api/v1/workflows)
func (s *Server) ListWorkflows(c echo.Context) error {
	workflows, err := s.Store.ListWorkflows(c.Request().Context())
	if err != nil {
		return storeError(c, err)
	}
	if workflows == nil {
		workflows = []*models.Workflow{}
	}
	return c.JSON(http.StatusOK, workflows)
}

// CreateWorkflow creates a new workflow definition
// (POST /api/v1/workflows)
func (s *Server) CreateWorkflow(c echo.Context) error {
	var workflow models.Workflow
	if err := c.Bind(&workflow); err != nil {
		return problem(c, http.StatusBadRequest, "Bad Request", "invalid request body: "+err.Error())
	}
	if workflow.Name == "" {
		return problem(c, http.StatusBadRequest, "Bad Request", "name is required")
	}
	if workflow.ID == "" {
		workflow.ID = uuid.New().String()
	}
	if workflow.Status == "" {
		workflow.Status = models.WorkflowStatusDraft
	}
	workflow.CreatedBy = actor(c)

	if err := s.Store.CreateWorkflow(c.Request().Context(), &workflow); err != nil {
		return storeError(c, err)
	}
	return c.JSON(http.StatusCreated, workflow)
}

// GetWorkflow returns one workflow
// (GET /api/v1/workflows/:id)
func (s *Server) GetWorkflow(c echo.Context) error {
	workflow, err := s.Store.GetWorkflow(c.Request().Context(), c.Param("id"))
	if err != nil {
		return storeError(c, err)
	}
	return c.JSON(http.StatusOK, workflow)
}

// UpdateWorkflow updates a workflow definition. Executions already running
// keep the command lists they loaded at start; updates only affect new runs.
// (PUT /api/v1/workflows/:id)
func (s *Server) UpdateWorkflow(c echo.Context) error {
	var workflow models.Workflow
	if err := c.Bind(&workflow); err != nil {
		return problem(c, http.StatusBadRequest, "Bad Request", "invalid request body: "+err.Error())
	}
	workflow.ID = c.Param("id")
	if err := s.Store.UpdateWorkflow(c.Request().Context(), &workflow); err != nil {
		return storeError(c, err)
	}
	return c.JSON(http.StatusOK, workflow)
}

// DeleteWorkflow soft-deletes a workflow; execution records keep a valid
// reference to it
// (DELETE /api/v1/workflows/:id)
func (s *Server) DeleteWorkflow(c echo.Context) error {
	if err := s.Store.SoftDeleteWorkflow(c.Request().Context(), c.Param("id")); err != nil {
		return storeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
