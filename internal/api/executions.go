package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"netchange/backend/internal/repository"
	"netchange/backend/pkg/models"
)

// StartExecutionRequest is the trigger payload.
type StartExecutionRequest struct {
	WorkflowID    string            `json:"workflow_id"`
	DeviceID      string            `json:"device_id"`
	DynamicParams map[string]string `json:"dynamic_params,omitempty"`
}

// StartExecutionResponse acknowledges an accepted trigger.
type StartExecutionResponse struct {
	Message     string `json:"message"`
	ExecutionID string `json:"execution_id"`
}

// StartExecution triggers one workflow run against one device. The run is
// asynchronous: the response only acknowledges the new execution record, and
// callers observe progress by polling it or via webhooks.
// (POST /api/v1/executions)
func (s *Server) StartExecution(c echo.Context) error {
	var req StartExecutionRequest
	if err := c.Bind(&req); err != nil {
		return problem(c, http.StatusBadRequest, "Bad Request", "invalid request body: "+err.Error())
	}
	if req.WorkflowID == "" || req.DeviceID == "" {
		return problem(c, http.StatusBadRequest, "Bad Request", "workflow_id and device_id are required")
	}

	executionID, err := s.Engine.StartExecution(c.Request().Context(),
		req.WorkflowID, req.DeviceID, req.DynamicParams, actor(c))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return problem(c, http.StatusNotFound, "Not Found", err.Error())
		}
		return problem(c, http.StatusInternalServerError, "Internal Server Error", err.Error())
	}

	return c.JSON(http.StatusAccepted, StartExecutionResponse{
		Message:     "Workflow execution started successfully",
		ExecutionID: executionID,
	})
}

// ListExecutions returns all executions, newest first
// (GET /api/v1/executions)
func (s *Server) ListExecutions(c echo.Context) error {
	executions, err := s.Store.ListExecutions(c.Request().Context())
	if err != nil {
		return storeError(c, err)
	}
	if executions == nil {
		executions = []*models.WorkflowExecution{}
	}
	return c.JSON(http.StatusOK, executions)
}

// GetExecution returns one execution with its stage results
// (GET /api/v1/executions/:id)
func (s *Server) GetExecution(c echo.Context) error {
	execution, err := s.Store.GetExecution(c.Request().Context(), c.Param("id"))
	if err != nil {
		return storeError(c, err)
	}
	return c.JSON(http.StatusOK, execution)
}

// ListExecutionCommands returns the per-command records of one execution
// (GET /api/v1/executions/:id/commands)
func (s *Server) ListExecutionCommands(c echo.Context) error {
	ctx := c.Request().Context()
	if _, err := s.Store.GetExecution(ctx, c.Param("id")); err != nil {
		return storeError(c, err)
	}
	commands, err := s.Store.ListCommandExecutions(ctx, c.Param("id"))
	if err != nil {
		return storeError(c, err)
	}
	if commands == nil {
		commands = []*models.CommandExecution{}
	}
	return c.JSON(http.StatusOK, commands)
}
