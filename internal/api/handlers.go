// Package api contains the HTTP handlers for the network change service
package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"netchange/backend/internal/ansible"
	"netchange/backend/internal/engine"
	"netchange/backend/internal/logging"
	"netchange/backend/internal/notify"
	"netchange/backend/internal/repository"
	"netchange/backend/pkg/models"
)

// Server holds the dependencies for the API server.
type Server struct {
	Store   repository.Store
	Engine  *engine.Engine
	Ansible *ansible.Runner
	Webhook *notify.WebhookManager
	Logger  *logging.Logger
}

// NewServer creates a new Server.
func NewServer(store repository.Store, eng *engine.Engine, runner *ansible.Runner, webhook *notify.WebhookManager, logger *logging.Logger) *Server {
	return &Server{Store: store, Engine: eng, Ansible: runner, Webhook: webhook, Logger: logger}
}

// RegisterRoutes mounts all handlers on the given group.
func (s *Server) RegisterRoutes(g *echo.Group) {
	g.GET("/health", s.Health)

	g.GET("/devices", s.ListDevices)
	g.POST("/devices", s.CreateDevice)
	g.GET("/devices/:id", s.GetDevice)
	g.PUT("/devices/:id", s.UpdateDevice)
	g.DELETE("/devices/:id", s.DeleteDevice)

	g.GET("/workflows", s.ListWorkflows)
	g.POST("/workflows", s.CreateWorkflow)
	g.GET("/workflows/:id", s.GetWorkflow)
	g.PUT("/workflows/:id", s.UpdateWorkflow)
	g.DELETE("/workflows/:id", s.DeleteWorkflow)

	g.GET("/executions", s.ListExecutions)
	g.POST("/executions", s.StartExecution)
	g.GET("/executions/:id", s.GetExecution)
	g.GET("/executions/:id/commands", s.ListExecutionCommands)

	g.GET("/webhooks", s.ListWebhooks)
	g.POST("/webhooks", s.CreateWebhook)
	g.GET("/webhooks/:id", s.GetWebhook)
	g.PUT("/webhooks/:id", s.UpdateWebhook)
	g.DELETE("/webhooks/:id", s.DeleteWebhook)
	g.POST("/webhooks/:id/test", s.TestWebhook)

	g.GET("/logs", s.ListLogs)

	g.POST("/ansible/runs", s.RunPlaybook)
	g.GET("/ansible/runs/:id", s.GetAnsibleRun)
	g.POST("/ansible/inventory", s.PreviewInventory)
}

// Health returns basic health status (always returns 200 OK)
func (s *Server) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, models.HealthStatus{
		Status:    "ok",
		Service:   "netchange",
		Version:   "1.0.0",
		Timestamp: time.Now(),
	})
}

// problem writes an RFC 7807 Problem Details response.
func problem(c echo.Context, status int, title, detail string) error {
	return c.JSON(status, models.ProblemDetails{
		Type:     "about:blank",
		Title:    title,
		Status:   status,
		Detail:   detail,
		Instance: c.Request().URL.Path,
	})
}

// storeError maps repository errors onto problem responses.
func storeError(c echo.Context, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return problem(c, http.StatusNotFound, "Not Found", err.Error())
	}
	return problem(c, http.StatusInternalServerError, "Internal Server Error", err.Error())
}

// actor returns the caller identity for attribution. Identity is threaded
// explicitly from the request; there is no ambient current user.
func actor(c echo.Context) string {
	if a := c.Request().Header.Get("X-Actor"); a != "" {
		return a
	}
	return "api"
}
