package api

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"netchange/backend/pkg/models"
)

// ListWebhooks returns all webhook configurations
// (GET /api/v1/webhooks)
func (s *Server) ListWebhooks(c echo.Context) error {
	configs, err := s.Store.ListWebhookConfigs(c.Request().Context())
	if err != nil {
		return storeError(c, err)
	}
	if configs == nil {
		configs = []*models.WebhookConfig{}
	}
	return c.JSON(http.StatusOK, configs)
}

// CreateWebhook registers a new webhook target
// (POST /api/v1/webhooks)
func (s *Server) CreateWebhook(c echo.Context) error {
	var cfg models.WebhookConfig
	if err := c.Bind(&cfg); err != nil {
		return problem(c, http.StatusBadRequest, "Bad Request", "invalid request body: "+err.Error())
	}
	if cfg.Name == "" || cfg.URL == "" {
		return problem(c, http.StatusBadRequest, "Bad Request", "name and webhook_url are required")
	}
	if cfg.ID == "" {
		cfg.ID = uuid.New().String()
	}
	if cfg.Events == "" {
		cfg.Events = models.EventExecutionCompleted
	}
	if cfg.Method == "" {
		cfg.Method = http.MethodPost
	}
	cfg.CreatedBy = actor(c)

	if err := s.Store.CreateWebhookConfig(c.Request().Context(), &cfg); err != nil {
		return storeError(c, err)
	}
	return c.JSON(http.StatusCreated, cfg)
}

// GetWebhook returns one webhook configuration
// (GET /api/v1/webhooks/:id)
func (s *Server) GetWebhook(c echo.Context) error {
	cfg, err := s.Store.GetWebhookConfig(c.Request().Context(), c.Param("id"))
	if err != nil {
		return storeError(c, err)
	}
	return c.JSON(http.StatusOK, cfg)
}

// UpdateWebhook updates a webhook configuration
// (PUT /api/v1/webhooks/:id)
func (s *Server) UpdateWebhook(c echo.Context) error {
	var cfg models.WebhookConfig
	if err := c.Bind(&cfg); err != nil {
		return problem(c, http.StatusBadRequest, "Bad Request", "invalid request body: "+err.Error())
	}
	cfg.ID = c.Param("id")
	if err := s.Store.UpdateWebhookConfig(c.Request().Context(), &cfg); err != nil {
		return storeError(c, err)
	}
	return c.JSON(http.StatusOK, cfg)
}

// TestWebhookResponse reports the outcome of a test fire.
type TestWebhookResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// TestWebhook fires a test notification at one webhook target
// (POST /api/v1/webhooks/:id/test)
func (s *Server) TestWebhook(c echo.Context) error {
	cfg, err := s.Store.GetWebhookConfig(c.Request().Context(), c.Param("id"))
	if err != nil {
		return storeError(c, err)
	}
	success, message := s.Webhook.SendTest(c.Request().Context(), cfg)
	return c.JSON(http.StatusOK, TestWebhookResponse{Success: success, Message: message})
}

// DeleteWebhook removes a webhook configuration
// (DELETE /api/v1/webhooks/:id)
func (s *Server) DeleteWebhook(c echo.Context) error {
	if err := s.Store.DeleteWebhookConfig(c.Request().Context(), c.Param("id")); err != nil {
		return storeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ListLogs returns the most recent audit/system log entries
// (GET /api/v1/logs)
func (s *Server) ListLogs(c echo.Context) error {
	limit := 100
	if raw := c.QueryParam("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			return problem(c, http.StatusBadRequest, "Bad Request", "limit must be a positive integer")
		}
		limit = parsed
	}
	entries, err := s.Store.ListSystemLogs(c.Request().Context(), limit)
	if err != nil {
		return storeError(c, err)
	}
	if entries == nil {
		entries = []*models.SystemLog{}
	}
	return c.JSON(http.StatusOK, entries)
}
