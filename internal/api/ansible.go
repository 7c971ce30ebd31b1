package api

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"netchange/backend/internal/ansible"
	"netchange/backend/pkg/models"
)

// RunPlaybookRequest asks for one ansible-playbook invocation.
type RunPlaybookRequest struct {
	Playbook  string            `json:"playbook"`
	DeviceIDs []string          `json:"device_ids"`
	Group     string            `json:"group,omitempty"`
	ExtraVars map[string]string `json:"extra_vars,omitempty"`
}

// RunPlaybook starts an asynchronous playbook run against an inventory
// generated from the named devices
// (POST /api/v1/ansible/runs)
func (s *Server) RunPlaybook(c echo.Context) error {
	var req RunPlaybookRequest
	if err := c.Bind(&req); err != nil {
		return problem(c, http.StatusBadRequest, "Bad Request", "invalid request body: "+err.Error())
	}
	if req.Playbook == "" || len(req.DeviceIDs) == 0 {
		return problem(c, http.StatusBadRequest, "Bad Request", "playbook and device_ids are required")
	}

	ctx := c.Request().Context()
	devices := make([]*models.Device, 0, len(req.DeviceIDs))
	for _, id := range req.DeviceIDs {
		device, err := s.Store.GetDevice(ctx, id)
		if err != nil {
			return storeError(c, err)
		}
		devices = append(devices, device)
	}
	inventory := ansible.BuildInventory(devices, req.Group)

	run := &models.AnsibleRun{
		ID:        uuid.New().String(),
		Playbook:  req.Playbook,
		Inventory: inventory,
		ExtraVars: req.ExtraVars,
		Status:    models.AnsibleRunRunning,
		CreatedBy: actor(c),
		StartedAt: time.Now(),
	}
	if err := s.Store.CreateAnsibleRun(ctx, run); err != nil {
		return storeError(c, err)
	}

	go s.executePlaybook(run)

	return c.JSON(http.StatusAccepted, run)
}

// executePlaybook runs the playbook detached from the request and writes the
// outcome back to the run record.
func (s *Server) executePlaybook(run *models.AnsibleRun) {
	ctx := context.Background()
	result, err := s.Ansible.Run(ctx, run.Playbook, run.Inventory, run.ExtraVars)

	now := time.Now()
	run.CompletedAt = &now
	if err != nil {
		run.Status = models.AnsibleRunFailed
		run.Output = err.Error()
	} else {
		run.Output = result.Output
		run.ExitCode = &result.ExitCode
		if result.ExitCode == 0 {
			run.Status = models.AnsibleRunSucceeded
		} else {
			run.Status = models.AnsibleRunFailed
		}
	}
	if err := s.Store.UpdateAnsibleRun(ctx, run); err != nil {
		s.Logger.Error("failed to persist ansible run outcome", "run", run.ID, "error", err)
	}
}

// GetAnsibleRun returns one playbook run
// (GET /api/v1/ansible/runs/:id)
func (s *Server) GetAnsibleRun(c echo.Context) error {
	run, err := s.Store.GetAnsibleRun(c.Request().Context(), c.Param("id"))
	if err != nil {
		return storeError(c, err)
	}
	return c.JSON(http.StatusOK, run)
}

// PreviewInventoryRequest asks for an inventory rendering without running
// anything.
type PreviewInventoryRequest struct {
	DeviceIDs []string `json:"device_ids"`
	Group     string   `json:"group,omitempty"`
}

// PreviewInventory renders the INI inventory that a playbook run over the
// given devices would use
// (POST /api/v1/ansible/inventory)
func (s *Server) PreviewInventory(c echo.Context) error {
	var req PreviewInventoryRequest
	if err := c.Bind(&req); err != nil {
		return problem(c, http.StatusBadRequest, "Bad Request", "invalid request body: "+err.Error())
	}
	if len(req.DeviceIDs) == 0 {
		return problem(c, http.StatusBadRequest, "Bad Request", "device_ids are required")
	}

	ctx := c.Request().Context()
	devices := make([]*models.Device, 0, len(req.DeviceIDs))
	for _, id := range req.DeviceIDs {
		device, err := s.Store.GetDevice(ctx, id)
		if err != nil {
			return storeError(c, err)
		}
		devices = append(devices, device)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"inventory_content": ansible.BuildInventory(devices, req.Group),
		"device_count":      len(devices),
		"format":            "ini",
	})
}
