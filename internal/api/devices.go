package api

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"netchange/backend/pkg/models"
)

// ListDevices returns all devices
// (GET /api/v1/devices)
func (s *Server) ListDevices(c echo.Context) error {
	devices, err := s.Store.ListDevices(c.Request().Context())
	if err != nil {
		return storeError(c, err)
	}
	if devices == nil {
		devices = []*models.Device{}
	}
	return c.JSON(http.StatusOK, devices)
}

// CreateDevice registers a new device
// (POST /api/v1/devices)
func (s *Server) CreateDevice(c echo.Context) error {
	var device models.Device
	if err := c.Bind(&device); err != nil {
		return problem(c, http.StatusBadRequest, "Bad Request", "invalid request body: "+err.Error())
	}
	if device.Name == "" || device.IPAddress == "" {
		return problem(c, http.StatusBadRequest, "Bad Request", "name and ip_address are required")
	}
	if device.ID == "" {
		device.ID = uuid.New().String()
	}
	if device.DeviceType == "" {
		device.DeviceType = models.DeviceTypeRouter
	}
	if device.Status == "" {
		device.Status = models.DeviceStatusUnknown
	}
	if device.SSHPort == 0 {
		device.SSHPort = 22
	}
	device.CreatedBy = actor(c)

	if err := s.Store.CreateDevice(c.Request().Context(), &device); err != nil {
		return storeError(c, err)
	}
	return c.JSON(http.StatusCreated, device)
}

// GetDevice returns one device
// (GET /api/v1/devices/:id)
func (s *Server) GetDevice(c echo.Context) error {
	device, err := s.Store.GetDevice(c.Request().Context(), c.Param("id"))
	if err != nil {
		return storeError(c, err)
	}
	return c.JSON(http.StatusOK, device)
}

// UpdateDevice updates an existing device
// (PUT /api/v1/devices/:id)
func (s *Server) UpdateDevice(c echo.Context) error {
	var device models.Device
	if err := c.Bind(&device); err != nil {
		return problem(c, http.StatusBadRequest, "Bad Request", "invalid request body: "+err.Error())
	}
	device.ID = c.Param("id")
	if err := s.Store.UpdateDevice(c.Request().Context(), &device); err != nil {
		return storeError(c, err)
	}
	return c.JSON(http.StatusOK, device)
}

// DeleteDevice removes a device
// (DELETE /api/v1/devices/:id)
func (s *Server) DeleteDevice(c echo.Context) error {
	if err := s.Store.DeleteDevice(c.Request().Context(), c.Param("id")); err != nil {
		return storeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
