// Package models defines the domain models for the network change service
package models

import (
	"time"
)

// DeviceType represents the kind of network device
type DeviceType string

const (
	DeviceTypeRouter       DeviceType = "router"
	DeviceTypeSwitch       DeviceType = "switch"
	DeviceTypeFirewall     DeviceType = "firewall"
	DeviceTypeLoadBalancer DeviceType = "load_balancer"
	DeviceTypeServer       DeviceType = "server"
	DeviceTypeOther        DeviceType = "other"
)

// DeviceStatus represents the last known operational status of a device
type DeviceStatus string

const (
	DeviceStatusOnline      DeviceStatus = "online"
	DeviceStatusOffline     DeviceStatus = "offline"
	DeviceStatusMaintenance DeviceStatus = "maintenance"
	DeviceStatusUnknown     DeviceStatus = "unknown"
)

// Device represents a network device that workflows run against. The engine
// consumes it read-only; SSH credentials are never stored on the record and
// come from central configuration instead.
type Device struct {
	ID          string       `json:"id" db:"id"`
	Name        string       `json:"name" db:"name"`
	Hostname    string       `json:"hostname" db:"hostname"`
	IPAddress   string       `json:"ip_address" db:"ip_address"`
	DeviceType  DeviceType   `json:"device_type" db:"device_type"`
	Status      DeviceStatus `json:"status" db:"status"`
	SSHPort     int          `json:"ssh_port" db:"ssh_port"`
	Vendor      string       `json:"vendor,omitempty" db:"vendor"`
	Model       string       `json:"model,omitempty" db:"model"`
	OSVersion   string       `json:"os_version,omitempty" db:"os_version"`
	Location    string       `json:"location,omitempty" db:"location"`
	Description string       `json:"description,omitempty" db:"description"`
	EnableMode  bool         `json:"enable_mode" db:"enable_mode"`
	CreatedBy   string       `json:"created_by,omitempty" db:"created_by"`
	CreatedAt   time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at" db:"updated_at"`
}

// LogLevel classifies a system log entry
type LogLevel string

const (
	LogLevelInfo    LogLevel = "INFO"
	LogLevelWarning LogLevel = "WARNING"
	LogLevelError   LogLevel = "ERROR"
	LogLevelDebug   LogLevel = "DEBUG"
	LogLevelAudit   LogLevel = "AUDIT"
)

// LogType classifies the subsystem a log entry belongs to
type LogType string

const (
	LogTypeSystem   LogType = "SYSTEM"
	LogTypeDevice   LogType = "DEVICE"
	LogTypeWorkflow LogType = "WORKFLOW"
	LogTypeWebhook  LogType = "WEBHOOK"
	LogTypeAnsible  LogType = "ANSIBLE"
)

// SystemLog is an audit/event record persisted by the notification sink and
// the API layer.
type SystemLog struct {
	ID         string    `json:"id" db:"id"`
	Level      LogLevel  `json:"level" db:"level"`
	Type       LogType   `json:"type" db:"type"`
	Message    string    `json:"message" db:"message"`
	Details    string    `json:"details,omitempty" db:"details"`
	ObjectType string    `json:"object_type,omitempty" db:"object_type"`
	ObjectID   string    `json:"object_id,omitempty" db:"object_id"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// HealthStatus represents service health
type HealthStatus struct {
	Status    string    `json:"status"`
	Service   string    `json:"service"`
	Version   string    `json:"version"`
	Timestamp time.Time `json:"timestamp"`
}

// ProblemDetails represents an RFC 7807 Problem Details response
type ProblemDetails struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`
}
