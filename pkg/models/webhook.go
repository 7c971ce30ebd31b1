package models

import (
	"time"
)

// EventType identifies a lifecycle notification emitted by the orchestrator.
type EventType string

const (
	EventExecutionStarted   EventType = "execution_started"
	EventExecutionCompleted EventType = "execution_completed"
	EventExecutionFailed    EventType = "execution_failed"

	// EventAll subscribes a webhook to every lifecycle event.
	EventAll EventType = "all_events"

	// EventTestNotification is sent only by explicit test fires, never by
	// the engine.
	EventTestNotification EventType = "test_notification"
)

// WebhookConfig is one registered outbound webhook target.
type WebhookConfig struct {
	ID          string    `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description,omitempty" db:"description"`
	URL         string    `json:"webhook_url" db:"webhook_url"`
	Events      EventType `json:"events" db:"events"`
	Method      string    `json:"method" db:"method"`
	IsActive    bool      `json:"is_active" db:"is_active"`
	SecretKey   string    `json:"secret_key,omitempty" db:"secret_key"`
	CreatedBy   string    `json:"created_by,omitempty" db:"created_by"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// Matches reports whether the config subscribes to the given event.
func (w *WebhookConfig) Matches(event EventType) bool {
	return w.IsActive && (w.Events == EventAll || w.Events == event)
}

// AnsibleRunStatus represents the state of a playbook run.
type AnsibleRunStatus string

const (
	AnsibleRunRunning   AnsibleRunStatus = "running"
	AnsibleRunSucceeded AnsibleRunStatus = "succeeded"
	AnsibleRunFailed    AnsibleRunStatus = "failed"
)

// AnsibleRun is the persisted record of one ansible-playbook invocation.
type AnsibleRun struct {
	ID          string            `json:"id" db:"id"`
	Playbook    string            `json:"playbook" db:"playbook"`
	Inventory   string            `json:"inventory,omitempty" db:"inventory"`
	ExtraVars   map[string]string `json:"extra_vars,omitempty"`
	Status      AnsibleRunStatus  `json:"status" db:"status"`
	Output      string            `json:"output,omitempty" db:"output"`
	ExitCode    *int              `json:"exit_code,omitempty" db:"exit_code"`
	CreatedBy   string            `json:"created_by,omitempty" db:"created_by"`
	StartedAt   time.Time         `json:"started_at" db:"started_at"`
	CompletedAt *time.Time        `json:"completed_at,omitempty" db:"completed_at"`
}
