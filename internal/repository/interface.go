package repository

import (
	"context"
	"errors"

	"netchange/backend/pkg/models"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// Store is the persistence boundary for the service. Implementations
// guarantee single-record atomic writes only; no multi-record transactional
// guarantees are assumed by callers.
type Store interface {
	// Devices
	CreateDevice(ctx context.Context, device *models.Device) error
	GetDevice(ctx context.Context, id string) (*models.Device, error)
	ListDevices(ctx context.Context) ([]*models.Device, error)
	UpdateDevice(ctx context.Context, device *models.Device) error
	DeleteDevice(ctx context.Context, id string) error

	// Workflows. Delete is a soft delete: the row is retained so past
	// executions keep a valid reference.
	CreateWorkflow(ctx context.Context, workflow *models.Workflow) error
	GetWorkflow(ctx context.Context, id string) (*models.Workflow, error)
	ListWorkflows(ctx context.Context) ([]*models.Workflow, error)
	UpdateWorkflow(ctx context.Context, workflow *models.Workflow) error
	SoftDeleteWorkflow(ctx context.Context, id string) error

	// Executions
	CreateExecution(ctx context.Context, execution *models.WorkflowExecution) error
	GetExecution(ctx context.Context, id string) (*models.WorkflowExecution, error)
	ListExecutions(ctx context.Context) ([]*models.WorkflowExecution, error)
	UpdateExecution(ctx context.Context, execution *models.WorkflowExecution) error

	// Command executions
	CreateCommandExecution(ctx context.Context, cmd *models.CommandExecution) error
	UpdateCommandExecution(ctx context.Context, cmd *models.CommandExecution) error
	ListCommandExecutions(ctx context.Context, executionID string) ([]*models.CommandExecution, error)

	// Webhook configurations
	CreateWebhookConfig(ctx context.Context, cfg *models.WebhookConfig) error
	GetWebhookConfig(ctx context.Context, id string) (*models.WebhookConfig, error)
	ListWebhookConfigs(ctx context.Context) ([]*models.WebhookConfig, error)
	UpdateWebhookConfig(ctx context.Context, cfg *models.WebhookConfig) error
	DeleteWebhookConfig(ctx context.Context, id string) error

	// System logs
	CreateSystemLog(ctx context.Context, entry *models.SystemLog) error
	ListSystemLogs(ctx context.Context, limit int) ([]*models.SystemLog, error)

	// Ansible runs
	CreateAnsibleRun(ctx context.Context, run *models.AnsibleRun) error
	UpdateAnsibleRun(ctx context.Context, run *models.AnsibleRun) error
	GetAnsibleRun(ctx context.Context, id string) (*models.AnsibleRun, error)
}
