// Package notify implements the notification/audit sink: lifecycle events
// fan out to registered webhook targets and land in the audit log. Delivery
// failures are logged and swallowed; a notification must never fail an
// execution.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"netchange/backend/internal/logging"
	"netchange/backend/internal/repository"
	"netchange/backend/pkg/models"
)

// WebhookManager sends execution lifecycle notifications to every active
// webhook configuration subscribed to the event.
type WebhookManager struct {
	store  repository.Store
	client *http.Client
	logger *logging.Logger
}

// NewWebhookManager creates a WebhookManager with the given delivery timeout.
func NewWebhookManager(store repository.Store, timeout time.Duration, logger *logging.Logger) *WebhookManager {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &WebhookManager{
		store:  store,
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
}

// payload is the webhook body: the execution with its workflow, device,
// command records and per-stage results.
type payload struct {
	EventID   string                                       `json:"event_id"`
	EventType models.EventType                             `json:"event_type"`
	Timestamp time.Time                                    `json:"timestamp"`
	Workflow  *models.Workflow                             `json:"workflow,omitempty"`
	Device    *models.Device                               `json:"device,omitempty"`
	Execution *models.WorkflowExecution                    `json:"execution"`
	Commands  []*models.CommandExecution                   `json:"commands"`
	Results   map[models.Stage][]models.StageCommandResult `json:"results"`
	Duration  *float64                                     `json:"duration_seconds,omitempty"`
}

// Notify implements the engine's Notifier interface.
func (m *WebhookManager) Notify(ctx context.Context, exec *models.WorkflowExecution, event models.EventType) {
	configs, err := m.store.ListWebhookConfigs(ctx)
	if err != nil {
		m.logger.Error("failed to load webhook configs", "error", err)
		return
	}

	body, err := json.Marshal(m.buildPayload(ctx, exec, event))
	if err != nil {
		m.logger.Error("failed to encode webhook payload", "execution", exec.ID, "error", err)
		return
	}

	for _, cfg := range configs {
		if !cfg.Matches(event) {
			continue
		}
		m.deliver(ctx, cfg, exec, event, body)
	}
}

func (m *WebhookManager) buildPayload(ctx context.Context, exec *models.WorkflowExecution, event models.EventType) payload {
	p := payload{
		EventID:   exec.ID,
		EventType: event,
		Timestamp: time.Now(),
		Execution: exec,
		Results:   exec.StageResults,
		Duration:  exec.Duration(),
	}

	// Enrichment failures degrade the payload but never block delivery.
	if workflow, err := m.store.GetWorkflow(ctx, exec.WorkflowID); err == nil {
		p.Workflow = workflow
	}
	if device, err := m.store.GetDevice(ctx, exec.DeviceID); err == nil {
		p.Device = device
	}
	if commands, err := m.store.ListCommandExecutions(ctx, exec.ID); err == nil {
		p.Commands = commands
	}
	return p
}

// testPayload is the body of an explicit test fire.
type testPayload struct {
	EventType  models.EventType  `json:"event_type"`
	Timestamp  time.Time         `json:"timestamp"`
	Message    string            `json:"message"`
	SystemInfo map[string]string `json:"system_info"`
}

// SendTest fires a test notification at one webhook target so operators can
// verify the configuration. The config's subscription filter is deliberately
// ignored: a test fire always attempts delivery.
func (m *WebhookManager) SendTest(ctx context.Context, cfg *models.WebhookConfig) (bool, string) {
	body, err := json.Marshal(testPayload{
		EventType: models.EventTestNotification,
		Timestamp: time.Now(),
		Message:   "This is a test webhook from the network change service",
		SystemInfo: map[string]string{
			"service": "netchange",
			"version": "1.0.0",
		},
	})
	if err != nil {
		return false, fmt.Sprintf("Test webhook failed: %v", err)
	}

	method := cfg.Method
	if method == "" {
		method = http.MethodPost
	}
	req, err := http.NewRequestWithContext(ctx, method, cfg.URL, bytes.NewReader(body))
	if err != nil {
		return false, fmt.Sprintf("Test webhook failed: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "netchange/webhook")
	req.Header.Set("X-Event-Type", string(models.EventTestNotification))
	req.Header.Set("X-Timestamp", time.Now().Format(time.RFC3339))
	if cfg.SecretKey != "" {
		req.Header.Set("X-Webhook-Secret", cfg.SecretKey)
	}

	resp, err := m.client.Do(req)
	if err != nil {
		m.logger.Error("test webhook delivery failed",
			"webhook", cfg.Name, "url", cfg.URL, "error", err)
		return false, fmt.Sprintf("Test webhook failed: %v", err)
	}
	defer resp.Body.Close()

	m.logger.Info("test webhook delivered",
		"webhook", cfg.Name, "status", resp.StatusCode)
	return resp.StatusCode == http.StatusOK, fmt.Sprintf("Test webhook sent: %d", resp.StatusCode)
}

func (m *WebhookManager) deliver(ctx context.Context, cfg *models.WebhookConfig, exec *models.WorkflowExecution, event models.EventType, body []byte) {
	method := cfg.Method
	if method == "" {
		method = http.MethodPost
	}
	req, err := http.NewRequestWithContext(ctx, method, cfg.URL, bytes.NewReader(body))
	if err != nil {
		m.audit(ctx, models.LogLevelError, exec,
			fmt.Sprintf("Webhook delivery failed: %v", err), cfg.Name)
		return
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "netchange/webhook")
	req.Header.Set("X-Event-Type", string(event))
	req.Header.Set("X-Timestamp", time.Now().Format(time.RFC3339))
	if cfg.SecretKey != "" {
		req.Header.Set("X-Webhook-Secret", cfg.SecretKey)
	}

	resp, err := m.client.Do(req)
	if err != nil {
		m.logger.Error("webhook delivery failed",
			"webhook", cfg.Name, "url", cfg.URL, "error", err)
		m.audit(ctx, models.LogLevelError, exec,
			fmt.Sprintf("Webhook delivery failed: %v", err), cfg.Name)
		return
	}
	defer resp.Body.Close()

	m.logger.Info("webhook delivered",
		"webhook", cfg.Name, "event", event, "status", resp.StatusCode)
	m.audit(ctx, models.LogLevelInfo, exec,
		fmt.Sprintf("Webhook notification sent for %s (status %d)", event, resp.StatusCode), cfg.Name)
}

func (m *WebhookManager) audit(ctx context.Context, level models.LogLevel, exec *models.WorkflowExecution, message, webhookName string) {
	entry := &models.SystemLog{
		ID:         uuid.New().String(),
		Level:      level,
		Type:       models.LogTypeWebhook,
		Message:    message,
		Details:    fmt.Sprintf(`{"webhook":%q,"execution_id":%q}`, webhookName, exec.ID),
		ObjectType: "WorkflowExecution",
		ObjectID:   exec.ID,
	}
	if err := m.store.CreateSystemLog(ctx, entry); err != nil {
		m.logger.Error("failed to write audit log", "error", err)
	}
}
