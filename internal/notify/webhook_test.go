package notify

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"netchange/backend/internal/logging"
	"netchange/backend/internal/repository"
	"netchange/backend/pkg/models"
)

type capturedRequest struct {
	method  string
	headers http.Header
	body    []byte
}

// captureServer records every request it receives and responds 200.
func captureServer(t *testing.T) (*httptest.Server, func() []capturedRequest) {
	t.Helper()
	var mu sync.Mutex
	var requests []capturedRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		requests = append(requests, capturedRequest{
			method:  r.Method,
			headers: r.Header.Clone(),
			body:    body,
		})
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	return srv, func() []capturedRequest {
		mu.Lock()
		defer mu.Unlock()
		return append([]capturedRequest(nil), requests...)
	}
}

func seedExecution(t *testing.T, store repository.Store) *models.WorkflowExecution {
	t.Helper()
	ctx := context.Background()

	wf := &models.Workflow{
		ID:   uuid.New().String(),
		Name: "vlan add",
		PostCheckCommands: []models.Command{
			{Text: "show vlan id 100", ValidationPattern: "active", Operator: models.OperatorContains},
		},
	}
	require.NoError(t, store.CreateWorkflow(ctx, wf))

	dev := &models.Device{
		ID:         uuid.New().String(),
		Name:       "sw-core-01",
		Hostname:   "sw-core-01.lab",
		IPAddress:  "192.0.2.20",
		DeviceType: models.DeviceTypeSwitch,
	}
	require.NoError(t, store.CreateDevice(ctx, dev))

	started := time.Now().Add(-3 * time.Second)
	completed := time.Now()
	exec := &models.WorkflowExecution{
		ID:           uuid.New().String(),
		WorkflowID:   wf.ID,
		DeviceID:     dev.ID,
		Status:       models.ExecutionStatusCompleted,
		CurrentStage: models.StageCompleted,
		StageResults: map[models.Stage][]models.StageCommandResult{
			models.StagePostCheck: {
				{Command: "show vlan id 100", Success: true, ValidationPassed: true},
			},
		},
		StartedAt:   &started,
		CompletedAt: &completed,
	}
	require.NoError(t, store.CreateExecution(ctx, exec))
	return exec
}

func addWebhook(t *testing.T, store repository.Store, url string, events models.EventType, mutate func(*models.WebhookConfig)) *models.WebhookConfig {
	t.Helper()
	cfg := &models.WebhookConfig{
		ID:       uuid.New().String(),
		Name:     "test-hook",
		URL:      url,
		Events:   events,
		Method:   http.MethodPost,
		IsActive: true,
	}
	if mutate != nil {
		mutate(cfg)
	}
	require.NoError(t, store.CreateWebhookConfig(context.Background(), cfg))
	return cfg
}

func TestNotifyDeliversMatchingWebhooks(t *testing.T) {
	store := repository.NewMemStore()
	srv, received := captureServer(t)
	addWebhook(t, store, srv.URL, models.EventExecutionCompleted, nil)
	exec := seedExecution(t, store)

	m := NewWebhookManager(store, 5*time.Second, logging.NewNop())
	m.Notify(context.Background(), exec, models.EventExecutionCompleted)

	requests := received()
	require.Len(t, requests, 1)
	req := requests[0]

	assert.Equal(t, http.MethodPost, req.method)
	assert.Equal(t, "application/json", req.headers.Get("Content-Type"))
	assert.Equal(t, "netchange/webhook", req.headers.Get("User-Agent"))
	assert.Equal(t, string(models.EventExecutionCompleted), req.headers.Get("X-Event-Type"))
	assert.NotEmpty(t, req.headers.Get("X-Timestamp"))
	assert.Empty(t, req.headers.Get("X-Webhook-Secret"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(req.body, &body))
	assert.Equal(t, exec.ID, body["event_id"])
	assert.Equal(t, string(models.EventExecutionCompleted), body["event_type"])
	assert.NotNil(t, body["execution"])
	assert.NotNil(t, body["workflow"])
	assert.NotNil(t, body["device"])
	assert.NotNil(t, body["results"])
	assert.InDelta(t, 3.0, body["duration_seconds"], 0.5)
}

func TestNotifySkipsNonMatchingWebhooks(t *testing.T) {
	store := repository.NewMemStore()
	srv, received := captureServer(t)

	addWebhook(t, store, srv.URL, models.EventExecutionFailed, func(c *models.WebhookConfig) { c.Name = "failed-only" })
	addWebhook(t, store, srv.URL, models.EventAll, func(c *models.WebhookConfig) { c.Name = "catch-all" })
	addWebhook(t, store, srv.URL, models.EventExecutionCompleted, func(c *models.WebhookConfig) {
		c.Name = "inactive"
		c.IsActive = false
	})

	exec := seedExecution(t, store)
	m := NewWebhookManager(store, 5*time.Second, logging.NewNop())
	m.Notify(context.Background(), exec, models.EventExecutionCompleted)

	// Only the catch-all matched: failed-only subscribes to a different
	// event and the inactive hook never fires.
	assert.Len(t, received(), 1)
}

func TestNotifySetsSecretHeaderAndMethod(t *testing.T) {
	store := repository.NewMemStore()
	srv, received := captureServer(t)
	addWebhook(t, store, srv.URL, models.EventAll, func(c *models.WebhookConfig) {
		c.Method = http.MethodPut
		c.SecretKey = "s3cret"
	})

	exec := seedExecution(t, store)
	m := NewWebhookManager(store, 5*time.Second, logging.NewNop())
	m.Notify(context.Background(), exec, models.EventExecutionStarted)

	requests := received()
	require.Len(t, requests, 1)
	assert.Equal(t, http.MethodPut, requests[0].method)
	assert.Equal(t, "s3cret", requests[0].headers.Get("X-Webhook-Secret"))
}

func TestNotifySwallowsDeliveryFailures(t *testing.T) {
	store := repository.NewMemStore()
	srv, received := captureServer(t)

	// An unreachable target must not prevent delivery to the others.
	addWebhook(t, store, "http://127.0.0.1:1/unreachable", models.EventAll, func(c *models.WebhookConfig) { c.Name = "dead" })
	addWebhook(t, store, srv.URL, models.EventAll, func(c *models.WebhookConfig) { c.Name = "live" })

	exec := seedExecution(t, store)
	m := NewWebhookManager(store, 2*time.Second, logging.NewNop())
	m.Notify(context.Background(), exec, models.EventExecutionCompleted)

	assert.Len(t, received(), 1)

	// Both attempts left an audit trail.
	logs, err := store.ListSystemLogs(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	var levels []models.LogLevel
	for _, l := range logs {
		assert.Equal(t, models.LogTypeWebhook, l.Type)
		assert.Equal(t, exec.ID, l.ObjectID)
		levels = append(levels, l.Level)
	}
	assert.ElementsMatch(t, []models.LogLevel{models.LogLevelError, models.LogLevelInfo}, levels)
}

func TestSendTest(t *testing.T) {
	store := repository.NewMemStore()
	srv, received := captureServer(t)
	cfg := addWebhook(t, store, srv.URL, models.EventExecutionFailed, func(c *models.WebhookConfig) {
		c.SecretKey = "s3cret"
	})

	m := NewWebhookManager(store, 5*time.Second, logging.NewNop())

	// The subscription filter does not apply to test fires.
	success, message := m.SendTest(context.Background(), cfg)
	assert.True(t, success)
	assert.Equal(t, "Test webhook sent: 200", message)

	requests := received()
	require.Len(t, requests, 1)
	req := requests[0]
	assert.Equal(t, string(models.EventTestNotification), req.headers.Get("X-Event-Type"))
	assert.Equal(t, "s3cret", req.headers.Get("X-Webhook-Secret"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(req.body, &body))
	assert.Equal(t, string(models.EventTestNotification), body["event_type"])
	assert.NotEmpty(t, body["message"])
	assert.NotNil(t, body["system_info"])
}

func TestSendTestUnreachableTarget(t *testing.T) {
	store := repository.NewMemStore()
	cfg := addWebhook(t, store, "http://127.0.0.1:1/unreachable", models.EventAll, nil)

	m := NewWebhookManager(store, 2*time.Second, logging.NewNop())
	success, message := m.SendTest(context.Background(), cfg)
	assert.False(t, success)
	assert.Contains(t, message, "Test webhook failed")
}

func TestNotifyAuditsSuccessfulDelivery(t *testing.T) {
	store := repository.NewMemStore()
	srv, _ := captureServer(t)
	addWebhook(t, store, srv.URL, models.EventAll, nil)

	exec := seedExecution(t, store)
	m := NewWebhookManager(store, 5*time.Second, logging.NewNop())
	m.Notify(context.Background(), exec, models.EventExecutionCompleted)

	logs, err := store.ListSystemLogs(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, models.LogLevelInfo, logs[0].Level)
	assert.Contains(t, logs[0].Message, "Webhook notification sent")
	assert.Contains(t, logs[0].Message, string(models.EventExecutionCompleted))
}
