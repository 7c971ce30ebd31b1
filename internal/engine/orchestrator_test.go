package engine

import (
	"context"
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

type execResponse struct {
	success bool
	output  string
}

// fakeExecutor returns scripted responses per command text. Commands without
// a script succeed with a canned output.
type fakeExecutor struct {
	mu        sync.Mutex
	responses map[string]execResponse
	panicOn   string
	calls     []string
}

func (f *fakeExecutor) Execute(_ context.Context, _ *models.Device, command string) (bool, string) {
	f.mu.Lock()
	f.calls = append(f.calls, command)
	f.mu.Unlock()

	if command == f.panicOn {
		panic("executor blew up")
	}
	if resp, ok := f.responses[command]; ok {
		return resp.success, resp.output
	}
	return true, "ok"
}

func (f *fakeExecutor) commandsRun() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

type fakeNotifier struct {
	mu     sync.Mutex
	events []models.EventType
}

func (f *fakeNotifier) Notify(_ context.Context, _ *models.WorkflowExecution, event models.EventType) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
}

func (f *fakeNotifier) seen() []models.EventType {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.EventType(nil), f.events...)
}

func newTestEngine(t *testing.T, store repository.Store, executor CommandExecutor) (*Engine, *fakeNotifier) {
	t.Helper()
	notifier := &fakeNotifier{}
	e := New(store, executor, notifier, logging.NewNop(), 1, 4)
	t.Cleanup(e.Close)
	return e, notifier
}

func seedDevice(t *testing.T, store repository.Store) *models.Device {
	t.Helper()
	dev := &models.Device{
		ID:         uuid.New().String(),
		Name:       "sw-test-01",
		Hostname:   "sw-test-01.lab",
		IPAddress:  "192.0.2.10",
		DeviceType: models.DeviceTypeSwitch,
		Status:     models.DeviceStatusOnline,
		SSHPort:    22,
	}
	require.NoError(t, store.CreateDevice(context.Background(), dev))
	return dev
}

func seedWorkflow(t *testing.T, store repository.Store, w *models.Workflow) *models.Workflow {
	t.Helper()
	if w.ID == "" {
		w.ID = uuid.New().String()
	}
	if w.Status == "" {
		w.Status = models.WorkflowStatusActive
	}
	require.NoError(t, store.CreateWorkflow(context.Background(), w))
	return w
}

func startExecution(t *testing.T, e *Engine, store repository.Store, workflowID, deviceID string, params map[string]string) *models.WorkflowExecution {
	t.Helper()
	exec := &models.WorkflowExecution{
		ID:            uuid.New().String(),
		WorkflowID:    workflowID,
		DeviceID:      deviceID,
		Status:        models.ExecutionStatusPending,
		CurrentStage:  models.StagePreCheck,
		DynamicParams: params,
		CreatedBy:     "test",
	}
	require.NoError(t, store.CreateExecution(context.Background(), exec))
	return exec
}

func TestRunCompletesWhenAllStagesPass(t *testing.T) {
	store := repository.NewMemStore()
	executor := &fakeExecutor{responses: map[string]execResponse{
		"show vlan brief":     {true, "100  VLAN100  active"},
		"vlan 100":            {true, ""},
		"show vlan id 100":    {true, "VLAN100 is active"},
		"no vlan 100":         {true, ""},
	}}
	e, notifier := newTestEngine(t, store, executor)

	wf := seedWorkflow(t, store, &models.Workflow{
		Name: "vlan add",
		PreCheckCommands: []models.Command{
			{Text: "show vlan brief", ValidationPattern: "active", Operator: models.OperatorContains},
		},
		ImplementationCommands: []models.Command{{Text: "vlan 100"}},
		PostCheckCommands: []models.Command{
			{Text: "show vlan id 100", ValidationPattern: "VLAN100", Operator: models.OperatorContains},
		},
		RollbackCommands: []models.Command{{Text: "no vlan 100"}},
	})
	dev := seedDevice(t, store)
	exec := startExecution(t, e, store, wf.ID, dev.ID, nil)

	e.Run(context.Background(), exec.ID)

	got, err := store.GetExecution(context.Background(), exec.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ExecutionStatusCompleted, got.Status)
	assert.Equal(t, models.StageCompleted, got.CurrentStage)
	assert.Empty(t, got.ErrorMessage)
	require.NotNil(t, got.StartedAt)
	require.NotNil(t, got.CompletedAt)
	require.NotNil(t, got.Duration())

	// Rollback never ran.
	assert.Equal(t, []string{"show vlan brief", "vlan 100", "show vlan id 100"}, executor.commandsRun())
	assert.NotContains(t, got.StageResults, models.StageRollback)

	assert.Equal(t, []models.EventType{models.EventExecutionStarted, models.EventExecutionCompleted}, notifier.seen())

	records, err := store.ListCommandExecutions(context.Background(), exec.ID)
	require.NoError(t, err)
	require.Len(t, records, 3)
	for _, r := range records {
		assert.Equal(t, models.CommandStatusCompleted, r.Status)
		assert.NotNil(t, r.CompletedAt)
	}
}

func TestRunPreCheckFailureSkipsRollback(t *testing.T) {
	store := repository.NewMemStore()
	executor := &fakeExecutor{responses: map[string]execResponse{
		"show interfaces status": {true, "Gi0/2 notconnect"},
	}}
	e, notifier := newTestEngine(t, store, executor)

	wf := seedWorkflow(t, store, &models.Workflow{
		Name: "port change",
		PreCheckCommands: []models.Command{
			{Text: "show interfaces status", ValidationPattern: "connected", Operator: models.OperatorContains},
		},
		ImplementationCommands: []models.Command{{Text: "interface Gi0/2"}},
		RollbackCommands:       []models.Command{{Text: "undo everything"}},
	})
	dev := seedDevice(t, store)
	exec := startExecution(t, e, store, wf.ID, dev.ID, nil)

	e.Run(context.Background(), exec.ID)

	got, err := store.GetExecution(context.Background(), exec.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ExecutionStatusFailed, got.Status)
	assert.Equal(t, models.StagePreCheck, got.CurrentStage)
	assert.Equal(t, "Pre-check validation failed", got.ErrorMessage)

	// Neither the implementation nor the rollback commands ran.
	assert.Equal(t, []string{"show interfaces status"}, executor.commandsRun())
	assert.Equal(t, []models.EventType{models.EventExecutionStarted, models.EventExecutionFailed}, notifier.seen())
}

func TestRunImplementationFailureRollsBack(t *testing.T) {
	store := repository.NewMemStore()
	executor := &fakeExecutor{responses: map[string]execResponse{
		"step two": {false, "connection reset"},
		// The second rollback command fails; rollback still runs to the end.
		"undo step one": {false, "timeout"},
	}}
	e, notifier := newTestEngine(t, store, executor)

	wf := seedWorkflow(t, store, &models.Workflow{
		Name: "multi step",
		ImplementationCommands: []models.Command{
			{Text: "step one"},
			{Text: "step two"},
			{Text: "step three"},
		},
		RollbackCommands: []models.Command{
			{Text: "undo step two"},
			{Text: "undo step one"},
		},
	})
	dev := seedDevice(t, store)
	exec := startExecution(t, e, store, wf.ID, dev.ID, nil)

	e.Run(context.Background(), exec.ID)

	got, err := store.GetExecution(context.Background(), exec.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ExecutionStatusRolledBack, got.Status)
	assert.Equal(t, models.StageRollback, got.CurrentStage)
	assert.Equal(t, "Implementation failed", got.ErrorMessage)

	// Fail-fast: step three never ran. Rollback ran both commands even
	// though the second one failed.
	assert.Equal(t, []string{"step one", "step two", "undo step two", "undo step one"}, executor.commandsRun())

	implResults := got.StageResults[models.StageImplementation]
	require.Len(t, implResults, 2)
	assert.True(t, implResults[0].Success)
	assert.False(t, implResults[1].Success)
	assert.Equal(t, "connection reset", implResults[1].Error)

	rollbackResults := got.StageResults[models.StageRollback]
	require.Len(t, rollbackResults, 2)
	assert.True(t, rollbackResults[0].Success)
	assert.False(t, rollbackResults[1].Success)

	assert.Equal(t, []models.EventType{models.EventExecutionStarted, models.EventExecutionFailed}, notifier.seen())
}

func TestRunPostCheckValidationFailureRollsBack(t *testing.T) {
	store := repository.NewMemStore()
	executor := &fakeExecutor{responses: map[string]execResponse{
		"show vlan id 200": {true, "VLAN 200 not found in current VLAN database"},
	}}
	e, _ := newTestEngine(t, store, executor)

	wf := seedWorkflow(t, store, &models.Workflow{
		Name:                   "vlan add",
		ImplementationCommands: []models.Command{{Text: "vlan 200"}},
		PostCheckCommands: []models.Command{
			{Text: "show vlan id 200", ValidationPattern: "VLAN0200.*active", Operator: models.OperatorContains},
		},
		RollbackCommands: []models.Command{{Text: "no vlan 200"}},
	})
	dev := seedDevice(t, store)
	exec := startExecution(t, e, store, wf.ID, dev.ID, nil)

	e.Run(context.Background(), exec.ID)

	got, err := store.GetExecution(context.Background(), exec.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ExecutionStatusRolledBack, got.Status)
	assert.Equal(t, "Post-check validation failed", got.ErrorMessage)

	// Transport succeeded; only validation failed.
	postResults := got.StageResults[models.StagePostCheck]
	require.Len(t, postResults, 1)
	assert.True(t, postResults[0].Success)
	assert.False(t, postResults[0].ValidationPassed)

	assert.Contains(t, executor.commandsRun(), "no vlan 200")
}

func TestRunEmptyStagesPassVacuously(t *testing.T) {
	store := repository.NewMemStore()
	executor := &fakeExecutor{}
	e, notifier := newTestEngine(t, store, executor)

	wf := seedWorkflow(t, store, &models.Workflow{
		Name:                   "impl only",
		ImplementationCommands: []models.Command{{Text: "do the thing"}},
	})
	dev := seedDevice(t, store)
	exec := startExecution(t, e, store, wf.ID, dev.ID, nil)

	e.Run(context.Background(), exec.ID)

	got, err := store.GetExecution(context.Background(), exec.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ExecutionStatusCompleted, got.Status)
	assert.Equal(t, []string{"do the thing"}, executor.commandsRun())
	assert.Equal(t, []models.EventType{models.EventExecutionStarted, models.EventExecutionCompleted}, notifier.seen())
}

func TestRunDynamicPatternResolution(t *testing.T) {
	store := repository.NewMemStore()
	executor := &fakeExecutor{responses: map[string]execResponse{
		"show vlan id 300": {true, "300  VLAN300  active"},
	}}
	e, _ := newTestEngine(t, store, executor)

	wf := seedWorkflow(t, store, &models.Workflow{
		Name: "vlan provision",
		PostCheckCommands: []models.Command{
			{
				Text:              "show vlan id 300",
				ValidationPattern: "VLAN{{vlan_id}}.*active",
				Operator:          models.OperatorContains,
				IsDynamic:         true,
			},
		},
	})
	dev := seedDevice(t, store)
	exec := startExecution(t, e, store, wf.ID, dev.ID, map[string]string{"vlan_id": "300"})

	e.Run(context.Background(), exec.ID)

	got, err := store.GetExecution(context.Background(), exec.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ExecutionStatusCompleted, got.Status)

	postResults := got.StageResults[models.StagePostCheck]
	require.Len(t, postResults, 1)
	assert.Equal(t, "VLAN300.*active", postResults[0].Pattern)
	assert.True(t, postResults[0].ValidationPassed)
}

func TestRunCommandPanicRecordedAsFailure(t *testing.T) {
	store := repository.NewMemStore()
	executor := &fakeExecutor{panicOn: "explode"}
	e, _ := newTestEngine(t, store, executor)

	wf := seedWorkflow(t, store, &models.Workflow{
		Name:                   "panicky",
		ImplementationCommands: []models.Command{{Text: "explode"}},
		RollbackCommands:       []models.Command{{Text: "clean up"}},
	})
	dev := seedDevice(t, store)
	exec := startExecution(t, e, store, wf.ID, dev.ID, nil)

	e.Run(context.Background(), exec.ID)

	got, err := store.GetExecution(context.Background(), exec.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ExecutionStatusRolledBack, got.Status)

	implResults := got.StageResults[models.StageImplementation]
	require.Len(t, implResults, 1)
	assert.False(t, implResults[0].Success)
	assert.Equal(t, "executor blew up", implResults[0].Error)

	assert.Contains(t, executor.commandsRun(), "clean up")
}

func TestRunMissingWorkflowFailsEarly(t *testing.T) {
	store := repository.NewMemStore()
	e, notifier := newTestEngine(t, store, &fakeExecutor{})

	dev := seedDevice(t, store)
	exec := startExecution(t, e, store, uuid.New().String(), dev.ID, nil)

	e.Run(context.Background(), exec.ID)

	got, err := store.GetExecution(context.Background(), exec.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ExecutionStatusFailed, got.Status)
	assert.Contains(t, got.ErrorMessage, "failed to load workflow")
	assert.Equal(t, []models.EventType{models.EventExecutionFailed}, notifier.seen())
}

func TestStartExecution(t *testing.T) {
	store := repository.NewMemStore()
	e, _ := newTestEngine(t, store, &fakeExecutor{})

	wf := seedWorkflow(t, store, &models.Workflow{
		Name:                   "noop",
		ImplementationCommands: []models.Command{{Text: "show clock"}},
	})
	dev := seedDevice(t, store)

	t.Run("unknown workflow rejected", func(t *testing.T) {
		_, err := e.StartExecution(context.Background(), uuid.New().String(), dev.ID, nil, "tester")
		require.Error(t, err)
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("unknown device rejected", func(t *testing.T) {
		_, err := e.StartExecution(context.Background(), wf.ID, uuid.New().String(), nil, "tester")
		require.Error(t, err)
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("queued execution runs to completion", func(t *testing.T) {
		id, err := e.StartExecution(context.Background(), wf.ID, dev.ID, nil, "tester")
		require.NoError(t, err)

		require.Eventually(t, func() bool {
			got, err := store.GetExecution(context.Background(), id)
			return err == nil && got.Status.Terminal()
		}, 5*time.Second, 10*time.Millisecond)

		got, err := store.GetExecution(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, models.ExecutionStatusCompleted, got.Status)
		assert.Equal(t, "tester", got.CreatedBy)
	})
}

// Executions against a soft-deleted workflow still resolve their definition;
// deletion only hides the workflow from new triggers via listing.
func TestRunAgainstSoftDeletedWorkflow(t *testing.T) {
	store := repository.NewMemStore()
	e, _ := newTestEngine(t, store, &fakeExecutor{})

	wf := seedWorkflow(t, store, &models.Workflow{
		Name:                   "retired",
		ImplementationCommands: []models.Command{{Text: "show version"}},
	})
	dev := seedDevice(t, store)
	exec := startExecution(t, e, store, wf.ID, dev.ID, nil)

	require.NoError(t, store.SoftDeleteWorkflow(context.Background(), wf.ID))

	e.Run(context.Background(), exec.ID)

	got, err := store.GetExecution(context.Background(), exec.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ExecutionStatusCompleted, got.Status)
}
