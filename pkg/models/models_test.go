package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebhookConfigMatches(t *testing.T) {
	cfg := &WebhookConfig{IsActive: true, Events: EventExecutionFailed}
	assert.True(t, cfg.Matches(EventExecutionFailed))
	assert.False(t, cfg.Matches(EventExecutionCompleted))

	cfg.Events = EventAll
	assert.True(t, cfg.Matches(EventExecutionCompleted))
	assert.True(t, cfg.Matches(EventExecutionStarted))

	cfg.IsActive = false
	assert.False(t, cfg.Matches(EventExecutionCompleted))
}

func TestExecutionStatusTerminal(t *testing.T) {
	terminal := []ExecutionStatus{
		ExecutionStatusCompleted, ExecutionStatusFailed,
		ExecutionStatusCancelled, ExecutionStatusRolledBack,
	}
	for _, s := range terminal {
		assert.True(t, s.Terminal(), string(s))
	}

	active := []ExecutionStatus{
		ExecutionStatusPending, ExecutionStatusRunning, ExecutionStatusRollingBack,
	}
	for _, s := range active {
		assert.False(t, s.Terminal(), string(s))
	}
}

func TestExecutionDuration(t *testing.T) {
	exec := &WorkflowExecution{}
	assert.Nil(t, exec.Duration())

	started := time.Now().Add(-90 * time.Second)
	exec.StartedAt = &started
	assert.Nil(t, exec.Duration())

	completed := started.Add(90 * time.Second)
	exec.CompletedAt = &completed
	d := exec.Duration()
	require.NotNil(t, d)
	assert.InDelta(t, 90.0, *d, 0.001)
}

func TestCommandsForStage(t *testing.T) {
	w := &Workflow{
		PreCheckCommands:       []Command{{Text: "a"}},
		ImplementationCommands: []Command{{Text: "b"}, {Text: "c"}},
		RollbackCommands:       []Command{{Text: "d"}},
	}

	assert.Len(t, w.CommandsForStage(StagePreCheck), 1)
	assert.Len(t, w.CommandsForStage(StageImplementation), 2)
	assert.Empty(t, w.CommandsForStage(StagePostCheck))
	assert.Len(t, w.CommandsForStage(StageRollback), 1)
	assert.Nil(t, w.CommandsForStage(StageCompleted))
}

// The command wire format uses "command" and "regex_pattern" keys.
func TestCommandJSONKeys(t *testing.T) {
	raw := `{"command":"show vlan id 100","regex_pattern":"active","operator":"contains","is_dynamic":true}`

	var cmd Command
	require.NoError(t, json.Unmarshal([]byte(raw), &cmd))
	assert.Equal(t, "show vlan id 100", cmd.Text)
	assert.Equal(t, "active", cmd.ValidationPattern)
	assert.Equal(t, OperatorContains, cmd.Operator)
	assert.True(t, cmd.IsDynamic)

	out, err := json.Marshal(cmd)
	require.NoError(t, err)
	assert.JSONEq(t, raw, string(out))
}
