package models

import (
	"time"
)

// ExecutionStatus represents the state of one workflow execution.
type ExecutionStatus string

const (
	ExecutionStatusPending     ExecutionStatus = "pending"
	ExecutionStatusRunning     ExecutionStatus = "running"
	ExecutionStatusCompleted   ExecutionStatus = "completed"
	ExecutionStatusFailed      ExecutionStatus = "failed"
	ExecutionStatusCancelled   ExecutionStatus = "cancelled"
	ExecutionStatusRollingBack ExecutionStatus = "rolling_back"
	ExecutionStatusRolledBack  ExecutionStatus = "rolled_back"
)

// Terminal reports whether the status is a terminal state.
func (s ExecutionStatus) Terminal() bool {
	switch s {
	case ExecutionStatusCompleted, ExecutionStatusFailed,
		ExecutionStatusCancelled, ExecutionStatusRolledBack:
		return true
	}
	return false
}

// CommandStatus represents the state of one executed command.
type CommandStatus string

const (
	CommandStatusPending   CommandStatus = "pending"
	CommandStatusRunning   CommandStatus = "running"
	CommandStatusCompleted CommandStatus = "completed"
	CommandStatusFailed    CommandStatus = "failed"
)

// StageCommandResult is the per-command outcome recorded into the
// execution's stage result blob.
type StageCommandResult struct {
	Command          string `json:"command"`
	Success          bool   `json:"success"`
	Output           string `json:"output,omitempty"`
	Error            string `json:"error,omitempty"`
	ValidationPassed bool   `json:"validation_passed"`
	ValidationResult string `json:"validation_result,omitempty"`
	Pattern          string `json:"regex_pattern,omitempty"`
}

// WorkflowExecution represents one run of one workflow against one device.
// It is owned exclusively by the orchestrator while active and read-only to
// everything else once terminal. A run is never resumed; a retry always
// creates a new record.
type WorkflowExecution struct {
	ID            string                         `json:"id" db:"id"`
	WorkflowID    string                         `json:"workflow_id" db:"workflow_id"`
	DeviceID      string                         `json:"device_id" db:"device_id"`
	Status        ExecutionStatus                `json:"status" db:"status"`
	CurrentStage  Stage                          `json:"current_stage" db:"current_stage"`
	DynamicParams map[string]string              `json:"dynamic_params,omitempty"`
	StageResults  map[Stage][]StageCommandResult `json:"stage_results,omitempty"`
	ErrorMessage  string                         `json:"error_message,omitempty" db:"error_message"`
	CreatedBy     string                         `json:"created_by,omitempty" db:"created_by"`
	CreatedAt     time.Time                      `json:"created_at" db:"created_at"`
	StartedAt     *time.Time                     `json:"started_at,omitempty" db:"started_at"`
	CompletedAt   *time.Time                     `json:"completed_at,omitempty" db:"completed_at"`
}

// Duration returns the wall-clock duration of the run in seconds, or nil if
// the run has not both started and finished.
func (e *WorkflowExecution) Duration() *float64 {
	if e.StartedAt == nil || e.CompletedAt == nil {
		return nil
	}
	d := e.CompletedAt.Sub(*e.StartedAt).Seconds()
	return &d
}

// CommandExecution is the persisted record of one command actually executed
// within a workflow execution. Immutable once the command finishes.
type CommandExecution struct {
	ID               string        `json:"id" db:"id"`
	ExecutionID      string        `json:"execution_id" db:"execution_id"`
	Command          string        `json:"command" db:"command"`
	Stage            Stage         `json:"stage" db:"stage"`
	Status           CommandStatus `json:"status" db:"status"`
	Output           string        `json:"output,omitempty" db:"output"`
	ErrorOutput      string        `json:"error_output,omitempty" db:"error_output"`
	ValidationResult string        `json:"validation_result,omitempty" db:"validation_result"`
	StartedAt        *time.Time    `json:"started_at,omitempty" db:"started_at"`
	CompletedAt      *time.Time    `json:"completed_at,omitempty" db:"completed_at"`
}
