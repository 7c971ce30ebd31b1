package models

import (
	"time"
)

// WorkflowStatus represents the lifecycle status of a workflow definition
type WorkflowStatus string

const (
	WorkflowStatusDraft    WorkflowStatus = "draft"
	WorkflowStatusActive   WorkflowStatus = "active"
	WorkflowStatusPaused   WorkflowStatus = "paused"
	WorkflowStatusArchived WorkflowStatus = "archived"
)

// Operator is the comparison mode used to judge command output against a
// validation pattern.
type Operator string

const (
	OperatorContains    Operator = "contains"
	OperatorEqual       Operator = "equal"
	OperatorNotEqual    Operator = "not_equal"
	OperatorNotContains Operator = "not_contains"
)

// Stage is one of the ordered phases of a workflow run.
type Stage string

const (
	StagePreCheck       Stage = "pre_check"
	StageImplementation Stage = "implementation"
	StagePostCheck      Stage = "post_check"
	StageRollback       Stage = "rollback"
	StageCompleted      Stage = "completed"
)

// Command is one entry in a workflow's per-stage command list.
type Command struct {
	Text              string   `json:"command"`
	ValidationPattern string   `json:"regex_pattern,omitempty"`
	Operator          Operator `json:"operator,omitempty"`
	IsDynamic         bool     `json:"is_dynamic,omitempty"`
	StoreAsVariable   string   `json:"store_as_variable,omitempty"`
}

// Workflow is a staged change template. The four command lists are ordered
// and immutable while an execution is in flight; a workflow may be soft
// deleted without breaking references held by past executions.
type Workflow struct {
	ID                     string         `json:"id" db:"id"`
	Name                   string         `json:"name" db:"name"`
	Description            string         `json:"description" db:"description"`
	Status                 WorkflowStatus `json:"status" db:"status"`
	PreCheckCommands       []Command      `json:"pre_check_commands"`
	ImplementationCommands []Command      `json:"implementation_commands"`
	PostCheckCommands      []Command      `json:"post_check_commands"`
	RollbackCommands       []Command      `json:"rollback_commands"`
	CreatedBy              string         `json:"created_by,omitempty" db:"created_by"`
	CreatedAt              time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt              time.Time      `json:"updated_at" db:"updated_at"`
	DeletedAt              *time.Time     `json:"-" db:"deleted_at"`
}

// CommandsForStage returns the ordered command list for one stage.
func (w *Workflow) CommandsForStage(stage Stage) []Command {
	switch stage {
	case StagePreCheck:
		return w.PreCheckCommands
	case StageImplementation:
		return w.ImplementationCommands
	case StagePostCheck:
		return w.PostCheckCommands
	case StageRollback:
		return w.RollbackCommands
	}
	return nil
}
