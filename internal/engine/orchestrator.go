package engine

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"netchange/backend/pkg/models"
)

// stagePlan is one gating stage of a run. rollbackOnFail separates the two
// decision points of the state machine: a pre-check failure aborts without
// rollback because nothing was implemented yet, while a failure during or
// after implementation always attempts rollback.
type stagePlan struct {
	stage          models.Stage
	rollbackOnFail bool
	failMessage    string
}

var executionPlan = []stagePlan{
	{models.StagePreCheck, false, "Pre-check validation failed"},
	{models.StageImplementation, true, "Implementation failed"},
	{models.StagePostCheck, true, "Post-check validation failed"},
}

// Run drives one execution from pending to a terminal state. It is invoked
// exactly once per execution; a failed run is never resumed, a retry always
// goes through a new execution record. No error ever escapes: every failure
// path ends in a persisted terminal status plus a notification.
func (e *Engine) Run(ctx context.Context, executionID string) {
	ctx, span := e.tracer.Start(ctx, "engine.Run",
		trace.WithAttributes(attribute.String("execution.id", executionID)))
	defer span.End()

	exec, err := e.store.GetExecution(ctx, executionID)
	if err != nil {
		e.logger.Error("execution not found", "execution", executionID, "error", err)
		return
	}

	// Last line of defense: anything unexpected below forces the
	// execution into failed with the panic text as the error message.
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("workflow execution panicked", "execution", executionID, "panic", r)
			e.finish(ctx, exec, models.ExecutionStatusFailed, exec.CurrentStage, fmt.Sprint(r))
			e.notifier.Notify(ctx, exec, models.EventExecutionFailed)
		}
	}()

	workflow, err := e.store.GetWorkflow(ctx, exec.WorkflowID)
	if err != nil {
		e.failEarly(ctx, exec, fmt.Sprintf("failed to load workflow: %v", err))
		return
	}
	device, err := e.store.GetDevice(ctx, exec.DeviceID)
	if err != nil {
		e.failEarly(ctx, exec, fmt.Sprintf("failed to load device: %v", err))
		return
	}

	e.logger.Info("starting workflow execution",
		"execution", exec.ID, "workflow", workflow.Name, "device", device.Name)

	now := time.Now()
	exec.Status = models.ExecutionStatusRunning
	exec.StartedAt = &now
	if err := e.store.UpdateExecution(ctx, exec); err != nil {
		e.logger.Error("failed to mark execution running", "execution", exec.ID, "error", err)
	}
	e.notifier.Notify(ctx, exec, models.EventExecutionStarted)

	for _, plan := range executionPlan {
		exec.CurrentStage = plan.stage
		if err := e.store.UpdateExecution(ctx, exec); err != nil {
			e.logger.Error("failed to persist stage transition", "execution", exec.ID, "error", err)
		}

		if e.runStage(ctx, exec, device, plan.stage, workflow.CommandsForStage(plan.stage)) {
			continue
		}

		if !plan.rollbackOnFail {
			e.logger.Error("pre-check failed", "execution", exec.ID, "workflow", workflow.Name)
			e.finish(ctx, exec, models.ExecutionStatusFailed, models.StagePreCheck, plan.failMessage)
			e.notifier.Notify(ctx, exec, models.EventExecutionFailed)
			return
		}

		e.logger.Error("stage failed, rolling back",
			"execution", exec.ID, "workflow", workflow.Name, "stage", plan.stage)
		exec.Status = models.ExecutionStatusRollingBack
		exec.CurrentStage = models.StageRollback
		if err := e.store.UpdateExecution(ctx, exec); err != nil {
			e.logger.Error("failed to mark execution rolling back", "execution", exec.ID, "error", err)
		}

		// Rollback commands are recorded and validated like any other
		// stage, but their outcome does not gate anything further.
		e.runStage(ctx, exec, device, models.StageRollback, workflow.RollbackCommands)

		e.finish(ctx, exec, models.ExecutionStatusRolledBack, models.StageRollback, plan.failMessage)
		e.notifier.Notify(ctx, exec, models.EventExecutionFailed)
		return
	}

	e.logger.Info("workflow completed", "execution", exec.ID, "workflow", workflow.Name)
	e.finish(ctx, exec, models.ExecutionStatusCompleted, models.StageCompleted, "")
	e.notifier.Notify(ctx, exec, models.EventExecutionCompleted)
}

// finish moves an execution into a terminal state and persists it.
func (e *Engine) finish(ctx context.Context, exec *models.WorkflowExecution, status models.ExecutionStatus, stage models.Stage, errorMessage string) {
	now := time.Now()
	exec.Status = status
	exec.CurrentStage = stage
	exec.CompletedAt = &now
	if errorMessage != "" {
		exec.ErrorMessage = errorMessage
	}
	if err := e.store.UpdateExecution(ctx, exec); err != nil {
		e.logger.Error("failed to persist terminal execution state",
			"execution", exec.ID, "status", status, "error", err)
	}
}

// failEarly marks an execution failed before any stage ran.
func (e *Engine) failEarly(ctx context.Context, exec *models.WorkflowExecution, message string) {
	e.logger.Error("execution aborted", "execution", exec.ID, "error", message)
	e.finish(ctx, exec, models.ExecutionStatusFailed, exec.CurrentStage, message)
	e.notifier.Notify(ctx, exec, models.EventExecutionFailed)
}
