package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"netchange/backend/pkg/models"
)

// runStage executes the ordered command list of one stage, recording a
// CommandExecution per command and the accumulated per-command outcomes on
// the execution's stage result blob. It returns true only if every command
// that ran succeeded at the transport level and passed validation.
//
// The three critical stages stop at the first failure; the rollback stage
// runs every command regardless, since there is no rollback of rollback.
func (e *Engine) runStage(ctx context.Context, exec *models.WorkflowExecution, dev *models.Device, stage models.Stage, commands []models.Command) bool {
	ctx, span := e.tracer.Start(ctx, "engine.runStage",
		trace.WithAttributes(
			attribute.String("execution.id", exec.ID),
			attribute.String("stage", string(stage)),
		))
	defer span.End()

	failFast := stage != models.StageRollback
	passed := true

	var results []models.StageCommandResult
	for _, cmd := range commands {
		result := e.runCommand(ctx, exec, dev, stage, cmd)
		results = append(results, result)
		if !result.Success || !result.ValidationPassed {
			passed = false
			if failFast {
				break
			}
		}
	}

	if exec.StageResults == nil {
		exec.StageResults = make(map[models.Stage][]models.StageCommandResult)
	}
	exec.StageResults[stage] = results
	if err := e.store.UpdateExecution(ctx, exec); err != nil {
		e.logger.Error("failed to persist stage results",
			"execution", exec.ID, "stage", stage, "error", err)
	}

	return passed
}

// runCommand runs a single command: resolve the dynamic pattern, record the
// command as running, execute, validate, and write the outcome back. A panic
// while running the command is recorded as a failed result rather than
// escaping the stage loop.
func (e *Engine) runCommand(ctx context.Context, exec *models.WorkflowExecution, dev *models.Device, stage models.Stage, cmd models.Command) (result models.StageCommandResult) {
	pattern := cmd.ValidationPattern
	if cmd.IsDynamic && len(exec.DynamicParams) > 0 {
		pattern = ResolvePattern(pattern, exec.DynamicParams)
	}

	result = models.StageCommandResult{
		Command:          cmd.Text,
		ValidationPassed: true,
		Pattern:          pattern,
	}

	started := time.Now()
	record := &models.CommandExecution{
		ID:          uuid.New().String(),
		ExecutionID: exec.ID,
		Command:     cmd.Text,
		Stage:       stage,
		Status:      models.CommandStatusRunning,
		StartedAt:   &started,
	}

	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("panic while executing command",
				"execution", exec.ID, "stage", stage, "command", cmd.Text, "panic", r)
			now := time.Now()
			record.Status = models.CommandStatusFailed
			record.ErrorOutput = fmt.Sprint(r)
			record.CompletedAt = &now
			if err := e.store.UpdateCommandExecution(ctx, record); err != nil {
				e.logger.Error("failed to persist command failure", "command", record.ID, "error", err)
			}
			result.Success = false
			result.Error = fmt.Sprint(r)
		}
	}()

	if err := e.store.CreateCommandExecution(ctx, record); err != nil {
		e.logger.Error("failed to create command record",
			"execution", exec.ID, "stage", stage, "error", err)
		result.Success = false
		result.Error = err.Error()
		return result
	}

	success, output := e.executor.Execute(ctx, dev, cmd.Text)
	completed := time.Now()

	record.Output = output
	record.CompletedAt = &completed
	if success {
		record.Status = models.CommandStatusCompleted
	} else {
		record.Status = models.CommandStatusFailed
		record.ErrorOutput = output
	}

	result.Success = success
	result.Output = output
	if !success {
		result.Error = output
	}

	if pattern != "" {
		validationPassed, detail := Validate(output, pattern, cmd.Operator)
		result.ValidationPassed = validationPassed
		result.ValidationResult = detail
		record.ValidationResult = detail
		if !validationPassed {
			e.logger.Warn("validation failed",
				"execution", exec.ID, "stage", stage,
				"command", cmd.Text, "pattern", pattern)
		}
	}

	if err := e.store.UpdateCommandExecution(ctx, record); err != nil {
		e.logger.Error("failed to persist command outcome", "command", record.ID, "error", err)
	}

	return result
}
