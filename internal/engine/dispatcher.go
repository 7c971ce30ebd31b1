package engine

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"netchange/backend/pkg/models"
)

// StartExecution is the single trigger entry point: it validates the
// references, creates exactly one pending execution record and hands it to
// the worker pool. The caller identity is threaded in explicitly; the engine
// has no notion of a current user. Completion is observed by polling the
// execution record or through the notification sink, never synchronously.
func (e *Engine) StartExecution(ctx context.Context, workflowID, deviceID string, dynamicParams map[string]string, actor string) (string, error) {
	workflow, err := e.store.GetWorkflow(ctx, workflowID)
	if err != nil {
		return "", fmt.Errorf("workflow %s: %w", workflowID, err)
	}
	if _, err := e.store.GetDevice(ctx, deviceID); err != nil {
		return "", fmt.Errorf("device %s: %w", deviceID, err)
	}

	exec := &models.WorkflowExecution{
		ID:            uuid.New().String(),
		WorkflowID:    workflow.ID,
		DeviceID:      deviceID,
		Status:        models.ExecutionStatusPending,
		CurrentStage:  models.StagePreCheck,
		DynamicParams: dynamicParams,
		CreatedBy:     actor,
	}
	if err := e.store.CreateExecution(ctx, exec); err != nil {
		return "", fmt.Errorf("failed to create execution: %w", err)
	}

	if e.started != nil {
		e.started.Add(ctx, 1, metric.WithAttributes(
			attribute.String("workflow", workflow.Name)))
	}

	select {
	case e.queue <- exec.ID:
	case <-ctx.Done():
		return "", ctx.Err()
	}

	e.logger.Info("execution queued",
		"execution", exec.ID, "workflow", workflow.Name, "actor", actor)
	return exec.ID, nil
}

// worker drains the execution queue. Executions run detached from the
// triggering request: once dequeued, a run proceeds to a terminal state with
// no cancellation path.
func (e *Engine) worker() {
	for {
		select {
		case id := <-e.queue:
			e.Run(context.Background(), id)
		case <-e.done:
			return
		}
	}
}

// Close stops the worker pool. In-flight runs finish; queued executions that
// were never picked up stay pending in the store.
func (e *Engine) Close() {
	close(e.done)
}
