// Package engine implements the staged workflow execution engine: the
// orchestrator state machine, the per-stage command runner, output
// validation and dynamic parameter resolution.
package engine

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"netchange/backend/internal/logging"
	"netchange/backend/internal/repository"
	"netchange/backend/pkg/models"
)

// CommandExecutor runs one command against a device. Failures are reported
// as (false, diagnostic) and never as errors; retry policy, if any, lives
// above this boundary.
type CommandExecutor interface {
	Execute(ctx context.Context, device *models.Device, command string) (success bool, output string)
}

// Notifier receives execution lifecycle events. Implementations must never
// let a delivery failure propagate back into the engine.
type Notifier interface {
	Notify(ctx context.Context, execution *models.WorkflowExecution, event models.EventType)
}

// Engine drives workflow executions. One Engine serves the whole process;
// each execution runs as one unit of work on the engine's worker pool.
type Engine struct {
	store    repository.Store
	executor CommandExecutor
	notifier Notifier
	logger   *logging.Logger
	tracer   trace.Tracer
	started  metric.Int64Counter

	queue chan string
	done  chan struct{}
}

// New creates an Engine with the given collaborators. workers goroutines
// drain a queue of queueDepth pending executions.
func New(store repository.Store, executor CommandExecutor, notifier Notifier, logger *logging.Logger, workers, queueDepth int) *Engine {
	if workers <= 0 {
		workers = 1
	}
	if queueDepth <= 0 {
		queueDepth = 16
	}

	meter := otel.Meter("netchange/engine")
	started, err := meter.Int64Counter("workflow_executions_started")
	if err != nil {
		logger.Warn("failed to create execution counter", "error", err)
	}

	e := &Engine{
		store:    store,
		executor: executor,
		notifier: notifier,
		logger:   logger,
		tracer:   otel.Tracer("netchange/engine"),
		started:  started,
		queue:    make(chan string, queueDepth),
		done:     make(chan struct{}),
	}
	for i := 0; i < workers; i++ {
		go e.worker()
	}
	return e
}
