package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"netchange/backend/pkg/models"
)

// CreateExecution inserts a new workflow execution record.
func (s *PostgresStore) CreateExecution(ctx context.Context, e *models.WorkflowExecution) error {
	e.CreatedAt = time.Now()
	params, results, err := marshalExecutionBlobs(e)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(ctx, `INSERT INTO workflow_executions
		(id, workflow_id, device_id, status, current_stage, dynamic_params, stage_results, error_message, created_by, created_at, started_at, completed_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		e.ID, e.WorkflowID, e.DeviceID, e.Status, e.CurrentStage, params, results,
		e.ErrorMessage, e.CreatedBy, e.CreatedAt, e.StartedAt, e.CompletedAt)
	return err
}

func marshalExecutionBlobs(e *models.WorkflowExecution) (params, results []byte, err error) {
	p := e.DynamicParams
	if p == nil {
		p = map[string]string{}
	}
	if params, err = json.Marshal(p); err != nil {
		return
	}
	r := e.StageResults
	if r == nil {
		r = map[models.Stage][]models.StageCommandResult{}
	}
	results, err = json.Marshal(r)
	return
}

const executionColumns = `id, workflow_id, device_id, status, current_stage, dynamic_params, stage_results, error_message, created_by, created_at, started_at, completed_at`

func scanExecution(row pgx.Row) (*models.WorkflowExecution, error) {
	var e models.WorkflowExecution
	var params, results []byte
	err := row.Scan(&e.ID, &e.WorkflowID, &e.DeviceID, &e.Status, &e.CurrentStage,
		&params, &results, &e.ErrorMessage, &e.CreatedBy, &e.CreatedAt,
		&e.StartedAt, &e.CompletedAt)
	if err != nil {
		return nil, notFound(err)
	}
	if err := json.Unmarshal(params, &e.DynamicParams); err != nil {
		return nil, fmt.Errorf("failed to decode dynamic_params: %w", err)
	}
	if err := json.Unmarshal(results, &e.StageResults); err != nil {
		return nil, fmt.Errorf("failed to decode stage_results: %w", err)
	}
	return &e, nil
}

// GetExecution retrieves a workflow execution by its ID.
func (s *PostgresStore) GetExecution(ctx context.Context, id string) (*models.WorkflowExecution, error) {
	return scanExecution(s.db.QueryRow(ctx,
		`SELECT `+executionColumns+` FROM workflow_executions WHERE id = $1`, id))
}

// ListExecutions returns all workflow executions, newest first.
func (s *PostgresStore) ListExecutions(ctx context.Context) ([]*models.WorkflowExecution, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+executionColumns+` FROM workflow_executions ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var executions []*models.WorkflowExecution
	for rows.Next() {
		e, err := scanExecution(rows)
		if err != nil {
			return nil, err
		}
		executions = append(executions, e)
	}
	return executions, rows.Err()
}

// UpdateExecution writes back the mutable fields of an execution. The
// orchestrator is the sole writer during a run, so a plain update suffices.
func (s *PostgresStore) UpdateExecution(ctx context.Context, e *models.WorkflowExecution) error {
	params, results, err := marshalExecutionBlobs(e)
	if err != nil {
		return err
	}
	tag, err := s.db.Exec(ctx, `UPDATE workflow_executions SET
		status=$2, current_stage=$3, dynamic_params=$4, stage_results=$5,
		error_message=$6, started_at=$7, completed_at=$8
		WHERE id=$1`,
		e.ID, e.Status, e.CurrentStage, params, results, e.ErrorMessage,
		e.StartedAt, e.CompletedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// CreateCommandExecution inserts a per-command record.
func (s *PostgresStore) CreateCommandExecution(ctx context.Context, c *models.CommandExecution) error {
	_, err := s.db.Exec(ctx, `INSERT INTO command_executions
		(id, execution_id, command, stage, status, output, error_output, validation_result, started_at, completed_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		c.ID, c.ExecutionID, c.Command, c.Stage, c.Status, c.Output,
		c.ErrorOutput, c.ValidationResult, c.StartedAt, c.CompletedAt)
	return err
}

// UpdateCommandExecution writes back the outcome fields of a command record.
func (s *PostgresStore) UpdateCommandExecution(ctx context.Context, c *models.CommandExecution) error {
	tag, err := s.db.Exec(ctx, `UPDATE command_executions SET
		status=$2, output=$3, error_output=$4, validation_result=$5, completed_at=$6
		WHERE id=$1`,
		c.ID, c.Status, c.Output, c.ErrorOutput, c.ValidationResult, c.CompletedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListCommandExecutions returns the command records of one execution in the
// order they started.
func (s *PostgresStore) ListCommandExecutions(ctx context.Context, executionID string) ([]*models.CommandExecution, error) {
	rows, err := s.db.Query(ctx, `SELECT id, execution_id, command, stage, status, output, error_output, validation_result, started_at, completed_at
		FROM command_executions WHERE execution_id = $1 ORDER BY started_at`, executionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var commands []*models.CommandExecution
	for rows.Next() {
		var c models.CommandExecution
		if err := rows.Scan(&c.ID, &c.ExecutionID, &c.Command, &c.Stage, &c.Status,
			&c.Output, &c.ErrorOutput, &c.ValidationResult, &c.StartedAt, &c.CompletedAt); err != nil {
			return nil, err
		}
		commands = append(commands, &c)
	}
	return commands, rows.Err()
}

// CreateAnsibleRun inserts a playbook run record.
func (s *PostgresStore) CreateAnsibleRun(ctx context.Context, r *models.AnsibleRun) error {
	vars := r.ExtraVars
	if vars == nil {
		vars = map[string]string{}
	}
	encoded, err := json.Marshal(vars)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(ctx, `INSERT INTO ansible_runs
		(id, playbook, inventory, extra_vars, status, output, exit_code, created_by, started_at, completed_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		r.ID, r.Playbook, r.Inventory, encoded, r.Status, r.Output, r.ExitCode,
		r.CreatedBy, r.StartedAt, r.CompletedAt)
	return err
}

// UpdateAnsibleRun writes back the outcome of a playbook run.
func (s *PostgresStore) UpdateAnsibleRun(ctx context.Context, r *models.AnsibleRun) error {
	tag, err := s.db.Exec(ctx, `UPDATE ansible_runs SET
		status=$2, output=$3, exit_code=$4, completed_at=$5
		WHERE id=$1`,
		r.ID, r.Status, r.Output, r.ExitCode, r.CompletedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// GetAnsibleRun retrieves a playbook run by its ID.
func (s *PostgresStore) GetAnsibleRun(ctx context.Context, id string) (*models.AnsibleRun, error) {
	var r models.AnsibleRun
	var vars []byte
	err := s.db.QueryRow(ctx, `SELECT id, playbook, inventory, extra_vars, status, output, exit_code, created_by, started_at, completed_at
		FROM ansible_runs WHERE id = $1`, id).
		Scan(&r.ID, &r.Playbook, &r.Inventory, &vars, &r.Status, &r.Output,
			&r.ExitCode, &r.CreatedBy, &r.StartedAt, &r.CompletedAt)
	if err != nil {
		return nil, notFound(err)
	}
	if err := json.Unmarshal(vars, &r.ExtraVars); err != nil {
		return nil, fmt.Errorf("failed to decode extra_vars: %w", err)
	}
	return &r, nil
}
