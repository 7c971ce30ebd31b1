package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS devices (
	id UUID PRIMARY KEY,
	name TEXT NOT NULL UNIQUE,
	hostname TEXT NOT NULL DEFAULT '',
	ip_address TEXT NOT NULL,
	device_type TEXT NOT NULL DEFAULT 'router',
	status TEXT NOT NULL DEFAULT 'unknown',
	ssh_port INT NOT NULL DEFAULT 22,
	vendor TEXT NOT NULL DEFAULT '',
	model TEXT NOT NULL DEFAULT '',
	os_version TEXT NOT NULL DEFAULT '',
	location TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT '',
	enable_mode BOOLEAN NOT NULL DEFAULT FALSE,
	created_by TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS workflows (
	id UUID PRIMARY KEY,
	name TEXT NOT NULL UNIQUE,
	description TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL DEFAULT 'draft',
	pre_check_commands JSONB NOT NULL DEFAULT '[]',
	implementation_commands JSONB NOT NULL DEFAULT '[]',
	post_check_commands JSONB NOT NULL DEFAULT '[]',
	rollback_commands JSONB NOT NULL DEFAULT '[]',
	created_by TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	deleted_at TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS workflow_executions (
	id UUID PRIMARY KEY,
	workflow_id UUID NOT NULL REFERENCES workflows(id),
	device_id UUID NOT NULL REFERENCES devices(id),
	status TEXT NOT NULL DEFAULT 'pending',
	current_stage TEXT NOT NULL DEFAULT 'pre_check',
	dynamic_params JSONB NOT NULL DEFAULT '{}',
	stage_results JSONB NOT NULL DEFAULT '{}',
	error_message TEXT NOT NULL DEFAULT '',
	created_by TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	started_at TIMESTAMPTZ,
	completed_at TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS idx_executions_status ON workflow_executions(status);
CREATE INDEX IF NOT EXISTS idx_executions_created ON workflow_executions(created_at DESC);

CREATE TABLE IF NOT EXISTS command_executions (
	id UUID PRIMARY KEY,
	execution_id UUID NOT NULL REFERENCES workflow_executions(id),
	command TEXT NOT NULL,
	stage TEXT NOT NULL,
	status TEXT NOT NULL DEFAULT 'pending',
	output TEXT NOT NULL DEFAULT '',
	error_output TEXT NOT NULL DEFAULT '',
	validation_result TEXT NOT NULL DEFAULT '',
	started_at TIMESTAMPTZ,
	completed_at TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS idx_command_executions_execution ON command_executions(execution_id);

CREATE TABLE IF NOT EXISTS webhook_configs (
	id UUID PRIMARY KEY,
	name TEXT NOT NULL UNIQUE,
	description TEXT NOT NULL DEFAULT '',
	webhook_url TEXT NOT NULL,
	events TEXT NOT NULL DEFAULT 'execution_completed',
	method TEXT NOT NULL DEFAULT 'POST',
	is_active BOOLEAN NOT NULL DEFAULT TRUE,
	secret_key TEXT NOT NULL DEFAULT '',
	created_by TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS system_logs (
	id UUID PRIMARY KEY,
	level TEXT NOT NULL DEFAULT 'INFO',
	type TEXT NOT NULL DEFAULT 'SYSTEM',
	message TEXT NOT NULL,
	details TEXT NOT NULL DEFAULT '',
	object_type TEXT NOT NULL DEFAULT '',
	object_id TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_system_logs_created ON system_logs(created_at DESC);

CREATE TABLE IF NOT EXISTS ansible_runs (
	id UUID PRIMARY KEY,
	playbook TEXT NOT NULL,
	inventory TEXT NOT NULL DEFAULT '',
	extra_vars JSONB NOT NULL DEFAULT '{}',
	status TEXT NOT NULL DEFAULT 'running',
	output TEXT NOT NULL DEFAULT '',
	exit_code INT,
	created_by TEXT NOT NULL DEFAULT '',
	started_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	completed_at TIMESTAMPTZ
);
`

// InitSchema applies the DDL. Statements are idempotent so this is safe to
// run on every startup.
func InitSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}
