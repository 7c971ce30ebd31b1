package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"netchange/backend/pkg/models"
)

// PostgresStore is the PostgreSQL implementation of the Store interface.
// JSON serialization of command lists, stage results and dynamic params
// happens only here; everything above this layer works with typed records.
type PostgresStore struct {
	db *pgxpool.Pool
}

var _ Store = (*PostgresStore)(nil)

// NewPostgresStore creates a new PostgresStore.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// CreateDevice inserts a new device.
func (s *PostgresStore) CreateDevice(ctx context.Context, d *models.Device) error {
	now := time.Now()
	d.CreatedAt = now
	d.UpdatedAt = now
	_, err := s.db.Exec(ctx, `INSERT INTO devices
		(id, name, hostname, ip_address, device_type, status, ssh_port, vendor, model, os_version, location, description, enable_mode, created_by, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)`,
		d.ID, d.Name, d.Hostname, d.IPAddress, d.DeviceType, d.Status, d.SSHPort,
		d.Vendor, d.Model, d.OSVersion, d.Location, d.Description, d.EnableMode,
		d.CreatedBy, d.CreatedAt, d.UpdatedAt)
	return err
}

const deviceColumns = `id, name, hostname, ip_address, device_type, status, ssh_port, vendor, model, os_version, location, description, enable_mode, created_by, created_at, updated_at`

func scanDevice(row pgx.Row) (*models.Device, error) {
	var d models.Device
	err := row.Scan(&d.ID, &d.Name, &d.Hostname, &d.IPAddress, &d.DeviceType,
		&d.Status, &d.SSHPort, &d.Vendor, &d.Model, &d.OSVersion, &d.Location,
		&d.Description, &d.EnableMode, &d.CreatedBy, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return &d, nil
}

// GetDevice retrieves a device by its ID.
func (s *PostgresStore) GetDevice(ctx context.Context, id string) (*models.Device, error) {
	return scanDevice(s.db.QueryRow(ctx,
		`SELECT `+deviceColumns+` FROM devices WHERE id = $1`, id))
}

// ListDevices returns all devices ordered by name.
func (s *PostgresStore) ListDevices(ctx context.Context) ([]*models.Device, error) {
	rows, err := s.db.Query(ctx, `SELECT `+deviceColumns+` FROM devices ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var devices []*models.Device
	for rows.Next() {
		d, err := scanDevice(rows)
		if err != nil {
			return nil, err
		}
		devices = append(devices, d)
	}
	return devices, rows.Err()
}

// UpdateDevice updates an existing device.
func (s *PostgresStore) UpdateDevice(ctx context.Context, d *models.Device) error {
	d.UpdatedAt = time.Now()
	tag, err := s.db.Exec(ctx, `UPDATE devices SET
		name=$2, hostname=$3, ip_address=$4, device_type=$5, status=$6, ssh_port=$7,
		vendor=$8, model=$9, os_version=$10, location=$11, description=$12,
		enable_mode=$13, updated_at=$14
		WHERE id=$1`,
		d.ID, d.Name, d.Hostname, d.IPAddress, d.DeviceType, d.Status, d.SSHPort,
		d.Vendor, d.Model, d.OSVersion, d.Location, d.Description, d.EnableMode, d.UpdatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteDevice removes a device.
func (s *PostgresStore) DeleteDevice(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM devices WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// CreateWorkflow inserts a new workflow definition.
func (s *PostgresStore) CreateWorkflow(ctx context.Context, w *models.Workflow) error {
	now := time.Now()
	w.CreatedAt = now
	w.UpdatedAt = now

	pre, impl, post, rb, err := marshalCommandLists(w)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(ctx, `INSERT INTO workflows
		(id, name, description, status, pre_check_commands, implementation_commands, post_check_commands, rollback_commands, created_by, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		w.ID, w.Name, w.Description, w.Status, pre, impl, post, rb,
		w.CreatedBy, w.CreatedAt, w.UpdatedAt)
	return err
}

func marshalCommandLists(w *models.Workflow) (pre, impl, post, rb []byte, err error) {
	if pre, err = json.Marshal(emptyIfNil(w.PreCheckCommands)); err != nil {
		return
	}
	if impl, err = json.Marshal(emptyIfNil(w.ImplementationCommands)); err != nil {
		return
	}
	if post, err = json.Marshal(emptyIfNil(w.PostCheckCommands)); err != nil {
		return
	}
	rb, err = json.Marshal(emptyIfNil(w.RollbackCommands))
	return
}

func emptyIfNil(cmds []models.Command) []models.Command {
	if cmds == nil {
		return []models.Command{}
	}
	return cmds
}

const workflowColumns = `id, name, description, status, pre_check_commands, implementation_commands, post_check_commands, rollback_commands, created_by, created_at, updated_at, deleted_at`

func scanWorkflow(row pgx.Row) (*models.Workflow, error) {
	var w models.Workflow
	var pre, impl, post, rb []byte
	err := row.Scan(&w.ID, &w.Name, &w.Description, &w.Status, &pre, &impl, &post, &rb,
		&w.CreatedBy, &w.CreatedAt, &w.UpdatedAt, &w.DeletedAt)
	if err != nil {
		return nil, notFound(err)
	}
	if err := json.Unmarshal(pre, &w.PreCheckCommands); err != nil {
		return nil, fmt.Errorf("failed to decode pre_check_commands: %w", err)
	}
	if err := json.Unmarshal(impl, &w.ImplementationCommands); err != nil {
		return nil, fmt.Errorf("failed to decode implementation_commands: %w", err)
	}
	if err := json.Unmarshal(post, &w.PostCheckCommands); err != nil {
		return nil, fmt.Errorf("failed to decode post_check_commands: %w", err)
	}
	if err := json.Unmarshal(rb, &w.RollbackCommands); err != nil {
		return nil, fmt.Errorf("failed to decode rollback_commands: %w", err)
	}
	return &w, nil
}

// GetWorkflow retrieves a workflow by its ID. Soft-deleted workflows are
// still returned so execution records keep resolving; callers that list
// workflows never see them.
func (s *PostgresStore) GetWorkflow(ctx context.Context, id string) (*models.Workflow, error) {
	return scanWorkflow(s.db.QueryRow(ctx,
		`SELECT `+workflowColumns+` FROM workflows WHERE id = $1`, id))
}

// ListWorkflows returns all workflows that are not soft-deleted.
func (s *PostgresStore) ListWorkflows(ctx context.Context) ([]*models.Workflow, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+workflowColumns+` FROM workflows WHERE deleted_at IS NULL ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var workflows []*models.Workflow
	for rows.Next() {
		w, err := scanWorkflow(rows)
		if err != nil {
			return nil, err
		}
		workflows = append(workflows, w)
	}
	return workflows, rows.Err()
}

// UpdateWorkflow updates an existing workflow definition.
func (s *PostgresStore) UpdateWorkflow(ctx context.Context, w *models.Workflow) error {
	w.UpdatedAt = time.Now()
	pre, impl, post, rb, err := marshalCommandLists(w)
	if err != nil {
		return err
	}
	tag, err := s.db.Exec(ctx, `UPDATE workflows SET
		name=$2, description=$3, status=$4, pre_check_commands=$5,
		implementation_commands=$6, post_check_commands=$7, rollback_commands=$8,
		updated_at=$9
		WHERE id=$1 AND deleted_at IS NULL`,
		w.ID, w.Name, w.Description, w.Status, pre, impl, post, rb, w.UpdatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SoftDeleteWorkflow marks a workflow as deleted without removing the row.
func (s *PostgresStore) SoftDeleteWorkflow(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE workflows SET deleted_at = now() WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// CreateWebhookConfig inserts a new webhook configuration.
func (s *PostgresStore) CreateWebhookConfig(ctx context.Context, c *models.WebhookConfig) error {
	now := time.Now()
	c.CreatedAt = now
	c.UpdatedAt = now
	_, err := s.db.Exec(ctx, `INSERT INTO webhook_configs
		(id, name, description, webhook_url, events, method, is_active, secret_key, created_by, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		c.ID, c.Name, c.Description, c.URL, c.Events, c.Method, c.IsActive,
		c.SecretKey, c.CreatedBy, c.CreatedAt, c.UpdatedAt)
	return err
}

const webhookColumns = `id, name, description, webhook_url, events, method, is_active, secret_key, created_by, created_at, updated_at`

func scanWebhookConfig(row pgx.Row) (*models.WebhookConfig, error) {
	var c models.WebhookConfig
	err := row.Scan(&c.ID, &c.Name, &c.Description, &c.URL, &c.Events, &c.Method,
		&c.IsActive, &c.SecretKey, &c.CreatedBy, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

// GetWebhookConfig retrieves a webhook configuration by its ID.
func (s *PostgresStore) GetWebhookConfig(ctx context.Context, id string) (*models.WebhookConfig, error) {
	return scanWebhookConfig(s.db.QueryRow(ctx,
		`SELECT `+webhookColumns+` FROM webhook_configs WHERE id = $1`, id))
}

// ListWebhookConfigs returns all webhook configurations.
func (s *PostgresStore) ListWebhookConfigs(ctx context.Context) ([]*models.WebhookConfig, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+webhookColumns+` FROM webhook_configs ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var configs []*models.WebhookConfig
	for rows.Next() {
		c, err := scanWebhookConfig(rows)
		if err != nil {
			return nil, err
		}
		configs = append(configs, c)
	}
	return configs, rows.Err()
}

// UpdateWebhookConfig updates an existing webhook configuration.
func (s *PostgresStore) UpdateWebhookConfig(ctx context.Context, c *models.WebhookConfig) error {
	c.UpdatedAt = time.Now()
	tag, err := s.db.Exec(ctx, `UPDATE webhook_configs SET
		name=$2, description=$3, webhook_url=$4, events=$5, method=$6,
		is_active=$7, secret_key=$8, updated_at=$9
		WHERE id=$1`,
		c.ID, c.Name, c.Description, c.URL, c.Events, c.Method, c.IsActive,
		c.SecretKey, c.UpdatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteWebhookConfig removes a webhook configuration.
func (s *PostgresStore) DeleteWebhookConfig(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM webhook_configs WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// CreateSystemLog appends an audit/event log entry.
func (s *PostgresStore) CreateSystemLog(ctx context.Context, e *models.SystemLog) error {
	e.CreatedAt = time.Now()
	_, err := s.db.Exec(ctx, `INSERT INTO system_logs
		(id, level, type, message, details, object_type, object_id, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		e.ID, e.Level, e.Type, e.Message, e.Details, e.ObjectType, e.ObjectID, e.CreatedAt)
	return err
}

// ListSystemLogs returns the most recent log entries, newest first.
func (s *PostgresStore) ListSystemLogs(ctx context.Context, limit int) ([]*models.SystemLog, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.Query(ctx, `SELECT id, level, type, message, details, object_type, object_id, created_at
		FROM system_logs ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*models.SystemLog
	for rows.Next() {
		var e models.SystemLog
		if err := rows.Scan(&e.ID, &e.Level, &e.Type, &e.Message, &e.Details,
			&e.ObjectType, &e.ObjectID, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}
