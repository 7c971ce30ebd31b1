package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"netchange/backend/pkg/models"
)

// MemStore is an in-memory Store. It backs unit tests and local development
// without Postgres; semantics mirror PostgresStore, including soft deletion
// of workflows.
type MemStore struct {
	mu         sync.RWMutex
	devices    map[string]*models.Device
	workflows  map[string]*models.Workflow
	executions map[string]*models.WorkflowExecution
	commands   map[string]*models.CommandExecution
	cmdOrder   []string
	webhooks   map[string]*models.WebhookConfig
	logs       []*models.SystemLog
	ansible    map[string]*models.AnsibleRun
}

var _ Store = (*MemStore)(nil)

// Records with maps or slices are cloned on the way in and out so callers
// never alias store state.
func cloneCommands(cmds []models.Command) []models.Command {
	if cmds == nil {
		return nil
	}
	return append([]models.Command(nil), cmds...)
}

func cloneWorkflow(w *models.Workflow) *models.Workflow {
	copied := *w
	copied.PreCheckCommands = cloneCommands(w.PreCheckCommands)
	copied.ImplementationCommands = cloneCommands(w.ImplementationCommands)
	copied.PostCheckCommands = cloneCommands(w.PostCheckCommands)
	copied.RollbackCommands = cloneCommands(w.RollbackCommands)
	return &copied
}

func cloneStringMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func cloneExecution(e *models.WorkflowExecution) *models.WorkflowExecution {
	copied := *e
	copied.DynamicParams = cloneStringMap(e.DynamicParams)
	if e.StageResults != nil {
		copied.StageResults = make(map[models.Stage][]models.StageCommandResult, len(e.StageResults))
		for stage, results := range e.StageResults {
			copied.StageResults[stage] = append([]models.StageCommandResult(nil), results...)
		}
	}
	return &copied
}

func cloneAnsibleRun(r *models.AnsibleRun) *models.AnsibleRun {
	copied := *r
	copied.ExtraVars = cloneStringMap(r.ExtraVars)
	return &copied
}

// NewMemStore creates an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{
		devices:    make(map[string]*models.Device),
		workflows:  make(map[string]*models.Workflow),
		executions: make(map[string]*models.WorkflowExecution),
		commands:   make(map[string]*models.CommandExecution),
		webhooks:   make(map[string]*models.WebhookConfig),
		ansible:    make(map[string]*models.AnsibleRun),
	}
}

func (s *MemStore) CreateDevice(_ context.Context, d *models.Device) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	d.CreatedAt = now
	d.UpdatedAt = now
	copied := *d
	s.devices[d.ID] = &copied
	return nil
}

func (s *MemStore) GetDevice(_ context.Context, id string) (*models.Device, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.devices[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *d
	return &copied, nil
}

func (s *MemStore) ListDevices(_ context.Context) ([]*models.Device, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Device
	for _, d := range s.devices {
		copied := *d
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *MemStore) UpdateDevice(_ context.Context, d *models.Device) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.devices[d.ID]; !ok {
		return ErrNotFound
	}
	d.UpdatedAt = time.Now()
	copied := *d
	s.devices[d.ID] = &copied
	return nil
}

func (s *MemStore) DeleteDevice(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.devices[id]; !ok {
		return ErrNotFound
	}
	delete(s.devices, id)
	return nil
}

func (s *MemStore) CreateWorkflow(_ context.Context, w *models.Workflow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	w.CreatedAt = now
	w.UpdatedAt = now
	s.workflows[w.ID] = cloneWorkflow(w)
	return nil
}

func (s *MemStore) GetWorkflow(_ context.Context, id string) (*models.Workflow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	w, ok := s.workflows[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneWorkflow(w), nil
}

func (s *MemStore) ListWorkflows(_ context.Context) ([]*models.Workflow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Workflow
	for _, w := range s.workflows {
		if w.DeletedAt != nil {
			continue
		}
		out = append(out, cloneWorkflow(w))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *MemStore) UpdateWorkflow(_ context.Context, w *models.Workflow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.workflows[w.ID]
	if !ok || existing.DeletedAt != nil {
		return ErrNotFound
	}
	w.UpdatedAt = time.Now()
	s.workflows[w.ID] = cloneWorkflow(w)
	return nil
}

func (s *MemStore) SoftDeleteWorkflow(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.workflows[id]
	if !ok || w.DeletedAt != nil {
		return ErrNotFound
	}
	now := time.Now()
	w.DeletedAt = &now
	return nil
}

func (s *MemStore) CreateExecution(_ context.Context, e *models.WorkflowExecution) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e.CreatedAt = time.Now()
	s.executions[e.ID] = cloneExecution(e)
	return nil
}

func (s *MemStore) GetExecution(_ context.Context, id string) (*models.WorkflowExecution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.executions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneExecution(e), nil
}

func (s *MemStore) ListExecutions(_ context.Context) ([]*models.WorkflowExecution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.WorkflowExecution
	for _, e := range s.executions {
		out = append(out, cloneExecution(e))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *MemStore) UpdateExecution(_ context.Context, e *models.WorkflowExecution) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.executions[e.ID]; !ok {
		return ErrNotFound
	}
	s.executions[e.ID] = cloneExecution(e)
	return nil
}

func (s *MemStore) CreateCommandExecution(_ context.Context, c *models.CommandExecution) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *c
	s.commands[c.ID] = &copied
	s.cmdOrder = append(s.cmdOrder, c.ID)
	return nil
}

func (s *MemStore) UpdateCommandExecution(_ context.Context, c *models.CommandExecution) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.commands[c.ID]; !ok {
		return ErrNotFound
	}
	copied := *c
	s.commands[c.ID] = &copied
	return nil
}

func (s *MemStore) ListCommandExecutions(_ context.Context, executionID string) ([]*models.CommandExecution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.CommandExecution
	for _, id := range s.cmdOrder {
		c := s.commands[id]
		if c.ExecutionID != executionID {
			continue
		}
		copied := *c
		out = append(out, &copied)
	}
	return out, nil
}

func (s *MemStore) CreateWebhookConfig(_ context.Context, c *models.WebhookConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	c.CreatedAt = now
	c.UpdatedAt = now
	copied := *c
	s.webhooks[c.ID] = &copied
	return nil
}

func (s *MemStore) GetWebhookConfig(_ context.Context, id string) (*models.WebhookConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.webhooks[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *c
	return &copied, nil
}

func (s *MemStore) ListWebhookConfigs(_ context.Context) ([]*models.WebhookConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.WebhookConfig
	for _, c := range s.webhooks {
		copied := *c
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *MemStore) UpdateWebhookConfig(_ context.Context, c *models.WebhookConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.webhooks[c.ID]; !ok {
		return ErrNotFound
	}
	c.UpdatedAt = time.Now()
	copied := *c
	s.webhooks[c.ID] = &copied
	return nil
}

func (s *MemStore) DeleteWebhookConfig(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.webhooks[id]; !ok {
		return ErrNotFound
	}
	delete(s.webhooks, id)
	return nil
}

func (s *MemStore) CreateSystemLog(_ context.Context, e *models.SystemLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e.CreatedAt = time.Now()
	copied := *e
	s.logs = append(s.logs, &copied)
	return nil
}

func (s *MemStore) ListSystemLogs(_ context.Context, limit int) ([]*models.SystemLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if limit <= 0 {
		limit = 100
	}
	var out []*models.SystemLog
	for i := len(s.logs) - 1; i >= 0 && len(out) < limit; i-- {
		copied := *s.logs[i]
		out = append(out, &copied)
	}
	return out, nil
}

func (s *MemStore) CreateAnsibleRun(_ context.Context, r *models.AnsibleRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ansible[r.ID] = cloneAnsibleRun(r)
	return nil
}

func (s *MemStore) UpdateAnsibleRun(_ context.Context, r *models.AnsibleRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.ansible[r.ID]; !ok {
		return ErrNotFound
	}
	s.ansible[r.ID] = cloneAnsibleRun(r)
	return nil
}

func (s *MemStore) GetAnsibleRun(_ context.Context, id string) (*models.AnsibleRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.ansible[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneAnsibleRun(r), nil
}
