// Package ansible wraps the ansible-playbook binary. The contract is
// deliberately thin: hand it a playbook, an inventory and extra vars, get
// back combined output and an exit code.
package ansible

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"netchange/backend/internal/config"
	"netchange/backend/internal/logging"
)

// Runner executes ansible playbooks as bounded subprocesses.
type Runner struct {
	binary  string
	workDir string
	timeout time.Duration
	logger  *logging.Logger
}

// NewRunner creates a Runner from the ansible configuration section.
func NewRunner(cfg *config.Config, logger *logging.Logger) *Runner {
	return &Runner{
		binary:  cfg.Ansible.Binary,
		workDir: cfg.Ansible.WorkDir,
		timeout: cfg.Ansible.Timeout,
		logger:  logger,
	}
}

// Result is the outcome of one playbook run.
type Result struct {
	Output   string
	ExitCode int
}

// Run executes a playbook against the given INI inventory content. The
// inventory is written to a temporary file for the duration of the run.
// A non-zero exit code is not an error here; callers decide what it means.
func (r *Runner) Run(ctx context.Context, playbookPath, inventory string, extraVars map[string]string) (*Result, error) {
	inventoryFile, err := os.CreateTemp("", "netchange-inventory-*.ini")
	if err != nil {
		return nil, fmt.Errorf("failed to create inventory file: %w", err)
	}
	defer os.Remove(inventoryFile.Name())
	if _, err := inventoryFile.WriteString(inventory); err != nil {
		inventoryFile.Close()
		return nil, fmt.Errorf("failed to write inventory: %w", err)
	}
	inventoryFile.Close()

	args := []string{"-i", inventoryFile.Name()}
	for name, value := range extraVars {
		args = append(args, "-e", fmt.Sprintf("%s=%s", name, value))
	}
	if r.workDir != "" && !filepath.IsAbs(playbookPath) {
		playbookPath = filepath.Join(r.workDir, playbookPath)
	}
	args = append(args, playbookPath)

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, r.binary, args...)
	cmd.Dir = r.workDir

	r.logger.Info("running playbook", "playbook", playbookPath)
	output, err := cmd.CombinedOutput()

	result := &Result{Output: string(output)}
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			result.ExitCode = exitErr.ExitCode()
			return result, nil
		}
		return nil, fmt.Errorf("failed to run playbook: %w", err)
	}
	return result, nil
}
