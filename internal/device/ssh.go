// Package device runs single commands against remote network devices over
// SSH. Every failure at this boundary is converted into a (false, diagnostic)
// result; nothing is ever raised past it and no retries are performed here.
package device

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"

	"golang.org/x/crypto/ssh"

	"netchange/backend/internal/config"
	"netchange/backend/internal/logging"
	"netchange/backend/pkg/models"
)

// SSHExecutor opens one SSH session per command using the centrally
// configured credentials. Sessions are not pooled: each Execute call is its
// own connect, run, disconnect cycle.
type SSHExecutor struct {
	username       string
	password       string
	enablePassword string
	connectTimeout time.Duration
	commandTimeout time.Duration
	settleInterval time.Duration
	logger         *logging.Logger
}

// NewSSHExecutor creates an executor from the central SSH configuration.
func NewSSHExecutor(cfg *config.Config, logger *logging.Logger) *SSHExecutor {
	return &SSHExecutor{
		username:       cfg.SSH.Username,
		password:       cfg.SSH.Password,
		enablePassword: cfg.SSH.EnablePassword,
		connectTimeout: cfg.SSH.ConnectTimeout,
		commandTimeout: cfg.SSH.CommandTimeout,
		settleInterval: cfg.SSH.SettleInterval,
		logger:         logger,
	}
}

// lockedBuffer collects shell output concurrently with the settle wait.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// Execute sends one command to the device over an interactive shell, waits
// the settle interval while output drains, and returns whatever arrived.
func (e *SSHExecutor) Execute(ctx context.Context, dev *models.Device, command string) (bool, string) {
	if e.username == "" || e.password == "" {
		e.logger.Error("device credentials not configured", "device", dev.Name)
		return false, "device credentials not configured"
	}

	port := dev.SSHPort
	if port == 0 {
		port = 22
	}
	addr := net.JoinHostPort(dev.IPAddress, strconv.Itoa(port))

	clientConfig := &ssh.ClientConfig{
		User:            e.username,
		Auth:            []ssh.AuthMethod{ssh.Password(e.password)},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         e.connectTimeout,
	}

	client, err := ssh.Dial("tcp", addr, clientConfig)
	if err != nil {
		e.logger.Error("connection failed", "device", dev.Name, "addr", addr, "error", err)
		return false, fmt.Sprintf("failed to connect to device: %v", err)
	}
	defer client.Close()

	session, err := client.NewSession()
	if err != nil {
		return false, fmt.Sprintf("failed to open session: %v", err)
	}
	defer session.Close()

	var output lockedBuffer
	session.Stdout = &output
	session.Stderr = &output

	modes := ssh.TerminalModes{
		ssh.ECHO:          0,
		ssh.TTY_OP_ISPEED: 14400,
		ssh.TTY_OP_OSPEED: 14400,
	}
	if err := session.RequestPty("vt100", 80, 200, modes); err != nil {
		return false, fmt.Sprintf("failed to request pty: %v", err)
	}

	stdin, err := session.StdinPipe()
	if err != nil {
		return false, fmt.Sprintf("failed to open stdin: %v", err)
	}
	if err := session.Shell(); err != nil {
		return false, fmt.Sprintf("failed to start shell: %v", err)
	}

	ctx, cancel := context.WithTimeout(ctx, e.commandTimeout)
	defer cancel()

	if dev.EnableMode && e.enablePassword != "" {
		if ok, msg := e.enterEnableMode(ctx, stdin); !ok {
			return false, msg
		}
	}

	if _, err := fmt.Fprintf(stdin, "%s\n", command); err != nil {
		return false, fmt.Sprintf("failed to send command: %v", err)
	}

	// Give the device time to produce output, then take whatever has
	// arrived. Network devices over an interactive shell have no end-of-
	// output marker to wait on.
	select {
	case <-time.After(e.settleInterval):
	case <-ctx.Done():
		return false, fmt.Sprintf("command timed out: %v", ctx.Err())
	}

	e.logger.Debug("command executed", "device", dev.Name, "command", command)
	return true, output.String()
}

func (e *SSHExecutor) enterEnableMode(ctx context.Context, stdin interface{ Write([]byte) (int, error) }) (bool, string) {
	for _, line := range []string{"enable", e.enablePassword} {
		if _, err := stdin.Write([]byte(line + "\n")); err != nil {
			return false, fmt.Sprintf("failed to enter enable mode: %v", err)
		}
		select {
		case <-time.After(time.Second):
		case <-ctx.Done():
			return false, fmt.Sprintf("command timed out: %v", ctx.Err())
		}
	}
	return true, ""
}
