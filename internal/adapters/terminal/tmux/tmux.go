// Package tmux adapts a local tmux server to the terminal port. Each
// session handle maps to one detached tmux session addressed by name.
package tmux

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/DannyAtVodooTH/claude-terminal-bot/internal/application/ports"
)

// Compile-time check that Manager implements TerminalPort.
var _ ports.TerminalPort = (*Manager)(nil)

// Manager drives tmux through its CLI. tmux offers no structured API;
// every operation is a synchronous subprocess round-trip.
type Manager struct {
	tmuxPath string
}

// NewManager creates a tmux-backed terminal manager.
func NewManager() (*Manager, error) {
	path, err := exec.LookPath("tmux")
	if err != nil {
		return nil, fmt.Errorf("tmux not found in PATH: %w", err)
	}
	return &Manager{tmuxPath: path}, nil
}

// IsAvailable reports whether tmux was found on this system.
func IsAvailable() bool {
	_, err := exec.LookPath("tmux")
	return err == nil
}

// Create makes a fresh detached session. The tmux session namespace is
// flat and names are reused, so any stale session with the same name is
// destroyed first.
func (m *Manager) Create(ctx context.Context, handle, workDir string) error {
	if handle == "" {
		return fmt.Errorf("handle name cannot be empty")
	}

	// Best-effort displacement of a stale handle; absence is fine.
	_ = m.Kill(ctx, handle)

	return m.newSession(ctx, handle, workDir)
}

// Recreate rebuilds a dead session in place with the same name.
func (m *Manager) Recreate(ctx context.Context, handle, workDir string) error {
	if handle == "" {
		return fmt.Errorf("handle name cannot be empty")
	}
	return m.newSession(ctx, handle, workDir)
}

func (m *Manager) newSession(ctx context.Context, handle, workDir string) error {
	args := []string{"new-session", "-d", "-s", handle}
	if workDir != "" {
		args = append(args, "-c", workDir)
	}

	cmd := exec.CommandContext(ctx, m.tmuxPath, args...)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to create tmux session %s: %w", handle, err)
	}
	return nil
}

// IsAlive probes the session with has-session.
func (m *Manager) IsAlive(ctx context.Context, handle string) bool {
	if handle == "" {
		return false
	}
	cmd := exec.CommandContext(ctx, m.tmuxPath, "has-session", "-t", handle)
	return cmd.Run() == nil
}

// SendKeys injects text into the session. With submit true a trailing
// Enter key is appended.
func (m *Manager) SendKeys(ctx context.Context, handle, text string, submit bool) error {
	if handle == "" {
		return fmt.Errorf("handle name cannot be empty")
	}

	args := []string{"send-keys", "-t", handle, text}
	if submit {
		args = append(args, "Enter")
	}

	cmd := exec.CommandContext(ctx, m.tmuxPath, args...)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to send keys to tmux session %s: %w", handle, err)
	}
	return nil
}

// SendInterrupt injects Ctrl-C, clearing pending partial input.
func (m *Manager) SendInterrupt(ctx context.Context, handle string) error {
	if handle == "" {
		return fmt.Errorf("handle name cannot be empty")
	}

	cmd := exec.CommandContext(ctx, m.tmuxPath, "send-keys", "-t", handle, "C-c")
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to send interrupt to tmux session %s: %w", handle, err)
	}
	return nil
}

// CapturePane returns the last lines of the session's visible pane.
func (m *Manager) CapturePane(ctx context.Context, handle string, lines int) (string, error) {
	if handle == "" {
		return "", fmt.Errorf("handle name cannot be empty")
	}

	args := []string{"capture-pane", "-t", handle, "-p"}
	if lines > 0 {
		args = append(args, "-S", fmt.Sprintf("-%d", lines))
	}

	var out bytes.Buffer
	cmd := exec.CommandContext(ctx, m.tmuxPath, args...)
	cmd.Stdout = &out

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("failed to capture tmux pane %s: %w", handle, err)
	}
	return out.String(), nil
}

// Kill destroys the session. A session that is already gone is not an
// error.
func (m *Manager) Kill(ctx context.Context, handle string) error {
	if handle == "" {
		return fmt.Errorf("handle name cannot be empty")
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, m.tmuxPath, "kill-session", "-t", handle)
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := stderr.String()
		if strings.Contains(msg, "no server running") ||
			strings.Contains(msg, "can't find session") {
			return nil
		}
		return fmt.Errorf("failed to kill tmux session %s: %w", handle, err)
	}
	return nil
}
