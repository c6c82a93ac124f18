// Package ptyterm adapts in-process pseudo-terminals to the terminal
// port for systems without tmux. Each handle owns one shell running on a
// PTY; the rendered "screen" is approximated by a bounded tail of the
// shell's output stream.
package ptyterm

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"

	"github.com/creack/pty"

	"github.com/DannyAtVodooTH/claude-terminal-bot/internal/application/ports"
)

// Compile-time check that Manager implements TerminalPort.
var _ ports.TerminalPort = (*Manager)(nil)

// maxBufferBytes bounds the retained output per handle.
const maxBufferBytes = 64 * 1024

// handleState is one live PTY-backed shell.
type handleState struct {
	cmd  *exec.Cmd
	ptmx *os.File

	mu   sync.Mutex
	buf  []byte
	done bool
}

func (h *handleState) appendOutput(p []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.buf = append(h.buf, p...)
	if len(h.buf) > maxBufferBytes {
		h.buf = h.buf[len(h.buf)-maxBufferBytes:]
	}
}

func (h *handleState) markDone() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.done = true
}

func (h *handleState) running() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return !h.done
}

func (h *handleState) tail(lines int) string {
	h.mu.Lock()
	defer h.mu.Unlock()
	all := strings.Split(string(h.buf), "\n")
	if lines > 0 && len(all) > lines {
		all = all[len(all)-lines:]
	}
	return strings.Join(all, "\n")
}

// Manager manages PTY-backed handles.
type Manager struct {
	mu      sync.RWMutex
	handles map[string]*handleState
	shell   string
}

// NewManager creates a PTY-backed terminal manager running the given
// shell; empty means $SHELL falling back to /bin/sh.
func NewManager(shell string) *Manager {
	if shell == "" {
		shell = os.Getenv("SHELL")
	}
	if shell == "" {
		shell = "/bin/sh"
	}
	return &Manager{
		handles: make(map[string]*handleState),
		shell:   shell,
	}
}

// Create starts a fresh shell for the handle, displacing any existing one.
func (m *Manager) Create(ctx context.Context, handle, workDir string) error {
	if handle == "" {
		return fmt.Errorf("handle name cannot be empty")
	}

	_ = m.Kill(ctx, handle)
	return m.start(handle, workDir)
}

// Recreate rebuilds a dead handle with the same name.
func (m *Manager) Recreate(ctx context.Context, handle, workDir string) error {
	if handle == "" {
		return fmt.Errorf("handle name cannot be empty")
	}
	return m.start(handle, workDir)
}

func (m *Manager) start(handle, workDir string) error {
	cmd := exec.Command(m.shell)
	if workDir != "" {
		cmd.Dir = workDir
	}

	ptmx, err := pty.Start(cmd)
	if err != nil {
		return fmt.Errorf("failed to start PTY for %s: %w", handle, err)
	}

	h := &handleState{cmd: cmd, ptmx: ptmx}

	m.mu.Lock()
	m.handles[handle] = h
	m.mu.Unlock()

	go func() {
		buf := make([]byte, 4096)
		for {
			n, err := ptmx.Read(buf)
			if n > 0 {
				h.appendOutput(buf[:n])
			}
			if err != nil {
				break
			}
		}
		_ = cmd.Wait()
		h.markDone()
	}()

	return nil
}

func (m *Manager) get(handle string) (*handleState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	h, ok := m.handles[handle]
	if !ok {
		return nil, fmt.Errorf("PTY handle not found: %s", handle)
	}
	return h, nil
}

// IsAlive reports whether the handle's shell is still running.
func (m *Manager) IsAlive(ctx context.Context, handle string) bool {
	m.mu.RLock()
	h, ok := m.handles[handle]
	m.mu.RUnlock()
	return ok && h.running()
}

// SendKeys writes text to the handle's PTY. With submit true a carriage
// return follows, the PTY equivalent of the Enter key.
func (m *Manager) SendKeys(ctx context.Context, handle, text string, submit bool) error {
	h, err := m.get(handle)
	if err != nil {
		return err
	}

	if submit {
		text += "\r"
	}
	if _, err := h.ptmx.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write to PTY %s: %w", handle, err)
	}
	return nil
}

// SendInterrupt writes the ETX control byte, the PTY form of Ctrl-C.
func (m *Manager) SendInterrupt(ctx context.Context, handle string) error {
	h, err := m.get(handle)
	if err != nil {
		return err
	}
	if _, err := h.ptmx.Write([]byte{0x03}); err != nil {
		return fmt.Errorf("failed to interrupt PTY %s: %w", handle, err)
	}
	return nil
}

// CapturePane returns the last lines of retained output.
func (m *Manager) CapturePane(ctx context.Context, handle string, lines int) (string, error) {
	h, err := m.get(handle)
	if err != nil {
		return "", err
	}
	return h.tail(lines), nil
}

// Kill stops the handle's shell and releases its PTY. Killing an absent
// handle succeeds.
func (m *Manager) Kill(ctx context.Context, handle string) error {
	m.mu.Lock()
	h, ok := m.handles[handle]
	if ok {
		delete(m.handles, handle)
	}
	m.mu.Unlock()

	if !ok {
		return nil
	}

	_ = h.ptmx.Close()
	if h.cmd.Process != nil {
		_ = h.cmd.Process.Kill()
	}
	return nil
}
