// Package bridge drives the full command round-trip against a terminal
// handle: inject keys, wait out the render delay, capture the screen,
// and scrape the response. It also manages the assistant process living
// inside a handle.
package bridge

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/DannyAtVodooTH/claude-terminal-bot/internal/application/ports"
	domainErrors "github.com/DannyAtVodooTH/claude-terminal-bot/internal/domain/errors"
	"github.com/DannyAtVodooTH/claude-terminal-bot/internal/domain/scrape"
	domain "github.com/DannyAtVodooTH/claude-terminal-bot/internal/domain/session"
	"github.com/DannyAtVodooTH/claude-terminal-bot/internal/infrastructure/config"
	"github.com/DannyAtVodooTH/claude-terminal-bot/internal/infrastructure/logging"
	"github.com/DannyAtVodooTH/claude-terminal-bot/internal/infrastructure/security"
	"github.com/DannyAtVodooTH/claude-terminal-bot/internal/infrastructure/tracing"
)

// SessionState is the slice of registry behavior the bridge needs to
// flip the assistant flag and serialize per-session traffic.
type SessionState interface {
	SetAssistantActive(id string, active bool) error
	Touch(id string) error
	CommandLock(id string) *sync.Mutex
}

// Bridge executes commands and assistant messages inside session handles.
// The external terminal offers no completion signal, so every cycle is
// send, fixed delay, capture. The delays come from config and are the
// dominant per-command latency.
type Bridge struct {
	terminal  ports.TerminalPort
	gate      *security.Gate
	history   ports.HistoryPort
	state     SessionState
	assistant config.AssistantConfig
	delays    config.TerminalConfig
	logger    *logging.Logger
	tracer    *tracing.Tracer

	// sleep is swapped out in tests so cycles do not actually wait.
	sleep func(time.Duration)
}

// New creates a bridge.
func New(terminal ports.TerminalPort, gate *security.Gate, history ports.HistoryPort, state SessionState, assistant config.AssistantConfig, delays config.TerminalConfig, logger *logging.Logger, tracer *tracing.Tracer) *Bridge {
	return &Bridge{
		terminal:  terminal,
		gate:      gate,
		history:   history,
		state:     state,
		assistant: assistant,
		delays:    delays,
		logger:    logger,
		tracer:    tracer,
		sleep:     time.Sleep,
	}
}

// ExecuteCommand runs a shell command inside the session's handle and
// returns the scraped output. A pending partial input is cleared with an
// interrupt first so stale keystrokes cannot concatenate with the
// command.
func (b *Bridge) ExecuteCommand(ctx context.Context, sess *domain.Session, command string) (string, error) {
	if !b.gate.IsAllowed(command) {
		return "", domainErrors.NewError(domainErrors.CodeSecurity,
			fmt.Sprintf("command blocked for security: %s", command), domainErrors.ErrCommandBlocked)
	}

	lock := b.state.CommandLock(sess.ID)
	lock.Lock()
	defer lock.Unlock()

	ctx, span := b.tracer.StartTerminalSpan(ctx, sess.HandleName, "execute_command")
	defer span.End()

	if err := b.terminal.SendInterrupt(ctx, sess.HandleName); err != nil {
		tracing.RecordError(span, err)
		return "", domainErrors.NewError(domainErrors.CodeTerminal, "could not clear pending input", err)
	}
	b.sleep(b.delays.InterruptDelay)

	if err := b.terminal.SendKeys(ctx, sess.HandleName, command, true); err != nil {
		tracing.RecordError(span, err)
		return "", domainErrors.NewError(domainErrors.CodeTerminal, "could not send command", err)
	}
	b.sleep(b.delays.CommandDelay)

	buffer, err := b.terminal.CapturePane(ctx, sess.HandleName, scrape.ShellCaptureLines)
	if err != nil {
		tracing.RecordError(span, err)
		return "", domainErrors.NewError(domainErrors.CodeTerminal, "could not capture output", err)
	}

	output := scrape.ExtractShell(buffer, command)

	if err := b.history.Append(sess.ID, command, output); err != nil {
		b.logger.WarnContext(ctx, "could not append history entry",
			"session_id", sess.ID, "error", err)
	}
	if err := b.state.Touch(sess.ID); err != nil {
		b.logger.WarnContext(ctx, "could not touch session", "session_id", sess.ID, "error", err)
	}

	logging.LogCommandDispatched(ctx, b.logger, sess.ID, sess.HandleName, false)
	return output, nil
}

// SendToAssistant forwards a message to the assistant process running in
// the handle and scrapes its response.
func (b *Bridge) SendToAssistant(ctx context.Context, sess *domain.Session, message string) (string, error) {
	lock := b.state.CommandLock(sess.ID)
	lock.Lock()
	defer lock.Unlock()

	output, err := b.sendToAssistantLocked(ctx, sess, message)
	if err != nil {
		return "", err
	}

	if histErr := b.history.Append(sess.ID, message, output); histErr != nil {
		b.logger.WarnContext(ctx, "could not append history entry",
			"session_id", sess.ID, "error", histErr)
	}
	if touchErr := b.state.Touch(sess.ID); touchErr != nil {
		b.logger.WarnContext(ctx, "could not touch session", "session_id", sess.ID, "error", touchErr)
	}

	logging.LogCommandDispatched(ctx, b.logger, sess.ID, sess.HandleName, true)
	return output, nil
}

// sendToAssistantLocked performs one assistant round-trip. The caller
// holds the session's command lock.
func (b *Bridge) sendToAssistantLocked(ctx context.Context, sess *domain.Session, message string) (string, error) {
	ctx, span := b.tracer.StartTerminalSpan(ctx, sess.HandleName, "send_to_assistant")
	defer span.End()

	if err := b.terminal.SendKeys(ctx, sess.HandleName, message, true); err != nil {
		tracing.RecordError(span, err)
		return "", domainErrors.NewError(domainErrors.CodeTerminal, "could not send message", err)
	}
	b.sleep(b.assistant.ResponseDelay)

	buffer, err := b.terminal.CapturePane(ctx, sess.HandleName, scrape.AssistantCaptureLines)
	if err != nil {
		tracing.RecordError(span, err)
		return "", domainErrors.NewError(domainErrors.CodeTerminal, "could not capture response", err)
	}

	return scrape.ExtractAssistant(buffer, message), nil
}

// StartAssistant launches the assistant executable inside the handle,
// accepts its trust prompt with a bare Enter, and optionally feeds the
// configured project files as @path references.
func (b *Bridge) StartAssistant(ctx context.Context, sess *domain.Session) error {
	if _, err := exec.LookPath(b.assistant.Executable); err != nil {
		return domainErrors.NewError(domainErrors.CodeConfiguration,
			fmt.Sprintf("assistant executable not found: %s", b.assistant.Executable),
			domainErrors.ErrAssistantNotFound)
	}

	lock := b.state.CommandLock(sess.ID)
	lock.Lock()
	defer lock.Unlock()

	ctx, span := b.tracer.StartTerminalSpan(ctx, sess.HandleName, "start_assistant")
	defer span.End()

	launch := fmt.Sprintf("cd %s && %s", sess.WorkingDir, b.assistant.Executable)
	if err := b.terminal.SendKeys(ctx, sess.HandleName, launch, true); err != nil {
		tracing.RecordError(span, err)
		return domainErrors.NewError(domainErrors.CodeTerminal, "could not launch assistant", err)
	}
	b.sleep(b.assistant.StartDelay)

	// Accept the workspace trust prompt.
	if err := b.terminal.SendKeys(ctx, sess.HandleName, "", true); err != nil {
		tracing.RecordError(span, err)
		return domainErrors.NewError(domainErrors.CodeTerminal, "could not confirm trust prompt", err)
	}
	b.sleep(b.assistant.ReadyDelay)

	if err := b.state.SetAssistantActive(sess.ID, true); err != nil {
		return err
	}
	sess.AssistantActive = true

	if b.assistant.AutoContext {
		b.feedProjectContext(ctx, sess)
	}

	b.logger.InfoContext(ctx, "assistant started",
		"session_id", sess.ID, "handle", sess.HandleName, "working_dir", sess.WorkingDir)
	return nil
}

// feedProjectContext sends @path lines for each configured project file
// present in the working directory. Failures are logged, not fatal.
func (b *Bridge) feedProjectContext(ctx context.Context, sess *domain.Session) {
	for _, name := range b.assistant.ProjectFiles {
		path := filepath.Join(sess.WorkingDir, name)
		if !fileExists(path) {
			continue
		}
		if _, err := b.sendToAssistantLocked(ctx, sess, "@"+path); err != nil {
			b.logger.WarnContext(ctx, "could not feed project file",
				"session_id", sess.ID, "file", name, "error", err)
		}
	}
}

// StopAssistant exits the assistant process: an exit command, a short
// wait, then an interrupt in case the exit was swallowed.
func (b *Bridge) StopAssistant(ctx context.Context, sess *domain.Session) error {
	lock := b.state.CommandLock(sess.ID)
	lock.Lock()
	defer lock.Unlock()

	ctx, span := b.tracer.StartTerminalSpan(ctx, sess.HandleName, "stop_assistant")
	defer span.End()

	if err := b.terminal.SendKeys(ctx, sess.HandleName, "exit", true); err != nil {
		tracing.RecordError(span, err)
		return domainErrors.NewError(domainErrors.CodeTerminal, "could not send exit", err)
	}
	b.sleep(b.delays.CommandDelay)

	if err := b.terminal.SendInterrupt(ctx, sess.HandleName); err != nil {
		tracing.RecordError(span, err)
		return domainErrors.NewError(domainErrors.CodeTerminal, "could not interrupt assistant", err)
	}

	if err := b.state.SetAssistantActive(sess.ID, false); err != nil {
		return err
	}
	sess.AssistantActive = false

	b.logger.InfoContext(ctx, "assistant stopped", "session_id", sess.ID, "handle", sess.HandleName)
	return nil
}

// AssistantStatus reports whether the assistant is believed running. A
// dead handle clears the flag.
func (b *Bridge) AssistantStatus(ctx context.Context, sess *domain.Session) (string, error) {
	if !sess.AssistantActive {
		return "Assistant is not active", nil
	}

	if !b.terminal.IsAlive(ctx, sess.HandleName) {
		if err := b.state.SetAssistantActive(sess.ID, false); err != nil {
			return "", err
		}
		sess.AssistantActive = false
		return "Assistant session appears to be dead", nil
	}

	return "Assistant is active", nil
}

// Tail returns the raw last lines of the handle's screen without any
// scraping, for history views.
func (b *Bridge) Tail(ctx context.Context, sess *domain.Session, lines int) (string, error) {
	buffer, err := b.terminal.CapturePane(ctx, sess.HandleName, lines)
	if err != nil {
		return "", domainErrors.NewError(domainErrors.CodeTerminal, "could not capture history", err)
	}
	return strings.TrimRight(buffer, "\n"), nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
