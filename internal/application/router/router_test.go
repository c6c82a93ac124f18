package router

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/DannyAtVodooTH/claude-terminal-bot/internal/application/bridge"
	"github.com/DannyAtVodooTH/claude-terminal-bot/internal/application/contextfiles"
	"github.com/DannyAtVodooTH/claude-terminal-bot/internal/application/session"
	"github.com/DannyAtVodooTH/claude-terminal-bot/internal/infrastructure/config"
	"github.com/DannyAtVodooTH/claude-terminal-bot/internal/infrastructure/logging"
	"github.com/DannyAtVodooTH/claude-terminal-bot/internal/infrastructure/security"
	"github.com/DannyAtVodooTH/claude-terminal-bot/internal/infrastructure/storage"
	"github.com/DannyAtVodooTH/claude-terminal-bot/internal/infrastructure/tracing"
)

// fakeTerminal serves a scripted capture buffer.
type fakeTerminal struct {
	capture string
	alive   map[string]bool
	sent    []string
}

func newFakeTerminal() *fakeTerminal {
	return &fakeTerminal{alive: make(map[string]bool)}
}

func (f *fakeTerminal) Create(ctx context.Context, handle, workDir string) error {
	f.alive[handle] = true
	return nil
}

func (f *fakeTerminal) IsAlive(ctx context.Context, handle string) bool { return f.alive[handle] }

func (f *fakeTerminal) Recreate(ctx context.Context, handle, workDir string) error {
	f.alive[handle] = true
	return nil
}

func (f *fakeTerminal) SendKeys(ctx context.Context, handle, text string, submit bool) error {
	f.sent = append(f.sent, text)
	return nil
}

func (f *fakeTerminal) SendInterrupt(ctx context.Context, handle string) error { return nil }

func (f *fakeTerminal) CapturePane(ctx context.Context, handle string, lines int) (string, error) {
	return f.capture, nil
}

func (f *fakeTerminal) Kill(ctx context.Context, handle string) error {
	delete(f.alive, handle)
	return nil
}

func newTestRouter(t *testing.T, shortcuts map[string]string) (*Router, *fakeTerminal) {
	t.Helper()
	store, err := storage.NewRecordStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewRecordStore() error = %v", err)
	}
	term := newFakeTerminal()
	logger := logging.Default()
	reg := session.NewRegistry(store, term, "claude-session-", logger)
	br := bridge.New(term, security.NewGate(security.Policy{}), storage.NewHistoryLog(store), reg,
		config.AssistantConfig{Executable: "sh"}, config.TerminalConfig{}, logger, tracing.Default())
	files := contextfiles.NewManager(reg, logger)
	return New(reg, br, files, "/", shortcuts, logger), term
}

func TestNewSessionCommand(t *testing.T) {
	r, _ := newTestRouter(t, nil)

	reply := r.Handle(context.Background(), "deploys", "/new-session builds")
	if reply != "Created session 001: builds" {
		t.Errorf("reply = %q", reply)
	}
}

func TestListSessions(t *testing.T) {
	r, _ := newTestRouter(t, nil)
	ctx := context.Background()

	if got := r.Handle(ctx, "deploys", "/list-sessions"); got != "No active sessions" {
		t.Errorf("empty list reply = %q", got)
	}

	r.Handle(ctx, "deploys", "/new-session alpha")
	r.Handle(ctx, "infra", "/new-session beta")

	got := r.Handle(ctx, "deploys", "/list-sessions")
	if !strings.Contains(got, "- 001: alpha") || !strings.Contains(got, "- 002: beta") {
		t.Errorf("list reply = %q", got)
	}
}

func TestUnknownCommand(t *testing.T) {
	r, _ := newTestRouter(t, nil)

	reply := r.Handle(context.Background(), "deploys", "/frobnicate now")
	want := "Unknown command: frobnicate. Use /help for available commands."
	if reply != want {
		t.Errorf("reply = %q, want %q", reply, want)
	}
}

func TestRawInputWithoutSession(t *testing.T) {
	r, _ := newTestRouter(t, nil)

	reply := r.Handle(context.Background(), "deploys", "ls -la")
	if reply != "No active session. Use /new-session to create one." {
		t.Errorf("reply = %q", reply)
	}
}

func TestRawInputRunsShellCommand(t *testing.T) {
	r, term := newTestRouter(t, nil)
	ctx := context.Background()

	r.Handle(ctx, "deploys", "/new-session alpha")
	term.capture = "user@host:~$ echo hi\nhi\nuser@host:~$"

	reply := r.Handle(ctx, "deploys", "echo hi")
	if reply != "```\nhi\n```" {
		t.Errorf("reply = %q", reply)
	}
}

func TestSwitchSessionCommands(t *testing.T) {
	r, _ := newTestRouter(t, nil)
	ctx := context.Background()

	r.Handle(ctx, "deploys", "/new-session alpha")
	r.Handle(ctx, "infra", "/new-session beta")

	if got := r.Handle(ctx, "deploys", "/switch-session 002"); got != "Switched to session 002" {
		t.Errorf("reply = %q", got)
	}
	if got := r.Handle(ctx, "deploys", "/switch-session 404"); got != "Session 404 not found" {
		t.Errorf("reply = %q", got)
	}
	if got := r.Handle(ctx, "deploys", "/switch-session"); !strings.HasPrefix(got, "Usage:") {
		t.Errorf("reply = %q", got)
	}
}

func TestSleepAndKillSession(t *testing.T) {
	r, term := newTestRouter(t, nil)
	ctx := context.Background()

	r.Handle(ctx, "deploys", "/new-session alpha")

	if got := r.Handle(ctx, "deploys", "/sleep-session 001"); got != "Session 001 is now sleeping" {
		t.Errorf("reply = %q", got)
	}
	if got := r.Handle(ctx, "deploys", "/kill-session 001"); got != "Session 001 terminated" {
		t.Errorf("reply = %q", got)
	}
	if term.alive["claude-session-001"] {
		t.Error("handle should be destroyed")
	}
}

func TestWorkingDirWithShortcut(t *testing.T) {
	base := t.TempDir()
	project := filepath.Join(base, "git", "myrepo")
	if err := os.MkdirAll(project, 0755); err != nil {
		t.Fatal(err)
	}

	r, _ := newTestRouter(t, map[string]string{
		"git/": filepath.Join(base, "git") + "/",
	})
	ctx := context.Background()

	r.Handle(ctx, "deploys", "/new-session alpha")

	reply := r.Handle(ctx, "deploys", "/working-dir git/myrepo")
	want := "Working directory changed to: " + project
	if reply != want {
		t.Errorf("reply = %q, want %q", reply, want)
	}
}

func TestWorkingDirMissingPath(t *testing.T) {
	r, _ := newTestRouter(t, nil)
	ctx := context.Background()

	r.Handle(ctx, "deploys", "/new-session alpha")

	reply := r.Handle(ctx, "deploys", "/working-dir /no/such/place")
	if reply != "Directory not found: /no/such/place" {
		t.Errorf("reply = %q", reply)
	}
}

func TestClaudeStatusWithoutAssistant(t *testing.T) {
	r, _ := newTestRouter(t, nil)
	ctx := context.Background()

	r.Handle(ctx, "deploys", "/new-session alpha")

	if got := r.Handle(ctx, "deploys", "/claude-status"); got != "Assistant is not active" {
		t.Errorf("reply = %q", got)
	}
}

func TestClaudeStartStopCycle(t *testing.T) {
	r, term := newTestRouter(t, nil)
	ctx := context.Background()

	r.Handle(ctx, "deploys", "/new-session alpha")

	start := r.Handle(ctx, "deploys", "/claude-start")
	if !strings.Contains(start, "Assistant started in session 001") {
		t.Errorf("start reply = %q", start)
	}
	if got := r.Handle(ctx, "deploys", "/claude-status"); got != "Assistant is active" {
		t.Errorf("status = %q", got)
	}

	// Raw input now goes to the assistant, not the shell.
	term.capture = "> summarize\nHere is the summary."
	reply := r.Handle(ctx, "deploys", "summarize")
	if !strings.Contains(reply, "Here is the summary.") {
		t.Errorf("assistant reply = %q", reply)
	}

	if got := r.Handle(ctx, "deploys", "/claude-stop"); got != "Assistant stopped" {
		t.Errorf("stop reply = %q", got)
	}
}

func TestContextCommands(t *testing.T) {
	r, _ := newTestRouter(t, nil)
	ctx := context.Background()

	r.Handle(ctx, "deploys", "/new-session alpha")

	src := filepath.Join(t.TempDir(), "notes.md")
	if err := os.WriteFile(src, []byte("remember"), 0644); err != nil {
		t.Fatal(err)
	}

	if got := r.Handle(ctx, "deploys", "/context upload "+src); got != "File uploaded: notes.md" {
		t.Errorf("upload reply = %q", got)
	}
	if got := r.Handle(ctx, "deploys", "/context list"); !strings.Contains(got, "notes.md (8 bytes)") {
		t.Errorf("list reply = %q", got)
	}
	if got := r.Handle(ctx, "deploys", "/context delete notes.md"); got != "Deleted context file: notes.md" {
		t.Errorf("delete reply = %q", got)
	}
	if got := r.Handle(ctx, "deploys", "/context list"); got != "No context files" {
		t.Errorf("list after delete = %q", got)
	}
}

func TestHelpListsFullVocabulary(t *testing.T) {
	r, _ := newTestRouter(t, nil)

	help := r.Handle(context.Background(), "deploys", "/help")
	for _, cmd := range []string{
		"/new-session", "/list-sessions", "/switch-session", "/sleep-session",
		"/kill-session", "/claude-start", "/claude-stop", "/claude-status",
		"/context upload", "/working-dir", "/help",
	} {
		if !strings.Contains(help, cmd) {
			t.Errorf("help text missing %s", cmd)
		}
	}
}
