package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/DannyAtVodooTH/claude-terminal-bot/internal/application/bridge"
	"github.com/DannyAtVodooTH/claude-terminal-bot/internal/application/session"
	"github.com/DannyAtVodooTH/claude-terminal-bot/internal/infrastructure/config"
	"github.com/DannyAtVodooTH/claude-terminal-bot/internal/infrastructure/logging"
	"github.com/DannyAtVodooTH/claude-terminal-bot/internal/infrastructure/security"
	"github.com/DannyAtVodooTH/claude-terminal-bot/internal/infrastructure/storage"
	"github.com/DannyAtVodooTH/claude-terminal-bot/internal/infrastructure/tracing"
)

type fakeTerminal struct{ capture string }

func (f *fakeTerminal) Create(ctx context.Context, handle, workDir string) error  { return nil }
func (f *fakeTerminal) IsAlive(ctx context.Context, handle string) bool           { return true }
func (f *fakeTerminal) Recreate(ctx context.Context, handle, workDir string) error { return nil }
func (f *fakeTerminal) SendKeys(ctx context.Context, handle, text string, submit bool) error {
	return nil
}
func (f *fakeTerminal) SendInterrupt(ctx context.Context, handle string) error { return nil }
func (f *fakeTerminal) CapturePane(ctx context.Context, handle string, lines int) (string, error) {
	return f.capture, nil
}
func (f *fakeTerminal) Kill(ctx context.Context, handle string) error { return nil }

func newTestServer(t *testing.T) (*Server, *session.Registry, *fakeTerminal) {
	t.Helper()
	store, err := storage.NewRecordStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewRecordStore() error = %v", err)
	}
	term := &fakeTerminal{}
	logger := logging.Default()
	reg := session.NewRegistry(store, term, "claude-session-", logger)
	br := bridge.New(term, security.NewGate(security.Policy{}), storage.NewHistoryLog(store), reg,
		config.AssistantConfig{Executable: "sh"}, config.TerminalConfig{}, logger, tracing.Default())
	return NewServer("localhost:0", reg, br, logger), reg, term
}

func TestCreateAndListSessions(t *testing.T) {
	srv, _, _ := newTestServer(t)

	body := strings.NewReader(`{"name": "web-work", "topic": "web"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/sessions", body)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("POST /api/sessions status = %d", rec.Code)
	}
	var created struct {
		Success   bool   `json:"success"`
		SessionID string `json:"session_id"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&created); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if !created.Success || created.SessionID != "001" {
		t.Errorf("response = %+v", created)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/sessions", nil)
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	var listed []sessionView
	if err := json.NewDecoder(rec.Body).Decode(&listed); err != nil {
		t.Fatalf("decoding list: %v", err)
	}
	if len(listed) != 1 || listed[0].Name != "web-work" {
		t.Errorf("list = %+v", listed)
	}
}

func TestCreateSessionDefaults(t *testing.T) {
	srv, reg, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/sessions", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	sess, err := reg.Get("001")
	if err != nil {
		t.Fatalf("session not created: %v", err)
	}
	if sess.Name != "web-session" || sess.Topic != "web" {
		t.Errorf("defaults = %s/%s", sess.Name, sess.Topic)
	}
}

func TestSessionOutput(t *testing.T) {
	srv, reg, term := newTestServer(t)

	if _, err := reg.Create(context.Background(), "alpha", "web"); err != nil {
		t.Fatal(err)
	}
	term.capture = "recent terminal output\n"

	req := httptest.NewRequest(http.MethodGet, "/api/sessions/001/output", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	var resp struct {
		Output string `json:"output"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if resp.Output != "recent terminal output" {
		t.Errorf("output = %q", resp.Output)
	}
}

func TestSendCommand(t *testing.T) {
	srv, reg, term := newTestServer(t)

	if _, err := reg.Create(context.Background(), "alpha", "web"); err != nil {
		t.Fatal(err)
	}
	term.capture = "user@host:~$ echo hi\nhi\nuser@host:~$"

	body := strings.NewReader(`{"command": "echo hi"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/sessions/001/command", body)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	var resp struct {
		Result string `json:"result"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if resp.Result != "hi" {
		t.Errorf("result = %q", resp.Result)
	}
}

func TestUnknownSession(t *testing.T) {
	srv, _, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/sessions/404/output", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestCommandRequiresBody(t *testing.T) {
	srv, reg, _ := newTestServer(t)

	if _, err := reg.Create(context.Background(), "alpha", "web"); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/sessions/001/command", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}
