package watcher

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
)

func waitForEvent(t *testing.T, events <-chan Event, timeout time.Duration) Event {
	t.Helper()
	select {
	case event := <-events:
		return event
	case <-time.After(timeout):
		t.Fatal("timed out waiting for watch event")
		return Event{}
	}
}

func TestWatcherReportsContextFileChanges(t *testing.T) {
	base := t.TempDir()
	contextDir := filepath.Join(base, "001", "context")
	if err := os.MkdirAll(contextDir, 0755); err != nil {
		t.Fatal(err)
	}

	w, err := New(base, Config{DebounceDuration: 50 * time.Millisecond, BufferSize: 8})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer w.Close()

	if err := w.WatchSession(contextDir); err != nil {
		t.Fatalf("WatchSession() error = %v", err)
	}
	w.Start()

	path := filepath.Join(contextDir, "notes.md")
	if err := os.WriteFile(path, []byte("hello"), 0644); err != nil {
		t.Fatal(err)
	}

	event := waitForEvent(t, w.Events(), 3*time.Second)
	if event.SessionID != "001" || event.Filename != "notes.md" || event.Type != EventAdded {
		t.Errorf("event = %+v", event)
	}

	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	event = waitForEvent(t, w.Events(), 3*time.Second)
	if event.Type != EventRemoved || event.Filename != "notes.md" {
		t.Errorf("remove event = %+v", event)
	}
}

func TestWatchSessionSkipsMissingDir(t *testing.T) {
	w, err := New(t.TempDir(), DefaultConfig())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer w.Close()

	if err := w.WatchSession("/no/such/context/dir"); err != nil {
		t.Errorf("missing dir should be skipped, got %v", err)
	}
}

func TestSplitPath(t *testing.T) {
	w, err := New("/data/sessions", DefaultConfig())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer w.Close()

	tests := []struct {
		path       string
		wantID     string
		wantFile   string
		wantParsed bool
	}{
		{"/data/sessions/001/context/notes.md", "001", "notes.md", true},
		{"/data/sessions/001/session.json", "", "", false},
		{"/data/sessions/001/context", "", "", false},
		{"/elsewhere/001/context/x", "", "", false},
	}

	for _, tt := range tests {
		id, file, ok := w.splitPath(tt.path)
		if ok != tt.wantParsed || id != tt.wantID || file != tt.wantFile {
			t.Errorf("splitPath(%q) = %q, %q, %v", tt.path, id, file, ok)
		}
	}
}

func TestIsTransientFile(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"/x/context/.hidden", true},
		{"/x/context/notes.md~", true},
		{"/x/context/.notes.md.swp", true},
		{"/x/context/build.tmp", true},
		{"/x/context/notes.md", false},
	}

	for _, tt := range tests {
		if got := isTransientFile(tt.path); got != tt.want {
			t.Errorf("isTransientFile(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestConvertOp(t *testing.T) {
	if got := convertOp(fsnotify.Create); got != EventAdded {
		t.Errorf("Create = %v", got)
	}
	if got := convertOp(fsnotify.Write); got != EventAdded {
		t.Errorf("Write = %v", got)
	}
	if got := convertOp(fsnotify.Remove); got != EventRemoved {
		t.Errorf("Remove = %v", got)
	}
	if got := convertOp(fsnotify.Chmod); got != "" {
		t.Errorf("Chmod = %v", got)
	}
}
