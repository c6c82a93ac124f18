package ptyterm

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestPTYHandleLifecycle(t *testing.T) {
	m := NewManager("/bin/sh")
	ctx := context.Background()

	if err := m.Create(ctx, "test-001", t.TempDir()); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if !m.IsAlive(ctx, "test-001") {
		t.Fatal("handle should be alive after Create")
	}

	if err := m.SendKeys(ctx, "test-001", "echo pty-works", true); err != nil {
		t.Fatalf("SendKeys: %v", err)
	}

	// The shell needs a moment to echo and execute.
	deadline := time.Now().Add(3 * time.Second)
	var captured string
	for time.Now().Before(deadline) {
		out, err := m.CapturePane(ctx, "test-001", 20)
		if err != nil {
			t.Fatalf("CapturePane: %v", err)
		}
		if strings.Contains(out, "pty-works") {
			captured = out
			break
		}
		time.Sleep(50 * time.Millisecond)
	}
	if captured == "" {
		t.Fatal("command output never appeared in capture")
	}

	if err := m.Kill(ctx, "test-001"); err != nil {
		t.Fatalf("Kill: %v", err)
	}
	if m.IsAlive(ctx, "test-001") {
		t.Error("handle should be gone after Kill")
	}
}

func TestKillAbsentHandleSucceeds(t *testing.T) {
	m := NewManager("")
	if err := m.Kill(context.Background(), "never-existed"); err != nil {
		t.Errorf("Kill of absent handle should succeed, got %v", err)
	}
}

func TestSendKeysToAbsentHandleFails(t *testing.T) {
	m := NewManager("")
	if err := m.SendKeys(context.Background(), "missing", "ls", true); err == nil {
		t.Error("expected error for missing handle")
	}
}

func TestRecreateReplacesDeadHandle(t *testing.T) {
	m := NewManager("/bin/sh")
	ctx := context.Background()

	if err := m.Create(ctx, "test-002", ""); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := m.Kill(ctx, "test-002"); err != nil {
		t.Fatalf("Kill: %v", err)
	}
	if err := m.Recreate(ctx, "test-002", ""); err != nil {
		t.Fatalf("Recreate: %v", err)
	}
	if !m.IsAlive(ctx, "test-002") {
		t.Error("handle should be alive after Recreate")
	}
	_ = m.Kill(ctx, "test-002")
}
