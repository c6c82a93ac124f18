package session

import (
	"testing"
	"time"
)

func TestContextFileSet(t *testing.T) {
	s := &Session{ID: "001"}

	if !s.AddContextFile("notes.md") {
		t.Error("first add should report a change")
	}
	if s.AddContextFile("notes.md") {
		t.Error("duplicate add should report no change")
	}
	if !s.HasContextFile("notes.md") {
		t.Error("notes.md should be attached")
	}

	if !s.RemoveContextFile("notes.md") {
		t.Error("remove should report the file was present")
	}
	if s.RemoveContextFile("notes.md") {
		t.Error("second remove should report absence")
	}
	if len(s.ContextFiles) != 0 {
		t.Errorf("context files = %v, want empty", s.ContextFiles)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	s := &Session{ID: "001", ContextFiles: []string{"a.txt"}}
	c := s.Clone()

	c.AddContextFile("b.txt")
	c.Name = "copy"

	if s.HasContextFile("b.txt") {
		t.Error("mutating the clone should not touch the original")
	}
	if s.Name == "copy" {
		t.Error("clone shares scalar fields with original")
	}
}

func TestTouch(t *testing.T) {
	s := &Session{LastActiveAt: time.Now().Add(-time.Hour)}
	before := s.LastActiveAt
	s.Touch()
	if !s.LastActiveAt.After(before) {
		t.Error("Touch should advance LastActiveAt")
	}
}
