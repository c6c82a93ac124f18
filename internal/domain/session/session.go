// Package session defines domain models for bot-managed terminal sessions.
package session

import (
	"time"
)

// Status represents the current state of a session.
type Status string

const (
	StatusActive   Status = "active"   // Session is the visible default for its topic
	StatusSleeping Status = "sleeping" // Session is backgrounded but its handle stays live
)

// Session represents one durable terminal session owned by the bot.
// Each session pairs a chat topic with an external terminal handle and
// a working directory, and records whether the coding assistant is
// currently running inside that handle.
type Session struct {
	ID               string    `json:"id"`                // Zero-padded unique identifier ("001".."999")
	Name             string    `json:"name"`              // Human label, not unique
	WorkingDir       string    `json:"working_dir"`       // Absolute path; defaults to the session's storage dir
	HandleName       string    `json:"handle_name"`       // Terminal handle name, derived from ID at creation
	AssistantActive  bool      `json:"assistant_active"`  // True while the assistant process is believed running
	Status           Status    `json:"status"`            // active or sleeping
	ContextFiles     []string  `json:"context_files"`     // Attached context filenames, unique by name
	Topic            string    `json:"topic,omitempty"`   // Owning chat topic, empty for standalone sessions
	CreatedAt        time.Time `json:"created_at"`
	LastActiveAt     time.Time `json:"last_active"`
}

// NewSession builds an active session with freshly stamped timestamps.
func NewSession(id, name, workingDir, handleName string) *Session {
	now := time.Now()
	return &Session{
		ID:           id,
		Name:         name,
		WorkingDir:   workingDir,
		HandleName:   handleName,
		Status:       StatusActive,
		CreatedAt:    now,
		LastActiveAt: now,
	}
}

// Touch updates the last-active timestamp.
func (s *Session) Touch() {
	s.LastActiveAt = time.Now()
}

// IsSleeping returns true if the session has been backgrounded.
func (s *Session) IsSleeping() bool {
	return s.Status == StatusSleeping
}

// HasContextFile reports whether filename is already attached to the session.
func (s *Session) HasContextFile(filename string) bool {
	for _, f := range s.ContextFiles {
		if f == filename {
			return true
		}
	}
	return false
}

// AddContextFile attaches filename if not already present and reports
// whether the list changed.
func (s *Session) AddContextFile(filename string) bool {
	if s.HasContextFile(filename) {
		return false
	}
	s.ContextFiles = append(s.ContextFiles, filename)
	return true
}

// RemoveContextFile detaches filename and reports whether it was present.
func (s *Session) RemoveContextFile(filename string) bool {
	for i, f := range s.ContextFiles {
		if f == filename {
			s.ContextFiles = append(s.ContextFiles[:i], s.ContextFiles[i+1:]...)
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the session. Callers that hand sessions
// across goroutine boundaries copy first so the registry stays the single
// writer of its own records.
func (s *Session) Clone() *Session {
	clone := *s
	clone.ContextFiles = append([]string(nil), s.ContextFiles...)
	return &clone
}
