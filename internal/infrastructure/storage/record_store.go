// Package storage provides file-backed persistence for session records
// and command history.
package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/DannyAtVodooTH/claude-terminal-bot/internal/application/ports"
	domainErrors "github.com/DannyAtVodooTH/claude-terminal-bot/internal/domain/errors"
	"github.com/DannyAtVodooTH/claude-terminal-bot/internal/domain/session"
)

// recordFile is the per-session record filename.
const recordFile = "session.json"

// contextDirName is the per-session context subdirectory.
const contextDirName = "context"

// Compile-time check that RecordStore implements SessionRecordPort.
var _ ports.SessionRecordPort = (*RecordStore)(nil)

// RecordStore persists one JSON record per session directory under a
// base directory. Records are rewritten wholesale on every save.
type RecordStore struct {
	baseDir string
}

// NewRecordStore creates a record store rooted at baseDir, creating the
// directory if needed.
func NewRecordStore(baseDir string) (*RecordStore, error) {
	if baseDir == "" {
		return nil, domainErrors.NewError(domainErrors.CodeConfiguration, "session base directory is required", nil)
	}
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create session base directory: %w", err)
	}
	return &RecordStore{baseDir: baseDir}, nil
}

// BaseDir returns the store's root directory.
func (s *RecordStore) BaseDir() string {
	return s.baseDir
}

// SessionDir returns the storage directory for a session ID.
func (s *RecordStore) SessionDir(id string) string {
	return filepath.Join(s.baseDir, id)
}

// ContextDir returns the context subdirectory for a session ID.
func (s *RecordStore) ContextDir(id string) string {
	return filepath.Join(s.baseDir, id, contextDirName)
}

// EnsureDirs creates the session directory and its context subdirectory.
func (s *RecordStore) EnsureDirs(id string) error {
	if err := os.MkdirAll(s.ContextDir(id), 0755); err != nil {
		return fmt.Errorf("failed to create session directories: %w", err)
	}
	return nil
}

// RemoveDirs deletes a session's entire storage directory.
func (s *RecordStore) RemoveDirs(id string) error {
	return os.RemoveAll(s.SessionDir(id))
}

// Save writes the full session record, replacing any previous one.
func (s *RecordStore) Save(sess *session.Session) error {
	if sess.ID == "" {
		return domainErrors.NewError(domainErrors.CodeValidation, "session ID is required", domainErrors.ErrSessionIDRequired)
	}

	if err := s.EnsureDirs(sess.ID); err != nil {
		return err
	}

	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session record: %w", err)
	}

	path := filepath.Join(s.SessionDir(sess.ID), recordFile)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return domainErrors.NewError(domainErrors.CodePersistence, "failed to write session record", err)
	}
	return nil
}

// Load reads the record for one session ID.
func (s *RecordStore) Load(id string) (*session.Session, error) {
	path := filepath.Join(s.SessionDir(id), recordFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domainErrors.NewError(domainErrors.CodeNotFound,
				fmt.Sprintf("session record not found: %s", id), domainErrors.ErrSessionNotFound)
		}
		return nil, domainErrors.NewError(domainErrors.CodePersistence, "failed to read session record", err)
	}

	var sess session.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, domainErrors.NewError(domainErrors.CodePersistence, "failed to parse session record", err)
	}
	if sess.ID == "" {
		return nil, domainErrors.NewError(domainErrors.CodePersistence,
			fmt.Sprintf("session record missing ID: %s", path), nil)
	}

	return &sess, nil
}

// LoadAll reads every session record under the base directory. Corrupt
// or incomplete records are skipped rather than failing the whole load.
func (s *RecordStore) LoadAll() ([]*session.Session, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read session base directory: %w", err)
	}

	var sessions []*session.Session
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		sess, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		sessions = append(sessions, sess)
	}
	return sessions, nil
}

// Delete removes a session's record and storage directory.
func (s *RecordStore) Delete(id string) error {
	if id == "" {
		return domainErrors.ErrSessionIDRequired
	}
	return s.RemoveDirs(id)
}
