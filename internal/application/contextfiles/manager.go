// Package contextfiles manages the per-session context directory: files
// a user attaches to a session so the assistant can reference them.
package contextfiles

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	domainErrors "github.com/DannyAtVodooTH/claude-terminal-bot/internal/domain/errors"
	"github.com/DannyAtVodooTH/claude-terminal-bot/internal/infrastructure/logging"
)

// SessionIndex is the slice of registry behavior the manager needs: it
// keeps Session.ContextFiles in sync with the files on disk.
type SessionIndex interface {
	AddContextFile(id, filename string) error
	RemoveContextFile(id, filename string) error
	ClearContextFiles(id string) error
	ContextDir(id string) string
}

// FileInfo describes one attached context file.
type FileInfo struct {
	Name     string    `json:"name"`
	Size     int64     `json:"size"`
	Modified time.Time `json:"modified"`
}

// Manager stores and serves context files for sessions.
type Manager struct {
	index  SessionIndex
	logger *logging.Logger
}

// NewManager creates a context-file manager over the session index.
func NewManager(index SessionIndex, logger *logging.Logger) *Manager {
	return &Manager{index: index, logger: logger}
}

// Upload writes content under the session's context directory. When
// content is nil the source path is copied instead. The stored name is
// always the base name of sourcePath.
func (m *Manager) Upload(sessionID, sourcePath string, content []byte) (string, error) {
	dir := m.index.ContextDir(sessionID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("could not create context directory: %w", err)
	}

	filename := filepath.Base(sourcePath)
	if filename == "." || filename == string(filepath.Separator) {
		return "", domainErrors.NewError(domainErrors.CodeValidation,
			fmt.Sprintf("invalid context filename: %s", sourcePath), nil)
	}
	target := filepath.Join(dir, filename)

	if content != nil {
		if err := os.WriteFile(target, content, 0644); err != nil {
			return "", fmt.Errorf("could not write context file: %w", err)
		}
	} else {
		if err := copyFile(sourcePath, target); err != nil {
			return "", err
		}
	}

	if err := m.index.AddContextFile(sessionID, filename); err != nil {
		return "", err
	}

	m.logger.Info("context file uploaded", "session_id", sessionID, "file", filename)
	return filename, nil
}

// List returns name, size and mtime for every attached file.
func (m *Manager) List(sessionID string) ([]FileInfo, error) {
	dir := m.index.ContextDir(sessionID)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("could not read context directory: %w", err)
	}

	var files []FileInfo
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, FileInfo{
			Name:     entry.Name(),
			Size:     info.Size(),
			Modified: info.ModTime(),
		})
	}
	return files, nil
}

// Get reads the content of one attached file.
func (m *Manager) Get(sessionID, filename string) ([]byte, error) {
	path := filepath.Join(m.index.ContextDir(sessionID), filepath.Base(filename))
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domainErrors.NewError(domainErrors.CodeNotFound,
				fmt.Sprintf("context file not found: %s", filename), domainErrors.ErrContextFileMissing)
		}
		return nil, fmt.Errorf("could not read context file: %w", err)
	}
	return data, nil
}

// Delete removes one attached file from disk and from the session record.
func (m *Manager) Delete(sessionID, filename string) error {
	path := filepath.Join(m.index.ContextDir(sessionID), filepath.Base(filename))
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return domainErrors.NewError(domainErrors.CodeNotFound,
				fmt.Sprintf("context file not found: %s", filename), domainErrors.ErrContextFileMissing)
		}
		return fmt.Errorf("could not delete context file: %w", err)
	}
	return m.index.RemoveContextFile(sessionID, filepath.Base(filename))
}

// Clear removes every attached file.
func (m *Manager) Clear(sessionID string) error {
	dir := m.index.ContextDir(sessionID)
	entries, err := os.ReadDir(dir)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("could not read context directory: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if err := os.Remove(filepath.Join(dir, entry.Name())); err != nil {
			return fmt.Errorf("could not clear context directory: %w", err)
		}
	}
	return m.index.ClearContextFiles(sessionID)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		if os.IsNotExist(err) {
			return domainErrors.NewError(domainErrors.CodeNotFound,
				fmt.Sprintf("source file not found: %s", src), domainErrors.ErrContextFileMissing)
		}
		return fmt.Errorf("could not open source file: %w", err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("could not create context file: %w", err)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("could not copy context file: %w", err)
	}
	return out.Close()
}
