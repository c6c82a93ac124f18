package storage

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/DannyAtVodooTH/claude-terminal-bot/internal/application/ports"
)

// historyFile is the per-session command history log filename.
const historyFile = "history.log"

// Compile-time check that HistoryLog implements HistoryPort.
var _ ports.HistoryPort = (*HistoryLog)(nil)

// HistoryLog appends executed commands to a per-session JSONL file, one
// entry per line.
type HistoryLog struct {
	store *RecordStore
}

// NewHistoryLog creates a history log sharing the record store's layout.
func NewHistoryLog(store *RecordStore) *HistoryLog {
	return &HistoryLog{store: store}
}

// Append writes one command/output entry to the session's history log.
func (h *HistoryLog) Append(sessionID, command, output string) error {
	if err := h.store.EnsureDirs(sessionID); err != nil {
		return err
	}

	entry := ports.HistoryEntry{
		Timestamp: time.Now(),
		Command:   command,
		Output:    output,
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal history entry: %w", err)
	}

	path := filepath.Join(h.store.SessionDir(sessionID), historyFile)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open history log: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to append history entry: %w", err)
	}
	return nil
}

// Recent returns up to limit most recent entries in chronological order.
func (h *HistoryLog) Recent(sessionID string, limit int) ([]ports.HistoryEntry, error) {
	path := filepath.Join(h.store.SessionDir(sessionID), historyFile)
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open history log: %w", err)
	}
	defer f.Close()

	var entries []ports.HistoryEntry
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		var entry ports.HistoryEntry
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			// Skip torn or corrupt lines.
			continue
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read history log: %w", err)
	}

	if limit > 0 && len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}
	return entries, nil
}
