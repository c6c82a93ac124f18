package ports

import (
	"context"
	"time"

	"github.com/DannyAtVodooTH/claude-terminal-bot/internal/domain/session"
)

// SessionRecordPort persists one record file per session directory. The
// record is rewritten wholesale on every mutation; there is no
// partial-update format.
type SessionRecordPort interface {
	Save(sess *session.Session) error
	Load(id string) (*session.Session, error)
	LoadAll() ([]*session.Session, error)
	Delete(id string) error

	// SessionDir returns the session's storage directory, creating it if
	// needed is the caller's concern.
	SessionDir(id string) string
	// ContextDir returns the session's context-file subdirectory.
	ContextDir(id string) string
}

// HistoryEntry is one executed command with its scraped output.
type HistoryEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Command   string    `json:"command"`
	Output    string    `json:"output"`
}

// HistoryPort appends executed commands to a per-session append-only log.
type HistoryPort interface {
	Append(sessionID, command, output string) error
	Recent(sessionID string, limit int) ([]HistoryEntry, error)
}

// DedupPort remembers which chat event IDs have already been handled, so
// at-least-once delivery does not run commands twice.
type DedupPort interface {
	// MarkSeen records the event ID and reports whether it was already
	// present.
	MarkSeen(ctx context.Context, eventID string) (seen bool, err error)
}
