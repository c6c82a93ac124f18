package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/DannyAtVodooTH/claude-terminal-bot/internal/application/ports"
)

// DedupStore records which chat event IDs have already been handled,
// so a restarted bot does not replay commands it acted on before.
type DedupStore struct {
	conn *Connection
}

// Compile-time check that DedupStore implements the port.
var _ ports.DedupPort = (*DedupStore)(nil)

// NewDedupStore creates a dedup store over an open connection.
func NewDedupStore(conn *Connection) *DedupStore {
	return &DedupStore{conn: conn}
}

// MarkSeen records the event ID and reports whether it had been seen before.
// The insert and the check are a single statement, so concurrent callers
// racing on the same ID agree on exactly one first sighting.
func (d *DedupStore) MarkSeen(ctx context.Context, eventID string) (bool, error) {
	if eventID == "" {
		return false, fmt.Errorf("event ID is required")
	}

	db, err := d.conn.DB()
	if err != nil {
		return false, err
	}

	result, err := db.ExecContext(ctx,
		"INSERT OR IGNORE INTO processed_events (event_id) VALUES (?)", eventID)
	if err != nil {
		return false, fmt.Errorf("could not record event: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("could not read insert result: %w", err)
	}

	// Zero rows inserted means the ID was already present.
	return rows == 0, nil
}

// Prune deletes dedup entries older than the retention window.
func (d *DedupStore) Prune(ctx context.Context, olderThan time.Duration) (int64, error) {
	db, err := d.conn.DB()
	if err != nil {
		return 0, err
	}

	cutoff := time.Now().Add(-olderThan).UTC().Format("2006-01-02 15:04:05")
	result, err := db.ExecContext(ctx,
		"DELETE FROM processed_events WHERE seen_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("could not prune events: %w", err)
	}

	return result.RowsAffected()
}
