// Package watcher keeps session context-file lists in sync with
// out-of-band changes to the context directories, e.g. files dropped in
// via scp or an editor. It wraps fsnotify with debouncing so editors
// that write in bursts produce one event per file.
package watcher

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// EventType classifies a context-file change.
type EventType string

const (
	EventAdded   EventType = "added"
	EventRemoved EventType = "removed"
)

// Event is one debounced context-file change.
type Event struct {
	SessionID string
	Filename  string
	Type      EventType
	Timestamp time.Time
}

// Config holds watcher tuning knobs.
type Config struct {
	DebounceDuration time.Duration
	BufferSize       int
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		DebounceDuration: 200 * time.Millisecond,
		BufferSize:       64,
	}
}

// Watcher monitors session context directories.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	config    Config
	baseDir   string
	events    chan Event
	errors    chan error

	pending   map[string]pendingEvent
	pendingMu sync.Mutex

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	closed bool
	mu     sync.Mutex
}

type pendingEvent struct {
	eventType EventType
	timestamp time.Time
}

// New creates a watcher rooted at the session base directory. Paths are
// interpreted as <base>/<session id>/context/<file>.
func New(baseDir string, cfg Config) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 64
	}
	if cfg.DebounceDuration <= 0 {
		cfg.DebounceDuration = 200 * time.Millisecond
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Watcher{
		fsWatcher: fsWatcher,
		config:    cfg,
		baseDir:   baseDir,
		events:    make(chan Event, cfg.BufferSize),
		errors:    make(chan error, cfg.BufferSize),
		pending:   make(map[string]pendingEvent),
		ctx:       ctx,
		cancel:    cancel,
	}, nil
}

// WatchSession starts watching one session's context directory.
// A missing directory is skipped without error; it can be added later.
func (w *Watcher) WatchSession(contextDir string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}

	if _, err := os.Stat(contextDir); os.IsNotExist(err) {
		return nil
	}
	return w.fsWatcher.Add(contextDir)
}

// UnwatchSession stops watching one session's context directory.
func (w *Watcher) UnwatchSession(contextDir string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	// fsnotify errors on unknown paths; a dir removed from disk is
	// already unwatched.
	_ = w.fsWatcher.Remove(contextDir)
	return nil
}

// Start launches the event and debounce loops.
func (w *Watcher) Start() {
	w.wg.Add(2)
	go w.processEvents()
	go w.debounceLoop()
}

// Events returns the channel of debounced context-file changes.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Errors returns the channel of watcher errors.
func (w *Watcher) Errors() <-chan error {
	return w.errors
}

// Close stops the watcher and releases resources.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	w.mu.Unlock()

	w.cancel()
	err := w.fsWatcher.Close()
	w.wg.Wait()

	close(w.events)
	close(w.errors)
	return err
}

func (w *Watcher) processEvents() {
	defer w.wg.Done()

	for {
		select {
		case <-w.ctx.Done():
			return

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}

			if isTransientFile(event.Name) {
				continue
			}
			eventType := convertOp(event.Op)
			if eventType == "" {
				continue
			}

			w.pendingMu.Lock()
			w.pending[event.Name] = pendingEvent{
				eventType: eventType,
				timestamp: time.Now(),
			}
			w.pendingMu.Unlock()

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			select {
			case w.errors <- err:
			default:
			}
		}
	}
}

func (w *Watcher) debounceLoop() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.config.DebounceDuration / 2)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-ticker.C:
			w.emitStableEvents()
		}
	}
}

// emitStableEvents flushes entries that have not changed for a full
// debounce window.
func (w *Watcher) emitStableEvents() {
	w.pendingMu.Lock()
	defer w.pendingMu.Unlock()

	now := time.Now()
	for path, pending := range w.pending {
		if now.Sub(pending.timestamp) < w.config.DebounceDuration {
			continue
		}
		delete(w.pending, path)

		sessionID, filename, ok := w.splitPath(path)
		if !ok {
			continue
		}

		select {
		case w.events <- Event{
			SessionID: sessionID,
			Filename:  filename,
			Type:      pending.eventType,
			Timestamp: pending.timestamp,
		}:
		default:
		}
	}
}

// splitPath extracts the session ID and filename from a context path.
func (w *Watcher) splitPath(path string) (sessionID, filename string, ok bool) {
	rel, err := filepath.Rel(w.baseDir, path)
	if err != nil {
		return "", "", false
	}
	parts := strings.Split(rel, string(filepath.Separator))
	if len(parts) != 3 || parts[1] != "context" {
		return "", "", false
	}
	return parts[0], parts[2], true
}

// isTransientFile filters editor temp and hidden files.
func isTransientFile(path string) bool {
	name := filepath.Base(path)
	return strings.HasPrefix(name, ".") ||
		strings.HasSuffix(name, "~") ||
		strings.HasSuffix(name, ".swp") ||
		strings.HasSuffix(name, ".tmp")
}

func convertOp(op fsnotify.Op) EventType {
	switch {
	case op.Has(fsnotify.Create), op.Has(fsnotify.Write):
		return EventAdded
	case op.Has(fsnotify.Remove), op.Has(fsnotify.Rename):
		return EventRemoved
	default:
		return ""
	}
}
