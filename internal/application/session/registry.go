// Package session implements the session registry: the single owner of
// all live session state, the topic index, and the durable records
// behind them.
package session

import (
	"context"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/DannyAtVodooTH/claude-terminal-bot/internal/application/ports"
	domainErrors "github.com/DannyAtVodooTH/claude-terminal-bot/internal/domain/errors"
	domain "github.com/DannyAtVodooTH/claude-terminal-bot/internal/domain/session"
	"github.com/DannyAtVodooTH/claude-terminal-bot/internal/infrastructure/logging"
)

// Registry tracks every session by ID and by owning topic, and keeps the
// durable record in sync with every mutation. All access goes through
// Registry methods; the maps are never exposed.
type Registry struct {
	mu           sync.RWMutex
	byID         map[string]*domain.Session
	byTopic      map[string]string // topic -> session ID
	globalActive string            // fallback session ID when a topic has no mapping

	// cmdLocks serializes command traffic per session so two chat events
	// cannot interleave keystrokes in the same handle.
	cmdLocks map[string]*sync.Mutex

	records      ports.SessionRecordPort
	terminal     ports.TerminalPort
	handlePrefix string
	logger       *logging.Logger
}

// NewRegistry creates an empty registry. Call Load before use to restore
// persisted sessions.
func NewRegistry(records ports.SessionRecordPort, terminal ports.TerminalPort, handlePrefix string, logger *logging.Logger) *Registry {
	return &Registry{
		byID:         make(map[string]*domain.Session),
		byTopic:      make(map[string]string),
		cmdLocks:     make(map[string]*sync.Mutex),
		records:      records,
		terminal:     terminal,
		handlePrefix: handlePrefix,
		logger:       logger,
	}
}

// Load restores all persisted session records and guarantees that every
// restored record has a live terminal handle: a handle that died between
// runs is recreated in place with the same name and working directory.
func (r *Registry) Load(ctx context.Context) error {
	sessions, err := r.records.LoadAll()
	if err != nil {
		return fmt.Errorf("loading session records: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, sess := range sessions {
		if !r.terminal.IsAlive(ctx, sess.HandleName) {
			if err := r.terminal.Recreate(ctx, sess.HandleName, sess.WorkingDir); err != nil {
				r.logger.ErrorContext(ctx, "could not recreate dead handle",
					"session_id", sess.ID, "handle", sess.HandleName, "error", err)
				continue
			}
			// A recreated handle has no assistant process in it.
			if sess.AssistantActive {
				sess.AssistantActive = false
				if err := r.records.Save(sess); err != nil {
					r.logger.WarnContext(ctx, "could not persist healed session",
						"session_id", sess.ID, "error", err)
				}
			}
			logging.LogSessionHealed(ctx, r.logger, sess.ID, sess.HandleName)
		}

		r.byID[sess.ID] = sess
		if sess.Topic != "" && !sess.IsSleeping() {
			r.byTopic[sess.Topic] = sess.ID
		}
	}

	// The most recently active non-sleeping session becomes the global
	// fallback, matching what a user left in the foreground.
	var latest *domain.Session
	for _, sess := range r.byID {
		if sess.IsSleeping() {
			continue
		}
		if latest == nil || sess.LastActiveAt.After(latest.LastActiveAt) {
			latest = sess
		}
	}
	if latest != nil {
		r.globalActive = latest.ID
	}

	r.logger.InfoContext(ctx, "session registry loaded",
		"sessions", len(r.byID), "topics", len(r.byTopic))
	return nil
}

// Create allocates the next free ID, creates the storage directory and
// terminal handle, and persists the record. On handle failure all
// partial state is rolled back.
func (r *Registry) Create(ctx context.Context, name, topic string) (*domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing := make(map[string]bool, len(r.byID))
	for id := range r.byID {
		existing[id] = true
	}
	id, ok := domain.NextFreeID(existing)
	if !ok {
		return nil, domainErrors.NewError(domainErrors.CodeValidation,
			"no free session IDs remain", domainErrors.ErrSessionIDExhausted)
	}

	if name == "" {
		name = domain.DefaultName(len(r.byID))
	}

	sess := domain.NewSession(id, name, r.records.SessionDir(id), domain.HandleName(r.handlePrefix, id))
	sess.Topic = topic

	if err := r.records.Save(sess); err != nil {
		return nil, domainErrors.NewError(domainErrors.CodePersistence,
			"could not persist new session", err)
	}

	if err := r.terminal.Create(ctx, sess.HandleName, sess.WorkingDir); err != nil {
		// Roll back the record and storage directory so the ID frees up.
		if delErr := r.records.Delete(id); delErr != nil {
			r.logger.WarnContext(ctx, "rollback of session storage failed",
				"session_id", id, "error", delErr)
		}
		return nil, domainErrors.NewError(domainErrors.CodeTerminal,
			"could not create session", err)
	}

	r.byID[id] = sess
	if topic != "" {
		r.byTopic[topic] = id
	}
	r.globalActive = id

	r.logger.InfoContext(ctx, "session created",
		"session_id", id, "name", name, "handle", sess.HandleName, "topic", topic)
	return sess.Clone(), nil
}

// Get returns a copy of the session with the given ID.
func (r *Registry) Get(id string) (*domain.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sess, ok := r.byID[id]
	if !ok {
		return nil, domainErrors.NewError(domainErrors.CodeNotFound,
			fmt.Sprintf("no session with ID %s", id), domainErrors.ErrSessionNotFound)
	}
	return sess.Clone(), nil
}

// GetByTopic resolves the session owning a topic, falling back to the
// global active session when the topic has no mapping.
func (r *Registry) GetByTopic(topic string) (*domain.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if id, ok := r.byTopic[topic]; ok {
		if sess, ok := r.byID[id]; ok {
			return sess.Clone(), nil
		}
	}
	if r.globalActive != "" {
		if sess, ok := r.byID[r.globalActive]; ok {
			return sess.Clone(), nil
		}
	}
	return nil, domainErrors.NewError(domainErrors.CodeNotFound,
		"no session is active for this topic", domainErrors.ErrNoActiveSession)
}

// List returns copies of all sessions ordered by ID.
func (r *Registry) List() []*domain.Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.Session, 0, len(r.byID))
	for _, sess := range r.byID {
		out = append(out, sess.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// SwitchTopic points a topic at a session. The previous mapping for the
// topic, and the session's previous topic, are both dropped: the last
// switch wins. The session also becomes the global fallback.
func (r *Registry) SwitchTopic(topic, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	sess, ok := r.byID[id]
	if !ok {
		return domainErrors.NewError(domainErrors.CodeNotFound,
			fmt.Sprintf("no session with ID %s", id), domainErrors.ErrSessionNotFound)
	}

	if sess.Topic != "" && r.byTopic[sess.Topic] == id {
		delete(r.byTopic, sess.Topic)
	}

	sess.Topic = topic
	sess.Status = domain.StatusActive
	sess.Touch()
	if topic != "" {
		r.byTopic[topic] = id
	}
	r.globalActive = id

	if err := r.records.Save(sess); err != nil {
		return domainErrors.NewError(domainErrors.CodePersistence,
			"could not persist topic switch", err)
	}
	return nil
}

// SetWorkingDirectory validates that path is an existing directory,
// changes directory inside the terminal handle, and persists the new
// location.
func (r *Registry) SetWorkingDirectory(ctx context.Context, id, path string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	sess, ok := r.byID[id]
	if !ok {
		return domainErrors.NewError(domainErrors.CodeNotFound,
			fmt.Sprintf("no session with ID %s", id), domainErrors.ErrSessionNotFound)
	}

	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return domainErrors.NewError(domainErrors.CodeValidation,
			fmt.Sprintf("directory does not exist: %s", path), domainErrors.ErrDirectoryNotFound)
	}

	if err := r.terminal.SendKeys(ctx, sess.HandleName, fmt.Sprintf("cd %s", path), true); err != nil {
		return domainErrors.NewError(domainErrors.CodeTerminal,
			"could not change directory in handle", err)
	}

	sess.WorkingDir = path
	sess.Touch()
	if err := r.records.Save(sess); err != nil {
		return domainErrors.NewError(domainErrors.CodePersistence,
			"could not persist working directory", err)
	}
	return nil
}

// Sleep backgrounds a session: it stops receiving topic traffic but its
// terminal handle stays alive for a later switch back.
func (r *Registry) Sleep(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	sess, ok := r.byID[id]
	if !ok {
		return domainErrors.NewError(domainErrors.CodeNotFound,
			fmt.Sprintf("no session with ID %s", id), domainErrors.ErrSessionNotFound)
	}

	sess.Status = domain.StatusSleeping
	sess.Touch()
	if sess.Topic != "" && r.byTopic[sess.Topic] == id {
		delete(r.byTopic, sess.Topic)
	}
	if r.globalActive == id {
		r.globalActive = ""
	}

	if err := r.records.Save(sess); err != nil {
		return domainErrors.NewError(domainErrors.CodePersistence,
			"could not persist sleep state", err)
	}
	return nil
}

// Kill destroys the session's terminal handle, deletes its durable
// record, and removes it from all indices.
func (r *Registry) Kill(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	sess, ok := r.byID[id]
	if !ok {
		return domainErrors.NewError(domainErrors.CodeNotFound,
			fmt.Sprintf("no session with ID %s", id), domainErrors.ErrSessionNotFound)
	}

	if err := r.terminal.Kill(ctx, sess.HandleName); err != nil {
		return domainErrors.NewError(domainErrors.CodeTerminal,
			"could not destroy terminal handle", err)
	}
	if err := r.records.Delete(id); err != nil {
		return domainErrors.NewError(domainErrors.CodePersistence,
			"could not delete session record", err)
	}

	delete(r.byID, id)
	delete(r.cmdLocks, id)
	if sess.Topic != "" && r.byTopic[sess.Topic] == id {
		delete(r.byTopic, sess.Topic)
	}
	if r.globalActive == id {
		r.globalActive = ""
	}

	r.logger.InfoContext(ctx, "session killed", "session_id", id, "handle", sess.HandleName)
	return nil
}

// AddContextFile records a context filename on the session. Adding a
// name that is already attached is a no-op.
func (r *Registry) AddContextFile(id, filename string) error {
	return r.mutate(id, func(sess *domain.Session) {
		sess.AddContextFile(filename)
	})
}

// RemoveContextFile drops a context filename from the session.
func (r *Registry) RemoveContextFile(id, filename string) error {
	return r.mutate(id, func(sess *domain.Session) {
		sess.RemoveContextFile(filename)
	})
}

// ClearContextFiles drops all context filenames from the session.
func (r *Registry) ClearContextFiles(id string) error {
	return r.mutate(id, func(sess *domain.Session) {
		sess.ContextFiles = nil
	})
}

// SetAssistantActive flips the assistant-running flag.
func (r *Registry) SetAssistantActive(id string, active bool) error {
	return r.mutate(id, func(sess *domain.Session) {
		sess.AssistantActive = active
	})
}

// Touch refreshes the session's last-active timestamp.
func (r *Registry) Touch(id string) error {
	return r.mutate(id, func(sess *domain.Session) {})
}

// mutate applies fn to the live session under the registry lock and
// persists the result. Every mutation touches the timestamp.
func (r *Registry) mutate(id string, fn func(*domain.Session)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	sess, ok := r.byID[id]
	if !ok {
		return domainErrors.NewError(domainErrors.CodeNotFound,
			fmt.Sprintf("no session with ID %s", id), domainErrors.ErrSessionNotFound)
	}

	fn(sess)
	sess.Touch()
	if err := r.records.Save(sess); err != nil {
		return domainErrors.NewError(domainErrors.CodePersistence,
			"could not persist session", err)
	}
	return nil
}

// CommandLock returns the mutex serializing command traffic for one
// session. Callers hold it across the full send-wait-capture cycle.
func (r *Registry) CommandLock(id string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()

	lock, ok := r.cmdLocks[id]
	if !ok {
		lock = &sync.Mutex{}
		r.cmdLocks[id] = lock
	}
	return lock
}

// ContextDir returns the session's context-file directory.
func (r *Registry) ContextDir(id string) string {
	return r.records.ContextDir(id)
}
