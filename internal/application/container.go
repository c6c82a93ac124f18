// Package application wires the bot's components together and manages
// their lifecycle.
package application

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/DannyAtVodooTH/claude-terminal-bot/internal/adapters/terminal/ptyterm"
	"github.com/DannyAtVodooTH/claude-terminal-bot/internal/adapters/terminal/tmux"
	"github.com/DannyAtVodooTH/claude-terminal-bot/internal/application/bot"
	"github.com/DannyAtVodooTH/claude-terminal-bot/internal/application/bridge"
	"github.com/DannyAtVodooTH/claude-terminal-bot/internal/application/contextfiles"
	"github.com/DannyAtVodooTH/claude-terminal-bot/internal/application/ports"
	"github.com/DannyAtVodooTH/claude-terminal-bot/internal/application/router"
	"github.com/DannyAtVodooTH/claude-terminal-bot/internal/application/session"
	"github.com/DannyAtVodooTH/claude-terminal-bot/internal/infrastructure/config"
	"github.com/DannyAtVodooTH/claude-terminal-bot/internal/infrastructure/logging"
	"github.com/DannyAtVodooTH/claude-terminal-bot/internal/infrastructure/security"
	"github.com/DannyAtVodooTH/claude-terminal-bot/internal/infrastructure/storage"
	"github.com/DannyAtVodooTH/claude-terminal-bot/internal/infrastructure/storage/sqlite"
	"github.com/DannyAtVodooTH/claude-terminal-bot/internal/infrastructure/tracing"
	"github.com/DannyAtVodooTH/claude-terminal-bot/internal/infrastructure/watcher"
)

// Container holds all application dependencies and manages their
// initialization order and shutdown.
type Container struct {
	config  *config.Config
	verbose bool

	dbConn *sqlite.Connection

	recordStore *storage.RecordStore
	historyLog  *storage.HistoryLog
	dedupStore  *sqlite.DedupStore

	terminal ports.TerminalPort
	registry *session.Registry
	bridge   *bridge.Bridge
	files    *contextfiles.Manager
	router   *router.Router
	bot      *bot.Bot

	contextWatcher *watcher.Watcher

	logger *logging.Logger
	tracer *tracing.Tracer
}

// NewContainer builds the full dependency graph. The registry is loaded
// (and its handles healed) before the container is returned.
func NewContainer(ctx context.Context, cfg *config.Config, replier ports.Replier, verbose bool) (*Container, error) {
	if cfg == nil {
		cfg = config.NewDefaultConfig()
	}
	if err := cfg.ExpandPaths(); err != nil {
		return nil, fmt.Errorf("failed to expand config paths: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	c := &Container{config: cfg, verbose: verbose}

	c.initObservability(ctx)

	if err := c.initStorage(); err != nil {
		return nil, err
	}
	if err := c.initTerminal(); err != nil {
		_ = c.Close(ctx)
		return nil, err
	}
	if err := c.initApplication(ctx, replier); err != nil {
		_ = c.Close(ctx)
		return nil, err
	}

	return c, nil
}

func (c *Container) initObservability(ctx context.Context) {
	logCfg := logging.Config{
		Level:  logging.Level(c.config.Logging.Level),
		Format: logging.Format(c.config.Logging.Format),
	}
	if c.config.Logging.File != "" {
		if f, err := os.OpenFile(c.config.Logging.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644); err == nil {
			logCfg.Output = f
		}
	}
	if c.verbose {
		logCfg.Level = logging.LevelDebug
	}
	c.logger = logging.Init(logCfg)

	tracer, err := tracing.Init(ctx, tracing.Config{
		Enabled:      c.config.Tracing.Enabled,
		ExporterType: tracing.ExporterType(c.config.Tracing.ExporterType),
		OTLPEndpoint: c.config.Tracing.OTLPEndpoint,
		SampleRate:   c.config.Tracing.SampleRate,
		ServiceName:  c.config.Tracing.ServiceName,
	})
	if err != nil {
		c.logger.Warn("tracing disabled", "error", err)
		tracer = tracing.Default()
	}
	c.tracer = tracer
}

func (c *Container) initStorage() error {
	store, err := storage.NewRecordStore(c.config.Sessions.BaseDir)
	if err != nil {
		return fmt.Errorf("failed to initialize record store: %w", err)
	}
	c.recordStore = store
	c.historyLog = storage.NewHistoryLog(store)

	conn, err := sqlite.NewConnection(filepath.Join(c.config.Sessions.BaseDir, "claudebot.db"))
	if err != nil {
		return fmt.Errorf("failed to configure database: %w", err)
	}
	if err := conn.Open(); err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	c.dbConn = conn
	c.dedupStore = sqlite.NewDedupStore(conn)
	return nil
}

// initTerminal picks the terminal backend: tmux when requested or
// available, the in-process pty manager otherwise. pty handles do not
// survive a restart, so tmux is strongly preferred for real use.
func (c *Container) initTerminal() error {
	switch c.config.Terminal.Backend {
	case "tmux":
		mgr, err := tmux.NewManager()
		if err != nil {
			return fmt.Errorf("tmux backend unavailable: %w", err)
		}
		c.terminal = mgr
	case "pty":
		c.terminal = ptyterm.NewManager("")
	case "auto", "":
		if tmux.IsAvailable() {
			mgr, err := tmux.NewManager()
			if err != nil {
				return fmt.Errorf("tmux backend unavailable: %w", err)
			}
			c.terminal = mgr
		} else {
			c.logger.Warn("tmux not found, using pty backend; sessions will not survive restarts")
			c.terminal = ptyterm.NewManager("")
		}
	default:
		return fmt.Errorf("unknown terminal backend: %s", c.config.Terminal.Backend)
	}
	return nil
}

func (c *Container) initApplication(ctx context.Context, replier ports.Replier) error {
	c.registry = session.NewRegistry(c.recordStore, c.terminal, c.config.Sessions.HandlePrefix, c.logger)
	if err := c.registry.Load(ctx); err != nil {
		return fmt.Errorf("failed to load session registry: %w", err)
	}

	gate := security.NewGate(security.Policy{
		Blocked: c.config.Security.BlockedCommands,
		Allowed: c.config.Security.AllowedCommands,
	})

	c.bridge = bridge.New(c.terminal, gate, c.historyLog, c.registry,
		c.config.Assistant, c.config.Terminal, c.logger, c.tracer)
	c.files = contextfiles.NewManager(c.registry, c.logger)
	c.router = router.New(c.registry, c.bridge, c.files,
		c.config.Chat.CommandPrefix, c.config.PathShortcuts, c.logger)

	if replier != nil {
		c.bot = bot.New(c.router, replier, c.dedupStore, c.config.Chat, c.logger, c.tracer)
	}

	return c.initContextWatcher()
}

// initContextWatcher wires the fsnotify watcher so files dropped into a
// session's context directory out-of-band still show up in
// Session.ContextFiles.
func (c *Container) initContextWatcher() error {
	w, err := watcher.New(c.recordStore.BaseDir(), watcher.DefaultConfig())
	if err != nil {
		return fmt.Errorf("failed to create context watcher: %w", err)
	}
	c.contextWatcher = w

	for _, sess := range c.registry.List() {
		if err := w.WatchSession(c.recordStore.ContextDir(sess.ID)); err != nil {
			c.logger.Warn("could not watch context dir", "session_id", sess.ID, "error", err)
		}
	}
	w.Start()

	go c.syncContextEvents()
	return nil
}

// syncContextEvents applies watcher events to the registry until the
// watcher closes.
func (c *Container) syncContextEvents() {
	for event := range c.contextWatcher.Events() {
		var err error
		switch event.Type {
		case watcher.EventAdded:
			err = c.registry.AddContextFile(event.SessionID, event.Filename)
		case watcher.EventRemoved:
			err = c.registry.RemoveContextFile(event.SessionID, event.Filename)
		}
		if err != nil {
			c.logger.Warn("could not sync context change",
				"session_id", event.SessionID, "file", event.Filename, "error", err)
		}
	}
}

// Config returns the effective configuration.
func (c *Container) Config() *config.Config { return c.config }

// Logger returns the application logger.
func (c *Container) Logger() *logging.Logger { return c.logger }

// Registry returns the session registry.
func (c *Container) Registry() *session.Registry { return c.registry }

// Bridge returns the terminal bridge.
func (c *Container) Bridge() *bridge.Bridge { return c.bridge }

// Router returns the command router.
func (c *Container) Router() *router.Router { return c.router }

// Bot returns the chat event loop, or nil when no replier was provided.
func (c *Container) Bot() *bot.Bot { return c.bot }

// ContextFiles returns the context-file manager.
func (c *Container) ContextFiles() *contextfiles.Manager { return c.files }

// Close shuts down the container's resources in reverse order.
func (c *Container) Close(ctx context.Context) error {
	var firstErr error

	if c.contextWatcher != nil {
		if err := c.contextWatcher.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if c.dbConn != nil {
		if err := c.dbConn.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if c.tracer != nil {
		if err := c.tracer.Shutdown(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
