// Package config provides configuration structs and utilities for the claude-terminal-bot application.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Config represents the root configuration for the bot.
type Config struct {
	Chat          ChatConfig        `yaml:"chat"`
	Sessions      SessionsConfig    `yaml:"sessions"`
	Assistant     AssistantConfig   `yaml:"assistant"`
	Terminal      TerminalConfig    `yaml:"terminal"`
	Security      SecurityConfig    `yaml:"security"`
	PathShortcuts map[string]string `yaml:"path_shortcuts,omitempty"`
	Logging       LoggingConfig     `yaml:"logging"`
	Tracing       TracingConfig     `yaml:"tracing"`
	Web           WebConfig         `yaml:"web"`
}

// ChatConfig identifies the bot on the chat platform and sets routing
// defaults. Transport credentials are deliberately not part of this
// config; the chat connection is provided by the embedding process.
type ChatConfig struct {
	BotIdentity   string `yaml:"bot_identity"`   // Sender identity of the bot itself, used to skip own messages
	DefaultTopic  string `yaml:"default_topic"`  // Topic used when an inbound event carries none
	DefaultStream string `yaml:"default_stream"` // Stream used for replies when none is given
	CommandPrefix string `yaml:"command_prefix"` // Prefix character for structured commands
}

// SessionsConfig controls session storage and handle naming.
type SessionsConfig struct {
	BaseDir      string `yaml:"base_dir"`      // Root directory for per-session storage
	HandlePrefix string `yaml:"handle_prefix"` // Prefix for terminal handle names
}

// AssistantConfig controls the AI coding assistant launched inside handles.
type AssistantConfig struct {
	Executable    string        `yaml:"executable"`     // Assistant binary to look up in PATH
	AutoContext   bool          `yaml:"auto_context"`   // Feed project files on start
	ProjectFiles  []string      `yaml:"project_files"`  // Files fed when auto_context is on
	StartDelay    time.Duration `yaml:"start_delay"`    // Wait after launching before the trust prompt
	ReadyDelay    time.Duration `yaml:"ready_delay"`    // Wait after the trust prompt before first use
	ResponseDelay time.Duration `yaml:"response_delay"` // Wait after sending a message before capture
}

// TerminalConfig selects the terminal backend and shell-mode delays.
type TerminalConfig struct {
	Backend        string        `yaml:"backend"`         // tmux, pty, or auto
	InterruptDelay time.Duration `yaml:"interrupt_delay"` // Wait after the interrupt key
	CommandDelay   time.Duration `yaml:"command_delay"`   // Wait after a shell command before capture
}

// SecurityConfig holds the shell-command allow and deny lists.
type SecurityConfig struct {
	BlockedCommands []string `yaml:"blocked_commands"` // Substring deny-list, checked first
	AllowedCommands []string `yaml:"allowed_commands"` // First-token allow-list, empty means unrestricted
}

// LoggingConfig holds configuration for application logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
	File   string `yaml:"file"`   // Optional log file, stderr when empty
}

// TracingConfig holds configuration for distributed tracing.
type TracingConfig struct {
	Enabled      bool    `yaml:"enabled"`
	ExporterType string  `yaml:"exporter_type"` // none, stdout, otlp
	OTLPEndpoint string  `yaml:"otlp_endpoint"`
	SampleRate   float64 `yaml:"sample_rate"`
	ServiceName  string  `yaml:"service_name"`
}

// WebConfig holds configuration for the HTTP front-end.
type WebConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// Default configuration values.
const (
	DefaultBaseDir       = "~/.claudebot/sessions"
	DefaultHandlePrefix  = "claude-session-"
	DefaultExecutable    = "claude"
	DefaultTopic         = "general"
	DefaultStream        = "general"
	DefaultCommandPrefix = "/"
	DefaultLogLevel      = "info"
	DefaultLogFormat     = "text"
	DefaultWebAddr       = "localhost:8080"

	// Fixed post-send delays. The external terminal offers no completion
	// signal, so capture happens after a deterministic wait; these values
	// trade latency for capture reliability and are kept deterministic on
	// purpose rather than replaced with adaptive polling.
	DefaultInterruptDelay = 100 * time.Millisecond
	DefaultCommandDelay   = 1 * time.Second
	DefaultStartDelay     = 2 * time.Second
	DefaultReadyDelay     = 3 * time.Second
	DefaultResponseDelay  = 2 * time.Second
)

// NewDefaultConfig returns a Config populated with defaults.
func NewDefaultConfig() *Config {
	return &Config{
		Chat: ChatConfig{
			DefaultTopic:  DefaultTopic,
			DefaultStream: DefaultStream,
			CommandPrefix: DefaultCommandPrefix,
		},
		Sessions: SessionsConfig{
			BaseDir:      DefaultBaseDir,
			HandlePrefix: DefaultHandlePrefix,
		},
		Assistant: AssistantConfig{
			Executable:    DefaultExecutable,
			StartDelay:    DefaultStartDelay,
			ReadyDelay:    DefaultReadyDelay,
			ResponseDelay: DefaultResponseDelay,
		},
		Terminal: TerminalConfig{
			Backend:        "auto",
			InterruptDelay: DefaultInterruptDelay,
			CommandDelay:   DefaultCommandDelay,
		},
		Logging: LoggingConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
		Tracing: TracingConfig{
			Enabled:      false,
			ExporterType: "none",
			SampleRate:   1.0,
			ServiceName:  "claudebot",
		},
		Web: WebConfig{
			Enabled: false,
			Addr:    DefaultWebAddr,
		},
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.Sessions.BaseDir == "" {
		return fmt.Errorf("sessions.base_dir is required")
	}
	if c.Sessions.HandlePrefix == "" {
		return fmt.Errorf("sessions.handle_prefix is required")
	}
	if c.Assistant.Executable == "" {
		return fmt.Errorf("assistant.executable is required")
	}
	switch c.Terminal.Backend {
	case "tmux", "pty", "auto":
	default:
		return fmt.Errorf("terminal.backend must be tmux, pty, or auto, got %q", c.Terminal.Backend)
	}
	switch c.Tracing.ExporterType {
	case "", "none", "stdout", "otlp":
	default:
		return fmt.Errorf("tracing.exporter_type must be none, stdout, or otlp, got %q", c.Tracing.ExporterType)
	}
	if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1 {
		return fmt.Errorf("tracing.sample_rate must be between 0.0 and 1.0")
	}
	return nil
}

// ExpandPaths rewrites "~/" prefixed paths to absolute ones.
func (c *Config) ExpandPaths() error {
	expanded, err := ExpandHome(c.Sessions.BaseDir)
	if err != nil {
		return err
	}
	c.Sessions.BaseDir = expanded

	if c.Logging.File != "" {
		expanded, err = ExpandHome(c.Logging.File)
		if err != nil {
			return err
		}
		c.Logging.File = expanded
	}
	return nil
}

// ExpandHome replaces a leading "~" with the user's home directory.
func ExpandHome(path string) (string, error) {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		if path == "~" {
			return home, nil
		}
		return filepath.Join(home, path[2:]), nil
	}
	return path, nil
}
