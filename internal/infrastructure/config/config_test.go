package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()

	if cfg.Sessions.HandlePrefix != DefaultHandlePrefix {
		t.Errorf("HandlePrefix = %q, want %q", cfg.Sessions.HandlePrefix, DefaultHandlePrefix)
	}
	if cfg.Assistant.Executable != DefaultExecutable {
		t.Errorf("Executable = %q, want %q", cfg.Assistant.Executable, DefaultExecutable)
	}
	if cfg.Terminal.CommandDelay != DefaultCommandDelay {
		t.Errorf("CommandDelay = %v, want %v", cfg.Terminal.CommandDelay, DefaultCommandDelay)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty base dir", func(c *Config) { c.Sessions.BaseDir = "" }},
		{"empty handle prefix", func(c *Config) { c.Sessions.HandlePrefix = "" }},
		{"empty executable", func(c *Config) { c.Assistant.Executable = "" }},
		{"bad backend", func(c *Config) { c.Terminal.Backend = "screen" }},
		{"bad exporter", func(c *Config) { c.Tracing.ExporterType = "jaeger" }},
		{"bad sample rate", func(c *Config) { c.Tracing.SampleRate = 1.5 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestLoaderMissingFileReturnsDefaults(t *testing.T) {
	loader, err := NewLoader(t.TempDir())
	if err != nil {
		t.Fatalf("NewLoader: %v", err)
	}

	cfg, err := loader.Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Sessions.BaseDir != DefaultBaseDir {
		t.Errorf("BaseDir = %q, want default", cfg.Sessions.BaseDir)
	}
}

func TestLoaderRoundTrip(t *testing.T) {
	dir := t.TempDir()
	loader, err := NewLoader(dir)
	if err != nil {
		t.Fatalf("NewLoader: %v", err)
	}

	cfg := NewDefaultConfig()
	cfg.Sessions.BaseDir = "/var/lib/claudebot"
	cfg.Assistant.ResponseDelay = 5 * time.Second
	cfg.Security.BlockedCommands = []string{"rm -rf", "shutdown"}
	cfg.PathShortcuts = map[string]string{"git/": "/home/user/git/"}

	path := filepath.Join(dir, "config.yaml")
	if err := loader.Save(cfg, path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := loader.LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}
	if loaded.Sessions.BaseDir != cfg.Sessions.BaseDir {
		t.Errorf("BaseDir = %q, want %q", loaded.Sessions.BaseDir, cfg.Sessions.BaseDir)
	}
	if loaded.Assistant.ResponseDelay != cfg.Assistant.ResponseDelay {
		t.Errorf("ResponseDelay = %v, want %v", loaded.Assistant.ResponseDelay, cfg.Assistant.ResponseDelay)
	}
	if len(loaded.Security.BlockedCommands) != 2 {
		t.Errorf("BlockedCommands = %v", loaded.Security.BlockedCommands)
	}
	if loaded.PathShortcuts["git/"] != "/home/user/git/" {
		t.Errorf("PathShortcuts = %v", loaded.PathShortcuts)
	}
}

func TestLoadFromFileStrict(t *testing.T) {
	loader, err := NewLoader(t.TempDir())
	if err != nil {
		t.Fatalf("NewLoader: %v", err)
	}
	if _, err := loader.LoadFromFile("/nonexistent/config.yaml"); err == nil {
		t.Error("LoadFromFile should fail for missing file")
	}
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home dir: %v", err)
	}

	got, err := ExpandHome("~/sessions")
	if err != nil {
		t.Fatalf("ExpandHome: %v", err)
	}
	if got != filepath.Join(home, "sessions") {
		t.Errorf("ExpandHome = %q", got)
	}

	abs, err := ExpandHome("/already/absolute")
	if err != nil || abs != "/already/absolute" {
		t.Errorf("ExpandHome absolute = %q, %v", abs, err)
	}
}
