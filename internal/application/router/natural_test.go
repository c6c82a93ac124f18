package router

import "testing"

func TestIsNaturalCommand(t *testing.T) {
	tests := []struct {
		content string
		want    bool
	}{
		{"please start claude for me", true},
		{"Claude Start", true},
		{"list sessions", true},
		{"can you show sessions", true},
		{"create new session", true},
		{"switch to session 2", true},
		{"show help", true},
		{"ls -la", false},
		{"git status", false},
		{"echo session", false},
	}

	for _, tt := range tests {
		t.Run(tt.content, func(t *testing.T) {
			if got := isNaturalCommand(tt.content); got != tt.want {
				t.Errorf("isNaturalCommand(%q) = %v, want %v", tt.content, got, tt.want)
			}
		})
	}
}

func TestConvertNaturalCommand(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"start claude", "please start claude", "/claude-start"},
		{"claude start", "claude start now", "/claude-start"},
		{"stop claude", "stop claude please", "/claude-stop"},
		{"list sessions", "list sessions", "/list-sessions"},
		{"show sessions", "show sessions for me", "/list-sessions"},
		{"new session bare", "new session", "/new-session"},
		{"new session named", "create session called builds", "/new-session builds"},
		{"switch with id", "switch to session 2", "/switch-session 2"},
		{"switch without id", "switch session", "/list-sessions"},
		{"cd extraction", "change directory cd /tmp/work", "/working-dir /tmp/work"},
		{"help", "show help", "/help"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := convertNaturalCommand(tt.content, "/"); got != tt.want {
				t.Errorf("convertNaturalCommand(%q) = %q, want %q", tt.content, got, tt.want)
			}
		})
	}
}
