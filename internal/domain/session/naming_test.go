package session

import "testing"

func TestFormatID(t *testing.T) {
	tests := []struct {
		n    int
		want string
	}{
		{1, "001"},
		{42, "042"},
		{999, "999"},
	}

	for _, tt := range tests {
		if got := FormatID(tt.n); got != tt.want {
			t.Errorf("FormatID(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

func TestValidID(t *testing.T) {
	tests := []struct {
		id   string
		want bool
	}{
		{"001", true},
		{"999", true},
		{"1", false},
		{"0001", false},
		{"abc", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := ValidID(tt.id); got != tt.want {
			t.Errorf("ValidID(%q) = %v, want %v", tt.id, got, tt.want)
		}
	}
}

func TestNextFreeID(t *testing.T) {
	existing := map[string]bool{"001": true, "002": true, "004": true}
	id, ok := NextFreeID(existing)
	if !ok || id != "003" {
		t.Errorf("NextFreeID = %q, %v, want 003, true", id, ok)
	}
}

func TestNextFreeIDExhausted(t *testing.T) {
	existing := make(map[string]bool, MaxID)
	for n := MinID; n <= MaxID; n++ {
		existing[FormatID(n)] = true
	}

	if id, ok := NextFreeID(existing); ok {
		t.Errorf("expected exhaustion, got %q", id)
	}
}

func TestHandleName(t *testing.T) {
	if got := HandleName("claude-session-", "007"); got != "claude-session-007" {
		t.Errorf("HandleName = %q", got)
	}
}
