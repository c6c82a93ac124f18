// Package session provides domain entities for session management.
package session

import (
	"fmt"
	"regexp"
)

// ID allocation bounds. IDs are zero-padded to three digits and reused
// only after the session that held them is killed.
const (
	MinID = 1
	MaxID = 999
)

var idPattern = regexp.MustCompile(`^\d{3}$`)

// FormatID renders a numeric session ID in its zero-padded form.
func FormatID(n int) string {
	return fmt.Sprintf("%03d", n)
}

// ValidID reports whether id is a well-formed session identifier.
func ValidID(id string) bool {
	return idPattern.MatchString(id)
}

// NextFreeID scans ascending from MinID and returns the first ID not
// present in existing, or false once the ID space is exhausted.
func NextFreeID(existing map[string]bool) (string, bool) {
	for n := MinID; n <= MaxID; n++ {
		id := FormatID(n)
		if !existing[id] {
			return id, true
		}
	}
	return "", false
}

// HandleName derives the terminal handle name for a session ID. The
// mapping is pure: a session's handle name is computed once at creation
// and never recomputed afterwards.
func HandleName(prefix, id string) string {
	return prefix + id
}

// DefaultName generates a fallback label for sessions created without a
// name, numbered after the current session count.
func DefaultName(sessionCount int) string {
	return fmt.Sprintf("session-%d", sessionCount+1)
}
