// Package security provides the allow/deny-list gate applied to every
// shell command before it reaches a terminal handle.
package security

import "strings"

// Policy holds the configured command lists. A zero Policy allows
// everything.
type Policy struct {
	// Blocked is a substring deny-list: a command containing any entry
	// anywhere is rejected. Takes precedence over Allowed.
	Blocked []string
	// Allowed, when non-empty, restricts commands to those whose first
	// whitespace-delimited token appears in the list.
	Allowed []string
}

// Gate validates shell commands against a Policy.
type Gate struct {
	policy Policy
}

// NewGate creates a gate for the given policy.
func NewGate(policy Policy) *Gate {
	return &Gate{policy: policy}
}

// IsAllowed reports whether command may be dispatched to a shell.
func (g *Gate) IsAllowed(command string) bool {
	for _, blocked := range g.policy.Blocked {
		if blocked != "" && strings.Contains(command, blocked) {
			return false
		}
	}

	if len(g.policy.Allowed) > 0 {
		fields := strings.Fields(command)
		if len(fields) == 0 {
			return false
		}
		for _, allowed := range g.policy.Allowed {
			if fields[0] == allowed {
				return true
			}
		}
		return false
	}

	return true
}
