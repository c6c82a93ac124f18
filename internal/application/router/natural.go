package router

import (
	"fmt"
	"regexp"
	"strings"
)

// naturalPhrases are the substrings that mark a message as a phrased
// bot command rather than terminal input.
var naturalPhrases = []string{
	"start claude", "claude start", "start claude code",
	"stop claude", "claude stop", "stop claude code",
	"list sessions", "show sessions", "list all sessions",
	"new session", "create session", "create new session",
	"switch session", "change session", "switch to session",
	"help", "show help", "bot help",
}

var (
	cdPattern          = regexp.MustCompile(`cd\s+(\S+)`)
	sessionNamePattern = regexp.MustCompile(`(?:new|create) session(?:\s+(?:called\s+)?["']?([^"']+)["']?)?`)
	sessionIDPattern   = regexp.MustCompile(`session\s+(\w+)`)
)

// isNaturalCommand reports whether the message matches the phrase table.
func isNaturalCommand(content string) bool {
	lower := strings.ToLower(content)
	for _, phrase := range naturalPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

// convertNaturalCommand rewrites a phrased message into a structured
// command, extracting arguments where the phrasing allows it. Anything
// too ambiguous to rewrite falls through to help.
func convertNaturalCommand(content, prefix string) string {
	lower := strings.ToLower(content)

	switch {
	case strings.Contains(lower, "start claude") || strings.Contains(lower, "claude start"):
		return prefix + "claude-start"

	case strings.Contains(lower, "stop claude") || strings.Contains(lower, "claude stop"):
		return prefix + "claude-stop"

	case strings.Contains(lower, "change directory") || strings.Contains(content, "cd "):
		if m := cdPattern.FindStringSubmatch(content); m != nil {
			return fmt.Sprintf("%sworking-dir %s", prefix, m[1])
		}
		return content

	case strings.Contains(lower, "list sessions") || strings.Contains(lower, "show sessions"):
		return prefix + "list-sessions"

	case strings.Contains(lower, "new session") || strings.Contains(lower, "create session"):
		if m := sessionNamePattern.FindStringSubmatch(lower); m != nil && m[1] != "" {
			return fmt.Sprintf("%snew-session %s", prefix, strings.TrimSpace(m[1]))
		}
		return prefix + "new-session"

	case strings.Contains(lower, "switch") && strings.Contains(lower, "session"):
		if m := sessionIDPattern.FindStringSubmatch(lower); m != nil {
			return fmt.Sprintf("%sswitch-session %s", prefix, m[1])
		}
		return prefix + "list-sessions"

	case strings.Contains(lower, "help"):
		return prefix + "help"
	}

	return prefix + "help"
}
