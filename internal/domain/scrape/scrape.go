// Package scrape recovers the output belonging to a single issued command
// from a rendered terminal screen buffer.
//
// A terminal multiplexer only exposes the rendered screen, not a
// structured command/response pair. The heuristics here reconstruct that
// pairing under the assumption that the command was just echoed verbatim
// and that shell or assistant prompts are visually distinguishable by
// trailing or leading punctuation. The result is best-effort text: a
// caller always gets a string back, never an error.
package scrape

import "strings"

// Mode selects the extraction heuristic. Plain shells echo commands
// verbatim and keep short outputs; the assistant re-wraps echoed input
// and draws box borders around its responses.
type Mode int

const (
	ModeShell Mode = iota
	ModeAssistant
)

// Capture window sizes in screen lines. Assistant responses run longer
// than shell output, so assistant mode captures a larger tail.
const (
	ShellCaptureLines     = 10
	AssistantCaptureLines = 30
)

// Responses longer than maxResponseLines keep the first headLines and
// last tailLines around a single marker line.
const (
	maxResponseLines = 15
	headLines        = 10
	tailLines        = 3

	// TruncationMarker separates the head and tail of a truncated response.
	TruncationMarker = "... (output truncated) ..."
)

const (
	shellFallbackLines     = 3
	assistantFallbackLines = 10
	assistantTailWindow    = 20
)

// Extract returns the response attributable to command within buffer
// using the heuristic for the given mode.
func Extract(buffer, command string, mode Mode) string {
	if mode == ModeAssistant {
		return ExtractAssistant(buffer, command)
	}
	return ExtractShell(buffer, command)
}

// ExtractShell scrapes the output of a plain shell command. Lines before
// the echoed command that look like prompts are discarded; everything
// after the echo is the response. When the echo cannot be found (a
// multiplexer redraw or timing race ate it), the last few meaningful
// lines stand in.
func ExtractShell(buffer, command string) string {
	lines := splitLines(buffer)

	commandFound := false
	var output []string
	for _, line := range lines {
		if line == command {
			commandFound = true
			continue
		}
		// Prompt noise ahead of the echoed command.
		if !commandFound && (strings.Contains(line, "$") || strings.Contains(line, ">")) {
			continue
		}
		if commandFound {
			output = append(output, line)
		}
	}

	if len(output) == 0 {
		output = lastMeaningful(lines, command, shellFallbackLines)
	}
	if len(output) == 0 {
		return "Command '" + command + "' executed (no output)"
	}

	return strings.Join(truncate(output), "\n")
}

// ExtractAssistant scrapes the assistant's response to a message. The
// assistant UI re-wraps and decorates echoed input, so the anchor match
// is a case-insensitive substring test, and box-border lines are dropped
// along with prompt lines.
func ExtractAssistant(buffer, command string) string {
	lines := splitLines(buffer)
	needle := strings.ToLower(command)

	commandFound := false
	var output []string
	for _, line := range lines {
		if !commandFound {
			if strings.Contains(strings.ToLower(line), needle) {
				commandFound = true
			}
			continue
		}
		if strings.HasSuffix(line, "$") || strings.HasPrefix(line, "│") {
			continue
		}
		output = append(output, line)
	}

	if len(output) == 0 {
		// No anchor: take the most recent meaningful lines from a
		// larger tail window.
		tail := lines
		if len(tail) > assistantTailWindow {
			tail = tail[len(tail)-assistantTailWindow:]
		}
		var recent []string
		for i := len(tail) - 1; i >= 0 && len(recent) < assistantFallbackLines; i-- {
			if strings.HasSuffix(tail[i], "$") {
				continue
			}
			recent = append(recent, tail[i])
		}
		output = reverse(recent)
	}

	if len(output) == 0 {
		return "Message '" + command + "' sent to Claude (no response captured)"
	}

	return strings.Join(output, "\n")
}

// splitLines breaks a captured buffer into trimmed, non-blank lines.
func splitLines(buffer string) []string {
	raw := strings.Split(strings.TrimSpace(buffer), "\n")
	lines := make([]string, 0, len(raw))
	for _, line := range raw {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// lastMeaningful walks lines in reverse collecting up to n that are not
// the echoed command (bare or behind a prompt prefix) and not
// prompt-suffixed, restoring order before returning.
func lastMeaningful(lines []string, command string, n int) []string {
	var collected []string
	for i := len(lines) - 1; i >= 0 && len(collected) < n; i-- {
		line := lines[i]
		if line == command || strings.HasSuffix(line, command) || strings.HasSuffix(line, "$") {
			continue
		}
		collected = append(collected, line)
	}
	return reverse(collected)
}

// truncate shortens output over maxResponseLines, keeping the head and
// tail around a single marker line.
func truncate(lines []string) []string {
	if len(lines) <= maxResponseLines {
		return lines
	}
	out := make([]string, 0, headLines+1+tailLines)
	out = append(out, lines[:headLines]...)
	out = append(out, TruncationMarker)
	out = append(out, lines[len(lines)-tailLines:]...)
	return out
}

func reverse(lines []string) []string {
	for i, j := 0, len(lines)-1; i < j; i, j = i+1, j-1 {
		lines[i], lines[j] = lines[j], lines[i]
	}
	return lines
}
