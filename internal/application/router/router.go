// Package router classifies inbound chat text and dispatches it: a
// structured command, a natural-language phrase rewritten into one, or
// raw input forwarded to the topic's session. Every failure becomes a
// plain text reply; nothing escapes to the chat transport as an error.
package router

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/DannyAtVodooTH/claude-terminal-bot/internal/application/bridge"
	"github.com/DannyAtVodooTH/claude-terminal-bot/internal/application/contextfiles"
	"github.com/DannyAtVodooTH/claude-terminal-bot/internal/application/session"
	domain "github.com/DannyAtVodooTH/claude-terminal-bot/internal/domain/session"
	"github.com/DannyAtVodooTH/claude-terminal-bot/internal/infrastructure/logging"
)

// Router turns chat text into session operations.
type Router struct {
	registry *session.Registry
	bridge   *bridge.Bridge
	files    *contextfiles.Manager
	prefix   string
	// shortcuts rewrites working-dir arguments: an exact key is replaced
	// by its expansion, a key ending in "/" expands as a path prefix.
	shortcuts map[string]string
	logger    *logging.Logger
}

// New creates a router. prefix is the structured-command marker,
// usually "/".
func New(registry *session.Registry, br *bridge.Bridge, files *contextfiles.Manager, prefix string, shortcuts map[string]string, logger *logging.Logger) *Router {
	if prefix == "" {
		prefix = "/"
	}
	return &Router{
		registry:  registry,
		bridge:    br,
		files:     files,
		prefix:    prefix,
		shortcuts: shortcuts,
		logger:    logger,
	}
}

// Handle processes one message for a topic and returns the reply text.
func (r *Router) Handle(ctx context.Context, topic, content string) string {
	content = strings.TrimSpace(content)
	if content == "" {
		return ""
	}

	switch {
	case strings.HasPrefix(content, r.prefix):
		return r.handleCommand(ctx, topic, content)
	case isNaturalCommand(content):
		rewritten := convertNaturalCommand(content, r.prefix)
		r.logger.DebugContext(ctx, "natural phrase rewritten", "input", content, "command", rewritten)
		return r.handleCommand(ctx, topic, rewritten)
	default:
		return r.handleRawInput(ctx, topic, content)
	}
}

// handleCommand dispatches a structured command.
func (r *Router) handleCommand(ctx context.Context, topic, command string) string {
	parts := strings.Fields(strings.TrimPrefix(command, r.prefix))
	if len(parts) == 0 {
		return r.helpText()
	}
	cmd, args := parts[0], parts[1:]

	switch cmd {
	case "new-session":
		name := strings.Trim(strings.Join(args, " "), `"'`)
		sess, err := r.registry.Create(ctx, name, topic)
		if err != nil {
			return fmt.Sprintf("Could not create session: %v", err)
		}
		return fmt.Sprintf("Created session %s: %s", sess.ID, sess.Name)

	case "list-sessions":
		return r.listSessions()

	case "switch-session":
		if len(args) == 0 {
			return fmt.Sprintf("Usage: %sswitch-session <session_id>", r.prefix)
		}
		id := args[0]
		if err := r.registry.SwitchTopic(topic, id); err != nil {
			return fmt.Sprintf("Session %s not found", id)
		}
		return fmt.Sprintf("Switched to session %s", id)

	case "working-dir":
		if len(args) == 0 {
			return fmt.Sprintf("Usage: %sworking-dir <path>", r.prefix)
		}
		return r.changeWorkingDir(ctx, topic, strings.Join(args, " "))

	case "sleep-session":
		if len(args) == 0 {
			return fmt.Sprintf("Usage: %ssleep-session <session_id>", r.prefix)
		}
		if err := r.registry.Sleep(args[0]); err != nil {
			return fmt.Sprintf("Session %s not found", args[0])
		}
		return fmt.Sprintf("Session %s is now sleeping", args[0])

	case "kill-session":
		if len(args) == 0 {
			return fmt.Sprintf("Usage: %skill-session <session_id>", r.prefix)
		}
		if err := r.registry.Kill(ctx, args[0]); err != nil {
			return fmt.Sprintf("Could not kill session %s: %v", args[0], err)
		}
		return fmt.Sprintf("Session %s terminated", args[0])

	case "claude-start":
		return r.withCurrentSession(topic, func(sess *domain.Session) string {
			if err := r.bridge.StartAssistant(ctx, sess); err != nil {
				return fmt.Sprintf("Failed to start assistant: %v", err)
			}
			return fmt.Sprintf("Assistant started in session %s\nWorking directory: %s", sess.ID, sess.WorkingDir)
		})

	case "claude-stop":
		return r.withCurrentSession(topic, func(sess *domain.Session) string {
			if err := r.bridge.StopAssistant(ctx, sess); err != nil {
				return fmt.Sprintf("Failed to stop assistant: %v", err)
			}
			return "Assistant stopped"
		})

	case "claude-status":
		return r.withCurrentSession(topic, func(sess *domain.Session) string {
			status, err := r.bridge.AssistantStatus(ctx, sess)
			if err != nil {
				return fmt.Sprintf("Status check failed: %v", err)
			}
			return status
		})

	case "context":
		return r.handleContext(topic, args)

	case "help":
		return r.helpText()

	default:
		return fmt.Sprintf("Unknown command: %s. Use %shelp for available commands.", cmd, r.prefix)
	}
}

// handleContext dispatches the context subcommands.
func (r *Router) handleContext(topic string, args []string) string {
	if len(args) == 0 {
		return fmt.Sprintf("Usage: %scontext <upload|list|delete|clear> [file]", r.prefix)
	}

	return r.withCurrentSession(topic, func(sess *domain.Session) string {
		sub := args[0]
		switch sub {
		case "upload":
			if len(args) < 2 {
				return fmt.Sprintf("Usage: %scontext upload <file>", r.prefix)
			}
			name, err := r.files.Upload(sess.ID, args[1], nil)
			if err != nil {
				return fmt.Sprintf("Upload failed: %v", err)
			}
			return fmt.Sprintf("File uploaded: %s", name)

		case "list":
			files, err := r.files.List(sess.ID)
			if err != nil {
				return fmt.Sprintf("Could not list context files: %v", err)
			}
			if len(files) == 0 {
				return "No context files"
			}
			var sb strings.Builder
			sb.WriteString("Context files:\n")
			for _, f := range files {
				fmt.Fprintf(&sb, "- %s (%d bytes)\n", f.Name, f.Size)
			}
			return strings.TrimRight(sb.String(), "\n")

		case "delete":
			if len(args) < 2 {
				return fmt.Sprintf("Usage: %scontext delete <file>", r.prefix)
			}
			if err := r.files.Delete(sess.ID, args[1]); err != nil {
				return fmt.Sprintf("Delete failed: %v", err)
			}
			return fmt.Sprintf("Deleted context file: %s", args[1])

		case "clear":
			if err := r.files.Clear(sess.ID); err != nil {
				return fmt.Sprintf("Clear failed: %v", err)
			}
			return "Context cleared"

		default:
			return fmt.Sprintf("Unknown context action: %s", sub)
		}
	})
}

// handleRawInput forwards plain text to the topic's session: assistant
// path when the assistant is running, shell path otherwise.
func (r *Router) handleRawInput(ctx context.Context, topic, content string) string {
	sess, err := r.registry.GetByTopic(topic)
	if err != nil {
		return fmt.Sprintf("No active session. Use %snew-session to create one.", r.prefix)
	}

	var output string
	if sess.AssistantActive {
		output, err = r.bridge.SendToAssistant(ctx, sess, content)
	} else {
		output, err = r.bridge.ExecuteCommand(ctx, sess, content)
	}
	if err != nil {
		return fmt.Sprintf("Execution failed: %v", err)
	}
	if output == "" {
		return "Command executed (no output)"
	}
	return fmt.Sprintf("```\n%s\n```", output)
}

// changeWorkingDir applies shortcut rewrites and changes the session's
// directory.
func (r *Router) changeWorkingDir(ctx context.Context, topic, path string) string {
	path = r.expandShortcut(path)
	return r.withCurrentSession(topic, func(sess *domain.Session) string {
		if err := r.registry.SetWorkingDirectory(ctx, sess.ID, path); err != nil {
			return fmt.Sprintf("Directory not found: %s", path)
		}
		return fmt.Sprintf("Working directory changed to: %s", path)
	})
}

// expandShortcut rewrites a path through the configured shortcut map.
// Longer keys win so nested prefixes resolve deterministically.
func (r *Router) expandShortcut(path string) string {
	keys := make([]string, 0, len(r.shortcuts))
	for k := range r.shortcuts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return len(keys[i]) > len(keys[j]) })

	for _, key := range keys {
		expansion := r.shortcuts[key]
		if path == key {
			return expansion
		}
		if strings.HasSuffix(key, "/") && strings.HasPrefix(path, key) {
			return expansion + path[len(key):]
		}
	}
	return path
}

// withCurrentSession resolves the topic's session and runs fn, or
// explains that no session exists yet.
func (r *Router) withCurrentSession(topic string, fn func(*domain.Session) string) string {
	sess, err := r.registry.GetByTopic(topic)
	if err != nil {
		return fmt.Sprintf("No active session. Use %snew-session first.", r.prefix)
	}
	return fn(sess)
}

// listSessions formats the session table.
func (r *Router) listSessions() string {
	sessions := r.registry.List()
	if len(sessions) == 0 {
		return "No active sessions"
	}

	var sb strings.Builder
	sb.WriteString("Active sessions:\n")
	for _, s := range sessions {
		fmt.Fprintf(&sb, "- %s: %s", s.ID, s.Name)
		if s.IsSleeping() {
			sb.WriteString(" (sleeping)")
		}
		if s.AssistantActive {
			sb.WriteString(" [assistant]")
		}
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

func (r *Router) helpText() string {
	p := r.prefix
	return fmt.Sprintf(`**Claude Terminal Bot Commands:**

**Session Management:**
- `+"`%snew-session [name]`"+` - Create a new terminal session
- `+"`%slist-sessions`"+` - Show all active sessions
- `+"`%sswitch-session <id>`"+` - Switch to a session
- `+"`%ssleep-session <id>`"+` - Background a session
- `+"`%skill-session <id>`"+` - Terminate a session

**Assistant:**
- `+"`%sclaude-start`"+` - Start the assistant in the current session
- `+"`%sclaude-stop`"+` - Stop the assistant
- `+"`%sclaude-status`"+` - Check assistant status

**Context:**
- `+"`%scontext upload <file>`"+` - Upload file to session context
- `+"`%scontext list`"+` - Show session context files
- `+"`%scontext delete <file>`"+` - Remove a context file
- `+"`%scontext clear`"+` - Remove all context files
- `+"`%sworking-dir <path>`"+` - Change session working directory

**Other:**
- `+"`%shelp`"+` - Show this help message

Send any other message to execute as a terminal command.`,
		p, p, p, p, p, p, p, p, p, p, p, p, p, p)
}
