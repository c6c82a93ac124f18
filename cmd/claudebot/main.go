// Claudebot CLI entry point
//
// Claudebot bridges chat conversations with persistent terminal
// sessions. Each chat topic maps to a tmux-backed session where shell
// commands and coding-assistant prompts can be executed remotely, with
// session state surviving restarts.
package main

import "github.com/DannyAtVodooTH/claude-terminal-bot/internal/presentation/cli/commands"

func main() {
	commands.Execute()
}
