package commands

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	domain "github.com/DannyAtVodooTH/claude-terminal-bot/internal/domain/session"
	"github.com/DannyAtVodooTH/claude-terminal-bot/internal/presentation/cli/output"
)

// NewSessionCmd creates the session command group.
func NewSessionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Inspect and manage terminal sessions",
	}

	cmd.AddCommand(newSessionListCmd())
	cmd.AddCommand(newSessionKillCmd())
	return cmd
}

func newSessionListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSessionList()
		},
	}
}

func newSessionKillCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "kill <session-id>",
		Short: "Destroy a session and its terminal handle",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSessionKill(cmd, args[0])
		},
	}
}

func runSessionList() error {
	app := GetAppContext()

	sessions := app.Container.Registry().List()
	sort.Slice(sessions, func(i, j int) bool { return sessions[i].ID < sessions[j].ID })

	if app.Formatter.Format() == output.FormatJSON {
		return app.Formatter.JSON(sessions)
	}

	if len(sessions) == 0 {
		return app.Formatter.Info("No sessions. Create one with: claudebot console, then /new-session")
	}

	headers := []string{"ID", "NAME", "TOPIC", "STATUS", "ASSISTANT", "WORKING DIR"}
	rows := make([][]string, 0, len(sessions))
	for _, s := range sessions {
		rows = append(rows, []string{
			s.ID,
			s.Name,
			s.Topic,
			string(s.Status),
			assistantLabel(s),
			s.WorkingDir,
		})
	}
	return app.Formatter.Table(headers, rows)
}

func runSessionKill(cmd *cobra.Command, id string) error {
	app := GetAppContext()

	if err := app.Container.Registry().Kill(cmd.Context(), id); err != nil {
		return fmt.Errorf("could not kill session %s: %w", id, err)
	}
	return app.Formatter.Success("Session %s killed", id)
}

func assistantLabel(s *domain.Session) string {
	if s.AssistantActive {
		return "running"
	}
	return "-"
}
