package commands

import (
	"io"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"
)

// consoleTopic is the pseudo-topic bound to the local REPL. Sessions
// switched here behave exactly as if the operator messaged from chat.
const consoleTopic = "console"

// NewConsoleCmd creates the console command.
func NewConsoleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "console",
		Short: "Interactive local console",
		Long: `Drive the bot from a local prompt instead of a chat transport.
Every line is routed exactly as an incoming chat message would be:
slash commands, natural-language phrases, and raw terminal input.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConsole(cmd)
		},
	}
}

func runConsole(cmd *cobra.Command) error {
	app := GetAppContext()
	router := app.Container.Router()

	app.Formatter.Info("Type a command and press Enter. /help for commands, exit to quit.")

	rl, err := readline.New("> ")
	if err != nil {
		return err
	}
	defer rl.Close()

	for {
		line, err := rl.Readline()
		if err == io.EOF || err == readline.ErrInterrupt {
			break
		}
		if err != nil {
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			break
		}

		reply := router.Handle(cmd.Context(), consoleTopic, line)
		if reply != "" {
			app.Formatter.Println("%s", reply)
		}
	}

	app.Formatter.Println("Goodbye.")
	return nil
}
