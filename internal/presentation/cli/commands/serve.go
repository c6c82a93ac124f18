package commands

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/DannyAtVodooTH/claude-terminal-bot/internal/presentation/web"
)

// NewServeCmd creates the serve command.
func NewServeCmd() *cobra.Command {
	var webAddr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the bot services until interrupted",
		Long: `Load all persisted sessions, heal dead terminal handles, and serve
the HTTP front-end until SIGINT or SIGTERM. The chat transport is
provided by the embedding process; serve keeps the session registry,
watcher, and web API running.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), webAddr)
		},
	}

	cmd.Flags().StringVar(&webAddr, "web-addr", "", "web interface address (overrides config)")
	return cmd
}

func runServe(ctx context.Context, webAddr string) error {
	app := GetAppContext()
	cfg := app.Container.Config()
	logger := app.Container.Logger()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var server *web.Server
	serveErr := make(chan error, 1)

	addr := cfg.Web.Addr
	if webAddr != "" {
		addr = webAddr
	}
	if cfg.Web.Enabled || webAddr != "" {
		server = web.NewServer(addr, app.Container.Registry(), app.Container.Bridge(), logger)
		go func() { serveErr <- server.ListenAndServe() }()
		app.Formatter.Info("Web interface on http://%s", addr)
	}

	app.Formatter.Success("claudebot running with %d session(s), press Ctrl+C to stop",
		len(app.Container.Registry().List()))

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if server != nil {
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Warn("web shutdown", "error", err)
		}
	}
	if err := app.Container.Close(shutdownCtx); err != nil {
		logger.Warn("container shutdown", "error", err)
	}

	app.Formatter.Println("Stopped.")
	return nil
}
