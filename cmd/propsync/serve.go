package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	applog "github.com/wtsks/propsync/internal/log"
	"github.com/wtsks/propsync/internal/server"
)

// NewServeCmd creates the serve command.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the admin HTTP server",
		Long: `Serve starts the admin server: the Builder and Community sync tool pages,
the listing editor with its taxonomy dropdowns, and the JSON API.

The server requires an admin password hash (see 'propsync hash-password')
and a nonce secret, usually supplied as PROPSYNC_ADMIN_PASSWORD_HASH and
PROPSYNC_NONCE_SECRET. It shuts down gracefully on SIGINT or SIGTERM.

Examples:
  propsync serve
  propsync serve --addr 127.0.0.1:9090 --json-logs`,
		Args: cobra.NoArgs,
		RunE: runServeCmd,
	}

	cmd.Flags().StringP("addr", "a", "", "Listen address (default \":8080\")")
	cmd.Flags().Bool("json-logs", false, "Write logs as JSON")

	return cmd
}

// runServeCmd executes the serve command.
func runServeCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	if addr := stringFlag(cmd, "addr"); addr != "" {
		cfg.ListenAddr = addr
	}
	if err := cfg.ValidateServe(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := applog.NewServerLogger(cmd.ErrOrStderr(), cfg.Verbose, boolFlag(cmd, "json-logs"))
	if !cfg.Verbose {
		gin.SetMode(gin.ReleaseMode)
	}

	store, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	srv, err := server.New(cfg, store, server.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return srv.Run(ctx)
}
