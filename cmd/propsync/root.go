package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for propsync.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "propsync",
		Short: "Match listing fields against builder and community taxonomies",
		Long: `propsync reconciles free-text MLS listing fields ("builder",
"subdivision name") against the curated Builder and Community taxonomies.

Listings are matched automatically when saved. The sync command processes
listings imported before the taxonomies existed, one batch per run, and marks
each evaluated listing so it is never processed twice.

Configuration is read from .propsync (or the XDG config directory), then
.env and PROPSYNC_* environment variables, then command-line flags.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().StringP("config", "c", "",
		"Configuration file path (default: .propsync in current or home directory)")
	cmd.PersistentFlags().String("db-dir", "",
		"Database directory (default: XDG data directory)")
	cmd.PersistentFlags().String("env-file", ".env",
		"Environment file loaded before PROPSYNC_* variables are read")

	// Add subcommands
	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewSyncCmd())
	cmd.AddCommand(NewImportCmd())
	cmd.AddCommand(NewLabelsCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewRenderCmd())
	cmd.AddCommand(NewHashPasswordCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
