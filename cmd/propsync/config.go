package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/wtsks/propsync/internal/config"
	"github.com/wtsks/propsync/internal/database"
	"github.com/wtsks/propsync/internal/label"
	applog "github.com/wtsks/propsync/internal/log"
	"github.com/wtsks/propsync/internal/report"
)

// stringFlag returns the value of a local or inherited flag, or "" when the
// command has no such flag.
func stringFlag(cmd *cobra.Command, name string) string {
	f := cmd.Flag(name)
	if f == nil {
		return ""
	}
	return f.Value.String()
}

// boolFlag reports whether a local or inherited boolean flag is set.
func boolFlag(cmd *cobra.Command, name string) bool {
	f := cmd.Flag(name)
	if f == nil {
		return false
	}
	return f.Value.String() == "true"
}

// flagChanged reports whether the user set the flag explicitly.
func flagChanged(cmd *cobra.Command, name string) bool {
	f := cmd.Flag(name)
	return f != nil && f.Changed
}

// buildConfig layers defaults, the configuration file, the environment and
// the global flags, in that order. Callers apply their own flags on top and
// then validate.
func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()
	cfg.ConfigFilePath = stringFlag(cmd, "config")

	// If the user named a config file, it has to exist.
	// Otherwise a missing file just means defaults.
	configPath := config.FindConfigFile(cfg.ConfigFilePath)
	if configPath != "" {
		f, err := config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		cfg.ApplyFile(f)
	} else if cfg.ConfigFilePath != "" {
		return nil, fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
	}

	if envFile := stringFlag(cmd, "env-file"); envFile != "" {
		if err := config.LoadDotEnv(envFile); err != nil {
			return nil, err
		}
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, fmt.Errorf("invalid environment: %w", err)
	}

	if dir := stringFlag(cmd, "db-dir"); dir != "" {
		cfg.DBDir = dir
	}
	cfg.Verbose = boolFlag(cmd, "verbose")

	return cfg, nil
}

// setupLogger creates the CLI logger. Secrets are redacted before output.
func setupLogger(cmd *cobra.Command, verbose bool) *slog.Logger {
	return applog.NewSecureLogger(cmd.ErrOrStderr(), verbose)
}

// openStore opens the database in cfg.DBDir.
func openStore(cfg *config.Config, logger *slog.Logger) (*database.Store, error) {
	store, err := database.Open(cfg.DBDir, database.DefaultOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	logger.Debug("database opened", "path", store.Path())
	return store, nil
}

// labelSource builds label maps fresh for every lookup and logs collisions.
// A CLI invocation is short-lived, so nothing is cached.
func labelSource(store *database.Store, logger *slog.Logger) *label.Cache {
	return label.NewCache(label.LogConflicts(label.SourceLoader(store), logger), 0)
}

// addReportFlags registers the output format flags shared by the reporting
// commands.
func addReportFlags(cmd *cobra.Command) {
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")
}

// applyReportFlags copies the output format flags into cfg.
func applyReportFlags(cmd *cobra.Command, cfg *config.Config) {
	cfg.JSONReport = boolFlag(cmd, "json")
	cfg.MarkdownReport = boolFlag(cmd, "markdown")
	cfg.ReportFile = stringFlag(cmd, "output")
}

// openReport returns the report destination and a function that closes it.
func openReport(cmd *cobra.Command, cfg *config.Config) (io.Writer, func() error, error) {
	if cfg.ReportFile == "" {
		return cmd.OutOrStdout(), func() error { return nil }, nil
	}

	dir := filepath.Dir(cfg.ReportFile)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, f.Close, nil
}

// newReportWriter picks the writer for the configured format.
func newReportWriter(cfg *config.Config, w io.Writer) report.Writer {
	switch {
	case cfg.JSONReport:
		return report.NewJSONWriter(w, cfg.Profile, report.WithPrettyPrint())
	case cfg.MarkdownReport:
		return report.NewMarkdownWriter(w, cfg.Profile)
	default:
		return report.NewSimpleWriter(w, cfg.Profile, report.WithVerbose(cfg.Verbose))
	}
}
