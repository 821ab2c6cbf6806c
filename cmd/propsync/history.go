package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wtsks/propsync/internal/model"
)

// defaultHistoryLimit is how many runs history lists when --limit is not set.
const defaultHistoryLimit = 20

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "List stored sync runs or show one run",
		Long: `History lists stored sync runs, newest first. Given a run ID, it prints
that run's per-listing results.

Examples:
  propsync history
  propsync history --kind builder --limit 5
  propsync history 0b6f1c1e-8a57-4a8e-9d3a-2f1c5a7e9b10 --json`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	cmd.Flags().StringP("kind", "k", "", "Only list runs of this taxonomy (builder or community)")
	cmd.Flags().IntP("limit", "l", defaultHistoryLimit, "Maximum number of runs to list (0 for all)")
	addReportFlags(cmd)

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, args []string) (err error) {
	var kind model.Kind
	if raw := stringFlag(cmd, "kind"); raw != "" {
		kind, err = model.ParseKind(raw)
		if err != nil {
			return err
		}
	}
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}

	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	applyReportFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	logger := setupLogger(cmd, cfg.Verbose)

	store, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	out, closeOut, err := openReport(cmd, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := closeOut(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close report: %w", cerr)
		}
	}()
	writer := newReportWriter(cfg, out)

	if len(args) == 1 {
		run, err := store.GetRun(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if run == nil {
			return fmt.Errorf("sync run not found: %s", args[0])
		}
		_, err = writer.WriteRun(run)
		return err
	}

	runs, err := store.ListRuns(cmd.Context(), kind, limit)
	if err != nil {
		return err
	}
	_, err = writer.WriteHistory(runs)
	return err
}
