package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wtsks/propsync/internal/config"
	"github.com/wtsks/propsync/internal/model"
	"github.com/wtsks/propsync/internal/synctool"
)

// NewSyncCmd creates the sync command.
func NewSyncCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync <builder|community>",
		Short: "Match unprocessed listings against a taxonomy",
		Long: `Sync evaluates one batch of published listings that have not been
processed yet. Each listing's source field is normalized and looked up in the
taxonomy's label map; the canonical title is written to the selection fields.

Every evaluated listing is marked as processed, matched or not, so running
sync again continues with the next batch. With --all, batches repeat until
no listing remains.

Examples:
  # Process the next 10 listings against Communities
  propsync sync community

  # Process every remaining listing against Builders
  propsync sync builder --all

  # Write a Markdown report of one batch
  propsync sync community --markdown -o reports/community.md`,
		Args: cobra.ExactArgs(1),
		RunE: runSyncCmd,
	}

	cmd.Flags().BoolP("all", "a", false,
		"Repeat batches until every listing has been processed")
	cmd.Flags().IntP("batch", "b", config.DefaultBatchSize,
		"Number of listings evaluated per batch")
	addReportFlags(cmd)

	return cmd
}

// runSyncCmd executes the sync command.
func runSyncCmd(cmd *cobra.Command, args []string) error {
	kind, err := model.ParseKind(args[0])
	if err != nil {
		return err
	}

	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	if flagChanged(cmd, "batch") {
		cfg.BatchSize, err = cmd.Flags().GetInt("batch")
		if err != nil {
			return err
		}
	}
	applyReportFlags(cmd, cfg)

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	all, err := cmd.Flags().GetBool("all")
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runSync(ctx, cmd, cfg, kind, all)
}

// runSync runs one batch, or every batch when all is set, and writes the
// report for each stored run.
func runSync(ctx context.Context, cmd *cobra.Command, cfg *config.Config, kind model.Kind, all bool) (err error) {
	logger := setupLogger(cmd, cfg.Verbose)

	store, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	tool := synctool.New(store, labelSource(store, logger), cfg.Profile(kind),
		synctool.WithBatchSize(cfg.BatchSize),
		synctool.WithLogger(logger),
	)

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

	if !all {
		run, runErr := tool.RunBatch(ctx)
		if run != nil {
			if _, err := writer.WriteRun(run); err != nil {
				return fmt.Errorf("failed to write report: %w", err)
			}
		}
		return runErr
	}

	runs, runErr := tool.RunAll(ctx)
	for _, run := range runs {
		if _, err := writer.WriteRun(run); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
	}
	if runErr != nil {
		return runErr
	}

	// The final empty batch carries the completion message.
	_, err = writer.WriteRun(model.NewBatchResult("", kind))
	return err
}
