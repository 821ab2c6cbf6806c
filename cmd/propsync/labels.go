package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/wtsks/propsync/internal/label"
	"github.com/wtsks/propsync/internal/model"
	"github.com/wtsks/propsync/internal/report"
)

// NewLabelsCmd creates the labels command.
func NewLabelsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "labels <builder|community>",
		Short: "Show the label map for a taxonomy",
		Long: `Labels builds the label map of a taxonomy from its published entities and
prints every normalized label with the canonical title it resolves to.

When two entities claim the same label, a canonical title beats an alternate
title and otherwise the first entity by title wins. Use --conflicts to list
only those collisions.

Examples:
  propsync labels builder
  propsync labels community --conflicts
  propsync labels community --json`,
		Args: cobra.ExactArgs(1),
		RunE: runLabelsCmd,
	}

	cmd.Flags().Bool("conflicts", false, "Only list labels claimed by more than one title")
	addReportFlags(cmd)

	return cmd
}

// runLabelsCmd executes the labels command.
func runLabelsCmd(cmd *cobra.Command, args []string) (err error) {
	kind, err := model.ParseKind(args[0])
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

	// Collisions are printed below; logging them too would repeat them.
	m, err := label.SourceLoader(store)(cmd.Context(), kind)
	if err != nil {
		return err
	}

	out, closeOut, err := openReport(cmd, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := closeOut(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close report: %w", cerr)
		}
	}()

	if boolFlag(cmd, "conflicts") {
		return writeConflicts(out, cfg.JSONReport, report.NewLabelReport(kind, m).Conflicts)
	}
	_, err = newReportWriter(cfg, out).WriteLabels(kind, m)
	return err
}

// writeConflicts prints collisions one per line, or as a JSON array.
func writeConflicts(w io.Writer, jsonFormat bool, conflicts []label.Conflict) error {
	if jsonFormat {
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(conflicts)
	}

	if len(conflicts) == 0 {
		_, err := fmt.Fprintln(w, "No conflicts")
		return err
	}
	for _, c := range conflicts {
		if _, err := fmt.Fprintf(w, "%s: kept %q (%s), dropped %q (%s)\n",
			c.Key, c.Kept.Canonical, c.Kept.Origin, c.Dropped.Canonical, c.Dropped.Origin); err != nil {
			return err
		}
	}
	return nil
}
