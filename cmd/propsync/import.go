package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/wtsks/propsync/internal/importer"
	"github.com/wtsks/propsync/internal/listing"
	"github.com/wtsks/propsync/internal/model"
	"github.com/wtsks/propsync/internal/pipeline"
)

// NewImportCmd creates the import command and its subcommands.
func NewImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import taxonomy entities or listings from CSV",
		Long: `Import loads CSV exports into the database.

Entities need a title column; alternate_title, status and address are
optional. Listings need a title column; every column other than id, title
and status is stored as an editor field, and each imported listing goes
through the same save hooks as the admin editor.

Use "-" as the file name to read from standard input.`,
	}

	cmd.AddCommand(newImportEntitiesCmd())
	cmd.AddCommand(newImportListingsCmd())

	return cmd
}

func newImportEntitiesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "entities <builder|community> <file.csv>",
		Short: "Import builders or communities",
		Example: `  propsync import entities builder builders.csv
  propsync import entities community - < communities.csv`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := model.ParseKind(args[0])
			if err != nil {
				return err
			}
			return runImport(cmd, args[1], func(ctx context.Context, im *importer.Importer, r io.Reader) (*importer.Result, error) {
				return im.ImportEntities(ctx, kind, r)
			})
		},
	}
	cmd.Flags().BoolP("json", "j", false, "Output the import summary as JSON")
	return cmd
}

func newImportListingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "listings <file.csv>",
		Short:   "Import listings and auto-fill their selections",
		Example: `  propsync import listings mls-export.csv`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, args[0], func(ctx context.Context, im *importer.Importer, r io.Reader) (*importer.Result, error) {
				return im.ImportListings(ctx, r)
			})
		},
	}
	cmd.Flags().BoolP("json", "j", false, "Output the import summary as JSON")
	return cmd
}

type importFunc func(ctx context.Context, im *importer.Importer, r io.Reader) (*importer.Result, error)

// runImport wires the importer to the store and runs fn over path.
func runImport(cmd *cobra.Command, path string, fn importFunc) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	logger := setupLogger(cmd, cfg.Verbose)

	in, closeIn, err := openInput(cmd, path)
	if err != nil {
		return err
	}
	defer closeIn() //nolint:errcheck // read-only

	store, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	hooks := pipeline.NewSaveHooks(cfg, labelSource(store, logger), logger)
	im := importer.New(store, listing.NewService(store, hooks, cfg.FieldPrefix, logger),
		importer.WithLogger(logger),
	)

	result, err := fn(cmd.Context(), im, in)
	if result != nil {
		if werr := writeImportResult(cmd, result); werr != nil && err == nil {
			err = werr
		}
	}
	return err
}

// openInput opens path for reading, with "-" meaning standard input.
func openInput(cmd *cobra.Command, path string) (io.Reader, func() error, error) {
	if path == "-" {
		return cmd.InOrStdin(), func() error { return nil }, nil
	}
	f, err := os.Open(path) //nolint:gosec // user-provided import path is intentional
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	return f, f.Close, nil
}

// writeImportResult prints the import summary.
func writeImportResult(cmd *cobra.Command, result *importer.Result) error {
	out := cmd.OutOrStdout()
	if boolFlag(cmd, "json") {
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(result)
	}

	fmt.Fprintf(out, "Created:    %d\n", result.Created)
	fmt.Fprintf(out, "Updated:    %d\n", result.Updated)
	fmt.Fprintf(out, "Skipped:    %d\n", result.Skipped)
	if result.Autofilled > 0 {
		fmt.Fprintf(out, "Autofilled: %d\n", result.Autofilled)
	}
	for _, w := range result.Warnings {
		fmt.Fprintf(out, "Warning: %s\n", w)
	}
	return nil
}
