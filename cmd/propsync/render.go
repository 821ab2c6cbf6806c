package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/wtsks/propsync/internal/config"
	"github.com/wtsks/propsync/internal/display"
	"github.com/wtsks/propsync/internal/model"
	"github.com/wtsks/propsync/internal/shortcode"
)

// NewRenderCmd creates the render command.
func NewRenderCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render [file]",
		Short: "Expand shortcodes and apply display filters to page content",
		Long: `Render expands the listings and address shortcodes in page content and,
for the configured listing template, applies the display filters (thousands
separators, title-cased builder and subdivision names, comma spacing and
phone number formatting).

Content is read from the named file, or from standard input when no file
is given. The result is written to standard output.

Examples:
  propsync render --title "Eberly Trails" page.html
  echo '[community_address]' | propsync render --address "12 Main St, Austin, TX"
  propsync render --template single-properties listing.html`,
		Args: cobra.MaximumNArgs(1),
		RunE: runRenderCmd,
	}

	cmd.Flags().StringP("template", "t", "", "Rendering template name (display filters run only for the listing template)")
	cmd.Flags().String("title", "", "Page title, used as the default listings selection")
	cmd.Flags().String("address", "", "Page address, used by the address shortcode")

	return cmd
}

// runRenderCmd executes the render command.
func runRenderCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	path := "-"
	if len(args) == 1 {
		path = args[0]
	}
	in, closeIn, err := openInput(cmd, path)
	if err != nil {
		return err
	}
	defer closeIn() //nolint:errcheck // read-only

	content, err := io.ReadAll(in)
	if err != nil {
		return fmt.Errorf("failed to read content: %w", err)
	}

	page := shortcode.Page{
		Title:   stringFlag(cmd, "title"),
		Address: stringFlag(cmd, "address"),
	}
	out, err := render(cmd, cfg, page, stringFlag(cmd, "template"), string(content))
	if err != nil {
		return err
	}

	_, err = io.WriteString(cmd.OutOrStdout(), out)
	return err
}

// render runs shortcode expansion and then the display filters.
func render(cmd *cobra.Command, cfg *config.Config, page shortcode.Page, template, content string) (string, error) {
	profiles := make([]config.Profile, 0, len(model.Kinds()))
	for _, kind := range model.Kinds() {
		profiles = append(profiles, cfg.Profile(kind))
	}

	expanded, err := shortcode.NewExpander(cfg.Shortcodes(), profiles).Expand(cmd.Context(), page, content)
	if err != nil {
		return "", fmt.Errorf("failed to expand shortcodes: %w", err)
	}

	out, err := display.NewProcessor(cfg.DisplayTemplate).Process(template, expanded)
	if err != nil {
		return "", fmt.Errorf("failed to apply display filters: %w", err)
	}
	return out, nil
}
