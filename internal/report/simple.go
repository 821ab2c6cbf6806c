package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/wtsks/propsync/internal/database"
	"github.com/wtsks/propsync/internal/label"
	"github.com/wtsks/propsync/internal/model"
)

// SimpleWriter outputs human-readable text reports for terminal display.
type SimpleWriter struct {
	baseWriter

	// showEmpty controls whether empty sections are shown.
	showEmpty bool

	// verbose adds source fields to item lines.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithShowEmpty configures the writer to show empty sections.
func WithShowEmpty(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.showEmpty = show
	}
}

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, profiles ProfileFunc, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output, profiles),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// WriteRun outputs one sync run in human-readable format.
func (w *SimpleWriter) WriteRun(run *model.BatchResult) (int, error) {
	var sb strings.Builder

	w.writeBanner(&sb, strings.ToUpper(w.title(run.Kind))+" SYNC REPORT")

	if run.Done() {
		sb.WriteString(DoneMessage + "\n\n")
		return w.output.Write([]byte(sb.String()))
	}

	sb.WriteString(fmt.Sprintf("Run:        %s\n", run.RunID))
	sb.WriteString(fmt.Sprintf("Started:    %s\n", run.StartedAt.Format(timeLayout)))
	sb.WriteString(fmt.Sprintf("Processed:  %d\n\n", len(run.Items)))

	w.writeSection(&sb, "BATCH RESULTS")
	p := w.profiles(run.Kind)
	for _, item := range run.Items {
		sb.WriteString("  * " + ItemMessage(p, item) + "\n")
		if w.verbose && item.SourceField != "" {
			sb.WriteString(fmt.Sprintf("    Field: %s\n", item.SourceField))
		}
	}
	sb.WriteString("\n")

	w.writeSection(&sb, "SUMMARY")
	sb.WriteString(fmt.Sprintf("  MATCHED:          %d\n", run.Count(model.OutcomeMatched)))
	sb.WriteString(fmt.Sprintf("  NOT FOUND:        %d\n", run.Count(model.OutcomeNotFound)))
	sb.WriteString(fmt.Sprintf("  NO SOURCE:        %d\n", run.Count(model.OutcomeNoSource)))
	sb.WriteString(fmt.Sprintf("  ALREADY SELECTED: %d\n\n", run.Count(model.OutcomeAlreadySelected)))

	sb.WriteString(MoreMessage + "\n\n")

	return w.output.Write([]byte(sb.String()))
}

// WriteHistory outputs stored runs, newest first.
func (w *SimpleWriter) WriteHistory(runs []database.RunMetadata) (int, error) {
	var sb strings.Builder

	w.writeBanner(&sb, "SYNC HISTORY")

	if len(runs) == 0 {
		sb.WriteString("No sync runs recorded.\n\n")
		return w.output.Write([]byte(sb.String()))
	}

	sb.WriteString(fmt.Sprintf("%-36s  %-9s  %-23s  %5s  %7s\n", "RUN", "KIND", "STARTED", "ITEMS", "MATCHED"))
	for _, r := range runs {
		sb.WriteString(fmt.Sprintf("%-36s  %-9s  %-23s  %5d  %7d\n",
			r.ID, r.Kind, r.StartedAt.Format(timeLayout), r.Processed, r.Summary[string(model.OutcomeMatched)]))
	}
	sb.WriteString("\n")

	return w.output.Write([]byte(sb.String()))
}

// WriteLabels outputs every label and any collisions.
func (w *SimpleWriter) WriteLabels(kind model.Kind, m *label.Map) (int, error) {
	var sb strings.Builder

	w.writeBanner(&sb, strings.ToUpper(w.title(kind))+" LABELS")

	entries := m.Entries()
	if len(entries) > 0 || w.showEmpty {
		w.writeSection(&sb, "LABELS")
		if len(entries) == 0 {
			sb.WriteString("  No labels\n")
		}
		for _, e := range entries {
			sb.WriteString(fmt.Sprintf("  %s -> %s", e.Key, e.Canonical))
			if e.Origin == label.OriginAlternate {
				sb.WriteString(" (alternate)")
			}
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}

	conflicts := m.Conflicts()
	if len(conflicts) > 0 || w.showEmpty {
		w.writeSection(&sb, "CONFLICTS")
		if len(conflicts) == 0 {
			sb.WriteString("  No conflicts\n")
		}
		for _, c := range conflicts {
			sb.WriteString(fmt.Sprintf("  [!] %s: kept %q (%s, #%d), dropped %q (%s, #%d)\n",
				c.Key, c.Kept.Canonical, c.Kept.Origin, c.Kept.EntityID,
				c.Dropped.Canonical, c.Dropped.Origin, c.Dropped.EntityID))
		}
		sb.WriteString("\n")
	}

	return w.output.Write([]byte(sb.String()))
}

// writeBanner writes a centered title between double rules.
func (w *SimpleWriter) writeBanner(sb *strings.Builder, title string) {
	const width = 70
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", width))
	sb.WriteString("\n")
	if pad := (width - len(title)) / 2; pad > 0 {
		sb.WriteString(strings.Repeat(" ", pad))
	}
	sb.WriteString(title + "\n")
	sb.WriteString(strings.Repeat("=", width))
	sb.WriteString("\n\n")
}

// writeSection writes a section header between single rules.
func (w *SimpleWriter) writeSection(sb *strings.Builder, title string) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString(title + "\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")
}
