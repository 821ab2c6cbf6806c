package report

import (
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/wtsks/propsync/internal/database"
	"github.com/wtsks/propsync/internal/label"
	"github.com/wtsks/propsync/internal/model"
)

// MarkdownWriter outputs reports in Markdown format.
// This format is designed for documentation and sharing.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer, profiles ProfileFunc) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output, profiles),
	}
}

// WriteRun outputs one sync run in Markdown format.
func (w *MarkdownWriter) WriteRun(run *model.BatchResult) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1(w.title(run.Kind) + " Sync Report")
	md.PlainText("")

	if run.Done() {
		md.Tip(DoneMessage)
		md.PlainText("")
		return len(md.String()), md.Build()
	}

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Run", "`" + run.RunID + "`"},
			{"Started", run.StartedAt.Format(timeLayout)},
			{"Processed", strconv.Itoa(len(run.Items))},
		},
	})
	md.PlainText("")

	md.H2("Batch Results")
	md.PlainText("")
	md.BulletList(Messages(w.profiles(run.Kind), run)...)
	md.PlainText("")

	w.writeSummary(md, run)

	md.Note(MoreMessage)
	md.PlainText("")

	return len(md.String()), md.Build()
}

// writeSummary writes the outcome table and chart.
func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, run *model.BatchResult) {
	md.H2("Summary")
	md.PlainText("")

	outcomes := []struct {
		label   string
		outcome model.Outcome
	}{
		{"✅ Matched", model.OutcomeMatched},
		{"❓ Not found", model.OutcomeNotFound},
		{"➖ No source", model.OutcomeNoSource},
		{"⏭️ Already selected", model.OutcomeAlreadySelected},
	}

	rows := make([][]string, 0, len(outcomes))
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Batch Outcomes"),
		piechart.WithShowData(true),
	)
	for _, o := range outcomes {
		n := run.Count(o.outcome)
		rows = append(rows, []string{o.label, strconv.Itoa(n)})
		if n > 0 {
			chart.LabelAndIntValue(string(o.outcome), uint64(n))
		}
	}

	md.Table(markdown.TableSet{
		Header: []string{"Outcome", "Count"},
		Rows:   rows,
	})
	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// WriteHistory outputs stored runs as a table.
func (w *MarkdownWriter) WriteHistory(runs []database.RunMetadata) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("Sync History")
	md.PlainText("")

	if len(runs) == 0 {
		md.PlainText("No sync runs recorded.")
		md.PlainText("")
		return len(md.String()), md.Build()
	}

	rows := make([][]string, len(runs))
	for i, r := range runs {
		rows[i] = []string{
			"`" + r.ID + "`",
			r.Kind.String(),
			r.StartedAt.Format(timeLayout),
			strconv.Itoa(r.Processed),
			strconv.Itoa(r.Summary[string(model.OutcomeMatched)]),
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Run", "Kind", "Started", "Items", "Matched"},
		Rows:   rows,
	})
	md.PlainText("")

	return len(md.String()), md.Build()
}

// WriteLabels outputs the label map and collisions.
func (w *MarkdownWriter) WriteLabels(kind model.Kind, m *label.Map) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1(w.title(kind) + " Labels")
	md.PlainText("")

	entries := m.Entries()
	rows := make([][]string, len(entries))
	for i, e := range entries {
		rows[i] = []string{"`" + e.Key + "`", e.Canonical, string(e.Origin)}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Label", "Canonical", "Origin"},
		Rows:   rows,
	})
	md.PlainText("")

	conflicts := m.Conflicts()
	if len(conflicts) == 0 {
		md.Tip("No label collisions.")
		md.PlainText("")
		return len(md.String()), md.Build()
	}

	md.H2("Conflicts")
	md.PlainText("")
	md.Warningf("%d label(s) are claimed by more than one title.", len(conflicts))
	md.PlainText("")

	crows := make([][]string, len(conflicts))
	for i, c := range conflicts {
		crows[i] = []string{
			"`" + c.Key + "`",
			c.Kept.Canonical + " (" + string(c.Kept.Origin) + ")",
			c.Dropped.Canonical + " (" + string(c.Dropped.Origin) + ")",
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Label", "Kept", "Dropped"},
		Rows:   crows,
	})
	md.PlainText("")

	return len(md.String()), md.Build()
}
