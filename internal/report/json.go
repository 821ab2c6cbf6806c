package report

import (
	"encoding/json"
	"io"

	"github.com/wtsks/propsync/internal/config"
	"github.com/wtsks/propsync/internal/database"
	"github.com/wtsks/propsync/internal/label"
	"github.com/wtsks/propsync/internal/model"
)

// JSONWriter outputs reports in JSON format for tool integration.
type JSONWriter struct {
	baseWriter

	// indent enables pretty-printed JSON output.
	indent bool

	// indentPrefix is the prefix for each line in indented output.
	indentPrefix string

	// indentString is the indentation string (typically "  " or "\t").
	indentString string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables pretty-printed JSON output.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint enables pretty-printed JSON with default indentation.
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", "  ")
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, profiles ProfileFunc, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{
		baseWriter: newBaseWriter(output, profiles),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// RunReport is the JSON form of a sync run.
type RunReport struct {
	*model.BatchResult

	Summary  map[string]int `json:"summary"`
	Messages []string       `json:"messages"`
	Status   string         `json:"status"`
}

// NewRunReport wraps run with its summary and messages.
func NewRunReport(run *model.BatchResult, profiles ProfileFunc) *RunReport {
	if profiles == nil {
		profiles = config.DefaultProfile
	}
	return &RunReport{
		BatchResult: run,
		Summary:     run.Summary(),
		Messages:    Messages(profiles(run.Kind), run),
		Status:      StatusMessage(run),
	}
}

// LabelReport is the JSON form of a label map.
type LabelReport struct {
	Kind      model.Kind       `json:"kind"`
	Labels    []label.Entry    `json:"labels"`
	Conflicts []label.Conflict `json:"conflicts"`
}

// NewLabelReport flattens m for output.
func NewLabelReport(kind model.Kind, m *label.Map) *LabelReport {
	conflicts := m.Conflicts()
	if conflicts == nil {
		conflicts = make([]label.Conflict, 0)
	}
	return &LabelReport{
		Kind:      kind,
		Labels:    m.Entries(),
		Conflicts: conflicts,
	}
}

// WriteRun outputs one sync run in JSON format.
func (w *JSONWriter) WriteRun(run *model.BatchResult) (int, error) {
	return w.writeJSON(NewRunReport(run, w.profiles))
}

// WriteHistory outputs stored run metadata in JSON format.
func (w *JSONWriter) WriteHistory(runs []database.RunMetadata) (int, error) {
	if runs == nil {
		runs = make([]database.RunMetadata, 0)
	}
	return w.writeJSON(runs)
}

// WriteLabels outputs the label map in JSON format.
func (w *JSONWriter) WriteLabels(kind model.Kind, m *label.Map) (int, error) {
	return w.writeJSON(NewLabelReport(kind, m))
}

// writeJSON marshals the given value to JSON and writes it to the output.
func (w *JSONWriter) writeJSON(v any) (int, error) {
	var data []byte
	var err error

	if w.indent {
		data, err = json.MarshalIndent(v, w.indentPrefix, w.indentString)
	} else {
		data, err = json.Marshal(v)
	}

	if err != nil {
		return 0, err
	}

	// Trailing newline for terminal output
	data = append(data, '\n')

	return w.output.Write(data)
}
