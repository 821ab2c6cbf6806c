package report

import (
	"io"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/wtsks/propsync/internal/config"
	"github.com/wtsks/propsync/internal/database"
	"github.com/wtsks/propsync/internal/label"
	"github.com/wtsks/propsync/internal/model"
)

// Writer defines the interface for report output.
// Implementations write results in various formats.
type Writer interface {
	// WriteRun outputs one sync run.
	// Returns the number of bytes written and any error encountered.
	WriteRun(run *model.BatchResult) (int, error)

	// WriteHistory outputs stored run metadata.
	WriteHistory(runs []database.RunMetadata) (int, error)

	// WriteLabels outputs a taxonomy's label map and its collisions.
	WriteLabels(kind model.Kind, m *label.Map) (int, error)
}

// ProfileFunc resolves the profile used to phrase item messages.
type ProfileFunc func(kind model.Kind) config.Profile

// MultiWriter writes to multiple Writers in turn.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// WriteRun outputs the run to all configured Writers.
// Stops on first error encountered.
func (m *MultiWriter) WriteRun(run *model.BatchResult) (int, error) {
	return m.each(func(w Writer) (int, error) { return w.WriteRun(run) })
}

// WriteHistory outputs the history to all configured Writers.
func (m *MultiWriter) WriteHistory(runs []database.RunMetadata) (int, error) {
	return m.each(func(w Writer) (int, error) { return w.WriteHistory(runs) })
}

// WriteLabels outputs the label map to all configured Writers.
func (m *MultiWriter) WriteLabels(kind model.Kind, lm *label.Map) (int, error) {
	return m.each(func(w Writer) (int, error) { return w.WriteLabels(kind, lm) })
}

func (m *MultiWriter) each(fn func(Writer) (int, error)) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := fn(w)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output   io.Writer
	profiles ProfileFunc
}

// newBaseWriter creates a baseWriter with the given output destination.
// A nil profiles falls back to the built-in profiles.
func newBaseWriter(output io.Writer, profiles ProfileFunc) baseWriter {
	if profiles == nil {
		profiles = config.DefaultProfile
	}
	return baseWriter{output: output, profiles: profiles}
}

// title returns "Builder" or "Community" for headers.
func (b baseWriter) title(kind model.Kind) string {
	p := b.profiles(kind)
	if p.Singular == "" {
		return kind.String()
	}
	return cases.Title(language.English).String(p.Singular)
}

// timeLayout is used for every timestamp in text and Markdown output.
const timeLayout = "2006-01-02 15:04:05 MST"
