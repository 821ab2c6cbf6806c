package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/wtsks/propsync/internal/config"
	"github.com/wtsks/propsync/internal/database"
	"github.com/wtsks/propsync/internal/label"
	"github.com/wtsks/propsync/internal/model"
)

func sampleRun() *model.BatchResult {
	run := model.NewBatchResult("run-1", model.KindBuilder)
	run.StartedAt = time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	run.Items = []model.ItemResult{
		{ListingID: 1, Title: "1 Elm", Outcome: model.OutcomeMatched, SourceField: "builder", Source: "RYAN HOMES", Canonical: "Ryan Homes"},
		{ListingID: 2, Title: "2 Oak", Outcome: model.OutcomeNotFound, SourceField: "builder", Source: "NOBODY"},
		{ListingID: 3, Title: "3 Pine", Outcome: model.OutcomeNoSource},
		{ListingID: 4, Title: "4 Fir", Outcome: model.OutcomeAlreadySelected, Current: "Pulte"},
	}
	return run
}

func sampleMap() *label.Map {
	return label.Build([]model.Entity{
		{ID: 1, Kind: model.KindBuilder, Title: "Ryan Homes", AlternateTitle: "NVR"},
		{ID: 2, Kind: model.KindBuilder, Title: "Toll Brothers", AlternateTitle: "Ryan Homes"},
	})
}

func TestItemMessage(t *testing.T) {
	t.Parallel()

	builder := config.DefaultProfile(model.KindBuilder)
	community := config.DefaultProfile(model.KindCommunity)

	tests := []struct {
		name    string
		profile config.Profile
		item    model.ItemResult
		want    string
	}{
		{
			name:    "matched",
			profile: builder,
			item:    model.ItemResult{Title: "1 Elm", Outcome: model.OutcomeMatched, Source: "RYAN HOMES", Canonical: "Ryan Homes"},
			want:    "1 Elm: matched `RYAN HOMES` → `Ryan Homes`.",
		},
		{
			name:    "builder not found",
			profile: builder,
			item:    model.ItemResult{Title: "2 Oak", Outcome: model.OutcomeNotFound, Source: "NOBODY"},
			want:    "2 Oak: builder `NOBODY` not found in Builders. Skipped.",
		},
		{
			name:    "community not found",
			profile: community,
			item:    model.ItemResult{Title: "2 Oak", Outcome: model.OutcomeNotFound, Source: "NOWHERE"},
			want:    "2 Oak: subdivision `NOWHERE` not found in Communities. Skipped.",
		},
		{
			name:    "builder no source",
			profile: builder,
			item:    model.ItemResult{Title: "3 Pine", Outcome: model.OutcomeNoSource},
			want:    "3 Pine: no builder found. Skipped.",
		},
		{
			name:    "community no source",
			profile: community,
			item:    model.ItemResult{Title: "3 Pine", Outcome: model.OutcomeNoSource},
			want:    "3 Pine: no subdivision assigned. Skipped.",
		},
		{
			name:    "already selected",
			profile: community,
			item:    model.ItemResult{Title: "4 Fir", Outcome: model.OutcomeAlreadySelected, Current: "Eberly Trails"},
			want:    "4 Fir: already has community-selection (Eberly Trails). Skipped.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := ItemMessage(tt.profile, tt.item); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestStatusMessage(t *testing.T) {
	t.Parallel()

	if got := StatusMessage(model.NewBatchResult("r", model.KindBuilder)); got != DoneMessage {
		t.Errorf("expected done message, got %q", got)
	}
	if got := StatusMessage(sampleRun()); got != MoreMessage {
		t.Errorf("expected more message, got %q", got)
	}
}

func TestSimpleWriter(t *testing.T) {
	t.Parallel()

	t.Run("run lists every item and the summary", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer

		if _, err := NewSimpleWriter(&buf, nil).WriteRun(sampleRun()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		out := buf.String()
		for _, want := range []string{
			"BUILDER SYNC REPORT",
			"run-1",
			"1 Elm: matched `RYAN HOMES` → `Ryan Homes`.",
			"MATCHED:          1",
			MoreMessage,
		} {
			if !strings.Contains(out, want) {
				t.Errorf("expected output to contain %q\n%s", want, out)
			}
		}
	})

	t.Run("verbose adds the source field", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer

		if _, err := NewSimpleWriter(&buf, nil, WithVerbose(true)).WriteRun(sampleRun()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "Field: builder") {
			t.Error("expected source field in verbose output")
		}
	})

	t.Run("empty run reports completion", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer

		if _, err := NewSimpleWriter(&buf, nil).WriteRun(model.NewBatchResult("r", model.KindCommunity)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), DoneMessage) {
			t.Errorf("expected done message, got %s", buf.String())
		}
		if !strings.Contains(buf.String(), "COMMUNITY SYNC REPORT") {
			t.Errorf("expected community header, got %s", buf.String())
		}
	})

	t.Run("labels show conflicts", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer

		if _, err := NewSimpleWriter(&buf, nil).WriteLabels(model.KindBuilder, sampleMap()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		out := buf.String()
		if !strings.Contains(out, "NVR -> Ryan Homes (alternate)") {
			t.Errorf("expected alternate label line, got %s", out)
		}
		if !strings.Contains(out, "[!] RYAN HOMES") {
			t.Errorf("expected conflict line, got %s", out)
		}
	})

	t.Run("empty history", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer

		if _, err := NewSimpleWriter(&buf, nil).WriteHistory(nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "No sync runs recorded.") {
			t.Errorf("unexpected output: %s", buf.String())
		}
	})
}

func TestMarkdownWriter(t *testing.T) {
	t.Parallel()

	t.Run("run has results and summary", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer

		if _, err := NewMarkdownWriter(&buf, nil).WriteRun(sampleRun()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		out := buf.String()
		for _, want := range []string{"# Builder Sync Report", "## Batch Results", "## Summary", "mermaid"} {
			if !strings.Contains(out, want) {
				t.Errorf("expected output to contain %q", want)
			}
		}
	})

	t.Run("history table", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer

		runs := []database.RunMetadata{{ID: "run-9", Kind: model.KindCommunity, Processed: 3, Summary: map[string]int{"matched": 2}}}
		if _, err := NewMarkdownWriter(&buf, nil).WriteHistory(runs); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "run-9") {
			t.Errorf("expected run id in output: %s", buf.String())
		}
	})

	t.Run("labels with conflicts", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer

		if _, err := NewMarkdownWriter(&buf, nil).WriteLabels(model.KindBuilder, sampleMap()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "## Conflicts") {
			t.Errorf("expected conflicts section: %s", buf.String())
		}
	})
}

func TestJSONWriter(t *testing.T) {
	t.Parallel()

	t.Run("run report carries summary and messages", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer

		if _, err := NewJSONWriter(&buf, nil, WithPrettyPrint()).WriteRun(sampleRun()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var got struct {
			RunID    string         `json:"run_id"`
			Summary  map[string]int `json:"summary"`
			Messages []string       `json:"messages"`
			Status   string         `json:"status"`
			Items    []any          `json:"items"`
		}
		if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if got.RunID != "run-1" || len(got.Items) != 4 || len(got.Messages) != 4 {
			t.Errorf("unexpected report: %+v", got)
		}
		if got.Summary["matched"] != 1 || got.Status != MoreMessage {
			t.Errorf("unexpected summary/status: %+v", got)
		}
	})

	t.Run("labels always have a conflicts array", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer

		m := label.Build([]model.Entity{{ID: 1, Kind: model.KindBuilder, Title: "Pulte"}})
		if _, err := NewJSONWriter(&buf, nil).WriteLabels(model.KindBuilder, m); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), `"conflicts":[]`) {
			t.Errorf("expected empty conflicts array, got %s", buf.String())
		}
	})

	t.Run("nil history encodes as empty array", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer

		if _, err := NewJSONWriter(&buf, nil).WriteHistory(nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if strings.TrimSpace(buf.String()) != "[]" {
			t.Errorf("expected [], got %s", buf.String())
		}
	})
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestMultiWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes to every writer", func(t *testing.T) {
		t.Parallel()
		var a, b bytes.Buffer

		mw := NewMultiWriter(NewSimpleWriter(&a, nil), NewJSONWriter(&b, nil))
		if _, err := mw.WriteRun(sampleRun()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if a.Len() == 0 || b.Len() == 0 {
			t.Error("expected both writers to receive output")
		}
	})

	t.Run("stops on first error", func(t *testing.T) {
		t.Parallel()
		var b bytes.Buffer

		mw := NewMultiWriter(NewSimpleWriter(failingWriter{}, nil), NewJSONWriter(&b, nil))
		if _, err := mw.WriteHistory(nil); err == nil {
			t.Error("expected error")
		}
		if b.Len() != 0 {
			t.Error("expected second writer to be skipped")
		}
	})
}
