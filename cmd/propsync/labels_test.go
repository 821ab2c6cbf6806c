package main

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/wtsks/propsync/internal/database"
	"github.com/wtsks/propsync/internal/label"
	"github.com/wtsks/propsync/internal/model"
)

func TestLabelsCmd(t *testing.T) {
	t.Parallel()

	// Subtests share one database and run in order.
	env := newCLIEnv(t)
	env.seed(t, func(ctx context.Context, store *database.Store) {
		addEntity(t, ctx, store, model.KindBuilder, "Eberly Homes", "Eberly Homes LLC")
		addEntity(t, ctx, store, model.KindBuilder, "Other Homes", "EBERLY HOMES")
	})

	t.Run("lists labels and conflicts", func(t *testing.T) {
		out, _, err := env.run(t, "", "labels", "builder")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for _, want := range []string{
			"EBERLY HOMES -> Eberly Homes\n",
			"EBERLY HOMES LLC -> Eberly Homes (alternate)",
			"OTHER HOMES -> Other Homes\n",
			"CONFLICTS",
		} {
			if !strings.Contains(out, want) {
				t.Errorf("expected output to contain %q, got:\n%s", want, out)
			}
		}
	})

	t.Run("conflicts flag prints only collisions", func(t *testing.T) {
		out, _, err := env.run(t, "", "labels", "builder", "--conflicts")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := `EBERLY HOMES: kept "Eberly Homes" (title), dropped "Other Homes" (alternate)`
		if strings.TrimSpace(out) != want {
			t.Errorf("expected %q, got %q", want, out)
		}
	})

	t.Run("conflicts as json", func(t *testing.T) {
		out, _, err := env.run(t, "", "labels", "builder", "--conflicts", "--json")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		var got []label.Conflict
		if err := json.Unmarshal([]byte(out), &got); err != nil {
			t.Fatalf("output is not JSON: %v\n%s", err, out)
		}
		if len(got) != 1 || got[0].Kept.Canonical != "Eberly Homes" {
			t.Errorf("unexpected conflicts: %+v", got)
		}
	})

	t.Run("empty taxonomy has no conflicts", func(t *testing.T) {
		out, _, err := env.run(t, "", "labels", "community", "--conflicts")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if strings.TrimSpace(out) != "No conflicts" {
			t.Errorf("expected no conflicts, got %q", out)
		}
	})
}
