package main

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/wtsks/propsync/internal/config"
	"github.com/wtsks/propsync/internal/database"
	"github.com/wtsks/propsync/internal/importer"
	"github.com/wtsks/propsync/internal/model"
)

func TestImportCmd(t *testing.T) {
	t.Parallel()

	t.Run("entities then listings are matched on import", func(t *testing.T) {
		t.Parallel()

		env := newCLIEnv(t)
		dir := t.TempDir()
		entities := writeFile(t, filepath.Join(dir, "communities.csv"),
			"title,alternate_title\nEberly Trails,Eberly Trails Sec 1\nMaple Glen,\n")
		listings := writeFile(t, filepath.Join(dir, "listings.csv"),
			"title,subdivisionname,builder\n1 Elm St,EBERLY TRAILS SEC 1,Nobody\n")

		out, _, err := env.run(t, "", "import", "entities", "community", entities)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out, "Created:    2") {
			t.Errorf("expected 2 created entities, got:\n%s", out)
		}

		out, _, err = env.run(t, "", "import", "listings", listings)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out, "Autofilled: 1") {
			t.Errorf("expected 1 autofilled listing, got:\n%s", out)
		}

		env.seed(t, func(ctx context.Context, store *database.Store) {
			ls, err := store.ListListings(ctx, 10, 0)
			if err != nil {
				t.Fatalf("ListListings failed: %v", err)
			}
			if len(ls) != 1 {
				t.Fatalf("expected 1 listing, got %d", len(ls))
			}
			key := config.DefaultProfile(model.KindCommunity).PrimaryKey
			if got := ls[0].Fields.Get(key); got != "Eberly Trails" {
				t.Errorf("expected %s %q, got %q", key, "Eberly Trails", got)
			}
			if got := ls[0].Fields.Get(config.DefaultProfile(model.KindBuilder).PrimaryKey); got != "" {
				t.Errorf("expected no builder selection, got %q", got)
			}
		})
	})

	t.Run("reads standard input and prints json", func(t *testing.T) {
		t.Parallel()

		env := newCLIEnv(t)
		out, _, err := env.run(t, "title\nEberly Homes\n\n", "import", "entities", "builder", "-", "--json")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var got importer.Result
		if err := json.Unmarshal([]byte(out), &got); err != nil {
			t.Fatalf("output is not JSON: %v\n%s", err, out)
		}
		if got.Created != 1 {
			t.Errorf("expected 1 created, got %+v", got)
		}
	})

	t.Run("missing file is an error", func(t *testing.T) {
		t.Parallel()

		env := newCLIEnv(t)
		_, _, err := env.run(t, "", "import", "listings", filepath.Join(t.TempDir(), "missing.csv"))
		if err == nil || !strings.Contains(err.Error(), "failed to open") {
			t.Errorf("expected open error, got %v", err)
		}
	})

	t.Run("csv without a title column is an error", func(t *testing.T) {
		t.Parallel()

		env := newCLIEnv(t)
		_, _, err := env.run(t, "name\nEberly Homes\n", "import", "entities", "builder", "-")
		if err == nil {
			t.Error("expected error for missing title column")
		}
	})
}
