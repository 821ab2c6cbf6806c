package listing

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/wtsks/propsync/internal/config"
	"github.com/wtsks/propsync/internal/database"
	"github.com/wtsks/propsync/internal/label"
	"github.com/wtsks/propsync/internal/model"
	"github.com/wtsks/propsync/internal/pipeline"
)

func newService(t *testing.T) (*Service, *database.Store) {
	t.Helper()

	store, err := database.Open(t.TempDir(), database.DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := config.NewConfig()
	hooks := pipeline.NewSaveHooks(cfg, label.NewCache(label.SourceLoader(store), 0), logger)

	return NewService(store, hooks, cfg.FieldPrefix, logger), store
}

func TestServiceSave(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("new listing is autofilled and stored with prefixed keys", func(t *testing.T) {
		t.Parallel()
		svc, store := newService(t)

		if _, err := store.UpsertEntity(ctx, &model.Entity{Kind: model.KindBuilder, Title: "Eberly Homes"}); err != nil {
			t.Fatalf("failed to add entity: %v", err)
		}

		sub := model.NewSubmission(0, "1 Elm", model.Fields{"builder": "EBERLY HOMES"})
		l, err := svc.Save(ctx, sub)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if sub.ListingID == 0 || l.ID != sub.ListingID {
			t.Errorf("expected listing id to be assigned, got %d / %d", sub.ListingID, l.ID)
		}
		if l.Fields["es_property_builder-selection"] != "Eberly Homes" {
			t.Errorf("expected stored selection, got %v", l.Fields)
		}
		if l.Fields["es_property_builder"] != "EBERLY HOMES" {
			t.Errorf("expected stored source, got %v", l.Fields)
		}
	})

	t.Run("existing selection survives resave", func(t *testing.T) {
		t.Parallel()
		svc, store := newService(t)

		if _, err := store.UpsertEntity(ctx, &model.Entity{Kind: model.KindBuilder, Title: "Ryan Homes"}); err != nil {
			t.Fatalf("failed to add entity: %v", err)
		}

		sub := model.NewSubmission(0, "2 Oak", model.Fields{"builder": "RYAN HOMES", "builder-selection": "Pulte"})
		l, err := svc.Save(ctx, sub)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if l.Fields["es_property_builder-selection"] != "Pulte" {
			t.Errorf("expected selection to be kept, got %q", l.Fields["es_property_builder-selection"])
		}
	})

	t.Run("partial resave keeps stored selection", func(t *testing.T) {
		t.Parallel()
		svc, store := newService(t)

		if _, err := store.UpsertEntity(ctx, &model.Entity{Kind: model.KindBuilder, Title: "Eberly Homes"}); err != nil {
			t.Fatalf("failed to add entity: %v", err)
		}
		id, err := store.UpsertListing(ctx, &model.Listing{Title: "1 Elm", Fields: model.Fields{
			"es_property_builder":           "PULTE",
			"es_property_builder-selection": "Pulte",
		}})
		if err != nil {
			t.Fatalf("failed to add listing: %v", err)
		}

		sub := model.NewSubmission(id, "1 Elm", model.Fields{"builder": "EBERLY HOMES"})
		l, err := svc.Save(ctx, sub)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := l.Fields["es_property_builder-selection"]; got != "Pulte" {
			t.Errorf("expected stored selection to be kept, got %q", got)
		}
		if got := l.Fields["es_property_builder"]; got != "EBERLY HOMES" {
			t.Errorf("expected submitted source to be stored, got %q", got)
		}
		for _, r := range sub.Autofill {
			if r.Outcome == model.OutcomeMatched {
				t.Errorf("expected no autofill, got %+v", r)
			}
		}
	})

	t.Run("partial resave autofills from a stored source", func(t *testing.T) {
		t.Parallel()
		svc, store := newService(t)

		if _, err := store.UpsertEntity(ctx, &model.Entity{Kind: model.KindBuilder, Title: "Eberly Homes"}); err != nil {
			t.Fatalf("failed to add entity: %v", err)
		}
		id, err := store.UpsertListing(ctx, &model.Listing{Title: "2 Oak", Fields: model.Fields{
			"es_property_builder": "EBERLY HOMES",
		}})
		if err != nil {
			t.Fatalf("failed to add listing: %v", err)
		}

		l, err := svc.Save(ctx, model.NewSubmission(id, "2 Oak", model.Fields{"area": "2000"}))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := l.Fields["es_property_builder-selection"]; got != "Eberly Homes" {
			t.Errorf("expected selection from stored source, got %q", got)
		}
	})
}

func TestServiceEdit(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("returns editor field names", func(t *testing.T) {
		t.Parallel()
		svc, store := newService(t)

		id, err := store.UpsertListing(ctx, &model.Listing{Title: "3 Pine", Fields: model.Fields{
			"es_property_builder":   "X",
			"wts_builder_sync_done": "1",
		}})
		if err != nil {
			t.Fatalf("failed to add listing: %v", err)
		}

		sub, err := svc.Edit(ctx, id)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if sub.Fields["builder"] != "X" {
			t.Errorf("expected builder field, got %v", sub.Fields)
		}
		if _, ok := sub.Fields["wts_builder_sync_done"]; ok {
			t.Error("expected marker to be hidden from the editor")
		}
	})

	t.Run("missing listing returns ErrNotFound", func(t *testing.T) {
		t.Parallel()
		svc, _ := newService(t)

		if _, err := svc.Edit(ctx, 404); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestFieldMapping(t *testing.T) {
	t.Parallel()

	form := model.Fields{"builder": "A", "area": "2000"}
	stored := StorageFields("es_property_", form)
	if stored["es_property_builder"] != "A" || stored["es_property_area"] != "2000" {
		t.Errorf("unexpected storage fields: %v", stored)
	}

	back := FormFields("es_property_", stored)
	if len(back) != 2 || back["builder"] != "A" {
		t.Errorf("unexpected form fields: %v", back)
	}

	t.Run("empty prefix keeps every key", func(t *testing.T) {
		t.Parallel()
		if got := FormFields("", model.Fields{"a": "1"}); got["a"] != "1" {
			t.Errorf("unexpected form fields: %v", got)
		}
	})
}
