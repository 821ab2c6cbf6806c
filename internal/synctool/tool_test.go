package synctool

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/wtsks/propsync/internal/config"
	"github.com/wtsks/propsync/internal/database"
	"github.com/wtsks/propsync/internal/label"
	"github.com/wtsks/propsync/internal/model"
)

type fixture struct {
	store *database.Store
	ids   int
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	s, err := database.Open(t.TempDir(), database.DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })

	return &fixture{store: s}
}

func (f *fixture) entity(t *testing.T, kind model.Kind, title, alternate string) {
	t.Helper()
	e := model.Entity{Kind: kind, Title: title, AlternateTitle: alternate}
	if _, err := f.store.UpsertEntity(context.Background(), &e); err != nil {
		t.Fatalf("failed to add entity: %v", err)
	}
}

func (f *fixture) listing(t *testing.T, title string, fields model.Fields) int64 {
	t.Helper()
	id, err := f.store.UpsertListing(context.Background(), &model.Listing{Title: title, Fields: fields})
	if err != nil {
		t.Fatalf("failed to add listing: %v", err)
	}
	return id
}

func (f *fixture) tool(kind model.Kind, opts ...Option) *Tool {
	f.ids = 0
	opts = append([]Option{
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithIDGenerator(func() string {
			f.ids++
			return fmt.Sprintf("run-%d", f.ids)
		}),
	}, opts...)
	labels := label.NewCache(label.SourceLoader(f.store), 0)
	return New(f.store, labels, config.DefaultProfile(kind), opts...)
}

func TestRunBatch(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("matches and writes both selection keys", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		f.entity(t, model.KindCommunity, "Eberly Trails", "")
		id := f.listing(t, "1 Elm", model.Fields{"es_property_subdivisionname": "EBERLY TRAILS"})

		run, err := f.tool(model.KindCommunity).RunBatch(ctx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(run.Items) != 1 || run.Items[0].Outcome != model.OutcomeMatched {
			t.Fatalf("unexpected items: %+v", run.Items)
		}

		l, _ := f.store.GetListing(ctx, id)
		if l.Fields["es_property_community-selection"] != "Eberly Trails" {
			t.Errorf("expected primary key to be written, got %v", l.Fields)
		}
		if l.Fields["community-selection"] != "Eberly Trails" {
			t.Errorf("expected backup key to be written, got %v", l.Fields)
		}
		if l.Fields["wts_community_sync_done"] != "1" {
			t.Error("expected listing to be marked processed")
		}
	})

	t.Run("unmatched listing is marked and left blank", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		f.entity(t, model.KindBuilder, "Ryan Homes", "")
		id := f.listing(t, "2 Oak", model.Fields{"builder": "NOBODY HOMES"})

		run, err := f.tool(model.KindBuilder).RunBatch(ctx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if run.Items[0].Outcome != model.OutcomeNotFound || run.Items[0].Source != "NOBODY HOMES" {
			t.Errorf("unexpected item: %+v", run.Items[0])
		}

		l, _ := f.store.GetListing(ctx, id)
		if _, ok := l.Fields["es_property_builder-selection"]; ok {
			t.Error("expected selection to stay unset")
		}
		if l.Fields["wts_builder_sync_done"] != "1" {
			t.Error("expected listing to be marked processed")
		}
	})

	t.Run("existing selection is kept and marked", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		f.entity(t, model.KindBuilder, "Ryan Homes", "")
		id := f.listing(t, "3 Pine", model.Fields{"builder": "RYAN HOMES", "es_property_builder-selection": "Toll Brothers"})

		run, err := f.tool(model.KindBuilder).RunBatch(ctx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if run.Items[0].Outcome != model.OutcomeAlreadySelected || run.Items[0].Current != "Toll Brothers" {
			t.Errorf("unexpected item: %+v", run.Items[0])
		}

		l, _ := f.store.GetListing(ctx, id)
		if l.Fields["es_property_builder-selection"] != "Toll Brothers" {
			t.Error("expected selection to be kept")
		}
	})

	t.Run("placeholder selection is treated as unset", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		f.entity(t, model.KindBuilder, "Ryan Homes", "")
		f.listing(t, "4 Fir", model.Fields{"builder": "ryan homes", "es_property_builder-selection": model.NoneValue})

		run, err := f.tool(model.KindBuilder).RunBatch(ctx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if run.Items[0].Outcome != model.OutcomeMatched {
			t.Errorf("expected matched, got %q", run.Items[0].Outcome)
		}
	})

	t.Run("backup key alone is not a selection", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		f.entity(t, model.KindBuilder, "Ryan Homes", "")
		id := f.listing(t, "5 Ash", model.Fields{"builder": "RYAN HOMES", "builder-selection": "Stale Builder"})

		run, err := f.tool(model.KindBuilder).RunBatch(ctx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if run.Items[0].Outcome != model.OutcomeMatched {
			t.Errorf("expected matched, got %q", run.Items[0].Outcome)
		}

		l, _ := f.store.GetListing(ctx, id)
		if l.Fields["es_property_builder-selection"] != "Ryan Homes" || l.Fields["builder-selection"] != "Ryan Homes" {
			t.Errorf("expected both keys to be overwritten, got %v", l.Fields)
		}
	})

	t.Run("no source is reported", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		f.listing(t, "5 Ash", model.Fields{"price": "1"})

		run, err := f.tool(model.KindBuilder).RunBatch(ctx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if run.Items[0].Outcome != model.OutcomeNoSource {
			t.Errorf("expected no_source, got %q", run.Items[0].Outcome)
		}
	})

	t.Run("community batch does not use keyword fields", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		f.entity(t, model.KindCommunity, "Eberly Trails", "")
		f.listing(t, "6 Elm", model.Fields{"es_property_subdivision": "EBERLY TRAILS"})

		run, err := f.tool(model.KindCommunity).RunBatch(ctx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if run.Items[0].Outcome != model.OutcomeNoSource {
			t.Errorf("expected no_source, got %q", run.Items[0].Outcome)
		}
	})

	t.Run("builder batch falls back to keyword fields", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		f.entity(t, model.KindBuilder, "Ryan Homes", "NVR")
		f.listing(t, "7 Elm", model.Fields{"mls_builder_legal": "nvr"})

		run, err := f.tool(model.KindBuilder).RunBatch(ctx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if run.Items[0].Canonical != "Ryan Homes" || run.Items[0].SourceField != "mls_builder_legal" {
			t.Errorf("unexpected item: %+v", run.Items[0])
		}
	})

	t.Run("processed listings are never reprocessed", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		f.listing(t, "8 Elm", model.Fields{"builder": "UNKNOWN"})
		tool := f.tool(model.KindBuilder)

		first, err := tool.RunBatch(ctx)
		if err != nil || len(first.Items) != 1 {
			t.Fatalf("expected one item, got (%v, %v)", first, err)
		}

		// A builder added later does not cause a re-run.
		f.entity(t, model.KindBuilder, "Unknown", "")

		second, err := tool.RunBatch(ctx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !second.Done() {
			t.Errorf("expected no items on second run, got %+v", second.Items)
		}
	})

	t.Run("batch size limits each run and runs are stored", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		for i := 0; i < 5; i++ {
			f.listing(t, fmt.Sprintf("%d St", i), nil)
		}

		run, err := f.tool(model.KindBuilder, WithBatchSize(2)).RunBatch(ctx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(run.Items) != 2 {
			t.Errorf("expected 2 items, got %d", len(run.Items))
		}

		stored, err := f.store.GetRun(ctx, run.RunID)
		if err != nil || stored == nil {
			t.Fatalf("expected run to be stored, got (%v, %v)", stored, err)
		}
	})

	t.Run("empty run is not stored", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)

		run, err := f.tool(model.KindBuilder).RunBatch(ctx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !run.Done() {
			t.Error("expected done")
		}
		runs, _ := f.store.ListRuns(ctx, "", 0)
		if len(runs) != 0 {
			t.Errorf("expected no stored runs, got %d", len(runs))
		}
	})
}

func TestRunAll(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.entity(t, model.KindBuilder, "Ryan Homes", "")
	for i := 0; i < 5; i++ {
		f.listing(t, fmt.Sprintf("%d St", i), model.Fields{"builder": "RYAN HOMES"})
	}

	runs, err := f.tool(model.KindBuilder, WithBatchSize(2)).RunAll(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(runs) != 3 {
		t.Fatalf("expected 3 runs, got %d", len(runs))
	}

	total := 0
	for _, r := range runs {
		total += r.Count(model.OutcomeMatched)
	}
	if total != 5 {
		t.Errorf("expected 5 matches, got %d", total)
	}
}

// slowStore widens the window between loading a page and marking it.
type slowStore struct {
	*database.Store
}

func (s slowStore) NextUnprocessed(ctx context.Context, markerKey string, limit int) ([]model.Listing, error) {
	listings, err := s.Store.NextUnprocessed(ctx, markerKey, limit)
	time.Sleep(20 * time.Millisecond)
	return listings, err
}

func TestRunBatchConcurrent(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.entity(t, model.KindBuilder, "Ryan Homes", "")
	for i := 0; i < 3; i++ {
		f.listing(t, fmt.Sprintf("%d St", i), model.Fields{"builder": "RYAN HOMES"})
	}

	tool := New(slowStore{f.store}, label.NewCache(label.SourceLoader(f.store), 0), config.DefaultProfile(model.KindBuilder),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		total int
	)
	for range 2 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			run, err := tool.RunBatch(context.Background())
			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}
			mu.Lock()
			total += len(run.Items)
			mu.Unlock()
		}()
	}
	wg.Wait()

	if total != 3 {
		t.Errorf("expected each listing to be processed once, got %d items", total)
	}

	runs, err := f.store.ListRuns(context.Background(), model.KindBuilder, 10)
	if err != nil {
		t.Fatalf("failed to list runs: %v", err)
	}
	if len(runs) != 1 {
		t.Errorf("expected one stored run, got %d", len(runs))
	}
}

type failingLabels struct{}

func (failingLabels) Get(context.Context, model.Kind) (*label.Map, error) {
	return nil, errors.New("labels unavailable")
}

func TestRunBatchLabelFailure(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	id := f.listing(t, "1 Elm", model.Fields{"builder": "RYAN HOMES"})

	tool := New(f.store, failingLabels{}, config.DefaultProfile(model.KindBuilder),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	if _, err := tool.RunBatch(context.Background()); err == nil {
		t.Fatal("expected error")
	}

	// Nothing is marked when the labels cannot be loaded.
	l, _ := f.store.GetListing(context.Background(), id)
	if _, ok := l.Fields["wts_builder_sync_done"]; ok {
		t.Error("expected listing to stay unprocessed")
	}
}
