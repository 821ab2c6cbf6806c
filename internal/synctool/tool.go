package synctool

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/wtsks/propsync/internal/config"
	"github.com/wtsks/propsync/internal/label"
	"github.com/wtsks/propsync/internal/model"
)

// Store is the persistence the tool needs.
// *database.Store satisfies it.
type Store interface {
	NextUnprocessed(ctx context.Context, markerKey string, limit int) ([]model.Listing, error)
	CompleteSync(ctx context.Context, listingID int64, markerKey string, writes map[string]string) error
	SaveRun(ctx context.Context, run *model.BatchResult) error
}

// Labels supplies the label map for a taxonomy.
type Labels interface {
	Get(ctx context.Context, kind model.Kind) (*label.Map, error)
}

// Tool runs batch syncs for one profile. Batches on one Tool never overlap.
type Tool struct {
	mu sync.Mutex

	store     Store
	labels    Labels
	profile   config.Profile
	batchSize int
	newID     func() string
	logger    *slog.Logger
}

// Option configures a Tool.
type Option func(*Tool)

// WithBatchSize sets how many listings one run evaluates.
// Values <= 0 are ignored.
func WithBatchSize(n int) Option {
	return func(t *Tool) {
		if n > 0 {
			t.batchSize = n
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Tool) {
		t.logger = logger
	}
}

// WithIDGenerator replaces the run ID generator.
func WithIDGenerator(fn func() string) Option {
	return func(t *Tool) {
		t.newID = fn
	}
}

// New creates a Tool for profile.
func New(store Store, labels Labels, profile config.Profile, opts ...Option) *Tool {
	t := &Tool{
		store:     store,
		labels:    labels,
		profile:   profile,
		batchSize: config.DefaultBatchSize,
		newID:     uuid.NewString,
		logger:    slog.Default(),
	}

	for _, opt := range opts {
		opt(t)
	}

	return t
}

// Profile returns the profile the tool runs for.
func (t *Tool) Profile() config.Profile {
	return t.profile
}

// RunBatch evaluates one page of unprocessed listings.
// A result with no items means every listing has been processed; such
// empty runs are not stored.
func (t *Tool) RunBatch(ctx context.Context) (*model.BatchResult, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	run := model.NewBatchResult(t.newID(), t.profile.Kind)

	listings, err := t.store.NextUnprocessed(ctx, t.profile.MarkerKey, t.batchSize)
	if err != nil {
		return nil, fmt.Errorf("failed to load unprocessed listings: %w", err)
	}
	if len(listings) == 0 {
		t.logger.Info("all listings processed", "kind", t.profile.Kind)
		return run, nil
	}

	labels, err := t.labels.Get(ctx, t.profile.Kind)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s labels: %w", t.profile.Plural, err)
	}

	for _, l := range listings {
		if err := ctx.Err(); err != nil {
			return t.finish(ctx, run, err)
		}

		item, writes := t.evaluate(l, labels)
		if err := t.store.CompleteSync(ctx, l.ID, t.profile.MarkerKey, writes); err != nil {
			return t.finish(ctx, run, fmt.Errorf("failed to update listing %d: %w", l.ID, err))
		}
		run.Items = append(run.Items, item)

		t.logger.Debug("listing processed",
			"kind", t.profile.Kind,
			"listing", l.ID,
			"outcome", item.Outcome,
		)
	}

	return t.finish(ctx, run, nil)
}

// finish stores whatever part of the run completed and returns cause.
func (t *Tool) finish(ctx context.Context, run *model.BatchResult, cause error) (*model.BatchResult, error) {
	if len(run.Items) > 0 {
		// A cancelled ctx must not lose the record of listings already marked.
		if err := t.store.SaveRun(context.WithoutCancel(ctx), run); err != nil {
			if cause == nil {
				return run, fmt.Errorf("failed to save run: %w", err)
			}
			t.logger.Error("failed to save partial run", "run", run.RunID, "error", err)
		}
	}

	t.logger.Info("batch finished",
		"kind", t.profile.Kind,
		"run", run.RunID,
		"processed", len(run.Items),
		"matched", run.Count(model.OutcomeMatched),
	)

	return run, cause
}

// evaluate decides the outcome for one listing and the meta values to write.
func (t *Tool) evaluate(l model.Listing, labels *label.Map) (model.ItemResult, map[string]string) {
	item := model.ItemResult{
		ListingID: l.ID,
		Title:     l.Title,
	}

	if current := t.currentSelection(l.Fields); current != "" {
		item.Outcome = model.OutcomeAlreadySelected
		item.Current = current
		return item, nil
	}

	key, raw := t.profile.BatchSource(l.Fields)
	if raw == "" {
		item.Outcome = model.OutcomeNoSource
		return item, nil
	}
	item.SourceField = key
	item.Source = raw

	canonical, ok := labels.Lookup(raw)
	if !ok {
		item.Outcome = model.OutcomeNotFound
		return item, nil
	}

	item.Outcome = model.OutcomeMatched
	item.Canonical = canonical

	writes := map[string]string{t.profile.PrimaryKey: canonical}
	if t.profile.BackupKey != "" {
		writes[t.profile.BackupKey] = canonical
	}
	return item, writes
}

// currentSelection reads the primary key only. The backup key is written
// alongside it but never decides whether a listing is already selected.
func (t *Tool) currentSelection(f model.Fields) string {
	if v := f.Get(t.profile.PrimaryKey); !model.IsUnset(v) {
		return v
	}
	return ""
}

// RunAll repeats RunBatch until no listing remains and returns every
// non-empty run.
func (t *Tool) RunAll(ctx context.Context) ([]*model.BatchResult, error) {
	runs := make([]*model.BatchResult, 0)
	for {
		run, err := t.RunBatch(ctx)
		if err != nil {
			if run != nil && !run.Done() {
				runs = append(runs, run)
			}
			return runs, err
		}
		if run.Done() {
			return runs, nil
		}
		runs = append(runs, run)
	}
}
