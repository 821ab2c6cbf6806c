package listing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/wtsks/propsync/internal/model"
	"github.com/wtsks/propsync/internal/pipeline"
)

// ErrNotFound is returned when a listing does not exist.
var ErrNotFound = errors.New("listing not found")

// Store is the persistence the service needs.
// *database.Store satisfies it.
type Store interface {
	UpsertListing(ctx context.Context, l *model.Listing) (int64, error)
	GetListing(ctx context.Context, id int64) (*model.Listing, error)
}

// Service saves editor submissions. Every save runs the hooks first so a
// listing's taxonomy selections are filled before it is stored.
type Service struct {
	store  Store
	hooks  *pipeline.Pipeline
	prefix string
	logger *slog.Logger
}

// NewService creates a Service. prefix is prepended to editor field names
// to form stored meta keys.
func NewService(store Store, hooks *pipeline.Pipeline, prefix string, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:  store,
		hooks:  hooks,
		prefix: prefix,
		logger: logger,
	}
}

// Save runs the hooks on sub and stores the listing. sub.ListingID is set
// when a new listing is created. The stored listing is returned.
//
// A save of an existing listing may carry only some fields. Stored editor
// fields missing from sub are merged in before the hooks run, so the hooks
// see the listing as it will be stored.
func (s *Service) Save(ctx context.Context, sub *model.Submission) (*model.Listing, error) {
	if sub.Fields == nil {
		sub.Fields = make(model.Fields)
	}
	if err := s.mergeStored(ctx, sub); err != nil {
		return nil, err
	}

	if err := s.hooks.Execute(ctx, sub); err != nil {
		return nil, fmt.Errorf("save hooks: %w", err)
	}

	l := &model.Listing{
		ID:     sub.ListingID,
		Title:  sub.Title,
		Status: sub.Status,
		Fields: StorageFields(s.prefix, sub.Fields),
	}
	id, err := s.store.UpsertListing(ctx, l)
	if err != nil {
		return nil, err
	}
	sub.ListingID = id

	s.logger.Debug("listing saved", "listing", id, "fields", len(l.Fields))

	return s.Get(ctx, id)
}

func (s *Service) mergeStored(ctx context.Context, sub *model.Submission) error {
	if sub.ListingID == 0 {
		return nil
	}
	stored, err := s.store.GetListing(ctx, sub.ListingID)
	if err != nil {
		return err
	}
	if stored == nil {
		return nil
	}
	for name, v := range FormFields(s.prefix, stored.Fields) {
		if _, ok := sub.Fields[name]; !ok {
			sub.Fields[name] = v
		}
	}
	return nil
}

// Get returns a stored listing or ErrNotFound.
func (s *Service) Get(ctx context.Context, id int64) (*model.Listing, error) {
	l, err := s.store.GetListing(ctx, id)
	if err != nil {
		return nil, err
	}
	if l == nil {
		return nil, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	return l, nil
}

// Edit returns the editor view of a stored listing: its fields keyed by
// editor field name.
func (s *Service) Edit(ctx context.Context, id int64) (*model.Submission, error) {
	l, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	sub := model.NewSubmission(l.ID, l.Title, FormFields(s.prefix, l.Fields))
	sub.Status = l.Status
	return sub, nil
}

// StorageFields maps editor field names to meta keys.
func StorageFields(prefix string, form model.Fields) model.Fields {
	out := make(model.Fields, len(form))
	for k, v := range form {
		out[prefix+k] = v
	}
	return out
}

// FormFields maps meta keys back to editor field names. Keys without the
// prefix are not editor fields and are dropped.
func FormFields(prefix string, stored model.Fields) model.Fields {
	out := make(model.Fields, len(stored))
	for k, v := range stored {
		if name, ok := strings.CutPrefix(k, prefix); ok && name != "" {
			out[name] = v
		}
	}
	return out
}
