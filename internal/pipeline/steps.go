package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/wtsks/propsync/internal/config"
	"github.com/wtsks/propsync/internal/label"
	"github.com/wtsks/propsync/internal/model"
)

// LabelSource supplies the label map for a taxonomy.
// *label.Cache satisfies it.
type LabelSource interface {
	Get(ctx context.Context, kind model.Kind) (*label.Map, error)
}

// AutofillStep sets a listing's taxonomy selection from its free-text
// source fields when the selection is still empty. It never overwrites a
// selection that is already set.
type AutofillStep struct {
	// profile names the selection and source fields.
	profile config.Profile

	// labels resolves raw source values to canonical titles.
	labels LabelSource

	// logger for structured logging.
	logger *slog.Logger
}

// AutofillStepOption configures an AutofillStep.
type AutofillStepOption func(*AutofillStep)

// WithAutofillLogger sets a custom logger for the autofill step.
func WithAutofillLogger(logger *slog.Logger) AutofillStepOption {
	return func(s *AutofillStep) {
		s.logger = logger
	}
}

// NewAutofillStep creates an autofill step for one profile.
func NewAutofillStep(profile config.Profile, labels LabelSource, opts ...AutofillStepOption) *AutofillStep {
	s := &AutofillStep{
		profile: profile,
		labels:  labels,
		logger:  slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *AutofillStep) Name() string {
	return "autofill_" + s.profile.Kind.String()
}

// Do executes the autofill step.
func (s *AutofillStep) Do(ctx context.Context, sub *model.Submission) error {
	result := model.ItemResult{
		ListingID: sub.ListingID,
		Title:     sub.Title,
	}

	if current := sub.Fields.Get(s.profile.SelectionField); !model.IsUnset(current) {
		result.Outcome = model.OutcomeAlreadySelected
		result.Current = current
		sub.Autofill = append(sub.Autofill, result)
		return nil
	}

	key, raw := s.profile.SaveSource(sub.Fields)
	if raw == "" {
		result.Outcome = model.OutcomeNoSource
		sub.Autofill = append(sub.Autofill, result)
		return nil
	}
	result.SourceField = key
	result.Source = raw

	labels, err := s.labels.Get(ctx, s.profile.Kind)
	if err != nil {
		return fmt.Errorf("failed to load %s labels: %w", s.profile.Plural, err)
	}

	canonical, ok := labels.Lookup(raw)
	if !ok {
		result.Outcome = model.OutcomeNotFound
		sub.Autofill = append(sub.Autofill, result)
		s.logger.Debug("no match", "kind", s.profile.Kind, "field", key, "value", raw)
		return nil
	}

	sub.Fields[s.profile.SelectionField] = canonical
	result.Outcome = model.OutcomeMatched
	result.Canonical = canonical
	sub.Autofill = append(sub.Autofill, result)
	s.logger.Debug("matched", "kind", s.profile.Kind, "field", key, "value", raw, "canonical", canonical)

	return nil
}

// NewSaveHooks builds the standard save pipeline: Community autofill, then
// Builder autofill, continuing past failures.
func NewSaveHooks(cfg *config.Config, labels LabelSource, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	p := New(WithLogger(logger), WithContinueOnError(true))
	for _, kind := range model.Kinds() {
		p.AddStep(NewAutofillStep(cfg.Profile(kind), labels, WithAutofillLogger(logger)))
	}
	return p
}
