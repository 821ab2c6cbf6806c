package model

import "time"

// Outcome classifies what happened to one listing during autofill or sync.
type Outcome string

const (
	// OutcomeAlreadySelected means the selection field was already set.
	OutcomeAlreadySelected Outcome = "already_selected"
	// OutcomeNoSource means no source field carried a value.
	OutcomeNoSource Outcome = "no_source"
	// OutcomeMatched means the source value resolved to a canonical title.
	OutcomeMatched Outcome = "matched"
	// OutcomeNotFound means the source value matched no label.
	OutcomeNotFound Outcome = "not_found"
)

// ItemResult is the outcome for one listing in a batch.
type ItemResult struct {
	ListingID int64   `json:"listing_id"`
	Title     string  `json:"title"`
	Outcome   Outcome `json:"outcome"`

	// SourceField and Source are the field and raw value the match was attempted with.
	SourceField string `json:"source_field,omitempty"`
	Source      string `json:"source,omitempty"`

	// Canonical is the resolved title when Outcome is OutcomeMatched.
	Canonical string `json:"canonical,omitempty"`

	// Current is the pre-existing selection when Outcome is OutcomeAlreadySelected.
	Current string `json:"current,omitempty"`
}

// BatchResult is the outcome of one batch-sync invocation.
type BatchResult struct {
	RunID     string       `json:"run_id"`
	Kind      Kind         `json:"kind"`
	StartedAt time.Time    `json:"started_at"`
	Items     []ItemResult `json:"items"`
}

// NewBatchResult creates an empty result for kind.
func NewBatchResult(runID string, kind Kind) *BatchResult {
	return &BatchResult{
		RunID:     runID,
		Kind:      kind,
		StartedAt: time.Now().UTC(),
		Items:     make([]ItemResult, 0),
	}
}

// Done reports whether the batch found nothing left to process.
func (r *BatchResult) Done() bool {
	return len(r.Items) == 0
}

// Count returns how many items ended with outcome o.
func (r *BatchResult) Count(o Outcome) int {
	n := 0
	for _, item := range r.Items {
		if item.Outcome == o {
			n++
		}
	}
	return n
}

// Summary returns per-outcome counts keyed by outcome name.
func (r *BatchResult) Summary() map[string]int {
	return map[string]int{
		string(OutcomeMatched):         r.Count(OutcomeMatched),
		string(OutcomeNotFound):        r.Count(OutcomeNotFound),
		string(OutcomeNoSource):        r.Count(OutcomeNoSource),
		string(OutcomeAlreadySelected): r.Count(OutcomeAlreadySelected),
	}
}
