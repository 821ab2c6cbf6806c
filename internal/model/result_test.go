package model

import "testing"

// TestBatchResultSummary tests outcome counting.
func TestBatchResultSummary(t *testing.T) {
	t.Parallel()

	r := NewBatchResult("run-1", KindCommunity)
	if !r.Done() {
		t.Error("expected empty batch to be done")
	}

	r.Items = append(r.Items,
		ItemResult{ListingID: 1, Outcome: OutcomeMatched},
		ItemResult{ListingID: 2, Outcome: OutcomeMatched},
		ItemResult{ListingID: 3, Outcome: OutcomeNotFound},
		ItemResult{ListingID: 4, Outcome: OutcomeAlreadySelected},
	)

	if r.Done() {
		t.Error("expected non-empty batch not to be done")
	}

	summary := r.Summary()
	if summary["matched"] != 2 {
		t.Errorf("expected 2 matched, got %d", summary["matched"])
	}
	if summary["not_found"] != 1 {
		t.Errorf("expected 1 not_found, got %d", summary["not_found"])
	}
	if summary["no_source"] != 0 {
		t.Errorf("expected 0 no_source, got %d", summary["no_source"])
	}
	if summary["already_selected"] != 1 {
		t.Errorf("expected 1 already_selected, got %d", summary["already_selected"])
	}
}
