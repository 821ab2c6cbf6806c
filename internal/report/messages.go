package report

import (
	"fmt"

	"github.com/wtsks/propsync/internal/config"
	"github.com/wtsks/propsync/internal/model"
)

// Status lines shown after a batch.
const (
	DoneMessage = "All properties have been processed!"
	MoreMessage = "Run again to process another batch."
)

// ItemMessage describes one batch item the way the admin tool page lists it.
func ItemMessage(p config.Profile, item model.ItemResult) string {
	switch item.Outcome {
	case model.OutcomeAlreadySelected:
		return fmt.Sprintf("%s: already has %s (%s). Skipped.", item.Title, p.SelectionField, item.Current)
	case model.OutcomeNoSource:
		return fmt.Sprintf("%s: %s. Skipped.", item.Title, p.NoSourceText)
	case model.OutcomeMatched:
		return fmt.Sprintf("%s: matched `%s` → `%s`.", item.Title, item.Source, item.Canonical)
	case model.OutcomeNotFound:
		return fmt.Sprintf("%s: %s `%s` not found in %s. Skipped.", item.Title, p.SourceLabel, item.Source, p.Plural)
	default:
		return fmt.Sprintf("%s: %s", item.Title, item.Outcome)
	}
}

// StatusMessage returns the line shown after a batch.
func StatusMessage(run *model.BatchResult) string {
	if run.Done() {
		return DoneMessage
	}
	return MoreMessage
}

// Messages returns ItemMessage for every item in run.
func Messages(p config.Profile, run *model.BatchResult) []string {
	out := make([]string, len(run.Items))
	for i, item := range run.Items {
		out[i] = ItemMessage(p, item)
	}
	return out
}
