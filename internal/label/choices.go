package label

import (
	"sort"

	"github.com/wtsks/propsync/internal/model"
)

// Choice is one option of a selection dropdown. Value is always a
// canonical title; Label is what the editor shows.
type Choice struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// Choices lists dropdown options for entities ordered by title: the
// canonical title first, then the alternate title (if any) pointing at the
// same canonical value.
func Choices(entities []model.Entity) []Choice {
	sorted := make([]model.Entity, len(entities))
	copy(sorted, entities)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Title < sorted[j].Title })

	out := make([]Choice, 0, len(sorted))
	for _, e := range sorted {
		if e.Title == "" {
			continue
		}
		out = append(out, Choice{Value: e.Title, Label: e.Title})
		if e.HasAlternate() {
			out = append(out, Choice{Value: e.Title, Label: e.AlternateTitle})
		}
	}
	return out
}

// Select finds the option value matching a stored raw selection. An exact
// value match wins; otherwise the first option whose label normalizes to
// the same label is used. It returns "" when nothing matches.
func Select(choices []Choice, stored string) string {
	if model.IsUnset(stored) {
		return ""
	}
	for _, c := range choices {
		if c.Value == stored {
			return c.Value
		}
	}
	key := Normalize(stored)
	for _, c := range choices {
		if Normalize(c.Label) == key {
			return c.Value
		}
	}
	return ""
}
