package display

// BadgeStatuses are the listing statuses shown as badges on listing cards.
var BadgeStatuses = []string{"Pending", "Sold"}

// BadgeTerms appends the badge-worthy statuses to terms, keeping their order.
// Status names must match exactly.
func BadgeTerms(terms, statuses []string) []string {
	out := make([]string, 0, len(terms)+len(statuses))
	out = append(out, terms...)
	for _, s := range statuses {
		for _, b := range BadgeStatuses {
			if s == b {
				out = append(out, s)
				break
			}
		}
	}
	return out
}
