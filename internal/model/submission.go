package model

// Submission is one listing save passing through the save hooks.
// Fields are keyed by editor field name, without any storage prefix.
type Submission struct {
	ListingID int64  `json:"listing_id"`
	Title     string `json:"title"`
	Status    string `json:"status"`
	Fields    Fields `json:"fields"`

	// Autofill holds one result per taxonomy the hooks evaluated.
	Autofill []ItemResult `json:"autofill,omitempty"`

	// PerformedSteps lists the hooks that ran, in order.
	PerformedSteps []string `json:"performed_steps,omitempty"`

	// Errors holds messages from hooks that failed. A failed hook leaves
	// its field untouched and does not block the save.
	Errors []string `json:"errors,omitempty"`
}

// NewSubmission creates a submission with a copy of fields.
func NewSubmission(listingID int64, title string, fields Fields) *Submission {
	if fields == nil {
		fields = make(Fields)
	}
	return &Submission{
		ListingID: listingID,
		Title:     title,
		Fields:    fields.Clone(),
	}
}
