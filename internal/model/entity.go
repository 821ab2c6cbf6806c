package model

// StatusPublish is the only entity and listing status that takes part in
// matching and batch sync.
const StatusPublish = "publish"

// Entity is one taxonomy entry (a builder or a community).
type Entity struct {
	// ID is the store identifier. Zero means "not stored yet".
	ID int64 `json:"id"`

	// Kind is the taxonomy this entity belongs to.
	Kind Kind `json:"kind"`

	// Title is the canonical, authoritative display name.
	Title string `json:"title"`

	// AlternateTitle is an optional legal or MLS-style name that maps to
	// the same entity.
	AlternateTitle string `json:"alternate_title,omitempty"`

	// Status is the publish status; only StatusPublish entities are matched.
	Status string `json:"status"`

	// Address is an optional street address, used by community pages.
	Address string `json:"address,omitempty"`
}

// HasAlternate reports whether the entity carries an alternate title that
// differs from its canonical title.
func (e Entity) HasAlternate() bool {
	return e.AlternateTitle != "" && e.AlternateTitle != e.Title
}
