package label

import (
	"sort"

	"github.com/wtsks/propsync/internal/model"
)

// Origin records which title of an entity produced a label.
type Origin string

const (
	// OriginTitle marks a label registered from a canonical title.
	OriginTitle Origin = "title"
	// OriginAlternate marks a label registered from an alternate title.
	OriginAlternate Origin = "alternate"
)

// Entry is one registered label.
type Entry struct {
	Key       string `json:"key"`
	Canonical string `json:"canonical"`
	Origin    Origin `json:"origin"`
	EntityID  int64  `json:"entity_id"`
}

// Conflict describes a label claimed by two different canonical titles.
type Conflict struct {
	Key string `json:"key"`

	// Kept is the entry that stays in the map.
	Kept Entry `json:"kept"`

	// Dropped is the entry that lost.
	Dropped Entry `json:"dropped"`
}

// Map resolves normalized labels to canonical titles.
// The zero value is not usable; create maps with NewMap or Build.
type Map struct {
	entries   map[string]Entry
	conflicts []Conflict
}

// NewMap returns an empty map.
func NewMap() *Map {
	return &Map{entries: make(map[string]Entry)}
}

// Build creates a map from entities. Entities with an empty title are
// skipped. The input is sorted by (title, id) before registration so the
// collision policy gives the same answer regardless of input order.
func Build(entities []model.Entity) *Map {
	sorted := make([]model.Entity, len(entities))
	copy(sorted, entities)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Title != sorted[j].Title {
			return sorted[i].Title < sorted[j].Title
		}
		return sorted[i].ID < sorted[j].ID
	})

	m := NewMap()
	for _, e := range sorted {
		m.Add(e)
	}
	return m
}

// Add registers the canonical title of e and, when present and different,
// its alternate title.
func (m *Map) Add(e model.Entity) {
	if e.Title == "" {
		return
	}
	m.Register(e.Title, e.Title, OriginTitle, e.ID)
	if e.HasAlternate() {
		m.Register(e.AlternateTitle, e.Title, OriginAlternate, e.ID)
	}
}

// Register maps label to canonical. It reports whether the label ended up
// pointing at canonical. Labels that normalize to "" are ignored.
func (m *Map) Register(label, canonical string, origin Origin, entityID int64) bool {
	key := Normalize(label)
	if key == "" {
		return false
	}

	next := Entry{Key: key, Canonical: canonical, Origin: origin, EntityID: entityID}
	prev, exists := m.entries[key]
	if !exists {
		m.entries[key] = next
		return true
	}

	// A title beats an alternate; otherwise the earlier registration stays.
	replace := prev.Origin == OriginAlternate && origin == OriginTitle
	kept, dropped := prev, next
	if replace {
		kept, dropped = next, prev
		m.entries[key] = next
	}

	if kept.Canonical != dropped.Canonical {
		m.conflicts = append(m.conflicts, Conflict{Key: key, Kept: kept, Dropped: dropped})
	}
	return m.entries[key].Canonical == canonical
}

// Lookup resolves a raw label. It normalizes raw itself.
func (m *Map) Lookup(raw string) (string, bool) {
	key := Normalize(raw)
	if key == "" {
		return "", false
	}
	e, ok := m.entries[key]
	if !ok {
		return "", false
	}
	return e.Canonical, true
}

// Len returns the number of registered labels.
func (m *Map) Len() int {
	return len(m.entries)
}

// Entries returns all entries sorted by key.
func (m *Map) Entries() []Entry {
	out := make([]Entry, 0, len(m.entries))
	for _, e := range m.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// Conflicts returns the collisions seen while building the map, in the
// order they happened.
func (m *Map) Conflicts() []Conflict {
	out := make([]Conflict, len(m.conflicts))
	copy(out, m.conflicts)
	return out
}
