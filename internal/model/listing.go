package model

import (
	"sort"
	"strings"
)

// NoneValue is the placeholder the listing editor stores for "nothing selected".
const NoneValue = "__none__"

// Listing is a property listing imported from the MLS.
type Listing struct {
	ID     int64  `json:"id"`
	Title  string `json:"title"`
	Status string `json:"status"`

	// Fields holds the listing's meta values keyed by meta key.
	Fields Fields `json:"fields,omitempty"`
}

// Fields is a set of single-valued listing meta fields.
type Fields map[string]string

// Get returns the trimmed value of key, or "" when absent.
func (f Fields) Get(key string) string {
	return strings.TrimSpace(f[key])
}

// IsUnset reports whether a selection value counts as empty.
func IsUnset(v string) bool {
	v = strings.TrimSpace(v)
	return v == "" || v == NoneValue
}

// First returns the first key in names with a non-empty value, in the order given.
func (f Fields) First(names ...string) (key, value string) {
	for _, name := range names {
		if v := f.Get(name); v != "" {
			return name, v
		}
	}
	return "", ""
}

// FirstContaining returns the first non-empty field whose key contains
// keyword (case-insensitive). Keys are visited in lexical order so the
// result does not depend on map iteration. Keys listed in exclude are skipped.
func (f Fields) FirstContaining(keyword string, exclude ...string) (key, value string) {
	if keyword == "" {
		return "", ""
	}
	keyword = strings.ToLower(keyword)

	skip := make(map[string]bool, len(exclude))
	for _, k := range exclude {
		skip[k] = true
	}

	keys := make([]string, 0, len(f))
	for k := range f {
		if skip[k] || !strings.Contains(strings.ToLower(k), keyword) {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	return f.First(keys...)
}

// Clone returns a copy of f.
func (f Fields) Clone() Fields {
	out := make(Fields, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}
