// Package label implements label normalization and the label map that
// resolves free-text MLS values to canonical taxonomy titles.
//
// A label map is built from the published entities of one taxonomy. Every
// canonical title and every alternate title is registered under its
// normalized form, pointing at the canonical title:
//
//	entities := []model.Entity{{Title: "Eberly Trails", AlternateTitle: "EBERLY TRLS PH 2"}}
//	m := label.Build(entities)
//	m.Lookup("eberly trails")    // "Eberly Trails", true
//	m.Lookup("Eberly Trls Ph 2") // "Eberly Trails", true
//
// # Collisions
//
// Two entities may claim the same normalized label. The map resolves this
// deterministically: a canonical-title key always beats an alternate-title
// key, and between keys of the same kind the first one registered wins.
// Build registers entities in (title, id) order. Every collision that would
// map one label to two different canonical titles is kept in Conflicts.
//
// # Caching
//
// Maps are plain values. Callers that want to reuse a map across requests
// hold a Cache explicitly; nothing in this package keeps global state.
package label
