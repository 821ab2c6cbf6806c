// Package model defines the core data structures used throughout propsync.
//
// This package contains the following main types:
//   - Kind: The taxonomy a subsystem reconciles against (builder, community)
//   - Entity: A taxonomy entry with a canonical and an optional alternate title
//   - Listing and Fields: A property listing and its free-form meta fields
//   - BatchResult and ItemResult: The outcome of one batch-sync run
//
// Design decision: We separate models into their own package to avoid circular
// dependencies. The database, label, pipeline, synctool and report packages
// all use these types, so centralizing them prevents import cycles.
//
// The models are serializable to JSON for API responses and database storage.
package model
