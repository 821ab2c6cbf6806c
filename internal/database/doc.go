// Package database provides SQLite-based storage for propsync.
//
// The Store holds three kinds of records:
//   - Taxonomy entities (builders and communities)
//   - Listings and their per-listing meta fields
//   - Sync runs for history and reporting
//
// Listing fields are stored in a key/value meta table rather than as columns
// because MLS imports carry an open-ended set of fields whose names vary by
// feed.
//
// SQLite (via modernc.org/sqlite) keeps the whole content store in one
// CGO-free file; WAL mode lets the admin server read while a sync writes.
package database
