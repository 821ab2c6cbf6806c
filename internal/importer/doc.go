// Package importer loads taxonomy entities and MLS listings from CSV files.
//
// Entity files carry one entity per row with the columns title,
// alternate_title, status, address and an optional id. Listing files carry
// id, title and status plus one column per editor field; every listing row
// is saved through the listing service so the save hooks fill the builder
// and community selections exactly as an editor save would.
package importer
