// Package synctool implements the manual batch-sync tool.
//
// A run takes a fixed-size page of published listings that the tool has not
// evaluated yet for a taxonomy, resolves each listing's free-text source to a
// canonical title and stores it, then marks the listing as processed whether
// or not it matched. A marked listing is never evaluated again, so repeated
// runs walk through the catalogue once.
package synctool
