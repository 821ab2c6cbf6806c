// Package display post-processes rendered listing pages.
//
// The listing plugin renders MLS values verbatim: upper-case builder names,
// unseparated square footage, agent names with stray commas and phone numbers
// written as 123-456-7890. A Processor parses the rendered HTML fragment with
// golang.org/x/net/html, rewrites the value spans of the affected fields and
// renders the fragment again.
//
// Filters only run when the page template matches the configured listing
// template (single-properties by default); any other page is returned
// untouched.
//
// # Usage
//
//	p := display.NewProcessor(cfg.DisplayTemplate)
//	out, err := p.Process("single-properties", content)
package display
