// Package main provides the entry point for the propsync CLI.
//
// propsync matches free-text builder and subdivision fields on imported
// listings against curated Builder and Community taxonomies.
//
// Usage:
//
//	propsync serve
//	propsync sync community
//	propsync sync builder --all
//
// See --help for all available options.
package main

// main is the entry point for propsync.
func main() {
	Execute()
}
