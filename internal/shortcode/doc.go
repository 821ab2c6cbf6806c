// Package shortcode expands the listings and address shortcodes found in
// page content.
//
// [plugin_builder_listings] and [plugin_community_listings] become the
// listing plugin's own shortcode (es_my_listing by default) with the
// configured fixed attributes and a selection attribute that defaults to the
// page title. [community_address] renders the street part of a community's
// address. Rendering the delegate shortcode belongs to the host; the default
// Renderer passes the expanded tag through unchanged.
package shortcode
