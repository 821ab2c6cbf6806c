// Package server implements the propsync admin HTTP surface on gin.
//
// Everything except /healthz sits behind HTTP basic auth checked against a
// bcrypt hash. The surface has three parts:
//
//   - Tool pages (/admin/tools/:slug) run one sync batch per form
//     submission. Each form carries a short-lived HS256 nonce bound to the
//     tool's action.
//   - The listing editor (/admin/listings/:id/edit) renders the selection
//     dropdowns from an injected choice list and saves es_property[...]
//     fields through the save hooks.
//   - The JSON API under /api exposes entities, labels, choices, listings,
//     sync runs and content rendering.
//
// The server owns the label cache. Entity writes through the API invalidate
// the cached map of the affected kind.
package server
