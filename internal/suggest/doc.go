// Package suggest owns the session-scoped suggestion set and its lifecycle.
//
// The Manager is the only component that mutates the set. It fetches
// suggestions in paragraph batches, reconciles them on every edit, resolves
// clicks, splices the buffer on accept, and mirrors dismissals to the
// service. Suggestions whose anchor text cannot be found for two consecutive
// passes are evicted as stale.
package suggest
