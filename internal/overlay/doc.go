// Package overlay turns reconciled suggestion ranges into an addressable
// visual description.
//
// The overlay Set is derived state: a pure function of the current valid
// ranges, fully recomputed whenever the buffer or the suggestion set changes.
// Incremental patching is deliberately avoided; a stale span that survived a
// partial update is exactly the bug this engine exists to prevent.
//
// Each span carries its category, a stable click-target identifier, and the
// popup attributes, so click resolution is an index lookup rather than
// reading identity back off rendered surface attributes.
package overlay
