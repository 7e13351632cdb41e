// Package rewrite drives the paragraph-level length rewrite workflow.
//
// A Session holds the offers from one analysis pass. Each offer moves through
// offered, accepted, dismissed, or retrying states: accepting splices the
// paragraph into the buffer, retrying replaces the offered text in place, and
// dismissing hides the offer for the rest of the session without deleting it.
// The package also carries the length accounting used to build requests,
// including the local pages-to-characters conversion.
package rewrite
