// Package reconcile relocates suggestion offsets against the live buffer.
//
// The analysis service computes character-offset ranges over a snapshot of
// the document. By the time those ranges come back, the user may have kept
// typing, so there is no authoritative position oracle; the only anchor is
// the exact substring the service observed. This package re-validates each
// range against the current snapshot: exact offsets first, then a bounded
// local search, and invalidation when nothing in the window matches.
//
// Reconciliation is a pure function of a snapshot and a suggestion. It never
// mutates the buffer and never renders; invalid ranges are simply suppressed
// until the next analysis pass.
package reconcile
