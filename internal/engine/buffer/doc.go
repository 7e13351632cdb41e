// Package buffer provides a thread-safe text buffer for the writing surface.
// It is the single mutable source of truth for document content.
//
// The buffer is character (rune) addressed: the external analysis service
// computes offsets over the flattened document text, and those offsets are
// character indices, not bytes. Byte addressing would silently disagree with
// the service for any non-ASCII document.
//
// The package provides:
//
//   - Thread-safe read/write access via sync.RWMutex
//   - Replace, the splicing primitive shared by suggestion accept and
//     paragraph rewrite accept
//   - A paragraph view matching the analysis service's blank-line split
//   - Read-only snapshots for reconciliation and concurrent access
//   - Line ending normalization and revision tracking
//
// Basic usage:
//
//	buf := buffer.NewBufferFromString("I saw teh cat")
//	buf.Replace(6, 9, "the")
//
//	snap := buf.Snapshot()
//	// Reconcile suggestion ranges against snap while edits continue.
package buffer
