package buffer

import (
	"fmt"
	"sync/atomic"
)

// Offset represents a character (rune) position in the buffer.
// The analysis service addresses text by character index into the flattened
// document, so the buffer is rune-addressed rather than byte-addressed.
type Offset = int

// Point represents a line and column position.
// Both Line and Column are 0-indexed. Column is measured in runes from the
// start of the line.
type Point struct {
	Line   uint32
	Column uint32
}

// String returns a human-readable representation of the point.
func (p Point) String() string {
	return fmt.Sprintf("(%d:%d)", p.Line, p.Column)
}

// RevisionID uniquely identifies a buffer revision.
// Each modification to the buffer creates a new revision.
type RevisionID uint64

// revisionCounter is used to generate unique revision IDs.
var revisionCounter uint64

// NewRevisionID generates a new unique revision ID.
// This is thread-safe using atomic operations.
func NewRevisionID() RevisionID {
	return RevisionID(atomic.AddUint64(&revisionCounter, 1))
}
