package buffer

// Snapshot provides a read-only view of a buffer at a specific point in time.
// It is safe for concurrent access and will not change even if the original
// buffer is modified. Reconciliation always runs against a snapshot so every
// probe in a pass sees the same text.
type Snapshot struct {
	runes      []rune
	revisionID RevisionID
}

// SnapshotFromString creates a standalone snapshot, mainly for tests.
func SnapshotFromString(s string) *Snapshot {
	return &Snapshot{
		runes:      []rune(normalizeLineEndings(s)),
		revisionID: NewRevisionID(),
	}
}

// Text returns the full snapshot content as a string.
func (s *Snapshot) Text() string {
	return string(s.runes)
}

// Runes returns the snapshot content as runes.
// The returned slice must not be modified.
func (s *Snapshot) Runes() []rune {
	return s.runes
}

// TextRange returns text in the given character range.
// Out-of-bounds offsets are clamped.
func (s *Snapshot) TextRange(start, end Offset) string {
	start, end = clampRange(start, end, len(s.runes))
	return string(s.runes[start:end])
}

// Len returns the total character length of the snapshot.
func (s *Snapshot) Len() int {
	return len(s.runes)
}

// RevisionID returns the revision this snapshot was taken at.
func (s *Snapshot) RevisionID() RevisionID {
	return s.revisionID
}

// Paragraphs returns the paragraph view of the snapshot.
func (s *Snapshot) Paragraphs() []Paragraph {
	return splitParagraphs(s.runes)
}
