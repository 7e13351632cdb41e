package buffer

import (
	"errors"
	"io"
	"strings"
	"sync"
)

// Errors returned by buffer operations.
var (
	ErrOffsetOutOfRange  = errors.New("offset out of range")
	ErrRangeInvalid      = errors.New("invalid range")
	ErrParagraphNotFound = errors.New("paragraph not found")
)

// Buffer holds the live document content being edited.
// It is the single mutable source of truth for text; suggestions and rewrites
// only ever touch it through Replace/ReplaceParagraph.
// All methods are thread-safe.
type Buffer struct {
	mu         sync.RWMutex
	runes      []rune
	revisionID RevisionID
}

// NewBuffer creates a new empty buffer.
func NewBuffer() *Buffer {
	return &Buffer{
		runes:      nil,
		revisionID: NewRevisionID(),
	}
}

// NewBufferFromString creates a buffer with initial content.
// Line endings are normalized to LF so that character offsets agree with the
// flattened text sent to the analysis service.
func NewBufferFromString(s string) *Buffer {
	b := NewBuffer()
	b.runes = []rune(normalizeLineEndings(s))
	return b
}

// NewBufferFromReader creates a buffer from an io.Reader.
func NewBufferFromReader(r io.Reader) (*Buffer, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return NewBufferFromString(string(data)), nil
}

// normalizeLineEndings converts CRLF and CR line endings to LF.
func normalizeLineEndings(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	return s
}

// Read Operations

// Text returns the full buffer content as a string.
func (b *Buffer) Text() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return string(b.runes)
}

// TextRange returns text in the given character range.
// Out-of-bounds offsets are clamped to the buffer.
func (b *Buffer) TextRange(start, end Offset) string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	start, end = clampRange(start, end, len(b.runes))
	return string(b.runes[start:end])
}

// Len returns the total character length of the buffer.
func (b *Buffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.runes)
}

// IsEmpty returns true if the buffer is empty.
func (b *Buffer) IsEmpty() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.runes) == 0
}

// OffsetToPoint converts a character offset to line/column.
// Offsets past the end of the buffer map to the final position.
func (b *Buffer) OffsetToPoint(offset Offset) Point {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if offset > len(b.runes) {
		offset = len(b.runes)
	}

	var p Point
	for i := 0; i < offset; i++ {
		if b.runes[i] == '\n' {
			p.Line++
			p.Column = 0
		} else {
			p.Column++
		}
	}
	return p
}

// PointToOffset converts line/column to a character offset.
func (b *Buffer) PointToOffset(point Point) Offset {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var line, col uint32
	for i, r := range b.runes {
		if line == point.Line && col == point.Column {
			return i
		}
		if r == '\n' {
			if line == point.Line {
				// Column beyond line end clamps to end of line
				return i
			}
			line++
			col = 0
		} else {
			col++
		}
	}
	return len(b.runes)
}

// Write Operations

// Insert inserts text at the given offset.
// Returns the end position of the inserted text.
func (b *Buffer) Insert(offset Offset, text string) (Offset, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if offset < 0 || offset > len(b.runes) {
		return 0, ErrOffsetOutOfRange
	}

	ins := []rune(normalizeLineEndings(text))
	b.runes = spliceRunes(b.runes, offset, offset, ins)
	b.revisionID = NewRevisionID()

	return offset + len(ins), nil
}

// Delete removes text in the given range.
func (b *Buffer) Delete(start, end Offset) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if start < 0 || start > end || end > len(b.runes) {
		return ErrRangeInvalid
	}

	b.runes = spliceRunes(b.runes, start, end, nil)
	b.revisionID = NewRevisionID()

	return nil
}

// Replace replaces text in the given range with new text.
// This is the buffer-splicing primitive shared by suggestion accept and
// paragraph rewrite accept.
// Returns the end position of the replacement text.
func (b *Buffer) Replace(start, end Offset, text string) (Offset, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if start < 0 || start > end || end > len(b.runes) {
		return 0, ErrRangeInvalid
	}

	ins := []rune(normalizeLineEndings(text))
	b.runes = spliceRunes(b.runes, start, end, ins)
	b.revisionID = NewRevisionID()

	return start + len(ins), nil
}

// ApplyEdit applies a single edit to the buffer.
func (b *Buffer) ApplyEdit(edit Edit) (EditResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if edit.Range.Start < 0 || edit.Range.Start > edit.Range.End ||
		edit.Range.End > len(b.runes) {
		return EditResult{}, ErrRangeInvalid
	}

	oldText := string(b.runes[edit.Range.Start:edit.Range.End])
	ins := []rune(normalizeLineEndings(edit.NewText))
	b.runes = spliceRunes(b.runes, edit.Range.Start, edit.Range.End, ins)
	b.revisionID = NewRevisionID()

	newEnd := edit.Range.Start + len(ins)

	return EditResult{
		OldRange: edit.Range,
		NewRange: Range{Start: edit.Range.Start, End: newEnd},
		OldText:  oldText,
		Delta:    len(ins) - edit.Range.Len(),
	}, nil
}

// ReplaceParagraph replaces the content of the paragraph with the given
// ordinal ID. The paragraph boundaries are recomputed against the current
// content, so the ID must refer to the current paragraph split.
func (b *Buffer) ReplaceParagraph(id int, text string) (EditResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	paras := splitParagraphs(b.runes)
	if id < 0 || id >= len(paras) {
		return EditResult{}, ErrParagraphNotFound
	}

	p := paras[id]
	oldText := string(b.runes[p.Start:p.End])
	ins := []rune(normalizeLineEndings(text))
	b.runes = spliceRunes(b.runes, p.Start, p.End, ins)
	b.revisionID = NewRevisionID()

	return EditResult{
		OldRange: Range{Start: p.Start, End: p.End},
		NewRange: Range{Start: p.Start, End: p.Start + len(ins)},
		OldText:  oldText,
		Delta:    len(ins) - (p.End - p.Start),
	}, nil
}

// Buffer State

// RevisionID returns the current revision ID.
func (b *Buffer) RevisionID() RevisionID {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.revisionID
}

// Paragraphs returns the current paragraph view of the buffer.
// See Snapshot.Paragraphs for the split semantics.
func (b *Buffer) Paragraphs() []Paragraph {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return splitParagraphs(b.runes)
}

// Snapshot returns a read-only snapshot of the current buffer state.
// Safe for concurrent access from other goroutines.
func (b *Buffer) Snapshot() *Snapshot {
	b.mu.RLock()
	defer b.mu.RUnlock()

	runes := make([]rune, len(b.runes))
	copy(runes, b.runes)

	return &Snapshot{
		runes:      runes,
		revisionID: b.revisionID,
	}
}

// spliceRunes replaces runes[start:end] with ins, always allocating a new
// backing array so outstanding snapshots are never aliased.
func spliceRunes(runes []rune, start, end Offset, ins []rune) []rune {
	out := make([]rune, 0, len(runes)-(end-start)+len(ins))
	out = append(out, runes[:start]...)
	out = append(out, ins...)
	out = append(out, runes[end:]...)
	return out
}

// clampRange clamps a range to [0, length] and orders its bounds.
func clampRange(start, end, length int) (int, int) {
	if start < 0 {
		start = 0
	}
	if end > length {
		end = length
	}
	if start > end {
		start = end
	}
	return start, end
}
