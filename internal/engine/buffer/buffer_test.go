package buffer

import (
	"errors"
	"strings"
	"sync"
	"testing"
)

func TestNewBuffer(t *testing.T) {
	b := NewBuffer()

	if !b.IsEmpty() {
		t.Error("new buffer should be empty")
	}

	if b.Len() != 0 {
		t.Errorf("expected length 0, got %d", b.Len())
	}
}

func TestNewBufferFromString(t *testing.T) {
	text := "Hello, World!"
	b := NewBufferFromString(text)

	if b.Text() != text {
		t.Errorf("expected %q, got %q", text, b.Text())
	}

	if b.Len() != len(text) {
		t.Errorf("expected length %d, got %d", len(text), b.Len())
	}
}

func TestNewBufferNormalizesLineEndings(t *testing.T) {
	b := NewBufferFromString("one\r\ntwo\rthree\nfour")

	if b.Text() != "one\ntwo\nthree\nfour" {
		t.Errorf("line endings not normalized: %q", b.Text())
	}
}

func TestBufferLenIsRunes(t *testing.T) {
	b := NewBufferFromString("héllo")

	if b.Len() != 5 {
		t.Errorf("expected rune length 5, got %d", b.Len())
	}

	if b.TextRange(1, 2) != "é" {
		t.Errorf("expected é, got %q", b.TextRange(1, 2))
	}
}

func TestBufferInsert(t *testing.T) {
	b := NewBufferFromString("Hello World")

	end, err := b.Insert(5, ",")
	if err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	if end != 6 {
		t.Errorf("expected end position 6, got %d", end)
	}

	if b.Text() != "Hello, World" {
		t.Errorf("expected 'Hello, World', got %q", b.Text())
	}
}

func TestBufferInsertOutOfRange(t *testing.T) {
	b := NewBufferFromString("short")

	if _, err := b.Insert(100, "x"); !errors.Is(err, ErrOffsetOutOfRange) {
		t.Errorf("expected ErrOffsetOutOfRange, got %v", err)
	}

	if _, err := b.Insert(-1, "x"); !errors.Is(err, ErrOffsetOutOfRange) {
		t.Errorf("expected ErrOffsetOutOfRange, got %v", err)
	}
}

func TestBufferDelete(t *testing.T) {
	b := NewBufferFromString("Hello, World")

	if err := b.Delete(5, 6); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	if b.Text() != "Hello World" {
		t.Errorf("expected 'Hello World', got %q", b.Text())
	}
}

func TestBufferDeleteInvalidRange(t *testing.T) {
	b := NewBufferFromString("text")

	if err := b.Delete(3, 1); !errors.Is(err, ErrRangeInvalid) {
		t.Errorf("expected ErrRangeInvalid, got %v", err)
	}

	if err := b.Delete(0, 100); !errors.Is(err, ErrRangeInvalid) {
		t.Errorf("expected ErrRangeInvalid, got %v", err)
	}
}

func TestBufferReplace(t *testing.T) {
	b := NewBufferFromString("I saw teh cat")

	end, err := b.Replace(6, 9, "the")
	if err != nil {
		t.Fatalf("replace failed: %v", err)
	}

	if end != 9 {
		t.Errorf("expected end position 9, got %d", end)
	}

	if b.Text() != "I saw the cat" {
		t.Errorf("expected 'I saw the cat', got %q", b.Text())
	}
}

func TestBufferApplyEdit(t *testing.T) {
	b := NewBufferFromString("Hello World")

	result, err := b.ApplyEdit(NewEdit(Range{Start: 6, End: 11}, "Gopher"))
	if err != nil {
		t.Fatalf("apply edit failed: %v", err)
	}

	if b.Text() != "Hello Gopher" {
		t.Errorf("expected 'Hello Gopher', got %q", b.Text())
	}

	if result.OldText != "World" {
		t.Errorf("expected old text 'World', got %q", result.OldText)
	}

	if result.NewRange != (Range{Start: 6, End: 12}) {
		t.Errorf("unexpected new range %v", result.NewRange)
	}

	if result.Delta != 1 {
		t.Errorf("expected delta 1, got %d", result.Delta)
	}
}

func TestBufferRevisionChangesOnWrite(t *testing.T) {
	b := NewBufferFromString("text")
	rev := b.RevisionID()

	if _, err := b.Insert(0, "x"); err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	if b.RevisionID() == rev {
		t.Error("revision should change after write")
	}
}

func TestBufferOffsetToPoint(t *testing.T) {
	b := NewBufferFromString("ab\ncd\nef")

	tests := []struct {
		offset Offset
		want   Point
	}{
		{0, Point{0, 0}},
		{2, Point{0, 2}},
		{3, Point{1, 0}},
		{5, Point{1, 2}},
		{6, Point{2, 0}},
		{8, Point{2, 2}},
	}

	for _, tt := range tests {
		got := b.OffsetToPoint(tt.offset)
		if got != tt.want {
			t.Errorf("OffsetToPoint(%d) = %v, want %v", tt.offset, got, tt.want)
		}
	}
}

func TestBufferPointToOffset(t *testing.T) {
	b := NewBufferFromString("ab\ncd\nef")

	for offset := 0; offset <= b.Len(); offset++ {
		p := b.OffsetToPoint(offset)
		back := b.PointToOffset(p)
		if back != offset {
			t.Errorf("round trip for offset %d gave %d (point %v)", offset, back, p)
		}
	}
}

func TestSnapshotIsolation(t *testing.T) {
	b := NewBufferFromString("original")
	snap := b.Snapshot()

	if _, err := b.Replace(0, 8, "changed!"); err != nil {
		t.Fatalf("replace failed: %v", err)
	}

	if snap.Text() != "original" {
		t.Errorf("snapshot mutated: %q", snap.Text())
	}

	if b.Text() != "changed!" {
		t.Errorf("buffer not updated: %q", b.Text())
	}

	if snap.RevisionID() == b.RevisionID() {
		t.Error("snapshot revision should not track buffer revision")
	}
}

func TestSnapshotTextRangeClamps(t *testing.T) {
	snap := SnapshotFromString("abc")

	if got := snap.TextRange(-5, 100); got != "abc" {
		t.Errorf("expected clamped full text, got %q", got)
	}

	if got := snap.TextRange(2, 1); got != "" {
		t.Errorf("expected empty string for inverted range, got %q", got)
	}
}

func TestBufferConcurrentAccess(t *testing.T) {
	b := NewBufferFromString(strings.Repeat("word ", 100))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				_ = b.Text()
				_ = b.Snapshot().Len()
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				_, _ = b.Insert(0, "x")
			}
		}()
	}
	wg.Wait()

	if b.Len() != 500+8*50 {
		t.Errorf("expected length %d, got %d", 500+8*50, b.Len())
	}
}
