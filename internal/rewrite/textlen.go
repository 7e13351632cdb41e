package rewrite

import (
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/dshills/redline/internal/service"
)

// Document length limits enforced before any rewrite request is built. The
// service applies the same bounds to both the document and the target, so
// these are the wire constants under local names.
const (
	MaxWords      = service.MaxTargetWords
	MaxCharacters = service.MaxTargetCharacters
	MinWords      = service.MinTargetWords
	MinCharacters = service.MinTargetCharacters
)

// Length validation errors.
var (
	ErrDocumentTooLong  = errors.New("document exceeds rewrite length limits")
	ErrDocumentTooShort = errors.New("document below rewrite length minimum")
)

// CountWords counts whitespace-delimited words.
func CountWords(text string) int {
	return len(strings.Fields(text))
}

// CountCharacters counts runes after collapsing runs of whitespace to single
// spaces and trimming the ends. Lengths must agree with the service, which
// normalizes the same way before measuring.
func CountCharacters(text string) int {
	return utf8.RuneCountInString(normalizeWhitespace(text))
}

func normalizeWhitespace(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// ValidateLength checks a document against the rewrite limits.
func ValidateLength(text string) error {
	words := CountWords(text)
	chars := CountCharacters(text)

	if words > MaxWords || chars > MaxCharacters {
		return ErrDocumentTooLong
	}
	if words < MinWords || chars < MinCharacters {
		return ErrDocumentTooShort
	}
	return nil
}

// paragraphTarget apportions the document-level target to one paragraph by
// its share of the document length, floored at the unit's minimum viable
// length so tiny paragraphs still get a workable budget.
func paragraphTarget(paragraphLen, documentLen, target int, unit service.Unit) int {
	t := 0
	if documentLen > 0 {
		t = target * paragraphLen / documentLen
	}

	min := MinCharacters
	if unit == service.UnitWords {
		min = MinWords
	}
	if t < min {
		t = min
	}
	return t
}
