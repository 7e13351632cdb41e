package buffer

import "unicode"

// Paragraph is one entry in the paragraph view of the buffer.
// Paragraphs are identified by ordinal index; the analysis and rewrite
// services address paragraphs the same way, so the split here must match the
// service's: segments between blank-line separators, trimmed, empties dropped.
type Paragraph struct {
	// ID is the ordinal index of the paragraph in the document.
	ID int

	// Start is the character offset of the first rune of the trimmed content.
	Start Offset

	// End is the character offset one past the last rune of the trimmed content.
	End Offset

	// Text is the trimmed paragraph content.
	Text string
}

// Len returns the character length of the paragraph content.
func (p Paragraph) Len() int {
	return p.End - p.Start
}

// splitParagraphs splits the flattened text on "\n\n" separators, trims
// surrounding whitespace from each segment, and drops empty segments.
// Separator matching is non-overlapping left to right.
func splitParagraphs(runes []rune) []Paragraph {
	var paras []Paragraph

	segStart := 0
	flush := func(start, end int) {
		start, end = trimSpaceBounds(runes, start, end)
		if start >= end {
			return
		}
		paras = append(paras, Paragraph{
			ID:    len(paras),
			Start: start,
			End:   end,
			Text:  string(runes[start:end]),
		})
	}

	i := 0
	for i < len(runes) {
		if runes[i] == '\n' && i+1 < len(runes) && runes[i+1] == '\n' {
			flush(segStart, i)
			i += 2
			segStart = i
			continue
		}
		i++
	}
	flush(segStart, len(runes))

	return paras
}

// trimSpaceBounds narrows [start, end) past leading and trailing whitespace.
func trimSpaceBounds(runes []rune, start, end int) (int, int) {
	for start < end && unicode.IsSpace(runes[start]) {
		start++
	}
	for end > start && unicode.IsSpace(runes[end-1]) {
		end--
	}
	return start, end
}
