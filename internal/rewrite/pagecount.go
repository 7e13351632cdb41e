package rewrite

// PaperSize selects the physical page dimensions for the page budget.
type PaperSize string

const (
	PaperLetter PaperSize = "letter"
	PaperA4     PaperSize = "a4"
	PaperLegal  PaperSize = "legal"
)

// FontFamily selects the average glyph width factor for the page budget.
type FontFamily string

const (
	FontTimes   FontFamily = "times"
	FontArial   FontFamily = "arial"
	FontCourier FontFamily = "courier"
)

// LineSpacing selects the line height multiplier.
type LineSpacing string

const (
	SpacingSingle     LineSpacing = "single"
	SpacingOneAndHalf LineSpacing = "1.5"
	SpacingDouble     LineSpacing = "double"
)

// PageSettings describes the layout a "page" target is measured against.
// All lengths are in points (1/72 inch).
type PageSettings struct {
	Paper      PaperSize
	Font       FontFamily
	FontSizePt float64
	Spacing    LineSpacing
	MarginPt   float64
}

// DefaultPageSettings is the manuscript convention: Letter, 12pt Times,
// double spaced, one inch margins.
func DefaultPageSettings() PageSettings {
	return PageSettings{
		Paper:      PaperLetter,
		Font:       FontTimes,
		FontSizePt: 12,
		Spacing:    SpacingDouble,
		MarginPt:   72,
	}
}

func (p PaperSize) dimensions() (width, height float64) {
	switch p {
	case PaperA4:
		return 595, 842
	case PaperLegal:
		return 612, 1008
	default:
		return 612, 792
	}
}

// widthFactor is the average glyph width as a fraction of the font size.
func (f FontFamily) widthFactor() float64 {
	switch f {
	case FontArial:
		return 0.55
	case FontCourier:
		return 0.60
	default:
		return 0.50
	}
}

func (s LineSpacing) multiplier() float64 {
	switch s {
	case SpacingSingle:
		return 1.0
	case SpacingOneAndHalf:
		return 1.5
	default:
		return 2.0
	}
}

// CharactersPerPage estimates how many characters fit on one page under the
// given settings. It is a pure function: identical settings always yield the
// same budget, so a page target converts to the same character target on
// every call.
func CharactersPerPage(s PageSettings) int {
	pageWidth, pageHeight := s.Paper.dimensions()
	usableWidth := pageWidth - 2*s.MarginPt
	usableHeight := pageHeight - 2*s.MarginPt
	if usableWidth <= 0 || usableHeight <= 0 {
		return 0
	}

	charWidth := s.FontSizePt * s.Font.widthFactor()
	lineHeight := s.FontSizePt * s.Spacing.multiplier()
	if charWidth <= 0 || lineHeight <= 0 {
		return 0
	}

	charsPerLine := int(usableWidth / charWidth)
	linesPerPage := int(usableHeight / lineHeight)
	return charsPerLine * linesPerPage
}

// PagesToCharacters converts a fractional page count to a character budget.
// The conversion happens before a request is built; only words or characters
// ever go on the wire.
func PagesToCharacters(pages float64, s PageSettings) int {
	if pages <= 0 {
		return 0
	}
	return int(pages * float64(CharactersPerPage(s)))
}
