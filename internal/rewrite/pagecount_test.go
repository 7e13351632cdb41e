package rewrite

import "testing"

func TestCharactersPerPageManuscript(t *testing.T) {
	// Letter with one inch margins leaves 468x648pt. 12pt Times averages 6pt
	// per glyph (78 per line); double spacing gives 24pt lines (27 per page).
	got := CharactersPerPage(DefaultPageSettings())
	if got != 78*27 {
		t.Errorf("CharactersPerPage(default) = %d, want %d", got, 78*27)
	}
}

func TestCharactersPerPageDeterministic(t *testing.T) {
	s := DefaultPageSettings()
	first := CharactersPerPage(s)
	for i := 0; i < 5; i++ {
		if got := CharactersPerPage(s); got != first {
			t.Fatalf("CharactersPerPage() call %d = %d, want %d", i, got, first)
		}
	}
}

func TestPagesToCharacters(t *testing.T) {
	s := DefaultPageSettings()
	if got := PagesToCharacters(2.0, s); got != 4212 {
		t.Errorf("PagesToCharacters(2.0, default) = %d, want 4212", got)
	}
	if got := PagesToCharacters(0.5, s); got != 1053 {
		t.Errorf("PagesToCharacters(0.5, default) = %d, want 1053", got)
	}
	if got := PagesToCharacters(0, s); got != 0 {
		t.Errorf("PagesToCharacters(0, default) = %d, want 0", got)
	}
}

func TestCharactersPerPageVariants(t *testing.T) {
	tests := []struct {
		name     string
		settings PageSettings
	}{
		{"a4 single arial", PageSettings{Paper: PaperA4, Font: FontArial, FontSizePt: 11, Spacing: SpacingSingle, MarginPt: 72}},
		{"legal courier 1.5", PageSettings{Paper: PaperLegal, Font: FontCourier, FontSizePt: 10, Spacing: SpacingOneAndHalf, MarginPt: 54}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CharactersPerPage(tt.settings)
			if got <= 0 {
				t.Errorf("CharactersPerPage(%+v) = %d, want > 0", tt.settings, got)
			}
			// Larger text fits fewer characters.
			bigger := tt.settings
			bigger.FontSizePt += 4
			if CharactersPerPage(bigger) >= got {
				t.Error("larger font should fit fewer characters per page")
			}
		})
	}
}

func TestCharactersPerPageDegenerate(t *testing.T) {
	s := DefaultPageSettings()
	s.MarginPt = 400 // margins consume the page
	if got := CharactersPerPage(s); got != 0 {
		t.Errorf("CharactersPerPage(oversized margins) = %d, want 0", got)
	}
}
