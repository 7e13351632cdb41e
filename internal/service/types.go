package service

// Category classifies a suggestion.
type Category string

// Suggestion categories produced by the analysis service.
const (
	CategorySpelling Category = "spelling"
	CategoryGrammar  Category = "grammar"
	CategoryStyle    Category = "style"
)

// IsValid reports whether the category is one the service may produce.
func (c Category) IsValid() bool {
	switch c {
	case CategorySpelling, CategoryGrammar, CategoryStyle:
		return true
	default:
		return false
	}
}

// Unit is a wire length unit. The service only ever sees words or characters;
// page targets are converted to a character budget locally before the request.
type Unit string

const (
	UnitWords      Unit = "words"
	UnitCharacters Unit = "characters"
)

// IsValid reports whether the unit may be sent on the wire.
func (u Unit) IsValid() bool {
	return u == UnitWords || u == UnitCharacters
}

// Target length bounds per unit, mirrored from the service so a hopeless
// request never goes on the wire.
const (
	MinTargetWords      = 5
	MaxTargetWords      = 50000
	MinTargetCharacters = 20
	MaxTargetCharacters = 300000
)

// TargetInRange reports whether a target length is within the bounds the
// service accepts for the unit.
func (u Unit) TargetInRange(target int) bool {
	switch u {
	case UnitWords:
		return target >= MinTargetWords && target <= MaxTargetWords
	case UnitCharacters:
		return target >= MinTargetCharacters && target <= MaxTargetCharacters
	default:
		return false
	}
}

// Mode is the rewrite direction. It is omitted from the initial length
// analysis (the service resolves it by comparing lengths) and required on
// retries, where it must carry the originally resolved mode.
type Mode string

const (
	ModeShorten  Mode = "shorten"
	ModeLengthen Mode = "lengthen"
)

// Suggestion is one spelling/grammar/style finding from the analysis service.
//
// GlobalStart/GlobalEnd are character offsets into the flattened text snapshot
// that was sent for analysis. They are not guaranteed to still address the
// live buffer; OriginalText is the exact substring the service observed there
// and is what reconciliation matches against.
type Suggestion struct {
	SuggestionID        string   `json:"suggestion_id"`
	RuleID              string   `json:"rule_id"`
	Category            Category `json:"category"`
	OriginalText        string   `json:"original_text"`
	SuggestionText      string   `json:"suggestion_text"`
	Message             string   `json:"message"`
	GlobalStart         int      `json:"global_start"`
	GlobalEnd           int      `json:"global_end"`
	DismissalIdentifier string   `json:"dismissal_identifier"`
}

// DismissalIdentifier derives the content-based dismissal key for a
// suggestion. It matches the service's own derivation, so a locally computed
// key always agrees with the one the service returns.
func DismissalIdentifier(originalText, ruleID string) string {
	return originalText + "|" + ruleID
}

// AnalyzeParagraph is one paragraph in an analysis request. BaseOffset is the
// character offset of the paragraph content in the flattened document, used by
// the service to produce global suggestion offsets.
type AnalyzeParagraph struct {
	ParagraphID int    `json:"paragraph_id"`
	TextContent string `json:"text_content"`
	BaseOffset  int    `json:"base_offset"`
}

// AnalyzeRequest asks the service for suggestions over a set of paragraphs.
type AnalyzeRequest struct {
	DocumentID string             `json:"document_id"`
	Paragraphs []AnalyzeParagraph `json:"paragraphs"`
}

// AnalyzeResponse carries the suggestions for one analysis pass.
// Errors are per-paragraph failures; the pass as a whole still succeeded.
type AnalyzeResponse struct {
	Suggestions              []Suggestion `json:"suggestions"`
	TotalParagraphsProcessed int          `json:"total_paragraphs_processed"`
	Errors                   []string     `json:"errors"`
}

// DismissRequest suppresses a suggestion across future analysis passes.
// The key is content-derived, not position-derived, so it survives offset
// drift and re-analysis.
type DismissRequest struct {
	DocumentID   string `json:"document_id"`
	OriginalText string `json:"original_text"`
	RuleID       string `json:"rule_id"`
}

// DismissResponse acknowledges a dismissal. Repeating a dismissal is a no-op
// on the service side and still reports success.
type DismissResponse struct {
	Success             bool   `json:"success"`
	DismissalIdentifier string `json:"dismissal_identifier"`
}

// ClearDismissedResponse reports how many dismissals were removed.
type ClearDismissedResponse struct {
	Success      bool   `json:"success"`
	ClearedCount int    `json:"cleared_count"`
	Message      string `json:"message"`
}

// ParagraphRewrite is one paragraph-level rewrite offer.
// ParagraphID is the ordinal index of the paragraph in the document's
// blank-line split and stays stable across retries.
type ParagraphRewrite struct {
	ParagraphID     int    `json:"paragraph_id"`
	OriginalText    string `json:"original_text"`
	RewrittenText   string `json:"rewritten_text"`
	OriginalLength  int    `json:"original_length"`
	RewrittenLength int    `json:"rewritten_length"`
}

// RewriteRequest asks the service to rewrite the document toward a target
// length. Mode is optional; when empty the service resolves it.
type RewriteRequest struct {
	DocumentID   string `json:"document_id"`
	FullText     string `json:"full_text"`
	TargetLength int    `json:"target_length"`
	Unit         Unit   `json:"unit"`
	Mode         Mode   `json:"mode,omitempty"`
}

// RewriteResponse carries the per-paragraph rewrite offers.
// Mode is the direction the service resolved; retries must echo it.
type RewriteResponse struct {
	DocumentID        string             `json:"document_id"`
	OriginalLength    int                `json:"original_length"`
	TargetLength      int                `json:"target_length"`
	Unit              Unit               `json:"unit"`
	Mode              Mode               `json:"mode"`
	ParagraphRewrites []ParagraphRewrite `json:"paragraph_rewrites"`
	TotalParagraphs   int                `json:"total_paragraphs"`
}

// RetryRequest asks for a variant distinct from a rejected rewrite.
type RetryRequest struct {
	OriginalParagraph  string `json:"original_paragraph"`
	PreviousSuggestion string `json:"previous_suggestion"`
	TargetLength       int    `json:"target_length"`
	Unit               Unit   `json:"unit"`
	Mode               Mode   `json:"mode"`
}

// RetryResponse carries the replacement rewrite for a single paragraph.
type RetryResponse struct {
	RewrittenText   string `json:"rewritten_text"`
	OriginalLength  int    `json:"original_length"`
	RewrittenLength int    `json:"rewritten_length"`
}
