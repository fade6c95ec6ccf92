package model

// Question asks a stakeholder to close a gap.
type Question struct {
	Text             string       `json:"text"`
	Type             QuestionType `json:"type"`
	SuggestedAnswers []string     `json:"suggested_answers,omitempty"`
}

// Detection records how and how confidently an element was found.
type Detection struct {
	Method     DetectionMethod `json:"method"`
	RuleID     string          `json:"rule_id"`
	Confidence float64         `json:"confidence"`
	Reasoning  string          `json:"reasoning"`
}

// SourceContext locates an element in the document.
type SourceContext struct {
	SentenceID string `json:"sentence_id"`
	Line       int    `json:"line"`
	Text       string `json:"text"`
	Match      string `json:"match,omitempty"`
}

// TermActionKind is the template term carrying the kind of the action an
// element is anchored to. It is never substituted into text.
const TermActionKind = "action_kind"

// UndefinedElement is one detected gap.
type UndefinedElement struct {
	ID              string            `json:"id"`
	Category        string            `json:"category"`
	Subcategory     string            `json:"subcategory"`
	EntityID        string            `json:"entity_id,omitempty"`
	ActionID        string            `json:"action_id,omitempty"`
	RequirementID   string            `json:"requirement_id,omitempty"`
	Title           string            `json:"title"`
	Description     string            `json:"description"`
	Severity        Severity          `json:"severity"`
	Terms           map[string]string `json:"terms,omitempty"`
	Questions       []Question        `json:"questions"`
	Detection       Detection         `json:"detection"`
	Context         SourceContext     `json:"context"`
	CrossReferences []string          `json:"cross_references,omitempty"`
}

// Key returns "category/subcategory".
func (e UndefinedElement) Key() string {
	return e.Category + "/" + e.Subcategory
}

// ElementGroup is one connected component of related elements.
type ElementGroup struct {
	ID              string            `json:"id"`
	Members         []string          `json:"members"`
	Relationship    GroupRelationship `json:"relationship"`
	ResolveTogether bool              `json:"should_resolve_together"`
}

// Confidence bands used in detection statistics.
const (
	BandHigh   = "high"
	BandMedium = "medium"
	BandLow    = "low"
)

// ConfidenceBand buckets a confidence value.
func ConfidenceBand(c float64) string {
	switch {
	case c >= 0.8:
		return BandHigh
	case c >= 0.6:
		return BandMedium
	default:
		return BandLow
	}
}

// DetectionStatistics records what the detector saw and kept.
type DetectionStatistics struct {
	Candidates   int                         `json:"candidates"`
	Retained     int                         `json:"retained"`
	Discarded    int                         `json:"discarded"`
	Disabled     int                         `json:"disabled"`
	ByCategory   map[string]int              `json:"by_category"`
	ByConfidence map[string]int              `json:"by_confidence"`
	BySeverity   map[Severity]int            `json:"by_severity"`
	Warnings     []DetectionAmbiguityWarning `json:"warnings,omitempty"`
}

// MetaAnalysis is a document-level reading of the detected gaps.
type MetaAnalysis struct {
	OverallCompleteness float64  `json:"overall_completeness"`
	CriticalGaps        []string `json:"critical_gaps,omitempty"`
	Recommendations     []string `json:"recommendations,omitempty"`
}

// UndefinedElements is the output of the detector.
type UndefinedElements struct {
	Stamp
	Elements   []UndefinedElement  `json:"elements"`
	Groups     []ElementGroup      `json:"groups"`
	Statistics DetectionStatistics `json:"statistics"`
	Meta       MetaAnalysis        `json:"meta"`
}

// Element returns the element with the given id.
func (u *UndefinedElements) Element(id string) (UndefinedElement, bool) {
	for _, e := range u.Elements {
		if e.ID == id {
			return e, true
		}
	}
	return UndefinedElement{}, false
}
