package detector

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/HendryAvila/specgap/internal/config"
	"github.com/HendryAvila/specgap/internal/model"
	"github.com/HendryAvila/specgap/internal/parser"
)

const (
	completeSpec = "A product has a name and a price. " +
		"The name is a string of at most 100 characters. " +
		"The price is a decimal between 0.01 and 10000. " +
		"Users can add a product to the cart. " +
		"If adding fails, the system returns an error message. " +
		"For example, a user adds a product with price 25.00 to the cart."

	concurrencySpec = "Customers can add products to their cart. " +
		"Two customers may add the last unit of stock to their carts at the same time."
)

func defaults(t *testing.T) *config.Bundle {
	t.Helper()
	b, err := config.Default()
	if err != nil {
		t.Fatalf("config.Default() failed: %v", err)
	}
	return b
}

func parse(t *testing.T, b *config.Bundle, text string) *model.ParsedRequirement {
	t.Helper()
	p, err := parser.New(b.Lexicon, parser.DefaultOptions())
	if err != nil {
		t.Fatalf("parser.New failed: %v", err)
	}
	pr, err := p.Parse(model.Document{Text: text})
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	return pr
}

func extract(t *testing.T, text string, opts Options) *model.UndefinedElements {
	t.Helper()
	b := defaults(t)
	d, err := New(b.Rules, opts)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	out, err := d.Extract(parse(t, b, text))
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	return out
}

func keys(els []model.UndefinedElement) []string {
	out := make([]string, len(els))
	for i, el := range els {
		out[i] = el.Key()
	}
	return out
}

// --- Construction ---

func TestNew_RejectsInvalidOptions(t *testing.T) {
	b := defaults(t)
	tests := []struct {
		name   string
		mutate func(*Options)
	}{
		{"threshold above one", func(o *Options) { o.ConfidenceThreshold = 1.5 }},
		{"negative threshold", func(o *Options) { o.ConfidenceThreshold = -0.1 }},
		{"no questions", func(o *Options) { o.MaxQuestions = 0 }},
		{"zero overlap", func(o *Options) { o.KeywordOverlap = 0 }},
		{"unknown category", func(o *Options) { o.EnabledCategories = []string{"made_up"} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			tt.mutate(&opts)
			_, err := New(b.Rules, opts)
			var cfgErr *model.ConfigurationError
			if !errors.As(err, &cfgErr) {
				t.Errorf("New error = %v, want ConfigurationError", err)
			}
		})
	}
}

func TestExtract_NilInput(t *testing.T) {
	d, err := New(defaults(t).Rules, DefaultOptions())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	_, err = d.Extract(nil)
	var inErr *model.InvalidInputError
	if !errors.As(err, &inErr) {
		t.Errorf("Extract(nil) error = %v, want InvalidInputError", err)
	}
}

// --- Scenarios ---

func TestExtract_CompleteSpecHasNoElements(t *testing.T) {
	out := extract(t, completeSpec, DefaultOptions())
	if len(out.Elements) != 0 {
		t.Fatalf("elements = %v, want none", keys(out.Elements))
	}
	if len(out.Groups) != 0 {
		t.Errorf("groups = %+v, want none", out.Groups)
	}
	st := out.Statistics
	if st.Retained != 0 || st.Discarded != st.Candidates {
		t.Errorf("statistics = %+v, want every candidate discarded", st)
	}
}

func TestExtract_VagueNonFunctional(t *testing.T) {
	out := extract(t, "The system operates quickly.", DefaultOptions())
	if len(out.Elements) != 1 {
		t.Fatalf("elements = %v, want exactly one", keys(out.Elements))
	}
	el := out.Elements[0]
	if el.ID != "UE-001" || el.Key() != "nonfunctional_vagueness/performance" {
		t.Errorf("element = %s %s, want UE-001 nonfunctional_vagueness/performance", el.ID, el.Key())
	}
	if el.Detection.RuleID != "NFR-PERF-01" || el.Detection.Confidence != 0.8 {
		t.Errorf("detection = %+v, want rule NFR-PERF-01 at 0.8 (the heuristic duplicate is weaker)", el.Detection)
	}
	if el.RequirementID != "REQ-001" || el.Context.Match != "quickly" || el.Context.Line != 1 {
		t.Errorf("element context = %+v requirement %s", el.Context, el.RequirementID)
	}
	if el.Title != "Performance target is not quantified" || el.Severity != model.SeverityHigh {
		t.Errorf("title/severity = %q/%s", el.Title, el.Severity)
	}
	if !strings.Contains(el.Questions[0].Text, `"quickly"`) {
		t.Errorf("first question %q should quote the matched term", el.Questions[0].Text)
	}
	if out.Statistics.Candidates != 1 {
		t.Errorf("candidates = %d, want duplicates collapsed to 1", out.Statistics.Candidates)
	}
}

func TestExtract_ConcurrentPurchase(t *testing.T) {
	out := extract(t, concurrencySpec, DefaultOptions())

	want := []string{
		"error_handling_gap/missing_failure_case",
		"behavior_ambiguity/concurrency",
		"data_definition_gap/missing_type",
		"data_definition_gap/missing_constraint",
		"error_handling_gap/missing_failure_case",
	}
	if diff := cmp.Diff(want, keys(out.Elements)); diff != "" {
		t.Fatalf("elements mismatch (-want +got):\n%s", diff)
	}

	conc := out.Elements[1]
	if conc.Detection.RuleID != "BEH-CONC-01" || conc.Detection.Method != model.MethodPatternMatching {
		t.Errorf("concurrency detection = %+v", conc.Detection)
	}
	if conc.Title != "Concurrent access to unit is not specified" {
		t.Errorf("concurrency title = %q", conc.Title)
	}
	if conc.ActionID == "" || conc.ActionID != out.Elements[4].ActionID {
		t.Errorf("concurrency action %q should match the second add action %q", conc.ActionID, out.Elements[4].ActionID)
	}
	if got := out.Elements[2].Terms["attribute"]; got != "stock" {
		t.Errorf("missing_type attribute = %q, want stock", got)
	}

	wantGroups := []model.ElementGroup{
		{ID: "G-001", Members: []string{"UE-001"}, Relationship: model.GroupRelated},
		{ID: "G-002", Members: []string{"UE-002", "UE-003", "UE-004", "UE-005"}, Relationship: model.GroupDependent, ResolveTogether: true},
	}
	if diff := cmp.Diff(wantGroups, out.Groups); diff != "" {
		t.Errorf("groups mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"UE-002", "UE-004", "UE-005"}, out.Elements[2].CrossReferences); diff != "" {
		t.Errorf("cross references mismatch (-want +got):\n%s", diff)
	}

	st := out.Statistics
	if st.Candidates != 8 || st.Retained != 5 || st.Discarded != 3 {
		t.Errorf("statistics = %+v, want 8 candidates, 5 retained, 3 discarded", st)
	}
	if st.ByCategory["error_handling_gap"] != 2 || st.BySeverity[model.SeverityHigh] != 4 {
		t.Errorf("breakdown = %+v / %+v", st.ByCategory, st.BySeverity)
	}
}

// --- Rule engine ---

func TestExtract_ExampleSentencePenalty(t *testing.T) {
	out := extract(t, "For example, the system responds quickly.", DefaultOptions())
	if len(out.Elements) != 1 {
		t.Fatalf("elements = %v, want one", keys(out.Elements))
	}
	if got := out.Elements[0].Detection.Confidence; got != 0.6 {
		t.Errorf("confidence = %v, want 0.8 - 0.2", got)
	}
	w := out.Statistics.Warnings
	if len(w) != 1 || w[0].Kind != model.WarningPatternMatch || w[0].Subject != "NFR-PERF-01" {
		t.Errorf("warnings = %+v, want one pattern_match for NFR-PERF-01", w)
	}
}

func TestExtract_UnlessSuppressesRule(t *testing.T) {
	out := extract(t, "The system responds quickly, within 200 ms.", DefaultOptions())
	for _, el := range out.Elements {
		if el.Detection.RuleID == "NFR-PERF-01" {
			t.Errorf("NFR-PERF-01 fired despite a number in the sentence: %+v", el)
		}
	}
}

func TestExtract_EnabledCategories(t *testing.T) {
	opts := DefaultOptions()
	opts.EnabledCategories = []string{"data_definition_gap"}
	out := extract(t, concurrencySpec, opts)
	for _, el := range out.Elements {
		if el.Category != "data_definition_gap" {
			t.Errorf("element %s in disabled category %s", el.ID, el.Category)
		}
	}
	if out.Statistics.Disabled != 3 || out.Statistics.Retained != 2 {
		t.Errorf("statistics = %+v, want 3 disabled and 2 retained", out.Statistics)
	}
}

func TestExtract_LowerThresholdKeepsUndefinedEntities(t *testing.T) {
	opts := DefaultOptions()
	opts.ConfidenceThreshold = 0.3
	out := extract(t, completeSpec, opts)
	if len(out.Elements) == 0 {
		t.Fatal("expected undefined-entity elements at threshold 0.3")
	}
	for _, el := range out.Elements {
		if el.Key() != "data_definition_gap/undefined_entity" {
			t.Errorf("unexpected element %s", el.Key())
		}
		if el.Detection.Method != model.MethodSemanticAnalysis || el.Severity != model.SeverityLow {
			t.Errorf("element %s detection/severity = %+v/%s", el.ID, el.Detection, el.Severity)
		}
	}
	if out.Statistics.ByConfidence[model.BandLow] != len(out.Elements) {
		t.Errorf("by confidence = %+v, want all low", out.Statistics.ByConfidence)
	}
}

// --- Questions ---

func TestExtract_QuestionsCappedAndPadded(t *testing.T) {
	b := defaults(t)
	out := extract(t, "The system operates quickly.", DefaultOptions())
	qs := out.Elements[0].Questions
	pool := b.Rules.Questions["nonfunctional_vagueness/performance"]
	if len(qs) != 5 {
		t.Fatalf("questions = %d, want 5", len(qs))
	}
	for i := len(pool); i < 5; i++ {
		if qs[i].Text != b.Rules.FallbackQuestions[i-len(pool)].Text {
			t.Errorf("question %d = %q, want fallback %q", i, qs[i].Text, b.Rules.FallbackQuestions[i-len(pool)].Text)
		}
	}

	opts := DefaultOptions()
	opts.MaxQuestions = 2
	out = extract(t, "The system operates quickly.", opts)
	if got := len(out.Elements[0].Questions); got != 2 {
		t.Errorf("questions = %d, want 2", got)
	}
}

func TestQuestions_NoPlaceholderLeftForKnownTerms(t *testing.T) {
	out := extract(t, concurrencySpec, DefaultOptions())
	for _, el := range out.Elements {
		for _, q := range el.Questions {
			if strings.ContainsAny(q.Text, "{}") {
				t.Errorf("%s question %q has an unrendered placeholder", el.ID, q.Text)
			}
		}
	}
}

// --- Grouping ---

func TestExtract_ConflictingCategoriesAreMutuallyExclusive(t *testing.T) {
	opts := DefaultOptions()
	opts.KeywordOverlap = 0.3
	out := extract(t, "The system must be fast and secure.", opts)

	want := []string{"nonfunctional_vagueness/performance", "nonfunctional_vagueness/security"}
	if diff := cmp.Diff(want, keys(out.Elements)); diff != "" {
		t.Fatalf("elements mismatch (-want +got):\n%s", diff)
	}
	if len(out.Groups) != 1 {
		t.Fatalf("groups = %+v, want one", out.Groups)
	}
	g := out.Groups[0]
	if g.Relationship != model.GroupMutuallyExclusive || !g.ResolveTogether {
		t.Errorf("group = %+v, want mutually_exclusive and resolved together", g)
	}
}

func TestGroup_Relationships(t *testing.T) {
	d, err := New(defaults(t).Rules, DefaultOptions())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	el := func(id, cat, entity, text string) model.UndefinedElement {
		return model.UndefinedElement{
			ID: id, Category: cat, Subcategory: "x", EntityID: entity, Title: text,
			Context: model.SourceContext{Text: text},
		}
	}
	const text = "customer cart checkout payment"
	tests := []struct {
		name     string
		els      []model.UndefinedElement
		want     model.GroupRelationship
		together bool
	}{
		{"one category", []model.UndefinedElement{
			el("UE-001", "data_definition_gap", "E-001", text),
			el("UE-002", "data_definition_gap", "E-001", text),
		}, model.GroupRelated, false},
		{"categories linked by entity", []model.UndefinedElement{
			el("UE-001", "data_definition_gap", "E-001", text),
			el("UE-002", "error_handling_gap", "E-001", "refund"),
		}, model.GroupDependent, true},
		{"categories linked by keywords only", []model.UndefinedElement{
			el("UE-001", "data_definition_gap", "E-001", text),
			el("UE-002", "error_handling_gap", "E-002", text),
		}, model.GroupRelated, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			groups := d.group(tt.els)
			if len(groups) != 1 {
				t.Fatalf("groups = %+v, want one", groups)
			}
			g := groups[0]
			if g.Relationship != tt.want || g.ResolveTogether != tt.together {
				t.Errorf("group = %+v, want %s with resolve-together %v", g, tt.want, tt.together)
			}
		})
	}
}

func TestExtract_GroupsPartitionElements(t *testing.T) {
	doc := concurrencySpec + " The system should be fast, secure and easy to use, etc. " +
		"Administrators can delete several reports. The export runs periodically."
	out := extract(t, doc, DefaultOptions())

	seen := map[string]int{}
	for _, g := range out.Groups {
		for _, m := range g.Members {
			seen[m]++
		}
		if g.ResolveTogether != (len(g.Members) >= 2 && g.Relationship != model.GroupRelated) {
			t.Errorf("group %s resolve-together flag inconsistent: %+v", g.ID, g)
		}
	}
	for _, el := range out.Elements {
		if seen[el.ID] != 1 {
			t.Errorf("element %s appears in %d groups, want 1", el.ID, seen[el.ID])
		}
		for _, ref := range el.CrossReferences {
			if ref == el.ID {
				t.Errorf("element %s references itself", el.ID)
			}
		}
	}
	if len(seen) != len(out.Elements) {
		t.Errorf("groups cover %d ids, want %d", len(seen), len(out.Elements))
	}
}

// --- Meta analysis ---

func TestExtract_MetaAnalysis(t *testing.T) {
	b := defaults(t)
	pr := parse(t, b, concurrencySpec)
	d, err := New(b.Rules, DefaultOptions())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	out, err := d.Extract(pr)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	sum := 0.0
	for _, r := range pr.Requirements {
		sum += r.CompletenessScore
	}
	if want := sum / float64(len(pr.Requirements)); out.Meta.OverallCompleteness-want > 1e-4 || want-out.Meta.OverallCompleteness > 1e-4 {
		t.Errorf("overall completeness = %v, want %v", out.Meta.OverallCompleteness, want)
	}
	wantGaps := []string{
		"No failure case for add",
		"Concurrent access to unit is not specified",
		"Type of stock on unit is not defined",
	}
	if diff := cmp.Diff(wantGaps, out.Meta.CriticalGaps); diff != "" {
		t.Errorf("critical gaps mismatch (-want +got):\n%s", diff)
	}
	if len(out.Meta.Recommendations) != 3 || !strings.HasPrefix(out.Meta.Recommendations[0], "Resolve 2 data_definition_gap") {
		t.Errorf("recommendations = %q", out.Meta.Recommendations)
	}
}

// --- Properties ---

func TestExtract_Deterministic(t *testing.T) {
	orig := timeNow
	timeNow = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }
	t.Cleanup(func() { timeNow = orig })

	b := defaults(t)
	pr := parse(t, b, concurrencySpec+" The system should respond quickly.")
	d, err := New(b.Rules, DefaultOptions())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	first, err := d.Extract(pr)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	second, err := d.Extract(pr)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("extract is not deterministic (-first +second):\n%s", diff)
	}
	if first.DocumentID != pr.DocumentID {
		t.Errorf("document id = %s, want %s", first.DocumentID, pr.DocumentID)
	}
}

func TestExtract_ReferencesResolve(t *testing.T) {
	b := defaults(t)
	pr := parse(t, b, concurrencySpec)
	d, err := New(b.Rules, DefaultOptions())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	out, err := d.Extract(pr)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	for _, el := range out.Elements {
		if el.EntityID != "" {
			if _, ok := pr.Entity(el.EntityID); !ok {
				t.Errorf("%s references unknown entity %s", el.ID, el.EntityID)
			}
		}
		if el.ActionID != "" {
			if _, ok := pr.Action(el.ActionID); !ok {
				t.Errorf("%s references unknown action %s", el.ID, el.ActionID)
			}
		}
		if _, ok := pr.Sentence(el.Context.SentenceID); !ok {
			t.Errorf("%s references unknown sentence %s", el.ID, el.Context.SentenceID)
		}
		if el.Detection.Confidence < 0 || el.Detection.Confidence > 1 {
			t.Errorf("%s confidence %v out of [0,1]", el.ID, el.Detection.Confidence)
		}
	}
}
