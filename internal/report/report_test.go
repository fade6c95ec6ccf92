package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/HendryAvila/specgap/internal/model"
	"github.com/HendryAvila/specgap/internal/pipeline"
	"github.com/HendryAvila/specgap/internal/templates"
)

var t0 = time.Date(2026, 5, 4, 9, 30, 0, 0, time.UTC)

func init() {
	// Freeze time for deterministic tests.
	timeNow = func() time.Time { return t0 }
}

// sampleResult is a hand-built run: two elements, a critical and a
// medium risk, and one recommendation that rolls back a phase.
func sampleResult() *pipeline.Result {
	return &pipeline.Result{
		Parsed: &model.ParsedRequirement{
			Stamp:        model.Stamp{DocumentID: "doc-1"},
			Requirements: []model.Requirement{{ID: "REQ-001"}, {ID: "REQ-002"}},
			Statistics:   model.ParseStatistics{Requirements: 2, AverageCompleteness: 0.4, AverageAmbiguity: 0.72},
		},
		Elements: &model.UndefinedElements{
			Elements: []model.UndefinedElement{{ID: "UE-001"}, {ID: "UE-002"}},
			Meta:     model.MetaAnalysis{OverallCompleteness: 0.55},
		},
		Risks: &model.RiskAnalysisResult{
			Risks: []model.Risk{
				{ID: "R-002", ElementID: "UE-002", Title: "Concurrent access to unit is not specified", Level: model.RiskCritical, TotalScore: 4.34},
				{ID: "R-001", ElementID: "UE-001", Title: "Scope is open-ended", Level: model.RiskMedium, TotalScore: 2},
			},
			Statistics: model.RiskStatistics{
				Total:   2,
				ByLevel: map[model.RiskLevel]int{model.RiskCritical: 1, model.RiskMedium: 1},
			},
		},
		Plan: &model.RemediationPlan{
			Recommendations: []model.Recommendation{{
				ID: "REC-002", RiskID: "R-002", ElementID: "UE-002", Priority: 1,
				Urgency: model.UrgencyImmediate,
				Action:  model.ActionPlan{Title: "Design the rule for add on unit", EffortHours: 7},
			}},
			Statistics: model.PlanStatistics{Total: 1, TotalEffortHours: 7, RollbackWarnings: 1},
		},
	}
}

func mustWriter(t *testing.T) *Writer {
	t.Helper()
	r, err := templates.NewRenderer()
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	return NewWriter(r)
}

// --- ParseFormat ---

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want Format
	}{
		{"json", FormatJSON},
		{"MD", FormatMarkdown},
		{"markdown", FormatMarkdown},
		{" text ", FormatText},
		{"txt", FormatText},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if err != nil || got != tt.want {
				t.Errorf("ParseFormat(%q) = %q, %v, want %q", tt.in, got, err, tt.want)
			}
		})
	}
}

func TestParseFormat_Unknown(t *testing.T) {
	_, err := ParseFormat("xml")
	var inErr *model.InvalidInputError
	if !errors.As(err, &inErr) {
		t.Errorf("ParseFormat(xml) error = %v, want InvalidInputError", err)
	}
}

// --- Summarize ---

func TestSummarize_NilResult(t *testing.T) {
	s := Summarize(nil)
	if s.OverallAssessment != model.AssessmentInsufficient || s.KeyFindings != nil {
		t.Errorf("Summarize(nil) = %+v", s)
	}
}

func TestSummarize_FullRun(t *testing.T) {
	want := model.ExecutiveSummary{
		OverallAssessment: model.AssessmentNeedsImprovement,
		Completeness:      0.55,
		Ambiguity:         0.72,
		Requirements:      2,
		Elements:          2,
		CriticalRisks:     1,
		HighRisks:         0,
		Recommendations:   1,
		EffortHours:       7,
		KeyFindings: []string{
			`1 high or critical risks, led by: "Concurrent access to unit is not specified"`,
			"average ambiguity 0.72: much of the wording cannot be tested as written",
			"1 recommendations belong to a phase the project has already left",
		},
		TopRisks: []model.TopRisk{
			{RiskID: "R-002", ElementID: "UE-002", Title: "Concurrent access to unit is not specified", Level: model.RiskCritical, Score: 4.34, Action: "Design the rule for add on unit", Urgency: model.UrgencyImmediate},
			{RiskID: "R-001", ElementID: "UE-001", Title: "Scope is open-ended", Level: model.RiskMedium, Score: 2},
		},
	}
	if diff := cmp.Diff(want, Summarize(sampleResult())); diff != "" {
		t.Errorf("Summarize mismatch (-want +got):\n%s", diff)
	}
}

func TestSummarize_ParseOnlyUsesParseCompleteness(t *testing.T) {
	res := &pipeline.Result{Parsed: &model.ParsedRequirement{
		Statistics: model.ParseStatistics{AverageCompleteness: 0.756, AverageAmbiguity: 0.3},
	}}
	s := Summarize(res)
	if s.Completeness != 0.76 || s.OverallAssessment != model.AssessmentGood {
		t.Errorf("completeness = %v (%s), want 0.76 (good)", s.Completeness, s.OverallAssessment)
	}
	if len(s.KeyFindings) != 0 || s.TopRisks != nil {
		t.Errorf("parse-only summary has findings %v / top risks %v", s.KeyFindings, s.TopRisks)
	}
}

func TestSummarize_ManyElementsAndTopRiskLimit(t *testing.T) {
	res := &pipeline.Result{
		Elements: &model.UndefinedElements{Elements: make([]model.UndefinedElement, 11)},
		Risks:    &model.RiskAnalysisResult{Risks: make([]model.Risk, 7)},
	}
	for i := range res.Risks.Risks {
		res.Risks.Risks[i] = model.Risk{ID: model.SeqID("R", i+1), Level: model.RiskLow, TotalScore: 1}
	}
	s := Summarize(res)
	if len(s.TopRisks) != TopRiskLimit || s.TopRisks[4].RiskID != "R-005" {
		t.Errorf("top risks = %+v, want the first %d", s.TopRisks, TopRiskLimit)
	}
	want := []string{"11 undefined elements: the specification needs a broad review before design"}
	if diff := cmp.Diff(want, s.KeyFindings); diff != "" {
		t.Errorf("findings mismatch (-want +got):\n%s", diff)
	}
}

func TestAnalysis_CarriesStages(t *testing.T) {
	res := sampleResult()
	d := Analysis("cart.md", res)
	if d.Title != "cart.md" || d.Plan != res.Plan || d.Parsed != res.Parsed || d.Summary.Elements != 2 {
		t.Errorf("Analysis = %+v", d)
	}
}

// --- DecisionReport ---

func TestDecisionReport_LatestPerElementAndDeferredHighRisk(t *testing.T) {
	history := []model.Decision{
		{ID: 1, ElementID: "UE-002", Kind: model.DecisionDefer, Reason: "after launch", Timestamp: t0},
		{ID: 2, ElementID: "UE-001", Kind: model.DecisionAccept, Timestamp: t0},
		{ID: 3, ElementID: "UE-002", Kind: model.DecisionResolve, Timestamp: t0.Add(-time.Hour)},
		{ID: 4, ElementID: "UE-004", Kind: model.DecisionDefer, Timestamp: t0},
		{ID: 5, ElementID: "UE-003", Kind: model.DecisionDefer, Timestamp: t0},
	}
	risks := &model.RiskAnalysisResult{Risks: []model.Risk{
		{ID: "R-002", ElementID: "UE-002", Title: "Concurrent access", Level: model.RiskCritical},
		{ID: "R-003", ElementID: "UE-003", Title: "Scope", Level: model.RiskMedium},
	}}

	want := model.DecisionReport{
		GeneratedAt: t0,
		Records:     5,
		Elements:    4,
		ByKind: map[model.DecisionKind][]model.Decision{
			model.DecisionAccept: {history[1]},
			model.DecisionDefer:  {history[0], history[4], history[3]},
		},
		DeferredHighRisk: []model.DeferredRisk{
			{Decision: history[0], RiskID: "R-002", Title: "Concurrent access", Level: model.RiskCritical},
		},
	}
	if diff := cmp.Diff(want, DecisionReport(history, risks)); diff != "" {
		t.Errorf("DecisionReport mismatch (-want +got):\n%s", diff)
	}
}

func TestDecisionReport_NoRisks(t *testing.T) {
	history := []model.Decision{{ID: 1, ElementID: "UE-001", Kind: model.DecisionDefer, Timestamp: t0}}
	rep := DecisionReport(history, nil)
	if rep.Elements != 1 || rep.DeferredHighRisk != nil {
		t.Errorf("report = %+v", rep)
	}
}

// --- Writer ---

func TestWrite_JSON(t *testing.T) {
	var buf bytes.Buffer
	if err := mustWriter(t).Write(&buf, FormatJSON, Summarize(sampleResult())); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	var got model.ExecutiveSummary
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("output is not json: %v\n%s", err, buf.String())
	}
	if got.CriticalRisks != 1 || !strings.Contains(buf.String(), "\n  \"overall_assessment\"") {
		t.Errorf("unexpected json:\n%s", buf.String())
	}
}

func TestWrite_UnknownFormat(t *testing.T) {
	err := mustWriter(t).Write(&bytes.Buffer{}, "yaml", struct{}{})
	var inErr *model.InvalidInputError
	if !errors.As(err, &inErr) {
		t.Errorf("Write error = %v, want InvalidInputError", err)
	}
}

func TestWrite_MarkdownAnalysis(t *testing.T) {
	var buf bytes.Buffer
	if err := mustWriter(t).Write(&buf, FormatMarkdown, Analysis("Cart", sampleResult())); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	for _, want := range []string{"# Cart", "**Overall assessment:** needs_improvement", "## Top risks", "R-002"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("markdown missing %q\n---\n%s", want, buf.String())
		}
	}
}

func TestWrite_MarkdownDecisionHistory(t *testing.T) {
	var buf bytes.Buffer
	history := []model.Decision{{ID: 1, ElementID: "UE-001", Kind: model.DecisionAccept, Reason: "a|b", Timestamp: t0}}
	if err := mustWriter(t).Write(&buf, FormatMarkdown, history); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	want := "| 1 | UE-001 | accept |  | a\\|b | 2026-05-04T09:30:00Z |"
	if !strings.Contains(buf.String(), want) {
		t.Errorf("markdown missing %q\n---\n%s", want, buf.String())
	}
}

func TestWrite_MarkdownBatch(t *testing.T) {
	b := &pipeline.Batch{
		RunID:  "run-1",
		Failed: 1,
		Results: []pipeline.JobResult{
			{Name: "cart.md", Result: sampleResult()},
			{Name: "empty.md", Err: errors.New("boom"), Error: "boom"},
		},
	}
	out, err := mustWriter(t).Markdown(b)
	if err != nil {
		t.Fatalf("Markdown failed: %v", err)
	}
	for _, want := range []string{"# Batch run-1", "2 documents, 1 failed", "# cart.md", "# empty.md\n\nFailed: boom"} {
		if !strings.Contains(out, want) {
			t.Errorf("markdown missing %q\n---\n%s", want, out)
		}
	}
}

func TestMarkdown_UnsupportedType(t *testing.T) {
	if _, err := mustWriter(t).Markdown(42); err == nil {
		t.Error("expected an error for an int")
	}
}

func TestWrite_TextRisks(t *testing.T) {
	var buf bytes.Buffer
	if err := mustWriter(t).Write(&buf, FormatText, sampleResult().Risks); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	lines := strings.Split(buf.String(), "\n")
	if !strings.HasPrefix(lines[2], "ID ") || !strings.HasPrefix(lines[3], "-- ") {
		t.Errorf("missing header and rule:\n%s", buf.String())
	}
	if !strings.Contains(lines[4], "R-002") || !strings.Contains(lines[4], "critical") || !strings.Contains(lines[4], "4.34") {
		t.Errorf("first row = %q", lines[4])
	}
}

func TestWrite_TextBatchShowsFailures(t *testing.T) {
	b := &pipeline.Batch{RunID: "run-1", Failed: 1, Results: []pipeline.JobResult{
		{Name: "empty.md", Err: errors.New("boom"), Error: "boom"},
	}}
	var buf bytes.Buffer
	if err := mustWriter(t).Write(&buf, FormatText, b); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if !strings.Contains(buf.String(), "empty.md") || !strings.Contains(buf.String(), "failed") {
		t.Errorf("text output:\n%s", buf.String())
	}
}

func TestWrite_TextUnsupportedType(t *testing.T) {
	if err := mustWriter(t).Write(&bytes.Buffer{}, FormatText, 42); err == nil {
		t.Error("expected an error for an int")
	}
}

// --- Helpers ---

func TestTable_Aligns(t *testing.T) {
	var buf bytes.Buffer
	if err := table(&buf, []string{"ID", "Name"}, [][]string{{"R-1", "alpha"}}); err != nil {
		t.Fatal(err)
	}
	want := "ID   Name\n--   ----\nR-1  alpha\n"
	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Errorf("table mismatch (-want +got):\n%s", diff)
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"short", 10, "short"},
		{"exactly10!", 10, "exactly10!"},
		{"a longer title", 10, "a longe..."},
		{"überlänge", 6, "übe..."},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.n); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}
