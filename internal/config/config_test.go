package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/HendryAvila/specgap/internal/model"
)

func mustDefault(t *testing.T) *Bundle {
	t.Helper()
	b, err := Default()
	if err != nil {
		t.Fatalf("Default() failed: %v", err)
	}
	return b
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
}

func wantConfigError(t *testing.T, err error, contains string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected a configuration error containing %q, got nil", contains)
	}
	var cfgErr *model.ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("error type = %T, want *model.ConfigurationError (%v)", err, err)
	}
	if !strings.Contains(err.Error(), contains) {
		t.Errorf("error = %q, want it to contain %q", err.Error(), contains)
	}
}

// --- Defaults ---

func TestDefault_LoadsEveryTable(t *testing.T) {
	b := mustDefault(t)

	wantCategories := []string{
		"data_definition_gap",
		"behavior_ambiguity",
		"error_handling_gap",
		"nonfunctional_vagueness",
		"scope_ambiguity",
	}
	if diff := cmp.Diff(wantCategories, b.Rules.CategoryNames()); diff != "" {
		t.Errorf("categories mismatch (-want +got):\n%s", diff)
	}
	for _, name := range HeuristicNames {
		if _, ok := b.Rules.Heuristics[name]; !ok {
			t.Errorf("heuristic %s missing from defaults", name)
		}
	}
	if len(b.Lexicon.SentenceCues) == 0 {
		t.Error("lexicon has no sentence cues")
	}
	if b.Knowledge.SimilarIncidentLimit != 3 {
		t.Errorf("SimilarIncidentLimit = %d, want 3", b.Knowledge.SimilarIncidentLimit)
	}
	if b.Rules.ExamplePenalty != 0.2 || b.Rules.VagueThreshold != 0.6 {
		t.Errorf("penalty/threshold = %.2f/%.2f, want 0.20/0.60", b.Rules.ExamplePenalty, b.Rules.VagueThreshold)
	}
}

func TestDefault_EveryCategoryHasBaseScoresAndTemplates(t *testing.T) {
	b := mustDefault(t)
	for _, c := range b.Rules.CategoryNames() {
		if _, ok := b.Knowledge.BaseScores[c]; !ok {
			t.Errorf("no base scores for %s", c)
		}
		if _, ok := b.Planning.Template(c, model.PhaseOperation); !ok {
			t.Errorf("no fallback action template for %s", c)
		}
	}
}

func TestDefault_ReturnsIndependentBundles(t *testing.T) {
	a := mustDefault(t)
	b := mustDefault(t)
	a.Rules.Categories[0].Name = "mutated"
	if b.Rules.Categories[0].Name == "mutated" {
		t.Error("bundles share state")
	}
}

// --- LoadDir ---

func TestLoadDir_MissingFilesFallBackToDefaults(t *testing.T) {
	b, err := LoadDir(t.TempDir())
	if err != nil {
		t.Fatalf("LoadDir failed: %v", err)
	}
	if len(b.Rules.Rules) == 0 {
		t.Error("expected default rules")
	}
}

func TestLoadDir_OverridesOneFile(t *testing.T) {
	dir := t.TempDir()
	data, err := DefaultFile(KnowledgeFile)
	if err != nil {
		t.Fatalf("DefaultFile failed: %v", err)
	}
	custom := strings.Replace(string(data), "similar_incident_limit: 3", "similar_incident_limit: 1", 1)
	writeFile(t, dir, KnowledgeFile, custom)

	b, err := LoadDir(dir)
	if err != nil {
		t.Fatalf("LoadDir failed: %v", err)
	}
	if b.Knowledge.SimilarIncidentLimit != 1 {
		t.Errorf("SimilarIncidentLimit = %d, want 1", b.Knowledge.SimilarIncidentLimit)
	}
}

func TestLoadDir_UnknownFieldIsRejected(t *testing.T) {
	dir := t.TempDir()
	data, _ := DefaultFile(RulesFile)
	writeFile(t, dir, RulesFile, string(data)+"\nunknown_field: true\n")

	_, err := LoadDir(dir)
	wantConfigError(t, err, RulesFile)
}

func TestLoadDir_BadRegexReportsLine(t *testing.T) {
	dir := t.TempDir()
	data, _ := DefaultFile(LexiconFile)
	bad := strings.Replace(string(data), "sentence_cues:\n", "sentence_cues:\n  - {type: requirement, pattern: '(unclosed'}\n", 1)
	writeFile(t, dir, LexiconFile, bad)

	_, err := LoadDir(dir)
	wantConfigError(t, err, "line ")
}

func TestLoadDir_UnreadableFileIsConfigError(t *testing.T) {
	dir := t.TempDir()
	// A directory where the file should be fails the read with a non
	// not-exist error.
	if err := os.Mkdir(filepath.Join(dir, PlanningFile), 0o755); err != nil {
		t.Fatalf("Mkdir failed: %v", err)
	}
	_, err := LoadDir(dir)
	wantConfigError(t, err, PlanningFile)
}

// --- Validation ---

func TestRuleTable_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*RuleTable)
		want   string
	}{
		{"rule with undeclared category", func(r *RuleTable) { r.Rules[0].Category = "nope" }, "undeclared category"},
		{"duplicate rule id", func(r *RuleTable) { r.Rules[1].ID = r.Rules[0].ID }, "duplicate rule id"},
		{"confidence above one", func(r *RuleTable) { r.Rules[0].Confidence = 1.5 }, "outside [0,1]"},
		{"missing heuristic", func(r *RuleTable) { delete(r.Heuristics, HeuristicMissingType) }, "missing_type"},
		{"conflict with one side", func(r *RuleTable) { r.Conflicts = [][]string{{"scope_ambiguity"}} }, "exactly two"},
		{"questions for unknown key", func(r *RuleTable) {
			r.Questions["nope/nothing"] = []QuestionTemplate{{Text: "x", Type: model.QuestionClarification}}
		}, "undeclared subcategory"},
		{"zero vague threshold", func(r *RuleTable) { r.VagueThreshold = 0 }, "vague_threshold"},
		{"bad severity", func(r *RuleTable) { r.Categories[0].Subcategories[0].Severity = "urgent" }, "invalid severity"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := mustDefault(t)
			tt.mutate(&b.Rules)
			wantConfigError(t, b.Rules.Validate(), tt.want)
		})
	}
}

func TestKnowledgeBase_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*KnowledgeBase)
		want   string
	}{
		{"missing base scores", func(kb *KnowledgeBase) { delete(kb.BaseScores, "scope_ambiguity") }, "no base scores"},
		{"score out of range", func(kb *KnowledgeBase) {
			s := kb.BaseScores["scope_ambiguity"]
			s.Impact = 6
			kb.BaseScores["scope_ambiguity"] = s
		}, "[1,5]"},
		{"missing criticality multiplier", func(kb *KnowledgeBase) { delete(kb.CriticalityMultipliers, model.CriticalityHigh) }, "criticality multiplier"},
		{"incident with unknown pattern", func(kb *KnowledgeBase) { kb.Incidents[0].PatternID = "RP-NOPE" }, "known pattern"},
		{"duplicate pattern", func(kb *KnowledgeBase) { kb.Patterns[1].ID = kb.Patterns[0].ID }, "duplicate pattern"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := mustDefault(t)
			tt.mutate(&b.Knowledge)
			wantConfigError(t, b.Validate(), tt.want)
		})
	}
}

func TestPlanningTable_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*PlanningTable)
		want   string
	}{
		{"no catch-all", func(p *PlanningTable) {
			kept := p.PhaseRules[:0]
			for _, r := range p.PhaseRules {
				if r.Category == "scope_ambiguity" {
					continue
				}
				kept = append(kept, r)
			}
			p.PhaseRules = kept
		}, "catch-all"},
		{"bad phase", func(p *PlanningTable) { p.PhaseRules[0].Phase = "shipping" }, "invalid phase"},
		{"no defer alternative", func(p *PlanningTable) {
			kept := p.Alternatives[:0]
			for _, a := range p.Alternatives {
				if a.Kind != model.AlternativeDefer {
					kept = append(kept, a)
				}
			}
			p.Alternatives = kept
		}, "alternatives"},
		{"missing urgency", func(p *PlanningTable) { delete(p.Urgency, model.RiskLow) }, "no urgency"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := mustDefault(t)
			tt.mutate(&b.Planning)
			wantConfigError(t, b.Validate(), tt.want)
		})
	}
}

func TestPlanningTable_TemplateFallsBackToAnyPhase(t *testing.T) {
	b := mustDefault(t)

	exact, ok := b.Planning.Template("behavior_ambiguity", model.PhaseDesign)
	if !ok || exact.Phase != string(model.PhaseDesign) {
		t.Errorf("Template(behavior_ambiguity, design) = %+v, %v; want the design template", exact, ok)
	}
	fallback, ok := b.Planning.Template("behavior_ambiguity", model.PhaseTesting)
	if !ok || fallback.Phase != AnyPhase {
		t.Errorf("Template(behavior_ambiguity, testing) = %+v, %v; want the %q template", fallback, ok, AnyPhase)
	}
	if _, ok := b.Planning.Template("unknown", model.PhaseDesign); ok {
		t.Error("unknown category should have no template")
	}
}

func TestPhaseRule_Matches(t *testing.T) {
	r := PhaseRule{Category: "c", Subcategory: "s", Levels: []model.RiskLevel{model.RiskHigh}, Phase: model.PhaseDesign}
	tests := []struct {
		cat, sub string
		level    model.RiskLevel
		want     bool
	}{
		{"c", "s", model.RiskHigh, true},
		{"c", "s", model.RiskLow, false},
		{"c", "x", model.RiskHigh, false},
		{"x", "s", model.RiskHigh, false},
	}
	for _, tt := range tests {
		if got := r.Matches(tt.cat, tt.sub, tt.level); got != tt.want {
			t.Errorf("Matches(%s, %s, %s) = %v, want %v", tt.cat, tt.sub, tt.level, got, tt.want)
		}
	}
}

// --- Pattern ---

func TestPattern_EmptyNeverMatches(t *testing.T) {
	var p Pattern
	if p.MatchString("anything") {
		t.Error("empty pattern matched")
	}
	if p.FindIndex("anything") != nil || p.CountMatches("anything") != 0 {
		t.Error("empty pattern reported matches")
	}
}

func TestPattern_CountMatches(t *testing.T) {
	p := MustPattern(`(?i)\bfast\b`)
	if got := p.CountMatches("Fast, fast and faster"); got != 2 {
		t.Errorf("CountMatches = %d, want 2", got)
	}
}

func TestNewPattern_InvalidExpression(t *testing.T) {
	if _, err := NewPattern("(unclosed"); err == nil {
		t.Error("expected compile error")
	}
}

// --- Holder ---

func TestHolder_SwapRejectsInvalidAndKeepsCurrent(t *testing.T) {
	good := mustDefault(t)
	h, err := NewHolder(good)
	if err != nil {
		t.Fatalf("NewHolder failed: %v", err)
	}

	bad := mustDefault(t)
	delete(bad.Knowledge.BaseScores, "scope_ambiguity")
	wantConfigError(t, h.Swap(bad), "no base scores")

	if h.Load() != good {
		t.Error("invalid bundle replaced the current one")
	}
	if err := h.Swap(nil); err == nil {
		t.Error("Swap(nil) should fail")
	}
}

func TestHolder_ConcurrentLoadAndSwap(t *testing.T) {
	h, err := NewHolder(mustDefault(t))
	if err != nil {
		t.Fatalf("NewHolder failed: %v", err)
	}
	next := mustDefault(t)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				if h.Load() == nil {
					t.Error("Load returned nil")
					return
				}
			}
		}()
	}
	if err := h.Swap(next); err != nil {
		t.Errorf("Swap failed: %v", err)
	}
	wg.Wait()
	if h.Load() != next {
		t.Error("Load did not return the swapped bundle")
	}
}

func TestHolder_ReloadFailureKeepsCurrent(t *testing.T) {
	current := mustDefault(t)
	h, _ := NewHolder(current)

	dir := t.TempDir()
	writeFile(t, dir, RulesFile, "categories: []\n")
	if err := h.Reload(dir); err == nil {
		t.Fatal("Reload should fail with an empty rule table")
	}
	if h.Load() != current {
		t.Error("failed reload replaced the current bundle")
	}
}

// --- Project files ---

func TestSaveProject_LoadProjectRoot(t *testing.T) {
	root := t.TempDir()
	want := model.ProjectStatus{
		Name:         "shop",
		CurrentPhase: model.PhaseImplementation,
		Criticality:  model.CriticalityHigh,
		Team:         []model.Member{{Name: "Ana", Role: "analyst"}},
		Constraints:  model.ProjectConstraints{BudgetHours: 40},
	}
	if err := SaveProject(root, want); err != nil {
		t.Fatalf("SaveProject failed: %v", err)
	}
	if !ProjectExists(root) {
		t.Fatal("ProjectExists = false after save")
	}

	got, err := LoadProjectRoot(root)
	if err != nil {
		t.Fatalf("LoadProjectRoot failed: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("project mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadProjectRoot_DefaultsWhenAbsent(t *testing.T) {
	got, err := LoadProjectRoot(t.TempDir())
	if err != nil {
		t.Fatalf("LoadProjectRoot failed: %v", err)
	}
	if diff := cmp.Diff(model.DefaultProjectStatus(), got); diff != "" {
		t.Errorf("default mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadProject_JSONFillsDefaults(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "p.json", `{"name": "api", "current_phase": "testing"}`)

	got, err := LoadProject(filepath.Join(dir, "p.json"))
	if err != nil {
		t.Fatalf("LoadProject failed: %v", err)
	}
	if got.CurrentPhase != model.PhaseTesting || got.Criticality != model.CriticalityMedium {
		t.Errorf("got phase %s criticality %s, want testing/medium", got.CurrentPhase, got.Criticality)
	}
}

func TestLoadProject_InvalidInput(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "p.toml", "name = 'x'")
	writeFile(t, dir, "bad.yaml", "current_phase: shipping\n")

	for _, path := range []string{
		filepath.Join(dir, "p.toml"),
		filepath.Join(dir, "bad.yaml"),
		filepath.Join(dir, "missing.yaml"),
	} {
		_, err := LoadProject(path)
		var inErr *model.InvalidInputError
		if !errors.As(err, &inErr) {
			t.Errorf("LoadProject(%s) error = %v, want InvalidInputError", filepath.Base(path), err)
		}
	}
}

func TestFindProjectRoot_WalksUp(t *testing.T) {
	root := t.TempDir()
	if err := SaveProject(root, model.DefaultProjectStatus()); err != nil {
		t.Fatalf("SaveProject failed: %v", err)
	}
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}

	if got := FindProjectRoot(nested); got != root {
		t.Errorf("FindProjectRoot = %s, want %s", got, root)
	}

	lonely := t.TempDir()
	if got := FindProjectRoot(lonely); got != lonely {
		t.Errorf("FindProjectRoot without project = %s, want %s", got, lonely)
	}
}

func TestParseProject(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  model.ProjectStatus
	}{
		{"blank", "  ", model.DefaultProjectStatus()},
		{"yaml", "name: shop\ncurrent_phase: design\n", model.ProjectStatus{Name: "shop", CurrentPhase: model.PhaseDesign, Criticality: model.CriticalityMedium}},
		{"json", `{"criticality": "high", "constraints": {"budget_hours": 12}}`, model.ProjectStatus{
			CurrentPhase: model.PhaseRequirementDefinition,
			Criticality:  model.CriticalityHigh,
			Constraints:  model.ProjectConstraints{BudgetHours: 12},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseProject(tt.input)
			if err != nil {
				t.Fatalf("ParseProject failed: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseProject_Invalid(t *testing.T) {
	for _, in := range []string{"current_phase: shipping", "criticality: [", "{"} {
		_, err := ParseProject(in)
		var inErr *model.InvalidInputError
		if !errors.As(err, &inErr) {
			t.Errorf("ParseProject(%q) error = %v, want InvalidInputError", in, err)
		}
	}
}
