package config

import (
	"strings"

	"github.com/HendryAvila/specgap/internal/model"
)

// Subcategory is one leaf of the category tree. Title and Description
// are substitution templates over the element's terms.
type Subcategory struct {
	Name        string         `yaml:"name" json:"name"`
	Title       string         `yaml:"title" json:"title"`
	Description string         `yaml:"description" json:"description"`
	Severity    model.Severity `yaml:"severity" json:"severity"`
}

// Category groups subcategories of undefined elements.
type Category struct {
	Name          string        `yaml:"name" json:"name"`
	Description   string        `yaml:"description" json:"description"`
	Subcategories []Subcategory `yaml:"subcategories" json:"subcategories"`
}

// Rule is one row of the ordered detection table. A sentence matching
// Pattern yields a candidate unless it also matches Unless.
type Rule struct {
	ID          string  `yaml:"id" json:"id"`
	Pattern     Pattern `yaml:"pattern" json:"pattern"`
	Unless      Pattern `yaml:"unless,omitempty" json:"unless,omitempty"`
	Category    string  `yaml:"category" json:"category"`
	Subcategory string  `yaml:"subcategory" json:"subcategory"`
	Confidence  float64 `yaml:"confidence" json:"confidence"`
}

// Heuristic binds a semantic check to the category it reports.
type Heuristic struct {
	Category    string  `yaml:"category" json:"category"`
	Subcategory string  `yaml:"subcategory" json:"subcategory"`
	Confidence  float64 `yaml:"confidence" json:"confidence"`
}

// Heuristic names understood by the detector.
const (
	HeuristicMissingType        = "missing_type"
	HeuristicMissingConstraint  = "missing_constraint"
	HeuristicAmbiguousPre       = "ambiguous_precondition"
	HeuristicAmbiguousPost      = "ambiguous_postcondition"
	HeuristicMissingFailureCase = "missing_failure_case"
	HeuristicUndefinedResponse  = "undefined_error_response"
	HeuristicVagueFunctional    = "vague_functional"
	HeuristicVagueNonFunctional = "vague_non_functional"
	HeuristicUndefinedEntity    = "undefined_entity"
)

// HeuristicNames lists every heuristic a rule table must configure.
var HeuristicNames = []string{
	HeuristicMissingType,
	HeuristicMissingConstraint,
	HeuristicAmbiguousPre,
	HeuristicAmbiguousPost,
	HeuristicMissingFailureCase,
	HeuristicUndefinedResponse,
	HeuristicVagueFunctional,
	HeuristicVagueNonFunctional,
	HeuristicUndefinedEntity,
}

// QuestionTemplate is a clarification question with {term} placeholders.
type QuestionTemplate struct {
	Text             string             `yaml:"text" json:"text"`
	Type             model.QuestionType `yaml:"type" json:"type"`
	SuggestedAnswers []string           `yaml:"suggested_answers,omitempty" json:"suggested_answers,omitempty"`
}

// RuleTable is the classification configuration of the detector.
type RuleTable struct {
	Categories        []Category                    `yaml:"categories" json:"categories"`
	Rules             []Rule                        `yaml:"rules" json:"rules"`
	Heuristics        map[string]Heuristic          `yaml:"heuristics" json:"heuristics"`
	Questions         map[string][]QuestionTemplate `yaml:"questions" json:"questions"`
	FallbackQuestions []QuestionTemplate            `yaml:"fallback_questions" json:"fallback_questions"`
	Conflicts         [][]string                    `yaml:"conflicts" json:"conflicts"`
	ExamplePenalty    float64                       `yaml:"example_penalty" json:"example_penalty"`
	VagueThreshold    float64                       `yaml:"vague_threshold" json:"vague_threshold"`
}

// HasCategory reports whether name is a declared category.
func (t *RuleTable) HasCategory(name string) bool {
	for _, c := range t.Categories {
		if c.Name == name {
			return true
		}
	}
	return false
}

// CategoryNames returns declared categories in table order.
func (t *RuleTable) CategoryNames() []string {
	names := make([]string, len(t.Categories))
	for i, c := range t.Categories {
		names[i] = c.Name
	}
	return names
}

// Subcategory looks up a declared subcategory.
func (t *RuleTable) Subcategory(category, name string) (Subcategory, bool) {
	for _, c := range t.Categories {
		if c.Name != category {
			continue
		}
		for _, s := range c.Subcategories {
			if s.Name == name {
				return s, true
			}
		}
	}
	return Subcategory{}, false
}

// hasKey accepts either "category" or "category/subcategory".
func (t *RuleTable) hasKey(key string) bool {
	cat, sub, found := strings.Cut(key, "/")
	if !found {
		return t.HasCategory(cat)
	}
	_, ok := t.Subcategory(cat, sub)
	return ok
}

// Validate checks the table for references to undeclared categories,
// out-of-range confidences and missing heuristics.
func (t *RuleTable) Validate() error {
	const src = "rules"
	if len(t.Categories) == 0 {
		return model.ConfigError(src, "no categories declared")
	}
	seenCat := map[string]bool{}
	for _, c := range t.Categories {
		if c.Name == "" {
			return model.ConfigError(src, "category with empty name")
		}
		if seenCat[c.Name] {
			return model.ConfigError(src, "duplicate category %q", c.Name)
		}
		seenCat[c.Name] = true
		if len(c.Subcategories) == 0 {
			return model.ConfigError(src, "category %q has no subcategories", c.Name)
		}
		for _, s := range c.Subcategories {
			if s.Name == "" || s.Title == "" {
				return model.ConfigError(src, "category %q: subcategory needs name and title", c.Name)
			}
			if err := model.ValidateSeverity(s.Severity); err != nil {
				return model.ConfigError(src, "%s/%s: %v", c.Name, s.Name, err)
			}
		}
	}

	seenRule := map[string]bool{}
	for i, r := range t.Rules {
		if r.ID == "" {
			return model.ConfigError(src, "rules[%d]: empty id", i)
		}
		if seenRule[r.ID] {
			return model.ConfigError(src, "duplicate rule id %q", r.ID)
		}
		seenRule[r.ID] = true
		if r.Pattern.Empty() {
			return model.ConfigError(src, "rule %s: empty pattern", r.ID)
		}
		if _, ok := t.Subcategory(r.Category, r.Subcategory); !ok {
			return model.ConfigError(src, "rule %s: undeclared category %s/%s", r.ID, r.Category, r.Subcategory)
		}
		if r.Confidence < 0 || r.Confidence > 1 {
			return model.ConfigError(src, "rule %s: confidence %.2f outside [0,1]", r.ID, r.Confidence)
		}
	}

	for _, name := range HeuristicNames {
		h, ok := t.Heuristics[name]
		if !ok {
			return model.ConfigError(src, "heuristic %q is not configured", name)
		}
		if _, ok := t.Subcategory(h.Category, h.Subcategory); !ok {
			return model.ConfigError(src, "heuristic %s: undeclared category %s/%s", name, h.Category, h.Subcategory)
		}
		if h.Confidence < 0 || h.Confidence > 1 {
			return model.ConfigError(src, "heuristic %s: confidence %.2f outside [0,1]", name, h.Confidence)
		}
	}

	for key, pool := range t.Questions {
		if !t.hasKey(key) || !strings.Contains(key, "/") {
			return model.ConfigError(src, "questions for undeclared subcategory %q", key)
		}
		for _, q := range pool {
			if err := model.ValidateQuestionType(q.Type); err != nil {
				return model.ConfigError(src, "questions[%s]: %v", key, err)
			}
		}
	}
	for _, q := range t.FallbackQuestions {
		if err := model.ValidateQuestionType(q.Type); err != nil {
			return model.ConfigError(src, "fallback_questions: %v", err)
		}
	}

	for i, pair := range t.Conflicts {
		if len(pair) != 2 {
			return model.ConfigError(src, "conflicts[%d]: want exactly two entries, got %d", i, len(pair))
		}
		for _, side := range pair {
			if !t.hasKey(side) {
				return model.ConfigError(src, "conflicts[%d]: undeclared %q", i, side)
			}
		}
	}

	if t.ExamplePenalty < 0 || t.ExamplePenalty > 1 {
		return model.ConfigError(src, "example_penalty %.2f outside [0,1]", t.ExamplePenalty)
	}
	if t.VagueThreshold <= 0 || t.VagueThreshold > 1 {
		return model.ConfigError(src, "vague_threshold %.2f outside (0,1]", t.VagueThreshold)
	}
	return nil
}
