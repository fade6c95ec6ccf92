package config

import (
	"github.com/HendryAvila/specgap/internal/model"
)

// AnyPhase keys an action template that applies in every phase.
const AnyPhase = "*"

// PhaseRule is one row of the phase decision table. Empty Subcategory
// or Levels match anything; a row with neither is the category's
// catch-all.
type PhaseRule struct {
	Category    string            `yaml:"category" json:"category"`
	Subcategory string            `yaml:"subcategory,omitempty" json:"subcategory,omitempty"`
	Levels      []model.RiskLevel `yaml:"levels,omitempty" json:"levels,omitempty"`
	Phase       model.Phase       `yaml:"phase" json:"phase"`
}

// Matches reports whether the row applies to an element.
func (r PhaseRule) Matches(category, subcategory string, level model.RiskLevel) bool {
	if r.Category != category {
		return false
	}
	if r.Subcategory != "" && r.Subcategory != subcategory {
		return false
	}
	if len(r.Levels) == 0 {
		return true
	}
	for _, l := range r.Levels {
		if l == level {
			return true
		}
	}
	return false
}

func (r PhaseRule) catchAll() bool {
	return r.Subcategory == "" && len(r.Levels) == 0
}

// StepTemplate is one step of an action template.
type StepTemplate struct {
	Description string  `yaml:"description" json:"description"`
	Role        string  `yaml:"role" json:"role"`
	Hours       float64 `yaml:"hours" json:"hours"`
}

// ActionTemplate is the remediation recipe for a (category, phase) pair.
type ActionTemplate struct {
	Category           string         `yaml:"category" json:"category"`
	Phase              string         `yaml:"phase" json:"phase"`
	Title              string         `yaml:"title" json:"title"`
	Steps              []StepTemplate `yaml:"steps" json:"steps"`
	Deliverables       []string       `yaml:"deliverables" json:"deliverables"`
	AcceptanceCriteria []string       `yaml:"acceptance_criteria" json:"acceptance_criteria"`
}

// AlternativeTemplate describes an option other than resolving now.
// ResidualShift moves the residual risk level up or down from the
// risk's own level.
type AlternativeTemplate struct {
	Kind          model.AlternativeKind `yaml:"kind" json:"kind"`
	Title         string                `yaml:"title" json:"title"`
	ResidualShift int                   `yaml:"residual_shift" json:"residual_shift"`
	Conditions    string                `yaml:"conditions" json:"conditions"`
}

// PlanningTable is the configuration of the remediation planner.
type PlanningTable struct {
	PhaseRules         []PhaseRule                       `yaml:"phase_rules" json:"phase_rules"`
	ActionTemplates    []ActionTemplate                  `yaml:"action_templates" json:"action_templates"`
	Alternatives       []AlternativeTemplate             `yaml:"alternatives" json:"alternatives"`
	Urgency            map[model.RiskLevel]model.Urgency `yaml:"urgency" json:"urgency"`
	RiskScores         map[model.RiskLevel]float64       `yaml:"risk_scores" json:"risk_scores"`
	UrgencyScores      map[model.Urgency]float64         `yaml:"urgency_scores" json:"urgency_scores"`
	EscalateOnRollback bool                              `yaml:"escalate_on_rollback" json:"escalate_on_rollback"`
}

// Template returns the action template for (category, phase), falling
// back to the category's any-phase template.
func (t *PlanningTable) Template(category string, phase model.Phase) (ActionTemplate, bool) {
	var fallback *ActionTemplate
	for i := range t.ActionTemplates {
		tpl := &t.ActionTemplates[i]
		if tpl.Category != category {
			continue
		}
		if tpl.Phase == string(phase) {
			return *tpl, true
		}
		if tpl.Phase == AnyPhase && fallback == nil {
			fallback = tpl
		}
	}
	if fallback != nil {
		return *fallback, true
	}
	return ActionTemplate{}, false
}

var allLevels = []model.RiskLevel{model.RiskLow, model.RiskMedium, model.RiskHigh, model.RiskCritical}

var allUrgencies = []model.Urgency{model.UrgencyLow, model.UrgencyMedium, model.UrgencyHigh, model.UrgencyImmediate}

// Validate checks that every category has a catch-all phase rule and an
// any-phase action template, and that accept and defer alternatives exist.
func (t *PlanningTable) Validate(categories []string) error {
	const src = "planning table"
	known := map[string]bool{}
	for _, c := range categories {
		known[c] = true
	}

	catchAll := map[string]bool{}
	for i, r := range t.PhaseRules {
		if !known[r.Category] {
			return model.ConfigError(src, "phase_rules[%d]: unknown category %q", i, r.Category)
		}
		if err := model.ValidatePhase(r.Phase); err != nil {
			return model.ConfigError(src, "phase_rules[%d]: %v", i, err)
		}
		for _, l := range r.Levels {
			if err := model.ValidateRiskLevel(l); err != nil {
				return model.ConfigError(src, "phase_rules[%d]: %v", i, err)
			}
		}
		if r.catchAll() {
			catchAll[r.Category] = true
		}
	}

	anyTemplate := map[string]bool{}
	for i, tpl := range t.ActionTemplates {
		if !known[tpl.Category] {
			return model.ConfigError(src, "action_templates[%d]: unknown category %q", i, tpl.Category)
		}
		if tpl.Phase == AnyPhase {
			anyTemplate[tpl.Category] = true
		} else if err := model.ValidatePhase(model.Phase(tpl.Phase)); err != nil {
			return model.ConfigError(src, "action_templates[%d]: %v", i, err)
		}
		if len(tpl.Steps) == 0 {
			return model.ConfigError(src, "action_templates[%d]: no steps", i)
		}
		for _, s := range tpl.Steps {
			if s.Hours < 0 || s.Role == "" {
				return model.ConfigError(src, "action_templates[%d]: every step needs a role and non-negative hours", i)
			}
		}
	}

	for _, c := range categories {
		if !catchAll[c] {
			return model.ConfigError(src, "category %q has no catch-all phase rule", c)
		}
		if !anyTemplate[c] {
			return model.ConfigError(src, "category %q has no %q action template", c, AnyPhase)
		}
	}

	kinds := map[model.AlternativeKind]bool{}
	for _, a := range t.Alternatives {
		kinds[a.Kind] = true
	}
	if !kinds[model.AlternativeAccept] || !kinds[model.AlternativeDefer] {
		return model.ConfigError(src, "alternatives must include %q and %q", model.AlternativeAccept, model.AlternativeDefer)
	}

	for _, l := range allLevels {
		u, ok := t.Urgency[l]
		if !ok {
			return model.ConfigError(src, "no urgency for risk level %q", l)
		}
		if err := model.ValidateUrgency(u); err != nil {
			return model.ConfigError(src, "urgency[%s]: %v", l, err)
		}
		if _, ok := t.RiskScores[l]; !ok {
			return model.ConfigError(src, "no risk score for level %q", l)
		}
	}
	for _, u := range allUrgencies {
		if _, ok := t.UrgencyScores[u]; !ok {
			return model.ConfigError(src, "no urgency score for %q", u)
		}
	}
	return nil
}
