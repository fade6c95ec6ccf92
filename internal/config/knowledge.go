package config

import (
	"github.com/HendryAvila/specgap/internal/model"
)

// BaseScores are the per-dimension base scores of a category, each in [1,5].
type BaseScores struct {
	Probability     float64 `yaml:"probability" json:"probability"`
	Impact          float64 `yaml:"impact" json:"impact"`
	Detectability   float64 `yaml:"detectability" json:"detectability"`
	RemediationCost float64 `yaml:"remediation_cost" json:"remediation_cost"`
}

// Multipliers scale base scores when a pattern matches. A zero value
// means "not set" and counts as 1.0.
type Multipliers struct {
	Probability     float64 `yaml:"probability,omitempty" json:"probability,omitempty"`
	Impact          float64 `yaml:"impact,omitempty" json:"impact,omitempty"`
	Detectability   float64 `yaml:"detectability,omitempty" json:"detectability,omitempty"`
	RemediationCost float64 `yaml:"remediation_cost,omitempty" json:"remediation_cost,omitempty"`
}

// RiskPattern is a known failure scenario matched against elements.
type RiskPattern struct {
	ID           string      `yaml:"id" json:"id"`
	Name         string      `yaml:"name" json:"name"`
	Categories   []string    `yaml:"categories" json:"categories"`
	Keywords     []string    `yaml:"keywords" json:"keywords"`
	ActionKinds  []string    `yaml:"action_kinds,omitempty" json:"action_kinds,omitempty"`
	Scenario     string      `yaml:"scenario" json:"scenario"`
	Consequences []string    `yaml:"consequences" json:"consequences"`
	Multipliers  Multipliers `yaml:"multipliers" json:"multipliers"`
}

// Incident is a historical record tagged to a pattern.
type Incident struct {
	ID        string `yaml:"id" json:"id"`
	PatternID string `yaml:"pattern" json:"pattern"`
	Title     string `yaml:"title" json:"title"`
	Summary   string `yaml:"summary" json:"summary"`
}

// KnowledgeBase is the read-only input of the risk evaluator.
type KnowledgeBase struct {
	BaseScores             map[string]BaseScores         `yaml:"base_scores" json:"base_scores"`
	CriticalityMultipliers map[model.Criticality]float64 `yaml:"criticality_multipliers" json:"criticality_multipliers"`
	DefaultScenarios       map[string]string             `yaml:"default_scenarios" json:"default_scenarios"`
	DefaultConsequences    map[string][]string           `yaml:"default_consequences" json:"default_consequences"`
	SimilarIncidentLimit   int                           `yaml:"similar_incident_limit" json:"similar_incident_limit"`
	Patterns               []RiskPattern                 `yaml:"patterns" json:"patterns"`
	Incidents              []Incident                    `yaml:"incidents" json:"incidents"`
}

func validScore(v float64) bool { return v >= 1 && v <= 5 }

func validMultiplier(v float64) bool { return v >= 0 && v <= 5 }

// Validate checks that every category has a full base-score row and a
// default scenario, and that patterns and incidents are well formed.
// categories is the set the rule table can emit.
func (kb *KnowledgeBase) Validate(categories []string) error {
	const src = "knowledge base"
	for _, c := range categories {
		bs, ok := kb.BaseScores[c]
		if !ok {
			return model.ConfigError(src, "no base scores for category %q", c)
		}
		if !validScore(bs.Probability) || !validScore(bs.Impact) || !validScore(bs.Detectability) || !validScore(bs.RemediationCost) {
			return model.ConfigError(src, "base scores for %q must all be in [1,5]", c)
		}
		if kb.DefaultScenarios[c] == "" {
			return model.ConfigError(src, "no default scenario for category %q", c)
		}
	}
	for _, c := range []model.Criticality{model.CriticalityLow, model.CriticalityMedium, model.CriticalityHigh, model.CriticalityCritical} {
		m, ok := kb.CriticalityMultipliers[c]
		if !ok || m <= 0 {
			return model.ConfigError(src, "criticality multiplier for %q must be positive", c)
		}
	}
	if kb.SimilarIncidentLimit < 0 {
		return model.ConfigError(src, "similar_incident_limit must not be negative")
	}
	ids := map[string]bool{}
	for i, p := range kb.Patterns {
		if p.ID == "" {
			return model.ConfigError(src, "patterns[%d]: empty id", i)
		}
		if ids[p.ID] {
			return model.ConfigError(src, "duplicate pattern id %q", p.ID)
		}
		ids[p.ID] = true
		if p.Scenario == "" {
			return model.ConfigError(src, "pattern %s: empty scenario", p.ID)
		}
		if len(p.Categories) == 0 && len(p.Keywords) == 0 && len(p.ActionKinds) == 0 {
			return model.ConfigError(src, "pattern %s: no triggers", p.ID)
		}
		m := p.Multipliers
		if !validMultiplier(m.Probability) || !validMultiplier(m.Impact) || !validMultiplier(m.Detectability) || !validMultiplier(m.RemediationCost) {
			return model.ConfigError(src, "pattern %s: multipliers must be in [0,5]", p.ID)
		}
	}
	for i, inc := range kb.Incidents {
		if inc.ID == "" || !ids[inc.PatternID] {
			return model.ConfigError(src, "incidents[%d]: needs an id and a known pattern", i)
		}
	}
	return nil
}
