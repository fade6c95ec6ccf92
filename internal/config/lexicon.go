package config

import (
	"github.com/HendryAvila/specgap/internal/model"
)

// SentenceCue types a sentence when its pattern matches.
type SentenceCue struct {
	Type    model.SentenceType `yaml:"type" json:"type"`
	Pattern Pattern            `yaml:"pattern" json:"pattern"`
}

// QualityGroup is a family of non-functional quality cues.
type QualityGroup struct {
	Name    string  `yaml:"name" json:"name"`
	Pattern Pattern `yaml:"pattern" json:"pattern"`
}

// Modal is a modal verb phrase. Capability modals ("can", "is able to")
// expose something a user may do, which implies a negative case.
type Modal struct {
	Phrase     string `yaml:"phrase" json:"phrase"`
	Capability bool   `yaml:"capability" json:"capability"`
}

// ConditionCue opens a conditional clause of the given kind.
type ConditionCue struct {
	Kind    model.ConditionKind `yaml:"kind" json:"kind"`
	Pattern Pattern             `yaml:"pattern" json:"pattern"`
}

// RelationCue links the nearest entities on either side of its match.
type RelationCue struct {
	Type    model.RelationType `yaml:"type" json:"type"`
	Pattern Pattern            `yaml:"pattern" json:"pattern"`
}

// ActionKind groups verbs by the kind of operation they perform.
type ActionKind struct {
	Kind  string   `yaml:"kind" json:"kind"`
	Verbs []string `yaml:"verbs" json:"verbs"`
}

// Lexicon is the cue-phrase vocabulary of the structural parser.
// Ordered lists are evaluated first-match-wins.
type Lexicon struct {
	SentenceCues      []SentenceCue               `yaml:"sentence_cues" json:"sentence_cues"`
	QualityGroups     []QualityGroup              `yaml:"quality_groups" json:"quality_groups"`
	AmbiguousPhrases  []Pattern                   `yaml:"ambiguous_phrases" json:"ambiguous_phrases"`
	Quantifiable      Pattern                     `yaml:"quantifiable" json:"quantifiable"`
	TypePhrases       Pattern                     `yaml:"type_phrases" json:"type_phrases"`
	ConstraintPhrases Pattern                     `yaml:"constraint_phrases" json:"constraint_phrases"`
	ErrorCues         Pattern                     `yaml:"error_cues" json:"error_cues"`
	ErrorResponses    Pattern                     `yaml:"error_responses" json:"error_responses"`
	DefinitionCues    Pattern                     `yaml:"definition_cues" json:"definition_cues"`
	ExampleCues       Pattern                     `yaml:"example_cues" json:"example_cues"`
	Modals            []Modal                     `yaml:"modals" json:"modals"`
	ConditionCues     []ConditionCue              `yaml:"condition_cues" json:"condition_cues"`
	RelationCues      []RelationCue               `yaml:"relation_cues" json:"relation_cues"`
	Verbs             []string                    `yaml:"verbs" json:"verbs"`
	ActionKinds       []ActionKind                `yaml:"action_kinds" json:"action_kinds"`
	Dictionary        map[string]model.EntityType `yaml:"dictionary" json:"dictionary"`
	SystemSuffixes    []string                    `yaml:"system_suffixes" json:"system_suffixes"`
	AttributeTerms    []string                    `yaml:"attribute_terms" json:"attribute_terms"`
	Determiners       []string                    `yaml:"determiners" json:"determiners"`
	Pronouns          []string                    `yaml:"pronouns" json:"pronouns"`
	Stopwords         []string                    `yaml:"stopwords" json:"stopwords"`
}

// Validate checks that every enumerated value is known and that the
// patterns the parser cannot work without are present.
func (l *Lexicon) Validate() error {
	const src = "lexicon"
	if len(l.SentenceCues) == 0 {
		return model.ConfigError(src, "sentence_cues is empty")
	}
	for i, c := range l.SentenceCues {
		if err := model.ValidateSentenceType(c.Type); err != nil {
			return model.ConfigError(src, "sentence_cues[%d]: %v", i, err)
		}
		if c.Pattern.Empty() {
			return model.ConfigError(src, "sentence_cues[%d]: pattern is empty", i)
		}
	}
	for i, g := range l.QualityGroups {
		if g.Name == "" || g.Pattern.Empty() {
			return model.ConfigError(src, "quality_groups[%d]: name and pattern are required", i)
		}
	}
	required := map[string]Pattern{
		"quantifiable":       l.Quantifiable,
		"type_phrases":       l.TypePhrases,
		"constraint_phrases": l.ConstraintPhrases,
		"error_cues":         l.ErrorCues,
		"error_responses":    l.ErrorResponses,
		"example_cues":       l.ExampleCues,
	}
	for _, name := range []string{"quantifiable", "type_phrases", "constraint_phrases", "error_cues", "error_responses", "example_cues"} {
		if required[name].Empty() {
			return model.ConfigError(src, "%s is empty", name)
		}
	}
	if len(l.Modals) == 0 {
		return model.ConfigError(src, "modals is empty")
	}
	for i, c := range l.ConditionCues {
		if c.Kind != model.ConditionPre && c.Kind != model.ConditionPost {
			return model.ConfigError(src, "condition_cues[%d]: invalid kind %q", i, c.Kind)
		}
	}
	for i, c := range l.RelationCues {
		if err := model.ValidateRelationType(c.Type); err != nil {
			return model.ConfigError(src, "relation_cues[%d]: %v", i, err)
		}
	}
	for term, t := range l.Dictionary {
		if err := model.ValidateEntityType(t); err != nil {
			return model.ConfigError(src, "dictionary[%q]: %v", term, err)
		}
	}
	return nil
}
