package model

// Sentence is one typed sentence of the normalized document.
// Start and End are rune offsets into the normalized text.
type Sentence struct {
	ID    string       `json:"id"`
	Text  string       `json:"text"`
	Line  int          `json:"line"`
	Start int          `json:"start"`
	End   int          `json:"end"`
	Type  SentenceType `json:"type"`
}

// Mention is one occurrence of an entity. Position is a rune offset
// into the sentence text.
type Mention struct {
	SentenceID string `json:"sentence_id"`
	Text       string `json:"text"`
	Position   int    `json:"position"`
}

// Attribute is a property of an entity mentioned in the document.
type Attribute struct {
	Name        string   `json:"name"`
	Mentioned   bool     `json:"mentioned"`
	Defined     bool     `json:"defined"`
	Type        string   `json:"type,omitempty"`
	Constraints []string `json:"constraints,omitempty"`
	SentenceIDs []string `json:"sentence_ids"`
}

// Entity is a canonical thing the document talks about.
type Entity struct {
	ID               string           `json:"id"`
	Name             string           `json:"name"`
	Type             EntityType       `json:"type"`
	Mentions         []Mention        `json:"mentions"`
	Attributes       []Attribute      `json:"attributes,omitempty"`
	DefinitionStatus DefinitionStatus `json:"definition_status"`
	AmbiguityScore   float64          `json:"ambiguity_score"`
}

// Condition is a clause that gates or follows an action.
type Condition struct {
	Text       string        `json:"text"`
	Kind       ConditionKind `json:"kind"`
	Ambiguous  bool          `json:"ambiguous"`
	SentenceID string        `json:"sentence_id"`
}

// ErrorHandling flags whether an action's failure path is stated.
type ErrorHandling struct {
	Mentioned bool `json:"mentioned"`
	Defined   bool `json:"defined"`
}

// Action is a verb bound to the entities around it.
type Action struct {
	ID            string        `json:"id"`
	Verb          string        `json:"verb"`
	Kind          string        `json:"kind"`
	SubjectID     string        `json:"subject_id,omitempty"`
	ObjectID      string        `json:"object_id,omitempty"`
	SentenceID    string        `json:"sentence_id"`
	Capability    bool          `json:"capability"`
	Conditions    []Condition   `json:"conditions,omitempty"`
	ErrorHandling ErrorHandling `json:"error_handling"`
}

// Relation is a typed edge between two entities.
type Relation struct {
	From       string       `json:"from"`
	To         string       `json:"to"`
	Type       RelationType `json:"type"`
	SentenceID string       `json:"sentence_id"`
}

// CompletenessIndicators are the four booleans behind a completeness score.
type CompletenessIndicators struct {
	TypeDefinition bool `json:"type_definition"`
	Constraints    bool `json:"constraints"`
	ErrorHandling  bool `json:"error_handling"`
	Examples       bool `json:"examples"`
}

// Requirement is a requirement or constraint sentence with its scores.
type Requirement struct {
	ID                string                 `json:"id"`
	Text              string                 `json:"text"`
	SentenceID        string                 `json:"sentence_id"`
	Type              RequirementType        `json:"type"`
	CompletenessScore float64                `json:"completeness_score"`
	AmbiguityScore    float64                `json:"ambiguity_score"`
	Indicators        CompletenessIndicators `json:"indicators"`
	QualityGroup      string                 `json:"quality_group,omitempty"`
	EntityIDs         []string               `json:"entity_ids,omitempty"`
	ActionIDs         []string               `json:"action_ids,omitempty"`
	MissingElements   []string               `json:"missing_elements,omitempty"`
}

// ParseStatistics summarises one parse.
type ParseStatistics struct {
	Sentences           int                         `json:"sentences"`
	SentencesByType     map[SentenceType]int        `json:"sentences_by_type"`
	Entities            int                         `json:"entities"`
	Actions             int                         `json:"actions"`
	Relations           int                         `json:"relations"`
	Requirements        int                         `json:"requirements"`
	MergedMentions      int                         `json:"merged_mentions"`
	AverageCompleteness float64                     `json:"average_completeness"`
	AverageAmbiguity    float64                     `json:"average_ambiguity"`
	Warnings            []DetectionAmbiguityWarning `json:"warnings,omitempty"`
}

// ParsedRequirement is the output of the structural parser.
type ParsedRequirement struct {
	Stamp
	Metadata     Metadata        `json:"metadata,omitempty"`
	Sentences    []Sentence      `json:"sentences"`
	Entities     []Entity        `json:"entities"`
	Actions      []Action        `json:"actions"`
	Relations    []Relation      `json:"relations,omitempty"`
	Requirements []Requirement   `json:"requirements"`
	Statistics   ParseStatistics `json:"statistics"`
}

// Sentence returns the sentence with the given id.
func (p *ParsedRequirement) Sentence(id string) (Sentence, bool) {
	for _, s := range p.Sentences {
		if s.ID == id {
			return s, true
		}
	}
	return Sentence{}, false
}

// Entity returns the entity with the given id.
func (p *ParsedRequirement) Entity(id string) (Entity, bool) {
	for _, e := range p.Entities {
		if e.ID == id {
			return e, true
		}
	}
	return Entity{}, false
}

// Action returns the action with the given id.
func (p *ParsedRequirement) Action(id string) (Action, bool) {
	for _, a := range p.Actions {
		if a.ID == id {
			return a, true
		}
	}
	return Action{}, false
}

// RequirementFor returns the requirement built from a sentence.
func (p *ParsedRequirement) RequirementFor(sentenceID string) (Requirement, bool) {
	for _, r := range p.Requirements {
		if r.SentenceID == sentenceID {
			return r, true
		}
	}
	return Requirement{}, false
}
