// Package model holds the data types shared by every analysis stage.
//
// Types here are plain data: the parser, detector, risk evaluator and
// remediation planner produce and consume them, and the CLI, MCP tools
// and renderers only read them. Enumerations follow the same shape
// throughout: a string type, its constants, and a validation map.
package model

import (
	"fmt"
	"strings"
)

// --- Sentence type enum ---

// SentenceType classifies a sentence by the cue phrases it carries.
type SentenceType string

const (
	SentenceRequirement SentenceType = "requirement"
	SentenceConstraint  SentenceType = "constraint"
	SentenceExplanation SentenceType = "explanation"
	SentenceExample     SentenceType = "example"
)

var validSentenceTypes = map[SentenceType]bool{
	SentenceRequirement: true,
	SentenceConstraint:  true,
	SentenceExplanation: true,
	SentenceExample:     true,
}

// ValidateSentenceType returns an error if the type is not recognized.
func ValidateSentenceType(t SentenceType) error {
	if !validSentenceTypes[t] {
		return fmt.Errorf("invalid sentence type %q: must be one of: requirement, constraint, explanation, example", t)
	}
	return nil
}

// --- Entity type enum ---

// EntityType is the coarse role an entity plays in the document.
type EntityType string

const (
	EntityActor  EntityType = "actor"
	EntityObject EntityType = "object"
	EntitySystem EntityType = "system"
	EntityData   EntityType = "data"
	EntityEvent  EntityType = "event"
)

var validEntityTypes = map[EntityType]bool{
	EntityActor:  true,
	EntityObject: true,
	EntitySystem: true,
	EntityData:   true,
	EntityEvent:  true,
}

// ValidateEntityType returns an error if the type is not recognized.
func ValidateEntityType(t EntityType) error {
	if !validEntityTypes[t] {
		return fmt.Errorf("invalid entity type %q: must be one of: actor, object, system, data, event", t)
	}
	return nil
}

// DefinitionStatus says how completely an entity is specified.
type DefinitionStatus string

const (
	StatusDefined          DefinitionStatus = "defined"
	StatusPartiallyDefined DefinitionStatus = "partially_defined"
	StatusUndefined        DefinitionStatus = "undefined"
)

// ConditionKind places a condition before or after its action.
type ConditionKind string

const (
	ConditionPre  ConditionKind = "pre"
	ConditionPost ConditionKind = "post"
)

// RequirementType separates behaviour from quality attributes.
type RequirementType string

const (
	RequirementFunctional    RequirementType = "functional"
	RequirementNonFunctional RequirementType = "non_functional"
)

// RelationType labels an edge between two entities.
type RelationType string

const (
	RelationOwns       RelationType = "owns"
	RelationUses       RelationType = "uses"
	RelationDependsOn  RelationType = "depends_on"
	RelationReferences RelationType = "references"
	RelationContains   RelationType = "contains"
)

var validRelationTypes = map[RelationType]bool{
	RelationOwns:       true,
	RelationUses:       true,
	RelationDependsOn:  true,
	RelationReferences: true,
	RelationContains:   true,
}

// ValidateRelationType returns an error if the type is not recognized.
func ValidateRelationType(t RelationType) error {
	if !validRelationTypes[t] {
		return fmt.Errorf("invalid relation type %q: must be one of: owns, uses, depends_on, references, contains", t)
	}
	return nil
}

// --- Detection enums ---

// DetectionMethod records which detection source produced an element.
type DetectionMethod string

const (
	MethodPatternMatching  DetectionMethod = "pattern_matching"
	MethodSemanticAnalysis DetectionMethod = "semantic_analysis"
)

// QuestionType is the intent of a clarification question.
type QuestionType string

const (
	QuestionClarification QuestionType = "clarification"
	QuestionSpecification QuestionType = "specification"
	QuestionConstraint    QuestionType = "constraint"
	QuestionException     QuestionType = "exception"
)

var validQuestionTypes = map[QuestionType]bool{
	QuestionClarification: true,
	QuestionSpecification: true,
	QuestionConstraint:    true,
	QuestionException:     true,
}

// ValidateQuestionType returns an error if the type is not recognized.
func ValidateQuestionType(t QuestionType) error {
	if !validQuestionTypes[t] {
		return fmt.Errorf("invalid question type %q: must be one of: clarification, specification, constraint, exception", t)
	}
	return nil
}

// GroupRelationship labels how the members of a group relate.
type GroupRelationship string

const (
	GroupRelated           GroupRelationship = "related"
	GroupDependent         GroupRelationship = "dependent"
	GroupMutuallyExclusive GroupRelationship = "mutually_exclusive"
)

// Severity is the estimated severity attached to a detection rule.
type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
)

var validSeverities = map[Severity]bool{
	SeverityHigh:   true,
	SeverityMedium: true,
	SeverityLow:    true,
}

// ValidateSeverity returns an error if the severity is not recognized.
func ValidateSeverity(s Severity) error {
	if !validSeverities[s] {
		return fmt.Errorf("invalid severity %q: must be one of: high, medium, low", s)
	}
	return nil
}

// --- Risk level ---

// RiskLevel is the step-function bucket of a risk score.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// riskLevels is ordered from lowest to highest.
var riskLevels = []RiskLevel{RiskLow, RiskMedium, RiskHigh, RiskCritical}

// Level thresholds. Lower bounds are inclusive.
const (
	CriticalThreshold = 3.5
	HighThreshold     = 2.5
	MediumThreshold   = 1.5
)

// LevelForScore maps a score in [1,5] onto a RiskLevel.
func LevelForScore(score float64) RiskLevel {
	switch {
	case score >= CriticalThreshold:
		return RiskCritical
	case score >= HighThreshold:
		return RiskHigh
	case score >= MediumThreshold:
		return RiskMedium
	default:
		return RiskLow
	}
}

// Rank returns the ordinal of the level (low = 0) or -1 if unknown.
func (l RiskLevel) Rank() int {
	for i, lv := range riskLevels {
		if lv == l {
			return i
		}
	}
	return -1
}

// Shift moves the level up (n > 0) or down (n < 0), saturating at the
// ends of the scale.
func (l RiskLevel) Shift(n int) RiskLevel {
	i := l.Rank()
	if i < 0 {
		return l
	}
	i += n
	if i < 0 {
		i = 0
	}
	if i >= len(riskLevels) {
		i = len(riskLevels) - 1
	}
	return riskLevels[i]
}

// ValidateRiskLevel returns an error if the level is not recognized.
func ValidateRiskLevel(l RiskLevel) error {
	if l.Rank() < 0 {
		return fmt.Errorf("invalid risk level %q: must be one of: low, medium, high, critical", l)
	}
	return nil
}

// --- Phases ---

// Phase is one ordered stage of the project lifecycle.
type Phase string

const (
	PhaseRequirementDefinition Phase = "requirement_definition"
	PhaseDesign                Phase = "design"
	PhaseImplementation        Phase = "implementation"
	PhaseTesting               Phase = "testing"
	PhaseOperation             Phase = "operation"
)

// Phases lists every phase in lifecycle order.
var Phases = []Phase{
	PhaseRequirementDefinition,
	PhaseDesign,
	PhaseImplementation,
	PhaseTesting,
	PhaseOperation,
}

// PhaseIndex returns the position of p in Phases, or -1.
func PhaseIndex(p Phase) int {
	for i, ph := range Phases {
		if ph == p {
			return i
		}
	}
	return -1
}

// ValidatePhase returns an error if the phase is not recognized.
func ValidatePhase(p Phase) error {
	if PhaseIndex(p) < 0 {
		names := make([]string, len(Phases))
		for i, ph := range Phases {
			names[i] = string(ph)
		}
		return fmt.Errorf("invalid phase %q: must be one of: %s", p, strings.Join(names, ", "))
	}
	return nil
}

// --- Urgency ---

// Urgency says how soon a recommendation should be acted on.
type Urgency string

const (
	UrgencyLow       Urgency = "low"
	UrgencyMedium    Urgency = "medium"
	UrgencyHigh      Urgency = "high"
	UrgencyImmediate Urgency = "immediate"
)

var urgencies = []Urgency{UrgencyLow, UrgencyMedium, UrgencyHigh, UrgencyImmediate}

// Escalate moves urgency up by one step, saturating at immediate.
func (u Urgency) Escalate() Urgency {
	for i, v := range urgencies {
		if v == u && i+1 < len(urgencies) {
			return urgencies[i+1]
		}
	}
	return u
}

// ValidateUrgency returns an error if the urgency is not recognized.
func ValidateUrgency(u Urgency) error {
	for _, v := range urgencies {
		if v == u {
			return nil
		}
	}
	return fmt.Errorf("invalid urgency %q: must be one of: low, medium, high, immediate", u)
}

// --- Criticality ---

// Criticality is the business criticality of the project under analysis.
type Criticality string

const (
	CriticalityLow      Criticality = "low"
	CriticalityMedium   Criticality = "medium"
	CriticalityHigh     Criticality = "high"
	CriticalityCritical Criticality = "critical"
)

var validCriticalities = map[Criticality]bool{
	CriticalityLow:      true,
	CriticalityMedium:   true,
	CriticalityHigh:     true,
	CriticalityCritical: true,
}

// ValidateCriticality returns an error if the criticality is not recognized.
func ValidateCriticality(c Criticality) error {
	if !validCriticalities[c] {
		return fmt.Errorf("invalid criticality %q: must be one of: low, medium, high, critical", c)
	}
	return nil
}

// AlternativeKind names an option other than resolving the gap now.
type AlternativeKind string

const (
	AlternativeAccept        AlternativeKind = "accept"
	AlternativeDefer         AlternativeKind = "defer"
	AlternativeAssumeDefault AlternativeKind = "assume_default"
)
