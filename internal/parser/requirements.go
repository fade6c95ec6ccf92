package parser

import (
	"math"
	"strings"

	"github.com/HendryAvila/specgap/internal/model"
	"github.com/HendryAvila/specgap/internal/textutil"
)

// Missing-element labels, one per false completeness indicator.
const (
	MissingTypeDefinition = "type_definition"
	MissingConstraints    = "constraints"
	MissingErrorHandling  = "error_handling"
	MissingExamples       = "examples"
)

// buildRequirements scores every requirement and constraint sentence.
func (r *run) buildRequirements() {
	r.requirements = []model.Requirement{}
	w := r.p.opts.Weights
	lex := r.p.lex
	for _, s := range r.sentences {
		if s.Type != model.SentenceRequirement && s.Type != model.SentenceConstraint {
			continue
		}
		req := model.Requirement{
			ID:         model.SeqID("REQ", len(r.requirements)+1),
			Text:       s.Text,
			SentenceID: s.ID,
			Type:       model.RequirementFunctional,
			EntityIDs:  s.entityIDs(r),
		}
		if g := r.p.qualityGroup(s.Text); g != "" {
			req.Type = model.RequirementNonFunctional
			req.QualityGroup = g
		}

		ents := map[int]bool{}
		for _, m := range s.mentions {
			ents[m.entity] = true
		}
		errorStated := lex.ErrorCues.MatchString(s.Text)
		for _, a := range r.actions {
			if a.SentenceID != s.ID {
				continue
			}
			req.ActionIDs = append(req.ActionIDs, a.ID)
			if a.ErrorHandling.Mentioned {
				errorStated = true
			}
		}

		ind := model.CompletenessIndicators{
			TypeDefinition: lex.TypePhrases.MatchString(s.Text) || r.anyAttribute(ents, func(a *model.Attribute) bool { return a.Type != "" }),
			Constraints:    lex.ConstraintPhrases.MatchString(s.Text) || r.anyAttribute(ents, func(a *model.Attribute) bool { return len(a.Constraints) > 0 }),
			ErrorHandling:  errorStated,
			Examples:       lex.ExampleCues.MatchString(s.Text) || r.illustrated(ents),
		}
		req.Indicators = ind

		score := 0.0
		add := func(ok bool, weight float64, label string) {
			if ok {
				score += weight
			} else {
				req.MissingElements = append(req.MissingElements, label)
			}
		}
		add(ind.TypeDefinition, w.Type, MissingTypeDefinition)
		add(ind.Constraints, w.Constraints, MissingConstraints)
		add(ind.ErrorHandling, w.ErrorHandling, MissingErrorHandling)
		add(ind.Examples, w.Examples, MissingExamples)
		req.CompletenessScore = textutil.Round(textutil.Clamp(score, 0, 1), 4)
		req.AmbiguityScore = r.ambiguity(s, req.QualityGroup)

		r.requirements = append(r.requirements, req)
	}
}

func (r *run) anyAttribute(ents map[int]bool, pred func(*model.Attribute) bool) bool {
	for ei := range ents {
		for _, a := range r.entities[ei].attrs {
			if pred(a) {
				return true
			}
		}
	}
	return false
}

// illustrated reports whether an example sentence mentions any of ents.
func (r *run) illustrated(ents map[int]bool) bool {
	for _, s := range r.sentences {
		if s.Type != model.SentenceExample {
			continue
		}
		for _, m := range s.mentions {
			if ents[m.entity] {
				return true
			}
		}
	}
	return false
}

// ambiguity is min(1, matches × reference / words). A quality cue with
// no number in the sentence counts as one more match.
func (r *run) ambiguity(s *sentence, qualityGroup string) float64 {
	words := len(s.tokens)
	if words == 0 {
		return 0
	}
	matches := 0
	for _, ph := range r.p.lex.AmbiguousPhrases {
		matches += ph.CountMatches(s.Text)
	}
	if qualityGroup != "" && !strings.ContainsAny(s.Text, "0123456789") {
		matches++
	}
	ratio := float64(matches*r.p.opts.AmbiguityReferenceWords) / float64(words)
	return textutil.Round(math.Min(1, ratio), 4)
}

func (r *run) statistics() model.ParseStatistics {
	st := model.ParseStatistics{
		Sentences:       len(r.sentences),
		SentencesByType: map[model.SentenceType]int{},
		Entities:        len(r.entities),
		Actions:         len(r.actions),
		Relations:       len(r.relations),
		Requirements:    len(r.requirements),
		MergedMentions:  r.merged,
		Warnings:        r.warnings,
	}
	for _, s := range r.sentences {
		st.SentencesByType[s.Type]++
	}
	if n := len(r.requirements); n > 0 {
		var comp, amb float64
		for _, req := range r.requirements {
			comp += req.CompletenessScore
			amb += req.AmbiguityScore
		}
		st.AverageCompleteness = textutil.Round(comp/float64(n), 4)
		st.AverageAmbiguity = textutil.Round(amb/float64(n), 4)
	}
	return st
}
