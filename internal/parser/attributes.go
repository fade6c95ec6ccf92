package parser

import (
	"slices"
	"strings"

	"github.com/HendryAvila/specgap/internal/model"
	"github.com/HendryAvila/specgap/internal/textutil"
)

// extractAttributes binds every attribute term to an owning entity and
// scans the clause after it for type and constraint phrases. The scan
// runs up to the next attribute term, and continues into the next
// sentence when that one opens with a pronoun.
func (r *run) extractAttributes() {
	for _, s := range r.sentences {
		var terms []int
		for k, t := range s.tokens {
			if r.p.isAttribute(t) && s.mentionAt(k) == nil {
				terms = append(terms, k)
			}
		}
		for i, k := range terms {
			owner := r.attributeOwner(s, k)
			if owner < 0 {
				continue
			}
			end := len(s.Text)
			if i+1 < len(terms) {
				end = s.tokens[terms[i+1]].Start
			}
			scope := s.Text[s.tokens[k].End:end]
			if nx := r.next(s); nx != nil && len(nx.tokens) > 0 && r.p.pronouns[nx.tokens[0].Lower] {
				scope += " " + nx.Text
			}
			r.recordAttribute(owner, textutil.Singular(s.tokens[k].Lower), s.ID, scope)
		}
	}
}

// attributeOwner resolves the entity an attribute term belongs to: the
// possessive or compound entity right before it, the entity after "of",
// the nearest entity in the sentence, or the last entity mentioned.
func (r *run) attributeOwner(s *sentence, k int) int {
	toks := s.tokens
	if k > 0 {
		if m := s.mentionAt(k - 1); m != nil && m.last == k-1 {
			return m.entity
		}
	}
	if k+2 < len(toks) && toks[k+1].Lower == "of" {
		j := k + 2
		if r.p.determiners[toks[j].Lower] && j+1 < len(toks) {
			j++
		}
		if m := s.mentionAt(j); m != nil {
			return m.entity
		}
	}
	best, bestDist := -1, 0
	for _, m := range s.mentions {
		d := k - m.last
		if m.first > k {
			d = m.first - k
		}
		if best < 0 || d < bestDist {
			best, bestDist = m.entity, d
		}
	}
	if best >= 0 {
		return best
	}
	return r.lastEntityBefore(s.index)
}

func (r *run) recordAttribute(owner int, name, sentenceID, scope string) {
	e := r.entities[owner]
	a, ok := e.attrs[name]
	if !ok {
		a = &model.Attribute{Name: name, Mentioned: true}
		e.attrs[name] = a
		e.attrOrder = append(e.attrOrder, name)
	}
	if !slices.Contains(a.SentenceIDs, sentenceID) {
		a.SentenceIDs = append(a.SentenceIDs, sentenceID)
	}
	if a.Type == "" {
		if loc := r.p.lex.TypePhrases.FindIndex(scope); loc != nil {
			a.Type = strings.ToLower(scope[loc[0]:loc[1]])
		}
	}
	for _, loc := range r.p.lex.ConstraintPhrases.FindAllIndex(scope) {
		c := strings.ToLower(scope[loc[0]:loc[1]])
		if !slices.Contains(a.Constraints, c) {
			a.Constraints = append(a.Constraints, c)
		}
	}
	a.Defined = a.Type != "" && len(a.Constraints) > 0
}

// Base ambiguity by definition status.
var statusAmbiguity = map[model.DefinitionStatus]float64{
	model.StatusDefined:          0.1,
	model.StatusPartiallyDefined: 0.4,
	model.StatusUndefined:        0.7,
}

func (r *run) resolveEntityStatus() {
	for ei, e := range r.entities {
		defined := 0
		for _, name := range e.attrOrder {
			if e.attrs[name].Defined {
				defined++
			}
		}
		switch {
		case r.hasDefinitionCue(ei) || (len(e.attrOrder) > 0 && defined == len(e.attrOrder)):
			e.DefinitionStatus = model.StatusDefined
		case defined > 0:
			e.DefinitionStatus = model.StatusPartiallyDefined
		default:
			e.DefinitionStatus = model.StatusUndefined
		}
		e.AmbiguityScore = textutil.Round(min(1, statusAmbiguity[e.DefinitionStatus]+e.penalty), 2)
	}
}

// hasDefinitionCue reports whether some sentence mentions the entity
// right before a definition cue such as "consists of".
func (r *run) hasDefinitionCue(ei int) bool {
	for _, s := range r.sentences {
		loc := r.p.lex.DefinitionCues.FindIndex(s.Text)
		if loc == nil {
			continue
		}
		for _, m := range s.mentions {
			if m.entity == ei && s.tokens[m.last].End <= loc[0] {
				return true
			}
		}
	}
	return false
}
