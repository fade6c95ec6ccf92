package parser

import (
	"sort"
	"strings"

	"github.com/HendryAvila/specgap/internal/model"
)

// clause is a condition clause: from its cue to the next comma,
// semicolon, "then", or the end of the sentence. Offsets are bytes.
type clause struct {
	start, end int
	kind       model.ConditionKind
}

func (p *Parser) conditionClauses(text string) []clause {
	var all []clause
	for _, cue := range p.lex.ConditionCues {
		for _, loc := range cue.Pattern.FindAllIndex(text) {
			all = append(all, clause{start: loc[0], end: clauseEnd(text, loc[1]), kind: cue.Kind})
		}
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].start < all[j].start })

	var out []clause
	for _, c := range all {
		if len(out) > 0 && c.start < out[len(out)-1].end {
			continue
		}
		out = append(out, c)
	}
	return out
}

func clauseEnd(text string, from int) int {
	end := len(text)
	if i := strings.IndexAny(text[from:], ",;"); i >= 0 {
		end = from + i
	}
	if i := strings.Index(text[from:], " then "); i >= 0 && from+i < end {
		end = from + i
	}
	return end
}

func (s *sentence) inClause(off int) bool {
	for _, c := range s.clauses {
		if off >= c.start && off < c.end {
			return true
		}
	}
	return false
}

// conditions renders the sentence's clauses. A condition is ambiguous
// when it has no quantifiable predicate or uses a vague phrase.
func (r *run) conditions(s *sentence) []model.Condition {
	var out []model.Condition
	for _, c := range s.clauses {
		text := strings.TrimRight(s.Text[c.start:c.end], " .!?,;")
		out = append(out, model.Condition{
			Text:       text,
			Kind:       c.kind,
			Ambiguous:  !r.p.lex.Quantifiable.MatchString(text) || r.p.isVague(text),
			SentenceID: s.ID,
		})
	}
	return out
}

// errorHandling looks for an error cue in the sentence and the one
// after it. The failure path is defined when the sentence carrying the
// cue also states a response.
func (r *run) errorHandling(s *sentence) model.ErrorHandling {
	var eh model.ErrorHandling
	for _, t := range []*sentence{s, r.next(s)} {
		if t == nil || !r.p.lex.ErrorCues.MatchString(t.Text) {
			continue
		}
		eh.Mentioned = true
		if r.p.lex.ErrorResponses.MatchString(t.Text) {
			eh.Defined = true
		}
	}
	return eh
}

type verbAt struct {
	tok        int
	capability bool
}

// verbsIn returns the main-clause verbs of a sentence: modal verbs
// first, then lexicon verbs that are not part of an entity mention and
// do not follow a determiner.
func (r *run) verbsIn(s *sentence) []verbAt {
	var verbs []verbAt
	used := map[int]bool{}
	for _, h := range s.modal {
		if s.inClause(s.tokens[h.first].Start) {
			continue
		}
		verbs = append(verbs, verbAt{tok: h.verb, capability: h.capability})
		used[h.verb] = true
	}
	for k, t := range s.tokens {
		if used[k] || t.Possessive || s.inClause(t.Start) || s.mentionAt(k) != nil {
			continue
		}
		if r.p.verbBase(t.Lower) == "" {
			continue
		}
		if k > 0 && r.p.determiners[s.tokens[k-1].Lower] {
			continue
		}
		verbs = append(verbs, verbAt{tok: k})
	}
	sort.SliceStable(verbs, func(i, j int) bool { return verbs[i].tok < verbs[j].tok })
	return verbs
}

// extractActions binds each verb to the nearest preceding entity as
// subject and the nearest following one as object. Example sentences
// illustrate behaviour and yield no actions.
func (r *run) extractActions() {
	r.actions = []model.Action{}
	for _, s := range r.sentences {
		if s.Type == model.SentenceExample {
			continue
		}
		verbs := r.verbsIn(s)
		if len(verbs) == 0 {
			continue
		}
		conds := r.conditions(s)
		eh := r.errorHandling(s)
		for _, v := range verbs {
			lower := s.tokens[v.tok].Lower
			verb := r.p.verbBase(lower)
			if verb == "" {
				verb = lower
			}
			kind := r.p.kindOf[verb]
			if kind == "" {
				kind = "other"
			}
			a := model.Action{
				ID:            model.SeqID("A", len(r.actions)+1),
				Verb:          verb,
				Kind:          kind,
				SentenceID:    s.ID,
				Capability:    v.capability,
				Conditions:    append([]model.Condition(nil), conds...),
				ErrorHandling: eh,
			}
			subject := -1
			for _, m := range s.mentions {
				if m.last < v.tok {
					subject = m.entity
				}
			}
			if subject < 0 {
				subject = r.lastEntityBefore(s.index)
			}
			if subject >= 0 {
				a.SubjectID = r.entities[subject].ID
			}
			for _, m := range s.mentions {
				if m.first > v.tok {
					a.ObjectID = r.entities[m.entity].ID
					break
				}
			}
			r.actions = append(r.actions, a)
		}
	}
}

// extractRelations links the entities on either side of a relation cue,
// and every action's subject to its object.
func (r *run) extractRelations() {
	r.relations = []model.Relation{}
	seen := map[model.Relation]bool{}
	add := func(rel model.Relation) {
		if rel.From == rel.To || seen[rel] {
			return
		}
		seen[rel] = true
		r.relations = append(r.relations, rel)
	}

	for _, s := range r.sentences {
		for _, cue := range r.p.lex.RelationCues {
			for _, loc := range cue.Pattern.FindAllIndex(s.Text) {
				from, to := -1, -1
				for _, m := range s.mentions {
					if s.tokens[m.last].End <= loc[0] {
						from = m.entity
					}
				}
				for _, m := range s.mentions {
					if s.tokens[m.first].Start >= loc[1] {
						to = m.entity
						break
					}
				}
				if from >= 0 && to >= 0 {
					add(model.Relation{From: r.entities[from].ID, To: r.entities[to].ID, Type: cue.Type, SentenceID: s.ID})
				}
			}
		}
		for _, a := range r.actions {
			if a.SentenceID == s.ID && a.SubjectID != "" && a.ObjectID != "" {
				add(model.Relation{From: a.SubjectID, To: a.ObjectID, Type: model.RelationUses, SentenceID: s.ID})
			}
		}
	}
}
