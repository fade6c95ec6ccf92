package detector

import (
	"fmt"
	"math"
	"sort"

	"github.com/HendryAvila/specgap/internal/config"
	"github.com/HendryAvila/specgap/internal/model"
	"github.com/HendryAvila/specgap/internal/textutil"
)

// candidate is an unfiltered finding.
type candidate struct {
	seq      int
	sentence int

	category    string
	subcategory string

	entityID      string
	actionID      string
	requirementID string

	confidence float64
	method     model.DetectionMethod
	ruleID     string
	reasoning  string

	sentenceID string
	line       int
	text       string
	match      string
	terms      map[string]string
}

func (c *candidate) key() string {
	return fmt.Sprintf("%s/%s|%d|%s|%s", c.category, c.subcategory, c.sentence, c.entityID, c.actionID)
}

// Term fallbacks used when a sentence carries no action to name.
var termFallbacks = map[string]string{
	"entity":    "the entity",
	"attribute": "the attribute",
	"verb":      "the operation",
	"subject":   "the user",
	"object":    "the data",
	"condition": "the condition",
	"quality":   "quality",
}

// scan is the state of one Extract call.
type scan struct {
	d      *Detector
	parsed *model.ParsedRequirement

	sentIndex map[string]int
	entities  map[string]model.Entity
	actionsIn map[string][]model.Action
	reqIn     map[string]model.Requirement

	cands    []*candidate
	warnings []model.DetectionAmbiguityWarning
}

func newScan(d *Detector, parsed *model.ParsedRequirement) *scan {
	s := &scan{
		d:         d,
		parsed:    parsed,
		sentIndex: make(map[string]int, len(parsed.Sentences)),
		entities:  make(map[string]model.Entity, len(parsed.Entities)),
		actionsIn: map[string][]model.Action{},
		reqIn:     map[string]model.Requirement{},
	}
	for i, sent := range parsed.Sentences {
		s.sentIndex[sent.ID] = i
	}
	for _, e := range parsed.Entities {
		s.entities[e.ID] = e
	}
	for _, a := range parsed.Actions {
		s.actionsIn[a.SentenceID] = append(s.actionsIn[a.SentenceID], a)
	}
	for _, r := range parsed.Requirements {
		s.reqIn[r.SentenceID] = r
	}
	return s
}

func (s *scan) entityName(id string) string {
	if e, ok := s.entities[id]; ok {
		return e.Name
	}
	return ""
}

// anchor binds a sentence-level finding to the first action of the
// sentence and that action's object, or subject when it has none.
func (s *scan) anchor(sentenceID string) *model.Action {
	if acts := s.actionsIn[sentenceID]; len(acts) > 0 {
		return &acts[0]
	}
	return nil
}

func actionEntity(a *model.Action) string {
	if a == nil {
		return ""
	}
	if a.ObjectID != "" {
		return a.ObjectID
	}
	return a.SubjectID
}

// terms builds the substitution map of a finding. Keys the finding
// cannot name fall back to generic wording.
func (s *scan) terms(sentenceID string, a *model.Action, entityID string, extra map[string]string) map[string]string {
	t := map[string]string{}
	for k, v := range termFallbacks {
		t[k] = v
	}
	if i, ok := s.sentIndex[sentenceID]; ok {
		t["text"] = s.parsed.Sentences[i].Text
		t["term"] = s.parsed.Sentences[i].Text
	}
	if r, ok := s.reqIn[sentenceID]; ok && r.QualityGroup != "" {
		t["quality"] = r.QualityGroup
	}
	if a != nil {
		t["verb"] = a.Verb
		t[model.TermActionKind] = a.Kind
		if n := s.entityName(a.SubjectID); n != "" {
			t["subject"] = n
		}
		if n := s.entityName(a.ObjectID); n != "" {
			t["object"] = n
		}
		if len(a.Conditions) > 0 {
			t["condition"] = a.Conditions[0].Text
		}
	}
	if n := s.entityName(entityID); n != "" {
		t["entity"] = n
	}
	for k, v := range extra {
		t[k] = v
	}
	return t
}

// add records a candidate located in the given sentence.
func (s *scan) add(c *candidate) {
	c.seq = len(s.cands)
	if i, ok := s.sentIndex[c.sentenceID]; ok {
		sent := s.parsed.Sentences[i]
		c.sentence = i
		c.line = sent.Line
		c.text = sent.Text
	}
	if r, ok := s.reqIn[c.sentenceID]; ok && c.requirementID == "" {
		c.requirementID = r.ID
	}
	s.cands = append(s.cands, c)
}

// applyRules tests every sentence against every rule. A match inside an
// example sentence is kept at reduced confidence and recorded as a
// warning.
func (s *scan) applyRules() {
	penalty := s.d.rules.ExamplePenalty
	for _, sent := range s.parsed.Sentences {
		for _, r := range s.d.rules.Rules {
			loc := r.Pattern.FindIndex(sent.Text)
			if loc == nil {
				continue
			}
			if !r.Unless.Empty() && r.Unless.MatchString(sent.Text) {
				continue
			}
			match := sent.Text[loc[0]:loc[1]]
			conf := r.Confidence
			reasoning := fmt.Sprintf("rule %s matched %q", r.ID, match)
			if sent.Type == model.SentenceExample {
				conf = math.Max(0, conf-penalty)
				reasoning += " in an example sentence"
				s.warnings = append(s.warnings, model.DetectionAmbiguityWarning{
					Kind:       model.WarningPatternMatch,
					Subject:    r.ID,
					Message:    fmt.Sprintf("matched %q in example sentence %s", match, sent.ID),
					Confidence: textutil.Round(conf, 2),
				})
			}
			a := s.anchor(sent.ID)
			ent := actionEntity(a)
			c := &candidate{
				category:    r.Category,
				subcategory: r.Subcategory,
				entityID:    ent,
				confidence:  conf,
				method:      model.MethodPatternMatching,
				ruleID:      r.ID,
				reasoning:   reasoning,
				sentenceID:  sent.ID,
				match:       match,
				terms:       s.terms(sent.ID, a, ent, map[string]string{"term": match}),
			}
			if a != nil {
				c.actionID = a.ID
			}
			s.add(c)
		}
	}
}

// heuristic builds a semantic candidate from a configured heuristic.
func (s *scan) heuristic(name string) (config.Heuristic, bool) {
	h, ok := s.d.rules.Heuristics[name]
	return h, ok
}

func (s *scan) addHeuristic(name string, c *candidate) {
	h, ok := s.heuristic(name)
	if !ok {
		return
	}
	c.category = h.Category
	if c.subcategory == "" {
		c.subcategory = h.Subcategory
	}
	c.confidence = h.Confidence
	c.method = model.MethodSemanticAnalysis
	c.ruleID = name
	s.add(c)
}

// applyHeuristics checks the parsed structure for gaps no sentence
// pattern can see.
func (s *scan) applyHeuristics() {
	for _, e := range s.parsed.Entities {
		for _, at := range e.Attributes {
			if at.Defined || len(at.SentenceIDs) == 0 {
				continue
			}
			sid := at.SentenceIDs[0]
			extra := map[string]string{"attribute": at.Name, "term": at.Name}
			if at.Type == "" {
				s.addHeuristic(config.HeuristicMissingType, &candidate{
					entityID:   e.ID,
					sentenceID: sid,
					match:      at.Name,
					reasoning:  fmt.Sprintf("attribute %q of %q is mentioned without a type", at.Name, e.Name),
					terms:      s.terms(sid, nil, e.ID, extra),
				})
			}
			if len(at.Constraints) == 0 {
				s.addHeuristic(config.HeuristicMissingConstraint, &candidate{
					entityID:   e.ID,
					sentenceID: sid,
					match:      at.Name,
					reasoning:  fmt.Sprintf("attribute %q of %q is mentioned without a constraint", at.Name, e.Name),
					terms:      s.terms(sid, nil, e.ID, extra),
				})
			}
		}
	}

	for i := range s.parsed.Actions {
		a := &s.parsed.Actions[i]
		ent := actionEntity(a)
		for _, cond := range a.Conditions {
			if !cond.Ambiguous {
				continue
			}
			name := config.HeuristicAmbiguousPre
			if cond.Kind == model.ConditionPost {
				name = config.HeuristicAmbiguousPost
			}
			s.addHeuristic(name, &candidate{
				entityID:   ent,
				actionID:   a.ID,
				sentenceID: cond.SentenceID,
				match:      cond.Text,
				reasoning:  fmt.Sprintf("condition %q of %q has no measurable predicate", cond.Text, a.Verb),
				terms:      s.terms(cond.SentenceID, a, ent, map[string]string{"condition": cond.Text, "term": cond.Text}),
			})
		}
		switch {
		case a.Capability && !a.ErrorHandling.Mentioned:
			s.addHeuristic(config.HeuristicMissingFailureCase, &candidate{
				entityID:   ent,
				actionID:   a.ID,
				sentenceID: a.SentenceID,
				match:      a.Verb,
				reasoning:  fmt.Sprintf("capability %q states no failure case", a.Verb),
				terms:      s.terms(a.SentenceID, a, ent, map[string]string{"term": a.Verb}),
			})
		case a.ErrorHandling.Mentioned && !a.ErrorHandling.Defined:
			s.addHeuristic(config.HeuristicUndefinedResponse, &candidate{
				entityID:   ent,
				actionID:   a.ID,
				sentenceID: a.SentenceID,
				match:      a.Verb,
				reasoning:  fmt.Sprintf("failure of %q is mentioned without a response", a.Verb),
				terms:      s.terms(a.SentenceID, a, ent, map[string]string{"term": a.Verb}),
			})
		}
	}

	for _, r := range s.parsed.Requirements {
		if r.AmbiguityScore <= s.d.rules.VagueThreshold {
			continue
		}
		a := s.anchor(r.SentenceID)
		ent := actionEntity(a)
		c := &candidate{
			entityID:      ent,
			requirementID: r.ID,
			sentenceID:    r.SentenceID,
			reasoning:     fmt.Sprintf("requirement %s has ambiguity %.2f", r.ID, r.AmbiguityScore),
			terms:         s.terms(r.SentenceID, a, ent, nil),
		}
		if a != nil {
			c.actionID = a.ID
		}
		name := config.HeuristicVagueFunctional
		if r.Type == model.RequirementNonFunctional {
			name = config.HeuristicVagueNonFunctional
			if h, ok := s.heuristic(name); ok {
				if _, declared := s.d.rules.Subcategory(h.Category, r.QualityGroup); declared {
					c.subcategory = r.QualityGroup
				}
			}
		}
		s.addHeuristic(name, c)
	}

	for _, e := range s.parsed.Entities {
		if e.DefinitionStatus != model.StatusUndefined || len(e.Mentions) == 0 {
			continue
		}
		if e.Type != model.EntityData && e.Type != model.EntityObject {
			continue
		}
		sid := e.Mentions[0].SentenceID
		s.addHeuristic(config.HeuristicUndefinedEntity, &candidate{
			entityID:   e.ID,
			sentenceID: sid,
			match:      e.Mentions[0].Text,
			reasoning:  fmt.Sprintf("%s %q has no described properties", e.Type, e.Name),
			terms:      s.terms(sid, nil, e.ID, map[string]string{"term": e.Name}),
		})
	}
}

// ordered sorts candidates by sentence then source order and collapses
// duplicates, keeping the most confident one in the first position.
func (s *scan) ordered() []*candidate {
	cands := append([]*candidate(nil), s.cands...)
	sort.SliceStable(cands, func(i, j int) bool {
		if cands[i].sentence != cands[j].sentence {
			return cands[i].sentence < cands[j].sentence
		}
		return cands[i].seq < cands[j].seq
	})
	var out []*candidate
	at := map[string]int{}
	for _, c := range cands {
		k := c.key()
		if i, dup := at[k]; dup {
			if c.confidence > out[i].confidence {
				out[i] = c
			}
			continue
		}
		at[k] = len(out)
		out = append(out, c)
	}
	return out
}
