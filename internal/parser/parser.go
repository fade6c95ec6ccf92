// Package parser turns a natural-language requirements document into a
// ParsedRequirement: typed sentences, merged entities with attributes,
// actions with conditions and error-handling flags, relations, and
// scored requirements.
//
// The parser is deterministic. It holds only the lexicon and options it
// was built with, so one Parser may be shared by concurrent callers.
package parser

import (
	"math"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/HendryAvila/specgap/internal/config"
	"github.com/HendryAvila/specgap/internal/model"
	"github.com/HendryAvila/specgap/internal/textutil"
)

// timeNow is replaced in tests.
var timeNow = time.Now

// Weights are the completeness weights of the four indicators.
type Weights struct {
	Type          float64 `json:"type"`
	Constraints   float64 `json:"constraints"`
	ErrorHandling float64 `json:"error_handling"`
	Examples      float64 `json:"examples"`
}

func (w Weights) sum() float64 {
	return w.Type + w.Constraints + w.ErrorHandling + w.Examples
}

// Options tune the parser.
type Options struct {
	// MergeThreshold is the minimum name similarity for two entity
	// candidates to be merged.
	MergeThreshold float64
	Weights        Weights
	// AmbiguityReferenceWords scales the ambiguity ratio: one vague
	// phrase in a sentence of this many words scores 1.0.
	AmbiguityReferenceWords int
}

// DefaultOptions returns the standard parser options.
func DefaultOptions() Options {
	return Options{
		MergeThreshold:          0.85,
		Weights:                 Weights{Type: 0.3, Constraints: 0.3, ErrorHandling: 0.2, Examples: 0.2},
		AmbiguityReferenceWords: 5,
	}
}

// Validate checks the options.
func (o Options) Validate() error {
	if math.Abs(o.Weights.sum()-1) > 1e-9 {
		return model.ConfigError("parser options", "completeness weights sum to %.4f, want 1", o.Weights.sum())
	}
	for _, w := range []float64{o.Weights.Type, o.Weights.Constraints, o.Weights.ErrorHandling, o.Weights.Examples} {
		if w < 0 {
			return model.ConfigError("parser options", "completeness weights must not be negative")
		}
	}
	if o.MergeThreshold <= 0 || o.MergeThreshold > 1 {
		return model.ConfigError("parser options", "merge threshold %.2f outside (0,1]", o.MergeThreshold)
	}
	if o.AmbiguityReferenceWords <= 0 {
		return model.ConfigError("parser options", "ambiguity reference words must be positive")
	}
	return nil
}

type modalPhrase struct {
	words      []string
	capability bool
}

// Parser is the structural parser.
type Parser struct {
	lex  config.Lexicon
	opts Options

	modals      []modalPhrase
	verbs       map[string]bool
	kindOf      map[string]string
	dict        map[string]model.EntityType
	suffixes    map[string]bool
	attrTerms   map[string]bool
	determiners map[string]bool
	pronouns    map[string]bool
	stopwords   map[string]bool
}

// New builds a Parser. The lexicon is assumed validated; options are
// checked here.
func New(lex config.Lexicon, opts Options) (*Parser, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	p := &Parser{
		lex:         lex,
		opts:        opts,
		verbs:       textutil.Set(lex.Verbs),
		kindOf:      map[string]string{},
		dict:        map[string]model.EntityType{},
		suffixes:    textutil.Set(lex.SystemSuffixes),
		attrTerms:   textutil.Set(lex.AttributeTerms),
		determiners: textutil.Set(lex.Determiners),
		pronouns:    textutil.Set(lex.Pronouns),
		stopwords:   textutil.Set(lex.Stopwords),
	}
	for _, m := range lex.Modals {
		p.modals = append(p.modals, modalPhrase{words: strings.Fields(strings.ToLower(m.Phrase)), capability: m.Capability})
	}
	// Longest phrase first so "is able to" wins over any shorter prefix.
	sort.SliceStable(p.modals, func(i, j int) bool { return len(p.modals[i].words) > len(p.modals[j].words) })
	for _, k := range lex.ActionKinds {
		for _, v := range k.Verbs {
			v = strings.ToLower(v)
			if _, ok := p.kindOf[v]; !ok {
				p.kindOf[v] = k.Kind
			}
		}
	}
	for term, t := range lex.Dictionary {
		p.dict[textutil.SingularPhrase(term)] = t
	}
	return p, nil
}

// Parse analyses one document.
func (p *Parser) Parse(doc model.Document) (*model.ParsedRequirement, error) {
	if !utf8.ValidString(doc.Text) {
		return nil, model.InvalidInput("document text is not valid UTF-8")
	}
	normalized := textutil.Normalize(doc.Text)
	if strings.TrimSpace(normalized) == "" {
		return nil, model.InvalidInput("document text is empty")
	}

	r := &run{p: p}
	r.split(normalized)
	if len(r.sentences) == 0 {
		return nil, model.InvalidInput("document contains no sentences")
	}
	r.extractEntities()
	r.extractActions()
	r.extractRelations()
	r.extractAttributes()
	r.resolveEntityStatus()
	r.buildRequirements()

	out := &model.ParsedRequirement{
		Stamp: model.Stamp{
			DocumentID:  model.DocumentID(normalized),
			GeneratedAt: timeNow().UTC(),
		},
		Metadata:     doc.Metadata,
		Sentences:    make([]model.Sentence, len(r.sentences)),
		Entities:     make([]model.Entity, len(r.entities)),
		Actions:      r.actions,
		Relations:    r.relations,
		Requirements: r.requirements,
	}
	for i, s := range r.sentences {
		out.Sentences[i] = s.Sentence
	}
	for i, e := range r.entities {
		out.Entities[i] = e.Entity
		for _, name := range e.attrOrder {
			out.Entities[i].Attributes = append(out.Entities[i].Attributes, *e.attrs[name])
		}
	}
	out.Statistics = r.statistics()
	return out, nil
}

// run is the mutable state of one Parse call.
type run struct {
	p            *Parser
	sentences    []*sentence
	entities     []*entity
	actions      []model.Action
	relations    []model.Relation
	requirements []model.Requirement
	merged       int
	warnings     []model.DetectionAmbiguityWarning
}

type sentence struct {
	model.Sentence
	index    int
	tokens   []textutil.Token
	modal    []modalHit
	mentions []mention
	clauses  []clause
}

// mention is an entity occurrence bound to a token range [first, last].
type mention struct {
	entity      int
	first, last int
}

type entity struct {
	model.Entity
	penalty   float64
	attrs     map[string]*model.Attribute
	attrOrder []string
}

func (r *run) next(s *sentence) *sentence {
	if s.index+1 < len(r.sentences) {
		return r.sentences[s.index+1]
	}
	return nil
}

// lastEntityBefore returns the entity mentioned last before sentence i,
// or -1.
func (r *run) lastEntityBefore(i int) int {
	for j := i - 1; j >= 0; j-- {
		if ms := r.sentences[j].mentions; len(ms) > 0 {
			return ms[len(ms)-1].entity
		}
	}
	return -1
}

// mentionAt returns the mention covering token k, or nil.
func (s *sentence) mentionAt(k int) *mention {
	for i := range s.mentions {
		if s.mentions[i].first <= k && k <= s.mentions[i].last {
			return &s.mentions[i]
		}
	}
	return nil
}

func (s *sentence) entityIDs(r *run) []string {
	var ids []string
	seen := map[int]bool{}
	for _, m := range s.mentions {
		if !seen[m.entity] {
			seen[m.entity] = true
			ids = append(ids, r.entities[m.entity].ID)
		}
	}
	return ids
}
