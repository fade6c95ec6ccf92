package parser

import (
	"fmt"
	"sort"
	"strings"

	"github.com/HendryAvila/specgap/internal/graph"
	"github.com/HendryAvila/specgap/internal/model"
	"github.com/HendryAvila/specgap/internal/textutil"
)

// Words that may sit between a modal and its verb.
var afterModal = map[string]bool{
	"not": true, "be": true, "also": true, "only": true, "then": true,
	"always": true, "never": true, "able": true, "to": true, "still": true,
}

var adjectiveSuffixes = []string{"ful", "ous", "ive", "able", "ible", "al", "ic", "less", "ent", "ant", "ary", "ed"}

// modalHit is a modal phrase and the verb it governs.
type modalHit struct {
	first, last int
	verb        int
	capability  bool
}

func matchWords(toks []textutil.Token, at int, words []string) bool {
	if at+len(words) > len(toks) {
		return false
	}
	for i, w := range words {
		if toks[at+i].Lower != w {
			return false
		}
	}
	return true
}

func adverb(w string) bool {
	return len(w) > 5 && strings.HasSuffix(w, "ly")
}

func adjectival(w string) bool {
	if len(w) <= 4 {
		return false
	}
	for _, s := range adjectiveSuffixes {
		if strings.HasSuffix(w, s) {
			return true
		}
	}
	return false
}

// modalHits finds "modal + verb" pairs, skipping negation, adverbs and
// auxiliaries between the two.
func (p *Parser) modalHits(s *sentence) []modalHit {
	toks := s.tokens
	var hits []modalHit
	for i := 0; i < len(toks); i++ {
		for _, m := range p.modals {
			if !matchWords(toks, i, m.words) {
				continue
			}
			j := i + len(m.words)
			passive := false
			for j < len(toks) && (afterModal[toks[j].Lower] || adverb(toks[j].Lower)) {
				if toks[j].Lower == "be" {
					passive = true
				}
				j++
			}
			if j < len(toks) && p.verbCandidate(toks[j], passive) {
				hits = append(hits, modalHit{first: i, last: i + len(m.words) - 1, verb: j, capability: m.capability})
				i = j
			}
			break
		}
	}
	return hits
}

// verbCandidate reports whether a token right after a modal is a verb.
// After "be" only lexicon verbs count, which drops "must be fast".
func (p *Parser) verbCandidate(t textutil.Token, passive bool) bool {
	if t.Numeric() || p.stopwords[t.Lower] || p.determiners[t.Lower] || p.pronouns[t.Lower] {
		return false
	}
	if p.verbBase(t.Lower) != "" {
		return true
	}
	return !passive && len(t.Lower) >= 2 && !strings.ContainsAny(t.Lower, ".0123456789")
}

// verbBase maps an inflected form onto a lexicon verb, or "".
func (p *Parser) verbBase(w string) string {
	if p.verbs[w] {
		return w
	}
	if stem, ok := strings.CutSuffix(w, "ies"); ok && p.verbs[stem+"y"] {
		return stem + "y"
	}
	for _, suffix := range []string{"ing", "ed", "es", "s", "d"} {
		stem, ok := strings.CutSuffix(w, suffix)
		if !ok || len(stem) < 2 {
			continue
		}
		if p.verbs[stem] {
			return stem
		}
		if p.verbs[stem+"e"] {
			return stem + "e"
		}
		if n := len(stem); n > 2 && stem[n-1] == stem[n-2] && p.verbs[stem[:n-1]] {
			return stem[:n-1]
		}
	}
	return ""
}

func (p *Parser) typeWord(w string) bool {
	return p.lex.TypePhrases.MatchString(w)
}

func (p *Parser) isAttribute(t textutil.Token) bool {
	return p.attrTerms[textutil.Singular(t.Lower)]
}

// typeFor infers an entity type from the head word of a span.
func (p *Parser) typeFor(head string, fallback model.EntityType) model.EntityType {
	w := textutil.Singular(head)
	if t, ok := p.dict[w]; ok {
		return t
	}
	if p.suffixes[w] {
		return model.EntitySystem
	}
	return fallback
}

func (p *Parser) properNoun(t textutil.Token) bool {
	return t.Capitalized() && !t.Numeric() && len(t.Lower) >= 2 &&
		!p.stopwords[t.Lower] && !p.determiners[t.Lower] && !p.pronouns[t.Lower] &&
		!p.typeWord(t.Lower) && !p.isAttribute(t)
}

func (p *Parser) nounLike(t textutil.Token, verbTok map[int]bool, k int) bool {
	w := t.Lower
	return !verbTok[k] && !t.Numeric() && len(w) >= 3 &&
		!p.stopwords[w] && !p.determiners[w] && !p.pronouns[w] &&
		!p.isAttribute(t) && p.verbBase(w) == "" && !p.typeWord(w) && !adverb(w) &&
		!strings.ContainsAny(w, ".0123456789")
}

// candidate is an unmerged entity occurrence.
type candidate struct {
	sent        int
	first, last int
	name, norm  string
	typ         model.EntityType
	fromDict    bool
}

// candidates finds entity occurrences in one sentence from three
// sources, in priority order: dictionary hits, capitalized spans that
// do not start the sentence, and the first noun after a determiner.
func (p *Parser) candidates(s *sentence) []candidate {
	toks := s.tokens
	n := len(toks)
	claimed := make([]bool, n)
	verbTok := map[int]bool{}
	for _, h := range s.modal {
		verbTok[h.verb] = true
	}

	var out []candidate
	add := func(first, last int, typ model.EntityType, fromDict bool) {
		words := make([]string, 0, last-first+1)
		for k := first; k <= last; k++ {
			words = append(words, toks[k].Lower)
			claimed[k] = true
		}
		name := textutil.SingularPhrase(strings.Join(words, " "))
		out = append(out, candidate{
			sent: s.index, first: first, last: last,
			name: name, norm: textutil.NormalizeName(name),
			typ: typ, fromDict: fromDict,
		})
	}

	for i := 0; i < n; i++ {
		if claimed[i] || verbTok[i] || p.isAttribute(toks[i]) {
			continue
		}
		if i+1 < n && !verbTok[i+1] {
			if t, ok := p.dict[toks[i].Lower+" "+textutil.Singular(toks[i+1].Lower)]; ok {
				add(i, i+1, t, true)
				i++
				continue
			}
		}
		t, ok := p.dict[textutil.Singular(toks[i].Lower)]
		if !ok {
			continue
		}
		if i > 0 && toks[i-1].Lower == "to" && p.verbBase(toks[i].Lower) != "" {
			continue
		}
		add(i, i, t, true)
	}

	for i := 1; i < n; i++ {
		if claimed[i] || verbTok[i] || !p.properNoun(toks[i]) {
			continue
		}
		j := i
		for j+1 < n && !claimed[j+1] && !verbTok[j+1] && p.properNoun(toks[j+1]) {
			j++
		}
		add(i, j, p.typeFor(toks[j].Lower, model.EntitySystem), false)
		i = j
	}

	for i := 0; i+1 < n; i++ {
		if !p.determiners[toks[i].Lower] {
			continue
		}
		j := i + 1
		for skipped := 0; skipped < 2 && j < n && !claimed[j]; skipped++ {
			w := toks[j].Lower
			if p.stopwords[w] || (adjectival(w) && j+1 < n && p.nounLike(toks[j+1], verbTok, j+1)) {
				j++
				continue
			}
			break
		}
		if j >= n || claimed[j] || !p.nounLike(toks[j], verbTok, j) {
			continue
		}
		add(j, j, p.typeFor(toks[j].Lower, model.EntityObject), false)
	}

	sort.SliceStable(out, func(a, b int) bool { return out[a].first < out[b].first })
	return out
}

type nameInfo struct {
	display  string
	norm     string
	typ      model.EntityType
	fromDict bool
}

// extractEntities collects candidates from every sentence and merges
// near-identical names with union-find. The canonical name is the first
// one seen; a dictionary type beats an inferred one.
func (r *run) extractEntities() {
	var cands []candidate
	for _, s := range r.sentences {
		cands = append(cands, r.p.candidates(s)...)
	}

	index := map[string]int{}
	var names []nameInfo
	nameOf := make([]int, len(cands))
	for i, c := range cands {
		k, ok := index[c.norm]
		if !ok {
			k = len(names)
			index[c.norm] = k
			names = append(names, nameInfo{display: c.name, norm: c.norm, typ: c.typ, fromDict: c.fromDict})
		} else if c.fromDict && !names[k].fromDict {
			names[k].typ, names[k].fromDict = c.typ, true
		}
		nameOf[i] = k
	}

	uf := graph.NewUnionFind(len(names))
	for i := range names {
		for j := i + 1; j < len(names); j++ {
			if textutil.Similarity(names[i].norm, names[j].norm) >= r.p.opts.MergeThreshold {
				uf.Union(i, j)
			}
		}
	}

	comps := uf.Components()
	entityOf := make([]int, len(names))
	for ei, comp := range comps {
		canon := names[comp[0]]
		typ := canon.typ
		for _, m := range comp {
			if names[m].fromDict {
				typ = names[m].typ
				break
			}
		}
		e := &entity{
			Entity: model.Entity{ID: model.SeqID("E", ei+1), Name: canon.display, Type: typ},
			attrs:  map[string]*model.Attribute{},
		}
		for _, m := range comp {
			entityOf[m] = ei
		}
		for _, m := range comp[1:] {
			sim := textutil.Similarity(canon.norm, names[m].norm)
			e.penalty += 0.1
			r.warnings = append(r.warnings, model.DetectionAmbiguityWarning{
				Kind:       model.WarningEntityMerge,
				Subject:    e.ID,
				Message:    fmt.Sprintf("merged %q into %q", names[m].display, canon.display),
				Confidence: textutil.Round(sim, 2),
			})
		}
		r.entities = append(r.entities, e)
	}

	for i, c := range cands {
		ei := entityOf[nameOf[i]]
		if nameOf[i] != comps[ei][0] {
			r.merged++
		}
		s := r.sentences[c.sent]
		start := s.tokens[c.first].Start
		e := r.entities[ei]
		e.Mentions = append(e.Mentions, model.Mention{
			SentenceID: s.ID,
			Text:       s.Text[start:s.tokens[c.last].End],
			Position:   textutil.RuneOffset(s.Text, start),
		})
		s.mentions = append(s.mentions, mention{entity: ei, first: c.first, last: c.last})
	}
}
