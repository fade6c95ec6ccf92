package risk

import (
	"sort"
	"strings"

	"github.com/HendryAvila/specgap/internal/config"
	"github.com/HendryAvila/specgap/internal/model"
)

// match is one risk pattern that fired for an element.
type match struct {
	pattern   *config.RiskPattern
	index     int
	relevance int
}

// haystack is the lower-cased text keywords are searched in.
func haystack(el *model.UndefinedElement) string {
	parts := []string{el.Title, el.Description, el.Context.Text}
	keys := make([]string, 0, len(el.Terms))
	for k := range el.Terms {
		if k != model.TermActionKind {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		parts = append(parts, el.Terms[k])
	}
	return strings.ToLower(strings.Join(parts, "\n"))
}

// matchPattern tests one pattern against an element. The category
// trigger must hold when declared; of the keyword and action-kind
// triggers at least one must hit when any is declared.
func matchPattern(p *config.RiskPattern, el *model.UndefinedElement, text string) (int, bool) {
	relevance := 0
	if len(p.Categories) > 0 {
		catHit, subHit := false, false
		for _, c := range p.Categories {
			switch c {
			case el.Category:
				catHit = true
			case el.Key():
				subHit = true
			}
		}
		if !catHit && !subHit {
			return 0, false
		}
		if subHit {
			relevance += 2
		}
		if catHit {
			relevance++
		}
	}

	hits := 0
	for _, kw := range p.Keywords {
		if strings.Contains(text, strings.ToLower(kw)) {
			hits++
		}
	}
	if kind := el.Terms[model.TermActionKind]; kind != "" {
		for _, k := range p.ActionKinds {
			if k == kind {
				hits++
			}
		}
	}
	if hits == 0 && (len(p.Keywords) > 0 || len(p.ActionKinds) > 0) {
		return 0, false
	}
	return relevance + hits, true
}

// matches returns every firing pattern, most relevant first, ties in
// table order.
func (e *Evaluator) matches(el *model.UndefinedElement) []match {
	text := haystack(el)
	var out []match
	for i := range e.kb.Patterns {
		p := &e.kb.Patterns[i]
		if rel, ok := matchPattern(p, el, text); ok {
			out = append(out, match{pattern: p, index: i, relevance: rel})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].relevance > out[j].relevance
	})
	return out
}
