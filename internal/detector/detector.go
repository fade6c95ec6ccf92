// Package detector finds the parts of a parsed specification that are
// left undefined. Two sources feed it: an ordered rule table matched
// against every sentence, and semantic heuristics over the parsed
// structure. Surviving candidates are filtered, given clarification
// questions and grouped into connected components.
package detector

import (
	"fmt"
	"time"

	"github.com/HendryAvila/specgap/internal/config"
	"github.com/HendryAvila/specgap/internal/model"
	"github.com/HendryAvila/specgap/internal/templates"
	"github.com/HendryAvila/specgap/internal/textutil"
)

// timeNow is replaced in tests.
var timeNow = time.Now

// Options tune detection.
type Options struct {
	ConfidenceThreshold float64
	MaxQuestions        int
	// EnabledCategories restricts output to these categories. Empty
	// means every declared category.
	EnabledCategories []string
	// KeywordOverlap is the Jaccard overlap above which two elements are
	// grouped even without a shared entity or action.
	KeywordOverlap float64
	// Stopwords are ignored when computing keyword overlap. Empty means
	// a small built-in list.
	Stopwords []string
}

// DefaultOptions returns the standard detector options.
func DefaultOptions() Options {
	return Options{
		ConfidenceThreshold: 0.5,
		MaxQuestions:        5,
		KeywordOverlap:      0.5,
	}
}

var defaultStopwords = []string{
	"the", "and", "for", "with", "that", "this", "from", "not", "are", "is",
	"was", "can", "may", "must", "shall", "should", "will", "when", "then",
	"their", "its", "has", "have", "been", "being", "into", "onto", "any",
	"all", "each", "every", "some", "what", "which", "who", "how",
}

// Detector is the undefined-element detector. It is safe for concurrent
// use.
type Detector struct {
	rules     config.RuleTable
	opts      Options
	enabled   map[string]bool
	stopwords map[string]bool
	conflicts map[[2]string]bool
}

// New builds a Detector over a validated rule table.
func New(rules config.RuleTable, opts Options) (*Detector, error) {
	const src = "detector options"
	if opts.ConfidenceThreshold < 0 || opts.ConfidenceThreshold > 1 {
		return nil, model.ConfigError(src, "confidence threshold %.2f outside [0,1]", opts.ConfidenceThreshold)
	}
	if opts.MaxQuestions < 1 {
		return nil, model.ConfigError(src, "max questions must be at least 1, got %d", opts.MaxQuestions)
	}
	if opts.KeywordOverlap <= 0 || opts.KeywordOverlap > 1 {
		return nil, model.ConfigError(src, "keyword overlap %.2f outside (0,1]", opts.KeywordOverlap)
	}

	d := &Detector{
		rules:     rules,
		opts:      opts,
		enabled:   map[string]bool{},
		conflicts: map[[2]string]bool{},
	}
	if len(opts.EnabledCategories) == 0 {
		for _, c := range rules.CategoryNames() {
			d.enabled[c] = true
		}
	}
	for _, c := range opts.EnabledCategories {
		if !rules.HasCategory(c) {
			return nil, model.ConfigError(src, "enabled category %q is not declared", c)
		}
		d.enabled[c] = true
	}
	words := opts.Stopwords
	if len(words) == 0 {
		words = defaultStopwords
	}
	d.stopwords = textutil.Set(words)
	for _, pair := range rules.Conflicts {
		d.conflicts[[2]string{pair[0], pair[1]}] = true
		d.conflicts[[2]string{pair[1], pair[0]}] = true
	}
	return d, nil
}

// Extract runs detection over one parsed document.
func (d *Detector) Extract(parsed *model.ParsedRequirement) (*model.UndefinedElements, error) {
	if parsed == nil {
		return nil, model.InvalidInput("parsed requirement is nil")
	}
	s := newScan(d, parsed)
	s.applyRules()
	s.applyHeuristics()
	cands := s.ordered()

	stats := model.DetectionStatistics{
		Candidates:   len(cands),
		ByCategory:   map[string]int{},
		ByConfidence: map[string]int{},
		BySeverity:   map[model.Severity]int{},
		Warnings:     s.warnings,
	}
	elements := []model.UndefinedElement{}
	for _, c := range cands {
		switch {
		case !d.enabled[c.category]:
			stats.Disabled++
			continue
		case c.confidence < d.opts.ConfidenceThreshold:
			stats.Discarded++
			continue
		}
		el := d.element(c, len(elements)+1)
		elements = append(elements, el)
		stats.ByCategory[el.Category]++
		stats.ByConfidence[model.ConfidenceBand(el.Detection.Confidence)]++
		stats.BySeverity[el.Severity]++
	}
	stats.Retained = len(elements)

	groups := d.group(elements)
	return &model.UndefinedElements{
		Stamp:      model.Stamp{DocumentID: parsed.DocumentID, GeneratedAt: timeNow().UTC()},
		Elements:   elements,
		Groups:     groups,
		Statistics: stats,
		Meta:       d.meta(parsed, elements),
	}, nil
}

// element renders a retained candidate.
func (d *Detector) element(c *candidate, n int) model.UndefinedElement {
	sub, _ := d.rules.Subcategory(c.category, c.subcategory)
	return model.UndefinedElement{
		ID:            model.SeqID("UE", n),
		Category:      c.category,
		Subcategory:   c.subcategory,
		EntityID:      c.entityID,
		ActionID:      c.actionID,
		RequirementID: c.requirementID,
		Title:         templates.Substitute(sub.Title, c.terms),
		Description:   templates.Substitute(sub.Description, c.terms),
		Severity:      sub.Severity,
		Terms:         c.terms,
		Questions:     d.questions(c.category+"/"+c.subcategory, c.terms),
		Detection: model.Detection{
			Method:     c.method,
			RuleID:     c.ruleID,
			Confidence: textutil.Round(c.confidence, 4),
			Reasoning:  c.reasoning,
		},
		Context: model.SourceContext{
			SentenceID: c.sentenceID,
			Line:       c.line,
			Text:       c.text,
			Match:      c.match,
		},
	}
}

// meta reads the retained elements at document level.
func (d *Detector) meta(parsed *model.ParsedRequirement, elements []model.UndefinedElement) model.MetaAnalysis {
	var m model.MetaAnalysis
	if n := len(parsed.Requirements); n > 0 {
		sum := 0.0
		for _, r := range parsed.Requirements {
			sum += r.CompletenessScore
		}
		m.OverallCompleteness = textutil.Round(sum/float64(n), 4)
	}

	const maxCritical = 5
	seen := map[string]bool{}
	for _, el := range elements {
		if el.Severity == model.SeverityHigh && !seen[el.Title] && len(m.CriticalGaps) < maxCritical {
			seen[el.Title] = true
			m.CriticalGaps = append(m.CriticalGaps, el.Title)
		}
	}

	counts := map[string]int{}
	for _, el := range elements {
		counts[el.Category]++
	}
	for _, c := range d.rules.Categories {
		if counts[c.Name] == 0 {
			continue
		}
		m.Recommendations = append(m.Recommendations,
			fmt.Sprintf("Resolve %d %s element(s): %s", counts[c.Name], c.Name, c.Description))
	}
	return m
}
