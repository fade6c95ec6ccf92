package parser

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/HendryAvila/specgap/internal/model"
	"github.com/HendryAvila/specgap/internal/textutil"
)

var bullet = regexp.MustCompile(`^(?:[-*+•]|\d+[.)])\s+`)

// Abbreviations whose trailing period does not end a sentence.
var abbreviations = map[string]bool{
	"e.g": true, "i.e": true, "vs": true, "cf": true, "approx": true,
	"mr": true, "mrs": true, "ms": true, "dr": true,
}

// split breaks the normalized text into typed sentences. Markdown
// headings are skipped and list bullets stripped.
func (r *run) split(normalized string) {
	offset := 0
	for lineNo, line := range strings.Split(normalized, "\n") {
		lineStart := offset
		offset += utf8.RuneCountInString(line) + 1
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		skip := 0
		if loc := bullet.FindStringIndex(line); loc != nil {
			skip = loc[1]
		}
		body := line[skip:]
		for _, sp := range sentenceSpans(body) {
			raw := body[sp[0]:sp[1]]
			text := strings.TrimSpace(raw)
			if !hasWord(text) {
				continue
			}
			lead := len(raw) - len(strings.TrimLeft(raw, " "))
			start := lineStart + utf8.RuneCountInString(line[:skip+sp[0]+lead])
			r.addSentence(text, lineNo+1, start)
		}
	}
}

func (r *run) addSentence(text string, line, start int) {
	s := &sentence{
		Sentence: model.Sentence{
			ID:    model.SeqID("S", len(r.sentences)+1),
			Text:  text,
			Line:  line,
			Start: start,
			End:   start + utf8.RuneCountInString(text),
			Type:  r.p.classify(text),
		},
		index:  len(r.sentences),
		tokens: textutil.Tokenize(text),
	}
	s.clauses = r.p.conditionClauses(text)
	s.modal = r.p.modalHits(s)
	r.sentences = append(r.sentences, s)
}

// sentenceSpans splits one line on ". ! ?" followed by a blank or the
// end of the line.
func sentenceSpans(line string) [][2]int {
	var spans [][2]int
	last := 0
	for i := 0; i < len(line); i++ {
		c := line[i]
		if c != '.' && c != '!' && c != '?' {
			continue
		}
		if i+1 < len(line) && line[i+1] != ' ' {
			continue
		}
		if c == '.' && abbreviations[strings.ToLower(wordBefore(line, i))] {
			continue
		}
		spans = append(spans, [2]int{last, i + 1})
		last = i + 1
	}
	if strings.TrimSpace(line[last:]) != "" {
		spans = append(spans, [2]int{last, len(line)})
	}
	return spans
}

func wordBefore(line string, end int) string {
	start := strings.LastIndexByte(line[:end], ' ') + 1
	return line[start:end]
}

func hasWord(s string) bool {
	for _, c := range s {
		if unicode.IsLetter(c) || unicode.IsDigit(c) {
			return true
		}
	}
	return false
}

// classify types a sentence by the ordered cue table. A sentence with no
// cue that names a quality attribute is still a requirement.
func (p *Parser) classify(text string) model.SentenceType {
	for _, c := range p.lex.SentenceCues {
		if c.Pattern.MatchString(text) {
			return c.Type
		}
	}
	if p.qualityGroup(text) != "" {
		return model.SentenceRequirement
	}
	return model.SentenceExplanation
}

// qualityGroup returns the first quality group the text names, or "".
func (p *Parser) qualityGroup(text string) string {
	for _, g := range p.lex.QualityGroups {
		if g.Pattern.MatchString(text) {
			return g.Name
		}
	}
	return ""
}

// isVague reports whether text contains any ambiguous phrase.
func (p *Parser) isVague(text string) bool {
	for _, ph := range p.lex.AmbiguousPhrases {
		if ph.MatchString(text) {
			return true
		}
	}
	return false
}
