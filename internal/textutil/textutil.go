// Package textutil holds the small text primitives shared by the parser
// and the detector: normalization, tokenization, singularization,
// edit-distance similarity and keyword overlap.
package textutil

import (
	"math"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

var blankRun = regexp.MustCompile(`[ \t\f\v\x{00A0}\x{3000}]+`)

// Normalize folds line endings to LF, folds full-width characters to
// their narrow forms, composes to NFC, collapses runs of blanks and
// trims every line.
func Normalize(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = width.Fold.String(text)
	text = norm.NFC.String(text)

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(blankRun.ReplaceAllString(line, " "))
	}
	return strings.Join(lines, "\n")
}

// Token is one word of a sentence. Start and End are byte offsets.
type Token struct {
	Text       string
	Lower      string
	Start      int
	End        int
	Possessive bool
}

// Capitalized reports whether the token starts with an upper-case letter.
func (t Token) Capitalized() bool {
	r, _ := utf8.DecodeRuneInString(t.Text)
	return unicode.IsUpper(r)
}

// Numeric reports whether the token starts with a digit.
func (t Token) Numeric() bool {
	r, _ := utf8.DecodeRuneInString(t.Text)
	return unicode.IsDigit(r)
}

var wordRe = regexp.MustCompile(`[\p{L}\p{N}]+(?:['’.\-][\p{L}\p{N}]+)*`)

// Tokenize splits s into word tokens. A trailing "'s" is stripped and
// recorded as Possessive.
func Tokenize(s string) []Token {
	spans := wordRe.FindAllStringIndex(s, -1)
	tokens := make([]Token, 0, len(spans))
	for _, sp := range spans {
		text := s[sp[0]:sp[1]]
		lower := strings.ToLower(text)
		tok := Token{Text: text, Lower: lower, Start: sp[0], End: sp[1]}
		for _, suffix := range []string{"'s", "’s"} {
			if strings.HasSuffix(lower, suffix) && len(lower) > len(suffix) {
				tok.Lower = strings.TrimSuffix(lower, suffix)
				tok.Possessive = true
				break
			}
		}
		tokens = append(tokens, tok)
	}
	return tokens
}

// RuneOffset converts a byte offset in s into a rune offset.
func RuneOffset(s string, byteOff int) int {
	if byteOff > len(s) {
		byteOff = len(s)
	}
	return utf8.RuneCountInString(s[:byteOff])
}

// Singular returns a crude singular form of an English word: "ies"
// becomes "y" and a trailing "s" is dropped unless the word ends in
// "ss", "us" or "is". Words of three letters or fewer are unchanged.
func Singular(word string) string {
	if len(word) <= 3 {
		return word
	}
	switch {
	case strings.HasSuffix(word, "ies"):
		return strings.TrimSuffix(word, "ies") + "y"
	case strings.HasSuffix(word, "ss"), strings.HasSuffix(word, "us"), strings.HasSuffix(word, "is"):
		return word
	case strings.HasSuffix(word, "s"):
		return strings.TrimSuffix(word, "s")
	}
	return word
}

// SingularPhrase lower-cases a phrase and singularizes its last word.
func SingularPhrase(phrase string) string {
	words := strings.Fields(strings.ToLower(phrase))
	if len(words) == 0 {
		return ""
	}
	words[len(words)-1] = Singular(words[len(words)-1])
	return strings.Join(words, " ")
}

// NormalizeName reduces a name to the key used for entity matching:
// lower case, every word singularized, non-alphanumerics removed.
func NormalizeName(name string) string {
	var b strings.Builder
	for _, w := range strings.Fields(strings.ToLower(name)) {
		for _, r := range Singular(w) {
			if unicode.IsLetter(r) || unicode.IsDigit(r) {
				b.WriteRune(r)
			}
		}
	}
	return b.String()
}

// Levenshtein returns the edit distance between a and b in runes.
func Levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}
	prev := make([]int, len(rb)+1)
	cur := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		cur[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			cur[j] = min(prev[j]+1, cur[j-1]+1, prev[j-1]+cost)
		}
		prev, cur = cur, prev
	}
	return prev[len(rb)]
}

// Similarity is 1 - Levenshtein(a, b) / max(len(a), len(b)) in runes.
// Two empty strings are identical.
func Similarity(a, b string) float64 {
	la, lb := utf8.RuneCountInString(a), utf8.RuneCountInString(b)
	longest := max(la, lb)
	if longest == 0 {
		return 1
	}
	return 1 - float64(Levenshtein(a, b))/float64(longest)
}

// Keywords returns the distinct singular content words of s, skipping
// stopwords and tokens shorter than three letters.
func Keywords(s string, stopwords map[string]bool) map[string]bool {
	out := map[string]bool{}
	for _, t := range Tokenize(s) {
		if len(t.Lower) < 3 || t.Numeric() || stopwords[t.Lower] {
			continue
		}
		out[Singular(t.Lower)] = true
	}
	return out
}

// Jaccard returns |a ∩ b| / |a ∪ b|, or 0 when both are empty.
func Jaccard(a, b map[string]bool) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	inter := 0
	for k := range a {
		if b[k] {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	return float64(inter) / float64(union)
}

// Set builds a lookup set from a word list, lower-cased.
func Set(words []string) map[string]bool {
	out := make(map[string]bool, len(words))
	for _, w := range words {
		out[strings.ToLower(w)] = true
	}
	return out
}

// Round rounds v to the given number of decimal places.
func Round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
