package config

import (
	"encoding/json"
	"fmt"
	"regexp"

	"gopkg.in/yaml.v3"
)

// Pattern is a regular expression compiled while the YAML is decoded,
// so a malformed expression fails the load instead of the first match.
type Pattern struct {
	source string
	re     *regexp.Regexp
}

// MustPattern compiles src or panics. Intended for tests and literals.
func MustPattern(src string) Pattern {
	p, err := NewPattern(src)
	if err != nil {
		panic(err)
	}
	return p
}

// NewPattern compiles src.
func NewPattern(src string) (Pattern, error) {
	if src == "" {
		return Pattern{}, nil
	}
	re, err := regexp.Compile(src)
	if err != nil {
		return Pattern{}, fmt.Errorf("compile pattern %q: %w", src, err)
	}
	return Pattern{source: src, re: re}, nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (p *Pattern) UnmarshalYAML(node *yaml.Node) error {
	var src string
	if err := node.Decode(&src); err != nil {
		return err
	}
	compiled, err := NewPattern(src)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*p = compiled
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (p Pattern) MarshalYAML() (any, error) { return p.source, nil }

// MarshalJSON renders the pattern as its source string.
func (p Pattern) MarshalJSON() ([]byte, error) { return json.Marshal(p.source) }

// Empty reports whether no expression was configured.
func (p Pattern) Empty() bool { return p.re == nil }

// IsZero lets omitempty drop unset patterns when marshalling YAML.
func (p Pattern) IsZero() bool { return p.Empty() }

// String returns the source expression.
func (p Pattern) String() string { return p.source }

// MatchString reports whether s contains a match. An empty pattern
// never matches.
func (p Pattern) MatchString(s string) bool {
	return p.re != nil && p.re.MatchString(s)
}

// FindIndex returns the byte span of the leftmost match, or nil.
func (p Pattern) FindIndex(s string) []int {
	if p.re == nil {
		return nil
	}
	return p.re.FindStringIndex(s)
}

// FindAllIndex returns the byte spans of every match.
func (p Pattern) FindAllIndex(s string) [][]int {
	if p.re == nil {
		return nil
	}
	return p.re.FindAllStringIndex(s, -1)
}

// CountMatches returns how many non-overlapping matches s contains.
func (p Pattern) CountMatches(s string) int {
	return len(p.FindAllIndex(s))
}
