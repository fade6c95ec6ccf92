// Package config loads the rule tables the analysis stages run on.
//
// A Bundle holds the parser lexicon, the detection rule table, the risk
// knowledge base and the planning table. Defaults are embedded; any of
// the four files can be replaced from a directory. A Bundle is treated
// as immutable once loaded: reloads build a new Bundle and publish it
// through a Holder.
package config

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/HendryAvila/specgap/internal/model"
)

//go:embed defaults/*.yaml
var defaultFS embed.FS

// File names recognised by LoadDir.
const (
	LexiconFile   = "lexicon.yaml"
	RulesFile     = "rules.yaml"
	KnowledgeFile = "knowledge.yaml"
	PlanningFile  = "planning.yaml"
)

// Bundle is the complete configuration of one pipeline run.
type Bundle struct {
	Lexicon   Lexicon       `json:"lexicon"`
	Rules     RuleTable     `json:"rules"`
	Knowledge KnowledgeBase `json:"knowledge"`
	Planning  PlanningTable `json:"planning"`
}

// Default returns a validated Bundle built from the embedded files.
func Default() (*Bundle, error) {
	return LoadDir("")
}

// LoadDir loads a Bundle, taking each file from dir when present and
// from the embedded defaults otherwise. An empty dir uses only defaults.
func LoadDir(dir string) (*Bundle, error) {
	b := &Bundle{}
	targets := []struct {
		name string
		into any
	}{
		{LexiconFile, &b.Lexicon},
		{RulesFile, &b.Rules},
		{KnowledgeFile, &b.Knowledge},
		{PlanningFile, &b.Planning},
	}
	for _, t := range targets {
		data, err := readConfigFile(dir, t.name)
		if err != nil {
			return nil, err
		}
		if err := decodeStrict(data, t.into); err != nil {
			return nil, &model.ConfigurationError{Source: t.name, Reason: "parse", Err: err}
		}
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return b, nil
}

func readConfigFile(dir, name string) ([]byte, error) {
	if dir != "" {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err == nil {
			return data, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, &model.ConfigurationError{Source: name, Reason: "read", Err: err}
		}
	}
	data, err := defaultFS.ReadFile("defaults/" + name)
	if err != nil {
		return nil, &model.ConfigurationError{Source: name, Reason: "read embedded default", Err: err}
	}
	return data, nil
}

// decodeStrict rejects unknown keys so a typo in a rule table is an
// error rather than a silently ignored field.
func decodeStrict(data []byte, into any) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(into); err != nil {
		return fmt.Errorf("decode yaml: %w", err)
	}
	return nil
}

// Validate checks each table and the references between them.
func (b *Bundle) Validate() error {
	if err := b.Lexicon.Validate(); err != nil {
		return err
	}
	if err := b.Rules.Validate(); err != nil {
		return err
	}
	categories := b.Rules.CategoryNames()
	if err := b.Knowledge.Validate(categories); err != nil {
		return err
	}
	return b.Planning.Validate(categories)
}

// DefaultFile returns the embedded default for one of the file names,
// for `specgap config dump` style exports and tests.
func DefaultFile(name string) ([]byte, error) {
	return defaultFS.ReadFile("defaults/" + name)
}
