// Package config loads knowledge-base files. The format is YAML with
// two top-level sections, facts and rules; insertion order of facts then
// rules defines the resolver's trial order.
//
//	facts:
//	  - [parent, david, john]
//	rules:
//	  - head: [grandparent, "?A", "?C"]
//	    body:
//	      - [parent, "?A", "?P"]
//	      - [parent, "?P", "?C"]
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/HsiangNianian/siamese-prototype/pkg/siamese/internalerr"
	"github.com/HsiangNianian/siamese-prototype/pkg/siamese/kb"
)

// Tuple is a (predicate, arg, arg, ...) sequence.
type Tuple []any

// Rule pairs a head tuple with an ordered body of goal tuples.
type Rule struct {
	Head Tuple   `yaml:"head"`
	Body []Tuple `yaml:"body"`
}

// File is a parsed knowledge-base document.
type File struct {
	Facts []Tuple `yaml:"facts"`
	Rules []Rule  `yaml:"rules"`
}

// Load reads and parses a knowledge-base file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// Parse parses a knowledge-base document.
func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %v", internalerr.ErrInvalidConfig, err)
	}
	return &f, nil
}

// Clauses converts the document to clauses, facts first, validating
// every tuple. Nothing is inserted anywhere on error.
func (f *File) Clauses() ([]kb.Clause, error) {
	out := make([]kb.Clause, 0, len(f.Facts)+len(f.Rules))
	for i, fact := range f.Facts {
		c, err := kb.ParseClause(fact, nil)
		if err != nil {
			return nil, fmt.Errorf("fact %d: %w", i, err)
		}
		out = append(out, c)
	}
	for i, rule := range f.Rules {
		body := make([][]any, len(rule.Body))
		for j, tuple := range rule.Body {
			body[j] = tuple
		}
		c, err := kb.ParseClause(rule.Head, body)
		if err != nil {
			return nil, fmt.Errorf("rule %d: %w", i, err)
		}
		out = append(out, c)
	}
	return out, nil
}
