// Package kb stores facts and Horn-clause rules indexed by predicate
// name and arity. The knowledge base does not interpret clauses; the
// resolver owns their semantics.
package kb

import (
	"fmt"
	"sync"

	"github.com/HsiangNianian/siamese-prototype/pkg/siamese/internalerr"
	"github.com/HsiangNianian/siamese-prototype/pkg/siamese/term"
)

// Clause is a rule head with a conjunctive body. A fact is a clause with
// an empty body.
type Clause struct {
	Head *term.Compound
	Body []*term.Compound
}

// IsFact reports whether the clause holds unconditionally.
func (c Clause) IsFact() bool { return len(c.Body) == 0 }

type key struct {
	name  string
	arity int
}

// KB is an in-memory knowledge base. Writes take a mutex; queries read
// from a Snapshot taken at query start, so a mutation between queries is
// safe and a mutation during a query only affects later queries.
type KB struct {
	mu      sync.Mutex
	buckets map[key][]Clause
}

// New creates an empty knowledge base.
func New() *KB {
	return &KB{buckets: make(map[key][]Clause)}
}

// AddFact appends a fact to the (name, arity) bucket.
func (k *KB) AddFact(name string, args ...any) error {
	tuple := make([]any, 0, len(args)+1)
	tuple = append(tuple, name)
	tuple = append(tuple, args...)
	head, err := term.FromTuple(tuple)
	if err != nil {
		return fmt.Errorf("%w: fact %s: %v", internalerr.ErrMalformedClause, name, err)
	}
	k.Add(Clause{Head: head})
	return nil
}

// AddRule parses head and body tuples and appends the rule. Insertion
// order is preserved and is the resolver's trial order.
func (k *KB) AddRule(head []any, body ...[]any) error {
	c, err := ParseClause(head, body)
	if err != nil {
		return err
	}
	k.Add(c)
	return nil
}

// ParseClause builds a Clause from raw tuples without inserting it.
func ParseClause(head []any, body [][]any) (Clause, error) {
	h, err := term.FromTuple(head)
	if err != nil {
		return Clause{}, fmt.Errorf("%w: head: %v", internalerr.ErrMalformedClause, err)
	}
	goals := make([]*term.Compound, len(body))
	for i, tuple := range body {
		g, err := term.FromTuple(tuple)
		if err != nil {
			return Clause{}, fmt.Errorf("%w: body goal %d of %s: %v", internalerr.ErrMalformedClause, i, h.Name, err)
		}
		goals[i] = g
	}
	return Clause{Head: h, Body: goals}, nil
}

// Add appends an already-parsed clause.
func (k *KB) Add(c Clause) {
	k.mu.Lock()
	defer k.mu.Unlock()
	kk := key{name: c.Head.Name, arity: len(c.Head.Args)}
	k.buckets[kk] = append(k.buckets[kk], c)
}

// AddAll appends clauses in order, under one lock acquisition.
func (k *KB) AddAll(cs []Clause) {
	k.mu.Lock()
	defer k.mu.Unlock()
	for _, c := range cs {
		kk := key{name: c.Head.Name, arity: len(c.Head.Args)}
		k.buckets[kk] = append(k.buckets[kk], c)
	}
}

// Snapshot returns a read-only view of the current clauses. The bucket
// map is copied; later appends to the KB do not alter the view.
func (k *KB) Snapshot() *Snapshot {
	k.mu.Lock()
	defer k.mu.Unlock()
	buckets := make(map[key][]Clause, len(k.buckets))
	for kk, cs := range k.buckets {
		buckets[kk] = cs[:len(cs):len(cs)]
	}
	return &Snapshot{buckets: buckets}
}

// Snapshot is an immutable view of the knowledge base taken at query
// start.
type Snapshot struct {
	buckets map[key][]Clause
}

// ClausesFor returns the clauses under (name, arity) in insertion order.
func (s *Snapshot) ClausesFor(name string, arity int) []Clause {
	return s.buckets[key{name: name, arity: arity}]
}
