// Package unify implements first-order syntactic unification over an
// immutable substitution.
package unify

import (
	"github.com/HsiangNianian/siamese-prototype/pkg/siamese/term"
)

// Bindings is an immutable substitution from variable names to terms,
// represented as a shared-tail association list. The nil *Bindings is the
// empty substitution. Bind never mutates: outer resolution frames keep
// their view of the substitution across backtracking.
type Bindings struct {
	name  string
	value term.Term
	next  *Bindings
}

// Bind returns a new substitution extending b with name -> value.
func (b *Bindings) Bind(name string, value term.Term) *Bindings {
	return &Bindings{name: name, value: value, next: b}
}

// Lookup returns the binding for name, if any.
func (b *Bindings) Lookup(name string) (term.Term, bool) {
	for cur := b; cur != nil; cur = cur.next {
		if cur.name == name {
			return cur.value, true
		}
	}
	return nil, false
}

// Len returns the number of binding entries.
func (b *Bindings) Len() int {
	n := 0
	for cur := b; cur != nil; cur = cur.next {
		n++
	}
	return n
}

// Names returns all bound variable names, innermost binding first.
func (b *Bindings) Names() []string {
	var names []string
	for cur := b; cur != nil; cur = cur.next {
		names = append(names, cur.name)
	}
	return names
}

// Walk resolves t through b until a non-variable or an unbound variable
// is reached. It is shallow: compound arguments are left untouched.
func Walk(t term.Term, b *Bindings) term.Term {
	for {
		v, ok := t.(term.Var)
		if !ok {
			return t
		}
		bound, ok := b.Lookup(string(v))
		if !ok {
			return t
		}
		t = bound
	}
}

// DeepWalk substitutes every bound variable in t, recursively. Used when
// projecting solutions back to the caller.
func DeepWalk(t term.Term, b *Bindings) term.Term {
	t = Walk(t, b)
	switch x := t.(type) {
	case *term.Compound:
		args := make([]term.Term, len(x.Args))
		for i, a := range x.Args {
			args[i] = DeepWalk(a, b)
		}
		return &term.Compound{Name: x.Name, Args: args}
	case term.List:
		out := make(term.List, len(x))
		for i, e := range x {
			out[i] = DeepWalk(e, b)
		}
		return out
	case term.Object:
		out := make(term.Object, len(x))
		for k, v := range x {
			out[k] = DeepWalk(v, b)
		}
		return out
	}
	return t
}

// ResolveGoal substitutes the current bindings into a goal's arguments,
// leaving unbound variables in place.
func ResolveGoal(g *term.Compound, b *Bindings) *term.Compound {
	args := make([]term.Term, len(g.Args))
	for i, a := range g.Args {
		args[i] = DeepWalk(a, b)
	}
	return &term.Compound{Name: g.Name, Args: args}
}

// Unify attempts to make a and b structurally equal under bs, returning
// the extended substitution. On failure the input bs remains valid for
// the caller's backtracking. There is no occurs-check: the term language
// cannot construct a cyclic binding.
func Unify(a, b term.Term, bs *Bindings) (*Bindings, bool) {
	a = Walk(a, bs)
	b = Walk(b, bs)

	if term.Equal(a, b) {
		return bs, true
	}
	if v, ok := a.(term.Var); ok {
		return bs.Bind(string(v), b), true
	}
	if v, ok := b.(term.Var); ok {
		return bs.Bind(string(v), a), true
	}

	switch x := a.(type) {
	case *term.Compound:
		y, ok := b.(*term.Compound)
		if !ok || x.Name != y.Name || len(x.Args) != len(y.Args) {
			return bs, false
		}
		return unifyAll(x.Args, y.Args, bs)
	case term.List:
		y, ok := b.(term.List)
		if !ok || len(x) != len(y) {
			return bs, false
		}
		return unifyAll(x, y, bs)
	case term.Object:
		y, ok := b.(term.Object)
		if !ok || len(x) != len(y) {
			return bs, false
		}
		for k, v := range x {
			w, found := y[k]
			if !found {
				return bs, false
			}
			next, ok := Unify(v, w, bs)
			if !ok {
				return bs, false
			}
			bs = next
		}
		return bs, true
	}
	return bs, false
}

func unifyAll(xs, ys []term.Term, bs *Bindings) (*Bindings, bool) {
	cur := bs
	for i := range xs {
		next, ok := Unify(xs[i], ys[i], cur)
		if !ok {
			return bs, false
		}
		cur = next
	}
	return cur, true
}
