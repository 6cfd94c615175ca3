// Package term defines the value model of the inference engine: atoms,
// numbers, booleans, strings, logic variables and compound goals.
package term

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/HsiangNianian/siamese-prototype/pkg/siamese/internalerr"
)

// VarSigil prefixes every user-facing variable name.
const VarSigil = "?"

// freshSep separates a variable's base name from its renaming counter.
// User-supplied names never contain it, so renamed variables can never
// collide with user variables.
const freshSep = "#"

// Term is a logic value. The concrete variants are Atom, Num, Bool, Str,
// Var, Compound, List and Object.
type Term interface {
	fmt.Stringer
	isTerm()
}

// Atom is a symbolic constant, equal by name.
type Atom string

// Str is an opaque string literal, distinct from Atom. Used for URLs,
// paths and JSON string values.
type Str string

// Bool is a boolean constant.
type Bool bool

// Var is a logic variable, identified by its name (sigil included).
type Var string

// Num is a numeric constant, integer or floating-point. Integer inputs
// keep integer exactness; equality is by numeric value, so Int(1) and
// Float(1.0) are equal.
type Num struct {
	i     int64
	f     float64
	exact bool
}

// Int builds an integer Num.
func Int(n int64) Num { return Num{i: n, exact: true} }

// Float builds a floating-point Num.
func Float(f float64) Num { return Num{f: f} }

// IsInt reports whether the Num was built from an integer.
func (n Num) IsInt() bool { return n.exact }

// Int64 returns the integer value; only meaningful when IsInt is true.
func (n Num) Int64() int64 { return n.i }

// Float64 returns the numeric value as a float.
func (n Num) Float64() float64 {
	if n.exact {
		return float64(n.i)
	}
	return n.f
}

// Compound is a predicate name applied to an ordered argument list.
// A goal submitted to the resolver is always a Compound.
type Compound struct {
	Name string
	Args []Term
}

// List is an ordered sequence of terms. JSON arrays and nested tuples
// decode to Lists; member iterates over them.
type List []Term

// Object is a string-keyed map of terms. JSON objects decode to Objects.
type Object map[string]Term

func (Atom) isTerm()      {}
func (Str) isTerm()       {}
func (Bool) isTerm()      {}
func (Var) isTerm()       {}
func (Num) isTerm()       {}
func (*Compound) isTerm() {}
func (List) isTerm()      {}
func (Object) isTerm()    {}

func (a Atom) String() string { return string(a) }

func (s Str) String() string { return strconv.Quote(string(s)) }

func (b Bool) String() string {
	if b {
		return "true"
	}
	return "false"
}

func (v Var) String() string { return string(v) }

func (n Num) String() string {
	if n.exact {
		return strconv.FormatInt(n.i, 10)
	}
	return strconv.FormatFloat(n.f, 'g', -1, 64)
}

func (c *Compound) String() string {
	parts := make([]string, len(c.Args))
	for i, a := range c.Args {
		parts[i] = a.String()
	}
	return c.Name + "(" + strings.Join(parts, ", ") + ")"
}

func (l List) String() string {
	parts := make([]string, len(l))
	for i, t := range l {
		parts[i] = t.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func (o Object) String() string {
	keys := make([]string, 0, len(o))
	for k := range o {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = strconv.Quote(k) + ": " + o[k].String()
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// IsVar reports whether t is a logic variable.
func IsVar(t Term) bool {
	_, ok := t.(Var)
	return ok
}

// IsGround reports whether t contains no variable.
func IsGround(t Term) bool {
	switch x := t.(type) {
	case Var:
		return false
	case *Compound:
		for _, a := range x.Args {
			if !IsGround(a) {
				return false
			}
		}
	case List:
		for _, e := range x {
			if !IsGround(e) {
				return false
			}
		}
	case Object:
		for _, v := range x {
			if !IsGround(v) {
				return false
			}
		}
	}
	return true
}

// Equal reports structural equality. Variables are equal only when their
// names are equal; Nums compare by numeric value; Bool never equals Num.
func Equal(a, b Term) bool {
	switch x := a.(type) {
	case Atom:
		y, ok := b.(Atom)
		return ok && x == y
	case Str:
		y, ok := b.(Str)
		return ok && x == y
	case Bool:
		y, ok := b.(Bool)
		return ok && x == y
	case Var:
		y, ok := b.(Var)
		return ok && x == y
	case Num:
		y, ok := b.(Num)
		if !ok {
			return false
		}
		if x.exact && y.exact {
			return x.i == y.i
		}
		return x.Float64() == y.Float64()
	case *Compound:
		y, ok := b.(*Compound)
		if !ok || x.Name != y.Name || len(x.Args) != len(y.Args) {
			return false
		}
		for i := range x.Args {
			if !Equal(x.Args[i], y.Args[i]) {
				return false
			}
		}
		return true
	case List:
		y, ok := b.(List)
		if !ok || len(x) != len(y) {
			return false
		}
		for i := range x {
			if !Equal(x[i], y[i]) {
				return false
			}
		}
		return true
	case Object:
		y, ok := b.(Object)
		if !ok || len(x) != len(y) {
			return false
		}
		for k, v := range x {
			w, ok := y[k]
			if !ok || !Equal(v, w) {
				return false
			}
		}
		return true
	}
	return false
}

// Vars returns the variable names occurring in t, in first-occurrence order.
func Vars(t Term) []string {
	var names []string
	seen := make(map[string]struct{})
	collectVars(t, seen, &names)
	return names
}

func collectVars(t Term, seen map[string]struct{}, names *[]string) {
	switch x := t.(type) {
	case Var:
		if _, ok := seen[string(x)]; !ok {
			seen[string(x)] = struct{}{}
			*names = append(*names, string(x))
		}
	case *Compound:
		for _, a := range x.Args {
			collectVars(a, seen, names)
		}
	case List:
		for _, e := range x {
			collectVars(e, seen, names)
		}
	case Object:
		for _, v := range x {
			collectVars(v, seen, names)
		}
	}
}

// Fresh derives a renamed variable from base for renaming counter k.
func Fresh(base Var, k int) Var {
	name := string(base)
	if i := strings.Index(name, freshSep); i >= 0 {
		name = name[:i]
	}
	return Var(name + freshSep + strconv.Itoa(k))
}

// FromValue converts a Go value into a Term. Strings starting with the
// variable sigil become Vars, other strings become Atoms. Nested slices
// become Lists and string-keyed maps become Objects; Terms pass through.
func FromValue(v any) (Term, error) {
	switch x := v.(type) {
	case Term:
		return x, nil
	case string:
		if strings.HasPrefix(x, VarSigil) {
			if strings.Contains(x, freshSep) {
				return nil, fmt.Errorf("%w: variable name %q contains %q", internalerr.ErrInvalidInput, x, freshSep)
			}
			return Var(x), nil
		}
		return Atom(x), nil
	case bool:
		return Bool(x), nil
	case int:
		return Int(int64(x)), nil
	case int64:
		return Int(x), nil
	case float64:
		return floatTerm(x), nil
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return Int(i), nil
		}
		f, err := x.Float64()
		if err != nil {
			return nil, fmt.Errorf("%w: bad number %q", internalerr.ErrInvalidInput, string(x))
		}
		return Float(f), nil
	case []any:
		out := make(List, len(x))
		for i, e := range x {
			t, err := FromValue(e)
			if err != nil {
				return nil, err
			}
			out[i] = t
		}
		return out, nil
	case map[string]any:
		out := make(Object, len(x))
		for k, e := range x {
			t, err := FromValue(e)
			if err != nil {
				return nil, err
			}
			out[k] = t
		}
		return out, nil
	case nil:
		return nil, fmt.Errorf("%w: nil term", internalerr.ErrInvalidInput)
	}
	return nil, fmt.Errorf("%w: unsupported term value %T", internalerr.ErrInvalidInput, v)
}

// floatTerm keeps integral floats exact so that YAML and JSON decoders
// that report whole numbers as float64 round-trip as integers.
func floatTerm(f float64) Term {
	if f == float64(int64(f)) {
		return Int(int64(f))
	}
	return Float(f)
}

// FromTuple converts a (name, arg, arg, ...) tuple into a goal Compound.
func FromTuple(tuple []any) (*Compound, error) {
	if len(tuple) == 0 {
		return nil, fmt.Errorf("%w: empty tuple", internalerr.ErrInvalidInput)
	}
	name, ok := tuple[0].(string)
	if !ok || name == "" || strings.HasPrefix(name, VarSigil) {
		return nil, fmt.Errorf("%w: tuple must start with a predicate name, got %v", internalerr.ErrInvalidInput, tuple[0])
	}
	args := make([]Term, len(tuple)-1)
	for i, v := range tuple[1:] {
		t, err := FromValue(v)
		if err != nil {
			return nil, err
		}
		args[i] = t
	}
	return &Compound{Name: name, Args: args}, nil
}

// FromJSON converts a decoded JSON value (as produced by encoding/json
// with UseNumber) into a Term. JSON strings become Strs, never Vars or
// Atoms, so fetched data cannot smuggle variables into a substitution.
func FromJSON(v any) (Term, error) {
	switch x := v.(type) {
	case nil:
		return Atom("null"), nil
	case string:
		return Str(x), nil
	case bool:
		return Bool(x), nil
	case float64:
		return floatTerm(x), nil
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return Int(i), nil
		}
		f, err := x.Float64()
		if err != nil {
			return nil, fmt.Errorf("%w: bad number %q", internalerr.ErrInvalidInput, string(x))
		}
		return Float(f), nil
	case []any:
		out := make(List, len(x))
		for i, e := range x {
			t, err := FromJSON(e)
			if err != nil {
				return nil, err
			}
			out[i] = t
		}
		return out, nil
	case map[string]any:
		out := make(Object, len(x))
		for k, e := range x {
			t, err := FromJSON(e)
			if err != nil {
				return nil, err
			}
			out[k] = t
		}
		return out, nil
	}
	return nil, fmt.Errorf("%w: unsupported JSON value %T", internalerr.ErrInvalidInput, v)
}

// Text extracts string content from an Atom or Str.
func Text(t Term) (string, bool) {
	switch x := t.(type) {
	case Atom:
		return string(x), true
	case Str:
		return string(x), true
	}
	return "", false
}

// GoalFromTerm interprets a term as a goal: Compounds pass through, and
// a List whose first element is an Atom becomes a goal with that name.
// Used by goal-valued built-in arguments such as or.
func GoalFromTerm(t Term) (*Compound, bool) {
	switch x := t.(type) {
	case *Compound:
		return x, true
	case List:
		if len(x) == 0 {
			return nil, false
		}
		name, ok := x[0].(Atom)
		if !ok {
			return nil, false
		}
		return &Compound{Name: string(name), Args: x[1:]}, true
	}
	return nil, false
}
