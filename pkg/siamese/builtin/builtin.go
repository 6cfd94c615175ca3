// Package builtin implements the pluggable predicate protocol and the
// standard set shipped with the engine. A handler yields zero, one or
// many extended substitutions; yielding nothing is failure, a returned
// error is fatal for the whole query.
package builtin

import (
	"context"
	"fmt"
	"net/http"

	"github.com/HsiangNianian/siamese-prototype/pkg/siamese/internalerr"
	"github.com/HsiangNianian/siamese-prototype/pkg/siamese/term"
	"github.com/HsiangNianian/siamese-prototype/pkg/siamese/unify"
)

// Call is one built-in invocation. Goal arguments arrive with the
// current substitution already applied; unbound variables stay in place.
type Call struct {
	Goal     *term.Compound
	Bindings *unify.Bindings

	// Yield hands an extended substitution back to the resolver. A false
	// return means the consumer is done; the handler must stop producing.
	Yield func(*unify.Bindings) bool

	// Resolve runs a goal list through the resolver at the invocation's
	// depth. Used by goal-valued built-ins such as or.
	Resolve func(ctx context.Context, goals []*term.Compound, b *unify.Bindings, yield func(*unify.Bindings) bool) error
}

// Handler is a built-in predicate implementation. Handlers may suspend
// on I/O through ctx; they must stop promptly once ctx is cancelled or
// Yield returns false.
type Handler func(ctx context.Context, call *Call) error

// Config carries shared resources for the standard set.
type Config struct {
	// HTTPClient backs http_get_json and http_get_text. Nil selects a
	// default client with a request timeout.
	HTTPClient *http.Client
}

// Registry maps predicate names to handlers. A registered name shadows
// any knowledge-base clauses under the same name.
type Registry struct {
	handlers map[string]Handler
}

// NewRegistry builds a registry holding the standard set.
func NewRegistry(cfg Config) *Registry {
	web := newWebClient(cfg.HTTPClient)
	return &Registry{handlers: map[string]Handler{
		"eq":              eqBuiltin,
		"neq":             neqBuiltin,
		"gt":              compareBuiltin(func(c int) bool { return c > 0 }),
		"gte":             compareBuiltin(func(c int) bool { return c >= 0 }),
		"lt":              compareBuiltin(func(c int) bool { return c < 0 }),
		"lte":             compareBuiltin(func(c int) bool { return c <= 0 }),
		"member":          memberBuiltin,
		"or":              orBuiltin,
		"unify_json_path": unifyJSONPathBuiltin,
		"http_get_json":   web.getJSON,
		"http_get_text":   web.getText,
	}}
}

// Register adds a handler under a new name. Registering a name twice is
// a configuration error.
func (r *Registry) Register(name string, h Handler) error {
	if name == "" || h == nil {
		return fmt.Errorf("%w: built-in needs a name and a handler", internalerr.ErrInvalidInput)
	}
	if _, ok := r.handlers[name]; ok {
		return fmt.Errorf("%w: %s", internalerr.ErrDuplicateBuiltin, name)
	}
	r.handlers[name] = h
	return nil
}

// Override installs a handler, replacing any standard one under the
// same name.
func (r *Registry) Override(name string, h Handler) error {
	if name == "" || h == nil {
		return fmt.Errorf("%w: built-in needs a name and a handler", internalerr.ErrInvalidInput)
	}
	r.handlers[name] = h
	return nil
}

// Lookup returns the handler for name, if registered.
func (r *Registry) Lookup(name string) (Handler, bool) {
	h, ok := r.handlers[name]
	return h, ok
}

// eq succeeds iff the two arguments unify, extending the substitution.
func eqBuiltin(ctx context.Context, call *Call) error {
	if len(call.Goal.Args) != 2 {
		return nil
	}
	if b, ok := unify.Unify(call.Goal.Args[0], call.Goal.Args[1], call.Bindings); ok {
		call.Yield(b)
	}
	return nil
}

// neq succeeds with the substitution unchanged iff both arguments are
// ground and not structurally equal. Unbound arguments fail silently:
// there is no constructive disequality.
func neqBuiltin(ctx context.Context, call *Call) error {
	if len(call.Goal.Args) != 2 {
		return nil
	}
	a, b := call.Goal.Args[0], call.Goal.Args[1]
	if !term.IsGround(a) || !term.IsGround(b) {
		return nil
	}
	if !term.Equal(a, b) {
		call.Yield(call.Bindings)
	}
	return nil
}

// compareBuiltin builds a numeric comparison over ground Num arguments.
// Non-numeric or unbound arguments fail silently.
func compareBuiltin(accept func(cmp int) bool) Handler {
	return func(ctx context.Context, call *Call) error {
		if len(call.Goal.Args) != 2 {
			return nil
		}
		a, aok := call.Goal.Args[0].(term.Num)
		b, bok := call.Goal.Args[1].(term.Num)
		if !aok || !bok {
			return nil
		}
		if accept(compareNums(a, b)) {
			call.Yield(call.Bindings)
		}
		return nil
	}
}

func compareNums(a, b term.Num) int {
	if a.IsInt() && b.IsInt() {
		switch {
		case a.Int64() < b.Int64():
			return -1
		case a.Int64() > b.Int64():
			return 1
		}
		return 0
	}
	switch {
	case a.Float64() < b.Float64():
		return -1
	case a.Float64() > b.Float64():
		return 1
	}
	return 0
}

// member yields one solution per element of the ground list argument
// that unifies with the first argument.
func memberBuiltin(ctx context.Context, call *Call) error {
	if len(call.Goal.Args) != 2 {
		return nil
	}
	list, ok := call.Goal.Args[1].(term.List)
	if !ok || !term.IsGround(list) {
		return nil
	}
	for _, elem := range list {
		if err := ctx.Err(); err != nil {
			return nil
		}
		if b, ok := unify.Unify(call.Goal.Args[0], elem, call.Bindings); ok {
			if !call.Yield(b) {
				return nil
			}
		}
	}
	return nil
}

// or treats each argument as a goal and yields every solution of each,
// in order. Arguments that do not form a goal fail silently, keeping
// disjunction composable with unknown predicates.
func orBuiltin(ctx context.Context, call *Call) error {
	if call.Resolve == nil {
		return nil
	}
	keepGoing := true
	for _, arg := range call.Goal.Args {
		if !keepGoing || ctx.Err() != nil {
			return nil
		}
		goal, ok := term.GoalFromTerm(arg)
		if !ok {
			continue
		}
		err := call.Resolve(ctx, []*term.Compound{goal}, call.Bindings, func(b *unify.Bindings) bool {
			keepGoing = call.Yield(b)
			return keepGoing
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// unifyJSONPath extracts the node at a dotted path inside a JSON value
// and unifies it with the third argument. Path segments index Objects by
// key and Lists by position.
func unifyJSONPathBuiltin(ctx context.Context, call *Call) error {
	if len(call.Goal.Args) != 3 {
		return nil
	}
	doc := call.Goal.Args[0]
	path, ok := term.Text(call.Goal.Args[1])
	if !ok || !term.IsGround(doc) {
		return nil
	}
	node, ok := jsonPath(doc, path)
	if !ok {
		return nil
	}
	if b, ok := unify.Unify(call.Goal.Args[2], node, call.Bindings); ok {
		call.Yield(b)
	}
	return nil
}
