package siamese

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/HsiangNianian/siamese-prototype/pkg/siamese/builtin"
	"github.com/HsiangNianian/siamese-prototype/pkg/siamese/internalerr"
	"github.com/HsiangNianian/siamese-prototype/pkg/siamese/solver"
	"github.com/HsiangNianian/siamese-prototype/pkg/siamese/term"
	"github.com/HsiangNianian/siamese-prototype/pkg/siamese/unify"
)

const familyYAML = `
facts:
  - [parent, david, john]
  - [parent, john, mary]
  - [parent, john, peter]

rules:
  - head: [grandparent, "?A", "?C"]
    body:
      - [parent, "?A", "?P"]
      - [parent, "?P", "?C"]

  - head: [sibling, "?S1", "?S2"]
    body:
      - [parent, "?P", "?S1"]
      - [parent, "?P", "?S2"]
      - [neq, "?S1", "?S2"]
`

func newEngine(t *testing.T, opts Options) *Engine {
	t.Helper()
	engine, err := New(opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return engine
}

func loadFamily(t *testing.T) *Engine {
	t.Helper()
	engine := newEngine(t, Options{})
	path := filepath.Join(t.TempDir(), "kb.yaml")
	if err := os.WriteFile(path, []byte(familyYAML), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := engine.LoadFromFile(path); err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}
	return engine
}

func collect(t *testing.T, engine *Engine, goal Goal, opts ...QueryOption) []solver.Solution {
	t.Helper()
	sols, err := engine.Query(context.Background(), goal, opts...)
	if err != nil {
		t.Fatalf("Query(%v): %v", goal, err)
	}
	out, err := sols.Collect()
	if err != nil {
		t.Fatalf("Collect(%v): %v", goal, err)
	}
	return out
}

func TestLoadAndQuery(t *testing.T) {
	engine := loadFamily(t)

	sols := collect(t, engine, G("grandparent", "david", "?GC"))
	if len(sols) != 2 {
		t.Fatalf("got %d solutions", len(sols))
	}
	if !term.Equal(sols[0]["?GC"], term.Atom("mary")) || !term.Equal(sols[1]["?GC"], term.Atom("peter")) {
		t.Errorf("solutions = %v", sols)
	}
}

func TestSiblingThroughBuiltin(t *testing.T) {
	engine := loadFamily(t)

	sols := collect(t, engine, G("sibling", "mary", "?S"))
	if len(sols) != 1 || !term.Equal(sols[0]["?S"], term.Atom("peter")) {
		t.Errorf("solutions = %v", sols)
	}
}

func TestQueryOne(t *testing.T) {
	engine := loadFamily(t)
	ctx := context.Background()

	sol, found, err := engine.QueryOne(ctx, G("grandparent", "david", "?GC"))
	if err != nil || !found {
		t.Fatalf("QueryOne: %v, %v", found, err)
	}
	if !term.Equal(sol["?GC"], term.Atom("mary")) {
		t.Errorf("sol = %v", sol)
	}

	_, found, err = engine.QueryOne(ctx, G("grandparent", "mary", "?GC"))
	if err != nil {
		t.Fatalf("QueryOne: %v", err)
	}
	if found {
		t.Error("unexpected solution")
	}
}

func TestExists(t *testing.T) {
	engine := loadFamily(t)
	ctx := context.Background()

	ok, err := engine.Exists(ctx, G("sibling", "mary", "peter"))
	if err != nil || !ok {
		t.Errorf("Exists(sibling mary peter) = %v, %v", ok, err)
	}
	ok, err = engine.Exists(ctx, G("sibling", "mary", "mary"))
	if err != nil || ok {
		t.Errorf("Exists(sibling mary mary) = %v, %v", ok, err)
	}
	// Unknown predicates are a silent no.
	ok, err = engine.Exists(ctx, G("unheard_of", "x"))
	if err != nil || ok {
		t.Errorf("Exists(unheard_of) = %v, %v", ok, err)
	}
}

func TestQueryOptions(t *testing.T) {
	engine := loadFamily(t)

	sols := collect(t, engine, G("grandparent", "david", "?GC"), WithMaxSolutions(1))
	if len(sols) != 1 {
		t.Errorf("capped query gave %d solutions", len(sols))
	}

	if err := engine.AddRule(G("loop", "?X"), G("loop", "?X")); err != nil {
		t.Fatal(err)
	}
	sols = collect(t, engine, G("loop", "a"), WithMaxDepth(5))
	if len(sols) != 0 {
		t.Errorf("loop gave %d solutions", len(sols))
	}
}

func TestLoadFromFileParseErrorLeavesStateUnchanged(t *testing.T) {
	engine := loadFamily(t)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(bad, []byte("facts:\n  - [42]\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := engine.LoadFromFile(bad); !errors.Is(err, internalerr.ErrMalformedClause) {
		t.Fatalf("err = %v", err)
	}

	// The earlier knowledge survives, nothing partial was added.
	sols := collect(t, engine, G("grandparent", "david", "?GC"))
	if len(sols) != 2 {
		t.Errorf("state changed: %d solutions", len(sols))
	}
}

func TestMutationBetweenQueries(t *testing.T) {
	engine := loadFamily(t)

	before := collect(t, engine, G("grandparent", "david", "?GC"))
	if err := engine.AddFact("parent", "john", "zoe"); err != nil {
		t.Fatal(err)
	}
	after := collect(t, engine, G("grandparent", "david", "?GC"))

	if len(after) != len(before)+1 {
		t.Errorf("got %d then %d solutions", len(before), len(after))
	}
}

func TestUserBuiltinOverride(t *testing.T) {
	engine := newEngine(t, Options{
		Builtins: map[string]builtin.Handler{
			"always": func(ctx context.Context, call *builtin.Call) error {
				call.Yield(call.Bindings)
				return nil
			},
		},
	})
	// The built-in shadows clauses under the same name.
	if err := engine.AddFact("always", "unreachable"); err != nil {
		t.Fatal(err)
	}

	ok, err := engine.Exists(context.Background(), G("always", "elsewhere"))
	if err != nil || !ok {
		t.Errorf("Exists(always) = %v, %v", ok, err)
	}
}

func TestRegisterBuiltinDuplicate(t *testing.T) {
	engine := newEngine(t, Options{})
	h := func(ctx context.Context, call *builtin.Call) error { return nil }

	if err := engine.RegisterBuiltin("fresh_name", h); err != nil {
		t.Fatalf("RegisterBuiltin: %v", err)
	}
	if err := engine.RegisterBuiltin("fresh_name", h); !errors.Is(err, internalerr.ErrDuplicateBuiltin) {
		t.Errorf("err = %v", err)
	}
	if err := engine.RegisterBuiltin("eq", h); !errors.Is(err, internalerr.ErrDuplicateBuiltin) {
		t.Errorf("standard name: err = %v", err)
	}
}

func TestOrDisjunction(t *testing.T) {
	engine := loadFamily(t)

	sols := collect(t, engine, G("or",
		[]any{"parent", "david", "?X"},
		[]any{"parent", "john", "?X"},
	))
	want := []string{"john", "mary", "peter"}
	if len(sols) != len(want) {
		t.Fatalf("got %d solutions: %v", len(sols), sols)
	}
	for i, w := range want {
		if !term.Equal(sols[i]["?X"], term.Atom(w)) {
			t.Errorf("solution %d = %v, want %s", i, sols[i], w)
		}
	}
}

type roundTrip func(*http.Request) *http.Response

func (rt roundTrip) RoundTrip(req *http.Request) (*http.Response, error) {
	return rt(req), nil
}

func TestHTTPBuiltinThroughRules(t *testing.T) {
	client := &http.Client{
		Transport: roundTrip(func(req *http.Request) *http.Response {
			return &http.Response{
				StatusCode: 200,
				Body:       io.NopCloser(strings.NewReader(`{"origin":"10.0.0.9"}`)),
				Header:     make(http.Header),
			}
		}),
	}
	engine := newEngine(t, Options{HTTPClient: client})
	err := engine.AddRule(
		G("caller_ip", "?IP"),
		G("http_get_json", "https://httpbin.org/get", "?Doc"),
		G("unify_json_path", "?Doc", "origin", "?IP"),
	)
	if err != nil {
		t.Fatal(err)
	}

	sol, found, err := engine.QueryOne(context.Background(), G("caller_ip", "?IP"))
	if err != nil || !found {
		t.Fatalf("QueryOne: %v, %v", found, err)
	}
	if !term.Equal(sol["?IP"], term.Str("10.0.0.9")) {
		t.Errorf("?IP = %v", sol["?IP"])
	}
}

func TestFatalBuiltinSurfacesFromStream(t *testing.T) {
	boom := errors.New("backend down")
	engine := newEngine(t, Options{
		Builtins: map[string]builtin.Handler{
			"explode": func(ctx context.Context, call *builtin.Call) error { return boom },
		},
	})

	sols, err := engine.Query(context.Background(), G("explode"))
	if err != nil {
		t.Fatal(err)
	}
	defer sols.Close()
	for sols.Next() {
		t.Fatal("no solutions expected")
	}
	if err := sols.Err(); !errors.Is(err, boom) {
		t.Errorf("Err = %v", err)
	}
}

func TestBuiltinBindingsVisibleToLaterGoals(t *testing.T) {
	// A handler may bind variables that never appear in its goal; later
	// conjuncts see them, the projection filters them out.
	engine := newEngine(t, Options{
		Builtins: map[string]builtin.Handler{
			"stash": func(ctx context.Context, call *builtin.Call) error {
				b, ok := unify.Unify(term.Var("?hidden"), term.Atom("peter"), call.Bindings)
				if ok {
					call.Yield(b)
				}
				return nil
			},
			"unstash": func(ctx context.Context, call *builtin.Call) error {
				if b, ok := unify.Unify(call.Goal.Args[0], unify.Walk(term.Var("?hidden"), call.Bindings), call.Bindings); ok {
					call.Yield(b)
				}
				return nil
			},
		},
	})
	err := engine.AddRule(G("relay", "?Out"), G("stash"), G("unstash", "?Out"))
	if err != nil {
		t.Fatal(err)
	}

	sol, found, err := engine.QueryOne(context.Background(), G("relay", "?Out"))
	if err != nil || !found {
		t.Fatalf("QueryOne: %v, %v", found, err)
	}
	if !term.Equal(sol["?Out"], term.Atom("peter")) {
		t.Errorf("?Out = %v", sol["?Out"])
	}
	if _, leaked := sol["?hidden"]; leaked {
		t.Error("internal binding leaked into the projection")
	}
}
