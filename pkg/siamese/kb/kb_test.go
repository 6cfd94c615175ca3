package kb

import (
	"errors"
	"testing"

	"github.com/HsiangNianian/siamese-prototype/pkg/siamese/internalerr"
	"github.com/HsiangNianian/siamese-prototype/pkg/siamese/term"
)

func TestInsertionOrderPreserved(t *testing.T) {
	k := New()
	for _, child := range []string{"john", "mary", "peter"} {
		if err := k.AddFact("parent", "david", child); err != nil {
			t.Fatalf("AddFact: %v", err)
		}
	}

	clauses := k.Snapshot().ClausesFor("parent", 2)
	if len(clauses) != 3 {
		t.Fatalf("got %d clauses", len(clauses))
	}
	want := []string{"john", "mary", "peter"}
	for i, c := range clauses {
		if !term.Equal(c.Head.Args[1], term.Atom(want[i])) {
			t.Errorf("clause %d = %v, want child %s", i, c.Head, want[i])
		}
		if !c.IsFact() {
			t.Errorf("clause %d should be a fact", i)
		}
	}
}

func TestBucketsByArity(t *testing.T) {
	k := New()
	k.AddFact("p", "a")
	k.AddFact("p", "a", "b")

	snap := k.Snapshot()
	if got := len(snap.ClausesFor("p", 1)); got != 1 {
		t.Errorf("arity 1: %d clauses", got)
	}
	if got := len(snap.ClausesFor("p", 2)); got != 1 {
		t.Errorf("arity 2: %d clauses", got)
	}
	if got := len(snap.ClausesFor("p", 3)); got != 0 {
		t.Errorf("arity 3: %d clauses", got)
	}
}

func TestAddRule(t *testing.T) {
	k := New()
	err := k.AddRule(
		[]any{"grandparent", "?A", "?C"},
		[]any{"parent", "?A", "?P"},
		[]any{"parent", "?P", "?C"},
	)
	if err != nil {
		t.Fatalf("AddRule: %v", err)
	}

	clauses := k.Snapshot().ClausesFor("grandparent", 2)
	if len(clauses) != 1 {
		t.Fatalf("got %d clauses", len(clauses))
	}
	if len(clauses[0].Body) != 2 {
		t.Errorf("body has %d goals", len(clauses[0].Body))
	}
}

func TestMalformedClauseRejected(t *testing.T) {
	k := New()

	if err := k.AddRule([]any{42, "x"}); !errors.Is(err, internalerr.ErrMalformedClause) {
		t.Errorf("numeric head: err = %v", err)
	}
	if err := k.AddRule([]any{"ok", "?X"}, []any{"?NotAName", "y"}); !errors.Is(err, internalerr.ErrMalformedClause) {
		t.Errorf("variable body head: err = %v", err)
	}
	if err := k.AddFact("p", nil); !errors.Is(err, internalerr.ErrMalformedClause) {
		t.Errorf("nil arg: err = %v", err)
	}

	// Nothing was inserted by the failed calls.
	if got := len(k.Snapshot().ClausesFor("ok", 1)); got != 0 {
		t.Errorf("failed AddRule inserted %d clauses", got)
	}
}

func TestSnapshotIsolation(t *testing.T) {
	k := New()
	k.AddFact("p", "a")
	snap := k.Snapshot()

	k.AddFact("p", "b")
	k.AddFact("q", "c")

	if got := len(snap.ClausesFor("p", 1)); got != 1 {
		t.Errorf("snapshot sees %d p/1 clauses, want 1", got)
	}
	if got := len(snap.ClausesFor("q", 1)); got != 0 {
		t.Errorf("snapshot sees %d q/1 clauses, want 0", got)
	}
	if got := len(k.Snapshot().ClausesFor("p", 1)); got != 2 {
		t.Errorf("new snapshot sees %d p/1 clauses, want 2", got)
	}
}
