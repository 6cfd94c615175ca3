package builtin

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/HsiangNianian/siamese-prototype/pkg/siamese/sqlitedb"
	"github.com/HsiangNianian/siamese-prototype/pkg/siamese/term"
	"github.com/HsiangNianian/siamese-prototype/pkg/siamese/unify"
)

func TestSQLRows(t *testing.T) {
	ctx := context.Background()
	db, err := sqlitedb.Open(ctx, filepath.Join(t.TempDir(), "people.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	stmts := []string{
		`CREATE TABLE people (name TEXT, age INTEGER)`,
		`INSERT INTO people VALUES ('john', 42), ('mary', 17)`,
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			t.Fatalf("%s: %v", stmt, err)
		}
	}

	h := SQLRows(db)
	out := invoke(t, h, nil, "sql_rows", "SELECT name, age FROM people ORDER BY name", "?Row")
	if len(out) != 2 {
		t.Fatalf("got %d rows", len(out))
	}
	first := unify.Walk(term.Var("?Row"), out[0])
	want := term.List{term.Str("john"), term.Int(42)}
	if !term.Equal(first, want) {
		t.Errorf("row 0 = %v, want %v", first, want)
	}

	// A fixed row pattern selects matching rows only.
	out = invoke(t, h, nil, "sql_rows", "SELECT name, age FROM people ORDER BY name", []any{"?N", 17})
	if len(out) != 1 {
		t.Fatalf("pattern match: got %d rows", len(out))
	}
	if got := unify.Walk(term.Var("?N"), out[0]); !term.Equal(got, term.Str("mary")) {
		t.Errorf("?N = %v", got)
	}
}

func TestSQLRowsErrorIsFatal(t *testing.T) {
	ctx := context.Background()
	db, err := sqlitedb.Open(ctx, filepath.Join(t.TempDir(), "empty.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	h := SQLRows(db)
	goal, _ := term.FromTuple([]any{"sql_rows", "SELECT * FROM missing", "?Row"})
	call := &Call{Goal: goal, Bindings: nil, Yield: func(*unify.Bindings) bool { return true }}
	if err := h(ctx, call); err == nil {
		t.Error("query against a missing table must be fatal")
	}
}
