package builtin

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/HsiangNianian/siamese-prototype/pkg/siamese/term"
	"github.com/HsiangNianian/siamese-prototype/pkg/siamese/unify"
)

// SQLRows builds a handler for sql_rows(query, ?Row): it runs the SQL
// query in the first argument and yields one solution per row, unifying
// the second argument with the row as a list of column values. Not
// registered by default; embedders wire it to their own database:
//
//	reg.Register("sql_rows", builtin.SQLRows(db))
//
// Unlike the HTTP built-ins, a database error is fatal for the query:
// it signals a misconfigured embedding, not a missing solution.
func SQLRows(db *sql.DB) Handler {
	return func(ctx context.Context, call *Call) error {
		if len(call.Goal.Args) != 2 {
			return nil
		}
		query, ok := term.Text(call.Goal.Args[0])
		if !ok {
			return nil
		}

		rows, err := db.QueryContext(ctx, query)
		if err != nil {
			return fmt.Errorf("sql_rows: %w", err)
		}
		defer rows.Close()

		cols, err := rows.Columns()
		if err != nil {
			return fmt.Errorf("sql_rows: %w", err)
		}

		for rows.Next() {
			values := make([]any, len(cols))
			targets := make([]any, len(cols))
			for i := range values {
				targets[i] = &values[i]
			}
			if err := rows.Scan(targets...); err != nil {
				return fmt.Errorf("sql_rows: %w", err)
			}
			row := make(term.List, len(values))
			for i, v := range values {
				row[i] = columnTerm(v)
			}
			if b, ok := unify.Unify(call.Goal.Args[1], row, call.Bindings); ok {
				if !call.Yield(b) {
					return nil
				}
			}
		}
		if err := rows.Err(); err != nil {
			return fmt.Errorf("sql_rows: %w", err)
		}
		return nil
	}
}

func columnTerm(v any) term.Term {
	switch x := v.(type) {
	case nil:
		return term.Atom("null")
	case int64:
		return term.Int(x)
	case float64:
		return term.Float(x)
	case bool:
		return term.Bool(x)
	case string:
		return term.Str(x)
	case []byte:
		return term.Str(string(x))
	}
	return term.Str(fmt.Sprint(v))
}
