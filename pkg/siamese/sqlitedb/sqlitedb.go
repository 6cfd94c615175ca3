// Package sqlitedb opens SQLite databases for the sql_rows built-in.
package sqlitedb

import (
	"context"
	"database/sql"

	_ "modernc.org/sqlite"
)

// Open opens a SQLite database with WAL mode and foreign keys enabled.
func Open(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, err
	}
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}
