// Package sqlite keeps profiles and history in a local SQLite file. It backs
// development setups and repository tests.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS profiles (
  id                TEXT PRIMARY KEY,
  email             TEXT,
  credits           INTEGER NOT NULL DEFAULT 3,
  subscription_tier TEXT    NOT NULL DEFAULT 'free'
);
CREATE TABLE IF NOT EXISTS queries (
  id          TEXT PRIMARY KEY,
  user_id     TEXT    NOT NULL,
  user_prompt TEXT    NOT NULL,
  ai_response TEXT    NOT NULL,
  model       TEXT    NOT NULL DEFAULT '-',
  degraded    INTEGER NOT NULL DEFAULT 0,
  image_url   TEXT,
  created_at  INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_queries_user_created ON queries (user_id, created_at DESC);
`

// Open opens (or creates) the database at path and applies the schema.
// Use ":memory:" for a throwaway database.
func Open(ctx context.Context, path string) (*sql.DB, error) {
	dsn := path
	if path != ":memory:" && !strings.Contains(dsn, "?") {
		dsn += "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// one writer; also keeps a :memory: database alive across calls
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return db, nil
}
