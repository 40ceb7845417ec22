package postgres

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/lib/pq"
)

func Connect(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx2, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx2); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

var schema = []string{`
CREATE TABLE IF NOT EXISTS profiles (
  id                TEXT PRIMARY KEY,
  email             TEXT,
  credits           INTEGER NOT NULL DEFAULT 3,
  subscription_tier TEXT    NOT NULL DEFAULT 'free'
)`, `
CREATE TABLE IF NOT EXISTS queries (
  id          UUID PRIMARY KEY,
  user_id     TEXT        NOT NULL,
  user_prompt TEXT        NOT NULL,
  ai_response JSONB       NOT NULL,
  model       TEXT        NOT NULL DEFAULT '-',
  degraded    BOOLEAN     NOT NULL DEFAULT FALSE,
  image_url   TEXT,
  created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
)`, `
CREATE INDEX IF NOT EXISTS idx_queries_user_created ON queries (user_id, created_at DESC)`}

// Migrate creates the tables when they do not exist yet. On Supabase the
// tables already exist and this is a no-op.
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, q := range schema {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return err
		}
	}
	return nil
}
