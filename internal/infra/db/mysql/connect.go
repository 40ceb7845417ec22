package mysql

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

func Connect(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	// test ping
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
  id                VARCHAR(64)  NOT NULL PRIMARY KEY,
  email             VARCHAR(320) NULL,
  credits           INT          NOT NULL DEFAULT 3,
  subscription_tier VARCHAR(32)  NOT NULL DEFAULT 'free'
)`, `
CREATE TABLE IF NOT EXISTS queries (
  id          CHAR(36)     NOT NULL PRIMARY KEY,
  user_id     VARCHAR(64)  NOT NULL,
  user_prompt TEXT         NOT NULL,
  ai_response JSON         NOT NULL,
  model       VARCHAR(128) NOT NULL DEFAULT '-',
  degraded    TINYINT(1)   NOT NULL DEFAULT 0,
  image_url   VARCHAR(1024) NULL,
  created_at  DATETIME(6)  NOT NULL,
  INDEX idx_queries_user_created (user_id, created_at)
)`}

// Migrate creates the tables when they do not exist yet.
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, q := range schema {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return err
		}
	}
	return nil
}
