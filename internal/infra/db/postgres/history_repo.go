package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	domain "github.com/gumrukcum/gumrukcum-api/internal/domain/analysis"
)

type HistoryRepository struct {
	db *sql.DB
}

func NewHistoryRepository(db *sql.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

func (r *HistoryRepository) Append(ctx context.Context, rec *domain.HistoryRecord) error {
	const q = `
INSERT INTO queries
  (id, user_id, user_prompt, ai_response, model, degraded, image_url, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8);
`
	body, err := json.Marshal(rec.Response)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err = r.db.ExecContext(ctx, q, string(rec.ID), rec.UserID, rec.UserPrompt, string(body),
		stringOrDash(rec.Model), rec.Degraded, nullString(rec.ImageURL), createdAt)
	return err
}

// Paginate returns a page of the user's records ordered by created_at desc
func (r *HistoryRepository) Paginate(ctx context.Context, userID string, page, pageSize int) (domain.PaginatedResult, error) {
	page, pageSize, offset := normalizePage(page, pageSize)

	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM queries WHERE user_id=$1`, userID).Scan(&total); err != nil {
		return domain.PaginatedResult{}, fmt.Errorf("count history: %w", err)
	}

	const q = `
SELECT id, user_id, user_prompt, ai_response, model, degraded, image_url, created_at
FROM queries
WHERE user_id=$1
ORDER BY created_at DESC, id DESC
LIMIT $2 OFFSET $3;
`
	rows, err := r.db.QueryContext(ctx, q, userID, pageSize, offset)
	if err != nil {
		return domain.PaginatedResult{}, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()

	var out []*domain.HistoryRecord
	for rows.Next() {
		var (
			rec      domain.HistoryRecord
			body     []byte
			imageURL sql.NullString
		)
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.UserPrompt, &body, &rec.Model, &rec.Degraded, &imageURL, &rec.CreatedAt); err != nil {
			return domain.PaginatedResult{}, err
		}
		if err := json.Unmarshal(body, &rec.Response); err != nil {
			return domain.PaginatedResult{}, fmt.Errorf("decode result %s: %w", rec.ID, err)
		}
		rec.ImageURL = imageURL.String
		out = append(out, &rec)
	}
	if err := rows.Err(); err != nil {
		return domain.PaginatedResult{}, err
	}
	return domain.NewPage(out, page, pageSize, total), nil
}
