package sqlite

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
	body, err := json.Marshal(rec.Response)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	model := rec.Model
	if model == "" {
		model = "-"
	}

	var imageURL sql.NullString
	if rec.ImageURL != "" {
		imageURL = sql.NullString{String: rec.ImageURL, Valid: true}
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO queries (id, user_id, user_prompt, ai_response, model, degraded, image_url, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		string(rec.ID), rec.UserID, rec.UserPrompt, string(body), model, rec.Degraded, imageURL, createdAt.UnixNano())
	if err != nil {
		return fmt.Errorf("append history: %w", err)
	}
	return nil
}

func (r *HistoryRepository) Paginate(ctx context.Context, userID string, page, pageSize int) (domain.PaginatedResult, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}

	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM queries WHERE user_id = ?`, userID).Scan(&total); err != nil {
		return domain.PaginatedResult{}, fmt.Errorf("count history: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, `
SELECT id, user_id, user_prompt, ai_response, model, degraded, image_url, created_at
FROM queries
WHERE user_id = ?
ORDER BY created_at DESC, id DESC
LIMIT ? OFFSET ?`, userID, pageSize, (page-1)*pageSize)
	if err != nil {
		return domain.PaginatedResult{}, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()

	var out []*domain.HistoryRecord
	for rows.Next() {
		var (
			rec      domain.HistoryRecord
			body     string
			imageURL sql.NullString
			created  int64
		)
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.UserPrompt, &body, &rec.Model, &rec.Degraded, &imageURL, &created); err != nil {
			return domain.PaginatedResult{}, err
		}
		if err := json.Unmarshal([]byte(body), &rec.Response); err != nil {
			return domain.PaginatedResult{}, fmt.Errorf("decode result %s: %w", rec.ID, err)
		}
		rec.ImageURL = imageURL.String
		rec.CreatedAt = time.Unix(0, created).UTC()
		out = append(out, &rec)
	}
	if err := rows.Err(); err != nil {
		return domain.PaginatedResult{}, err
	}
	return domain.NewPage(out, page, pageSize, total), nil
}
