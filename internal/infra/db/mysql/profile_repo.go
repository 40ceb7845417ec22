package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/gumrukcum/gumrukcum-api/internal/domain/account"
)

type ProfileRepository struct {
	db *sql.DB
}

func NewProfileRepository(db *sql.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

func (r *ProfileRepository) Get(ctx context.Context, userID string) (*account.Profile, error) {
	const q = `SELECT id, email, credits, subscription_tier FROM profiles WHERE id=?`

	var (
		p     account.Profile
		email sql.NullString
		tier  sql.NullString
	)
	err := r.db.QueryRowContext(ctx, q, userID).Scan(&p.ID, &email, &p.Credits, &tier)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, account.ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	p.Email = email.String
	p.Tier = account.ParseTier(tier.String)
	return &p, nil
}

// DecrementCredit takes one credit if the balance is positive.
func (r *ProfileRepository) DecrementCredit(ctx context.Context, userID string) error {
	const q = `UPDATE profiles SET credits = credits - 1 WHERE id=? AND credits > 0`

	res, err := r.db.ExecContext(ctx, q, userID)
	if err != nil {
		return fmt.Errorf("decrement credit: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("decrement credit: %w", err)
	}
	if n == 0 {
		return account.ErrNoCredit
	}
	return nil
}
