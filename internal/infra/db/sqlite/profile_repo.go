package sqlite

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
	var (
		p     account.Profile
		email sql.NullString
		tier  sql.NullString
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, email, credits, subscription_tier FROM profiles WHERE id = ?`, userID,
	).Scan(&p.ID, &email, &p.Credits, &tier)
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

func (r *ProfileRepository) DecrementCredit(ctx context.Context, userID string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE profiles SET credits = credits - 1 WHERE id = ? AND credits > 0`, userID)
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

// Put creates or replaces a profile. The hosted backends get profiles from
// the signup flow; locally they are seeded with this.
func (r *ProfileRepository) Put(ctx context.Context, p *account.Profile) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO profiles (id, email, credits, subscription_tier) VALUES (?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET email = excluded.email, credits = excluded.credits, subscription_tier = excluded.subscription_tier`,
		p.ID, p.Email, p.Credits, string(p.Tier))
	if err != nil {
		return fmt.Errorf("put profile: %w", err)
	}
	return nil
}
