package account

import "context"

// Verifier resolves a bearer token to an identity.
type Verifier interface {
	Verify(ctx context.Context, token string) (Identity, error)
}

// ProfileRepository reads profiles and consumes credits.
type ProfileRepository interface {
	Get(ctx context.Context, userID string) (*Profile, error)
	// DecrementCredit removes one credit only if at least one is left.
	// It returns ErrNoCredit when nothing was decremented.
	DecrementCredit(ctx context.Context, userID string) error
}
