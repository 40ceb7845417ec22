package analysis

import (
	"context"
	"errors"
	"strings"

	"github.com/gumrukcum/gumrukcum-api/internal/domain/account"
)

// BearerToken extracts the token of an "Authorization: Bearer <token>" header.
func BearerToken(header string) (string, bool) {
	parts := strings.SplitN(strings.TrimSpace(header), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", false
	}
	return token, true
}

// Authenticate resolves the Authorization header to an identity. Nothing
// else in the service may run before it succeeds.
func (s *Service) Authenticate(ctx context.Context, header string) (account.Identity, error) {
	if strings.TrimSpace(header) == "" {
		return account.Identity{}, newError(KindUnauthenticated, msgMissingAuth, account.ErrInvalidCredential)
	}
	token, ok := BearerToken(header)
	if !ok {
		return account.Identity{}, newError(KindUnauthenticated, msgInvalidAuth, account.ErrInvalidCredential)
	}
	id, err := s.Verifier.Verify(ctx, token)
	switch {
	case errors.Is(err, account.ErrInvalidCredential):
		return account.Identity{}, newError(KindUnauthenticated, msgInvalidAuth, err)
	case err != nil:
		// the provider could not answer; the token may well be valid
		return account.Identity{}, newError(KindAuthUnavailable, msgAuthDown, err)
	}
	if id.UserID == "" {
		return account.Identity{}, newError(KindUnauthenticated, msgInvalidAuth, account.ErrInvalidCredential)
	}
	return id, nil
}
