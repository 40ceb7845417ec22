package middleware

import (
	"context"
	"net/http"

	"github.com/gumrukcum/gumrukcum-api/internal/domain/account"
)

type contextKey string

const identityKey contextKey = "identity"

// Authenticator resolves a raw Authorization header to an identity.
type Authenticator interface {
	Authenticate(ctx context.Context, header string) (account.Identity, error)
}

// ErrorWriter renders an error response.
type ErrorWriter func(w http.ResponseWriter, r *http.Request, err error)

// BearerAuth verifies the Authorization header before anything else runs and
// stores the resulting identity in the request context.
func BearerAuth(a Authenticator, onError ErrorWriter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := a.Authenticate(r.Context(), r.Header.Get("Authorization"))
			if err != nil {
				onError(w, r, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id account.Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFrom extracts the verified identity from context
func IdentityFrom(ctx context.Context) (account.Identity, bool) {
	id, ok := ctx.Value(identityKey).(account.Identity)
	return id, ok && id.UserID != ""
}
