package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/gumrukcum/gumrukcum-api/internal/domain/account"
)

// SupabaseVerifier asks the Supabase auth server who a token belongs to.
// It is used when the signing key is not available locally.
type SupabaseVerifier struct {
	client *resty.Client
}

type supabaseUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// NewSupabaseVerifier builds a verifier for the project at baseURL
// (https://<ref>.supabase.co). apiKey is the project's anon key.
func NewSupabaseVerifier(baseURL, apiKey string, timeout time.Duration) *SupabaseVerifier {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	c := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetHeader("apikey", apiKey).
		SetTimeout(timeout)
	return &SupabaseVerifier{client: c}
}

// Verify implements account.Verifier.
func (v *SupabaseVerifier) Verify(ctx context.Context, token string) (account.Identity, error) {
	var user supabaseUser
	resp, err := v.client.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetResult(&user).
		Get("/auth/v1/user")
	if err != nil {
		return account.Identity{}, fmt.Errorf("supabase auth request: %w", err)
	}
	switch {
	case resp.StatusCode() == http.StatusUnauthorized, resp.StatusCode() == http.StatusForbidden:
		return account.Identity{}, account.ErrInvalidCredential
	case resp.IsError():
		return account.Identity{}, fmt.Errorf("supabase auth: unexpected status %d", resp.StatusCode())
	}
	if user.ID == "" {
		return account.Identity{}, fmt.Errorf("%w: user without id", account.ErrInvalidCredential)
	}
	return account.Identity{UserID: user.ID, Email: user.Email}, nil
}
