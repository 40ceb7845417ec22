// Package auth resolves bearer tokens to account identities.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"

	"github.com/gumrukcum/gumrukcum-api/internal/domain/account"
)

const defaultLeeway = 30 * time.Second

// JWTConfig selects how tokens are checked. Exactly one of Secret and
// JWKSURL must be set. Issuer and Audience are checked when non-empty.
type JWTConfig struct {
	Secret   string
	JWKSURL  string
	Issuer   string
	Audience string
}

// JWTVerifier validates access tokens locally, either with the project's
// HMAC secret or against a JWKS endpoint.
type JWTVerifier struct {
	keyfunc jwt.Keyfunc
	parser  *jwt.Parser
}

func NewJWTVerifier(cfg JWTConfig) (*JWTVerifier, error) {
	var (
		kf      jwt.Keyfunc
		methods []string
	)
	switch {
	case cfg.Secret != "" && cfg.JWKSURL != "":
		return nil, errors.New("jwt secret and jwks url are mutually exclusive")
	case cfg.Secret != "":
		secret := []byte(cfg.Secret)
		kf = func(*jwt.Token) (any, error) { return secret, nil }
		methods = []string{jwt.SigningMethodHS256.Name, jwt.SigningMethodHS384.Name, jwt.SigningMethodHS512.Name}
	case cfg.JWKSURL != "":
		provider, err := keyfunc.NewDefault([]string{cfg.JWKSURL})
		if err != nil {
			return nil, fmt.Errorf("failed to init JWKS keyfunc: %w", err)
		}
		kf = provider.Keyfunc
		methods = []string{
			jwt.SigningMethodRS256.Name, jwt.SigningMethodRS384.Name, jwt.SigningMethodRS512.Name,
			jwt.SigningMethodES256.Name, jwt.SigningMethodES384.Name,
		}
	default:
		return nil, errors.New("jwt secret or jwks url must be set")
	}

	opts := []jwt.ParserOption{
		jwt.WithLeeway(defaultLeeway),
		jwt.WithValidMethods(methods),
		jwt.WithExpirationRequired(),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	if cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(cfg.Audience))
	}

	return &JWTVerifier{keyfunc: kf, parser: jwt.NewParser(opts...)}, nil
}

// Verify implements account.Verifier.
func (v *JWTVerifier) Verify(_ context.Context, token string) (account.Identity, error) {
	parsed, err := v.parser.Parse(token, v.keyfunc)
	if err != nil {
		return account.Identity{}, fmt.Errorf("%w: %w", account.ErrInvalidCredential, err)
	}
	if !parsed.Valid {
		return account.Identity{}, account.ErrInvalidCredential
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return account.Identity{}, fmt.Errorf("%w: invalid token claims", account.ErrInvalidCredential)
	}
	sub := strings.TrimSpace(readString(claims, "sub"))
	if sub == "" {
		return account.Identity{}, fmt.Errorf("%w: token missing sub", account.ErrInvalidCredential)
	}
	return account.Identity{UserID: sub, Email: readString(claims, "email")}, nil
}

func readString(claims jwt.MapClaims, key string) string {
	if s, ok := claims[key].(string); ok {
		return s
	}
	return ""
}
