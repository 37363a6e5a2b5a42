package auth

import (
	"context"
	"errors"
	"strings"
)

type contextKey struct{}

var (
	ErrMissingAuthorization   = errors.New("missing authorization header")
	ErrMalformedAuthorization = errors.New("authorization header must use the Bearer scheme")
)

// ContextWithClaims returns a copy of ctx carrying claims.
func ContextWithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, contextKey{}, claims)
}

// ClaimsFromContext returns the claims attached by the HTTP middleware or
// the gRPC interceptors.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(contextKey{}).(*Claims)
	return claims, ok && claims != nil
}

// Authenticate validates the value of an Authorization header.
func (s *JWTService) Authenticate(header string) (*Claims, error) {
	if header == "" {
		return nil, ErrMissingAuthorization
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "bearer") || strings.TrimSpace(token) == "" {
		return nil, ErrMalformedAuthorization
	}
	return s.ValidateToken(strings.TrimSpace(token))
}
