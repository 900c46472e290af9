package backend

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"flixgo-client/internal/domain"
	"flixgo-client/internal/domain/ports/repository"
)

// TokenSource reads the bearer token the sign-in flow left in the store.
// The client cannot verify the signature (the key lives on the backend) but
// it can read the expiry and avoid sending a request bound to fail with 401.
type TokenSource struct {
	store  repository.KeyValueStore
	parser *jwt.Parser
	now    func() time.Time
}

func NewTokenSource(store repository.KeyValueStore) *TokenSource {
	return &TokenSource{store: store, parser: jwt.NewParser(), now: time.Now}
}

// Token returns the stored token, "" when signed out, or ErrUnauthenticated
// when the token is a JWT whose exp claim has passed. Opaque tokens are
// passed through untouched.
func (t *TokenSource) Token(ctx context.Context) (string, error) {
	tok, ok, err := t.store.Get(ctx, repository.KeyToken)
	if err != nil {
		return "", fmt.Errorf("read token: %w", err)
	}
	tok = strings.TrimSpace(tok)
	if !ok || tok == "" {
		return "", nil
	}
	if strings.Count(tok, ".") != 2 {
		return tok, nil
	}

	claims := &jwt.RegisteredClaims{}
	if _, _, err := t.parser.ParseUnverified(tok, claims); err != nil {
		return tok, nil
	}
	if claims.ExpiresAt != nil && !claims.ExpiresAt.Time.After(t.now()) {
		return "", fmt.Errorf("%w: token expired at %s", domain.ErrUnauthenticated, claims.ExpiresAt.Time.Format(time.RFC3339))
	}
	return tok, nil
}
