package testutil

import (
	"errors"
	"net/http"

	"giyus/pkg/domain"
	"giyus/pkg/platform/middleware/auth"
	"giyus/pkg/requestcontext"
)

// WithActor injects an authenticated actor into the request context,
// simulating what auth.RequireActor does for a valid bearer token.
func WithActor(req *http.Request, actor domain.Actor) *http.Request {
	return req.WithContext(requestcontext.WithActor(req.Context(), actor))
}

// WithBearer sets the Authorization header.
func WithBearer(req *http.Request, token string) *http.Request {
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

// StaticTokens is a TokenValidator backed by a fixed token table.
type StaticTokens map[string]auth.TokenClaims

var errUnknownToken = errors.New("unknown token")

func (s StaticTokens) ValidateToken(token string) (*auth.TokenClaims, error) {
	claims, ok := s[token]
	if !ok {
		return nil, errUnknownToken
	}
	return &claims, nil
}
