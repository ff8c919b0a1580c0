package auth

import (
	"context"
)

// Actor is the authenticated caller of a request.
type Actor struct {
	UserID string `json:"user_id"`
	// KeyName is a human-readable label for the credential, logging only.
	KeyName string `json:"key_name"`
}

// Authorizer resolves a bearer token to the acting user. Every entry and
// stats operation is scoped to the resolved user; there are no cross-user
// credentials.
type Authorizer interface {
	// Authorize validates the token and returns the actor it belongs to, or
	// an error wrapping ErrInvalidToken.
	Authorize(ctx context.Context, token string) (*Actor, error)
}
