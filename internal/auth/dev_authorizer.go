package auth

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

// devTokenPrefix is the scheme for local development tokens. The remainder of
// the token is taken verbatim as the user id.
const devTokenPrefix = "sk_dev_"

var devUserRx = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,64}$`)

// DevAuthorizer accepts tokens of the form "sk_dev_<userId>" and resolves
// them to that user. Local development and tests only; it performs no real
// credential verification.
type DevAuthorizer struct{}

func NewDevAuthorizer() *DevAuthorizer { return &DevAuthorizer{} }

func (d *DevAuthorizer) Authorize(ctx context.Context, token string) (*Actor, error) {
	if !strings.HasPrefix(token, devTokenPrefix) {
		return nil, fmt.Errorf("%w: expected %s<userId> form", ErrInvalidToken, devTokenPrefix)
	}
	userID := strings.TrimPrefix(token, devTokenPrefix)
	if !devUserRx.MatchString(userID) {
		return nil, fmt.Errorf("%w: malformed user id", ErrInvalidToken)
	}
	return &Actor{UserID: userID, KeyName: "Local Development Key"}, nil
}
