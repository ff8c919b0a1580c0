package auth

import "errors"

// ErrInvalidToken marks authentication failures; handlers map it to 401.
var ErrInvalidToken = errors.New("invalid or missing token")
