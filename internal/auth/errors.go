package auth

import "errors"

// Token layer failures. IdentityResolver swallows all of them; only the
// refresh endpoint surfaces them to a client.
var (
	ErrMalformedToken   = errors.New("auth: malformed token")
	ErrInvalidSignature = errors.New("auth: invalid token signature")
	ErrExpired          = errors.New("auth: token expired")
	ErrNotARefreshToken = errors.New("auth: wrong token kind")
	ErrUnknownSubject   = errors.New("auth: unknown subject")
)
