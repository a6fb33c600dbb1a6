package security

import "errors"

var (
	// ErrInvalidCredentials is returned when a username/password pair does not match.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidToken is returned for unknown, revoked or expired API tokens.
	ErrInvalidToken = errors.New("invalid token")
	// ErrMalformedHash is returned when a stored password hash cannot be decoded.
	ErrMalformedHash = errors.New("malformed password hash")
)
