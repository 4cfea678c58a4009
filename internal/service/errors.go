package service

import "errors"

var (
	// ErrDuplicateIdentity is returned when a registration or account update
	// collides with an existing username or email. The two cases are not
	// distinguished to the caller.
	ErrDuplicateIdentity = errors.New("username or email already in use")
	// ErrInvalidCredentials indicates that provided login credentials are
	// incorrect. Unknown username and wrong password produce the same value.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrProfileNotFound is returned when an operation requires a stored
	// profile for the user and none exists yet.
	ErrProfileNotFound = errors.New("profile not found")
)
