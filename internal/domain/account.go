package domain

import "time"

// Account is the authentication record for a registered user.
// PasswordHash and Salt are hex encoded; the hash is derived from the
// password and salt only, never stored reversibly.
type Account struct {
	UserID       string
	Username     string
	Email        string
	PasswordHash string
	Salt         string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Session is a bearer token granting the identity of an Account until
// ExpiresAt. RememberMe sessions slide their expiry forward on each
// successful validation.
type Session struct {
	Token      string
	UserID     string
	CreatedAt  time.Time
	ExpiresAt  time.Time
	RememberMe bool
}
