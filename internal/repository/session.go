package repository

import (
	"context"
	"time"

	"tunematch/internal/domain"
)

// SessionRepository exposes persistence operations for Session records.
type SessionRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, session *domain.Session) error
	Get(ctx context.Context, token string) (*domain.Session, error)
	// ExtendExpiry pushes expires_at forward for the given token. A missing
	// token is not an error; the renewal just does not happen.
	ExtendExpiry(ctx context.Context, token string, expiresAt time.Time) error
	Delete(ctx context.Context, token string) error
	DeleteByUser(ctx context.Context, userID string) error
	// NewestRemembered returns the unexpired remember-me session with the
	// most recent creation time, token order breaking ties.
	NewestRemembered(ctx context.Context, now time.Time) (*domain.Session, error)
}
