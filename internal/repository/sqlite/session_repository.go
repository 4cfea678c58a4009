package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"tunematch/internal/domain"
	"tunematch/internal/repository"
)

const createSessionsTable = `
CREATE TABLE IF NOT EXISTS sessions (
	token TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	created_at DATETIME NOT NULL,
	expires_at DATETIME NOT NULL,
	remember_me INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_sessions_user ON sessions(user_id);
CREATE INDEX IF NOT EXISTS idx_sessions_remember ON sessions(remember_me, expires_at);
`

type SessionRepository struct {
	db *sql.DB
}

func NewSessionRepository(db *sql.DB) repository.SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createSessionsTable); err != nil {
		return fmt.Errorf("create sessions table: %w", err)
	}
	return nil
}

func (r *SessionRepository) Create(ctx context.Context, session *domain.Session) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO sessions (token, user_id, created_at, expires_at, remember_me)
VALUES (?, ?, ?, ?, ?)`,
		session.Token,
		session.UserID,
		session.CreatedAt,
		session.ExpiresAt,
		session.RememberMe,
	)
	if err != nil {
		return fmt.Errorf("%w: insert session: %v", repository.ErrStorage, err)
	}
	return nil
}

func (r *SessionRepository) Get(ctx context.Context, token string) (*domain.Session, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT token, user_id, created_at, expires_at, remember_me
FROM sessions
WHERE token = ?`,
		token,
	)
	return scanSession(row)
}

func (r *SessionRepository) ExtendExpiry(ctx context.Context, token string, expiresAt time.Time) error {
	if _, err := r.db.ExecContext(ctx, `
UPDATE sessions SET expires_at = ? WHERE token = ?`,
		expiresAt.UTC(), token,
	); err != nil {
		return fmt.Errorf("%w: extend session: %v", repository.ErrStorage, err)
	}
	return nil
}

func (r *SessionRepository) Delete(ctx context.Context, token string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE token = ?`, token); err != nil {
		return fmt.Errorf("%w: delete session: %v", repository.ErrStorage, err)
	}
	return nil
}

func (r *SessionRepository) DeleteByUser(ctx context.Context, userID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("%w: delete user sessions: %v", repository.ErrStorage, err)
	}
	return nil
}

func (r *SessionRepository) NewestRemembered(ctx context.Context, now time.Time) (*domain.Session, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT token, user_id, created_at, expires_at, remember_me
FROM sessions
WHERE remember_me = 1 AND expires_at >= ?
ORDER BY created_at DESC, token ASC
LIMIT 1`,
		now.UTC(),
	)
	return scanSession(row)
}

func scanSession(row interface {
	Scan(dest ...any) error
}) (*domain.Session, error) {
	var session domain.Session
	if err := row.Scan(
		&session.Token,
		&session.UserID,
		&session.CreatedAt,
		&session.ExpiresAt,
		&session.RememberMe,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("%w: scan session: %v", repository.ErrStorage, err)
	}
	return &session, nil
}
