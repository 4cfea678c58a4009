package service

import (
	"context"
	"errors"
	"time"

	"tunematch/internal/domain"
	"tunematch/internal/repository"
)

// RememberedUser identifies the account behind the most recent
// still-valid remember-me session.
type RememberedUser struct {
	UserID   string
	Username string
	Token    string
}

// SessionService owns session tokens, expiry and remember-me semantics.
type SessionService interface {
	Create(ctx context.Context, userID string, rememberMe bool) (string, error)
	// Validate resolves a token to its user. ok is false for unknown and
	// expired tokens; expired records are purged on the way out.
	Validate(ctx context.Context, token string) (userID string, ok bool, err error)
	Delete(ctx context.Context, token string) error
	RememberedUser(ctx context.Context) (*RememberedUser, error)
}

type sessionService struct {
	sessions    repository.SessionRepository
	accounts    repository.AccountRepository
	ttl         time.Duration
	rememberTTL time.Duration
	now         func() time.Time
}

func NewSessionService(
	sessions repository.SessionRepository,
	accounts repository.AccountRepository,
	ttl, rememberTTL time.Duration,
) SessionService {
	return &sessionService{
		sessions:    sessions,
		accounts:    accounts,
		ttl:         ttl,
		rememberTTL: rememberTTL,
		now:         time.Now,
	}
}

func (s *sessionService) Create(ctx context.Context, userID string, rememberMe bool) (string, error) {
	if userID == "" {
		return "", errors.New("user id is required")
	}

	token, err := newToken()
	if err != nil {
		return "", err
	}

	now := s.now().UTC()
	ttl := s.ttl
	if rememberMe {
		ttl = s.rememberTTL
	}

	session := &domain.Session{
		Token:      token,
		UserID:     userID,
		CreatedAt:  now,
		ExpiresAt:  now.Add(ttl),
		RememberMe: rememberMe,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return "", err
	}
	return token, nil
}

func (s *sessionService) Validate(ctx context.Context, token string) (string, bool, error) {
	if token == "" {
		return "", false, nil
	}

	session, err := s.sessions.Get(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", false, nil
		}
		return "", false, err
	}

	now := s.now().UTC()
	if now.After(session.ExpiresAt) {
		// lazy purge; a concurrent delete of the same token is a no-op here
		if err := s.sessions.Delete(ctx, token); err != nil {
			return "", false, err
		}
		return "", false, nil
	}

	if session.RememberMe {
		if err := s.sessions.ExtendExpiry(ctx, token, now.Add(s.rememberTTL)); err != nil {
			return "", false, err
		}
	}
	return session.UserID, true, nil
}

func (s *sessionService) Delete(ctx context.Context, token string) error {
	return s.sessions.Delete(ctx, token)
}

func (s *sessionService) RememberedUser(ctx context.Context) (*RememberedUser, error) {
	session, err := s.sessions.NewestRemembered(ctx, s.now().UTC())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	account, err := s.accounts.GetByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &RememberedUser{
		UserID:   account.UserID,
		Username: account.Username,
		Token:    session.Token,
	}, nil
}
