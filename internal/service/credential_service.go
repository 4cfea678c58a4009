package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"

	"github.com/google/uuid"

	"tunematch/internal/domain"
	"tunematch/internal/media"
	"tunematch/internal/repository"
)

// AccountUpdate carries the fields of a partial account update. Nil
// fields are left untouched; a new password is re-salted.
type AccountUpdate struct {
	Username *string
	Email    *string
	Password *string
}

// CredentialService owns account records and password verification.
type CredentialService interface {
	Register(ctx context.Context, username, password, email string) (string, error)
	Authenticate(ctx context.Context, username, password string) (string, error)
	GetUserData(ctx context.Context, userID string) (*domain.Account, error)
	UpdateUserData(ctx context.Context, userID string, update AccountUpdate) error
	DeleteUser(ctx context.Context, userID string) error
}

type credentialService struct {
	accounts repository.AccountRepository
	profiles repository.ProfileRepository
	sessions repository.SessionRepository
	pictures media.Store
}

func NewCredentialService(
	accounts repository.AccountRepository,
	profiles repository.ProfileRepository,
	sessions repository.SessionRepository,
	pictures media.Store,
) CredentialService {
	return &credentialService{
		accounts: accounts,
		profiles: profiles,
		sessions: sessions,
		pictures: pictures,
	}
}

func (s *credentialService) Register(ctx context.Context, username, password, email string) (string, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)

	if username == "" {
		return "", errors.New("username is required")
	}
	if email == "" {
		return "", errors.New("email is required")
	}
	if password == "" {
		return "", errors.New("password is required")
	}
	if len(password) < 8 {
		return "", errors.New("password must be at least 8 characters")
	}

	salt, err := newSalt()
	if err != nil {
		return "", err
	}
	hash, err := hashPassword(password, salt)
	if err != nil {
		return "", err
	}

	account := &domain.Account{
		UserID:       uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Salt:         salt,
	}

	if err := s.accounts.Create(ctx, account); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return "", ErrDuplicateIdentity
		}
		return "", err
	}

	// every account gets an empty profile up front so match search and
	// profile setup never have to special-case first writes
	profile := &domain.Profile{
		UserID:           account.UserID,
		Username:         account.Username,
		MusicPreferences: []domain.MusicPreference{},
		TopArtists:       []string{},
		TopGenres:        []string{},
		TopSongs:         []domain.TrackRef{},
		TopAlbums:        []domain.TrackRef{},
	}
	if err := s.profiles.Save(ctx, profile); err != nil {
		// roll the account back so a failed registration leaves nothing behind
		_ = s.accounts.Delete(ctx, account.UserID)
		return "", err
	}

	return account.UserID, nil
}

func (s *credentialService) Authenticate(ctx context.Context, username, password string) (string, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return "", ErrInvalidCredentials
	}

	account, err := s.accounts.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", err
	}

	hash, err := hashPassword(password, account.Salt)
	if err != nil {
		return "", err
	}
	if subtle.ConstantTimeCompare([]byte(hash), []byte(account.PasswordHash)) != 1 {
		return "", ErrInvalidCredentials
	}

	return account.UserID, nil
}

func (s *credentialService) GetUserData(ctx context.Context, userID string) (*domain.Account, error) {
	account, err := s.accounts.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return account, nil
}

func (s *credentialService) UpdateUserData(ctx context.Context, userID string, update AccountUpdate) error {
	account, err := s.accounts.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	if update.Username != nil {
		username := strings.TrimSpace(*update.Username)
		if username == "" {
			return errors.New("username is required")
		}
		account.Username = username
	}
	if update.Email != nil {
		email := strings.TrimSpace(*update.Email)
		if email == "" {
			return errors.New("email is required")
		}
		account.Email = email
	}
	if update.Password != nil {
		if len(*update.Password) < 8 {
			return errors.New("password must be at least 8 characters")
		}
		salt, err := newSalt()
		if err != nil {
			return err
		}
		hash, err := hashPassword(*update.Password, salt)
		if err != nil {
			return err
		}
		account.Salt = salt
		account.PasswordHash = hash
	}

	if err := s.accounts.Update(ctx, account); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return ErrDuplicateIdentity
		}
		return err
	}
	return nil
}

func (s *credentialService) DeleteUser(ctx context.Context, userID string) error {
	if err := s.accounts.Delete(ctx, userID); err != nil {
		return err
	}
	if err := s.profiles.Delete(ctx, userID); err != nil {
		return err
	}
	if err := s.pictures.Remove(userID); err != nil {
		return err
	}
	return s.sessions.DeleteByUser(ctx, userID)
}
