package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tunematch/internal/domain"
	"tunematch/internal/repository"
)

func TestRegister_CreatesAccountAndEmptyProfile(t *testing.T) {
	env := newTestEnv(t)
	svc := env.credentialService()
	ctx := context.Background()

	userID, err := svc.Register(ctx, "maya", "listening123", "maya@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, userID)

	account, err := svc.GetUserData(ctx, userID)
	require.NoError(t, err)
	require.NotNil(t, account)
	assert.Equal(t, "maya", account.Username)
	assert.Equal(t, "maya@example.com", account.Email)
	assert.NotEmpty(t, account.Salt)
	assert.NotEqual(t, "listening123", account.PasswordHash)

	profile, err := env.profileService().Load(ctx, userID)
	require.NoError(t, err)
	require.NotNil(t, profile)
	assert.Equal(t, "maya", profile.Username)
	assert.Empty(t, profile.MusicPreferences)
}

func TestRegister_DuplicateUsernameAndEmail(t *testing.T) {
	env := newTestEnv(t)
	svc := env.credentialService()
	ctx := context.Background()

	_, err := svc.Register(ctx, "maya", "listening123", "maya@example.com")
	require.NoError(t, err)

	_, err = svc.Register(ctx, "maya", "otherpassword", "other@example.com")
	assert.ErrorIs(t, err, ErrDuplicateIdentity)

	_, err = svc.Register(ctx, "other", "otherpassword", "maya@example.com")
	assert.ErrorIs(t, err, ErrDuplicateIdentity)

	// usernames are case sensitive, so a different casing is a new identity
	_, err = svc.Register(ctx, "Maya", "otherpassword", "maya2@example.com")
	assert.NoError(t, err)
}

type brokenProfileRepository struct {
	repository.ProfileRepository
}

func (brokenProfileRepository) Save(context.Context, *domain.Profile) error {
	return errors.New("disk full")
}

func TestRegister_RollsBackAccountWhenProfileWriteFails(t *testing.T) {
	env := newTestEnv(t)
	svc := NewCredentialService(env.accounts, brokenProfileRepository{env.profiles}, env.sessions, env.pictures)
	ctx := context.Background()

	_, err := svc.Register(ctx, "maya", "listening123", "maya@example.com")
	require.Error(t, err)

	// the half-created account was removed, so the identity is free again
	_, err = env.accounts.GetByUsername(ctx, "maya")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	_, err = env.credentialService().Register(ctx, "maya", "listening123", "maya@example.com")
	assert.NoError(t, err)
}

func TestRegister_RejectsShortPassword(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.credentialService().Register(context.Background(), "maya", "short", "maya@example.com")
	assert.Error(t, err)
}

func TestAuthenticate_RoundTrip(t *testing.T) {
	env := newTestEnv(t)
	svc := env.credentialService()
	ctx := context.Background()

	userID, err := svc.Register(ctx, "maya", "listening123", "maya@example.com")
	require.NoError(t, err)

	got, err := svc.Authenticate(ctx, "maya", "listening123")
	require.NoError(t, err)
	assert.Equal(t, userID, got)
}

func TestAuthenticate_SameErrorForUnknownUserAndWrongPassword(t *testing.T) {
	env := newTestEnv(t)
	svc := env.credentialService()
	ctx := context.Background()

	_, err := svc.Register(ctx, "maya", "listening123", "maya@example.com")
	require.NoError(t, err)

	_, wrongPassword := svc.Authenticate(ctx, "maya", "not her password")
	_, unknownUser := svc.Authenticate(ctx, "nobody", "listening123")

	assert.ErrorIs(t, wrongPassword, ErrInvalidCredentials)
	assert.ErrorIs(t, unknownUser, ErrInvalidCredentials)
	assert.Equal(t, wrongPassword, unknownUser)
}

func TestUpdateUserData_PartialFields(t *testing.T) {
	env := newTestEnv(t)
	svc := env.credentialService()
	ctx := context.Background()

	userID, err := svc.Register(ctx, "maya", "listening123", "maya@example.com")
	require.NoError(t, err)

	newEmail := "maya@new.example.com"
	require.NoError(t, svc.UpdateUserData(ctx, userID, AccountUpdate{Email: &newEmail}))

	account, err := svc.GetUserData(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, "maya", account.Username)
	assert.Equal(t, newEmail, account.Email)

	newPassword := "a brand new password"
	require.NoError(t, svc.UpdateUserData(ctx, userID, AccountUpdate{Password: &newPassword}))

	_, err = svc.Authenticate(ctx, "maya", "listening123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	got, err := svc.Authenticate(ctx, "maya", newPassword)
	require.NoError(t, err)
	assert.Equal(t, userID, got)
}

func TestUpdateUserData_DuplicateUsername(t *testing.T) {
	env := newTestEnv(t)
	svc := env.credentialService()
	ctx := context.Background()

	_, err := svc.Register(ctx, "maya", "listening123", "maya@example.com")
	require.NoError(t, err)
	otherID, err := svc.Register(ctx, "noah", "listening123", "noah@example.com")
	require.NoError(t, err)

	taken := "maya"
	err = svc.UpdateUserData(ctx, otherID, AccountUpdate{Username: &taken})
	assert.ErrorIs(t, err, ErrDuplicateIdentity)
}

func TestDeleteUser_CascadesProfileAndSessions(t *testing.T) {
	env := newTestEnv(t)
	svc := env.credentialService()
	ctx := context.Background()

	userID, err := svc.Register(ctx, "maya", "listening123", "maya@example.com")
	require.NoError(t, err)

	sessions := NewSessionService(env.sessions, env.accounts, 24*time.Hour, 720*time.Hour)
	token, err := sessions.Create(ctx, userID, true)
	require.NoError(t, err)

	require.NoError(t, svc.DeleteUser(ctx, userID))

	account, err := svc.GetUserData(ctx, userID)
	require.NoError(t, err)
	assert.Nil(t, account)

	profile, err := env.profileService().Load(ctx, userID)
	require.NoError(t, err)
	assert.Nil(t, profile)

	_, ok, err := sessions.Validate(ctx, token)
	require.NoError(t, err)
	assert.False(t, ok)
}
