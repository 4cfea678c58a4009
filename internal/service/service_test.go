package service

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"tunematch/internal/media"
	"tunematch/internal/repository"
	"tunematch/internal/repository/sqlite"
)

type testEnv struct {
	db       *sql.DB
	accounts repository.AccountRepository
	sessions repository.SessionRepository
	profiles repository.ProfileRepository
	pictures *media.DiskStore
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dir := t.TempDir()
	db, err := sqlite.Open(filepath.Join(dir, "tunematch.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	env := &testEnv{
		db:       db,
		accounts: sqlite.NewAccountRepository(db),
		sessions: sqlite.NewSessionRepository(db),
		profiles: sqlite.NewProfileRepository(db),
	}

	ctx := context.Background()
	require.NoError(t, env.accounts.Init(ctx))
	require.NoError(t, env.sessions.Init(ctx))
	require.NoError(t, env.profiles.Init(ctx))

	pictures, err := media.NewDiskStore(filepath.Join(dir, "pictures"))
	require.NoError(t, err)
	env.pictures = pictures

	return env
}

func (e *testEnv) credentialService() CredentialService {
	return NewCredentialService(e.accounts, e.profiles, e.sessions, e.pictures)
}

func (e *testEnv) profileService() ProfileService {
	return NewProfileService(e.profiles, e.pictures)
}
