package sqlite

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tunematch/internal/domain"
	"tunematch/internal/repository"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestOpen_AppliesPragmas(t *testing.T) {
	db := newTestDB(t)

	var busyTimeout int
	require.NoError(t, db.QueryRow(`PRAGMA busy_timeout`).Scan(&busyTimeout))
	assert.Equal(t, 5000, busyTimeout)

	var foreignKeys int
	require.NoError(t, db.QueryRow(`PRAGMA foreign_keys`).Scan(&foreignKeys))
	assert.Equal(t, 1, foreignKeys)
}

func TestAccountRepository_CreateAndLookup(t *testing.T) {
	db := newTestDB(t)
	repo := NewAccountRepository(db)
	ctx := context.Background()
	require.NoError(t, repo.Init(ctx))

	account := &domain.Account{
		UserID:       "u1",
		Username:     "maya",
		Email:        "maya@example.com",
		PasswordHash: "hash",
		Salt:         "salt",
	}
	require.NoError(t, repo.Create(ctx, account))
	assert.False(t, account.CreatedAt.IsZero())

	byName, err := repo.GetByUsername(ctx, "maya")
	require.NoError(t, err)
	assert.Equal(t, "u1", byName.UserID)

	byID, err := repo.GetByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "maya", byID.Username)

	_, err = repo.GetByUsername(ctx, "nobody")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestAccountRepository_UniqueViolations(t *testing.T) {
	db := newTestDB(t)
	repo := NewAccountRepository(db)
	ctx := context.Background()
	require.NoError(t, repo.Init(ctx))

	require.NoError(t, repo.Create(ctx, &domain.Account{
		UserID: "u1", Username: "maya", Email: "maya@example.com", PasswordHash: "h", Salt: "s",
	}))

	err := repo.Create(ctx, &domain.Account{
		UserID: "u2", Username: "maya", Email: "other@example.com", PasswordHash: "h", Salt: "s",
	})
	assert.ErrorIs(t, err, repository.ErrDuplicate)

	err = repo.Create(ctx, &domain.Account{
		UserID: "u3", Username: "other", Email: "maya@example.com", PasswordHash: "h", Salt: "s",
	})
	assert.ErrorIs(t, err, repository.ErrDuplicate)
}

func TestAccountRepository_UpdateMissingAccount(t *testing.T) {
	db := newTestDB(t)
	repo := NewAccountRepository(db)
	ctx := context.Background()
	require.NoError(t, repo.Init(ctx))

	err := repo.Update(ctx, &domain.Account{UserID: "ghost", Username: "x", Email: "x@example.com"})
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestSessionRepository_CRUDAndRememberedOrder(t *testing.T) {
	db := newTestDB(t)
	repo := NewSessionRepository(db)
	ctx := context.Background()
	require.NoError(t, repo.Init(ctx))

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	mk := func(token, user string, createdAt time.Time, remember bool) {
		require.NoError(t, repo.Create(ctx, &domain.Session{
			Token:      token,
			UserID:     user,
			CreatedAt:  createdAt,
			ExpiresAt:  createdAt.Add(720 * time.Hour),
			RememberMe: remember,
		}))
	}

	mk("tok-old", "u1", base, true)
	mk("tok-new", "u2", base.Add(time.Hour), true)
	mk("tok-plain", "u3", base.Add(2*time.Hour), false)

	newest, err := repo.NewestRemembered(ctx, base.Add(3*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, "tok-new", newest.Token)

	// far enough in the future every session is past expiry
	_, err = repo.NewestRemembered(ctx, base.Add(10000*time.Hour))
	assert.ErrorIs(t, err, repository.ErrNotFound)

	require.NoError(t, repo.Delete(ctx, "tok-new"))
	newest, err = repo.NewestRemembered(ctx, base.Add(3*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, "tok-old", newest.Token)

	require.NoError(t, repo.DeleteByUser(ctx, "u1"))
	_, err = repo.Get(ctx, "tok-old")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	// deletes are idempotent
	require.NoError(t, repo.Delete(ctx, "tok-new"))
}

func TestSessionRepository_ExtendExpiry(t *testing.T) {
	db := newTestDB(t)
	repo := NewSessionRepository(db)
	ctx := context.Background()
	require.NoError(t, repo.Init(ctx))

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Create(ctx, &domain.Session{
		Token:      "tok",
		UserID:     "u1",
		CreatedAt:  base,
		ExpiresAt:  base.Add(24 * time.Hour),
		RememberMe: true,
	}))

	renewed := base.Add(720 * time.Hour)
	require.NoError(t, repo.ExtendExpiry(ctx, "tok", renewed))

	session, err := repo.Get(ctx, "tok")
	require.NoError(t, err)
	assert.True(t, session.ExpiresAt.Equal(renewed), "expiry %v", session.ExpiresAt)

	// extending an absent token is a no-op
	require.NoError(t, repo.ExtendExpiry(ctx, "ghost", renewed))
}

func TestProfileRepository_SaveGetListDelete(t *testing.T) {
	db := newTestDB(t)
	repo := NewProfileRepository(db)
	ctx := context.Background()
	require.NoError(t, repo.Init(ctx))

	first := &domain.Profile{UserID: "u1", Username: "maya", TopArtists: []string{"Drake"}}
	second := &domain.Profile{UserID: "u2", Username: "noah", TopArtists: []string{"SZA"}}
	require.NoError(t, repo.Save(ctx, first))
	require.NoError(t, repo.Save(ctx, second))

	got, err := repo.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"Drake"}, got.TopArtists)

	// overwrite keeps creation order in List
	first.TopArtists = []string{"Drake", "Mitski"}
	require.NoError(t, repo.Save(ctx, first))

	all, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "u1", all[0].UserID)
	assert.Equal(t, []string{"Drake", "Mitski"}, all[0].TopArtists)
	assert.Equal(t, "u2", all[1].UserID)

	require.NoError(t, repo.Delete(ctx, "u1"))
	_, err = repo.Get(ctx, "u1")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestProfileRepository_CorruptDocumentFailsLoudly(t *testing.T) {
	db := newTestDB(t)
	repo := NewProfileRepository(db)
	ctx := context.Background()
	require.NoError(t, repo.Init(ctx))

	now := time.Now().UTC()
	_, err := db.ExecContext(ctx, `
INSERT INTO profiles (user_id, version, doc, created_at, updated_at)
VALUES (?, ?, ?, ?, ?)`,
		"u1", 1, `{"user_id": "u1", "top_artists": not json`, now, now,
	)
	require.NoError(t, err)

	_, err = repo.Get(ctx, "u1")
	assert.ErrorIs(t, err, repository.ErrStorage)

	_, err = repo.List(ctx)
	assert.ErrorIs(t, err, repository.ErrStorage)
}

func TestProfileRepository_UnsupportedVersionFailsLoudly(t *testing.T) {
	db := newTestDB(t)
	repo := NewProfileRepository(db)
	ctx := context.Background()
	require.NoError(t, repo.Init(ctx))

	now := time.Now().UTC()
	_, err := db.ExecContext(ctx, `
INSERT INTO profiles (user_id, version, doc, created_at, updated_at)
VALUES (?, ?, ?, ?, ?)`,
		"u1", 99, `{"user_id": "u1"}`, now, now,
	)
	require.NoError(t, err)

	_, err = repo.Get(ctx, "u1")
	assert.ErrorIs(t, err, repository.ErrStorage)
}
