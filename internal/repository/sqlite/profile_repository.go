package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"tunematch/internal/domain"
	"tunematch/internal/repository"
)

const createProfilesTable = `
CREATE TABLE IF NOT EXISTS profiles (
	user_id TEXT PRIMARY KEY,
	version INTEGER NOT NULL,
	doc TEXT NOT NULL,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);
`

// profileDocVersion is bumped whenever the stored document shape changes.
// Loading a document with a different version fails loudly instead of
// returning zero-valued fields.
const profileDocVersion = 1

type ProfileRepository struct {
	db *sql.DB
}

func NewProfileRepository(db *sql.DB) repository.ProfileRepository {
	return &ProfileRepository{db: db}
}

func (r *ProfileRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createProfilesTable); err != nil {
		return fmt.Errorf("create profiles table: %w", err)
	}
	return nil
}

func (r *ProfileRepository) Save(ctx context.Context, profile *domain.Profile) error {
	doc, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("%w: encode profile: %v", repository.ErrStorage, err)
	}

	now := time.Now().UTC()
	if _, err := r.db.ExecContext(ctx, `
INSERT INTO profiles (user_id, version, doc, created_at, updated_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(user_id) DO UPDATE SET version=excluded.version, doc=excluded.doc, updated_at=excluded.updated_at`,
		profile.UserID,
		profileDocVersion,
		string(doc),
		now,
		now,
	); err != nil {
		return fmt.Errorf("%w: save profile: %v", repository.ErrStorage, err)
	}
	return nil
}

func (r *ProfileRepository) Get(ctx context.Context, userID string) (*domain.Profile, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT version, doc FROM profiles WHERE user_id = ?`,
		userID,
	)

	var (
		version int
		doc     string
	)
	if err := row.Scan(&version, &doc); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("%w: scan profile: %v", repository.ErrStorage, err)
	}

	return decodeProfile(userID, version, doc)
}

func (r *ProfileRepository) List(ctx context.Context) ([]domain.Profile, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT user_id, version, doc FROM profiles ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("%w: list profiles: %v", repository.ErrStorage, err)
	}
	defer rows.Close()

	var profiles []domain.Profile
	for rows.Next() {
		var (
			userID  string
			version int
			doc     string
		)
		if err := rows.Scan(&userID, &version, &doc); err != nil {
			return nil, fmt.Errorf("%w: scan profile row: %v", repository.ErrStorage, err)
		}
		profile, err := decodeProfile(userID, version, doc)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, *profile)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate profiles: %v", repository.ErrStorage, err)
	}
	return profiles, nil
}

func (r *ProfileRepository) Delete(ctx context.Context, userID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM profiles WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("%w: delete profile: %v", repository.ErrStorage, err)
	}
	return nil
}

func decodeProfile(userID string, version int, doc string) (*domain.Profile, error) {
	if version != profileDocVersion {
		return nil, fmt.Errorf("%w: profile %s has unsupported document version %d", repository.ErrStorage, userID, version)
	}

	var profile domain.Profile
	if err := json.Unmarshal([]byte(doc), &profile); err != nil {
		return nil, fmt.Errorf("%w: decode profile %s: %v", repository.ErrStorage, userID, err)
	}
	if profile.UserID != userID {
		return nil, fmt.Errorf("%w: profile document for %s carries user id %q", repository.ErrStorage, userID, profile.UserID)
	}
	return &profile, nil
}
