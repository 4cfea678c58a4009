package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"tunematch/internal/domain"
	"tunematch/internal/repository"
)

const createAccountsTable = `
CREATE TABLE IF NOT EXISTS accounts (
	user_id TEXT PRIMARY KEY,
	username TEXT NOT NULL UNIQUE,
	email TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	salt TEXT NOT NULL,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);
`

type AccountRepository struct {
	db *sql.DB
}

func NewAccountRepository(db *sql.DB) repository.AccountRepository {
	return &AccountRepository{db: db}
}

func (r *AccountRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createAccountsTable); err != nil {
		return fmt.Errorf("create accounts table: %w", err)
	}
	return nil
}

func (r *AccountRepository) Create(ctx context.Context, account *domain.Account) error {
	now := time.Now().UTC()
	account.CreatedAt = now
	account.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, `
INSERT INTO accounts (user_id, username, email, password_hash, salt, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?)`,
		account.UserID,
		account.Username,
		account.Email,
		account.PasswordHash,
		account.Salt,
		account.CreatedAt,
		account.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrDuplicate
		}
		return fmt.Errorf("%w: insert account: %v", repository.ErrStorage, err)
	}
	return nil
}

func (r *AccountRepository) GetByUsername(ctx context.Context, username string) (*domain.Account, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT user_id, username, email, password_hash, salt, created_at, updated_at
FROM accounts
WHERE username = ?`,
		username,
	)
	return scanAccount(row)
}

func (r *AccountRepository) GetByID(ctx context.Context, userID string) (*domain.Account, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT user_id, username, email, password_hash, salt, created_at, updated_at
FROM accounts
WHERE user_id = ?`,
		userID,
	)
	return scanAccount(row)
}

func (r *AccountRepository) Update(ctx context.Context, account *domain.Account) error {
	account.UpdatedAt = time.Now().UTC()
	res, err := r.db.ExecContext(ctx, `
UPDATE accounts
SET username=?, email=?, password_hash=?, salt=?, updated_at=?
WHERE user_id=?`,
		account.Username,
		account.Email,
		account.PasswordHash,
		account.Salt,
		account.UpdatedAt,
		account.UserID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrDuplicate
		}
		return fmt.Errorf("%w: update account: %v", repository.ErrStorage, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: update account rows affected: %v", repository.ErrStorage, err)
	}
	if affected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *AccountRepository) Delete(ctx context.Context, userID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM accounts WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("%w: delete account: %v", repository.ErrStorage, err)
	}
	return nil
}

func scanAccount(row interface {
	Scan(dest ...any) error
}) (*domain.Account, error) {
	var account domain.Account
	if err := row.Scan(
		&account.UserID,
		&account.Username,
		&account.Email,
		&account.PasswordHash,
		&account.Salt,
		&account.CreatedAt,
		&account.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("%w: scan account: %v", repository.ErrStorage, err)
	}
	return &account, nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "unique")
}
