package repository

import (
	"context"
	"errors"

	"tunematch/internal/domain"
)

var (
	// ErrDuplicate indicates a unique constraint (username or email) was violated.
	ErrDuplicate = errors.New("duplicate record")
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrStorage wraps persistence failures, including corrupt stored documents.
	ErrStorage = errors.New("storage failure")
)

// AccountRepository defines persistence operations for Account entities.
type AccountRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, account *domain.Account) error
	GetByUsername(ctx context.Context, username string) (*domain.Account, error)
	GetByID(ctx context.Context, userID string) (*domain.Account, error)
	Update(ctx context.Context, account *domain.Account) error
	Delete(ctx context.Context, userID string) error
}
