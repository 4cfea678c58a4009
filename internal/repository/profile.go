package repository

import (
	"context"

	"tunematch/internal/domain"
)

// ProfileRepository manages persisted Profile documents, one per user.
type ProfileRepository interface {
	Init(ctx context.Context) error
	// Save writes the full profile, inserting or overwriting (last writer wins).
	Save(ctx context.Context, profile *domain.Profile) error
	Get(ctx context.Context, userID string) (*domain.Profile, error)
	// List returns every stored profile in creation order.
	List(ctx context.Context) ([]domain.Profile, error)
	Delete(ctx context.Context, userID string) error
}
