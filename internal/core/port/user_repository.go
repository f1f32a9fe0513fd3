package port

import (
	"context"

	"github.com/pwysocki/docvault/internal/core/domain"
)

// UserRepository exposes persistence behavior for users and their profiles.
type UserRepository interface {
	Create(ctx context.Context, user domain.User, profile domain.UserProfile) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetProfile(ctx context.Context, userID string) (*domain.UserProfile, error)
	UpdateRole(ctx context.Context, userID string, role domain.Role) error
	SetActive(ctx context.Context, userID string, active bool) error
}

// IdentityResolver turns an authenticated user ID into an Actor, combining the
// user row, superuser flag, and profile state.
type IdentityResolver interface {
	Resolve(ctx context.Context, userID string) (*domain.Actor, error)
}
