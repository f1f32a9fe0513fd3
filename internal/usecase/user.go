package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	uuid "github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pwysocki/docvault/internal/core/domain"
	"github.com/pwysocki/docvault/internal/core/port"
	"github.com/pwysocki/docvault/internal/repository"
)

// ProvisionUserInput carries the payload for registering an account.
type ProvisionUserInput struct {
	Username    string
	Email       string
	IsSuperuser bool
	Role        domain.Role
	OriginIP    string
}

// UserService manages accounts and their authorization profiles. It also
// implements port.IdentityResolver for the transport layer.
type UserService struct {
	users    port.UserRepository
	activity port.ActivityRepository
	logger   *zap.Logger
	now      func() time.Time
}

// NewUserService constructs a UserService.
func NewUserService(users port.UserRepository, activity port.ActivityRepository, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{users: users, activity: activity, logger: logger, now: time.Now}
}

// WithClock overrides the time source. Intended for tests.
func (s *UserService) WithClock(now func() time.Time) *UserService {
	if now != nil {
		s.now = now
	}
	return s
}

// Provision registers a new account with an active profile. An empty role
// defaults to reader; every account holds exactly one role at a time.
func (s *UserService) Provision(ctx context.Context, input ProvisionUserInput) (*domain.User, error) {
	username := strings.TrimSpace(input.Username)
	if username == "" {
		return nil, fmt.Errorf("username is required: %w", ErrInvalidInput)
	}

	role := input.Role
	if role == "" {
		role = domain.RoleReader
	}
	if !role.Valid() {
		return nil, fmt.Errorf("unknown role %q: %w", role, ErrInvalidInput)
	}

	if _, err := s.users.GetByUsername(ctx, username); err == nil {
		return nil, fmt.Errorf("username %q is taken: %w", username, ErrInvalidInput)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("check username: %w", err)
	}

	now := s.now().UTC()
	user := domain.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        strings.TrimSpace(input.Email),
		IsSuperuser:  input.IsSuperuser,
		RegisteredAt: now,
	}
	profile := domain.UserProfile{
		UserID:    user.ID,
		Role:      role,
		Active:    true,
		UpdatedAt: now,
	}

	if err := s.users.Create(ctx, user, profile); err != nil {
		if errors.Is(err, repository.ErrAlreadyExists) {
			return nil, fmt.Errorf("username %q is taken: %w", username, ErrInvalidInput)
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logActivity(ctx, user.ID, domain.ActionCreate,
		fmt.Sprintf("provisioned account %q with role %s", username, role), input.OriginIP)

	return &user, nil
}

// Lookup finds an account by username. Used by the token exchange endpoint,
// which trusts the upstream gateway for authentication.
func (s *UserService) Lookup(ctx context.Context, username string) (*domain.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, fmt.Errorf("username is required: %w", ErrInvalidInput)
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("user %q: %w", username, ErrNotFound)
		}
		return nil, fmt.Errorf("load user: %w", err)
	}

	s.logActivity(ctx, user.ID, domain.ActionLogin,
		fmt.Sprintf("issued access token for %q", username), "")

	return user, nil
}

// ChangeRole assigns a new role to the user. Only superusers may administer
// roles.
func (s *UserService) ChangeRole(ctx context.Context, actor *domain.Actor, userID string, role domain.Role, originIP string) error {
	if !actor.Authenticated() {
		return ErrUnauthorized
	}
	if !actor.IsSuperuser {
		return ErrForbidden
	}
	if !role.Valid() {
		return fmt.Errorf("unknown role %q: %w", role, ErrInvalidInput)
	}

	if err := s.users.UpdateRole(ctx, userID, role); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("user %s: %w", userID, ErrNotFound)
		}
		return fmt.Errorf("update role: %w", err)
	}

	s.logActivity(ctx, actor.ID, domain.ActionRoleChange,
		fmt.Sprintf("changed role of user %s to %s", userID, role), originIP)

	return nil
}

// SetActive toggles the profile's active flag. Deactivation revokes all
// effective permissions immediately, including on owned resources.
func (s *UserService) SetActive(ctx context.Context, actor *domain.Actor, userID string, active bool, originIP string) error {
	if !actor.Authenticated() {
		return ErrUnauthorized
	}
	if !actor.IsSuperuser {
		return ErrForbidden
	}

	if err := s.users.SetActive(ctx, userID, active); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("user %s: %w", userID, ErrNotFound)
		}
		return fmt.Errorf("set active: %w", err)
	}

	verb := "deactivated"
	if active {
		verb = "reactivated"
	}
	s.logActivity(ctx, actor.ID, domain.ActionRoleChange,
		fmt.Sprintf("%s user %s", verb, userID), originIP)

	return nil
}

// Resolve builds the Actor for an authenticated user ID. A missing profile
// resolves to an actor with no role, which the decision engine denies on
// everything short of superuser.
func (s *UserService) Resolve(ctx context.Context, userID string) (*domain.Actor, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("user %s: %w", userID, ErrUnauthorized)
		}
		return nil, fmt.Errorf("load user: %w", err)
	}

	actor := &domain.Actor{ID: user.ID, IsSuperuser: user.IsSuperuser}

	profile, err := s.users.GetProfile(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return actor, nil
		}
		return nil, fmt.Errorf("load profile: %w", err)
	}
	actor.Profile = profile

	return actor, nil
}

func (s *UserService) logActivity(ctx context.Context, actorID string, action domain.ActionKind, detail, originIP string) {
	entry := domain.ActivityLogEntry{
		ID:         uuid.NewString(),
		ActorID:    actorID,
		Action:     action,
		Detail:     detail,
		OccurredAt: s.now().UTC(),
		OriginIP:   originIP,
	}
	if err := s.activity.Append(ctx, entry); err != nil {
		s.logger.Error("append activity entry failed", zap.Error(err), zap.String("action", string(action)))
	}
}
