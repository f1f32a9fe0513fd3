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

// ShareInput captures the payload for sharing a resource with a user.
type ShareInput struct {
	Resource     domain.ResourceRef
	TargetUserID string
	Kind         domain.PermissionKind
	ExpiresAt    *time.Time
	OriginIP     string
}

// UnshareInput captures the payload for revoking a user's access to a resource.
type UnshareInput struct {
	Resource     domain.ResourceRef
	TargetUserID string
	OriginIP     string
}

// SharingService orchestrates granting and revoking per-object access.
// Sharing uses replace semantics: all prior grants for the subject/resource
// pair are revoked before the new kind is written, so sharing a lower level
// actively downgrades a previously shared higher one.
type SharingService struct {
	authorizer *Authorizer
	grants     port.GrantRepository
	documents  port.DocumentRepository
	folders    port.FolderRepository
	users      port.UserRepository
	activity   port.ActivityRepository
	events     port.EventPublisher
	logger     *zap.Logger
	now        func() time.Time
}

// NewSharingService constructs a SharingService.
func NewSharingService(
	authorizer *Authorizer,
	grants port.GrantRepository,
	documents port.DocumentRepository,
	folders port.FolderRepository,
	users port.UserRepository,
	activity port.ActivityRepository,
	events port.EventPublisher,
	logger *zap.Logger,
) *SharingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SharingService{
		authorizer: authorizer,
		grants:     grants,
		documents:  documents,
		folders:    folders,
		users:      users,
		activity:   activity,
		events:     events,
		logger:     logger,
		now:        time.Now,
	}
}

// WithClock overrides the time source. Intended for tests.
func (s *SharingService) WithClock(now func() time.Time) *SharingService {
	if now != nil {
		s.now = now
	}
	return s
}

// Share grants the target user the given permission kind on the resource,
// replacing whatever grants the target held on it before.
func (s *SharingService) Share(ctx context.Context, actor *domain.Actor, input ShareInput) error {
	if !input.Kind.ValidFor(input.Resource.Type) {
		return fmt.Errorf("kind %q is not grantable on %s: %w", input.Kind, input.Resource.Type, ErrInvalidInput)
	}

	targetID := strings.TrimSpace(input.TargetUserID)
	if targetID == "" {
		return fmt.Errorf("target user id is required: %w", ErrInvalidInput)
	}

	if input.ExpiresAt != nil && !input.ExpiresAt.After(s.now()) {
		return fmt.Errorf("expiry must be in the future: %w", ErrInvalidInput)
	}

	if err := s.requireSharePermission(ctx, actor, input.Resource); err != nil {
		return err
	}

	if _, err := s.users.GetByID(ctx, targetID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("target user %s: %w", targetID, ErrNotFound)
		}
		return fmt.Errorf("lookup target user: %w", err)
	}

	if _, err := s.grants.RevokeAll(ctx, targetID, input.Resource); err != nil {
		return fmt.Errorf("revoke prior grants: %w", err)
	}

	now := s.now().UTC()
	grant := domain.PermissionGrant{
		ID:           uuid.NewString(),
		SubjectID:    targetID,
		ResourceType: input.Resource.Type,
		ResourceID:   input.Resource.ID,
		Kind:         input.Kind,
		GrantedBy:    actor.ID,
		GrantedAt:    now,
		ExpiresAt:    input.ExpiresAt,
		Active:       true,
	}

	if err := s.grants.Upsert(ctx, grant); err != nil {
		return fmt.Errorf("write grant: %w", err)
	}

	s.appendActivity(ctx, actor.ID, domain.ActionShare, input.Resource,
		fmt.Sprintf("granted %s to user %s", input.Kind, targetID), input.OriginIP)

	event := domain.ResourceSharedEvent{
		EventID:      uuid.NewString(),
		ResourceType: input.Resource.Type,
		ResourceID:   input.Resource.ID,
		SubjectID:    targetID,
		GrantedBy:    actor.ID,
		Kind:         input.Kind,
		ExpiresAt:    input.ExpiresAt,
		SharedAt:     now,
	}
	if err := s.events.PublishResourceShared(ctx, event); err != nil {
		s.logger.Warn("publish share event failed", zap.Error(err), zap.String("resource_id", input.Resource.ID))
	}

	return nil
}

// Unshare revokes every grant the target user holds on the resource.
func (s *SharingService) Unshare(ctx context.Context, actor *domain.Actor, input UnshareInput) error {
	targetID := strings.TrimSpace(input.TargetUserID)
	if targetID == "" {
		return fmt.Errorf("target user id is required: %w", ErrInvalidInput)
	}

	if err := s.requireSharePermission(ctx, actor, input.Resource); err != nil {
		return err
	}

	revoked, err := s.grants.RevokeAll(ctx, targetID, input.Resource)
	if err != nil {
		return fmt.Errorf("revoke grants: %w", err)
	}

	s.appendActivity(ctx, actor.ID, domain.ActionPermissionChange, input.Resource,
		fmt.Sprintf("revoked %d grant(s) from user %s", revoked, targetID), input.OriginIP)

	event := domain.ShareRevokedEvent{
		EventID:      uuid.NewString(),
		ResourceType: input.Resource.Type,
		ResourceID:   input.Resource.ID,
		SubjectID:    targetID,
		RevokedBy:    actor.ID,
		RevokedAt:    s.now().UTC(),
	}
	if err := s.events.PublishShareRevoked(ctx, event); err != nil {
		s.logger.Warn("publish revoke event failed", zap.Error(err), zap.String("resource_id", input.Resource.ID))
	}

	return nil
}

// ActiveGrantsFor returns the permission kinds the subject currently holds on
// the resource. The caller must hold share (documents) or manage (folders)
// permission on it.
func (s *SharingService) ActiveGrantsFor(ctx context.Context, actor *domain.Actor, subjectID string, resource domain.ResourceRef) ([]domain.PermissionKind, error) {
	if err := s.requireSharePermission(ctx, actor, resource); err != nil {
		return nil, err
	}

	kinds, err := s.grants.ActiveKinds(ctx, subjectID, resource, s.now())
	if err != nil {
		return nil, fmt.Errorf("load grants: %w", err)
	}

	return kinds.Kinds(), nil
}

// ListGrants returns every active grant on the resource for the
// permission-administration views.
func (s *SharingService) ListGrants(ctx context.Context, actor *domain.Actor, resource domain.ResourceRef) ([]domain.PermissionGrant, error) {
	if err := s.requireSharePermission(ctx, actor, resource); err != nil {
		return nil, err
	}

	grants, err := s.grants.ListForResource(ctx, resource)
	if err != nil {
		return nil, fmt.Errorf("list grants: %w", err)
	}

	return grants, nil
}

func (s *SharingService) requireSharePermission(ctx context.Context, actor *domain.Actor, resource domain.ResourceRef) error {
	switch resource.Type {
	case domain.ResourceDocument:
		doc, err := s.documents.Get(ctx, resource.ID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("document %s: %w", resource.ID, ErrNotFound)
			}
			return fmt.Errorf("load document: %w", err)
		}
		return s.authorizer.RequireDocument(ctx, actor, doc, OpDocumentShare)
	case domain.ResourceFolder:
		folder, err := s.folders.GetByID(ctx, resource.ID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("folder %s: %w", resource.ID, ErrNotFound)
			}
			return fmt.Errorf("load folder: %w", err)
		}
		return s.authorizer.RequireFolder(ctx, actor, folder, OpFolderManage)
	}
	return fmt.Errorf("unknown resource type %q: %w", resource.Type, ErrInvalidInput)
}

func (s *SharingService) appendActivity(ctx context.Context, actorID string, action domain.ActionKind, resource domain.ResourceRef, detail, originIP string) {
	entry := domain.ActivityLogEntry{
		ID:         uuid.NewString(),
		ActorID:    actorID,
		Action:     action,
		Detail:     detail,
		OccurredAt: s.now().UTC(),
		OriginIP:   originIP,
	}
	switch resource.Type {
	case domain.ResourceDocument:
		id := resource.ID
		entry.DocumentID = &id
	case domain.ResourceFolder:
		id := resource.ID
		entry.FolderID = &id
	}

	if err := s.activity.Append(ctx, entry); err != nil {
		s.logger.Error("append activity entry failed", zap.Error(err), zap.String("action", string(action)))
	}
}
