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

// CreateFolderInput carries the payload for creating a folder.
type CreateFolderInput struct {
	Name        string
	Description string
	ParentID    *string
	OriginIP    string
}

// UpdateFolderInput carries mutable folder metadata.
type UpdateFolderInput struct {
	Name        string
	Description string
	OriginIP    string
}

// DeleteFolderInput selects the disposition strategy for a folder deletion.
// TargetID is required only for move_to_target.
type DeleteFolderInput struct {
	Strategy domain.FolderDeletionStrategy
	TargetID *string
	OriginIP string
}

// DeleteFolderResult reports what the committed deletion did to the folder's
// direct children.
type DeleteFolderResult struct {
	Strategy       domain.FolderDeletionStrategy
	MovedDocuments int
	MovedFolders   int
}

// FolderService implements the folder tree: creation, metadata edits, listing,
// and deletion with content disposition. Deletion is atomic: either the folder
// is gone and every direct child is reassigned or removed per the strategy, or
// nothing changed.
type FolderService struct {
	authorizer *Authorizer
	folders    port.FolderRepository
	activity   port.ActivityRepository
	events     port.EventPublisher
	logger     *zap.Logger
	now        func() time.Time
}

// NewFolderService constructs a FolderService.
func NewFolderService(
	authorizer *Authorizer,
	folders port.FolderRepository,
	activity port.ActivityRepository,
	events port.EventPublisher,
	logger *zap.Logger,
) *FolderService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FolderService{
		authorizer: authorizer,
		folders:    folders,
		activity:   activity,
		events:     events,
		logger:     logger,
		now:        time.Now,
	}
}

// WithClock overrides the time source. Intended for tests.
func (s *FolderService) WithClock(now func() time.Time) *FolderService {
	if now != nil {
		s.now = now
	}
	return s
}

// Create stores a new folder. A non-nil parent must already exist and be
// editable by the actor, which keeps the forest acyclic by construction.
func (s *FolderService) Create(ctx context.Context, actor *domain.Actor, input CreateFolderInput) (*domain.Folder, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, fmt.Errorf("folder name is required: %w", ErrInvalidInput)
	}

	if !actor.Authenticated() {
		return nil, ErrUnauthorized
	}
	if !s.authorizer.CanCreateFolder(actor) {
		return nil, ErrForbidden
	}

	if input.ParentID != nil {
		parent, err := s.folders.GetByID(ctx, *input.ParentID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, fmt.Errorf("parent folder %s: %w", *input.ParentID, ErrNotFound)
			}
			return nil, fmt.Errorf("load parent folder: %w", err)
		}
		if err := s.authorizer.RequireFolder(ctx, actor, parent, OpFolderEdit); err != nil {
			return nil, err
		}
	}

	folder := domain.Folder{
		ID:          uuid.NewString(),
		Name:        name,
		Description: strings.TrimSpace(input.Description),
		OwnerID:     actor.ID,
		ParentID:    input.ParentID,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.folders.Create(ctx, folder); err != nil {
		return nil, fmt.Errorf("create folder: %w", err)
	}

	s.logActivity(ctx, actor.ID, domain.ActionCreate, folder.ID,
		fmt.Sprintf("created folder %q", folder.Name), input.OriginIP)

	return &folder, nil
}

// Get returns the folder if the actor may view it.
func (s *FolderService) Get(ctx context.Context, actor *domain.Actor, folderID string) (*domain.Folder, error) {
	return s.loadViewable(ctx, actor, folderID, OpFolderView)
}

// ListChildren returns the viewable folder's direct child folders.
func (s *FolderService) ListChildren(ctx context.Context, actor *domain.Actor, folderID string) ([]domain.Folder, error) {
	folder, err := s.loadViewable(ctx, actor, folderID, OpFolderView)
	if err != nil {
		return nil, err
	}

	children, err := s.folders.ListChildren(ctx, &folder.ID, folder.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("list children: %w", err)
	}
	return children, nil
}

// ListOwned returns every folder the actor owns.
func (s *FolderService) ListOwned(ctx context.Context, actor *domain.Actor) ([]domain.Folder, error) {
	if !actor.Authenticated() {
		return nil, ErrUnauthorized
	}
	if !actor.IsSuperuser {
		if _, active := actor.ActiveRole(); !active {
			return nil, ErrForbidden
		}
	}

	folders, err := s.folders.ListByOwner(ctx, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("list folders: %w", err)
	}
	return folders, nil
}

// UpdateMetadata changes the folder's name and description.
func (s *FolderService) UpdateMetadata(ctx context.Context, actor *domain.Actor, folderID string, input UpdateFolderInput) (*domain.Folder, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, fmt.Errorf("folder name is required: %w", ErrInvalidInput)
	}

	folder, err := s.loadViewable(ctx, actor, folderID, OpFolderEdit)
	if err != nil {
		return nil, err
	}

	folder.Name = name
	folder.Description = strings.TrimSpace(input.Description)
	if err := s.folders.Update(ctx, *folder); err != nil {
		return nil, fmt.Errorf("update folder: %w", err)
	}

	s.logActivity(ctx, actor.ID, domain.ActionEdit, folder.ID,
		fmt.Sprintf("edited folder %q", folder.Name), input.OriginIP)

	return folder, nil
}

// Delete removes the folder after applying the disposition strategy to its
// direct children. For move_to_target the actor must also hold manage on the
// destination; the target may not be the folder itself or cause a reassignment
// into the deleted subtree.
func (s *FolderService) Delete(ctx context.Context, actor *domain.Actor, folderID string, input DeleteFolderInput) (*DeleteFolderResult, error) {
	if !input.Strategy.Valid() {
		return nil, fmt.Errorf("unknown deletion strategy %q: %w", input.Strategy, ErrInvalidInput)
	}

	folder, err := s.loadViewable(ctx, actor, folderID, OpFolderDelete)
	if err != nil {
		return nil, err
	}

	if input.Strategy == domain.DeletionMoveToTarget {
		if input.TargetID == nil || strings.TrimSpace(*input.TargetID) == "" {
			return nil, fmt.Errorf("target folder is required for move_to_target: %w", ErrInvalidInput)
		}
		if *input.TargetID == folder.ID {
			return nil, fmt.Errorf("target folder may not be the deleted folder: %w", ErrInvalidInput)
		}
		target, err := s.folders.GetByID(ctx, *input.TargetID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, fmt.Errorf("target folder %s: %w", *input.TargetID, ErrNotFound)
			}
			return nil, fmt.Errorf("load target folder: %w", err)
		}
		if err := s.authorizer.RequireFolder(ctx, actor, target, OpFolderManage); err != nil {
			return nil, err
		}
		if err := s.ensureTargetOutsideSubtree(ctx, folder.ID, target); err != nil {
			return nil, err
		}
	}

	disposition, err := s.folders.DeleteWithDisposition(ctx, folder, input.Strategy, input.TargetID)
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, fmt.Errorf("folder deletion rolled back: %w", ErrReassignmentConflict)
		}
		return nil, fmt.Errorf("delete folder: %w", err)
	}

	s.logActivity(ctx, actor.ID, domain.ActionDelete, folder.ID,
		fmt.Sprintf("deleted folder %q (strategy %s, moved %d documents, %d folders)",
			folder.Name, input.Strategy, disposition.MovedDocuments, disposition.MovedFolders), input.OriginIP)

	event := domain.FolderDeletedEvent{
		EventID:      uuid.NewString(),
		FolderID:     folder.ID,
		OwnerID:      folder.OwnerID,
		DeletedBy:    actor.ID,
		Strategy:     input.Strategy,
		MovedDocs:    disposition.MovedDocuments,
		MovedFolders: disposition.MovedFolders,
		DeletedAt:    s.now().UTC(),
	}
	if err := s.events.PublishFolderDeleted(ctx, event); err != nil {
		s.logger.Warn("publish folder delete event failed", zap.Error(err), zap.String("folder_id", folder.ID))
	}

	return &DeleteFolderResult{
		Strategy:       input.Strategy,
		MovedDocuments: disposition.MovedDocuments,
		MovedFolders:   disposition.MovedFolders,
	}, nil
}

// ensureTargetOutsideSubtree walks the target's ancestor chain and rejects any
// destination under the folder being deleted. Reassigning children into their
// own removed subtree would orphan them or close a cycle.
func (s *FolderService) ensureTargetOutsideSubtree(ctx context.Context, deletedID string, target *domain.Folder) error {
	cur := target
	for cur.ParentID != nil {
		if *cur.ParentID == deletedID {
			return fmt.Errorf("target folder %s is inside the deleted subtree: %w", target.ID, ErrInvalidInput)
		}
		parent, err := s.folders.GetByID(ctx, *cur.ParentID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("folder %s references missing parent %s: %w", cur.ID, *cur.ParentID, ErrIntegrity)
			}
			return fmt.Errorf("load ancestor folder: %w", err)
		}
		cur = parent
	}
	return nil
}

func (s *FolderService) loadViewable(ctx context.Context, actor *domain.Actor, folderID string, op FolderOperation) (*domain.Folder, error) {
	folder, err := s.folders.GetByID(ctx, folderID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("folder %s: %w", folderID, ErrNotFound)
		}
		return nil, fmt.Errorf("load folder: %w", err)
	}
	if err := s.authorizer.RequireFolder(ctx, actor, folder, op); err != nil {
		return nil, err
	}
	return folder, nil
}

func (s *FolderService) logActivity(ctx context.Context, actorID string, action domain.ActionKind, folderID, detail, originIP string) {
	id := folderID
	entry := domain.ActivityLogEntry{
		ID:         uuid.NewString(),
		ActorID:    actorID,
		Action:     action,
		FolderID:   &id,
		Detail:     detail,
		OccurredAt: s.now().UTC(),
		OriginIP:   originIP,
	}
	if err := s.activity.Append(ctx, entry); err != nil {
		s.logger.Error("append activity entry failed", zap.Error(err), zap.String("action", string(action)))
	}
}
