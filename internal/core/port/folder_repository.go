package port

import (
	"context"

	"github.com/pwysocki/docvault/internal/core/domain"
)

// DispositionResult reports how many direct children a folder deletion moved.
type DispositionResult struct {
	MovedDocuments int
	MovedFolders   int
}

// FolderRepository exposes persistence behavior for folders. Deletion with
// content disposition is a single method because the reassignment and the
// folder removal must commit or roll back together.
type FolderRepository interface {
	Create(ctx context.Context, folder domain.Folder) error
	GetByID(ctx context.Context, id string) (*domain.Folder, error)
	Update(ctx context.Context, folder domain.Folder) error
	ListChildren(ctx context.Context, parentID *string, ownerID string) ([]domain.Folder, error)
	ListByOwner(ctx context.Context, ownerID string) ([]domain.Folder, error)
	// DeleteWithDisposition removes the folder after applying the strategy to
	// its direct children. targetID is consulted only for move_to_target.
	DeleteWithDisposition(ctx context.Context, folder *domain.Folder, strategy domain.FolderDeletionStrategy, targetID *string) (DispositionResult, error)
}
