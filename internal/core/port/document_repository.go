package port

import (
	"context"

	"github.com/pwysocki/docvault/internal/core/domain"
)

// DocumentFilter narrows document listings.
type DocumentFilter struct {
	OwnerID        string
	FolderID       *string
	Status         domain.DocumentStatus
	IncludeDeleted bool
	Limit          int
	Offset         int
}

// DocumentRepository exposes persistence behavior for documents. Get excludes
// soft-deleted rows; GetAny includes them for audit and restore tooling.
type DocumentRepository interface {
	Create(ctx context.Context, doc domain.Document) error
	Get(ctx context.Context, id string) (*domain.Document, error)
	GetAny(ctx context.Context, id string) (*domain.Document, error)
	Update(ctx context.Context, doc domain.Document) error
	SoftDelete(ctx context.Context, id string) error
	SetTags(ctx context.Context, id string, tags []string) error
	List(ctx context.Context, filter DocumentFilter) ([]domain.Document, error)
	CountByFolder(ctx context.Context, folderID string) (int, error)
}

// VersionRepository exposes persistence behavior for document versions.
// Append assigns the next sequence number (max+1) inside its own transaction
// so concurrent uploads cannot collide or reuse numbers.
type VersionRepository interface {
	Append(ctx context.Context, version domain.DocumentVersion) (*domain.DocumentVersion, error)
	ListByDocument(ctx context.Context, documentID string) ([]domain.DocumentVersion, error)
	Delete(ctx context.Context, documentID string, number int) error
}

// CommentRepository exposes persistence behavior for document comments.
type CommentRepository interface {
	Create(ctx context.Context, comment domain.Comment) error
	ListByDocument(ctx context.Context, documentID string) ([]domain.Comment, error)
}
