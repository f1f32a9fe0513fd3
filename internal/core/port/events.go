package port

import (
	"context"

	"github.com/pwysocki/docvault/internal/core/domain"
)

// EventPublisher publishes domain events to the message bus.
type EventPublisher interface {
	PublishResourceShared(ctx context.Context, event domain.ResourceSharedEvent) error
	PublishShareRevoked(ctx context.Context, event domain.ShareRevokedEvent) error
	PublishDocumentDeleted(ctx context.Context, event domain.DocumentDeletedEvent) error
	PublishFolderDeleted(ctx context.Context, event domain.FolderDeletedEvent) error
	PublishVersionUploaded(ctx context.Context, event domain.VersionUploadedEvent) error
}
