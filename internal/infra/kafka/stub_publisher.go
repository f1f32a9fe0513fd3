package kafka

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/pwysocki/docvault/internal/core/domain"
	"github.com/pwysocki/docvault/internal/core/port"
)

// StubPublisher logs events instead of sending them to Kafka. Useful for development environments.
type StubPublisher struct {
	logger *zap.Logger
}

// NewStubPublisher constructs a development-friendly event publisher.
func NewStubPublisher(logger *zap.Logger) *StubPublisher {
	return &StubPublisher{logger: logger}
}

func (p *StubPublisher) logEvent(eventType, subjectID string, at time.Time, payload any) {
	if at.IsZero() {
		at = time.Now().UTC()
	}

	p.logger.Info("Stub event published",
		zap.String("event_type", eventType),
		zap.String("subject_id", subjectID),
		zap.Time("timestamp", at.UTC()),
		zap.Any("payload", payload),
	)
}

// PublishResourceShared logs resource.shared events.
func (p *StubPublisher) PublishResourceShared(_ context.Context, event domain.ResourceSharedEvent) error {
	payload := map[string]any{
		"resource_type": event.ResourceType,
		"resource_id":   event.ResourceID,
		"subject_id":    event.SubjectID,
		"granted_by":    event.GrantedBy,
		"kind":          event.Kind,
		"expires_at":    event.ExpiresAt,
		"shared_at":     event.SharedAt,
		"metadata":      event.Metadata,
	}
	p.logEvent(eventResourceShared, event.SubjectID, event.SharedAt, payload)
	return nil
}

// PublishShareRevoked logs resource.share.revoked events.
func (p *StubPublisher) PublishShareRevoked(_ context.Context, event domain.ShareRevokedEvent) error {
	payload := map[string]any{
		"resource_type": event.ResourceType,
		"resource_id":   event.ResourceID,
		"subject_id":    event.SubjectID,
		"revoked_by":    event.RevokedBy,
		"revoked_at":    event.RevokedAt,
		"metadata":      event.Metadata,
	}
	p.logEvent(eventShareRevoked, event.SubjectID, event.RevokedAt, payload)
	return nil
}

// PublishDocumentDeleted logs document.deleted events.
func (p *StubPublisher) PublishDocumentDeleted(_ context.Context, event domain.DocumentDeletedEvent) error {
	payload := map[string]any{
		"document_id": event.DocumentID,
		"owner_id":    event.OwnerID,
		"deleted_by":  event.DeletedBy,
		"deleted_at":  event.DeletedAt,
		"metadata":    event.Metadata,
	}
	p.logEvent(eventDocumentDeleted, event.OwnerID, event.DeletedAt, payload)
	return nil
}

// PublishFolderDeleted logs folder.deleted events.
func (p *StubPublisher) PublishFolderDeleted(_ context.Context, event domain.FolderDeletedEvent) error {
	payload := map[string]any{
		"folder_id":       event.FolderID,
		"owner_id":        event.OwnerID,
		"deleted_by":      event.DeletedBy,
		"strategy":        event.Strategy,
		"moved_documents": event.MovedDocs,
		"moved_folders":   event.MovedFolders,
		"deleted_at":      event.DeletedAt,
		"metadata":        event.Metadata,
	}
	p.logEvent(eventFolderDeleted, event.OwnerID, event.DeletedAt, payload)
	return nil
}

// PublishVersionUploaded logs document.version.uploaded events.
func (p *StubPublisher) PublishVersionUploaded(_ context.Context, event domain.VersionUploadedEvent) error {
	payload := map[string]any{
		"document_id": event.DocumentID,
		"number":      event.Number,
		"created_by":  event.CreatedBy,
		"size_bytes":  event.SizeBytes,
		"uploaded_at": event.UploadedAt,
		"metadata":    event.Metadata,
	}
	p.logEvent(eventVersionUploaded, event.CreatedBy, event.UploadedAt, payload)
	return nil
}

var _ port.EventPublisher = (*StubPublisher)(nil)
