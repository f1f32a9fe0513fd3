package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pwysocki/docvault/internal/core/domain"
	"github.com/pwysocki/docvault/internal/infra/config"
)

const schemaVersion = "1.0"

// Event types published by the service.
const (
	eventResourceShared  = "resource.shared"
	eventShareRevoked    = "resource.share.revoked"
	eventDocumentDeleted = "document.deleted"
	eventFolderDeleted   = "folder.deleted"
	eventVersionUploaded = "document.version.uploaded"
)

// EventPublisher implements port.EventPublisher using Kafka.
type EventPublisher struct {
	producer *Producer
	logger   *zap.Logger
	appCfg   config.AppSettings
}

// NewEventPublisher constructs a Kafka-backed event publisher.
func NewEventPublisher(producer *Producer, appCfg config.AppSettings, logger *zap.Logger) *EventPublisher {
	return &EventPublisher{producer: producer, appCfg: appCfg, logger: logger}
}

type envelopeMetadata map[string]string

type eventEnvelope struct {
	EventID   string           `json:"event_id"`
	EventType string           `json:"event_type"`
	SubjectID string           `json:"subject_id,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
	Version   string           `json:"version"`
	Payload   any              `json:"payload"`
	Metadata  envelopeMetadata `json:"metadata,omitempty"`
}

func (p *EventPublisher) publish(ctx context.Context, eventID, eventType, subjectID string, ts time.Time, payload any) error {
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	id := eventID
	if id == "" {
		id = uuid.NewString()
	}

	metadata := envelopeMetadata{
		"service":     p.appCfg.Name,
		"environment": p.appCfg.Env,
	}

	envelope := eventEnvelope{
		EventID:   id,
		EventType: eventType,
		SubjectID: subjectID,
		Timestamp: ts.UTC(),
		Version:   schemaVersion,
		Payload:   payload,
		Metadata:  metadata,
	}

	bytes, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("marshal event envelope: %w", err)
	}

	message := &sarama.ProducerMessage{
		Topic: p.producer.TopicName(eventType),
		Value: sarama.ByteEncoder(bytes),
	}

	select {
	case p.producer.Producer().Input() <- message:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// PublishResourceShared publishes resource.shared events.
func (p *EventPublisher) PublishResourceShared(ctx context.Context, event domain.ResourceSharedEvent) error {
	payload := struct {
		ResourceType string         `json:"resource_type"`
		ResourceID   string         `json:"resource_id"`
		SubjectID    string         `json:"subject_id"`
		GrantedBy    string         `json:"granted_by"`
		Kind         string         `json:"kind"`
		ExpiresAt    *time.Time     `json:"expires_at,omitempty"`
		SharedAt     time.Time      `json:"shared_at"`
		Metadata     map[string]any `json:"metadata,omitempty"`
	}{
		ResourceType: string(event.ResourceType),
		ResourceID:   event.ResourceID,
		SubjectID:    event.SubjectID,
		GrantedBy:    event.GrantedBy,
		Kind:         string(event.Kind),
		ExpiresAt:    event.ExpiresAt,
		SharedAt:     event.SharedAt.UTC(),
		Metadata:     event.Metadata,
	}

	return p.publish(ctx, event.EventID, eventResourceShared, event.SubjectID, event.SharedAt, payload)
}

// PublishShareRevoked publishes resource.share.revoked events.
func (p *EventPublisher) PublishShareRevoked(ctx context.Context, event domain.ShareRevokedEvent) error {
	payload := struct {
		ResourceType string         `json:"resource_type"`
		ResourceID   string         `json:"resource_id"`
		SubjectID    string         `json:"subject_id"`
		RevokedBy    string         `json:"revoked_by"`
		RevokedAt    time.Time      `json:"revoked_at"`
		Metadata     map[string]any `json:"metadata,omitempty"`
	}{
		ResourceType: string(event.ResourceType),
		ResourceID:   event.ResourceID,
		SubjectID:    event.SubjectID,
		RevokedBy:    event.RevokedBy,
		RevokedAt:    event.RevokedAt.UTC(),
		Metadata:     event.Metadata,
	}

	return p.publish(ctx, event.EventID, eventShareRevoked, event.SubjectID, event.RevokedAt, payload)
}

// PublishDocumentDeleted publishes document.deleted events.
func (p *EventPublisher) PublishDocumentDeleted(ctx context.Context, event domain.DocumentDeletedEvent) error {
	payload := struct {
		DocumentID string         `json:"document_id"`
		OwnerID    string         `json:"owner_id"`
		DeletedBy  string         `json:"deleted_by"`
		DeletedAt  time.Time      `json:"deleted_at"`
		Metadata   map[string]any `json:"metadata,omitempty"`
	}{
		DocumentID: event.DocumentID,
		OwnerID:    event.OwnerID,
		DeletedBy:  event.DeletedBy,
		DeletedAt:  event.DeletedAt.UTC(),
		Metadata:   event.Metadata,
	}

	return p.publish(ctx, event.EventID, eventDocumentDeleted, event.OwnerID, event.DeletedAt, payload)
}

// PublishFolderDeleted publishes folder.deleted events.
func (p *EventPublisher) PublishFolderDeleted(ctx context.Context, event domain.FolderDeletedEvent) error {
	payload := struct {
		FolderID     string         `json:"folder_id"`
		OwnerID      string         `json:"owner_id"`
		DeletedBy    string         `json:"deleted_by"`
		Strategy     string         `json:"strategy"`
		MovedDocs    int            `json:"moved_documents"`
		MovedFolders int            `json:"moved_folders"`
		DeletedAt    time.Time      `json:"deleted_at"`
		Metadata     map[string]any `json:"metadata,omitempty"`
	}{
		FolderID:     event.FolderID,
		OwnerID:      event.OwnerID,
		DeletedBy:    event.DeletedBy,
		Strategy:     string(event.Strategy),
		MovedDocs:    event.MovedDocs,
		MovedFolders: event.MovedFolders,
		DeletedAt:    event.DeletedAt.UTC(),
		Metadata:     event.Metadata,
	}

	return p.publish(ctx, event.EventID, eventFolderDeleted, event.OwnerID, event.DeletedAt, payload)
}

// PublishVersionUploaded publishes document.version.uploaded events.
func (p *EventPublisher) PublishVersionUploaded(ctx context.Context, event domain.VersionUploadedEvent) error {
	payload := struct {
		DocumentID string         `json:"document_id"`
		Number     int            `json:"number"`
		CreatedBy  string         `json:"created_by"`
		SizeBytes  int64          `json:"size_bytes"`
		UploadedAt time.Time      `json:"uploaded_at"`
		Metadata   map[string]any `json:"metadata,omitempty"`
	}{
		DocumentID: event.DocumentID,
		Number:     event.Number,
		CreatedBy:  event.CreatedBy,
		SizeBytes:  event.SizeBytes,
		UploadedAt: event.UploadedAt.UTC(),
		Metadata:   event.Metadata,
	}

	return p.publish(ctx, event.EventID, eventVersionUploaded, event.CreatedBy, event.UploadedAt, payload)
}
