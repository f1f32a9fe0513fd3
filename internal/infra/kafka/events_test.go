package kafka

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"go.uber.org/zap/zaptest"

	"github.com/pwysocki/docvault/internal/core/domain"
	"github.com/pwysocki/docvault/internal/infra/config"
)

type fakeAsyncProducer struct {
	input  chan *sarama.ProducerMessage
	errors chan *sarama.ProducerError
}

func newFakeAsyncProducer() *fakeAsyncProducer {
	return &fakeAsyncProducer{
		input:  make(chan *sarama.ProducerMessage, 1),
		errors: make(chan *sarama.ProducerError, 1),
	}
}

func (f *fakeAsyncProducer) AsyncClose() {}

func (f *fakeAsyncProducer) Close() error { return nil }

func (f *fakeAsyncProducer) Input() chan<- *sarama.ProducerMessage { return f.input }

func (f *fakeAsyncProducer) Successes() <-chan *sarama.ProducerMessage { return nil }

func (f *fakeAsyncProducer) Errors() <-chan *sarama.ProducerError { return f.errors }

func (f *fakeAsyncProducer) IsTransactional() bool { return false }

func (f *fakeAsyncProducer) BeginTxn() error { return nil }

func (f *fakeAsyncProducer) CommitTxn() error { return nil }

func (f *fakeAsyncProducer) AbortTxn() error { return nil }

func (f *fakeAsyncProducer) AddOffsetsToTxn(offsets map[string][]*sarama.PartitionOffsetMetadata, groupID string) error {
	return nil
}

func (f *fakeAsyncProducer) AddMessageToTxn(msg *sarama.ConsumerMessage, groupID string, metadata *string) error {
	return nil
}

func (f *fakeAsyncProducer) TxnStatus() sarama.ProducerTxnStatusFlag {
	return sarama.ProducerTxnStatusFlag(0)
}

func newTestPublisher(t *testing.T, asyncProducer *fakeAsyncProducer) *EventPublisher {
	t.Helper()

	producer := &Producer{
		producer: asyncProducer,
		logger:   zaptest.NewLogger(t),
		cfg: config.KafkaSettings{
			TopicPrefix: "docvault",
		},
		errChan: make(chan error, 1),
		done:    make(chan struct{}),
	}

	return NewEventPublisher(producer, config.AppSettings{
		Name: "docvault",
		Env:  "test",
	}, zaptest.NewLogger(t))
}

func TestPublishResourceShared(t *testing.T) {
	asyncProducer := newFakeAsyncProducer()
	publisher := newTestPublisher(t, asyncProducer)

	sharedAt := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	expiresAt := sharedAt.Add(24 * time.Hour)
	event := domain.ResourceSharedEvent{
		EventID:      "event-123",
		ResourceType: domain.ResourceDocument,
		ResourceID:   "doc-456",
		SubjectID:    "user-789",
		GrantedBy:    "owner-001",
		Kind:         domain.PermDownload,
		ExpiresAt:    &expiresAt,
		SharedAt:     sharedAt,
		Metadata:     map[string]any{"source": "unit-test"},
	}

	if err := publisher.PublishResourceShared(context.Background(), event); err != nil {
		t.Fatalf("PublishResourceShared returned error: %v", err)
	}

	select {
	case msg := <-asyncProducer.input:
		if msg.Topic != "docvault.resource.shared" {
			t.Fatalf("unexpected topic: %s", msg.Topic)
		}

		bytes, err := msg.Value.Encode()
		if err != nil {
			t.Fatalf("Value.Encode returned error: %v", err)
		}

		var envelope map[string]any
		if err := json.Unmarshal(bytes, &envelope); err != nil {
			t.Fatalf("failed to unmarshal envelope: %v", err)
		}

		if got := envelope["event_type"]; got != "resource.shared" {
			t.Fatalf("unexpected event_type: %v", got)
		}

		if got := envelope["event_id"]; got != event.EventID {
			t.Fatalf("unexpected event_id: %v", got)
		}

		if got := envelope["subject_id"]; got != event.SubjectID {
			t.Fatalf("unexpected subject_id: %v", got)
		}

		if got := envelope["version"]; got != schemaVersion {
			t.Fatalf("unexpected version: %v", got)
		}

		timestamp, ok := envelope["timestamp"].(string)
		if !ok {
			t.Fatalf("timestamp not a string: %T", envelope["timestamp"])
		}

		if timestamp != sharedAt.Format(time.RFC3339Nano) {
			t.Fatalf("unexpected timestamp: %s", timestamp)
		}

		payload, ok := envelope["payload"].(map[string]any)
		if !ok {
			t.Fatalf("payload not a map: %T", envelope["payload"])
		}

		if got := payload["resource_type"]; got != string(domain.ResourceDocument) {
			t.Fatalf("unexpected resource_type: %v", got)
		}

		if got := payload["resource_id"]; got != event.ResourceID {
			t.Fatalf("unexpected resource_id: %v", got)
		}

		if got := payload["kind"]; got != string(domain.PermDownload) {
			t.Fatalf("unexpected kind: %v", got)
		}

		if got := payload["granted_by"]; got != event.GrantedBy {
			t.Fatalf("unexpected granted_by: %v", got)
		}

		expiry, ok := payload["expires_at"].(string)
		if !ok {
			t.Fatalf("expires_at not a string: %T", payload["expires_at"])
		}

		if expiry != expiresAt.Format(time.RFC3339Nano) {
			t.Fatalf("unexpected expires_at: %s", expiry)
		}

		metadata, ok := payload["metadata"].(map[string]any)
		if !ok {
			t.Fatalf("payload metadata not a map: %T", payload["metadata"])
		}

		if metadata["source"] != "unit-test" {
			t.Fatalf("metadata did not round-trip: %v", metadata)
		}

		envelopeMetadata, ok := envelope["metadata"].(map[string]any)
		if !ok {
			t.Fatalf("envelope metadata not a map: %T", envelope["metadata"])
		}

		if envelopeMetadata["service"] != "docvault" {
			t.Fatalf("unexpected metadata service: %v", envelopeMetadata["service"])
		}

		if envelopeMetadata["environment"] != "test" {
			t.Fatalf("unexpected metadata environment: %v", envelopeMetadata["environment"])
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for message on async producer input channel")
	}
}

func TestPublishFolderDeleted(t *testing.T) {
	asyncProducer := newFakeAsyncProducer()
	publisher := newTestPublisher(t, asyncProducer)

	deletedAt := time.Date(2026, 8, 2, 9, 30, 0, 0, time.UTC)
	event := domain.FolderDeletedEvent{
		EventID:      "evt-001",
		FolderID:     "folder-123",
		OwnerID:      "owner-001",
		DeletedBy:    "admin-002",
		Strategy:     domain.DeletionMoveToParent,
		MovedDocs:    4,
		MovedFolders: 2,
		DeletedAt:    deletedAt,
	}

	if err := publisher.PublishFolderDeleted(context.Background(), event); err != nil {
		t.Fatalf("PublishFolderDeleted returned error: %v", err)
	}

	select {
	case msg := <-asyncProducer.input:
		if msg.Topic != "docvault.folder.deleted" {
			t.Fatalf("unexpected topic: %s", msg.Topic)
		}

		bytes, err := msg.Value.Encode()
		if err != nil {
			t.Fatalf("Value.Encode returned error: %v", err)
		}

		var envelope map[string]any
		if err := json.Unmarshal(bytes, &envelope); err != nil {
			t.Fatalf("failed to unmarshal envelope: %v", err)
		}

		if got := envelope["event_type"]; got != "folder.deleted" {
			t.Fatalf("unexpected event_type: %v", got)
		}

		payload, ok := envelope["payload"].(map[string]any)
		if !ok {
			t.Fatalf("payload not a map: %T", envelope["payload"])
		}

		if got := payload["folder_id"]; got != event.FolderID {
			t.Fatalf("unexpected folder_id: %v", got)
		}

		if got := payload["strategy"]; got != string(domain.DeletionMoveToParent) {
			t.Fatalf("unexpected strategy: %v", got)
		}

		movedDocs, ok := payload["moved_documents"].(float64)
		if !ok {
			t.Fatalf("moved_documents not numeric: %T", payload["moved_documents"])
		}
		if int(movedDocs) != event.MovedDocs {
			t.Fatalf("unexpected moved_documents: %v", movedDocs)
		}

		movedFolders, ok := payload["moved_folders"].(float64)
		if !ok {
			t.Fatalf("moved_folders not numeric: %T", payload["moved_folders"])
		}
		if int(movedFolders) != event.MovedFolders {
			t.Fatalf("unexpected moved_folders: %v", movedFolders)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for message on async producer input channel")
	}
}

func TestPublishContextCancelled(t *testing.T) {
	asyncProducer := newFakeAsyncProducer()
	publisher := newTestPublisher(t, asyncProducer)

	// Fill the buffered input channel so the publish blocks.
	asyncProducer.input <- &sarama.ProducerMessage{}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := publisher.PublishDocumentDeleted(ctx, domain.DocumentDeletedEvent{
		DocumentID: "doc-1",
		OwnerID:    "owner-1",
		DeletedBy:  "owner-1",
		DeletedAt:  time.Now(),
	})
	if err == nil {
		t.Fatal("expected error when context is cancelled")
	}
}
