package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	uuid "github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pwysocki/docvault/internal/core/domain"
	"github.com/pwysocki/docvault/internal/core/port"
	"github.com/pwysocki/docvault/internal/repository"
)

// CreateDocumentInput carries everything needed to create a document with its
// first version.
type CreateDocumentInput struct {
	Name        string
	ContentType string
	Content     []byte
	FolderID    string
	Description string
	Tags        []string
	OriginIP    string
}

// UpdateDocumentInput carries mutable document metadata.
type UpdateDocumentInput struct {
	Name        string
	Description string
	Status      domain.DocumentStatus
	OriginIP    string
}

// UploadVersionInput carries the payload for appending a version.
type UploadVersionInput struct {
	Content  []byte
	Comment  string
	OriginIP string
}

// AddCommentInput carries a comment payload.
type AddCommentInput struct {
	Body     string
	ParentID *string
	OriginIP string
}

// DocumentService implements the document lifecycle: creation, metadata
// edits, version history, soft deletion, tagging, and comments. Every
// operation goes through the Authorizer before touching storage.
type DocumentService struct {
	authorizer *Authorizer
	documents  port.DocumentRepository
	versions   port.VersionRepository
	comments   port.CommentRepository
	folders    port.FolderRepository
	activity   port.ActivityRepository
	events     port.EventPublisher
	logger     *zap.Logger
	now        func() time.Time
}

// NewDocumentService constructs a DocumentService.
func NewDocumentService(
	authorizer *Authorizer,
	documents port.DocumentRepository,
	versions port.VersionRepository,
	comments port.CommentRepository,
	folders port.FolderRepository,
	activity port.ActivityRepository,
	events port.EventPublisher,
	logger *zap.Logger,
) *DocumentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DocumentService{
		authorizer: authorizer,
		documents:  documents,
		versions:   versions,
		comments:   comments,
		folders:    folders,
		activity:   activity,
		events:     events,
		logger:     logger,
		now:        time.Now,
	}
}

// WithClock overrides the time source. Intended for tests.
func (s *DocumentService) WithClock(now func() time.Time) *DocumentService {
	if now != nil {
		s.now = now
	}
	return s
}

// Create stores a new document and its version 1. The actor must be allowed
// to create documents and to edit the destination folder.
func (s *DocumentService) Create(ctx context.Context, actor *domain.Actor, input CreateDocumentInput) (*domain.Document, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, fmt.Errorf("document name is required: %w", ErrInvalidInput)
	}
	if len(input.Content) == 0 {
		return nil, fmt.Errorf("document content is required: %w", ErrInvalidInput)
	}

	if !actor.Authenticated() {
		return nil, ErrUnauthorized
	}
	if !s.authorizer.CanCreateDocument(actor) {
		return nil, ErrForbidden
	}

	folder, err := s.folders.GetByID(ctx, input.FolderID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("folder %s: %w", input.FolderID, ErrNotFound)
		}
		return nil, fmt.Errorf("load folder: %w", err)
	}
	if err := s.authorizer.RequireFolder(ctx, actor, folder, OpFolderEdit); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	doc := domain.Document{
		ID:          uuid.NewString(),
		Name:        name,
		ContentType: input.ContentType,
		SizeBytes:   int64(len(input.Content)),
		OwnerID:     actor.ID,
		FolderID:    folder.ID,
		Status:      domain.StatusDraft,
		Tags:        normalizeTags(input.Tags),
		ContentHash: contentDigest(input.Content),
		Description: strings.TrimSpace(input.Description),
		CreatedAt:   now,
		ModifiedAt:  now,
	}

	if err := s.documents.Create(ctx, doc); err != nil {
		return nil, fmt.Errorf("create document: %w", err)
	}

	version := domain.DocumentVersion{
		ID:          uuid.NewString(),
		DocumentID:  doc.ID,
		CreatedBy:   actor.ID,
		CreatedAt:   now,
		ContentRef:  uuid.NewString(),
		SizeBytes:   doc.SizeBytes,
		ContentHash: doc.ContentHash,
		Comment:     "initial upload",
	}
	if _, err := s.versions.Append(ctx, version); err != nil {
		return nil, fmt.Errorf("write initial version: %w", err)
	}

	s.logActivity(ctx, actor.ID, domain.ActionCreate, &doc.ID, nil,
		fmt.Sprintf("created document %q in folder %s", doc.Name, folder.ID), input.OriginIP)

	return &doc, nil
}

// Get returns the document if the actor may view it. Soft-deleted documents
// resolve as not found.
func (s *DocumentService) Get(ctx context.Context, actor *domain.Actor, documentID string) (*domain.Document, error) {
	doc, err := s.loadViewable(ctx, actor, documentID, OpDocumentView)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// Download returns the document and its latest version, recording the
// download in the activity log.
func (s *DocumentService) Download(ctx context.Context, actor *domain.Actor, documentID, originIP string) (*domain.Document, *domain.DocumentVersion, error) {
	doc, err := s.loadViewable(ctx, actor, documentID, OpDocumentDownload)
	if err != nil {
		return nil, nil, err
	}

	versions, err := s.versions.ListByDocument(ctx, doc.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("list versions: %w", err)
	}

	var latest *domain.DocumentVersion
	for i := range versions {
		if latest == nil || versions[i].Number > latest.Number {
			latest = &versions[i]
		}
	}
	if latest == nil {
		return nil, nil, fmt.Errorf("document %s has no versions: %w", doc.ID, ErrIntegrity)
	}

	s.logActivity(ctx, actor.ID, domain.ActionDownload, &doc.ID, nil,
		fmt.Sprintf("downloaded document %q", doc.Name), originIP)

	return doc, latest, nil
}

// UpdateMetadata changes the document's name, description, and status.
func (s *DocumentService) UpdateMetadata(ctx context.Context, actor *domain.Actor, documentID string, input UpdateDocumentInput) (*domain.Document, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, fmt.Errorf("document name is required: %w", ErrInvalidInput)
	}
	if !input.Status.Valid() {
		return nil, fmt.Errorf("unknown status %q: %w", input.Status, ErrInvalidInput)
	}

	doc, err := s.loadViewable(ctx, actor, documentID, OpDocumentEdit)
	if err != nil {
		return nil, err
	}

	doc.Name = name
	doc.Description = strings.TrimSpace(input.Description)
	doc.Status = input.Status
	doc.ModifiedAt = s.now().UTC()

	if err := s.documents.Update(ctx, *doc); err != nil {
		return nil, fmt.Errorf("update document: %w", err)
	}

	s.logActivity(ctx, actor.ID, domain.ActionEdit, &doc.ID, nil,
		fmt.Sprintf("edited metadata of document %q", doc.Name), input.OriginIP)

	return doc, nil
}

// UploadVersion appends a new content version. The sequence number is
// assigned by the repository as max+1, so numbers are never reused even after
// a version is removed.
func (s *DocumentService) UploadVersion(ctx context.Context, actor *domain.Actor, documentID string, input UploadVersionInput) (*domain.DocumentVersion, error) {
	if len(input.Content) == 0 {
		return nil, fmt.Errorf("version content is required: %w", ErrInvalidInput)
	}

	doc, err := s.loadViewable(ctx, actor, documentID, OpDocumentEdit)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	version := domain.DocumentVersion{
		ID:          uuid.NewString(),
		DocumentID:  doc.ID,
		CreatedBy:   actor.ID,
		CreatedAt:   now,
		ContentRef:  uuid.NewString(),
		SizeBytes:   int64(len(input.Content)),
		ContentHash: contentDigest(input.Content),
		Comment:     strings.TrimSpace(input.Comment),
	}

	stored, err := s.versions.Append(ctx, version)
	if err != nil {
		return nil, fmt.Errorf("append version: %w", err)
	}

	doc.SizeBytes = stored.SizeBytes
	doc.ContentHash = stored.ContentHash
	doc.ModifiedAt = now
	if err := s.documents.Update(ctx, *doc); err != nil {
		return nil, fmt.Errorf("update document after version upload: %w", err)
	}

	s.logActivity(ctx, actor.ID, domain.ActionVersionUpload, &doc.ID, nil,
		fmt.Sprintf("uploaded version %d of document %q", stored.Number, doc.Name), input.OriginIP)

	event := domain.VersionUploadedEvent{
		EventID:    uuid.NewString(),
		DocumentID: doc.ID,
		Number:     stored.Number,
		CreatedBy:  actor.ID,
		SizeBytes:  stored.SizeBytes,
		UploadedAt: now,
	}
	if err := s.events.PublishVersionUploaded(ctx, event); err != nil {
		s.logger.Warn("publish version event failed", zap.Error(err), zap.String("document_id", doc.ID))
	}

	return stored, nil
}

// ListVersions returns the document's version history, newest first.
func (s *DocumentService) ListVersions(ctx context.Context, actor *domain.Actor, documentID string) ([]domain.DocumentVersion, error) {
	doc, err := s.loadViewable(ctx, actor, documentID, OpDocumentView)
	if err != nil {
		return nil, err
	}

	versions, err := s.versions.ListByDocument(ctx, doc.ID)
	if err != nil {
		return nil, fmt.Errorf("list versions: %w", err)
	}

	sort.Slice(versions, func(i, j int) bool { return versions[i].Number > versions[j].Number })
	return versions, nil
}

// DeleteVersion removes a single version from the history. The sequence
// number is not reclaimed.
func (s *DocumentService) DeleteVersion(ctx context.Context, actor *domain.Actor, documentID string, number int, originIP string) error {
	doc, err := s.loadViewable(ctx, actor, documentID, OpDocumentEdit)
	if err != nil {
		return err
	}

	if err := s.versions.Delete(ctx, doc.ID, number); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("version %d of document %s: %w", number, doc.ID, ErrNotFound)
		}
		return fmt.Errorf("delete version: %w", err)
	}

	s.logActivity(ctx, actor.ID, domain.ActionEdit, &doc.ID, nil,
		fmt.Sprintf("removed version %d of document %q", number, doc.Name), originIP)

	return nil
}

// SoftDelete marks the document as deleted. The row and its versions stay in
// storage for the audit trail.
func (s *DocumentService) SoftDelete(ctx context.Context, actor *domain.Actor, documentID, originIP string) error {
	doc, err := s.loadViewable(ctx, actor, documentID, OpDocumentDelete)
	if err != nil {
		return err
	}

	if err := s.documents.SoftDelete(ctx, doc.ID); err != nil {
		return fmt.Errorf("soft delete document: %w", err)
	}

	s.logActivity(ctx, actor.ID, domain.ActionDelete, &doc.ID, nil,
		fmt.Sprintf("deleted document %q", doc.Name), originIP)

	event := domain.DocumentDeletedEvent{
		EventID:    uuid.NewString(),
		DocumentID: doc.ID,
		OwnerID:    doc.OwnerID,
		DeletedBy:  actor.ID,
		DeletedAt:  s.now().UTC(),
	}
	if err := s.events.PublishDocumentDeleted(ctx, event); err != nil {
		s.logger.Warn("publish delete event failed", zap.Error(err), zap.String("document_id", doc.ID))
	}

	return nil
}

// SetTags replaces the document's tag set.
func (s *DocumentService) SetTags(ctx context.Context, actor *domain.Actor, documentID string, tags []string, originIP string) error {
	doc, err := s.loadViewable(ctx, actor, documentID, OpDocumentEdit)
	if err != nil {
		return err
	}

	normalized := normalizeTags(tags)
	if err := s.documents.SetTags(ctx, doc.ID, normalized); err != nil {
		return fmt.Errorf("set tags: %w", err)
	}

	s.logActivity(ctx, actor.ID, domain.ActionEdit, &doc.ID, nil,
		fmt.Sprintf("retagged document %q (%d tags)", doc.Name, len(normalized)), originIP)

	return nil
}

// AddComment attaches a comment to the document.
func (s *DocumentService) AddComment(ctx context.Context, actor *domain.Actor, documentID string, input AddCommentInput) (*domain.Comment, error) {
	body := strings.TrimSpace(input.Body)
	if body == "" {
		return nil, fmt.Errorf("comment body is required: %w", ErrInvalidInput)
	}

	doc, err := s.loadViewable(ctx, actor, documentID, OpDocumentComment)
	if err != nil {
		return nil, err
	}

	comment := domain.Comment{
		ID:         uuid.NewString(),
		DocumentID: doc.ID,
		AuthorID:   actor.ID,
		Body:       body,
		ParentID:   input.ParentID,
		CreatedAt:  s.now().UTC(),
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}

	s.logActivity(ctx, actor.ID, domain.ActionComment, &doc.ID, nil,
		fmt.Sprintf("commented on document %q", doc.Name), input.OriginIP)

	return &comment, nil
}

// ListComments returns the document's comments in creation order.
func (s *DocumentService) ListComments(ctx context.Context, actor *domain.Actor, documentID string) ([]domain.Comment, error) {
	doc, err := s.loadViewable(ctx, actor, documentID, OpDocumentView)
	if err != nil {
		return nil, err
	}

	comments, err := s.comments.ListByDocument(ctx, doc.ID)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	return comments, nil
}

// List returns documents matching the filter. Non-superusers are pinned to
// their own documents; listing across owners goes through per-document
// decisions instead.
func (s *DocumentService) List(ctx context.Context, actor *domain.Actor, filter port.DocumentFilter) ([]domain.Document, error) {
	if !actor.Authenticated() {
		return nil, ErrUnauthorized
	}
	if !actor.IsSuperuser {
		if _, active := actor.ActiveRole(); !active {
			return nil, ErrForbidden
		}
		filter.OwnerID = actor.ID
		filter.IncludeDeleted = false
	}

	docs, err := s.documents.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return docs, nil
}

func (s *DocumentService) loadViewable(ctx context.Context, actor *domain.Actor, documentID string, op DocumentOperation) (*domain.Document, error) {
	doc, err := s.documents.Get(ctx, documentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("document %s: %w", documentID, ErrNotFound)
		}
		return nil, fmt.Errorf("load document: %w", err)
	}
	if err := s.authorizer.RequireDocument(ctx, actor, doc, op); err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *DocumentService) logActivity(ctx context.Context, actorID string, action domain.ActionKind, documentID, folderID *string, detail, originIP string) {
	entry := domain.ActivityLogEntry{
		ID:         uuid.NewString(),
		ActorID:    actorID,
		Action:     action,
		DocumentID: documentID,
		FolderID:   folderID,
		Detail:     detail,
		OccurredAt: s.now().UTC(),
		OriginIP:   originIP,
	}
	if err := s.activity.Append(ctx, entry); err != nil {
		s.logger.Error("append activity entry failed", zap.Error(err), zap.String("action", string(action)))
	}
}

func contentDigest(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// normalizeTags trims, lowercases, dedupes, and sorts tags so equal sets
// compare equal regardless of input order.
func normalizeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		t := strings.ToLower(strings.TrimSpace(tag))
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
