package usecase

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/pwysocki/docvault/internal/core/domain"
	"github.com/pwysocki/docvault/internal/core/port"
)

type documentFixture struct {
	service  *DocumentService
	grants   *memGrants
	docs     *memDocuments
	versions *memVersions
	comments *memComments
	folders  *memFolders
	log      *memActivity
	events   *recordingPublisher
}

func newDocumentFixture() *documentFixture {
	grants := &memGrants{}
	docs := newMemDocuments()
	folders := newMemFolders(docs)
	versions := &memVersions{}
	comments := &memComments{}
	log := &memActivity{}
	events := &recordingPublisher{}

	authorizer := NewAuthorizer(grants).WithClock(fixedClock)
	service := NewDocumentService(authorizer, docs, versions, comments, folders, log, events, nil).WithClock(fixedClock)

	return &documentFixture{
		service: service, grants: grants, docs: docs, versions: versions,
		comments: comments, folders: folders, log: log, events: events,
	}
}

func (f *documentFixture) seedFolder(id, ownerID string) {
	f.folders.folders[id] = domain.Folder{ID: id, Name: id, OwnerID: ownerID}
}

func (f *documentFixture) seedDocument(id, ownerID string) {
	f.docs.docs[id] = domain.Document{ID: id, Name: id + ".pdf", OwnerID: ownerID, Status: domain.StatusPublished}
}

func TestCreateDocumentWritesVersionOne(t *testing.T) {
	f := newDocumentFixture()
	f.seedFolder("folder-1", "owner")
	owner := actorWith("owner", domain.RoleEditor, true)

	doc, err := f.service.Create(context.Background(), owner, CreateDocumentInput{
		Name: "report.pdf", ContentType: "application/pdf",
		Content: []byte("content"), FolderID: "folder-1",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if doc.Status != domain.StatusDraft {
		t.Fatalf("new documents start as draft, got %s", doc.Status)
	}
	if doc.ContentHash == "" {
		t.Fatal("content hash must be computed on create")
	}

	versions, err := f.versions.ListByDocument(context.Background(), doc.ID)
	if err != nil {
		t.Fatalf("list versions: %v", err)
	}
	if len(versions) != 1 || versions[0].Number != 1 {
		t.Fatalf("expected version 1 after create, got %+v", versions)
	}
}

func TestCreateDocumentReaderDenied(t *testing.T) {
	f := newDocumentFixture()
	f.seedFolder("folder-1", "reader")
	reader := actorWith("reader", domain.RoleReader, true)

	_, err := f.service.Create(context.Background(), reader, CreateDocumentInput{
		Name: "report.pdf", Content: []byte("content"), FolderID: "folder-1",
	})
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for reader, got %v", err)
	}
}

func TestVersionNumbersNeverReused(t *testing.T) {
	f := newDocumentFixture()
	f.seedDocument("doc-1", "owner")
	owner := actorWith("owner", domain.RoleEditor, true)

	for i := 0; i < 3; i++ {
		if _, err := f.service.UploadVersion(context.Background(), owner, "doc-1", UploadVersionInput{Content: []byte{byte(i)}}); err != nil {
			t.Fatalf("upload %d: %v", i, err)
		}
	}

	if err := f.service.DeleteVersion(context.Background(), owner, "doc-1", 2, ""); err != nil {
		t.Fatalf("delete version 2: %v", err)
	}

	stored, err := f.service.UploadVersion(context.Background(), owner, "doc-1", UploadVersionInput{Content: []byte("latest")})
	if err != nil {
		t.Fatalf("upload after delete: %v", err)
	}
	if stored.Number != 4 {
		t.Fatalf("sequence numbers must not be reused: expected 4, got %d", stored.Number)
	}
}

func TestUploadVersionUpdatesDocumentDigest(t *testing.T) {
	f := newDocumentFixture()
	f.seedDocument("doc-1", "owner")
	owner := actorWith("owner", domain.RoleEditor, true)

	stored, err := f.service.UploadVersion(context.Background(), owner, "doc-1", UploadVersionInput{Content: []byte("v1 content")})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}

	doc := f.docs.docs["doc-1"]
	if doc.ContentHash != stored.ContentHash {
		t.Fatal("document digest must track the latest version")
	}
	if doc.SizeBytes != stored.SizeBytes {
		t.Fatal("document size must track the latest version")
	}
	if len(f.events.versions) != 1 {
		t.Fatalf("expected 1 version event, got %d", len(f.events.versions))
	}
}

func TestSoftDeleteHidesDocument(t *testing.T) {
	f := newDocumentFixture()
	f.seedDocument("doc-1", "owner")
	owner := actorWith("owner", domain.RoleEditor, true)

	if err := f.service.SoftDelete(context.Background(), owner, "doc-1", ""); err != nil {
		t.Fatalf("soft delete: %v", err)
	}

	_, err := f.service.Get(context.Background(), owner, "doc-1")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("deleted document must resolve as not found, got %v", err)
	}

	if !f.docs.docs["doc-1"].Deleted {
		t.Fatal("row must survive with the deleted flag set")
	}
	if len(f.events.docDels) != 1 {
		t.Fatalf("expected 1 delete event, got %d", len(f.events.docDels))
	}
}

func TestDownloadDeniedWithoutGrant(t *testing.T) {
	f := newDocumentFixture()
	f.seedDocument("doc-1", "owner")
	stranger := actorWith("stranger", domain.RoleReader, true)

	_, _, err := f.service.Download(context.Background(), stranger, "doc-1", "10.0.0.9")
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if len(f.log.entries) != 0 {
		t.Fatal("denied download must not be logged as a download")
	}
}

func TestDownloadRecordsActivity(t *testing.T) {
	f := newDocumentFixture()
	f.seedDocument("doc-1", "owner")
	owner := actorWith("owner", domain.RoleReader, true)

	_, _, err := f.service.Download(context.Background(), owner, "doc-1", "10.0.0.9")
	if err != nil {
		t.Fatalf("download: %v", err)
	}

	if len(f.log.entries) != 1 {
		t.Fatalf("expected 1 activity entry, got %d", len(f.log.entries))
	}
	entry := f.log.entries[0]
	if entry.Action != domain.ActionDownload || entry.OriginIP != "10.0.0.9" {
		t.Fatalf("unexpected entry: %+v", entry)
	}
	if entry.DocumentID == nil || *entry.DocumentID != "doc-1" {
		t.Fatal("entry must reference the document")
	}
}

func TestSetTagsNormalizes(t *testing.T) {
	f := newDocumentFixture()
	f.seedDocument("doc-1", "owner")
	owner := actorWith("owner", domain.RoleEditor, true)

	err := f.service.SetTags(context.Background(), owner, "doc-1", []string{" Finance ", "q3", "finance", ""}, "")
	if err != nil {
		t.Fatalf("set tags: %v", err)
	}

	want := []string{"finance", "q3"}
	if got := f.docs.docs["doc-1"].Tags; !reflect.DeepEqual(got, want) {
		t.Fatalf("tags = %v, want %v", got, want)
	}
}

func TestAddCommentRequiresVisibility(t *testing.T) {
	f := newDocumentFixture()
	f.seedDocument("doc-1", "owner")
	stranger := actorWith("stranger", domain.RoleReader, true)

	_, err := f.service.AddComment(context.Background(), stranger, "doc-1", AddCommentInput{Body: "nice"})
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}

	// A browse grant implies enough visibility to comment.
	f.grants.grants = append(f.grants.grants, domain.PermissionGrant{
		ID: "g1", SubjectID: "stranger", ResourceType: domain.ResourceDocument,
		ResourceID: "doc-1", Kind: domain.PermBrowse, Active: true,
	})

	comment, err := f.service.AddComment(context.Background(), stranger, "doc-1", AddCommentInput{Body: "nice"})
	if err != nil {
		t.Fatalf("comment with browse grant: %v", err)
	}
	if comment.AuthorID != "stranger" {
		t.Fatalf("unexpected author %s", comment.AuthorID)
	}
}

func TestListPinsNonSuperusersToOwnDocuments(t *testing.T) {
	f := newDocumentFixture()
	f.seedDocument("mine", "me")
	f.seedDocument("theirs", "someone-else")
	me := actorWith("me", domain.RoleReader, true)

	// The filter asks for someone else's documents; the service pins it back.
	docs, err := f.service.List(context.Background(), me, port.DocumentFilter{OwnerID: "someone-else"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(docs) != 1 || docs[0].ID != "mine" {
		t.Fatalf("expected only own documents, got %+v", docs)
	}
}
