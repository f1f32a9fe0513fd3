package domain

import "time"

// ResourceType distinguishes the two units of access control.
type ResourceType string

const (
	ResourceDocument ResourceType = "document"
	ResourceFolder   ResourceType = "folder"
)

// ResourceRef identifies a document or folder for grant and audit purposes.
type ResourceRef struct {
	Type ResourceType
	ID   string
}

// DocumentRef builds a reference to a document.
func DocumentRef(id string) ResourceRef {
	return ResourceRef{Type: ResourceDocument, ID: id}
}

// FolderRef builds a reference to a folder.
func FolderRef(id string) ResourceRef {
	return ResourceRef{Type: ResourceFolder, ID: id}
}

// DocumentStatus enumerates the document lifecycle states.
type DocumentStatus string

const (
	StatusDraft     DocumentStatus = "draft"
	StatusPublished DocumentStatus = "published"
	StatusArchived  DocumentStatus = "archived"
)

// Valid reports whether the status is one of the known values.
func (s DocumentStatus) Valid() bool {
	switch s {
	case StatusDraft, StatusPublished, StatusArchived:
		return true
	}
	return false
}

// Folder is a tree node owned by a user. ParentID is nil for roots; the
// (Name, ParentID, OwnerID) triple is unique. Parents must pre-exist, which
// keeps the forest acyclic by construction.
type Folder struct {
	ID          string
	Name        string
	Description string
	OwnerID     string
	ParentID    *string
	CreatedAt   time.Time
}

// Document is a leaf resource. Content bytes live in an external store; the
// document carries only metadata and the SHA-256 digest of the current
// content. Deleted is the soft-delete flag: documents are never hard-deleted
// by the normal flow.
type Document struct {
	ID          string
	Name        string
	ContentType string
	SizeBytes   int64
	OwnerID     string
	FolderID    string
	Deleted     bool
	Status      DocumentStatus
	Tags        []string
	ContentHash string
	Description string
	CreatedAt   time.Time
	ModifiedAt  time.Time
}

// DocumentVersion is an immutable snapshot of a document's content. Numbers
// start at 1 and are assigned max+1 per document, never reused even after a
// version is removed.
type DocumentVersion struct {
	ID          string
	DocumentID  string
	Number      int
	CreatedBy   string
	CreatedAt   time.Time
	ContentRef  string
	SizeBytes   int64
	ContentHash string
	Comment     string
}

// Comment is free text attached to a document, optionally replying to another
// comment.
type Comment struct {
	ID         string
	DocumentID string
	AuthorID   string
	Body       string
	ParentID   *string
	CreatedAt  time.Time
}

// FolderDeletionStrategy selects what happens to a folder's direct children
// when the folder is deleted. Exactly one strategy applies per deletion.
type FolderDeletionStrategy string

const (
	// DeletionMoveToParent reassigns direct children to the deleted folder's
	// own parent (nil when deleting a root).
	DeletionMoveToParent FolderDeletionStrategy = "move_to_parent"
	// DeletionMoveToTarget reassigns direct children to a caller-supplied
	// destination folder.
	DeletionMoveToTarget FolderDeletionStrategy = "move_to_target"
	// DeletionDeleteAll soft-deletes direct child documents and removes child
	// folders together with their subtrees.
	DeletionDeleteAll FolderDeletionStrategy = "delete_all"
)

// Valid reports whether the strategy is one of the known values.
func (s FolderDeletionStrategy) Valid() bool {
	switch s {
	case DeletionMoveToParent, DeletionMoveToTarget, DeletionDeleteAll:
		return true
	}
	return false
}
