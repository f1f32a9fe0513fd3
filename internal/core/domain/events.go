package domain

import "time"

// ResourceSharedEvent is emitted after a grant is written by the sharing
// workflow.
type ResourceSharedEvent struct {
	EventID      string
	ResourceType ResourceType
	ResourceID   string
	SubjectID    string
	GrantedBy    string
	Kind         PermissionKind
	ExpiresAt    *time.Time
	SharedAt     time.Time
	Metadata     map[string]any
}

// ShareRevokedEvent is emitted after all grants for a subject/resource pair
// are revoked.
type ShareRevokedEvent struct {
	EventID      string
	ResourceType ResourceType
	ResourceID   string
	SubjectID    string
	RevokedBy    string
	RevokedAt    time.Time
	Metadata     map[string]any
}

// DocumentDeletedEvent is emitted when a document is soft-deleted.
type DocumentDeletedEvent struct {
	EventID    string
	DocumentID string
	OwnerID    string
	DeletedBy  string
	DeletedAt  time.Time
	Metadata   map[string]any
}

// FolderDeletedEvent is emitted after a folder deletion commits, carrying the
// chosen disposition strategy and the affected child counts.
type FolderDeletedEvent struct {
	EventID      string
	FolderID     string
	OwnerID      string
	DeletedBy    string
	Strategy     FolderDeletionStrategy
	MovedDocs    int
	MovedFolders int
	DeletedAt    time.Time
	Metadata     map[string]any
}

// VersionUploadedEvent is emitted when a new document version is appended.
type VersionUploadedEvent struct {
	EventID    string
	DocumentID string
	Number     int
	CreatedBy  string
	SizeBytes  int64
	UploadedAt time.Time
	Metadata   map[string]any
}
