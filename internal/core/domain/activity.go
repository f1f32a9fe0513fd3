package domain

import "time"

// ActionKind enumerates the security-relevant actions recorded in the
// activity log.
type ActionKind string

const (
	ActionLogin            ActionKind = "login"
	ActionCreate           ActionKind = "create"
	ActionEdit             ActionKind = "edit"
	ActionDelete           ActionKind = "delete"
	ActionDownload         ActionKind = "download"
	ActionShare            ActionKind = "share"
	ActionComment          ActionKind = "comment"
	ActionPermissionChange ActionKind = "permission_change"
	ActionVersionUpload    ActionKind = "version_upload"
	ActionRoleChange       ActionKind = "role_change"
)

// ActivityLogEntry is an append-only audit record. Entries are written as a
// side effect of state-changing operations and never mutated or deleted by
// the normal flow.
type ActivityLogEntry struct {
	ID         string
	ActorID    string
	Action     ActionKind
	DocumentID *string
	FolderID   *string
	Detail     string
	OccurredAt time.Time
	OriginIP   string
}
