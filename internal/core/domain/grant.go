package domain

import "time"

// PermissionKind names a grantable capability on a resource. Document and
// folder resources use disjoint kind sets; the zero value is invalid.
type PermissionKind string

// Document permission kinds.
const (
	PermBrowse   PermissionKind = "browse"
	PermChange   PermissionKind = "change"
	PermDelete   PermissionKind = "delete"
	PermShare    PermissionKind = "share"
	PermDownload PermissionKind = "download"
	PermComment  PermissionKind = "comment"
)

// Folder permission kinds. Browse, change, and delete are shared names with
// documents; manage is folder-only and supersedes change for
// permission-administration actions.
const (
	PermManage PermissionKind = "manage"
)

// DocumentPermissionKinds lists every kind grantable on a document.
func DocumentPermissionKinds() []PermissionKind {
	return []PermissionKind{PermBrowse, PermChange, PermDelete, PermShare, PermDownload, PermComment}
}

// FolderPermissionKinds lists every kind grantable on a folder.
func FolderPermissionKinds() []PermissionKind {
	return []PermissionKind{PermBrowse, PermChange, PermDelete, PermManage}
}

// ValidFor reports whether the kind is grantable on the given resource type.
func (k PermissionKind) ValidFor(rt ResourceType) bool {
	var kinds []PermissionKind
	switch rt {
	case ResourceDocument:
		kinds = DocumentPermissionKinds()
	case ResourceFolder:
		kinds = FolderPermissionKinds()
	default:
		return false
	}
	for _, kind := range kinds {
		if kind == k {
			return true
		}
	}
	return false
}

// PermissionGrant binds a subject to a resource and a permission kind. At most
// one active grant exists per (subject, resource, kind); re-sharing replaces
// prior grants instead of stacking. Expired grants are treated as absent but
// not eagerly deleted.
type PermissionGrant struct {
	ID           string
	SubjectID    string
	ResourceType ResourceType
	ResourceID   string
	Kind         PermissionKind
	GrantedBy    string
	GrantedAt    time.Time
	ExpiresAt    *time.Time
	Active       bool
}

// Expired reports whether the grant's expiry has passed at the given instant.
func (g PermissionGrant) Expired(now time.Time) bool {
	return g.ExpiresAt != nil && !g.ExpiresAt.After(now)
}

// GrantSet is the set of permission kinds a subject currently holds on one
// resource.
type GrantSet map[PermissionKind]struct{}

// Has reports whether the set contains the kind.
func (s GrantSet) Has(kind PermissionKind) bool {
	_, ok := s[kind]
	return ok
}

// Kinds returns the contained kinds in unspecified order.
func (s GrantSet) Kinds() []PermissionKind {
	kinds := make([]PermissionKind, 0, len(s))
	for kind := range s {
		kinds = append(kinds, kind)
	}
	return kinds
}
